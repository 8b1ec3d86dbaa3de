package expr

import (
	"math"
	"sort"
)

// Simplify folds constants, flattens nested sums and products, collects
// like terms and like factors, and distributes a lone numeric coefficient
// over a sum.
func Simplify(n Node) Node {
	switch t := n.(type) {
	case Add:
		return simplifyAdd(t)
	case Mul:
		return simplifyMul(t)
	case Pow:
		return simplifyPow(t)
	case Call:
		return simplifyCall(t)
	}
	return n
}

func simplifyCall(c Call) Node {
	arg := Simplify(c.Arg)
	switch c.Fn {
	case "ln":
		if inner, ok := arg.(Call); ok && inner.Fn == "exp" {
			return inner.Arg
		}
	case "exp":
		if inner, ok := arg.(Call); ok && inner.Fn == "ln" {
			return inner.Arg
		}
	}
	if a, ok := arg.(Num); ok {
		if v, ok := evalFunc(c.Fn, a.V); ok && math.Abs(v-math.Round(v)) < epsilon {
			return num(math.Round(v))
		}
	}
	return Call{Fn: c.Fn, Arg: arg}
}

func evalFunc(fn string, v float64) (float64, bool) {
	var out float64
	switch fn {
	case "sin":
		out = math.Sin(v)
	case "cos":
		out = math.Cos(v)
	case "tan":
		out = math.Tan(v)
	case "exp":
		out = math.Exp(v)
	case "ln":
		if v <= 0 {
			return 0, false
		}
		out = math.Log(v)
	default:
		return 0, false
	}
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return 0, false
	}
	return out, true
}

func simplifyPow(p Pow) Node {
	base := Simplify(p.Base)
	exp := Simplify(p.Exp)

	if isNum(exp, 0) || isNum(base, 1) {
		return num(1)
	}
	if isNum(exp, 1) {
		return base
	}
	b, bok := base.(Num)
	e, eok := exp.(Num)
	if bok && b.V == math.E {
		return Simplify(call("exp", exp))
	}
	if bok && eok {
		v := math.Pow(b.V, e.V)
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			return num(v)
		}
	}
	if eok {
		switch inner := base.(type) {
		case Pow:
			if ie, ok := inner.Exp.(Num); ok && (e.V == math.Trunc(e.V) || ie.V == math.Trunc(ie.V) && ie.V > 0 && int(ie.V)%2 == 1) {
				return simplifyPow(Pow{Base: inner.Base, Exp: num(ie.V * e.V)})
			}
		case Mul:
			if e.V == math.Trunc(e.V) {
				factors := make([]Node, 0, len(inner.Factors))
				for _, f := range inner.Factors {
					factors = append(factors, pow(f, exp))
				}
				return simplifyMul(Mul{Factors: factors})
			}
		}
	}
	return Pow{Base: base, Exp: exp}
}

type factorGroup struct {
	base Node
	exp  float64
	key  string
}

func simplifyMul(m Mul) Node {
	coef := 1.0
	var groups []*factorGroup
	index := map[string]*factorGroup{}
	var atoms []Node

	var collect func(f Node)
	collect = func(f Node) {
		switch t := f.(type) {
		case Num:
			coef *= t.V
		case Mul:
			for _, inner := range t.Factors {
				collect(inner)
			}
		case Pow:
			if e, ok := t.Exp.(Num); ok {
				addFactor(&groups, index, t.Base, e.V)
				return
			}
			atoms = append(atoms, t)
		default:
			addFactor(&groups, index, t, 1)
		}
	}
	for _, f := range m.Factors {
		collect(Simplify(f))
	}

	if coef == 0 {
		return num(0)
	}

	factors := make([]Node, 0, len(groups)+len(atoms))
	for _, g := range groups {
		switch {
		case math.Abs(g.exp) < epsilon:
			continue
		case g.exp == 1:
			factors = append(factors, g.base)
		default:
			factors = append(factors, Pow{Base: g.base, Exp: num(g.exp)})
		}
	}
	factors = append(factors, atoms...)
	sort.SliceStable(factors, func(i, j int) bool {
		return factorRank(factors[i]) < factorRank(factors[j])
	})

	switch {
	case len(factors) == 0:
		return num(coef)
	case len(factors) == 1 && coef == 1:
		return factors[0]
	case len(factors) == 1:
		if sum, ok := factors[0].(Add); ok {
			terms := make([]Node, 0, len(sum.Terms))
			for _, term := range sum.Terms {
				terms = append(terms, mul(num(coef), term))
			}
			return simplifyAdd(Add{Terms: terms})
		}
	}
	if coef != 1 {
		factors = append([]Node{num(coef)}, factors...)
	}
	return Mul{Factors: factors}
}

func addFactor(groups *[]*factorGroup, index map[string]*factorGroup, base Node, exp float64) {
	key := render(base)
	if g, ok := index[key]; ok {
		g.exp += exp
		return
	}
	g := &factorGroup{base: base, exp: exp, key: key}
	index[key] = g
	*groups = append(*groups, g)
}

// factorRank orders factors inside a product: symbols and their powers,
// then function calls, then parenthesized sums.
func factorRank(n Node) int {
	switch t := n.(type) {
	case Var:
		return 0
	case Pow:
		if _, ok := t.Base.(Var); ok {
			if e, ok := t.Exp.(Num); ok && e.V > 0 {
				return 0
			}
		}
		return 3
	case Call:
		return 1
	case Add:
		return 2
	}
	return 3
}

type termGroup struct {
	coef float64
	rest []Node
}

func simplifyAdd(a Add) Node {
	constant := 0.0
	var order []string
	groups := map[string]*termGroup{}

	var collect func(term Node)
	collect = func(term Node) {
		switch t := term.(type) {
		case Num:
			constant += t.V
			return
		case Add:
			for _, inner := range t.Terms {
				collect(inner)
			}
			return
		}
		coef := 1.0
		rest := []Node{term}
		if m, ok := term.(Mul); ok {
			coef, rest = splitCoefficient(m)
		}
		key := render(Mul{Factors: rest})
		if g, ok := groups[key]; ok {
			g.coef += coef
			return
		}
		groups[key] = &termGroup{coef: coef, rest: rest}
		order = append(order, key)
	}
	for _, term := range a.Terms {
		collect(Simplify(term))
	}

	terms := make([]Node, 0, len(order)+1)
	for _, key := range order {
		g := groups[key]
		if math.Abs(g.coef) < epsilon {
			continue
		}
		switch {
		case g.coef == 1 && len(g.rest) == 1:
			terms = append(terms, g.rest[0])
		case g.coef == 1:
			terms = append(terms, Mul{Factors: g.rest})
		default:
			terms = append(terms, Mul{Factors: append([]Node{num(g.coef)}, g.rest...)})
		}
	}
	if math.Abs(constant) >= epsilon {
		terms = append(terms, num(constant))
	}
	switch len(terms) {
	case 0:
		return num(0)
	case 1:
		return terms[0]
	}
	return Add{Terms: terms}
}
