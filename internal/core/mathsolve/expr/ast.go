package expr

import (
	"math"
	"sort"
	"strings"
)

// Node is a symbolic expression tree. Subtraction is represented as
// addition of a -1 multiple and division as a -1 power.
type Node interface {
	node()
}

// Num is a numeric constant.
type Num struct{ V float64 }

// Var is a named symbol such as x.
type Var struct{ Name string }

// Add is a sum of terms.
type Add struct{ Terms []Node }

// Mul is a product of factors.
type Mul struct{ Factors []Node }

// Pow raises Base to Exp.
type Pow struct{ Base, Exp Node }

// Call applies a named function (sin, cos, tan, exp, ln, sqrt) to Arg.
type Call struct {
	Fn  string
	Arg Node
}

func (Num) node()  {}
func (Var) node()  {}
func (Add) node()  {}
func (Mul) node()  {}
func (Pow) node()  {}
func (Call) node() {}

// Symbol used for solving and calculus.
const Symbol = "x"

func num(v float64) Node            { return Num{V: v} }
func add(terms ...Node) Node        { return Add{Terms: terms} }
func mul(factors ...Node) Node      { return Mul{Factors: factors} }
func pow(base, exp Node) Node       { return Pow{Base: base, Exp: exp} }
func call(fn string, arg Node) Node { return Call{Fn: fn, Arg: arg} }
func neg(n Node) Node               { return mul(num(-1), n) }
func div(top, bottom Node) Node     { return mul(top, pow(bottom, num(-1))) }
func sym() Node                     { return Var{Name: Symbol} }

func isNum(n Node, v float64) bool {
	c, ok := n.(Num)
	return ok && c.V == v
}

// Depends reports whether n references the named symbol.
func Depends(n Node, name string) bool {
	switch t := n.(type) {
	case Var:
		return t.Name == name
	case Add:
		for _, term := range t.Terms {
			if Depends(term, name) {
				return true
			}
		}
	case Mul:
		for _, f := range t.Factors {
			if Depends(f, name) {
				return true
			}
		}
	case Pow:
		return Depends(t.Base, name) || Depends(t.Exp, name)
	case Call:
		return Depends(t.Arg, name)
	}
	return false
}

// String prints n with ^ for powers and * for products, ordering polynomial
// terms by descending degree.
func String(n Node) string {
	return render(Simplify(n))
}

func render(n Node) string {
	switch t := n.(type) {
	case Num:
		return FormatNumber(t.V)
	case Var:
		return t.Name
	case Call:
		return t.Fn + "(" + render(t.Arg) + ")"
	case Pow:
		return printPow(t)
	case Mul:
		return printMul(t)
	case Add:
		return printAdd(t)
	}
	return "?"
}

func printPow(p Pow) string {
	if e, ok := p.Exp.(Num); ok {
		if e.V < 0 {
			return "1/" + wrapFactor(Simplify(pow(p.Base, num(-e.V))))
		}
		if e.V == 0.5 {
			return "sqrt(" + render(p.Base) + ")"
		}
	}
	return wrapPowBase(p.Base) + "^" + wrapPowExp(p.Exp)
}

func wrapPowBase(n Node) string {
	switch t := n.(type) {
	case Var, Call:
		return render(n)
	case Num:
		if t.V >= 0 && t.V == math.Trunc(t.V) {
			return render(n)
		}
	}
	return "(" + render(n) + ")"
}

func wrapPowExp(n Node) string {
	switch t := n.(type) {
	case Var:
		return render(n)
	case Num:
		if t.V >= 0 && t.V == math.Trunc(t.V) {
			return render(n)
		}
	}
	return "(" + render(n) + ")"
}

func wrapFactor(n Node) string {
	switch t := n.(type) {
	case Add:
		return "(" + render(n) + ")"
	case Num:
		if t.V < 0 || t.V != math.Trunc(t.V) {
			return "(" + render(n) + ")"
		}
	case Mul:
		return "(" + render(n) + ")"
	}
	return render(n)
}

func printMul(m Mul) string {
	coef, rest := splitCoefficient(m)
	sign := ""
	if coef < 0 {
		sign = "-"
		coef = -coef
	}
	numer, den := ratio(coef)

	var top, bottom []string
	if numer != 1 || (len(rest) == 0 && den == 1) {
		top = append(top, FormatNumber(numer))
	}
	if den != 1 {
		bottom = append(bottom, FormatNumber(den))
	}
	for _, f := range rest {
		if p, ok := f.(Pow); ok {
			if e, ok := p.Exp.(Num); ok && e.V < 0 {
				inv := Simplify(pow(p.Base, num(-e.V)))
				bottom = append(bottom, wrapFactor(inv))
				continue
			}
		}
		top = append(top, wrapFactor(f))
	}
	if len(top) == 0 {
		top = []string{"1"}
	}
	out := sign + strings.Join(top, "*")
	if len(bottom) == 1 {
		out += "/" + bottom[0]
	} else if len(bottom) > 1 {
		out += "/(" + strings.Join(bottom, "*") + ")"
	}
	return out
}

func printAdd(a Add) string {
	terms := append([]Node(nil), a.Terms...)
	sort.SliceStable(terms, func(i, j int) bool {
		return termOrder(terms[i]) > termOrder(terms[j])
	})
	var b strings.Builder
	for i, term := range terms {
		s := render(term)
		if i == 0 {
			b.WriteString(s)
			continue
		}
		if strings.HasPrefix(s, "-") {
			b.WriteString(" - ")
			b.WriteString(s[1:])
		} else {
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}

// termOrder ranks terms so that higher powers of x print first and bare
// constants print last.
func termOrder(n Node) float64 {
	switch t := n.(type) {
	case Num:
		return -1
	case Var:
		if t.Name == Symbol {
			return 1
		}
		return 0
	case Pow:
		if v, ok := t.Base.(Var); ok && v.Name == Symbol {
			if e, ok := t.Exp.(Num); ok {
				return e.V
			}
		}
		return 0
	case Mul:
		best := 0.0
		for _, f := range t.Factors {
			if _, ok := f.(Num); ok {
				continue
			}
			if o := termOrder(f); o > best {
				best = o
			}
		}
		return best
	}
	return 0
}

func splitCoefficient(m Mul) (float64, []Node) {
	coef := 1.0
	rest := make([]Node, 0, len(m.Factors))
	for _, f := range m.Factors {
		if c, ok := f.(Num); ok {
			coef *= c.V
			continue
		}
		rest = append(rest, f)
	}
	return coef, rest
}
