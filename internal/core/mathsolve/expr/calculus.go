package expr

import (
	"errors"
	"fmt"
)

// ErrNotIntegrable is returned when no antiderivative rule applies.
var ErrNotIntegrable = errors.New("no closed-form antiderivative found")

// Diff differentiates n with respect to the named symbol.
func Diff(n Node, name string) Node {
	return Simplify(diff(Simplify(n), name))
}

func diff(n Node, name string) Node {
	if !Depends(n, name) {
		return num(0)
	}
	switch t := n.(type) {
	case Var:
		return num(1)
	case Add:
		terms := make([]Node, 0, len(t.Terms))
		for _, term := range t.Terms {
			terms = append(terms, diff(term, name))
		}
		return add(terms...)
	case Mul:
		terms := make([]Node, 0, len(t.Factors))
		for i := range t.Factors {
			factors := make([]Node, 0, len(t.Factors))
			for j, f := range t.Factors {
				if i == j {
					factors = append(factors, diff(f, name))
				} else {
					factors = append(factors, f)
				}
			}
			terms = append(terms, mul(factors...))
		}
		return add(terms...)
	case Pow:
		switch {
		case !Depends(t.Exp, name):
			// d/dx u^n = n * u^(n-1) * u'
			return mul(t.Exp, pow(t.Base, add(t.Exp, num(-1))), diff(t.Base, name))
		case !Depends(t.Base, name):
			// d/dx a^u = a^u * ln(a) * u'
			return mul(t, call("ln", t.Base), diff(t.Exp, name))
		default:
			// d/dx u^v = u^v * (v' ln u + v u'/u)
			return mul(t, add(
				mul(diff(t.Exp, name), call("ln", t.Base)),
				mul(t.Exp, diff(t.Base, name), pow(t.Base, num(-1))),
			))
		}
	case Call:
		inner := diff(t.Arg, name)
		switch t.Fn {
		case "sin":
			return mul(call("cos", t.Arg), inner)
		case "cos":
			return mul(num(-1), call("sin", t.Arg), inner)
		case "tan":
			return mul(add(pow(call("tan", t.Arg), num(2)), num(1)), inner)
		case "exp":
			return mul(t, inner)
		case "ln":
			return mul(inner, pow(t.Arg, num(-1)))
		}
	}
	return num(0)
}

// Integrate returns an antiderivative of n with respect to the named
// symbol, without the constant of integration.
func Integrate(n Node, name string) (Node, error) {
	out, err := integrate(Simplify(n), name)
	if err != nil {
		return nil, err
	}
	return Simplify(out), nil
}

func integrate(n Node, name string) (Node, error) {
	v := Var{Name: name}
	if !Depends(n, name) {
		return mul(n, v), nil
	}
	switch t := n.(type) {
	case Var:
		return div(pow(v, num(2)), num(2)), nil
	case Add:
		terms := make([]Node, 0, len(t.Terms))
		for _, term := range t.Terms {
			out, err := integrate(term, name)
			if err != nil {
				return nil, err
			}
			terms = append(terms, out)
		}
		return add(terms...), nil
	case Mul:
		var constant, variable []Node
		for _, f := range t.Factors {
			if Depends(f, name) {
				variable = append(variable, f)
			} else {
				constant = append(constant, f)
			}
		}
		if len(variable) != 1 {
			// x*(x+1) style products integrate after expansion.
			if poly, err := ToPolynomial(n, name); err == nil {
				return integrate(poly.Node(name), name)
			}
			return nil, fmt.Errorf("%w: product %s", ErrNotIntegrable, render(n))
		}
		out, err := integrate(variable[0], name)
		if err != nil {
			return nil, err
		}
		return mul(append(constant, out)...), nil
	case Pow:
		if Depends(t.Exp, name) {
			a, _, ok := linear(t.Exp, name)
			if ok && !Depends(t.Base, name) {
				// c^(ax+b) -> c^(ax+b) / (a ln c)
				return div(t, mul(a, call("ln", t.Base))), nil
			}
			return nil, fmt.Errorf("%w: %s", ErrNotIntegrable, render(n))
		}
		a, _, ok := linear(t.Base, name)
		if !ok {
			if poly, err := ToPolynomial(n, name); err == nil {
				return integrate(poly.Node(name), name)
			}
			return nil, fmt.Errorf("%w: %s", ErrNotIntegrable, render(n))
		}
		if isNum(Simplify(t.Exp), -1) {
			return div(call("ln", t.Base), a), nil
		}
		next := add(t.Exp, num(1))
		return div(pow(t.Base, next), mul(a, next)), nil
	case Call:
		a, _, ok := linear(t.Arg, name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotIntegrable, render(n))
		}
		switch t.Fn {
		case "sin":
			return div(neg(call("cos", t.Arg)), a), nil
		case "cos":
			return div(call("sin", t.Arg), a), nil
		case "exp":
			return div(t, a), nil
		case "tan":
			return div(neg(call("ln", call("cos", t.Arg))), a), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotIntegrable, render(n))
}

// linear reports whether n is a*x + b in the named symbol with a != 0.
func linear(n Node, name string) (Node, Node, bool) {
	poly, err := ToPolynomial(n, name)
	if err != nil || poly.Degree() != 1 {
		return nil, nil, false
	}
	return num(poly[1]), num(poly[0]), true
}
