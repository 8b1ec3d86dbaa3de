package expr

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"
)

// MaxDegree is the highest polynomial degree the solver accepts.
const MaxDegree = 4

// ErrNotPolynomial is returned when an expression cannot be expanded into
// a polynomial in the requested symbol.
var ErrNotPolynomial = errors.New("not a polynomial")

// Polynomial holds coefficients indexed by degree.
type Polynomial []float64

// Degree returns the index of the highest non-zero coefficient, or -1 for
// the zero polynomial.
func (p Polynomial) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if math.Abs(p[i]) > epsilon {
			return i
		}
	}
	return -1
}

// Node converts the polynomial back to an expression tree.
func (p Polynomial) Node(name string) Node {
	terms := make([]Node, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		c := p[i]
		if math.Abs(c) < epsilon {
			continue
		}
		switch i {
		case 0:
			terms = append(terms, num(c))
		case 1:
			terms = append(terms, mul(num(c), Var{Name: name}))
		default:
			terms = append(terms, mul(num(c), pow(Var{Name: name}, num(float64(i)))))
		}
	}
	if len(terms) == 0 {
		return num(0)
	}
	return Simplify(add(terms...))
}

func (p Polynomial) plus(q Polynomial) Polynomial {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Polynomial, n)
	copy(out, p)
	for i, c := range q {
		out[i] += c
	}
	return out
}

func (p Polynomial) times(q Polynomial) Polynomial {
	if len(p) == 0 || len(q) == 0 {
		return Polynomial{0}
	}
	out := make(Polynomial, len(p)+len(q)-1)
	for i, a := range p {
		for j, b := range q {
			out[i+j] += a * b
		}
	}
	return out
}

// ToPolynomial expands n into a polynomial in the named symbol. Other
// symbols, functions of the symbol and non-integer powers are rejected.
func ToPolynomial(n Node, name string) (Polynomial, error) {
	p, err := toPoly(n, name)
	if err != nil {
		return nil, err
	}
	if p.Degree() > 2*MaxDegree {
		return nil, fmt.Errorf("%w: degree %d too high", ErrNotPolynomial, p.Degree())
	}
	return p, nil
}

func toPoly(n Node, name string) (Polynomial, error) {
	switch t := n.(type) {
	case Num:
		return Polynomial{t.V}, nil
	case Var:
		if t.Name != name {
			return nil, fmt.Errorf("%w: unexpected symbol %s", ErrNotPolynomial, t.Name)
		}
		return Polynomial{0, 1}, nil
	case Add:
		out := Polynomial{0}
		for _, term := range t.Terms {
			p, err := toPoly(term, name)
			if err != nil {
				return nil, err
			}
			out = out.plus(p)
		}
		return out, nil
	case Mul:
		out := Polynomial{1}
		for _, f := range t.Factors {
			p, err := toPoly(f, name)
			if err != nil {
				return nil, err
			}
			out = out.times(p)
		}
		return out, nil
	case Pow:
		exp, ok := Simplify(t.Exp).(Num)
		if !ok {
			return nil, fmt.Errorf("%w: symbolic exponent", ErrNotPolynomial)
		}
		base, err := toPoly(t.Base, name)
		if err != nil {
			return nil, err
		}
		if base.Degree() <= 0 {
			c := 0.0
			if len(base) > 0 {
				c = base[0]
			}
			v := math.Pow(c, exp.V)
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: invalid constant power", ErrNotPolynomial)
			}
			return Polynomial{v}, nil
		}
		if exp.V < 0 || exp.V != math.Trunc(exp.V) || exp.V > 2*MaxDegree {
			return nil, fmt.Errorf("%w: exponent %s", ErrNotPolynomial, FormatNumber(exp.V))
		}
		out := Polynomial{1}
		for i := 0; i < int(exp.V); i++ {
			out = out.times(base)
		}
		return out, nil
	case Call:
		if Depends(t, name) {
			return nil, fmt.Errorf("%w: function %s", ErrNotPolynomial, t.Fn)
		}
		v := Simplify(t)
		if c, ok := v.(Num); ok {
			return Polynomial{c.V}, nil
		}
		if c, ok := evalFunc(t.Fn, constantValue(t.Arg)); ok {
			return Polynomial{c}, nil
		}
		return nil, fmt.Errorf("%w: function %s", ErrNotPolynomial, t.Fn)
	}
	return nil, ErrNotPolynomial
}

func constantValue(n Node) float64 {
	p, err := toPoly(n, Symbol)
	if err != nil || p.Degree() > 0 || len(p) == 0 {
		return math.NaN()
	}
	return p[0]
}

// Roots returns every root of p, real and complex, with repeated roots
// reported once. Degrees one and two are solved in closed form; degrees
// three and four use Durand-Kerner iteration.
func (p Polynomial) Roots() ([]complex128, error) {
	deg := p.Degree()
	switch {
	case deg < 1:
		return nil, nil
	case deg > MaxDegree:
		return nil, fmt.Errorf("%w: degree %d above %d", ErrNotPolynomial, deg, MaxDegree)
	}
	var roots []complex128
	switch deg {
	case 1:
		roots = []complex128{complex(-p[0]/p[1], 0)}
	case 2:
		a, b, c := p[2], p[1], p[0]
		disc := cmplx.Sqrt(complex(b*b-4*a*c, 0))
		roots = []complex128{
			(complex(-b, 0) - disc) / complex(2*a, 0),
			(complex(-b, 0) + disc) / complex(2*a, 0),
		}
	default:
		roots = durandKerner(p[:deg+1])
	}
	for i := range roots {
		roots[i] = clean(roots[i])
	}
	return sortRoots(dedupe(roots)), nil
}

func durandKerner(p Polynomial) []complex128 {
	deg := len(p) - 1
	lead := p[deg]
	monic := make([]complex128, len(p))
	for i, c := range p {
		monic[i] = complex(c/lead, 0)
	}
	eval := func(z complex128) complex128 {
		out := complex(0, 0)
		for i := deg; i >= 0; i-- {
			out = out*z + monic[i]
		}
		return out
	}
	roots := make([]complex128, deg)
	seed := complex(0.4, 0.9)
	roots[0] = 1
	for i := 1; i < deg; i++ {
		roots[i] = roots[i-1] * seed
	}
	for iter := 0; iter < 500; iter++ {
		maxDelta := 0.0
		for i := range roots {
			den := complex(1, 0)
			for j := range roots {
				if i != j {
					den *= roots[i] - roots[j]
				}
			}
			if den == 0 {
				den = complex(epsilon, epsilon)
			}
			delta := eval(roots[i]) / den
			roots[i] -= delta
			if d := cmplx.Abs(delta); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < 1e-14 {
			break
		}
	}
	return roots
}

// clean snaps tiny imaginary parts to zero and near-integers to integers.
func clean(z complex128) complex128 {
	re, im := real(z), imag(z)
	const tol = 1e-7
	if math.Abs(im) < tol*math.Max(1, math.Abs(re)) {
		im = 0
	}
	if r := math.Round(re); math.Abs(re-r) < tol {
		re = r
	}
	if r := math.Round(im); math.Abs(im-r) < tol {
		im = r
	}
	if re == 0 {
		re = 0 // normalize -0
	}
	return complex(re, im)
}

func dedupe(roots []complex128) []complex128 {
	out := make([]complex128, 0, len(roots))
	for _, r := range roots {
		dup := false
		for _, seen := range out {
			if cmplx.Abs(r-seen) < 1e-6 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// sortRoots orders real roots ascending, then complex roots by real and
// imaginary part.
func sortRoots(roots []complex128) []complex128 {
	sort.SliceStable(roots, func(i, j int) bool {
		ri, rj := imag(roots[i]) == 0, imag(roots[j]) == 0
		if ri != rj {
			return ri
		}
		if real(roots[i]) != real(roots[j]) {
			return real(roots[i]) < real(roots[j])
		}
		return imag(roots[i]) < imag(roots[j])
	})
	return roots
}

// FormatRoot prints a root with I as the imaginary unit.
func FormatRoot(z complex128) string {
	re, im := real(z), imag(z)
	if im == 0 {
		return FormatNumber(re)
	}
	unit := formatImag(math.Abs(im))
	switch {
	case re == 0 && im < 0:
		return "-" + unit
	case re == 0:
		return unit
	case im < 0:
		return FormatNumber(re) + " - " + unit
	default:
		return FormatNumber(re) + " + " + unit
	}
}

func formatImag(v float64) string {
	if v == 1 {
		return "I"
	}
	if p, q := ratio(v); q != 1 {
		return FormatNumber(p) + "*I/" + FormatNumber(q)
	}
	return FormatNumber(v) + "*I"
}

// FormatRoots prints roots as a bracketed, comma separated list.
func FormatRoots(roots []complex128) string {
	parts := make([]string, 0, len(roots))
	for _, r := range roots {
		parts = append(parts, FormatRoot(r))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
