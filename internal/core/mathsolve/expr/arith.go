package expr

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ErrDivisionByZero is returned when an expression divides by zero.
var ErrDivisionByZero = errors.New("division by zero")

// ErrOutOfRange is returned when a result cannot be represented.
var ErrOutOfRange = errors.New("result out of range")

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d in %q: %s", e.Pos, e.Input, e.Msg)
}

// maxIntBits bounds exact integer powers; larger results go through
// float64 and usually end as ErrOutOfRange.
const maxIntBits = 1 << 14

// Value is a numeric result that remembers whether it is still an exact
// integer. Integers have arbitrary precision. Division always produces a
// float, matching calculator output such as "150.0" for 25*4+100/2.
type Value struct {
	Int     *big.Int
	Float   float64
	IsFloat bool
}

// IntValue wraps an integer.
func IntValue(v int64) Value { return Value{Int: big.NewInt(v)} }

func bigValue(v *big.Int) Value { return Value{Int: v} }

// bigInt returns the integer part; the zero Value reads as 0.
func (v Value) bigInt() *big.Int {
	if v.Int == nil {
		return new(big.Int)
	}
	return v.Int
}

// FloatValue wraps a float.
func FloatValue(v float64) Value { return Value{Float: v, IsFloat: true} }

// F returns the value as float64.
func (v Value) F() float64 {
	if v.IsFloat {
		return v.Float
	}
	f, _ := new(big.Float).SetInt(v.bigInt()).Float64()
	return f
}

// String renders integers without a decimal point and floats always with one.
func (v Value) String() string {
	if !v.IsFloat {
		return v.bigInt().String()
	}
	return FormatFloat(v.Float)
}

// FormatFloat renders a float the way a calculator display would: shortest
// round-trip digits, a trailing ".0" for whole numbers, exponent form for
// very large or very small magnitudes.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// EvalArithmetic evaluates an expression over numbers, parentheses, unary
// signs and the binary operators + - * / ^ (with ** accepted for ^).
// Exponentiation binds tighter than unary minus and is right associative.
func EvalArithmetic(input string) (Value, error) {
	p := &arithParser{src: input}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return Value{}, &SyntaxError{Input: input, Pos: 0, Msg: "empty expression"}
	}
	v, err := p.parseSum()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return Value{}, p.errorf("unexpected %q", p.src[p.pos])
	}
	if v.IsFloat && (math.IsInf(v.Float, 0) || math.IsNaN(v.Float)) {
		return Value{}, ErrOutOfRange
	}
	return v, nil
}

type arithParser struct {
	src string
	pos int
}

func (p *arithParser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.src, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *arithParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *arithParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// peekPow reports whether the next token is ^ or **, and its width.
func (p *arithParser) peekPow() (bool, int) {
	c := p.peek()
	if c == '^' {
		return true, 1
	}
	if c == '*' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*' {
		return true, 2
	}
	return false, 0
}

func (p *arithParser) parseSum() (Value, error) {
	left, err := p.parseProduct()
	if err != nil {
		return Value{}, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return Value{}, err
		}
		if op == '+' {
			left, err = addValues(left, right)
		} else {
			left, err = addValues(left, negate(right))
		}
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *arithParser) parseProduct() (Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Value{}, err
	}
	for {
		if isPow, _ := p.peekPow(); isPow {
			return left, nil
		}
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		if op == '*' {
			left, err = mulValues(left, right)
		} else {
			left, err = divValues(left, right)
		}
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *arithParser) parseUnary() (Value, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		return negate(v), nil
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *arithParser) parsePower() (Value, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return Value{}, err
	}
	if isPow, width := p.peekPow(); isPow {
		p.pos += width
		exp, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		return powValues(base, exp)
	}
	return base, nil
}

func (p *arithParser) parsePrimary() (Value, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return Value{}, err
		}
		if p.peek() != ')' {
			return Value{}, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case isDigit(c) || c == '.':
		return p.parseNumber()
	case c == 0:
		return Value{}, p.errorf("unexpected end of expression")
	default:
		return Value{}, p.errorf("unexpected %q", c)
	}
}

func (p *arithParser) parseNumber() (Value, error) {
	start := p.pos
	dots := 0
	for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		if p.src[p.pos] == '.' {
			dots++
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if dots > 1 || lit == "." {
		return Value{}, &SyntaxError{Input: p.src, Pos: start, Msg: fmt.Sprintf("invalid number %q", lit)}
	}
	if dots == 0 {
		if n, ok := new(big.Int).SetString(lit, 10); ok {
			return bigValue(n), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, &SyntaxError{Input: p.src, Pos: start, Msg: fmt.Sprintf("invalid number %q", lit)}
	}
	return FloatValue(f), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func negate(v Value) Value {
	if v.IsFloat {
		return FloatValue(-v.Float)
	}
	return bigValue(new(big.Int).Neg(v.bigInt()))
}

func addValues(a, b Value) (Value, error) {
	if !a.IsFloat && !b.IsFloat {
		return bigValue(new(big.Int).Add(a.bigInt(), b.bigInt())), nil
	}
	return FloatValue(a.F() + b.F()), nil
}

func mulValues(a, b Value) (Value, error) {
	if !a.IsFloat && !b.IsFloat {
		return bigValue(new(big.Int).Mul(a.bigInt(), b.bigInt())), nil
	}
	return FloatValue(a.F() * b.F()), nil
}

func divValues(a, b Value) (Value, error) {
	if b.F() == 0 {
		return Value{}, ErrDivisionByZero
	}
	return FloatValue(a.F() / b.F()), nil
}

func powValues(base, exp Value) (Value, error) {
	if !base.IsFloat && !exp.IsFloat && exp.bigInt().Sign() >= 0 {
		b, e := base.bigInt(), exp.bigInt()
		switch {
		case e.Sign() == 0 || isInt(b, 1):
			return IntValue(1), nil
		case b.Sign() == 0:
			return IntValue(0), nil
		case isInt(b, -1):
			if e.Bit(0) == 0 {
				return IntValue(1), nil
			}
			return IntValue(-1), nil
		case e.IsInt64() && e.Int64() <= maxIntBits && int64(b.BitLen())*e.Int64() <= maxIntBits:
			return bigValue(new(big.Int).Exp(b, e, nil)), nil
		}
	}
	if base.F() == 0 && exp.F() < 0 {
		return Value{}, ErrDivisionByZero
	}
	if base.F() < 0 && exp.F() != math.Trunc(exp.F()) {
		return Value{}, fmt.Errorf("%w: fractional power of a negative number", ErrOutOfRange)
	}
	f := math.Pow(base.F(), exp.F())
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, ErrOutOfRange
	}
	return FloatValue(f), nil
}

func isInt(v *big.Int, n int64) bool {
	return v.IsInt64() && v.Int64() == n
}
