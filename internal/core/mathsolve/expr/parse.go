package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Functions recognized by the symbolic parser. log is read as the natural
// logarithm and printed as ln.
var functions = map[string]string{
	"sin":  "sin",
	"cos":  "cos",
	"tan":  "tan",
	"exp":  "exp",
	"ln":   "ln",
	"log":  "ln",
	"sqrt": "sqrt",
}

// IsFunction reports whether word names a function the parser understands.
func IsFunction(word string) bool {
	_, ok := functions[strings.ToLower(word)]
	return ok
}

var unicodeReplacer = strings.NewReplacer(
	"×", "*",
	"·", "*",
	"÷", "/",
	"−", "-",
	"²", "^2",
	"³", "^3",
	"**", "^",
)

type tokenKind int

const (
	tokNum tokenKind = iota
	tokIdent
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	val  float64
	pos  int
}

// Parse reads an expression in one or more variables, accepting implicit
// multiplication such as 5x or 2(x+1).
func Parse(input string) (Node, error) {
	src := unicodeReplacer.Replace(input)
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, &SyntaxError{Input: input, Msg: "empty expression"}
	}
	n, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return n, nil
}

func tokenize(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			lit := string(runes[start:i])
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, &SyntaxError{Input: src, Pos: start, Msg: fmt.Sprintf("invalid number %q", lit)}
			}
			toks = append(toks, token{kind: tokNum, text: lit, val: v, pos: start})
		case unicode.IsLetter(r):
			start := i
			for i < len(runes) && unicode.IsLetter(runes[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		case strings.ContainsRune("+-*/^()", r):
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		default:
			return nil, &SyntaxError{Input: src, Pos: i, Msg: fmt.Sprintf("unexpected %q", r)}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(runes)}), nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Input: p.src, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseSum() (Node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	terms := []Node{left}
	for p.isOp("+") || p.isOp("-") {
		op := p.next()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if op.text == "-" {
			right = neg(right)
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}
	return add(terms...), nil
}

func (p *parser) parseProduct() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Node{left}
	for {
		t := p.peek()
		switch {
		case p.isOp("*"):
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, right)
		case p.isOp("/"):
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, pow(right, num(-1)))
		case t.kind == tokNum || t.kind == tokIdent || p.isOp("("):
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			factors = append(factors, right)
		default:
			if len(factors) == 1 {
				return left, nil
			}
			return mul(factors...), nil
		}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.isOp("-") {
		p.next()
		n, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return neg(n), nil
	}
	if p.isOp("+") {
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if c, ok := base.(Num); ok && c.V == math.E {
			return call("exp", exp), nil
		}
		return pow(base, exp), nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		return num(t.val), nil
	case tokIdent:
		return p.parseIdent(t)
	case tokOp:
		if t.text == "(" {
			n, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			if !p.isOp(")") {
				return nil, p.errorf(p.peek(), "missing closing parenthesis")
			}
			p.next()
			return n, nil
		}
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return nil, p.errorf(t, "unexpected end of expression")
}

func (p *parser) parseIdent(t token) (Node, error) {
	word := strings.ToLower(t.text)
	if fn, ok := functions[word]; ok {
		if !p.isOp("(") {
			return nil, p.errorf(t, "function %s needs parentheses", word)
		}
		p.next()
		arg, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if !p.isOp(")") {
			return nil, p.errorf(p.peek(), "missing closing parenthesis")
		}
		p.next()
		if fn == "sqrt" {
			return pow(arg, num(0.5)), nil
		}
		return call(fn, arg), nil
	}
	switch word {
	case "pi":
		return num(math.Pi), nil
	case "e":
		return num(math.E), nil
	}
	// Adjacent letters such as xy read as a product of single-letter symbols.
	letters := []rune(t.text)
	if len(letters) == 1 {
		return Var{Name: string(letters[0])}, nil
	}
	factors := make([]Node, 0, len(letters))
	for _, r := range letters {
		factors = append(factors, Var{Name: string(r)})
	}
	return mul(factors...), nil
}
