package mathsolve

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/miminai/mimin/internal/core/mathsolve/expr"
)

var (
	arithmeticOperators = "+-*/^"
	equationKeywords    = []string{"x=", "y=", "solve", "persamaan", "equation"}
	derivativeKeywords  = []string{"turunan", "derivative"}
	integralKeywords    = []string{"integral", "∫"}
	geometryKeywords    = []string{"luas", "volume", "keliling", "segitiga", "lingkaran", "circle", "area", "perimeter", "triangle"}
	circleKeywords      = []string{"lingkaran", "circle"}
)

var (
	derivativeBody = regexp.MustCompile(`[fd]\(x\)\s*=\s*([^,\n]+)`)
	integralSign   = regexp.MustCompile(`∫\s*(.+?)\s*d\s*x\b`)
	integralWord   = regexp.MustCompile(`(?i)integral(?:\s+(?:dari|of))?\s+(.+?)\s*d\s*x\b`)
	circleRadius   = regexp.MustCompile(`(?i)(?:jari[-\s]*jari|radius)\s*=\s*(\d+(?:\.\d+)?)`)
	wordRun        = regexp.MustCompile(`\p{L}{2,}`)
)

func defaultPatterns() []pattern {
	return []pattern{
		{name: "arithmetic", match: isArithmetic, solve: solveArithmetic},
		{name: "equation", match: isEquation, solve: solveEquation},
		{name: "calculus", match: isCalculus, solve: solveCalculus},
		{name: "geometry", match: isGeometry, solve: solveGeometry},
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// isArithmetic requires an operator and yields to the more specific
// branches: "lingkaran jari-jari = 7" contains "-" but is geometry.
func isArithmetic(q string) bool {
	if !strings.ContainsAny(q, arithmeticOperators) {
		return false
	}
	return !isEquation(q) && !isCalculus(q) && !hasCircleRadius(q)
}

func isEquation(q string) bool {
	return strings.Contains(q, "=") && containsAny(strings.ToLower(q), equationKeywords)
}

func isCalculus(q string) bool {
	lower := strings.ToLower(q)
	return containsAny(lower, derivativeKeywords) || containsAny(lower, integralKeywords)
}

func isGeometry(q string) bool {
	return containsAny(strings.ToLower(q), geometryKeywords)
}

func hasCircleRadius(q string) bool {
	return containsAny(strings.ToLower(q), circleKeywords) && circleRadius.MatchString(q)
}

func solveArithmetic(q string) (Answer, error) {
	expression := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || strings.ContainsRune("+-*/().^", r) {
			return r
		}
		return -1
	}, q)
	if expression == "" {
		return Answer{}, errNoMatch
	}
	v, err := expr.EvalArithmetic(expression)
	if err != nil {
		return Answer{}, err
	}
	return Answer{
		Kind: KindArithmetic,
		Text: fmt.Sprintf("**Jawaban Matematika:**\n\n`%s` = `%s`", q, v),
	}, nil
}

func solveEquation(q string) (Answer, error) {
	parts := strings.Split(q, "=")
	if len(parts) != 2 {
		return Answer{}, errNoMatch
	}
	left, right := sanitize(parts[0]), sanitize(parts[1])
	if left == "" || right == "" {
		return Answer{}, errNoMatch
	}
	n, err := expr.Parse("(" + left + ") - (" + right + ")")
	if err != nil {
		return Answer{}, err
	}
	poly, err := expr.ToPolynomial(n, expr.Symbol)
	if err != nil {
		return Answer{}, err
	}
	roots, err := poly.Roots()
	if err != nil {
		return Answer{}, err
	}
	if len(roots) == 0 {
		return Answer{}, errNoMatch
	}
	return Answer{
		Kind: KindEquation,
		Text: fmt.Sprintf("**Solusi Persamaan:**\n\n`%s`\n\n**x = %s**", q, expr.FormatRoots(roots)),
	}, nil
}

func solveCalculus(q string) (Answer, error) {
	lower := strings.ToLower(q)
	if containsAny(lower, derivativeKeywords) {
		if m := derivativeBody.FindStringSubmatch(q); m != nil {
			body := trimBody(m[1])
			n, err := expr.Parse(sanitize(body))
			if err != nil {
				return Answer{}, err
			}
			return Answer{
				Kind: KindDerivative,
				Text: fmt.Sprintf("**Turunan:**\n\nf(x) = %s\n\nf'(x) = %s", body, expr.String(expr.Diff(n, expr.Symbol))),
			}, nil
		}
	}
	if containsAny(lower, integralKeywords) {
		m := integralSign.FindStringSubmatch(q)
		if m == nil {
			m = integralWord.FindStringSubmatch(q)
		}
		if m != nil {
			body := trimBody(m[1])
			n, err := expr.Parse(sanitize(body))
			if err != nil {
				return Answer{}, err
			}
			result, err := expr.Integrate(n, expr.Symbol)
			if err != nil {
				return Answer{}, err
			}
			return Answer{
				Kind: KindIntegral,
				Text: fmt.Sprintf("**Integral:**\n\n∫ %s dx = %s + C", body, expr.String(result)),
			}, nil
		}
	}
	return Answer{}, errNoMatch
}

func solveGeometry(q string) (Answer, error) {
	if !containsAny(strings.ToLower(q), circleKeywords) {
		return Answer{}, errNoMatch
	}
	m := circleRadius.FindStringSubmatch(q)
	if m == nil {
		return Answer{}, errNoMatch
	}
	r, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Answer{}, err
	}
	area := math.Pi * r * r
	circumference := 2 * math.Pi * r
	return Answer{
		Kind: KindGeometry,
		Text: fmt.Sprintf("**Lingkaran (r=%s):**\n\n- Luas = π × r² = %.2f\n- Keliling = 2 × π × r = %.2f",
			expr.FormatFloat(r), area, circumference),
	}, nil
}

// sanitize drops prose around an expression: multi-letter words other than
// function names and constants, and punctuation the parser does not read.
func sanitize(s string) string {
	s = wordRun.ReplaceAllStringFunc(s, func(w string) string {
		if expr.IsFunction(w) || strings.EqualFold(w, "pi") {
			return w
		}
		return " "
	})
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case strings.ContainsRune("+-*/^().²³×÷−·", r):
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(s)
}

func trimBody(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "?.!")
}
