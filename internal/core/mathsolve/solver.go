// Package mathsolve recognizes arithmetic, equations, calculus and simple
// geometry in free-text questions and answers them locally.
package mathsolve

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// Kind identifies which branch produced an answer.
type Kind string

const (
	KindArithmetic Kind = "arithmetic"
	KindEquation   Kind = "equation"
	KindDerivative Kind = "derivative"
	KindIntegral   Kind = "integral"
	KindGeometry   Kind = "geometry"
)

// Answer is a solved problem rendered as markdown.
type Answer struct {
	Kind Kind
	Text string
}

// errNoMatch signals that a branch recognized the question but could not
// extract anything to solve. It falls through silently.
var errNoMatch = errors.New("no solvable expression")

type pattern struct {
	name  string
	match func(question string) bool
	solve func(question string) (Answer, error)
}

// Solver tries each pattern in order; the first one that produces an
// answer wins.
type Solver struct {
	logger   *logging.Logger
	patterns []pattern
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger used for branch failures.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// New builds a Solver with the default pattern table.
func New(opts ...Option) *Solver {
	s := &Solver{patterns: defaultPatterns()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve returns the first answer any branch produces. The boolean is false
// when nothing could be solved, including when a branch panics.
func (s *Solver) Solve(question string) (answer Answer, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.warn("math solver panic", fmt.Errorf("%v", r))
			answer, ok = Answer{}, false
		}
	}()

	for _, p := range s.patterns {
		if !p.match(question) {
			continue
		}
		a, err := p.solve(question)
		if err == nil {
			return a, true
		}
		if !errors.Is(err, errNoMatch) && s.logger != nil {
			s.logger.Debug("math branch failed",
				zap.String("branch", p.name),
				zap.Error(err))
		}
	}
	return Answer{}, false
}

func (s *Solver) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, zap.Error(err))
	}
}
