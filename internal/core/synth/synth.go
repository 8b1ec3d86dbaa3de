// Package synth turns the collected math answer and search results into the
// final answer text, either through a generative model or a fixed template.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/ailink/prompt"
	"github.com/miminai/mimin/internal/core"
	"github.com/miminai/mimin/internal/metrics"
)

// Mode reports which path produced the answer.
type Mode string

const (
	ModeModel    Mode = "model"
	ModeFallback Mode = "fallback"
)

// MathSeparator joins a math answer to the model's prose.
const MathSeparator = "\n\n---\n\n**Penjelasan Tambahan:**\n"

// Generator produces text for a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Input carries everything gathered for one question.
type Input struct {
	Question string
	// Context is the search digest handed to the model. It may be empty.
	Context    string
	MathAnswer string
	Results    []core.SearchResult
}

// Synthesis is the synthesizer's result. Err holds the model failure that
// forced a fallback, if any.
type Synthesis struct {
	Text string
	Mode Mode
	Err  error
}

// Options configure a Synthesizer.
type Options struct {
	// Prompt is the answer prompt. Nil loads the embedded default.
	Prompt *prompt.Prompt
	Topics TopicOptions
	Logger *logging.Logger
}

// Synthesizer produces answers. It is safe for concurrent use.
type Synthesizer struct {
	gen    Generator
	prompt *prompt.Prompt
	topics TopicOptions
	logger *logging.Logger
}

// New builds a Synthesizer. A nil gen always uses the fallback composer.
func New(gen Generator, opts Options) *Synthesizer {
	p := opts.Prompt
	if p == nil && gen != nil {
		if reg, err := prompt.DefaultRegistry(); err == nil {
			p, _ = reg.Get(prompt.AnswerSlug)
		}
	}
	return &Synthesizer{
		gen:    gen,
		prompt: p,
		topics: opts.Topics.withDefaults(),
		logger: opts.Logger,
	}
}

// ModelAvailable reports whether answers can go through the model.
func (s *Synthesizer) ModelAvailable() bool {
	return s != nil && s.gen != nil && s.prompt != nil
}

// Synthesize answers in. It never fails: model errors and blank model text
// fall back to the composer with the same math answer and results.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) Synthesis {
	if !s.ModelAvailable() {
		metrics.RecordSynthMode(string(ModeFallback))
		return Synthesis{Text: Compose(in.MathAnswer, in.Results, s.topics), Mode: ModeFallback}
	}

	text, err := s.generate(ctx, in)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("model returned blank text")
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("model generation failed, using fallback",
				zap.Error(err))
		}
		metrics.RecordSynthMode(string(ModeFallback))
		return Synthesis{Text: Compose(in.MathAnswer, in.Results, s.topics), Mode: ModeFallback, Err: err}
	}

	if in.MathAnswer != "" {
		text = in.MathAnswer + MathSeparator + text
	}
	metrics.RecordSynthMode(string(ModeModel))
	return Synthesis{Text: text, Mode: ModeModel}
}

func (s *Synthesizer) generate(ctx context.Context, in Input) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()

	rendered, err := s.prompt.Render(map[string]string{
		"context":  in.Context,
		"question": in.Question,
	})
	if err != nil {
		return "", err
	}
	return s.gen.Generate(ctx, rendered)
}
