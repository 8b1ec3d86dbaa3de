package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/core"
	"github.com/miminai/mimin/internal/core/mathsolve"
	"github.com/miminai/mimin/internal/core/synth"
	"github.com/miminai/mimin/internal/metrics"
)

// Stage is a step of question processing.
type Stage string

const (
	StageReceived     Stage = "received"
	StageClassified   Stage = "classified"
	StageMathSolving  Stage = "math_solving"
	StageSearching    Stage = "searching"
	StageSynthesizing Stage = "synthesizing"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

const (
	defaultMaxResults    = 8
	defaultDigestResults = 4

	digestHeader = "HASIL PENELUSURAN:\n"
	errorBanner  = "❌ **System Error:** "
)

// ErrEmptyQuestion is returned for blank input.
var ErrEmptyQuestion = errors.New("question is required")

// DefaultMathKeywords decide whether the math solver runs.
var DefaultMathKeywords = []string{
	"hitung", "berapa", "matematika", "kalkulus", "aljabar", "geometri",
	"turunan", "integral", "persamaan", "segitiga", "lingkaran", "volume", "luas",
	"calculate", "math", "calculus", "algebra", "geometry", "derivative",
	"equation", "triangle", "circle", "area",
}

// MathSolver answers math questions or reports absence.
type MathSolver interface {
	Solve(question string) (mathsolve.Answer, bool)
}

// Searcher returns relevance-ordered search results.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []core.SearchResult
}

// Synthesizer produces the answer text.
type Synthesizer interface {
	Synthesize(ctx context.Context, in synth.Input) synth.Synthesis
}

// Pipeline processes questions. All fields are read-only once the pipeline
// serves requests.
type Pipeline struct {
	Math         MathSolver
	Search       Searcher
	Synth        Synthesizer
	Capabilities core.Capabilities
	Features     core.Features

	MathKeywords  []string
	MaxResults    int
	DigestResults int
	Logger        *logging.Logger
}

// Process runs one question through classification, math solving, search
// and synthesis. It never panics; failures come back with Success false.
func (p *Pipeline) Process(ctx context.Context, question string) (result core.AnswerResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			if p.Logger != nil {
				p.Logger.Error("pipeline panic",
					zap.String("question", question),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())))
			}
			result = p.fail(question, err)
		}
		metrics.RecordPipelineRequest(result.Success, time.Since(start))
	}()

	p.enter(StageReceived)
	question = strings.TrimSpace(question)
	if question == "" {
		return p.fail(question, ErrEmptyQuestion)
	}

	p.enter(StageClassified)
	var mathAnswer string
	if p.Features.MathSolver && p.Math != nil && p.IsMathQuestion(question) {
		p.enter(StageMathSolving)
		if ans, ok := p.Math.Solve(question); ok {
			mathAnswer = ans.Text
		}
	}

	p.enter(StageSearching)
	results := []core.SearchResult{}
	if p.Features.Search && p.Search != nil {
		if found := p.Search.Search(ctx, question, p.maxResults()); found != nil {
			results = found
		}
	}

	p.enter(StageSynthesizing)
	synthesizer := p.Synth
	if synthesizer == nil {
		synthesizer = synth.New(nil, synth.Options{Logger: p.Logger})
	}
	out := synthesizer.Synthesize(ctx, synth.Input{
		Question:   question,
		Context:    Digest(results, p.digestResults()),
		MathAnswer: mathAnswer,
		Results:    results,
	})

	p.enter(StageCompleted)
	return core.AnswerResult{
		Success:          true,
		Question:         question,
		Answer:           out.Text,
		SearchResults:    results,
		SourcesCount:     len(results),
		MathSolved:       mathAnswer != "",
		AIAvailable:      p.Capabilities.AIAvailable,
		SearchAvailable:  p.Capabilities.SearchAvailable,
		EnhancedFeatures: true,
		SynthesisMode:    string(out.Mode),
	}
}

// IsMathQuestion reports whether the lowercase question contains a math
// keyword.
func (p *Pipeline) IsMathQuestion(question string) bool {
	keywords := p.MathKeywords
	if keywords == nil {
		keywords = DefaultMathKeywords
	}
	lower := strings.ToLower(question)
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Digest renders the first n results as the model's context block. It is
// empty when there are no results.
func Digest(results []core.SearchResult, n int) string {
	if len(results) == 0 || n <= 0 {
		return ""
	}
	if len(results) > n {
		results = results[:n]
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("• %s: %s", r.Title, r.Snippet))
	}
	return digestHeader + strings.Join(lines, "\n")
}

func (p *Pipeline) fail(question string, err error) core.AnswerResult {
	p.enter(StageFailed)
	if p.Logger != nil {
		p.Logger.Error("process question failed", zap.Error(err))
	}
	return core.AnswerResult{
		Success:       false,
		Question:      question,
		Answer:        errorBanner + err.Error(),
		SearchResults: []core.SearchResult{},
		Error:         err.Error(),
	}
}

func (p *Pipeline) enter(stage Stage) {
	metrics.RecordStage(string(stage))
	if p.Logger != nil {
		p.Logger.Debug("pipeline stage", zap.String("stage", string(stage)))
	}
}

func (p *Pipeline) maxResults() int {
	if p.MaxResults > 0 {
		return p.MaxResults
	}
	return defaultMaxResults
}

func (p *Pipeline) digestResults() int {
	if p.DigestResults > 0 {
		return p.DigestResults
	}
	return defaultDigestResults
}
