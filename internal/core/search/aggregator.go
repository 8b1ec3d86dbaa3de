package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/miminai/mimin/internal/core"
	"github.com/miminai/mimin/internal/metrics"
)

const (
	defaultWebResults       = 8
	defaultNewsResults      = 3
	defaultWebSnippetChars  = 250
	defaultNewsSnippetChars = 200
	defaultTimeout          = 10 * time.Second
)

// Placeholders for fields a backend left empty.
const (
	NoTitle       = "No Title"
	NoURL         = "#"
	NoDescription = "No description"
)

// Options tune the aggregator. Zero values fall back to defaults.
type Options struct {
	WebResults       int
	NewsResults      int
	WebSnippetChars  int
	NewsSnippetChars int
	Timeout          time.Duration
	StopWords        []string
	Stemming         bool
	Logger           *logging.Logger
}

// Aggregator runs the web and news queries against one backend and merges
// the results by relevance.
type Aggregator struct {
	backend Backend
	opts    Options
	scorer  *Scorer
}

// NewAggregator wraps backend. A nil backend yields an aggregator that
// always returns no results.
func NewAggregator(backend Backend, opts Options) *Aggregator {
	if opts.WebResults <= 0 {
		opts.WebResults = defaultWebResults
	}
	if opts.NewsResults <= 0 {
		opts.NewsResults = defaultNewsResults
	}
	if opts.WebSnippetChars <= 0 {
		opts.WebSnippetChars = defaultWebSnippetChars
	}
	if opts.NewsSnippetChars <= 0 {
		opts.NewsSnippetChars = defaultNewsSnippetChars
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Aggregator{
		backend: backend,
		opts:    opts,
		scorer:  NewScorer(opts.StopWords, opts.Stemming),
	}
}

// Available reports whether a backend is configured.
func (a *Aggregator) Available() bool {
	return a != nil && a.backend != nil
}

// Backend returns the backend name, or "" when none is configured.
func (a *Aggregator) Backend() string {
	if !a.Available() {
		return ""
	}
	return a.backend.Name()
}

// Search queries both categories concurrently and returns at most
// maxResults hits ordered by descending relevance. A failing category
// contributes nothing; Search itself never fails.
func (a *Aggregator) Search(ctx context.Context, query string, maxResults int) []core.SearchResult {
	if !a.Available() || maxResults <= 0 {
		return []core.SearchResult{}
	}

	var web, news []core.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		web = a.category(gctx, query, core.ResultTypeWeb)
		return nil
	})
	g.Go(func() error {
		news = a.category(gctx, query, core.ResultTypeNews)
		return nil
	})
	_ = g.Wait()

	all := make([]core.SearchResult, 0, len(web)+len(news))
	all = append(all, web...)
	all = append(all, news...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Relevance > all[j].Relevance
	})
	if len(all) > maxResults {
		all = all[:maxResults]
	}
	return all
}

func (a *Aggregator) category(ctx context.Context, query string, kind core.ResultType) (out []core.SearchResult) {
	call := string(kind)
	defer func() {
		if r := recover(); r != nil {
			a.logFailure(call, zap.Any("panic", r))
			out = nil
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	limit, budget := a.opts.WebResults, a.opts.WebSnippetChars
	fetch := a.backend.Text
	if kind == core.ResultTypeNews {
		limit, budget = a.opts.NewsResults, a.opts.NewsSnippetChars
		fetch = a.backend.News
	}

	start := time.Now()
	raw, err := fetch(ctx, query, limit)
	metrics.RecordCollaboratorCall("search", call, time.Since(start))
	if err != nil {
		a.logFailure(call, zap.Error(err))
		return nil
	}
	if len(raw) > limit {
		raw = raw[:limit]
	}

	out = make([]core.SearchResult, 0, len(raw))
	for _, r := range raw {
		out = append(out, a.normalize(query, kind, r, budget))
	}
	return out
}

func (a *Aggregator) normalize(query string, kind core.ResultType, r RawResult, budget int) core.SearchResult {
	return core.SearchResult{
		Type:      kind,
		Title:     orDefault(r.Title, NoTitle),
		URL:       orDefault(r.URL, NoURL),
		Snippet:   Truncate(orDefault(r.Body, NoDescription), budget),
		Relevance: a.scorer.Score(query, r.Title+" "+r.Body),
	}
}

func (a *Aggregator) logFailure(call string, field zap.Field) {
	metrics.RecordCollaboratorFailure("search", call)
	if a.opts.Logger != nil {
		a.opts.Logger.Warn("search category failed",
			zap.String("backend", a.backend.Name()),
			zap.String("category", call),
			field)
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Truncate cuts s to at most n runes and appends "..." when it did so.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
