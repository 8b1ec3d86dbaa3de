package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/ailink"
	"github.com/miminai/mimin/internal/ailink/prompt"
	"github.com/miminai/mimin/internal/config"
	"github.com/miminai/mimin/internal/core"
	"github.com/miminai/mimin/internal/core/engine"
	"github.com/miminai/mimin/internal/core/fetch"
	"github.com/miminai/mimin/internal/core/mathsolve"
	"github.com/miminai/mimin/internal/core/search"
	"github.com/miminai/mimin/internal/core/synth"
)

// services holds the collaborators built once at startup. Nothing in it
// changes afterwards; a collaborator that failed to come up stays absent
// until the process restarts.
type services struct {
	Capabilities core.Capabilities
	Features     core.Features

	Pipeline *engine.Pipeline
	Search   *search.Aggregator
	Fetcher  *fetch.Fetcher
	Model    *ailink.Model

	// ModelErr and SearchErr explain a missing collaborator.
	ModelErr  error
	SearchErr error
}

// modelProber is satisfied by *ailink.Service.
type modelProber interface {
	Probe(ctx context.Context) (*ailink.Model, error)
}

// bootstrapOptions allow tests to replace the network-facing pieces.
type bootstrapOptions struct {
	prober   modelProber
	registry *search.Registry
}

// buildServices wires every collaborator from cfg. It never fails: missing
// collaborators are logged and reported through Capabilities.
func buildServices(ctx context.Context, cfg *config.Config, logger *logging.Logger) *services {
	return buildServicesWith(ctx, cfg, logger, bootstrapOptions{})
}

func buildServicesWith(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts bootstrapOptions) *services {
	svc := &services{
		Features: core.Features{
			Search:      cfg.Features.Search,
			MathSolver:  cfg.Features.MathSolver,
			WebScraping: cfg.Features.WebScraping,
		},
	}

	svc.Search, svc.SearchErr = buildSearch(cfg, logger, opts.registry)
	if svc.SearchErr != nil {
		logWarn(logger, "Search backend unavailable", zap.String("backend", cfg.Search.Backend), zap.Error(svc.SearchErr))
	} else {
		svc.Capabilities.SearchAvailable = true
		svc.Capabilities.SearchBackend = svc.Search.Backend()
	}

	var answerPrompt *prompt.Prompt
	svc.Model, answerPrompt, svc.ModelErr = probeModel(ctx, cfg, logger, opts.prober)
	if svc.ModelErr != nil {
		logWarn(logger, "Generative model unavailable, answers use the fallback composer", zap.Error(svc.ModelErr))
	} else {
		svc.Capabilities.AIAvailable = true
		svc.Capabilities.Model = svc.Model.Name
		svc.Capabilities.Provider = svc.Model.ProviderID
	}

	svc.Fetcher = fetch.New(fetchOptions(cfg, logger))

	// A nil *ailink.Model must not reach synth as a non-nil interface.
	var gen synth.Generator
	if svc.Model != nil {
		gen = svc.Model
	}
	synthesizer := synth.New(gen, synth.Options{
		Prompt: answerPrompt,
		Topics: synth.TopicOptions{
			MinWordLength: cfg.Topics.MinWordLength,
			StopWords:     cfg.Topics.StopWords,
			MaxTopics:     cfg.Topics.MaxTopics,
		},
		Logger: logger,
	})

	svc.Pipeline = &engine.Pipeline{
		Math:          mathsolve.New(mathsolve.WithLogger(logger)),
		Synth:         synthesizer,
		Capabilities:  svc.Capabilities,
		Features:      svc.Features,
		MathKeywords:  cfg.Pipeline.MathKeywords,
		MaxResults:    cfg.Pipeline.MaxResults,
		DigestResults: cfg.Pipeline.DigestResults,
		Logger:        logger,
	}
	if svc.Search != nil {
		svc.Pipeline.Search = svc.Search
	}

	if logger != nil {
		logger.Info("Collaborators ready",
			zap.Bool("ai_available", svc.Capabilities.AIAvailable),
			zap.String("model", svc.Capabilities.Model),
			zap.Bool("search_available", svc.Capabilities.SearchAvailable),
			zap.String("search_backend", svc.Capabilities.SearchBackend),
			zap.Bool("math_solver", svc.Features.MathSolver),
			zap.Bool("web_scraping", svc.Features.WebScraping))
	}
	return svc
}

func buildSearch(cfg *config.Config, logger *logging.Logger, registry *search.Registry) (*search.Aggregator, error) {
	if registry == nil {
		registry = search.NewRegistry()
	}

	backendType := strings.ToLower(strings.TrimSpace(cfg.Search.Backend))
	backendCfg := cfg.Search.Backends[backendType]
	backend, err := registry.Create(search.BackendConfig{
		Type:      backendType,
		APIKey:    backendCfg.APIKey,
		BaseURL:   backendCfg.BaseURL,
		Region:    cfg.Search.Region,
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Search.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return search.NewAggregator(backend, search.Options{
		WebResults:       cfg.Search.WebResults,
		NewsResults:      cfg.Search.NewsResults,
		WebSnippetChars:  cfg.Search.WebSnippetChars,
		NewsSnippetChars: cfg.Search.NewsSnippetChars,
		Timeout:          cfg.Search.Timeout,
		StopWords:        cfg.Search.RelevanceStopWords,
		Stemming:         cfg.Search.RelevanceStemming,
		Logger:           logger,
	}), nil
}

func probeModel(ctx context.Context, cfg *config.Config, logger *logging.Logger, prober modelProber) (*ailink.Model, *prompt.Prompt, error) {
	prompts, err := ailink.LoadPrompts(cfg.AILink)
	if err != nil {
		return nil, nil, fmt.Errorf("load prompts: %w", err)
	}
	answerPrompt, err := prompts.Get(prompt.AnswerSlug)
	if err != nil {
		return nil, nil, err
	}

	if prober == nil {
		prober = ailink.NewService(cfg.AILink, logger)
	}
	model, err := prober.Probe(ctx)
	if err != nil {
		return nil, nil, err
	}
	return model, answerPrompt, nil
}

func fetchOptions(cfg *config.Config, logger *logging.Logger) fetch.Options {
	return fetch.Options{
		Timeout:              cfg.Fetch.Timeout,
		UserAgent:            cfg.Fetch.UserAgent,
		MaxContentChars:      cfg.Fetch.MaxContentChars,
		MaxBodyBytes:         cfg.Fetch.MaxBodyBytes,
		InsecureSkipVerify:   cfg.Fetch.InsecureSkipVerify,
		BlockPrivateNetworks: cfg.Fetch.BlockPrivateNetworks,
		Logger:               logger,
	}
}

func logWarn(logger *logging.Logger, msg string, fields ...zap.Field) {
	if logger != nil {
		logger.Warn(msg, fields...)
	}
}
