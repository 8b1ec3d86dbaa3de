package ailink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/ailink/content"
	"github.com/miminai/mimin/internal/ailink/driver"
	"github.com/miminai/mimin/internal/ailink/prompt"
	"github.com/miminai/mimin/internal/metrics"
)

const (
	defaultTimeout      = 15 * time.Second
	maxTimeout          = 5 * time.Minute
	defaultProbeTimeout = 15 * time.Second

	probeText      = "Hello"
	probeMaxTokens = 100
)

var (
	// ErrEmptyResponse is returned when a model answers with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrNoModel is returned when no candidate answered the startup probe.
	ErrNoModel = errors.New("no model answered the probe")
)

// Service binds the provider registry to a generation profile.
type Service struct {
	Registry *Registry
	cfg      Config
	logger   *logging.Logger
}

// NewService builds a service over cfg. logger may be nil.
func NewService(cfg Config, logger *logging.Logger) *Service {
	return &Service{Registry: NewRegistry(cfg), cfg: cfg, logger: logger}
}

// Model is a provider/model pair that answered the probe. It is immutable
// and safe for concurrent use.
type Model struct {
	ProviderID string
	Name       string

	drv     driver.Driver
	gen     GenerationConfig
	timeout time.Duration
}

// Probe walks providers in ProviderOrder and, for each, its candidate
// models. The first model that completes a short "Hello" request wins.
func (s *Service) Probe(ctx context.Context) (*Model, error) {
	if s == nil || s.Registry == nil {
		return nil, fmt.Errorf("ailink service not configured")
	}

	probeTimeout := s.cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}

	var lastErr error
	for _, providerID := range s.Registry.ProviderOrder() {
		providerCfg := s.cfg.Providers[providerID]
		for _, name := range candidateModels(providerCfg, s.cfg.ModelOverride) {
			resolved, err := s.Registry.Resolve(providerID, name)
			if err != nil {
				lastErr = err
				s.warn("provider unavailable", zap.String("provider", providerID), zap.Error(err))
				break
			}

			if err := s.probeOne(ctx, resolved, probeTimeout); err != nil {
				lastErr = err
				mapped := MapError(err)
				s.warn("model probe failed",
					zap.String("provider", providerID),
					zap.String("model", name),
					zap.String("code", mapped.Code),
					zap.String("error", truncate(mapped.Error(), 100)))
				continue
			}

			if s.logger != nil {
				s.logger.Info("model probe succeeded",
					zap.String("provider", providerID),
					zap.String("model", name))
			}
			return &Model{
				ProviderID: providerID,
				Name:       name,
				drv:        resolved.Driver,
				gen:        s.cfg.Generation,
				timeout:    clampTimeout(s.cfg.DefaultTimeout),
			}, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoModel, lastErr)
	}
	return nil, ErrNoModel
}

func (s *Service) probeOne(ctx context.Context, resolved *ResolvedProvider, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxTokens := probeMaxTokens
	start := time.Now()
	_, err := resolved.Driver.Complete(ctx, &driver.Request{
		Model:     resolved.Model,
		Messages:  []content.Message{content.TextMessage(content.RoleUser, probeText)},
		MaxTokens: &maxTokens,
	})
	metrics.RecordCollaboratorCall("model", "probe", time.Since(start))
	if err != nil {
		metrics.RecordCollaboratorFailure("model", "probe")
	}
	return err
}

func (s *Service) warn(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Warn(msg, fields...)
	}
}

// Generate sends text as a single user turn with the configured sampling
// parameters and returns the model's text.
func (m *Model) Generate(ctx context.Context, text string) (string, error) {
	if m == nil || m.drv == nil {
		return "", fmt.Errorf("model not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req := &driver.Request{
		Model:      m.Name,
		Messages:   []content.Message{content.TextMessage(content.RoleUser, text)},
		PromptSlug: prompt.AnswerSlug,
	}
	if m.gen.Temperature > 0 {
		temp := m.gen.Temperature
		req.Temperature = &temp
	}
	if m.gen.TopP > 0 {
		topP := m.gen.TopP
		req.TopP = &topP
	}
	if m.gen.MaxOutputTokens > 0 {
		maxTokens := m.gen.MaxOutputTokens
		req.MaxTokens = &maxTokens
	}

	start := time.Now()
	resp, err := m.drv.Complete(ctx, req)
	metrics.RecordCollaboratorCall("model", "generate", time.Since(start))
	if err != nil {
		metrics.RecordCollaboratorFailure("model", "generate")
		return "", err
	}
	out := resp.Text()
	if strings.TrimSpace(out) == "" {
		metrics.RecordCollaboratorFailure("model", "generate")
		return "", ErrEmptyResponse
	}
	return out, nil
}

// LoadPrompts returns the embedded prompt set, with prompts from
// cfg.PromptsDir replacing embedded prompts of the same slug.
func LoadPrompts(cfg Config) (prompt.Registry, error) {
	defaults, err := prompt.LoadDefaults()
	if err != nil {
		return nil, err
	}
	reg, err := prompt.NewRegistry(defaults)
	if err != nil {
		return nil, err
	}

	dir := strings.TrimSpace(cfg.PromptsDir)
	if dir == "" {
		return reg, nil
	}
	overrides, err := prompt.LoadFromDir(dir)
	if err != nil {
		return nil, err
	}
	merged, err := reg.Overlay(overrides)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func clampTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	if timeout > maxTimeout {
		return maxTimeout
	}
	return timeout
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
