package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/miminai/mimin/internal/metrics"
)

// Check and aggregate states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusTimeout   = "timeout"
)

// HealthResponse represents the aggregate health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse represents individual probe response
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker defines interface for health checkable components
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// ErrDegraded marks a check whose component is running with reduced
// capability, e.g. answering without a generative model.
var ErrDegraded = stderrors.New("degraded")

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

// CheckHealth implements HealthChecker.
func (f CheckFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// HealthManager runs the registered checks for /health and the readiness
// and startup probes. Liveness never runs checks: a missing model or
// search backend must not get the process restarted.
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	version  string
	started  time.Time
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
		started:  time.Now(),
	}
}

// RegisterChecker registers or replaces a named check.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
}

// runHealthChecks runs every check in name order. Checks not reached
// before ctx expires report "timeout".
func (hm *HealthManager) runHealthChecks(ctx context.Context) map[string]string {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]HealthChecker, len(hm.checkers))
	for name, c := range hm.checkers {
		checkers[name] = c
	}
	hm.mu.RUnlock()
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			checks[name] = StatusTimeout
			continue
		}
		start := time.Now()
		err := checkers[name].CheckHealth(ctx)
		metrics.RecordHealthCheck(name, err == nil, time.Since(start))
		checks[name] = checkStatus(err)
	}
	return checks
}

func checkStatus(err error) string {
	switch {
	case err == nil:
		return StatusHealthy
	case stderrors.Is(err, ErrDegraded):
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}

// determineOverallStatus folds check states: any unhealthy check makes the
// service unhealthy, any degraded or timed out check makes it degraded.
func (hm *HealthManager) determineOverallStatus(checks map[string]string) string {
	overall := StatusHealthy
	for _, status := range checks {
		switch status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded, StatusTimeout:
			overall = StatusDegraded
		}
	}
	return overall
}

// HealthHandler serves GET /health with per-check detail.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	checks, status, ok := hm.evaluate(w, r, "aggregate", 5*time.Second)
	if !ok {
		return
	}

	uptime := time.Since(hm.started)
	metrics.SetServerUptime(int64(uptime.Seconds()))
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   hm.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    uptime.Truncate(time.Second).String(),
		Checks:    checks,
	})
}

// LivenessHandler reports that the process is serving requests.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProbeResponse{Status: StatusHealthy, Timestamp: time.Now().UTC()})
}

// ReadinessHandler succeeds unless a check is unhealthy. A degraded
// service still takes traffic.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.probe(w, r, "ready", 5*time.Second)
}

// StartupHandler mirrors readiness with a shorter budget; collaborators are
// built before the listener opens.
func (hm *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	hm.probe(w, r, "startup", 3*time.Second)
}

func (hm *HealthManager) probe(w http.ResponseWriter, r *http.Request, name string, budget time.Duration) {
	if _, status, ok := hm.evaluate(w, r, name, budget); ok {
		writeJSON(w, http.StatusOK, ProbeResponse{Status: status, Timestamp: time.Now().UTC()})
	}
}

// evaluate runs the checks and writes the 503 envelope itself when the
// service is unhealthy.
func (hm *HealthManager) evaluate(w http.ResponseWriter, r *http.Request, probe string, budget time.Duration) (map[string]string, string, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), budget)
	defer cancel()

	checks := hm.runHealthChecks(ctx)
	status := hm.determineOverallStatus(checks)
	if status == StatusUnhealthy {
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", probe+" health check failed")
		respondWithError(w, r, enrichHealthEnvelope(envelope, probe, status, checks))
		return nil, "", false
	}
	return checks, status, true
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probe, status string, checks map[string]string) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}

	details := map[string]interface{}{"status": status, "probe": probe}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	envelope = envelope.WithDetails(details)

	var failing []string
	for name, result := range checks {
		if result != StatusHealthy {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)
	if len(failing) > 0 {
		envelope, _ = envelope.WithContext(map[string]interface{}{"unhealthy_checks": failing})
	}
	return envelope
}
