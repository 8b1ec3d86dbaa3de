package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/core"
	apperrors "github.com/miminai/mimin/internal/errors"
	"github.com/miminai/mimin/internal/observability"
)

// ServiceName is reported by the API status endpoints.
const ServiceName = "Mimin AI"

// maxAskBodyBytes bounds the JSON body accepted by /api/ask.
const maxAskBodyBytes = 64 << 10

// Processor answers questions.
type Processor interface {
	Process(ctx context.Context, question string) core.AnswerResult
}

// PageFetcher extracts the text of a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) core.Page
}

// API serves the question answering endpoints.
type API struct {
	Pipeline     Processor
	Fetcher      PageFetcher
	Capabilities core.Capabilities
	Features     core.Features
	Logger       *logging.Logger

	now func() time.Time
}

func (a *API) logger() *logging.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return observability.Component()
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask handles GET /api/ask?question= and POST /api/ask {"question": ...}.
func (a *API) Ask(w http.ResponseWriter, r *http.Request) {
	var question string
	if r.Method == http.MethodGet {
		question = r.URL.Query().Get("question")
	} else {
		var body askRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxAskBodyBytes))
		if err := dec.Decode(&body); err != nil && err != io.EOF {
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body must be a JSON object"))
			return
		}
		question = body.Question
	}

	question = strings.TrimSpace(question)
	if question == "" {
		respondWithError(w, r, apperrors.NewEmptyQuestionError())
		return
	}

	if logger := a.logger(); logger != nil {
		logger.Info("Received question", zap.String("question", question))
	}

	result := a.Pipeline.Process(r.Context(), question)
	writeJSON(w, http.StatusOK, result)
}

// APIHealthResponse describes collaborator availability.
type APIHealthResponse struct {
	Status          string            `json:"status"`
	Service         string            `json:"service"`
	Version         string            `json:"version"`
	AIAvailable     bool              `json:"ai_available"`
	SearchAvailable bool              `json:"search_available"`
	Model           string            `json:"model,omitempty"`
	Features        map[string]bool   `json:"features"`
	Endpoints       map[string]string `json:"endpoints"`
}

// Health handles GET /api/health.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIHealthResponse{
		Status:          "healthy",
		Service:         ServiceName,
		Version:         AppVersion,
		AIAvailable:     a.Capabilities.AIAvailable,
		SearchAvailable: a.Capabilities.SearchAvailable,
		Model:           a.Capabilities.Model,
		Features: map[string]bool{
			"math_solver":        a.Features.MathSolver,
			"web_search":         a.Features.Search && a.Capabilities.SearchAvailable,
			"content_extraction": a.Features.WebScraping,
			"real_time_data":     a.Features.Search && a.Capabilities.SearchAvailable,
			"fallback_mode":      !a.Capabilities.AIAvailable,
		},
		Endpoints: map[string]string{
			"ask":    "/api/ask",
			"health": "/api/health",
			"test":   "/api/test",
			"fetch":  "/api/fetch",
		},
	})
}

// TestResponse is the body of GET /api/test.
type TestResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Version   string `json:"version"`
	AIStatus  string `json:"ai_status"`
}

// Test handles GET /api/test.
func (a *API) Test(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	status := "fallback_mode"
	if a.Capabilities.AIAvailable {
		status = "online"
	}
	writeJSON(w, http.StatusOK, TestResponse{
		Message:   "✅ Backend berjalan dengan baik!",
		Timestamp: now().Format(time.DateTime),
		Status:    "active",
		Version:   AppVersion,
		AIStatus:  status,
	})
}

// Fetch handles GET /api/fetch?url=.
func (a *API) Fetch(w http.ResponseWriter, r *http.Request) {
	if !a.Features.WebScraping || a.Fetcher == nil {
		respondWithError(w, r, apperrors.NewFeatureDisabledError("web_scraping"))
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("url parameter is required"))
		return
	}

	writeJSON(w, http.StatusOK, a.Fetcher.Fetch(r.Context(), target))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
