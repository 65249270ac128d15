// Copyright (c) 2026 Yuvraj Aryan
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the public HTTP surface: feedback ingestion and the
// insights report. Ingestion validates and persists a record, dispatches
// an analysis task, and returns immediately; when dispatch fails, the
// pipeline runs inline before the response so the record still reaches a
// terminal analysis state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/insights"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

// emailShape is a structural check only: something@domain.tld with no
// whitespace. Deliverability is not this service's concern.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FeedbackStore is the slice of the store the HTTP layer writes through.
type FeedbackStore interface {
	Put(ctx context.Context, r models.FeedbackRecord) error
}

// TaskPublisher dispatches analysis tasks. A returned error means the
// hand-off failed and the caller must fall back to inline analysis.
type TaskPublisher interface {
	PublishAnalysisTask(ctx context.Context, task models.AnalysisTask) error
}

// PipelineRunner executes one analysis task to a terminal state.
type PipelineRunner interface {
	Process(ctx context.Context, task models.AnalysisTask)
}

// InsightsSource computes the analytics report.
type InsightsSource interface {
	Report(ctx context.Context) (*insights.Report, error)
}

// Pinger reports backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config carries the handler's dependencies and validation limits.
type Config struct {
	Store         FeedbackStore
	Publisher     TaskPublisher
	Pipeline      PipelineRunner
	Insights      InsightsSource
	ProviderName  string
	MaxMessageLen int
	MaxFieldLen   int

	// Health checks; either may be nil.
	StorePinger Pinger
	QueuePinger Pinger
}

// Handler serves the feedback and insights endpoints.
type Handler struct {
	cfg Config
}

// NewHandler creates the HTTP handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{cfg: cfg}
}

// Routes builds the route table with CORS applied to every response.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /feedback", h.submitFeedback)
	mux.HandleFunc("GET /insights", h.getInsights)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("/", h.notFound)
	return withCORS(mux)
}

// withCORS permits cross-origin requests from any origin and answers
// preflight requests directly.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// submissionRequest is the ingestion payload.
type submissionRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// submitFeedback handles POST /feedback.
//
// Validation failures return 400 with a small message. After the record
// is persisted, nothing downstream can fail the request: dispatch errors
// are recovered by running the pipeline inline, so the caller always gets
// 201 once storage succeeded.
func (h *Handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON body."})
		return
	}

	name, email, message, err := h.validate(req)
	if err != nil {
		var verr *validationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": verr.msg})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request."})
		return
	}

	record := models.FeedbackRecord{
		ID:            uuid.New().String(),
		Name:          name,
		Contact:       MaskEmail(email), // PII masked at rest
		Message:       message,
		AnalysisState: models.StatePending,
		Provider:      h.cfg.ProviderName,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.cfg.Store.Put(r.Context(), record); err != nil {
		slog.Error("failed to store feedback", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Storage error. Please try again."})
		return
	}

	slog.Info("feedback saved", "feedback_id", record.ID)

	task := models.AnalysisTask{
		FeedbackID: record.ID,
		Message:    record.Message,
		CreatedAt:  record.CreatedAt.Format(time.RFC3339),
	}

	if err := h.cfg.Publisher.PublishAnalysisTask(r.Context(), task); err != nil {
		// Dispatch failure must not fail the user-visible request. Run the
		// pipeline inline so the record still reaches a terminal state.
		slog.Error("dispatch failed, running analysis inline",
			"feedback_id", record.ID,
			"error", err,
		)
		h.cfg.Pipeline.Process(r.Context(), task)
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"feedbackId": record.ID,
		"message":    "Feedback received. Analysis in progress.",
	})
}

// getInsights handles GET /insights.
func (h *Handler) getInsights(w http.ResponseWriter, r *http.Request) {
	report, err := h.cfg.Insights.Report(r.Context())
	if err != nil {
		slog.Error("failed to build insights report", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error."})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// health reports backend connectivity.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.cfg.StorePinger != nil {
		if err := h.cfg.StorePinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "postgres unhealthy"})
			return
		}
	}
	if h.cfg.QueuePinger != nil {
		if err := h.cfg.QueuePinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "redis unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

// validationError is a client-facing input rejection; it is never retried
// and never reaches the store.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

// validate trims and caps the three fields, then applies the required
// checks in order.
func (h *Handler) validate(req submissionRequest) (name, email, message string, err error) {
	name = truncate(strings.TrimSpace(req.Name), h.cfg.MaxFieldLen)
	email = truncate(strings.TrimSpace(req.Email), h.cfg.MaxFieldLen)
	message = truncate(strings.TrimSpace(req.Message), h.cfg.MaxMessageLen)

	if name == "" || email == "" || message == "" {
		return "", "", "", &validationError{msg: "name, email and message are required."}
	}
	if !emailShape.MatchString(email) {
		return "", "", "", &validationError{msg: "Invalid email address."}
	}
	return name, email, message, nil
}

// MaskEmail reduces an address to a one-way masked form before it is
// persisted: the first character of the local part is kept, the rest is
// replaced. "j.doe@example.com" becomes "j***@example.com".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***@***"
	}
	return string([]rune(local)[0]) + "***@" + domain
}

// truncate bounds a string to n code points.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// writeJSON is the common JSON response writer.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
