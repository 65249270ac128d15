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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/insights"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

type fakeStore struct {
	records []models.FeedbackRecord
	putErr  error
}

func (f *fakeStore) Put(_ context.Context, r models.FeedbackRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.records = append(f.records, r)
	return nil
}

type fakePublisher struct {
	tasks []models.AnalysisTask
	err   error
}

func (f *fakePublisher) PublishAnalysisTask(_ context.Context, task models.AnalysisTask) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

// fakePipeline simulates the inline fallback: it drives the record to a
// terminal state like the real pipeline would.
type fakePipeline struct {
	store     *fakeStore
	processed []models.AnalysisTask
}

func (f *fakePipeline) Process(_ context.Context, task models.AnalysisTask) {
	f.processed = append(f.processed, task)
	for i := range f.store.records {
		if f.store.records[i].ID == task.FeedbackID {
			f.store.records[i].AnalysisState = models.StateComplete
		}
	}
}

type fakeInsights struct {
	report *insights.Report
	err    error
}

func (f *fakeInsights) Report(_ context.Context) (*insights.Report, error) {
	return f.report, f.err
}

type fixture struct {
	handler   http.Handler
	store     *fakeStore
	publisher *fakePublisher
	pipeline  *fakePipeline
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()

	store := &fakeStore{}
	publisher := &fakePublisher{}
	pipeline := &fakePipeline{store: store}

	cfg := Config{
		Store:         store,
		Publisher:     publisher,
		Pipeline:      pipeline,
		Insights:      &fakeInsights{report: &insights.Report{TopTopic: "N/A"}},
		ProviderName:  "fake",
		MaxMessageLen: 3000,
		MaxFieldLen:   200,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	return &fixture{
		handler:   NewHandler(cfg).Routes(),
		store:     store,
		publisher: publisher,
		pipeline:  pipeline,
	}
}

func postFeedback(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

const validBody = `{"name":"Jane","email":"j.doe@example.com","message":"Great place to work"}`

// TestSubmitFeedback_Created verifies the normal ingestion path.
func TestSubmitFeedback_Created(t *testing.T) {
	fx := newFixture(t, nil)

	rr := postFeedback(t, fx.handler, validBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp["feedbackId"] == "" {
		t.Error("response missing feedbackId")
	}

	if len(fx.store.records) != 1 {
		t.Fatalf("stored records = %d, want 1", len(fx.store.records))
	}
	rec := fx.store.records[0]
	if rec.ID != resp["feedbackId"] {
		t.Errorf("stored id = %q, response id = %q", rec.ID, resp["feedbackId"])
	}
	if rec.Contact != "j***@example.com" {
		t.Errorf("stored contact = %q, want masked form", rec.Contact)
	}
	if rec.AnalysisState != models.StatePending {
		t.Errorf("state = %q, want pending", rec.AnalysisState)
	}

	if len(fx.publisher.tasks) != 1 {
		t.Fatalf("published tasks = %d, want 1", len(fx.publisher.tasks))
	}
	if fx.publisher.tasks[0].FeedbackID != rec.ID {
		t.Errorf("task id = %q, want %q", fx.publisher.tasks[0].FeedbackID, rec.ID)
	}
	if len(fx.pipeline.processed) != 0 {
		t.Errorf("pipeline ran inline on the normal path")
	}
}

// TestSubmitFeedback_FreshIDs verifies each submission gets a new id.
func TestSubmitFeedback_FreshIDs(t *testing.T) {
	fx := newFixture(t, nil)

	postFeedback(t, fx.handler, validBody)
	postFeedback(t, fx.handler, validBody)

	if len(fx.store.records) != 2 {
		t.Fatalf("stored records = %d, want 2", len(fx.store.records))
	}
	if fx.store.records[0].ID == fx.store.records[1].ID {
		t.Errorf("duplicate feedback id %q issued", fx.store.records[0].ID)
	}
}

// TestSubmitFeedback_Validation verifies rejected inputs never persist.
func TestSubmitFeedback_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"name":`},
		{name: "empty name", body: `{"name":"  ","email":"a@b.co","message":"hi"}`},
		{name: "empty email", body: `{"name":"A","email":"","message":"hi"}`},
		{name: "empty message", body: `{"name":"A","email":"a@b.co","message":"   "}`},
		{name: "email no at", body: `{"name":"A","email":"nobody","message":"hi"}`},
		{name: "email no tld", body: `{"name":"A","email":"a@b","message":"hi"}`},
		{name: "email whitespace", body: `{"name":"A","email":"a b@c.co","message":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, nil)

			rr := postFeedback(t, fx.handler, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if len(fx.store.records) != 0 {
				t.Errorf("record persisted for invalid input")
			}
			if len(fx.publisher.tasks) != 0 {
				t.Errorf("task dispatched for invalid input")
			}
		})
	}
}

// TestSubmitFeedback_DispatchFallback verifies that when the hand-off
// fails, the pipeline runs inline before the response and the caller
// still sees success.
func TestSubmitFeedback_DispatchFallback(t *testing.T) {
	fx := newFixture(t, nil)
	fx.publisher.err = errors.New("queue down")

	rr := postFeedback(t, fx.handler, validBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusCreated)
	}

	if len(fx.pipeline.processed) != 1 {
		t.Fatalf("pipeline runs = %d, want 1", len(fx.pipeline.processed))
	}
	if fx.store.records[0].AnalysisState == models.StatePending {
		t.Error("record left pending despite inline fallback")
	}
}

// TestSubmitFeedback_StoreError verifies a generic server error with no
// dispatch when persistence fails.
func TestSubmitFeedback_StoreError(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.putErr = errors.New("connection refused")

	rr := postFeedback(t, fx.handler, validBody)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rr.Body.String(), "connection refused") {
		t.Error("internal error detail leaked to the caller")
	}
	if len(fx.publisher.tasks) != 0 {
		t.Errorf("task dispatched despite storage failure")
	}
}

// TestSubmitFeedback_MessageCapped verifies the configurable message cap.
func TestSubmitFeedback_MessageCapped(t *testing.T) {
	fx := newFixture(t, func(cfg *Config) { cfg.MaxMessageLen = 10 })

	body := `{"name":"A","email":"a@b.co","message":"` + strings.Repeat("m", 50) + `"}`
	rr := postFeedback(t, fx.handler, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if got := fx.store.records[0].Message; len([]rune(got)) != 10 {
		t.Errorf("stored message length = %d, want 10", len([]rune(got)))
	}
}

// TestGetInsights verifies the report passthrough.
func TestGetInsights(t *testing.T) {
	fx := newFixture(t, func(cfg *Config) {
		cfg.Insights = &fakeInsights{report: &insights.Report{
			TotalSubmissions: 42,
			TopTopic:         "pay",
		}}
	})

	req := httptest.NewRequest(http.MethodGet, "/insights", nil)
	rr := httptest.NewRecorder()
	fx.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var report insights.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if report.TotalSubmissions != 42 || report.TopTopic != "pay" {
		t.Errorf("report = %+v", report)
	}
}

// TestGetInsights_Error verifies aggregation failures surface generically.
func TestGetInsights_Error(t *testing.T) {
	fx := newFixture(t, func(cfg *Config) {
		cfg.Insights = &fakeInsights{err: errors.New("scan blew up")}
	})

	req := httptest.NewRequest(http.MethodGet, "/insights", nil)
	rr := httptest.NewRecorder()
	fx.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rr.Body.String(), "scan blew up") {
		t.Error("internal error detail leaked to the caller")
	}
}

// TestRouting verifies unknown routes and preflight handling.
func TestRouting(t *testing.T) {
	fx := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	fx.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	req = httptest.NewRequest(http.MethodOptions, "/feedback", nil)
	rr = httptest.NewRecorder()
	fx.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight missing CORS origin header")
	}
}

// TestMaskEmail verifies the one-way contact masking.
func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"j.doe@example.com", "j***@example.com"},
		{"john.doe@x.com", "j***@x.com"},
		{"a@b.co", "a***@b.co"},
		{"no-at-sign", "***@***"},
		{"@domain.com", "***@***"},
	}

	for _, tt := range tests {
		if got := MaskEmail(tt.in); got != tt.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
