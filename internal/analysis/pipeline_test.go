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

package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

type fakeProvider struct {
	result models.AnalysisResult
	err    error

	sawCtxErr error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Analyze(ctx context.Context, _ string) (models.AnalysisResult, error) {
	f.sawCtxErr = ctx.Err()
	return f.result, f.err
}

type fakeUpdater struct {
	appliedID     string
	appliedResult models.AnalysisResult
	failedID      string
	failedMsg     string
	applyErr      error
}

func (f *fakeUpdater) ApplyAnalysis(_ context.Context, id string, result models.AnalysisResult, _ string) error {
	f.appliedID = id
	f.appliedResult = result
	return f.applyErr
}

func (f *fakeUpdater) MarkFailed(_ context.Context, id, _, errMsg string) error {
	f.failedID = id
	f.failedMsg = errMsg
	return nil
}

type fakeSink struct {
	keys []string
	err  error
}

func (f *fakeSink) Write(_ context.Context, key string, _ []byte) error {
	f.keys = append(f.keys, key)
	return f.err
}

var testTask = models.AnalysisTask{
	FeedbackID: "fb-1",
	Message:    "great team",
	CreatedAt:  "2025-06-15T10:00:00Z",
}

// TestPipeline_Success verifies the complete path: result applied and
// archived under a year-month key.
func TestPipeline_Success(t *testing.T) {
	provider := &fakeProvider{result: models.AnalysisResult{
		Sentiment: models.SentimentPositive,
		Topics:    []string{"team"},
		Summary:   "Positive about the team.",
	}}
	store := &fakeUpdater{}
	sink := &fakeSink{}

	NewPipeline(provider, store, sink).Process(context.Background(), testTask)

	if store.appliedID != "fb-1" {
		t.Errorf("applied id = %q, want fb-1", store.appliedID)
	}
	if store.failedID != "" {
		t.Errorf("unexpected failure recorded for %q", store.failedID)
	}
	if len(sink.keys) != 1 || sink.keys[0] != "exports/2025-06/fb-1.json" {
		t.Errorf("archive keys = %v, want [exports/2025-06/fb-1.json]", sink.keys)
	}
}

// TestPipeline_ProviderFailure verifies provider errors are recorded on
// the record and nothing is archived.
func TestPipeline_ProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: &ProviderError{Provider: "fake", Err: errors.New("timeout")}}
	store := &fakeUpdater{}
	sink := &fakeSink{}

	NewPipeline(provider, store, sink).Process(context.Background(), testTask)

	if store.failedID != "fb-1" {
		t.Errorf("failed id = %q, want fb-1", store.failedID)
	}
	if store.appliedID != "" {
		t.Errorf("unexpected analysis applied for %q", store.appliedID)
	}
	if !strings.Contains(store.failedMsg, "timeout") {
		t.Errorf("failure message = %q, want it to mention the cause", store.failedMsg)
	}
	if len(sink.keys) != 0 {
		t.Errorf("archive keys = %v, want none", sink.keys)
	}
}

// TestPipeline_ArchiveFailureSwallowed verifies an archive write failure
// never disturbs the committed analysis.
func TestPipeline_ArchiveFailureSwallowed(t *testing.T) {
	provider := &fakeProvider{result: models.AnalysisResult{Sentiment: models.SentimentNeutral, Topics: []string{}}}
	store := &fakeUpdater{}
	sink := &fakeSink{err: errors.New("disk full")}

	NewPipeline(provider, store, sink).Process(context.Background(), testTask)

	if store.appliedID != "fb-1" {
		t.Errorf("applied id = %q, want fb-1", store.appliedID)
	}
	if store.failedID != "" {
		t.Errorf("archive failure must not mark the record failed, got %q", store.failedID)
	}
}

// TestPipeline_NilSink verifies archiving is skipped when unconfigured.
func TestPipeline_NilSink(t *testing.T) {
	provider := &fakeProvider{result: models.AnalysisResult{Sentiment: models.SentimentNeutral, Topics: []string{}}}
	store := &fakeUpdater{}

	NewPipeline(provider, store, nil).Process(context.Background(), testTask)

	if store.appliedID != "fb-1" {
		t.Errorf("applied id = %q, want fb-1", store.appliedID)
	}
}

// TestPipeline_CancelledCaller verifies an execution still reaches its
// terminal write when the invoking context is already cancelled, as
// happens when an HTTP client disconnects during the inline fallback or
// the worker is shut down mid-task.
func TestPipeline_CancelledCaller(t *testing.T) {
	provider := &fakeProvider{result: models.AnalysisResult{
		Sentiment: models.SentimentPositive,
		Topics:    []string{"team"},
		Summary:   "Positive about the team.",
	}}
	store := &fakeUpdater{}
	sink := &fakeSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewPipeline(provider, store, sink).Process(ctx, testTask)

	if provider.sawCtxErr != nil {
		t.Errorf("provider observed cancellation: %v", provider.sawCtxErr)
	}
	if store.appliedID != "fb-1" {
		t.Errorf("applied id = %q, want fb-1", store.appliedID)
	}
	if len(sink.keys) != 1 {
		t.Errorf("archive keys = %v, want one write", sink.keys)
	}
}

// TestYearMonth verifies archive key partitioning.
func TestYearMonth(t *testing.T) {
	if got := yearMonth("2025-11-03T09:00:00Z"); got != "2025-11" {
		t.Errorf("yearMonth = %q, want 2025-11", got)
	}
	// Unusable timestamps fall back to some current month, never panic.
	if got := yearMonth("bad"); len(got) != 7 {
		t.Errorf("yearMonth fallback = %q, want yyyy-mm shape", got)
	}
}
