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

package reprocess

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

type mockLister struct {
	failed  []models.FeedbackRecord
	pending []models.FeedbackRecord
	err     error

	gotLimit     int
	gotOlderThan time.Duration
}

func (m *mockLister) ListFailed(_ context.Context, limit int) ([]models.FeedbackRecord, error) {
	m.gotLimit = limit
	return m.failed, m.err
}

func (m *mockLister) ListPending(_ context.Context, olderThan time.Duration, limit int) ([]models.FeedbackRecord, error) {
	m.gotLimit = limit
	m.gotOlderThan = olderThan
	return m.pending, m.err
}

type mockProcessor struct {
	tasks []models.AnalysisTask
}

func (m *mockProcessor) Process(_ context.Context, task models.AnalysisTask) {
	m.tasks = append(m.tasks, task)
}

func stuckRecord(id string) models.FeedbackRecord {
	return models.FeedbackRecord{
		ID:        id,
		Message:   "message for " + id,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// TestSweeper_Failed verifies failed records replay through the pipeline.
func TestSweeper_Failed(t *testing.T) {
	lister := &mockLister{failed: []models.FeedbackRecord{stuckRecord("a"), stuckRecord("b")}}
	proc := &mockProcessor{}

	result, err := NewSweeper(lister, proc).Run(context.Background(), Request{
		State: models.StateFailed,
		Limit: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Swept != 2 {
		t.Errorf("swept = %d, want 2", result.Swept)
	}
	if lister.gotLimit != 50 {
		t.Errorf("limit = %d, want 50", lister.gotLimit)
	}
	if len(proc.tasks) != 2 {
		t.Fatalf("processed tasks = %d, want 2", len(proc.tasks))
	}
	if proc.tasks[0].FeedbackID != "a" || proc.tasks[0].Message != "message for a" {
		t.Errorf("task = %+v", proc.tasks[0])
	}
	if proc.tasks[0].CreatedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("task createdAt = %q", proc.tasks[0].CreatedAt)
	}
}

// TestSweeper_Pending verifies the age filter is passed through.
func TestSweeper_Pending(t *testing.T) {
	lister := &mockLister{pending: []models.FeedbackRecord{stuckRecord("p")}}
	proc := &mockProcessor{}

	result, err := NewSweeper(lister, proc).Run(context.Background(), Request{
		State:     models.StatePending,
		Limit:     10,
		OlderThan: time.Hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Swept != 1 {
		t.Errorf("swept = %d, want 1", result.Swept)
	}
	if lister.gotOlderThan != time.Hour {
		t.Errorf("olderThan = %v, want 1h", lister.gotOlderThan)
	}
}

// TestSweeper_UnknownState verifies invalid states are rejected up front.
func TestSweeper_UnknownState(t *testing.T) {
	proc := &mockProcessor{}

	_, err := NewSweeper(&mockLister{}, proc).Run(context.Background(), Request{State: "complete"})
	if err == nil {
		t.Fatal("expected error for unsupported state")
	}
	if len(proc.tasks) != 0 {
		t.Errorf("pipeline ran despite rejected request")
	}
}

// TestSweeper_ListError verifies store failures abort the sweep.
func TestSweeper_ListError(t *testing.T) {
	lister := &mockLister{err: errors.New("connection reset")}
	proc := &mockProcessor{}

	_, err := NewSweeper(lister, proc).Run(context.Background(), Request{
		State: models.StateFailed,
		Limit: 10,
	})
	if err == nil {
		t.Fatal("expected error when listing fails")
	}
	if len(proc.tasks) != 0 {
		t.Errorf("pipeline ran despite listing failure")
	}
}

// TestSweeper_Empty verifies a no-op sweep completes cleanly.
func TestSweeper_Empty(t *testing.T) {
	result, err := NewSweeper(&mockLister{}, &mockProcessor{}).Run(context.Background(), Request{
		State: models.StateFailed,
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Swept != 0 {
		t.Errorf("swept = %d, want 0", result.Swept)
	}
}

// TestSweeper_ContextCancelled verifies cancellation stops the replay loop.
func TestSweeper_ContextCancelled(t *testing.T) {
	lister := &mockLister{failed: []models.FeedbackRecord{stuckRecord("a"), stuckRecord("b")}}
	proc := &mockProcessor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSweeper(lister, proc).Run(ctx, Request{State: models.StateFailed, Limit: 10})
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(proc.tasks) != 0 {
		t.Errorf("processed tasks = %d, want 0 after cancellation", len(proc.tasks))
	}
}
