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

// Package reprocess re-runs analysis for records whose last attempt
// failed, or for records stuck in the pending state, by pushing each one
// back through the regular analysis pipeline.
package reprocess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

// RecordLister selects the records a sweep operates on.
type RecordLister interface {
	ListFailed(ctx context.Context, limit int) ([]models.FeedbackRecord, error)
	ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]models.FeedbackRecord, error)
}

// Processor executes one analysis task to a terminal state.
type Processor interface {
	Process(ctx context.Context, task models.AnalysisTask)
}

// Request defines the scope of a sweep run.
type Request struct {
	State     string        // models.StateFailed or models.StatePending
	Limit     int           // maximum records per run
	OlderThan time.Duration // minimum age for pending records
}

// Result summarises a completed sweep.
type Result struct {
	State   string
	Swept   int
	Elapsed time.Duration
}

// Sweeper selects stuck records and replays them through the pipeline.
type Sweeper struct {
	store    RecordLister
	pipeline Processor
}

// NewSweeper creates a sweeper.
func NewSweeper(store RecordLister, pipeline Processor) *Sweeper {
	return &Sweeper{store: store, pipeline: pipeline}
}

// Run performs one sweep. Records that fail again stay in the failed
// state and are picked up by the next run.
func (s *Sweeper) Run(ctx context.Context, req Request) (*Result, error) {
	if req.State != models.StateFailed && req.State != models.StatePending {
		return nil, fmt.Errorf("unsupported sweep state %q", req.State)
	}

	start := time.Now()

	var (
		records []models.FeedbackRecord
		err     error
	)
	if req.State == models.StateFailed {
		records, err = s.store.ListFailed(ctx, req.Limit)
	} else {
		records, err = s.store.ListPending(ctx, req.OlderThan, req.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", req.State, err)
	}

	slog.Info("reprocessing records", "state", req.State, "count", len(records))

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.pipeline.Process(ctx, models.AnalysisTask{
			FeedbackID: r.ID,
			Message:    r.Message,
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		})
	}

	result := &Result{
		State:   req.State,
		Swept:   len(records),
		Elapsed: time.Since(start),
	}

	slog.Info("reprocess sweep complete",
		"state", result.State,
		"swept", result.Swept,
		"elapsed", result.Elapsed,
	)

	return result, nil
}
