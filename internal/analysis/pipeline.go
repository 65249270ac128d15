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
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/archive"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

// RecordUpdater is the slice of the feedback store the pipeline writes
// through. Each record is updated once, addressed by id.
type RecordUpdater interface {
	ApplyAnalysis(ctx context.Context, id string, result models.AnalysisResult, provider string) error
	MarkFailed(ctx context.Context, id, provider, errMsg string) error
}

// Pipeline consumes dispatched analysis tasks: it invokes the provider,
// applies the result to the stored record, and optionally archives the
// enriched record to the configured sink.
type Pipeline struct {
	provider Provider
	store    RecordUpdater
	sink     archive.Sink
}

// NewPipeline creates an analysis pipeline. A nil sink disables archiving.
func NewPipeline(provider Provider, store RecordUpdater, sink archive.Sink) *Pipeline {
	return &Pipeline{
		provider: provider,
		store:    store,
		sink:     sink,
	}
}

// Process runs one analysis task to a terminal state. It never returns an
// error to its invoker: provider failures are recorded on the feedback
// record itself, leaving it distinguishable from pending so a later sweep
// can target failures specifically.
//
// The caller's cancellation is deliberately severed: once an execution has
// started it must reach a terminal write even if the invoker goes away
// (a disconnecting HTTP client on the inline fallback path, or worker
// shutdown mid-task).
func (p *Pipeline) Process(ctx context.Context, task models.AnalysisTask) {
	ctx = context.WithoutCancel(ctx)

	result, err := p.provider.Analyze(ctx, task.Message)
	if err != nil {
		slog.Error("analysis failed",
			"feedback_id", task.FeedbackID,
			"provider", p.provider.Name(),
			"error", err,
		)
		if err := p.store.MarkFailed(ctx, task.FeedbackID, p.provider.Name(), err.Error()); err != nil {
			slog.Error("failed to record analysis failure",
				"feedback_id", task.FeedbackID,
				"error", err,
			)
		}
		return
	}

	if err := p.store.ApplyAnalysis(ctx, task.FeedbackID, result, p.provider.Name()); err != nil {
		slog.Error("failed to apply analysis result",
			"feedback_id", task.FeedbackID,
			"error", err,
		)
		return
	}

	slog.Info("analysis complete",
		"feedback_id", task.FeedbackID,
		"provider", p.provider.Name(),
		"sentiment", result.Sentiment,
		"topics", len(result.Topics),
	)

	p.archive(ctx, task, result)
}

// archivedRecord is the serialised shape written to the sink.
type archivedRecord struct {
	FeedbackID string   `json:"feedbackId"`
	CreatedAt  string   `json:"createdAt"`
	Sentiment  string   `json:"sentiment"`
	Topics     []string `json:"topics"`
	Summary    string   `json:"summary"`
}

// archive writes the enriched record to the sink, partitioned by the
// record's submission year-month. Failures are logged and swallowed; the
// analysis update is already committed and must not be reverted.
func (p *Pipeline) archive(ctx context.Context, task models.AnalysisTask, result models.AnalysisResult) {
	if p.sink == nil {
		return
	}

	payload, err := json.Marshal(archivedRecord{
		FeedbackID: task.FeedbackID,
		CreatedAt:  task.CreatedAt,
		Sentiment:  result.Sentiment,
		Topics:     result.Topics,
		Summary:    result.Summary,
	})
	if err != nil {
		slog.Warn("archive marshal failed", "feedback_id", task.FeedbackID, "error", err)
		return
	}

	key := fmt.Sprintf("exports/%s/%s.json", yearMonth(task.CreatedAt), task.FeedbackID)
	if err := p.sink.Write(ctx, key, payload); err != nil {
		slog.Warn("archive write failed",
			"feedback_id", task.FeedbackID,
			"key", key,
			"error", err,
		)
		return
	}

	slog.Debug("archived enriched record", "key", key)
}

// yearMonth extracts the yyyy-mm partition from an RFC 3339 timestamp,
// falling back to the current month when the timestamp is unusable.
func yearMonth(createdAt string) string {
	if len(createdAt) >= 7 {
		return createdAt[:7]
	}
	return time.Now().UTC().Format("2006-01")
}
