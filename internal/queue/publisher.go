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

// Package queue carries analysis tasks from the ingestion service to the
// analysis worker over a Redis list. Dispatch is best-effort and
// fire-and-forget: the publisher reports success or failure of the
// hand-off itself and never waits for the analysis outcome.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

// taskEnvelope wraps an analysis task for Redis transport. The task id
// correlates publish and consume log lines.
type taskEnvelope struct {
	ID         string              `json:"id"`
	Task       string              `json:"task"`
	Body       models.AnalysisTask `json:"body"`
	EnqueuedAt string              `json:"enqueued_at"`
}

// taskName identifies the only task type carried on the queue.
const taskName = "feedback.analyse"

// Publisher sends analysis tasks to a Redis list.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a publisher targeting the specified queue.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// PublishAnalysisTask serialises the task and pushes it onto the queue.
// A returned error means the hand-off itself failed; the caller is
// expected to fall back to running the pipeline inline.
func (p *Publisher) PublishAnalysisTask(ctx context.Context, task models.AnalysisTask) error {
	env := taskEnvelope{
		ID:         uuid.New().String(),
		Task:       taskName,
		Body:       task,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal analysis task: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, payload).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	slog.Info("published analysis task",
		"task_id", env.ID,
		"feedback_id", task.FeedbackID,
		"queue", p.queueName,
	)

	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
