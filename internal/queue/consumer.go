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

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

// Processor handles one analysis task to a terminal state.
type Processor interface {
	Process(ctx context.Context, task models.AnalysisTask)
}

// TaskFilter guards against duplicate task delivery. A filter error is not
// fatal; the consumer proceeds and relies on the store update being
// idempotent per record.
type TaskFilter interface {
	IsNew(ctx context.Context, id string) (bool, error)
}

// popTimeout bounds each blocking pop so the loop can observe context
// cancellation.
const popTimeout = 5 * time.Second

// Consumer runs the analysis worker loop: it pops tasks off the Redis
// queue and hands each one to the pipeline. Tasks are independent and
// unordered relative to each other.
type Consumer struct {
	rdb       *redis.Client
	queueName string
	filter    TaskFilter
	pipeline  Processor
}

// NewConsumer creates a consumer for the specified queue.
func NewConsumer(rdb *redis.Client, queueName string, filter TaskFilter, pipeline Processor) *Consumer {
	return &Consumer{
		rdb:       rdb,
		queueName: queueName,
		filter:    filter,
		pipeline:  pipeline,
	}
}

// Run starts the consume loop. It blocks until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	slog.Info("analysis worker starting", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.Info("analysis worker stopping")
			return
		default:
		}

		res, err := c.rdb.BRPop(ctx, popTimeout, c.queueName).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("analysis worker stopping")
				return
			}
			slog.Error("queue pop failed", "queue", c.queueName, "error", err)
			time.Sleep(time.Second)
			continue
		}

		// BRPop returns [queueName, payload]
		if len(res) < 2 {
			continue
		}
		c.handle(ctx, []byte(res[1]))
	}
}

// handle decodes and processes a single task payload. Malformed payloads
// are logged and dropped; they would never decode on redelivery either.
func (c *Consumer) handle(ctx context.Context, payload []byte) {
	var env taskEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		slog.Warn("discarding malformed task payload",
			"queue", c.queueName,
			"payload_len", len(payload),
			"error", err,
		)
		return
	}

	if env.Body.FeedbackID == "" {
		slog.Warn("discarding task without feedback id", "task_id", env.ID)
		return
	}

	// Guard against duplicate delivery
	isNew, err := c.filter.IsNew(ctx, env.Body.FeedbackID)
	if err != nil {
		slog.Warn("dedup check failed, proceeding", "error", err)
	} else if !isNew {
		slog.Debug("skipping duplicate analysis task", "feedback_id", env.Body.FeedbackID)
		return
	}

	slog.Info("processing analysis task",
		"task_id", env.ID,
		"feedback_id", env.Body.FeedbackID,
	)

	c.pipeline.Process(ctx, env.Body)
}
