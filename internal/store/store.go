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

// Package store provides a Postgres-backed store for feedback records.
// Records are written once at ingestion in the pending state and updated
// exactly once by the analysis pipeline via an id-addressed conditional
// update. The insights aggregator reads the full set through a paginated
// scan.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

// ErrNotFound is returned when a conditional update targets an id that
// does not exist.
var ErrNotFound = errors.New("feedback record not found")

// maxErrorLen bounds the analysis error message persisted on a failed record.
const maxErrorLen = 500

// Store provides CRUD operations for feedback records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a feedback store backed by the given Postgres pool.
// It ensures the feedback table exists on creation.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure feedback schema: %w", err)
	}
	slog.Info("feedback store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS feedback (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			contact        TEXT NOT NULL,
			message        TEXT NOT NULL,
			sentiment      TEXT DEFAULT '',
			topics         TEXT[] NOT NULL DEFAULT '{}',
			summary        TEXT DEFAULT '',
			analysis_state TEXT NOT NULL DEFAULT 'pending',
			analysis_error TEXT DEFAULT '',
			provider       TEXT DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_state ON feedback(analysis_state);
		CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
	`)
	return err
}

// Put persists a new feedback record. The record must already carry a
// masked contact value; the store never sees the raw address.
func (s *Store) Put(ctx context.Context, r models.FeedbackRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback
			(id, name, contact, message, analysis_state, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.Name, r.Contact, r.Message, models.StatePending, r.Provider, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ApplyAnalysis records a successful analysis on the record at id,
// transitioning it to the complete state. A nil topics slice is stored as
// an empty array so readers never observe NULL topics.
func (s *Store) ApplyAnalysis(ctx context.Context, id string, result models.AnalysisResult, provider string) error {
	topics := result.Topics
	if topics == nil {
		topics = []string{}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE feedback
		SET sentiment = $1, topics = $2, summary = $3,
		    analysis_state = $4, analysis_error = '', provider = $5
		WHERE id = $6
	`, result.Sentiment, topics, result.Summary, models.StateComplete, provider, id)
	if err != nil {
		return fmt.Errorf("apply analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a failed analysis attempt on the record at id. The
// error message is truncated so a misbehaving provider cannot bloat the
// table. Prior analysis fields are left untouched.
func (s *Store) MarkFailed(ctx context.Context, id, provider, errMsg string) error {
	errMsg = truncateError(errMsg)

	tag, err := s.pool.Exec(ctx, `
		UPDATE feedback
		SET analysis_state = $1, analysis_error = $2, provider = $3
		WHERE id = $4
	`, models.StateFailed, errMsg, provider, id)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ScanPage returns one page of records in id order, starting after the
// given continuation token. An empty returned token means the scan is
// exhausted; callers loop until then.
func (s *Store) ScanPage(ctx context.Context, token string, limit int) ([]models.FeedbackRecord, string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, contact, message, sentiment, topics, summary,
		       analysis_state, analysis_error, provider, created_at
		FROM feedback
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, token, limit)
	if err != nil {
		return nil, "", fmt.Errorf("scan feedback: %w", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(records) == limit {
		next = records[len(records)-1].ID
	}
	return records, next, nil
}

// ListFailed returns records whose last analysis attempt errored. Used by
// the reprocess sweep to target failures without touching pending records.
func (s *Store) ListFailed(ctx context.Context, limit int) ([]models.FeedbackRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, contact, message, sentiment, topics, summary,
		       analysis_state, analysis_error, provider, created_at
		FROM feedback
		WHERE analysis_state = $1
		ORDER BY created_at
		LIMIT $2
	`, models.StateFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("list failed feedback: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListPending returns records still awaiting analysis, oldest first.
func (s *Store) ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]models.FeedbackRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, contact, message, sentiment, topics, summary,
		       analysis_state, analysis_error, provider, created_at
		FROM feedback
		WHERE analysis_state = $1 AND created_at < NOW() - $2::interval
		ORDER BY created_at
		LIMIT $3
	`, models.StatePending, fmt.Sprintf("%d seconds", int(olderThan.Seconds())), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending feedback: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Get retrieves a single record by id.
func (s *Store) Get(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, contact, message, sentiment, topics, summary,
		       analysis_state, analysis_error, provider, created_at
		FROM feedback
		WHERE id = $1
	`, id)

	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return r, nil
}

// Ping checks the Postgres connection.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// truncateError bounds the message to maxErrorLen code points. Cutting on
// a rune boundary keeps the value valid UTF-8 for the TEXT column.
func truncateError(errMsg string) string {
	runes := []rune(errMsg)
	if len(runes) <= maxErrorLen {
		return errMsg
	}
	return string(runes[:maxErrorLen])
}

func scanRecord(row pgx.Row) (*models.FeedbackRecord, error) {
	var r models.FeedbackRecord
	err := row.Scan(
		&r.ID, &r.Name, &r.Contact, &r.Message, &r.Sentiment, &r.Topics,
		&r.Summary, &r.AnalysisState, &r.AnalysisError, &r.Provider, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectRecords(rows pgx.Rows) ([]models.FeedbackRecord, error) {
	var records []models.FeedbackRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	return records, nil
}
