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

// Package models defines the data structures shared across the insight hub service.
package models

import "time"

// Analysis states a feedback record moves through. A record is created in
// StatePending and is written exactly once more by the analysis pipeline,
// to StateComplete or StateFailed. Failed records remain eligible for an
// out-of-band reprocess sweep.
const (
	StatePending  = "pending"
	StateComplete = "complete"
	StateFailed   = "failed"
)

// Canonical sentiment values. Anything a provider returns outside this set
// is normalised to SentimentNeutral before it reaches the store.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// FeedbackRecord represents a single feedback submission and its
// (possibly incomplete) analysis.
//
// The contact value is stored in masked form only; the raw address is
// never persisted.
type FeedbackRecord struct {
	ID            string    `json:"feedbackId"`
	Name          string    `json:"name"`
	Contact       string    `json:"email"`
	Message       string    `json:"message"`
	Sentiment     string    `json:"sentiment,omitempty"`
	Topics        []string  `json:"topics"`
	Summary       string    `json:"summary,omitempty"`
	AnalysisState string    `json:"analysisState"`
	AnalysisError string    `json:"analysisError,omitempty"`
	Provider      string    `json:"providerUsed,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AnalysisResult is the canonical {sentiment, topics, summary} triple every
// provider adapter produces. Topics is never nil after an analysis attempt.
type AnalysisResult struct {
	Sentiment string   `json:"sentiment"`
	Topics    []string `json:"topics"`
	Summary   string   `json:"summary"`
}

// AnalysisTask is the message dispatched from ingestion to the analysis
// pipeline.
//
// This struct's JSON serialisation is the queue wire contract between the
// publisher and the consumer. CreatedAt is carried as the record's original
// RFC 3339 timestamp so the archive key is derived from submission time,
// not processing time.
type AnalysisTask struct {
	FeedbackID string `json:"feedbackId"`
	Message    string `json:"message"`
	CreatedAt  string `json:"createdAt"`
}
