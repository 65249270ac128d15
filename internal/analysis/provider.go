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

// Package analysis derives sentiment, topics, and a summary from feedback
// text. It provides two provider adapters (a generative model adapter and
// a classical NLP adapter), the normaliser that hardens raw model output,
// and the pipeline that applies analysis results to stored records.
package analysis

import (
	"context"
	"fmt"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

// Provider is the capability interface over text-analysis backends. Both
// variants are selected once at process configuration time; components
// never switch providers per request.
type Provider interface {
	// Name identifies the provider in logs and on stored records.
	Name() string

	// Analyze derives the canonical analysis triple from the given text.
	// Backend failures are returned as *ProviderError; the caller owns
	// retry and failure policy.
	Analyze(ctx context.Context, text string) (models.AnalysisResult, error)
}

// ProviderError wraps a failure from an analysis backend.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
