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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

const (
	// maxSummaryLen bounds the summary stored on a record.
	maxSummaryLen = 500

	// fallbackSummaryLen bounds the raw-text summary used when the model
	// output cannot be parsed at all.
	fallbackSummaryLen = 200
)

// Normalize turns raw generative model output into a canonical analysis
// result. It never fails: every input string, however malformed, produces
// a structurally valid result. This is the single point where untrusted
// model output becomes trusted data.
//
// Parse strategies, in order:
//  1. Strip Markdown code fences and parse the cleaned text directly.
//  2. Parse the first balanced {...} span found in the cleaned text.
//  3. Fall back to a neutral result carrying a prefix of the raw text.
func Normalize(raw string) models.AnalysisResult {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if result, ok := parseCandidate(cleaned); ok {
		return result
	}

	if span, ok := firstJSONObject(cleaned); ok {
		if result, ok := parseCandidate(span); ok {
			return result
		}
	}

	return models.AnalysisResult{
		Sentiment: models.SentimentNeutral,
		Topics:    []string{},
		Summary:   truncate(raw, fallbackSummaryLen),
	}
}

// parseCandidate attempts a structured parse of the candidate text and
// coerces the parsed fields into the canonical shape.
func parseCandidate(candidate string) (models.AnalysisResult, bool) {
	var parsed struct {
		Sentiment any `json:"sentiment"`
		Topics    any `json:"topics"`
		Summary   any `json:"summary"`
	}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return models.AnalysisResult{}, false
	}

	return models.AnalysisResult{
		Sentiment: coerceSentiment(parsed.Sentiment),
		Topics:    coerceTopics(parsed.Topics),
		Summary:   truncate(coerceString(parsed.Summary), maxSummaryLen),
	}, true
}

// firstJSONObject returns the first balanced {...} span in the text.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func coerceSentiment(v any) string {
	s, ok := v.(string)
	if !ok {
		return models.SentimentNeutral
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.SentimentPositive:
		return models.SentimentPositive
	case models.SentimentNegative:
		return models.SentimentNegative
	case models.SentimentNeutral:
		return models.SentimentNeutral
	default:
		return models.SentimentNeutral
	}
}

func coerceTopics(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	topics := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			topics = append(topics, s)
		}
	}
	return topics
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

// truncate bounds a string to n code points.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
