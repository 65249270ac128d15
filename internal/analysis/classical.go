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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

const (
	// classicalInputLimit is the NLP service's maximum input length.
	classicalInputLimit = 4500

	// maxTopics caps the number of key phrases kept as topics.
	maxTopics = 10

	// summaryTopicCount is how many topics the templated summary names.
	summaryTopicCount = 5
)

// ClassicalProvider analyses feedback text with a classical NLP service:
// one sentiment-classification call and one key-phrase-extraction call.
// No free-form output is involved, so no normalisation pass is needed.
type ClassicalProvider struct {
	httpClient *http.Client
	baseURL    string
	threshold  float64
}

// NewClassicalProvider creates a provider backed by the NLP service at
// baseURL. The http.Client is expected to carry authentication (an OAuth2
// client-credentials transport in production).
func NewClassicalProvider(httpClient *http.Client, baseURL string, threshold float64) *ClassicalProvider {
	return &ClassicalProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		threshold:  threshold,
	}
}

// Name identifies the provider on stored records.
func (p *ClassicalProvider) Name() string { return "nlp" }

// sentimentResponse is the classifier's 4-way verdict.
type sentimentResponse struct {
	Sentiment string `json:"sentiment"`
}

// keyPhrasesResponse carries scored phrases extracted from the text.
type keyPhrasesResponse struct {
	KeyPhrases []struct {
		Text  string  `json:"text"`
		Score float64 `json:"score"`
	} `json:"keyPhrases"`
}

// Analyze classifies sentiment, extracts key phrases above the confidence
// threshold, and synthesises a deterministic one-sentence summary.
func (p *ClassicalProvider) Analyze(ctx context.Context, text string) (models.AnalysisResult, error) {
	text = truncate(strings.TrimSpace(text), classicalInputLimit)

	var sentResp sentimentResponse
	if err := p.post(ctx, "/v1/sentiment", text, &sentResp); err != nil {
		return models.AnalysisResult{}, &ProviderError{Provider: p.Name(), Err: err}
	}
	sentiment := mapSentiment(sentResp.Sentiment)

	var kpResp keyPhrasesResponse
	if err := p.post(ctx, "/v1/key-phrases", text, &kpResp); err != nil {
		return models.AnalysisResult{}, &ProviderError{Provider: p.Name(), Err: err}
	}

	topics := make([]string, 0, maxTopics)
	for _, phrase := range kpResp.KeyPhrases {
		if phrase.Text == "" || phrase.Score <= p.threshold {
			continue
		}
		topics = append(topics, phrase.Text)
		if len(topics) == maxTopics {
			break
		}
	}

	return models.AnalysisResult{
		Sentiment: sentiment,
		Topics:    topics,
		Summary:   classicalSummary(sentiment, topics),
	}, nil
}

// post sends {"text": ...} to the given endpoint and decodes the response.
func (p *ClassicalProvider) post(ctx context.Context, path, text string, out any) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("NLP service returned HTTP %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// mapSentiment folds the classifier's 4-way output into the 3-way
// canonical space. MIXED and anything unrecognised map to neutral.
func mapSentiment(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "POSITIVE":
		return models.SentimentPositive
	case "NEGATIVE":
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// classicalSummary builds the templated one-sentence summary.
func classicalSummary(sentiment string, topics []string) string {
	if len(topics) == 0 {
		return fmt.Sprintf("Feedback classified as %s.", sentiment)
	}
	top := topics
	if len(top) > summaryTopicCount {
		top = top[:summaryTopicCount]
	}
	return fmt.Sprintf("Feedback classified as %s. Key themes: %s.", sentiment, strings.Join(top, ", "))
}
