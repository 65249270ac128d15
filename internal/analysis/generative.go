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
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
)

// promptTemplate instructs the model to emit strict JSON with exactly the
// three canonical fields. The feedback text is embedded verbatim; the
// normaliser handles any deviation from the requested format.
const promptTemplate = `Analyze this feedback and respond ONLY with valid JSON. No preamble, no markdown, no explanation.

Required JSON format:
{"sentiment": "positive|negative|neutral", "topics": ["topic1", "topic2"], "summary": "one sentence summary"}

Feedback: """%s"""`

// GenerativeProvider analyses feedback text by prompting a generative
// model for a strict-JSON verdict and normalising whatever comes back.
type GenerativeProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewGenerativeProvider creates a provider backed by the Anthropic API.
// maxTokens caps the model output per analysis call.
func NewGenerativeProvider(apiKey, model string, maxTokens int) *GenerativeProvider {
	return &GenerativeProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Name identifies the provider on stored records.
func (p *GenerativeProvider) Name() string { return "anthropic" }

// Analyze prompts the model with deterministic sampling and passes the
// concatenated text output through the normaliser. Only transport and API
// errors surface to the caller; malformed model output never does.
func (p *GenerativeProvider) Analyze(ctx context.Context, text string) (models.AnalysisResult, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(promptTemplate, text))),
		},
	})
	if err != nil {
		return models.AnalysisResult{}, &ProviderError{Provider: p.Name(), Err: err}
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	raw := strings.TrimSpace(sb.String())

	slog.Debug("generative analysis response",
		"model", p.model,
		"response_len", len(raw),
		"tokens_in", message.Usage.InputTokens,
		"tokens_out", message.Usage.OutputTokens,
	)

	return Normalize(raw), nil
}
