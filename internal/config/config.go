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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider selection values.
const (
	ProviderGenerative = "generative"
	ProviderClassical  = "classical"
)

// Config holds all configuration for the insight hub service. It is built
// once at process start and passed explicitly to each component; nothing
// reads ambient environment state after Load returns.
type Config struct {
	// HTTP
	Port int

	// Postgres
	DatabaseURL string

	// Redis
	RedisURL   string
	TasksQueue string

	// Validation limits
	MaxMessageLen int
	MaxFieldLen   int

	// Provider selection: "generative" or "classical"
	Provider string

	// Generative provider (Anthropic)
	AnthropicAPIKey string
	AnthropicModel  string
	MaxOutputTokens int

	// Classical NLP provider
	NLPBaseURL      string
	NLPTokenURL     string
	NLPClientID     string
	NLPClientSecret string
	PhraseThreshold float64
	NLPTimeout      time.Duration

	// Archive sink. Empty root disables archiving.
	ArchiveRoot string

	// Store scan page size for insights aggregation.
	ScanPageSize int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Provider string `yaml:"provider"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL    string `yaml:"url"`
		Queues struct {
			Analysis string `yaml:"analysis"`
		} `yaml:"queues"`
	} `yaml:"redis"`
	Anthropic struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"anthropic"`
	NLP struct {
		BaseURL      string `yaml:"base_url"`
		TokenURL     string `yaml:"token_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"nlp"`
	Archive struct {
		Root string `yaml:"root"`
	} `yaml:"archive"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings. The YAML file is optional;
// a deployment may configure everything through the environment.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration is allowed.
	default:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		Port:            envOrDefaultInt("PORT", 8080),
		DatabaseURL:     firstNonEmpty(raw.Database.URL, os.Getenv("DATABASE_URL")),
		RedisURL:        firstNonEmpty(raw.Redis.URL, envOrDefault("REDIS_URL", "redis://localhost:6379/0")),
		TasksQueue:      firstNonEmpty(raw.Redis.Queues.Analysis, envOrDefault("ANALYSIS_QUEUE", "feedback-analysis")),
		MaxMessageLen:   envOrDefaultInt("MAX_MESSAGE_LEN", 3000),
		MaxFieldLen:     envOrDefaultInt("MAX_FIELD_LEN", 200),
		Provider:        strings.ToLower(strings.TrimSpace(firstNonEmpty(raw.Provider, envOrDefault("AI_PROVIDER", ProviderGenerative)))),
		AnthropicAPIKey: firstNonEmpty(raw.Anthropic.APIKey, os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicModel:  firstNonEmpty(raw.Anthropic.Model, envOrDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307")),
		MaxOutputTokens: envOrDefaultInt("MAX_OUTPUT_TOKENS", 300),
		NLPBaseURL:      firstNonEmpty(raw.NLP.BaseURL, os.Getenv("NLP_BASE_URL")),
		NLPTokenURL:     firstNonEmpty(raw.NLP.TokenURL, os.Getenv("NLP_TOKEN_URL")),
		NLPClientID:     firstNonEmpty(raw.NLP.ClientID, os.Getenv("NLP_CLIENT_ID")),
		NLPClientSecret: firstNonEmpty(raw.NLP.ClientSecret, os.Getenv("NLP_CLIENT_SECRET")),
		PhraseThreshold: envOrDefaultFloat("PHRASE_CONFIDENCE_THRESHOLD", 0.85),
		NLPTimeout:      envOrDefaultDuration("NLP_TIMEOUT", 30*time.Second),
		ArchiveRoot:     firstNonEmpty(raw.Archive.Root, os.Getenv("ARCHIVE_ROOT")),
		ScanPageSize:    envOrDefaultInt("SCAN_PAGE_SIZE", 200),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required: set DATABASE_URL or database.url in %s", configPath)
	}

	switch cfg.Provider {
	case ProviderGenerative:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("generative provider selected but no Anthropic API key configured")
		}
	case ProviderClassical:
		if cfg.NLPBaseURL == "" {
			return nil, fmt.Errorf("classical provider selected but no NLP base URL configured")
		}
	default:
		return nil, fmt.Errorf("unknown provider %q (expected %q or %q)", cfg.Provider, ProviderGenerative, ProviderClassical)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
