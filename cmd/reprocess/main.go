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

// Smart Insight Hub — Reprocess Sweep
//
// Standalone CLI tool that re-runs analysis for records whose last attempt
// failed, or for records stuck in the pending state (for example after a
// queue outage). Each record runs through the same pipeline the worker
// uses, so every swept record reaches a terminal analysis state.
//
// Usage:
//
//	go run ./cmd/reprocess/ [--state failed|pending] [--limit 100] [--older-than 1h]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/analysis"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/archive"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/config"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/models"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/reprocess"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/store"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	stateFlag := flag.String("state", models.StateFailed, "Which records to sweep: failed or pending")
	limitFlag := flag.Int("limit", 100, "Maximum number of records to reprocess")
	olderFlag := flag.String("older-than", "1h", "Minimum age for pending records (ignored for failed)")
	flag.Parse()

	if *stateFlag != models.StateFailed && *stateFlag != models.StatePending {
		fmt.Fprintf(os.Stderr, "Error: --state must be %q or %q\n\n", models.StateFailed, models.StatePending)
		flag.Usage()
		os.Exit(1)
	}

	olderThan, err := time.ParseDuration(*olderFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --older-than duration %q: %v\n", *olderFlag, err)
		os.Exit(1)
	}

	slog.Info("starting reprocess sweep",
		"state", *stateFlag,
		"limit", *limitFlag,
	)

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	st, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise feedback store", "error", err)
		os.Exit(1)
	}

	// --- Provider + Pipeline ---
	provider := buildProvider(ctx, cfg)

	var sink archive.Sink
	if cfg.ArchiveRoot != "" {
		sink = archive.NewFilesystemSink(cfg.ArchiveRoot)
	}

	pipeline := analysis.NewPipeline(provider, st, sink)

	// --- Sweep ---
	sweeper := reprocess.NewSweeper(st, pipeline)
	result, err := sweeper.Run(ctx, reprocess.Request{
		State:     *stateFlag,
		Limit:     *limitFlag,
		OlderThan: olderThan,
	})
	if err != nil {
		slog.Error("sweep failed", "error", err)
		os.Exit(1)
	}

	if result.Swept == 0 {
		slog.Info("nothing to reprocess", "state", *stateFlag)
	}
}

// buildProvider constructs the provider variant selected in configuration.
func buildProvider(ctx context.Context, cfg *config.Config) analysis.Provider {
	if cfg.Provider == config.ProviderClassical {
		var httpClient *http.Client
		if cfg.NLPTokenURL != "" {
			creds := &clientcredentials.Config{
				ClientID:     cfg.NLPClientID,
				ClientSecret: cfg.NLPClientSecret,
				TokenURL:     cfg.NLPTokenURL,
			}
			httpClient = creds.Client(ctx)
		} else {
			httpClient = &http.Client{}
		}
		httpClient.Timeout = cfg.NLPTimeout
		return analysis.NewClassicalProvider(httpClient, cfg.NLPBaseURL, cfg.PhraseThreshold)
	}
	return analysis.NewGenerativeProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxOutputTokens)
}
