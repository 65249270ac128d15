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

// Smart Insight Hub — Feedback Service
//
// Entry point for the feedback service. It:
//  1. Loads configuration from config.yaml and the environment
//  2. Connects to PostgreSQL and Redis
//  3. Builds the configured analysis provider (generative or classical)
//  4. Starts the analysis worker consuming dispatched tasks
//  5. Serves the feedback and insights HTTP endpoints
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/YuvrajAryan2/SmartInsightHub/internal/analysis"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/api"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/archive"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/config"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/dedup"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/insights"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/queue"
	"github.com/YuvrajAryan2/SmartInsightHub/internal/store"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting smart insight hub service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"provider", cfg.Provider,
		"queue", cfg.TasksQueue,
		"archive_enabled", cfg.ArchiveRoot != "",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	if err := pgPool.Ping(ctx); err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	st, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise feedback store", "error", err)
		os.Exit(1)
	}

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	publisher := queue.NewPublisher(rdb, cfg.TasksQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Analysis Provider ---
	provider := buildProvider(ctx, cfg)
	slog.Info("analysis provider configured", "provider", provider.Name())

	// --- Archive Sink ---
	var sink archive.Sink
	if cfg.ArchiveRoot != "" {
		sink = archive.NewFilesystemSink(cfg.ArchiveRoot)
		slog.Info("archive sink configured", "root", cfg.ArchiveRoot)
	}

	// --- Analysis Pipeline + Worker ---
	pipeline := analysis.NewPipeline(provider, st, sink)
	filter := dedup.NewFilter(rdb)
	consumer := queue.NewConsumer(rdb, cfg.TasksQueue, filter, pipeline)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		consumer.Run(ctx)
	}()

	// --- HTTP Server ---
	handler := api.NewHandler(api.Config{
		Store:         st,
		Publisher:     publisher,
		Pipeline:      pipeline,
		Insights:      insights.NewAggregator(st, cfg.ScanPageSize),
		ProviderName:  provider.Name(),
		MaxMessageLen: cfg.MaxMessageLen,
		MaxFieldLen:   cfg.MaxFieldLen,
		StorePinger:   st,
		QueuePinger:   publisher,
	})

	ready, httpDone, err := api.Serve(ctx, cfg.Port, handler)
	if err != nil {
		slog.Error("failed to start http server", "error", err)
		os.Exit(1)
	}
	<-ready

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh

	slog.Info("received shutdown signal", "signal", sig)
	cancel() // Stops the worker and the HTTP server

	// Wait for the drain and for the worker's in-flight task before the
	// backends go away underneath them.
	<-httpDone
	<-workerDone

	rdb.Close()
	pgPool.Close()

	slog.Info("insight hub service stopped")
}

// buildProvider constructs the provider variant selected in configuration.
// Selection happens exactly once, here; nothing switches providers per
// request.
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
