package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	applicationservice "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service"
	apppostgres "github.com/DarkStars1922/zcpt/contexts/evaluation/application-service/adapters/postgres"
	reviewertokenservice "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service"
	tokenpostgres "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/adapters/postgres"
	tokenworkers "github.com/DarkStars1922/zcpt/contexts/evaluation/reviewer-token-service/application/workers"
	authorization "github.com/DarkStars1922/zcpt/contexts/identity-access/authorization-service"
	"github.com/DarkStars1922/zcpt/internal/platform/config"
	"github.com/DarkStars1922/zcpt/internal/platform/db"
	"github.com/DarkStars1922/zcpt/internal/platform/httpserver"
	"github.com/DarkStars1922/zcpt/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	tokenRelay   tokenworkers.OutboxRelay
	relayEnabled bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	policy := authorization.Policy{}

	appModule := applicationservice.NewModule(applicationservice.Dependencies{
		Repository: apppostgres.NewRepository(pg.DB, logger),
		Clock:      apppostgres.SystemClock{},
		IDGen:      apppostgres.UUIDGenerator{},
		Policy:     policy,
		Logger:     logger,
	})

	tokenModule := reviewertokenservice.NewModule(reviewertokenservice.Dependencies{
		Repository: tokenpostgres.NewRepository(pg.DB, logger),
		Clock:      tokenpostgres.SystemClock{},
		IDGen:      tokenpostgres.UUIDGenerator{},
		Secrets:    tokenpostgres.RandomSecretGenerator{},
		Policy:     policy,
		Logger:     logger,
	})

	server := httpserver.New(appModule, tokenModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := tokenpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		tokenRelay: tokenworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     tokenpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableTokenOutboxRelay,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"relay_enabled", w.relayEnabled,
	)

	for {
		if w.relayEnabled {
			if err := w.tokenRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
