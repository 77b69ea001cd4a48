package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	assetregistryservice "nightingale/contexts/hospital-supply/asset-registry-service"
	registrypostgres "nightingale/contexts/hospital-supply/asset-registry-service/adapters/postgres"
	supplyescrowservice "nightingale/contexts/hospital-supply/supply-escrow-service"
	escrowpostgres "nightingale/contexts/hospital-supply/supply-escrow-service/adapters/postgres"
	workerapp "nightingale/contexts/hospital-supply/supply-escrow-service/application/workers"
	"nightingale/contexts/hospital-supply/supply-escrow-service/domain/entities"
	"nightingale/internal/platform/config"
	"nightingale/internal/platform/db"
	"nightingale/internal/platform/httpserver"
	"nightingale/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.
// The escrow module never imports the registry; the ledger bridge below is
// the only place the two services touch.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	outboxRelay     workerapp.OutboxRelay
	pendingReporter workerapp.PendingReporter
	relayEnabled    bool
	reporterEnabled bool
	pollInterval    time.Duration
	reportInterval  time.Duration
	logger          *slog.Logger
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

	registryRepo := registrypostgres.NewRepository(pg.DB, logger)
	registryModule := assetregistryservice.NewModule(assetregistryservice.Dependencies{
		Assets:      registryRepo,
		Delegations: registryRepo,
		Clock:       registrypostgres.SystemClock{},
		MinterID:    cfg.HospitalAdminID,
		Logger:      logger,
	})

	escrowRepo := escrowpostgres.NewRepository(pg.DB, logger)
	escrowModule := supplyescrowservice.NewModule(supplyescrowservice.Dependencies{
		Issuance:    escrowRepo,
		Procurement: escrowRepo,
		Ledger:      RegistryLedger{Registry: registryModule.Service},
		Idempotency: escrowRepo,
		Clock:       escrowpostgres.SystemClock{},
		IDGenerator: escrowpostgres.UUIDGenerator{},
		Directory: entities.StaffDirectory{
			AdminID: cfg.HospitalAdminID,
			StoreID: cfg.StoreManagerID,
		},
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	server := httpserver.New(registryModule, escrowModule, logger, normalizeAddr(cfg.HTTPPort))
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

	repo := escrowpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     escrowpostgres.SystemClock{},
			Topic:     "hospital-supply.events",
			BatchSize: 100,
			Logger:    logger,
		},
		pendingReporter: workerapp.PendingReporter{
			Issuance:    repo,
			Procurement: repo,
			Logger:      logger,
		},
		relayEnabled:    cfg.EnableOutboxRelay,
		reporterEnabled: cfg.EnablePendingReporter,
		pollInterval:    2 * time.Second,
		reportInterval:  time.Minute,
		logger:          logger,
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
	)

	lastReport := time.Time{}
	for {
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.reporterEnabled && time.Since(lastReport) >= w.reportInterval {
			if err := w.pendingReporter.RunOnce(ctx); err != nil {
				return err
			}
			lastReport = time.Now()
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
