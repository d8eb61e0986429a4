package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	transferjournal "multisender/contexts/client-tracking/transfer-journal"
	ledgeradapter "multisender/contexts/client-tracking/transfer-journal/adapters/ledger"
	journalmemory "multisender/contexts/client-tracking/transfer-journal/adapters/memory"
	batchledger "multisender/contexts/transfer-core/batch-ledger"
	ledgermemory "multisender/contexts/transfer-core/batch-ledger/adapters/memory"
	postgresadapter "multisender/contexts/transfer-core/batch-ledger/adapters/postgres"
	ledgerworkers "multisender/contexts/transfer-core/batch-ledger/application/workers"
	ledgerentities "multisender/contexts/transfer-core/batch-ledger/domain/entities"
	"multisender/internal/platform/config"
	"multisender/internal/platform/db"
	"multisender/internal/platform/httpserver"
	"multisender/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server        *httpserver.Server
	postgres      *db.Postgres
	journal       transferjournal.Module
	sweepInterval time.Duration
	sweepEnabled  bool
	logger        *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  ledgerworkers.OutboxRelay
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
	owner, ok := ledgerentities.ParseAddress(cfg.LedgerOwner)
	if !ok {
		return nil, errors.New("LEDGER_OWNER must be a 0x-prefixed hex address")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bank := ledgermemory.NewStore()
	repo := postgresadapter.NewRepository(pg.DB, logger)
	ledgerModule := batchledger.NewModule(batchledger.Dependencies{
		Bank:        bank,
		Receipts:    repo,
		Outbox:      repo,
		Clock:       postgresadapter.SystemClock{},
		IDGenerator: postgresadapter.UUIDGenerator{},
		Logger:      logger,
	})
	if err := ledgerModule.Service.Initialize(context.Background(), owner); err != nil {
		return nil, err
	}

	journalStore := journalmemory.NewStore()
	journalModule := transferjournal.NewModule(transferjournal.Dependencies{
		Store:       journalStore,
		Clock:       journalStore,
		IDGenerator: journalStore,
		Dispatcher: ledgeradapter.Dispatcher{
			Ledger: ledgerModule.Service,
			Logger: logger,
		},
		WatchTimeout: cfg.WatchTimeout,
		SweepMaxAge:  cfg.SweepMaxAge,
		Logger:       logger,
	})

	server := httpserver.New(ledgerModule, journalModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:        server,
		postgres:      pg,
		journal:       journalModule,
		sweepInterval: cfg.SweepInterval,
		sweepEnabled:  cfg.EnableJournalSweeper,
		logger:        logger,
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

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: ledgerworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			Topic:     "transfer.ledger",
			BatchSize: 100,
			Logger:    logger,
		},
		relayEnabled: cfg.EnableOutboxRelay,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.sweepEnabled {
		go a.runSweeper(ctx)
	}
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

// runSweeper purges aged terminal journal entries on a fixed cadence. The
// journal lives in process memory, so the sweeper runs next to the server
// rather than in the worker process.
func (a *APIApp) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(a.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = a.journal.Sweeper.RunOnce(ctx)
		}
	}
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

	for {
		if w.relayEnabled {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
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
