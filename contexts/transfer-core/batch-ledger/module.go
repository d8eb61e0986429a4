package batchledger

import (
	"context"
	"log/slog"

	httpadapter "multisender/contexts/transfer-core/batch-ledger/adapters/http"
	"multisender/contexts/transfer-core/batch-ledger/adapters/memory"
	"multisender/contexts/transfer-core/batch-ledger/application"
	"multisender/contexts/transfer-core/batch-ledger/domain/entities"
	"multisender/contexts/transfer-core/batch-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service *application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Bank        ports.TransferBank
	Receipts    ports.ReceiptRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := &application.Service{
		Bank:     deps.Bank,
		Receipts: deps.Receipts,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the module against the in-memory execution
// environment and initializes ownership when owner is non-zero.
func NewInMemoryModule(owner entities.Address, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Bank:        store,
		Receipts:    store,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	if !owner.IsZero() {
		_ = module.Service.Initialize(context.Background(), owner)
	}
	module.Store = store
	return module
}
