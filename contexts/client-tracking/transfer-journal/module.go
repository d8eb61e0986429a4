package transferjournal

import (
	"log/slog"
	"time"

	httpadapter "multisender/contexts/client-tracking/transfer-journal/adapters/http"
	"multisender/contexts/client-tracking/transfer-journal/adapters/memory"
	"multisender/contexts/client-tracking/transfer-journal/application"
	"multisender/contexts/client-tracking/transfer-journal/application/workers"
	"multisender/contexts/client-tracking/transfer-journal/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Journal   application.Service
	Submitter workers.Submitter
	Sweeper   workers.SweeperJob
	Store     *memory.Store
}

type Dependencies struct {
	Store        ports.JournalStore
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Dispatcher   ports.BatchDispatcher
	WatchTimeout time.Duration
	SweepMaxAge  time.Duration
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	journal := application.Service{
		Store:  deps.Store,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	submitter := workers.Submitter{
		Journal:    journal,
		Dispatcher: deps.Dispatcher,
		Reconciler: workers.Reconciler{
			Journal: journal,
			Timeout: deps.WatchTimeout,
			Logger:  deps.Logger,
		},
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Journal:   journal,
			Submitter: submitter,
			Logger:    deps.Logger,
		},
		Journal:   journal,
		Submitter: submitter,
		Sweeper: workers.SweeperJob{
			Journal: journal,
			MaxAge:  deps.SweepMaxAge,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-memory journal store.
// The dispatcher still has to be supplied; the journal never submits batches
// on its own.
func NewInMemoryModule(dispatcher ports.BatchDispatcher, watchTimeout time.Duration, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Store:        store,
		Clock:        store,
		IDGenerator:  store,
		Dispatcher:   dispatcher,
		WatchTimeout: watchTimeout,
		Logger:       logger,
	})
	module.Store = store
	return module
}
