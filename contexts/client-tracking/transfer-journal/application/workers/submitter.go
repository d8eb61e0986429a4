package workers

import (
	"context"
	"log/slog"

	"multisender/contexts/client-tracking/transfer-journal/application"
	"multisender/contexts/client-tracking/transfer-journal/domain/entities"
	"multisender/contexts/client-tracking/transfer-journal/ports"
)

// Submitter implements the optimistic submission flow: record the batch as
// Pending, dispatch it, and start one reconciliation observer. The caller
// gets the Pending entry back before any confirmation exists.
type Submitter struct {
	Journal    application.Service
	Dispatcher ports.BatchDispatcher
	Reconciler Reconciler
	Logger     *slog.Logger
}

func (s Submitter) Submit(
	ctx context.Context,
	sender string,
	input application.CreateEntryInput,
) (entities.JournalEntry, error) {
	entry, err := s.Journal.CreateEntry(ctx, input)
	if err != nil {
		return entities.JournalEntry{}, err
	}

	// The dispatched request and its observer outlive the submitting call.
	dispatchCtx := context.WithoutCancel(ctx)
	results := s.Dispatcher.Dispatch(dispatchCtx, ports.DispatchRequest{
		Sender:     sender,
		Recipients: entry.Recipients,
		TotalValue: entry.TotalAmount,
	})
	go s.Reconciler.Watch(dispatchCtx, entry.ID, results)

	application.ResolveLogger(s.Logger).Info("batch submission dispatched",
		"event", "batch_submission_dispatched",
		"module", "client-tracking/transfer-journal",
		"layer", "worker",
		"entry_id", entry.ID,
		"sender", sender,
		"recipient_count", len(entry.Recipients),
		"total_amount", entry.TotalAmount.String(),
	)
	return entry, nil
}
