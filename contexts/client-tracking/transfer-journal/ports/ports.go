package ports

import (
	"context"
	"math/big"
	"time"

	"multisender/contexts/client-tracking/transfer-journal/domain/entities"
)

// JournalStore is the single serialized mutation point for the journal.
// Implementations apply read-modify-write transitions atomically.
type JournalStore interface {
	InsertEntry(ctx context.Context, entry entities.JournalEntry) error
	GetEntry(ctx context.Context, entryID string) (entities.JournalEntry, error)
	ListEntries(ctx context.Context) ([]entities.JournalEntry, error)
	// ResolveEntry applies a Pending to terminal transition. The bool is false
	// when the entry is already terminal and the call was a no-op.
	ResolveEntry(
		ctx context.Context,
		entryID string,
		status entities.JournalStatus,
		confirmationID string,
		failureReason string,
		resolvedAt time.Time,
	) (entities.JournalEntry, bool, error)
	RemoveEntry(ctx context.Context, entryID string) error
	// SweepEntries removes terminal entries created before the cutoff and
	// returns the number removed. Pending entries are never swept.
	SweepEntries(ctx context.Context, olderThan time.Time) (int, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// DispatchRequest is handed to the signing/submission collaborator.
type DispatchRequest struct {
	Sender     string
	Recipients []entities.RecipientSnapshot
	TotalValue *big.Int
}

// DispatchResult is the terminal outcome of one dispatched submission.
type DispatchResult struct {
	ConfirmationID string
	Err            error
}

// BatchDispatcher submits a batch without blocking the caller. The returned
// channel yields exactly one result; once dispatched the request is outside
// client control and cannot be cancelled.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) <-chan DispatchResult
}
