package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"multisender/contexts/client-tracking/transfer-journal/domain/entities"
	domainerrors "multisender/contexts/client-tracking/transfer-journal/domain/errors"
	"multisender/contexts/client-tracking/transfer-journal/ports"
)

const maxEntryRecipients = 20

// Service owns the optimistic journal. Every mutation is linearized through
// the store so user actions and reconciliation observers never interleave a
// read-modify-write on the same entry.
type Service struct {
	Store  ports.JournalStore
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type CreateEntryInput struct {
	Recipients  []entities.RecipientSnapshot
	TotalAmount *big.Int
}

// CreateEntry inserts a Pending record and returns immediately; it never
// waits on network confirmation.
func (s Service) CreateEntry(ctx context.Context, input CreateEntryInput) (entities.JournalEntry, error) {
	if len(input.Recipients) == 0 || len(input.Recipients) > maxEntryRecipients {
		return entities.JournalEntry{}, domainerrors.ErrInvalidEntryInput
	}
	sum := new(big.Int)
	for _, recipient := range input.Recipients {
		if strings.TrimSpace(recipient.Address) == "" {
			return entities.JournalEntry{}, domainerrors.ErrInvalidEntryInput
		}
		if recipient.Amount == nil || recipient.Amount.Sign() <= 0 {
			return entities.JournalEntry{}, domainerrors.ErrInvalidEntryInput
		}
		sum.Add(sum, recipient.Amount)
	}
	if input.TotalAmount == nil || sum.Cmp(input.TotalAmount) != 0 {
		return entities.JournalEntry{}, domainerrors.ErrInvalidEntryInput
	}

	now := s.now()
	entryID, err := s.newEntryID(ctx, now)
	if err != nil {
		return entities.JournalEntry{}, err
	}

	entry := entities.JournalEntry{
		ID:          entryID,
		CreatedAt:   now,
		Recipients:  append([]entities.RecipientSnapshot(nil), input.Recipients...),
		TotalAmount: new(big.Int).Set(input.TotalAmount),
		Status:      entities.JournalStatusPending,
	}
	if err := s.Store.InsertEntry(ctx, entry); err != nil {
		return entities.JournalEntry{}, err
	}

	ResolveLogger(s.Logger).Info("journal entry created",
		"event", "journal_entry_created",
		"module", "client-tracking/transfer-journal",
		"layer", "application",
		"entry_id", entry.ID,
		"recipient_count", len(entry.Recipients),
		"total_amount", entry.TotalAmount.String(),
	)
	return entry, nil
}

// UpdateStatus applies a Pending to terminal transition. Calls against an
// already-terminal entry are silent no-ops; confirmation and timeout signals
// race each other and the loser must be discarded.
func (s Service) UpdateStatus(
	ctx context.Context,
	entryID string,
	status entities.JournalStatus,
	confirmationID string,
	failureReason string,
) (entities.JournalEntry, bool, error) {
	if !status.Terminal() {
		return entities.JournalEntry{}, false, domainerrors.ErrInvalidStatusTransition
	}
	if status == entities.JournalStatusConfirmed {
		failureReason = ""
	} else {
		confirmationID = ""
		if strings.TrimSpace(failureReason) == "" {
			failureReason = "unknown failure"
		}
	}

	entry, applied, err := s.Store.ResolveEntry(ctx, entryID, status, confirmationID, failureReason, s.now())
	if err != nil {
		return entities.JournalEntry{}, false, err
	}
	logger := ResolveLogger(s.Logger)
	if !applied {
		logger.Info("journal update discarded for terminal entry",
			"event", "journal_update_discarded",
			"module", "client-tracking/transfer-journal",
			"layer", "application",
			"entry_id", entryID,
			"requested_status", string(status),
			"current_status", string(entry.Status),
		)
		return entry, false, nil
	}
	logger.Info("journal entry resolved",
		"event", "journal_entry_resolved",
		"module", "client-tracking/transfer-journal",
		"layer", "application",
		"entry_id", entryID,
		"status", string(status),
		"confirmation_id", confirmationID,
		"failure_reason", failureReason,
	)
	return entry, true, nil
}

// Remove deletes a terminal entry. Pending entries cannot be removed.
func (s Service) Remove(ctx context.Context, entryID string) error {
	if err := s.Store.RemoveEntry(ctx, entryID); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("journal entry removed",
		"event", "journal_entry_removed",
		"module", "client-tracking/transfer-journal",
		"layer", "application",
		"entry_id", entryID,
	)
	return nil
}

// Sweep deletes terminal entries older than maxAge. Pending entries are never
// swept regardless of age.
func (s Service) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, domainerrors.ErrInvalidEntryInput
	}
	return s.Store.SweepEntries(ctx, s.now().Add(-maxAge))
}

func (s Service) Get(ctx context.Context, entryID string) (entities.JournalEntry, error) {
	return s.Store.GetEntry(ctx, entryID)
}

func (s Service) List(ctx context.Context) ([]entities.JournalEntry, error) {
	return s.Store.ListEntries(ctx)
}

// newEntryID builds a time-based id with a collision-avoiding suffix so
// concurrent submissions in the same nanosecond never collide.
func (s Service) newEntryID(ctx context.Context, now time.Time) (string, error) {
	suffix, err := s.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	suffix = strings.ReplaceAll(suffix, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("txn-%d-%s", now.UnixNano(), suffix), nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
