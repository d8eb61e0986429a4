package unit

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	transferjournal "multisender/contexts/client-tracking/transfer-journal"
	"multisender/contexts/client-tracking/transfer-journal/application"
	"multisender/contexts/client-tracking/transfer-journal/domain/entities"
	domainerrors "multisender/contexts/client-tracking/transfer-journal/domain/errors"
)

func journalModule() transferjournal.Module {
	return transferjournal.NewInMemoryModule(nil, time.Second, nil)
}

func journalInput(amounts ...int64) application.CreateEntryInput {
	input := application.CreateEntryInput{TotalAmount: new(big.Int)}
	for i, amount := range amounts {
		value := big.NewInt(amount)
		input.Recipients = append(input.Recipients, entities.RecipientSnapshot{
			Address: testAddr(50 + i).String(),
			Amount:  value,
		})
		input.TotalAmount.Add(input.TotalAmount, value)
	}
	return input
}

func TestJournalCreateEntryStartsPending(t *testing.T) {
	module := journalModule()

	entry, err := module.Journal.CreateEntry(context.Background(), journalInput(10, 20))
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}
	if entry.Status != entities.JournalStatusPending {
		t.Fatalf("expected pending status, got %s", entry.Status)
	}
	if !strings.HasPrefix(entry.ID, "txn-") {
		t.Fatalf("unexpected entry id format: %s", entry.ID)
	}
	if entry.ResolvedAt != nil {
		t.Fatalf("fresh entry must not be resolved")
	}
}

func TestJournalCreateEntryValidation(t *testing.T) {
	module := journalModule()
	ctx := context.Background()

	if _, err := module.Journal.CreateEntry(ctx, application.CreateEntryInput{}); !errors.Is(err, domainerrors.ErrInvalidEntryInput) {
		t.Fatalf("expected invalid input for empty batch, got %v", err)
	}

	mismatch := journalInput(10, 20)
	mismatch.TotalAmount = big.NewInt(25)
	if _, err := module.Journal.CreateEntry(ctx, mismatch); !errors.Is(err, domainerrors.ErrInvalidEntryInput) {
		t.Fatalf("expected invalid input for sum mismatch, got %v", err)
	}

	amounts := make([]int64, 21)
	for i := range amounts {
		amounts[i] = 1
	}
	if _, err := module.Journal.CreateEntry(ctx, journalInput(amounts...)); !errors.Is(err, domainerrors.ErrInvalidEntryInput) {
		t.Fatalf("expected invalid input for oversized batch, got %v", err)
	}

	zero := journalInput(10)
	zero.Recipients[0].Amount = big.NewInt(0)
	zero.TotalAmount = big.NewInt(0)
	if _, err := module.Journal.CreateEntry(ctx, zero); !errors.Is(err, domainerrors.ErrInvalidEntryInput) {
		t.Fatalf("expected invalid input for zero amount, got %v", err)
	}
}

func TestJournalSingleTerminalTransition(t *testing.T) {
	module := journalModule()
	ctx := context.Background()

	entry, err := module.Journal.CreateEntry(ctx, journalInput(10))
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}

	resolved, applied, err := module.Journal.UpdateStatus(ctx, entry.ID, entities.JournalStatusConfirmed, "receipt-1", "")
	if err != nil || !applied {
		t.Fatalf("expected applied confirmation, applied=%v err=%v", applied, err)
	}
	if resolved.ConfirmationID != "receipt-1" || resolved.ResolvedAt == nil {
		t.Fatalf("confirmation metadata missing: %+v", resolved)
	}

	// A racing failure signal must be a silent no-op.
	after, applied, err := module.Journal.UpdateStatus(ctx, entry.ID, entities.JournalStatusFailed, "", "timeout")
	if err != nil {
		t.Fatalf("late update errored: %v", err)
	}
	if applied {
		t.Fatalf("late update must not be applied")
	}
	if after.Status != entities.JournalStatusConfirmed || after.ConfirmationID != "receipt-1" {
		t.Fatalf("terminal entry mutated by late signal: %+v", after)
	}
}

func TestJournalUpdateRequiresTerminalTarget(t *testing.T) {
	module := journalModule()
	ctx := context.Background()

	entry, err := module.Journal.CreateEntry(ctx, journalInput(10))
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}
	_, _, err = module.Journal.UpdateStatus(ctx, entry.ID, entities.JournalStatusPending, "", "")
	if !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestJournalRemoveRejectsPending(t *testing.T) {
	module := journalModule()
	ctx := context.Background()

	entry, err := module.Journal.CreateEntry(ctx, journalInput(10))
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}
	if err := module.Journal.Remove(ctx, entry.ID); !errors.Is(err, domainerrors.ErrEntryStillPending) {
		t.Fatalf("expected still pending, got %v", err)
	}

	if _, _, err := module.Journal.UpdateStatus(ctx, entry.ID, entities.JournalStatusFailed, "", "rejected"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if err := module.Journal.Remove(ctx, entry.ID); err != nil {
		t.Fatalf("remove after resolve failed: %v", err)
	}
	if _, err := module.Journal.Get(ctx, entry.ID); !errors.Is(err, domainerrors.ErrEntryNotFound) {
		t.Fatalf("expected not found after remove, got %v", err)
	}
}

func TestJournalSweepKeepsPendingEntries(t *testing.T) {
	module := journalModule()
	ctx := context.Background()

	pending, err := module.Journal.CreateEntry(ctx, journalInput(10))
	if err != nil {
		t.Fatalf("create pending entry failed: %v", err)
	}
	resolved, err := module.Journal.CreateEntry(ctx, journalInput(20))
	if err != nil {
		t.Fatalf("create resolved entry failed: %v", err)
	}
	if _, _, err := module.Journal.UpdateStatus(ctx, resolved.ID, entities.JournalStatusConfirmed, "receipt-2", ""); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if _, err := module.Journal.Sweep(ctx, 0); !errors.Is(err, domainerrors.ErrInvalidEntryInput) {
		t.Fatalf("expected invalid max age, got %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	removed, err := module.Journal.Sweep(ctx, time.Nanosecond)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected exactly the resolved entry swept, removed=%d", removed)
	}
	if _, err := module.Journal.Get(ctx, pending.ID); err != nil {
		t.Fatalf("pending entry must survive sweep: %v", err)
	}
}

func TestJournalListNewestFirst(t *testing.T) {
	module := journalModule()
	ctx := context.Background()

	first, err := module.Journal.CreateEntry(ctx, journalInput(10))
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := module.Journal.CreateEntry(ctx, journalInput(20))
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}

	entries, err := module.Journal.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Fatalf("expected newest-first ordering, got %+v", entries)
	}
}
