package memory

import (
	"context"
	"math/big"
	"testing"
	"time"

	"multisender/contexts/client-tracking/transfer-journal/domain/entities"
	domainerrors "multisender/contexts/client-tracking/transfer-journal/domain/errors"

	"github.com/stretchr/testify/require"
)

func sampleEntry(id string, createdAt time.Time) entities.JournalEntry {
	return entities.JournalEntry{
		ID:        id,
		CreatedAt: createdAt,
		Recipients: []entities.RecipientSnapshot{
			{Address: "0x00000000000000000000000000000000000000b1", Amount: big.NewInt(10)},
		},
		TotalAmount: big.NewInt(10),
		Status:      entities.JournalStatusPending,
	}
}

func TestStoreInsertRejectsDuplicates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.InsertEntry(ctx, sampleEntry("txn-1", now)))
	require.ErrorIs(t, store.InsertEntry(ctx, sampleEntry("txn-1", now)), domainerrors.ErrEntryExists)
	require.ErrorIs(t, store.InsertEntry(ctx, sampleEntry("  ", now)), domainerrors.ErrInvalidEntryInput)
}

func TestStoreResolveEntryAppliesOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, store.InsertEntry(ctx, sampleEntry("txn-1", now)))

	entry, applied, err := store.ResolveEntry(ctx, "txn-1", entities.JournalStatusConfirmed, "receipt-1", "", now)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, entities.JournalStatusConfirmed, entry.Status)
	require.NotNil(t, entry.ResolvedAt)

	entry, applied, err = store.ResolveEntry(ctx, "txn-1", entities.JournalStatusFailed, "", "timeout", now)
	require.NoError(t, err)
	require.False(t, applied, "a terminal entry never transitions again")
	require.Equal(t, entities.JournalStatusConfirmed, entry.Status)
	require.Equal(t, "receipt-1", entry.ConfirmationID)

	_, _, err = store.ResolveEntry(ctx, "missing", entities.JournalStatusFailed, "", "x", now)
	require.ErrorIs(t, err, domainerrors.ErrEntryNotFound)

	require.NoError(t, store.InsertEntry(ctx, sampleEntry("txn-2", now)))
	_, _, err = store.ResolveEntry(ctx, "txn-2", entities.JournalStatusPending, "", "", now)
	require.ErrorIs(t, err, domainerrors.ErrInvalidStatusTransition)
}

func TestStoreRemoveAndSweep(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour)
	fresh := time.Now().UTC()

	require.NoError(t, store.InsertEntry(ctx, sampleEntry("txn-old-pending", old)))
	require.NoError(t, store.InsertEntry(ctx, sampleEntry("txn-old-done", old)))
	require.NoError(t, store.InsertEntry(ctx, sampleEntry("txn-fresh-done", fresh)))

	_, _, err := store.ResolveEntry(ctx, "txn-old-done", entities.JournalStatusFailed, "", "timeout", fresh)
	require.NoError(t, err)
	_, _, err = store.ResolveEntry(ctx, "txn-fresh-done", entities.JournalStatusConfirmed, "receipt-1", "", fresh)
	require.NoError(t, err)

	require.ErrorIs(t, store.RemoveEntry(ctx, "txn-old-pending"), domainerrors.ErrEntryStillPending)
	require.ErrorIs(t, store.RemoveEntry(ctx, "missing"), domainerrors.ErrEntryNotFound)

	removed, err := store.SweepEntries(ctx, fresh.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, removed, "only aged terminal entries are swept")

	_, err = store.GetEntry(ctx, "txn-old-done")
	require.ErrorIs(t, err, domainerrors.ErrEntryNotFound)
	_, err = store.GetEntry(ctx, "txn-old-pending")
	require.NoError(t, err, "pending entries survive regardless of age")
	_, err = store.GetEntry(ctx, "txn-fresh-done")
	require.NoError(t, err)
}

func TestStoreListNewestFirstAndCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.InsertEntry(ctx, sampleEntry("txn-1", base)))
	require.NoError(t, store.InsertEntry(ctx, sampleEntry("txn-2", base.Add(time.Second))))

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "txn-2", entries[0].ID)

	// Mutating a returned entry must not leak into the store.
	entries[0].Recipients[0].Amount.SetInt64(999)
	reread, err := store.GetEntry(ctx, "txn-2")
	require.NoError(t, err)
	require.Equal(t, int64(10), reread.Recipients[0].Amount.Int64())
}
