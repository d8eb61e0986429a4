package memory

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"multisender/contexts/transfer-core/batch-ledger/domain/entities"
	domainerrors "multisender/contexts/transfer-core/batch-ledger/domain/errors"
	"multisender/contexts/transfer-core/batch-ledger/ports"

	"github.com/stretchr/testify/require"
)

const (
	senderAddr = entities.Address("0x00000000000000000000000000000000000000a1")
	aliceAddr  = entities.Address("0x00000000000000000000000000000000000000a2")
	bobAddr    = entities.Address("0x00000000000000000000000000000000000000a3")
)

func TestTransferBatchCommitAppliesCredits(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	batch, err := store.Begin(ctx, senderAddr, big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, batch.Credit(ctx, aliceAddr, big.NewInt(40)))
	require.NoError(t, batch.Credit(ctx, bobAddr, big.NewInt(60)))

	require.Zero(t, store.Balance(aliceAddr).Sign(), "credits must stay invisible before commit")

	require.NoError(t, batch.Commit(ctx))
	require.Equal(t, int64(40), store.Balance(aliceAddr).Int64())
	require.Equal(t, int64(60), store.Balance(bobAddr).Int64())
}

func TestTransferBatchDiscardLeavesNoTrace(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	batch, err := store.Begin(ctx, senderAddr, big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, batch.Credit(ctx, aliceAddr, big.NewInt(40)))

	batch.Discard()
	require.Zero(t, store.Balance(aliceAddr).Sign())
	require.Error(t, batch.Credit(ctx, bobAddr, big.NewInt(1)), "a finalized batch must reject further credits")
	require.Error(t, batch.Commit(ctx))
}

func TestTransferBatchEnforcesAttachedValue(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	batch, err := store.Begin(ctx, senderAddr, big.NewInt(50))
	require.NoError(t, err)
	require.NoError(t, batch.Credit(ctx, aliceAddr, big.NewInt(30)))

	err = batch.Credit(ctx, bobAddr, big.NewInt(30))
	require.ErrorContains(t, err, "insufficient remaining value")
}

func TestTransferBatchBeginValidation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Begin(ctx, entities.ZeroAddress, big.NewInt(1))
	require.ErrorIs(t, err, domainerrors.ErrZeroAddress)

	_, err = store.Begin(ctx, senderAddr, big.NewInt(0))
	require.ErrorIs(t, err, domainerrors.ErrZeroAmount)
}

func TestCreditHookRejectionAbortsCredit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	store.SetCreditHook(aliceAddr, func(context.Context, entities.Address, *big.Int) error {
		return errors.New("account frozen")
	})

	batch, err := store.Begin(ctx, senderAddr, big.NewInt(10))
	require.NoError(t, err)

	err = batch.Credit(ctx, aliceAddr, big.NewInt(10))
	require.ErrorContains(t, err, "recipient rejected transfer")
	require.ErrorContains(t, err, "account frozen")
}

func TestOutboxAppendIsIdempotentByEventID(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	data, err := json.Marshal(map[string]string{"receipt_id": "r-1"})
	require.NoError(t, err)
	envelope := ports.EventEnvelope{
		EventID:       "evt-1",
		EventType:     "transfer.batch_executed",
		OccurredAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		SourceService: "batch-ledger",
		SchemaVersion: 1,
		Data:          data,
	}
	require.NoError(t, store.AppendOutbox(ctx, envelope))
	require.NoError(t, store.AppendOutbox(ctx, envelope), "replaying the same envelope is a no-op")

	conflicting := envelope
	conflicting.EventType = "ledger.paused"
	require.Error(t, store.AppendOutbox(ctx, conflicting), "same id with different payload must be rejected")

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.MarkOutboxPublished(ctx, "evt-1", time.Now()))
	pending, err = store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestReceiptLookupAndSenderListing(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveReceipt(ctx, entities.Receipt{
			ReceiptID:      string(rune('a' + i)),
			Sender:         senderAddr,
			RecipientCount: i + 1,
			TotalAmount:    big.NewInt(int64(i + 1)),
			ExecutedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	_, err := store.GetReceipt(ctx, "missing")
	require.ErrorIs(t, err, domainerrors.ErrReceiptNotFound)

	receipts, err := store.ListReceiptsBySender(ctx, senderAddr, 2)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	require.Equal(t, "c", receipts[0].ReceiptID, "newest receipt first")

	receipts, err = store.ListReceiptsBySender(ctx, aliceAddr, 10)
	require.NoError(t, err)
	require.Empty(t, receipts)
}
