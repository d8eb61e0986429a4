package unit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	batchledger "multisender/contexts/transfer-core/batch-ledger"
	"multisender/contexts/transfer-core/batch-ledger/domain/entities"
	domainerrors "multisender/contexts/transfer-core/batch-ledger/domain/errors"
	httptransport "multisender/contexts/transfer-core/batch-ledger/transport/http"
)

func testAddr(n int) entities.Address {
	addr, ok := entities.ParseAddress(fmt.Sprintf("0x%040x", n))
	if !ok {
		panic("bad test address")
	}
	return addr
}

func wei(decimal string) *big.Int {
	value, ok := new(big.Int).SetString(decimal, 10)
	if !ok {
		panic("bad test amount")
	}
	return value
}

func TestBatchLedgerSubmitDistributesAndCounts(t *testing.T) {
	owner := testAddr(0xaa)
	module := batchledger.NewInMemoryModule(owner, nil)

	sender := testAddr(1)
	recipients := make([]entities.Address, 0, 5)
	amounts := make([]*big.Int, 0, 5)
	for i := 2; i < 7; i++ {
		recipients = append(recipients, testAddr(i))
		amounts = append(amounts, wei("300000000000000000"))
	}

	receipt, err := module.Service.SubmitBatch(context.Background(), sender, recipients, amounts, wei("1500000000000000000"))
	if err != nil {
		t.Fatalf("submit batch failed: %v", err)
	}
	if receipt.RecipientCount != 5 {
		t.Fatalf("expected 5 recipients on receipt, got %d", receipt.RecipientCount)
	}
	if receipt.TotalAmount.Cmp(wei("1500000000000000000")) != 0 {
		t.Fatalf("unexpected receipt total: %s", receipt.TotalAmount)
	}

	for _, recipient := range recipients {
		if module.Store.Balance(recipient).Cmp(wei("300000000000000000")) != 0 {
			t.Fatalf("recipient %s not credited", recipient)
		}
	}
	if module.Service.TotalTransactions() != 1 {
		t.Fatalf("expected 1 transaction, got %d", module.Service.TotalTransactions())
	}
	if module.Service.TotalRecipients() != 5 {
		t.Fatalf("expected 5 total recipients, got %d", module.Service.TotalRecipients())
	}
	if module.Service.PerSenderCount(sender) != 1 {
		t.Fatalf("expected sender count 1, got %d", module.Service.PerSenderCount(sender))
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "transfer.batch_executed" {
		t.Fatalf("expected one batch_executed outbox event, got %+v", pending)
	}
}

func TestBatchLedgerValueMismatchRejected(t *testing.T) {
	module := batchledger.NewInMemoryModule(testAddr(0xaa), nil)

	sender := testAddr(1)
	recipients := make([]entities.Address, 0, 5)
	amounts := make([]*big.Int, 0, 5)
	for i := 2; i < 7; i++ {
		recipients = append(recipients, testAddr(i))
		amounts = append(amounts, wei("300000000000000000"))
	}

	_, err := module.Service.SubmitBatch(context.Background(), sender, recipients, amounts, wei("1400000000000000000"))
	if !errors.Is(err, domainerrors.ErrValueMismatch) {
		t.Fatalf("expected value mismatch, got %v", err)
	}
	if module.Service.TotalTransactions() != 0 {
		t.Fatalf("counters must not advance on rejection")
	}
	for _, recipient := range recipients {
		if module.Store.Balance(recipient).Sign() != 0 {
			t.Fatalf("recipient %s must not be credited", recipient)
		}
	}
}

func TestBatchLedgerInputValidation(t *testing.T) {
	module := batchledger.NewInMemoryModule(testAddr(0xaa), nil)
	ctx := context.Background()
	sender := testAddr(1)
	one := wei("1")

	_, err := module.Service.SubmitBatch(ctx, sender,
		[]entities.Address{testAddr(2)}, []*big.Int{one, one}, wei("2"))
	if !errors.Is(err, domainerrors.ErrLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}

	_, err = module.Service.SubmitBatch(ctx, sender, nil, nil, wei("0"))
	if !errors.Is(err, domainerrors.ErrEmptyBatch) {
		t.Fatalf("expected empty batch, got %v", err)
	}

	var many []entities.Address
	var manyAmounts []*big.Int
	for i := 0; i < 21; i++ {
		many = append(many, testAddr(100+i))
		manyAmounts = append(manyAmounts, one)
	}
	_, err = module.Service.SubmitBatch(ctx, sender, many, manyAmounts, wei("21"))
	if !errors.Is(err, domainerrors.ErrTooManyRecipients) {
		t.Fatalf("expected too many recipients, got %v", err)
	}

	_, err = module.Service.SubmitBatch(ctx, sender,
		[]entities.Address{entities.ZeroAddress}, []*big.Int{one}, one)
	if !errors.Is(err, domainerrors.ErrZeroAddress) {
		t.Fatalf("expected zero address, got %v", err)
	}

	_, err = module.Service.SubmitBatch(ctx, sender,
		[]entities.Address{testAddr(2)}, []*big.Int{big.NewInt(0)}, wei("0"))
	if !errors.Is(err, domainerrors.ErrZeroAmount) {
		t.Fatalf("expected zero amount, got %v", err)
	}
}

func TestBatchLedgerPauseBlocksSubmissions(t *testing.T) {
	owner := testAddr(0xaa)
	module := batchledger.NewInMemoryModule(owner, nil)
	ctx := context.Background()
	sender := testAddr(1)
	one := wei("1")

	if err := module.Service.Pause(ctx, owner); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	_, err := module.Service.SubmitBatch(ctx, sender,
		[]entities.Address{testAddr(2)}, []*big.Int{one}, one)
	if !errors.Is(err, domainerrors.ErrLedgerPaused) {
		t.Fatalf("expected paused error, got %v", err)
	}

	if err := module.Service.Unpause(ctx, owner); err != nil {
		t.Fatalf("unpause failed: %v", err)
	}
	if _, err := module.Service.SubmitBatch(ctx, sender,
		[]entities.Address{testAddr(2)}, []*big.Int{one}, one); err != nil {
		t.Fatalf("submit after unpause failed: %v", err)
	}
}

func TestBatchLedgerAdminAuthorization(t *testing.T) {
	owner := testAddr(0xaa)
	stranger := testAddr(0xbb)
	module := batchledger.NewInMemoryModule(owner, nil)
	ctx := context.Background()

	if err := module.Service.Pause(ctx, stranger); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized pause, got %v", err)
	}
	if err := module.Service.TransferOwnership(ctx, owner, entities.ZeroAddress); !errors.Is(err, domainerrors.ErrZeroAddress) {
		t.Fatalf("expected zero address rejection, got %v", err)
	}

	newOwner := testAddr(0xcc)
	if err := module.Service.TransferOwnership(ctx, owner, newOwner); err != nil {
		t.Fatalf("transfer ownership failed: %v", err)
	}
	if err := module.Service.Pause(ctx, owner); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("old owner must lose admin rights, got %v", err)
	}
	if err := module.Service.Pause(ctx, newOwner); err != nil {
		t.Fatalf("new owner pause failed: %v", err)
	}
}

func TestBatchLedgerInitializeOnce(t *testing.T) {
	owner := testAddr(0xaa)
	module := batchledger.NewInMemoryModule(owner, nil)

	err := module.Service.Initialize(context.Background(), testAddr(0xbb))
	if !errors.Is(err, domainerrors.ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
	if module.Service.Owner() != owner {
		t.Fatalf("owner must not change on repeated initialize")
	}
}

func TestBatchLedgerRejectsBeforeInitialize(t *testing.T) {
	module := batchledger.NewInMemoryModule("", nil)
	one := wei("1")

	_, err := module.Service.SubmitBatch(context.Background(), testAddr(1),
		[]entities.Address{testAddr(2)}, []*big.Int{one}, one)
	if !errors.Is(err, domainerrors.ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}

func TestBatchLedgerFailedTransferRollsBackEverything(t *testing.T) {
	module := batchledger.NewInMemoryModule(testAddr(0xaa), nil)
	ctx := context.Background()
	sender := testAddr(1)

	recipients := []entities.Address{testAddr(2), testAddr(3), testAddr(4)}
	amounts := []*big.Int{wei("10"), wei("20"), wei("30")}
	module.Store.SetCreditHook(recipients[1], func(context.Context, entities.Address, *big.Int) error {
		return errors.New("recipient account frozen")
	})

	_, err := module.Service.SubmitBatch(ctx, sender, recipients, amounts, wei("60"))
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failed, got %v", err)
	}
	for _, recipient := range recipients {
		if module.Store.Balance(recipient).Sign() != 0 {
			t.Fatalf("recipient %s balance must be untouched after rollback", recipient)
		}
	}
	if module.Service.TotalTransactions() != 0 || module.Service.TotalRecipients() != 0 {
		t.Fatalf("counters must be untouched after rollback")
	}
	if module.Service.PerSenderCount(sender) != 0 {
		t.Fatalf("sender count must be untouched after rollback")
	}
}

func TestBatchLedgerReentrantSubmitRejected(t *testing.T) {
	module := batchledger.NewInMemoryModule(testAddr(0xaa), nil)
	ctx := context.Background()
	sender := testAddr(1)
	recipient := testAddr(2)
	one := wei("1")

	var nestedErr error
	module.Store.SetCreditHook(recipient, func(hookCtx context.Context, _ entities.Address, _ *big.Int) error {
		_, nestedErr = module.Service.SubmitBatch(hookCtx, sender,
			[]entities.Address{testAddr(3)}, []*big.Int{one}, one)
		return nil
	})

	if _, err := module.Service.SubmitBatch(ctx, sender,
		[]entities.Address{recipient}, []*big.Int{one}, one); err != nil {
		t.Fatalf("outer submit failed: %v", err)
	}
	if !errors.Is(nestedErr, domainerrors.ErrReentrancyDetected) {
		t.Fatalf("expected nested submit to be rejected, got %v", nestedErr)
	}
	if module.Service.TotalTransactions() != 1 {
		t.Fatalf("only the outer submit may count, got %d", module.Service.TotalTransactions())
	}
}

func TestBatchLedgerHandlerParsesAndMapsErrors(t *testing.T) {
	module := batchledger.NewInMemoryModule(testAddr(0xaa), nil)
	ctx := context.Background()

	_, err := module.Handler.SubmitBatchHandler(ctx, "not-an-address", httptransport.SubmitBatchRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}

	_, err = module.Handler.SubmitBatchHandler(ctx, testAddr(1).String(), httptransport.SubmitBatchRequest{
		Recipients: []httptransport.RecipientDTO{{Address: testAddr(2).String(), Amount: "-5"}},
		Value:      "-5",
	})
	if !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}

	resp, err := module.Handler.SubmitBatchHandler(ctx, testAddr(1).String(), httptransport.SubmitBatchRequest{
		Recipients: []httptransport.RecipientDTO{
			{Address: testAddr(2).String(), Amount: "40"},
			{Address: testAddr(3).String(), Amount: "60"},
		},
		Value: "100",
	})
	if err != nil {
		t.Fatalf("handler submit failed: %v", err)
	}
	if resp.Data.TotalAmount != "100" || resp.Data.RecipientCount != 2 {
		t.Fatalf("unexpected receipt payload: %+v", resp.Data)
	}
}
