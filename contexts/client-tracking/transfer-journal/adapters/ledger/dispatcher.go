package ledgeradapter

import (
	"context"
	"log/slog"
	"math/big"

	"multisender/contexts/client-tracking/transfer-journal/ports"
	ledgerapplication "multisender/contexts/transfer-core/batch-ledger/application"
	ledgerentities "multisender/contexts/transfer-core/batch-ledger/domain/entities"
	ledgererrors "multisender/contexts/transfer-core/batch-ledger/domain/errors"
)

// Dispatcher is the in-process signing/submission collaborator: it hands a
// batch to the ledger and reports the terminal outcome of that specific call.
type Dispatcher struct {
	Ledger *ledgerapplication.Service
	Logger *slog.Logger
}

func (d Dispatcher) Dispatch(ctx context.Context, req ports.DispatchRequest) <-chan ports.DispatchResult {
	results := make(chan ports.DispatchResult, 1)
	go func() {
		sender, ok := ledgerentities.ParseAddress(req.Sender)
		if !ok {
			results <- ports.DispatchResult{Err: ledgererrors.ErrInvalidAddress}
			return
		}
		recipients := make([]ledgerentities.Address, 0, len(req.Recipients))
		amounts := make([]*big.Int, 0, len(req.Recipients))
		for _, recipient := range req.Recipients {
			addr, ok := ledgerentities.ParseAddress(recipient.Address)
			if !ok {
				results <- ports.DispatchResult{Err: ledgererrors.ErrInvalidAddress}
				return
			}
			recipients = append(recipients, addr)
			amounts = append(amounts, recipient.Amount)
		}

		receipt, err := d.Ledger.SubmitBatch(ctx, sender, recipients, amounts, req.TotalValue)
		if err != nil {
			results <- ports.DispatchResult{Err: err}
			return
		}
		results <- ports.DispatchResult{ConfirmationID: receipt.ReceiptID}
	}()
	return results
}
