package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"multisender/contexts/client-tracking/transfer-journal/application"
	"multisender/contexts/client-tracking/transfer-journal/application/workers"
	"multisender/contexts/client-tracking/transfer-journal/domain/entities"
	domainerrors "multisender/contexts/client-tracking/transfer-journal/domain/errors"
	httptransport "multisender/contexts/client-tracking/transfer-journal/transport/http"
	"multisender/contexts/transfer-core/batch-ledger/domain/gas"
)

type Handler struct {
	Journal   application.Service
	Submitter workers.Submitter
	Logger    *slog.Logger
}

func (h Handler) SubmitTransferHandler(
	ctx context.Context,
	senderAddress string,
	req httptransport.SubmitTransferRequest,
) (httptransport.SubmitTransferResponse, error) {
	sender := strings.TrimSpace(senderAddress)
	if sender == "" {
		return httptransport.SubmitTransferResponse{}, domainerrors.ErrInvalidEntryInput
	}

	recipients := make([]entities.RecipientSnapshot, 0, len(req.Recipients))
	for _, item := range req.Recipients {
		amount, ok := parseAmount(item.Amount)
		if !ok {
			return httptransport.SubmitTransferResponse{}, domainerrors.ErrInvalidEntryInput
		}
		recipients = append(recipients, entities.RecipientSnapshot{
			Address: strings.TrimSpace(item.Address),
			Amount:  amount,
		})
	}
	total, ok := parseAmount(req.TotalValue)
	if !ok {
		return httptransport.SubmitTransferResponse{}, domainerrors.ErrInvalidEntryInput
	}

	entry, err := h.Submitter.Submit(ctx, sender, application.CreateEntryInput{
		Recipients:  recipients,
		TotalAmount: total,
	})
	if err != nil {
		return httptransport.SubmitTransferResponse{}, err
	}

	// Advisory only; the estimate never gates the submission.
	estimate := gas.EstimateBatch(len(recipients))
	application.ResolveLogger(h.Logger).Info("batch gas estimate",
		"event", "batch_gas_estimate",
		"module", "client-tracking/transfer-journal",
		"layer", "adapter",
		"entry_id", entry.ID,
		"recipient_count", estimate.RecipientCount,
		"batch_gas", estimate.Batch,
		"savings", estimate.Savings,
	)
	return httptransport.SubmitTransferResponse{
		Status: "accepted",
		Data:   toEntryDTO(entry),
	}, nil
}

func (h Handler) GetEntryHandler(ctx context.Context, entryID string) (httptransport.JournalEntryResponse, error) {
	entry, err := h.Journal.Get(ctx, entryID)
	if err != nil {
		return httptransport.JournalEntryResponse{}, err
	}
	return httptransport.JournalEntryResponse{
		Status: "success",
		Data:   toEntryDTO(entry),
	}, nil
}

func (h Handler) ListEntriesHandler(ctx context.Context) (httptransport.JournalListResponse, error) {
	entries, err := h.Journal.List(ctx)
	if err != nil {
		return httptransport.JournalListResponse{}, err
	}
	resp := httptransport.JournalListResponse{
		Status: "success",
		Data:   make([]httptransport.JournalEntryDTO, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Data = append(resp.Data, toEntryDTO(entry))
	}
	return resp, nil
}

func (h Handler) RemoveEntryHandler(ctx context.Context, entryID string) (httptransport.RemoveEntryResponse, error) {
	if err := h.Journal.Remove(ctx, entryID); err != nil {
		return httptransport.RemoveEntryResponse{}, err
	}
	return httptransport.RemoveEntryResponse{
		Status: "success",
		ID:     entryID,
	}, nil
}

func toEntryDTO(entry entities.JournalEntry) httptransport.JournalEntryDTO {
	dto := httptransport.JournalEntryDTO{
		ID:             entry.ID,
		CreatedAt:      entry.CreatedAt.UTC().Format(time.RFC3339),
		Recipients:     make([]httptransport.RecipientDTO, 0, len(entry.Recipients)),
		TotalAmount:    entry.TotalAmount.String(),
		Status:         string(entry.Status),
		ConfirmationID: entry.ConfirmationID,
		FailureReason:  entry.FailureReason,
	}
	for _, recipient := range entry.Recipients {
		dto.Recipients = append(dto.Recipients, httptransport.RecipientDTO{
			Address: recipient.Address,
			Amount:  recipient.Amount.String(),
		})
	}
	if entry.ResolvedAt != nil {
		dto.ResolvedAt = entry.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func parseAmount(raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || amount.Sign() < 0 {
		return nil, false
	}
	return amount, true
}
