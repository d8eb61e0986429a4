package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"multisender/contexts/transfer-core/batch-ledger/application"
	"multisender/contexts/transfer-core/batch-ledger/domain/entities"
	domainerrors "multisender/contexts/transfer-core/batch-ledger/domain/errors"
	"multisender/contexts/transfer-core/batch-ledger/domain/gas"
	httptransport "multisender/contexts/transfer-core/batch-ledger/transport/http"
)

type Handler struct {
	Service *application.Service
	Logger  *slog.Logger
}

func (h Handler) SubmitBatchHandler(
	ctx context.Context,
	callerAddress string,
	req httptransport.SubmitBatchRequest,
) (httptransport.SubmitBatchResponse, error) {
	caller, ok := entities.ParseAddress(callerAddress)
	if !ok {
		return httptransport.SubmitBatchResponse{}, domainerrors.ErrInvalidAddress
	}

	recipients := make([]entities.Address, 0, len(req.Recipients))
	amounts := make([]*big.Int, 0, len(req.Recipients))
	for _, item := range req.Recipients {
		addr, ok := entities.ParseAddress(item.Address)
		if !ok {
			return httptransport.SubmitBatchResponse{}, domainerrors.ErrInvalidAddress
		}
		amount, ok := parseAmount(item.Amount)
		if !ok {
			return httptransport.SubmitBatchResponse{}, domainerrors.ErrInvalidAmount
		}
		recipients = append(recipients, addr)
		amounts = append(amounts, amount)
	}
	value, ok := parseAmount(req.Value)
	if !ok {
		return httptransport.SubmitBatchResponse{}, domainerrors.ErrInvalidAmount
	}

	receipt, err := h.Service.SubmitBatch(ctx, caller, recipients, amounts, value)
	if err != nil {
		return httptransport.SubmitBatchResponse{}, err
	}
	return httptransport.SubmitBatchResponse{
		Status: "success",
		Data:   toReceiptDTO(receipt),
	}, nil
}

func (h Handler) PauseHandler(ctx context.Context, callerAddress string) error {
	caller, ok := entities.ParseAddress(callerAddress)
	if !ok {
		return domainerrors.ErrInvalidAddress
	}
	return h.Service.Pause(ctx, caller)
}

func (h Handler) UnpauseHandler(ctx context.Context, callerAddress string) error {
	caller, ok := entities.ParseAddress(callerAddress)
	if !ok {
		return domainerrors.ErrInvalidAddress
	}
	return h.Service.Unpause(ctx, caller)
}

func (h Handler) TransferOwnershipHandler(
	ctx context.Context,
	callerAddress string,
	req httptransport.TransferOwnershipRequest,
) error {
	caller, ok := entities.ParseAddress(callerAddress)
	if !ok {
		return domainerrors.ErrInvalidAddress
	}
	newOwner, ok := entities.ParseAddress(req.NewOwner)
	if !ok {
		return domainerrors.ErrInvalidAddress
	}
	return h.Service.TransferOwnership(ctx, caller, newOwner)
}

func (h Handler) LedgerStatsHandler(_ context.Context) httptransport.LedgerStatsResponse {
	resp := httptransport.LedgerStatsResponse{Status: "success"}
	resp.Data.Owner = h.Service.Owner().String()
	resp.Data.Paused = h.Service.IsPaused()
	resp.Data.TotalTransactions = h.Service.TotalTransactions()
	resp.Data.TotalRecipients = h.Service.TotalRecipients()
	return resp
}

func (h Handler) SenderStatsHandler(_ context.Context, senderAddress string) (httptransport.SenderStatsResponse, error) {
	sender, ok := entities.ParseAddress(senderAddress)
	if !ok {
		return httptransport.SenderStatsResponse{}, domainerrors.ErrInvalidAddress
	}
	resp := httptransport.SenderStatsResponse{Status: "success"}
	resp.Data.Sender = sender.String()
	resp.Data.TransactionCount = h.Service.PerSenderCount(sender)
	return resp, nil
}

func (h Handler) ListReceiptsHandler(ctx context.Context, senderAddress string, limit int) (httptransport.ReceiptListResponse, error) {
	sender, ok := entities.ParseAddress(senderAddress)
	if !ok {
		return httptransport.ReceiptListResponse{}, domainerrors.ErrInvalidAddress
	}
	receipts, err := h.Service.ListReceiptsBySender(ctx, sender, limit)
	if err != nil {
		return httptransport.ReceiptListResponse{}, err
	}
	resp := httptransport.ReceiptListResponse{
		Status: "success",
		Data:   make([]httptransport.ReceiptDTO, 0, len(receipts)),
	}
	for _, receipt := range receipts {
		resp.Data = append(resp.Data, toReceiptDTO(receipt))
	}
	return resp, nil
}

func (h Handler) GasEstimateHandler(_ context.Context, recipientCount int) httptransport.GasEstimateResponse {
	estimate := gas.EstimateBatch(recipientCount)
	resp := httptransport.GasEstimateResponse{Status: "success"}
	resp.Data.RecipientCount = estimate.RecipientCount
	resp.Data.IndividualGas = estimate.Individual
	resp.Data.BatchGas = estimate.Batch
	resp.Data.Savings = estimate.Savings
	resp.Data.SavingsPercent = estimate.SavingsPercent
	return resp
}

func toReceiptDTO(receipt entities.Receipt) httptransport.ReceiptDTO {
	return httptransport.ReceiptDTO{
		ReceiptID:      receipt.ReceiptID,
		Sender:         receipt.Sender.String(),
		RecipientCount: receipt.RecipientCount,
		TotalAmount:    receipt.TotalAmount.String(),
		ExecutedAt:     receipt.ExecutedAt.UTC().Format(time.RFC3339),
	}
}

func parseAmount(raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, false
	}
	return amount, true
}
