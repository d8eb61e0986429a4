package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"multisender/contexts/transfer-core/batch-ledger/domain/entities"
	domainerrors "multisender/contexts/transfer-core/batch-ledger/domain/errors"
	"multisender/contexts/transfer-core/batch-ledger/ports"
)

// Service executes atomic batch transfers and owns the ledger state.
// Each state-changing call runs to completion before the next; the exclusive
// execution guard rejects any call arriving while a submit is in progress,
// including re-entry triggered by a recipient's own code.
type Service struct {
	Bank     ports.TransferBank
	Receipts ports.ReceiptRepository
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger

	executing atomic.Bool
	stateMu   sync.RWMutex
	state     entities.LedgerState
}

// Initialize sets the ledger owner. It may run at most once per instance.
func (s *Service) Initialize(ctx context.Context, owner entities.Address) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.state.Initialized {
		return domainerrors.ErrAlreadyInitialized
	}
	if owner.IsZero() {
		return domainerrors.ErrZeroAddress
	}
	s.state.Owner = owner
	s.state.Initialized = true
	s.state.PerSenderCount = make(map[entities.Address]uint64)

	ResolveLogger(s.Logger).Info("ledger initialized",
		"event", "ledger_initialized",
		"module", "transfer-core/batch-ledger",
		"layer", "application",
		"owner", owner.String(),
	)
	return nil
}

// SubmitBatch distributes value to every recipient atomically. Any failure
// leaves counters and balances exactly as they were before the call.
func (s *Service) SubmitBatch(
	ctx context.Context,
	caller entities.Address,
	recipients []entities.Address,
	amounts []*big.Int,
	value *big.Int,
) (entities.Receipt, error) {
	// Guard set before any work, released on every exit path. A nested call
	// from a recipient credit hook lands here and is rejected immediately.
	if !s.executing.CompareAndSwap(false, true) {
		return entities.Receipt{}, domainerrors.ErrReentrancyDetected
	}
	defer s.executing.Store(false)

	if caller.IsZero() {
		return entities.Receipt{}, domainerrors.ErrZeroAddress
	}
	if len(recipients) != len(amounts) {
		return entities.Receipt{}, domainerrors.ErrLengthMismatch
	}
	if len(recipients) == 0 {
		return entities.Receipt{}, domainerrors.ErrEmptyBatch
	}
	if len(recipients) > entities.MaxBatchRecipients {
		return entities.Receipt{}, domainerrors.ErrTooManyRecipients
	}

	total := new(big.Int)
	for i, recipient := range recipients {
		if recipient.IsZero() {
			return entities.Receipt{}, domainerrors.ErrZeroAddress
		}
		if amounts[i] == nil || amounts[i].Sign() <= 0 {
			return entities.Receipt{}, domainerrors.ErrZeroAmount
		}
		total.Add(total, amounts[i])
	}
	// Exact match required: no refund policy for excess value.
	if value == nil || total.Cmp(value) != 0 {
		return entities.Receipt{}, domainerrors.ErrValueMismatch
	}

	s.stateMu.RLock()
	initialized := s.state.Initialized
	paused := s.state.Paused
	s.stateMu.RUnlock()
	if !initialized {
		return entities.Receipt{}, domainerrors.ErrNotInitialized
	}
	if paused {
		return entities.Receipt{}, domainerrors.ErrLedgerPaused
	}

	receiptID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Receipt{}, err
	}

	batch, err := s.Bank.Begin(ctx, caller, new(big.Int).Set(value))
	if err != nil {
		return entities.Receipt{}, fmt.Errorf("begin transfer batch: %w", err)
	}

	for i, recipient := range recipients {
		if err := batch.Credit(ctx, recipient, amounts[i]); err != nil {
			batch.Discard()
			ResolveLogger(s.Logger).Warn("batch transfer aborted",
				"event", "batch_transfer_aborted",
				"module", "transfer-core/batch-ledger",
				"layer", "application",
				"sender", caller.String(),
				"recipient", recipient.String(),
				"recipient_index", i,
				"error", err.Error(),
			)
			return entities.Receipt{}, fmt.Errorf("%w: recipient %s: %s",
				domainerrors.ErrTransferFailed, recipient, err.Error())
		}
	}

	if err := batch.Commit(ctx); err != nil {
		return entities.Receipt{}, fmt.Errorf("commit transfer batch: %w", err)
	}

	now := s.now()
	s.stateMu.Lock()
	s.state.TotalTransactions++
	s.state.TotalRecipients += uint64(len(recipients))
	if s.state.PerSenderCount == nil {
		s.state.PerSenderCount = make(map[entities.Address]uint64)
	}
	s.state.PerSenderCount[caller]++
	s.stateMu.Unlock()

	receipt := entities.Receipt{
		ReceiptID:      receiptID,
		Sender:         caller,
		RecipientCount: len(recipients),
		TotalAmount:    total,
		ExecutedAt:     now,
	}
	if s.Receipts != nil {
		if err := s.Receipts.SaveReceipt(ctx, receipt); err != nil {
			return entities.Receipt{}, err
		}
	}
	if err := s.appendBatchExecutedOutbox(ctx, receipt); err != nil {
		return entities.Receipt{}, err
	}

	ResolveLogger(s.Logger).Info("batch transfer executed",
		"event", "batch_transfer_executed",
		"module", "transfer-core/batch-ledger",
		"layer", "application",
		"receipt_id", receipt.ReceiptID,
		"sender", caller.String(),
		"recipient_count", receipt.RecipientCount,
		"total_amount", total.String(),
	)
	return receipt, nil
}

// Pause blocks subsequent submissions. Owner only.
func (s *Service) Pause(ctx context.Context, caller entities.Address) error {
	s.stateMu.Lock()
	if err := s.requireOwnerLocked(caller); err != nil {
		s.stateMu.Unlock()
		return err
	}
	s.state.Paused = true
	s.stateMu.Unlock()

	if err := s.appendAdminOutbox(ctx, "ledger.paused", map[string]any{
		"owner": caller.String(),
	}); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("ledger paused",
		"event", "ledger_paused",
		"module", "transfer-core/batch-ledger",
		"layer", "application",
		"owner", caller.String(),
	)
	return nil
}

// Unpause restores submissions. Owner only.
func (s *Service) Unpause(ctx context.Context, caller entities.Address) error {
	s.stateMu.Lock()
	if err := s.requireOwnerLocked(caller); err != nil {
		s.stateMu.Unlock()
		return err
	}
	s.state.Paused = false
	s.stateMu.Unlock()

	if err := s.appendAdminOutbox(ctx, "ledger.unpaused", map[string]any{
		"owner": caller.String(),
	}); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("ledger unpaused",
		"event", "ledger_unpaused",
		"module", "transfer-core/batch-ledger",
		"layer", "application",
		"owner", caller.String(),
	)
	return nil
}

// TransferOwnership replaces the owner atomically. Owner only, non-zero target.
func (s *Service) TransferOwnership(ctx context.Context, caller entities.Address, newOwner entities.Address) error {
	s.stateMu.Lock()
	if err := s.requireOwnerLocked(caller); err != nil {
		s.stateMu.Unlock()
		return err
	}
	if newOwner.IsZero() {
		s.stateMu.Unlock()
		return domainerrors.ErrZeroAddress
	}
	oldOwner := s.state.Owner
	s.state.Owner = newOwner
	s.stateMu.Unlock()

	if err := s.appendAdminOutbox(ctx, "ledger.ownership_transferred", map[string]any{
		"old_owner": oldOwner.String(),
		"new_owner": newOwner.String(),
	}); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Info("ledger ownership transferred",
		"event", "ledger_ownership_transferred",
		"module", "transfer-core/batch-ledger",
		"layer", "application",
		"old_owner", oldOwner.String(),
		"new_owner", newOwner.String(),
	)
	return nil
}

func (s *Service) Owner() entities.Address {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Owner
}

func (s *Service) IsPaused() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Paused
}

func (s *Service) TotalTransactions() uint64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.TotalTransactions
}

func (s *Service) TotalRecipients() uint64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.TotalRecipients
}

func (s *Service) PerSenderCount(sender entities.Address) uint64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.PerSenderCount[sender]
}

// GetReceipt returns a persisted outcome record.
func (s *Service) GetReceipt(ctx context.Context, receiptID string) (entities.Receipt, error) {
	if s.Receipts == nil {
		return entities.Receipt{}, domainerrors.ErrReceiptNotFound
	}
	return s.Receipts.GetReceipt(ctx, receiptID)
}

// ListReceiptsBySender returns the most recent receipts for one sender.
func (s *Service) ListReceiptsBySender(ctx context.Context, sender entities.Address, limit int) ([]entities.Receipt, error) {
	if s.Receipts == nil {
		return []entities.Receipt{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.Receipts.ListReceiptsBySender(ctx, sender, limit)
}

func (s *Service) requireOwnerLocked(caller entities.Address) error {
	if !s.state.Initialized || caller.IsZero() || caller != s.state.Owner {
		return domainerrors.ErrUnauthorized
	}
	return nil
}

func (s *Service) appendBatchExecutedOutbox(ctx context.Context, receipt entities.Receipt) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"receipt_id":      receipt.ReceiptID,
		"sender":          receipt.Sender.String(),
		"recipient_count": receipt.RecipientCount,
		"total_amount":    receipt.TotalAmount.String(),
		"executed_at":     receipt.ExecutedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "transfer.batch_executed",
		OccurredAt:       receipt.ExecutedAt.UTC(),
		SourceService:    "batch-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "sender",
		PartitionKey:     receipt.Sender.String(),
		Data:             data,
	})
}

func (s *Service) appendAdminOutbox(ctx context.Context, eventType string, payload map[string]any) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       s.now(),
		SourceService:    "batch-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "owner",
		PartitionKey:     s.Owner().String(),
		Data:             data,
	})
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
