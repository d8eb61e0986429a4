package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"multisender/contexts/transfer-core/batch-ledger/domain/entities"
	domainerrors "multisender/contexts/transfer-core/batch-ledger/domain/errors"
	"multisender/contexts/transfer-core/batch-ledger/ports"
	"multisender/internal/shared/outbox"

	"github.com/google/uuid"
)

// CreditHook runs as a side effect of a recipient receiving funds, standing in
// for recipient-side code. Returning an error rejects the transfer.
type CreditHook func(ctx context.Context, to entities.Address, amount *big.Int) error

// Store is the in-memory execution environment: account balances, staged
// transfer batches, receipts, and the outbox.
type Store struct {
	mu sync.Mutex

	balances map[entities.Address]*big.Int
	hooks    map[entities.Address]CreditHook
	receipts map[string]entities.Receipt
	outbox   map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

func NewStore() *Store {
	return &Store{
		balances: make(map[entities.Address]*big.Int),
		hooks:    make(map[entities.Address]CreditHook),
		receipts: make(map[string]entities.Receipt),
		outbox:   make(map[string]outboxRecord),
	}
}

// SetCreditHook installs recipient-side code invoked on every credit to addr.
func (s *Store) SetCreditHook(addr entities.Address, hook CreditHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hook == nil {
		delete(s.hooks, addr)
		return
	}
	s.hooks[addr] = hook
}

// Balance returns a copy of the current balance for addr.
func (s *Store) Balance(addr entities.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[addr]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(balance)
}

func (s *Store) Begin(_ context.Context, sender entities.Address, total *big.Int) (ports.TransferBatch, error) {
	if sender.IsZero() {
		return nil, domainerrors.ErrZeroAddress
	}
	if total == nil || total.Sign() <= 0 {
		return nil, domainerrors.ErrZeroAmount
	}
	return &transferBatch{
		store:     s,
		sender:    sender,
		remaining: new(big.Int).Set(total),
	}, nil
}

type pendingCredit struct {
	to     entities.Address
	amount *big.Int
}

// transferBatch stages credits against the value attached to one submit call.
// Nothing touches balances until Commit; Discard drops every staged effect.
type transferBatch struct {
	store     *Store
	sender    entities.Address
	remaining *big.Int
	pending   []pendingCredit
	done      bool
}

func (b *transferBatch) Credit(ctx context.Context, to entities.Address, amount *big.Int) error {
	if b.done {
		return fmt.Errorf("transfer batch already finalized")
	}
	if to.IsZero() {
		return domainerrors.ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return domainerrors.ErrZeroAmount
	}
	if b.remaining.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient remaining value: have %s, need %s",
			b.remaining.String(), amount.String())
	}

	// Recipient code runs before the credit is staged; the hook may itself
	// call back into the ledger.
	if hook := b.store.hookFor(to); hook != nil {
		if err := hook(ctx, to, amount); err != nil {
			return fmt.Errorf("recipient rejected transfer: %w", err)
		}
	}

	b.remaining.Sub(b.remaining, amount)
	b.pending = append(b.pending, pendingCredit{to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func (b *transferBatch) Commit(_ context.Context) error {
	if b.done {
		return fmt.Errorf("transfer batch already finalized")
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for _, credit := range b.pending {
		balance, ok := b.store.balances[credit.to]
		if !ok {
			balance = new(big.Int)
		}
		b.store.balances[credit.to] = new(big.Int).Add(balance, credit.amount)
	}
	b.pending = nil
	b.done = true
	return nil
}

func (b *transferBatch) Discard() {
	b.pending = nil
	b.done = true
}

func (s *Store) hookFor(addr entities.Address) CreditHook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hooks[addr]
}

func (s *Store) SaveReceipt(_ context.Context, receipt entities.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(receipt.ReceiptID)
	if id == "" {
		return domainerrors.ErrReceiptNotFound
	}
	s.receipts[id] = receipt
	return nil
}

func (s *Store) GetReceipt(_ context.Context, receiptID string) (entities.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, ok := s.receipts[strings.TrimSpace(receiptID)]
	if !ok {
		return entities.Receipt{}, domainerrors.ErrReceiptNotFound
	}
	return receipt, nil
}

func (s *Store) ListReceiptsBySender(_ context.Context, sender entities.Address, limit int) ([]entities.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	items := make([]entities.Receipt, 0)
	for _, receipt := range s.receipts {
		if receipt.Sender == sender {
			items = append(items, receipt)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ExecutedAt.After(items[j].ExecutedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return fmt.Errorf("outbox event id is required")
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return fmt.Errorf("outbox event %s already appended with different payload", outboxID)
		}
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outbox.StatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outbox.StatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return fmt.Errorf("outbox message %s not found", outboxID)
	}
	ts := publishedAt.UTC()
	row.Status = outbox.StatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
