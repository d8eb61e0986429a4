package ports

import (
	"context"
	"math/big"
	"time"

	"multisender/contexts/transfer-core/batch-ledger/domain/entities"
	"multisender/internal/shared/events"
)

// TransferBank is the execution environment for value movement. Begin opens a
// staged batch backed by the declared value attached to the call; nothing is
// observable outside the batch until Commit.
type TransferBank interface {
	Begin(ctx context.Context, sender entities.Address, total *big.Int) (TransferBatch, error)
}

// TransferBatch is the single-call atomicity boundary. A discarded batch has
// zero observable effect.
type TransferBatch interface {
	Credit(ctx context.Context, to entities.Address, amount *big.Int) error
	Commit(ctx context.Context) error
	Discard()
}

type ReceiptRepository interface {
	SaveReceipt(ctx context.Context, receipt entities.Receipt) error
	GetReceipt(ctx context.Context, receiptID string) (entities.Receipt, error)
	ListReceiptsBySender(ctx context.Context, sender entities.Address, limit int) ([]entities.Receipt, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}
