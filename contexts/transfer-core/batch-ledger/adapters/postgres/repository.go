package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"multisender/contexts/transfer-core/batch-ledger/domain/entities"
	domainerrors "multisender/contexts/transfer-core/batch-ledger/domain/errors"
	"multisender/contexts/transfer-core/batch-ledger/ports"
	"multisender/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository persists receipts and outbox rows for the batch ledger.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

type receiptModel struct {
	ReceiptID      string    `gorm:"column:receipt_id;primaryKey"`
	Sender         string    `gorm:"column:sender;index"`
	RecipientCount int       `gorm:"column:recipient_count"`
	TotalAmountWei string    `gorm:"column:total_amount_wei"`
	ExecutedAt     time.Time `gorm:"column:executed_at"`
}

func (receiptModel) TableName() string { return "ledger_receipts" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "ledger_outbox" }

func (r *Repository) SaveReceipt(ctx context.Context, receipt entities.Receipt) error {
	if strings.TrimSpace(receipt.ReceiptID) == "" || receipt.TotalAmount == nil {
		return domainerrors.ErrReceiptNotFound
	}
	row := receiptModel{
		ReceiptID:      strings.TrimSpace(receipt.ReceiptID),
		Sender:         receipt.Sender.String(),
		RecipientCount: receipt.RecipientCount,
		TotalAmountWei: receipt.TotalAmount.String(),
		ExecutedAt:     receipt.ExecutedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Receipt ids are generated per execution; a duplicate means a replay.
			return nil
		}
		return r.logError("ledger_repo_save_receipt_failed", err,
			"receipt_id", row.ReceiptID,
			"sender", row.Sender,
		)
	}
	return nil
}

func (r *Repository) GetReceipt(ctx context.Context, receiptID string) (entities.Receipt, error) {
	var row receiptModel
	err := r.db.WithContext(ctx).
		Where("receipt_id = ?", strings.TrimSpace(receiptID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Receipt{}, domainerrors.ErrReceiptNotFound
		}
		return entities.Receipt{}, r.logError("ledger_repo_get_receipt_failed", err,
			"receipt_id", strings.TrimSpace(receiptID),
		)
	}
	return row.toEntity()
}

func (r *Repository) ListReceiptsBySender(ctx context.Context, sender entities.Address, limit int) ([]entities.Receipt, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []receiptModel
	if err := r.db.WithContext(ctx).
		Where("sender = ?", sender.String()).
		Order("executed_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_receipts_failed", err,
			"sender", sender.String(),
		)
	}
	items := make([]entities.Receipt, 0, len(rows))
	for _, row := range rows {
		receipt, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, receipt)
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return errors.New("outbox event id is required")
	}
	row := outboxModel{
		OutboxID:     outboxID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("ledger_repo_outbox_duplicate",
				"outbox_id", outboxID,
				"event_type", envelope.EventType,
			)
			return nil
		}
		return r.logError("ledger_repo_append_outbox_failed", err,
			"outbox_id", outboxID,
			"event_type", envelope.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	ts := publishedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": &ts,
		})
	if result.Error != nil {
		return r.logError("ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("ledger_repo_mark_outbox_published_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func (m receiptModel) toEntity() (entities.Receipt, error) {
	amount, ok := new(big.Int).SetString(m.TotalAmountWei, 10)
	if !ok {
		return entities.Receipt{}, domainerrors.ErrInvalidAmount
	}
	return entities.Receipt{
		ReceiptID:      m.ReceiptID,
		Sender:         entities.Address(m.Sender),
		RecipientCount: m.RecipientCount,
		TotalAmount:    amount,
		ExecutedAt:     m.ExecutedAt,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "transfer-core/batch-ledger",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, args ...any) {
	fields := append([]any{
		"event", event,
		"module", "transfer-core/batch-ledger",
		"layer", "adapter",
	}, args...)
	r.logger.Warn("ledger repository warning", fields...)
}
