package entities

import (
	"math/big"
	"time"
)

type JournalStatus string

const (
	JournalStatusPending   JournalStatus = "pending"
	JournalStatusConfirmed JournalStatus = "confirmed"
	JournalStatusFailed    JournalStatus = "failed"
)

// Terminal reports whether the status never changes again.
func (s JournalStatus) Terminal() bool {
	return s == JournalStatusConfirmed || s == JournalStatusFailed
}

// RecipientSnapshot is the journal's copy of one batch leg. The snapshot
// outlives the transient batch request it was taken from.
type RecipientSnapshot struct {
	Address string
	Amount  *big.Int
}

// JournalEntry is the optimistic record of one submission. It is created
// Pending before any confirmation exists and transitions exactly once to a
// terminal state.
type JournalEntry struct {
	ID             string
	CreatedAt      time.Time
	Recipients     []RecipientSnapshot
	TotalAmount    *big.Int
	Status         JournalStatus
	ConfirmationID string
	FailureReason  string
	ResolvedAt     *time.Time
}
