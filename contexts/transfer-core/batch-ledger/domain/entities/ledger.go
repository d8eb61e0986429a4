package entities

import (
	"math/big"
	"strings"
	"time"
)

// MaxBatchRecipients bounds a single batch submission.
const MaxBatchRecipients = 20

// Address is a fixed-width hex account identifier (0x + 40 hex chars).
type Address string

const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress normalizes a raw address to lowercase hex form.
// The second return is false when the input is not a well-formed address.
func ParseAddress(raw string) (Address, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(value, "0x") || len(value) != 42 {
		return "", false
	}
	for _, c := range value[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return Address(value), true
}

func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// Recipient is one leg of a batch: a destination address and an amount in the
// smallest unit. Immutable once part of a submitted batch.
type Recipient struct {
	Address Address
	Amount  *big.Int
}

// BatchRequest is the transient payload of one submit call. It exists only for
// the duration of the atomic execution.
type BatchRequest struct {
	Sender     Address
	Recipients []Recipient
	TotalValue *big.Int
}

// Receipt is the outcome record emitted on a successful batch execution.
type Receipt struct {
	ReceiptID      string
	Sender         Address
	RecipientCount int
	TotalAmount    *big.Int
	ExecutedAt     time.Time
}

// LedgerState holds the authoritative counters and access-control fields.
// It is owned by exactly one ledger service instance, never a process global.
type LedgerState struct {
	Owner             Address
	Paused            bool
	Initialized       bool
	TotalTransactions uint64
	TotalRecipients   uint64
	PerSenderCount    map[Address]uint64
}
