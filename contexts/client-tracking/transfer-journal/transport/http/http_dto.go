package http

// ErrorResponse is the uniform error body for transfer-journal endpoints.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RecipientDTO carries one recipient of a tracked batch. Amount is the
// decimal string form of the smallest-unit value.
type RecipientDTO struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// SubmitTransferRequest starts an optimistic batch submission.
type SubmitTransferRequest struct {
	Recipients []RecipientDTO `json:"recipients"`
	TotalValue string         `json:"total_value"`
}

// JournalEntryDTO is the wire form of a tracked submission.
type JournalEntryDTO struct {
	ID             string         `json:"id"`
	CreatedAt      string         `json:"created_at"`
	Recipients     []RecipientDTO `json:"recipients"`
	TotalAmount    string         `json:"total_amount"`
	Status         string         `json:"status"`
	ConfirmationID string         `json:"confirmation_id,omitempty"`
	FailureReason  string         `json:"failure_reason,omitempty"`
	ResolvedAt     string         `json:"resolved_at,omitempty"`
}

// SubmitTransferResponse wraps the entry recorded for a new submission.
type SubmitTransferResponse struct {
	Status string          `json:"status"`
	Data   JournalEntryDTO `json:"data"`
}

// JournalEntryResponse wraps a single fetched entry.
type JournalEntryResponse struct {
	Status string          `json:"status"`
	Data   JournalEntryDTO `json:"data"`
}

// JournalListResponse wraps the full journal listing, newest first.
type JournalListResponse struct {
	Status string            `json:"status"`
	Data   []JournalEntryDTO `json:"data"`
}

// RemoveEntryResponse acknowledges a successful dismissal.
type RemoveEntryResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}
