package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RecipientDTO struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type SubmitBatchRequest struct {
	Recipients []RecipientDTO `json:"recipients"`
	Value      string         `json:"value"`
}

type ReceiptDTO struct {
	ReceiptID      string `json:"receipt_id"`
	Sender         string `json:"sender"`
	RecipientCount int    `json:"recipient_count"`
	TotalAmount    string `json:"total_amount"`
	ExecutedAt     string `json:"executed_at"`
}

type SubmitBatchResponse struct {
	Status string     `json:"status"`
	Data   ReceiptDTO `json:"data"`
}

type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

type LedgerStatsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Owner             string `json:"owner"`
		Paused            bool   `json:"paused"`
		TotalTransactions uint64 `json:"total_transactions"`
		TotalRecipients   uint64 `json:"total_recipients"`
	} `json:"data"`
}

type SenderStatsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Sender           string `json:"sender"`
		TransactionCount uint64 `json:"transaction_count"`
	} `json:"data"`
}

type GasEstimateResponse struct {
	Status string `json:"status"`
	Data   struct {
		RecipientCount int     `json:"recipient_count"`
		IndividualGas  uint64  `json:"individual_gas"`
		BatchGas       uint64  `json:"batch_gas"`
		Savings        int64   `json:"savings"`
		SavingsPercent float64 `json:"savings_percent"`
	} `json:"data"`
}

type ReceiptListResponse struct {
	Status string       `json:"status"`
	Data   []ReceiptDTO `json:"data"`
}

type AdminActionResponse struct {
	Status string `json:"status"`
	Action string `json:"action"`
}
