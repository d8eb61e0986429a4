package errors

import "errors"

var (
	ErrLengthMismatch     = errors.New("recipients and amounts length mismatch")
	ErrEmptyBatch         = errors.New("batch must contain at least one recipient")
	ErrTooManyRecipients  = errors.New("batch exceeds maximum recipient count")
	ErrZeroAddress        = errors.New("address must be non-zero")
	ErrInvalidAddress     = errors.New("address is not a valid hex account identifier")
	ErrZeroAmount         = errors.New("amount must be greater than zero")
	ErrInvalidAmount      = errors.New("amount is not a valid integer")
	ErrValueMismatch      = errors.New("declared value does not match sum of amounts")
	ErrLedgerPaused       = errors.New("ledger is paused")
	ErrReentrancyDetected = errors.New("submit rejected: execution already in progress")
	ErrUnauthorized       = errors.New("caller is not the ledger owner")
	ErrAlreadyInitialized = errors.New("ledger is already initialized")
	ErrNotInitialized     = errors.New("ledger is not initialized")
	ErrTransferFailed     = errors.New("transfer failed")
	ErrReceiptNotFound    = errors.New("receipt not found")
)
