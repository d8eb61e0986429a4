package errors

import "errors"

var (
	ErrEntryNotFound           = errors.New("journal entry not found")
	ErrEntryStillPending       = errors.New("journal entry is still pending")
	ErrEntryExists             = errors.New("journal entry id already exists")
	ErrInvalidEntryInput       = errors.New("journal entry input is invalid")
	ErrInvalidStatusTransition = errors.New("journal entry status transition is invalid")
)
