package domain

import "errors"

var (
	// ErrValidation is the root of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// Entry errors
	ErrEntryNotFound     = errors.New("entry not found")
	ErrAlreadyFinalized  = errors.New("entry is already finalized")
	ErrInvalidAmount     = errors.New("amount must not be negative")
	ErrAmountSides       = errors.New("exactly one of credit or debit must be non-zero")
	ErrAmountPrecision   = errors.New("amount has more than 2 decimal places")
	ErrInvalidOwner      = errors.New("owner id is required")
	ErrDescriptionLength = errors.New("description is too long")

	// Concurrency errors
	ErrVersionConflict = errors.New("version conflict")
	ErrConflict        = errors.New("conflicting concurrent update, please retry")

	// Finalization errors
	ErrNothingToFinalize = errors.New("no active entries to finalize")
	ErrSummaryNotFound   = errors.New("monthly summary not found")

	// Currency errors
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)
