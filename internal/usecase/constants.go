package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultRateTimeout bounds a single exchange-rate lookup.
	DefaultRateTimeout = 5 * time.Second

	// DefaultBaseCurrency is the currency balances are kept in.
	DefaultBaseCurrency = "XAF"

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ownerPageSize is how many owners the auto-finalizer loads per page.
	ownerPageSize = 200
)
