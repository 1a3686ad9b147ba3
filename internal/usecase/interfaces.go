package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
)

// EntryFilter narrows entry listings.
type EntryFilter struct {
	IncludeFinalized bool
	Limit            int
	Offset           int
}

// EntryRepository defines data access for ledger entries.
// Reads accept a nil tx and then run outside any transaction.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByID(ctx context.Context, tx Transaction, ownerID, id string) (*domain.Entry, error)
	// Update writes every mutable field if the stored version still equals entry.Version,
	// then increments entry.Version. A stale version yields domain.ErrVersionConflict.
	Update(ctx context.Context, tx Transaction, entry *domain.Entry) error
	Delete(ctx context.Context, tx Transaction, ownerID, id string, version int64) error
	// ListActive returns non-finalized entries ordered by date asc, id asc.
	ListActive(ctx context.Context, tx Transaction, ownerID string) ([]*domain.Entry, error)
	List(ctx context.Context, ownerID string, filter EntryFilter) ([]*domain.Entry, error)
	// UpdateBalances persists Balance for each entry in one version-checked batch.
	UpdateBalances(ctx context.Context, tx Transaction, entries []*domain.Entry, updatedAt time.Time) error
	// MarkFinalized archives the entries in one version-checked batch.
	MarkFinalized(ctx context.Context, tx Transaction, entries []*domain.Entry, updatedAt time.Time) error
	// LastActiveBalance returns the balance of the last active entry, or false when there is none.
	LastActiveBalance(ctx context.Context, tx Transaction, ownerID string) (decimal.Decimal, bool, error)
	// SumDebits totals debits of a category dated within [from, to), finalized or not.
	SumDebits(ctx context.Context, ownerID, category string, from, to time.Time) (decimal.Decimal, error)
}

// SummaryRepository defines data access for monthly summaries.
type SummaryRepository interface {
	Create(ctx context.Context, tx Transaction, summary *domain.MonthlySummary) error
	// Latest returns the most recently created summary or domain.ErrSummaryNotFound.
	Latest(ctx context.Context, tx Transaction, ownerID string) (*domain.MonthlySummary, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.MonthlySummary, error)
}

// FinalizationLogRepository defines data access for the finalization audit trail.
type FinalizationLogRepository interface {
	Create(ctx context.Context, tx Transaction, log *domain.FinalizationLog) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FinalizationLog, error)
}

// LedgerRepository defines data access for per-owner ledger heads.
type LedgerRepository interface {
	// GetOrCreate returns the owner's ledger head, creating it at version 0 if absent.
	GetOrCreate(ctx context.Context, tx Transaction, ownerID string, now time.Time) (*domain.Ledger, error)
	// Save writes the head if its stored version equals ledger.Version, then increments it.
	Save(ctx context.Context, tx Transaction, ledger *domain.Ledger) error
	ListOwners(ctx context.Context, limit, offset int) ([]string, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique, insertion-ordered IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation while it fails with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// RateProvider returns how many units of `to` one unit of `from` buys.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Notifier receives post-commit ledger signals. Implementations must not block
// and never report failures back to the ledger.
type Notifier interface {
	NotifyLowBalance(ctx context.Context, ownerID string, balance decimal.Decimal)
	NotifyBudgetExceeded(ctx context.Context, ownerID, category string, spent, limit decimal.Decimal)
}

// BudgetPolicy returns the monthly spending limit of a category, if one is set.
type BudgetPolicy interface {
	Limit(ctx context.Context, ownerID, category string) (decimal.Decimal, bool)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
