package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// Recalculation is the outcome of one balance walk.
type Recalculation struct {
	Entries []*domain.Entry
	Seed    decimal.Decimal
	Closing decimal.Decimal
	Changed int
}

// BalanceRecalculator restores running balances over an owner's active entries.
type BalanceRecalculator struct {
	entryRepo   EntryRepository
	summaryRepo SummaryRepository
	metrics     *metrics.Metrics
}

// NewBalanceRecalculator creates a BalanceRecalculator.
func NewBalanceRecalculator(entryRepo EntryRepository, summaryRepo SummaryRepository, m *metrics.Metrics) *BalanceRecalculator {
	return &BalanceRecalculator{
		entryRepo:   entryRepo,
		summaryRepo: summaryRepo,
		metrics:     m,
	}
}

// SeedBalance returns the closing balance of the owner's latest summary, or zero.
func (r *BalanceRecalculator) SeedBalance(ctx context.Context, tx Transaction, ownerID string) (decimal.Decimal, error) {
	summary, err := r.summaryRepo.Latest(ctx, tx, ownerID)
	if errors.Is(err, domain.ErrSummaryNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return summary.ClosingBalance, nil
}

// Recalculate walks every active entry from the seed and writes back the balances that moved.
// It must run inside the transaction of the mutation that triggered it.
func (r *BalanceRecalculator) Recalculate(ctx context.Context, tx Transaction, ownerID string, now time.Time) (*Recalculation, error) {
	start := time.Now()

	seed, err := r.SeedBalance(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}

	entries, err := r.entryRepo.ListActive(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}

	changed, closing := domain.RunningBalance(seed, entries)
	if len(changed) > 0 {
		if err := r.entryRepo.UpdateBalances(ctx, tx, changed, now); err != nil {
			return nil, err
		}
	}

	if r.metrics != nil {
		r.metrics.RecalcEntries.Observe(float64(len(entries)))
		r.metrics.RecalcDuration.Observe(time.Since(start).Seconds())
	}

	return &Recalculation{
		Entries: entries,
		Seed:    seed,
		Closing: closing,
		Changed: len(changed),
	}, nil
}

// CurrentBalance returns the last active entry's balance, falling back to the seed.
func (r *BalanceRecalculator) CurrentBalance(ctx context.Context, tx Transaction, ownerID string) (decimal.Decimal, error) {
	balance, ok, err := r.entryRepo.LastActiveBalance(ctx, tx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	if ok {
		return balance, nil
	}
	return r.SeedBalance(ctx, tx, ownerID)
}
