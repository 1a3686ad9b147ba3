package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
)

// ReconciliationUseCase checks that stored running balances match a fresh walk.
type ReconciliationUseCase struct {
	entryRepo    EntryRepository
	recalculator *BalanceRecalculator
	ledger       *LedgerUseCase
	clock        Clock
}

// NewReconciliationUseCase creates a new reconciliation use case.
func NewReconciliationUseCase(
	entryRepo EntryRepository,
	summaryRepo SummaryRepository,
	ledger *LedgerUseCase,
	clock Clock,
) *ReconciliationUseCase {
	if clock == nil {
		clock = systemClock{}
	}

	return &ReconciliationUseCase{
		entryRepo:    entryRepo,
		recalculator: NewBalanceRecalculator(entryRepo, summaryRepo, nil),
		ledger:       ledger,
		clock:        clock,
	}
}

// ReconciliationReport is the result of a consistency check for one owner.
type ReconciliationReport struct {
	CheckedAt         time.Time
	OwnerID           string
	Mismatches        []domain.BalanceMismatch
	SeedBalance       decimal.Decimal
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	EntriesChecked    int
	Consistent        bool
	Repaired          bool
}

// Reconcile walks the owner's active entries from the seed and reports every entry
// whose stored balance disagrees. With repair set, inconsistent ledgers are rewritten.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, ownerID string, repair bool) (*ReconciliationReport, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}

	seed, err := uc.recalculator.SeedBalance(ctx, nil, ownerID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListActive(ctx, nil, ownerID)
	if err != nil {
		return nil, err
	}

	recorded := seed
	if len(entries) > 0 {
		recorded = entries[len(entries)-1].Balance
	}

	mismatches, calculated := domain.VerifyRunningBalance(seed, entries)

	report := &ReconciliationReport{
		OwnerID:           ownerID,
		SeedBalance:       seed,
		RecordedBalance:   recorded,
		CalculatedBalance: calculated,
		EntriesChecked:    len(entries),
		Mismatches:        mismatches,
		Consistent:        len(mismatches) == 0,
		CheckedAt:         uc.clock.Now().UTC(),
	}

	if repair && !report.Consistent {
		rec, err := uc.ledger.Recalculate(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		report.Repaired = true
		report.CalculatedBalance = rec.Closing
	}

	return report, nil
}
