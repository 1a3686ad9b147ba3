package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iho/fintrack/internal/domain"
)

// AutoFinalizer sweeps every owner and finalizes ledgers whose month rolled over.
type AutoFinalizer struct {
	ledgerRepo LedgerRepository
	ledger     *LedgerUseCase
	logger     zerolog.Logger
}

// NewAutoFinalizer creates a new AutoFinalizer.
func NewAutoFinalizer(ledgerRepo LedgerRepository, ledger *LedgerUseCase, logger zerolog.Logger) *AutoFinalizer {
	return &AutoFinalizer{
		ledgerRepo: ledgerRepo,
		ledger:     ledger,
		logger:     logger,
	}
}

// SweepResult summarizes one pass over all owners.
type SweepResult struct {
	Owners    int
	Finalized int
	Skipped   int
	Failed    int
}

// Sweep calls FinalizeIfDue for every known owner. A failure for one owner is
// logged and does not stop the sweep.
func (a *AutoFinalizer) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	for offset := 0; ; offset += ownerPageSize {
		owners, err := a.ledgerRepo.ListOwners(ctx, ownerPageSize, offset)
		if err != nil {
			return result, err
		}

		for _, ownerID := range owners {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			result.Owners++
			_, err := a.ledger.FinalizeIfDue(ctx, ownerID)
			switch {
			case err == nil:
				result.Finalized++
			case errors.Is(err, domain.ErrNothingToFinalize):
				result.Skipped++
			case errors.Is(err, context.Canceled):
				return result, err
			default:
				result.Failed++
				a.logger.Error().Err(err).Str("owner_id", ownerID).Msg("auto-finalization failed")
			}
		}

		if len(owners) < ownerPageSize {
			return result, nil
		}
	}
}
