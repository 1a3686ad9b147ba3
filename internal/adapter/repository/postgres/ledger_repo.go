package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/postgres/generated"
	"github.com/iho/fintrack/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// GetOrCreate inserts the owner's head if missing and reads it without a row lock.
// Concurrent writers are caught by the version check in Save.
func (r *LedgerRepository) GetOrCreate(ctx context.Context, tx usecase.Transaction, ownerID string, now time.Time) (*domain.Ledger, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, err
	}
	q := r.queries.WithTx(pgxTx)

	period := domain.PeriodOf(now)
	err = q.InsertLedgerIfAbsent(ctx, generated.InsertLedgerIfAbsentParams{
		OwnerID:            ownerID,
		AutoFinalizedYear:  int32(period.Year),
		AutoFinalizedMonth: int32(period.Month),
		CreatedAt:          timeToPgTimestamptz(now),
	})
	if err != nil {
		return nil, translateError(err)
	}

	row, err := q.GetLedger(ctx, ownerID)
	if err != nil {
		return nil, translateError(err)
	}

	return rowToLedger(row), nil
}

// Save writes the head if its version is current and increments ledger.Version.
func (r *LedgerRepository) Save(ctx context.Context, tx usecase.Transaction, ledger *domain.Ledger) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	affected, err := r.queries.WithTx(pgxTx).SaveLedger(ctx, generated.SaveLedgerParams{
		OwnerID:            ledger.OwnerID,
		Version:            ledger.Version,
		AutoFinalizedYear:  int32(ledger.AutoFinalizedThrough.Year),
		AutoFinalizedMonth: int32(ledger.AutoFinalizedThrough.Month),
		LastFinalizedAt:    optionalTimestamptz(ledger.LastFinalizedAt),
		UpdatedAt:          timeToPgTimestamptz(ledger.UpdatedAt),
	})
	if err != nil {
		return translateError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: ledger %s moved past version %d", domain.ErrVersionConflict, ledger.OwnerID, ledger.Version)
	}

	ledger.Version++
	return nil
}

// ListOwners returns owner ids in ascending order.
func (r *LedgerRepository) ListOwners(ctx context.Context, limit, offset int) ([]string, error) {
	return r.queries.ListLedgerOwners(ctx, generated.ListLedgerOwnersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
}
