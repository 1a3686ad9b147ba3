package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/postgres/generated"
	"github.com/iho/fintrack/internal/usecase"
)

// SummaryRepository implements usecase.SummaryRepository.
type SummaryRepository struct {
	queries *generated.Queries
}

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return newSummaryRepository(pool)
}

func newSummaryRepository(db generated.DBTX) *SummaryRepository {
	return &SummaryRepository{queries: generated.New(db)}
}

// Create inserts a summary. Summaries are never updated.
func (r *SummaryRepository) Create(ctx context.Context, tx usecase.Transaction, summary *domain.MonthlySummary) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(pgxTx).CreateSummary(ctx, generated.CreateSummaryParams{
		ID:             summary.ID,
		OwnerID:        summary.OwnerID,
		PeriodYear:     int32(summary.Period.Year),
		PeriodMonth:    int32(summary.Period.Month),
		ClosingBalance: decimalToNumeric(summary.ClosingBalance),
		EntryCount:     int32(summary.EntryCount),
		CreatedAt:      timeToPgTimestamptz(summary.CreatedAt),
	})

	return translateError(err)
}

// Latest returns the most recently created summary of the owner.
func (r *SummaryRepository) Latest(ctx context.Context, tx usecase.Transaction, ownerID string) (*domain.MonthlySummary, error) {
	q := r.queries
	if tx != nil {
		pgxTx, err := pgxTxFrom(tx)
		if err != nil {
			return nil, err
		}
		q = q.WithTx(pgxTx)
	}

	row, err := q.GetLatestSummary(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSummaryNotFound
		}
		return nil, translateError(err)
	}

	return rowToSummary(row), nil
}

// ListByOwner returns the owner's summaries, newest first.
func (r *SummaryRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.MonthlySummary, error) {
	rows, err := r.queries.ListSummaries(ctx, generated.ListSummariesParams{
		OwnerID: ownerID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.MonthlySummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, rowToSummary(row))
	}
	return summaries, nil
}

// FinalizationLogRepository implements usecase.FinalizationLogRepository.
type FinalizationLogRepository struct {
	queries *generated.Queries
}

// NewFinalizationLogRepository creates a new FinalizationLogRepository.
func NewFinalizationLogRepository(pool *pgxpool.Pool) *FinalizationLogRepository {
	return newFinalizationLogRepository(pool)
}

func newFinalizationLogRepository(db generated.DBTX) *FinalizationLogRepository {
	return &FinalizationLogRepository{queries: generated.New(db)}
}

// Create appends a finalization record.
func (r *FinalizationLogRepository) Create(ctx context.Context, tx usecase.Transaction, log *domain.FinalizationLog) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(pgxTx).CreateFinalizationLog(ctx, generated.CreateFinalizationLogParams{
		ID:             log.ID,
		OwnerID:        log.OwnerID,
		SummaryID:      log.SummaryID,
		PeriodYear:     int32(log.Period.Year),
		PeriodMonth:    int32(log.Period.Month),
		ClosingBalance: decimalToNumeric(log.ClosingBalance),
		Automatic:      log.Automatic,
		FinalizedAt:    timeToPgTimestamptz(log.FinalizedAt),
	})

	return translateError(err)
}

// ListByOwner returns the owner's finalizations, newest first.
func (r *FinalizationLogRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FinalizationLog, error) {
	rows, err := r.queries.ListFinalizationLogs(ctx, generated.ListFinalizationLogsParams{
		OwnerID: ownerID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	})
	if err != nil {
		return nil, err
	}

	logs := make([]*domain.FinalizationLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, rowToFinalizationLog(row))
	}
	return logs, nil
}
