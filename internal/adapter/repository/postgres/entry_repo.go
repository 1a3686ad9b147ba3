package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/postgres/generated"
	"github.com/iho/fintrack/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Create inserts a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	q, err := r.writer(tx)
	if err != nil {
		return err
	}

	err = q.CreateEntry(ctx, generated.CreateEntryParams{
		ID:             entry.ID,
		OwnerID:        entry.OwnerID,
		EntryDate:      timeToPgDate(entry.Date),
		Description:    entry.Description,
		Category:       entry.Category,
		Currency:       entry.Currency,
		Credit:         decimalToNumeric(entry.Credit),
		Debit:          decimalToNumeric(entry.Debit),
		OriginalAmount: decimalToNumeric(entry.OriginalAmount),
		Balance:        decimalToNumeric(entry.Balance),
		Finalized:      entry.Finalized,
		Version:        entry.Version,
		CreatedAt:      timeToPgTimestamptz(entry.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(entry.UpdatedAt),
	})

	return translateError(err)
}

// GetByID retrieves an owner's entry.
func (r *EntryRepository) GetByID(ctx context.Context, tx usecase.Transaction, ownerID, id string) (*domain.Entry, error) {
	q, err := r.reader(tx)
	if err != nil {
		return nil, err
	}

	row, err := q.GetEntry(ctx, generated.GetEntryParams{ID: id, OwnerID: ownerID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, translateError(err)
	}

	return rowToEntry(row), nil
}

// Update writes every mutable field if the stored version matches.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	q, err := r.writer(tx)
	if err != nil {
		return err
	}

	affected, err := q.UpdateEntry(ctx, generated.UpdateEntryParams{
		ID:             entry.ID,
		OwnerID:        entry.OwnerID,
		Version:        entry.Version,
		EntryDate:      timeToPgDate(entry.Date),
		Description:    entry.Description,
		Category:       entry.Category,
		Currency:       entry.Currency,
		Credit:         decimalToNumeric(entry.Credit),
		Debit:          decimalToNumeric(entry.Debit),
		OriginalAmount: decimalToNumeric(entry.OriginalAmount),
		Balance:        decimalToNumeric(entry.Balance),
		UpdatedAt:      timeToPgTimestamptz(entry.UpdatedAt),
	})
	if err != nil {
		return translateError(err)
	}
	if affected == 0 {
		return r.classifyMiss(ctx, q, entry.OwnerID, entry.ID, entry.Version)
	}

	entry.Version++
	return nil
}

// Delete removes an active entry if the stored version matches.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string, version int64) error {
	q, err := r.writer(tx)
	if err != nil {
		return err
	}

	affected, err := q.DeleteEntry(ctx, generated.DeleteEntryParams{ID: id, OwnerID: ownerID, Version: version})
	if err != nil {
		return translateError(err)
	}
	if affected == 0 {
		return r.classifyMiss(ctx, q, ownerID, id, version)
	}

	return nil
}

// ListActive returns the owner's non-finalized entries in ledger order.
func (r *EntryRepository) ListActive(ctx context.Context, tx usecase.Transaction, ownerID string) ([]*domain.Entry, error) {
	q, err := r.reader(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.ListActiveEntries(ctx, ownerID)
	if err != nil {
		return nil, translateError(err)
	}

	return rowsToEntries(rows), nil
}

// List returns a page of the owner's entries in ledger order.
func (r *EntryRepository) List(ctx context.Context, ownerID string, filter usecase.EntryFilter) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntries(ctx, generated.ListEntriesParams{
		OwnerID: ownerID,
		Column2: filter.IncludeFinalized,
		Limit:   int32(filter.Limit),
		Offset:  int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// UpdateBalances rewrites balances in a single statement. If any row moved
// underneath, the whole batch is reported as a conflict.
func (r *EntryRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry, updatedAt time.Time) error {
	if len(entries) == 0 {
		return nil
	}

	q, err := r.writer(tx)
	if err != nil {
		return err
	}

	params := generated.UpdateEntryBalancesParams{
		UpdatedAt: timeToPgTimestamptz(updatedAt),
		Ids:       make([]string, len(entries)),
		Balances:  make([]string, len(entries)),
		Versions:  make([]int64, len(entries)),
	}
	for i, e := range entries {
		params.Ids[i] = e.ID
		params.Balances[i] = e.Balance.String()
		params.Versions[i] = e.Version
	}

	affected, err := q.UpdateEntryBalances(ctx, params)
	if err != nil {
		return translateError(err)
	}

	return bumpVersions(entries, affected, updatedAt)
}

// MarkFinalized archives entries in a single version-checked statement.
func (r *EntryRepository) MarkFinalized(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry, updatedAt time.Time) error {
	if len(entries) == 0 {
		return nil
	}

	q, err := r.writer(tx)
	if err != nil {
		return err
	}

	params := generated.MarkEntriesFinalizedParams{
		UpdatedAt: timeToPgTimestamptz(updatedAt),
		Ids:       make([]string, len(entries)),
		Versions:  make([]int64, len(entries)),
	}
	for i, e := range entries {
		params.Ids[i] = e.ID
		params.Versions[i] = e.Version
	}

	affected, err := q.MarkEntriesFinalized(ctx, params)
	if err != nil {
		return translateError(err)
	}
	if err := bumpVersions(entries, affected, updatedAt); err != nil {
		return err
	}

	for _, e := range entries {
		e.Finalized = true
	}
	return nil
}

// LastActiveBalance returns the balance of the owner's last active entry.
func (r *EntryRepository) LastActiveBalance(ctx context.Context, tx usecase.Transaction, ownerID string) (decimal.Decimal, bool, error) {
	q, err := r.reader(tx)
	if err != nil {
		return decimal.Zero, false, err
	}

	balance, err := q.GetLastActiveBalance(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, translateError(err)
	}

	return numericToDecimal(balance), true, nil
}

// SumDebits totals debits of a category dated within [from, to).
func (r *EntryRepository) SumDebits(ctx context.Context, ownerID, category string, from, to time.Time) (decimal.Decimal, error) {
	total, err := r.queries.SumCategoryDebits(ctx, generated.SumCategoryDebitsParams{
		OwnerID:     ownerID,
		Category:    category,
		EntryDate:   timeToPgDate(from),
		EntryDate_2: timeToPgDate(to),
	})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

// classifyMiss explains why a versioned write touched no rows.
func (r *EntryRepository) classifyMiss(ctx context.Context, q *generated.Queries, ownerID, id string, version int64) error {
	current, err := q.GetEntryVersion(ctx, generated.GetEntryVersionParams{ID: id, OwnerID: ownerID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEntryNotFound
		}
		return translateError(err)
	}

	if current == version {
		return fmt.Errorf("%w: entry %s", domain.ErrAlreadyFinalized, id)
	}
	return fmt.Errorf("%w: entry %s at version %d, expected %d", domain.ErrVersionConflict, id, current, version)
}

func (r *EntryRepository) reader(tx usecase.Transaction) (*generated.Queries, error) {
	if tx == nil {
		return r.queries, nil
	}
	return r.writer(tx)
}

func (r *EntryRepository) writer(tx usecase.Transaction) (*generated.Queries, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.queries.WithTx(pgxTx), nil
}

func bumpVersions(entries []*domain.Entry, affected int64, updatedAt time.Time) error {
	if affected != int64(len(entries)) {
		return fmt.Errorf("%w: batch touched %d of %d entries", domain.ErrVersionConflict, affected, len(entries))
	}

	for _, e := range entries {
		e.Version++
		e.UpdatedAt = updatedAt
	}
	return nil
}
