package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

var errDuplicateEntry = errors.New("entry already exists")

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create stages a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t, err := r.writeTx(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if r.store.entry(t, entry.ID) != nil {
		return fmt.Errorf("%w: %s", errDuplicateEntry, entry.ID)
	}

	t.touchEntry(entry.ID)
	t.entries[entry.ID] = entry.Clone()

	return nil
}

// GetByID retrieves an owner's entry.
func (r *EntryRepository) GetByID(ctx context.Context, tx usecase.Transaction, ownerID, id string) (*domain.Entry, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e := r.store.entry(t, id)
	if e == nil || e.OwnerID != ownerID {
		return nil, domain.ErrEntryNotFound
	}

	return e.Clone(), nil
}

// Update stages all mutable fields of entry if its version is current.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t, err := r.writeTx(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, err := r.current(t, entry.OwnerID, entry.ID, entry.Version); err != nil {
		return err
	}

	t.touchEntry(entry.ID)
	entry.Version++
	t.entries[entry.ID] = entry.Clone()

	return nil
}

// Delete stages the removal of an entry if version is current.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, ownerID, id string, version int64) error {
	t, err := r.writeTx(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, err := r.current(t, ownerID, id, version); err != nil {
		return err
	}

	t.touchEntry(id)
	t.entries[id] = nil

	return nil
}

// ListActive returns the owner's non-finalized entries in ledger order.
func (r *EntryRepository) ListActive(ctx context.Context, tx usecase.Transaction, ownerID string) ([]*domain.Entry, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.visible(t, ownerID, false), nil
}

// List returns committed entries of an owner in ledger order.
func (r *EntryRepository) List(ctx context.Context, ownerID string, filter usecase.EntryFilter) ([]*domain.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := r.visible(nil, ownerID, filter.IncludeFinalized)

	return paginate(entries, filter.Limit, filter.Offset), nil
}

// UpdateBalances stages the new balance of each entry.
func (r *EntryRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry, updatedAt time.Time) error {
	return r.rewrite(tx, entries, func(stored, in *domain.Entry) {
		stored.Balance = in.Balance
		stored.UpdatedAt = updatedAt
	})
}

// MarkFinalized stages the archival of each entry.
func (r *EntryRepository) MarkFinalized(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry, updatedAt time.Time) error {
	return r.rewrite(tx, entries, func(stored, in *domain.Entry) {
		stored.Finalized = true
		stored.UpdatedAt = updatedAt
	})
}

// LastActiveBalance returns the balance of the owner's last active entry.
func (r *EntryRepository) LastActiveBalance(ctx context.Context, tx usecase.Transaction, ownerID string) (decimal.Decimal, bool, error) {
	active, err := r.ListActive(ctx, tx, ownerID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if len(active) == 0 {
		return decimal.Zero, false, nil
	}
	return active[len(active)-1].Balance, true, nil
}

// SumDebits totals committed debits of a category dated within [from, to).
func (r *EntryRepository) SumDebits(ctx context.Context, ownerID, category string, from, to time.Time) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	total := decimal.Zero
	for _, e := range r.store.entries {
		if e.OwnerID != ownerID || e.Category != category {
			continue
		}
		if e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		total = total.Add(e.Debit)
	}

	return total, nil
}

// rewrite applies fn to each entry in one version-checked batch. Either every
// entry is staged or none is.
func (r *EntryRepository) rewrite(tx usecase.Transaction, entries []*domain.Entry, fn func(stored, in *domain.Entry)) error {
	t, err := r.writeTx(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	staged := make([]*domain.Entry, 0, len(entries))
	for _, in := range entries {
		cur, err := r.current(t, in.OwnerID, in.ID, in.Version)
		if err != nil {
			return err
		}

		next := cur.Clone()
		fn(next, in)
		next.Version++
		staged = append(staged, next)
	}

	for i, next := range staged {
		t.touchEntry(next.ID)
		t.entries[next.ID] = next
		entries[i].Version = next.Version
		entries[i].UpdatedAt = next.UpdatedAt
	}

	return nil
}

// current returns the visible row if it belongs to ownerID and has the expected version.
// Callers must hold the store lock.
func (r *EntryRepository) current(t *Tx, ownerID, id string, version int64) (*domain.Entry, error) {
	e := r.store.entry(t, id)
	if e == nil || e.OwnerID != ownerID {
		return nil, domain.ErrEntryNotFound
	}
	if e.Version != version {
		return nil, fmt.Errorf("%w: entry %s at version %d, expected %d", domain.ErrVersionConflict, id, e.Version, version)
	}
	return e, nil
}

// visible returns clones of the owner's rows as seen by t, in ledger order.
// Callers must hold the store lock.
func (r *EntryRepository) visible(t *Tx, ownerID string, includeFinalized bool) []*domain.Entry {
	out := make([]*domain.Entry, 0)
	seen := make(map[string]struct{})

	keep := func(e *domain.Entry) {
		if e == nil || e.OwnerID != ownerID {
			return
		}
		if e.Finalized && !includeFinalized {
			return
		}
		out = append(out, e.Clone())
	}

	if t != nil {
		for id, e := range t.entries {
			seen[id] = struct{}{}
			keep(e)
		}
	}
	for id, e := range r.store.entries {
		if _, ok := seen[id]; ok {
			continue
		}
		keep(e)
	}

	domain.SortEntries(out)
	return out
}

func (r *EntryRepository) writeTx(tx usecase.Transaction) (*Tx, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errNoTx
	}
	return t, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
