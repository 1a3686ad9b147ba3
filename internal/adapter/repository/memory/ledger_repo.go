package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// GetOrCreate returns the owner's head, staging a new one if none exists.
func (r *LedgerRepository) GetOrCreate(ctx context.Context, tx usecase.Transaction, ownerID string, now time.Time) (*domain.Ledger, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errNoTx
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if l, ok := t.ledgers[ownerID]; ok {
		return cloneLedger(l), nil
	}
	if l, ok := r.store.ledgers[ownerID]; ok {
		return cloneLedger(l), nil
	}

	l := &domain.Ledger{
		OwnerID:              ownerID,
		AutoFinalizedThrough: domain.PeriodOf(now),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	t.ledgerBase[ownerID] = absent
	t.ledgers[ownerID] = l

	return cloneLedger(l), nil
}

// Save stages the head if its version is current and increments ledger.Version.
func (r *LedgerRepository) Save(ctx context.Context, tx usecase.Transaction, ledger *domain.Ledger) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}
	if t == nil {
		return errNoTx
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	cur, ok := t.ledgers[ledger.OwnerID]
	if !ok {
		cur, ok = r.store.ledgers[ledger.OwnerID]
	}
	if !ok {
		return fmt.Errorf("%w: ledger %s does not exist", domain.ErrVersionConflict, ledger.OwnerID)
	}
	if cur.Version != ledger.Version {
		return fmt.Errorf("%w: ledger %s at version %d, expected %d", domain.ErrVersionConflict, ledger.OwnerID, cur.Version, ledger.Version)
	}

	t.touchLedger(ledger.OwnerID)
	ledger.Version++
	t.ledgers[ledger.OwnerID] = cloneLedger(ledger)

	return nil
}

// ListOwners returns committed owner ids in ascending order.
func (r *LedgerRepository) ListOwners(ctx context.Context, limit, offset int) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	owners := make([]string, 0, len(r.store.ledgers))
	for owner := range r.store.ledgers {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	return paginate(owners, limit, offset), nil
}

func cloneLedger(l *domain.Ledger) *domain.Ledger {
	c := *l
	if l.LastFinalizedAt != nil {
		at := *l.LastFinalizedAt
		c.LastFinalizedAt = &at
	}
	return &c
}
