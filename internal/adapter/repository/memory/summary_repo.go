package memory

import (
	"context"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// SummaryRepository implements usecase.SummaryRepository.
type SummaryRepository struct {
	store *Store
}

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository(store *Store) *SummaryRepository {
	return &SummaryRepository{store: store}
}

// Create stages a summary.
func (r *SummaryRepository) Create(ctx context.Context, tx usecase.Transaction, summary *domain.MonthlySummary) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}
	if t == nil {
		return errNoTx
	}

	c := *summary
	t.summaries = append(t.summaries, &c)
	return nil
}

// Latest returns the owner's most recently created summary.
func (r *SummaryRepository) Latest(ctx context.Context, tx usecase.Transaction, ownerID string) (*domain.MonthlySummary, error) {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if t != nil {
		for i := len(t.summaries) - 1; i >= 0; i-- {
			if s := t.summaries[i]; s.OwnerID == ownerID {
				c := *s
				return &c, nil
			}
		}
	}
	for i := len(r.store.summaries) - 1; i >= 0; i-- {
		if s := r.store.summaries[i]; s.OwnerID == ownerID {
			c := *s
			return &c, nil
		}
	}

	return nil, domain.ErrSummaryNotFound
}

// ListByOwner returns committed summaries, newest first.
func (r *SummaryRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.MonthlySummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.MonthlySummary, 0)
	for i := len(r.store.summaries) - 1; i >= 0; i-- {
		if s := r.store.summaries[i]; s.OwnerID == ownerID {
			c := *s
			out = append(out, &c)
		}
	}

	return paginate(out, limit, offset), nil
}

// FinalizationLogRepository implements usecase.FinalizationLogRepository.
type FinalizationLogRepository struct {
	store *Store
}

// NewFinalizationLogRepository creates a new FinalizationLogRepository.
func NewFinalizationLogRepository(store *Store) *FinalizationLogRepository {
	return &FinalizationLogRepository{store: store}
}

// Create stages a log record.
func (r *FinalizationLogRepository) Create(ctx context.Context, tx usecase.Transaction, log *domain.FinalizationLog) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}
	if t == nil {
		return errNoTx
	}

	c := *log
	t.logs = append(t.logs, &c)
	return nil
}

// ListByOwner returns committed log records, newest first.
func (r *FinalizationLogRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.FinalizationLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.FinalizationLog, 0)
	for i := len(r.store.logs) - 1; i >= 0; i-- {
		if l := r.store.logs[i]; l.OwnerID == ownerID {
			c := *l
			out = append(out, &c)
		}
	}

	return paginate(out, limit, offset), nil
}
