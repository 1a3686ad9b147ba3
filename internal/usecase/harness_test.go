package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/fintrack/internal/adapter/repository/memory"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/clock"
	"github.com/iho/fintrack/internal/infrastructure/idgen"
	"github.com/iho/fintrack/internal/infrastructure/retry"
	"github.com/iho/fintrack/internal/usecase"
	"github.com/iho/fintrack/internal/usecase/mocks"
)

var june15 = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

type harness struct {
	store     *memory.Store
	clock     *clock.Manual
	entries   *memory.EntryRepository
	summaries *memory.SummaryRepository
	logs      *memory.FinalizationLogRepository
	ledgers   *memory.LedgerRepository
	uc        *usecase.LedgerUseCase
}

// newHarness builds a LedgerUseCase over a fresh memory store. USD converts at 600 XAF.
func newHarness(t *testing.T, configure ...func(*usecase.LedgerConfig)) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	provider.EXPECT().Rate(gomock.Any(), "USD", "XAF").Return(decimal.NewFromInt(600), nil).AnyTimes()

	h := &harness{
		store: memory.NewStore(),
		clock: clock.NewManual(june15),
	}
	h.entries = memory.NewEntryRepository(h.store)
	h.summaries = memory.NewSummaryRepository(h.store)
	h.logs = memory.NewFinalizationLogRepository(h.store)
	h.ledgers = memory.NewLedgerRepository(h.store)

	cfg := usecase.LedgerConfig{
		TxManager:   h.store,
		EntryRepo:   h.entries,
		SummaryRepo: h.summaries,
		LogRepo:     h.logs,
		LedgerRepo:  h.ledgers,
		IDGen:       idgen.NewULIDGeneratorWithClock(h.clock.Now),
		Normalizer:  usecase.NewCurrencyNormalizer(provider, nil, "XAF", time.Second),
		Clock:       h.clock,
		Logger:      zerolog.Nop(),
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	h.uc = usecase.NewLedgerUseCase(cfg)
	return h
}

func conflictRetrier(attempts int) *retry.Retrier {
	return retry.New(retry.Config{
		Name:            "test",
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Retryable: func(err error) bool {
			return errors.Is(err, domain.ErrVersionConflict)
		},
	})
}

func (h *harness) credit(t *testing.T, owner string, date time.Time, amount int64) *domain.Entry {
	t.Helper()
	return h.add(t, usecase.CreateEntryInput{OwnerID: owner, Date: &date, Credit: decimal.NewFromInt(amount)})
}

func (h *harness) debit(t *testing.T, owner string, date time.Time, amount int64, category string) *domain.Entry {
	t.Helper()
	return h.add(t, usecase.CreateEntryInput{OwnerID: owner, Date: &date, Debit: decimal.NewFromInt(amount), Category: category})
}

func (h *harness) add(t *testing.T, input usecase.CreateEntryInput) *domain.Entry {
	t.Helper()
	entry, err := h.uc.CreateEntry(context.Background(), input)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	return entry
}

// balances returns the stored running balances of the owner's active entries in ledger order.
func (h *harness) balances(t *testing.T, owner string) []string {
	t.Helper()
	active, err := h.entries.ListActive(context.Background(), nil, owner)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	out := make([]string, 0, len(active))
	for _, e := range active {
		out = append(out, e.Balance.String())
	}
	return out
}

func date(day int) time.Time {
	return time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC)
}

// flakyLedgers fails the first n saves with a version conflict.
type flakyLedgers struct {
	*memory.LedgerRepository

	mu       sync.Mutex
	failures int
	saves    int
}

func (f *flakyLedgers) Save(ctx context.Context, tx usecase.Transaction, ledger *domain.Ledger) error {
	f.mu.Lock()
	f.saves++
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return domain.ErrVersionConflict
	}
	f.mu.Unlock()
	return f.LedgerRepository.Save(ctx, tx, ledger)
}

// racingEntries commits a rival write whenever an entry is read inside a
// transaction, while rivals remain. The rival's own reads pass through.
type racingEntries struct {
	*memory.EntryRepository

	rivals int
	rival  func()
	busy   bool
}

func (r *racingEntries) GetByID(ctx context.Context, tx usecase.Transaction, ownerID, id string) (*domain.Entry, error) {
	if tx != nil && r.rivals > 0 && !r.busy {
		r.rivals--
		r.busy = true
		r.rival()
		r.busy = false
	}
	return r.EntryRepository.GetByID(ctx, tx, ownerID, id)
}

// decimalEq matches decimals by value rather than representation.
type decimalEq struct{ want decimal.Decimal }

func eqDecimal(s string) gomock.Matcher {
	return decimalEq{want: decimal.RequireFromString(s)}
}

func (m decimalEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalEq) String() string {
	return fmt.Sprintf("equals %s", m.want)
}
