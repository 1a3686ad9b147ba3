package usecase_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/fintrack/internal/adapter/repository/memory"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
	"github.com/iho/fintrack/internal/usecase/mocks"
)

func TestLedgerUseCase_FinalizeMonth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.credit(t, "alice", date(3), 200)
	h.debit(t, "alice", date(9), 50, "food")

	summary, err := h.uc.FinalizeMonth(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !summary.ClosingBalance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected closing balance 150, got %s", summary.ClosingBalance)
	}
	if summary.Period != (domain.Period{Year: 2024, Month: 6}) {
		t.Errorf("expected period 2024-06, got %s", summary.Period)
	}
	if summary.EntryCount != 2 {
		t.Errorf("expected 2 archived entries, got %d", summary.EntryCount)
	}
	if got := h.balances(t, "alice"); len(got) != 0 {
		t.Errorf("expected no active entries, got %v", got)
	}

	logs, err := h.uc.ListFinalizations(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].SummaryID != summary.ID || logs[0].Automatic {
		t.Errorf("expected one manual log for the summary, got %+v", logs)
	}

	balance, err := h.uc.CurrentBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected the closing balance to carry over, got %s", balance)
	}
}

func TestLedgerUseCase_FinalizeMonth_NothingToFinalize(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.uc.FinalizeMonth(ctx, "alice"); !errors.Is(err, domain.ErrNothingToFinalize) {
		t.Fatalf("expected ErrNothingToFinalize on an empty ledger, got %v", err)
	}

	h.credit(t, "alice", date(3), 200)
	if _, err := h.uc.FinalizeMonth(ctx, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := h.uc.FinalizeMonth(ctx, "alice"); !errors.Is(err, domain.ErrNothingToFinalize) {
		t.Errorf("expected ErrNothingToFinalize on repeat, got %v", err)
	}

	summaries, err := h.uc.ListSummaries(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("expected a single summary, got %d", len(summaries))
	}
}

func TestLedgerUseCase_NewEntriesSeedFromClosingBalance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.credit(t, "alice", date(3), 200)
	if _, err := h.uc.FinalizeMonth(ctx, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A backdated entry after finalization still walks from the closing balance.
	h.debit(t, "alice", date(1), 20, "")
	h.credit(t, "alice", date(20), 5)

	if want := []string{"180", "185"}; !reflect.DeepEqual(h.balances(t, "alice"), want) {
		t.Errorf("expected balances %v, got %v", want, h.balances(t, "alice"))
	}

	if _, err := h.uc.FinalizeMonth(ctx, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.credit(t, "alice", date(21), 15)

	balance, err := h.uc.CurrentBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected the latest summary to seed the walk, got %s", balance)
	}
}

func TestLedgerUseCase_RetriesVersionConflicts(t *testing.T) {
	flaky := &flakyLedgers{failures: 2}
	h := newHarness(t, func(cfg *usecase.LedgerConfig) {
		flaky.LedgerRepository = cfg.LedgerRepo.(*memory.LedgerRepository)
		cfg.LedgerRepo = flaky
		cfg.Retrier = conflictRetrier(3)
	})

	entry := h.credit(t, "alice", date(3), 200)

	if flaky.saves != 3 {
		t.Errorf("expected 3 attempts, got %d", flaky.saves)
	}
	if !entry.Balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected balance 200, got %s", entry.Balance)
	}
	if got := h.balances(t, "alice"); len(got) != 1 {
		t.Errorf("failed attempts must leave no rows behind, got %v", got)
	}
}

func TestLedgerUseCase_ConflictExhaustion(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No notification may fire for a mutation that never committed.
	notifier := mocks.NewMockNotifier(ctrl)

	flaky := &flakyLedgers{failures: 100}
	h := newHarness(t, func(cfg *usecase.LedgerConfig) {
		flaky.LedgerRepository = cfg.LedgerRepo.(*memory.LedgerRepository)
		cfg.LedgerRepo = flaky
		cfg.Retrier = conflictRetrier(3)
		cfg.Notifier = notifier
	})

	d := date(3)
	_, err := h.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		OwnerID: "alice",
		Date:    &d,
		Debit:   decimal.NewFromInt(10),
	})

	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if flaky.saves != 3 {
		t.Errorf("expected 3 attempts, got %d", flaky.saves)
	}
	if got := h.balances(t, "alice"); len(got) != 0 {
		t.Errorf("expected nothing stored, got %v", got)
	}
}

func TestLedgerUseCase_ConcurrentWritersSerialize(t *testing.T) {
	h := newHarness(t, func(cfg *usecase.LedgerConfig) {
		cfg.Retrier = conflictRetrier(50)
	})
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			d := date(day)
			_, err := h.uc.CreateEntry(ctx, usecase.CreateEntryInput{OwnerID: "alice", Date: &d, Credit: decimal.NewFromInt(10)})
			errs <- err
		}(i + 1)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []string{"10", "20", "30", "40", "50", "60", "70", "80"}
	if got := h.balances(t, "alice"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected balances %v, got %v", want, got)
	}
}

func TestLedgerUseCase_LowBalanceNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	h := newHarness(t, func(cfg *usecase.LedgerConfig) {
		cfg.Notifier = notifier
	})

	h.credit(t, "alice", date(1), 100)
	h.debit(t, "alice", date(2), 60, "")

	notifier.EXPECT().NotifyLowBalance(gomock.Any(), "alice", eqDecimal("-10")).Times(1)
	h.debit(t, "alice", date(3), 50, "")

	// Already at or below zero: no further signal.
	h.debit(t, "alice", date(4), 5, "")
}

func TestLedgerUseCase_BudgetNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	budget := mocks.NewMockBudgetPolicy(ctrl)
	budget.EXPECT().Limit(gomock.Any(), "alice", "food").Return(decimal.NewFromInt(50), true).AnyTimes()
	budget.EXPECT().Limit(gomock.Any(), "alice", "rent").Return(decimal.Zero, false).AnyTimes()

	h := newHarness(t, func(cfg *usecase.LedgerConfig) {
		cfg.Notifier = notifier
		cfg.Budget = budget
	})

	h.credit(t, "alice", date(1), 1000)
	h.debit(t, "alice", date(2), 30, "food")
	h.debit(t, "alice", date(2), 400, "rent")

	notifier.EXPECT().NotifyBudgetExceeded(gomock.Any(), "alice", "food", eqDecimal("60"), eqDecimal("50")).Times(1)
	h.debit(t, "alice", date(3), 30, "food")
}

func TestLedgerUseCase_FinalizeIfDue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.credit(t, "alice", date(3), 200)

	summary, err := h.uc.FinalizeIfDue(ctx, "alice")
	if !errors.Is(err, domain.ErrNothingToFinalize) || summary != nil {
		t.Fatalf("expected nothing due in the ledger's first month, got %v, %v", summary, err)
	}

	h.clock.Set(time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC))

	summary, err = h.uc.FinalizeIfDue(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary == nil {
		t.Fatal("expected the June ledger to be finalized")
	}
	if summary.Period != (domain.Period{Year: 2024, Month: 6}) || !summary.ClosingBalance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("unexpected summary %+v", summary)
	}

	logs, err := h.uc.ListFinalizations(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || !logs[0].Automatic {
		t.Errorf("expected one automatic log, got %+v", logs)
	}

	summary, err = h.uc.FinalizeIfDue(ctx, "alice")
	if !errors.Is(err, domain.ErrNothingToFinalize) || summary != nil {
		t.Errorf("expected a second run in July to report nothing to finalize, got %v, %v", summary, err)
	}

	// An empty month still advances the marker without producing a summary.
	h.clock.Set(time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC))
	summary, err = h.uc.FinalizeIfDue(ctx, "alice")
	if !errors.Is(err, domain.ErrNothingToFinalize) || summary != nil {
		t.Errorf("expected no summary for an empty ledger, got %v, %v", summary, err)
	}

	// The August run recorded its month, so a repeat stays a no-op.
	h.credit(t, "alice", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), 5)
	if _, err := h.uc.FinalizeIfDue(ctx, "alice"); !errors.Is(err, domain.ErrNothingToFinalize) {
		t.Errorf("expected the August marker to hold, got %v", err)
	}

	summaries, err := h.uc.ListSummaries(ctx, "alice", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("expected exactly one summary, got %d", len(summaries))
	}
}

func TestLedgerUseCase_Recalculate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.credit(t, "alice", date(1), 100)
	h.credit(t, "alice", date(2), 50)

	rec, err := h.uc.Recalculate(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Changed != 0 {
		t.Errorf("expected a consistent ledger to need no writes, got %d", rec.Changed)
	}
	if !rec.Closing.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected closing 150, got %s", rec.Closing)
	}
}
