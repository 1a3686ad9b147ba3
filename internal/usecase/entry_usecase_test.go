package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/adapter/repository/memory"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

func TestLedgerUseCase_CreateEntry_FirstEntryStartsFromZero(t *testing.T) {
	h := newHarness(t)

	entry := h.credit(t, "alice", date(10), 100)

	if !entry.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected balance 100, got %s", entry.Balance)
	}
	if entry.Currency != "XAF" {
		t.Errorf("expected base currency XAF, got %s", entry.Currency)
	}
	if entry.Version < 1 {
		t.Errorf("expected a stored version, got %d", entry.Version)
	}

	balance, err := h.uc.CurrentBalance(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected current balance 100, got %s", balance)
	}
}

func TestLedgerUseCase_CreateEntry_ConvertsToBase(t *testing.T) {
	h := newHarness(t)

	entry := h.add(t, usecase.CreateEntryInput{
		OwnerID:  "alice",
		Currency: "usd",
		Credit:   decimal.RequireFromString("10.50"),
	})

	if !entry.Credit.Equal(decimal.NewFromInt(6300)) {
		t.Errorf("expected credit 6300 XAF, got %s", entry.Credit)
	}
	if entry.Currency != "USD" {
		t.Errorf("expected submitted currency USD, got %s", entry.Currency)
	}
	if !entry.OriginalAmount.Equal(decimal.RequireFromString("10.5")) {
		t.Errorf("expected original amount 10.5, got %s", entry.OriginalAmount)
	}
	if !entry.Date.Equal(domain.TruncateDate(june15)) {
		t.Errorf("expected entry dated today, got %s", entry.Date)
	}
}

func TestLedgerUseCase_CreateEntry_Backdated(t *testing.T) {
	h := newHarness(t)

	h.credit(t, "alice", date(10), 100)
	h.debit(t, "alice", date(20), 30, "")
	backdated := h.credit(t, "alice", date(5), 50)

	if !backdated.Balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected backdated balance 50, got %s", backdated.Balance)
	}

	want := []string{"50", "150", "120"}
	if got := h.balances(t, "alice"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected balances %v, got %v", want, got)
	}
}

func TestLedgerUseCase_CreateEntry_OwnersAreIsolated(t *testing.T) {
	h := newHarness(t)

	h.credit(t, "alice", date(1), 100)
	h.credit(t, "bob", date(1), 7)

	if got := h.balances(t, "bob"); !reflect.DeepEqual(got, []string{"7"}) {
		t.Errorf("expected bob's ledger to hold only his entry, got %v", got)
	}
}

func TestLedgerUseCase_CreateEntry_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input usecase.CreateEntryInput
		want  error
	}{
		{
			name:  "missing owner",
			input: usecase.CreateEntryInput{Credit: decimal.NewFromInt(1)},
			want:  domain.ErrInvalidOwner,
		},
		{
			name:  "both sides",
			input: usecase.CreateEntryInput{OwnerID: "alice", Credit: decimal.NewFromInt(1), Debit: decimal.NewFromInt(1)},
			want:  domain.ErrAmountSides,
		},
		{
			name:  "neither side",
			input: usecase.CreateEntryInput{OwnerID: "alice"},
			want:  domain.ErrAmountSides,
		},
		{
			name:  "negative amount",
			input: usecase.CreateEntryInput{OwnerID: "alice", Credit: decimal.NewFromInt(-5)},
			want:  domain.ErrInvalidAmount,
		},
		{
			name:  "unknown currency",
			input: usecase.CreateEntryInput{OwnerID: "alice", Currency: "ZZZ", Credit: decimal.NewFromInt(1)},
			want:  domain.ErrInvalidCurrency,
		},
		{
			name:  "sub-cent base amount",
			input: usecase.CreateEntryInput{OwnerID: "alice", Credit: decimal.RequireFromString("0.005")},
			want:  domain.ErrAmountPrecision,
		},
		{
			name:  "sub-cent base amount with explicit currency",
			input: usecase.CreateEntryInput{OwnerID: "alice", Currency: "xaf", Debit: decimal.RequireFromString("12.345")},
			want:  domain.ErrAmountPrecision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.uc.CreateEntry(ctx, tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}

	if got := h.balances(t, "alice"); len(got) != 0 {
		t.Errorf("rejected entries must not be stored, got %v", got)
	}
}

func TestLedgerUseCase_AmountsKeepTwoDecimalPlaces(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	d := date(4)
	cents, err := h.uc.CreateEntry(ctx, usecase.CreateEntryInput{OwnerID: "alice", Date: &d, Credit: decimal.RequireFromString("0.01")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A foreign amount is rounded at conversion, so its precision is free.
	foreign, err := h.uc.CreateEntry(ctx, usecase.CreateEntryInput{
		OwnerID:  "alice",
		Date:     &d,
		Currency: "USD",
		Credit:   decimal.RequireFromString("0.005"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !foreign.Credit.Equal(decimal.NewFromInt(3)) || !foreign.OriginalAmount.Equal(decimal.RequireFromString("0.005")) {
		t.Errorf("expected 0.005 USD stored as 3 XAF, got credit %s original %s", foreign.Credit, foreign.OriginalAmount)
	}

	fine := decimal.RequireFromString("0.015")
	_, err = h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{OwnerID: "alice", ID: cents.ID, Credit: &fine})
	if !errors.Is(err, domain.ErrAmountPrecision) || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected a precision validation error, got %v", err)
	}

	stored, err := h.uc.GetEntry(ctx, "alice", cents.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Credit.Equal(decimal.RequireFromString("0.01")) || !stored.OriginalAmount.Equal(stored.Credit) {
		t.Errorf("expected the rejected patch to leave 0.01, got credit %s original %s", stored.Credit, stored.OriginalAmount)
	}
	if got := h.balances(t, "alice"); !reflect.DeepEqual(got, []string{"0.01", "3.01"}) {
		t.Errorf("expected balances [0.01 3.01], got %v", got)
	}
}

func TestLedgerUseCase_UpdateEntry_Recalculates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.credit(t, "alice", date(5), 50)
	h.credit(t, "alice", date(10), 100)
	last := h.debit(t, "alice", date(20), 30, "")

	amount := decimal.NewFromInt(80)
	updated, err := h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{OwnerID: "alice", ID: first.ID, Credit: &amount})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Balance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected balance 80, got %s", updated.Balance)
	}
	if want := []string{"80", "180", "150"}; !reflect.DeepEqual(h.balances(t, "alice"), want) {
		t.Errorf("expected balances %v, got %v", want, h.balances(t, "alice"))
	}

	// Moving the debit to the start of the month reorders the walk.
	moved := date(1)
	if _, err := h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{OwnerID: "alice", ID: last.ID, Date: &moved}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"-30", "50", "150"}; !reflect.DeepEqual(h.balances(t, "alice"), want) {
		t.Errorf("expected balances %v, got %v", want, h.balances(t, "alice"))
	}
}

func TestLedgerUseCase_UpdateEntry_SwitchesSideAndCurrency(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entry := h.credit(t, "alice", date(5), 50)

	usd := "USD"
	zero := decimal.Zero
	two := decimal.NewFromInt(2)
	updated, err := h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{
		OwnerID:  "alice",
		ID:       entry.ID,
		Currency: &usd,
		Credit:   &zero,
		Debit:    &two,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !updated.Debit.Equal(decimal.NewFromInt(1200)) || !updated.Credit.IsZero() {
		t.Errorf("expected a 1200 XAF debit, got credit %s debit %s", updated.Credit, updated.Debit)
	}
	if !updated.Balance.Equal(decimal.NewFromInt(-1200)) {
		t.Errorf("expected balance -1200, got %s", updated.Balance)
	}
}

func newRacingHarness(t *testing.T, attempts int) (*harness, *racingEntries) {
	t.Helper()

	racing := &racingEntries{}
	h := newHarness(t, func(cfg *usecase.LedgerConfig) {
		racing.EntryRepository = cfg.EntryRepo.(*memory.EntryRepository)
		cfg.EntryRepo = racing
		cfg.Retrier = conflictRetrier(attempts)
	})
	return h, racing
}

func TestLedgerUseCase_UpdateEntry_ReappliesPatchAfterRacingUpdate(t *testing.T) {
	h, racing := newRacingHarness(t, 3)
	ctx := context.Background()

	entry := h.credit(t, "alice", date(3), 100)
	h.debit(t, "alice", date(4), 30, "")

	label := "groceries"
	racing.rivals = 1
	racing.rival = func() {
		if _, err := h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{OwnerID: "alice", ID: entry.ID, Description: &label}); err != nil {
			t.Errorf("rival update: %v", err)
		}
	}

	amount := decimal.NewFromInt(150)
	updated, err := h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{OwnerID: "alice", ID: entry.ID, Credit: &amount})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if racing.rivals != 0 {
		t.Fatalf("expected the rival write to run, %d left", racing.rivals)
	}
	if updated.Description != "groceries" {
		t.Errorf("expected the retry to keep the rival's description, got %q", updated.Description)
	}
	if !updated.Credit.Equal(amount) || !updated.OriginalAmount.Equal(amount) {
		t.Errorf("expected credit 150, got %s (original %s)", updated.Credit, updated.OriginalAmount)
	}
	if updated.Version != entry.Version+2 {
		t.Errorf("expected two committed writes on top of version %d, got %d", entry.Version, updated.Version)
	}
	if got := h.balances(t, "alice"); !reflect.DeepEqual(got, []string{"150", "120"}) {
		t.Errorf("expected balances [150 120], got %v", got)
	}
}

func TestLedgerUseCase_UpdateEntry_ConflictExhaustion(t *testing.T) {
	h, racing := newRacingHarness(t, 3)
	ctx := context.Background()

	entry := h.credit(t, "alice", date(3), 100)

	wins := 0
	racing.rivals = 100
	racing.rival = func() {
		wins++
		label := fmt.Sprintf("rival-%d", wins)
		if _, err := h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{OwnerID: "alice", ID: entry.ID, Description: &label}); err != nil {
			t.Errorf("rival update: %v", err)
		}
	}

	amount := decimal.NewFromInt(150)
	_, err := h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{OwnerID: "alice", ID: entry.ID, Credit: &amount})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if wins < 2 {
		t.Fatalf("expected every attempt to lose a race, got %d rival writes", wins)
	}

	racing.rivals = 0
	stored, err := h.uc.GetEntry(ctx, "alice", entry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Credit.Equal(decimal.NewFromInt(100)) {
		t.Errorf("a lost update must not be applied, got credit %s", stored.Credit)
	}
	if want := fmt.Sprintf("rival-%d", wins); stored.Description != want {
		t.Errorf("expected the last rival's description %q, got %q", want, stored.Description)
	}
	if got := h.balances(t, "alice"); !reflect.DeepEqual(got, []string{"100"}) {
		t.Errorf("expected balance [100], got %v", got)
	}
}

func TestLedgerUseCase_UpdateEntry_UnknownEntry(t *testing.T) {
	h := newHarness(t)
	entry := h.credit(t, "alice", date(5), 50)

	desc := "x"
	_, err := h.uc.UpdateEntry(context.Background(), usecase.UpdateEntryInput{OwnerID: "bob", ID: entry.ID, Description: &desc})
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound for another owner's entry, got %v", err)
	}
}

func TestLedgerUseCase_DeleteEntry_Recalculates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.credit(t, "alice", date(5), 50)
	h.credit(t, "alice", date(10), 100)

	if err := h.uc.DeleteEntry(ctx, "alice", first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"100"}; !reflect.DeepEqual(h.balances(t, "alice"), want) {
		t.Errorf("expected balances %v, got %v", want, h.balances(t, "alice"))
	}

	if err := h.uc.DeleteEntry(ctx, "alice", first.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound on second delete, got %v", err)
	}
}

func TestLedgerUseCase_FinalizedEntriesAreFrozen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entry := h.credit(t, "alice", date(5), 50)
	if _, err := h.uc.FinalizeMonth(ctx, "alice"); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	desc := "changed"
	if _, err := h.uc.UpdateEntry(ctx, usecase.UpdateEntryInput{OwnerID: "alice", ID: entry.ID, Description: &desc}); !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized on update, got %v", err)
	}
	if err := h.uc.DeleteEntry(ctx, "alice", entry.ID); !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Errorf("expected ErrAlreadyFinalized on delete, got %v", err)
	}

	stored, err := h.uc.GetEntry(ctx, "alice", entry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored.Finalized || stored.Description != "" {
		t.Errorf("expected untouched finalized entry, got %+v", stored)
	}
}

func TestLedgerUseCase_ListEntries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.credit(t, "alice", date(5), 50)
	if _, err := h.uc.FinalizeMonth(ctx, "alice"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	h.credit(t, "alice", date(6), 10)

	active, err := h.uc.ListEntries(ctx, "alice", usecase.EntryFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("expected 1 active entry, got %d", len(active))
	}

	all, err := h.uc.ListEntries(ctx, "alice", usecase.EntryFilter{IncludeFinalized: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 entries including finalized, got %d", len(all))
	}
}
