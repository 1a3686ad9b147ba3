package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCurrency(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"usd", "EUR", " xaf "} {
		if err := ValidateCurrency(code); err != nil {
			t.Fatalf("expected %q to be accepted, got %v", code, err)
		}
	}

	for _, code := range []string{"XYZ", "", "EURO"} {
		err := ValidateCurrency(code)
		if !errors.Is(err, ErrInvalidCurrency) {
			t.Fatalf("expected ErrInvalidCurrency for %q, got %v", code, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected currency error to be a validation error, got %v", err)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	if err := ValidateAmount(decimal.NewFromFloat(100.25)); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}

	if err := ValidateAmount(decimal.Zero); err != nil {
		t.Fatalf("expected zero side to be accepted, got %v", err)
	}

	if err := ValidateAmount(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	huge := decimal.RequireFromString(MaxEntryAmount).Add(decimal.NewFromInt(1))
	if err := ValidateAmount(huge); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestValidateStoredAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount  string
		wantErr bool
	}{
		{amount: "0"},
		{amount: "0.01"},
		{amount: "1250.50"},
		{amount: "0.500"},
		{amount: "0.005", wantErr: true},
		{amount: "12.345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := ValidateStoredAmount(decimal.RequireFromString(tt.amount))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected %s to be accepted, got %v", tt.amount, err)
				}
				return
			}
			if !errors.Is(err, ErrAmountPrecision) || !errors.Is(err, ErrValidation) {
				t.Fatalf("expected a precision validation error for %s, got %v", tt.amount, err)
			}
		})
	}
}

func TestValidateSides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		credit  decimal.Decimal
		debit   decimal.Decimal
		wantErr error
	}{
		{name: "credit only", credit: decimal.NewFromInt(10), debit: decimal.Zero},
		{name: "debit only", credit: decimal.Zero, debit: decimal.NewFromInt(10)},
		{name: "both zero", credit: decimal.Zero, debit: decimal.Zero, wantErr: ErrAmountSides},
		{name: "both set", credit: decimal.NewFromInt(1), debit: decimal.NewFromInt(1), wantErr: ErrAmountSides},
		{name: "negative credit", credit: decimal.NewFromInt(-5), debit: decimal.Zero, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSides(tt.credit, tt.debit)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrValidation) {
				t.Fatalf("expected %v wrapped as validation error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateCategoryAndDescription(t *testing.T) {
	t.Parallel()

	if err := ValidateCategory(""); err != nil {
		t.Fatalf("expected empty category to be allowed, got %v", err)
	}
	if err := ValidateCategory("food\nrent"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if err := ValidateCategory(strings.Repeat("c", MaxCategoryLength+1)); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory for long category, got %v", err)
	}
	if err := ValidateDescription(strings.Repeat("d", MaxDescriptionLength+1)); !errors.Is(err, ErrDescriptionLength) {
		t.Fatalf("expected ErrDescriptionLength, got %v", err)
	}
}

func TestValidateEntryID(t *testing.T) {
	t.Parallel()

	if err := ValidateEntryID("01ARZ3NDEKTSV4RRFFQ69G5FAV"); err != nil {
		t.Fatalf("expected valid ULID, got %v", err)
	}
	if err := ValidateEntryID("not-an-id"); !errors.Is(err, ErrInvalidIDFormat) {
		t.Fatalf("expected ErrInvalidIDFormat, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset, _ := ValidatePagination(0, -3)
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults 50/0, got %d/%d", limit, offset)
	}

	limit, _, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Fatalf("expected limit capped at 1000, got %d", limit)
	}
}
