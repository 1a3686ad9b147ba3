package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency  = fmt.Errorf("%w: invalid currency code", ErrValidation)
	ErrAmountTooLarge   = fmt.Errorf("%w: amount exceeds maximum allowed", ErrValidation)
	ErrInvalidCategory  = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrInvalidIDFormat  = errors.New("invalid ID format")
	ErrInvalidDateRange = fmt.Errorf("%w: date out of range", ErrValidation)
)

// Validation constants
const (
	MaxDescriptionLength = 500
	MaxCategoryLength    = 64
	MaxEntryAmount       = "1000000000000" // 1 trillion
	MinEntryYear         = 1970
	MaxEntryYear         = 9999

	// AmountScale is the number of decimal places the ledger stores.
	AmountScale = 2
)

var maxEntryAmount = decimal.RequireFromString(MaxEntryAmount)

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// ValidateCurrency validates an ISO 4217 currency code.
func ValidateCurrency(currency string) error {
	currency = NormalizeCurrency(currency)

	if len(currency) != 3 || money.GetCurrency(currency) == nil {
		return fmt.Errorf("%w: %q is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a credit or debit side. Zero is allowed; the other side carries the value.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidAmount)
	}

	if amount.GreaterThan(maxEntryAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// ValidateStoredAmount rejects base-currency amounts finer than the ledger's 2dp scale.
func ValidateStoredAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(AmountScale)) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrAmountPrecision)
	}
	return nil
}

// ValidateSides checks that exactly one of credit and debit is non-zero.
func ValidateSides(credit, debit decimal.Decimal) error {
	if err := ValidateAmount(credit); err != nil {
		return err
	}
	if err := ValidateAmount(debit); err != nil {
		return err
	}

	if credit.IsZero() == debit.IsZero() {
		return fmt.Errorf("%w: %w", ErrValidation, ErrAmountSides)
	}

	return nil
}

// ValidateDescription validates description length.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: %w: exceeds %d characters", ErrValidation, ErrDescriptionLength, MaxDescriptionLength)
	}
	return nil
}

// ValidateCategory validates a category label. Empty means uncategorized.
func ValidateCategory(category string) error {
	if len(category) > MaxCategoryLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidCategory, MaxCategoryLength)
	}

	if strings.ContainsAny(category, "\n\r\t") {
		return fmt.Errorf("%w: contains control characters", ErrInvalidCategory)
	}

	return nil
}

// ValidateOwnerID validates that an owner id was resolved.
func ValidateOwnerID(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidOwner)
	}
	return nil
}

// ValidateEntryID checks that id is a well-formed ULID.
func ValidateEntryID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidIDFormat)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
