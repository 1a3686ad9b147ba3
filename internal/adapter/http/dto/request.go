package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// CreateEntryRequest represents a request to record an entry.
// Amounts are in Currency and accept JSON numbers or strings; Date is YYYY-MM-DD
// and defaults to today.
type CreateEntryRequest struct {
	Credit      *decimal.Decimal `json:"credit,omitempty"`
	Debit       *decimal.Decimal `json:"debit,omitempty"`
	Date        string           `json:"date,omitempty"`
	Description string           `json:"description"`
	Category    string           `json:"category,omitempty"`
	Currency    string           `json:"currency,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput(ownerID string) (usecase.CreateEntryInput, error) {
	input := usecase.CreateEntryInput{
		OwnerID:     ownerID,
		Description: r.Description,
		Category:    strings.TrimSpace(r.Category),
		Currency:    r.Currency,
	}

	if r.Credit != nil {
		input.Credit = *r.Credit
	}
	if r.Debit != nil {
		input.Debit = *r.Debit
	}

	var err error
	if input.Date, err = parseOptionalDate(r.Date); err != nil {
		return usecase.CreateEntryInput{}, err
	}

	return input, nil
}

// UpdateEntryRequest is a partial patch; absent fields keep their value.
type UpdateEntryRequest struct {
	Credit      *decimal.Decimal `json:"credit,omitempty"`
	Debit       *decimal.Decimal `json:"debit,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateEntryRequest) ToUseCaseInput(ownerID, id string) (usecase.UpdateEntryInput, error) {
	input := usecase.UpdateEntryInput{
		OwnerID:     ownerID,
		ID:          id,
		Description: r.Description,
		Currency:    r.Currency,
		Credit:      r.Credit,
		Debit:       r.Debit,
	}

	if r.Category != nil {
		category := strings.TrimSpace(*r.Category)
		input.Category = &category
	}

	if r.Date != nil {
		d, err := domain.ParseDate(*r.Date)
		if err != nil {
			return usecase.UpdateEntryInput{}, err
		}
		input.Date = &d
	}

	return input, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}
