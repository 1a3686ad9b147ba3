package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// EntryResponse represents an entry in API responses. Credit, Debit and Balance
// are in the base currency; OriginalAmount is in Currency.
type EntryResponse struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"`
	Description    string    `json:"description"`
	Category       string    `json:"category,omitempty"`
	Currency       string    `json:"currency"`
	OriginalAmount string    `json:"original_amount"`
	Credit         string    `json:"credit"`
	Debit          string    `json:"debit"`
	Balance        string    `json:"balance"`
	Finalized      bool      `json:"finalized"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:             e.ID,
		Date:           e.Date.Format(domain.DateLayout),
		Description:    e.Description,
		Category:       e.Category,
		Currency:       e.Currency,
		OriginalAmount: money(e.OriginalAmount),
		Credit:         money(e.Credit),
		Debit:          money(e.Debit),
		Balance:        money(e.Balance),
		Finalized:      e.Finalized,
		Version:        e.Version,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// BalanceResponse is an owner's current balance.
type BalanceResponse struct {
	OwnerID  string `json:"owner_id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// SummaryResponse represents a monthly summary.
type SummaryResponse struct {
	ID             string    `json:"id"`
	Period         string    `json:"period"`
	ClosingBalance string    `json:"closing_balance"`
	EntryCount     int       `json:"entry_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// SummaryFromDomain converts a domain summary to response.
func SummaryFromDomain(s *domain.MonthlySummary) *SummaryResponse {
	return &SummaryResponse{
		ID:             s.ID,
		Period:         s.Period.String(),
		ClosingBalance: money(s.ClosingBalance),
		EntryCount:     s.EntryCount,
		CreatedAt:      s.CreatedAt,
	}
}

// SummariesFromDomain converts domain summaries to responses.
func SummariesFromDomain(summaries []*domain.MonthlySummary) []*SummaryResponse {
	result := make([]*SummaryResponse, len(summaries))
	for i, s := range summaries {
		result[i] = SummaryFromDomain(s)
	}
	return result
}

// FinalizationResponse represents one finalization log record.
type FinalizationResponse struct {
	ID             string    `json:"id"`
	SummaryID      string    `json:"summary_id"`
	Period         string    `json:"period"`
	ClosingBalance string    `json:"closing_balance"`
	Automatic      bool      `json:"automatic"`
	FinalizedAt    time.Time `json:"finalized_at"`
}

// FinalizationsFromDomain converts finalization logs to responses.
func FinalizationsFromDomain(logs []*domain.FinalizationLog) []*FinalizationResponse {
	result := make([]*FinalizationResponse, len(logs))
	for i, l := range logs {
		result[i] = &FinalizationResponse{
			ID:             l.ID,
			SummaryID:      l.SummaryID,
			Period:         l.Period.String(),
			ClosingBalance: money(l.ClosingBalance),
			Automatic:      l.Automatic,
			FinalizedAt:    l.FinalizedAt,
		}
	}
	return result
}

// MismatchResponse is an entry whose stored balance disagrees with a fresh walk.
type MismatchResponse struct {
	EntryID  string `json:"entry_id"`
	Stored   string `json:"stored"`
	Expected string `json:"expected"`
}

// ConsistencyResponse reports a reconciliation run.
type ConsistencyResponse struct {
	OwnerID           string             `json:"owner_id"`
	Consistent        bool               `json:"consistent"`
	Repaired          bool               `json:"repaired"`
	EntriesChecked    int                `json:"entries_checked"`
	SeedBalance       string             `json:"seed_balance"`
	RecordedBalance   string             `json:"recorded_balance"`
	CalculatedBalance string             `json:"calculated_balance"`
	Mismatches        []MismatchResponse `json:"mismatches"`
	CheckedAt         time.Time          `json:"checked_at"`
}

// ConsistencyFromReport converts a reconciliation report to response.
func ConsistencyFromReport(r *usecase.ReconciliationReport) *ConsistencyResponse {
	mismatches := make([]MismatchResponse, len(r.Mismatches))
	for i, m := range r.Mismatches {
		mismatches[i] = MismatchResponse{
			EntryID:  m.EntryID,
			Stored:   money(m.Stored),
			Expected: money(m.Expected),
		}
	}

	return &ConsistencyResponse{
		OwnerID:           r.OwnerID,
		Consistent:        r.Consistent,
		Repaired:          r.Repaired,
		EntriesChecked:    r.EntriesChecked,
		SeedBalance:       money(r.SeedBalance),
		RecordedBalance:   money(r.RecordedBalance),
		CalculatedBalance: money(r.CalculatedBalance),
		Mismatches:        mismatches,
		CheckedAt:         r.CheckedAt,
	}
}

// PegResponse describes a fixed parity.
type PegResponse struct {
	Currency string `json:"currency"`
	Anchor   string `json:"anchor"`
	Rate     string `json:"rate"`
}

// CurrenciesResponse describes how amounts are normalized.
type CurrenciesResponse struct {
	Base string       `json:"base"`
	Peg  *PegResponse `json:"peg,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// money renders an amount with two decimal places.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
