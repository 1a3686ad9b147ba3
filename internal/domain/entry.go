package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of an entry date.
const DateLayout = "2006-01-02"

// Entry is a single dated credit or debit in an owner's ledger.
// Credit and Debit are stored in the base currency; OriginalAmount and Currency
// keep what the caller submitted.
type Entry struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Date           time.Time
	ID             string
	OwnerID        string
	Description    string
	Category       string
	Currency       string
	Credit         decimal.Decimal
	Debit          decimal.Decimal
	OriginalAmount decimal.Decimal
	Balance        decimal.Decimal
	Version        int64
	Finalized      bool
}

// Validate checks the amount sides and text fields.
func (e *Entry) Validate() error {
	if err := ValidateOwnerID(e.OwnerID); err != nil {
		return err
	}
	if err := ValidateSides(e.Credit, e.Debit); err != nil {
		return err
	}
	if err := ValidateStoredAmount(e.Credit.Add(e.Debit)); err != nil {
		return err
	}
	if err := ValidateDescription(e.Description); err != nil {
		return err
	}
	if err := ValidateCategory(e.Category); err != nil {
		return err
	}
	if err := ValidateCurrency(e.Currency); err != nil {
		return err
	}
	if y := e.Date.Year(); y < MinEntryYear || y > MaxEntryYear {
		return ErrInvalidDateRange
	}
	return nil
}

// Net returns credit minus debit.
func (e *Entry) Net() decimal.Decimal {
	return e.Credit.Sub(e.Debit)
}

// IsDebit reports whether the entry moves money out of the ledger.
func (e *Entry) IsDebit() bool {
	return e.Debit.IsPositive()
}

// Period returns the calendar month the entry is dated in.
func (e *Entry) Period() Period {
	return PeriodOf(e.Date)
}

// Before reports whether e sorts before other in ledger order (date asc, id asc).
func (e *Entry) Before(other *Entry) bool {
	if !e.Date.Equal(other.Date) {
		return e.Date.Before(other.Date)
	}
	return e.ID < other.ID
}

// Clone returns a copy that can be mutated without touching e.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// SortEntries orders entries in ledger order.
func SortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Before(entries[j])
	})
}

// TruncateDate drops the time of day, keeping the calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a %s date", ErrInvalidDateRange, s, DateLayout)
	}
	return t, nil
}
