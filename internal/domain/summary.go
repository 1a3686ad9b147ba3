package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the calendar month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Before reports whether p is an earlier month than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Start returns midnight UTC on the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first day of the following month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// MonthlySummary snapshots the closing balance of a finalization.
// Summaries are never mutated; the latest one seeds every recalculation.
type MonthlySummary struct {
	CreatedAt      time.Time
	ID             string
	OwnerID        string
	Period         Period
	ClosingBalance decimal.Decimal
	EntryCount     int
}

// FinalizationLog records one finalization event.
type FinalizationLog struct {
	FinalizedAt    time.Time
	ID             string
	OwnerID        string
	SummaryID      string
	Period         Period
	ClosingBalance decimal.Decimal
	Automatic      bool
}

// Ledger is the per-owner head record. Every mutation of an owner's ledger
// bumps Version, so two writers racing on the same owner cannot both commit.
type Ledger struct {
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastFinalizedAt *time.Time
	OwnerID         string
	// AutoFinalizedThrough is the last calendar month the scheduler has handled.
	AutoFinalizedThrough Period
	Version              int64
}

// DueForAutoFinalization reports whether the scheduler has not yet handled now's month.
func (l *Ledger) DueForAutoFinalization(now time.Time) bool {
	return l.AutoFinalizedThrough.Before(PeriodOf(now))
}
