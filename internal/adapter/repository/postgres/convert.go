package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/postgres/generated"
)

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}

func timeToPgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: domain.TruncateDate(t), Valid: true}
}

func pgDateToTime(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func periodOf(year, month int32) domain.Period {
	return domain.Period{Year: int(year), Month: time.Month(month)}
}

func rowToEntry(row generated.Entry) *domain.Entry {
	return &domain.Entry{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		Date:           pgDateToTime(row.EntryDate),
		Description:    row.Description,
		Category:       row.Category,
		Currency:       row.Currency,
		Credit:         numericToDecimal(row.Credit),
		Debit:          numericToDecimal(row.Debit),
		OriginalAmount: numericToDecimal(row.OriginalAmount),
		Balance:        numericToDecimal(row.Balance),
		Finalized:      row.Finalized,
		Version:        row.Version,
		CreatedAt:      row.CreatedAt.Time.UTC(),
		UpdatedAt:      row.UpdatedAt.Time.UTC(),
	}
}

func rowsToEntries(rows []generated.Entry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}
	return entries
}

func rowToSummary(row generated.MonthlySummary) *domain.MonthlySummary {
	return &domain.MonthlySummary{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		Period:         periodOf(row.PeriodYear, row.PeriodMonth),
		ClosingBalance: numericToDecimal(row.ClosingBalance),
		EntryCount:     int(row.EntryCount),
		CreatedAt:      row.CreatedAt.Time.UTC(),
	}
}

func rowToFinalizationLog(row generated.FinalizationLog) *domain.FinalizationLog {
	return &domain.FinalizationLog{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		SummaryID:      row.SummaryID,
		Period:         periodOf(row.PeriodYear, row.PeriodMonth),
		ClosingBalance: numericToDecimal(row.ClosingBalance),
		Automatic:      row.Automatic,
		FinalizedAt:    row.FinalizedAt.Time.UTC(),
	}
}

func rowToLedger(row generated.Ledger) *domain.Ledger {
	l := &domain.Ledger{
		OwnerID:              row.OwnerID,
		AutoFinalizedThrough: periodOf(row.AutoFinalizedYear, row.AutoFinalizedMonth),
		Version:              row.Version,
		CreatedAt:            row.CreatedAt.Time.UTC(),
		UpdatedAt:            row.UpdatedAt.Time.UTC(),
	}
	if row.LastFinalizedAt.Valid {
		at := row.LastFinalizedAt.Time.UTC()
		l.LastFinalizedAt = &at
	}
	return l
}
