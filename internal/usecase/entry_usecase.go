package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
)

// CreateEntryInput represents input for creating an entry.
// Credit and Debit are expressed in Currency; an empty Currency means the base currency.
type CreateEntryInput struct {
	Date        *time.Time
	OwnerID     string
	Description string
	Category    string
	Currency    string
	Credit      decimal.Decimal
	Debit       decimal.Decimal
}

// UpdateEntryInput is a partial patch. Nil fields keep their stored value.
// Amounts are expressed in Currency, or in the entry's current currency when Currency is nil.
type UpdateEntryInput struct {
	Date        *time.Time
	Description *string
	Category    *string
	Currency    *string
	Credit      *decimal.Decimal
	Debit       *decimal.Decimal
	OwnerID     string
	ID          string
}

// CreateEntry normalizes the amount into the base currency, inserts the entry and
// recomputes the owner's running balances.
func (uc *LedgerUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.Entry, error) {
	if err := domain.ValidateOwnerID(input.OwnerID); err != nil {
		return nil, err
	}

	currency := domain.NormalizeCurrency(input.Currency)
	if currency == "" {
		currency = uc.normalizer.BaseCurrency()
	}
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}
	if err := domain.ValidateSides(input.Credit, input.Debit); err != nil {
		return nil, err
	}

	date := domain.TruncateDate(uc.clock.Now())
	if input.Date != nil {
		date = domain.TruncateDate(*input.Date)
	}

	original := input.Credit
	if original.IsZero() {
		original = input.Debit
	}

	base, err := uc.normalizer.ToBase(ctx, original, currency)
	if err != nil {
		return nil, err
	}

	draft := &domain.Entry{
		ID:             uc.idGen.Generate(),
		OwnerID:        input.OwnerID,
		Date:           date,
		Description:    input.Description,
		Category:       input.Category,
		Currency:       currency,
		OriginalAmount: original,
		Credit:         decimal.Zero,
		Debit:          decimal.Zero,
	}
	if input.Credit.IsPositive() {
		draft.Credit = base
	} else {
		draft.Debit = base
	}

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Entry
	err = uc.mutate(ctx, input.OwnerID, "create", nil,
		func(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time, fx *effects) error {
			entry := draft.Clone()
			entry.Version = 1
			entry.CreatedAt = now
			entry.UpdatedAt = now

			if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
				return err
			}

			rec, err := uc.recalculator.Recalculate(ctx, tx, input.OwnerID, now)
			if err != nil {
				return err
			}

			created = findEntry(rec.Entries, entry.ID)
			if created == nil {
				created = entry
			}
			fx.after = rec.Closing
			fx.budget = budgetChecksFor(created)
			return nil
		})
	if err != nil {
		return nil, err
	}

	uc.logger.Debug().
		Str("owner_id", created.OwnerID).
		Str("entry_id", created.ID).
		Str("balance", created.Balance.String()).
		Msg("entry created")

	return created, nil
}

// UpdateEntry applies a partial patch to an active entry and recomputes balances.
// The amount is re-normalized only when the amount or currency changes.
func (uc *LedgerUseCase) UpdateEntry(ctx context.Context, input UpdateEntryInput) (*domain.Entry, error) {
	if err := domain.ValidateOwnerID(input.OwnerID); err != nil {
		return nil, err
	}

	var (
		next    *domain.Entry
		updated *domain.Entry
	)

	prepare := func(ctx context.Context) error {
		current, err := uc.entryRepo.GetByID(ctx, nil, input.OwnerID, input.ID)
		if err != nil {
			return err
		}
		if current.Finalized {
			return domain.ErrAlreadyFinalized
		}

		next, err = uc.applyPatch(ctx, current, input)
		return err
	}

	err := uc.mutate(ctx, input.OwnerID, "update", prepare,
		func(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time, fx *effects) error {
			stored, err := uc.entryRepo.GetByID(ctx, tx, input.OwnerID, input.ID)
			if err != nil {
				return err
			}
			if stored.Finalized {
				return domain.ErrAlreadyFinalized
			}
			if stored.Version != next.Version {
				return domain.ErrVersionConflict
			}

			entry := next.Clone()
			entry.UpdatedAt = now
			if err := uc.entryRepo.Update(ctx, tx, entry); err != nil {
				return err
			}

			rec, err := uc.recalculator.Recalculate(ctx, tx, input.OwnerID, now)
			if err != nil {
				return err
			}

			updated = findEntry(rec.Entries, entry.ID)
			if updated == nil {
				updated = entry
			}
			fx.after = rec.Closing
			fx.budget = budgetChecksFor(updated)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (uc *LedgerUseCase) applyPatch(ctx context.Context, current *domain.Entry, input UpdateEntryInput) (*domain.Entry, error) {
	next := current.Clone()

	if input.Date != nil {
		next.Date = domain.TruncateDate(*input.Date)
	}
	if input.Description != nil {
		next.Description = *input.Description
	}
	if input.Category != nil {
		next.Category = *input.Category
	}

	currency := current.Currency
	if input.Currency != nil {
		currency = domain.NormalizeCurrency(*input.Currency)
		if err := domain.ValidateCurrency(currency); err != nil {
			return nil, err
		}
	}

	origCredit, origDebit := decimal.Zero, decimal.Zero
	if current.IsDebit() {
		origDebit = current.OriginalAmount
	} else {
		origCredit = current.OriginalAmount
	}
	newCredit, newDebit := origCredit, origDebit
	if input.Credit != nil {
		newCredit = *input.Credit
	}
	if input.Debit != nil {
		newDebit = *input.Debit
	}
	if err := domain.ValidateSides(newCredit, newDebit); err != nil {
		return nil, err
	}

	amountChanged := !newCredit.Equal(origCredit) || !newDebit.Equal(origDebit)
	if amountChanged || currency != current.Currency {
		original := newCredit
		if original.IsZero() {
			original = newDebit
		}

		base, err := uc.normalizer.ToBase(ctx, original, currency)
		if err != nil {
			return nil, err
		}

		next.Currency = currency
		next.OriginalAmount = original
		next.Credit, next.Debit = decimal.Zero, decimal.Zero
		if newCredit.IsPositive() {
			next.Credit = base
		} else {
			next.Debit = base
		}
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	return next, nil
}

// DeleteEntry removes an active entry and recomputes balances.
func (uc *LedgerUseCase) DeleteEntry(ctx context.Context, ownerID, id string) error {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return err
	}

	return uc.mutate(ctx, ownerID, "delete", nil,
		func(ctx context.Context, tx Transaction, ledger *domain.Ledger, now time.Time, fx *effects) error {
			stored, err := uc.entryRepo.GetByID(ctx, tx, ownerID, id)
			if err != nil {
				return err
			}
			if stored.Finalized {
				return domain.ErrAlreadyFinalized
			}

			if err := uc.entryRepo.Delete(ctx, tx, ownerID, id, stored.Version); err != nil {
				return err
			}

			rec, err := uc.recalculator.Recalculate(ctx, tx, ownerID, now)
			if err != nil {
				return err
			}
			fx.after = rec.Closing
			return nil
		})
}

// GetEntry returns one of the owner's entries. Entries of other owners are reported as not found.
func (uc *LedgerUseCase) GetEntry(ctx context.Context, ownerID, id string) (*domain.Entry, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	return uc.entryRepo.GetByID(ctx, nil, ownerID, id)
}

// ListEntries returns the owner's entries in ledger order. Finalized entries are
// excluded unless requested.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, ownerID string, filter EntryFilter) ([]*domain.Entry, error) {
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset, _ = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.entryRepo.List(ctx, ownerID, filter)
}

func findEntry(entries []*domain.Entry, id string) *domain.Entry {
	for _, e := range entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func budgetChecksFor(e *domain.Entry) []budgetCheck {
	if e == nil || !e.IsDebit() || e.Category == "" {
		return nil
	}
	return []budgetCheck{{category: e.Category, period: e.Period()}}
}
