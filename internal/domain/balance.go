package domain

import "github.com/shopspring/decimal"

// RunningBalance walks entries in the given order starting from seed and sets
// each entry's Balance. It returns the entries whose balance changed and the
// final running balance (seed when entries is empty).
func RunningBalance(seed decimal.Decimal, entries []*Entry) ([]*Entry, decimal.Decimal) {
	running := seed
	changed := make([]*Entry, 0)

	for _, e := range entries {
		running = running.Add(e.Net())
		if !e.Balance.Equal(running) {
			e.Balance = running
			changed = append(changed, e)
		}
	}

	return changed, running
}

// BalanceMismatch describes an entry whose stored balance disagrees with the walk.
type BalanceMismatch struct {
	EntryID  string
	Stored   decimal.Decimal
	Expected decimal.Decimal
}

// VerifyRunningBalance walks entries from seed without modifying them.
func VerifyRunningBalance(seed decimal.Decimal, entries []*Entry) ([]BalanceMismatch, decimal.Decimal) {
	running := seed
	var mismatches []BalanceMismatch

	for _, e := range entries {
		running = running.Add(e.Net())
		if !e.Balance.Equal(running) {
			mismatches = append(mismatches, BalanceMismatch{
				EntryID:  e.ID,
				Stored:   e.Balance,
				Expected: running,
			})
		}
	}

	return mismatches, running
}

// CrossedToNonPositive reports whether a balance moved from positive to zero or below.
func CrossedToNonPositive(before, after decimal.Decimal) bool {
	return before.IsPositive() && !after.IsPositive()
}
