// Package budget provides spending limits for the budget alert hook.
package budget

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
)

// StaticPolicy applies the same monthly category limits to every owner.
// Category names match case-insensitively.
type StaticPolicy struct {
	limits map[string]decimal.Decimal
}

// NewStaticPolicy parses limits of the form {"food": "50000"}.
func NewStaticPolicy(raw map[string]string) (*StaticPolicy, error) {
	limits := make(map[string]decimal.Decimal, len(raw))

	for category, value := range raw {
		key := normalize(category)
		if key == "" {
			return nil, fmt.Errorf("%w: empty budget category", domain.ErrInvalidCategory)
		}
		if err := domain.ValidateCategory(key); err != nil {
			return nil, err
		}

		limit, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: budget for %q: %w", domain.ErrInvalidAmount, category, err)
		}
		if !limit.IsPositive() {
			return nil, fmt.Errorf("%w: budget for %q must be positive", domain.ErrInvalidAmount, category)
		}

		limits[key] = limit
	}

	return &StaticPolicy{limits: limits}, nil
}

// Limit returns the limit for category, if one is configured.
func (p *StaticPolicy) Limit(_ context.Context, _ string, category string) (decimal.Decimal, bool) {
	limit, ok := p.limits[normalize(category)]
	return limit, ok
}

// Len returns the number of configured categories.
func (p *StaticPolicy) Len() int {
	return len(p.limits)
}

func normalize(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
