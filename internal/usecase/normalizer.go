package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// amountScale is the number of decimal places a converted amount is rounded to.
const amountScale = 2

// CurrencyNormalizer converts submitted amounts into the base currency.
type CurrencyNormalizer struct {
	provider     RateProvider
	retrier      Retrier
	metrics      *metrics.Metrics
	baseCurrency string
	timeout      time.Duration
}

// NewCurrencyNormalizer creates a CurrencyNormalizer. retrier may be nil.
func NewCurrencyNormalizer(provider RateProvider, retrier Retrier, baseCurrency string, timeout time.Duration) *CurrencyNormalizer {
	if baseCurrency == "" {
		baseCurrency = DefaultBaseCurrency
	}
	if timeout <= 0 {
		timeout = DefaultRateTimeout
	}

	return &CurrencyNormalizer{
		provider:     provider,
		retrier:      retrier,
		baseCurrency: domain.NormalizeCurrency(baseCurrency),
		timeout:      timeout,
	}
}

// WithMetrics enables rate lookup metrics.
func (n *CurrencyNormalizer) WithMetrics(m *metrics.Metrics) *CurrencyNormalizer {
	n.metrics = m
	return n
}

// BaseCurrency returns the currency balances are kept in.
func (n *CurrencyNormalizer) BaseCurrency() string {
	return n.baseCurrency
}

// ToBase converts amount from currency into the base currency.
func (n *CurrencyNormalizer) ToBase(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	return n.Normalize(ctx, amount, currency, n.baseCurrency)
}

// Normalize converts amount from one currency to another. Identical currencies
// return amount untouched; otherwise amount*rate is rounded half-up to two places.
func (n *CurrencyNormalizer) Normalize(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from = domain.NormalizeCurrency(from)
	to = domain.NormalizeCurrency(to)

	if from == to {
		return amount, nil
	}

	var rate decimal.Decimal
	lookup := func() error {
		rateCtx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		r, err := n.provider.Rate(rateCtx, from, to)
		if err != nil {
			return asRateUnavailable(err, from, to)
		}
		if !r.IsPositive() {
			return fmt.Errorf("%w: non-positive rate %s for %s/%s", domain.ErrRateUnavailable, r, from, to)
		}
		rate = r
		return nil
	}

	var err error
	if n.retrier != nil {
		err = n.retrier.Retry(ctx, lookup)
	} else {
		err = lookup()
	}
	if err != nil {
		n.observe("error")
		return decimal.Zero, asRateUnavailable(err, from, to)
	}

	n.observe("ok")
	// shopspring rounds half away from zero, which is half-up for non-negative amounts.
	return amount.Mul(rate).Round(amountScale), nil
}

func (n *CurrencyNormalizer) observe(outcome string) {
	if n.metrics != nil {
		n.metrics.RateLookups.WithLabelValues(outcome).Inc()
	}
}

func asRateUnavailable(err error, from, to string) error {
	if errors.Is(err, domain.ErrRateUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s/%s: %w", domain.ErrRateUnavailable, from, to, err)
}
