// Package rates provides exchange-rate sources for the currency normalizer.
package rates

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
	"github.com/iho/fintrack/internal/usecase"
)

// divisionPrecision is the number of places kept when inverting a peg.
const divisionPrecision = 16

// Peg fixes one currency to an anchor: 1 Anchor = Units Pegged.
type Peg struct {
	Pegged string
	Anchor string
	Units  decimal.Decimal
}

// DefaultPeg is the CFA franc's fixed parity with the euro.
var DefaultPeg = Peg{
	Pegged: "XAF",
	Anchor: "EUR",
	Units:  decimal.RequireFromString("655.957"),
}

// PeggedProvider serves pairs involving a pegged currency from the fixed parity,
// consulting next only for the anchor leg of a cross rate.
type PeggedProvider struct {
	peg     Peg
	next    usecase.RateProvider
	metrics *metrics.Metrics
}

// NewPeggedProvider creates a PeggedProvider. next may be nil when only the peg pair is needed.
func NewPeggedProvider(peg Peg, next usecase.RateProvider, m *metrics.Metrics) *PeggedProvider {
	peg.Pegged = domain.NormalizeCurrency(peg.Pegged)
	peg.Anchor = domain.NormalizeCurrency(peg.Anchor)

	return &PeggedProvider{peg: peg, next: next, metrics: m}
}

// Rate returns units of `to` per unit of `from`.
func (p *PeggedProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = domain.NormalizeCurrency(from)
	to = domain.NormalizeCurrency(to)

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	pegged, anchor := p.peg.Pegged, p.peg.Anchor
	perPegged := decimal.NewFromInt(1).DivRound(p.peg.Units, divisionPrecision)

	switch {
	case from == anchor && to == pegged:
		p.observe("peg")
		return p.peg.Units, nil
	case from == pegged && to == anchor:
		p.observe("peg")
		return perPegged, nil
	case from == pegged:
		// pegged -> anchor -> to
		r, err := p.delegate(ctx, anchor, to)
		if err != nil {
			return decimal.Zero, err
		}
		return perPegged.Mul(r), nil
	case to == pegged:
		// from -> anchor -> pegged
		r, err := p.delegate(ctx, from, anchor)
		if err != nil {
			return decimal.Zero, err
		}
		return r.Mul(p.peg.Units), nil
	default:
		return p.delegate(ctx, from, to)
	}
}

func (p *PeggedProvider) delegate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if p.next == nil {
		return decimal.Zero, domain.ErrRateUnavailable
	}
	return p.next.Rate(ctx, from, to)
}

func (p *PeggedProvider) observe(source string) {
	if p.metrics != nil {
		p.metrics.RateSources.WithLabelValues(source).Inc()
	}
}
