package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// DefaultBaseURL is the public Frankfurter API.
const DefaultBaseURL = "https://api.frankfurter.app"

// maxBodyBytes caps how much of a rate response is read.
const maxBodyBytes = 1 << 20

// HTTPProvider fetches rates from a Frankfurter-compatible API:
// GET {baseURL}/latest?from=X&to=Y -> {"rates": {"Y": 1.23}}.
type HTTPProvider struct {
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// NewHTTPProvider creates an HTTPProvider.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTPProvider{
		client:  cfg.Client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate fetches the latest rate for the pair. Every failure wraps domain.ErrRateUnavailable.
func (p *HTTPProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = domain.NormalizeCurrency(from)
	to = domain.NormalizeCurrency(to)

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	endpoint := p.baseURL + "/latest?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", domain.ErrRateUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: request failed: %w", domain.ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: rate API returned status %d", domain.ErrRateUnavailable, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to parse response: %w", domain.ErrRateUnavailable, err)
	}

	rate, ok := body.Rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no %s rate for %s", domain.ErrRateUnavailable, to, from)
	}

	if p.metrics != nil {
		p.metrics.RateSources.WithLabelValues("network").Inc()
	}
	p.logger.Debug().
		Str("from", from).
		Str("to", to).
		Str("rate", rate.String()).
		Str("date", body.Date).
		Msg("fetched exchange rate")

	return rate, nil
}
