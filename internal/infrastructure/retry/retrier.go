package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Retrier implements usecase.Retrier with exponential backoff.
// Only errors accepted by the retryable predicate are retried.
type Retrier struct {
	retryable       func(error) bool
	logger          zerolog.Logger
	name            string
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
}

// Config configures a Retrier.
type Config struct {
	// Name labels retry log lines.
	Name string
	// MaxAttempts counts the first call. Values below 1 mean a single attempt.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Retryable       func(error) bool
	Logger          zerolog.Logger
}

// New creates a new Retrier.
func New(cfg Config) *Retrier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 25 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 500 * time.Millisecond
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = 10 * time.Second
	}
	if cfg.Retryable == nil {
		cfg.Retryable = func(error) bool { return false }
	}

	return &Retrier{
		retryable:       cfg.Retryable,
		logger:          cfg.Logger,
		name:            cfg.Name,
		maxAttempts:     cfg.MaxAttempts,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		maxElapsedTime:  cfg.MaxElapsedTime,
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
// After the last attempt the operation's error is returned unchanged.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		attempt++

		err := operation()
		if err == nil {
			return nil
		}

		if !r.retryable(err) {
			return backoff.Permanent(err)
		}

		if attempt >= r.maxAttempts {
			return backoff.Permanent(err)
		}

		r.logger.Debug().
			Err(err).
			Str("retrier", r.name).
			Int("attempt", attempt).
			Msg("retryable error, backing off")

		return err
	}, backoff.WithContext(b, ctx))
}
