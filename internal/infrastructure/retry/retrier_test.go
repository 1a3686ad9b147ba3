package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func fastRetrier(maxAttempts int) *Retrier {
	return New(Config{
		Name:            "test",
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		Retryable:       func(err error) bool { return errors.Is(err, errTransient) },
	})
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := fastRetrier(3)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errTransient
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsAfterMaxAttempts(t *testing.T) {
	r := fastRetrier(3)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return errTransient
	})

	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error after exhaustion, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := fastRetrier(3)
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierDefaultsToSingleAttempt(t *testing.T) {
	r := New(Config{})

	attempts := 0
	_ = r.Retry(context.Background(), func() error {
		attempts++
		return errTransient
	})

	if attempts != 1 {
		t.Fatalf("expected 1 attempt without a retryable predicate, got %d", attempts)
	}
}

func TestRetrierHonoursCancelledContext(t *testing.T) {
	r := New(Config{
		MaxAttempts:     10,
		InitialInterval: 50 * time.Millisecond,
		Retryable:       func(error) bool { return true },
	})

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return errTransient
	})

	if err == nil {
		t.Fatalf("expected error after cancellation")
	}
	if attempts != 1 {
		t.Fatalf("expected retries to stop after cancellation, got %d attempts", attempts)
	}
}
