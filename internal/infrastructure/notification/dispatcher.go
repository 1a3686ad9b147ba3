// Package notification delivers post-commit ledger alerts off the request path.
package notification

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// Kind identifies an alert type.
type Kind string

const (
	KindLowBalance     Kind = "low_balance"
	KindBudgetExceeded Kind = "budget_exceeded"
)

// Notification is one alert for one owner.
type Notification struct {
	Kind     Kind
	OwnerID  string
	Balance  decimal.Decimal // low_balance
	Category string          // budget_exceeded
	Spent    decimal.Decimal // budget_exceeded
	Limit    decimal.Decimal // budget_exceeded
}

// Sink delivers notifications to the outside world.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// Dispatcher implements usecase.Notifier. Notify calls never block: alerts are
// queued and delivered by Start, and dropped when the queue is full.
type Dispatcher struct {
	sink    Sink
	logger  zerolog.Logger
	metrics *metrics.Metrics
	queue   chan Notification

	mu     sync.RWMutex
	closed bool
}

// Config for Dispatcher.
type Config struct {
	Sink    Sink
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Buffer  int // queue capacity
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Sink == nil {
		cfg.Sink = NewLogSink(cfg.Logger)
	}

	return &Dispatcher{
		sink:    cfg.Sink,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		queue:   make(chan Notification, cfg.Buffer),
	}
}

// NotifyLowBalance queues a low-balance alert.
func (d *Dispatcher) NotifyLowBalance(_ context.Context, ownerID string, balance decimal.Decimal) {
	d.enqueue(Notification{Kind: KindLowBalance, OwnerID: ownerID, Balance: balance})
}

// NotifyBudgetExceeded queues a budget alert.
func (d *Dispatcher) NotifyBudgetExceeded(_ context.Context, ownerID, category string, spent, limit decimal.Decimal) {
	d.enqueue(Notification{
		Kind:     KindBudgetExceeded,
		OwnerID:  ownerID,
		Category: category,
		Spent:    spent,
		Limit:    limit,
	})
}

func (d *Dispatcher) enqueue(n Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(n, "dispatcher closed")
		return
	}

	select {
	case d.queue <- n:
	default:
		d.drop(n, "queue full")
	}
}

func (d *Dispatcher) drop(n Notification, reason string) {
	if d.metrics != nil {
		d.metrics.NotificationsDropped.Inc()
	}
	d.logger.Warn().
		Str("kind", string(n.Kind)).
		Str("owner_id", n.OwnerID).
		Str("reason", reason).
		Msg("notification dropped")
}

// Start delivers queued notifications until ctx is cancelled, then drains
// what is already queued and returns ctx.Err().
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().Int("buffer", cap(d.queue)).Msg("notification dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.close()
			d.drain()
			d.logger.Info().Msg("notification dispatcher shutting down")
			return ctx.Err()
		case n := <-d.queue:
			d.deliver(context.WithoutCancel(ctx), n)
		}
	}
}

func (d *Dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *Dispatcher) drain() {
	for {
		select {
		case n := <-d.queue:
			d.deliver(context.Background(), n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	outcome := "delivered"
	if err := d.sink.Deliver(ctx, n); err != nil {
		outcome = "failed"
		d.logger.Error().Err(err).
			Str("kind", string(n.Kind)).
			Str("owner_id", n.OwnerID).
			Msg("failed to deliver notification")
	}

	if d.metrics != nil {
		d.metrics.Notifications.WithLabelValues(string(n.Kind), outcome).Inc()
	}
}

// LogSink writes notifications to the log.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver logs the notification.
func (s *LogSink) Deliver(_ context.Context, n Notification) error {
	event := s.logger.Warn().
		Str("kind", string(n.Kind)).
		Str("owner_id", n.OwnerID)

	switch n.Kind {
	case KindLowBalance:
		event = event.Str("balance", n.Balance.String())
	case KindBudgetExceeded:
		event = event.
			Str("category", n.Category).
			Str("spent", n.Spent.String()).
			Str("limit", n.Limit.String())
	}

	event.Msg("ledger alert")
	return nil
}
