package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntryMutations     *prometheus.CounterVec
	Finalizations      *prometheus.CounterVec
	VersionConflicts   prometheus.Counter
	ConflictsExhausted prometheus.Counter
	RecalcEntries      prometheus.Histogram
	RecalcDuration     prometheus.Histogram

	// Currency metrics
	RateLookups *prometheus.CounterVec
	RateSources *prometheus.CounterVec

	// Notification metrics
	Notifications        *prometheus.CounterVec
	NotificationsDropped prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EntryMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_entry_mutations_total",
				Help: "Entry mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Finalizations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_finalizations_total",
				Help: "Ledger finalizations by trigger",
			},
			[]string{"trigger"},
		),
		VersionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_version_conflicts_total",
			Help: "Optimistic concurrency conflicts that triggered a retry",
		}),
		ConflictsExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_conflicts_exhausted_total",
			Help: "Mutations that gave up after exhausting conflict retries",
		}),
		RecalcEntries: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_recalc_entries",
			Help:    "Active entries walked per balance recalculation",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),
		RecalcDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_recalc_duration_seconds",
			Help:    "Duration of balance recalculations",
			Buckets: prometheus.DefBuckets,
		}),

		RateLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_rate_lookups_total",
				Help: "Currency conversions by outcome",
			},
			[]string{"outcome"},
		),
		RateSources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_rate_sources_total",
				Help: "Exchange rates served by source",
			},
			[]string{"source"},
		),

		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_notifications_total",
				Help: "Post-commit notifications by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_notifications_dropped_total",
			Help: "Notifications dropped because the dispatch queue was full",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),
	}
}
