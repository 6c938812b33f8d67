package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Expense metrics
	ExpensesSubmitted prometheus.Counter
	ExpenseAmount     prometheus.Histogram
	Decisions         *prometheus.CounterVec
	DecisionConflicts prometheus.Counter
	WorkflowErrors    *prometheus.CounterVec
	WorkflowDuration  *prometheus.HistogramVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	PublishFailures prometheus.Counter

	// Database metrics
	DBRetries *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates and registers all Prometheus metrics with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all Prometheus metrics and registers them with reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ExpensesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "goexpense_expenses_submitted_total",
			Help: "Total number of expenses submitted",
		}),
		ExpenseAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "goexpense_expense_amount",
			Help:    "Submitted expense amounts",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		}),
		Decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goexpense_decisions_total",
				Help: "Total number of expense decisions by outcome",
			},
			[]string{"decision"},
		),
		DecisionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "goexpense_decision_conflicts_total",
			Help: "Decisions rejected because the expense was no longer pending",
		}),
		WorkflowErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goexpense_workflow_errors_total",
				Help: "Total number of workflow errors by operation and kind",
			},
			[]string{"operation", "kind"},
		),
		WorkflowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goexpense_workflow_duration_seconds",
				Help:    "Duration of workflow operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goexpense_outbox_events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "goexpense_outbox_publish_failures_total",
			Help: "Total outbox publish failures",
		}),

		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goexpense_db_retries_total",
				Help: "Total retried database transactions by error code",
			},
			[]string{"code"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "goexpense_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}
