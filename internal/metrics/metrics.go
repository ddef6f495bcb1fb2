package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Database
	// ============================================
	DBConnectionPoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_pool_size",
		Help: "Database connection pool size",
	})

	DBConnectionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_active",
		Help: "Number of active database connections",
	})

	DBConnectionIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_idle",
		Help: "Number of idle database connections",
	})

	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})

	// ============================================
	// NATS
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"event_type"},
	)

	NATSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_nats_messages_received_total",
			Help: "Total number of NATS messages received",
		},
		[]string{"event_type"},
	)

	NATSMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_nats_messages_failed_total",
			Help: "Total number of NATS messages failed to process",
		},
		[]string{"event_type", "error_type"},
	)

	// ============================================
	// Task lifecycle
	// ============================================
	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_tasks_created_total",
		Help: "Total number of escrow-backed tasks created",
	})

	EscrowVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_escrow_verifications_total",
			Help: "Escrow verification outcomes",
		},
		[]string{"result"},
	)

	EscrowLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backend_escrow_lookup_duration_seconds",
		Help:    "Chain lookup latency for escrow verification",
		Buckets: prometheus.DefBuckets,
	})

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_submissions_total",
			Help: "Submission attempts by result",
		},
		[]string{"result"},
	)

	// ============================================
	// Payouts
	// ============================================
	PayoutsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_payouts_requested_total",
		Help: "Total number of payouts moved to PROCESSING",
	})

	PayoutDispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_payout_dispatch_failures_total",
		Help: "Payout queue publishes that failed after the balance moved",
	})

	PayoutsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_payouts_settled_total",
			Help: "Payouts settled by terminal status",
		},
		[]string{"status"},
	)

	PayoutsRedispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_payouts_redispatched_total",
		Help: "Payouts republished by the redispatch sweep",
	})

	// ============================================
	// HTTP
	// ============================================
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
