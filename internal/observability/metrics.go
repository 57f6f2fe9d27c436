package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the vault service.
type Metrics struct {
	// --- Vault operations ---
	OpsApplied  *prometheus.CounterVec
	OpsRejected *prometheus.CounterVec
	OpDuration  *prometheus.HistogramVec

	// --- Custody ---
	CustodyBalance *prometheus.GaugeVec
	SwapAmountOut  prometheus.Counter

	// --- Audit pipeline ---
	AuditSequence     prometheus.Gauge
	AuditPublishDrops prometheus.Counter

	// --- Persistence ---
	PersistEventsWritten prometheus.Counter
	PersistBatchDur      prometheus.Histogram
	PersistBatchSize     prometheus.Histogram
	PersistErrors        *prometheus.CounterVec
	PersistLastSequence  prometheus.Gauge

	// --- Command ingestion ---
	CommandsReceived *prometheus.CounterVec
	CommandErrors    *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics. Call once
// per process.
func NewMetrics() *Metrics {
	opBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		OpsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_ops_applied_total",
			Help: "Vault operations applied successfully",
		}, []string{"op"}),

		OpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_ops_rejected_total",
			Help: "Vault operations rejected, by failure reason",
		}, []string{"op", "reason"}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vault_op_duration_seconds",
			Help:    "Time to apply a single vault operation",
			Buckets: opBuckets,
		}, []string{"op"}),

		CustodyBalance: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vault_custody_balance",
			Help: "Current custodied balance per asset (fixed-point units)",
		}, []string{"asset"}),

		SwapAmountOut: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_swap_amount_out_total",
			Help: "Cumulative realized swap output (fixed-point units)",
		}),

		AuditSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_audit_sequence",
			Help: "Last audit event sequence assigned by the vault",
		}),

		AuditPublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_audit_publish_drops_total",
			Help: "Audit events dropped from the outbound publish channel",
		}),

		PersistEventsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_persist_events_written_total",
			Help: "Audit events written to Postgres",
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_persist_batch_duration_seconds",
			Help:    "Time to flush one audit batch",
			Buckets: prometheus.DefBuckets,
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_persist_batch_size",
			Help:    "Audit events per flushed batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_persist_errors_total",
			Help: "Audit persistence failures, by stage",
		}, []string{"stage"}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vault_persist_last_sequence",
			Help: "Highest audit sequence durably written",
		}),

		CommandsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_commands_received_total",
			Help: "Commands received from the ingestion surface",
		}, []string{"command"}),

		CommandErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_command_errors_total",
			Help: "Commands that failed to parse or apply",
		}, []string{"command"}),
	}
}
