// Package metrics defines and registers the custom Prometheus metrics for the
// billing back office. It is the single source of truth for metric names,
// labels, and help strings; metrics register themselves with the default
// registry at init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "billing"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - kind: "operator" or "consumer"
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by principal kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Reading ingestion metrics ─────────────────────────────────────────────────

// ReadingsIngestedTotal counts telemetry readings successfully persisted.
var ReadingsIngestedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "readings_ingested_total",
		Help:      "Total number of meter readings successfully ingested.",
	},
)

// ReadingsDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new reading, processed)
var ReadingsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "readings_dedup_total",
		Help:      "Total number of reading deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ReadingsErrorsTotal counts readings that failed processing.
// Label:
//   - reason: short failure description (e.g. "unknown_meter", "insert_failed")
var ReadingsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "readings_errors_total",
		Help:      "Total number of meter readings that failed processing.",
	},
	[]string{"reason"},
)

// ReadingQueueDepth tracks the current number of readings waiting in each
// worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ReadingQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reading_queue_depth",
		Help:      "Current number of readings pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Billing metrics ───────────────────────────────────────────────────────────

// BillsRecordedTotal counts newly stored bills.
// Label:
//   - payment_status: "Unpaid", "Paid", or "Overdue"
var BillsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bills_recorded_total",
		Help:      "Total number of bills recorded, by payment status.",
	},
	[]string{"payment_status"},
)
