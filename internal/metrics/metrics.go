// Package metrics defines the Prometheus collectors for the catalog.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load sources.
const (
	SourcePrimary  = "primary"
	SourceCache    = "cache"
	SourceDefault  = "default"
	SourceFallback = "fallback"
)

// Operation results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the catalog's collectors.
type Metrics struct {
	DocumentLoads     *prometheus.CounterVec
	DocumentSaves     *prometheus.CounterVec
	JournalRecoveries prometheus.Counter
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers the collectors on reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "document_loads_total",
			Help:      "Document loads by document and the source that answered.",
		}, []string{"document", "source"}),
		DocumentSaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "document_saves_total",
			Help:      "Document saves by document and result.",
		}, []string{"document", "result"}),
		JournalRecoveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adapter",
			Name:      "journal_recoveries_total",
			Help:      "Interrupted multi-document commits replayed at startup.",
		}),
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Catalog and account operations by name and result.",
		}, []string{"operation", "result"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Catalog and account operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// ObserveLoad counts a document load.
func (m *Metrics) ObserveLoad(document, source string) {
	if m == nil {
		return
	}
	m.DocumentLoads.WithLabelValues(document, source).Inc()
}

// ObserveSave counts a document save.
func (m *Metrics) ObserveSave(document string, err error) {
	if m == nil {
		return
	}
	m.DocumentSaves.WithLabelValues(document, result(err)).Inc()
}

// ObserveRecovery counts a replayed journal.
func (m *Metrics) ObserveRecovery() {
	if m == nil {
		return
	}
	m.JournalRecoveries.Inc()
}

// ObserveOperation records one service operation that started at start.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, result(err)).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
