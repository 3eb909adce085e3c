package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MappingMetrics collects registry-level metrics: operation counts, live
// mapping count, and per-operation store failures.
//
// A nil *MappingMetrics is valid and records nothing.
type MappingMetrics struct {
	operations    *prometheus.CounterVec
	storeFailures *prometheus.CounterVec
	liveMappings  prometheus.Gauge
}

// NewMappingMetrics creates a Prometheus-backed MappingMetrics.
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewMappingMetrics() *MappingMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &MappingMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bbb_webhooks_mapping_operations_total",
				Help: "Total number of mapping registry operations by operation name",
			},
			[]string{"operation"},
		),
		storeFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bbb_webhooks_mapping_store_failures_total",
				Help: "Total number of persistent store command failures by operation name",
			},
			[]string{"operation"},
		),
		liveMappings: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "bbb_webhooks_mappings_live",
				Help: "Number of mappings currently held in the in-memory index",
			},
		),
	}
}

// RecordOperation counts one registry operation.
func (m *MappingMetrics) RecordOperation(operation string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation).Inc()
}

// RecordStoreFailure counts one failed store command.
func (m *MappingMetrics) RecordStoreFailure(operation string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(operation).Inc()
}

// SetLiveMappings records the current in-memory index size.
func (m *MappingMetrics) SetLiveMappings(count int) {
	if m == nil {
		return
	}
	m.liveMappings.Set(float64(count))
}
