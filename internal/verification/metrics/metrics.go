package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the verification domain Prometheus metrics.
type Metrics struct {
	StatusesComputed *prometheus.CounterVec
	ProviderCalls    *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	PersistFailures  prometheus.Counter
	SnapshotCache    *prometheus.CounterVec
}

// New creates and registers the verification metrics.
func New() *Metrics {
	return &Metrics{
		StatusesComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_statuses_computed_total",
			Help: "Reconciled statuses by outcome.",
		}, []string{"status"}),
		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_provider_calls_total",
			Help: "Verification provider calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_webhook_events_total",
			Help: "Inbound provider webhook events by type and disposition.",
		}, []string{"type", "disposition"}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verigate_status_persist_failures_total",
			Help: "Status upserts that failed after a successful reconciliation.",
		}),
		SnapshotCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verigate_snapshot_cache_total",
			Help: "Provider snapshot cache lookups by result.",
		}, []string{"result"}),
	}
}

// RecordStatus counts one reconciled outcome.
func (m *Metrics) RecordStatus(status string) {
	if m == nil {
		return
	}
	m.StatusesComputed.WithLabelValues(status).Inc()
}

// RecordProviderCall counts one provider call.
func (m *Metrics) RecordProviderCall(op, outcome string) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(op, outcome).Inc()
}

// RecordWebhook counts one inbound webhook event.
func (m *Metrics) RecordWebhook(eventType, disposition string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType, disposition).Inc()
}

// RecordPersistFailure counts one failed status write.
func (m *Metrics) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// RecordSnapshotCache counts one cache lookup result (hit, miss, bypass).
func (m *Metrics) RecordSnapshotCache(result string) {
	if m == nil {
		return
	}
	m.SnapshotCache.WithLabelValues(result).Inc()
}
