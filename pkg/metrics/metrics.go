// Package metrics exposes the machine-readable counterpart to the
// reconcile/sweep count summaries the engine logs: one Prometheus
// counter vector per outcome, labeled by resource kind.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/geeko-me/sprouter-controller/pkg/sprout"
)

// Metrics holds the counters the engine reports through, and the
// seeds-registered gauge the dispatchers and supervisor keep current.
type Metrics struct {
	created   *prometheus.CounterVec
	updated   *prometheus.CounterVec
	validated *prometheus.CounterVec
	ignored   *prometheus.CounterVec
	deleted   *prometheus.CounterVec

	seedsRegistered prometheus.Gauge
}

// New builds a Metrics and registers it against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sprouter_sprouts_created_total",
			Help: "Sprouts created because no resource existed at the target yet.",
		}, []string{"kind"}),
		updated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sprouter_sprouts_updated_total",
			Help: "Sprouts updated because their content had drifted from the seed.",
		}, []string{"kind"}),
		validated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sprouter_sprouts_validated_total",
			Help: "Sprouts found already matching the seed's current hash.",
		}, []string{"kind"}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sprouter_sprouts_ignored_total",
			Help: "Targets left alone because they were not sprouts of the seed.",
		}, []string{"kind"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sprouter_sprouts_deleted_total",
			Help: "Sprouts removed during a seed sweep.",
		}, []string{"kind"}),
		seedsRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sprouter_seeds_registered",
			Help: "Number of seeds currently tracked by the registry.",
		}),
	}
	reg.MustRegister(m.created, m.updated, m.validated, m.ignored, m.deleted, m.seedsRegistered)
	return m
}

// ObserveReconcile records the outcome counts of one reconcile pass.
func (m *Metrics) ObserveReconcile(kind sprout.Kind, created, updated, validated, ignored int) {
	m.created.WithLabelValues(string(kind)).Add(float64(created))
	m.updated.WithLabelValues(string(kind)).Add(float64(updated))
	m.validated.WithLabelValues(string(kind)).Add(float64(validated))
	m.ignored.WithLabelValues(string(kind)).Add(float64(ignored))
}

// ObserveSweep records the outcome count of one sweep pass.
func (m *Metrics) ObserveSweep(kind sprout.Kind, deleted int) {
	m.deleted.WithLabelValues(string(kind)).Add(float64(deleted))
}

// SetSeedsRegistered sets the current size of the seed registry.
func (m *Metrics) SetSeedsRegistered(n int) {
	m.seedsRegistered.Set(float64(n))
}
