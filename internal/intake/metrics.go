package intake

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks intake outcomes.
type Metrics struct {
	Accepted   prometheus.Counter
	Duplicates prometheus.Counter
	Rejected   *prometheus.CounterVec
	Selections *prometheus.CounterVec
}

// NewMetrics registers the intake collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Accepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "techfest_registrations_accepted_total",
			Help: "Registrations stored for the first time",
		}),
		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "techfest_registrations_duplicate_total",
			Help: "Registrations re-sent with an id that was already stored",
		}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "techfest_registrations_rejected_total",
			Help: "Registrations refused, by reason",
		}, []string{"reason"}),
		Selections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "techfest_event_selections_total",
			Help: "Event selections across accepted registrations",
		}, []string{"event"}),
	}
}

// ObserveAccepted counts a stored registration and its event selections.
func (m *Metrics) ObserveAccepted(events []string) {
	m.Accepted.Inc()
	for _, id := range events {
		m.Selections.WithLabelValues(id).Inc()
	}
}

// ObserveRejected counts a refused registration.
func (m *Metrics) ObserveRejected(reason string) {
	m.Rejected.WithLabelValues(reason).Inc()
}

// ObserveDuplicate counts a replayed registration.
func (m *Metrics) ObserveDuplicate() {
	m.Duplicates.Inc()
}
