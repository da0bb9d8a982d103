package metrics

import "github.com/prometheus/client_golang/prometheus"

// SlaWorkerMetrics records SLA timer processing outcomes.
type SlaWorkerMetrics struct {
	processed   *prometheus.CounterVec
	breaches    prometheus.Counter
	escalations prometheus.Counter
}

// NewSlaWorkerMetrics registers the SLA worker metrics on the provided registerer.
func NewSlaWorkerMetrics(reg prometheus.Registerer) *SlaWorkerMetrics {
	if reg == nil {
		return &SlaWorkerMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "sla_timers_processed",
		Help:      "Processed SLA timers by outcome.",
	}, []string{"outcome"})
	breaches := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "sla_breaches",
		Help:      "SLA windows marked breached.",
	})
	escalations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "sla_escalations",
		Help:      "SLA escalation steps triggered.",
	})
	reg.MustRegister(processed, breaches, escalations)
	return &SlaWorkerMetrics{
		processed:   processed,
		breaches:    breaches,
		escalations: escalations,
	}
}

// IncProcessed increments the processed counter for an outcome label.
func (m *SlaWorkerMetrics) IncProcessed(outcome string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncBreach counts a newly breached window.
func (m *SlaWorkerMetrics) IncBreach() {
	if m == nil || m.breaches == nil {
		return
	}
	m.breaches.Inc()
}

// IncEscalation counts a newly triggered escalation.
func (m *SlaWorkerMetrics) IncEscalation() {
	if m == nil || m.escalations == nil {
		return
	}
	m.escalations.Inc()
}
