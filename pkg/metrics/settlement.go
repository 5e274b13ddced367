package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics counts invoice computations, charge attempts and webhook events.
type SettlementMetrics struct {
	computations *prometheus.CounterVec
	charges      *prometheus.CounterVec
	webhooks     *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement counters on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	computations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_computations_total",
		Help: "Invoice computations by strategy and outcome.",
	}, []string{"strategy", "outcome"})
	charges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_charge_attempts_total",
		Help: "Gateway charge attempts by source and outcome.",
	}, []string{"source", "outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(computations, charges, webhooks)
	return &SettlementMetrics{
		computations: computations,
		charges:      charges,
		webhooks:     webhooks,
	}
}

// ObserveComputation records one strategy run.
func (m *SettlementMetrics) ObserveComputation(strategy string, err error) {
	if m == nil || m.computations == nil {
		return
	}
	m.computations.WithLabelValues(normalizeLabel(strategy), outcomeLabel(err == nil)).Inc()
}

// ObserveCharge records one gateway charge attempt.
func (m *SettlementMetrics) ObserveCharge(source string, succeeded bool) {
	if m == nil || m.charges == nil {
		return
	}
	m.charges.WithLabelValues(normalizeLabel(source), outcomeLabel(succeeded)).Inc()
}

// ObserveWebhook records one reconciled webhook event.
func (m *SettlementMetrics) ObserveWebhook(eventType string, err error) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(eventType), outcomeLabel(err == nil)).Inc()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
