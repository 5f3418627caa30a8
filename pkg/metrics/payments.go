package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics counts gateway calls and webhook outcomes.
type PaymentMetrics struct {
	links    *prometheus.CounterVec
	webhooks *prometheus.CounterVec
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	m := &PaymentMetrics{
		links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "payment_links_total",
			Help:      "Payment link creation attempts by provider, kind and result.",
		}, []string{"provider", "kind", "result"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "webhooks_total",
			Help:      "Payment webhooks by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
	reg.MustRegister(m.links, m.webhooks)
	return m
}

// IncPaymentLink records one gateway call; kind is "invoice" or "fund".
func (p *PaymentMetrics) IncPaymentLink(provider, kind string, err error) {
	if p == nil || p.links == nil {
		return
	}
	result := "created"
	if err != nil {
		result = "failed"
	}
	p.links.WithLabelValues(normalizeLabel(provider), normalizeLabel(kind), result).Inc()
}

// IncWebhook records the outcome of one webhook delivery.
func (p *PaymentMetrics) IncWebhook(provider, outcome string) {
	if p == nil || p.webhooks == nil {
		return
	}
	p.webhooks.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}
