package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records checkout and payment flow outcomes.
type PaymentMetrics struct {
	initiateDuration *prometheus.HistogramVec
	outcomes         *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiateDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_initiate_duration_seconds",
		Help:    "Duration of payment initiation including provider order creation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_outcomes_total",
		Help: "Payment session outcomes by terminal status.",
	}, []string{"method", "status"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout starts by result.",
	}, []string{"result"})
	reg.MustRegister(initiateDuration, outcomes, checkouts)
	return &PaymentMetrics{
		initiateDuration: initiateDuration,
		outcomes:         outcomes,
		checkouts:        checkouts,
	}
}

// ObserveInitiate records the duration of one payment initiation.
func (p *PaymentMetrics) ObserveInitiate(method string, duration time.Duration) {
	if p == nil || p.initiateDuration == nil {
		return
	}
	p.initiateDuration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncOutcome counts a payment session reaching a terminal status.
func (p *PaymentMetrics) IncOutcome(method, status string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(normalizeLabel(method), normalizeLabel(status)).Inc()
}

// IncCheckout counts a checkout attempt by result.
func (p *PaymentMetrics) IncCheckout(result string) {
	if p == nil || p.checkouts == nil {
		return
	}
	p.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
