package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records outcomes of checkout attempts and the order totals
// they produced.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	total    *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_success",
		Help: "Successful checkout commits.",
	}, []string{"shipping"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failure",
		Help: "Failed checkout attempts by error code.",
	}, []string{"code"})
	total := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_order_total_cents",
		Help:    "Order totals produced by successful checkouts, in cents.",
		Buckets: []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
	}, []string{"shipping"})
	reg.MustRegister(duration, success, failure, total)
	return &CheckoutMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		total:    total,
	}
}

// ObserveDuration records how long the checkout transaction took.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the shipping option used.
func (c *CheckoutMetrics) IncSuccess(shipping string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(shipping)).Inc()
}

// IncFailure increments the failure counter for the given error code.
func (c *CheckoutMetrics) IncFailure(code string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(code)).Inc()
}

// ObserveOrderTotal records the total of a committed order.
func (c *CheckoutMetrics) ObserveOrderTotal(shipping string, totalCents int) {
	if c == nil || c.total == nil {
		return
	}
	c.total.WithLabelValues(normalizeLabel(shipping)).Observe(float64(totalCents))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
