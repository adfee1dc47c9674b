package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// CheckoutMetrics records payment attempts and issued receipts.
type CheckoutMetrics struct {
	payments        *prometheus.CounterVec
	paymentDuration *prometheus.HistogramVec
	receipts        *prometheus.CounterVec
	saleTotal       *prometheus.HistogramVec
	saleLines       prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payments_total",
		Help: "Payment attempts by method and outcome.",
	}, []string{"method", "outcome"})
	paymentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_payment_duration_seconds",
		Help:    "Time from payment start to outcome.",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 3, 5, 10},
	}, []string{"method"})
	receipts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_receipts_issued_total",
		Help: "Receipts issued by payment method.",
	}, []string{"method"})
	saleTotal := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_sale_total",
		Help:    "Receipt totals in the store currency.",
		Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000},
	}, []string{"method"})
	saleLines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_sale_lines",
		Help:    "Line items per receipt.",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	})
	reg.MustRegister(payments, paymentDuration, receipts, saleTotal, saleLines)
	return &CheckoutMetrics{
		payments:        payments,
		paymentDuration: paymentDuration,
		receipts:        receipts,
		saleTotal:       saleTotal,
		saleLines:       saleLines,
	}
}

// ObservePayment counts one payment outcome and its latency.
func (c *CheckoutMetrics) ObservePayment(method, outcome string, elapsed time.Duration) {
	if c == nil || c.payments == nil {
		return
	}
	method = normalizeLabel(method)
	c.payments.WithLabelValues(method, normalizeLabel(outcome)).Inc()
	c.paymentDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveReceipt counts an issued receipt with its total and line count.
func (c *CheckoutMetrics) ObserveReceipt(method string, total decimal.Decimal, lines int) {
	if c == nil || c.receipts == nil {
		return
	}
	method = normalizeLabel(method)
	c.receipts.WithLabelValues(method).Inc()
	c.saleTotal.WithLabelValues(method).Observe(total.InexactFloat64())
	c.saleLines.Observe(float64(lines))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
