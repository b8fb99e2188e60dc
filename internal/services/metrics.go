package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for gateway traffic and payment flows.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatewayRequests    *prometheus.CounterVec
	gatewayDuration    *prometheus.HistogramVec
	merchantValidation *prometheus.CounterVec
	paymentFlows       *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg and panics on a
// registration error, like the promauto helpers.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "walletpay",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Requests sent to the payment gateway by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "walletpay",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Latency of payment gateway requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		merchantValidation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "walletpay",
				Name:      "merchant_validations_total",
				Help:      "Apple Pay merchant validation attempts by outcome.",
			},
			[]string{"outcome"},
		),
		paymentFlows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "walletpay",
				Name:      "payment_flows_total",
				Help:      "Finished payment flows by flow and final status.",
			},
			[]string{"flow", "status"},
		),
	}
	reg.MustRegister(m.gatewayRequests, m.gatewayDuration, m.merchantValidation, m.paymentFlows)
	return m
}

func (m *Metrics) observeGateway(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(operation, outcome).Inc()
	m.gatewayDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) incMerchantValidation(outcome string) {
	if m == nil {
		return
	}
	m.merchantValidation.WithLabelValues(outcome).Inc()
}

func (m *Metrics) incFlow(flow, status string) {
	if m == nil {
		return
	}
	m.paymentFlows.WithLabelValues(flow, status).Inc()
}
