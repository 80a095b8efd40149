// Package metrics exposes Prometheus counters for the billing backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BillsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopbilling",
		Name:      "bills_created_total",
		Help:      "Bills persisted by the create-bill workflow.",
	})

	SMSAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopbilling",
		Name:      "sms_attempts_total",
		Help:      "SMS send attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	SMSStatusWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopbilling",
		Name:      "sms_status_write_failures_total",
		Help:      "Best-effort sms_status updates that failed to persist.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopbilling",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopbilling",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"limiter"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
