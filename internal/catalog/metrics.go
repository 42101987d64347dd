package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// gateClosedTotal считает закрытия гейта после 429
	gateClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cinequiz",
			Name:      "catalog_gate_closed_total",
			Help:      "Total number of times the catalog request gate was closed by a rate limit",
		},
	)

	// requestsTotal считает запросы к каталогу по эндпоинту и исходу
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinequiz",
			Name:      "catalog_requests_total",
			Help:      "Total number of catalog requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// requestDuration - длительность запросов к каталогу
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cinequiz",
			Name:      "catalog_request_duration_seconds",
			Help:      "Duration of catalog HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// recordGateClosed записывает закрытие гейта
func recordGateClosed() {
	gateClosedTotal.Inc()
}

// recordRequest записывает исход и длительность запроса
func recordRequest(endpoint, outcome string, seconds float64) {
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	if seconds > 0 {
		requestDuration.WithLabelValues(endpoint).Observe(seconds)
	}
}
