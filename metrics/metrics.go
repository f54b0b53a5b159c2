// Package metrics exposes Prometheus collectors for upstream fetches, catalog
// refreshes and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_upstream_fetch_total",
			Help: "Upstream collection retrievals by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	UpstreamFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_upstream_fetch_duration_seconds",
			Help:    "Duration of upstream collection retrievals in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"resource"},
	)

	CatalogRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_refresh_total",
			Help: "Scheduled catalog refreshes by outcome",
		},
		[]string{"outcome"},
	)

	CatalogChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_channels",
			Help: "Number of channels in the most recently built catalog",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "API requests by route pattern and status code",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func RecordUpstreamFetch(resource string, took time.Duration, err error) {
	UpstreamFetchTotal.WithLabelValues(resource, outcome(err)).Inc()
	UpstreamFetchDuration.WithLabelValues(resource).Observe(took.Seconds())
}

func RecordRefresh(err error) {
	CatalogRefreshTotal.WithLabelValues(outcome(err)).Inc()
}

func RecordHTTPRequest(route string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(took.Seconds())
}
