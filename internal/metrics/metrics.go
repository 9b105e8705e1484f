// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoplay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoplay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"method", "route"},
	)

	// Payload metrics
	PayloadsAssembled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoplay_payloads_assembled_total",
			Help: "Scan-target URLs assembled",
		},
		[]string{"kind"},
	)

	PayloadsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoplay_payloads_resolved_total",
			Help: "Scan-target URLs resolved, by outcome",
		},
		[]string{"outcome"}, // ok, missing, malformed, unsupported
	)

	// Storage metrics
	StorageUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoplay_storage_uploads_total",
			Help: "Object uploads, by result",
		},
		[]string{"result"}, // ok, unavailable, failed
	)

	StorageURLsRepaired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoplay_storage_urls_repaired_total",
			Help: "Download URLs rebuilt because the separator escape was missing",
		},
	)
)
