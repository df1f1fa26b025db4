package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkshrink_http_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkshrink_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// RedirectsTotal counts served redirects.
	RedirectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkshrink_redirects_total",
		Help: "Total redirects served.",
	})

	// ClicksRecordedTotal counts click events appended to the log.
	ClicksRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkshrink_clicks_recorded_total",
		Help: "Total click events appended.",
	})

	// RecomputeDuration tracks how long a full snapshot recomputation takes.
	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkshrink_snapshot_recompute_duration_seconds",
		Help:    "Analytics snapshot recomputation latency.",
		Buckets: prometheus.DefBuckets,
	})

	// DirtyLinks gauges how many links await recomputation.
	DirtyLinks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkshrink_dirty_links",
		Help: "Links queued for snapshot recomputation.",
	})
)
