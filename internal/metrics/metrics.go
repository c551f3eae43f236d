package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarian_api_requests_total",
		Help: "Total number of requests sent to the library API",
	}, []string{"endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "librarian_api_request_duration_seconds",
		Help:    "Duration of library API requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarian_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "librarian_http_request_duration_seconds",
		Help:    "Duration of served HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarian_searches_total",
		Help: "Search requests issued per screen",
	}, []string{"screen"})

	StaleResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarian_stale_responses_total",
		Help: "Responses discarded because a newer request was issued",
	}, []string{"screen"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "librarian_active_sessions",
		Help: "Sessions currently held in memory",
	})
)
