package helpers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Tracks the number of HTTP requests.",
	}, []string{"method", "code"})

	requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Tracks the latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	})

	votesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_votes_total",
		Help: "Tracks the votes cast on posts.",
	}, []string{"type"})

	postsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_created_total",
		Help: "Tracks the number of created posts.",
	})
)

var registry = newRegistry()

func newRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestsTotal,
		requestDuration,
		votesTotal,
		postsTotal,
	)

	return r
}

// GetRegistery returns the registry exposed on /metrics
func GetRegistery() *prometheus.Registry {
	return registry
}

func IncrementRequests(method, code string) {
	requestsTotal.WithLabelValues(method, code).Inc()
}

func ObserveRequestDuration(seconds float64) {
	requestDuration.Observe(seconds)
}

func IncrementVotes(kind string) {
	votesTotal.WithLabelValues(kind).Inc()
}

func IncrementPosts() {
	postsTotal.Inc()
}
