package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the gateway's Prometheus metrics.
type Collector struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	cacheLookupsTotal *prometheus.CounterVec
	providerAttempts  *prometheus.CounterVec
	hallucinations    prometheus.Counter
	feedbackTotal     *prometheus.CounterVec
}

// NewCollector registers and returns the gateway metrics under the given
// namespace. Must be called at most once per process (promauto registers
// globally).
func NewCollector(namespace string) *Collector {
	c := &Collector{}

	c.requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total pipeline requests by terminal status",
		},
		[]string{"status"}, // done | failed
	)

	c.requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"cached"},
	)

	c.cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache gate lookups by origin (none means miss)",
		},
		[]string{"origin"},
	)

	c.providerAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Fallback attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	c.hallucinations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hallucinations_flagged_total",
			Help:      "Responses flagged inconsistent by the verifier",
		},
	)

	c.feedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "User feedback records by sign",
		},
		[]string{"sign"}, // positive | negative | neutral
	)

	return c
}

// ObserveRequest records one terminal pipeline outcome.
func (c *Collector) ObserveRequest(status string, cached bool, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(status).Inc()
	cachedLabel := "false"
	if cached {
		cachedLabel = "true"
	}
	c.requestDuration.WithLabelValues(cachedLabel).Observe(elapsed.Seconds())
}

// ObserveCacheLookup records a cache gate outcome by origin.
func (c *Collector) ObserveCacheLookup(origin string) {
	if c == nil {
		return
	}
	c.cacheLookupsTotal.WithLabelValues(origin).Inc()
}

// ObserveProviderAttempt records a single fallback attempt.
func (c *Collector) ObserveProviderAttempt(provider, outcome string) {
	if c == nil {
		return
	}
	c.providerAttempts.WithLabelValues(provider, outcome).Inc()
}

// ObserveHallucination records a verifier inconsistency.
func (c *Collector) ObserveHallucination() {
	if c == nil {
		return
	}
	c.hallucinations.Inc()
}

// ObserveFeedback records a feedback submission.
func (c *Collector) ObserveFeedback(score int) {
	if c == nil {
		return
	}
	sign := "neutral"
	switch {
	case score > 0:
		sign = "positive"
	case score < 0:
		sign = "negative"
	}
	c.feedbackTotal.WithLabelValues(sign).Inc()
}
