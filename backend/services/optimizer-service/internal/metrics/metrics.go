// Package metrics exposes optimizer counters and latencies through Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder records upstream calls, request outcomes and cache lookups. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	requests         *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

// New registers the optimizer collectors on reg, or on the default registerer when reg is nil.
// Collectors that are already registered are reused.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	upstreamRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_upstream_requests_total",
		Help: "Upstream calls by source and outcome",
	}, []string{"source", "outcome"})
	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimizer_upstream_duration_seconds",
		Help:    "Upstream call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_requests_total",
		Help: "Optimize requests by outcome",
	}, []string{"outcome"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_cache_lookups_total",
		Help: "Lookup cache hits and misses",
	}, []string{"cache", "result"})

	var err error
	if upstreamRequests, err = register(reg, upstreamRequests); err != nil {
		return nil, err
	}
	if upstreamDuration, err = register(reg, upstreamDuration); err != nil {
		return nil, err
	}
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if cacheLookups, err = register(reg, cacheLookups); err != nil {
		return nil, err
	}

	return &Recorder{
		upstreamRequests: upstreamRequests,
		upstreamDuration: upstreamDuration,
		requests:         requests,
		cacheLookups:     cacheLookups,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveUpstream records one call to an external source.
func (r *Recorder) ObserveUpstream(source string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.upstreamRequests.WithLabelValues(source, outcome(err)).Inc()
	r.upstreamDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveRequest records the outcome of an optimize request; kind is empty on success.
func (r *Recorder) ObserveRequest(kind string) {
	if r == nil {
		return
	}
	if kind == "" {
		kind = OutcomeSuccess
	}
	r.requests.WithLabelValues(kind).Inc()
}

// ObserveCache records a lookup cache hit or miss.
func (r *Recorder) ObserveCache(cache string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// Handler serves the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
