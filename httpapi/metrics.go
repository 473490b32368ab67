package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drt_requests_total",
		Help: "Customer requests processed by the dispatcher, by outcome.",
	}, []string{"outcome"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "drt_scheduling_cycle_seconds",
		Help:    "Wall-clock duration of one dispatcher UPDATE cycle.",
		Buckets: prometheus.DefBuckets,
	})

	pendingQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drt_pending_queue_depth",
		Help: "Requests awaiting their first scheduling attempt.",
	})
)

// metricsHandler exposes the registered collectors on /metrics.
func metricsHandler() http.Handler { return promhttp.Handler() }

// ObserveOutcome increments the accepted/rejected counter for one request.
func ObserveOutcome(outcome string) { requestsTotal.WithLabelValues(outcome).Inc() }

// ObserveCycle records the duration of one completed UPDATE cycle.
func ObserveCycle(d time.Duration) { cycleDuration.Observe(d.Seconds()) }

// SetPendingDepth reports the current size of the pending-request set.
func SetPendingDepth(n int) { pendingQueueDepth.Set(float64(n)) }
