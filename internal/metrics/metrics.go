// Package metrics collects and exposes Prometheus metrics for the
// dispatch engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the metrics surface the dispatch engine reports to.
type Recorder interface {
	RecordPlatformResult(platform string, success bool)
	RecordDispatch(status string)
	RecordBatch(size int, duration time.Duration)
}

// Collector implements Recorder on a Prometheus registry.
type Collector struct {
	platformResults *prometheus.CounterVec
	dispatches      *prometheus.CounterVec
	batchSize       prometheus.Histogram
	batchDuration   prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		platformResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailyspark_platform_results_total",
			Help: "Publish attempts per platform and outcome.",
		}, []string{"platform", "success"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailyspark_dispatches_total",
			Help: "Resolved dispatches per terminal status.",
		}, []string{"status"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dailyspark_dispatch_batch_size",
			Help:    "Number of due entries processed per invocation.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dailyspark_dispatch_batch_duration_seconds",
			Help:    "Wall-clock time of one dispatch invocation.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.platformResults,
		c.dispatches,
		c.batchSize,
		c.batchDuration,
	)

	return c
}

func (c *Collector) RecordPlatformResult(platform string, success bool) {
	c.platformResults.WithLabelValues(platform, strconv.FormatBool(success)).Inc()
}

func (c *Collector) RecordDispatch(status string) {
	c.dispatches.WithLabelValues(status).Inc()
}

func (c *Collector) RecordBatch(size int, duration time.Duration) {
	c.batchSize.Observe(float64(size))
	c.batchDuration.Observe(duration.Seconds())
}
