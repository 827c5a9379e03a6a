package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokens          *prometheus.CounterVec
	streamEvents    *prometheus.CounterVec
	activeStreams   prometheus.Gauge

	jobs        *prometheus.CounterVec
	jobDuration prometheus.Histogram

	workerPoolIdle    prometheus.Gauge
	workerPoolBusy    prometheus.Gauge
	workerPoolStopped prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *Collector {
	return &Collector{
		requests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_requests_total",
				Help: "Total number of chat completion requests",
			},
			[]string{"provider", "model", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmgate_request_duration_seconds",
				Help:    "Chat completion request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60, 120},
			},
			[]string{"provider", "model"},
		),
		tokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_tokens_total",
				Help: "Total number of tokens consumed",
			},
			[]string{"provider", "model", "type"},
		),
		streamEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_stream_events_total",
				Help: "Total number of stream events emitted",
			},
			[]string{"provider", "type"},
		),
		activeStreams: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "llmgate_active_streams",
				Help: "Number of currently open response streams",
			},
		),
		jobs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_jobs_total",
				Help: "Total number of asynchronous chat jobs",
			},
			[]string{"status"},
		),
		jobDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "llmgate_job_duration_seconds",
				Help:    "Asynchronous chat job duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		workerPoolIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "llmgate_worker_pool_idle",
				Help: "Number of idle workers",
			},
		),
		workerPoolBusy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "llmgate_worker_pool_busy",
				Help: "Number of busy workers",
			},
		),
		workerPoolStopped: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "llmgate_worker_pool_stopped",
				Help: "Number of stopped workers",
			},
		),
	}
}

// RecordRequest records a chat completion request and its duration
func (c *Collector) RecordRequest(provider, model, status string, duration time.Duration) {
	c.requests.WithLabelValues(provider, model, status).Inc()
	c.requestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordTokens records token consumption by type (input, output)
func (c *Collector) RecordTokens(provider, model, tokenType string, count int) {
	c.tokens.WithLabelValues(provider, model, tokenType).Add(float64(count))
}

// RecordStreamEvent records a stream event by type (delta, finish, error)
func (c *Collector) RecordStreamEvent(provider, eventType string) {
	c.streamEvents.WithLabelValues(provider, eventType).Inc()
}

// IncActiveStreams increments the open stream gauge
func (c *Collector) IncActiveStreams() {
	c.activeStreams.Inc()
}

// DecActiveStreams decrements the open stream gauge
func (c *Collector) DecActiveStreams() {
	c.activeStreams.Dec()
}

// RecordJob records a completed or failed job and its duration
func (c *Collector) RecordJob(status string, duration time.Duration) {
	c.jobs.WithLabelValues(status).Inc()
	c.jobDuration.Observe(duration.Seconds())
}

// RecordWorkerPoolStatus records worker pool status
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}
