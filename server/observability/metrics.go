package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager exposes Prometheus metrics for the HTTP surface and
// the question-answering pipeline.
type MetricsManager struct {
	// HTTP metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec

	// Domain metrics
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	ttft               *prometheus.HistogramVec
	documentsIngested  prometheus.Counter
	chunksIndexed      prometheus.Gauge
	synthesisTotal     *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetricsManager creates the metrics manager with its own registry
func NewMetricsManager(namespace string) *MetricsManager {
	if namespace == "" {
		namespace = "voicedoc"
	}

	m := &MetricsManager{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.responseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	m.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total generation pipeline runs",
		},
		[]string{"voice_mode", "outcome"},
	)

	m.generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end generation pipeline duration",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"voice_mode"},
	)

	m.ttft = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_first_token_seconds",
			Help:      "Time to first generated token",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"voice_mode"},
	)

	m.documentsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Total documents accepted for ingestion",
		},
	)

	m.chunksIndexed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_indexed",
			Help:      "Number of chunks currently indexed",
		},
	)

	m.synthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_total",
			Help:      "Total speech synthesis requests",
		},
		[]string{"outcome"},
	)

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.responseSize,
		m.generationsTotal,
		m.generationDuration,
		m.ttft,
		m.documentsIngested,
		m.chunksIndexed,
		m.synthesisTotal,
	)

	m.registry.MustRegister(prometheus.NewGoCollector())
	m.registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return m
}

// Middleware records HTTP-level metrics for every request
func (m *MetricsManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		m.requestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			statusClass(status),
		).Inc()

		m.requestDuration.WithLabelValues(
			c.Request.Method,
			path,
		).Observe(duration)

		respSize := c.Writer.Size()
		if respSize > 0 {
			m.responseSize.WithLabelValues(c.Request.Method, path).Observe(float64(respSize))
		}
	}
}

// Handler exposes the Prometheus scrape endpoint
func (m *MetricsManager) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return gin.WrapH(h)
}

// RecordGeneration records one pipeline run outcome
func (m *MetricsManager) RecordGeneration(voiceMode, outcome string, duration time.Duration) {
	m.generationsTotal.WithLabelValues(voiceMode, outcome).Inc()
	m.generationDuration.WithLabelValues(voiceMode).Observe(duration.Seconds())
}

// RecordTTFT records the time to first generated token
func (m *MetricsManager) RecordTTFT(voiceMode string, d time.Duration) {
	if d > 0 {
		m.ttft.WithLabelValues(voiceMode).Observe(d.Seconds())
	}
}

// RecordDocumentIngested counts an accepted document
func (m *MetricsManager) RecordDocumentIngested(chunks int) {
	m.documentsIngested.Inc()
	m.chunksIndexed.Add(float64(chunks))
}

// RecordSynthesis counts a speech synthesis request
func (m *MetricsManager) RecordSynthesis(outcome string) {
	m.synthesisTotal.WithLabelValues(outcome).Inc()
}

// statusClass buckets HTTP status codes
func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
