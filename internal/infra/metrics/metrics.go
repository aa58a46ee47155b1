// Package metrics exposes relay activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
	transcription *prometheus.HistogramVec
	extraction    *prometheus.HistogramVec
	fallbacks     prometheus.Counter
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_relay_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		requestTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voice_relay_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"route"},
		),
		transcription: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voice_relay_transcription_duration_seconds",
				Help:    "Speech-to-text call latency",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"outcome"},
		),
		extraction: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voice_relay_extraction_duration_seconds",
				Help:    "Language model extraction latency",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"context", "outcome"},
		),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voice_relay_fallback_tasks_total",
			Help: "Times the heuristic task extractor replaced an empty model result",
		}),
	}

	c.registry.MustRegister(
		c.requests,
		c.requestTime,
		c.transcription,
		c.extraction,
		c.fallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObserveRequest(route string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.requestTime.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (c *Collector) TranscriptionDone(elapsed time.Duration, err error) {
	c.transcription.WithLabelValues(outcome(err)).Observe(elapsed.Seconds())
}

func (c *Collector) ExtractionDone(context string, elapsed time.Duration, err error) {
	c.extraction.WithLabelValues(context, outcome(err)).Observe(elapsed.Seconds())
}

func (c *Collector) FallbackApplied() {
	c.fallbacks.Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
