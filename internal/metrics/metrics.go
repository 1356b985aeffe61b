// Package metrics exposes Prometheus collectors for a render run.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one dispatcher. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	framesTotal     prometheus.Counter
	attemptsTotal   *prometheus.CounterVec
	exhaustedTotal  prometheus.Counter
	renderedFrames  prometheus.Gauge
	totalFrames     prometheus.Gauge
	currentZoom     prometheus.Gauge
	frameDuration   prometheus.Histogram
	attemptDuration prometheus.Histogram
}

// New creates and registers the render collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	framesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zoomrender_frames_rendered_total",
		Help: "Frames rendered, logged and persisted by this process",
	})
	attemptsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoomrender_render_attempts_total",
		Help: "Renderer invocations by result",
	}, []string{"result"})
	exhaustedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zoomrender_retry_exhausted_total",
		Help: "Frames abandoned after the retry limit",
	})
	renderedFrames := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zoomrender_session_rendered_frames",
		Help: "Frames completed in the active session",
	})
	totalFrames := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zoomrender_session_total_frames",
		Help: "Frames in the active session",
	})
	currentZoom := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zoomrender_zoom_level",
		Help: "log2 of the zoom of the most recently rendered frame",
	})
	frameDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "zoomrender_frame_duration_seconds",
		Help:    "Wall time of successful renderer invocations",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 14),
	})
	attemptDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "zoomrender_attempt_duration_seconds",
		Help:    "Wall time of every renderer invocation",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 14),
	})

	registry.MustRegister(
		framesTotal,
		attemptsTotal,
		exhaustedTotal,
		renderedFrames,
		totalFrames,
		currentZoom,
		frameDuration,
		attemptDuration,
	)

	return &Metrics{
		registry:        registry,
		framesTotal:     framesTotal,
		attemptsTotal:   attemptsTotal,
		exhaustedTotal:  exhaustedTotal,
		renderedFrames:  renderedFrames,
		totalFrames:     totalFrames,
		currentZoom:     currentZoom,
		frameDuration:   frameDuration,
		attemptDuration: attemptDuration,
	}
}

// SetProgress sets the session progress gauges.
func (m *Metrics) SetProgress(rendered, total int) {
	if m == nil {
		return
	}
	m.renderedFrames.Set(float64(rendered))
	m.totalFrames.Set(float64(total))
}

// ObserveAttempt records one renderer invocation.
func (m *Metrics) ObserveAttempt(success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.attemptsTotal.WithLabelValues(result).Inc()
	m.attemptDuration.Observe(elapsed.Seconds())
}

// FrameCompleted records a frame that was logged and persisted.
func (m *Metrics) FrameCompleted(elapsed time.Duration, zoomLevel float64) {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
	m.frameDuration.Observe(elapsed.Seconds())
	m.currentZoom.Set(zoomLevel)
}

// IncRetryExhausted counts a frame that ran out of attempts.
func (m *Metrics) IncRetryExhausted() {
	if m == nil {
		return
	}
	m.exhaustedTotal.Inc()
}

// Handler returns an http.Handler that serves the registry.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}
