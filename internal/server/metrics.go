package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics implements every observability hook interface on top of a
// Prometheus registry.
type metrics struct {
	placements  *prometheus.CounterVec
	rejections  prometheus.Counter
	deletions   prometheus.Counter
	moves       prometheus.Counter
	renders     *prometheus.CounterVec
	renderTime  *prometheus.HistogramVec
	renderBytes *prometheus.HistogramVec
	cacheEvents *prometheus.CounterVec
	sessions    prometheus.Counter
	lifetime    prometheus.Histogram
}

func newMetrics(reg *prometheus.Registry, store *sessionStore) *metrics {
	f := promauto.With(reg)
	m := &metrics{
		placements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetime_placements_total",
			Help: "Accepted point placements by outcome.",
		}, []string{"outcome"}),
		rejections: f.NewCounter(prometheus.CounterOpts{
			Name: "spacetime_rejections_total",
			Help: "Placements outside the light cone.",
		}),
		deletions: f.NewCounter(prometheus.CounterOpts{
			Name: "spacetime_deletions_total",
			Help: "Deleted points.",
		}),
		moves: f.NewCounter(prometheus.CounterOpts{
			Name: "spacetime_moves_total",
			Help: "Drag relocations.",
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetime_renders_total",
			Help: "Rendered artifacts by format and result.",
		}, []string{"format", "result"}),
		renderTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spacetime_render_duration_seconds",
			Help:    "Artifact render time.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"format"}),
		renderBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spacetime_render_bytes",
			Help:    "Artifact size.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"format"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spacetime_cache_events_total",
			Help: "Artifact cache hits, misses and writes.",
		}, []string{"type", "event"}),
		sessions: f.NewCounter(prometheus.CounterOpts{
			Name: "spacetime_sessions_opened_total",
			Help: "Sessions created.",
		}),
		lifetime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "spacetime_session_lifetime_seconds",
			Help:    "Time between session creation and discard.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "spacetime_sessions_active",
		Help: "Sessions currently held in memory.",
	}, func() float64 { return float64(store.len()) })
	return m
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *metrics) OnPlace(_ context.Context, outcome string, _ int) {
	m.placements.WithLabelValues(outcome).Inc()
}
func (m *metrics) OnReject(context.Context, int, int) { m.rejections.Inc() }
func (m *metrics) OnDelete(context.Context, int)      { m.deletions.Inc() }
func (m *metrics) OnMove(context.Context, int)        { m.moves.Inc() }

func (m *metrics) OnRenderStart(context.Context, string) {}

func (m *metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		m.renders.WithLabelValues(format, "error").Inc()
		return
	}
	m.renders.WithLabelValues(format, "ok").Inc()
	m.renderTime.WithLabelValues(format).Observe(d.Seconds())
	m.renderBytes.WithLabelValues(format).Observe(float64(size))
}

func (m *metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}
func (m *metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}
func (m *metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
}

func (m *metrics) OnSessionOpen(context.Context, string) { m.sessions.Inc() }
func (m *metrics) OnSessionClose(_ context.Context, _ string, lifetime time.Duration) {
	m.lifetime.Observe(lifetime.Seconds())
}
