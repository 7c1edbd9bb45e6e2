// internal/transport/stream/metrics.go
package stream

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once        sync.Once
	connects    *prometheus.CounterVec
	frames      *prometheus.CounterVec
	drops       *prometheus.CounterVec
	connected   prometheus.Gauge
	lastFrameAt prometheus.Gauge
)

// RegisterMetrics регистрирует метрики транспорта. r == nil →
// DefaultRegisterer. Повторные вызовы — no-op.
func RegisterMetrics(r prometheus.Registerer) {
	once.Do(func() {
		if r == nil {
			r = prometheus.DefaultRegisterer
		}
		connects = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookwatch", Subsystem: "stream", Name: "connects_total",
			Help: "WebSocket connection attempts by outcome",
		}, []string{"status"})

		frames = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookwatch", Subsystem: "stream", Name: "frames_total",
			Help: "Frames received from the exchange WS by type",
		}, []string{"type"})

		drops = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookwatch", Subsystem: "stream", Name: "buffer_drops_total",
			Help: "Frames dropped due to full buffer",
		}, []string{"type"})

		connected = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bookwatch", Subsystem: "stream", Name: "connected",
			Help: "1 while a stream is being consumed, 0 otherwise",
		})

		lastFrameAt = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bookwatch", Subsystem: "stream", Name: "last_frame_unix_seconds",
			Help: "Unix timestamp of the most recently received frame",
		})

		for _, c := range []prometheus.Collector{connects, frames, drops, connected, lastFrameAt} {
			_ = r.Register(c)
		}
	})
}
