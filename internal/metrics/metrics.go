package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// FramesTotal — общее число принятых кадров из WebSocket.
	FramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch",
		Subsystem: "pipeline",
		Name:      "frames_total",
		Help:      "Total number of frames received from the stream",
	})

	// ParseErrors — число кадров, отброшенных как malformed.
	ParseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch",
		Subsystem: "pipeline",
		Name:      "parse_errors_total",
		Help:      "Total number of frames dropped as malformed",
	})

	// UnsupportedFrames — число кадров неизвестного типа.
	UnsupportedFrames = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch",
		Subsystem: "pipeline",
		Name:      "unsupported_frames_total",
		Help:      "Total number of frames of an unrecognized type",
	})

	// PanicsRecovered — число паник, перехваченных на границе кадра.
	PanicsRecovered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch",
		Subsystem: "pipeline",
		Name:      "panics_recovered_total",
		Help:      "Total number of panics recovered at the per-frame boundary",
	})

	// SignificantUpdates — число обновлений, прошедших фильтр значимости.
	SignificantUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch",
		Subsystem: "filter",
		Name:      "significant_updates_total",
		Help:      "Total number of updates classified as significant",
	})

	// FilteredUpdates — число валидных, но незначимых обновлений.
	FilteredUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch",
		Subsystem: "filter",
		Name:      "filtered_updates_total",
		Help:      "Total number of valid updates suppressed by the filter",
	})

	// StatsDumps — число полных дампов статистики.
	StatsDumps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch",
		Subsystem: "report",
		Name:      "stats_dumps_total",
		Help:      "Total number of rolling-statistics dumps emitted",
	})

	// ReconcileFailures — число неудачных REST-сверок top-of-book.
	ReconcileFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch",
		Subsystem: "reconcile",
		Name:      "failures_total",
		Help:      "Total number of failed REST reconciliation fetches",
	})

	// PushLatency — гистограмма push-задержек (event time → приём).
	PushLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bookwatch",
		Subsystem: "latency",
		Name:      "push_seconds",
		Help:      "Latency from exchange event time to local receive (seconds)",
		Buckets:   prometheus.DefBuckets,
	})

	// GetLatency — гистограмма задержек запрос/ответ REST-сверки.
	GetLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bookwatch",
		Subsystem: "latency",
		Name:      "get_seconds",
		Help:      "Round-trip latency of reconciliation fetches (seconds)",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register регистрирует все метрики в заданном реестре.
// Можно вызвать без аргументов, чтобы зарегистрировать в DefaultRegisterer.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			FramesTotal,
			ParseErrors,
			UnsupportedFrames,
			PanicsRecovered,
			SignificantUpdates,
			FilteredUpdates,
			StatsDumps,
			ReconcileFailures,
			PushLatency,
			GetLatency,
		)
	})
}
