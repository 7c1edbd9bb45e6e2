// internal/report/reporter.go
package report

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vietvo371/Binane-test/internal/metrics"
	"github.com/vietvo371/Binane-test/internal/state"
	"github.com/vietvo371/Binane-test/pkg/logger"
)

// DefaultStatsDumpEvery — период полного дампа, в значимых обновлениях.
const DefaultStatsDumpEvery = 100

// Reporter раздаёт события по синкам и ведёт глобальный счётчик
// значимых обновлений: каждый N-й (по всем символам суммарно)
// дополнительно эмитит полный дамп статистики.
type Reporter struct {
	store *state.Store
	sinks []Sink
	log   *logger.Logger

	dumpEvery   int64
	significant atomic.Int64
}

// NewReporter создаёт репортер; dumpEvery <= 0 → DefaultStatsDumpEvery.
func NewReporter(store *state.Store, dumpEvery int, log *logger.Logger, sinks ...Sink) *Reporter {
	if dumpEvery <= 0 {
		dumpEvery = DefaultStatsDumpEvery
	}
	return &Reporter{
		store:     store,
		sinks:     sinks,
		log:       log.Named("reporter"),
		dumpEvery: int64(dumpEvery),
	}
}

func (r *Reporter) emit(ctx context.Context, evt Event) {
	for _, s := range r.sinks {
		if err := s.Emit(ctx, evt); err != nil {
			r.log.WithContext(ctx).Error("sink emit failed",
				zap.String("kind", string(evt.Kind)), zap.Error(err))
		}
	}
}

// Update эмитит событие значимого обновления и, если счётчик достиг
// очередного кратного dumpEvery, полный дамп статистики.
func (r *Reporter) Update(ctx context.Context, cur state.Snapshot, lat state.LatencySnapshot) {
	metrics.SignificantUpdates.Inc()
	r.emit(ctx, Event{
		Kind:    KindUpdate,
		Symbol:  cur.Symbol,
		Time:    time.Now().UTC(),
		State:   &cur,
		Latency: &lat,
	})

	if r.significant.Add(1)%r.dumpEvery == 0 {
		r.StatsDump(ctx)
	}
}

// StatsDump эмитит дамп скользящей статистики по всем символам.
func (r *Reporter) StatsDump(ctx context.Context) {
	symbols := r.store.Symbols()
	stats := make([]SymbolStats, 0, len(symbols))
	for _, sym := range symbols {
		stats = append(stats, SymbolStats{
			State:   r.store.Snapshot(sym),
			Latency: r.store.Latency(sym),
		})
	}
	metrics.StatsDumps.Inc()
	r.emit(ctx, Event{
		Kind:  KindStatsDump,
		Time:  time.Now().UTC(),
		Stats: stats,
	})
}

// Malformed эмитит предупреждение об отброшенном кадре.
func (r *Reporter) Malformed(ctx context.Context, symbol, reason string) {
	r.emit(ctx, Event{
		Kind:   KindMalformed,
		Symbol: symbol,
		Time:   time.Now().UTC(),
		Reason: reason,
	})
}

// Staleness эмитит периодический отчёт о свежести данных символа.
func (r *Reporter) Staleness(ctx context.Context, symbol, status string, since time.Duration) {
	r.emit(ctx, Event{
		Kind:            KindStaleness,
		Symbol:          symbol,
		Time:            time.Now().UTC(),
		Status:          status,
		SinceLastUpdate: since,
	})
}
