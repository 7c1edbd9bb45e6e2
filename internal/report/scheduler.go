// internal/report/scheduler.go
package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vietvo371/Binane-test/internal/metrics"
	"github.com/vietvo371/Binane-test/internal/reconcile"
	"github.com/vietvo371/Binane-test/internal/state"
	"github.com/vietvo371/Binane-test/pkg/logger"
)

// DefaultReportInterval — период отчётов о свежести по умолчанию.
const DefaultReportInterval = 30 * time.Second

// BookFetcher — одноразовая REST-сверка top-of-book.
type BookFetcher interface {
	TopOfBook(ctx context.Context, symbol string) (reconcile.Book, time.Duration, error)
}

// Scheduler с фиксированным интервалом, независимо от потока
// обновлений, отчитывается о свежести каждого символа и опционально
// запускает REST-сверку. Результат сверки только логируется и не
// попадает в хранилище состояния; round-trip записывается как
// get-задержка символа.
type Scheduler struct {
	store    *state.Store
	reporter *Reporter
	fetcher  BookFetcher // nil отключает сверку
	symbols  []string
	interval time.Duration
	log      *logger.Logger
}

// NewScheduler создаёт планировщик; interval <= 0 → DefaultReportInterval.
func NewScheduler(
	store *state.Store,
	reporter *Reporter,
	fetcher BookFetcher,
	symbols []string,
	interval time.Duration,
	log *logger.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &Scheduler{
		store:    store,
		reporter: reporter,
		fetcher:  fetcher,
		symbols:  symbols,
		interval: interval,
		log:      log.Named("scheduler"),
	}
}

// Run крутит тикер до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick — один проход по отслеживаемым символам.
func (s *Scheduler) Tick(ctx context.Context) {
	symbols := s.symbols
	if len(symbols) == 0 {
		symbols = s.store.Symbols()
	}
	now := time.Now()

	for _, sym := range symbols {
		snap := s.store.Snapshot(sym)

		status := StatusActive
		var since time.Duration
		switch {
		case snap.ReceiveTime.IsZero():
			status = StatusUninitialized
		default:
			since = now.Sub(snap.ReceiveTime)
			if since > s.interval {
				status = StatusStale
			}
		}
		s.reporter.Staleness(ctx, sym, status, since)

		if s.fetcher != nil {
			s.reconcileSymbol(ctx, sym, snap)
		}
	}
}

func (s *Scheduler) reconcileSymbol(ctx context.Context, symbol string, local state.Snapshot) {
	book, elapsed, err := s.fetcher.TopOfBook(ctx, symbol)
	if err != nil {
		metrics.ReconcileFailures.Inc()
		s.log.WithContext(ctx).Error("reconciliation fetch failed",
			zap.String("symbol", symbol), zap.Error(err))
		return
	}

	s.store.RecordGetLatency(symbol, float64(elapsed.Milliseconds()))
	metrics.GetLatency.Observe(elapsed.Seconds())

	s.log.WithContext(ctx).Info("reconciliation fetch",
		zap.String("symbol", symbol),
		zap.Float64("rest_bid", book.BidPrice),
		zap.Float64("rest_ask", book.AskPrice),
		zap.Float64("local_bid", local.BidPrice),
		zap.Float64("local_ask", local.AskPrice),
		zap.Duration("round_trip", elapsed),
	)
}
