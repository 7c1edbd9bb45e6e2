// internal/app/watcher.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vietvo371/Binane-test/internal/config"
	"github.com/vietvo371/Binane-test/internal/filter"
	httpserver "github.com/vietvo371/Binane-test/internal/http"
	"github.com/vietvo371/Binane-test/internal/metrics"
	"github.com/vietvo371/Binane-test/internal/pipeline"
	"github.com/vietvo371/Binane-test/internal/reconcile"
	"github.com/vietvo371/Binane-test/internal/report"
	"github.com/vietvo371/Binane-test/internal/state"
	transportstream "github.com/vietvo371/Binane-test/internal/transport/stream"
	"github.com/vietvo371/Binane-test/pkg/backoff"
	"github.com/vietvo371/Binane-test/pkg/kafka"
	"github.com/vietvo371/Binane-test/pkg/logger"
	pkgstream "github.com/vietvo371/Binane-test/pkg/stream"
)

// Run собирает сервис и блокирует до отмены ctx.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	metrics.Register(nil)
	transportstream.RegisterMetrics(nil)

	// 1) WS-коннектор биржи.
	conn, err := pkgstream.NewConnector(pkgstream.Config{
		URL:              cfg.Stream.WSURL,
		Streams:          streamNames(cfg.Watch.Symbols, cfg.Watch.OrderBookDepth),
		BufferSize:       cfg.Stream.BufferSize,
		ReadTimeout:      cfg.Stream.ReadTimeout,
		SubscribeTimeout: cfg.Stream.SubscribeTimeout,
		Backoff:          cfg.Stream.Backoff,
	}, log)
	if err != nil {
		return fmt.Errorf("stream connector init: %w", err)
	}
	defer shutdownSafe(ctx, "ws-connector", conn.Close, log)

	// 2) Хранилище состояния и репортер.
	store := state.NewStore(cfg.Watch.LatencyWindow)
	sinks := []report.Sink{report.NewLogSink(log)}

	var kafkaProd kafka.Producer
	if cfg.Kafka.Enabled {
		kafkaProd, err = kafka.New(ctx, kafka.Config{
			Brokers:        cfg.Kafka.Brokers,
			RequiredAcks:   cfg.Kafka.Acks,
			Timeout:        cfg.Kafka.Timeout,
			Compression:    cfg.Kafka.Compression,
			FlushFrequency: cfg.Kafka.FlushFrequency,
			FlushMessages:  cfg.Kafka.FlushMessages,
			Backoff:        cfg.Kafka.Backoff,
		}, log)
		if err != nil {
			return fmt.Errorf("kafka producer init: %w", err)
		}
		defer shutdownSafe(ctx, "kafka-producer", kafkaProd.Close, log)
		sinks = append(sinks, report.NewKafkaSink(kafkaProd, cfg.Kafka.EventsTopic))
	}

	reporter := report.NewReporter(store, cfg.Watch.StatsDumpEvery, log, sinks...)

	pipe := pipeline.New(store, filter.Thresholds{
		PriceChangePct: cfg.Watch.PriceChangeThresholdPct,
		Volume:         cfg.Watch.VolumeThreshold,
	}, reporter, log)

	// 3) Планировщик отчётов о свежести и REST-сверки.
	var fetcher report.BookFetcher
	if cfg.Reconcile.Enabled {
		fetcher = reconcile.NewClient(cfg.Reconcile.BaseURL, cfg.Reconcile.Timeout)
	}
	sched := report.NewScheduler(store, reporter, fetcher,
		cfg.Watch.Symbols, cfg.Watch.ReportInterval, log)

	// 4) Операционный HTTP-сервер.
	readiness := func() error {
		if kafkaProd != nil {
			return kafkaProd.Ping(ctx)
		}
		return nil
	}
	httpSrv := httpserver.NewServer(httpserver.Config{
		Port:            cfg.HTTP.Port,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		MetricsPath:     cfg.HTTP.MetricsPath,
		HealthzPath:     cfg.HTTP.HealthzPath,
		ReadyzPath:      cfg.HTTP.ReadyzPath,
	}, readiness, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })
	g.Go(func() error { return sched.Run(ctx) })

	// Основной цикл WS → пайплайн. Закрытие канала означает разрыв
	// потока: переподключаемся через backoff и продолжаем.
	g.Go(func() error {
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			var frameCh <-chan pkgstream.RawFrame
			if err := backoff.Execute(ctx, cfg.Stream.Backoff, log, func(ctx context.Context) error {
				ch, e := transportstream.StreamWithMetrics(ctx, conn, log)
				if e == nil {
					frameCh = ch
				}
				return e
			}); err != nil {
				return fmt.Errorf("stream connect failed: %w", err)
			}

			if err := pipe.Run(ctx, frameCh); err != nil {
				log.WithContext(ctx).Error("pipeline run", zap.Error(err))
			}
		}
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.WithContext(ctx).Info("bookwatch stopped by context")
			return nil
		}
		return err
	}
	return nil
}

// streamNames строит имена подписок для каждого символа: книга
// заданной глубины и top-of-book тикер.
func streamNames(symbols []string, depth int) []string {
	out := make([]string, 0, len(symbols)*2)
	for _, sym := range symbols {
		s := strings.ToLower(sym)
		out = append(out,
			s+"@depth"+strconv.Itoa(depth),
			s+"@ticker",
		)
	}
	return out
}

// shutdownSafe оборачивает вызов Close()/Shutdown() с логированием.
func shutdownSafe(ctx context.Context, name string, fn func() error, log *logger.Logger) {
	log.WithContext(ctx).Info(fmt.Sprintf("%s: shutting down", name))
	if err := fn(); err != nil {
		log.WithContext(ctx).Error(fmt.Sprintf("%s shutdown error", name), zap.Error(err))
	} else {
		log.WithContext(ctx).Info(fmt.Sprintf("%s: shutdown complete", name))
	}
}
