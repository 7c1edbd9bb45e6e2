package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/vietvo371/Binane-test/internal/app"
	"github.com/vietvo371/Binane-test/internal/config"
	"github.com/vietvo371/Binane-test/pkg/logger"
	"github.com/vietvo371/Binane-test/pkg/telemetry"
)

func main() {
	configPath := pflag.String("config", "config/config.yaml", "path to config file")
	pflag.Parse()

	// 1. Загрузить конфиг
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	log, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		DevMode: cfg.Logging.DevMode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Logging.DevMode {
		cfg.Print()
	}

	// 3. Контекст с отменой по сигналам
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 4. Инициализация OpenTelemetry (опциональна: без коллектора спаны
	// остаются no-op через глобальный TracerProvider по умолчанию)
	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.Init(ctx, telemetry.Config{
			Endpoint:       cfg.Telemetry.OTLPEndpoint,
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
			Insecure:       cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Sugar().Fatalw("telemetry init error", "error", err)
		}
		defer func() {
			if err := shutdownTracer(ctx); err != nil {
				log.Sugar().Errorw("tracer shutdown error", "error", err)
			}
		}()
	}

	log.Sugar().Infow("starting service",
		"service.name", cfg.ServiceName,
		"service.version", cfg.ServiceVersion,
	)

	// 5. Запуск основного приложения
	if err := app.Run(ctx, cfg, log); err != nil {
		log.Sugar().Errorw("application exited with error", "error", err)
		os.Exit(1)
	}

	log.Sugar().Infow("shutdown complete")
}
