// pkg/telemetry/otel.go
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/vietvo371/Binane-test/pkg/logger"
)

const initTimeout = 5 * time.Second

// Config описывает подключение к OTLP-коллектору и идентичность сервиса.
type Config struct {
	// Endpoint — адрес OTLP/gRPC-коллектора (host:port).
	Endpoint string
	// ServiceName и ServiceVersion попадают в resource каждого спана.
	ServiceName    string
	ServiceVersion string
	// Insecure отключает TLS (локальные коллекторы).
	Insecure bool
}

func (c Config) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("telemetry: endpoint is required")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("telemetry: service name is required")
	}
	return nil
}

// ShutdownFunc останавливает TracerProvider; вызывается при graceful-shutdown.
type ShutdownFunc func(context.Context) error

// Init настраивает глобальный TracerProvider с OTLP/gRPC-экспортером,
// ParentBased-сэмплером и батчевой отправкой. Экспортёр подключается
// лениво, недоступность коллектора не ломает старт сервиса.
func Init(ctx context.Context, cfg Config, log *logger.Logger) (ShutdownFunc, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log = log.Named("telemetry")

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(initCtx, exporterOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}

	res, err := serviceResource(cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	log.Sugar().Infow("tracer initialized",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
	)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, initTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Sugar().Errorw("tracer shutdown failed", "error", err)
			return err
		}
		log.Sugar().Infow("tracer shutdown complete")
		return nil
	}, nil
}

func exporterOptions(cfg Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithReconnectionPeriod(5 * time.Second),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}

// serviceResource объединяет стандартный resource SDK с идентичностью
// сервиса. Версия semconv обязана совпадать со схемой resource.Default(),
// иначе Merge откажет из-за конфликта Schema URL.
func serviceResource(cfg Config) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}
	return res, nil
}
