// pkg/backoff/backoff.go
package backoff

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vietvo371/Binane-test/pkg/logger"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

var (
	retriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch", Subsystem: "backoff", Name: "retries_total",
		Help: "Number of back-off retry attempts",
	})
	failuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch", Subsystem: "backoff", Name: "failures_total",
		Help: "Number of operations that gave up after retries",
	})
	successesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookwatch", Subsystem: "backoff", Name: "successes_total",
		Help: "Number of operations that eventually succeeded",
	})
	retryDelayHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bookwatch", Subsystem: "backoff", Name: "retry_delay_seconds",
		Help:    "Histogram of retry delays (seconds)",
		Buckets: prometheus.DefBuckets,
	})

	registerOnce sync.Once
)

// registerMetrics безопасно регистрирует все метрики.
func registerMetrics(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(retriesTotal, failuresTotal, successesTotal, retryDelayHistogram)
	})
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config хранит настройки экспоненциального backoff-а и опционального таймаута на попытку.
type Config struct {
	InitialInterval     time.Duration `mapstructure:"initial_interval"`     // начальный интервал (если 0 — default 1s)
	RandomizationFactor float64       `mapstructure:"randomization_factor"` // jitter (если 0 — default 0.5)
	Multiplier          float64       `mapstructure:"multiplier"`           // множитель (если 0 — default 2.0)
	MaxInterval         time.Duration `mapstructure:"max_interval"`         // макс. интервал (если 0 — default 30s)
	MaxElapsedTime      time.Duration `mapstructure:"max_elapsed_time"`     // общее время ретраев (если 0 — без лимита)
	PerAttemptTimeout   time.Duration `mapstructure:"per_attempt_timeout"`  // таймаут одной попытки (0 = без)
}

// applyDefaults заполняет zero-полям безопасные дефолты.
func (c *Config) applyDefaults() {
	if c.InitialInterval <= 0 {
		c.InitialInterval = time.Second
	}
	if c.RandomizationFactor <= 0 {
		c.RandomizationFactor = 0.5
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 30 * time.Second
	}
	// MaxElapsedTime == 0 → без лимита
}

// validate выполняет быстрые sanity-checks.
func (c Config) validate() error {
	if c.RandomizationFactor < 0 || c.RandomizationFactor > 1 {
		return fmt.Errorf("backoff: RandomizationFactor must be in [0,1]")
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("backoff: Multiplier must be >= 1")
	}
	return nil
}

// RetryableFunc описывает функцию с поддержкой контекста.
type RetryableFunc func(ctx context.Context) error

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// ErrMaxRetries возвращается из Execute, когда попытки исчерпаны.
type ErrMaxRetries struct {
	Err      error // итоговая ошибка (context или fn)
	Attempts int   // число совершённых попыток
}

func (e *ErrMaxRetries) Error() string {
	return fmt.Sprintf("backoff: %d attempt(s) failed: %v", e.Attempts, e.Err)
}
func (e *ErrMaxRetries) Unwrap() error { return e.Err }

// Permanent помечает ошибку как неповторяемую.
func Permanent(err error) error { return backoff.Permanent(err) }

// -----------------------------------------------------------------------------
// Core
// -----------------------------------------------------------------------------

// Execute выполняет fn с экспоненциальным backoff-ом, метриками и логированием.
func Execute(ctx context.Context, cfg Config, log *logger.Logger, fn RetryableFunc) error {
	registerMetrics(prometheus.DefaultRegisterer)

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("backoff: invalid config: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.RandomizationFactor = cfg.RandomizationFactor
	bo.Multiplier = cfg.Multiplier
	bo.MaxInterval = cfg.MaxInterval
	bo.MaxElapsedTime = cfg.MaxElapsedTime

	boCtx := backoff.WithContext(bo, ctx)

	var attempts int
	operation := func() error {
		attempts++
		if t := cfg.PerAttemptTimeout; t > 0 {
			ctxAttempt, cancel := context.WithTimeout(ctx, t)
			defer cancel()
			return fn(ctxAttempt)
		}
		return fn(ctx)
	}

	notify := func(err error, delay time.Duration) {
		retriesTotal.Inc()
		retryDelayHistogram.Observe(delay.Seconds())
		log.Warn("backoff retry",
			zap.Error(err),
			zap.Duration("delay", delay),
			zap.Int("attempt", attempts),
		)
	}

	if err := backoff.RetryNotify(operation, boCtx, notify); err != nil {
		failuresTotal.Inc()
		log.Error("backoff give up", zap.Error(err), zap.Int("attempts", attempts))
		return &ErrMaxRetries{Err: err, Attempts: attempts}
	}

	successesTotal.Inc()
	return nil
}
