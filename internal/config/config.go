// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/vietvo371/Binane-test/pkg/backoff"
)

/*
   --------------------------------------------------------------------------
   СТРУКТУРЫ
   --------------------------------------------------------------------------
*/

// Config — все настройки сервиса.
type Config struct {
	ServiceName    string          `mapstructure:"service_name"`
	ServiceVersion string          `mapstructure:"service_version"`
	Watch          WatchConfig     `mapstructure:"watch"`
	Stream         StreamConfig    `mapstructure:"stream"`
	Kafka          KafkaConfig     `mapstructure:"kafka"`
	Reconcile      ReconcileConfig `mapstructure:"reconcile"`
	Telemetry      Telemetry       `mapstructure:"telemetry"`
	Logging        Logging         `mapstructure:"logging"`
	HTTP           HTTPConfig      `mapstructure:"http"`
}

// WatchConfig — пороги и периоды наблюдения за top-of-book.
type WatchConfig struct {
	Symbols                 []string      `mapstructure:"symbols"`
	OrderBookDepth          int           `mapstructure:"orderbook_depth"`
	PriceChangeThresholdPct float64       `mapstructure:"price_change_threshold_pct"`
	VolumeThreshold         float64       `mapstructure:"volume_threshold"`
	ReportInterval          time.Duration `mapstructure:"report_interval"`
	StatsDumpEvery          int           `mapstructure:"stats_dump_every"`
	LatencyWindow           int           `mapstructure:"latency_window"`
}

// StreamConfig хранит настройки WS-потока биржи.
type StreamConfig struct {
	WSURL            string         `mapstructure:"ws_url"`
	BufferSize       int            `mapstructure:"buffer_size"`
	ReadTimeout      time.Duration  `mapstructure:"read_timeout"`
	SubscribeTimeout time.Duration  `mapstructure:"subscribe_timeout"`
	Backoff          backoff.Config `mapstructure:"backoff"`
}

// KafkaConfig хранит настройки опционального синка событий.
type KafkaConfig struct {
	Enabled        bool           `mapstructure:"enabled"`
	Brokers        []string       `mapstructure:"brokers"`
	EventsTopic    string         `mapstructure:"events_topic"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	Acks           string         `mapstructure:"acks"`
	Compression    string         `mapstructure:"compression"`
	FlushFrequency time.Duration  `mapstructure:"flush_frequency"`
	FlushMessages  int            `mapstructure:"flush_messages"`
	Backoff        backoff.Config `mapstructure:"backoff"`
}

// ReconcileConfig хранит настройки REST-сверки top-of-book.
type ReconcileConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Telemetry хранит настройки OpenTelemetry.
type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otel_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

// Logging хранит настройки логгера.
type Logging struct {
	Level   string `mapstructure:"level"`
	DevMode bool   `mapstructure:"dev_mode"`
}

// HTTPConfig хранит конфигурацию HTTP-/metrics-сервера.
type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPath     string        `mapstructure:"metrics_path"`
	HealthzPath     string        `mapstructure:"healthz_path"`
	ReadyzPath      string        `mapstructure:"readyz_path"`
}

/*
   --------------------------------------------------------------------------
   LOADER
   --------------------------------------------------------------------------
*/

// Load загружает и валидирует конфиг. Если path пустой — читаются только ENV и defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ---------- 1) Defaults ----------
	v.SetDefault("service_name", "bookwatch")
	v.SetDefault("service_version", "v1.0.0")

	// Watch
	v.SetDefault("watch.symbols", []string{"BTCUSDT"})
	v.SetDefault("watch.orderbook_depth", 10)
	v.SetDefault("watch.price_change_threshold_pct", 0.1)
	v.SetDefault("watch.volume_threshold", 1.0)
	v.SetDefault("watch.report_interval", "30s")
	v.SetDefault("watch.stats_dump_every", 100)
	v.SetDefault("watch.latency_window", 100)

	// Stream
	v.SetDefault("stream.ws_url", "wss://stream.binance.com:9443/ws")
	v.SetDefault("stream.buffer_size", 100)
	v.SetDefault("stream.read_timeout", "30s")
	v.SetDefault("stream.subscribe_timeout", "5s")

	// Kafka
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.events_topic", "bookwatch.events")
	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.timeout", "15s")
	v.SetDefault("kafka.compression", "none")
	v.SetDefault("kafka.flush_frequency", "0s")
	v.SetDefault("kafka.flush_messages", 0)

	// Reconcile
	v.SetDefault("reconcile.enabled", false)
	v.SetDefault("reconcile.base_url", "https://api.binance.com")
	v.SetDefault("reconcile.timeout", "5s")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otel_endpoint", "otel-collector:4317")
	v.SetDefault("telemetry.insecure", false)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dev_mode", false)

	// HTTP
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("http.metrics_path", "/metrics")
	v.SetDefault("http.healthz_path", "/healthz")
	v.SetDefault("http.readyz_path", "/readyz")

	// ---------- 2) ENV ----------
	v.SetEnvPrefix("BOOKWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// ---------- 3) Optional file ----------
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", v.ConfigFileUsed(), err)
		}
	}

	// ---------- 4) Decode ----------
	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToBoolHook,
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &cfg,
		DecodeHook: decodeHook,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// ---------- 5) Validation ----------
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// stringToBoolHook разбирает true/false, иначе отдает исходные данные.
func stringToBoolHook(f, t reflect.Kind, data interface{}) (interface{}, error) {
	if f == reflect.String && t == reflect.Bool {
		return strconv.ParseBool(data.(string))
	}
	return data, nil
}

/*
   --------------------------------------------------------------------------
   VALIDATION
   --------------------------------------------------------------------------
*/

func (c *Config) Validate() error {
	// Service
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required")
	}

	// Watch
	if len(c.Watch.Symbols) == 0 {
		return fmt.Errorf("watch.symbols must contain at least one entry")
	}
	if c.Watch.OrderBookDepth <= 0 {
		return fmt.Errorf("watch.orderbook_depth must be > 0")
	}
	if c.Watch.PriceChangeThresholdPct < 0 {
		return fmt.Errorf("watch.price_change_threshold_pct must be >= 0")
	}
	if c.Watch.VolumeThreshold < 0 {
		return fmt.Errorf("watch.volume_threshold must be >= 0")
	}
	if c.Watch.ReportInterval <= 0 {
		return fmt.Errorf("watch.report_interval must be > 0")
	}
	if c.Watch.StatsDumpEvery <= 0 {
		return fmt.Errorf("watch.stats_dump_every must be > 0")
	}
	if c.Watch.LatencyWindow <= 0 {
		return fmt.Errorf("watch.latency_window must be > 0")
	}

	// Stream
	if c.Stream.WSURL == "" {
		return fmt.Errorf("stream.ws_url is required")
	}
	if c.Stream.ReadTimeout <= 0 {
		return fmt.Errorf("stream.read_timeout must be > 0")
	}
	if c.Stream.SubscribeTimeout <= 0 {
		return fmt.Errorf("stream.subscribe_timeout must be > 0")
	}

	// Kafka (опционален)
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka.enabled")
		}
		if c.Kafka.EventsTopic == "" {
			return fmt.Errorf("kafka.events_topic is required when kafka.enabled")
		}
		switch strings.ToLower(c.Kafka.Acks) {
		case "all", "leader", "none":
		default:
			return fmt.Errorf("kafka.acks must be one of [all, leader, none]")
		}
		switch strings.ToLower(c.Kafka.Compression) {
		case "none", "gzip", "snappy", "lz4", "zstd":
		default:
			return fmt.Errorf("kafka.compression must be one of [none, gzip, snappy, lz4, zstd]")
		}
	}

	// Reconcile (опционален)
	if c.Reconcile.Enabled {
		if c.Reconcile.BaseURL == "" {
			return fmt.Errorf("reconcile.base_url is required when reconcile.enabled")
		}
		if c.Reconcile.Timeout <= 0 {
			return fmt.Errorf("reconcile.timeout must be > 0")
		}
	}

	// Telemetry (опциональна)
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry.otel_endpoint is required when telemetry.enabled")
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error]")
	}

	return validateHTTP(&c.HTTP)
}

func validateHTTP(h *HTTPConfig) error {
	if h.Port <= 0 || h.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535")
	}
	durations := map[string]time.Duration{
		"http.read_timeout":     h.ReadTimeout,
		"http.write_timeout":    h.WriteTimeout,
		"http.idle_timeout":     h.IdleTimeout,
		"http.shutdown_timeout": h.ShutdownTimeout,
	}
	for k, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", k)
		}
	}
	paths := map[string]string{
		"http.metrics_path": h.MetricsPath,
		"http.healthz_path": h.HealthzPath,
		"http.readyz_path":  h.ReadyzPath,
	}
	for k, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with '/'", k)
		}
	}
	return nil
}

/*
   --------------------------------------------------------------------------
   DEBUG PRINT
   --------------------------------------------------------------------------
*/

// Print выводит текущий конфиг в JSON (удобно в DevMode).
func (c *Config) Print() {
	b, _ := json.MarshalIndent(c, "", "  ")
	fmt.Println("Loaded configuration:\n", string(b))
}
