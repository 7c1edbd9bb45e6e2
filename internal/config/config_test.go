package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "bookwatch", cfg.ServiceName)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Watch.Symbols)
	assert.Equal(t, 10, cfg.Watch.OrderBookDepth)
	assert.Equal(t, 0.1, cfg.Watch.PriceChangeThresholdPct)
	assert.Equal(t, 1.0, cfg.Watch.VolumeThreshold)
	assert.Equal(t, 30*time.Second, cfg.Watch.ReportInterval)
	assert.Equal(t, 100, cfg.Watch.StatsDumpEvery)
	assert.Equal(t, 100, cfg.Watch.LatencyWindow)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Reconcile.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
watch:
  symbols: [ETHUSDT, BTCUSDT]
  price_change_threshold_pct: 0.25
  report_interval: 10s
stream:
  ws_url: wss://example.test/ws
logging:
  level: debug
  dev_mode: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETHUSDT", "BTCUSDT"}, cfg.Watch.Symbols)
	assert.Equal(t, 0.25, cfg.Watch.PriceChangeThresholdPct)
	assert.Equal(t, 10*time.Second, cfg.Watch.ReportInterval)
	assert.Equal(t, "wss://example.test/ws", cfg.Stream.WSURL)
	assert.True(t, cfg.Logging.DevMode)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			"empty symbols",
			"watch:\n  symbols: []\n",
			"watch.symbols",
		},
		{
			"bad logging level",
			"logging:\n  level: verbose\n",
			"logging.level",
		},
		{
			"kafka enabled without brokers",
			"kafka:\n  enabled: true\n",
			"kafka.brokers",
		},
		{
			"zero report interval",
			"watch:\n  report_interval: 0s\n",
			"watch.report_interval",
		},
		{
			"telemetry enabled without endpoint",
			"telemetry:\n  enabled: true\n  otel_endpoint: \"\"\n",
			"telemetry.otel_endpoint",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
