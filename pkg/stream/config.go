// pkg/stream/config.go
package stream

import (
	"fmt"
	"time"

	"github.com/vietvo371/Binane-test/pkg/backoff"
)

// Config holds WebSocket configuration for the exchange connector.
type Config struct {
	URL              string         `mapstructure:"ws_url"`
	Streams          []string       `mapstructure:"streams"`
	BufferSize       int            `mapstructure:"buffer_size"`
	ReadTimeout      time.Duration  `mapstructure:"read_timeout"`
	SubscribeTimeout time.Duration  `mapstructure:"subscribe_timeout"`
	Backoff          backoff.Config `mapstructure:"backoff"`
}

// applyDefaults applies fallback defaults if values are unset.
func (c *Config) applyDefaults() {
	if c.BufferSize <= 0 {
		c.BufferSize = 100
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.SubscribeTimeout <= 0 {
		c.SubscribeTimeout = 5 * time.Second
	}
}

// validate checks config for required fields.
func (c Config) validate() error {
	switch {
	case c.URL == "":
		return fmt.Errorf("stream: URL is required")
	case len(c.Streams) == 0:
		return fmt.Errorf("stream: at least one stream is required")
	default:
		return nil
	}
}
