package stream

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietvo371/Binane-test/pkg/logger"
	pkgstream "github.com/vietvo371/Binane-test/pkg/stream"
)

type fakeConnector struct {
	ch  chan pkgstream.RawFrame
	err error
}

func (f *fakeConnector) Stream(context.Context) (<-chan pkgstream.RawFrame, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func (f *fakeConnector) Close() error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", DevMode: true})
	require.NoError(t, err)
	return log
}

func TestStreamWithMetrics_PassesFramesThrough(t *testing.T) {
	RegisterMetrics(prometheus.NewRegistry())

	conn := &fakeConnector{ch: make(chan pkgstream.RawFrame, 4)}
	out, err := StreamWithMetrics(context.Background(), conn, testLogger(t))
	require.NoError(t, err)

	conn.ch <- pkgstream.RawFrame{Type: "depth", Data: []byte(`{}`)}
	conn.ch <- pkgstream.RawFrame{Type: "ticker", Data: []byte(`{}`)}
	close(conn.ch)

	var types []string
	for frame := range out {
		types = append(types, frame.Type)
	}
	assert.Equal(t, []string{"depth", "ticker"}, types)
}

func TestStreamWithMetrics_ConnectError(t *testing.T) {
	RegisterMetrics(prometheus.NewRegistry())

	conn := &fakeConnector{err: assert.AnError}
	_, err := StreamWithMetrics(context.Background(), conn, testLogger(t))
	require.Error(t, err)
}

func TestStreamWithMetrics_ClosesOutputOnSourceClose(t *testing.T) {
	RegisterMetrics(prometheus.NewRegistry())

	conn := &fakeConnector{ch: make(chan pkgstream.RawFrame, 1)}
	out, err := StreamWithMetrics(context.Background(), conn, testLogger(t))
	require.NoError(t, err)

	close(conn.ch)
	select {
	case _, ok := <-out:
		assert.False(t, ok, "output must close once the source closes")
	case <-time.After(time.Second):
		t.Fatal("output channel did not close")
	}
}
