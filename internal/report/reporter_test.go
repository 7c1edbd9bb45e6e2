package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietvo371/Binane-test/internal/state"
	"github.com/vietvo371/Binane-test/pkg/logger"
)

type captureSink struct {
	events []Event
}

func (s *captureSink) Emit(_ context.Context, evt Event) error {
	s.events = append(s.events, evt)
	return nil
}

func (s *captureSink) count(kind Kind) int {
	n := 0
	for _, e := range s.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", DevMode: true})
	require.NoError(t, err)
	return log
}

func TestReporter_StatsDumpEveryK(t *testing.T) {
	store := state.NewStore(100)
	sink := &captureSink{}
	r := NewReporter(store, 100, testLogger(t), sink)

	ctx := context.Background()
	snap := state.Snapshot{Symbol: "BTCUSDT", BidPrice: 50000, AskPrice: 50010}
	for i := 0; i < 250; i++ {
		r.Update(ctx, snap, state.LatencySnapshot{})
	}

	assert.Equal(t, 250, sink.count(KindUpdate))
	assert.Equal(t, 2, sink.count(KindStatsDump), "dumps at the 100th and 200th update")
}

func TestReporter_StatsDumpCoversAllSymbols(t *testing.T) {
	store := state.NewStore(100)
	_, _, err := store.Apply("BTCUSDT", state.Update{Bid: 1, Ask: 2, BidVolume: 1, AskVolume: 1})
	require.NoError(t, err)
	_, _, err = store.Apply("ETHUSDT", state.Update{Bid: 3, Ask: 4, BidVolume: 1, AskVolume: 1})
	require.NoError(t, err)

	sink := &captureSink{}
	r := NewReporter(store, 100, testLogger(t), sink)
	r.StatsDump(context.Background())

	require.Equal(t, 1, sink.count(KindStatsDump))
	dump := sink.events[0]
	require.Len(t, dump.Stats, 2)
	assert.Equal(t, "BTCUSDT", dump.Stats[0].State.Symbol)
	assert.Equal(t, "ETHUSDT", dump.Stats[1].State.Symbol)
}

func TestReporter_MalformedAndStaleness(t *testing.T) {
	store := state.NewStore(100)
	sink := &captureSink{}
	r := NewReporter(store, 100, testLogger(t), sink)

	ctx := context.Background()
	r.Malformed(ctx, "BTCUSDT", "empty asks")
	r.Staleness(ctx, "BTCUSDT", StatusStale, 45*time.Second)

	require.Len(t, sink.events, 2)
	assert.Equal(t, KindMalformed, sink.events[0].Kind)
	assert.Equal(t, "empty asks", sink.events[0].Reason)
	assert.Equal(t, KindStaleness, sink.events[1].Kind)
	assert.Equal(t, StatusStale, sink.events[1].Status)
	assert.Equal(t, 45*time.Second, sink.events[1].SinceLastUpdate)
}

func TestReporter_SinkErrorDoesNotPropagate(t *testing.T) {
	store := state.NewStore(100)
	r := NewReporter(store, 100, testLogger(t), failingSink{})
	assert.NotPanics(t, func() {
		r.Update(context.Background(), state.Snapshot{Symbol: "X"}, state.LatencySnapshot{})
	})
}

type failingSink struct{}

func (failingSink) Emit(context.Context, Event) error {
	return assert.AnError
}
