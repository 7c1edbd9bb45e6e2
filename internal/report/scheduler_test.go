package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietvo371/Binane-test/internal/reconcile"
	"github.com/vietvo371/Binane-test/internal/state"
)

type fakeFetcher struct {
	book  reconcile.Book
	err   error
	calls int
}

func (f *fakeFetcher) TopOfBook(_ context.Context, symbol string) (reconcile.Book, time.Duration, error) {
	f.calls++
	return f.book, 42 * time.Millisecond, f.err
}

func TestScheduler_StalenessStatuses(t *testing.T) {
	store := state.NewStore(100)
	now := time.Now()

	_, _, err := store.Apply("FRESH", state.Update{
		Bid: 1, Ask: 2, BidVolume: 1, AskVolume: 1, ReceiveTime: now,
	})
	require.NoError(t, err)
	_, _, err = store.Apply("OLD", state.Update{
		Bid: 1, Ask: 2, BidVolume: 1, AskVolume: 1, ReceiveTime: now.Add(-2 * time.Minute),
	})
	require.NoError(t, err)

	sink := &captureSink{}
	r := NewReporter(store, 100, testLogger(t), sink)
	s := NewScheduler(store, r, nil, []string{"FRESH", "OLD", "NEVER"}, 30*time.Second, testLogger(t))

	s.Tick(context.Background())

	statuses := map[string]string{}
	for _, e := range sink.events {
		require.Equal(t, KindStaleness, e.Kind)
		statuses[e.Symbol] = e.Status
	}
	assert.Equal(t, StatusActive, statuses["FRESH"])
	assert.Equal(t, StatusStale, statuses["OLD"])
	assert.Equal(t, StatusUninitialized, statuses["NEVER"])
}

func TestScheduler_ReconcileRecordsGetLatency(t *testing.T) {
	store := state.NewStore(100)
	_, _, err := store.Apply("BTCUSDT", state.Update{
		Bid: 50000, Ask: 50010, BidVolume: 1, AskVolume: 1, ReceiveTime: time.Now(),
	})
	require.NoError(t, err)

	fetcher := &fakeFetcher{book: reconcile.Book{
		Symbol: "BTCUSDT", BidPrice: 50001, AskPrice: 50011,
	}}
	r := NewReporter(store, 100, testLogger(t), &captureSink{})
	s := NewScheduler(store, r, fetcher, []string{"BTCUSDT"}, 30*time.Second, testLogger(t))

	s.Tick(context.Background())

	assert.Equal(t, 1, fetcher.calls)
	lat := store.Latency("BTCUSDT")
	require.Equal(t, 1, lat.Get.Count, "round-trip is recorded as a get latency sample")
	assert.Equal(t, 42.0, lat.Get.Max)

	// Сверка не пишет цены в хранилище.
	assert.Equal(t, 50000.0, store.Snapshot("BTCUSDT").BidPrice)
}

func TestScheduler_ReconcileFailureTolerated(t *testing.T) {
	store := state.NewStore(100)
	fetcher := &fakeFetcher{err: assert.AnError}
	r := NewReporter(store, 100, testLogger(t), &captureSink{})
	s := NewScheduler(store, r, fetcher, []string{"BTCUSDT"}, 30*time.Second, testLogger(t))

	assert.NotPanics(t, func() { s.Tick(context.Background()) })
	assert.Equal(t, 0, store.Latency("BTCUSDT").Get.Count)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	store := state.NewStore(100)
	r := NewReporter(store, 100, testLogger(t), &captureSink{})
	s := NewScheduler(store, r, nil, nil, 10*time.Millisecond, testLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
