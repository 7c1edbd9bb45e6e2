package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietvo371/Binane-test/internal/state"
)

type fakeProducer struct {
	topics []string
	keys   [][]byte
	values [][]byte
	err    error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func (p *fakeProducer) Ping(context.Context) error { return nil }
func (p *fakeProducer) Close() error               { return nil }

func TestKafkaSink_EmitUpdate(t *testing.T) {
	prod := &fakeProducer{}
	sink := NewKafkaSink(prod, "events")

	snap := state.Snapshot{Symbol: "BTCUSDT", BidPrice: 50000, AskPrice: 50010, SpreadPct: 0.02}
	err := sink.Emit(context.Background(), Event{
		Kind:   KindUpdate,
		Symbol: "BTCUSDT",
		Time:   time.Now().UTC(),
		State:  &snap,
	})
	require.NoError(t, err)

	require.Len(t, prod.values, 1)
	assert.Equal(t, "events", prod.topics[0])
	assert.Equal(t, []byte("BTCUSDT"), prod.keys[0], "symbol keys events into one partition")

	var decoded Event
	require.NoError(t, json.Unmarshal(prod.values[0], &decoded))
	assert.Equal(t, KindUpdate, decoded.Kind)
	require.NotNil(t, decoded.State)
	assert.Equal(t, 50000.0, decoded.State.BidPrice)
}

func TestKafkaSink_NoSymbolNoKey(t *testing.T) {
	prod := &fakeProducer{}
	sink := NewKafkaSink(prod, "events")

	err := sink.Emit(context.Background(), Event{Kind: KindStatsDump, Time: time.Now().UTC()})
	require.NoError(t, err)
	require.Len(t, prod.keys, 1)
	assert.Nil(t, prod.keys[0])
}

func TestKafkaSink_PublishError(t *testing.T) {
	prod := &fakeProducer{err: assert.AnError}
	sink := NewKafkaSink(prod, "events")

	err := sink.Emit(context.Background(), Event{Kind: KindUpdate, Symbol: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish")
}
