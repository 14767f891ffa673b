package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

func TestSignalRoundTrip(t *testing.T) {
	raw, err := encodeSignal(17)
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":17}`, string(raw))

	seq, err := decodeSignal(string(raw))
	require.NoError(t, err)
	assert.Equal(t, int64(17), seq)
}

func TestSignalRejectsBadPayloads(t *testing.T) {
	_, err := encodeSignal(0)
	assert.Error(t, err)

	for _, payload := range []string{"", "nope", `{"seq":0}`, `{"seq":-3}`} {
		_, err := decodeSignal(payload)
		assert.Error(t, err, payload)
	}
}

func TestNewFeedBusRequiresAddr(t *testing.T) {
	_, err := NewFeedBus(logger.Nop(), "  ", "")
	assert.Error(t, err)

	_, err = NewFeedBus(nil, "localhost:6379", "")
	assert.Error(t, err)
}

func TestNewFeedBusWithClientDefaultsChannel(t *testing.T) {
	bus := NewFeedBusWithClient(logger.Nop(), nil, "")
	fb, ok := bus.(*feedBus)
	require.True(t, ok)
	assert.Equal(t, DefaultFeedChannel, fb.channel)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	assert.Error(t, bus.Publish(ctx, 1))
	assert.NoError(t, bus.Close())
}
