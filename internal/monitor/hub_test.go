package monitor

import (
	"testing"

	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSubscribe(t *testing.T) {
	t.Parallel()
	h := NewHub()
	id, ch := h.Subscribe()
	require.NotEmpty(t, id)
	assert.Equal(t, 1, h.Subscribers())

	h.Publish(ring.Frame{Seq: 7})
	f := <-ch
	assert.Equal(t, uint64(7), f.Seq)

	h.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after Unsubscribe")
	assert.Equal(t, 0, h.Subscribers())

	// Unknown IDs are ignored.
	h.Unsubscribe("nope")
}

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	t.Parallel()
	h := NewHub()
	_, ch := h.Subscribe()

	for i := 0; i < subscriberBuffer+3; i++ {
		h.Publish(ring.Frame{Seq: uint64(i + 1)})
	}
	assert.Equal(t, uint64(3), h.Dropped())
	assert.Len(t, ch, subscriberBuffer)
	assert.Equal(t, uint64(1), (<-ch).Seq)
}

func TestHub_Close(t *testing.T) {
	t.Parallel()
	h := NewHub()
	_, a := h.Subscribe()
	h.Close()

	_, ok := <-a
	assert.False(t, ok)

	_, b := h.Subscribe()
	_, ok = <-b
	assert.False(t, ok, "subscribing after Close yields a closed channel")
	assert.Equal(t, 0, h.Subscribers())
}
