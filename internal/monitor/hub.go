package monitor

import (
	"sync"

	"github.com/banshee-data/ringtrack/internal/monitoring"
	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/google/uuid"
)

// subscriberBuffer is how many frames a slow subscriber may fall behind
// before frames are dropped for it.
const subscriberBuffer = 8

// Hub fans ring frames out to any number of subscribers, such as SSE
// clients. Publishing never blocks the ticking loop.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan ring.Frame
	closed      bool
	dropped     uint64
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan ring.Frame)}
}

// Subscribe creates a new channel for receiving frames. The ID is used to
// unsubscribe.
func (h *Hub) Subscribe() (string, <-chan ring.Frame) {
	id := uuid.NewString()
	ch := make(chan ring.Frame, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Publish delivers f to every subscriber with room in its buffer. It has
// the ring.FrameObserver signature.
func (h *Hub) Publish(f ring.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- f:
		default:
			h.dropped++
			monitoring.Debugf("hub: subscriber %s is behind, dropped frame %d", id, f.Seq)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Dropped returns the number of frames dropped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close closes all subscriber channels. Later subscribers receive a
// closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
