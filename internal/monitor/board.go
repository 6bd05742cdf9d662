package monitor

import (
	"sync"

	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/banshee-data/ringtrack/internal/timeutil"
	"github.com/google/uuid"
)

// Board assembles frames from standalone positions, each of which ticks
// on its own. Install Observe as every position's observer.
//
// Track states in the frame are those seen by the position with the
// lowest id; other positions integrate their own copies and drift from it.
type Board struct {
	mu       sync.Mutex
	runID    string
	geometry ring.Geometry
	clock    timeutil.Clock
	colors   []ring.Color
	hits     []ring.Hit
	seq      uint64
}

// NewBoard returns a board for g with every position idle.
func NewBoard(g ring.Geometry, idle ring.Color, clock timeutil.Clock) *Board {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	colors := make([]ring.Color, g.Total)
	for i := range colors {
		colors[i] = idle
	}
	return &Board{
		runID:    uuid.NewString(),
		geometry: g,
		clock:    clock,
		colors:   colors,
	}
}

// Observe records a position's color. It has the ring.Observer signature.
func (b *Board) Observe(p *ring.Position) {
	color := p.Color()
	var hits []ring.Hit
	if p.ID() == 0 {
		for _, s := range p.Snapshot() {
			h := ring.Hit{Track: s.Track, State: s.State, Applied: s.Applied}
			if s.Applied {
				h.Coverage = ring.Resolve(s.State, b.geometry)
			}
			hits = append(hits, h)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID() < 0 || p.ID() >= len(b.colors) {
		return
	}
	b.colors[p.ID()] = color
	if hits != nil {
		b.hits = hits
	}
	b.seq++
}

// LastFrame returns the current board as a frame.
func (b *Board) LastFrame() (ring.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	colors := make([]ring.Color, len(b.colors))
	copy(colors, b.colors)
	hits := make([]ring.Hit, len(b.hits))
	copy(hits, b.hits)
	return ring.Frame{
		RunID:  b.runID,
		Seq:    b.seq,
		At:     b.clock.Now(),
		Colors: colors,
		Hits:   hits,
	}, b.seq > 0
}
