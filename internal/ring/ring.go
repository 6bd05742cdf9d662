package ring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/ringtrack/internal/monitoring"
	"github.com/banshee-data/ringtrack/internal/timeutil"
	"github.com/google/uuid"
)

// Frame is the outcome of one Ring tick.
type Frame struct {
	RunID  string
	Seq    uint64
	At     time.Time
	Colors []Color // indexed by position id, Geometry.Total long
	Hits   []Hit   // in track attachment order
}

// FrameObserver is notified after every Ring tick.
type FrameObserver func(Frame)

// Ring drives every position from a single ticker. Each track is
// integrated once per tick and its coverage resolved once; subscribed
// positions then only test membership of their own index.
type Ring struct {
	mu sync.Mutex

	runID    string
	geometry Geometry
	clock    timeutil.Clock
	idle     Color

	state     RunState
	ticking   bool
	tracks    []binding
	positions []*Position
	observers []FrameObserver
	seq       uint64
	last      Frame
}

// NewRing returns a stopped ring for g.
func NewRing(g Geometry, opts Options) (*Ring, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	return &Ring{
		runID:    uuid.NewString(),
		geometry: g,
		clock:    opts.Clock,
		idle:     opts.IdleColor,
		state:    Stopped,
	}, nil
}

func (r *Ring) String() string { return fmt.Sprintf("ring-%s", r.runID[:8]) }

// RunID identifies this ring in logs and frames.
func (r *Ring) RunID() string { return r.runID }

// Geometry returns the ring geometry.
func (r *Ring) Geometry() Geometry { return r.geometry }

// IdleColor returns the color of uncovered positions.
func (r *Ring) IdleColor() Color { return r.idle }

// State returns the running state. It stays Running after Run returns.
func (r *Ring) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Ticking reports whether Run is currently driving ticks.
func (r *Ring) Ticking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticking
}

// AttachTracks replaces the tracks, each starting at rest at the current
// time. Like Position.AttachTracks it is ignored unless Stopped.
func (r *Ring) AttachTracks(tracks []*Track) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Stopped {
		monitoring.Debugf("%s: attach ignored while %s", r, r.state)
		return false
	}
	bindings, ok := bind(tracks, r.clock.Now())
	if !ok {
		monitoring.Logf("%s: attach ignored: nil track", r)
		return false
	}
	r.tracks = bindings
	return true
}

// Subscribe adds a position to receive coverage on every tick. The
// position must share the ring's circle.
func (r *Ring) Subscribe(p *Position) error {
	g := p.Geometry()
	if g.Total != r.geometry.Total || g.CircleLength != r.geometry.CircleLength {
		return fmt.Errorf("%s: %s has total %d circle %v, ring has total %d circle %v",
			r, p, g.Total, g.CircleLength, r.geometry.Total, r.geometry.CircleLength)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = append(r.positions, p)
	return nil
}

// Positions returns the subscribed positions in subscription order.
func (r *Ring) Positions() []*Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Position, len(r.positions))
	copy(out, r.positions)
	return out
}

// OnFrame registers an observer for every subsequent frame.
func (r *Ring) OnFrame(o FrameObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Snapshot returns a copy of the per-track integration states.
func (r *Ring) Snapshot() []TrackSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.tracks)
}

// LastFrame returns the most recent frame and whether one exists.
func (r *Ring) LastFrame() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.seq > 0
}

// Start marks the ring Running without starting a ticker, for callers
// that drive Tick themselves.
func (r *Ring) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Running
}

// Tick integrates every track once, resolves its coverage, applies it to
// each subscribed position and emits a frame. It returns false and does
// nothing unless the ring is Running.
func (r *Ring) Tick() (Frame, bool) {
	r.mu.Lock()
	if r.state != Running {
		r.mu.Unlock()
		return Frame{}, false
	}
	hits := advance(r.tracks, r.clock, r.geometry, r.String())
	r.seq++
	frame := Frame{
		RunID:  r.runID,
		Seq:    r.seq,
		At:     r.clock.Now(),
		Colors: make([]Color, r.geometry.Total),
		Hits:   hits,
	}
	for i := range frame.Colors {
		frame.Colors[i], _ = ColorAt(hits, i, r.idle)
	}
	r.last = frame
	positions := make([]*Position, len(r.positions))
	copy(positions, r.positions)
	observers := make([]FrameObserver, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	for _, p := range positions {
		p.Apply(hits)
	}
	for _, o := range observers {
		o(frame)
	}
	return frame, true
}

// Run marks the ring Running and ticks every Geometry.UpdateInterval
// until ctx is cancelled. The running state is kept when Run returns;
// only Ticking goes false.
func (r *Ring) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.ticking {
		r.mu.Unlock()
		return ErrAlreadyTicking
	}
	r.state = Running
	r.ticking = true
	ticker := r.clock.NewTicker(r.geometry.UpdateInterval)
	r.mu.Unlock()

	monitoring.Logf("%s: ticking every %s for %d tracks and %d positions",
		r, r.geometry.UpdateInterval, len(r.Snapshot()), len(r.Positions()))

	defer func() {
		ticker.Stop()
		r.mu.Lock()
		r.ticking = false
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("%s: stopped after %d ticks", r, r.seqNow())
			return ctx.Err()
		case <-ticker.C():
			r.Tick()
		}
	}
}

func (r *Ring) seqNow() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}
