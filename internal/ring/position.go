package ring

import (
	"fmt"
	"sync"

	"github.com/banshee-data/ringtrack/internal/monitoring"
	"github.com/banshee-data/ringtrack/internal/timeutil"
)

// Observer is notified after a position finishes a tick.
type Observer func(*Position)

// Position is one of Geometry.Total discrete spots on the circle.
//
// A Position can run standalone, integrating its own copy of every
// attached track on its own ticker (Start, Stop, Update), or passively
// under a Ring, which calls Apply with coverage it resolved once for all
// positions.
type Position struct {
	mu sync.Mutex

	id          int
	geometry    Geometry
	placeholder any
	clock       timeutil.Clock
	idle        Color

	state    RunState
	ticking  bool
	color    Color
	covered  bool
	tracks   []binding
	observer Observer

	ticker timeutil.Ticker
	done   chan struct{}
}

// NewPosition creates a stopped position at index id. placeholder is an
// opaque handle for the presentation layer and is never inspected.
func NewPosition(id int, g Geometry, placeholder any, opts Options) (*Position, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if id < 0 || id >= g.Total {
		return nil, configErr("position", "id %d outside [0,%d)", id, g.Total)
	}
	opts = opts.withDefaults()
	return &Position{
		id:          id,
		geometry:    g,
		placeholder: placeholder,
		clock:       opts.Clock,
		idle:        opts.IdleColor,
		color:       opts.IdleColor,
		state:       Stopped,
	}, nil
}

func (p *Position) String() string { return fmt.Sprintf("position-%d", p.id) }

// ID returns the position index.
func (p *Position) ID() int { return p.id }

// Geometry returns the geometry the position was created with.
func (p *Position) Geometry() Geometry { return p.geometry }

// Placeholder returns the handle passed to NewPosition.
func (p *Position) Placeholder() any { return p.placeholder }

// Color returns the color set by the last tick.
func (p *Position) Color() Color {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.color
}

// Covered reports whether any track covered the position on the last tick.
func (p *Position) Covered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.covered
}

// State returns the running state. Stop does not reset it.
func (p *Position) State() RunState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Ticking reports whether the position's own ticker is active.
func (p *Position) Ticking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticking
}

// Snapshot returns a copy of the per-track integration states.
func (p *Position) Snapshot() []TrackSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return snapshot(p.tracks)
}

// SetObserver installs the callback invoked once per tick after the color
// has been assigned. Passing nil removes it.
func (p *Position) SetObserver(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = o
}

// AttachTracks replaces the attached tracks, each starting at rest at the
// current time. It is only permitted while Stopped; otherwise the call is
// ignored and false is returned. A nil track also rejects the call.
func (p *Position) AttachTracks(tracks []*Track) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Stopped {
		monitoring.Debugf("%s: attach ignored while %s", p, p.state)
		return false
	}
	bindings, ok := bind(tracks, p.clock.Now())
	if !ok {
		monitoring.Logf("%s: attach ignored: nil track", p)
		return false
	}
	p.tracks = bindings
	return true
}

// Start marks the position Running and starts its ticker at
// Geometry.UpdateInterval. Starting an already ticking position does
// nothing; starting after Stop resumes ticking.
func (p *Position) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = Running
	if p.ticking {
		return
	}
	p.ticker = p.clock.NewTicker(p.geometry.UpdateInterval)
	p.done = make(chan struct{})
	p.ticking = true
	go p.loop(p.ticker, p.done)
}

// Stop cancels the ticker. The running state is left as is, so
// AttachTracks stays disabled and Update keeps working when called
// directly.
func (p *Position) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ticking {
		return
	}
	p.ticker.Stop()
	close(p.done)
	p.ticker = nil
	p.done = nil
	p.ticking = false
}

func (p *Position) loop(t timeutil.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-t.C():
			p.update(done)
		}
	}
}

// Update runs one standalone tick: every attached track is advanced to
// the current time, its coverage resolved, and the position colored by
// the last track that covers it. It does nothing unless Running.
func (p *Position) Update() {
	p.update(nil)
}

// update is Update for the ticker loop. A tick received after Stop
// closed done is dropped.
func (p *Position) update(done <-chan struct{}) {
	p.mu.Lock()
	if done != nil {
		select {
		case <-done:
			p.mu.Unlock()
			return
		default:
		}
	}
	if p.state != Running {
		p.mu.Unlock()
		return
	}
	hits := advance(p.tracks, p.clock, p.geometry, p.String())
	p.color, p.covered = ColorAt(hits, p.id, p.idle)
	obs := p.observer
	p.mu.Unlock()

	if obs != nil {
		obs(p)
	}
}

// Apply colors the position from coverage resolved elsewhere, typically
// by a Ring, and notifies the observer. It ignores the position's own
// tracks and running state and returns the assigned color.
func (p *Position) Apply(hits []Hit) Color {
	p.mu.Lock()
	p.color, p.covered = ColorAt(hits, p.id, p.idle)
	color := p.color
	obs := p.observer
	p.mu.Unlock()

	if obs != nil {
		obs(p)
	}
	return color
}
