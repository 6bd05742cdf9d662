package ring

import (
	"time"

	"github.com/banshee-data/ringtrack/internal/monitoring"
	"github.com/banshee-data/ringtrack/internal/timeutil"
)

// RunState is the lifecycle state of a Position or Ring.
type RunState int

const (
	Stopped RunState = iota
	Running
)

func (s RunState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Options carries the collaborators shared by positions and rings. The
// zero value uses the real clock and DefaultIdleColor.
type Options struct {
	Clock     timeutil.Clock
	IdleColor Color
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.IdleColor == "" {
		o.IdleColor = DefaultIdleColor
	}
	return o
}

// Hit is one track's contribution to a tick.
type Hit struct {
	Track    *Track
	State    IntegrationState
	Applied  bool     // false when the step was skipped on clock regression
	Coverage Coverage // empty unless Applied
}

// TrackSnapshot is a copy of one track's integration state. Applied
// reports whether the most recent step was applied; it is false before
// the first step and after a step skipped on clock regression.
type TrackSnapshot struct {
	Track   *Track
	State   IntegrationState
	Applied bool
}

type binding struct {
	track   *Track
	state   IntegrationState
	applied bool
}

func bind(tracks []*Track, origin time.Time) ([]binding, bool) {
	out := make([]binding, 0, len(tracks))
	for _, t := range tracks {
		if t == nil {
			return nil, false
		}
		out = append(out, binding{track: t, state: NewIntegrationState(origin)})
	}
	return out, true
}

// advance runs one integration step for every binding in attachment
// order, replacing the state of each applied binding, and resolves the
// coverage of the new states. The clock is read separately for each
// binding.
func advance(bindings []binding, clock timeutil.Clock, g Geometry, owner string) []Hit {
	hits := make([]Hit, len(bindings))
	for i := range bindings {
		b := &bindings[i]
		now := clock.Now()
		step := b.state.Advance(now, b.track.Profile())
		hits[i].Track = b.track
		b.applied = step.Applied()
		if !step.Applied() {
			monitoring.Debugf("%s: clock regression for track %s: sample %s precedes %s, step skipped",
				owner, b.track.Label(), now.Format(time.RFC3339Nano), b.state.LastSample.Format(time.RFC3339Nano))
			hits[i].State = b.state
			continue
		}
		b.state = step.State
		hits[i].State = b.state
		hits[i].Applied = true
		hits[i].Coverage = Resolve(b.state, g)
	}
	return hits
}

func snapshot(bindings []binding) []TrackSnapshot {
	out := make([]TrackSnapshot, len(bindings))
	for i, b := range bindings {
		out[i] = TrackSnapshot{Track: b.track, State: b.state, Applied: b.applied}
	}
	return out
}

// ColorAt returns the color position id shows for hits. Later hits
// overwrite earlier ones; skipped hits never cover. When nothing covers
// id the idle color is returned with covered false.
func ColorAt(hits []Hit, id int, idle Color) (color Color, covered bool) {
	color = idle
	for _, h := range hits {
		if h.Applied && h.Coverage.Contains(id) {
			color = h.Track.Color()
			covered = true
		}
	}
	return color, covered
}
