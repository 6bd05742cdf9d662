package ring

import (
	"math"
	"time"
)

// IntegrationState accumulates elapsed time and travelled distance for
// one track. LastSample and Distance never decrease.
type IntegrationState struct {
	Origin     time.Time
	LastSample time.Time
	Elapsed    float64 // seconds since Origin, summed over applied steps
	Distance   float64 // metres since Origin, not wrapped to the circle
}

// NewIntegrationState returns a state at rest at origin.
func NewIntegrationState(origin time.Time) IntegrationState {
	return IntegrationState{Origin: origin, LastSample: origin}
}

// Laps returns the number of full laps of circleLength completed.
func (s IntegrationState) Laps(circleLength float64) int {
	if circleLength <= 0 {
		return 0
	}
	return int(math.Floor(s.Distance / circleLength))
}

// StepOutcome tags the result of an integration step.
type StepOutcome int

const (
	// StepApplied means the step produced a new state.
	StepApplied StepOutcome = iota
	// StepSkipped means the sample time preceded LastSample and the
	// state was left unchanged.
	StepSkipped
)

func (o StepOutcome) String() string {
	switch o {
	case StepApplied:
		return "applied"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Step is the result of IntegrationState.Advance. When Outcome is
// StepSkipped, State is the unchanged input state.
type Step struct {
	Outcome StepOutcome
	State   IntegrationState
}

// Applied reports whether the step produced a new state.
func (s Step) Applied() bool { return s.Outcome == StepApplied }

// Advance integrates distance up to now using forward Euler: the speed is
// looked up once at the current distance and held for the whole interval.
// A now earlier than LastSample yields StepSkipped.
func (s IntegrationState) Advance(now time.Time, profile *SpeedProfile) Step {
	deltaT := now.Sub(s.LastSample).Seconds()
	if deltaT < 0 {
		return Step{Outcome: StepSkipped, State: s}
	}
	speed := profile.Lookup(s.Distance)

	next := s
	next.LastSample = now
	next.Elapsed += deltaT
	next.Distance += speed * deltaT
	return Step{Outcome: StepApplied, State: next}
}
