package ring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ProfileEntry is one distance/speed pair of a SpeedProfile.
type ProfileEntry struct {
	Distance float64 // metres from the track origin
	Speed    float64 // m/s
}

// SpeedProfile maps a distance on the track to an instantaneous speed.
// It is a step function: the speed at any distance is the speed of the
// nearest key, with ties going to the lower key. A SpeedProfile is
// immutable and safe to share between goroutines.
type SpeedProfile struct {
	distances []float64 // ascending
	speeds    []float64
}

// NewSpeedProfile builds a profile from a distance→speed map. The map
// must have at least one entry, keys must be finite and non-negative and
// speeds finite and non-negative.
func NewSpeedProfile(speeds map[float64]float64) (*SpeedProfile, error) {
	if len(speeds) == 0 {
		return nil, &ConfigurationError{Field: "speed profile", Reason: "at least one entry is required", Err: ErrEmptyProfile}
	}

	entries := make([]ProfileEntry, 0, len(speeds))
	for d, s := range speeds {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return nil, configErr("speed profile", "distance key %v must be finite and non-negative", d)
		}
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
			return nil, configErr("speed profile", "speed %v at distance %v must be finite and non-negative", s, d)
		}
		entries = append(entries, ProfileEntry{Distance: d, Speed: s})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Distance < entries[j].Distance })

	p := &SpeedProfile{
		distances: make([]float64, len(entries)),
		speeds:    make([]float64, len(entries)),
	}
	for i, e := range entries {
		p.distances[i] = e.Distance
		p.speeds[i] = e.Speed
	}
	return p, nil
}

// MustSpeedProfile is like NewSpeedProfile but panics on error. Intended
// for tests and fixed demo profiles.
func MustSpeedProfile(speeds map[float64]float64) *SpeedProfile {
	p, err := NewSpeedProfile(speeds)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup returns the speed at the key nearest to distance. No
// interpolation is done between neighbouring keys.
func (p *SpeedProfile) Lookup(distance float64) float64 {
	// floats.NearestIdx returns the lowest index on ties, and distances is
	// ascending, so the lower key wins.
	return p.speeds[floats.NearestIdx(p.distances, distance)]
}

// Len returns the number of entries.
func (p *SpeedProfile) Len() int { return len(p.distances) }

// Entries returns a copy of the entries in ascending distance order.
func (p *SpeedProfile) Entries() []ProfileEntry {
	out := make([]ProfileEntry, len(p.distances))
	for i := range p.distances {
		out[i] = ProfileEntry{Distance: p.distances[i], Speed: p.speeds[i]}
	}
	return out
}
