package ring

import (
	"math"
	"time"
)

// Geometry describes the circle the positions sit on.
type Geometry struct {
	CircleLength   float64       // circumference in metres
	LineLength     float64       // length of the trailing lit window in metres
	Total          int           // number of evenly spaced positions
	UpdateInterval time.Duration // tick period

	// Current records the index of the position this geometry was built
	// for. Nothing reads it; it is kept so per-position configs round-trip.
	Current int
}

// Validate checks that the geometry can be resolved against.
func (g Geometry) Validate() error {
	switch {
	case math.IsNaN(g.CircleLength) || math.IsInf(g.CircleLength, 0) || g.CircleLength <= 0:
		return configErr("geometry", "circle length must be positive, got %v", g.CircleLength)
	case math.IsNaN(g.LineLength) || g.LineLength < 0:
		return configErr("geometry", "line length must be non-negative, got %v", g.LineLength)
	case g.LineLength > g.CircleLength:
		return configErr("geometry", "line length %v exceeds circle length %v", g.LineLength, g.CircleLength)
	case g.Total <= 0:
		return configErr("geometry", "total must be positive, got %d", g.Total)
	case g.UpdateInterval <= 0:
		return configErr("geometry", "update interval must be positive, got %s", g.UpdateInterval)
	}
	return nil
}

// Spacing returns the distance between neighbouring positions.
func (g Geometry) Spacing() float64 {
	return g.CircleLength / float64(g.Total)
}

// For returns a copy of g with Current set to id.
func (g Geometry) For(id int) Geometry {
	g.Current = id
	return g
}
