package ring

import "math"

// IndexRange is a half-open range [Lo, Hi) of position indices. Ranges are
// kept exactly as resolved: an empty range (Lo >= Hi) covers nothing.
type IndexRange struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// Contains reports whether i lies in [Lo, Hi).
func (r IndexRange) Contains(i int) bool { return i >= r.Lo && i < r.Hi }

// Len returns the number of indices in the range.
func (r IndexRange) Len() int {
	if r.Hi <= r.Lo {
		return 0
	}
	return r.Hi - r.Lo
}

// Coverage is the set of positions inside a track's lit window. It holds
// at most two ranges, so Contains is constant time.
type Coverage struct {
	ranges []IndexRange
}

// Ranges returns the resolved ranges in order.
func (c Coverage) Ranges() []IndexRange {
	out := make([]IndexRange, len(c.ranges))
	copy(out, c.ranges)
	return out
}

// Contains reports whether position i is covered.
func (c Coverage) Contains(i int) bool {
	for _, r := range c.ranges {
		if r.Contains(i) {
			return true
		}
	}
	return false
}

// Len returns the number of covered indices.
func (c Coverage) Len() int {
	n := 0
	for _, r := range c.ranges {
		n += r.Len()
	}
	return n
}

// Indices lists the covered indices in range order.
func (c Coverage) Indices() []int {
	out := make([]int, 0, c.Len())
	for _, r := range c.ranges {
		for i := r.Lo; i < r.Hi; i++ {
			out = append(out, i)
		}
	}
	return out
}

// Resolve maps an integration state onto the positions its trailing
// window covers.
//
// The head sits at Distance mod CircleLength and the window extends
// LineLength behind it. When the window crosses the zero point it is
// split into [0, head) and [tail, Total); the [tail, Total) part is
// withheld until the segment has completed its first lap.
func Resolve(state IntegrationState, g Geometry) Coverage {
	headDistance := state.Distance
	head := math.Mod(headDistance, g.CircleLength)
	spacing := g.Spacing()
	headIndex := int(math.Floor(head / spacing))

	if head < g.LineLength {
		tail := g.CircleLength - (g.LineLength - head)
		tailIndex := int(math.Floor(tail / spacing))
		if headDistance < g.CircleLength {
			return Coverage{ranges: []IndexRange{{Lo: 0, Hi: headIndex}}}
		}
		return Coverage{ranges: []IndexRange{{Lo: 0, Hi: headIndex}, {Lo: tailIndex, Hi: g.Total}}}
	}

	tail := head - g.LineLength
	tailIndex := int(math.Floor(tail / spacing))
	return Coverage{ranges: []IndexRange{{Lo: tailIndex, Hi: headIndex}}}
}
