// Package report records frames from a shared ring and summarises each
// track's run as lap statistics and a distance plot.
package report

import (
	"sync"
	"time"

	"github.com/banshee-data/ringtrack/internal/ring"
)

// DefaultMaxSamples bounds the samples kept per track.
const DefaultMaxSamples = 10000

// Sample is one applied integration step of a track.
type Sample struct {
	At       time.Time
	Elapsed  float64 // seconds since the track's origin
	Distance float64 // metres, unwrapped
}

// Series is the recorded history of one track.
type Series struct {
	Label   string
	Color   ring.Color
	Samples []Sample
	// LapTimes holds the elapsed seconds at which each lap completed.
	LapTimes []float64
}

type trackRecord struct {
	series Series
	laps   int
}

// Recorder accumulates per-track samples from ring frames. Register
// Record with Ring.OnFrame.
type Recorder struct {
	mu sync.Mutex

	circleLength float64
	maxSamples   int
	frames       int
	skipped      int

	tracks map[*ring.Track]*trackRecord
	order  []*ring.Track
}

// NewRecorder returns a recorder for a ring of the given circumference.
// maxSamples <= 0 selects DefaultMaxSamples.
func NewRecorder(circleLength float64, maxSamples int) *Recorder {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Recorder{
		circleLength: circleLength,
		maxSamples:   maxSamples,
		tracks:       make(map[*ring.Track]*trackRecord),
	}
}

// Record stores the applied hits of f. Skipped steps are counted but
// not sampled.
func (r *Recorder) Record(f ring.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames++
	for _, h := range f.Hits {
		if !h.Applied {
			r.skipped++
			continue
		}
		rec, ok := r.tracks[h.Track]
		if !ok {
			rec = &trackRecord{series: Series{Label: h.Track.Label(), Color: h.Track.Color()}}
			r.tracks[h.Track] = rec
			r.order = append(r.order, h.Track)
		}

		rec.series.Samples = append(rec.series.Samples, Sample{
			At:       f.At,
			Elapsed:  h.State.Elapsed,
			Distance: h.State.Distance,
		})
		if n := len(rec.series.Samples); n > r.maxSamples {
			rec.series.Samples = append(rec.series.Samples[:0:0], rec.series.Samples[n-r.maxSamples:]...)
		}

		// One step can cover more than a lap on very long intervals.
		for laps := h.State.Laps(r.circleLength); rec.laps < laps; rec.laps++ {
			rec.series.LapTimes = append(rec.series.LapTimes, h.State.Elapsed)
		}
	}
}

// Frames returns the number of frames recorded.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Skipped returns the number of skipped track steps seen.
func (r *Recorder) Skipped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

// Series returns a copy of every track's history in first-seen order.
func (r *Recorder) Series() []Series {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Series, 0, len(r.order))
	for _, t := range r.order {
		s := r.tracks[t].series
		s.Samples = append([]Sample(nil), s.Samples...)
		s.LapTimes = append([]float64(nil), s.LapTimes...)
		out = append(out, s)
	}
	return out
}
