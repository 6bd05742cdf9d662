package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/ringtrack/internal/ring"
)

// LapStats summarises the completed laps of one track. Durations are
// in seconds; the first lap is measured from the track's origin.
type LapStats struct {
	Label    string     `json:"label"`
	Color    ring.Color `json:"color"`
	Laps     int        `json:"laps"`
	Distance float64    `json:"distance"`
	Mean     float64    `json:"mean_s"`
	StdDev   float64    `json:"stddev_s"`
	Min      float64    `json:"min_s"`
	Max      float64    `json:"max_s"`
}

// LapStats returns lap statistics per track. Tracks with no completed
// lap report zero durations. StdDev is zero for a single lap.
func (r *Recorder) LapStats() []LapStats {
	series := r.Series()
	out := make([]LapStats, 0, len(series))
	for _, s := range series {
		ls := LapStats{Label: s.Label, Color: s.Color, Laps: len(s.LapTimes)}
		if n := len(s.Samples); n > 0 {
			ls.Distance = s.Samples[n-1].Distance
		}

		durations := lapDurations(s.LapTimes)
		switch len(durations) {
		case 0:
		case 1:
			ls.Mean, ls.Min, ls.Max = durations[0], durations[0], durations[0]
		default:
			ls.Mean, ls.StdDev = stat.MeanStdDev(durations, nil)
			ls.Min = floats.Min(durations)
			ls.Max = floats.Max(durations)
		}
		out = append(out, ls)
	}
	return out
}

func lapDurations(lapTimes []float64) []float64 {
	if len(lapTimes) == 0 {
		return nil
	}
	d := make([]float64, len(lapTimes))
	prev := 0.0
	for i, t := range lapTimes {
		d[i] = t - prev
		prev = t
	}
	return d
}
