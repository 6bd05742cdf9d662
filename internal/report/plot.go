package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var namedColors = map[string]color.RGBA{
	"black":  {0, 0, 0, 255},
	"blue":   {31, 119, 180, 255},
	"red":    {214, 39, 40, 255},
	"green":  {44, 160, 44, 255},
	"orange": {255, 127, 14, 255},
	"purple": {148, 103, 189, 255},
	"grey":   {127, 127, 127, 255},
	"gray":   {127, 127, 127, 255},
}

// WritePlot renders distance against elapsed time for every recorded
// track. The image format follows the file extension (png, svg, pdf).
func (r *Recorder) WritePlot(path string) error {
	series := r.Series()
	if len(series) == 0 {
		return fmt.Errorf("no samples recorded")
	}

	p := plot.New()
	p.Title.Text = "Track distance"
	p.X.Label.Text = "Elapsed (s)"
	p.Y.Label.Text = "Distance (m)"

	for i, s := range series {
		pts := make(plotter.XYs, 0, len(s.Samples))
		for _, smp := range s.Samples {
			pts = append(pts, plotter.XY{X: smp.Elapsed, Y: smp.Distance})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to create line for %s: %w", s.Label, err)
		}
		line.Width = vg.Points(1)
		if c, ok := namedColors[string(s.Color)]; ok {
			line.Color = c
		} else {
			line.Color = plotutil.Color(i)
		}
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
