package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/banshee-data/ringtrack/internal/ring"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ringPoint places position i of total on the unit circle, starting at
// the top and running clockwise.
func ringPoint(i, total int) (x, y float64) {
	theta := math.Pi/2 - 2*math.Pi*float64(i)/float64(total)
	return math.Cos(theta), math.Sin(theta)
}

// handleRingChart renders the positions as a scatter on a circle, one
// series per color so each series carries its own item color.
func (ws *WebServer) handleRingChart(w http.ResponseWriter, r *http.Request) {
	f, ok := ws.source.LastFrame()
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, "no frame yet")
		return
	}

	var order []ring.Color
	series := make(map[ring.Color][]opts.ScatterData)
	for i, c := range f.Colors {
		if _, seen := series[c]; !seen {
			order = append(order, c)
		}
		x, y := ringPoint(i, len(f.Colors))
		series[c] = append(series[c], opts.ScatterData{Name: fmt.Sprintf("#%d", i), Value: []interface{}{x, y, i}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Ring", Width: "720px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Ring positions", Subtitle: fmt.Sprintf("run=%s seq=%d positions=%d", f.RunID, f.Seq, len(f.Colors))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -1.1, Max: 1.1, Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Min: -1.1, Max: 1.1, Show: opts.Bool(false)}),
	)
	for _, c := range order {
		scatter.AddSeries(string(c), series[c],
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: string(c)}),
		)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
