// Package plot renders the benchmark comparison figures: one radar chart per
// (dataset, metric), with the dataset's styles on the angular axis and one
// closed polyline per model.
package plot

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
)

// Row is one aggregated value: the mean best score of one model on one style.
type Row struct {
	Style string
	Model string
	Score float64
}

const (
	width  = 900
	height = 700
	radius = 240
)

// gridLevels are the radial grid rings.
var gridLevels = []float64{0.25, 0.5, 0.75, 1.0}

// palette holds the per-model line colours (r, g, b).
var palette = [][3]float64{
	{0.12, 0.47, 0.71},
	{1.00, 0.50, 0.05},
	{0.17, 0.63, 0.17},
	{0.84, 0.15, 0.16},
	{0.58, 0.40, 0.74},
	{0.55, 0.34, 0.29},
	{0.89, 0.47, 0.76},
	{0.50, 0.50, 0.50},
}

// Render draws the radar chart for rows and writes it as a PNG to path.
// Scores are clamped to [0, 1]; the radial axis is fixed to that range so
// figures from different metrics are visually comparable. Styles and models
// keep their first-appearance order. Datasets with one or two styles produce
// degenerate polygons (a point or a segment), which render fine.
func Render(title string, rows []Row, path string) error {
	styles, models, values, err := arrange(rows)
	if err != nil {
		return err
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	cx := float64(width)/2 - 60
	cy := float64(height)/2 + 20

	drawGrid(dc, cx, cy, styles)
	drawTitle(dc, title)

	for mi, m := range models {
		r, g, b := color(mi)
		dc.SetRGB(r, g, b)
		dc.SetLineWidth(2)
		for si := range styles {
			v := clamp(values[m][styles[si]])
			x, y := polar(cx, cy, si, len(styles), v)
			if si == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
		dc.Stroke()

		for si := range styles {
			v := clamp(values[m][styles[si]])
			x, y := polar(cx, cy, si, len(styles), v)
			dc.DrawCircle(x, y, 3)
			dc.Fill()
		}
	}

	drawLegend(dc, models)
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("plot: save %q: %w", path, err)
	}
	return nil
}

// arrange groups rows into ordered style and model lists plus a value map,
// and rejects an empty or ragged grid.
func arrange(rows []Row) (styles, models []string, values map[string]map[string]float64, err error) {
	if len(rows) == 0 {
		return nil, nil, nil, fmt.Errorf("plot: no rows to render")
	}
	values = make(map[string]map[string]float64)
	seenStyle := make(map[string]bool)
	seenModel := make(map[string]bool)
	for _, r := range rows {
		if !seenStyle[r.Style] {
			seenStyle[r.Style] = true
			styles = append(styles, r.Style)
		}
		if !seenModel[r.Model] {
			seenModel[r.Model] = true
			models = append(models, r.Model)
		}
		if values[r.Model] == nil {
			values[r.Model] = make(map[string]float64)
		}
		values[r.Model][r.Style] = r.Score
	}
	for _, m := range models {
		for _, s := range styles {
			if _, ok := values[m][s]; !ok {
				return nil, nil, nil, fmt.Errorf("plot: model %q has no value for style %q", m, s)
			}
		}
	}
	return styles, models, values, nil
}

// polar maps (style index, value in [0,1]) to canvas coordinates. Index 0
// points straight up; angles advance clockwise.
func polar(cx, cy float64, idx, n int, value float64) (float64, float64) {
	angle := 2*math.Pi*float64(idx)/float64(n) - math.Pi/2
	return cx + radius*value*math.Cos(angle), cy + radius*value*math.Sin(angle)
}

func drawGrid(dc *gg.Context, cx, cy float64, styles []string) {
	dc.SetRGB(0.8, 0.8, 0.8)
	dc.SetLineWidth(1)
	for _, level := range gridLevels {
		for si := range styles {
			x1, y1 := polar(cx, cy, si, len(styles), level)
			x2, y2 := polar(cx, cy, (si+1)%len(styles), len(styles), level)
			dc.DrawLine(x1, y1, x2, y2)
		}
	}
	for si := range styles {
		x, y := polar(cx, cy, si, len(styles), 1)
		dc.DrawLine(cx, cy, x, y)
	}
	dc.Stroke()

	dc.SetRGB(0.3, 0.3, 0.3)
	for _, level := range gridLevels {
		_, y := polar(cx, cy, 0, len(styles), level)
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", level), cx+6, y, 0, 1)
	}
	for si, s := range styles {
		x, y := polar(cx, cy, si, len(styles), 1.12)
		dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
	}
}

func drawTitle(dc *gg.Context, title string) {
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(title, float64(width)/2, 24, 0.5, 0.5)
}

func drawLegend(dc *gg.Context, models []string) {
	x := float64(width) - 220.0
	y := 60.0
	for mi, m := range models {
		r, g, b := color(mi)
		dc.SetRGB(r, g, b)
		dc.DrawRectangle(x, y-5, 14, 10)
		dc.Fill()
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(m, x+20, y, 0, 0.5)
		y += 20
	}
}

func color(i int) (float64, float64, float64) {
	c := palette[i%len(palette)]
	return c[0], c[1], c[2]
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
