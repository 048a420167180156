// Package charts renders the EDA figures as image files with gonum/plot.
// Every function reads its inputs only and writes exactly one file; the
// format follows the path extension (png, svg, pdf, jpg).
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/KaramelBytes/aqeda/internal/analysis"
	"github.com/KaramelBytes/aqeda/internal/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("no data to plot")

var (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch

	barColor   = color.RGBA{R: 76, G: 114, B: 176, A: 255}
	pointColor = color.RGBA{R: 50, G: 50, B: 255, A: 255}
)

func finite(vals []float64) plotter.Values {
	out := make(plotter.Values, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// sturges picks a bin count for n observations.
func sturges(n int) int {
	if n < 2 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// Histogram draws the distribution of values. bins <= 0 picks a count from
// the sample size.
func Histogram(path, title, xlabel string, values []float64, bins int) error {
	vs := finite(values)
	if len(vs) == 0 {
		return fmt.Errorf("histogram %s: %w", title, ErrNoData)
	}
	if bins <= 0 {
		bins = sturges(len(vs))
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(vs, bins)
	if err != nil {
		return fmt.Errorf("histogram %s: %w", title, err)
	}
	h.FillColor = barColor
	p.Add(h)
	return save(p, width, height, path)
}

// BoxPlot draws a single horizontal box for values.
func BoxPlot(path, title, label string, values []float64) error {
	vs := finite(values)
	if len(vs) == 0 {
		return fmt.Errorf("boxplot %s: %w", title, ErrNoData)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = label

	b, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(vs))
	if err != nil {
		return fmt.Errorf("boxplot %s: %w", title, err)
	}
	b.Horizontal = true
	b.FillColor = barColor
	p.Add(b)
	p.NominalY(label)
	return save(p, width, height/2, path)
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Undefined cells
// are drawn as zero and labelled NaN.
type corrGrid struct{ m *analysis.CorrMatrix }

func (g corrGrid) Dims() (c, r int) { return len(g.m.Columns), len(g.m.Columns) }
func (g corrGrid) X(c int) float64  { return float64(c) }
func (g corrGrid) Y(r int) float64  { return float64(r) }
func (g corrGrid) Z(c, r int) float64 {
	// rows run bottom-up; flip so the first column is at the top
	v := g.m.Values[len(g.m.Columns)-1-r][c]
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Heatmap draws the correlation matrix on a blue-red scale fixed to [-1, 1]
// and annotates each cell with r.
func Heatmap(path, title string, m *analysis.CorrMatrix) error {
	if m == nil || len(m.Columns) == 0 {
		return fmt.Errorf("heatmap %s: %w", title, ErrNoData)
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	p := plot.New()
	p.Title.Text = title
	grid := corrGrid{m: m}
	h := plotter.NewHeatMap(grid, cmap.Palette(255))
	h.Min, h.Max = -1, 1
	p.Add(h)

	n := len(m.Columns)
	var cells plotter.XYLabels
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(c), Y: float64(n - 1 - r)})
			cells.Labels = append(cells.Labels, fmt.Sprintf("%.2f", m.Values[r][c]))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return fmt.Errorf("heatmap %s: %w", title, err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	names := make([]string, n)
	rev := make([]string, n)
	for i, c := range m.Columns {
		names[i] = c
		rev[n-1-i] = c
	}
	p.NominalX(names...)
	p.NominalY(rev...)
	side := vg.Length(n)*1.2*vg.Inch + 2*vg.Inch
	return save(p, side, side, path)
}

// GroupBar draws one bar per group. NaN means are skipped.
func GroupBar(path, title, ylabel string, groups []string, means []float64) error {
	if len(groups) != len(means) {
		return fmt.Errorf("group bar %s: %d labels for %d values", title, len(groups), len(means))
	}
	var names []string
	var vs plotter.Values
	for i, m := range means {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}
		names = append(names, groups[i])
		vs = append(vs, m)
	}
	if len(vs) == 0 {
		return fmt.Errorf("group bar %s: %w", title, ErrNoData)
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel

	bars, err := plotter.NewBarChart(vs, vg.Points(14))
	if err != nil {
		return fmt.Errorf("group bar %s: %w", title, err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	w := 12 * vg.Inch
	if need := vg.Length(len(vs)) * vg.Points(20); need > w {
		w = need
	}
	return save(p, w, 6*vg.Inch, path)
}

// Scatter draws y against x over rows where both are present.
func Scatter(path, title, xlabel, ylabel string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("scatter %s: %d x values for %d y values", title, len(xs), len(ys))
	}
	var pts plotter.XYs
	for i := range xs {
		x, y := xs[i], ys[i]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	if len(pts) == 0 {
		return fmt.Errorf("scatter %s: %w", title, ErrNoData)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter %s: %w", title, err)
	}
	s.Color = pointColor
	s.Radius = vg.Points(2.5)
	p.Add(s)
	return save(p, width, height, path)
}

// missingGrid marks missing cells with 1, present cells with 0. Row 0 of
// the table is drawn at the top.
type missingGrid struct{ t *table.Table }

func (g missingGrid) Dims() (c, r int) { return g.t.NumCols(), g.t.NumRows() }
func (g missingGrid) X(c int) float64  { return float64(c) }
func (g missingGrid) Y(r int) float64  { return float64(r) }
func (g missingGrid) Z(c, r int) float64 {
	if g.t.ColumnAt(c).Values[g.t.NumRows()-1-r].IsMissing() {
		return 1
	}
	return 0
}

// MissingMatrix draws one column per variable and one line per row, dark
// where the value is present and light where it is missing.
func MissingMatrix(path, title string, t *table.Table) error {
	if t == nil || t.NumCols() == 0 || t.NumRows() == 0 {
		return fmt.Errorf("missing matrix %s: %w", title, ErrNoData)
	}
	p := plot.New()
	p.Title.Text = title
	p.HideY()

	pal := twoTone{present: color.Gray{Y: 64}, missing: color.White}
	h := plotter.NewHeatMap(missingGrid{t: t}, pal)
	h.Min, h.Max = 0, 1
	h.Rasterized = t.NumRows() > 200
	p.Add(h)
	p.NominalX(t.Names()...)

	w := vg.Length(t.NumCols())*1.5*vg.Inch + 2*vg.Inch
	return save(p, w, 6*vg.Inch, path)
}

type twoTone struct{ present, missing color.Color }

func (t twoTone) Colors() []color.Color { return []color.Color{t.present, t.missing} }

var _ palette.Palette = twoTone{}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
