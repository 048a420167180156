package charts

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/aqeda/internal/analysis"
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Kinds of chart Plan can schedule.
const (
	KindHistogram = "histogram"
	KindBoxPlot   = "boxplot"
	KindHeatmap   = "heatmap"
	KindBar       = "bar"
	KindScatter   = "scatter"
	KindMissing   = "missing"
)

// AllKinds lists every chart kind in render order.
var AllKinds = []string{KindMissing, KindHistogram, KindBoxPlot, KindHeatmap, KindBar, KindScatter}

// Job renders one artifact to Path.
type Job struct {
	Kind   string
	Path   string
	Render func(path string) error
}

// RenderAll runs jobs with at most limit in flight and returns the written
// paths in job order. The first failure cancels jobs not yet started.
func RenderAll(ctx context.Context, jobs []Job, limit int) ([]string, error) {
	if limit < 1 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	done := make([]bool, len(jobs))
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := j.Render(j.Path); err != nil {
				return fmt.Errorf("render %s: %w", filepath.Base(j.Path), err)
			}
			done[i] = true
			log.Debug().Str("kind", j.Kind).Str("path", j.Path).Msg("chart written")
			return nil
		})
	}
	err := g.Wait()
	var written []string
	for i, ok := range done {
		if ok {
			written = append(written, jobs[i].Path)
		}
	}
	return written, err
}

// Inputs are the computed values Plan draws from. Table is the cleaned
// table; Raw is the table before imputation, used for the missing matrix.
// Columns without values are left out.
type Inputs struct {
	Raw     *table.Table
	Table   *table.Table
	Corr    *analysis.CorrMatrix
	Groups  *analysis.GroupTable
	Metric  string   // column ranked in the group bar chart
	Columns []string // columns that get a histogram and a boxplot
	X, Y    string   // scatter axes
	Dir     string
	Ext     string // image extension, default ".png"
}

// Plan builds the standard artifact set restricted to kinds (all when
// empty). File names follow "<column>_distribution", "<column>_boxplot",
// "correlation_heatmap", "<metric>_by_<group>", "<x>_vs_<y>" and
// "missing_data".
func Plan(in Inputs, kinds []string) []Job {
	want := map[string]bool{}
	for _, k := range kinds {
		want[strings.ToLower(strings.TrimSpace(k))] = true
	}
	enabled := func(k string) bool { return len(want) == 0 || want[k] }
	ext := in.Ext
	if ext == "" {
		ext = ".png"
	}
	out := func(stem string) string { return filepath.Join(in.Dir, stem+ext) }

	var jobs []Job
	if enabled(KindMissing) && in.Raw != nil {
		raw := in.Raw
		jobs = append(jobs, Job{Kind: KindMissing, Path: out("missing_data"), Render: func(p string) error {
			return MissingMatrix(p, "Missing Values", raw)
		}})
	}
	for _, name := range in.Columns {
		c, ok := in.Table.Column(name)
		if !ok || c.Kind != table.KindNumeric {
			continue
		}
		vals := c.Floats()
		if len(vals) == 0 {
			continue
		}
		label := Humanize(name)
		if enabled(KindHistogram) {
			jobs = append(jobs, Job{Kind: KindHistogram, Path: out(Slug(name) + "_distribution"), Render: func(p string) error {
				return Histogram(p, "Distribution of "+label, label, vals, 0)
			}})
		}
		if enabled(KindBoxPlot) {
			jobs = append(jobs, Job{Kind: KindBoxPlot, Path: out(Slug(name) + "_boxplot"), Render: func(p string) error {
				return BoxPlot(p, "Boxplot of "+label, label, vals)
			}})
		}
	}
	if enabled(KindHeatmap) && in.Corr != nil && len(in.Corr.Columns) > 0 {
		corr := in.Corr
		jobs = append(jobs, Job{Kind: KindHeatmap, Path: out("correlation_heatmap"), Render: func(p string) error {
			return Heatmap(p, "Correlation Heatmap", corr)
		}})
	}
	if enabled(KindBar) && in.Groups != nil && in.Metric != "" {
		keys := make([]string, len(in.Groups.Rows))
		means := make([]float64, len(in.Groups.Rows))
		for i, r := range in.Groups.Rows {
			keys[i] = r.Key
			means[i] = r.Means[in.Metric]
		}
		title := fmt.Sprintf("Average %s by %s", Humanize(in.Metric), Humanize(in.Groups.Key))
		metric := Humanize(in.Metric)
		jobs = append(jobs, Job{Kind: KindBar, Path: out(Slug(in.Metric) + "_by_" + Slug(in.Groups.Key)), Render: func(p string) error {
			return GroupBar(p, title, metric, keys, means)
		}})
	}
	if enabled(KindScatter) && in.X != "" && in.Y != "" {
		xc, okX := in.Table.Column(in.X)
		yc, okY := in.Table.Column(in.Y)
		if okX && okY && xc.Kind == table.KindNumeric && yc.Kind == table.KindNumeric {
			xs, ys := aligned(xc, yc)
			if len(xs) == 0 {
				return jobs
			}
			xl, yl := Humanize(in.X), Humanize(in.Y)
			jobs = append(jobs, Job{Kind: KindScatter, Path: out(Slug(in.X) + "_vs_" + Slug(in.Y)), Render: func(p string) error {
				return Scatter(p, xl+" vs "+yl, xl, yl, xs, ys)
			}})
		}
	}
	return jobs
}

// aligned returns the value pairs of rows where both columns are present.
func aligned(a, b *table.Column) ([]float64, []float64) {
	var xs, ys []float64
	for i := range a.Values {
		x, ok := a.Values[i].Float()
		if !ok {
			continue
		}
		y, ok := b.Values[i].Float()
		if !ok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}
