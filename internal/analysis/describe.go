package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/montanaflynn/stats"
)

// NumericSummary holds descriptive statistics of one numeric column.
// Std is the sample standard deviation (divisor n-1).
type NumericSummary struct {
	Name    string
	Count   int
	Missing int
	Mean    float64
	Std     float64
	Min     float64
	Q25     float64
	Median  float64
	Q75     float64
	Max     float64
}

// CategoryCount is one distinct value and how often it occurs.
type CategoryCount struct {
	Value string
	Count int
}

// CategoricalSummary holds value counts of one text column.
type CategoricalSummary struct {
	Name    string
	Count   int
	Missing int
	Unique  int
	Values  []CategoryCount // by count desc, then value asc
}

// Top returns the most frequent value, if any.
func (c CategoricalSummary) Top() (CategoryCount, bool) {
	if len(c.Values) == 0 {
		return CategoryCount{}, false
	}
	return c.Values[0], true
}

// Summary is a read-only snapshot of one table version.
type Summary struct {
	Rows        int
	Numeric     []NumericSummary
	Categorical []CategoricalSummary
}

// Describe computes statistics for every column of t. t is not modified.
func Describe(t *table.Table) *Summary {
	s := &Summary{Rows: t.NumRows()}
	for i := 0; i < t.NumCols(); i++ {
		c := t.ColumnAt(i)
		if c.Kind == table.KindNumeric {
			s.Numeric = append(s.Numeric, describeNumeric(c))
			continue
		}
		s.Categorical = append(s.Categorical, describeText(c))
	}
	return s
}

// Column returns the numeric summary for name.
func (s *Summary) Column(name string) (NumericSummary, bool) {
	for _, n := range s.Numeric {
		if n.Name == name {
			return n, true
		}
	}
	return NumericSummary{}, false
}

func describeNumeric(c *table.Column) NumericSummary {
	vals := c.Floats()
	ns := NumericSummary{Name: c.Name, Count: len(vals), Missing: len(c.Values) - len(vals)}
	nan := math.NaN()
	ns.Mean, ns.Std, ns.Min, ns.Q25, ns.Median, ns.Q75, ns.Max = nan, nan, nan, nan, nan, nan, nan
	if len(vals) == 0 {
		return ns
	}
	ns.Mean, _ = stats.Mean(vals)
	ns.Min, _ = stats.Min(vals)
	ns.Max, _ = stats.Max(vals)
	if len(vals) > 1 {
		ns.Std, _ = stats.StandardDeviationSample(vals)
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	ns.Q25 = quantile(sorted, 0.25)
	ns.Median = quantile(sorted, 0.5)
	ns.Q75 = quantile(sorted, 0.75)
	return ns
}

func describeText(c *table.Column) CategoricalSummary {
	counts := map[string]int{}
	cs := CategoricalSummary{Name: c.Name}
	for _, v := range c.Values {
		if v.IsMissing() {
			cs.Missing++
			continue
		}
		cs.Count++
		counts[v.String()]++
	}
	cs.Unique = len(counts)
	cs.Values = make([]CategoryCount, 0, len(counts))
	for k, n := range counts {
		cs.Values = append(cs.Values, CategoryCount{Value: k, Count: n})
	}
	sort.Slice(cs.Values, func(i, j int) bool {
		if cs.Values[i].Count == cs.Values[j].Count {
			return cs.Values[i].Value < cs.Values[j].Value
		}
		return cs.Values[i].Count > cs.Values[j].Count
	})
	return cs
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// NumericBlock lays the numeric statistics out with one row per statistic
// and one column per variable.
func (s *Summary) NumericBlock() report.Block {
	b := report.Block{Header: []string{"stat"}}
	for _, n := range s.Numeric {
		b.Header = append(b.Header, n.Name)
	}
	rows := []struct {
		label string
		get   func(NumericSummary) float64
	}{
		{"count", func(n NumericSummary) float64 { return float64(n.Count) }},
		{"mean", func(n NumericSummary) float64 { return n.Mean }},
		{"std", func(n NumericSummary) float64 { return n.Std }},
		{"min", func(n NumericSummary) float64 { return n.Min }},
		{"25%", func(n NumericSummary) float64 { return n.Q25 }},
		{"50%", func(n NumericSummary) float64 { return n.Median }},
		{"75%", func(n NumericSummary) float64 { return n.Q75 }},
		{"max", func(n NumericSummary) float64 { return n.Max }},
	}
	for _, r := range rows {
		row := []string{r.label}
		for _, n := range s.Numeric {
			row = append(row, report.FormatFloat(r.get(n)))
		}
		b.Rows = append(b.Rows, row)
	}
	return b
}

// CategoricalBlock lists count, unique and the most frequent value per text
// column.
func (s *Summary) CategoricalBlock() report.Block {
	b := report.Block{Header: []string{"column", "count", "unique", "top", "freq"}}
	for _, c := range s.Categorical {
		top, _ := c.Top()
		b.Rows = append(b.Rows, []string{c.Name, itoa(c.Count), itoa(c.Unique), top.Value, itoa(top.Count)})
	}
	return b
}
