package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/KaramelBytes/aqeda/internal/table"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]; NaN when undefined
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Correlate computes Pearson r for every pair of numeric columns using the
// rows where both values are present.
func Correlate(t *table.Table) *CorrMatrix {
	names := t.NumericNames()
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		cols[i], _ = t.Column(n)
	}
	n := len(names)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		mat[a][a] = 1
		for b := a + 1; b < n; b++ {
			r := pairwise(cols[a], cols[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

func pairwise(a, b *table.Column) float64 {
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
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsInf(r, 0) {
		r = math.NaN()
	}
	// rounding can push r slightly outside [-1, 1]
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// Get returns r for the named pair.
func (m *CorrMatrix) Get(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return math.NaN(), false
	}
	return m.Values[ia][ib], true
}

// Pairs lists each off-diagonal pair once, strongest |r| first. Undefined
// pairs are omitted.
func (m *CorrMatrix) Pairs() []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	return pairs
}

// Block renders the full matrix.
func (m *CorrMatrix) Block() report.Block {
	b := report.Block{Header: append([]string{""}, m.Columns...)}
	for i, c := range m.Columns {
		row := []string{c}
		for j := range m.Columns {
			row = append(row, report.FormatFloat(m.Values[i][j]))
		}
		b.Rows = append(b.Rows, row)
	}
	return b
}
