package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/KaramelBytes/aqeda/internal/table"
)

// GroupRow holds the per-column means of one group.
type GroupRow struct {
	Key   string
	Size  int
	Means map[string]float64 // NaN when the group has no values
	Count map[string]int
}

// GroupTable is the output of GroupMeans, sorted by group key.
type GroupTable struct {
	Key     string
	Columns []string
	Rows    []GroupRow
}

// GroupMeans partitions t by the distinct values of key and averages cols
// over non-missing values. Rows whose key is missing form no group.
func GroupMeans(t *table.Table, key string, cols []string) (*GroupTable, error) {
	kc, ok := t.Column(key)
	if !ok {
		return nil, fmt.Errorf("group column %q not found", key)
	}
	metrics := make([]*table.Column, len(cols))
	for i, name := range cols {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		if c.Kind != table.KindNumeric {
			return nil, fmt.Errorf("column %q is not numeric", name)
		}
		metrics[i] = c
	}

	type acc struct {
		size int
		sum  []float64
		cnt  []int
	}
	groups := map[string]*acc{}
	for r, kv := range kc.Values {
		if kv.IsMissing() {
			continue
		}
		k := kv.String()
		ga := groups[k]
		if ga == nil {
			ga = &acc{sum: make([]float64, len(cols)), cnt: make([]int, len(cols))}
			groups[k] = ga
		}
		ga.size++
		for i, c := range metrics {
			if f, ok := c.Values[r].Float(); ok {
				ga.sum[i] += f
				ga.cnt[i]++
			}
		}
	}

	out := &GroupTable{Key: key, Columns: append([]string(nil), cols...)}
	for k, ga := range groups {
		row := GroupRow{Key: k, Size: ga.size, Means: map[string]float64{}, Count: map[string]int{}}
		for i, name := range cols {
			row.Count[name] = ga.cnt[i]
			if ga.cnt[i] == 0 {
				row.Means[name] = math.NaN()
				continue
			}
			row.Means[name] = ga.sum[i] / float64(ga.cnt[i])
		}
		out.Rows = append(out.Rows, row)
	}
	sort.Slice(out.Rows, func(i, j int) bool { return out.Rows[i].Key < out.Rows[j].Key })
	return out, nil
}

// Mean returns the mean of metric for group key.
func (g *GroupTable) Mean(key, metric string) (float64, bool) {
	for _, r := range g.Rows {
		if r.Key == key {
			v, ok := r.Means[metric]
			return v, ok
		}
	}
	return 0, false
}

// Top returns up to n groups ordered by metric, descending when desc is set.
// Groups with a NaN mean are placed last; ties break on key. n <= 0 returns
// every group.
func (g *GroupTable) Top(metric string, n int, desc bool) []GroupRow {
	rows := make([]GroupRow, len(g.Rows))
	copy(rows, g.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Means[metric], rows[j].Means[metric]
		an, bn := math.IsNaN(a), math.IsNaN(b)
		switch {
		case an && bn:
			return rows[i].Key < rows[j].Key
		case an:
			return false
		case bn:
			return true
		case a == b:
			return rows[i].Key < rows[j].Key
		case desc:
			return a > b
		}
		return a < b
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Block renders rows as a report table with a size column and one mean
// column per metric.
func (g *GroupTable) Block(rows []GroupRow) report.Block {
	b := report.Block{Header: []string{g.Key, "n"}}
	for _, c := range g.Columns {
		b.Header = append(b.Header, "mean "+c)
	}
	for _, r := range rows {
		line := []string{r.Key, itoa(r.Size)}
		for _, c := range g.Columns {
			line = append(line, report.FormatFloat(r.Means[c]))
		}
		b.Rows = append(b.Rows, line)
	}
	return b
}

func itoa(n int) string { return strconv.Itoa(n) }
