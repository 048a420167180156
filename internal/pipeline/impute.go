package pipeline

import (
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/rs/zerolog/log"
)

// ImputeStats records missing counts around forward-fill, per column.
type ImputeStats struct {
	MissingBefore map[string]int `json:"missing_before" yaml:"missing_before"`
	MissingAfter  map[string]int `json:"missing_after" yaml:"missing_after"`
	Filled        map[string]int `json:"filled" yaml:"filled"`
}

// Total sums a per-column count map.
func Total(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// Impute forward-fills every column of the coerced table.
func Impute(c Coerced) Imputed {
	t := c.Table()
	before := MissingCounts(t)
	out, filled := ForwardFill(t)
	stats := ImputeStats{MissingBefore: before, MissingAfter: MissingCounts(out), Filled: filled}
	log.Debug().Str("stage", "impute").Int("filled", Total(filled)).Int("still_missing", Total(stats.MissingAfter)).Msg("forward-filled missing values")
	return Imputed{t: out, Stats: stats}
}

// ForwardFill replaces each missing cell with the closest earlier non-missing
// value in the same column. Leading missing cells have nothing to copy and
// stay missing.
func ForwardFill(t *table.Table) (*table.Table, map[string]int) {
	filled := make(map[string]int, t.NumCols())
	cols := make([]table.Column, t.NumCols())
	for j, c := range t.Columns() {
		vals := make([]table.Value, len(c.Values))
		last := table.Missing()
		n := 0
		for i, v := range c.Values {
			if v.IsMissing() {
				if !last.IsMissing() {
					n++
				}
				vals[i] = last
				continue
			}
			vals[i] = v
			last = v
		}
		filled[c.Name] = n
		cols[j] = table.Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return table.MustNew(cols), filled
}

// MissingCounts returns the number of missing cells per column.
func MissingCounts(t *table.Table) map[string]int {
	out := make(map[string]int, t.NumCols())
	for _, c := range t.Columns() {
		out[c.Name] = c.Missing()
	}
	return out
}
