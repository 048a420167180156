package pipeline

import (
	"sort"

	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/rs/zerolog/log"
)

// CoerceOptions lists the columns forced to numeric.
type CoerceOptions struct {
	Columns []string
	// InferNumeric also converts unlisted columns whose non-missing cells
	// all parse as numbers.
	InferNumeric bool
	Format       table.NumberFormat
}

// CoercionStats counts what coercion did. Failures are cells that held
// text which did not parse and are now missing.
type CoercionStats struct {
	Converted []string       `json:"converted" yaml:"converted"`
	Inferred  []string       `json:"inferred,omitempty" yaml:"inferred,omitempty"`
	Absent    []string       `json:"absent,omitempty" yaml:"absent,omitempty"`
	Failures  map[string]int `json:"failures" yaml:"failures"`
}

// TotalFailures sums failures across columns.
func (s CoercionStats) TotalFailures() int {
	n := 0
	for _, v := range s.Failures {
		n += v
	}
	return n
}

// Coerce converts the requested columns to numeric. A bad cell never aborts
// the stage; it becomes missing and is counted.
func Coerce(n Normalized, opt CoerceOptions) Coerced {
	t := n.Table()
	stats := CoercionStats{Failures: map[string]int{}}
	want := make(map[string]bool, len(opt.Columns))
	for _, name := range opt.Columns {
		want[name] = true
		if _, ok := t.Column(name); !ok {
			stats.Absent = append(stats.Absent, name)
		}
	}

	cols := make([]table.Column, t.NumCols())
	copy(cols, t.Columns())
	for i, c := range cols {
		listed := want[c.Name]
		if !listed && !(opt.InferNumeric && c.Kind != table.KindNumeric && looksNumeric(&c, opt.Format)) {
			continue
		}
		col, failed := coerceColumn(&c, opt.Format)
		cols[i] = col
		stats.Failures[c.Name] = failed
		if listed {
			stats.Converted = append(stats.Converted, c.Name)
		} else {
			stats.Inferred = append(stats.Inferred, c.Name)
		}
	}
	sort.Strings(stats.Absent)
	log.Debug().Str("stage", "coerce").Strs("converted", stats.Converted).Strs("inferred", stats.Inferred).
		Int("failures", stats.TotalFailures()).Msg("coerced numeric columns")
	return Coerced{t: table.MustNew(cols), Stats: stats}
}

func coerceColumn(c *table.Column, nf table.NumberFormat) (table.Column, int) {
	vals := make([]table.Value, len(c.Values))
	failed := 0
	for i, v := range c.Values {
		nv, ok := table.Coerce(v, nf)
		if !ok {
			failed++
		}
		vals[i] = nv
	}
	return table.Column{Name: c.Name, Kind: table.KindNumeric, Values: vals}, failed
}

func looksNumeric(c *table.Column, nf table.NumberFormat) bool {
	seen := false
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		if _, ok := table.Coerce(v, nf); !ok {
			return false
		}
		seen = true
	}
	return seen
}
