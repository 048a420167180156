package table

import (
	"fmt"
	"strings"
)

// Kind is the declared or inferred type of a column.
type Kind string

const (
	KindText    Kind = "text"
	KindNumeric Kind = "numeric"
)

// Column is a named vector of values aligned to row order.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Missing counts missing cells in the column.
func (c *Column) Missing() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Floats returns the non-missing numbers of the column in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func (c *Column) clone() Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: vals}
}

// Table is an ordered set of equally long columns. Tables handed between
// pipeline stages are treated as immutable; stages build new tables.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New builds a table from columns. All columns must have the same length
// and unique names.
func New(cols []Column) (*Table, error) {
	t := &Table{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), t.rows)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if c.Kind == "" {
			t.cols[i].Kind = KindText
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// MustNew is New for fixtures and literals known to be well formed.
func MustNew(cols []Column) *Table {
	t, err := New(cols)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds an all-text table from a header and string records.
// NA tokens become missing; short records are padded with missing cells.
func FromRecords(header []string, records [][]string) (*Table, error) {
	cols := make([]Column, len(header))
	for j, h := range header {
		cols[j] = Column{Name: h, Kind: KindText, Values: make([]Value, len(records))}
	}
	for i, rec := range records {
		for j := range cols {
			if j >= len(rec) || IsNAToken(rec[j]) {
				cols[j].Values[i] = Missing()
				continue
			}
			cols[j].Values[i] = Text(rec[j])
		}
	}
	return New(dedupeNames(cols))
}

// dedupeNames suffixes repeated column names with .1, .2, ...
func dedupeNames(cols []Column) []Column {
	seen := make(map[string]int, len(cols))
	for i := range cols {
		name := cols[i].Name
		if n, ok := seen[name]; ok {
			for {
				n++
				cand := fmt.Sprintf("%s.%d", name, n)
				if _, taken := seen[cand]; !taken {
					seen[name] = n
					cols[i].Name = cand
					seen[cand] = 0
					break
				}
			}
			continue
		}
		seen[name] = 0
	}
	return cols
}

func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column labels in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by exact name. The returned column must not be
// modified.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.cols[i], true
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column { return &t.cols[i] }

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []Column { return t.cols }

// NumericNames lists numeric columns in order.
func (t *Table) NumericNames() []string {
	var out []string
	for _, c := range t.cols {
		if c.Kind == KindNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j := range t.cols {
		out[j] = t.cols[j].Values[i]
	}
	return out
}

// RowKey encodes row i so that two rows have the same key exactly when all
// their values are equal.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j := range t.cols {
		t.cols[j].Values[i].key(&b)
	}
	return b.String()
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.cols))
	for i := range t.cols {
		cols[i] = t.cols[i].clone()
	}
	return MustNew(cols)
}

// Select returns a new table holding the given rows in the given order.
func (t *Table) Select(rows []int) *Table {
	cols := make([]Column, len(t.cols))
	for j, c := range t.cols {
		vals := make([]Value, len(rows))
		for k, i := range rows {
			vals[k] = c.Values[i]
		}
		cols[j] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return MustNew(cols)
}

// Rename returns a copy with every label passed through fn. Colliding
// results are made unique with a numeric suffix.
func (t *Table) Rename(fn func(string) string) *Table {
	cols := make([]Column, len(t.cols))
	for i := range t.cols {
		cols[i] = t.cols[i].clone()
		cols[i].Name = fn(cols[i].Name)
	}
	return MustNew(dedupeNames(cols))
}

// ReplaceColumn returns a copy of t where the column with c.Name is c.
func (t *Table) ReplaceColumn(c Column) (*Table, error) {
	i, ok := t.index[c.Name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", c.Name)
	}
	cols := make([]Column, len(t.cols))
	copy(cols, t.cols)
	cols[i] = c
	return New(cols)
}

// WithColumn returns a copy of t with c appended.
func (t *Table) WithColumn(c Column) (*Table, error) {
	cols := make([]Column, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	return New(append(cols, c))
}

// Records renders the table as string records without a header.
func (t *Table) Records() [][]string {
	out := make([][]string, t.rows)
	for i := 0; i < t.rows; i++ {
		rec := make([]string, len(t.cols))
		for j := range t.cols {
			rec[j] = t.cols[j].Values[i].String()
		}
		out[i] = rec
	}
	return out
}

// Equal reports whether both tables have the same labels, kinds and values.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for j := range t.cols {
		a, b := &t.cols[j], &o.cols[j]
		if a.Name != b.Name || a.Kind != b.Kind {
			return false
		}
		for i := range a.Values {
			if !a.Values[i].Equal(b.Values[i]) {
				return false
			}
		}
	}
	return true
}
