package pipeline

import (
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/rs/zerolog/log"
)

// DedupeStats reports duplicate rows around the stage.
type DedupeStats struct {
	RowsBefore       int `json:"rows_before" yaml:"rows_before"`
	RowsAfter        int `json:"rows_after" yaml:"rows_after"`
	DuplicatesBefore int `json:"duplicates_before" yaml:"duplicates_before"`
	DuplicatesAfter  int `json:"duplicates_after" yaml:"duplicates_after"`
}

// Deduplicate drops repeated rows from the imputed table.
func Deduplicate(i Imputed) Deduplicated {
	t := i.Table()
	out, removed := DropDuplicates(t)
	stats := DedupeStats{
		RowsBefore:       t.NumRows(),
		RowsAfter:        out.NumRows(),
		DuplicatesBefore: removed,
		DuplicatesAfter:  CountDuplicates(out),
	}
	log.Debug().Str("stage", "dedupe").Int("removed", removed).Int("rows", out.NumRows()).Msg("dropped duplicate rows")
	return Deduplicated{t: out, Stats: stats}
}

// DropDuplicates keeps the first occurrence of every distinct full row,
// preserving order, and returns how many rows were dropped.
func DropDuplicates(t *table.Table) (*table.Table, int) {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	return t.Select(keep), t.NumRows() - len(keep)
}

// CountDuplicates counts rows equal to an earlier row.
func CountDuplicates(t *table.Table) int {
	seen := make(map[string]struct{}, t.NumRows())
	n := 0
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i)
		if _, ok := seen[key]; ok {
			n++
			continue
		}
		seen[key] = struct{}{}
	}
	return n
}
