package pipeline

import (
	"strings"

	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/rs/zerolog/log"
)

// NormalizeLabel strips quote characters and surrounding whitespace.
func NormalizeLabel(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// Normalize cleans every column label of raw. Row content is unchanged.
func Normalize(raw *table.Table) Normalized {
	out := raw.Rename(NormalizeLabel)
	changed := 0
	names := out.Names()
	for i, n := range raw.Names() {
		if names[i] != n {
			changed++
		}
	}
	log.Debug().Str("stage", "normalize").Int("columns", out.NumCols()).Int("renamed", changed).Msg("normalized column labels")
	return Normalized{t: out, Renamed: changed}
}
