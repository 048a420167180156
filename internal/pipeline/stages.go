package pipeline

import "github.com/KaramelBytes/aqeda/internal/table"

// Each stage wraps the table it produced. Stage functions accept only the
// previous stage's type, so the cleaning order is fixed at compile time:
// Normalize -> Coerce -> Impute -> Deduplicate -> Filter.

// Normalized is the output of Normalize.
type Normalized struct {
	t       *table.Table
	Renamed int
}

func (s Normalized) Table() *table.Table { return s.t }

// Coerced is the output of Coerce.
type Coerced struct {
	t     *table.Table
	Stats CoercionStats
}

func (s Coerced) Table() *table.Table { return s.t }

// Imputed is the output of Impute.
type Imputed struct {
	t     *table.Table
	Stats ImputeStats
}

func (s Imputed) Table() *table.Table { return s.t }

// Deduplicated is the output of Deduplicate.
type Deduplicated struct {
	t     *table.Table
	Stats DedupeStats
}

func (s Deduplicated) Table() *table.Table { return s.t }

// Filtered is the output of Filter. Outliers is nil when filtering was
// skipped.
type Filtered struct {
	t        *table.Table
	Outliers *OutlierResult
}

func (s Filtered) Table() *table.Table { return s.t }
