package pipeline

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/rs/zerolog/log"
)

// DegeneratePolicy decides what Run does when the outlier filter cannot
// compute scores.
type DegeneratePolicy string

const (
	// OnDegenerateSkip keeps every row and records a warning.
	OnDegenerateSkip DegeneratePolicy = "skip"
	// OnDegenerateAbort returns the DegenerateStatsError.
	OnDegenerateAbort DegeneratePolicy = "abort"
)

// ParseDegeneratePolicy maps a config string to a policy.
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch DegeneratePolicy(s) {
	case "", OnDegenerateSkip:
		return OnDegenerateSkip, nil
	case OnDegenerateAbort:
		return OnDegenerateAbort, nil
	}
	return "", fmt.Errorf("unknown on_degenerate policy %q (use skip or abort)", s)
}

// Options configures a full cleaning run.
type Options struct {
	Coerce CoerceOptions
	// Outliers.Column empty disables outlier filtering.
	Outliers     OutlierOptions
	OnDegenerate DegeneratePolicy
}

// Result holds every stage output of one run.
type Result struct {
	Raw          *table.Table
	Normalized   Normalized
	Coerced      Coerced
	Imputed      Imputed
	Deduplicated Deduplicated
	Filtered     Filtered
	// Skipped is set when outlier filtering was skipped under
	// OnDegenerateSkip.
	Skipped error
}

// Cleaned is the final table handed to consumers.
func (r *Result) Cleaned() *table.Table { return r.Filtered.Table() }

// Run executes every stage in order and records what each did in rep.
func Run(raw *table.Table, opt Options, rep *report.Report) (*Result, error) {
	res := &Result{Raw: raw}
	rep.Add(report.SectionOverview, "loaded dataset", map[string]any{
		"rows": raw.NumRows(), "columns": raw.NumCols(),
	})

	res.Normalized = Normalize(raw)
	rep.Add(report.SectionCleaning, "normalized column labels", map[string]any{
		"renamed": res.Normalized.Renamed, "columns": res.Normalized.Table().Names(),
	})

	res.Coerced = Coerce(res.Normalized, opt.Coerce)
	cs := res.Coerced.Stats
	rep.Add(report.SectionCleaning, "coerced numeric columns", map[string]any{
		"converted": cs.Converted, "inferred": cs.Inferred, "unparseable": cs.Failures,
	})
	if len(cs.Absent) > 0 {
		rep.Warn(report.SectionCleaning, "numeric columns not present in input", map[string]any{"columns": cs.Absent})
	}

	res.Imputed = Impute(res.Coerced)
	is := res.Imputed.Stats
	rep.Add(report.SectionCleaning, "missing values before imputation", map[string]any{
		"total": Total(is.MissingBefore), "per_column": is.MissingBefore,
	})
	rep.Add(report.SectionCleaning, "forward-filled missing values", map[string]any{
		"filled": Total(is.Filled), "remaining": Total(is.MissingAfter), "per_column": is.MissingAfter,
	})
	if left := Total(is.MissingAfter); left > 0 {
		rep.Warn(report.SectionCleaning, "leading missing values have no earlier value to copy and remain missing", map[string]any{"cells": left})
	}

	res.Deduplicated = Deduplicate(res.Imputed)
	ds := res.Deduplicated.Stats
	rep.Add(report.SectionCleaning, "removed duplicate rows", map[string]any{
		"duplicates_before": ds.DuplicatesBefore, "duplicates_after": ds.DuplicatesAfter,
		"rows_before": ds.RowsBefore, "rows_after": ds.RowsAfter,
	})

	if opt.Outliers.Column == "" {
		res.Filtered = Passthrough(res.Deduplicated)
		rep.Add(report.SectionOutliers, "outlier filtering disabled", nil)
	} else {
		f, err := Filter(res.Deduplicated, opt.Outliers)
		switch {
		case err == nil:
			res.Filtered = f
			recordOutliers(rep, f.Outliers)
		case errors.Is(err, ErrDegenerateStatistics) && opt.OnDegenerate != OnDegenerateAbort:
			res.Filtered = Passthrough(res.Deduplicated)
			res.Skipped = err
			rep.Warn(report.SectionOutliers, "outlier filtering skipped: "+err.Error(), map[string]any{"column": opt.Outliers.Column})
			log.Warn().Err(err).Str("column", opt.Outliers.Column).Msg("outlier filtering skipped")
		default:
			return res, fmt.Errorf("outlier filter: %w", err)
		}
	}

	cleaned := res.Cleaned()
	rep.Add(report.SectionOverview, "cleaned dataset", map[string]any{
		"rows": cleaned.NumRows(), "columns": cleaned.NumCols(),
	})
	log.Debug().Int("rows_in", raw.NumRows()).Int("rows_out", cleaned.NumRows()).Msg("pipeline finished")
	return res, nil
}

func recordOutliers(rep *report.Report, o *OutlierResult) {
	first := o.Passes[0]
	rep.Add(report.SectionOutliers, fmt.Sprintf("excluded rows with |z| > %s on %s", report.FormatFloat(o.Threshold), o.Column), map[string]any{
		"method": string(o.Method), "excluded": len(o.Excluded), "passes": len(o.Passes),
		"center": first.Center, "scale": first.Scale, "unscored": o.Unscored,
	})
	if o.ExcludedTable == nil || o.ExcludedTable.NumRows() == 0 {
		return
	}
	rep.AddTable(report.SectionOutliers, "excluded rows", report.Block{
		Header: o.ExcludedTable.Names(),
		Rows:   o.ExcludedTable.Records(),
	})
}
