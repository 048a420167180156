package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// Method selects how scores are computed.
type Method string

const (
	// MethodZScore uses the sample mean and sample standard deviation.
	MethodZScore Method = "zscore"
	// MethodRobust uses 0.6745*(x-median)/MAD.
	MethodRobust Method = "robust"
)

// DefaultThreshold is the |z| cut-off used when none is configured.
const DefaultThreshold = 3.0

func (m Method) spreadName() string {
	if m == MethodRobust {
		return "MAD"
	}
	return "standard deviation"
}

// ParseMethod maps a config string to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodZScore:
		return MethodZScore, nil
	case MethodRobust:
		return MethodRobust, nil
	}
	return "", fmt.Errorf("unknown outlier method %q (use zscore or robust)", s)
}

// OutlierOptions configures the filter.
type OutlierOptions struct {
	Column    string
	Threshold float64
	Method    Method
	// MaxPasses > 1 re-scores the retained rows until nothing more is
	// excluded. The default is a single pass.
	MaxPasses int
}

// PassStats describes one scoring pass.
type PassStats struct {
	Center   float64 `json:"center" yaml:"center"`
	Scale    float64 `json:"scale" yaml:"scale"`
	Scored   int     `json:"scored" yaml:"scored"`
	Excluded int     `json:"excluded" yaml:"excluded"`
}

// OutlierResult describes what the filter removed. Scores is aligned to the
// filter's input rows and holds each row's most recent score (NaN when the
// target value is missing). Excluded holds input row positions.
type OutlierResult struct {
	Column        string       `json:"column" yaml:"column"`
	Method        Method       `json:"method" yaml:"method"`
	Threshold     float64      `json:"threshold" yaml:"threshold"`
	Passes        []PassStats  `json:"passes" yaml:"passes"`
	Scores        []float64    `json:"-" yaml:"-"`
	Excluded      []int        `json:"excluded" yaml:"excluded"`
	Unscored      int          `json:"unscored" yaml:"unscored"`
	ExcludedTable *table.Table `json:"-" yaml:"-"`
}

// ScoreColumn returns the annotation name used for excluded rows.
func (r *OutlierResult) ScoreColumn() string { return "z_score_" + r.Column }

// Filter applies FilterOutliers to the deduplicated table.
func Filter(d Deduplicated, opt OutlierOptions) (Filtered, error) {
	out, res, err := FilterOutliers(d.Table(), opt)
	if err != nil {
		return Filtered{}, err
	}
	return Filtered{t: out, Outliers: res}, nil
}

// Passthrough returns the deduplicated table unfiltered.
func Passthrough(d Deduplicated) Filtered {
	return Filtered{t: d.Table()}
}

// FilterOutliers keeps rows whose |z| <= Threshold on opt.Column. Rows with
// a missing target value carry no score and are kept.
func FilterOutliers(t *table.Table, opt OutlierOptions) (*table.Table, *OutlierResult, error) {
	if math.IsNaN(opt.Threshold) || opt.Threshold < 0 {
		return nil, nil, fmt.Errorf("invalid outlier threshold %v", opt.Threshold)
	}
	method, err := ParseMethod(string(opt.Method))
	if err != nil {
		return nil, nil, err
	}
	col, ok := t.Column(opt.Column)
	if !ok {
		return nil, nil, &ColumnError{Column: opt.Column, Reason: "not found"}
	}
	if col.Kind != table.KindNumeric {
		return nil, nil, &ColumnError{Column: opt.Column, Reason: "not numeric"}
	}
	passes := opt.MaxPasses
	if passes < 1 {
		passes = 1
	}

	res := &OutlierResult{Column: opt.Column, Method: method, Threshold: opt.Threshold, Scores: make([]float64, t.NumRows())}
	for i := range res.Scores {
		res.Scores[i] = math.NaN()
	}
	// live holds input positions still retained.
	live := make([]int, t.NumRows())
	for i := range live {
		live[i] = i
	}
	for pass := 0; pass < passes; pass++ {
		vals := make([]float64, 0, len(live))
		for _, i := range live {
			if f, ok := col.Values[i].Float(); ok {
				vals = append(vals, f)
			}
		}
		center, scale, de := spread(vals, method)
		if de != nil {
			if pass > 0 {
				// later passes may run out of spread; keep what we have
				break
			}
			de.Column = opt.Column
			return nil, nil, de
		}
		kept := make([]int, 0, len(live))
		ps := PassStats{Center: center, Scale: scale, Scored: len(vals)}
		for _, i := range live {
			f, ok := col.Values[i].Float()
			if !ok {
				kept = append(kept, i)
				continue
			}
			z := score(f, center, scale, method)
			res.Scores[i] = z
			if math.Abs(z) <= opt.Threshold {
				kept = append(kept, i)
				continue
			}
			res.Excluded = append(res.Excluded, i)
			ps.Excluded++
		}
		res.Passes = append(res.Passes, ps)
		live = kept
		if ps.Excluded == 0 {
			break
		}
	}
	for _, i := range live {
		if col.Values[i].IsMissing() {
			res.Unscored++
		}
	}
	sort.Ints(res.Excluded)
	res.ExcludedTable = annotate(t.Select(res.Excluded), res)
	log.Debug().Str("stage", "outliers").Str("column", opt.Column).Str("method", string(method)).
		Float64("threshold", opt.Threshold).Int("excluded", len(res.Excluded)).Int("passes", len(res.Passes)).
		Msg("filtered outliers")
	return t.Select(live), res, nil
}

// spread returns the center and scale for the method, or a
// DegenerateStatsError when scores would be undefined.
func spread(vals []float64, method Method) (float64, float64, *DegenerateStatsError) {
	if len(vals) < 2 {
		return 0, 0, &DegenerateStatsError{Method: method, Count: len(vals), Scale: math.NaN()}
	}
	var center, scale float64
	switch method {
	case MethodRobust:
		med, err := stats.Median(vals)
		if err != nil {
			return 0, 0, &DegenerateStatsError{Method: method, Count: len(vals), Scale: math.NaN()}
		}
		mad, err := stats.MedianAbsoluteDeviation(vals)
		if err != nil {
			return 0, 0, &DegenerateStatsError{Method: method, Count: len(vals), Scale: math.NaN()}
		}
		center, scale = med, mad
	default:
		center, scale = stat.MeanStdDev(vals, nil)
	}
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 0, 0, &DegenerateStatsError{Method: method, Count: len(vals), Scale: scale}
	}
	return center, scale, nil
}

func score(x, center, scale float64, method Method) float64 {
	if method == MethodRobust {
		return 0.6745 * (x - center) / scale
	}
	return stat.StdScore(x, center, scale)
}

// annotate appends the transient score column to the excluded rows.
func annotate(excluded *table.Table, res *OutlierResult) *table.Table {
	vals := make([]table.Value, len(res.Excluded))
	for k, i := range res.Excluded {
		vals[k] = table.Number(res.Scores[i])
	}
	out, err := excluded.WithColumn(table.Column{Name: res.ScoreColumn(), Kind: table.KindNumeric, Values: vals})
	if err != nil {
		// the input already has a column with that name; report without it
		return excluded
	}
	return out
}
