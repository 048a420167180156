package cmd

import (
	"errors"
	"fmt"

	cfgpkg "github.com/KaramelBytes/aqeda/internal/config"
	"github.com/KaramelBytes/aqeda/internal/pipeline"
	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// datasetFlags are the parsing and cleaning flags shared by every command
// that reads a dataset. Each one overrides the config key of the same name
// when set.
type datasetFlags struct {
	delimiter    string
	decimal      string
	thousands    string
	sheetName    string
	numeric      []string
	column       string
	threshold    float64
	method       string
	maxPasses    int
	onDegenerate string
	noOutliers   bool
}

func (f *datasetFlags) register(c *cobra.Command) {
	fl := c.Flags()
	fl.StringVar(&f.delimiter, "delimiter", "", "field delimiter: ',' | ';' | 'tab' (default by extension)")
	fl.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.' | ','")
	fl.StringVar(&f.thousands, "thousands", "", "thousands separator to strip from numbers")
	fl.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read (default first sheet)")
	fl.StringSliceVar(&f.numeric, "numeric", nil, "columns coerced to numbers (comma-separated)")
	fl.StringVar(&f.column, "outlier-column", "", "column scored for outliers")
	fl.Float64Var(&f.threshold, "threshold", 0, "|z| cut-off for outliers (config default 3; 'Inf' keeps every row)")
	fl.StringVar(&f.method, "method", "", "outlier score: zscore | robust")
	fl.IntVar(&f.maxPasses, "max-passes", 0, "re-score retained rows up to this many passes")
	fl.StringVar(&f.onDegenerate, "on-degenerate", "", "when scores are undefined: skip | abort")
	fl.BoolVar(&f.noOutliers, "no-outliers", false, "disable outlier filtering")
}

// current returns the loaded configuration or the built-in defaults.
func current() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}

// settings copies the configuration and applies the flags that were set.
func (f *datasetFlags) settings(c *cobra.Command) (*cfgpkg.Global, error) {
	s := *current()
	fl := c.Flags()
	if fl.Changed("delimiter") {
		s.Delimiter = f.delimiter
	}
	if fl.Changed("decimal") {
		s.Decimal = f.decimal
	}
	if fl.Changed("thousands") {
		s.Thousands = f.thousands
	}
	if fl.Changed("sheet-name") {
		s.SheetName = f.sheetName
	}
	if fl.Changed("numeric") {
		s.NumericColumns = f.numeric
	}
	if fl.Changed("outlier-column") {
		s.OutlierColumn = f.column
	}
	if fl.Changed("threshold") {
		s.OutlierThreshold = f.threshold
	}
	if fl.Changed("method") {
		s.OutlierMethod = f.method
	}
	if fl.Changed("max-passes") {
		s.OutlierMaxPasses = f.maxPasses
	}
	if fl.Changed("on-degenerate") {
		s.OnDegenerate = f.onDegenerate
	}
	if f.noOutliers {
		s.OutlierColumn = ""
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func loadOptions(s *cfgpkg.Global) table.LoadOptions {
	return table.LoadOptions{Delimiter: cfgpkg.Rune(s.Delimiter), SheetName: s.SheetName}
}

func pipelineOptions(s *cfgpkg.Global) (pipeline.Options, error) {
	method, err := pipeline.ParseMethod(s.OutlierMethod)
	if err != nil {
		return pipeline.Options{}, err
	}
	policy, err := pipeline.ParseDegeneratePolicy(s.OnDegenerate)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Coerce: pipeline.CoerceOptions{
			Columns:      s.NumericColumns,
			InferNumeric: s.InferNumeric,
			Format: table.NumberFormat{
				DecimalSeparator:   cfgpkg.Rune(s.Decimal),
				ThousandsSeparator: cfgpkg.Rune(s.Thousands),
			},
		},
		Outliers: pipeline.OutlierOptions{
			Column:    s.OutlierColumn,
			Threshold: s.OutlierThreshold,
			Method:    method,
			MaxPasses: s.OutlierMaxPasses,
		},
		OnDegenerate: policy,
	}, nil
}

// loadAndClean reads path and runs every cleaning stage. A load failure is
// reported distinctly from pipeline errors.
func loadAndClean(path string, s *cfgpkg.Global, rep *report.Report) (*pipeline.Result, error) {
	opt, err := pipelineOptions(s)
	if err != nil {
		return nil, err
	}
	raw, err := table.Load(path, loadOptions(s))
	if err != nil {
		var le *table.LoadError
		if errors.As(err, &le) {
			return nil, fmt.Errorf("load failed: %w", err)
		}
		return nil, err
	}
	log.Info().Str("file", path).Int("rows", raw.NumRows()).Int("columns", raw.NumCols()).Msg("loaded dataset")
	return pipeline.Run(raw, opt, rep)
}
