package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/KaramelBytes/aqeda/internal/analysis"
	"github.com/KaramelBytes/aqeda/internal/charts"
	cfgpkg "github.com/KaramelBytes/aqeda/internal/config"
	"github.com/KaramelBytes/aqeda/internal/pipeline"
	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/KaramelBytes/aqeda/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	anaFlags       datasetFlags
	anaOutputDir   string
	anaReportPath  string
	anaFormat      string
	anaCleanedFile string
	anaGroup       string
	anaMetric      string
	anaTopN        int
	anaCharts      []string
	anaNoCharts    bool
	anaConcurrency int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Clean a dataset and write statistics, charts, a cleaned export and a report",
	Long: `Run the full exploratory analysis: load the dataset, clean it, describe it
before and after outlier removal, correlate the numeric columns, rank groups,
render charts, export the cleaned table and write the report.

The input defaults to the 'input' config key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := anaFlags.settings(cmd)
		if err != nil {
			return err
		}
		applyAnalyzeFlags(cmd, s)
		for _, k := range s.Charts {
			if !slices.Contains(charts.AllKinds, strings.ToLower(strings.TrimSpace(k))) {
				return fmt.Errorf("unknown chart kind %q (use %s)", k, strings.Join(charts.AllKinds, ", "))
			}
		}
		path := s.Input
		if len(args) == 1 {
			path = args[0]
		}
		out := cmd.OutOrStdout()

		rep := report.New(path)
		res, err := loadAndClean(path, s, rep)
		if err != nil {
			return err
		}
		cleaned := res.Cleaned()
		if err := utils.EnsureDir(s.OutputDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		corr, groups := describeResult(rep, res, s)

		exportPath := utils.OutputPath(s.OutputDir, s.CleanedFile)
		exportErr := table.Export(exportPath, cleaned, table.ExportOptions{})
		if exportErr != nil {
			rep.Warn(report.SectionArtifacts, "cleaned export failed: "+exportErr.Error(), nil)
			log.Error().Err(exportErr).Str("path", exportPath).Msg("export failed")
		} else {
			rep.Add(report.SectionArtifacts, "cleaned data", map[string]any{"path": exportPath, "rows": cleaned.NumRows()})
		}

		if !anaNoCharts {
			jobs := charts.Plan(charts.Inputs{
				Raw:     res.Coerced.Table(),
				Table:   cleaned,
				Corr:    corr,
				Groups:  groups,
				Metric:  s.RankMetric,
				Columns: cleaned.NumericNames(),
				X:       s.ScatterX,
				Y:       s.ScatterY,
				Dir:     s.OutputDir,
			}, s.Charts)
			written, err := charts.RenderAll(cmd.Context(), jobs, s.ChartConcurrency)
			if len(written) > 0 {
				rep.Add(report.SectionArtifacts, "charts", map[string]any{"files": written})
			}
			if err != nil {
				rep.Warn(report.SectionArtifacts, "chart rendering stopped: "+err.Error(), nil)
				log.Warn().Err(err).Msg("chart rendering stopped")
			}
		}

		if err := writeReport(out, rep, s); err != nil {
			return err
		}
		printOutcome(out, res)
		if exportErr != nil {
			return fmt.Errorf("export cleaned data: %w", exportErr)
		}
		return nil
	},
}

func applyAnalyzeFlags(cmd *cobra.Command, s *cfgpkg.Global) {
	fl := cmd.Flags()
	if fl.Changed("output-dir") {
		s.OutputDir = anaOutputDir
	}
	if fl.Changed("format") {
		s.ReportFormat = anaFormat
	}
	if fl.Changed("cleaned-file") {
		s.CleanedFile = anaCleanedFile
	}
	if fl.Changed("group") {
		s.GroupColumn = anaGroup
	}
	if fl.Changed("metric") {
		s.RankMetric = anaMetric
	}
	if fl.Changed("top") {
		s.TopN = anaTopN
	}
	if fl.Changed("charts") {
		s.Charts = anaCharts
	}
	if fl.Changed("concurrency") {
		s.ChartConcurrency = anaConcurrency
	}
}

// describeResult adds statistics, correlations, the group ranking and the
// derived insights to rep.
func describeResult(rep *report.Report, res *pipeline.Result, s *cfgpkg.Global) (*analysis.CorrMatrix, *analysis.GroupTable) {
	cleaned := res.Cleaned()
	imputed := analysis.Describe(res.Imputed.Table())
	summary := analysis.Describe(cleaned)
	if len(imputed.Numeric) > 0 {
		rep.AddTable(report.SectionStatistics, "after handling missing values", imputed.NumericBlock())
		rep.AddTable(report.SectionStatistics, "after removing outliers", summary.NumericBlock())
	}
	if len(summary.Categorical) > 0 {
		rep.AddTable(report.SectionStatistics, "text columns", summary.CategoricalBlock())
	}

	corr := analysis.Correlate(cleaned)
	if len(corr.Columns) >= 2 {
		rep.AddTable(report.SectionCorrelation, "pearson correlation (pairwise complete)", corr.Block())
		for _, p := range corr.Pairs() {
			rep.Add(report.SectionCorrelation, fmt.Sprintf("%s ~ %s", p.A, p.B), map[string]any{
				"r": p.R, "strength": analysis.Strength(p.R),
			})
		}
	}

	var groups *analysis.GroupTable
	if s.GroupColumn != "" {
		g, err := analysis.GroupMeans(cleaned, s.GroupColumn, cleaned.NumericNames())
		if err != nil {
			rep.Warn(report.SectionRanking, "group ranking skipped: "+err.Error(), nil)
		} else {
			groups = g
			top := g.Top(s.RankMetric, s.TopN, true)
			rep.AddTable(report.SectionRanking, fmt.Sprintf("%s by mean %s (top %d of %d)", s.GroupColumn, s.RankMetric, len(top), len(g.Rows)), g.Block(top))
		}
	}

	for _, line := range analysis.Insights(summary, corr, groups, s.ScatterX, s.ScatterY) {
		rep.Add(report.SectionInsights, line, nil)
	}
	return corr, groups
}

// writeReport renders rep and writes it to the report path, or to out when
// the path is "-".
func writeReport(out io.Writer, rep *report.Report, s *cfgpkg.Global) error {
	body, err := rep.Render(s.ReportFormat)
	if err != nil {
		return err
	}
	if anaReportPath == "-" {
		_, err := out.Write(body)
		return err
	}
	path := anaReportPath
	if path == "" {
		path = utils.OutputPath(s.OutputDir, "eda_report"+report.Extension(s.ReportFormat))
	}
	if err := utils.SafeWriteFile(path, body); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(out, "✓ Wrote report to %s\n", path)
	return nil
}

func printOutcome(out io.Writer, res *pipeline.Result) {
	fmt.Fprintf(out, "✓ Cleaned %d → %d rows", res.Raw.NumRows(), res.Cleaned().NumRows())
	if o := res.Filtered.Outliers; o != nil {
		fmt.Fprintf(out, " (%d outliers on %s)", len(o.Excluded), o.Column)
	}
	fmt.Fprintln(out)
	if res.Skipped != nil {
		var de *pipeline.DegenerateStatsError
		if errors.As(res.Skipped, &de) {
			fmt.Fprintf(out, "⚠ Outlier filtering skipped: %v\n", de)
		}
	}
	if n := pipeline.Total(res.Imputed.Stats.MissingAfter); n > 0 {
		fmt.Fprintf(out, "⚠ %d leading missing values could not be forward-filled\n", n)
	}
	if names := res.Coerced.Stats.Absent; len(names) > 0 {
		fmt.Fprintf(out, "⚠ Numeric columns not found: %s\n", strings.Join(names, ", "))
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputDir, "output-dir", "d", "", "directory for the export, charts and report")
	analyzeCmd.Flags().StringVarP(&anaReportPath, "output", "o", "", "report path ('-' for stdout; default <output-dir>/eda_report.<ext>)")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "", "report format: markdown | json | yaml")
	analyzeCmd.Flags().StringVar(&anaCleanedFile, "cleaned-file", "", "cleaned export file name (.csv, .tsv or .xlsx)")
	analyzeCmd.Flags().StringVar(&anaGroup, "group", "", "column to group by for the ranking")
	analyzeCmd.Flags().StringVar(&anaMetric, "metric", "", "numeric column the groups are ranked by")
	analyzeCmd.Flags().IntVar(&anaTopN, "top", 0, "number of groups listed in the report (0 = all)")
	analyzeCmd.Flags().StringSliceVar(&anaCharts, "charts", nil, "chart kinds: missing,histogram,boxplot,heatmap,bar,scatter (default all)")
	analyzeCmd.Flags().BoolVar(&anaNoCharts, "no-charts", false, "skip chart rendering")
	analyzeCmd.Flags().IntVar(&anaConcurrency, "concurrency", 0, "charts rendered in parallel")
}
