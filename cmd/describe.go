package cmd

import (
	"fmt"

	"github.com/KaramelBytes/aqeda/internal/analysis"
	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/spf13/cobra"
)

var (
	descFlags  datasetFlags
	descStage  string
	descFormat string
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Print summary statistics for one stage of the cleaning pipeline",
	Long: `Print count, mean, std, min, quartiles and max for every numeric column and
value counts for text columns.

--stage selects the table version: coerced (before imputation), imputed,
deduplicated or cleaned (after outlier removal, the default).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := descFlags.settings(cmd)
		if err != nil {
			return err
		}
		path := args[0]
		res, err := loadAndClean(path, s, report.New(path))
		if err != nil {
			return err
		}
		var t *table.Table
		switch descStage {
		case "coerced", "raw":
			t = res.Coerced.Table()
		case "imputed":
			t = res.Imputed.Table()
		case "deduplicated":
			t = res.Deduplicated.Table()
		case "", "cleaned":
			t = res.Cleaned()
		default:
			return fmt.Errorf("unknown --stage: %s (use coerced|imputed|deduplicated|cleaned)", descStage)
		}

		sum := analysis.Describe(t)
		out := report.New(path)
		out.Add(report.SectionOverview, "stage "+stageName(descStage), map[string]any{"rows": sum.Rows, "columns": t.NumCols()})
		if len(sum.Numeric) > 0 {
			out.AddTable(report.SectionStatistics, "numeric columns", sum.NumericBlock())
		}
		for _, c := range sum.Categorical {
			b := report.Block{Header: []string{c.Name, "count"}}
			for _, v := range c.Values {
				b.Rows = append(b.Rows, []string{v.Value, fmt.Sprint(v.Count)})
			}
			out.AddTable(report.SectionStatistics, fmt.Sprintf("%s: %d values, %d unique, %d missing", c.Name, c.Count, c.Unique, c.Missing), b)
		}
		body, err := out.Render(descFormat)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(body)
		return err
	},
}

func stageName(s string) string {
	if s == "" {
		return "cleaned"
	}
	return s
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descFlags.register(describeCmd)
	describeCmd.Flags().StringVar(&descStage, "stage", "cleaned", "table version: coerced | imputed | deduplicated | cleaned")
	describeCmd.Flags().StringVarP(&descFormat, "format", "f", "markdown", "output format: markdown | json | yaml")
}
