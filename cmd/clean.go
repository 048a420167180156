package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/aqeda/internal/pipeline"
	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/KaramelBytes/aqeda/internal/table"
	"github.com/KaramelBytes/aqeda/internal/utils"
	"github.com/spf13/cobra"
)

var (
	clnFlags  datasetFlags
	clnOutput string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Run the cleaning pipeline and export the cleaned table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := clnFlags.settings(cmd)
		if err != nil {
			return err
		}
		path := args[0]
		out := cmd.OutOrStdout()

		rep := report.New(path)
		res, err := loadAndClean(path, s, rep)
		if err != nil {
			return err
		}
		dest := clnOutput
		if dest == "" {
			dest = utils.OutputPath(s.OutputDir, s.CleanedFile)
		}
		if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := table.Export(dest, res.Cleaned(), table.ExportOptions{}); err != nil {
			return err
		}
		cs := res.Coerced.Stats
		ds := res.Deduplicated.Stats
		fmt.Fprintf(out, "✓ Coerced %d columns (%d unparseable cells)\n", len(cs.Converted)+len(cs.Inferred), cs.TotalFailures())
		fmt.Fprintf(out, "✓ Filled %d missing values, dropped %d duplicate rows\n", pipeline.Total(res.Imputed.Stats.Filled), ds.RowsBefore-ds.RowsAfter)
		printOutcome(out, res)
		fmt.Fprintf(out, "✓ Wrote cleaned data to %s\n", dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	clnFlags.register(cleanCmd)
	cleanCmd.Flags().StringVarP(&clnOutput, "output", "o", "", "destination file (.csv, .tsv or .xlsx; default from config)")
}
