package cmd

import (
	"fmt"

	"github.com/KaramelBytes/aqeda/internal/analysis"
	"github.com/KaramelBytes/aqeda/internal/report"
	"github.com/spf13/cobra"
)

var (
	rankFlags  datasetFlags
	rankGroup  string
	rankMetric string
	rankTop    int
	rankAsc    bool
)

var rankCmd = &cobra.Command{
	Use:   "rank <file>",
	Short: "Rank groups by the mean of a numeric column on the cleaned table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := rankFlags.settings(cmd)
		if err != nil {
			return err
		}
		fl := cmd.Flags()
		if fl.Changed("group") {
			s.GroupColumn = rankGroup
		}
		if fl.Changed("by") {
			s.RankMetric = rankMetric
		}
		if fl.Changed("top") {
			s.TopN = rankTop
		}
		path := args[0]
		res, err := loadAndClean(path, s, report.New(path))
		if err != nil {
			return err
		}
		g, err := analysis.GroupMeans(res.Cleaned(), s.GroupColumn, []string{s.RankMetric})
		if err != nil {
			return err
		}
		rows := g.Top(s.RankMetric, s.TopN, !rankAsc)
		order := "highest"
		if rankAsc {
			order = "lowest"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s by mean %s (%s first, %d of %d groups)\n", s.GroupColumn, s.RankMetric, order, len(rows), len(g.Rows))
		for i, r := range rows {
			fmt.Fprintf(out, "%3d. %-24s %10s  (n=%d)\n", i+1, r.Key, report.FormatFloat(r.Means[s.RankMetric]), r.Count[s.RankMetric])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankFlags.register(rankCmd)
	rankCmd.Flags().StringVar(&rankGroup, "group", "", "column to group by (default from config)")
	rankCmd.Flags().StringVar(&rankMetric, "by", "", "numeric column to rank by (default from config)")
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "number of groups to list (0 = all)")
	rankCmd.Flags().BoolVar(&rankAsc, "asc", false, "lowest mean first")
}
