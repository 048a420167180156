package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/aqeda/internal/config"
	"github.com/KaramelBytes/aqeda/internal/pipeline"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set aqeda configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		out := cmd.OutOrStdout()
		for _, k := range cfgpkg.Keys {
			v, _ := configValue(c, k)
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		next := *cfg
		if err := setConfigValue(&next, key, val); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configValue(c *cfgpkg.Global, key string) (string, bool) {
	switch key {
	case "input":
		return c.Input, true
	case "output_dir":
		return c.OutputDir, true
	case "cleaned_file":
		return c.CleanedFile, true
	case "sheet_name":
		return c.SheetName, true
	case "delimiter":
		return strconv.Quote(c.Delimiter), true
	case "decimal":
		return strconv.Quote(c.Decimal), true
	case "thousands":
		return strconv.Quote(c.Thousands), true
	case "numeric_columns":
		return strings.Join(c.NumericColumns, ","), true
	case "infer_numeric":
		return strconv.FormatBool(c.InferNumeric), true
	case "outlier_column":
		return c.OutlierColumn, true
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'g', -1, 64), true
	case "outlier_method":
		return c.OutlierMethod, true
	case "outlier_max_passes":
		return strconv.Itoa(c.OutlierMaxPasses), true
	case "on_degenerate":
		return c.OnDegenerate, true
	case "group_column":
		return c.GroupColumn, true
	case "rank_metric":
		return c.RankMetric, true
	case "scatter_x":
		return c.ScatterX, true
	case "scatter_y":
		return c.ScatterY, true
	case "top_n":
		return strconv.Itoa(c.TopN), true
	case "charts":
		if len(c.Charts) == 0 {
			return "all", true
		}
		return strings.Join(c.Charts, ","), true
	case "chart_concurrency":
		return strconv.Itoa(c.ChartConcurrency), true
	case "report_format":
		return c.ReportFormat, true
	case "log_level":
		return c.LogLevel, true
	}
	return "", false
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "input":
		c.Input = val
	case "output_dir":
		c.OutputDir = val
	case "cleaned_file":
		c.CleanedFile = val
	case "sheet_name":
		c.SheetName = val
	case "delimiter":
		c.Delimiter = val
	case "decimal":
		c.Decimal = val
	case "thousands":
		c.Thousands = val
	case "numeric_columns":
		c.NumericColumns = splitList(val)
	case "infer_numeric":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for infer_numeric: %w", err)
		}
		c.InferNumeric = b
	case "outlier_column":
		c.OutlierColumn = val
	case "outlier_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || math.IsNaN(f) {
			return fmt.Errorf("invalid float for outlier_threshold: %v", val)
		}
		c.OutlierThreshold = f
	case "outlier_method":
		m, err := pipeline.ParseMethod(val)
		if err != nil {
			return err
		}
		c.OutlierMethod = string(m)
	case "outlier_max_passes":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for outlier_max_passes: %v", val)
		}
		c.OutlierMaxPasses = i
	case "on_degenerate":
		p, err := pipeline.ParseDegeneratePolicy(val)
		if err != nil {
			return err
		}
		c.OnDegenerate = string(p)
	case "group_column":
		c.GroupColumn = val
	case "rank_metric":
		c.RankMetric = val
	case "scatter_x":
		c.ScatterX = val
	case "scatter_y":
		c.ScatterY = val
	case "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for top_n: %v", val)
		}
		c.TopN = i
	case "charts":
		if strings.EqualFold(val, "all") {
			c.Charts = []string{}
		} else {
			c.Charts = splitList(val)
		}
	case "chart_concurrency":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for chart_concurrency: %v", val)
		}
		c.ChartConcurrency = i
	case "report_format":
		c.ReportFormat = strings.ToLower(val)
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
