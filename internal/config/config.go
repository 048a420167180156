package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. AQEDA_OUTLIER_THRESHOLD.
const EnvPrefix = "AQEDA"

// Global configuration structure.
type Global struct {
	Input       string `mapstructure:"input" yaml:"input"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	CleanedFile string `mapstructure:"cleaned_file" yaml:"cleaned_file"`
	SheetName   string `mapstructure:"sheet_name" yaml:"sheet_name"`

	// Parsing
	Delimiter      string   `mapstructure:"delimiter" yaml:"delimiter"`
	Decimal        string   `mapstructure:"decimal" yaml:"decimal"`
	Thousands      string   `mapstructure:"thousands" yaml:"thousands"`
	NumericColumns []string `mapstructure:"numeric_columns" yaml:"numeric_columns"`
	InferNumeric   bool     `mapstructure:"infer_numeric" yaml:"infer_numeric"`

	// Outlier filter
	OutlierColumn    string  `mapstructure:"outlier_column" yaml:"outlier_column"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`
	OutlierMethod    string  `mapstructure:"outlier_method" yaml:"outlier_method"`
	OutlierMaxPasses int     `mapstructure:"outlier_max_passes" yaml:"outlier_max_passes"`
	OnDegenerate     string  `mapstructure:"on_degenerate" yaml:"on_degenerate"`

	// Analysis and artifacts
	GroupColumn      string   `mapstructure:"group_column" yaml:"group_column"`
	RankMetric       string   `mapstructure:"rank_metric" yaml:"rank_metric"`
	ScatterX         string   `mapstructure:"scatter_x" yaml:"scatter_x"`
	ScatterY         string   `mapstructure:"scatter_y" yaml:"scatter_y"`
	TopN             int      `mapstructure:"top_n" yaml:"top_n"`
	Charts           []string `mapstructure:"charts" yaml:"charts"`
	ChartConcurrency int      `mapstructure:"chart_concurrency" yaml:"chart_concurrency"`
	ReportFormat     string   `mapstructure:"report_format" yaml:"report_format"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"input", "output_dir", "cleaned_file", "sheet_name",
	"delimiter", "decimal", "thousands", "numeric_columns", "infer_numeric",
	"outlier_column", "outlier_threshold", "outlier_method", "outlier_max_passes", "on_degenerate",
	"group_column", "rank_metric", "scatter_x", "scatter_y", "top_n", "charts", "chart_concurrency", "report_format",
	"log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "air_quality_data.csv")
	v.SetDefault("output_dir", ".")
	v.SetDefault("cleaned_file", "cleaned_air_quality_data.csv")
	v.SetDefault("sheet_name", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal", ".")
	v.SetDefault("thousands", "")
	v.SetDefault("numeric_columns", []string{"AirQuality", "WaterPollution"})
	v.SetDefault("infer_numeric", true)
	// Outlier defaults
	v.SetDefault("outlier_column", "AirQuality")
	v.SetDefault("outlier_threshold", 3.0)
	v.SetDefault("outlier_method", "zscore")
	v.SetDefault("outlier_max_passes", 1)
	v.SetDefault("on_degenerate", "skip")
	// Analysis defaults
	v.SetDefault("group_column", "Country")
	v.SetDefault("rank_metric", "AirQuality")
	v.SetDefault("scatter_x", "AirQuality")
	v.SetDefault("scatter_y", "WaterPollution")
	v.SetDefault("top_n", 10)
	v.SetDefault("charts", []string{})
	v.SetDefault("chart_concurrency", 4)
	v.SetDefault("report_format", "markdown")
	v.SetDefault("log_level", "info")
}

// Defaults returns the built-in configuration without reading files or the
// environment.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Dir returns ~/.aqeda.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".aqeda"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.aqeda/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults. A .env file in the
// working directory is applied to the environment first.
// Precedence: flags > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		// a missing file is fine; a malformed one is not
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate checks values that have a closed set of options.
func (c *Global) Validate() error {
	if c.OutlierThreshold < 0 {
		return fmt.Errorf("outlier_threshold must be >= 0, got %v", c.OutlierThreshold)
	}
	if c.ChartConcurrency < 0 {
		return fmt.Errorf("chart_concurrency must be >= 0, got %d", c.ChartConcurrency)
	}
	for name, s := range map[string]string{"delimiter": c.Delimiter, "decimal": c.Decimal, "thousands": c.Thousands} {
		if len([]rune(Unescape(s))) > 1 {
			return fmt.Errorf("%s must be a single character, got %q", name, s)
		}
	}
	switch c.ReportFormat {
	case "", "md", "markdown", "json", "yaml", "yml":
	default:
		return fmt.Errorf("invalid report_format: %s (use markdown|json|yaml)", c.ReportFormat)
	}
	return nil
}

// Rune returns the first rune of s after unescaping, or 0 when empty.
func Rune(s string) rune {
	s = Unescape(s)
	for _, r := range s {
		return r
	}
	return 0
}

// Unescape maps the spellings of tab accepted on the command line.
func Unescape(s string) string {
	switch s {
	case `\t`, "tab", "TAB":
		return "\t"
	}
	return s
}
