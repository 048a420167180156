package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/aqeda/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag below c to its default so one invocation
// does not leak Changed state into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns its stdout.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is execCmd for invocations that must succeed.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// isolate points HOME and the working directory at fresh temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)
	return dir
}

func writeFixture(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

// airQualityCSV has 20 distinct rows with one spike in AirQuality, one gap
// to forward-fill and a trailing copy of the first row.
func airQualityCSV() string {
	var b strings.Builder
	b.WriteString("Country,AirQuality,WaterPollution\n")
	countries := []string{"Chile", "Norway", "Kenya", "Peru", "Japan"}
	for i := 0; i < 19; i++ {
		aq := fmt.Sprint(10 + i%4)
		if i == 3 {
			aq = ""
		}
		fmt.Fprintf(&b, "%s,%s,%d\n", countries[i%5], aq, 40+i)
	}
	b.WriteString("Japan,1000,80\n")
	b.WriteString("Chile,10,40\n")
	return b.String()
}

func TestCLI_AnalyzeWritesArtifacts(t *testing.T) {
	dir := isolate(t)
	in := writeFixture(t, dir, "air.csv", airQualityCSV())
	outDir := filepath.Join(dir, "out")

	out := runCmd(t, "analyze", in, "-d", outDir)

	if !strings.Contains(out, "✓ Cleaned 21 → 19 rows (1 outliers on AirQuality)") {
		t.Fatalf("unexpected outcome line:\n%s", out)
	}
	cleaned, err := os.ReadFile(filepath.Join(outDir, "cleaned_air_quality_data.csv"))
	if err != nil {
		t.Fatalf("cleaned export missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(cleaned)), "\n")
	if lines[0] != "Country,AirQuality,WaterPollution" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines) != 20 {
		t.Fatalf("expected 19 data rows, got %d", len(lines)-1)
	}
	if strings.Contains(string(cleaned), "1000") {
		t.Fatalf("outlier row should be excluded from the export")
	}

	rep, err := os.ReadFile(filepath.Join(outDir, "eda_report.md"))
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	for _, sec := range []string{"[CLEANING]", "[OUTLIERS]", "[DESCRIPTIVE STATISTICS]", "[CORRELATIONS]", "[GROUP RANKING]", "[INSIGHTS]", "[ARTIFACTS]"} {
		if !strings.Contains(string(rep), sec) {
			t.Fatalf("report missing section %s", sec)
		}
	}

	for _, name := range []string{
		"missing_data.png",
		"air_quality_distribution.png", "air_quality_boxplot.png",
		"water_pollution_distribution.png", "water_pollution_boxplot.png",
		"correlation_heatmap.png", "air_quality_by_country.png",
		"air_quality_vs_water_pollution.png",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("chart %s not written: %v", name, err)
		}
	}
}

func TestCLI_AnalyzeReportToStdoutAsJSON(t *testing.T) {
	dir := isolate(t)
	in := writeFixture(t, dir, "air.csv", airQualityCSV())

	out := runCmd(t, "analyze", in, "-d", dir, "--no-charts", "-f", "json", "-o", "-")
	if !strings.Contains(out, `"run_id"`) || !strings.Contains(out, `"section": "INSIGHTS"`) {
		t.Fatalf("expected JSON report on stdout, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "correlation_heatmap.png")); err == nil {
		t.Fatalf("--no-charts should not render charts")
	}
}

func TestCLI_AnalyzeRejectsUnknownChartKind(t *testing.T) {
	dir := isolate(t)
	in := writeFixture(t, dir, "air.csv", airQualityCSV())
	_, err := execCmd(t, "analyze", in, "--charts", "pie")
	if err == nil || !strings.Contains(err.Error(), "unknown chart kind") {
		t.Fatalf("expected chart kind error, got %v", err)
	}
}

func TestCLI_LoadFailure(t *testing.T) {
	dir := isolate(t)
	_, err := execCmd(t, "analyze", filepath.Join(dir, "nope.csv"), "--no-charts")
	if err == nil || !strings.Contains(err.Error(), "load failed") {
		t.Fatalf("expected load failure, got %v", err)
	}
}

func TestCLI_DegenerateAbort(t *testing.T) {
	dir := isolate(t)
	in := writeFixture(t, dir, "flat.csv", "Country,AirQuality\nA,5\nB,5\nC,5\n")

	_, err := execCmd(t, "clean", in, "--on-degenerate", "abort", "-o", filepath.Join(dir, "c.csv"))
	if !errors.Is(err, pipeline.ErrDegenerateStatistics) {
		t.Fatalf("expected degenerate statistics error, got %v", err)
	}

	out := runCmd(t, "clean", in, "-o", filepath.Join(dir, "c.csv"))
	if !strings.Contains(out, "⚠ Outlier filtering skipped") {
		t.Fatalf("skip policy should warn, got:\n%s", out)
	}
	if !strings.Contains(out, "✓ Cleaned 3 → 3 rows") {
		t.Fatalf("skip policy should keep every row, got:\n%s", out)
	}
}

func TestCLI_CleanWritesExport(t *testing.T) {
	dir := isolate(t)
	in := writeFixture(t, dir, "air.csv", airQualityCSV())
	dest := filepath.Join(dir, "nested", "clean.tsv")

	out := runCmd(t, "clean", in, "-o", dest)
	if !strings.Contains(out, "dropped 1 duplicate rows") {
		t.Fatalf("expected duplicate count, got:\n%s", out)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("export missing: %v", err)
	}
	if !strings.HasPrefix(string(b), "Country\tAirQuality\tWaterPollution") {
		t.Fatalf("expected tab-separated export, got %q", strings.SplitN(string(b), "\n", 2)[0])
	}
}

func TestCLI_DescribeStage(t *testing.T) {
	dir := isolate(t)
	in := writeFixture(t, dir, "air.csv", airQualityCSV())

	out := runCmd(t, "describe", in, "--stage", "coerced")
	if !strings.Contains(out, "stage coerced") || !strings.Contains(out, "rows=21") {
		t.Fatalf("unexpected describe output:\n%s", out)
	}
	if !strings.Contains(out, "AirQuality") || !strings.Contains(out, "[DESCRIPTIVE STATISTICS]") {
		t.Fatalf("statistics missing:\n%s", out)
	}

	if _, err := execCmd(t, "describe", in, "--stage", "bogus"); err == nil {
		t.Fatalf("expected error for unknown stage")
	}
}

func TestCLI_RankOrdersGroups(t *testing.T) {
	dir := isolate(t)
	in := writeFixture(t, dir, "rank.csv", "Country,AirQuality\nA,10\nB,30\nC,20\nA,12\n")

	out := runCmd(t, "rank", in, "--no-outliers")
	a, b, c := strings.Index(out, "A "), strings.Index(out, "B "), strings.Index(out, "C ")
	if !(b < c && c < a) {
		t.Fatalf("expected B, C, A order:\n%s", out)
	}
	if !strings.Contains(out, "  1. B ") {
		t.Fatalf("expected B first:\n%s", out)
	}

	out = runCmd(t, "rank", in, "--no-outliers", "--asc", "--top", "1")
	if !strings.Contains(out, "  1. A ") || strings.Contains(out, "  2. ") {
		t.Fatalf("expected only A:\n%s", out)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())

	runCmd(t, "config", "set", "top_n", "5")
	runCmd(t, "config", "set", "outlier_method", "robust")
	if _, err := os.Stat(filepath.Join(home, ".aqeda", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}

	out := runCmd(t, "config", "show")
	for _, want := range []string{"top_n: 5", "outlier_method: robust", "group_column: Country"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}

	if _, err := execCmd(t, "config", "set", "outlier_method", "iqr"); err == nil {
		t.Fatalf("expected error for invalid method")
	}
	if _, err := execCmd(t, "config", "set", "no_such_key", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
