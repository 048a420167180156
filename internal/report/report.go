package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/aqeda/internal/utils"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Section names used by the pipeline and the analyze command.
const (
	SectionOverview    = "DATASET OVERVIEW"
	SectionCleaning    = "CLEANING"
	SectionOutliers    = "OUTLIERS"
	SectionStatistics  = "DESCRIPTIVE STATISTICS"
	SectionCorrelation = "CORRELATIONS"
	SectionRanking     = "GROUP RANKING"
	SectionInsights    = "INSIGHTS"
	SectionArtifacts   = "ARTIFACTS"
)

// Level marks an entry as informational or a warning.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Block is a small table attached to an entry.
type Block struct {
	Header []string   `json:"header" yaml:"header"`
	Rows   [][]string `json:"rows" yaml:"rows"`
}

// Entry is one structured finding.
type Entry struct {
	Section string         `json:"section" yaml:"section"`
	Level   Level          `json:"level" yaml:"level"`
	Message string         `json:"message" yaml:"message"`
	Values  map[string]any `json:"values,omitempty" yaml:"values,omitempty"`
	Table   *Block         `json:"table,omitempty" yaml:"table,omitempty"`
}

// Report accumulates entries produced while a dataset is processed. Stages
// append; rendering happens separately.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Source    string    `json:"source" yaml:"source"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Entries   []Entry   `json:"entries" yaml:"entries"`
}

// New starts an empty report for source.
func New(source string) *Report {
	return &Report{RunID: uuid.NewString(), Source: source, CreatedAt: time.Now().UTC()}
}

// Add appends an informational entry.
func (r *Report) Add(section, msg string, values map[string]any) {
	r.add(Entry{Section: section, Level: LevelInfo, Message: msg, Values: clean(values)})
}

// Warn appends a warning entry.
func (r *Report) Warn(section, msg string, values map[string]any) {
	r.add(Entry{Section: section, Level: LevelWarning, Message: msg, Values: clean(values)})
}

// AddTable appends an entry carrying a table block.
func (r *Report) AddTable(section, msg string, b Block) {
	r.add(Entry{Section: section, Level: LevelInfo, Message: msg, Table: &b})
}

func (r *Report) add(e Entry) {
	r.Entries = append(r.Entries, e)
}

// Section returns the entries recorded under name, in order.
func (r *Report) Section(name string) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Section == name {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns all warning entries.
func (r *Report) Warnings() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Level == LevelWarning {
			out = append(out, e)
		}
	}
	return out
}

// clean replaces non-finite floats so every encoder accepts the values.
func clean(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			out[k] = FormatFloat(f)
			continue
		}
		out[k] = v
	}
	return out
}

// FormatFloat renders a statistic compactly; NaN prints as "NaN".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return fmt.Sprintf("%.4g", f)
}

// Render encodes the report as markdown, json or yaml.
func (r *Report) Render(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return []byte(r.Markdown()), nil
	case "json":
		return r.JSON()
	case "yaml", "yml":
		return r.YAML()
	}
	return nil, fmt.Errorf("unsupported report format: %s (use markdown|json|yaml)", format)
}

// JSON encodes the report with indentation.
func (r *Report) JSON() ([]byte, error) { return utils.PrettyJSON(r) }

// YAML encodes the report as a YAML document.
func (r *Report) YAML() ([]byte, error) {
	b, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

// Extension returns the file extension for a report format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return ".json"
	case "yaml", "yml":
		return ".yaml"
	}
	return ".md"
}

// Markdown renders sections in the order they first appear.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[EDA REPORT]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))

	var order []string
	seen := map[string]bool{}
	for _, e := range r.Entries {
		if !seen[e.Section] {
			seen[e.Section] = true
			order = append(order, e.Section)
		}
	}
	for _, sec := range order {
		b.WriteString("\n[")
		b.WriteString(sec)
		b.WriteString("]\n")
		for _, e := range r.Section(sec) {
			writeEntry(&b, e)
		}
	}
	return b.String()
}

func writeEntry(b *strings.Builder, e Entry) {
	prefix := "- "
	if e.Level == LevelWarning {
		prefix = "- ⚠ "
	}
	b.WriteString(prefix)
	b.WriteString(e.Message)
	if len(e.Values) > 0 {
		keys := make([]string, 0, len(e.Values))
		for k := range e.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%s", k, formatValue(e.Values[k]))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	b.WriteString("\n")
	if e.Table != nil && len(e.Table.Header) > 0 {
		writeBlock(b, e.Table)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return FormatFloat(x)
	case map[string]int:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s:%d", k, x[k])
		}
		return "{" + strings.Join(parts, " ") + "}"
	case []string:
		return "[" + strings.Join(x, " ") + "]"
	}
	return fmt.Sprint(v)
}

func writeBlock(b *strings.Builder, t *Block) {
	b.WriteString("\n| ")
	b.WriteString(strings.Join(escapeAll(t.Header), " | "))
	b.WriteString(" |\n|")
	for range t.Header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		cells := make([]string, len(t.Header))
		copy(cells, row)
		b.WriteString("| ")
		b.WriteString(strings.Join(escapeAll(cells), " | "))
		b.WriteString(" |\n")
	}
	b.WriteString("\n")
}

func escapeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
	}
	return out
}
