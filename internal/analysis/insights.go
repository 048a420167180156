package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/aqeda/internal/report"
)

// Strength describes |r| in words.
func Strength(r float64) string {
	a := math.Abs(r)
	switch {
	case math.IsNaN(r):
		return "undefined"
	case a < 0.1:
		return "negligible"
	case a < 0.3:
		return "weak"
	case a < 0.5:
		return "moderate"
	}
	return "strong"
}

// Insights derives narrative findings from computed statistics. x is also
// the metric used to rank groups. Any argument may be nil.
func Insights(s *Summary, corr *CorrMatrix, groups *GroupTable, x, y string) []string {
	var out []string
	if s != nil {
		for _, name := range []string{x, y} {
			ns, ok := s.Column(name)
			if !ok || ns.Count == 0 {
				continue
			}
			out = append(out, fmt.Sprintf("%s ranges from %s to %s (mean %s, std %s, n=%d).",
				name, report.FormatFloat(ns.Min), report.FormatFloat(ns.Max),
				report.FormatFloat(ns.Mean), report.FormatFloat(ns.Std), ns.Count))
		}
		if line, ok := compareSpread(s, x, y); ok {
			out = append(out, line)
		}
	}
	if corr != nil {
		if r, ok := corr.Get(x, y); ok && x != y {
			out = append(out, describeCorrelation(x, y, r))
		}
	}
	if groups != nil && len(groups.Rows) > 0 {
		ranked := groups.Top(x, 0, true)
		hi := ranked[0]
		lo := hi
		for _, r := range ranked {
			if !math.IsNaN(r.Means[x]) {
				lo = r
			}
		}
		if !math.IsNaN(hi.Means[x]) {
			if len(ranked) == 1 || hi.Key == lo.Key {
				out = append(out, fmt.Sprintf("Only one %s group has %s values: %s (mean %s).",
					groups.Key, x, hi.Key, report.FormatFloat(hi.Means[x])))
			} else {
				out = append(out, fmt.Sprintf("Across %d %s groups, %s has the highest mean %s (%s) and %s the lowest (%s).",
					len(ranked), groups.Key, hi.Key, x, report.FormatFloat(hi.Means[x]), lo.Key, report.FormatFloat(lo.Means[x])))
			}
		}
	}
	return out
}

func describeCorrelation(x, y string, r float64) string {
	switch st := Strength(r); st {
	case "undefined":
		return fmt.Sprintf("The correlation between %s and %s is undefined (too few paired values or no variation).", x, y)
	case "negligible":
		return fmt.Sprintf("%s and %s show no meaningful linear relationship (r=%.3f).", x, y, r)
	default:
		dir, trend := "positive", "higher"
		if r < 0 {
			dir, trend = "negative", "lower"
		}
		return fmt.Sprintf("%s and %s show a %s %s correlation (r=%.3f): higher %s tends to come with %s %s.",
			x, y, st, dir, r, x, trend, y)
	}
}

// compareSpread contrasts the coefficients of variation of x and y.
func compareSpread(s *Summary, x, y string) (string, bool) {
	a, okA := s.Column(x)
	b, okB := s.Column(y)
	if !okA || !okB || x == y {
		return "", false
	}
	cvA, cvB := a.Std/math.Abs(a.Mean), b.Std/math.Abs(b.Mean)
	if math.IsNaN(cvA) || math.IsNaN(cvB) || math.IsInf(cvA, 0) || math.IsInf(cvB, 0) {
		return "", false
	}
	more, less, hi, lo := x, y, cvA, cvB
	if cvB > cvA {
		more, less, hi, lo = y, x, cvB, cvA
	}
	return fmt.Sprintf("%s varies more relative to its mean than %s (coefficient of variation %.2f vs %.2f).",
		more, less, hi, lo), true
}
