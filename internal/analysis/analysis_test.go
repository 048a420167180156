package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/aqeda/internal/table"
)

func num(vals ...float64) []table.Value {
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			out[i] = table.Missing()
			continue
		}
		out[i] = table.Number(v)
	}
	return out
}

func text(vals ...string) []table.Value {
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		if v == "" {
			out[i] = table.Missing()
			continue
		}
		out[i] = table.Text(v)
	}
	return out
}

func almostEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestDescribeNumeric(t *testing.T) {
	tb := table.MustNew([]table.Column{
		{Name: "AirQuality", Kind: table.KindNumeric, Values: num(1, 2, 3, 4, 5)},
	})
	s := Describe(tb)
	if s.Rows != 5 || len(s.Numeric) != 1 {
		t.Fatalf("unexpected summary shape: %+v", s)
	}
	ns := s.Numeric[0]
	if ns.Count != 5 || ns.Missing != 0 {
		t.Fatalf("count/missing: %+v", ns)
	}
	if !almostEqual(ns.Mean, 3, 1e-12) {
		t.Fatalf("mean=%v", ns.Mean)
	}
	if !almostEqual(ns.Std, 1.5811388300841898, 1e-9) {
		t.Fatalf("std=%v want sample std", ns.Std)
	}
	if ns.Min != 1 || ns.Max != 5 {
		t.Fatalf("min/max=%v/%v", ns.Min, ns.Max)
	}
	if ns.Q25 != 2 || ns.Median != 3 || ns.Q75 != 4 {
		t.Fatalf("quartiles=%v/%v/%v", ns.Q25, ns.Median, ns.Q75)
	}
}

func TestDescribeEdgeCases(t *testing.T) {
	nan := math.NaN()
	tb := table.MustNew([]table.Column{
		{Name: "one", Kind: table.KindNumeric, Values: num(7, nan, nan)},
		{Name: "none", Kind: table.KindNumeric, Values: num(nan, nan, nan)},
	})
	s := Describe(tb)
	one, _ := s.Column("one")
	if one.Count != 1 || one.Missing != 2 || one.Mean != 7 || one.Min != 7 || one.Median != 7 {
		t.Fatalf("single value column: %+v", one)
	}
	if !math.IsNaN(one.Std) {
		t.Fatalf("std of one value should be NaN, got %v", one.Std)
	}
	none, _ := s.Column("none")
	for name, v := range map[string]float64{"mean": none.Mean, "std": none.Std, "min": none.Min, "q50": none.Median, "max": none.Max} {
		if !math.IsNaN(v) {
			t.Fatalf("%s of empty column should be NaN, got %v", name, v)
		}
	}
	if _, ok := s.Column("missing"); ok {
		t.Fatalf("unknown column reported present")
	}
}

func TestDescribeDoesNotMutate(t *testing.T) {
	tb := table.MustNew([]table.Column{
		{Name: "x", Kind: table.KindNumeric, Values: num(3, 1, 2)},
	})
	before := tb.Clone()
	Describe(tb)
	if !tb.Equal(before) {
		t.Fatalf("Describe changed its input")
	}
}

func TestDescribeCategorical(t *testing.T) {
	tb := table.MustNew([]table.Column{
		{Name: "Country", Kind: table.KindText, Values: text("B", "A", "B", "", "C", "A", "B")},
	})
	s := Describe(tb)
	if len(s.Categorical) != 1 {
		t.Fatalf("expected one categorical column")
	}
	c := s.Categorical[0]
	if c.Count != 6 || c.Missing != 1 || c.Unique != 3 {
		t.Fatalf("counts: %+v", c)
	}
	want := []CategoryCount{{"B", 3}, {"A", 2}, {"C", 1}}
	for i, w := range want {
		if c.Values[i] != w {
			t.Fatalf("values[%d]=%+v want %+v", i, c.Values[i], w)
		}
	}
	top, ok := c.Top()
	if !ok || top.Value != "B" {
		t.Fatalf("top=%+v", top)
	}
	blk := s.CategoricalBlock()
	if len(blk.Rows) != 1 || blk.Rows[0][3] != "B" || blk.Rows[0][4] != "3" {
		t.Fatalf("categorical block: %+v", blk)
	}
}

func TestQuantileInterpolates(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	cases := map[float64]float64{0: 10, 0.25: 17.5, 0.5: 25, 0.75: 32.5, 1: 40}
	for q, want := range cases {
		if got := quantile(sorted, q); !almostEqual(got, want, 1e-12) {
			t.Fatalf("quantile(%v)=%v want %v", q, got, want)
		}
	}
	if !math.IsNaN(quantile(nil, 0.5)) {
		t.Fatalf("quantile of empty slice should be NaN")
	}
}

func TestNumericBlockLayout(t *testing.T) {
	tb := table.MustNew([]table.Column{
		{Name: "a", Kind: table.KindNumeric, Values: num(1, 2, 3, 4, 5)},
		{Name: "b", Kind: table.KindNumeric, Values: num(2, 4, 6, 8, 10)},
	})
	blk := Describe(tb).NumericBlock()
	if strings.Join(blk.Header, ",") != "stat,a,b" {
		t.Fatalf("header=%v", blk.Header)
	}
	if len(blk.Rows) != 8 || blk.Rows[1][0] != "mean" || blk.Rows[1][2] != "6" {
		t.Fatalf("rows=%v", blk.Rows)
	}
}

func groupFixture() *table.Table {
	nan := math.NaN()
	return table.MustNew([]table.Column{
		{Name: "Country", Kind: table.KindText, Values: text("A", "A", "B", "", "C")},
		{Name: "AirQuality", Kind: table.KindNumeric, Values: num(10, 20, 5, 99, nan)},
	})
}

func TestGroupMeans(t *testing.T) {
	g, err := GroupMeans(groupFixture(), "Country", []string{"AirQuality"})
	if err != nil {
		t.Fatalf("GroupMeans: %v", err)
	}
	if len(g.Rows) != 3 {
		t.Fatalf("missing key must form no group, got %d groups", len(g.Rows))
	}
	if g.Rows[0].Key != "A" || g.Rows[1].Key != "B" || g.Rows[2].Key != "C" {
		t.Fatalf("rows not sorted by key: %+v", g.Rows)
	}
	if m, _ := g.Mean("A", "AirQuality"); m != 15 {
		t.Fatalf("mean A=%v", m)
	}
	if m, _ := g.Mean("B", "AirQuality"); m != 5 {
		t.Fatalf("mean B=%v", m)
	}
	if m, _ := g.Mean("C", "AirQuality"); !math.IsNaN(m) {
		t.Fatalf("group without values should have NaN mean, got %v", m)
	}
	if g.Rows[0].Size != 2 || g.Rows[0].Count["AirQuality"] != 2 {
		t.Fatalf("size/count A: %+v", g.Rows[0])
	}
}

func TestGroupMeansErrors(t *testing.T) {
	tb := groupFixture()
	if _, err := GroupMeans(tb, "Region", []string{"AirQuality"}); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := GroupMeans(tb, "Country", []string{"Country"}); err == nil {
		t.Fatalf("expected error for text metric")
	}
	if _, err := GroupMeans(tb, "Country", []string{"Nope"}); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
}

func TestGroupTop(t *testing.T) {
	g, err := GroupMeans(groupFixture(), "Country", []string{"AirQuality"})
	if err != nil {
		t.Fatalf("GroupMeans: %v", err)
	}
	desc := g.Top("AirQuality", 0, true)
	if desc[0].Key != "A" || desc[1].Key != "B" || desc[2].Key != "C" {
		t.Fatalf("desc order: %v %v %v", desc[0].Key, desc[1].Key, desc[2].Key)
	}
	asc := g.Top("AirQuality", 2, false)
	if len(asc) != 2 || asc[0].Key != "B" || asc[1].Key != "A" {
		t.Fatalf("asc top2: %+v", asc)
	}
	if g.Rows[0].Key != "A" || g.Rows[1].Key != "B" {
		t.Fatalf("Top reordered the underlying rows")
	}
	blk := g.Block(asc)
	if blk.Header[2] != "mean AirQuality" || blk.Rows[0][0] != "B" || blk.Rows[0][2] != "5" {
		t.Fatalf("block=%+v", blk)
	}
}

func TestCorrelate(t *testing.T) {
	nan := math.NaN()
	tb := table.MustNew([]table.Column{
		{Name: "x", Kind: table.KindNumeric, Values: num(1, 2, 3, 4, nan)},
		{Name: "y", Kind: table.KindNumeric, Values: num(2, 4, 6, 8, 100)},
		{Name: "z", Kind: table.KindNumeric, Values: num(4, 3, 2, 1, 0)},
		{Name: "c", Kind: table.KindNumeric, Values: num(5, 5, 5, 5, 5)},
		{Name: "label", Kind: table.KindText, Values: text("a", "b", "c", "d", "e")},
	})
	m := Correlate(tb)
	if strings.Join(m.Columns, ",") != "x,y,z,c" {
		t.Fatalf("columns=%v", m.Columns)
	}
	// pairwise-complete: the 100 row has no x and is ignored for x~y
	if r, _ := m.Get("x", "y"); !almostEqual(r, 1, 1e-12) {
		t.Fatalf("r(x,y)=%v", r)
	}
	if r, _ := m.Get("x", "z"); !almostEqual(r, -1, 1e-12) {
		t.Fatalf("r(x,z)=%v", r)
	}
	if r, _ := m.Get("y", "c"); !math.IsNaN(r) {
		t.Fatalf("constant column should give NaN, got %v", r)
	}
	for i := range m.Columns {
		for j := range m.Columns {
			a, b := m.Values[i][j], m.Values[j][i]
			if !(a == b || (math.IsNaN(a) && math.IsNaN(b))) {
				t.Fatalf("matrix not symmetric at %d,%d", i, j)
			}
		}
	}
	pairs := m.Pairs()
	for _, p := range pairs {
		if p.A == "c" || p.B == "c" {
			t.Fatalf("undefined pair listed: %+v", p)
		}
	}
	if len(pairs) != 3 || math.Abs(pairs[0].R) < math.Abs(pairs[2].R) {
		t.Fatalf("pairs=%+v", pairs)
	}
	if _, ok := m.Get("x", "nope"); ok {
		t.Fatalf("unknown column found")
	}
}

func TestInsights(t *testing.T) {
	tb := table.MustNew([]table.Column{
		{Name: "Country", Kind: table.KindText, Values: text("A", "A", "B", "C")},
		{Name: "AirQuality", Kind: table.KindNumeric, Values: num(110, 120, 130, 140)},
		{Name: "WaterPollution", Kind: table.KindNumeric, Values: num(40, 30, 20, 10)},
	})
	s := Describe(tb)
	corr := Correlate(tb)
	g, err := GroupMeans(tb, "Country", []string{"AirQuality"})
	if err != nil {
		t.Fatalf("GroupMeans: %v", err)
	}
	lines := Insights(s, corr, g, "AirQuality", "WaterPollution")
	all := strings.Join(lines, "\n")
	for _, want := range []string{
		"AirQuality ranges from 110 to 140",
		"strong negative correlation (r=-1.000)",
		"C has the highest mean AirQuality (140)",
		"A the lowest (115)",
		"WaterPollution varies more relative to its mean than AirQuality",
	} {
		if !strings.Contains(all, want) {
			t.Fatalf("insights missing %q:\n%s", want, all)
		}
	}
	if got := Insights(nil, nil, nil, "a", "b"); len(got) != 0 {
		t.Fatalf("expected no insights without inputs, got %v", got)
	}
}

func TestStrength(t *testing.T) {
	cases := map[float64]string{0.05: "negligible", -0.2: "weak", 0.4: "moderate", -0.9: "strong"}
	for r, want := range cases {
		if got := Strength(r); got != want {
			t.Fatalf("Strength(%v)=%s want %s", r, got, want)
		}
	}
	if Strength(math.NaN()) != "undefined" {
		t.Fatalf("NaN strength")
	}
}
