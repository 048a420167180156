package table

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airCSV = "\"Country\", \"AirQuality\", \"WaterPollution\"\n" +
	"Chad,41.2,70.1\n" +
	"Peru,NA,55\n" +
	"Oman,60.5,\n" +
	"Peru,,55\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		nf   NumberFormat
		want float64
		ok   bool
	}{
		{"12.5", NumberFormat{}, 12.5, true},
		{" 7 ", NumberFormat{}, 7, true},
		{"1e3", NumberFormat{}, 1000, true},
		{"abc", NumberFormat{}, 0, false},
		{"", NumberFormat{}, 0, false},
		{"inf", NumberFormat{}, 0, false},
		{"NaN", NumberFormat{}, 0, false},
		{"1,000", NumberFormat{}, 0, false},
		{"1,000.5", NumberFormat{ThousandsSeparator: ','}, 1000.5, true},
		{"1.000,5", NumberFormat{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1000.5, true},
		{"3,25", NumberFormat{DecimalSeparator: ','}, 3.25, true},
		{"3.25", NumberFormat{DecimalSeparator: ','}, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in, tc.nf)
		assert.Equal(t, tc.ok, ok, "ParseNumber(%q)", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-12, "ParseNumber(%q)", tc.in)
		}
	}
}

func TestValueSemantics(t *testing.T) {
	assert.True(t, Missing().Equal(Missing()))
	assert.True(t, Number(math.NaN()).IsMissing())
	assert.False(t, Number(1).Equal(Text("1")))
	assert.Equal(t, "", Missing().String())
	assert.Equal(t, "0.1", Number(0.1).String())

	v, ok := Coerce(Text("x"), NumberFormat{})
	assert.False(t, ok)
	assert.True(t, v.IsMissing())
	v, ok = Coerce(Missing(), NumberFormat{})
	assert.True(t, ok)
	assert.True(t, v.IsMissing())
}

func TestLoadCSV_KeepsRawLabelsAndMarksNA(t *testing.T) {
	p := writeFile(t, "air.csv", airCSV)
	tbl, err := Load(p, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", ` "AirQuality"`, ` "WaterPollution"`}, tbl.Names())
	assert.Equal(t, 4, tbl.NumRows())
	air, ok := tbl.Column(` "AirQuality"`)
	require.True(t, ok)
	assert.Equal(t, 2, air.Missing())
	assert.Equal(t, KindText, air.Kind)
	water, _ := tbl.Column(` "WaterPollution"`)
	assert.True(t, water.Values[2].IsMissing())
}

func TestLoad_MissingFileIsLoadError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, os.IsNotExist(le.Err))
}

func TestReadDelimited_EmptyInput(t *testing.T) {
	_, err := ReadDelimited(strings.NewReader(""), ',')
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadDelimited_ShortRowsPadded(t *testing.T) {
	tbl, err := ReadDelimited(strings.NewReader("a;b;c\n1;2\n"), ';')
	require.NoError(t, err)
	c, _ := tbl.Column("c")
	assert.True(t, c.Values[0].IsMissing())
}

func TestFromRecords_DuplicateLabels(t *testing.T) {
	tbl, err := FromRecords([]string{"x", "x", "x"}, [][]string{{"1", "2", "3"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x.1", "x.2"}, tbl.Names())
}

func TestSelectAndRowKey(t *testing.T) {
	tbl := MustNew([]Column{
		{Name: "k", Values: []Value{Text("a"), Text("b"), Text("a")}},
		{Name: "v", Kind: KindNumeric, Values: []Value{Number(1), Missing(), Number(1)}},
	})
	assert.Equal(t, tbl.RowKey(0), tbl.RowKey(2))
	assert.NotEqual(t, tbl.RowKey(0), tbl.RowKey(1))

	sel := tbl.Select([]int{2, 0})
	assert.Equal(t, 2, sel.NumRows())
	assert.Equal(t, tbl.Row(2), sel.Row(0))
	assert.Equal(t, 3, tbl.NumRows(), "source untouched")
}

func TestExportReload_RoundTrip(t *testing.T) {
	src := MustNew([]Column{
		{Name: "Country", Values: []Value{Text("Chad"), Text("Peru, Lima"), Missing()}},
		{Name: "AirQuality", Kind: KindNumeric, Values: []Value{Number(41.25), Missing(), Number(1e-7)}},
	})
	p := filepath.Join(t.TempDir(), "cleaned.csv")
	require.NoError(t, Export(p, src, ExportOptions{}))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "Country,AirQuality\n"))

	back, err := Load(p, LoadOptions{})
	require.NoError(t, err)
	col, _ := back.Column("AirQuality")
	coerced := Column{Name: col.Name, Kind: KindNumeric, Values: make([]Value, len(col.Values))}
	for i, v := range col.Values {
		coerced.Values[i], _ = Coerce(v, NumberFormat{})
	}
	back, err = back.ReplaceColumn(coerced)
	require.NoError(t, err)
	assert.True(t, src.Equal(back))
}

func TestExportXLSX_RoundTrip(t *testing.T) {
	src := MustNew([]Column{
		{Name: "Country", Values: []Value{Text("Chad"), Text("Oman")}},
		{Name: "AirQuality", Kind: KindNumeric, Values: []Value{Number(41.5), Number(60)}},
	})
	p := filepath.Join(t.TempDir(), "cleaned.xlsx")
	require.NoError(t, Export(p, src, ExportOptions{SheetName: "cleaned"}))

	back, err := Load(p, LoadOptions{SheetName: "cleaned"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Country", "AirQuality"}, back.Names())
	col, _ := back.Column("AirQuality")
	assert.Equal(t, "41.5", col.Values[0].String())

	_, err = Load(p, LoadOptions{SheetName: "other"})
	var le *LoadError
	assert.ErrorAs(t, err, &le)
}

func TestExport_UnwritableIsExportError(t *testing.T) {
	src := MustNew([]Column{{Name: "a", Values: []Value{Text("1")}}})
	err := Export(filepath.Join(t.TempDir(), "no", "such", "dir.csv"), src, ExportOptions{})
	var ee *ExportError
	require.ErrorAs(t, err, &ee)
}
