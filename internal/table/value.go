package table

import (
	"math"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindMissing valueKind = iota
	kindNumber
	kindText
)

// Value is a single cell: missing, a finite number, or text.
type Value struct {
	kind valueKind
	num  float64
	text string
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// Number wraps f. Non-finite input yields the missing marker.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: kindNumber, num: f}
}

// Text wraps s as a text cell.
func Text(s string) Value { return Value{kind: kindText, text: s} }

func (v Value) IsMissing() bool { return v.kind == kindMissing }
func (v Value) IsNumber() bool  { return v.kind == kindNumber }
func (v Value) IsText() bool    { return v.kind == kindText }

// Float returns the numeric payload and whether the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != kindNumber {
		return 0, false
	}
	return v.num, true
}

// String renders the value the way it is written to flat files.
// Missing values render as the empty string.
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindText:
		return v.text
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same state and payload.
// Two missing values are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindNumber:
		return v.num == o.num
	case kindText:
		return v.text == o.text
	default:
		return true
	}
}

// key appends a tagged, unambiguous encoding of v to b.
func (v Value) key(b *strings.Builder) {
	switch v.kind {
	case kindNumber:
		b.WriteByte('n')
		b.WriteString(strconv.FormatFloat(v.num, 'g', -1, 64))
	case kindText:
		b.WriteByte('t')
		b.WriteString(strconv.Itoa(len(v.text)))
		b.WriteByte(':')
		b.WriteString(v.text)
	default:
		b.WriteByte('m')
	}
	b.WriteByte(0x1f)
}

// naTokens mirrors the usual dataframe defaults for cells read as missing.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsNAToken reports whether a raw cell should load as missing.
func IsNAToken(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// NumberFormat controls how text is parsed into numbers.
type NumberFormat struct {
	// DecimalSeparator defaults to '.' when zero.
	DecimalSeparator rune
	// ThousandsSeparator is stripped before parsing; zero means none.
	ThousandsSeparator rune
}

// ParseNumber converts raw text into a number. Failure is not an error:
// the second return is false and the caller decides how to count it.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	dec := nf.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if thou := nf.ThousandsSeparator; thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.ContainsRune(raw, '.') {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Coerce converts v to a number or the missing marker. The second return is
// false when a non-missing cell failed to parse.
func Coerce(v Value, nf NumberFormat) (Value, bool) {
	switch v.kind {
	case kindNumber, kindMissing:
		return v, true
	}
	f, ok := ParseNumber(v.text, nf)
	if !ok {
		return Missing(), false
	}
	return Number(f), true
}
