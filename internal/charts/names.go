package charts

import (
	"strings"
	"unicode"
)

// words splits a column label on case changes and punctuation:
// "AirQuality" -> [Air Quality], "PM2.5" -> [PM2 5].
func words(name string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(name)
	for i, r := range rs {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && len(cur) > 0 {
				prev := rs[i-1]
				nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					flush()
				}
			}
			cur = append(cur, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur = append(cur, r)
		default:
			flush()
		}
	}
	flush()
	return out
}

// Slug turns a column label into a file name stem: "AirQuality" -> "air_quality".
func Slug(name string) string {
	w := words(name)
	for i := range w {
		w[i] = strings.ToLower(w[i])
	}
	return strings.Join(w, "_")
}

// Humanize turns a column label into title text: "AirQuality" -> "Air Quality".
func Humanize(name string) string {
	w := words(name)
	if len(w) == 0 {
		return name
	}
	return strings.Join(w, " ")
}
