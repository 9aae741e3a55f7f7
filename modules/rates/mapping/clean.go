package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeLabel canonicalizes a column label or alias for lookup: lowercase,
// accent-stripped, trimmed, spaces and dashes replaced by underscores.
func NormalizeLabel(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if stripped, _, err := transform.String(accentStripper, text); err == nil {
		text = stripped
	}
	text = strings.ReplaceAll(text, " ", "_")
	return strings.ReplaceAll(text, "-", "_")
}

// CleanDecimal coerces a cell value to a float, tolerating comma decimal
// separators, currency symbols and embedded spaces. Returns nil when the
// value is absent or unparsable; NaN counts as absent.
func CleanDecimal(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case float32:
		return CleanDecimal(float64(v))
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	}

	s := fmt.Sprintf("%v", value)
	s = strings.NewReplacer(" ", "", " ", "", "€", "", "$", "", "£", "").Replace(s)
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// stringify renders a cell value the way it should appear in a canonical
// string field. Floats that carry integer values drop the trailing ".0" that
// spreadsheet readers produce for numeric cells.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
