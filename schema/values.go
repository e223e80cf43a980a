package schema

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// CELL VALUES — shared by Discover and the CSV reader
// ============================================================================

// IsNull reports whether a cell holds no value.
func IsNull(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "null", "NULL", "N/A", "n/a", "-":
		return true
	}
	return false
}

var currencySymbols = []string{"$", "€", "£", "¥", "₦", "FCFA", "CFA"}

// ParseNumber parses amounts as they appear in exports: "1,234.50",
// "$12", "12 €" and "-3". Thousands separators must be commas.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	for _, sym := range currencySymbols {
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, sym), sym))
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01",
	"Jan-2006",
	"January 2006",
}

// ParseTime parses the date layouts found in spreadsheet exports. Slash
// dates are read month first. Bare years are not dates.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

// Key turns a column header into a snake_case key:
// "Story Points" and "storyPoints" both become "story_points".
func Key(header string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(header))
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	key := b.String()
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}
	return strings.Trim(key, "_")
}
