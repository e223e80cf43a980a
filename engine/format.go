package engine

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseMonthOrder converts "2024-02" (or "Feb-2024") to a sortable 202402.
// Unparseable input gives 0.
func ParseMonthOrder(month string) int {
	for _, layout := range []string{MonthFormat, "Jan-2006"} {
		if t, err := time.Parse(layout, month); err == nil {
			return t.Year()*100 + int(t.Month())
		}
	}
	return 0
}

// FormatCurrency formats an amount as "XAF 1,234.50". An empty currency
// leaves the bare number.
func FormatCurrency(amount float64, currency string) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	cents := int64(math.Round(amount * 100))
	number := groupThousands(strconv.FormatInt(cents/100, 10)) + "." + twoDigits(cents%100)
	if currency != "" {
		number = currency + " " + number
	}
	return sign + number
}

// FormatInt formats an integer with comma separators: 1234567 → "1,234,567".
func FormatInt(n int) string {
	if n < 0 {
		return "-" + groupThousands(strconv.Itoa(n)[1:])
	}
	return groupThousands(strconv.Itoa(n))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// RoundTo2 rounds v to two decimals.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LabelForDimension capitalizes a key for display: "in_stock" → "In stock".
func LabelForDimension(dimension string) string {
	if dimension == "" {
		return ""
	}
	s := strings.ReplaceAll(dimension, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

var aggregationLabels = map[string]string{
	AggSum:   "Amount",
	AggCount: "Count",
	AggAvg:   "Average",
	AggMax:   "Maximum",
	AggMin:   "Minimum",
}

// LabelForAggregation names an aggregation's column; unknown ones are "Value".
func LabelForAggregation(aggregation string) string {
	if l, ok := aggregationLabels[aggregation]; ok {
		return l
	}
	return "Value"
}
