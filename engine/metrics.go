package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// METRICS — trends, percentages and guarded ratios for display
// ============================================================================
// Every function here returns a finite number. Empty input, a zero
// denominator or a short series produce a defined fallback, never an error,
// NaN or Inf.
// ============================================================================

// ComputeTrend returns the percentage change between the last point of
// series and the point selected by mode. Series shorter than 2 give 0.
// When the earlier value is 0 the trend is 100 if the series went up and 0
// otherwise.
func ComputeTrend(series []TimeSeriesPoint, mode TrendMode) float64 {
	if len(series) < 2 {
		return 0
	}
	last := series[len(series)-1].Value
	previous := series[len(series)-2].Value
	if mode == TrendRange {
		previous = series[0].Value
	}
	return percentChange(previous, last)
}

// TrendOf is ComputeTrend over bare values.
func TrendOf(values []float64, mode TrendMode) float64 {
	series := make([]TimeSeriesPoint, len(values))
	for i, v := range values {
		series[i].Value = v
	}
	return ComputeTrend(series, mode)
}

func percentChange(previous, last float64) float64 {
	delta := last - previous
	if previous == 0 {
		if delta > 0 {
			return 100
		}
		return 0
	}
	return finite((delta / previous) * 100)
}

// Sum adds values.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Average returns the mean of values, or 0 for no values.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return finite(Sum(values) / float64(len(values)))
}

// PercentageOf returns part as a percentage of whole, clamped to [0, 100].
// A zero whole gives 0.
func PercentageOf(part, whole float64) float64 {
	return clamp(RawPercentageOf(part, whole), 0, 100)
}

// UtilizationOf is PercentageOf named for progress and funding displays.
func UtilizationOf(used, total float64) float64 {
	return PercentageOf(used, total)
}

// RawPercentageOf returns part as a percentage of whole without clamping.
// A zero whole gives 0.
func RawPercentageOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return finite((part / whole) * 100)
}

// Ratio divides numerator by denominator, using 1 as the denominator when it
// is 0. This smooths dashboard ratios such as outcomes per volunteer hour; it
// is not an exact quotient.
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		denominator = 1
	}
	return finite(numerator / denominator)
}

// Direction describes a trend for text output.
func Direction(trend float64) string {
	switch {
	case trend > 0.5:
		return "increased"
	case trend < -0.5:
		return "decreased"
	default:
		return "unchanged"
	}
}

// FormatTrend renders a trend as "↑ 12.5%", "↓ 3.0%" or "→ No change".
func FormatTrend(trend float64) string {
	switch Direction(trend) {
	case "increased":
		return fmt.Sprintf("↑ %.1f%%", trend)
	case "decreased":
		return fmt.Sprintf("↓ %.1f%%", -trend)
	default:
		return "→ No change"
	}
}

// Summarize reduces measure over view. The trend compares monthly totals
// (month dimension) using mode.
func Summarize(view RecordView, measure string, mode TrendMode) MetricsSummary {
	s := MetricsSummary{
		Count:     view.Len(),
		TrendMode: mode.String(),
		Period:    DerivePeriod(view),
	}
	if view.Len() == 0 {
		s.Direction = Direction(0)
		return s
	}
	s.Total = SumMeasure(view, measure)
	s.Average = AvgMeasure(view, measure)
	s.Min = MinMeasure(view, measure)
	s.Max = MaxMeasure(view, measure)
	s.Trend = ComputeTrend(MonthlySeries(view, measure), mode)
	s.Direction = Direction(s.Trend)
	return s
}

// DerivePeriod builds "2024-01 – 2024-03" from the month dimension.
func DerivePeriod(view RecordView) string {
	if view.Len() == 0 {
		return "No data"
	}

	var earliest, latest string
	var earliestOrder, latestOrder int
	for i := 0; i < view.Len(); i++ {
		m := view.Dimension(i, DimMonth)
		order := ParseMonthOrder(m)
		if order == 0 {
			continue
		}
		if earliest == "" || order < earliestOrder {
			earliest, earliestOrder = m, order
		}
		if latest == "" || order > latestOrder {
			latest, latestOrder = m, order
		}
	}

	switch {
	case earliest == "":
		return "All time"
	case earliest == latest:
		return earliest
	default:
		return fmt.Sprintf("%s – %s", earliest, latest)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
