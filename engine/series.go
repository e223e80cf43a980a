package engine

import (
	"sort"
	"time"
)

// ============================================================================
// SERIES BUILDER — grouped month totals → chronological time series
// ============================================================================

// MonthlySeries sums measure per month dimension and returns the months in
// chronological order. Records without a parseable month are skipped.
func MonthlySeries(view RecordView, measure string) []TimeSeriesPoint {
	groups := GroupAndAggregate(view, []string{DimMonth}, measure, AggSum, "chronological", 0)
	return SeriesFromGroups(groups)
}

// SeriesFromGroups converts month-keyed groups into points, dropping groups
// whose key is not a month. Points are ordered by date.
func SeriesFromGroups(groups []Group) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, 0, len(groups))
	for _, g := range groups {
		order := ParseMonthOrder(g.Key)
		if order == 0 {
			continue
		}
		points = append(points, TimeSeriesPoint{
			Date:  time.Date(order/100, time.Month(order%100), 1, 0, 0, 0, 0, time.UTC),
			Label: g.Label,
			Value: RoundTo2(g.Value),
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// SortSeries orders points by date, keeping input order for equal dates.
func SortSeries(points []TimeSeriesPoint) []TimeSeriesPoint {
	out := make([]TimeSeriesPoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
