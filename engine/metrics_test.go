package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func series(values ...float64) []TimeSeriesPoint {
	out := make([]TimeSeriesPoint, len(values))
	for i, v := range values {
		out[i] = TimeSeriesPoint{Date: day("2024-01-01").AddDate(0, i, 0), Value: v}
	}
	return out
}

func TestComputeTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []TimeSeriesPoint
		mode   TrendMode
		want   float64
	}{
		{"empty", nil, TrendPointOverPoint, 0},
		{"single point", series(42), TrendRange, 0},
		{"point over point", series(100, 150), TrendPointOverPoint, 50},
		{"uses second to last", series(10, 100, 150), TrendPointOverPoint, 50},
		{"range uses first", series(10, 100, 150), TrendRange, 1400},
		{"decline", series(200, 150), TrendPointOverPoint, -25},
		{"zero base rising", series(0, 5), TrendPointOverPoint, 100},
		{"zero base flat", series(0, 0), TrendPointOverPoint, 0},
		{"zero base falling", series(0, -3), TrendRange, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeTrend(tt.series, tt.mode), 1e-9)
		})
	}
}

func TestTrendOf(t *testing.T) {
	assert.InDelta(t, 50.0, TrendOf([]float64{100, 150}, TrendPointOverPoint), 1e-9)
	assert.Zero(t, TrendOf([]float64{7}, TrendRange))
}

func TestPercentageOf(t *testing.T) {
	assert.Equal(t, 0.0, PercentageOf(50, 0))
	assert.Equal(t, 100.0, PercentageOf(1200, 1000))
	assert.Equal(t, 25.0, PercentageOf(250, 1000))
	assert.Equal(t, 0.0, PercentageOf(-10, 100))
	assert.Equal(t, 100.0, UtilizationOf(1200, 1000))
}

func TestRawPercentageOf(t *testing.T) {
	assert.Equal(t, 120.0, RawPercentageOf(1200, 1000))
	assert.Equal(t, 0.0, RawPercentageOf(5, 0))
}

func TestRatioFloorsZeroDenominator(t *testing.T) {
	assert.Equal(t, 12.0, Ratio(12, 0))
	assert.Equal(t, 4.0, Ratio(12, 3))
	assert.False(t, math.IsNaN(Ratio(0, 0)))
}

func TestSumAndAverage(t *testing.T) {
	assert.Equal(t, 6.0, Sum([]float64{1, 2, 3}))
	assert.Equal(t, 2.0, Average([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, Average(nil))
}

func TestDirectionAndFormat(t *testing.T) {
	assert.Equal(t, "increased", Direction(12))
	assert.Equal(t, "decreased", Direction(-3))
	assert.Equal(t, "unchanged", Direction(0.2))

	assert.Equal(t, "↑ 12.5%", FormatTrend(12.5))
	assert.Equal(t, "↓ 3.0%", FormatTrend(-3))
	assert.Equal(t, "→ No change", FormatTrend(0))
}

func TestSummarize(t *testing.T) {
	items := []item{
		{ID: "a", Price: 100, Created: day("2024-01-05")},
		{ID: "b", Price: 50, Created: day("2024-01-20")},
		{ID: "c", Price: 300, Created: day("2024-02-02")},
	}

	s := Summarize(itemAdapter.Bind(items), MeasurePrice, TrendPointOverPoint)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 450.0, s.Total)
	assert.Equal(t, 150.0, s.Average)
	assert.Equal(t, 50.0, s.Min)
	assert.Equal(t, 300.0, s.Max)
	assert.InDelta(t, 100.0, s.Trend, 1e-9) // 150 in Jan → 300 in Feb
	assert.Equal(t, "increased", s.Direction)
	assert.Equal(t, "2024-01 – 2024-02", s.Period)
	assert.Equal(t, "point", s.TrendMode)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(itemAdapter.Bind(nil), MeasurePrice, TrendRange)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, "No data", s.Period)
	assert.Equal(t, "range", s.TrendMode)
}

func TestMonthlySeries(t *testing.T) {
	got := MonthlySeries(itemAdapter.Bind(catalog()), MeasurePrice)

	labels := make([]string, len(got))
	values := make([]float64, len(got))
	for i, p := range got {
		labels[i] = p.Label
		values[i] = p.Value
	}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-02", "2024-03"}, labels)
	assert.Equal(t, []float64{6000, 2500, 30, 360}, values)
}
