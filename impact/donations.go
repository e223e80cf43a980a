package impact

import (
	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/record"
)

// DonationSummary is the donations panel.
type DonationSummary struct {
	TotalAmount    float64        `json:"totalAmount"`
	Currency       string         `json:"currency,omitempty"`
	TotalDonors    int            `json:"totalDonors"`
	TotalDonations int            `json:"totalDonations"`
	ByFrequency    map[string]int `json:"byFrequency"`
	// Monthly carries the monthly trend (point over point) of the amount.
	Monthly engine.MetricsSummary `json:"monthly"`
}

// DonationStats summarizes donations matching spec. Pass engine.WithCurrency
// to add up gifts made in several currencies; without it amounts are summed
// as they are.
func DonationStats(donations []record.Donation, spec engine.FilterSpec, opts ...engine.Option) (DonationSummary, error) {
	opts = append([]engine.Option{
		engine.WithDefaultMeasure(record.MeasureAmount),
		engine.WithPriceMeasure(record.MeasureAmount),
		engine.WithTrendMode(engine.TrendPointOverPoint),
	}, opts...)

	sel, err := engine.Select(record.DonationAdapter.Bind(donations), spec, opts...)
	if err != nil {
		return DonationSummary{}, err
	}

	byFrequency := make(map[string]int)
	for _, g := range engine.GroupAndAggregate(sel.View, []string{engine.DimType}, "", engine.AggCount, "", 0) {
		byFrequency[g.Key] = g.Count
	}

	return DonationSummary{
		TotalAmount:    sel.Summary.Total,
		Currency:       sel.Summary.Unit,
		TotalDonors:    len(engine.UniqueValues(sel.View, record.DimDonor)),
		TotalDonations: sel.View.Len(),
		ByFrequency:    byFrequency,
		Monthly:        sel.Summary,
	}, nil
}
