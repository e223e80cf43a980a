package impact

import (
	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/record"
)

// ============================================================================
// IMPACT SUMMARY — measurements and goals of one project
// ============================================================================
// Measurement trends compare the latest measurement with the one before it
// (point over point). Measurements are taken in date order; equal dates keep
// their stored order.
// ============================================================================

// ImpactSummary is the impact panel of a project.
type ImpactSummary struct {
	ProjectID      string             `json:"projectId"`
	Measurements   int                `json:"measurements"`
	Goals          int                `json:"goals"`
	Progress       map[string]float64 `json:"progress"`
	TotalImpact    float64            `json:"totalImpact"`
	VolunteerHours float64            `json:"volunteerHours"`
	GoalsProgress  float64            `json:"goalsProgress"`
	Efficiency     float64            `json:"efficiency"`

	ImpactTrend     float64 `json:"impactTrend"`
	VolunteerTrend  float64 `json:"volunteerTrend"`
	EfficiencyTrend float64 `json:"efficiencyTrend"`
	TrendMode       string  `json:"trendMode"`
}

// Summary reduces the measurements and goals that belong to projectID.
//
// Progress maps each goal's category to the measured total as a percentage
// of the goal's target. It is not clamped: overachievement shows above 100.
// Efficiency is the mean of value per volunteer hour, with 1 hour assumed
// for measurements that record none.
func Summary(projectID string, measurements []record.ImpactMeasurement, goals []record.ImpactGoal) ImpactSummary {
	mode := engine.TrendPointOverPoint

	var mine []record.ImpactMeasurement
	for _, m := range measurements {
		if m.ProjectID == projectID {
			mine = append(mine, m)
		}
	}
	var myGoals []record.ImpactGoal
	for _, g := range goals {
		if g.ProjectID == projectID {
			myGoals = append(myGoals, g)
		}
	}

	view := engine.SortView(record.MeasurementAdapter.Bind(mine), engine.SortOldest)
	ordered := engine.Collect(mine, view)

	values := make([]float64, len(ordered))
	hours := make([]float64, len(ordered))
	efficiency := make([]float64, len(ordered))
	for i, m := range ordered {
		values[i] = m.Value
		hours[i] = m.VolunteerHours
		efficiency[i] = engine.Ratio(m.Value, m.VolunteerHours)
	}

	byCategory := make(map[string]float64)
	for _, g := range engine.GroupAndAggregate(view, []string{engine.DimCategory}, record.MeasureValue, engine.AggSum, "", 0) {
		byCategory[g.Key] = g.Value
	}

	progress := make(map[string]float64, len(myGoals))
	var achieved int
	for _, g := range myGoals {
		progress[g.CategoryID] = engine.RawPercentageOf(byCategory[g.CategoryID], g.TargetValue)
		if g.Status == record.GoalAchieved {
			achieved++
		}
	}

	return ImpactSummary{
		ProjectID:       projectID,
		Measurements:    len(ordered),
		Goals:           len(myGoals),
		Progress:        progress,
		TotalImpact:     engine.Sum(values),
		VolunteerHours:  engine.Sum(hours),
		GoalsProgress:   engine.PercentageOf(float64(achieved), float64(len(myGoals))),
		Efficiency:      engine.Average(efficiency),
		ImpactTrend:     engine.TrendOf(values, mode),
		VolunteerTrend:  engine.TrendOf(hours, mode),
		EfficiencyTrend: engine.TrendOf(efficiency, mode),
		TrendMode:       mode.String(),
	}
}

// ============================================================================
// DASHBOARD TRENDS — correlation series of one NGO project
// ============================================================================
// Dashboard cards show how far a project has come since its first sample, so
// these trends compare the latest sample with the first one (range mode).
// ============================================================================

// Trends are the card trends of a project dashboard.
type Trends struct {
	Points              int     `json:"points"`
	VolunteerHours      float64 `json:"volunteerHours"`
	BeneficiaryOutcomes float64 `json:"beneficiaryOutcomes"`
	Donations           float64 `json:"donations"`
	OutcomesPerHour     float64 `json:"outcomesPerHour"`
	TrendMode           string  `json:"trendMode"`
}

// DashboardTrends computes range trends over p's correlation data, ordered
// by date.
func DashboardTrends(p record.NGOProject) Trends {
	mode := engine.TrendRange

	hours := make([]engine.TimeSeriesPoint, len(p.Correlation))
	outcomes := make([]engine.TimeSeriesPoint, len(p.Correlation))
	donations := make([]engine.TimeSeriesPoint, len(p.Correlation))
	perHour := make([]engine.TimeSeriesPoint, len(p.Correlation))
	for i, c := range p.Correlation {
		hours[i] = engine.TimeSeriesPoint{Date: c.Date, Value: c.VolunteerHours}
		outcomes[i] = engine.TimeSeriesPoint{Date: c.Date, Value: c.BeneficiaryOutcomes}
		donations[i] = engine.TimeSeriesPoint{Date: c.Date, Value: c.Donations}
		perHour[i] = engine.TimeSeriesPoint{Date: c.Date, Value: engine.Ratio(c.BeneficiaryOutcomes, c.VolunteerHours)}
	}

	return Trends{
		Points:              len(p.Correlation),
		VolunteerHours:      engine.ComputeTrend(engine.SortSeries(hours), mode),
		BeneficiaryOutcomes: engine.ComputeTrend(engine.SortSeries(outcomes), mode),
		Donations:           engine.ComputeTrend(engine.SortSeries(donations), mode),
		OutcomesPerHour:     engine.ComputeTrend(engine.SortSeries(perHour), mode),
		TrendMode:           mode.String(),
	}
}
