// Package impact computes the figures shown on NGO and production
// dashboards. Every selector is a pure function of a snapshot; none of them
// writes back to a collection except UpdateGoalProgress.
package impact

import (
	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/record"
	"github.com/spektr-org/impactlens/store"
)

// ============================================================================
// PORTFOLIO — totals across every NGO project
// ============================================================================

// Portfolio is the header of the NGO dashboard.
type Portfolio struct {
	TotalProjects      int     `json:"totalProjects"`
	TotalBudget        float64 `json:"totalBudget"`
	ActiveProjects     int     `json:"activeProjects"`
	TotalBeneficiaries int     `json:"totalBeneficiaries"`
	CompletionRate     float64 `json:"completionRate"`
}

// PortfolioMetrics totals projects. CompletionRate is the share of completed
// projects, 0 for an empty portfolio.
func PortfolioMetrics(projects []record.NGOProject) Portfolio {
	view := record.NGOProjectAdapter.Bind(projects)

	var active, completed int
	for _, g := range engine.GroupAndAggregate(view, []string{engine.DimStatus}, "", engine.AggCount, "", 0) {
		switch g.Key {
		case record.StatusOngoing:
			active = g.Count
		case record.StatusCompleted:
			completed = g.Count
		}
	}

	return Portfolio{
		TotalProjects:      view.Len(),
		TotalBudget:        engine.SumMeasure(view, record.MeasureBudget),
		ActiveProjects:     active,
		TotalBeneficiaries: int(engine.SumMeasure(view, record.MeasureBeneficiaries)),
		CompletionRate:     engine.PercentageOf(float64(completed), float64(view.Len())),
	}
}

// ============================================================================
// PROJECT METRICS — one NGO project
// ============================================================================

// ProjectMetrics are the derived figures of one NGO project.
type ProjectMetrics struct {
	Beneficiaries        int     `json:"beneficiaries"`
	Volunteers           int     `json:"volunteers"`
	TeamHours            float64 `json:"teamHours"`
	CostPerBeneficiary   float64 `json:"costPerBeneficiary"`
	VolunteerImpactRatio float64 `json:"volunteerImpactRatio"`
	FundingUtilization   float64 `json:"fundingUtilization"`
}

// MetricsFor derives the metrics of p. Per-beneficiary figures are 0 while
// the project has no beneficiaries; funding utilization is clamped to
// [0, 100].
func MetricsFor(p record.NGOProject) ProjectMetrics {
	m := ProjectMetrics{
		Beneficiaries:      p.BeneficiaryCount(),
		Volunteers:         p.Volunteers,
		TeamHours:          p.TeamHours(),
		FundingUtilization: engine.UtilizationOf(p.Budget.Used, p.Budget.Total),
	}
	if m.Beneficiaries > 0 {
		m.CostPerBeneficiary = engine.Ratio(p.Budget.Used, float64(m.Beneficiaries))
		m.VolunteerImpactRatio = engine.Ratio(float64(p.Volunteers), float64(m.Beneficiaries))
	}
	return m
}

// ProjectMetricsFor looks the project up in projects. Unknown IDs return a
// *store.NotFoundError.
func ProjectMetricsFor(projects *store.Collection[record.NGOProject], id string) (ProjectMetrics, error) {
	p, err := projects.Get(id)
	if err != nil {
		return ProjectMetrics{}, err
	}
	return MetricsFor(p), nil
}
