package record

import (
	"strconv"

	"github.com/spektr-org/impactlens/engine"
)

// ============================================================================
// ADAPTERS — typed records → engine dimensions and measures
// ============================================================================
// Every adapter registers the shared keys (id, type, category, status, title,
// description, month) where the record has a meaning for them. Keys a record
// does not have read as "" or 0, which the filters treat as "no value".
// ============================================================================

// Record-specific dimension keys.
const (
	DimID       = "id"
	DimPhase    = "phase"
	DimProject  = "project"
	DimDonor    = "donor"
	DimFormat   = "format"
	DimLocation = "location"
)

// Record-specific measure keys.
const (
	MeasureAmount         = "amount"
	MeasureBudget         = "budget"
	MeasureBudgetUsed     = "budget_used"
	MeasureProgress       = "progress"
	MeasureBeneficiaries  = "beneficiaries"
	MeasureVolunteers     = "volunteers"
	MeasureValue          = "value"
	MeasureTarget         = "target"
	MeasureVolunteerHours = "volunteer_hours"
	MeasureVersion        = "version"
)

var ProductAdapter = engine.NewDomainAdapter[Product]().
	Dimension(DimID, func(p Product) string { return p.ID }).
	Dimension(engine.DimType, func(p Product) string { return string(p.Kind) }).
	Dimension(engine.DimCategory, func(p Product) string { return p.Category }).
	Dimension(engine.DimCondition, Product.Condition).
	Dimension(engine.DimStatus, func(p Product) string { return p.Status }).
	Dimension(engine.DimTitle, func(p Product) string { return p.Title }).
	Dimension(engine.DimDescription, func(p Product) string { return p.Description }).
	Dimension(engine.DimStock, Product.StockState).
	Dimension(engine.DimCurrency, func(p Product) string { return p.Currency }).
	Dimension(engine.DimMonth, func(p Product) string { return month(p.CreatedAt) }).
	Measure(engine.MeasurePrice, func(p Product) float64 { return p.Price }).
	Measure(engine.MeasureTimestamp, func(p Product) float64 { return unix(p.CreatedAt) }).
	Measure(engine.MeasureSize, func(p Product) float64 {
		if p.Digital == nil {
			return 0
		}
		return p.Digital.FileSize
	})

// ProjectAdapter exposes film projects. The budget doubles as the price
// measure so budget ranges filter with the same spec as product prices.
var ProjectAdapter = engine.NewDomainAdapter[Project]().
	Dimension(DimID, func(p Project) string { return p.ID }).
	Dimension(engine.DimType, func(p Project) string { return string(p.Type) }).
	Dimension(engine.DimStatus, func(p Project) string { return p.Status }).
	Dimension(DimPhase, func(p Project) string { return p.Phase }).
	Dimension(engine.DimTitle, func(p Project) string { return p.Title }).
	Dimension(engine.DimDescription, func(p Project) string { return p.Description }).
	Dimension(engine.DimCurrency, func(p Project) string { return p.Currency }).
	Dimension(engine.DimMonth, func(p Project) string { return month(p.StartDate) }).
	Measure(engine.MeasurePrice, func(p Project) float64 { return p.Budget }).
	Measure(MeasureBudget, func(p Project) float64 { return p.Budget }).
	Measure(MeasureProgress, func(p Project) float64 { return p.Progress }).
	Measure(engine.MeasureTimestamp, func(p Project) float64 { return unix(p.CreatedAt) })

// NGOProjectAdapter exposes charity projects. Type mirrors category.
var NGOProjectAdapter = engine.NewDomainAdapter[NGOProject]().
	Dimension(DimID, func(p NGOProject) string { return p.ID }).
	Dimension(engine.DimType, func(p NGOProject) string { return p.Category }).
	Dimension(engine.DimCategory, func(p NGOProject) string { return p.Category }).
	Dimension(engine.DimStatus, func(p NGOProject) string { return p.Status }).
	Dimension(DimLocation, func(p NGOProject) string { return p.Location }).
	Dimension(engine.DimTitle, func(p NGOProject) string { return p.Name }).
	Dimension(engine.DimDescription, func(p NGOProject) string { return p.Description }).
	Dimension(engine.DimCurrency, func(p NGOProject) string { return p.Budget.Currency }).
	Dimension(engine.DimMonth, func(p NGOProject) string { return month(p.StartDate) }).
	Measure(engine.MeasurePrice, func(p NGOProject) float64 { return p.Budget.Total }).
	Measure(MeasureBudget, func(p NGOProject) float64 { return p.Budget.Total }).
	Measure(MeasureBudgetUsed, func(p NGOProject) float64 { return p.Budget.Used }).
	Measure(MeasureBeneficiaries, func(p NGOProject) float64 { return float64(p.BeneficiaryCount()) }).
	Measure(MeasureVolunteers, func(p NGOProject) float64 { return float64(p.Volunteers) }).
	Measure(engine.MeasureTimestamp, func(p NGOProject) float64 { return unix(p.CreatedAt) })

// DonationAdapter groups donations by frequency through the type dimension.
var DonationAdapter = engine.NewDomainAdapter[Donation]().
	Dimension(DimID, func(d Donation) string { return d.ID }).
	Dimension(engine.DimType, func(d Donation) string { return d.Frequency }).
	Dimension(engine.DimStatus, func(d Donation) string { return d.Status }).
	Dimension(engine.DimCurrency, func(d Donation) string { return d.Currency }).
	Dimension(DimDonor, func(d Donation) string { return d.DonorID }).
	Dimension(DimProject, func(d Donation) string { return d.ProjectID }).
	Dimension(engine.DimDescription, func(d Donation) string { return d.Message }).
	Dimension(engine.DimMonth, func(d Donation) string { return month(d.Date) }).
	Measure(engine.MeasurePrice, func(d Donation) float64 { return d.Amount }).
	Measure(MeasureAmount, func(d Donation) float64 { return d.Amount }).
	Measure(engine.MeasureTimestamp, func(d Donation) float64 { return unix(d.Date) })

var AssetAdapter = engine.NewDomainAdapter[Asset]().
	Dimension(DimID, func(a Asset) string { return a.ID }).
	Dimension(engine.DimType, func(a Asset) string { return a.Type }).
	Dimension(engine.DimCategory, func(a Asset) string { return a.Category }).
	Dimension(engine.DimStatus, func(a Asset) string { return a.Status }).
	Dimension(engine.DimTitle, func(a Asset) string { return a.Name }).
	Dimension(engine.DimDescription, func(a Asset) string { return a.Description }).
	Dimension(DimFormat, func(a Asset) string { return a.Format }).
	Dimension(engine.DimMonth, func(a Asset) string { return month(a.LastModified) }).
	Measure(engine.MeasureDownloads, func(a Asset) float64 { return float64(a.DownloadCount) }).
	Measure(engine.MeasureSize, func(a Asset) float64 { return float64(a.FileSize) }).
	Measure(MeasureVersion, func(a Asset) float64 { return float64(a.Version) }).
	Measure(engine.MeasureTimestamp, func(a Asset) float64 { return unix(a.LastModified) })

var MeasurementAdapter = engine.NewDomainAdapter[ImpactMeasurement]().
	Dimension(DimID, func(m ImpactMeasurement) string { return m.ID }).
	Dimension(engine.DimCategory, func(m ImpactMeasurement) string { return m.CategoryID }).
	Dimension(DimProject, func(m ImpactMeasurement) string { return m.ProjectID }).
	Dimension(engine.DimDescription, func(m ImpactMeasurement) string { return m.Notes }).
	Dimension(engine.DimMonth, func(m ImpactMeasurement) string { return month(m.Date) }).
	Measure(MeasureValue, func(m ImpactMeasurement) float64 { return m.Value }).
	Measure(MeasureTarget, func(m ImpactMeasurement) float64 { return m.Target }).
	Measure(MeasureVolunteerHours, func(m ImpactMeasurement) float64 { return m.VolunteerHours }).
	Measure(engine.MeasureTimestamp, func(m ImpactMeasurement) float64 { return unix(m.Date) })

var GoalAdapter = engine.NewDomainAdapter[ImpactGoal]().
	Dimension(DimID, func(g ImpactGoal) string { return g.ID }).
	Dimension(engine.DimCategory, func(g ImpactGoal) string { return g.CategoryID }).
	Dimension(engine.DimStatus, func(g ImpactGoal) string { return g.Status }).
	Dimension(DimProject, func(g ImpactGoal) string { return g.ProjectID }).
	Dimension(engine.DimMonth, func(g ImpactGoal) string { return month(g.Deadline) }).
	Measure(MeasureTarget, func(g ImpactGoal) float64 { return g.TargetValue }).
	Measure(MeasureProgress, func(g ImpactGoal) float64 { return g.Progress }).
	Measure(engine.MeasureTimestamp, func(g ImpactGoal) float64 { return unix(g.Deadline) })

// DefaultMeasure returns the measure summarized for kind when none is given.
func DefaultMeasure(kind Kind) string {
	switch kind {
	case KindAsset:
		return engine.MeasureDownloads
	case KindMeasurement:
		return MeasureValue
	case KindGoal:
		return MeasureProgress
	default:
		return engine.MeasurePrice
	}
}

// Label renders a record count for text output ("3 donations").
func Label(kind Kind, n int) string {
	noun := string(kind)
	if n != 1 {
		noun += "s"
	}
	return strconv.Itoa(n) + " " + noun
}
