package impact_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/impact"
	"github.com/spektr-org/impactlens/record"
	"github.com/spektr-org/impactlens/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func portfolio() []record.NGOProject {
	return []record.NGOProject{
		{
			ID: "p1", Name: "Reforest", Category: record.CategoryEnvironment, Status: record.StatusOngoing,
			Budget:        record.Budget{Total: 1000, Used: 250, Currency: "XAF"},
			Beneficiaries: []record.Beneficiary{{ID: "b1", Count: 10}, {ID: "b2", Count: 15}},
			Team:          []record.TeamMember{{UserID: "u1", HoursContributed: 10}, {UserID: "u2", HoursContributed: 5.5}},
			Volunteers:    5,
		},
		{
			ID: "p2", Name: "Clinic", Category: record.CategoryHealth, Status: record.StatusCompleted,
			Budget:        record.Budget{Total: 3000, Used: 3000},
			Beneficiaries: []record.Beneficiary{{ID: "b3", Count: 40}},
			Volunteers:    8,
		},
		{ID: "p3", Name: "School", Category: record.CategoryEducation, Status: record.StatusPlanned, Budget: record.Budget{Total: 500}},
		{ID: "p4", Name: "Flood relief", Category: record.CategoryEmergencyRelief, Status: record.StatusCompleted},
	}
}

func TestPortfolioMetrics(t *testing.T) {
	got := impact.PortfolioMetrics(portfolio())

	assert.Equal(t, impact.Portfolio{
		TotalProjects:      4,
		TotalBudget:        4500,
		ActiveProjects:     1,
		TotalBeneficiaries: 65,
		CompletionRate:     50,
	}, got)

	assert.Equal(t, impact.Portfolio{}, impact.PortfolioMetrics(nil))
}

func TestMetricsFor(t *testing.T) {
	projects := portfolio()

	tests := []struct {
		name string
		p    record.NGOProject
		want impact.ProjectMetrics
	}{
		{
			name: "with beneficiaries",
			p:    projects[0],
			want: impact.ProjectMetrics{
				Beneficiaries: 25, Volunteers: 5, TeamHours: 15.5,
				CostPerBeneficiary: 10, VolunteerImpactRatio: 0.2, FundingUtilization: 25,
			},
		},
		{
			name: "no beneficiaries",
			p:    projects[2],
			want: impact.ProjectMetrics{},
		},
		{
			name: "overspent budget is clamped",
			p: record.NGOProject{
				Budget:        record.Budget{Total: 1000, Used: 1200},
				Beneficiaries: []record.Beneficiary{{Count: 4}},
			},
			want: impact.ProjectMetrics{Beneficiaries: 4, CostPerBeneficiary: 300, FundingUtilization: 100},
		},
		{
			name: "zero budget",
			p:    projects[3],
			want: impact.ProjectMetrics{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, impact.MetricsFor(tt.p))
		})
	}
}

func TestProjectMetricsFor(t *testing.T) {
	c := store.New[record.NGOProject]()
	for _, p := range portfolio() {
		_, err := c.Add(t.Context(), p)
		require.NoError(t, err)
	}

	got, err := impact.ProjectMetricsFor(c, "p2")
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.CostPerBeneficiary)
	assert.Equal(t, 100.0, got.FundingUtilization)

	_, err = impact.ProjectMetricsFor(c, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSummary(t *testing.T) {
	measurements := []record.ImpactMeasurement{
		{ID: "m3", ProjectID: "p1", CategoryID: "water", Value: 50, VolunteerHours: 25, Date: day(2024, 3, 1)},
		{ID: "m1", ProjectID: "p1", CategoryID: "trees", Value: 100, VolunteerHours: 10, Date: day(2024, 1, 1)},
		{ID: "other", ProjectID: "p2", CategoryID: "trees", Value: 9999, Date: day(2024, 1, 5)},
		{ID: "m2", ProjectID: "p1", CategoryID: "trees", Value: 150, Date: day(2024, 2, 1)},
	}
	goals := []record.ImpactGoal{
		{ID: "g1", ProjectID: "p1", CategoryID: "trees", TargetValue: 200, Status: record.GoalAchieved},
		{ID: "g2", ProjectID: "p1", CategoryID: "water", TargetValue: 100, Status: record.GoalInProgress},
		{ID: "g3", ProjectID: "p2", CategoryID: "trees", TargetValue: 1, Status: record.GoalAchieved},
	}

	got := impact.Summary("p1", measurements, goals)

	assert.Equal(t, 3, got.Measurements)
	assert.Equal(t, 2, got.Goals)
	assert.Equal(t, map[string]float64{"trees": 125, "water": 50}, got.Progress, "progress is not clamped")
	assert.Equal(t, 300.0, got.TotalImpact)
	assert.Equal(t, 35.0, got.VolunteerHours)
	assert.Equal(t, 50.0, got.GoalsProgress)
	// value per hour: 10, 150 (no hours recorded, floor 1), 2
	assert.InDelta(t, 54, got.Efficiency, 1e-9)

	// date order is m1, m2, m3; trends compare m3 with m2
	assert.InDelta(t, -66.6667, got.ImpactTrend, 1e-3)
	assert.Equal(t, 100.0, got.VolunteerTrend, "rise from zero hours")
	assert.InDelta(t, -98.6667, got.EfficiencyTrend, 1e-3)
	assert.Equal(t, "point", got.TrendMode)
}

func TestSummaryEmpty(t *testing.T) {
	got := impact.Summary("none", nil, []record.ImpactGoal{{ProjectID: "none", CategoryID: "x", TargetValue: 0}})

	assert.Zero(t, got.Measurements)
	assert.Equal(t, map[string]float64{"x": 0}, got.Progress, "zero target gives 0")
	assert.Zero(t, got.TotalImpact)
	assert.Zero(t, got.Efficiency)
	assert.Zero(t, got.ImpactTrend)
	assert.Zero(t, got.GoalsProgress)
}

func TestDashboardTrends(t *testing.T) {
	p := record.NGOProject{Correlation: []record.CorrelationPoint{
		{Date: day(2024, 3, 1), VolunteerHours: 30, BeneficiaryOutcomes: 90, Donations: 0},
		{Date: day(2024, 1, 1), VolunteerHours: 10, BeneficiaryOutcomes: 20, Donations: 500},
		{Date: day(2024, 2, 1), VolunteerHours: 20, BeneficiaryOutcomes: 50, Donations: 250},
	}}

	got := impact.DashboardTrends(p)

	assert.Equal(t, 3, got.Points)
	assert.Equal(t, "range", got.TrendMode)
	assert.InDelta(t, 200, got.VolunteerHours, 1e-9)
	assert.InDelta(t, 350, got.BeneficiaryOutcomes, 1e-9)
	assert.InDelta(t, -100, got.Donations, 1e-9)
	assert.InDelta(t, 50, got.OutcomesPerHour, 1e-9)

	single := impact.DashboardTrends(record.NGOProject{Correlation: p.Correlation[:1]})
	assert.Zero(t, single.VolunteerHours)
	assert.Zero(t, single.Donations)
}

func donations() []record.Donation {
	return []record.Donation{
		{ID: "d1", DonorID: "A", Amount: 1000, Currency: "XAF", Frequency: record.FrequencyMonthly, Date: day(2024, 1, 10)},
		{ID: "d2", DonorID: "B", Amount: 10, Currency: "USD", Frequency: record.FrequencyOneTime, Date: day(2024, 1, 20)},
		{ID: "d3", DonorID: "A", Amount: 3000, Currency: "XAF", Frequency: record.FrequencyMonthly, Date: day(2024, 2, 5)},
	}
}

func TestDonationStats(t *testing.T) {
	got, err := impact.DonationStats(donations(), engine.FilterSpec{},
		engine.WithCurrency("XAF", engine.DimCurrency, map[string]float64{"USD": 600}))
	require.NoError(t, err)

	assert.Equal(t, 10000.0, got.TotalAmount)
	assert.Equal(t, "XAF", got.Currency)
	assert.Equal(t, 2, got.TotalDonors)
	assert.Equal(t, 3, got.TotalDonations)
	assert.Equal(t, map[string]int{record.FrequencyMonthly: 2, record.FrequencyOneTime: 1}, got.ByFrequency)
	// January 7000, February 3000
	assert.InDelta(t, -57.142857, got.Monthly.Trend, 1e-5)
	assert.Equal(t, "point", got.Monthly.TrendMode)
}

func TestDonationStatsFiltered(t *testing.T) {
	got, err := impact.DonationStats(donations(), engine.FilterSpec{Types: []string{"MONTHLY"}})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, got.TotalAmount)
	assert.Equal(t, 1, got.TotalDonors)
	assert.Equal(t, map[string]int{record.FrequencyMonthly: 2}, got.ByFrequency)

	_, err = impact.DonationStats(donations(), engine.FilterSpec{SortBy: "bogus"})
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestDonationStatsByPaymentStatus(t *testing.T) {
	gifts := []record.Donation{
		{ID: "d1", DonorID: "A", Amount: 100, Currency: "XAF", Status: record.PaymentCompleted, Date: day(2024, 1, 10)},
		{ID: "d2", DonorID: "B", Amount: 900, Currency: "XAF", Status: record.PaymentRefunded, Date: day(2024, 1, 12)},
	}

	all, err := impact.DonationStats(gifts, engine.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, all.TotalAmount)

	settled, err := impact.DonationStats(gifts, engine.FilterSpec{Statuses: []string{record.PaymentCompleted}})
	require.NoError(t, err)
	assert.Equal(t, 100.0, settled.TotalAmount)
	assert.Equal(t, 1, settled.TotalDonations)
	assert.Equal(t, 1, settled.TotalDonors)
}

func assets() []record.Asset {
	return []record.Asset{
		{ID: "a1", Name: "Trailer", Type: "media", Status: record.AssetApproved, Format: "mp4", DownloadCount: 10, FileSize: 100},
		{ID: "a2", Name: "poster", Type: "graphic", Status: record.AssetApproved, Format: "png", DownloadCount: 50, FileSize: 20},
		{ID: "a3", Name: "Behind the scenes", Type: "media", Status: record.AssetDraft, Format: "mov"},
		{ID: "a4", Name: "Audio mix", Type: "audio", Status: record.AssetApproved, Format: "wav", DownloadCount: 5, FileSize: 300},
		{ID: "a5", Name: "alt poster", Type: "graphic", Status: record.AssetApproved, Format: "png", DownloadCount: 1, FileSize: 10},
	}
}

func names(as []record.Asset) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}

func TestDeliverables(t *testing.T) {
	got, stats, err := impact.Deliverables(assets(), engine.FilterSpec{})
	require.NoError(t, err)

	assert.Equal(t, []string{"alt poster", "Audio mix", "poster", "Trailer"}, names(got))
	assert.Equal(t, impact.DeliverableStats{
		TotalAssets:    4,
		TotalDownloads: 66,
		TotalSize:      430,
		Formats:        map[string]int{"png": 2, "mp4": 1, "wav": 1},
	}, stats)
}

func TestDeliverablesFiltered(t *testing.T) {
	got, stats, err := impact.Deliverables(assets(), engine.FilterSpec{
		Types:  []string{"graphic"},
		SortBy: engine.SortDownloads,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"poster", "alt poster"}, names(got))
	assert.Equal(t, 51, stats.TotalDownloads)

	got, _, err = impact.Deliverables(assets(), engine.FilterSpec{Search: "SCENES"})
	require.NoError(t, err)
	assert.Empty(t, got, "drafts are never deliverables")
}

func TestUpdateGoalProgress(t *testing.T) {
	now := day(2024, 5, 1)
	goals := store.New[record.ImpactGoal]()
	for _, g := range []record.ImpactGoal{
		{ID: "g1", ProjectID: "p1", TargetValue: 100, Deadline: day(2024, 6, 1), Status: record.GoalPending},
		{ID: "g2", ProjectID: "p1", TargetValue: 100, Deadline: day(2024, 4, 1), Status: record.GoalPending},
	} {
		_, err := goals.Add(t.Context(), g)
		require.NoError(t, err)
	}

	got, err := impact.UpdateGoalProgress(t.Context(), goals, "g1", 40, now)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.Progress)
	assert.Equal(t, record.GoalInProgress, got.Status)

	got, err = impact.UpdateGoalProgress(t.Context(), goals, "g1", 120, now)
	require.NoError(t, err)
	assert.Equal(t, record.GoalAchieved, got.Status)

	got, err = impact.UpdateGoalProgress(t.Context(), goals, "g2", 10, now)
	require.NoError(t, err)
	assert.Equal(t, record.GoalMissed, got.Status)

	stored, err := goals.Get("g2")
	require.NoError(t, err)
	assert.Equal(t, got, stored)

	_, err = impact.UpdateGoalProgress(t.Context(), goals, "missing", 1, now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
