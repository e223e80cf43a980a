package schema

import (
	"fmt"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/record"
)

// ============================================================================
// BUILT-IN SCHEMAS — one per record kind
// ============================================================================
// Keys come from the record adapters so the schema and the view can never
// disagree. The tables below only add labels, enumerations and units.
// ============================================================================

func viewOf(kind record.Kind) (engine.RecordView, bool) {
	switch kind {
	case record.KindProduct:
		return record.ProductAdapter.Bind(nil), true
	case record.KindProject:
		return record.ProjectAdapter.Bind(nil), true
	case record.KindNGOProject:
		return record.NGOProjectAdapter.Bind(nil), true
	case record.KindDonation:
		return record.DonationAdapter.Bind(nil), true
	case record.KindAsset:
		return record.AssetAdapter.Bind(nil), true
	case record.KindMeasurement:
		return record.MeasurementAdapter.Bind(nil), true
	case record.KindGoal:
		return record.GoalAdapter.Bind(nil), true
	}
	return nil, false
}

var kindNames = map[record.Kind]string{
	record.KindProduct:     "Marketplace products",
	record.KindProject:     "Film projects",
	record.KindNGOProject:  "NGO projects",
	record.KindDonation:    "Donations",
	record.KindAsset:       "Production assets",
	record.KindMeasurement: "Impact measurements",
	record.KindGoal:        "Impact goals",
}

var enumerations = map[record.Kind]map[string][]string{
	record.KindProduct: {
		engine.DimType:      {string(record.ProductPhysical), string(record.ProductDigital)},
		engine.DimCondition: {record.ConditionNew, record.ConditionLikeNew, record.ConditionGood, record.ConditionFair},
		engine.DimStatus:    {"active", "sold", "draft"},
		engine.DimStock:     {engine.StockIn, engine.StockBackorder, engine.StockOut},
	},
	record.KindProject: {
		engine.DimType:   projectTypes(),
		engine.DimStatus: {"draft", "active", "on-hold", "completed", "archived"},
		record.DimPhase:  {"Development", "Pre-Production", "Production", "Post-Production", "Distribution"},
	},
	record.KindNGOProject: {
		engine.DimType:     ngoCategories,
		engine.DimCategory: ngoCategories,
		engine.DimStatus: {record.StatusPlanned, record.StatusOngoing, record.StatusCompleted,
			record.StatusOnHold, record.StatusCancelled},
	},
	record.KindDonation: {
		engine.DimType: {record.FrequencyOneTime, record.FrequencyMonthly, record.FrequencyQuarterly, record.FrequencyAnnually},
		engine.DimStatus: {record.PaymentPending, record.PaymentCompleted, record.PaymentFailed,
			record.PaymentRefunded},
	},
	record.KindAsset: {
		engine.DimType:     {"media", "graphic", "audio", "document", "3d-model"},
		engine.DimCategory: {"pre-production", "production", "post-production"},
		engine.DimStatus: {record.AssetDraft, record.AssetInReview, record.AssetApproved,
			record.AssetArchived, record.AssetRejected},
	},
	record.KindGoal: {
		engine.DimStatus: {record.GoalPending, record.GoalInProgress, record.GoalAchieved, record.GoalMissed},
	},
}

var ngoCategories = []string{
	record.CategoryEducation, record.CategoryHealth, record.CategoryEnvironment,
	record.CategoryCommunityDevelopment, record.CategoryEmergencyRelief, record.CategoryOther,
}

func projectTypes() []string {
	out := make([]string, len(record.ProjectTypes))
	for i, t := range record.ProjectTypes {
		out[i] = string(t)
	}
	return out
}

// Labels that differ from the capitalized key.
var dimensionLabels = map[record.Kind]map[string]string{
	record.KindNGOProject: {engine.DimType: "Category"},
	record.KindDonation:   {engine.DimType: "Frequency", engine.DimStatus: "Payment status"},
	record.KindMeasurement: {
		engine.DimCategory:    "Impact category",
		engine.DimDescription: "Notes",
	},
}

var measureLabels = map[record.Kind]map[string]string{
	record.KindProject:    {engine.MeasurePrice: "Budget"},
	record.KindNGOProject: {engine.MeasurePrice: "Budget"},
	record.KindDonation:   {engine.MeasurePrice: "Amount"},
}

var measureUnits = map[string]string{
	engine.MeasurePrice:          "currency",
	record.MeasureAmount:         "currency",
	record.MeasureBudget:         "currency",
	record.MeasureBudgetUsed:     "currency",
	engine.MeasureDownloads:      "count",
	record.MeasureBeneficiaries:  "count",
	record.MeasureVolunteers:     "count",
	record.MeasureVersion:        "count",
	engine.MeasureSize:           "bytes",
	record.MeasureVolunteerHours: "hours",
	record.MeasureProgress:       "percent",
	engine.MeasureTimestamp:      "seconds",
}

// For returns the schema of a typed record collection.
func For(kind record.Kind) (*Schema, error) {
	view, ok := viewOf(kind)
	if !ok {
		return nil, fmt.Errorf("%w: no built-in schema for kind %q", ErrInvalid, kind)
	}

	s := &Schema{Name: kindNames[kind], Kind: kind}
	for _, key := range view.DimensionKeys() {
		d := Dimension{
			Key:      key,
			Label:    engine.LabelForDimension(key),
			Values:   enumerations[kind][key],
			Temporal: key == engine.DimMonth,
			Currency: key == engine.DimCurrency,
		}
		if label, ok := dimensionLabels[kind][key]; ok {
			d.Label = label
		}
		s.Dimensions = append(s.Dimensions, d)
		if d.Currency {
			s.Currency = &Currency{Dimension: key}
		}
	}

	def := record.DefaultMeasure(kind)
	for _, key := range view.MeasureKeys() {
		m := Measure{
			Key:       key,
			Label:     engine.LabelForDimension(key),
			Unit:      measureUnits[key],
			Synthetic: key == engine.MeasureTimestamp,
		}
		if label, ok := measureLabels[kind][key]; ok {
			m.Label = label
		}
		// The kind's default measure goes first so DefaultMeasure agrees
		// with the record package.
		if key == def {
			s.Measures = append([]Measure{m}, s.Measures...)
			continue
		}
		s.Measures = append(s.Measures, m)
	}
	return s, nil
}

// All returns the built-in schema of every record kind.
func All() []*Schema {
	out := make([]*Schema, 0, len(record.Kinds))
	for _, kind := range record.Kinds {
		s, err := For(kind)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}
