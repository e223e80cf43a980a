package engine

import "time"

// ============================================================================
// ENGINE TYPES — Records, filter specs, summaries
// ============================================================================
// The engine reads data through RecordView and never sees the type-specific
// payload of a project, product or asset. Adapters in the record package
// decide which fields become dimensions and measures.
// ============================================================================

// Record is a generic data row with string dimensions and numeric measures.
// Typed domain structs reach the engine through DomainAdapter instead.
type Record struct {
	Dimensions map[string]string  `json:"dimensions" yaml:"dimensions"`
	Measures   map[string]float64 `json:"measures" yaml:"measures"`
}

// Well-known dimension keys shared by every record adapter.
const (
	DimType        = "type"
	DimCategory    = "category"
	DimCondition   = "condition"
	DimStatus      = "status"
	DimTitle       = "title"
	DimDescription = "description"
	DimStock       = "stock"
	DimMonth       = "month"
	DimCurrency    = "currency"
)

// Well-known measure keys shared by every record adapter.
const (
	MeasurePrice     = "price"
	MeasureTimestamp = "timestamp"
	MeasureDownloads = "downloads"
	MeasureSize      = "size"
	MeasureCount     = "record_count"
)

// Values of the stock dimension. A record with no stock value is treated as
// in stock (digital goods, assets, projects).
const (
	StockIn        = "in_stock"
	StockBackorder = "backorder"
	StockOut       = "out_of_stock"
)

// MonthFormat is the layout of the month dimension ("2024-02").
const MonthFormat = "2006-01"

// ============================================================================
// FILTER SPEC — what subset to show and how to order it
// ============================================================================

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// DefaultPriceRange is the range that means "no price constraint".
var DefaultPriceRange = Range{Min: 0, Max: 5000}

// SortKey identifies an ordering of a filtered view.
type SortKey string

const (
	SortNone      SortKey = ""
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortName      SortKey = "name"
	SortDownloads SortKey = "downloads"
	SortSize      SortKey = "size"
)

// SortKeys lists every accepted sort key except SortNone.
var SortKeys = []SortKey{SortNewest, SortOldest, SortPriceLow, SortPriceHigh, SortName, SortDownloads, SortSize}

// FilterSpec describes which records to keep and how to order them.
// Every empty criterion means "no constraint".
type FilterSpec struct {
	Types      []string `json:"type,omitempty" yaml:"type,omitempty"`
	Categories []string `json:"category,omitempty" yaml:"category,omitempty"`
	Conditions []string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Statuses   []string `json:"status,omitempty" yaml:"status,omitempty"`
	PriceRange *Range   `json:"priceRange,omitempty" yaml:"priceRange,omitempty"`
	InStock    *bool    `json:"inStock,omitempty" yaml:"inStock,omitempty"`
	Search     string   `json:"search,omitempty" yaml:"search,omitempty"`
	SortBy     SortKey  `json:"sortBy,omitempty" yaml:"sortBy,omitempty"`
}

// ============================================================================
// METRICS — derived, never persisted
// ============================================================================

// TrendMode selects which earlier point a trend compares against.
type TrendMode int

const (
	// TrendPointOverPoint compares the last point with the one before it.
	TrendPointOverPoint TrendMode = iota
	// TrendRange compares the last point with the first one.
	TrendRange
)

// String returns the CLI name of the mode.
func (m TrendMode) String() string {
	if m == TrendRange {
		return "range"
	}
	return "point"
}

// TimeSeriesPoint is one dated observation.
type TimeSeriesPoint struct {
	Date   time.Time `json:"date" yaml:"date"`
	Label  string    `json:"label,omitempty" yaml:"label,omitempty"`
	Value  float64   `json:"value" yaml:"value"`
	Target *float64  `json:"target,omitempty" yaml:"target,omitempty"`
}

// MetricsSummary aggregates a view. It is recomputed on every call.
type MetricsSummary struct {
	Count     int     `json:"count"`
	Total     float64 `json:"total"`
	Average   float64 `json:"average"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Trend     float64 `json:"trend"`
	TrendMode string  `json:"trendMode"`
	Direction string  `json:"direction"`
	Period    string  `json:"period"`
	Unit      string  `json:"unit,omitempty"`
}

// Group is an intermediate grouped/aggregated result.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"`
}

// ============================================================================
// TABLE TYPES — CLI and export output
// ============================================================================

// TableData is a render-ready table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary carries the totals row of a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
