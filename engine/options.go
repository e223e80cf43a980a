package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — functional options shared by ApplyFilters and Select
// ============================================================================

// Option configures engine behavior.
type Option func(*config)

type config struct {
	DefaultRange      Range
	SearchFields      []string
	PriceMeasure      string
	DefaultMeasure    string
	TrendMode         TrendMode
	BaseCurrency      string
	CurrencyDimension string
	ExchangeRates     map[string]float64
	Logger            *zap.Logger
}

// WithDefaultRange sets the price range that counts as "unconstrained".
func WithDefaultRange(r Range) Option {
	return func(c *config) {
		c.DefaultRange = r
	}
}

// WithSearchFields sets the dimensions matched by FilterSpec.Search.
func WithSearchFields(fields ...string) Option {
	return func(c *config) {
		if len(fields) > 0 {
			c.SearchFields = fields
		}
	}
}

// WithPriceMeasure sets the measure tested against FilterSpec.PriceRange and
// compared by the price sorts.
func WithPriceMeasure(measure string) Option {
	return func(c *config) {
		if measure != "" {
			c.PriceMeasure = measure
		}
	}
}

// WithDefaultMeasure sets the measure Select summarizes.
func WithDefaultMeasure(measure string) Option {
	return func(c *config) {
		if measure != "" {
			c.DefaultMeasure = measure
		}
	}
}

// WithTrendMode sets how Select computes MetricsSummary.Trend.
func WithTrendMode(mode TrendMode) Option {
	return func(c *config) {
		c.TrendMode = mode
	}
}

// WithCurrency enables multi-currency normalization of the summarized measure.
// rates maps a foreign currency to its value in baseCurrency.
func WithCurrency(baseCurrency, dimension string, rates map[string]float64) Option {
	return func(c *config) {
		c.BaseCurrency = baseCurrency
		c.CurrencyDimension = dimension
		c.ExchangeRates = rates
	}
}

// WithLogger sets the logger used for pipeline debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		DefaultRange:   DefaultPriceRange,
		SearchFields:   []string{DimTitle, DimDescription},
		PriceMeasure:   MeasurePrice,
		DefaultMeasure: MeasurePrice,
		TrendMode:      TrendPointOverPoint,
		Logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
