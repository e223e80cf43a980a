package engine

import (
	"go.uber.org/zap"
)

// ============================================================================
// SELECT — normalize → filter → sort → summarize
// ============================================================================
// Select is what dashboards and the CLI call. It never mutates its input
// and recomputes the summary on every call.
// ============================================================================

// Selection is the derived view and its summary.
type Selection struct {
	View    RecordView
	Summary MetricsSummary
}

// Select applies spec to view and summarizes the result. With a base
// currency configured, money measures are converted before filtering, so a
// price range is read in the base currency.
//
// Options:
//   - WithDefaultMeasure(key): measure to summarize (default "price")
//   - WithTrendMode(mode): how the summary trend is computed
//   - WithCurrency(base, dimension, rates): normalize mixed currencies
//   - WithDefaultRange, WithSearchFields, WithPriceMeasure: filter tuning
func Select(view RecordView, spec FilterSpec, opts ...Option) (*Selection, error) {
	cfg := applyOptions(opts)
	log := cfg.Logger.With(zap.String("measure", cfg.DefaultMeasure))

	if err := spec.Validate(); err != nil {
		log.Debug("rejected filter spec", zap.Error(err))
		return nil, err
	}

	unit := cfg.BaseCurrency
	if cfg.BaseCurrency != "" && cfg.CurrencyDimension != "" && len(cfg.ExchangeRates) > 0 &&
		needsConversion(view, cfg.CurrencyDimension, cfg.BaseCurrency) {
		log.Debug("normalizing currencies", zap.String("base", cfg.BaseCurrency))
		view = newCurrencyView(view, []string{cfg.DefaultMeasure, cfg.PriceMeasure},
			cfg.CurrencyDimension, cfg.BaseCurrency, cfg.ExchangeRates)
	}

	filtered := filterView(view, spec, cfg)
	log.Debug("filtered", zap.Int("input", view.Len()), zap.Int("matched", filtered.Len()))

	if unit == "" {
		unit = inferUnit(filtered, cfg.CurrencyDimension)
	}

	sorted := sortView(filtered, spec.SortBy, cfg.PriceMeasure)
	summary := Summarize(sorted, cfg.DefaultMeasure, cfg.TrendMode)
	summary.Unit = unit

	return &Selection{View: sorted, Summary: summary}, nil
}

// needsConversion reports whether any record of view carries a currency
// other than base.
func needsConversion(view RecordView, currencyDimension, base string) bool {
	for i := range view.Len() {
		if c := view.Dimension(i, currencyDimension); c != "" && c != base {
			return true
		}
	}
	return false
}

func inferUnit(view RecordView, currencyDimension string) string {
	if currencyDimension == "" {
		currencyDimension = DimCurrency
	}
	if view.Len() == 0 {
		return ""
	}
	return view.Dimension(0, currencyDimension)
}
