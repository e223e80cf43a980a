package main

import (
	"fmt"
	"slices"

	flag "github.com/spf13/pflag"

	"github.com/spektr-org/impactlens/engine"
)

type filterFlags struct {
	fs *flag.FlagSet

	types      []string
	categories []string
	conditions []string
	statuses   []string
	minPrice   float64
	maxPrice   float64
	inStock    bool
	search     string
	sortBy     string
	measure    string
	trendMode  string
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	f.fs = fs
	fs.StringSliceVarP(&f.types, "type", "t", nil, "keep these types (repeatable or comma separated)")
	fs.StringSliceVar(&f.categories, "category", nil, "keep these categories")
	fs.StringSliceVar(&f.conditions, "condition", nil, "keep these conditions")
	fs.StringSliceVar(&f.statuses, "status", nil, "keep these statuses")
	fs.Float64Var(&f.minPrice, "min-price", 0, "lower bound of the price range")
	fs.Float64Var(&f.maxPrice, "max-price", 0, "upper bound of the price range")
	fs.BoolVar(&f.inStock, "in-stock", false, "keep in-stock records (--in-stock=false keeps the rest)")
	fs.StringVarP(&f.search, "search", "s", "", "case-insensitive search in the search fields")
	fs.StringVar(&f.sortBy, "sort", "", "newest, oldest, price-low, price-high, name, downloads or size")
	fs.StringVarP(&f.measure, "measure", "m", "", "measure to summarize (default from the schema)")
	fs.StringVar(&f.trendMode, "trend-mode", "point", "trend comparison: point (last two months) or range (first to last)")
}

// spec builds the filter. The price range is only set when a bound was
// given; the missing bound comes from the configured default range.
func (f *filterFlags) spec(a *app) (engine.FilterSpec, error) {
	spec := engine.FilterSpec{
		Types:      f.types,
		Categories: f.categories,
		Conditions: f.conditions,
		Statuses:   f.statuses,
		Search:     f.search,
	}

	sortKey, ok := engine.ParseSortKey(f.sortBy)
	if !ok {
		return engine.FilterSpec{}, fmt.Errorf("unknown sort %q", f.sortBy)
	}
	spec.SortBy = sortKey

	if f.fs.Changed("min-price") || f.fs.Changed("max-price") {
		r := engine.Range{Min: a.cfg.PriceRange[0], Max: a.cfg.PriceRange[1]}
		if f.fs.Changed("min-price") {
			r.Min = f.minPrice
		}
		if f.fs.Changed("max-price") {
			r.Max = f.maxPrice
		}
		spec.PriceRange = &r
	}
	if f.fs.Changed("in-stock") {
		v := f.inStock
		spec.InStock = &v
	}
	return spec, spec.Validate()
}

func (f *filterFlags) mode() (engine.TrendMode, error) {
	switch f.trendMode {
	case "", "point":
		return engine.TrendPointOverPoint, nil
	case "range":
		return engine.TrendRange, nil
	}
	return 0, fmt.Errorf("unknown trend mode %q (want point or range)", f.trendMode)
}

// options assembles engine options: config first, then the dataset schema,
// then flags.
func (f *filterFlags) options(a *app, ds *dataset) ([]engine.Option, string, error) {
	mode, err := f.mode()
	if err != nil {
		return nil, "", err
	}

	measure := f.measure
	if measure == "" {
		measure = ds.schema.DefaultMeasure()
	}
	if !slices.Contains(ds.schema.MeasureKeys(), measure) {
		return nil, "", fmt.Errorf("unknown measure %q (have %v)", measure, ds.schema.MeasureKeys())
	}

	opts := a.cfg.EngineOptions()
	opts = append(opts, ds.schema.EngineOptions()...)
	if c := ds.schema.Currency; c != nil && c.Dimension != engine.DimCurrency &&
		a.cfg.Currency.Base != "" && len(a.cfg.Currency.Rates) > 0 {
		opts = append(opts, engine.WithCurrency(a.cfg.Currency.Base, c.Dimension, a.cfg.Currency.Rates))
	}
	if !slices.Contains(ds.schema.MeasureKeys(), engine.MeasurePrice) {
		opts = append(opts, engine.WithPriceMeasure(measure))
	}
	opts = append(opts,
		engine.WithDefaultMeasure(measure),
		engine.WithTrendMode(mode),
		engine.WithLogger(a.logger),
	)
	return opts, measure, nil
}
