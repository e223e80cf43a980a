package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/cases"
	"go.uber.org/zap"
)

// ============================================================================
// FILTERS — single pass over a view, returns a subset of it
// ============================================================================
// Set dimensions (type, category, condition, status) are OR within a set
// and AND across sets. Range, stock and search are further AND terms. An empty
// criterion never excludes anything.
// ============================================================================

// ApplyFilters returns the records of view that satisfy spec, ordered by
// spec.SortBy. The input view is never modified. An invalid spec returns a
// *ValidationError and no view.
func ApplyFilters(view RecordView, spec FilterSpec, opts ...Option) (RecordView, error) {
	cfg := applyOptions(opts)
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	filtered := filterView(view, spec, cfg)
	cfg.Logger.Debug("filters applied",
		zap.Int("input", view.Len()),
		zap.Int("matched", filtered.Len()),
		zap.String("sort", string(spec.SortBy)))

	return sortView(filtered, spec.SortBy, cfg.PriceMeasure), nil
}

// Apply filters and sorts typed items through adapter and returns the
// selected items. The result is a new slice; items is untouched.
func Apply[T any](adapter *DomainAdapter[T], items []T, spec FilterSpec, opts ...Option) ([]T, error) {
	view, err := ApplyFilters(adapter.Bind(items), spec, opts...)
	if err != nil {
		return nil, err
	}
	return Collect(items, view), nil
}

// Validate reports every inconsistency in spec. Bounds are never swapped.
func (s FilterSpec) Validate() error {
	var problems *multierror.Error

	if s.PriceRange != nil {
		r := *s.PriceRange
		switch {
		case math.IsNaN(r.Min) || math.IsNaN(r.Max):
			problems = multierror.Append(problems, fmt.Errorf("price range bounds must be numbers"))
		case r.Min > r.Max:
			problems = multierror.Append(problems, fmt.Errorf("price range min %g exceeds max %g", r.Min, r.Max))
		}
	}

	if s.SortBy != SortNone && !isSortKey(s.SortBy) {
		problems = multierror.Append(problems, fmt.Errorf("unknown sort key %q", s.SortBy))
	}

	if problems.ErrorOrNil() != nil {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsUnconstrained reports whether spec would keep every record of any view,
// given the range that counts as the default.
func (s FilterSpec) IsUnconstrained(defaultRange Range) bool {
	return len(s.Types) == 0 &&
		len(s.Categories) == 0 &&
		len(s.Conditions) == 0 &&
		len(s.Statuses) == 0 &&
		(s.PriceRange == nil || *s.PriceRange == defaultRange) &&
		s.InStock == nil &&
		strings.TrimSpace(s.Search) == ""
}

func filterView(view RecordView, spec FilterSpec, cfg *config) RecordView {
	if spec.IsUnconstrained(cfg.DefaultRange) {
		return view
	}

	sets := make(map[string]map[string]bool, 4)
	addSet(sets, DimType, spec.Types)
	addSet(sets, DimCategory, spec.Categories)
	addSet(sets, DimCondition, spec.Conditions)
	addSet(sets, DimStatus, spec.Statuses)

	var priceRange *Range
	if spec.PriceRange != nil && *spec.PriceRange != cfg.DefaultRange {
		priceRange = spec.PriceRange
	}

	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(spec.Search))

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !matchesSets(view, i, sets) {
			continue
		}
		if priceRange != nil && !priceRange.Contains(view.Measure(i, cfg.PriceMeasure)) {
			continue
		}
		if spec.InStock != nil && !matchesStock(view.Dimension(i, DimStock), *spec.InStock) {
			continue
		}
		if needle != "" && !matchesSearch(view, i, cfg.SearchFields, needle, folder) {
			continue
		}
		indices = append(indices, i)
	}

	return newSubView(view, indices)
}

func addSet(sets map[string]map[string]bool, dim string, allowed []string) {
	if len(allowed) == 0 {
		return
	}
	sets[dim] = toLowerSet(allowed)
}

func matchesSets(view RecordView, i int, sets map[string]map[string]bool) bool {
	for dim, set := range sets {
		if !set[strings.ToLower(view.Dimension(i, dim))] {
			return false
		}
	}
	return true
}

// matchesStock: true keeps in-stock records; false keeps records that are
// out of stock and cannot be backordered.
func matchesStock(stock string, wantInStock bool) bool {
	if wantInStock {
		return stock == "" || stock == StockIn
	}
	return stock == StockOut
}

func matchesSearch(view RecordView, i int, fields []string, needle string, folder cases.Caser) bool {
	for _, f := range fields {
		if strings.Contains(folder.String(view.Dimension(i, f)), needle) {
			return true
		}
	}
	return false
}

func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

func isSortKey(k SortKey) bool {
	for _, known := range SortKeys {
		if k == known {
			return true
		}
	}
	return false
}
