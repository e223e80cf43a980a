package engine

import (
	"sort"
	"strings"
)

// SortView returns view reordered by key. Sorting is stable: records with
// equal keys keep their relative order. SortNone returns view unchanged.
// The price sorts compare MeasurePrice.
func SortView(view RecordView, key SortKey) RecordView {
	return sortView(view, key, MeasurePrice)
}

// sortView is SortView with the price sorts reading priceMeasure.
func sortView(view RecordView, key SortKey, priceMeasure string) RecordView {
	less := lessFor(view, key, priceMeasure)
	if less == nil {
		return view
	}

	indices := make([]int, view.Len())
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return less(indices[a], indices[b])
	})
	return newSubView(view, indices)
}

func lessFor(view RecordView, key SortKey, priceMeasure string) func(i, j int) bool {
	measure := func(m string) func(i, j int) bool {
		return func(i, j int) bool { return view.Measure(i, m) < view.Measure(j, m) }
	}
	measureDesc := func(m string) func(i, j int) bool {
		return func(i, j int) bool { return view.Measure(i, m) > view.Measure(j, m) }
	}

	switch key {
	case SortNewest:
		return measureDesc(MeasureTimestamp)
	case SortOldest:
		return measure(MeasureTimestamp)
	case SortPriceLow:
		return measure(priceMeasure)
	case SortPriceHigh:
		return measureDesc(priceMeasure)
	case SortDownloads:
		return measureDesc(MeasureDownloads)
	case SortSize:
		return measureDesc(MeasureSize)
	case SortName:
		return func(i, j int) bool {
			return strings.ToLower(view.Dimension(i, DimTitle)) < strings.ToLower(view.Dimension(j, DimTitle))
		}
	default:
		return nil
	}
}

// ParseSortKey validates a user-supplied sort key.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(strings.TrimSpace(strings.ToLower(s)))
	if k == SortNone || isSortKey(k) {
		return k, true
	}
	return SortNone, false
}
