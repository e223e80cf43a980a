package engine

import (
	"maps"
	"slices"
	"sort"
)

// ============================================================================
// RECORD VIEWS — read-only, index-addressed access to a collection snapshot
// ============================================================================
// A selection never copies records. Filtering and sorting produce a subset
// (positions into the parent), currency normalization wraps the parent, and
// typed collections are read through a DomainAdapter.
// ============================================================================

// RecordView provides indexed access to a dataset. Out-of-range positions
// read as "" and 0.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string
	MeasureKeys() []string
}

// ============================================================================
// SLICE VIEW — generic records (CSV imports)
// ============================================================================

// SliceView wraps []Record. Its keys are the union over all records, sorted.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
}

// NewSliceView returns a view over records, collecting their keys.
func NewSliceView(records []Record) RecordView {
	dims := make(map[string]struct{})
	meas := make(map[string]struct{})
	for _, r := range records {
		for k := range r.Dimensions {
			dims[k] = struct{}{}
		}
		for k := range r.Measures {
			meas[k] = struct{}{}
		}
	}
	return &SliceView{
		records: records,
		dimKeys: slices.Sorted(maps.Keys(dims)),
		mesKeys: slices.Sorted(maps.Keys(meas)),
	}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if !inRange(i, len(v.records)) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if !inRange(i, len(v.records)) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) DimensionKeys() []string { return v.dimKeys }
func (v *SliceView) MeasureKeys() []string   { return v.mesKeys }

func inRange(i, n int) bool { return i >= 0 && i < n }

// ============================================================================
// SUBSET — the result of filtering, sorting and grouping
// ============================================================================

type subset struct {
	parent    RecordView
	positions []int
}

func newSubView(parent RecordView, positions []int) RecordView {
	return &subset{parent: parent, positions: positions}
}

// at maps position i to the parent, or -1.
func (v *subset) at(i int) int {
	if !inRange(i, len(v.positions)) {
		return -1
	}
	return v.positions[i]
}

func (v *subset) Len() int                           { return len(v.positions) }
func (v *subset) Dimension(i int, key string) string { return v.parent.Dimension(v.at(i), key) }
func (v *subset) Measure(i int, key string) float64  { return v.parent.Measure(v.at(i), key) }
func (v *subset) DimensionKeys() []string            { return v.parent.DimensionKeys() }
func (v *subset) MeasureKeys() []string              { return v.parent.MeasureKeys() }

// SourceIndex maps position i of view back to the index of the same record
// in the slice the innermost view was bound to, or -1. Currency
// normalization does not move records.
func SourceIndex(view RecordView, i int) int {
	for {
		switch v := view.(type) {
		case *subset:
			if i = v.at(i); i < 0 {
				return -1
			}
			view = v.parent
		case *currencyView:
			view = v.parent
		default:
			if !inRange(i, view.Len()) {
				return -1
			}
			return i
		}
	}
}

// Collect returns the items selected by view, in view order. view must derive
// from a DomainAdapter bound to items.
func Collect[T any](items []T, view RecordView) []T {
	out := make([]T, 0, view.Len())
	for i := range view.Len() {
		if idx := SourceIndex(view, i); inRange(idx, len(items)) {
			out = append(out, items[idx])
		}
	}
	return out
}

// ============================================================================
// CONCAT
// ============================================================================

// concatView keeps the first position of every part in starts; the last
// entry of starts is Len.
type concatView struct {
	parts  []RecordView
	starts []int
}

// Concat joins views end to end without copying. Keys are those of the first
// view.
func Concat(views ...RecordView) RecordView {
	v := &concatView{parts: views, starts: make([]int, len(views)+1)}
	for i, p := range views {
		v.starts[i+1] = v.starts[i] + p.Len()
	}
	return v
}

func (v *concatView) locate(i int) (RecordView, int) {
	if !inRange(i, v.Len()) {
		return nil, -1
	}
	part := sort.SearchInts(v.starts, i+1) - 1
	return v.parts[part], i - v.starts[part]
}

func (v *concatView) Len() int { return v.starts[len(v.starts)-1] }

func (v *concatView) Dimension(i int, key string) string {
	if p, j := v.locate(i); p != nil {
		return p.Dimension(j, key)
	}
	return ""
}

func (v *concatView) Measure(i int, key string) float64 {
	if p, j := v.locate(i); p != nil {
		return p.Measure(j, key)
	}
	return 0
}

func (v *concatView) DimensionKeys() []string {
	if len(v.parts) == 0 {
		return nil
	}
	return v.parts[0].DimensionKeys()
}

func (v *concatView) MeasureKeys() []string {
	if len(v.parts) == 0 {
		return nil
	}
	return v.parts[0].MeasureKeys()
}

// ============================================================================
// CURRENCY NORMALIZATION
// ============================================================================

// currencyView reads money measures in the base currency. Records whose
// currency has no rate keep their amount and their currency code.
type currencyView struct {
	parent    RecordView
	measures  []string
	dimension string
	base      string
	rates     map[string]float64
}

func newCurrencyView(parent RecordView, measures []string, dimension, base string, rates map[string]float64) RecordView {
	return &currencyView{parent: parent, measures: measures, dimension: dimension, base: base, rates: rates}
}

// rate returns the multiplier for record i and whether it converts at all.
func (v *currencyView) rate(i int) (float64, bool) {
	code := v.parent.Dimension(i, v.dimension)
	if code == v.base {
		return 1, false
	}
	r, ok := v.rates[code]
	return r, ok && r > 0
}

func (v *currencyView) Len() int { return v.parent.Len() }

func (v *currencyView) Dimension(i int, key string) string {
	if key == v.dimension {
		if _, ok := v.rate(i); ok {
			return v.base
		}
	}
	return v.parent.Dimension(i, key)
}

func (v *currencyView) Measure(i int, key string) float64 {
	amount := v.parent.Measure(i, key)
	if !slices.Contains(v.measures, key) {
		return amount
	}
	if r, ok := v.rate(i); ok {
		return amount * r
	}
	return amount
}

func (v *currencyView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *currencyView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// DOMAIN ADAPTER — typed collections as views
// ============================================================================
//
//	var DonationAdapter = engine.NewDomainAdapter[Donation]().
//	    Dimension(engine.DimType, func(d Donation) string { return d.Frequency }).
//	    Measure(engine.MeasurePrice, func(d Donation) float64 { return d.Amount })
//
//	view := DonationAdapter.Bind(donations)
//
// ============================================================================

type accessor[T, V any] struct {
	key string
	get func(T) V
}

// accessors keeps registration order; registering a key again replaces its
// function in place.
type accessors[T, V any] struct {
	list  []accessor[T, V]
	index map[string]int
}

func (a *accessors[T, V]) set(key string, fn func(T) V) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[key]; ok {
		a.list[i].get = fn
		return
	}
	a.index[key] = len(a.list)
	a.list = append(a.list, accessor[T, V]{key: key, get: fn})
}

func (a *accessors[T, V]) lookup(key string) (func(T) V, bool) {
	i, ok := a.index[key]
	if !ok {
		return nil, false
	}
	return a.list[i].get, true
}

func (a *accessors[T, V]) keys() []string {
	out := make([]string, len(a.list))
	for i, acc := range a.list {
		out[i] = acc.key
	}
	return out
}

// DomainAdapter builds RecordViews over typed structs. Register accessors
// once at package init; afterwards the adapter is read-only and may be
// shared between goroutines.
type DomainAdapter[T any] struct {
	dims accessors[T, string]
	meas accessors[T, float64]
}

// NewDomainAdapter returns an adapter with no accessors registered.
func NewDomainAdapter[T any]() *DomainAdapter[T] { return &DomainAdapter[T]{} }

// Dimension registers fn as the reader of dimension key.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	a.dims.set(key, fn)
	return a
}

// Measure registers fn as the reader of measure key.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	a.meas.set(key, fn)
	return a
}

// Bind creates a view over data. The slice is referenced, not copied, so the
// view reads whatever the caller's snapshot holds.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{data: data, adapter: a, dimKeys: a.dims.keys(), mesKeys: a.meas.keys()}
}

// DomainView reads typed records through an adapter's accessors. Unknown
// keys read as "" and 0.
type DomainView[T any] struct {
	data    []T
	adapter *DomainAdapter[T]
	dimKeys []string
	mesKeys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	fn, ok := v.adapter.dims.lookup(key)
	if !ok || !inRange(i, len(v.data)) {
		return ""
	}
	return fn(v.data[i])
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	fn, ok := v.adapter.meas.lookup(key)
	if !ok || !inRange(i, len(v.data)) {
		return 0
	}
	return fn(v.data[i])
}

func (v *DomainView[T]) DimensionKeys() []string { return v.dimKeys }
func (v *DomainView[T]) MeasureKeys() []string   { return v.mesKeys }
