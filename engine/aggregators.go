package engine

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ============================================================================
// AGGREGATORS — grouping, reductions, group ordering
// ============================================================================
// A group holds a subset of its parent view, so it can be summarized or
// grouped again without copying records.
// ============================================================================

// Aggregation names accepted by GroupAndAggregate.
const (
	AggSum   = "sum"
	AggCount = "count"
	AggAvg   = "avg"
	AggMax   = "max"
	AggMin   = "min"
)

// dimYear is derived from the month dimension when a record has no year.
const dimYear = "year"

var reducers = map[string]func(RecordView, string) float64{
	AggSum:   SumMeasure,
	AggAvg:   AvgMeasure,
	AggMax:   MaxMeasure,
	AggMin:   MinMeasure,
	AggCount: func(v RecordView, _ string) float64 { return float64(v.Len()) },
}

// GroupAndAggregate partitions view by groupBy (one or two dimensions; none
// gives a single "all" group), reduces measure in every group with
// aggregation, orders the top level by sortBy and keeps the first limit
// groups when limit > 0. An unknown aggregation sums.
func GroupAndAggregate(view RecordView, groupBy []string, measure, aggregation, sortBy string, limit int) []Group {
	if view.Len() == 0 {
		return nil
	}
	reduce, ok := reducers[aggregation]
	if !ok {
		reduce = SumMeasure
	}

	var groups []Group
	if len(groupBy) == 0 {
		groups = []Group{{Key: "all", Label: "Total", View: view}}
	} else {
		groups = partition(view, groupBy[0])
	}
	for i := range groups {
		g := &groups[i]
		if len(groupBy) > 1 {
			g.SubGroups = partition(g.View, groupBy[1])
			for j := range g.SubGroups {
				g.SubGroups[j].Count = g.SubGroups[j].View.Len()
				g.SubGroups[j].Value = reduce(g.SubGroups[j].View, measure)
			}
		}
		g.Count = g.View.Len()
		g.Value = reduce(g.View, measure)
	}

	SortGroups(groups, sortBy)
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// partition splits view on one dimension. Groups keep first-seen order and
// an empty value forms its own group.
func partition(view RecordView, dimension string) []Group {
	var groups []Group
	at := make(map[string]int)
	var members [][]int
	for i := range view.Len() {
		key := dimensionValue(view, i, dimension)
		g, seen := at[key]
		if !seen {
			g = len(groups)
			at[key] = g
			groups = append(groups, Group{Key: key, Label: key})
			members = append(members, nil)
		}
		members[g] = append(members[g], i)
	}
	for g := range groups {
		groups[g].View = newSubView(view, members[g])
	}
	return groups
}

func dimensionValue(view RecordView, i int, dimension string) string {
	v := view.Dimension(i, dimension)
	if v != "" || dimension != dimYear {
		return v
	}
	if order := ParseMonthOrder(view.Dimension(i, DimMonth)); order > 0 {
		return strconv.Itoa(order / 100)
	}
	return ""
}

// ============================================================================
// REDUCTIONS — an empty view reduces to 0
// ============================================================================

// SumMeasure adds up measure over view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := range view.Len() {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure is the mean of measure over view.
func AvgMeasure(view RecordView, measure string) float64 {
	if n := view.Len(); n > 0 {
		return SumMeasure(view, measure) / float64(n)
	}
	return 0
}

// MaxMeasure is the largest value of measure in view.
func MaxMeasure(view RecordView, measure string) float64 {
	return extreme(view, measure, math.Max)
}

// MinMeasure is the smallest value of measure in view.
func MinMeasure(view RecordView, measure string) float64 {
	return extreme(view, measure, math.Min)
}

func extreme(view RecordView, measure string, pick func(a, b float64) float64) float64 {
	if view.Len() == 0 {
		return 0
	}
	m := view.Measure(0, measure)
	for i := 1; i < view.Len(); i++ {
		m = pick(m, view.Measure(i, measure))
	}
	return m
}

// UniqueValues returns the distinct non-empty values of a dimension in
// first-seen order. It feeds the category and type pickers.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range view.Len() {
		v := dimensionValue(view, i, dimension)
		if _, dup := seen[v]; v == "" || dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ============================================================================
// GROUP ORDERING
// ============================================================================

var groupOrders = map[string]func(a, b Group) int{
	"value_desc":            func(a, b Group) int { return cmp.Compare(b.Value, a.Value) },
	"value_asc":             func(a, b Group) int { return cmp.Compare(a.Value, b.Value) },
	"chronological":         func(a, b Group) int { return cmp.Compare(monthKey(a.Key), monthKey(b.Key)) },
	"reverse_chronological": func(a, b Group) int { return cmp.Compare(monthKey(b.Key), monthKey(a.Key)) },
	"label_asc":             func(a, b Group) int { return cmp.Compare(strings.ToLower(a.Key), strings.ToLower(b.Key)) },
	"label_desc":            func(a, b Group) int { return cmp.Compare(strings.ToLower(b.Key), strings.ToLower(a.Key)) },
}

func init() {
	groupOrders["date_asc"] = groupOrders["chronological"]
	groupOrders["date_desc"] = groupOrders["reverse_chronological"]
}

// SortGroups orders groups in place. Equal groups keep their grouping order;
// an unknown order leaves groups as they are.
func SortGroups(groups []Group, sortBy string) {
	if order, ok := groupOrders[sortBy]; ok {
		slices.SortStableFunc(groups, order)
	}
}

// monthKey makes months and bare years comparable; "2024" sorts before
// "2024-01". Anything else is 0.
func monthKey(key string) int {
	if v := ParseMonthOrder(key); v > 0 {
		return v
	}
	if y, err := strconv.Atoi(key); err == nil && len(key) == 4 {
		return y * 100
	}
	return 0
}
