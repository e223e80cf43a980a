package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortPriceLowAndHigh(t *testing.T) {
	items := []item{
		{ID: "1", Price: 10, Created: day("2024-01-01")},
		{ID: "2", Price: 30, Created: day("2024-02-01")},
	}

	low, err := Apply(itemAdapter, items, FilterSpec{SortBy: SortPriceLow})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(low))

	high, err := Apply(itemAdapter, items, FilterSpec{SortBy: SortPriceHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, ids(high))
}

func TestSortPriceUsesConfiguredMeasure(t *testing.T) {
	view := NewSliceView([]Record{
		{Dimensions: map[string]string{"id": "a"}, Measures: map[string]float64{"amount": 10}},
		{Dimensions: map[string]string{"id": "b"}, Measures: map[string]float64{"amount": 30}},
		{Dimensions: map[string]string{"id": "c"}, Measures: map[string]float64{"amount": 20}},
	})
	order := func(v RecordView) []string {
		out := make([]string, v.Len())
		for i := range out {
			out[i] = v.Dimension(i, "id")
		}
		return out
	}

	high, err := ApplyFilters(view, FilterSpec{SortBy: SortPriceHigh}, WithPriceMeasure("amount"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, order(high))

	sel, err := Select(view, FilterSpec{SortBy: SortPriceLow}, WithPriceMeasure("amount"), WithDefaultMeasure("amount"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, order(sel.View))

	// Without the option the price sorts read "price", which every record
	// lacks, so the input order stands.
	unchanged, err := ApplyFilters(view, FilterSpec{SortBy: SortPriceHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order(unchanged))
}

func TestSortIsStable(t *testing.T) {
	// 3 and 4 share price and date; their input order must survive.
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortNewest, []string{"3", "4", "2", "1", "5"}},
		{SortOldest, []string{"5", "1", "2", "3", "4"}},
		{SortPriceLow, []string{"2", "3", "4", "1", "5"}},
		{SortPriceHigh, []string{"5", "1", "3", "4", "2"}},
		{SortName, []string{"1", "2", "4", "3", "5"}},
		{SortNone, []string{"1", "2", "3", "4", "5"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got, err := Apply(itemAdapter, catalog(), FilterSpec{SortBy: tt.key})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSortNewestIsIdempotent(t *testing.T) {
	once, err := Apply(itemAdapter, catalog(), FilterSpec{SortBy: SortNewest})
	require.NoError(t, err)

	twice, err := Apply(itemAdapter, once, FilterSpec{SortBy: SortNewest})
	require.NoError(t, err)

	assert.Equal(t, ids(once), ids(twice))
}

func TestSortViewOverFilteredView(t *testing.T) {
	items := catalog()
	view, err := ApplyFilters(itemAdapter.Bind(items), FilterSpec{Types: []string{"physical"}, SortBy: SortPriceHigh})
	require.NoError(t, err)

	require.Equal(t, 3, view.Len())
	assert.Equal(t, 0, SourceIndex(view, 0))
	assert.Equal(t, 2, SourceIndex(view, 1))
	assert.Equal(t, 3, SourceIndex(view, 2))
	assert.Equal(t, -1, SourceIndex(view, 3))
}

func TestParseSortKey(t *testing.T) {
	k, ok := ParseSortKey(" Price-Low ")
	assert.True(t, ok)
	assert.Equal(t, SortPriceLow, k)

	k, ok = ParseSortKey("")
	assert.True(t, ok)
	assert.Equal(t, SortNone, k)

	_, ok = ParseSortKey("popularity")
	assert.False(t, ok)
}
