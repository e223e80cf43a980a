package engine

import (
	"strconv"
)

// ============================================================================
// TABLES — record lists and grouped totals for text and CSV output
// ============================================================================

func textColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "text", Align: "left"}
}

func numberColumn(key, label, align string) Column {
	return Column{Key: key, Label: label, Type: "number", Align: align}
}

func emptyTable(title string) *TableData {
	return &TableData{Title: title, Columns: []Column{}, Rows: [][]string{}}
}

func fixed2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// BuildTable lists view one record per row: its dimensions in key order,
// then measure. The summary row totals measure in unit.
func BuildTable(title string, view RecordView, measure, unit string) *TableData {
	n := view.Len()
	if n == 0 {
		return emptyTable(title)
	}

	dims := view.DimensionKeys()
	t := &TableData{Title: title, Columns: make([]Column, 0, len(dims)+1), Rows: make([][]string, n)}
	for _, key := range dims {
		t.Columns = append(t.Columns, textColumn(key, LabelForDimension(key)))
	}
	t.Columns = append(t.Columns, numberColumn(measure, LabelForDimension(measure), "right"))

	var total float64
	for i := range n {
		row := make([]string, len(dims)+1)
		for j, key := range dims {
			row[j] = view.Dimension(i, key)
		}
		v := view.Measure(i, measure)
		row[len(dims)] = fixed2(v)
		total += v
		t.Rows[i] = row
	}
	t.Summary = &Summary{
		Label:  "Total (" + strconv.Itoa(n) + " records)",
		Values: map[string]string{measure: FormatCurrency(total, unit)},
	}
	return t
}

// BuildGroupTable lists top-level groups with their aggregated value and
// record count. Sub-groups are not expanded.
func BuildGroupTable(title, groupLabel, aggregation string, groups []Group, unit string) *TableData {
	if len(groups) == 0 {
		return emptyTable(title)
	}
	if groupLabel == "" {
		groupLabel = "Group"
	}

	t := &TableData{
		Title: title,
		Columns: []Column{
			textColumn("group", groupLabel),
			numberColumn("value", LabelForAggregation(aggregation), "right"),
			numberColumn("count", "Count", "center"),
		},
		Rows: make([][]string, len(groups)),
	}
	var value float64
	var count int
	for i, g := range groups {
		t.Rows[i] = []string{g.Label, fixed2(g.Value), strconv.Itoa(g.Count)}
		value += g.Value
		count += g.Count
	}
	t.Summary = &Summary{
		Label:  "Total",
		Values: map[string]string{"value": FormatCurrency(value, unit), "count": strconv.Itoa(count)},
	}
	return t
}
