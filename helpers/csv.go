package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/schema"
)

// ============================================================================
// CSV — exports in, tables out
// ============================================================================
// Spreadsheet exports (donation logs, field measurements, asset inventories)
// are read into generic records using a schema. Columns the schema does not
// mention are ignored; schema fields with no column read as empty.
// ============================================================================

type field struct {
	key    string
	index  int
	parse  func(string) (any, error)
	isDim  bool
	header string
}

// ReadCSV parses rows into records. Temporal dimensions are normalized to
// YYYY-MM; a synthetic timestamp measure with a column is read from the same
// dates. Every malformed cell is reported with its line number.
func ReadCSV(r io.Reader, s *schema.Schema) ([]engine.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("read CSV: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	fields := bind(headers, s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("read CSV: no column matches schema %q", s.Name)
	}
	var counts []string
	for _, m := range s.Measures {
		if m.Synthetic && m.Aggregation == engine.AggCount {
			counts = append(counts, m.Key)
		}
	}

	var (
		records []engine.Record
		result  *multierror.Error
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		line, _ := reader.FieldPos(0)

		rec := engine.Record{
			Dimensions: make(map[string]string),
			Measures:   make(map[string]float64),
		}
		for _, f := range fields {
			if f.index >= len(row) || schema.IsNull(row[f.index]) {
				continue
			}
			raw := strings.TrimSpace(row[f.index])
			if f.isDim {
				rec.Dimensions[f.key] = raw
			}
			if f.parse == nil {
				continue
			}
			v, err := f.parse(raw)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("line %d, column %q: %w", line, f.header, err))
				continue
			}
			switch v := v.(type) {
			case string:
				rec.Dimensions[f.key] = v
			case float64:
				rec.Measures[f.key] = v
			}
		}
		for _, key := range counts {
			rec.Measures[key] = 1
		}
		records = append(records, rec)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return records, nil
}

// ReadCSVView is ReadCSV wrapped in a view.
func ReadCSVView(r io.Reader, s *schema.Schema) (engine.RecordView, error) {
	records, err := ReadCSV(r, s)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(records), nil
}

func bind(headers []string, s *schema.Schema) []field {
	index := func(column string) int {
		for i, h := range headers {
			if strings.TrimSpace(h) == column {
				return i
			}
		}
		want := schema.Key(column)
		for i, h := range headers {
			if schema.Key(h) == want {
				return i
			}
		}
		return -1
	}

	var fields []field
	for _, d := range s.Dimensions {
		i := index(columnOf(d.Key, d.Column))
		if i < 0 {
			continue
		}
		f := field{key: d.Key, index: i, isDim: true, header: headers[i]}
		if d.Temporal {
			f.parse = parseMonth
		}
		fields = append(fields, f)
	}
	for _, m := range s.Measures {
		if m.Synthetic && m.Column == "" {
			continue
		}
		i := index(columnOf(m.Key, m.Column))
		if i < 0 {
			continue
		}
		f := field{key: m.Key, index: i, header: headers[i], parse: parseNumber}
		if m.Synthetic {
			f.parse = parseUnix
		}
		fields = append(fields, f)
	}
	return fields
}

func columnOf(key, column string) string {
	if column != "" {
		return column
	}
	return key
}

// parseMonth keeps values that are not dates, such as "Q1-2026", as they are.
func parseMonth(s string) (any, error) {
	if t, ok := schema.ParseTime(s); ok {
		return t.Format(engine.MonthFormat), nil
	}
	return s, nil
}

func parseNumber(s string) (any, error) {
	if f, ok := schema.ParseNumber(s); ok {
		return f, nil
	}
	return nil, fmt.Errorf("%q is not a number", s)
}

func parseUnix(s string) (any, error) {
	if t, ok := schema.ParseTime(s); ok {
		return float64(t.Unix()), nil
	}
	return nil, fmt.Errorf("%q is not a date", s)
}

// ============================================================================
// TABLE OUTPUT
// ============================================================================

// WriteCSV renders a table with a header row of column labels. The summary,
// when present, becomes the last row.
func WriteCSV(w io.Writer, t *engine.TableData) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}

	if t.Summary != nil && len(t.Columns) > 0 {
		row := make([]string, len(t.Columns))
		row[0] = t.Summary.Label
		for i, c := range t.Columns[1:] {
			row[i+1] = t.Summary.Values[c.Key]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
