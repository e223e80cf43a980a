package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spektr-org/impactlens/engine"
)

// ============================================================================
// DISCOVERY — a schema from a CSV export
// ============================================================================
// Each column is sampled and classified:
//   1. type: number, date, bool or text (80% of non-null cells must agree)
//   2. role: dimension, measure or skipped (IDs and free text)
//   3. special: currency codes, the first date column becomes month and
//      timestamp
// A synthetic record_count measure is always added.
// ============================================================================

// DefaultSampleSize is the number of rows Discover inspects by default.
const DefaultSampleSize = 1000

// DiscoverOptions controls Discover.
type DiscoverOptions struct {
	Name       string
	SampleSize int      // rows to inspect; 0 means DefaultSampleSize
	Recover    []string // skipped columns to keep as dimensions, by header or key
}

type columnType int

const (
	typeText columnType = iota
	typeNumber
	typeDate
	typeBool
)

type column struct {
	header  string
	index   int
	typ     columnType
	values  []string
	uniques map[string]struct{}

	decimals bool
	currency bool
}

// Discover reads a CSV export and proposes a schema for it.
func Discover(r io.Reader, opts DiscoverOptions) (*Schema, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV", ErrInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	limit := opts.SampleSize
	if limit <= 0 {
		limit = DefaultSampleSize
	}
	var rows [][]string
	for len(rows) < limit {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: CSV has no data rows", ErrInvalid)
	}

	keep := make(map[string]bool, len(opts.Recover))
	for _, c := range opts.Recover {
		keep[Key(c)] = true
	}

	s := &Schema{Name: opts.Name}
	if s.Name == "" {
		s.Name = "Discovered dataset"
	}

	keys := newKeySet()
	monthTaken := false
	for i, header := range headers {
		col := analyze(header, i, rows)
		key := Key(header)
		if key == "" {
			key = fmt.Sprintf("column_%d", i+1)
		}

		if reason := col.skipReason(len(rows)); reason != "" && !keep[key] {
			s.Skipped = append(s.Skipped, Skipped{Column: header, Reason: reason})
			continue
		}

		switch {
		case col.typ == typeDate && !monthTaken && !keys.has(engine.DimMonth):
			monthTaken = true
			s.Dimensions = append(s.Dimensions, Dimension{
				Key:      keys.add(engine.DimMonth),
				Label:    "Month",
				Column:   header,
				Temporal: true,
			})
			s.Measures = append(s.Measures, Measure{
				Key:       keys.add(engine.MeasureTimestamp),
				Label:     "Timestamp",
				Column:    header,
				Unit:      "seconds",
				Synthetic: true,
			})

		case col.isMeasure(len(rows)):
			key = keys.add(key)
			s.Measures = append(s.Measures, Measure{
				Key:         key,
				Label:       label(header),
				Column:      columnName(header, key),
				Aggregation: engine.AggSum,
			})

		default:
			key = keys.add(key)
			d := Dimension{
				Key:      key,
				Label:    label(header),
				Column:   columnName(header, key),
				Temporal: col.typ == typeDate,
				Currency: col.currency,
			}
			if len(col.uniques) <= 10 {
				d.Values = slices.Sorted(maps.Keys(col.uniques))
			}
			s.Dimensions = append(s.Dimensions, d)
			if d.Currency && s.Currency == nil {
				s.Currency = &Currency{Dimension: key}
			}
		}
	}

	s.Measures = append(s.Measures, Measure{
		Key:         keys.add(engine.MeasureCount),
		Label:       "Record count",
		Unit:        "count",
		Aggregation: engine.AggCount,
		Synthetic:   true,
	})

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

func analyze(header string, index int, rows [][]string) *column {
	col := &column{header: header, index: index, uniques: make(map[string]struct{})}
	for _, row := range rows {
		if index >= len(row) || IsNull(row[index]) {
			continue
		}
		v := strings.TrimSpace(row[index])
		col.values = append(col.values, v)
		col.uniques[v] = struct{}{}
	}
	if len(col.values) == 0 {
		return col
	}

	var numbers, dates, bools int
	for _, v := range col.values {
		if _, ok := ParseNumber(v); ok {
			numbers++
			if strings.Contains(v, ".") {
				col.decimals = true
			}
		}
		if _, ok := ParseTime(v); ok {
			dates++
		}
		if isBool(v) {
			bools++
		}
	}

	threshold := int(math.Ceil(float64(len(col.values)) * 0.8))
	switch {
	case bools >= threshold:
		col.typ = typeBool
	case dates >= threshold:
		col.typ = typeDate
	case numbers >= threshold:
		col.typ = typeNumber
	default:
		col.currency = currencyCodes(col.uniques)
	}
	return col
}

func (c *column) skipReason(rows int) string {
	switch {
	case len(c.values) == 0:
		return "all values are empty"
	case c.typ == typeDate || c.typ == typeBool || c.currency:
		return ""
	case len(c.uniques) == rows && rows > 10 && !c.decimals:
		return "unique per row, likely an identifier"
	case c.typ == typeText && len(c.uniques) > rows/2 && len(c.uniques) > 50:
		return fmt.Sprintf("%d distinct values, too many to group by", len(c.uniques))
	}
	return ""
}

// isMeasure separates amounts from coded numbers such as priority 1-5.
func (c *column) isMeasure(rows int) bool {
	if c.typ != typeNumber {
		return false
	}
	if c.decimals {
		return true
	}
	ratio := float64(len(c.uniques)) / float64(rows)
	return len(c.uniques) >= 20 || ratio >= 0.3
}

var knownCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CNY": true,
	"INR": true, "CAD": true, "AUD": true, "CHF": true, "ZAR": true,
	"NGN": true, "KES": true, "GHS": true, "XAF": true, "XOF": true,
	"EGP": true, "MAD": true, "TZS": true, "UGX": true, "RWF": true,
	"ETB": true, "BRL": true, "MXN": true, "SGD": true, "AED": true,
}

func currencyCodes(uniques map[string]struct{}) bool {
	if len(uniques) == 0 {
		return false
	}
	matches := 0
	for v := range uniques {
		if knownCurrencies[v] {
			matches++
		}
	}
	return float64(matches)/float64(len(uniques)) >= 0.8
}

// ============================================================================
// NAMING
// ============================================================================

type keySet map[string]bool

func newKeySet() keySet { return make(keySet) }

func (k keySet) has(key string) bool { return k[key] }

// add reserves key, suffixing _2, _3... on collision.
func (k keySet) add(key string) string {
	candidate := key
	for n := 2; k[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", key, n)
	}
	k[candidate] = true
	return candidate
}

func label(header string) string {
	h := strings.TrimSpace(header)
	if strings.Contains(h, " ") {
		return h
	}
	return cases.Title(language.English).String(strings.ReplaceAll(Key(h), "_", " "))
}

func columnName(header, key string) string {
	if strings.TrimSpace(header) == key {
		return ""
	}
	return header
}
