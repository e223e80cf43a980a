// Package schema describes the dimensions and measures a dataset exposes to
// the engine. Typed records have built-in schemas (For); CSV exports get one
// from Discover or from a YAML/JSON file (Load).
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/record"
)

// ============================================================================
// SCHEMA — the shape of a dataset
// ============================================================================

// ErrInvalid is matched by every schema validation error.
var ErrInvalid = errors.New("invalid schema")

// Schema describes a dataset.
type Schema struct {
	Name        string      `json:"name" yaml:"name"`
	Kind        record.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Dimensions  []Dimension `json:"dimensions" yaml:"dimensions"`
	Measures    []Measure   `json:"measures" yaml:"measures"`
	Currency    *Currency   `json:"currency,omitempty" yaml:"currency,omitempty"`
	// Skipped lists columns Discover left out, with the reason.
	Skipped []Skipped `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Skipped is a column that is neither a dimension nor a measure.
type Skipped struct {
	Column string `json:"column" yaml:"column"`
	Reason string `json:"reason" yaml:"reason"`
}

// Dimension is a string field used to filter and group.
type Dimension struct {
	Key         string `json:"key" yaml:"key"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Values lists the allowed values of an enumerated dimension, or sample
	// values for a discovered one.
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
	// Column is the CSV header the dimension is read from when it differs
	// from Key.
	Column   string `json:"column,omitempty" yaml:"column,omitempty"`
	Temporal bool   `json:"temporal,omitempty" yaml:"temporal,omitempty"`
	Currency bool   `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// Measure is a numeric field used to aggregate.
type Measure struct {
	Key         string `json:"key" yaml:"key"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Column      string `json:"column,omitempty" yaml:"column,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"` // currency, count, bytes, hours, percent
	Aggregation string `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	// Synthetic measures are computed rather than read (record_count,
	// timestamp).
	Synthetic bool `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
}

// Currency declares which dimension carries currency codes.
type Currency struct {
	Dimension string             `json:"dimension" yaml:"dimension"`
	Base      string             `json:"base,omitempty" yaml:"base,omitempty"`
	Rates     map[string]float64 `json:"rates,omitempty" yaml:"rates,omitempty"`
}

// DimensionKeys returns the dimension keys in declaration order.
func (s *Schema) DimensionKeys() []string {
	keys := make([]string, len(s.Dimensions))
	for i, d := range s.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns the measure keys in declaration order.
func (s *Schema) MeasureKeys() []string {
	keys := make([]string, len(s.Measures))
	for i, m := range s.Measures {
		keys[i] = m.Key
	}
	return keys
}

// DefaultMeasure returns the first measure that is read from data, falling
// back to price.
func (s *Schema) DefaultMeasure() string {
	for _, m := range s.Measures {
		if !m.Synthetic {
			return m.Key
		}
	}
	return engine.MeasurePrice
}

// Dimension looks a dimension up by key.
func (s *Schema) Dimension(key string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return Dimension{}, false
}

// EngineOptions returns the engine options implied by the schema: the
// default measure and, when rates are declared, currency normalization.
func (s *Schema) EngineOptions() []engine.Option {
	opts := []engine.Option{engine.WithDefaultMeasure(s.DefaultMeasure())}
	if c := s.Currency; c != nil && c.Base != "" && len(c.Rates) > 0 {
		opts = append(opts, engine.WithCurrency(c.Base, c.Dimension, c.Rates))
	}
	return opts
}

// Validate checks keys and aggregations and reports every problem.
func (s *Schema) Validate() error {
	var result *multierror.Error

	if s.Name == "" {
		result = multierror.Append(result, errors.New("name is required"))
	}
	if len(s.Dimensions)+len(s.Measures) == 0 {
		result = multierror.Append(result, errors.New("no dimensions or measures"))
	}

	seen := make(map[string]string)
	check := func(what, key string) {
		if key == "" {
			result = multierror.Append(result, fmt.Errorf("%s with an empty key", what))
			return
		}
		if prev, dup := seen[key]; dup {
			result = multierror.Append(result, fmt.Errorf("%s %q is already declared as a %s", what, key, prev))
			return
		}
		seen[key] = what
	}
	for _, d := range s.Dimensions {
		check("dimension", d.Key)
	}
	for _, m := range s.Measures {
		check("measure", m.Key)
		switch m.Aggregation {
		case "", engine.AggSum, engine.AggAvg, engine.AggCount, engine.AggMin, engine.AggMax:
		default:
			result = multierror.Append(result, fmt.Errorf("measure %q: unknown aggregation %q", m.Key, m.Aggregation))
		}
	}

	if c := s.Currency; c != nil {
		if d, ok := s.Dimension(c.Dimension); !ok {
			result = multierror.Append(result, fmt.Errorf("currency dimension %q is not declared", c.Dimension))
		} else if !d.Currency {
			result = multierror.Append(result, fmt.Errorf("dimension %q is not marked as a currency", c.Dimension))
		}
		for code, rate := range c.Rates {
			if rate <= 0 {
				result = multierror.Append(result, fmt.Errorf("rate for %s must be positive", code))
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalid, s.Name, err)
	}
	return nil
}

// ============================================================================
// LOADING AND WRITING
// ============================================================================

// Load decodes a YAML or JSON schema and validates it. Unknown fields are
// rejected.
func Load(r io.Reader) (*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Schema
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads a schema file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteYAML encodes s as YAML.
func WriteYAML(w io.Writer, s *Schema) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	return enc.Close()
}
