// Package record defines the typed domain records of the platform (products,
// film projects, NGO projects, donations, assets and impact data) and the
// adapters that expose them to the engine as dimensions and measures.
//
// Records are plain values. They are created and changed only through a
// store.Collection; everything the dashboards show is derived from them by
// the engine and the impact selectors.
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/spektr-org/impactlens/engine"
)

// Identifiable is implemented by every record kept in a store.Collection.
type Identifiable interface {
	GetID() string
}

// Validator is implemented by records that can check their own invariants.
type Validator interface {
	Validate() error
}

// Kind names a record collection.
type Kind string

const (
	KindProduct     Kind = "product"
	KindProject     Kind = "project"
	KindNGOProject  Kind = "ngo-project"
	KindDonation    Kind = "donation"
	KindAsset       Kind = "asset"
	KindMeasurement Kind = "measurement"
	KindGoal        Kind = "goal"
)

// Kinds lists every record kind in display order.
var Kinds = []Kind{KindProduct, KindProject, KindNGOProject, KindDonation, KindAsset, KindMeasurement, KindGoal}

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// KindOf returns the kind of a record value, or "" for foreign types.
func KindOf(v any) Kind {
	switch v.(type) {
	case Product, *Product:
		return KindProduct
	case Project, *Project:
		return KindProject
	case NGOProject, *NGOProject:
		return KindNGOProject
	case Donation, *Donation:
		return KindDonation
	case Asset, *Asset:
		return KindAsset
	case ImpactMeasurement, *ImpactMeasurement:
		return KindMeasurement
	case ImpactGoal, *ImpactGoal:
		return KindGoal
	default:
		return ""
	}
}

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("invalid record")

// ValidationError lists the problems found in one record.
type ValidationError struct {
	Kind     Kind
	ID       string
	Problems *multierror.Error
}

func (e *ValidationError) Error() string {
	var msgs []string
	if e.Problems != nil {
		for _, p := range e.Problems.Errors {
			msgs = append(msgs, p.Error())
		}
	}
	subject := string(e.Kind)
	if e.ID != "" {
		subject += " " + e.ID
	}
	return fmt.Sprintf("invalid %s: %s", subject, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// problems collects validation failures for one record.
type problems struct {
	kind Kind
	id   string
	errs *multierror.Error
}

func (p *problems) addf(format string, args ...any) {
	p.errs = multierror.Append(p.errs, fmt.Errorf(format, args...))
}

func (p *problems) oneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	p.addf("%s %q is not one of %s", field, value, strings.Join(allowed, ", "))
}

func (p *problems) nonNegative(field string, v float64) {
	if v < 0 {
		p.addf("%s must not be negative (got %g)", field, v)
	}
}

func (p *problems) err() error {
	if p.errs.ErrorOrNil() == nil {
		return nil
	}
	return &ValidationError{Kind: p.kind, ID: p.id, Problems: p.errs}
}

// month formats t as the engine's month dimension; the zero time has none.
func month(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(engine.MonthFormat)
}

func unix(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}
