package engine

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrValidation reports an internally inconsistent filter spec.
var ErrValidation = errors.New("invalid filter spec")

// ValidationError lists every problem found in a FilterSpec.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Problems *multierror.Error
}

func (e *ValidationError) Error() string {
	if e.Problems == nil || len(e.Problems.Errors) == 0 {
		return ErrValidation.Error()
	}
	if len(e.Problems.Errors) == 1 {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Problems.Errors[0])
	}
	msgs := e.Problems.Errors[0].Error()
	for _, p := range e.Problems.Errors[1:] {
		msgs += "; " + p.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, msgs)
}

// Unwrap exposes ErrValidation and the individual problems.
func (e *ValidationError) Unwrap() []error {
	errs := []error{ErrValidation}
	if e.Problems != nil {
		errs = append(errs, e.Problems.Errors...)
	}
	return errs
}
