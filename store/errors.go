package store

import (
	"errors"
	"fmt"

	"github.com/spektr-org/impactlens/record"
)

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate reports an Add or backend Create with an ID that already exists.
var ErrDuplicate = errors.New("duplicate record id")

// ErrValidation reports an update or record that cannot be applied.
var ErrValidation = errors.New("invalid record")

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind record.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
