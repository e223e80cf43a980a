package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spektr-org/impactlens/record"
)

// Backend persists one collection. Implementations return a *NotFoundError
// for unknown IDs and ErrDuplicate when Create meets an existing ID.
// GetAll returns records in the order they were created.
type Backend[T any] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, rec T) error
	Update(ctx context.Context, id string, rec T) error
	Delete(ctx context.Context, id string) error
}

func encode[T any](rec T) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func decode[T any](data []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// idOf reads the ID of a record stored by a backend.
func idOf[T any](rec T) string {
	if r, ok := any(rec).(record.Identifiable); ok {
		return r.GetID()
	}
	return ""
}
