package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/spektr-org/impactlens/record"
)

// MemoryBackend keeps records in process memory. It is useful to share one
// set of records between several collections and in tests.
type MemoryBackend[T any] struct {
	mu    sync.RWMutex
	kind  record.Kind
	order []string
	docs  map[string]T
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend[T any]() *MemoryBackend[T] {
	var zero T
	return &MemoryBackend[T]{kind: record.KindOf(zero), docs: make(map[string]T)}
}

func (b *MemoryBackend[T]) GetAll(ctx context.Context) ([]T, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.docs[id])
	}
	return out, nil
}

func (b *MemoryBackend[T]) GetByID(ctx context.Context, id string) (T, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.docs[id]
	if !ok {
		return rec, &NotFoundError{Kind: b.kind, ID: id}
	}
	return rec, nil
}

func (b *MemoryBackend[T]) Create(ctx context.Context, rec T) error {
	id := idOf(rec)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.docs[id]; exists {
		return fmt.Errorf("%s %q: %w", b.kind, id, ErrDuplicate)
	}
	b.docs[id] = rec
	b.order = append(b.order, id)
	return nil
}

func (b *MemoryBackend[T]) Update(ctx context.Context, id string, rec T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.docs[id]; !exists {
		return &NotFoundError{Kind: b.kind, ID: id}
	}
	b.docs[id] = rec
	return nil
}

func (b *MemoryBackend[T]) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.docs[id]; !exists {
		return &NotFoundError{Kind: b.kind, ID: id}
	}
	delete(b.docs, id)
	for i, o := range b.order {
		if o == id {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}
