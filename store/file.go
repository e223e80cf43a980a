package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/spektr-org/impactlens/record"
)

// FileBackend keeps a collection as a JSON array in one file. Every mutation
// rewrites the file through an atomic rename, so readers never see a partial
// snapshot.
type FileBackend[T any] struct {
	mu   sync.Mutex
	path string
	kind record.Kind
}

// NewFileBackend stores records in path. The file is created on the first
// mutation; a missing file reads as an empty collection.
func NewFileBackend[T any](path string) *FileBackend[T] {
	var zero T
	return &FileBackend[T]{path: path, kind: record.KindOf(zero)}
}

// Path returns the snapshot file.
func (b *FileBackend[T]) Path() string { return b.path }

func (b *FileBackend[T]) GetAll(ctx context.Context) ([]T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read()
}

func (b *FileBackend[T]) GetByID(ctx context.Context, id string) (T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	items, err := b.read()
	if err != nil {
		return zero, err
	}
	if i := indexOf(items, id); i >= 0 {
		return items[i], nil
	}
	return zero, &NotFoundError{Kind: b.kind, ID: id}
}

func (b *FileBackend[T]) Create(ctx context.Context, rec T) error {
	return b.mutate(func(items []T) ([]T, error) {
		id := idOf(rec)
		if indexOf(items, id) >= 0 {
			return nil, fmt.Errorf("%s %q: %w", b.kind, id, ErrDuplicate)
		}
		return append(items, rec), nil
	})
}

func (b *FileBackend[T]) Update(ctx context.Context, id string, rec T) error {
	return b.mutate(func(items []T) ([]T, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, &NotFoundError{Kind: b.kind, ID: id}
		}
		items[i] = rec
		return items, nil
	})
}

func (b *FileBackend[T]) Delete(ctx context.Context, id string) error {
	return b.mutate(func(items []T) ([]T, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, &NotFoundError{Kind: b.kind, ID: id}
		}
		return append(items[:i], items[i+1:]...), nil
	})
}

func (b *FileBackend[T]) mutate(fn func([]T) ([]T, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	items, err := b.read()
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return b.write(items)
}

func (b *FileBackend[T]) read() ([]T, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", b.path, err)
	}
	return items, nil
}

func (b *FileBackend[T]) write(items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", b.path, err)
	}
	if err := atomic.WriteFile(b.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", b.path, err)
	}
	return nil
}

func indexOf[T any](items []T, id string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}
