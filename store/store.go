// Package store owns record collections and the actions that change them.
//
// A Collection is an ordinary value: create one per record kind and pass it
// to whoever needs it. Every mutation is serialized by the collection's
// lock, written to the optional Backend first and applied in memory only when
// the backend accepted it. Reads return copies, so callers can filter and
// sort freely.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/record"
)

// Collection is an ordered set of records of one kind, keyed by ID.
type Collection[T record.Identifiable] struct {
	mu    sync.RWMutex
	items []T
	index map[string]int

	kind    record.Kind
	backend Backend[T]
	logger  *zap.Logger
	metrics *storeMetrics
	now     func() time.Time
	newID   func() string
}

// New creates an empty collection. Call Load to hydrate it from a backend.
func New[T record.Identifiable](opts ...Option) *Collection[T] {
	o := applyOptions(opts)

	kind := o.kind
	if kind == "" {
		var zero T
		kind = record.KindOf(zero)
	}

	c := &Collection[T]{
		index:   make(map[string]int),
		kind:    kind,
		logger:  o.logger.With(zap.String("collection", string(kind))),
		metrics: newStoreMetrics(o.registerer),
		now:     o.now,
		newID:   o.newID,
	}
	if o.backend != nil {
		b, ok := o.backend.(Backend[T])
		if !ok {
			panic(fmt.Sprintf("store: backend %T cannot store %s records", o.backend, kind))
		}
		c.backend = b
	}
	return c
}

// Kind returns the record kind of the collection.
func (c *Collection[T]) Kind() record.Kind { return c.kind }

// Load replaces the in-memory records with the backend's. Without a backend
// it does nothing.
func (c *Collection[T]) Load(ctx context.Context) error {
	if c.backend == nil {
		return nil
	}

	items, err := c.backend.GetAll(ctx)
	if err != nil {
		c.metrics.failed(c.kind, opLoad)
		return fmt.Errorf("load %s: %w", c.kind, err)
	}

	index := make(map[string]int, len(items))
	for i, it := range items {
		if _, dup := index[it.GetID()]; dup {
			return fmt.Errorf("load %s: %w: %q", c.kind, ErrDuplicate, it.GetID())
		}
		index[it.GetID()] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.index = index
	c.metrics.resize(c.kind, len(items))
	c.logger.Debug("loaded", zap.Int("records", len(items)))
	return nil
}

// Add stores rec and returns it as stored. An empty ID is replaced by a new
// UUID and zero creation/update times by the current time.
func (c *Collection[T]) Add(ctx context.Context, rec T) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	fields := Fields{}
	if rec.GetID() == "" {
		fields[fieldID] = c.newID()
	}
	rec, err := patch(rec, fields, stampNew(c.now()))
	if err != nil {
		c.metrics.failed(c.kind, opAdd)
		return zero, fmt.Errorf("add %s: %w", c.kind, err)
	}
	if err := validate(rec); err != nil {
		c.metrics.failed(c.kind, opAdd)
		return zero, fmt.Errorf("add %s: %w", c.kind, err)
	}

	id := rec.GetID()
	if _, exists := c.index[id]; exists {
		c.metrics.failed(c.kind, opAdd)
		return zero, fmt.Errorf("add %s %q: %w", c.kind, id, ErrDuplicate)
	}

	if c.backend != nil {
		if err := c.backend.Create(ctx, rec); err != nil {
			c.metrics.failed(c.kind, opAdd)
			return zero, fmt.Errorf("add %s %q: %w", c.kind, id, err)
		}
	}

	c.index[id] = len(c.items)
	c.items = append(c.items, rec)
	c.metrics.mutated(c.kind, opAdd, len(c.items))
	c.logger.Debug("added", zap.String("id", id))
	return rec, nil
}

// Update shallow-merges fields into the record with the given ID and returns
// the result. Fields not named keep their values; nested objects are
// replaced as a whole. The ID cannot be changed.
func (c *Collection[T]) Update(ctx context.Context, id string, fields Fields) (T, error) {
	return c.UpdateFunc(ctx, id, func(T) (Fields, error) { return fields, nil })
}

// UpdateFunc is Update with fields derived from the current record. fn runs
// while the collection is locked, so no other mutation can interleave; it
// must not call back into the collection.
func (c *Collection[T]) UpdateFunc(ctx context.Context, id string, fn func(current T) (Fields, error)) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		c.metrics.failed(c.kind, opUpdate)
		return zero, &NotFoundError{Kind: c.kind, ID: id}
	}

	fields, err := fn(c.items[i])
	if err != nil {
		c.metrics.failed(c.kind, opUpdate)
		return zero, fmt.Errorf("update %s %q: %w", c.kind, id, err)
	}
	if v, ok := fields[fieldID]; ok && v != id {
		c.metrics.failed(c.kind, opUpdate)
		return zero, fmt.Errorf("update %s %q: %w: id cannot be changed", c.kind, id, ErrValidation)
	}

	updated, err := patch(c.items[i], fields, stampUpdate(c.now(), fields))
	if err != nil {
		c.metrics.failed(c.kind, opUpdate)
		return zero, fmt.Errorf("update %s %q: %w", c.kind, id, err)
	}
	if err := validate(updated); err != nil {
		c.metrics.failed(c.kind, opUpdate)
		return zero, fmt.Errorf("update %s %q: %w", c.kind, id, err)
	}

	if c.backend != nil {
		if err := c.backend.Update(ctx, id, updated); err != nil {
			c.metrics.failed(c.kind, opUpdate)
			return zero, fmt.Errorf("update %s %q: %w", c.kind, id, err)
		}
	}

	c.items[i] = updated
	c.metrics.mutated(c.kind, opUpdate, len(c.items))
	c.logger.Debug("updated", zap.String("id", id), zap.Int("fields", len(fields)))
	return updated, nil
}

// Remove deletes the record with the given ID and returns it.
func (c *Collection[T]) Remove(ctx context.Context, id string) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		c.metrics.failed(c.kind, opRemove)
		return zero, &NotFoundError{Kind: c.kind, ID: id}
	}

	if c.backend != nil {
		if err := c.backend.Delete(ctx, id); err != nil {
			c.metrics.failed(c.kind, opRemove)
			return zero, fmt.Errorf("remove %s %q: %w", c.kind, id, err)
		}
	}

	removed := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].GetID()] = j
	}

	c.metrics.mutated(c.kind, opRemove, len(c.items))
	c.logger.Debug("removed", zap.String("id", id))
	return removed, nil
}

// Get returns the record with the given ID.
func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, &NotFoundError{Kind: c.kind, ID: id}
	}
	return c.items[i], nil
}

// List returns a snapshot of every record in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Query filters and sorts a snapshot of the collection.
func (c *Collection[T]) Query(adapter *engine.DomainAdapter[T], spec engine.FilterSpec, opts ...engine.Option) ([]T, error) {
	return engine.Apply(adapter, c.List(), spec, opts...)
}

func validate(rec any) error {
	v, ok := rec.(record.Validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		if errors.Is(err, record.ErrInvalid) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return err
	}
	return nil
}
