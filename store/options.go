package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spektr-org/impactlens/record"
)

// Option configures a Collection.
type Option func(*options)

type options struct {
	kind       record.Kind
	logger     *zap.Logger
	registerer prometheus.Registerer
	now        func() time.Time
	newID      func() string
	backend    any
}

// WithKind names the collection in errors, logs and metrics. By default the
// kind is derived from the record type.
func WithKind(kind record.Kind) Option {
	return func(o *options) {
		o.kind = kind
	}
}

// WithLogger sets the logger for mutation and load events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegisterer exports mutation counters and the collection size to r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithClock replaces time.Now for creation and update stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator used by Add.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithBackend persists every mutation to b before it is applied in memory.
// b must store the collection's record type.
func WithBackend[T any](b Backend[T]) Option {
	return func(o *options) {
		o.backend = b
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
