package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spektr-org/impactlens/record"
)

// Backend names accepted by OpenBackend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Settings selects and locates a backend.
type Settings struct {
	Backend   string // memory, file, sqlite or redis; "" means memory
	Path      string // directory for file, database file for sqlite
	RedisAddr string
	Prefix    string // redis key prefix
}

// OpenBackend builds the backend named by s for records of type T. The
// returned close function releases connections and is never nil.
func OpenBackend[T any](ctx context.Context, s Settings) (Backend[T], func() error, error) {
	noop := func() error { return nil }

	var zero T
	kind := record.KindOf(zero)

	switch s.Backend {
	case "", BackendMemory:
		return NewMemoryBackend[T](), noop, nil

	case BackendFile:
		dir := s.Path
		if dir == "" {
			dir = "."
		}
		return NewFileBackend[T](filepath.Join(dir, string(kind)+".json")), noop, nil

	case BackendSQLite:
		path := s.Path
		if path == "" {
			path = "impactlens.db"
		}
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, noop, err
		}
		b, err := NewSQLiteBackend[T](ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return b, db.Close, nil

	case BackendRedis:
		client, err := DialRedis(ctx, s.RedisAddr)
		if err != nil {
			return nil, noop, err
		}
		prefix := s.Prefix
		if prefix == "" {
			prefix = "impactlens"
		}
		b, err := NewRedisBackend[T](client, prefix)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return b, client.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", s.Backend)
	}
}
