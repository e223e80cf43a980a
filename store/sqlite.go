package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spektr-org/impactlens/record"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// OpenSQLite opens (or creates) a database file for SQLiteBackend.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return db, nil
}

// SQLiteBackend stores each record as a JSON document in a table named after
// the collection. Row order is creation order.
type SQLiteBackend[T any] struct {
	db    *sql.DB
	table string
	kind  record.Kind
}

// NewSQLiteBackend creates the collection table if needed.
func NewSQLiteBackend[T any](ctx context.Context, db *sql.DB) (*SQLiteBackend[T], error) {
	var zero T
	kind := record.KindOf(zero)
	if kind == "" {
		return nil, fmt.Errorf("sqlite backend: %T is not a record type", zero)
	}

	b := &SQLiteBackend[T]{
		db:    db,
		table: "records_" + strings.ReplaceAll(string(kind), "-", "_"),
		kind:  kind,
	}
	if err := b.migrate(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend[T]) migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		doc        TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`, b.table)
	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", b.table, err)
	}
	return nil
}

func (b *SQLiteBackend[T]) GetAll(ctx context.Context) ([]T, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf("SELECT doc FROM %s ORDER BY seq", b.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", b.table, err)
	}
	defer func() { _ = rows.Close() }()

	items := []T{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", b.table, err)
		}
		rec, err := decode[T]([]byte(doc))
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", b.table, err)
	}
	return items, nil
}

func (b *SQLiteBackend[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	var doc string
	err := b.db.QueryRowContext(ctx, fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", b.table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, &NotFoundError{Kind: b.kind, ID: id}
	}
	if err != nil {
		return zero, fmt.Errorf("get %s %q: %w", b.kind, id, err)
	}
	return decode[T]([]byte(doc))
}

func (b *SQLiteBackend[T]) Create(ctx context.Context, rec T) error {
	id := idOf(rec)
	doc, err := encode(rec)
	if err != nil {
		return err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE id = ?", b.table), id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s %q: %w", b.kind, id, err)
	}
	if exists > 0 {
		return fmt.Errorf("%s %q: %w", b.kind, id, ErrDuplicate)
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, doc, updated_at) VALUES (?, ?, ?)", b.table),
		id, string(doc), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert %s %q: %w", b.kind, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create: %w", err)
	}
	return nil
}

func (b *SQLiteBackend[T]) Update(ctx context.Context, id string, rec T) error {
	doc, err := encode(rec)
	if err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET doc = ?, updated_at = ? WHERE id = ?", b.table),
		string(doc), time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update %s %q: %w", b.kind, id, err)
	}
	return b.expectOne(res, id)
}

func (b *SQLiteBackend[T]) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", b.table), id)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", b.kind, id, err)
	}
	return b.expectOne(res, id)
}

func (b *SQLiteBackend[T]) expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &NotFoundError{Kind: b.kind, ID: id}
	}
	return nil
}
