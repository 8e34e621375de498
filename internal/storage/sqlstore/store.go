// Package sqlstore implements the storage record operations over
// database/sql. The SQLite and PostgreSQL providers share it and differ only
// in Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/pillbook/internal/logger"
	"github.com/julianstephens/pillbook/internal/storage"
)

// Dialect selects bind parameter syntax.
type Dialect int

const (
	// SQLite binds with "?"
	SQLite Dialect = iota
	// Postgres binds with "$1", "$2", ...
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites the "?" placeholders in q for the dialect. Queries in this
// package never contain a literal "?".
func (d Dialect) Rebind(q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Placeholder returns the dialect's first bind parameter.
func (d Dialect) Placeholder() string {
	return d.Rebind("?")
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements storage.Tx against a *sql.DB, or against a *sql.Tx while
// inside WithTx.
type Store struct {
	q       querier
	dialect Dialect
}

var _ storage.Tx = (*Store)(nil)

// New returns a Store over db.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{q: db, dialect: dialect}
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// WithTx runs fn in a transaction. Called on a Store already bound to a
// transaction, fn joins it.
func (s *Store) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	db, ok := s.q.(*sql.DB)
	if !ok {
		return fn(s)
	}
	return RunInTx(ctx, db, func(tx *sql.Tx) error {
		return fn(&Store{q: tx, dialect: s.dialect})
	})
}

// RunInTx begins a transaction, runs fn and commits. It rolls back when fn
// returns an error or panics; a panic is re-raised after the rollback.
func RunInTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("failed to roll back transaction after panic", "error", rbErr, "panic", p)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("failed to roll back transaction", "rollback_error", rbErr, "error", err)
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.dialect.Rebind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.dialect.Rebind(q), args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.dialect.Rebind(q), args...)
}

// insertReturningID runs an INSERT ... RETURNING id statement.
func (s *Store) insertReturningID(ctx context.Context, q string, args ...any) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, q, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	res, err := s.exec(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) count(ctx context.Context, table string, w where) (int, error) {
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM "+table+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// where accumulates AND-ed conditions written with "?" placeholders.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *where) timeRange(column string, from, to int64) {
	if from != 0 {
		w.add(column+" >= ?", from)
	}
	if to != 0 {
		w.add(column+" <= ?", to)
	}
}

// likePattern builds a case-insensitive substring pattern for
// "LOWER(col) LIKE ? ESCAPE '\'".
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func (d Dialect) limitOffset(limit, offset int) string {
	var b strings.Builder
	switch {
	case limit > 0:
		fmt.Fprintf(&b, " LIMIT %d", limit)
	case offset > 0 && d == SQLite:
		// SQLite only accepts OFFSET after a LIMIT
		b.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}
