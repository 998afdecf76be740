// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ekai/pixelpuzzle/db"
)

var (
	ErrNotFound = errors.New("cell not found")
	ErrNotOwner = errors.New("cell owned by another identity")
	ErrLocked   = errors.New("cell is locked")
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ops holds every grid, quota and activity operation. It runs either
// directly against the pool (Store) or inside one transaction (Tx).
type ops struct {
	q       querier
	dialect string
}

// Store is the shared durable state: cells, quota ledger and session activity.
type Store struct {
	ops
	db *sql.DB
}

// Tx is a Store bound to a single transaction.
type Tx struct {
	ops
}

func New(conn *sql.DB, dialect string) *Store {
	return &Store{ops: ops{q: conn, dialect: dialect}, db: conn}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Rebind rewrites ? placeholders for the store's dialect.
func (s *Store) Rebind(query string) string {
	return s.rebind(query)
}

// WithTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back otherwise; fn's error is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{ops: ops{q: tx, dialect: s.dialect}}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into $N for PostgreSQL.
func (o ops) rebind(query string) string {
	if o.dialect != db.TypePostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (o ops) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return o.q.ExecContext(ctx, o.rebind(query), args...)
}

func (o ops) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return o.q.QueryContext(ctx, o.rebind(query), args...)
}

func (o ops) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return o.q.QueryRowContext(ctx, o.rebind(query), args...)
}
