// Package sqlrepo implements the store repositories over database/sql. The
// sqlite and postgres drivers share it and differ only in their Dialect,
// connection setup and migrations.
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/store"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures what differs between database engines.
type Dialect struct {
	Name string

	// Numbered switches "?" placeholders to "$1, $2, ...".
	Numbered bool

	IsUniqueViolation     func(error) bool
	IsForeignKeyViolation func(error) bool
}

// Rebind rewrites "?" placeholders for the dialect. Queries in this package
// never contain a literal question mark.
func (d Dialect) Rebind(q string) string {
	if !d.Numbered {
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

// mapErr translates driver errors into the store's sentinel errors.
func (d Dialect) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case d.IsUniqueViolation != nil && d.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
	case d.IsForeignKeyViolation != nil && d.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: referenced row: %v", store.ErrNotFound, err)
	default:
		return err
	}
}

// DB is a store.Store over a *sql.DB. Drivers embed it and add
// ApplyMigrations.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

func NewDB(db *sql.DB, d Dialect) *DB {
	return &DB{db: db, dialect: d}
}

// SQL exposes the pool for migrations.
func (s *DB) SQL() *sql.DB { return s.db }

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// WithTx runs fn inside a transaction and commits when fn returns nil.
func (s *DB) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	tx := &txStore{tx: sqlTx, dialect: s.dialect}

	// Rollback after Commit is a harmless ErrTxDone.
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *DB) Users() store.Users                         { return &usersRepo{db: s.db, d: s.dialect} }
func (s *DB) VerificationCodes() store.VerificationCodes { return &codesRepo{db: s.db, d: s.dialect} }
func (s *DB) Categories() store.Categories               { return &categoriesRepo{db: s.db, d: s.dialect} }
func (s *DB) Products() store.Products                   { return &productsRepo{db: s.db, d: s.dialect} }
func (s *DB) Carts() store.Carts                         { return &cartsRepo{db: s.db, d: s.dialect} }
func (s *DB) Orders() store.Orders                       { return &ordersRepo{db: s.db, d: s.dialect} }

type txStore struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the owning DB stays open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

func (t *txStore) ApplyMigrations() error { return nil }

// WithTx on a transaction joins it.
func (t *txStore) WithTx(_ context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

func (t *txStore) Users() store.Users { return &usersRepo{db: t.tx, d: t.dialect} }
func (t *txStore) VerificationCodes() store.VerificationCodes {
	return &codesRepo{db: t.tx, d: t.dialect}
}
func (t *txStore) Categories() store.Categories { return &categoriesRepo{db: t.tx, d: t.dialect} }
func (t *txStore) Products() store.Products     { return &productsRepo{db: t.tx, d: t.dialect} }
func (t *txStore) Carts() store.Carts           { return &cartsRepo{db: t.tx, d: t.dialect} }
func (t *txStore) Orders() store.Orders         { return &ordersRepo{db: t.tx, d: t.dialect} }

func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.UTC()
	return &v
}
