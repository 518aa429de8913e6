package freezer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cryostore/pkg/domain"

	sqlite "modernc.org/sqlite" // pure go sqlite driver
)

// dbFileName is the relational backing file inside a namespace directory.
const dbFileName = "db.sqlite"

// Base schema guaranteed before any other operation. Reproduced
// bit-for-bit for on-disk compatibility.
var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS globals (
		key TEXT,
		val TEXT,
		type TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniqkey ON globals(key)`,
}

// Store owns the single embedded SQL connection for one namespace. It is
// not safe for concurrent writers across processes, and within a process
// callers must serialize writes to the same namespace themselves; the
// only internal discipline is the savepoint semantics of Bulk.
type Store struct {
	ns   *Namespace
	db   *sql.DB
	conn *sql.Conn

	bulkDepth int
}

// OpenStore opens (creating if needed) the relational store for a
// namespace and guarantees the base schema exists.
func OpenStore(ctx context.Context, ns *Namespace) (*Store, error) {
	return openStore(ctx, ns, false)
}

// OpenExistingStore opens the relational store for a namespace that is
// expected to already have a backing file, and reports
// domain.ErrStorageUnavailable when it does not.
func OpenExistingStore(ctx context.Context, ns *Namespace) (*Store, error) {
	return openStore(ctx, ns, true)
}

func openStore(ctx context.Context, ns *Namespace, mustExist bool) (*Store, error) {
	path := filepath.Join(ns.Path(), dbFileName)
	if mustExist {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s does not exist: %w", ns.Key(), domain.ErrStorageUnavailable)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// All statements, including savepoints, must land on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire sqlite conn: %w", err)
	}
	s := &Store{ns: ns, db: db, conn: conn}
	for _, stmt := range baseSchema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("bootstrap base schema: %w", err)
		}
	}
	return s, nil
}

// Namespace returns the namespace this store is rooted at.
func (s *Store) Namespace() *Namespace { return s.ns }

// Close releases the connection and the database handle.
func (s *Store) Close() error {
	var errs []error
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

// Exec runs a statement on the store connection, mapping constraint
// clashes to domain.ErrUniqueness.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.conn.ExecContext(ctx, query, args...)
	return res, mapSQLiteError(err)
}

// Query runs a query on the store connection.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row query on the store connection.
func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

// Bulk runs fn inside a scoped savepoint with durability relaxed for
// throughput. On success the savepoint is released, folding its effects
// into any enclosing transaction. On failure the savepoint is rolled
// back, the error is returned wrapped, and the savepoint is still
// released exactly once. Because this is a savepoint rather than a
// top-level transaction, Bulk nests inside an already-open Bulk.
func (s *Store) Bulk(ctx context.Context, fn func(ctx context.Context) error) error {
	depth := s.bulkDepth
	s.bulkDepth++
	defer func() { s.bulkDepth-- }()

	if depth == 0 {
		if _, err := s.conn.ExecContext(ctx, "PRAGMA synchronous = off"); err != nil {
			return fmt.Errorf("bulk transaction: set synchronous: %w", err)
		}
		var mode string
		if err := s.conn.QueryRowContext(ctx, "PRAGMA journal_mode = memory").Scan(&mode); err != nil {
			return fmt.Errorf("bulk transaction: set journal mode: %w", err)
		}
	}

	sp := fmt.Sprintf("bulk_txn_%d", depth)
	if _, err := s.conn.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return fmt.Errorf("bulk transaction: savepoint: %w", err)
	}
	if err := fn(ctx); err != nil {
		if _, rbErr := s.conn.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		_, _ = s.conn.ExecContext(ctx, "RELEASE SAVEPOINT "+sp)
		return fmt.Errorf("bulk transaction: %w", err)
	}
	if _, err := s.conn.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return fmt.Errorf("bulk transaction: release savepoint: %w", err)
	}
	return nil
}

// mapSQLiteError rewraps constraint violations as domain.ErrUniqueness
// so call sites can match them without importing the driver.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	const sqliteConstraint = 19 // primary SQLITE_CONSTRAINT result code
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqliteConstraint {
		return fmt.Errorf("%v: %w", err, domain.ErrUniqueness)
	}
	if strings.Contains(err.Error(), "constraint failed") {
		return fmt.Errorf("%v: %w", err, domain.ErrUniqueness)
	}
	return err
}
