// Package cohort implements the catalog abstraction: a named,
// persistent collection of accessions with aliasing, metadata, file
// associations and memoized identity resolution, built entirely on the
// freezer persistence layer.
package cohort

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cryostore/internal/freezer"
	"cryostore/internal/observe"
	"cryostore/pkg/domain"

	"go.uber.org/zap"
)

// Dtype is the namespace dtype tag for cohorts. It is explicit rather
// than derived from any runtime type identity.
const Dtype = "Cohort"

// catalogSchema is bootstrapped after the freezer base schema. The
// raw-file/link fan-out is an explicit two-step write-through in code,
// so no view or trigger is installed.
var catalogSchema = []string{
	`CREATE TABLE IF NOT EXISTS accessions (
		AID INTEGER PRIMARY KEY AUTOINCREMENT,
		name NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS aliases (
		alias TEXT UNIQUE,
		AID INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS metadata (
		AID NOT NULL,
		key TEXT NOT NULL,
		val TEXT NOT NULL,
		UNIQUE(AID, key, val)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_files (
		FID INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS aid_files (
		AID INTEGER,
		FID INTEGER,
		verified INTEGER DEFAULT 0,
		PRIMARY KEY(AID, FID)
	)`,
}

// Cohort is a named set of accessions persisted in its own namespace.
// A cohort exclusively owns its store connection and identity cache for
// its process lifetime; callers serialize writes to the same namespace.
type Cohort struct {
	name    string
	ns      *freezer.Namespace
	store   *freezer.Store
	columns *freezer.Columns
	cache   *identityCache
	logger  *zap.Logger
	metrics observe.MetricsRecorder
}

// Option configures optional cohort collaborators.
type Option func(*Cohort)

// WithLogger installs a structured logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cohort) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics installs a metrics recorder. Default discards metrics.
func WithMetrics(m observe.MetricsRecorder) Option {
	return func(c *Cohort) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New opens (creating if needed) the cohort called name under mgr,
// optionally nested inside parent, and bootstraps the catalog schema.
func New(ctx context.Context, name string, mgr *freezer.Manager, parent *freezer.Namespace, opts ...Option) (*Cohort, error) {
	ns, err := mgr.Resolve(Dtype, name, parent)
	if err != nil {
		return nil, err
	}
	store, err := freezer.OpenStore(ctx, ns)
	if err != nil {
		return nil, err
	}
	columns, err := freezer.NewColumns(ns)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c := &Cohort{
		name:    name,
		ns:      ns,
		store:   store,
		columns: columns,
		cache:   newIdentityCache(),
		logger:  zap.NewNop(),
		metrics: observe.NopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("cohort", name))
	// Substring search is case sensitive.
	if _, err := store.Exec(ctx, `PRAGMA case_sensitive_like = ON`); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("configure like semantics: %w", err)
	}
	for _, stmt := range catalogSchema {
		if _, err := store.Exec(ctx, stmt); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("bootstrap cohort schema: %w", err)
		}
	}
	return c, nil
}

// Name returns the cohort name.
func (c *Cohort) Name() string { return c.name }

// Namespace returns the namespace the cohort is rooted at, for nesting
// child datasets inside it.
func (c *Cohort) Namespace() *freezer.Namespace { return c.ns }

// Store exposes the cohort's relational store.
func (c *Cohort) Store() *freezer.Store { return c.store }

// ColumnStore exposes the cohort's columnar store for bulk payloads.
func (c *Cohort) ColumnStore() *freezer.Columns { return c.columns }

// Globals exposes the cohort's typed key/value store.
func (c *Cohort) Globals() freezer.Globals { return c.store.Globals() }

// Close releases the underlying store connection.
func (c *Cohort) Close() error { return c.store.Close() }

// invalidate clears the identity cache. It must run only after the
// underlying write has committed, so a reader can never observe a stale
// cached identity for a name that was just deleted or re-aliased.
func (c *Cohort) invalidate() {
	c.cache.clear()
}

// resolveAID resolves an identifier to an AID: exact name match first,
// then exact alias match, then exact AID match for numeric identifiers.
// Results are memoized on the raw identifier until the next mutation.
func (c *Cohort) resolveAID(ctx context.Context, identifier string) (int64, error) {
	if aid, ok := c.cache.lookup(identifier); ok {
		c.metrics.ObserveCache(true)
		return aid, nil
	}
	c.metrics.ObserveCache(false)

	var aid int64
	err := c.store.QueryRow(ctx,
		`SELECT AID FROM accessions WHERE name = ?`, identifier).Scan(&aid)
	if errors.Is(err, sql.ErrNoRows) {
		err = c.store.QueryRow(ctx,
			`SELECT AID FROM aliases WHERE alias = ?`, identifier).Scan(&aid)
	}
	if errors.Is(err, sql.ErrNoRows) {
		if n, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil {
			err = c.store.QueryRow(ctx,
				`SELECT AID FROM accessions WHERE AID = ?`, n).Scan(&aid)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%q not in cohort %q: %w", identifier, c.name, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve %q: %w", identifier, err)
	}
	c.cache.store(identifier, aid)
	return aid, nil
}

// Resolve maps an identifier (name, alias, or numeric AID) to its AID.
func (c *Cohort) Resolve(ctx context.Context, identifier string) (int64, error) {
	return c.resolveAID(ctx, identifier)
}

// Add inserts one accession: insert-or-ignore the name, then
// insert-or-replace its metadata and link its files, all inside one bulk
// transaction. Returns the stored projection.
func (c *Cohort) Add(ctx context.Context, acc domain.Accession) (domain.Accession, error) {
	start := time.Now()
	err := c.store.Bulk(ctx, func(ctx context.Context) error {
		return c.insertAccession(ctx, acc)
	})
	c.metrics.Observe(ctx, "add", err == nil, time.Since(start))
	if err != nil {
		return domain.Accession{}, err
	}
	c.invalidate()
	return c.Get(ctx, acc.Name)
}

// AddAll inserts accessions in one bulk transaction. On any failure no
// accession from the batch remains visible.
func (c *Cohort) AddAll(ctx context.Context, accs []domain.Accession) error {
	start := time.Now()
	err := c.store.Bulk(ctx, func(ctx context.Context) error {
		for _, acc := range accs {
			if err := c.insertAccession(ctx, acc); err != nil {
				return err
			}
		}
		return nil
	})
	c.metrics.Observe(ctx, "add_all", err == nil, time.Since(start))
	if err != nil {
		return err
	}
	c.invalidate()
	return nil
}

func (c *Cohort) insertAccession(ctx context.Context, acc domain.Accession) error {
	if acc.Name == "" {
		return fmt.Errorf("accession name required: %w", domain.ErrTypeMismatch)
	}
	if _, err := c.store.Exec(ctx,
		`INSERT OR IGNORE INTO accessions (name) VALUES (?)`, acc.Name); err != nil {
		return fmt.Errorf("insert accession %q: %w", acc.Name, err)
	}
	var aid int64
	if err := c.store.QueryRow(ctx,
		`SELECT AID FROM accessions WHERE name = ?`, acc.Name).Scan(&aid); err != nil {
		return fmt.Errorf("fetch AID for %q: %w", acc.Name, err)
	}
	for k, v := range acc.Metadata {
		if _, err := c.store.Exec(ctx,
			`INSERT OR REPLACE INTO metadata (AID, key, val) VALUES (?, ?, ?)`, aid, k, v); err != nil {
			return fmt.Errorf("insert metadata %q for %q: %w", k, acc.Name, err)
		}
	}
	for _, path := range acc.Files {
		if err := c.linkFile(ctx, aid, path, false); err != nil {
			return err
		}
	}
	return nil
}

// linkFile is the raw-file/link write-through: get-or-create the
// raw_files row by path, then insert-or-ignore the aid_files link. One
// logical idempotent step, so callers never pre-resolve FIDs.
func (c *Cohort) linkFile(ctx context.Context, aid int64, path string, verified bool) error {
	if _, err := c.store.Exec(ctx,
		`INSERT OR IGNORE INTO raw_files (path) VALUES (?)`, path); err != nil {
		return fmt.Errorf("insert raw file %q: %w", path, err)
	}
	var fid int64
	if err := c.store.QueryRow(ctx,
		`SELECT FID FROM raw_files WHERE path = ?`, path).Scan(&fid); err != nil {
		return fmt.Errorf("fetch FID for %q: %w", path, err)
	}
	flag := 0
	if verified {
		flag = 1
	}
	if _, err := c.store.Exec(ctx,
		`INSERT OR IGNORE INTO aid_files (AID, FID, verified) VALUES (?, ?, ?)`, aid, fid, flag); err != nil {
		return fmt.Errorf("link file %q: %w", path, err)
	}
	return nil
}

// AddFile associates a file path with an existing accession, creating
// the raw-file row when the path is new.
func (c *Cohort) AddFile(ctx context.Context, identifier, path string, verified bool) error {
	aid, err := c.resolveAID(ctx, identifier)
	if err != nil {
		return err
	}
	return c.store.Bulk(ctx, func(ctx context.Context) error {
		return c.linkFile(ctx, aid, path, verified)
	})
}

// Get assembles the accession projection for an identifier: name plus
// all metadata rows and linked file paths. The result is a detached
// value, not a live view.
func (c *Cohort) Get(ctx context.Context, identifier string) (domain.Accession, error) {
	aid, err := c.resolveAID(ctx, identifier)
	if err != nil {
		return domain.Accession{}, err
	}
	var name string
	if err := c.store.QueryRow(ctx,
		`SELECT name FROM accessions WHERE AID = ?`, aid).Scan(&name); err != nil {
		return domain.Accession{}, fmt.Errorf("fetch accession %d: %w", aid, err)
	}

	metadata := make(map[string]string)
	rows, err := c.store.Query(ctx,
		`SELECT key, val FROM metadata WHERE AID = ?`, aid)
	if err != nil {
		return domain.Accession{}, fmt.Errorf("fetch metadata for %q: %w", name, err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			_ = rows.Close()
			return domain.Accession{}, err
		}
		metadata[k] = v
	}
	if err := rows.Close(); err != nil {
		return domain.Accession{}, err
	}

	var files []string
	rows, err = c.store.Query(ctx,
		`SELECT path FROM raw_files JOIN aid_files ON raw_files.FID = aid_files.FID WHERE aid_files.AID = ?`, aid)
	if err != nil {
		return domain.Accession{}, fmt.Errorf("fetch files for %q: %w", name, err)
	}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			_ = rows.Close()
			return domain.Accession{}, err
		}
		files = append(files, p)
	}
	if err := rows.Close(); err != nil {
		return domain.Accession{}, err
	}

	acc := domain.NewAccession(name, files, metadata)
	acc.AID = aid
	return acc, nil
}

// Delete removes an accession together with its metadata and file links
// (raw-file rows are shared and stay), then invalidates the identity
// cache.
func (c *Cohort) Delete(ctx context.Context, identifier string) error {
	aid, err := c.resolveAID(ctx, identifier)
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.store.Bulk(ctx, func(ctx context.Context) error {
		// No engine-level cascade; dependents are removed explicitly.
		for _, stmt := range []string{
			`DELETE FROM accessions WHERE AID = ?`,
			`DELETE FROM metadata WHERE AID = ?`,
			`DELETE FROM aid_files WHERE AID = ?`,
		} {
			if _, err := c.store.Exec(ctx, stmt, aid); err != nil {
				return err
			}
		}
		return nil
	})
	c.metrics.Observe(ctx, "delete", err == nil, time.Since(start))
	if err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// Len returns the number of accessions in the cohort.
func (c *Cohort) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.store.QueryRow(ctx, `SELECT COUNT(*) FROM accessions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Contains reports whether an identifier resolves, false rather than an
// error when it does not.
func (c *Cohort) Contains(ctx context.Context, identifier string) bool {
	_, err := c.resolveAID(ctx, identifier)
	return err == nil
}

// Accessions returns every accession projection, in a stable order for
// a given snapshot of the catalog.
func (c *Cohort) Accessions(ctx context.Context) ([]domain.Accession, error) {
	names, err := c.accessionNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Accession, 0, len(names))
	for _, name := range names {
		acc, err := c.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, nil
}

// MetadataColumns returns the distinct metadata keys stored across all
// accessions.
func (c *Cohort) MetadataColumns(ctx context.Context) ([]string, error) {
	return c.stringColumn(ctx, `SELECT DISTINCT(key) FROM metadata`)
}

// Files returns every raw file path registered in the cohort.
func (c *Cohort) Files(ctx context.Context) ([]string, error) {
	return c.stringColumn(ctx, `SELECT path FROM raw_files`)
}

func (c *Cohort) accessionNames(ctx context.Context) ([]string, error) {
	return c.stringColumn(ctx, `SELECT name FROM accessions`)
}

func (c *Cohort) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.store.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *Cohort) String() string {
	return fmt.Sprintf("Cohort(%q)", c.name)
}
