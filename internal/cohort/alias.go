package cohort

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// AliasColumn proposes every distinct (metadata value, AID) pair whose
// key equals column as an alias for that AID. Candidates are skipped
// with a warning when they collide with another candidate or an
// existing name/alias, or are shorter than minLength. Survivors are
// inserted in one batch; the aliases unique index remains the
// cross-call authority, so the in-memory collision check is a
// best-effort early warning and inserts use an ignore policy.
// The accepted aliases are returned.
func (c *Cohort) AliasColumn(ctx context.Context, column string, minLength int) ([]string, error) {
	current, err := c.Names(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(current))
	for _, n := range current {
		taken[n] = true
	}

	rows, err := c.store.Query(ctx,
		`SELECT DISTINCT val, AID FROM metadata WHERE key = ?`, column)
	if err != nil {
		return nil, err
	}
	type candidate struct {
		alias string
		aid   int64
	}
	var candidates []candidate
	counts := make(map[string]int)
	for rows.Next() {
		var cand candidate
		if err := rows.Scan(&cand.alias, &cand.aid); err != nil {
			_ = rows.Close()
			return nil, err
		}
		candidates = append(candidates, cand)
		counts[cand.alias]++
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	var accepted []candidate
	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		if seen[cand.alias] {
			continue
		}
		seen[cand.alias] = true
		switch {
		case counts[cand.alias] > 1 || taken[cand.alias]:
			c.logger.Warn("cannot use alias, it is not unique", zap.String("alias", cand.alias))
		case len(cand.alias) < minLength:
			c.logger.Warn("skipping alias, too short",
				zap.String("alias", cand.alias), zap.Int("min_length", minLength))
		default:
			accepted = append(accepted, cand)
		}
	}

	start := time.Now()
	err = c.store.Bulk(ctx, func(ctx context.Context) error {
		for _, cand := range accepted {
			if _, err := c.store.Exec(ctx,
				`INSERT OR IGNORE INTO aliases (alias, AID) VALUES (?, ?)`, cand.alias, cand.aid); err != nil {
				return err
			}
		}
		return nil
	})
	c.metrics.Observe(ctx, "alias_column", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	c.invalidate()

	out := make([]string, 0, len(accepted))
	for _, cand := range accepted {
		out = append(out, cand.alias)
	}
	sort.Strings(out)
	return out, nil
}

// DropAliases clears the alias table and invalidates the identity cache.
func (c *Cohort) DropAliases(ctx context.Context) error {
	if _, err := c.store.Exec(ctx, `DELETE FROM aliases`); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// Search returns every accession name and every alias containing the
// substring, names first.
func (c *Cohort) Search(ctx context.Context, substring string) ([]string, error) {
	pattern := "%" + substring + "%"
	names, err := c.stringColumn(ctx,
		`SELECT name FROM accessions WHERE name LIKE ?`, pattern)
	if err != nil {
		return nil, err
	}
	aliases, err := c.stringColumn(ctx,
		`SELECT alias FROM aliases WHERE alias LIKE ?`, pattern)
	if err != nil {
		return nil, err
	}
	return append(names, aliases...), nil
}

// Names returns all accession names and aliases.
func (c *Cohort) Names(ctx context.Context) ([]string, error) {
	return c.Search(ctx, "")
}
