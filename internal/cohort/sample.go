package cohort

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cryostore/pkg/domain"
)

// ErrSampleTooLarge reports a without-replacement sample larger than the
// cohort population.
var ErrSampleTooLarge = errors.New("cohort: sample larger than population")

// RandomAccession draws one accession uniformly at random.
func (c *Cohort) RandomAccession(ctx context.Context) (domain.Accession, error) {
	var name string
	err := c.store.QueryRow(ctx,
		`SELECT name FROM accessions ORDER BY RANDOM() LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Accession{}, fmt.Errorf("cohort %q is empty: %w", c.name, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Accession{}, fmt.Errorf("random accession: %w", err)
	}
	return c.Get(ctx, name)
}

// Sample draws n accessions uniformly at random. Without replacement the
// n draws are distinct and n must not exceed the cohort population; with
// replacement the draws are independent and duplicates are allowed.
func (c *Cohort) Sample(ctx context.Context, n int, withReplacement bool) ([]domain.Accession, error) {
	if withReplacement {
		out := make([]domain.Accession, 0, n)
		for i := 0; i < n; i++ {
			acc, err := c.RandomAccession(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, acc)
		}
		return out, nil
	}

	size, err := c.Len(ctx)
	if err != nil {
		return nil, err
	}
	if n > size {
		return nil, fmt.Errorf("only %d accessions in cohort, cannot sample %d: %w", size, n, ErrSampleTooLarge)
	}
	names, err := c.stringColumn(ctx,
		`SELECT name FROM accessions ORDER BY RANDOM() LIMIT ?`, n)
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
