package cohort

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cryostore/pkg/domain"
)

func seedCohort(t *testing.T, c *Cohort, n int) {
	t.Helper()
	accs := make([]domain.Accession, 0, n)
	for i := 0; i < n; i++ {
		accs = append(accs, domain.NewAccession(fmt.Sprintf("S%d", i), nil, nil))
	}
	if err := c.AddAll(context.Background(), accs); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	ctx := context.Background()
	c := newTempCohort(t)
	seedCohort(t, c, 5)

	got, err := c.Sample(ctx, 3, false)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	seen := make(map[int64]bool)
	for _, acc := range got {
		if seen[acc.AID] {
			t.Fatalf("duplicate accession %d sampled without replacement", acc.AID)
		}
		seen[acc.AID] = true
	}
}

func TestSampleTooLarge(t *testing.T) {
	ctx := context.Background()
	c := newTempCohort(t)
	seedCohort(t, c, 2)
	if _, err := c.Sample(ctx, 3, false); !errors.Is(err, ErrSampleTooLarge) {
		t.Fatalf("want ErrSampleTooLarge, got %v", err)
	}
}

func TestSampleWithReplacementExceedsPopulation(t *testing.T) {
	ctx := context.Background()
	c := newTempCohort(t)
	seedCohort(t, c, 2)
	got, err := c.Sample(ctx, 10, true)
	if err != nil {
		t.Fatalf("Sample with replacement: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d", len(got))
	}
}

func TestRandomAccession(t *testing.T) {
	ctx := context.Background()
	c := newTempCohort(t)
	seedCohort(t, c, 3)
	acc, err := c.RandomAccession(ctx)
	if err != nil {
		t.Fatalf("RandomAccession: %v", err)
	}
	if !c.Contains(ctx, acc.Name) {
		t.Fatalf("sampled accession %q not in cohort", acc.Name)
	}
}

func TestRandomAccessionEmptyCohort(t *testing.T) {
	c := newTempCohort(t)
	if _, err := c.RandomAccession(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound from empty cohort, got %v", err)
	}
}
