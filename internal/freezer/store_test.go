package freezer

import (
	"context"
	"errors"
	"testing"

	"cryostore/pkg/domain"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	mgr := newTempManager(t)
	ns, err := mgr.Resolve("Cohort", "exp1", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	store, err := OpenStore(context.Background(), ns)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenStoreBootstrapsBaseSchema(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, err := store.Exec(ctx,
		`INSERT INTO globals (key, val, type) VALUES ('k', 'v', 'str')`); err != nil {
		t.Fatalf("globals table missing: %v", err)
	}
	// uniqkey index makes a second plain insert a constraint violation.
	_, err := store.Exec(ctx,
		`INSERT INTO globals (key, val, type) VALUES ('k', 'v2', 'str')`)
	if !errors.Is(err, domain.ErrUniqueness) {
		t.Fatalf("expected ErrUniqueness, got %v", err)
	}
}

func TestOpenExistingStoreRequiresBackingFile(t *testing.T) {
	ctx := context.Background()
	mgr := newTempManager(t)
	ns, err := mgr.Resolve("Cohort", "ghost", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := OpenExistingStore(ctx, ns); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}

	store, err := OpenStore(ctx, ns)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reopened, err := OpenExistingStore(ctx, ns)
	if err != nil {
		t.Fatalf("OpenExistingStore after create: %v", err)
	}
	_ = reopened.Close()
}

func TestBulkRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	boom := errors.New("boom")
	err := store.Bulk(ctx, func(ctx context.Context) error {
		if _, err := store.Exec(ctx,
			`INSERT INTO globals (key, val, type) VALUES ('partial', '1', 'int')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error re-raised, got %v", err)
	}
	var n int
	if err := store.QueryRow(ctx,
		`SELECT COUNT(*) FROM globals WHERE key = 'partial'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("partial write survived rollback")
	}
}

func TestBulkCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	err := store.Bulk(ctx, func(ctx context.Context) error {
		_, err := store.Exec(ctx,
			`INSERT INTO globals (key, val, type) VALUES ('kept', '1', 'int')`)
		return err
	})
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}
	var n int
	if err := store.QueryRow(ctx,
		`SELECT COUNT(*) FROM globals WHERE key = 'kept'`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("committed row missing: n=%d err=%v", n, err)
	}
}

func TestBulkNestsViaSavepoints(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	inner := errors.New("inner failed")
	err := store.Bulk(ctx, func(ctx context.Context) error {
		if _, err := store.Exec(ctx,
			`INSERT INTO globals (key, val, type) VALUES ('outer', '1', 'int')`); err != nil {
			return err
		}
		// Inner failure rolls back only the inner savepoint.
		nestedErr := store.Bulk(ctx, func(ctx context.Context) error {
			if _, err := store.Exec(ctx,
				`INSERT INTO globals (key, val, type) VALUES ('inner', '1', 'int')`); err != nil {
				return err
			}
			return inner
		})
		if !errors.Is(nestedErr, inner) {
			t.Fatalf("inner bulk error = %v", nestedErr)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer Bulk: %v", err)
	}
	var outerCount, innerCount int
	if err := store.QueryRow(ctx, `SELECT COUNT(*) FROM globals WHERE key = 'outer'`).Scan(&outerCount); err != nil {
		t.Fatalf("count outer: %v", err)
	}
	if err := store.QueryRow(ctx, `SELECT COUNT(*) FROM globals WHERE key = 'inner'`).Scan(&innerCount); err != nil {
		t.Fatalf("count inner: %v", err)
	}
	if outerCount != 1 || innerCount != 0 {
		t.Fatalf("savepoint nesting broken: outer=%d inner=%d", outerCount, innerCount)
	}
}
