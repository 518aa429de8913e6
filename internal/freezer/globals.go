package freezer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"cryostore/pkg/domain"
)

// Globals is the typed scalar dictionary layered on the relational
// store's globals table. It is the mechanism surrounding modules use for
// small persisted configuration scoped to one namespace.
type Globals struct {
	store *Store
}

// Globals returns the key/value store view of this namespace.
func (s *Store) Globals() Globals { return Globals{store: s} }

// Set upserts (key, value, type), inferring the declared type from the
// value's dynamic type. Anything outside {int, float, str} is rejected
// with domain.ErrTypeMismatch. Entries are never implicitly deleted.
func (g Globals) Set(ctx context.Context, key string, val any) error {
	var text, typ string
	switch v := val.(type) {
	case int:
		text, typ = strconv.Itoa(v), "int"
	case int64:
		text, typ = strconv.FormatInt(v, 10), "int"
	case float64:
		text, typ = strconv.FormatFloat(v, 'g', -1, 64), "float"
	case float32:
		text, typ = strconv.FormatFloat(float64(v), 'g', -1, 32), "float"
	case string:
		text, typ = v, "str"
	default:
		return fmt.Errorf("globals value must be int, float or str, not %T: %w", val, domain.ErrTypeMismatch)
	}
	_, err := g.store.Exec(ctx,
		`INSERT OR REPLACE INTO globals (key, val, type) VALUES (?, ?, ?)`,
		key, text, typ)
	return err
}

// Get looks up key and decodes the stored text back into its declared
// type: int entries as int64, float as float64, str as string. A missing
// key reports domain.ErrNotFound.
func (g Globals) Get(ctx context.Context, key string) (any, error) {
	var typ, text string
	err := g.store.QueryRow(ctx,
		`SELECT type, val FROM globals WHERE key = ?`, key).Scan(&typ, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("global %q not in database: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read global %q: %w", key, err)
	}
	switch typ {
	case "int":
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("global %q: decode int %q: %w", key, text, err)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("global %q: decode float %q: %w", key, text, err)
		}
		return f, nil
	case "str":
		return text, nil
	default:
		return nil, fmt.Errorf("global %q has unknown type %q: %w", key, typ, domain.ErrTypeMismatch)
	}
}

// GetInt fetches an int-typed global.
func (g Globals) GetInt(ctx context.Context, key string) (int64, error) {
	v, err := g.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("global %q is %T, want int: %w", key, v, domain.ErrTypeMismatch)
	}
	return n, nil
}

// GetFloat fetches a float-typed global.
func (g Globals) GetFloat(ctx context.Context, key string) (float64, error) {
	v, err := g.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("global %q is %T, want float: %w", key, v, domain.ErrTypeMismatch)
	}
	return f, nil
}

// GetString fetches a str-typed global.
func (g Globals) GetString(ctx context.Context, key string) (string, error) {
	v, err := g.Get(ctx, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("global %q is %T, want str: %w", key, v, domain.ErrTypeMismatch)
	}
	return s, nil
}
