package freezer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cryostore/pkg/domain"

	json "github.com/goccy/go-json"
)

// columnSubdir is the columnar subtree inside a namespace directory.
const columnSubdir = "col"

// Columns stores and retrieves bulk table- and array-shaped payloads by
// name under a namespace's columnar subtree, independent of the
// relational schema. Every write is a full snapshot replace, never an
// in-place append.
type Columns struct {
	ns  *Namespace
	dir string
}

// NewColumns opens the columnar store for a namespace, creating its
// subtree if absent.
func NewColumns(ns *Namespace) (*Columns, error) {
	dir := filepath.Join(ns.Path(), columnSubdir)
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &Columns{ns: ns, dir: dir}, nil
}

// columnPayload is the on-disk envelope for one stored payload.
type columnPayload struct {
	Kind  string    `json:"kind"` // "table" | "array"
	Table *Table    `json:"table,omitempty"`
	Array []float64 `json:"array,omitempty"`
}

// Put stores a table payload under name, replacing any prior version.
// A table with an explicit index has the index preserved as an idx
// column before storage; Get restores it.
func (c *Columns) Put(name string, t Table) error {
	stored := t
	if len(t.Index) > 0 {
		stored = t.withIndexColumn()
	}
	return c.write(name, columnPayload{Kind: "table", Table: &stored})
}

// Get materializes a previously stored table payload. A stored payload
// with zero rows decodes to an empty table; a missing payload reports
// domain.ErrStorageUnavailable.
func (c *Columns) Get(name string) (Table, error) {
	p, err := c.read(name)
	if err != nil {
		return Table{}, err
	}
	if p.Kind != "table" || p.Table == nil {
		return Table{}, fmt.Errorf("column payload %q is %s-shaped, want table", name, p.Kind)
	}
	if p.Table.Empty() {
		return Table{}, nil
	}
	return p.Table.restoreIndexColumn(), nil
}

// PutArray stores a flat numeric array under name, replacing any prior
// version.
func (c *Columns) PutArray(name string, vals []float64) error {
	return c.write(name, columnPayload{Kind: "array", Array: vals})
}

// GetArray materializes a previously stored array payload.
func (c *Columns) GetArray(name string) ([]float64, error) {
	p, err := c.read(name)
	if err != nil {
		return nil, err
	}
	if p.Kind != "array" {
		return nil, fmt.Errorf("column payload %q is %s-shaped, want array", name, p.Kind)
	}
	return p.Array, nil
}

func (c *Columns) write(name string, p columnPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode column payload %q: %w", name, err)
	}
	// Stage in the same directory so the final rename is atomic.
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("stage column payload %q: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write column payload %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close column payload %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), c.path(name)); err != nil {
		return fmt.Errorf("replace column payload %q: %w", name, err)
	}
	return nil
}

func (c *Columns) read(name string) (columnPayload, error) {
	data, err := os.ReadFile(c.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return columnPayload{}, fmt.Errorf("could not open column payload for %s:%s: %w",
			c.ns.Dtype, c.ns.Name, domain.ErrStorageUnavailable)
	}
	if err != nil {
		return columnPayload{}, fmt.Errorf("read column payload %q: %w", name, err)
	}
	var p columnPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return columnPayload{}, fmt.Errorf("decode column payload %q: %w", name, err)
	}
	return p, nil
}

func (c *Columns) path(name string) string {
	return filepath.Join(c.dir, name+".json")
}
