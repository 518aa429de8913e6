// Package freezer implements the local persistence layer for frozen
// datasets: namespace directory resolution, the embedded relational
// store with its bulk-transaction primitive, a typed key/value store,
// and a columnar snapshot store.
package freezer

import (
	"fmt"
	"os"
	"path/filepath"

	"cryostore/pkg/domain"
)

// Config carries the explicit construction parameters for a Manager.
// There is no ambient global configuration; callers decide the root.
type Config struct {
	// BaseDir is the root directory under which all namespaces live.
	// Empty selects ~/.cryostore.
	BaseDir string
}

// Manager maps (dtype, name, optional parent) triples to directories on
// disk, creating them on demand. Top-level namespaces live under
// <base>/databases; children nest inside their parent's subtree.
type Manager struct {
	base string
}

// NewManager constructs a namespace manager rooted at cfg.BaseDir,
// creating the databases and tmp subtrees if absent.
func NewManager(cfg Config) (*Manager, error) {
	base := cfg.BaseDir
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		base = filepath.Join(home, ".cryostore")
	}
	for _, dir := range []string{base, filepath.Join(base, "databases"), filepath.Join(base, "tmp")} {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}
	return &Manager{base: base}, nil
}

// Base returns the configured root directory.
func (m *Manager) Base() string { return m.base }

// DatasetPath returns the directory a top-level (dtype, name) namespace
// resolves to, without creating it.
func (m *Manager) DatasetPath(dtype, name string) string {
	return filepath.Join(m.base, "databases", fmt.Sprintf("%s.%s", dtype, name))
}

// Resolve maps (dtype, name) to its namespace directory, creating the
// directory tree if absent. With a non-nil parent the namespace nests
// inside the parent's subtree; the parent must already be resolved,
// which keeps construction acyclic. Resolve is idempotent.
func (m *Manager) Resolve(dtype, name string, parent *Namespace) (*Namespace, error) {
	if dtype == "" || name == "" {
		return nil, fmt.Errorf("resolve namespace: dtype and name required")
	}
	var path, parentPath string
	if parent == nil {
		path = m.DatasetPath(dtype, name)
	} else {
		parentPath = parent.Path()
		path = filepath.Join(parentPath, fmt.Sprintf("%s.%s", dtype, name))
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &Namespace{Dtype: dtype, Name: name, path: path, parentPath: parentPath}, nil
}

// TempFile creates a named scratch file in the shared temporary area
// under the manager root. Callers own cleanup.
func (m *Manager) TempFile(pattern string) (*os.File, error) {
	return os.CreateTemp(filepath.Join(m.base, "tmp"), pattern)
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("namespace path %s exists as a file: %w", path, domain.ErrStorageUnavailable)
	case err == nil:
		return nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create namespace dir %s: %w", path, err)
	}
	return nil
}

// Namespace is the addressable storage root for one persisted object.
// It carries its parent's resolved path only, never a live handle, so a
// child's lifetime is independent of its parent.
type Namespace struct {
	Dtype string
	Name  string

	path       string
	parentPath string
}

// Path returns the resolved namespace directory.
func (ns *Namespace) Path() string { return ns.path }

// ParentPath returns the parent namespace directory, or "" for a
// top-level namespace.
func (ns *Namespace) ParentPath() string { return ns.parentPath }

// Key returns the canonical "{dtype}.{name}" identifier used both for
// the directory name and for remote object keys.
func (ns *Namespace) Key() string {
	return fmt.Sprintf("%s.%s", ns.Dtype, ns.Name)
}
