// Package domain holds the value types and error taxonomy shared by the
// freezer persistence layer and the cohort catalog.
package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Accession is one record in an experimental collection: a unique name
// plus free-form metadata and associated raw files. It is a detached
// value object; mutating it does not touch any stored catalog until it
// is added again.
type Accession struct {
	// AID is the surrogate identity assigned by the catalog on first
	// insert. Zero means the accession has not been stored yet.
	AID int64
	// Name uniquely identifies the accession within its cohort.
	Name string
	// Metadata maps attribute keys to values.
	Metadata map[string]string
	// Files lists associated raw file paths, deduplicated and sorted.
	Files []string
}

// NewAccession builds an accession value from a name, optional files and
// optional metadata. Nil maps/slices are normalized to empty ones so the
// zero shapes compare cleanly.
func NewAccession(name string, files []string, metadata map[string]string) Accession {
	acc := Accession{
		Name:     name,
		Metadata: make(map[string]string, len(metadata)),
		Files:    make([]string, 0, len(files)),
	}
	for k, v := range metadata {
		acc.Metadata[k] = v
	}
	for _, f := range files {
		acc.addFilePath(f)
	}
	return acc
}

// Get returns the metadata value for key and whether it is present.
func (a Accession) Get(key string) (string, bool) {
	v, ok := a.Metadata[key]
	return v, ok
}

// Set records one metadata attribute, allocating the map when needed.
func (a *Accession) Set(key, val string) {
	if a.Metadata == nil {
		a.Metadata = make(map[string]string, 1)
	}
	a.Metadata[key] = val
}

// AddFile associates a file path with the accession. Unless skipCheck is
// set, the path must exist on the local filesystem and is normalized to
// an absolute path.
func (a *Accession) AddFile(path string, skipCheck bool) error {
	if !skipCheck {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("accession %q: file %q does not exist: %w", a.Name, path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("accession %q: resolve %q: %w", a.Name, path, err)
		}
		path = abs
	}
	a.addFilePath(path)
	return nil
}

// AddFiles associates multiple file paths, stopping at the first failure.
func (a *Accession) AddFiles(paths []string, skipCheck bool) error {
	for _, p := range paths {
		if err := a.AddFile(p, skipCheck); err != nil {
			return err
		}
	}
	return nil
}

func (a *Accession) addFilePath(path string) {
	for _, f := range a.Files {
		if f == path {
			return
		}
	}
	a.Files = append(a.Files, path)
	sort.Strings(a.Files)
}

func (a Accession) String() string {
	return fmt.Sprintf("Accession(%s, files=%v, metadata=%v)", a.Name, a.Files, a.Metadata)
}
