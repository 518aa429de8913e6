// Package cloud synchronizes frozen datasets and raw files with a
// remote object store. It operates on the same {dtype}.{name} directory
// layout the freezer layer produces and never mutates local relational
// state on failure.
package cloud

import (
	"context"
	"errors"
)

// ErrUnsupported is returned when a backend lacks an optional capability.
var ErrUnsupported = errors.New("cloud: unsupported operation")

// PushOptions controls Push behavior.
type PushOptions struct {
	// Raw uploads a single raw file instead of a packaged dataset; name
	// is then a local file path and dtype a free-form category tag.
	Raw bool
	// Compress applies xz compression to raw uploads (slower, smaller).
	Compress bool
}

// PullOptions controls Pull behavior.
type PullOptions struct {
	// Raw downloads a raw file instead of restoring a dataset.
	Raw bool
	// Output overrides the local destination path; default is the name.
	Output string
}

// ListOptions filters List results.
type ListOptions struct {
	// Name keeps only entries whose name starts with this prefix.
	Name string
	// Dtype keeps only entries of this dtype.
	Dtype string
	// Raw lists the raw-file area instead of packaged datasets.
	Raw bool
}

// Store is the remote synchronization contract. Keys are derived from
// the {dtype}.{name} namespace identity.
type Store interface {
	// Push packages the namespace directory (or a single raw file) and
	// uploads it keyed by {dtype}.{name}.
	Push(ctx context.Context, dtype, name string, opts PushOptions) error
	// Pull downloads and restores by the same key.
	Pull(ctx context.Context, dtype, name string, opts PullOptions) error
	// List enumerates stored names grouped by dtype.
	List(ctx context.Context, opts ListOptions) (map[string][]string, error)
	// Remove deletes the remote object.
	Remove(ctx context.Context, dtype, name string, raw bool) error
}
