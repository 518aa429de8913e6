package domain

import "errors"

// Sentinel errors shared by the persistence layer and the cohort catalog.
// Callers match them with errors.Is; lower layers wrap them with context
// via fmt.Errorf("...: %w", ...).
var (
	// ErrNotFound reports an identifier that resolves to no accession,
	// alias, or AID, or a key absent from the globals store.
	ErrNotFound = errors.New("cryostore: not found")
	// ErrUniqueness reports a duplicate insert attempted without an
	// ignore/replace policy at the call site.
	ErrUniqueness = errors.New("cryostore: uniqueness violation")
	// ErrTypeMismatch reports a scalar outside the {int, float, str} set.
	ErrTypeMismatch = errors.New("cryostore: unsupported scalar type")
	// ErrStorageUnavailable reports a namespace directory or backing file
	// that is missing or unreadable when an operation expects it.
	ErrStorageUnavailable = errors.New("cryostore: storage unavailable")
)
