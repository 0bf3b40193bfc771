package archive

import "errors"

// Sentinel errors per spec.md §7's taxonomy.
var (
	// ErrIOFailure wraps an underlying storage read/write failure. Fatal
	// for the call that surfaced it.
	ErrIOFailure = errors.New("archive: io failure")

	// ErrMappingNotFound means a requested non-empty URI has no mapping.
	// Put/fetch code normalizes this to an empty result rather than
	// returning it to callers.
	ErrMappingNotFound = errors.New("archive: mapping not found")

	// ErrUnsupportedAggregation means min/max/avg/sum was requested over
	// a non-numeric value kind.
	ErrUnsupportedAggregation = errors.New("archive: unsupported aggregation")

	// ErrInvariantViolation means a stored row has no populated value
	// slot; the fetch path logs and skips such a row. Partition
	// directories whose names fail to parse, or parse with Pmin > Pmax,
	// are skipped by internal/layout without this error being raised.
	ErrInvariantViolation = errors.New("archive: invariant violation")

	// ErrInvalidWindow means an aggregation was requested with end < begin.
	ErrInvalidWindow = errors.New("archive: invalid aggregation window")
)
