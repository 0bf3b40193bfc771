// Package kvin is the public API of the columnar tuple archive: a
// small facade over internal/archive that exposes only the Store
// contract from spec.md §4.1, keeping the implementation packages
// (internal/value, internal/tuple, internal/archive, ...) unexported.
package kvin

import (
	"context"

	"github.com/linkedfactory/kvingo/internal/archive"
	"github.com/linkedfactory/kvingo/internal/config"
	"github.com/linkedfactory/kvingo/internal/tuple"
	"github.com/linkedfactory/kvingo/internal/value"
)

// Options re-exports internal/config's tunables so callers can build one
// without importing an internal package.
type Options = config.Options

// Defaults returns spec.md's literal tunable figures (§4.3/§4.4).
func Defaults() Options { return config.Defaults() }

// Public type aliases: callers see kvin.Tuple/kvin.Value/... without
// importing internal packages, while internal/archive, internal/tuple,
// and internal/value keep using their own concrete types among
// themselves.
type (
	Tuple       = tuple.Tuple
	Value       = value.Value
	Record      = value.Record
	RecordEntry = value.RecordEntry
	BigDecimal  = value.BigDecimal
	Kind        = value.Kind
	AggOp       = archive.AggOp
)

// Value constructors, re-exported for callers building tuples without
// reaching into internal/value directly.
var (
	Int32       = value.Int32
	Int64       = value.Int64
	Float32     = value.Float32
	Float64     = value.Float64
	String      = value.String
	Bool        = value.Bool
	Short       = value.Short
	BigInt      = value.BigInt
	Decimal     = value.Decimal
	URI         = value.URI
	RecordValue = value.RecordValue
)

// Aggregation operators, per spec.md §4.1.
const (
	AggNone  = archive.AggNone
	AggMin   = archive.AggMin
	AggMax   = archive.AggMax
	AggAvg   = archive.AggAvg
	AggSum   = archive.AggSum
	AggCount = archive.AggCount
	AggFirst = archive.AggFirst
	AggLast  = archive.AggLast
)

// TupleIterator is a pull-driven sequence of tuples: call Next until it
// returns false, reading Tuple() after each true. Callers MUST call
// Close when done, whether or not the sequence was exhausted.
type TupleIterator interface {
	Next() bool
	Tuple() Tuple
	Err() error
	Close() error
}

// StringIterator is a pull-driven sequence of strings (property or
// descendant URIs), with the same Next/Close contract as
// TupleIterator.
type StringIterator interface {
	Next() bool
	String() string
	Err() error
	Close() error
}

// Store is the public contract described in spec.md §4.1, implemented
// by the archive-backed Open below. Remote-proxy and in-memory variants
// are out of scope (SPEC_FULL.md §1).
type Store interface {
	Put(ctx context.Context, tuples []Tuple) error
	Fetch(ctx context.Context, item, property, context string, limit uint32) (TupleIterator, error)
	FetchRange(ctx context.Context, item, property, context string, end, begin int64, limit uint32, interval int64, op AggOp) (TupleIterator, error)
	Properties(ctx context.Context, item string) (StringIterator, error)
	Descendants(ctx context.Context, item string, limit uint32) (StringIterator, error)
	ApproximateSize(ctx context.Context, item, property, context string, end, begin int64) (uint64, error)
	Delete(ctx context.Context, item, property, context string, end, begin int64) (int64, error)
	Close() error
}

// store adapts *archive.Archive's concrete iterator return types to
// the Store interface's TupleIterator/StringIterator return types.
type store struct {
	a *archive.Archive
}

// Open opens (or initializes) an archive-backed Store rooted at root,
// using Defaults() for cache sizing.
func Open(root string) (Store, error) {
	a, err := archive.Open(root)
	if err != nil {
		return nil, err
	}
	return &store{a: a}, nil
}

// OpenWithOptions is Open with explicit tunables, e.g. loaded via
// internal/config.Load and exposed here as Options.
func OpenWithOptions(root string, opts *Options) (Store, error) {
	a, err := archive.OpenWithOptions(root, opts)
	if err != nil {
		return nil, err
	}
	return &store{a: a}, nil
}

func (s *store) Put(ctx context.Context, tuples []Tuple) error {
	return s.a.Put(ctx, tuples)
}

func (s *store) Fetch(ctx context.Context, item, property, context string, limit uint32) (TupleIterator, error) {
	return s.a.Fetch(ctx, item, property, context, limit)
}

func (s *store) FetchRange(ctx context.Context, item, property, context string, end, begin int64, limit uint32, interval int64, op AggOp) (TupleIterator, error) {
	return s.a.FetchRange(ctx, item, property, context, end, begin, limit, interval, op)
}

func (s *store) Properties(ctx context.Context, item string) (StringIterator, error) {
	return s.a.Properties(ctx, item)
}

func (s *store) Descendants(ctx context.Context, item string, limit uint32) (StringIterator, error) {
	return s.a.Descendants(ctx, item, limit)
}

func (s *store) ApproximateSize(ctx context.Context, item, property, context string, end, begin int64) (uint64, error) {
	return s.a.ApproximateSize(ctx, item, property, context, end, begin)
}

func (s *store) Delete(ctx context.Context, item, property, context string, end, begin int64) (int64, error) {
	return s.a.Delete(ctx, item, property, context, end, begin)
}

func (s *store) Close() error {
	return s.a.Close()
}
