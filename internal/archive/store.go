// Package archive implements the columnar tuple archive: id mapping,
// partitioned columnar writer, fetch engine, and aggregation iterator
// (spec.md §4).
package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/linkedfactory/kvingo/internal/config"
	"github.com/linkedfactory/kvingo/internal/idmap"
	"github.com/linkedfactory/kvingo/internal/partitionkey"
	"github.com/linkedfactory/kvingo/internal/tuple"
)

// Archive is the Store implementation backing pkg/kvin.Open: a
// single-writer columnar tuple archive rooted at a directory (spec.md
// §5). Readers share the id mapper's bounded caches; writes are
// serialized by writeMu.
type Archive struct {
	root   string
	mapper *idmap.Mapper

	writeMu sync.Mutex
	writer  *tupleWriter
}

// Open opens (or initializes) an archive rooted at root using
// config.Defaults() for cache sizing, reloading any existing id mappings
// (SPEC_FULL.md §4.3).
func Open(root string) (*Archive, error) {
	defaults := config.Defaults()
	return OpenWithOptions(root, &defaults)
}

// OpenWithOptions is Open with explicit tunables (spec.md §4.3's cache
// capacities; see config.Load). RowGroupBytes/PageBytes/DictionaryPageSize
// are carried on Options for documentation but not yet threaded into the
// parquet writer — see DESIGN.md.
func OpenWithOptions(root string, opts *config.Options) (*Archive, error) {
	mapper, err := idmap.Open(root, opts.LookupCacheCapacity, opts.ReverseCacheCapacity)
	if err != nil {
		return nil, err
	}
	return &Archive{
		root:   root,
		mapper: mapper,
		writer: newTupleWriter(root, mapper),
	}, nil
}

// Put appends tuples to the archive in the order given (spec.md §5's
// per-call submission order). The current week and its year directory
// are closed and renamed to their partition-keyed names before Put
// returns, so the tuples are durable and visible to
// Fetch as soon as this call completes (spec.md §4.1) — a live
// Open -> Put -> Fetch within the same process sees its own writes.
func (a *Archive) Put(ctx context.Context, tuples []tuple.Tuple) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	if err := a.writer.WriteBatch(tuples); err != nil {
		return err
	}
	return a.mapper.Flush()
}

// Fetch returns an unlimited-window sequence of tuples for (item,
// property, context), ordered time desc/seqNr desc, at most limit per
// distinct property (0 = unlimited).
func (a *Archive) Fetch(ctx context.Context, item, property, context string, limit uint32) (*TupleIter, error) {
	return fetch(ctx, a.root, a.mapper, item, property, context, limit, false, 0, 0)
}

// FetchRange is Fetch narrowed to [begin, end] inclusive, optionally
// aggregated into interval-wide buckets by op (spec.md §4.1/§4.6).
func (a *Archive) FetchRange(ctx context.Context, item, property, context string, end, begin int64, limit uint32, interval int64, op AggOp) (*TupleIter, error) {
	if op != AggNone && end < begin {
		return nil, ErrInvalidWindow
	}
	it, err := fetch(ctx, a.root, a.mapper, item, property, context, limit, true, begin, end)
	if err != nil {
		return nil, err
	}
	if op == AggNone {
		return it, nil
	}
	aggregated, err := aggregate(it.rows, end, interval, op)
	if err != nil {
		return nil, err
	}
	return &TupleIter{rows: aggregated}, nil
}

// StringIter is a pull-driven sequence of strings (property/descendant
// URIs).
type StringIter struct {
	values []string
	pos    int
}

func (it *StringIter) Next() bool {
	if it.pos >= len(it.values) {
		return false
	}
	it.pos++
	return true
}

func (it *StringIter) String() string { return it.values[it.pos-1] }
func (it *StringIter) Err() error     { return nil }
func (it *StringIter) Close() error   { return nil }

func emptyStringIter() *StringIter { return &StringIter{} }

// Properties returns the distinct property URIs seen for item, across
// every partition that could contain its rows.
func (a *Archive) Properties(ctx context.Context, item string) (*StringIter, error) {
	triple := a.mapper.ResolveTriple(item, "", "")
	if !triple.ItemFound {
		return emptyStringIter(), nil
	}
	plan := fetchPlan{itemID: triple.ItemID}
	rows, err := matchingRows(a.root, plan, false, 0, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var props []string
	for _, r := range rows {
		key := partitionkey.Key(r.ID)
		uri, ok := a.mapper.ReverseProperty(key.PropertyID())
		if !ok {
			continue
		}
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		props = append(props, uri)
	}
	sort.Strings(props)
	return &StringIter{values: props}, nil
}

// Descendants returns child item URIs of item. Archive mode carries no
// graph structure beyond tuple values, so this is always empty (spec.md
// §4.1: "may be empty in archive-only mode").
func (a *Archive) Descendants(ctx context.Context, item string, limit uint32) (*StringIter, error) {
	return emptyStringIter(), nil
}

// ApproximateSize estimates the number of tuples a Fetch(item, property,
// context) bounded to [begin, end] would return, by counting matched
// rows without materializing their values.
func (a *Archive) ApproximateSize(ctx context.Context, item, property, context string, end, begin int64) (uint64, error) {
	plan, ok := planFetch(a.mapper, item, property, context)
	if !ok {
		return 0, nil
	}
	withWindow := end != 0 || begin != 0
	rows, err := matchingRows(a.root, plan, withWindow, begin, end)
	if err != nil {
		return 0, err
	}
	return uint64(len(rows)), nil
}

// Delete is a no-op in archive mode (spec.md §1 Non-goals, §4.1).
func (a *Archive) Delete(ctx context.Context, item, property, context string, end, begin int64) (int64, error) {
	return 0, nil
}

// Close releases the id mapper's caches. Put already leaves no pending
// writer state behind, so there is nothing left to finalize here.
func (a *Archive) Close() error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	return a.mapper.Close()
}
