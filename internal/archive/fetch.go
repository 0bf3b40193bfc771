package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/linkedfactory/kvingo/internal/idmap"
	"github.com/linkedfactory/kvingo/internal/layout"
	"github.com/linkedfactory/kvingo/internal/logging"
	"github.com/linkedfactory/kvingo/internal/partitionkey"
	"github.com/linkedfactory/kvingo/internal/tuple"
)

// idColumnIndex is the schema column position of row's "id" field.
// parquet-go lays out a generic writer's columns in struct field order
// for a flat (non-nested) schema, and id is row's first field.
const idColumnIndex = 0

// TupleIter is a pull-driven sequence of tuples, ordered by time
// descending then seqNr descending, with per-property limiting already
// applied (spec.md §4.1/§4.5).
type TupleIter struct {
	rows []tuple.Tuple
	pos  int
}

func (it *TupleIter) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	it.pos++
	return true
}

func (it *TupleIter) Tuple() tuple.Tuple { return it.rows[it.pos-1] }
func (it *TupleIter) Err() error         { return nil }
func (it *TupleIter) Close() error       { return nil }

func emptyTupleIter() *TupleIter { return &TupleIter{} }

// fetchPlan is the resolved predicate a fetch call matches rows against.
type fetchPlan struct {
	itemID      uint64
	hasProperty bool
	propertyID  uint64
	hasContext  bool
	contextID   uint64
}

// planFetch resolves (item, property, context) to a fetchPlan, or
// reports ok=false when the query can never match any row (item
// unknown, or a supplied property/context is unknown).
func planFetch(mapper *idmap.Mapper, item, property, context string) (fetchPlan, bool) {
	triple := mapper.ResolveTriple(item, property, context)
	if !triple.ItemFound {
		return fetchPlan{}, false
	}
	plan := fetchPlan{itemID: triple.ItemID}
	if property != "" {
		if !triple.PropertyFound {
			return fetchPlan{}, false
		}
		plan.hasProperty = true
		plan.propertyID = triple.PropertyID
	}
	if context != "" {
		if !triple.ContextFound {
			return fetchPlan{}, false
		}
		plan.hasContext = true
		plan.contextID = triple.ContextID
	}
	return plan, true
}

func (p fetchPlan) matches(key partitionkey.Key) bool {
	if key.ItemID() != p.itemID {
		return false
	}
	if p.hasProperty && key.PropertyID() != p.propertyID {
		return false
	}
	if p.hasContext && key.ContextID() != p.contextID {
		return false
	}
	return true
}

// scanDataFile reads the rows of a week partition's data file that can
// possibly match plan. A missing or empty file yields no rows, not an
// error — an in-progress or never-written partition is not a fault
// (spec.md §7).
//
// When plan fully specifies item, property, and context, the exact id
// it resolves to is checked against every row group's "id" column bloom
// filter (written by writer.go's parquet.SplitBlockFilter) before a
// single row is decoded; a file whose every row group reports the id
// definitely absent is skipped outright — spec.md §4.5's "predicate
// pushed down". A partial predicate (item alone, or item+property
// without context) has no single id value to check a bloom filter
// against, so it falls back to a full scan of the (already
// directory-pruned) file.
func scanDataFile(path string, plan fetchPlan) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	if plan.hasProperty && plan.hasContext {
		maybePresent, err := idMaybePresent(f, info.Size(), plan)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		if !maybePresent {
			return nil, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
	}

	reader := parquet.NewGenericReader[row](f)
	defer reader.Close()

	var out []row
	buf := make([]row, 256)
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			break
		}
	}
	return out, nil
}

// idMaybePresent reports whether any row group's "id" column bloom
// filter leaves open the possibility that plan's exact (item, property,
// context) id is present, following the teacher's bloom-filter-check
// pattern (internal/neo/neo.go: `columns[k].BloomFilter().Check(v)`). A
// row group with no bloom filter (or an unreadable one) is conservatively
// treated as a possible match.
func idMaybePresent(f *os.File, size int64, plan fetchPlan) (bool, error) {
	pf, err := parquet.OpenFile(f, size)
	if err != nil {
		return true, err
	}
	want := parquet.ValueOf(rowID(plan.itemID, plan.propertyID, plan.contextID))
	for _, g := range pf.RowGroups() {
		cols := g.ColumnChunks()
		if len(cols) <= idColumnIndex {
			return true, nil
		}
		bf := cols[idColumnIndex].BloomFilter()
		if bf == nil {
			return true, nil
		}
		has, err := bf.Check(want)
		if err != nil {
			return true, err
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}

// matchingRows scans every partition that could contain rows matching
// plan: directory-level pruning by id range (spec.md §4.5), then a
// per-file bloom-filter check on the "id" column when plan is a full
// triple (SPEC_FULL.md §4.5), optionally restricting to [begin, end]
// inclusive when withWindow is true.
func matchingRows(root string, plan fetchPlan, withWindow bool, begin, end int64) ([]row, error) {
	years, err := layout.ListYearDirs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	var out []row
	for _, y := range years {
		if !y.ItemInRange(plan.itemID) {
			continue
		}
		yearPath := filepath.Join(root, y.Name)
		weeks, err := layout.ListWeekDirs(yearPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		for _, w := range weeks {
			if !w.ItemInRange(plan.itemID) {
				continue
			}
			rows, err := scanDataFile(layout.DataFilePath(root, y, w), plan)
			if err != nil {
				return nil, err
			}
			for _, r := range rows {
				key := partitionkey.Key(r.ID)
				if !plan.matches(key) {
					continue
				}
				if withWindow && (r.Time < begin || r.Time > end) {
					continue
				}
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// resolveAndOrder turns matched rows into tuples (reverse-resolving
// property/context URIs; item is already known at the call site), sorts
// them by time desc/seqNr desc (spec.md §4.1), then applies the
// per-property limit enforcement of §4.5 over that order.
func resolveAndOrder(ctx context.Context, mapper *idmap.Mapper, rows []row, item string, limit uint32) []tuple.Tuple {
	tuples := make([]tuple.Tuple, 0, len(rows))
	for _, r := range rows {
		key := partitionkey.Key(r.ID)
		propURI, ok := mapper.ReverseProperty(key.PropertyID())
		if !ok {
			continue // mapping vanished under us; skip defensively
		}
		ctxURI, _ := mapper.ReverseContext(key.ContextID())
		v, err := decodeRowValue(r)
		if err != nil {
			logging.Get(ctx).Warn().Err(err).Str("property", propURI).Msg("skipping row with undecodable value")
			continue // value.ErrDecoding: skip the row, per spec.md §7
		}
		tuples = append(tuples, tuple.Tuple{
			Item:     item,
			Property: propURI,
			Context:  ctxURI,
			Time:     r.Time,
			SeqNr:    r.SeqNr,
			Value:    v,
		})
	}

	sort.SliceStable(tuples, func(i, j int) bool {
		if tuples[i].Time != tuples[j].Time {
			return tuples[i].Time > tuples[j].Time
		}
		return tuples[i].SeqNr > tuples[j].SeqNr
	})

	if limit == 0 {
		return tuples
	}

	out := make([]tuple.Tuple, 0, len(tuples))
	counts := make(map[string]uint32, 4)
	for _, t := range tuples {
		if counts[t.Property] >= limit {
			continue
		}
		counts[t.Property]++
		out = append(out, t)
	}
	return out
}

// fetch is the shared implementation behind Archive.Fetch/FetchRange:
// it resolves the predicate, scans and prunes partitions, and returns
// the ordered, limited tuple sequence. withWindow/begin/end narrow the
// scan to a time range when set (FetchRange); otherwise every matching
// row is considered (Fetch).
func fetch(ctx context.Context, root string, mapper *idmap.Mapper, item, property, context string, limit uint32, withWindow bool, begin, end int64) (*TupleIter, error) {
	plan, ok := planFetch(mapper, item, property, context)
	if !ok {
		return emptyTupleIter(), nil
	}
	rows, err := matchingRows(root, plan, withWindow, begin, end)
	if err != nil {
		return nil, err
	}
	tuples := resolveAndOrder(ctx, mapper, rows, item, limit)
	return &TupleIter{rows: tuples}, nil
}
