package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/linkedfactory/kvingo/internal/idmap"
	"github.com/linkedfactory/kvingo/internal/layout"
	"github.com/linkedfactory/kvingo/internal/partitionkey"
	"github.com/linkedfactory/kvingo/internal/tuple"
)

const weekSeconds = 7 * 24 * 60 * 60

// writerCodec approximates spec.md §4.4's "ZSTD level 12": parquet-go's
// zstd wrapper only exposes klauspost's coarse preset levels, not an
// arbitrary numeric level, so the closest preset (best compression) is
// used in its place.
var writerCodec = &zstd.Codec{Level: zstd.SpeedBestCompression}

// tupleWriter resolves ids and appends rows to the week/year-partitioned
// columnar tree. It carries no state across calls: every WriteBatch call
// closes and renames whatever it wrote out of its working "temp"
// directory before returning, so a Put is durable and fetchable as soon
// as it returns (spec.md §4.1), matching the Java original's
// KvinParquet.putInternal, which renames the week and year folders and
// closes every writer at the end of each put (KvinParquet.java:262-269).
// A batch whose first tuple falls in a calendar year that already has a
// committed directory resumes that year — writing its new week alongside
// the existing ones and widening the year directory's id range — rather
// than starting a second directory for the same year.
type tupleWriter struct {
	root   string
	mapper *idmap.Mapper
}

func newTupleWriter(root string, mapper *idmap.Mapper) *tupleWriter {
	return &tupleWriter{root: root, mapper: mapper}
}

// writeSession is the state alive for the duration of one WriteBatch
// call: the currently open week file plus the identity of the year
// directory it lives under.
type writeSession struct {
	yearDir      string // directory holding the live week's temp dir
	resumingYear bool   // yearDir is already a committed <min>_<max>_<year> directory being extended
	yearMin      partitionkey.Key

	file   *os.File
	writer *parquet.GenericWriter[row]

	haveWeekMin        bool
	weekMin            partitionkey.Key
	nextChunkTimestamp int64
	prevDate           time.Time
}

func (s *writeSession) liveWeekDir() string {
	return filepath.Join(s.yearDir, layout.TempDirName)
}

// openYear points the session at the directory date's calendar year
// belongs in: an already-committed year directory if one exists
// (resuming it, per the Java original's getExistingYearFolder /
// writingToExistingYearFolder), otherwise a fresh root/temp working
// directory.
func (s *writeSession) openYear(root string, date time.Time) error {
	existing, err := findYearDir(root, date.Year())
	if err != nil {
		return err
	}
	if existing != nil {
		s.resumingYear = true
		s.yearDir = filepath.Join(root, existing.Name)
		s.yearMin = existing.Min
	} else {
		s.resumingYear = false
		s.yearDir = filepath.Join(root, layout.TempDirName)
	}
	return nil
}

// findYearDir returns the committed year directory covering year, if any.
func findYearDir(root string, year int) (*layout.YearDir, error) {
	years, err := layout.ListYearDirs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	for i := range years {
		if years[i].Year == year {
			return &years[i], nil
		}
	}
	return nil, nil
}

func (w *tupleWriter) currentCounters() partitionkey.Key {
	return partitionkey.New(
		w.mapper.MaxAssigned(idmap.RoleItem),
		w.mapper.MaxAssigned(idmap.RoleProperty),
		w.mapper.MaxAssigned(idmap.RoleContext),
	)
}

func (w *tupleWriter) openFreshWeekFile(s *writeSession) error {
	dir := s.liveWeekDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	f, err := os.Create(filepath.Join(dir, layout.DataFileName))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	s.file = f
	s.writer = parquet.NewGenericWriter[row](f,
		parquet.Compression(writerCodec),
		parquet.BloomFilters(parquet.SplitBlockFilter(10, "id")),
	)
	return nil
}

// WriteBatch appends tuples in the order given, resolving ids, rolling
// week/year partitions as needed, and finalizing the current week and
// year before returning. An empty batch is a no-op that touches no
// directory.
//
// Order matters in the per-tuple loop: whether a tuple is about to
// introduce a new id in each role must be known (peeked, not yet
// allocated) before a roll decision is made, because the outgoing
// week's Pmax is "the current counters" *prior to* this tuple (spec.md
// §4.4) while the Δ used to seed the next week's Pmin refers to this
// same tuple. Ids are only actually allocated once the roll (if any)
// has captured that boundary.
func (w *tupleWriter) WriteBatch(tuples []tuple.Tuple) error {
	if len(tuples) == 0 {
		return nil
	}
	s := &writeSession{}

	for i, t := range tuples {
		itemNew := w.mapper.WouldCreate(idmap.RoleItem, t.Item)
		propNew := w.mapper.WouldCreate(idmap.RoleProperty, t.Property)
		ctxNew := w.mapper.WouldCreate(idmap.RoleContext, t.Context)
		date := time.Unix(t.Time, 0).UTC()

		if i == 0 {
			if err := s.openYear(w.root, date); err != nil {
				return err
			}
			if err := w.openFreshWeekFile(s); err != nil {
				return err
			}
			s.nextChunkTimestamp = t.Time + weekSeconds
			s.prevDate = date
		} else if t.Time >= s.nextChunkTimestamp {
			if err := w.roll(s, itemNew, propNew, ctxNew, date); err != nil {
				return err
			}
		}

		itemID, _ := w.mapper.ResolveOrCreate(idmap.RoleItem, t.Item)
		propID, _ := w.mapper.ResolveOrCreate(idmap.RoleProperty, t.Property)
		ctxID, _ := w.mapper.ResolveOrCreate(idmap.RoleContext, t.Context)

		if !s.haveWeekMin {
			s.weekMin = partitionkey.New(itemID, propID, ctxID)
			if !s.resumingYear {
				s.yearMin = s.weekMin
			}
			s.haveWeekMin = true
		}

		r, err := encodeRow(itemID, propID, ctxID, t.Time, t.SeqNr, t.Value)
		if err != nil {
			return err
		}
		if _, err := s.writer.Write([]row{r}); err != nil {
			return fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
		s.prevDate = date
	}

	return w.finalize(s)
}

// closeWeekFile closes the writer and file handles for the in-progress
// week.
func (w *tupleWriter) closeWeekFile(s *writeSession) error {
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

// finalizeWeek renames the live week directory to its final <min>_<max>
// name under the current year directory.
func (w *tupleWriter) finalizeWeek(s *writeSession, weekMax partitionkey.Key) error {
	weekName := layout.FormatWeekDir(s.weekMin, weekMax)
	if err := os.Rename(s.liveWeekDir(), filepath.Join(s.yearDir, weekName)); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

// renameYear renames the current year directory to reflect weekMax as
// its new upper bound, updating s.yearDir to the new path. Called
// whenever a week closes into an already-committed year directory
// (resumingYear) or the calendar year just changed, and unconditionally
// at the end of every batch (finalize).
func (w *tupleWriter) renameYear(s *writeSession, weekMax partitionkey.Key) error {
	name := layout.FormatYearDir(s.yearMin, weekMax, s.prevDate.Year())
	newPath := filepath.Join(w.root, name)
	if err := os.Rename(s.yearDir, newPath); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	s.yearDir = newPath
	s.resumingYear = true
	return nil
}

// roll closes the current week file, renames it (and, if resuming a
// committed year directory or the calendar year just changed, the year
// directory too) to its final partition-keyed name, then opens a fresh
// working file for the next week. itemNew/propNew/ctxNew report whether
// the *triggering* tuple will introduce a new id in each role — spec.md
// §4.4's Δ used to seed the next weekMin.
func (w *tupleWriter) roll(s *writeSession, itemNew, propNew, ctxNew bool, newDate time.Time) error {
	weekMax := w.currentCounters()
	yearChanged := newDate.Year() != s.prevDate.Year()

	if err := w.closeWeekFile(s); err != nil {
		return err
	}
	if err := w.finalizeWeek(s, weekMax); err != nil {
		return err
	}
	if s.resumingYear || yearChanged {
		if err := w.renameYear(s, weekMax); err != nil {
			return err
		}
	}

	var deltaItem, deltaProp, deltaCtx uint64
	if itemNew {
		deltaItem = 1
	}
	if propNew {
		deltaProp = 1
	}
	if ctxNew {
		deltaCtx = 1
	}
	s.weekMin = partitionkey.New(
		weekMax.ItemID()+deltaItem,
		weekMax.PropertyID()+deltaProp,
		weekMax.ContextID()+deltaCtx,
	)

	if yearChanged {
		if err := s.openYear(w.root, newDate); err != nil {
			return err
		}
		if !s.resumingYear {
			s.yearMin = s.weekMin
		}
	}
	s.nextChunkTimestamp += weekSeconds
	s.prevDate = newDate
	return w.openFreshWeekFile(s)
}

// finalize closes and renames the last week and its year directory
// before WriteBatch returns — a Put call leaves no "temp" state behind,
// spec.md §4.1's durability requirement.
func (w *tupleWriter) finalize(s *writeSession) error {
	weekMax := w.currentCounters()
	if err := w.closeWeekFile(s); err != nil {
		return err
	}
	if err := w.finalizeWeek(s, weekMax); err != nil {
		return err
	}
	return w.renameYear(s, weekMax)
}
