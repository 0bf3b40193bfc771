// Package idmap maintains the bidirectional URI<->dense-id mappings for
// the item, property, and context roles, backed by three parquet files.
package idmap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/linkedfactory/kvingo/internal/layout"
)

// Role identifies which of the three mapping roles a URI belongs to.
type Role int

const (
	RoleItem Role = iota
	RoleProperty
	RoleContext
)

func (r Role) fileName() string {
	switch r {
	case RoleItem:
		return "itemMapping.parquet"
	case RoleProperty:
		return "propertyMapping.parquet"
	case RoleContext:
		return "contextMapping.parquet"
	default:
		panic(fmt.Sprintf("idmap: unknown role %d", r))
	}
}

// row is the on-disk shape of every mapping file. All three files use
// the same two columns, "id" and "value"; the role is given by the file
// name, not by role-specific column names.
type row struct {
	ID    uint64 `parquet:"id"`
	Value string `parquet:"value,dict"`
}

// roleMap is the in-memory state for one role: forward URI->id, reverse
// id->URI, and the next id to allocate.
type roleMap struct {
	forward map[string]uint64
	reverse map[uint64]string
	next    uint64
	dirty   bool
}

func newRoleMap() *roleMap {
	return &roleMap{
		forward: make(map[string]uint64),
		reverse: make(map[uint64]string),
		next:    1,
	}
}

// Mapper owns the write-side maps for all three roles plus the two
// bounded read-side caches shared across concurrent readers (spec.md §5).
type Mapper struct {
	root  string
	roles [3]*roleMap

	lookup  *lookupCache
	reverse *reverseCache
}

// Open loads existing mapping files (if any) under root/metadata and
// constructs the bounded caches, sized lookupCapacity/reverseCapacity
// (spec.md §4.3's 20000/10000 when <= 0; see config.Options). Resolving
// spec.md §9's open question: reload is unconditional, so reopening an
// archive never re-allocates ids that already exist on disk (see
// SPEC_FULL.md §4.3).
func Open(root string, lookupCapacity, reverseCapacity int) (*Mapper, error) {
	m := &Mapper{root: root}
	for role := RoleItem; role <= RoleContext; role++ {
		rm, err := loadRoleMap(filepath.Join(root, layout.MetadataDirName, role.fileName()))
		if err != nil {
			return nil, fmt.Errorf("idmap: loading %s: %w", role.fileName(), err)
		}
		m.roles[role] = rm
	}
	lc, err := newLookupCache(lookupCapacity)
	if err != nil {
		return nil, err
	}
	rc, err := newReverseCache(reverseCapacity)
	if err != nil {
		lc.Close()
		return nil, err
	}
	m.lookup = lc
	m.reverse = rc
	return m, nil
}

func loadRoleMap(path string) (*roleMap, error) {
	rm := newRoleMap()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rm, nil
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return rm, nil
	}
	reader := parquet.NewGenericReader[row](f)
	defer reader.Close()
	buf := make([]row, 256)
	for {
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			rm.forward[buf[i].Value] = buf[i].ID
			rm.reverse[buf[i].ID] = buf[i].Value
			if buf[i].ID >= rm.next {
				rm.next = buf[i].ID + 1
			}
		}
		if err != nil {
			break
		}
	}
	return rm, nil
}

// ResolveOrCreate returns the id for uri under role, allocating and
// recording a fresh one if uri has not been seen before. Callers must
// hold the archive's single-writer discipline (spec.md §5) — roleMap is
// not internally synchronized.
func (m *Mapper) ResolveOrCreate(role Role, uri string) (id uint64, created bool) {
	rm := m.roles[role]
	if id, ok := rm.forward[uri]; ok {
		return id, false
	}
	id = rm.next
	rm.next++
	rm.forward[uri] = id
	rm.reverse[id] = uri
	rm.dirty = true
	return id, true
}

// WouldCreate reports whether resolving uri under role would allocate a
// new id (i.e. uri has not been seen before), without allocating one.
func (m *Mapper) WouldCreate(role Role, uri string) bool {
	_, ok := m.roles[role].forward[uri]
	return !ok
}

// MaxAssigned returns the highest id allocated so far for role, or 0 if
// none has been assigned yet.
func (m *Mapper) MaxAssigned(role Role) uint64 {
	return m.roles[role].next - 1
}

// Lookup resolves uri to its id under role without creating one. It does
// not consult the triple cache; callers on the read path should prefer
// ResolveTriple, which is the cached entry point spec.md §4.3 describes.
func (m *Mapper) Lookup(role Role, uri string) (uint64, bool) {
	id, ok := m.roles[role].forward[uri]
	return id, ok
}

// Triple is the resolved (itemId?, propertyId?, contextId?) result for a
// read-side (item, property, context) URI triple. An absent input URI
// (empty string) leaves the corresponding Found flag false and is
// interpreted by the fetch planner as "any" (spec.md §4.3).
type Triple struct {
	ItemID         uint64
	ItemFound      bool
	PropertyID     uint64
	PropertyFound  bool
	ContextID      uint64
	ContextFound   bool
}

type tripleKey struct {
	item, property, context string
}

// ResolveTriple resolves (item, property, context) — any of which may be
// empty, meaning "unspecified" — memoizing the result in the bounded
// triple cache (~20000 entries, spec.md §4.3).
func (m *Mapper) ResolveTriple(item, property, context string) Triple {
	key := tripleKey{item, property, context}
	if t, ok := m.lookup.get(key); ok {
		return t
	}
	var t Triple
	if item != "" {
		t.ItemID, t.ItemFound = m.Lookup(RoleItem, item)
	}
	if property != "" {
		t.PropertyID, t.PropertyFound = m.Lookup(RoleProperty, property)
	}
	if context != "" {
		t.ContextID, t.ContextFound = m.Lookup(RoleContext, context)
	}
	m.lookup.set(key, t)
	return t
}

// ReverseItem resolves an item id back to its URI from the in-memory map.
// Unlike ReverseProperty this is not cache-backed: spec.md §4.3 only
// names a bounded cache for the property reverse direction.
func (m *Mapper) ReverseItem(id uint64) (string, bool) {
	uri, ok := m.roles[RoleItem].reverse[id]
	return uri, ok
}

// ReverseContext resolves a context id back to its URI from the
// in-memory map.
func (m *Mapper) ReverseContext(id uint64) (string, bool) {
	uri, ok := m.roles[RoleContext].reverse[id]
	return uri, ok
}

// ReverseProperty resolves a property id back to its URI, used while
// iterating rows to surface property values. Checks the bounded reverse
// cache first.
func (m *Mapper) ReverseProperty(id uint64) (string, bool) {
	if uri, ok := m.reverse.get(id); ok {
		return uri, true
	}
	uri, ok := m.roles[RoleProperty].reverse[id]
	if ok {
		m.reverse.set(id, uri)
	}
	return uri, ok
}

// Flush rewrites any mapping file whose role gained new entries since the
// last flush. parquet has no true column-file append, so a dirty role's
// entire map is rewritten to a temp file and renamed into place — the
// same temp-then-rename durability pattern the week/year roll uses
// (spec.md §4.4), applied here because "append" in §4.3 is a durability
// promise, not a literal on-disk operation.
func (m *Mapper) Flush() error {
	for role := RoleItem; role <= RoleContext; role++ {
		rm := m.roles[role]
		if !rm.dirty {
			continue
		}
		if err := writeRoleMap(m.root, role, rm); err != nil {
			return fmt.Errorf("idmap: flushing %s: %w", role.fileName(), err)
		}
		rm.dirty = false
	}
	return nil
}

func writeRoleMap(root string, role Role, rm *roleMap) error {
	dir := filepath.Join(root, layout.MetadataDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	finalPath := filepath.Join(dir, role.fileName())
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	writer := parquet.NewGenericWriter[row](f)
	rows := make([]row, 0, len(rm.forward))
	for uri, id := range rm.forward {
		rows = append(rows, row{ID: id, Value: uri})
	}
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, finalPath)
}

// Close flushes pending writes and releases the caches.
func (m *Mapper) Close() error {
	err := m.Flush()
	m.lookup.Close()
	m.reverse.Close()
	return err
}
