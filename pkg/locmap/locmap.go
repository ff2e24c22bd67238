// Package locmap provides a map keyed by source location.
//
// Entries are grouped by file; offsets within a file are tracked in a
// Roaring bitmap so iteration and Pop visit them in ascending order.
package locmap

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Key identifies a position in a source file.
type Key struct {
	File string
	Pos  int
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.File, k.Pos)
}

type fileEntries[T any] struct {
	offsets *roaring.Bitmap
	values  map[uint32]T
}

// Map maps (file, offset) locations to values. The zero value is not
// usable; create maps with New. A Map is not safe for concurrent mutation.
type Map[T any] struct {
	files map[string]*fileEntries[T]
	// order records files in first-insertion order so Pop is deterministic.
	order []string
	head  int
	size  int
}

// New creates an empty map.
func New[T any]() *Map[T] {
	return &Map[T]{files: make(map[string]*fileEntries[T])}
}

func offset(pos int) uint32 {
	if pos < 0 || pos > math.MaxUint32 {
		panic(fmt.Sprintf("locmap: position %d out of range", pos))
	}
	return uint32(pos)
}

// Get returns the value stored at k.
func (m *Map[T]) Get(k Key) (T, bool) {
	var zero T
	fe, ok := m.files[k.File]
	if !ok {
		return zero, false
	}
	v, ok := fe.values[offset(k.Pos)]
	return v, ok
}

// Has reports whether k is present.
func (m *Map[T]) Has(k Key) bool {
	fe, ok := m.files[k.File]
	return ok && fe.offsets.Contains(offset(k.Pos))
}

// Set stores v at k, replacing any previous value. It reports whether k
// was newly added.
func (m *Map[T]) Set(k Key, v T) bool {
	fe, ok := m.files[k.File]
	if !ok {
		fe = &fileEntries[T]{offsets: roaring.New(), values: make(map[uint32]T)}
		m.files[k.File] = fe
		m.order = append(m.order, k.File)
	}
	off := offset(k.Pos)
	added := fe.offsets.CheckedAdd(off)
	fe.values[off] = v
	if added {
		m.size++
	}
	return added
}

// Delete removes k. It reports whether k was present.
func (m *Map[T]) Delete(k Key) bool {
	fe, ok := m.files[k.File]
	if !ok {
		return false
	}
	off := offset(k.Pos)
	if !fe.offsets.CheckedRemove(off) {
		return false
	}
	delete(fe.values, off)
	m.size--
	if fe.offsets.IsEmpty() {
		delete(m.files, k.File)
	}
	return true
}

// Len returns the number of entries.
func (m *Map[T]) Len() int {
	return m.size
}

// IsEmpty reports whether the map holds no entries.
func (m *Map[T]) IsEmpty() bool {
	return m.size == 0
}

// Pop removes and returns an arbitrary entry: the lowest offset of the
// earliest-inserted file that still has entries.
func (m *Map[T]) Pop() (Key, T, bool) {
	var zero T
	for m.head < len(m.order) {
		file := m.order[m.head]
		fe, ok := m.files[file]
		if !ok {
			m.head++
			continue
		}
		off := fe.offsets.Minimum()
		v := fe.values[off]
		k := Key{File: file, Pos: int(off)}
		m.Delete(k)
		if _, ok := m.files[file]; !ok {
			m.head++
		}
		return k, v, true
	}
	m.order, m.head = m.order[:0], 0
	return Key{}, zero, false
}

// Files returns the files that have entries, sorted.
func (m *Map[T]) Files() []string {
	files := make([]string, 0, len(m.files))
	for f := range m.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Range calls fn for every entry, files in sorted order and offsets
// ascending, until fn returns false.
func (m *Map[T]) Range(fn func(Key, T) bool) {
	for _, file := range m.Files() {
		fe := m.files[file]
		it := fe.offsets.Iterator()
		for it.HasNext() {
			off := it.Next()
			if !fn(Key{File: file, Pos: int(off)}, fe.values[off]) {
				return
			}
		}
	}
}

// RangeFile calls fn for every entry in file, offsets ascending.
func (m *Map[T]) RangeFile(file string, fn func(Key, T) bool) {
	fe, ok := m.files[file]
	if !ok {
		return
	}
	it := fe.offsets.Iterator()
	for it.HasNext() {
		off := it.Next()
		if !fn(Key{File: file, Pos: int(off)}, fe.values[off]) {
			return
		}
	}
}

// Clone returns a shallow copy of the map.
func (m *Map[T]) Clone() *Map[T] {
	c := New[T]()
	m.Range(func(k Key, v T) bool {
		c.Set(k, v)
		return true
	})
	return c
}
