package unusedexports

import (
	"github.com/panbanda/deadexports/pkg/locmap"
	"github.com/panbanda/deadexports/pkg/program"
)

// DeclarationSet is a set of declarations keyed by (file, start offset).
type DeclarationSet struct {
	m *locmap.Map[*program.Declaration]
}

// NewDeclarationSet creates an empty set.
func NewDeclarationSet() *DeclarationSet {
	return &DeclarationSet{m: locmap.New[*program.Declaration]()}
}

// Has reports whether a declaration at d's location is in the set.
func (s *DeclarationSet) Has(d *program.Declaration) bool {
	return s.m.Has(d.Location())
}

// Add inserts d. Adding a location that is already present keeps the
// existing entry and reports false.
func (s *DeclarationSet) Add(d *program.Declaration) bool {
	if s.m.Has(d.Location()) {
		return false
	}
	return s.m.Set(d.Location(), d)
}

// Pop removes and returns an arbitrary declaration.
func (s *DeclarationSet) Pop() (*program.Declaration, bool) {
	_, d, ok := s.m.Pop()
	return d, ok
}

func (s *DeclarationSet) IsEmpty() bool { return s.m.IsEmpty() }

func (s *DeclarationSet) Len() int { return s.m.Len() }

// Range visits declarations ordered by file, then offset.
func (s *DeclarationSet) Range(fn func(*program.Declaration) bool) {
	s.m.Range(func(_ locmap.Key, d *program.Declaration) bool {
		return fn(d)
	})
}

// RangeFile visits the declarations located in file, by offset.
func (s *DeclarationSet) RangeFile(file string, fn func(*program.Declaration) bool) {
	s.m.RangeFile(file, func(_ locmap.Key, d *program.Declaration) bool {
		return fn(d)
	})
}

// Slice returns the declarations in Range order.
func (s *DeclarationSet) Slice() []*program.Declaration {
	out := make([]*program.Declaration, 0, s.Len())
	s.Range(func(d *program.Declaration) bool {
		out = append(out, d)
		return true
	})
	return out
}

// Clone returns an independent copy.
func (s *DeclarationSet) Clone() *DeclarationSet {
	return &DeclarationSet{m: s.m.Clone()}
}
