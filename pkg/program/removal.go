package program

// Span is a half-open byte range.
type Span struct {
	Start int
	End   int
}

// ListKind decides how single elements of a List are removed.
type ListKind uint8

const (
	// CommaList elements are removed together with one separating comma.
	CommaList ListKind = iota
	// PositionalList elements leave an empty slot behind, since the
	// elements after them are matched by position.
	PositionalList
	// AtomicList elements can only be removed all at once.
	AtomicList
)

// List is a comma-separated list of removable elements: the declarators of
// one variable statement, the elements of a destructuring pattern or the
// specifiers of an export clause.
type List struct {
	Kind ListKind
	// Elements are the element spans in source order, separators excluded.
	Elements []Span
	// Start and End delimit the text removed with the last element when
	// Parent is nil.
	Start int
	End   int
	// Parent is the list this whole list is an element of, at Index.
	Parent *List
	Index  int
}

// RemovalRanges returns the byte ranges that delete decls together. When
// every element of a list is deleted the list goes as a whole, which may
// cascade into its parent. Elements of one list that are deleted next to
// each other share a range, so the ranges of two declarations are either
// equal or disjoint. A declaration that cannot be deleted on its own has
// no entry.
func RemovalRanges(decls []*Declaration) map[*Declaration]Span {
	dead := make(map[*List]map[int]struct{})
	var pending []*List
	mark := func(l *List, i int) {
		idx := dead[l]
		if idx == nil {
			idx = make(map[int]struct{})
			dead[l] = idx
		}
		if _, ok := idx[i]; !ok {
			idx[i] = struct{}{}
			pending = append(pending, l)
		}
	}
	for _, d := range decls {
		if d.List != nil {
			mark(d.List, d.ListIndex)
		}
	}

	full := make(map[*List]bool)
	for len(pending) > 0 {
		l := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if full[l] || len(dead[l]) < len(l.Elements) {
			continue
		}
		full[l] = true
		if l.Parent != nil {
			mark(l.Parent, l.Index)
		}
	}

	out := make(map[*Declaration]Span, len(decls))
	for _, d := range decls {
		if d.List == nil {
			out[d] = Span{Start: d.Start, End: d.End}
			continue
		}
		l, i := d.List, d.ListIndex
		for full[l] && l.Parent != nil {
			l, i = l.Parent, l.Index
		}
		if full[l] {
			out[d] = Span{Start: l.Start, End: l.End}
			continue
		}
		if r, ok := l.removal(dead[l], i); ok {
			out[d] = r
		}
	}
	return out
}

// removal returns the range deleting the run of dead elements around i.
// The list itself survives, so at least one element is alive.
func (l *List) removal(dead map[int]struct{}, i int) (Span, bool) {
	switch l.Kind {
	case AtomicList:
		return Span{}, false
	case PositionalList:
		return l.Elements[i], true
	}

	lo, hi := i, i
	for lo > 0 {
		if _, ok := dead[lo-1]; !ok {
			break
		}
		lo--
	}
	for hi < len(l.Elements)-1 {
		if _, ok := dead[hi+1]; !ok {
			break
		}
		hi++
	}
	if hi < len(l.Elements)-1 {
		// Up to the next surviving element, taking the trailing comma.
		return Span{Start: l.Elements[lo].Start, End: l.Elements[hi+1].Start}, true
	}
	// The run ends the list: take the comma after the previous element.
	return Span{Start: l.Elements[lo-1].End, End: l.Elements[hi].End}, true
}
