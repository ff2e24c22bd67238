package program

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

// declarators builds `export const a = 1, b = 2, c = 3;` as a statement
// list and returns its declarations.
func declarators(t *testing.T) (string, []*Declaration) {
	t.Helper()
	src := "export const a = 1, b = 2, c = 3;"
	f := &File{Path: "/a.ts", Source: []byte(src)}
	stmt := &List{
		Elements: []Span{{13, 18}, {20, 25}, {27, 32}},
		Start:    0,
		End:      len(src),
	}
	var decls []*Declaration
	for i, e := range stmt.Elements {
		decls = append(decls, &Declaration{
			Kind: DeclVariable, File: f, Start: e.Start, End: e.End,
			List: stmt, ListIndex: i,
		})
	}
	return src, decls
}

// apply deletes each distinct span from src, back to front.
func apply(src string, spans []Span) string {
	uniq := make(map[Span]struct{}, len(spans))
	var sorted []Span
	for _, s := range spans {
		if _, ok := uniq[s]; !ok {
			uniq[s] = struct{}{}
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	out := []byte(src)
	for _, s := range sorted {
		out = append(out[:s.Start:s.Start], out[s.End:]...)
	}
	return string(out)
}

func TestRemovalRanges_Declarators(t *testing.T) {
	tests := []struct {
		name string
		dead []int
		want string
	}{
		{"first", []int{0}, "export const b = 2, c = 3;"},
		{"middle", []int{1}, "export const a = 1, c = 3;"},
		{"last", []int{2}, "export const a = 1, b = 2;"},
		{"first two", []int{0, 1}, "export const c = 3;"},
		{"last two", []int{1, 2}, "export const a = 1;"},
		{"outer two", []int{0, 2}, "export const b = 2;"},
		{"all", []int{0, 1, 2}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, decls := declarators(t)
			var dead []*Declaration
			for _, i := range tt.dead {
				dead = append(dead, decls[i])
			}

			ranges := RemovalRanges(dead)
			spans := make([]Span, 0, len(dead))
			for _, d := range dead {
				r, ok := ranges[d]
				assert.True(t, ok)
				spans = append(spans, r)
			}
			for i := range spans {
				for j := range spans {
					if spans[i] != spans[j] {
						disjoint := spans[i].End <= spans[j].Start || spans[j].End <= spans[i].Start
						assert.True(t, disjoint, "%v overlaps %v", spans[i], spans[j])
					}
				}
			}
			assert.Equal(t, tt.want, apply(src, spans))
		})
	}
}

func TestRemovalRanges_NestedPattern(t *testing.T) {
	// export const { a, b } = o, c = 1;
	src := "export const { a, b } = o, c = 1;"
	f := &File{Path: "/a.ts", Source: []byte(src)}
	stmt := &List{Elements: []Span{{13, 25}, {27, 32}}, End: len(src)}
	pattern := &List{Elements: []Span{{15, 16}, {18, 19}}, Parent: stmt, Index: 0}
	a := &Declaration{File: f, Start: 15, End: 16, List: pattern, ListIndex: 0}
	b := &Declaration{File: f, Start: 18, End: 19, List: pattern, ListIndex: 1}
	c := &Declaration{File: f, Start: 27, End: 32, List: stmt, ListIndex: 1}

	ranges := RemovalRanges([]*Declaration{a, b})
	assert.Equal(t, Span{13, 27}, ranges[a])
	assert.Equal(t, ranges[a], ranges[b])
	assert.Equal(t, "export const c = 1;", apply(src, []Span{ranges[a]}))

	ranges = RemovalRanges([]*Declaration{b})
	assert.Equal(t, Span{16, 19}, ranges[b])

	ranges = RemovalRanges([]*Declaration{a, b, c})
	assert.Equal(t, Span{0, len(src)}, ranges[c])
	assert.Equal(t, ranges[c], ranges[a])
}

func TestRemovalRanges_ListKinds(t *testing.T) {
	f := &File{Path: "/a.ts"}
	stmt := &List{Elements: []Span{{0, 10}}, End: 10}

	positional := &List{Kind: PositionalList, Elements: []Span{{1, 2}, {4, 5}}, Parent: stmt}
	x := &Declaration{File: f, List: positional, ListIndex: 0}
	assert.Equal(t, map[*Declaration]Span{x: {1, 2}}, RemovalRanges([]*Declaration{x}))

	atomic := &List{Kind: AtomicList, Elements: []Span{{1, 2}, {4, 8}}, Parent: stmt}
	y := &Declaration{File: f, List: atomic, ListIndex: 0}
	z := &Declaration{File: f, List: atomic, ListIndex: 1}
	assert.Empty(t, RemovalRanges([]*Declaration{y}))
	assert.Equal(t, Span{0, 10}, RemovalRanges([]*Declaration{y, z})[z])

	plain := &Declaration{File: f, Start: 3, End: 9}
	assert.Equal(t, Span{3, 9}, RemovalRanges([]*Declaration{plain})[plain])
}
