package unusedexports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/deadexports/pkg/program"
)

func TestResolveUsingDeclarationsByRoots(t *testing.T) {
	prog := loadProgram(t, map[string]string{
		"/p/a.ts": `export function a() { b(); }
export function b() { c(); a(); }
export function c() { c(); }
export function d() { a(); }
`,
	})
	f, ok := prog.File("/p/a.ts")
	require.True(t, ok)

	exports := exportedDeclarations(prog, f)
	require.Len(t, exports, 4)

	tests := []struct {
		name  string
		roots []int
		want  []string
	}{
		{"empty", nil, nil},
		{"cycle", []int{0}, []string{"a", "b", "c"}},
		{"self loop", []int{2}, []string{"c"}},
		{"caller of cycle", []int{3}, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots := NewDeclarationSet()
			for _, i := range tt.roots {
				roots.Add(exports[i])
			}
			before := roots.Len()

			alive := ResolveUsingDeclarationsByRoots(prog, roots)
			assert.Equal(t, tt.want, declNames(alive, "/p/a.ts"))
			assert.Equal(t, before, roots.Len())
		})
	}
}

func TestResolveUsingDeclarationsByAnyFile(t *testing.T) {
	prog := loadProgram(t, map[string]string{
		"/p/a.ts": "export const x = 1;\nexport const y = x;\nexport const z = 2;\n",
	})

	alive := ResolveUsingDeclarationsByAnyFile(prog)
	assert.Equal(t, []string{"x"}, declNames(alive, "/p/a.ts"))
}

func TestCollectReferencedDeclarations_SkipsDeclarationNames(t *testing.T) {
	prog := loadProgram(t, map[string]string{
		"/p/a.ts": "export function f(n: number) { return n + g; }\nconst g = 1;\n",
	})
	f, ok := prog.File("/p/a.ts")
	require.True(t, ok)

	refs := NewDeclarationSet()
	CollectReferencedDeclarations(prog, f.Root, refs)

	var kinds []program.DeclKind
	var names []string
	refs.Range(func(d *program.Declaration) bool {
		kinds = append(kinds, d.Kind)
		names = append(names, d.NameText())
		return true
	})
	assert.Equal(t, []string{"n", "g"}, names)
	assert.Equal(t, []program.DeclKind{program.DeclParameter, program.DeclVariable}, kinds)
}
