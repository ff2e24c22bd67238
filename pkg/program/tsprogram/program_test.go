package tsprogram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/deadexports/pkg/program"
	"github.com/panbanda/deadexports/pkg/source"
)

func load(t *testing.T, files map[string]string) *Program {
	t.Helper()
	src := source.NewMemory(files)
	p, err := Load(context.Background(), src, src.Paths())
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func mustFile(t *testing.T, p *Program, path string) *program.File {
	t.Helper()
	f, ok := p.File(path)
	require.True(t, ok, "file %s not loaded", path)
	return f
}

// refs returns the reference nodes of f whose text is name, in source order.
func refs(f *program.File, name string) []program.Node {
	var out []program.Node
	program.Walk(f.Root, func(n program.Node) bool {
		if n.Kind().IsReference() && n.Text() == name {
			out = append(out, n)
		}
		return true
	})
	return out
}

func exportNames(p *Program, f *program.File) []string {
	var out []string
	for _, sym := range p.ExportsOfModule(f) {
		out = append(out, p.SymbolName(sym))
	}
	return out
}

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		path string
		want program.FileKind
	}{
		{"/p/src/a.ts", program.ProjectFile},
		{"/p/node_modules/x/index.d.ts", program.ExternalLibraryFile},
		{"node_modules/x/index.d.ts", program.ExternalLibraryFile},
		{"/p/lib.d.ts", program.DefaultLibraryFile},
		{"/p/lib.es2020.promise.d.ts", program.DefaultLibraryFile},
		{"/p/library.d.ts", program.ProjectFile},
		{"/p/lib.ts", program.ProjectFile},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFile(tt.path))
		})
	}
}

func TestLoad_SkipsUnreadableFiles(t *testing.T) {
	src := source.NewMemory(map[string]string{
		"/p/a.ts":     "export const a = 1;\n",
		"/p/notes.md": "# notes\n",
	})
	p, err := Load(context.Background(), src, []string{"/p/a.ts", "/p/notes.md", "/p/gone.ts", "/p/./a.ts"})
	require.NoError(t, err)
	defer p.Close()

	require.Len(t, p.Files(), 1)
	assert.Equal(t, "/p/a.ts", p.Files()[0].Path)
	require.True(t, p.Errors().HasErrors())
	assert.Len(t, p.Errors().Errors, 2)
}

func TestLoad_Progress(t *testing.T) {
	src := source.NewMemory(map[string]string{"/p/a.ts": "", "/p/b.ts": ""})
	calls := 0
	p, err := Load(context.Background(), src, src.Paths(), WithMaxWorkers(1), WithProgress(func() { calls++ }))
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 2, calls)
}

func TestFingerprint(t *testing.T) {
	a := load(t, map[string]string{"/p/a.ts": "export const a = 1;\n"})
	b := load(t, map[string]string{"/p/a.ts": "export const a = 1;\n"})
	c := load(t, map[string]string{"/p/a.ts": "export const a = 2;\n"})

	assert.Len(t, a.Fingerprint(), 64)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestResolveFile(t *testing.T) {
	p := load(t, map[string]string{
		"/p/main.ts":       "",
		"/p/util/index.ts": "",
		"/p/view.tsx":      "",
		"/p/types.d.ts":    "",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/p/main.ts", "/p/main.ts"},
		{"/p/main", "/p/main.ts"},
		{"/p/main.js", "/p/main.ts"},
		{"/p/util", "/p/util/index.ts"},
		{"/p/view", "/p/view.tsx"},
		{"/p/view.jsx", "/p/view.tsx"},
		{"/p/types", "/p/types.d.ts"},
		{"/p/other", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, ok := p.ResolveFile(tt.path)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, f.Path)
		})
	}
}

func TestExportsOfModule(t *testing.T) {
	p := load(t, map[string]string{
		"/p/a.ts": `export const a = 1;
export default 2;
export * from "./b";
`,
		"/p/b.ts": `export const a = 3;
export const b = 4;
export default 5;
export * from "./a";
`,
		"/p/c.ts": `const hidden = 1;
function run() {}
export { hidden as visible, run };
export class K {}
export interface I {}
export type T = number;
export enum E { X }
export namespace N {}
export * as ns from "./a";
`,
	})

	assert.Equal(t, []string{"a", "default", "b"}, exportNames(p, mustFile(t, p, "/p/a.ts")))
	assert.Equal(t, []string{"a", "b", "default"}, exportNames(p, mustFile(t, p, "/p/b.ts")))
	assert.Equal(t,
		[]string{"visible", "run", "K", "I", "T", "E", "N", "ns"},
		exportNames(p, mustFile(t, p, "/p/c.ts")))

	// Local exports win over star exports.
	a := mustFile(t, p, "/p/a.ts")
	local := p.ExportsOfModule(a)[0]
	require.Len(t, local.Declarations, 1)
	assert.Equal(t, "/p/a.ts", local.Declarations[0].File.Path)
	assert.Equal(t, program.DeclVariable, local.Declarations[0].Kind)

	// The star-exported b is b.ts's own symbol.
	starred := p.ExportsOfModule(a)[2]
	assert.False(t, starred.IsAlias())
	assert.Equal(t, "/p/b.ts", starred.Declarations[0].File.Path)

	c := mustFile(t, p, "/p/c.ts")
	visible := p.ExportsOfModule(c)[0]
	require.True(t, visible.IsAlias())
	target := p.AliasedSymbol(visible)
	require.NotNil(t, target)
	assert.Equal(t, "hidden", target.Name)
}

func TestAliasedSymbol(t *testing.T) {
	p := load(t, map[string]string{
		"/p/a.ts":     "export function f() {}\nexport default 42;\n",
		"/p/index.ts": "export { f as g } from \"./a\";\n",
		"/p/main.ts": `import { g } from "./index";
import D from "./a";
import * as ns from "./a";
import { missing } from "./a";
import { x } from "./nowhere";
g(); D; ns; missing; x;
`,
	})
	main := mustFile(t, p, "/p/main.ts")

	resolve := func(name string) *program.Symbol {
		nodes := refs(main, name)
		require.Len(t, nodes, 2, name)
		sym := p.SymbolAtLocation(nodes[1])
		require.NotNil(t, sym, name)
		require.True(t, sym.IsAlias(), name)
		return p.AliasedSymbol(sym)
	}

	g := resolve("g")
	require.NotNil(t, g)
	assert.Equal(t, "f", g.Name)
	assert.Equal(t, program.DeclFunction, g.Declarations[0].Kind)

	d := resolve("D")
	require.NotNil(t, d)
	assert.Equal(t, program.DeclDefaultExport, d.Declarations[0].Kind)

	ns := resolve("ns")
	require.NotNil(t, ns)
	assert.Equal(t, program.SymbolModule, ns.Flags)
	assert.Empty(t, ns.Declarations)

	assert.Nil(t, resolve("missing"))
	assert.Nil(t, resolve("x"))

	plain := &program.Symbol{Name: "plain"}
	assert.Same(t, plain, p.AliasedSymbol(plain))
	assert.Nil(t, p.AliasedSymbol(nil))
}

func TestAliasedSymbol_Cycle(t *testing.T) {
	p := load(t, map[string]string{
		"/p/a.ts": "export { x } from \"./b\";\n",
		"/p/b.ts": "export { x } from \"./a\";\n",
	})
	a := mustFile(t, p, "/p/a.ts")
	exports := p.ExportsOfModule(a)
	require.Len(t, exports, 1)
	assert.Nil(t, p.AliasedSymbol(exports[0]))
}

func TestSymbolAtLocation_Scopes(t *testing.T) {
	p := load(t, map[string]string{
		"/p/a.ts": `export const x = 1;
function f(x: number) {
    return x;
}
function g() {
    return x;
}
try {} catch (x) { x; }
for (const x of []) { x; }
const h = (x) => x;
`,
	})
	f := mustFile(t, p, "/p/a.ts")
	nodes := refs(f, "x")

	var kinds []program.DeclKind
	for _, n := range nodes {
		sym := p.SymbolAtLocation(n)
		require.NotNil(t, sym)
		kinds = append(kinds, sym.Declarations[0].Kind)
	}
	assert.Equal(t, []program.DeclKind{
		program.DeclVariable,  // export const x
		program.DeclParameter, // f(x)
		program.DeclParameter, // return x
		program.DeclVariable,  // g: return x
		program.DeclVariable,  // catch (x)
		program.DeclVariable,  // x;
		program.DeclVariable,  // for (const x
		program.DeclVariable,  // x;
		program.DeclParameter, // (x) =>
		program.DeclParameter, // => x
	}, kinds)

	top := p.SymbolAtLocation(nodes[0])
	assert.Same(t, top, p.SymbolAtLocation(nodes[3]))
	assert.NotSame(t, top, p.SymbolAtLocation(nodes[2]))
	assert.NotSame(t, p.SymbolAtLocation(nodes[5]), p.SymbolAtLocation(nodes[7]))
}

func TestSymbolAtLocation_TypeScopes(t *testing.T) {
	p := load(t, map[string]string{
		"/p/a.ts": `export type T = number;
export type Box<T> = { value: T };
export type Keys<O> = { [K in keyof O]: K };
export type Head<L> = L extends [infer H, ...unknown[]] ? H : never;
let v: T;
`,
	})
	f := mustFile(t, p, "/p/a.ts")

	ts := refs(f, "T")
	require.Len(t, ts, 4)
	alias := p.SymbolAtLocation(ts[0])
	require.NotNil(t, alias)
	assert.Equal(t, program.DeclTypeAlias, alias.Declarations[0].Kind)
	assert.Equal(t, program.DeclTypeParameter, p.SymbolAtLocation(ts[1]).Declarations[0].Kind)
	assert.Same(t, p.SymbolAtLocation(ts[1]), p.SymbolAtLocation(ts[2]))
	assert.Same(t, alias, p.SymbolAtLocation(ts[3]))

	ks := refs(f, "K")
	require.Len(t, ks, 2)
	assert.Same(t, p.SymbolAtLocation(ks[0]), p.SymbolAtLocation(ks[1]))

	hs := refs(f, "H")
	require.Len(t, hs, 2)
	require.NotNil(t, p.SymbolAtLocation(hs[1]))
	assert.Same(t, p.SymbolAtLocation(hs[0]), p.SymbolAtLocation(hs[1]))
}

func TestSymbolAtLocation_NamespaceMembers(t *testing.T) {
	p := load(t, map[string]string{
		"/p/a.ts": "export const v = 1;\nexport interface I {}\n",
		"/p/b.ts": `import * as ns from "./a";
export * as again from "./a";
ns.v;
let i: ns.I;
let o = { v: 1 };
o.v;
`,
	})
	b := mustFile(t, p, "/p/b.ts")

	vs := refs(b, "v")
	require.Len(t, vs, 2)
	sym := p.SymbolAtLocation(vs[0])
	require.NotNil(t, sym)
	assert.Equal(t, "/p/a.ts", sym.Declarations[0].File.Path)
	// o.v has no module qualifier.
	assert.Nil(t, p.SymbolAtLocation(vs[1]))

	is := refs(b, "I")
	require.Len(t, is, 1)
	iface := p.SymbolAtLocation(is[0])
	require.NotNil(t, iface)
	assert.Equal(t, program.DeclInterface, iface.Declarations[0].Kind)
}

func TestSymbolAtLocation_SpecifierNames(t *testing.T) {
	p := load(t, map[string]string{
		"/p/a.ts": "export const a = 1;\n",
		"/p/b.ts": "import { a as b } from \"./a\";\nconst c = 1;\nexport { c as d };\n",
	})
	b := mustFile(t, p, "/p/b.ts")

	// The remote name of a renamed specifier denotes nothing locally.
	as := refs(b, "a")
	require.Len(t, as, 1)
	assert.Nil(t, p.SymbolAtLocation(as[0]))

	cs := refs(b, "c")
	require.Len(t, cs, 2)
	assert.Nil(t, p.SymbolAtLocation(cs[1]))

	ds := refs(b, "d")
	require.Len(t, ds, 1)
	d := p.SymbolAtLocation(ds[0])
	require.NotNil(t, d)
	assert.True(t, d.IsAlias())
	assert.Equal(t, "c", p.AliasedSymbol(d).Name)
}

func TestDeclarationRanges(t *testing.T) {
	src := `export const single = 1;
export const a = 1, b = 2;
export const { p, q } = obj;
export function f() {}
export default function named() {}
`
	p := load(t, map[string]string{"/p/a.ts": src})
	f := mustFile(t, p, "/p/a.ts")

	text := func(name string) string {
		nodes := refs(f, name)
		require.NotEmpty(t, nodes, name)
		sym := p.SymbolAtLocation(nodes[0])
		require.NotNil(t, sym, name)
		d := sym.Declarations[0]
		return src[d.Start:d.End]
	}

	assert.Equal(t, "export const single = 1;", text("single"))
	assert.Equal(t, "a = 1, ", text("a"))
	assert.Equal(t, ", b = 2", text("b"))
	assert.Equal(t, "p, ", text("p"))
	assert.Equal(t, ", q", text("q"))
	assert.Equal(t, "export function f() {}", text("f"))
	assert.Equal(t, "export default function named() {}", text("named"))
}

func TestDocTags(t *testing.T) {
	p := load(t, map[string]string{
		"/p/a.ts": `/**
 * Starts the app.
 * @root
 * @see {@link other}
 */
export function run() {}

// @root
export function lineComment() {}

/** @entrypoint */
// trailing note
export const tagged = 1;

export function none() {}
`,
	})
	f := mustFile(t, p, "/p/a.ts")

	tags := map[string][]string{}
	for _, sym := range p.ExportsOfModule(f) {
		tags[sym.Name] = p.DocTags(sym.Declarations[0])
	}
	assert.Equal(t, []string{"root", "see", "link"}, tags["run"])
	assert.Empty(t, tags["lineComment"])
	assert.Equal(t, []string{"entrypoint"}, tags["tagged"])
	assert.Empty(t, tags["none"])
}

func TestParseDocTags(t *testing.T) {
	tests := []struct {
		comment string
		want    []string
	}{
		{"/** @root */", []string{"root"}},
		{"/** mail me@example.com */", nil},
		{"/**\n * @entry-point\n * @param x */", []string{"entry-point", "param"}},
		{"/** {@inheritDoc} */", []string{"inheritDoc"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDocTags(tt.comment), tt.comment)
	}
}
