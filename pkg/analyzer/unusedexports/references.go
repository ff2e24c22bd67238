package unusedexports

import (
	"github.com/panbanda/deadexports/pkg/locmap"
	"github.com/panbanda/deadexports/pkg/program"
)

// CollectReferencedDeclarations adds to out every project declaration
// referenced from within the subtree rooted at root.
//
// A node is a reference when it resolves to a symbol and is not the name
// token of one of that symbol's declarations. Aliases are unwrapped once
// through the model. Declarations in external or default-library files
// are never added.
func CollectReferencedDeclarations(model program.Model, root program.Node, out *DeclarationSet) {
	program.Walk(root, func(n program.Node) bool {
		switch n.Kind() {
		case program.NodeIdentifier, program.NodeTypeIdentifier, program.NodeMemberName:
			addReferencedDeclarations(model, n, out)
		}
		return true
	})
}

func addReferencedDeclarations(model program.Model, n program.Node, out *DeclarationSet) {
	sym := model.SymbolAtLocation(n)
	if sym == nil {
		return
	}
	for _, d := range sym.Declarations {
		if d.IsNameNode(n) {
			return
		}
	}
	if sym.IsAlias() {
		sym = model.AliasedSymbol(sym)
		if sym == nil {
			return
		}
	}
	for _, d := range sym.Declarations {
		if d == nil || d.File.IsLibrary() {
			continue
		}
		out.Add(d)
	}
}

// exportedDeclarations returns the declarations behind every export
// symbol of f, aliases unwrapped.
func exportedDeclarations(model program.Model, f *program.File) []*program.Declaration {
	var out []*program.Declaration
	for _, sym := range model.ExportsOfModule(f) {
		if sym.IsAlias() {
			sym = model.AliasedSymbol(sym)
		}
		if sym == nil {
			continue
		}
		out = append(out, sym.Declarations...)
	}
	return out
}

// exportSite is one export of a file as it is reported. Decl is the
// declaration deleted when the export is unused; the export is alive when
// any of Targets is.
type exportSite struct {
	Decl    *program.Declaration
	Targets []*program.Declaration
}

// ownExportSites returns the exports declared in f, in source order.
// `export { x }` and `export default x` naming a declaration of f are
// reported at the specifier, so removing them leaves x in place.
// Re-exports of other files are reported where they are declared.
func ownExportSites(model program.Model, f *program.File) []exportSite {
	sites := locmap.New[exportSite]()
	add := func(d *program.Declaration, targets []*program.Declaration) {
		if d != nil && d.File.Path == f.Path {
			sites.Set(d.Location(), exportSite{Decl: d, Targets: targets})
		}
	}

	for _, sym := range model.ExportsOfModule(f) {
		if !sym.IsAlias() {
			for _, d := range sym.Declarations {
				add(d, []*program.Declaration{d})
			}
			continue
		}
		target := model.AliasedSymbol(sym)
		if target == nil {
			continue
		}
		if !reportAtSpecifier(sym, target, f) {
			for _, d := range target.Declarations {
				add(d, []*program.Declaration{d})
			}
			continue
		}
		for _, d := range sym.Declarations {
			add(d, target.Declarations)
		}
	}

	out := make([]exportSite, 0, sites.Len())
	sites.RangeFile(f.Path, func(_ locmap.Key, s exportSite) bool {
		out = append(out, s)
		return true
	})
	return out
}

// reportAtSpecifier reports whether the alias sym of f names declarations
// of f that stand apart from it. `export default function f() {}` wraps
// its target and is reported at the target.
func reportAtSpecifier(sym, target *program.Symbol, f *program.File) bool {
	if len(target.Declarations) == 0 {
		return false
	}
	for _, t := range target.Declarations {
		if t.File.Path != f.Path {
			return false
		}
		for _, d := range sym.Declarations {
			if d.Start <= t.Start && t.End <= d.End {
				return false
			}
		}
	}
	return true
}
