package unusedexports

import (
	"github.com/panbanda/deadexports/pkg/program"
)

// ResolveUsingDeclarationsByRoots returns every declaration transitively
// referenced from roots, roots included.
//
// Each declaration is expanded at most once, so reference cycles
// terminate. roots is not modified.
func ResolveUsingDeclarationsByRoots(model program.Model, roots *DeclarationSet) *DeclarationSet {
	alive := NewDeclarationSet()
	visiting := roots.Clone()

	for {
		d, ok := visiting.Pop()
		if !ok {
			break
		}
		if !alive.Add(d) {
			continue
		}
		CollectReferencedDeclarations(model, d.Node, visiting)
	}
	return alive
}

// ResolveUsingDeclarationsByAnyFile returns every declaration referenced
// from any project file. A declaration that only references itself is
// counted as used.
func ResolveUsingDeclarationsByAnyFile(model program.Model) *DeclarationSet {
	referenced := NewDeclarationSet()
	for _, f := range model.Files() {
		if f.IsLibrary() {
			continue
		}
		CollectReferencedDeclarations(model, f.Root, referenced)
	}
	return referenced
}
