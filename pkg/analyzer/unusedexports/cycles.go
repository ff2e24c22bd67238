package unusedexports

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/panbanda/deadexports/pkg/locmap"
	"github.com/panbanda/deadexports/pkg/program"
)

// DeadCycle is a strongly connected group of unused exports: its members
// reference each other but nothing alive references them. A single
// member references itself.
type DeadCycle struct {
	Members []*program.Declaration
}

// FindDeadCycles groups the unused exports of project files into reference
// cycles. Only root-based runs have dead cycles; in whole-program mode
// every member of a cycle counts as used.
func FindDeadCycles(model program.Model, sem *Semantics) []DeadCycle {
	if sem.Mode != RootBased {
		return nil
	}

	dead := NewDeclarationSet()
	for _, f := range model.Files() {
		if f.IsLibrary() {
			continue
		}
		for _, d := range exportedDeclarations(model, f) {
			if d.File.Path == f.Path && !sem.Alive.Has(d) {
				dead.Add(d)
			}
		}
	}
	if dead.IsEmpty() {
		return nil
	}

	decls := dead.Slice()
	ids := locmap.New[int64]()
	g := simple.NewDirectedGraph()
	for i, d := range decls {
		ids.Set(d.Location(), int64(i))
		g.AddNode(simple.Node(int64(i)))
	}

	// The graph holds no self edges; they are tracked here.
	selfRef := make(map[int64]bool)
	for i, d := range decls {
		refs := NewDeclarationSet()
		CollectReferencedDeclarations(model, d.Node, refs)
		refs.Range(func(ref *program.Declaration) bool {
			to, ok := ids.Get(ref.Location())
			switch {
			case !ok:
			case to == int64(i):
				selfRef[to] = true
			default:
				g.SetEdge(g.NewEdge(simple.Node(int64(i)), simple.Node(to)))
			}
			return true
		})
	}

	var cycles []DeadCycle
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) == 1 && !selfRef[scc[0].ID()] {
			continue
		}
		members := make([]*program.Declaration, len(scc))
		for i, n := range scc {
			members[i] = decls[n.ID()]
		}
		sortDeclarations(members)
		cycles = append(cycles, DeadCycle{Members: members})
	}
	sort.Slice(cycles, func(i, j int) bool {
		return lessDeclaration(cycles[i].Members[0], cycles[j].Members[0])
	})
	return cycles
}

func lessDeclaration(a, b *program.Declaration) bool {
	if a.File.Path != b.File.Path {
		return a.File.Path < b.File.Path
	}
	return a.Start < b.Start
}

func sortDeclarations(ds []*program.Declaration) {
	sort.Slice(ds, func(i, j int) bool { return lessDeclaration(ds[i], ds[j]) })
}
