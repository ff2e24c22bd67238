package tsprogram

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/deadexports/pkg/parser"
	"github.com/panbanda/deadexports/pkg/program"
)

// node adapts a tree-sitter node to program.Node.
type node struct {
	n  *sitter.Node
	sf *sourceFile
}

var _ program.Node = (*node)(nil)

func (sf *sourceFile) wrap(n *sitter.Node) program.Node {
	if n == nil {
		return nil
	}
	return &node{n: n, sf: sf}
}

func (w *node) Kind() program.NodeKind {
	return classify(w.n)
}

func (w *node) Type() string { return w.n.Type() }
func (w *node) File() *program.File { return w.sf.file }
func (w *node) StartByte() int { return int(w.n.StartByte()) }
func (w *node) EndByte() int { return int(w.n.EndByte()) }
func (w *node) ChildCount() int { return int(w.n.ChildCount()) }
func (w *node) Text() string { return parser.GetNodeText(w.n, w.sf.file.Source) }
func (w *node) Child(i int) program.Node { return w.sf.wrap(w.n.Child(i)) }

func (w *node) StartPosition() program.Position {
	p := w.n.StartPoint()
	return program.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (w *node) EndPosition() program.Position {
	p := w.n.EndPoint()
	return program.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

// classify maps grammar node types onto the closed reference kinds.
func classify(n *sitter.Node) program.NodeKind {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		if isQualifiedName(n) {
			return program.NodeMemberName
		}
		return program.NodeIdentifier
	case "type_identifier":
		if isQualifiedName(n) {
			return program.NodeMemberName
		}
		return program.NodeTypeIdentifier
	case "property_identifier":
		if isQualifiedName(n) {
			return program.NodeMemberName
		}
	}
	return program.NodeOther
}

// isQualifiedName reports whether n is the right-hand side of a.b,
// a.B in type position, or a nested namespace path.
func isQualifiedName(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "member_expression":
		return sameSpan(parent.ChildByFieldName("property"), n)
	case "nested_type_identifier":
		return sameSpan(parent.ChildByFieldName("name"), n)
	case "nested_identifier":
		// The last child of a nested_identifier is the member name.
		return sameSpan(parent.Child(int(parent.ChildCount())-1), n)
	}
	return false
}

// spanKey identifies a syntax node within one file.
type spanKey struct {
	start, end uint32
	typ        string
}

func keyOf(n *sitter.Node) spanKey {
	return spanKey{start: n.StartByte(), end: n.EndByte(), typ: n.Type()}
}

func sameSpan(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return keyOf(a) == keyOf(b)
}
