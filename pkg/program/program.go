// Package program defines the read-only program model the unused-export
// analysis runs against: files, syntax nodes, symbols and declarations.
//
// A Model is an immutable snapshot. Syntax trees may cache nodes lazily,
// so a Model should be read from one goroutine at a time.
package program

import (
	"github.com/panbanda/deadexports/pkg/locmap"
)

// Model is a loaded multi-file program.
type Model interface {
	// Files returns every file in the program in a stable order.
	Files() []*File
	// File returns the file with the exact (cleaned) path.
	File(path string) (*File, bool)
	// ResolveFile looks path up trying the module-resolution extension
	// candidates, so "src/main" finds "src/main.ts".
	ResolveFile(path string) (*File, bool)

	// SymbolAtLocation returns the symbol a reference node denotes, or nil.
	SymbolAtLocation(n Node) *Symbol
	// AliasedSymbol follows alias symbols to their final target. Non-alias
	// symbols are returned unchanged; unresolvable aliases yield nil.
	AliasedSymbol(s *Symbol) *Symbol
	// SymbolName returns the display name of s.
	SymbolName(s *Symbol) string
	// ExportsOfModule returns the export symbols of f in source order.
	ExportsOfModule(f *File) []*Symbol
	// DocTags returns the doc-comment tag names attached to d.
	DocTags(d *Declaration) []string

	// Fingerprint identifies the snapshot's content.
	Fingerprint() string
}

// FileKind classifies a file's origin.
type FileKind uint8

const (
	// ProjectFile is a file that belongs to the analysed project.
	ProjectFile FileKind = iota
	// ExternalLibraryFile is a third-party file (under node_modules).
	ExternalLibraryFile
	// DefaultLibraryFile is a bundled platform declaration file (lib.*.d.ts).
	DefaultLibraryFile
)

func (k FileKind) String() string {
	switch k {
	case ProjectFile:
		return "project"
	case ExternalLibraryFile:
		return "external"
	case DefaultLibraryFile:
		return "default-lib"
	default:
		return "unknown"
	}
}

// File is a source file of the program.
type File struct {
	Path   string
	Kind   FileKind
	Source []byte
	Root   Node
}

// IsLibrary reports whether f is an external or default-library file.
func (f *File) IsLibrary() bool {
	return f.Kind != ProjectFile
}

// NodeKind is the closed set of node categories the analysis cares about.
type NodeKind uint8

const (
	NodeOther NodeKind = iota
	// NodeIdentifier is a value-position identifier.
	NodeIdentifier
	// NodeTypeIdentifier is a type-position identifier.
	NodeTypeIdentifier
	// NodeMemberName is the right-hand name of a qualified access (ns.x).
	NodeMemberName
)

// IsReference reports whether nodes of kind k may denote a symbol.
func (k NodeKind) IsReference() bool {
	return k != NodeOther
}

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line" toon:"line"`
	Column int `json:"column" toon:"column"`
}

// Node is a syntax node.
type Node interface {
	Kind() NodeKind
	// Type is the grammar's node type name.
	Type() string
	File() *File
	StartByte() int
	EndByte() int
	StartPosition() Position
	EndPosition() Position
	ChildCount() int
	Child(i int) Node
	Text() string
}

// SameNode reports whether a and b denote the same syntax node.
func SameNode(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.File() == b.File() &&
		a.StartByte() == b.StartByte() &&
		a.EndByte() == b.EndByte() &&
		a.Type() == b.Type()
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := range n.ChildCount() {
		Walk(n.Child(i), fn)
	}
}

// SymbolFlags describe a symbol.
type SymbolFlags uint8

const (
	// SymbolAlias marks import bindings and export specifiers.
	SymbolAlias SymbolFlags = 1 << iota
	// SymbolModule marks the symbol of a whole file, the target of a
	// namespace import. Module symbols have no declarations; members are
	// looked up through the file's exports.
	SymbolModule
)

// Symbol is a named entity with zero or more declarations.
type Symbol struct {
	Name         string
	Flags        SymbolFlags
	Declarations []*Declaration
}

// IsAlias reports whether s must be resolved through AliasedSymbol.
func (s *Symbol) IsAlias() bool {
	return s.Flags&SymbolAlias != 0
}

// Location returns the location key of d.
func (d *Declaration) Location() locmap.Key {
	return locmap.Key{File: d.File.Path, Pos: d.Start}
}
