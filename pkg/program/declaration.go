package program

// DeclKind is the closed set of declaration kinds.
type DeclKind uint8

const (
	DeclFunction DeclKind = iota
	DeclClass
	DeclInterface
	DeclTypeAlias
	DeclEnum
	DeclNamespace
	DeclVariable
	DeclParameter
	DeclTypeParameter
	DeclImport
	DeclExportSpecifier
	// DeclDefaultExport is an anonymous `export default <expression>`.
	DeclDefaultExport
)

var declKindNames = [...]string{
	DeclFunction:        "function",
	DeclClass:           "class",
	DeclInterface:       "interface",
	DeclTypeAlias:       "type",
	DeclEnum:            "enum",
	DeclNamespace:       "namespace",
	DeclVariable:        "variable",
	DeclParameter:       "parameter",
	DeclTypeParameter:   "type-parameter",
	DeclImport:          "import",
	DeclExportSpecifier: "export-specifier",
	DeclDefaultExport:   "default-export",
}

func (k DeclKind) String() string {
	if int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return "unknown"
}

// Declaration is a definition site. Its identity is (File.Path, Start).
type Declaration struct {
	Kind DeclKind
	File *File
	// Node is the subtree searched for references when the declaration
	// is alive.
	Node Node
	// Name is the name token; nil for anonymous declarations.
	Name Node
	// Start and End delimit the full source text of the declaration,
	// including any export keyword. Deleting [Start, End) removes it when
	// it is not part of a List.
	Start int
	End   int
	// List is the comma-separated list the declaration is an element of,
	// at ListIndex. Use RemovalRanges to delete list elements.
	List      *List
	ListIndex int
}

// NameText returns the declared name, or "" for anonymous declarations.
func (d *Declaration) NameText() string {
	if d.Name == nil {
		return ""
	}
	return d.Name.Text()
}

// IsNameNode reports whether n is the name token of d.
func (d *Declaration) IsNameNode(n Node) bool {
	return d.Name != nil && SameNode(d.Name, n)
}
