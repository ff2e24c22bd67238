package tsprogram

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/deadexports/pkg/parser"
	"github.com/panbanda/deadexports/pkg/program"
)

// scope holds the bindings introduced by one syntax node.
type scope map[string]*program.Symbol

type aliasKind uint8

const (
	// aliasLocal resolves a name in the file's own top-level scope.
	aliasLocal aliasKind = iota
	// aliasExport resolves an export of another module.
	aliasExport
	// aliasNamespace resolves to another module as a whole.
	aliasNamespace
)

type aliasTarget struct {
	kind      aliasKind
	specifier string
	name      string
}

type exportEntry struct {
	name  string
	local string
	sym   *program.Symbol
}

// sourceFile is one parsed and bound file.
type sourceFile struct {
	file *program.File
	tree *sitter.Tree
	root *sitter.Node

	// scopes are keyed by the node that introduces them.
	scopes map[spanKey]scope
	// names maps declaration name tokens to their symbols.
	names map[spanKey]*program.Symbol
	// propertyNames are specifier tokens naming a remote export.
	propertyNames map[spanKey]struct{}
	aliases       map[*program.Symbol]aliasTarget

	exportEntries []exportEntry
	stars         []string

	exports     []*program.Symbol
	exportIndex map[string]*program.Symbol
	module      *program.Symbol
}

func newSourceFile(path string, kind program.FileKind, res *parser.ParseResult) *sourceFile {
	sf := &sourceFile{
		tree:          res.Tree,
		root:          res.Tree.RootNode(),
		scopes:        make(map[spanKey]scope),
		names:         make(map[spanKey]*program.Symbol),
		propertyNames: make(map[spanKey]struct{}),
		aliases:       make(map[*program.Symbol]aliasTarget),
		exportIndex:   make(map[string]*program.Symbol),
	}
	sf.file = &program.File{Path: path, Kind: kind, Source: res.Source}
	sf.file.Root = sf.wrap(sf.root)
	sf.scopes[keyOf(sf.root)] = make(scope)
	return sf
}

func (sf *sourceFile) text(n *sitter.Node) string {
	return parser.GetNodeText(n, sf.file.Source)
}

func (sf *sourceFile) topScope() scope {
	return sf.scopes[keyOf(sf.root)]
}

// lookup resolves name from the position of n outwards.
func (sf *sourceFile) lookup(n *sitter.Node, name string) *program.Symbol {
	for a := n.Parent(); a != nil; a = a.Parent() {
		if sc, ok := sf.scopes[keyOf(a)]; ok {
			if sym := sc[name]; sym != nil {
				return sym
			}
		}
	}
	return nil
}

type binder struct {
	sf *sourceFile
	// lists holds the removal list built for each list node.
	lists map[spanKey]*program.List
}

func bindFile(sf *sourceFile) {
	b := &binder{sf: sf, lists: make(map[spanKey]*program.List)}
	b.walk(sf.root)
}

func (b *binder) walk(n *sitter.Node) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		b.declareNamed(n, program.DeclFunction)
	case "class_declaration", "abstract_class_declaration":
		b.declareNamed(n, program.DeclClass)
	case "interface_declaration":
		b.declareNamed(n, program.DeclInterface)
	case "type_alias_declaration":
		b.declareNamed(n, program.DeclTypeAlias)
	case "enum_declaration":
		b.declareNamed(n, program.DeclEnum)
	case "internal_module", "module":
		b.declareNamed(n, program.DeclNamespace)
	case "function", "function_expression", "generator_function", "class":
		// Named expressions bind their name in their own scope.
		if name := n.ChildByFieldName("name"); name != nil {
			kind := program.DeclFunction
			if n.Type() == "class" {
				kind = program.DeclClass
			}
			b.declare(n, name, b.newDecl(kind, n, name))
		}
	case "variable_declarator":
		b.bindPattern(n.ChildByFieldName("name"), blockOwner(n), program.DeclVariable, n)
	case "formal_parameters":
		b.bindParameters(n)
	case "arrow_function":
		if p := n.ChildByFieldName("parameter"); p != nil {
			b.bindPattern(p, n, program.DeclParameter, p)
		}
	case "type_parameter":
		if name := n.ChildByFieldName("name"); name != nil && n.Parent() != nil && n.Parent().Parent() != nil {
			b.declare(n.Parent().Parent(), name, b.newDecl(program.DeclTypeParameter, n, name))
		}
	case "infer_type":
		b.bindInfer(n)
	case "mapped_type_clause":
		if name := n.ChildByFieldName("name"); name != nil && n.Parent() != nil {
			b.declare(n.Parent(), name, b.newDecl(program.DeclTypeParameter, n, name))
		}
	case "catch_clause":
		if p := n.ChildByFieldName("parameter"); p != nil {
			b.bindPattern(p, n, program.DeclVariable, p)
		}
	case "for_in_statement":
		if left := n.ChildByFieldName("left"); left != nil && declaresLoopVariable(n) {
			b.bindPattern(left, n, program.DeclVariable, left)
		}
	case "import_statement":
		b.bindImport(n)
	case "export_statement":
		if p := n.Parent(); p != nil && p.Type() == "program" {
			b.bindExport(n)
		}
	}

	for i := range int(n.NamedChildCount()) {
		b.walk(n.NamedChild(i))
	}
}

// blockOwner returns the nearest node whose scope holds block-level
// declarations made by n.
func blockOwner(n *sitter.Node) *sitter.Node {
	for a := n.Parent(); a != nil; a = a.Parent() {
		switch a.Type() {
		case "program", "statement_block", "for_statement", "for_in_statement", "switch_body":
			return a
		}
	}
	return n
}

func (b *binder) newDecl(kind program.DeclKind, n, name *sitter.Node) *program.Declaration {
	start, end := outerRange(n)
	return &program.Declaration{
		Kind:  kind,
		File:  b.sf.file,
		Node:  b.sf.wrap(n),
		Name:  b.sf.wrap(name),
		Start: start,
		End:   end,
	}
}

func (b *binder) declareNamed(n *sitter.Node, kind program.DeclKind) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	switch name.Type() {
	case "identifier", "type_identifier":
	default:
		// `declare module "x"` and dotted namespace names bind nothing here.
		return
	}
	b.declare(blockOwner(n), name, b.newDecl(kind, n, name))
}

// declare adds decl under its name to the scope owned by owner, merging
// with an existing symbol of the same name.
func (b *binder) declare(owner, name *sitter.Node, decl *program.Declaration) *program.Symbol {
	sc := b.scopeOf(owner)
	text := b.sf.text(name)
	sym := sc[text]
	if sym == nil || sym.IsAlias() {
		sym = &program.Symbol{Name: text}
		sc[text] = sym
	}
	sym.Declarations = append(sym.Declarations, decl)
	b.sf.names[keyOf(name)] = sym
	return sym
}

func (b *binder) scopeOf(owner *sitter.Node) scope {
	k := keyOf(owner)
	sc, ok := b.sf.scopes[k]
	if !ok {
		sc = make(scope)
		b.sf.scopes[k] = sc
	}
	return sc
}

func (b *binder) bindParameters(params *sitter.Node) {
	owner := params.Parent()
	if owner == nil {
		return
	}
	for i := range int(params.NamedChildCount()) {
		p := params.NamedChild(i)
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			b.bindPattern(p.ChildByFieldName("pattern"), owner, program.DeclParameter, p)
		case "comment", "decorator":
		default:
			b.bindPattern(p, owner, program.DeclParameter, p)
		}
	}
}

// bindPattern declares every name bound by a binding pattern. declNode
// is the node whose subtree belongs to the declarations.
func (b *binder) bindPattern(pat, owner *sitter.Node, kind program.DeclKind, declNode *sitter.Node) {
	if pat == nil {
		return
	}
	switch pat.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		decl := b.newDecl(kind, declNode, pat)
		if declNode.Type() != "variable_declarator" || pat.Parent() == nil || !sameSpan(pat.Parent(), declNode) {
			// Destructured names own just their element.
			decl.Start, decl.End = listElementRange(patternElement(pat))
		}
		if declNode.Type() == "variable_declarator" {
			decl.List, decl.ListIndex = b.slotOf(patternElement(pat))
		}
		b.declare(owner, pat, decl)
	case "object_pattern", "array_pattern":
		for i := range int(pat.NamedChildCount()) {
			b.bindPattern(pat.NamedChild(i), owner, kind, declNode)
		}
	case "pair_pattern":
		b.bindPattern(pat.ChildByFieldName("value"), owner, kind, declNode)
	case "assignment_pattern", "object_assignment_pattern":
		b.bindPattern(pat.ChildByFieldName("left"), owner, kind, declNode)
	case "rest_pattern":
		if pat.NamedChildCount() > 0 {
			b.bindPattern(pat.NamedChild(0), owner, kind, declNode)
		}
	}
}

// patternElement climbs from a bound name to the list element holding it.
func patternElement(n *sitter.Node) *sitter.Node {
	cur := n
	for p := cur.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "pair_pattern", "assignment_pattern", "object_assignment_pattern", "rest_pattern":
			cur = p
			continue
		}
		break
	}
	return cur
}

// slotOf returns the list elem is an element of: the statement for a
// declarator's name, or the enclosing destructuring pattern.
func (b *binder) slotOf(elem *sitter.Node) (*program.List, int) {
	p := elem.Parent()
	if p == nil {
		return nil, 0
	}
	switch p.Type() {
	case "variable_declarator":
		stmt := p.Parent()
		if stmt == nil || !isVariableStatement(stmt) {
			return nil, 0
		}
		decls := namedOfType(stmt, "variable_declarator")
		l, ok := b.lists[keyOf(stmt)]
		if !ok {
			l = b.newList(stmt, program.CommaList, decls)
			l.Start, l.End = outerRange(stmt)
		}
		return l, indexOf(decls, p)
	case "object_pattern", "array_pattern":
		if l := b.patternList(p); l != nil {
			return l, indexOf(patternElements(p), elem)
		}
	}
	return nil, 0
}

func (b *binder) patternList(pat *sitter.Node) *program.List {
	if l, ok := b.lists[keyOf(pat)]; ok {
		return l
	}
	parent, index := b.slotOf(patternElement(pat))
	if parent == nil {
		return nil
	}
	kind := program.CommaList
	switch {
	case pat.Type() == "array_pattern":
		kind = program.PositionalList
	case firstNamedOfType(pat, "rest_pattern") != nil:
		// Removing a property would change what the rest collects.
		kind = program.AtomicList
	}
	l := b.newList(pat, kind, patternElements(pat))
	l.Parent, l.Index = parent, index
	return l
}

func (b *binder) newList(n *sitter.Node, kind program.ListKind, elems []*sitter.Node) *program.List {
	l := &program.List{Kind: kind, Elements: make([]program.Span, len(elems))}
	for i, e := range elems {
		l.Elements[i] = program.Span{Start: int(e.StartByte()), End: int(e.EndByte())}
	}
	b.lists[keyOf(n)] = l
	return l
}

func patternElements(pat *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := range int(pat.NamedChildCount()) {
		if c := pat.NamedChild(i); c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

func indexOf(nodes []*sitter.Node, n *sitter.Node) int {
	for i, c := range nodes {
		if sameSpan(c, n) {
			return i
		}
	}
	return 0
}

func (b *binder) bindInfer(n *sitter.Node) {
	var name *sitter.Node
	for i := range int(n.NamedChildCount()) {
		if c := n.NamedChild(i); c.Type() == "type_identifier" {
			name = c
			break
		}
	}
	if name == nil {
		return
	}
	owner := n.Parent()
	for a := n.Parent(); a != nil; a = a.Parent() {
		if a.Type() == "conditional_type" {
			owner = a
			break
		}
	}
	b.declare(owner, name, b.newDecl(program.DeclTypeParameter, n, name))
}

// outerRange returns the removable source range of a declaration node:
// single-declarator statements and export wrappers are included.
func outerRange(n *sitter.Node) (int, int) {
	cur := n
	if cur.Type() == "variable_declarator" {
		stmt := cur.Parent()
		if stmt == nil || !isVariableStatement(stmt) || countDeclarators(stmt) != 1 {
			return listElementRange(cur)
		}
		cur = stmt
	}
	for p := cur.Parent(); p != nil; p = p.Parent() {
		if t := p.Type(); t != "export_statement" && t != "ambient_declaration" {
			break
		}
		cur = p
	}
	return int(cur.StartByte()), int(cur.EndByte())
}

// listElementRange extends n's range over one adjacent separating comma.
func listElementRange(n *sitter.Node) (int, int) {
	if next := n.NextSibling(); next != nil && next.Type() == "," {
		end := next.EndByte()
		if after := next.NextSibling(); after != nil {
			end = after.StartByte()
		}
		return int(n.StartByte()), int(end)
	}
	if prev := n.PrevSibling(); prev != nil && prev.Type() == "," {
		return int(prev.StartByte()), int(n.EndByte())
	}
	return int(n.StartByte()), int(n.EndByte())
}

// declaresLoopVariable reports whether a for-in/of header starts with
// var, let or const.
func declaresLoopVariable(n *sitter.Node) bool {
	if n.ChildByFieldName("kind") != nil {
		return true
	}
	for i := range int(n.ChildCount()) {
		switch n.Child(i).Type() {
		case "var", "let", "const":
			return true
		}
	}
	return false
}

func isVariableStatement(n *sitter.Node) bool {
	t := n.Type()
	return t == "lexical_declaration" || t == "variable_declaration"
}

func countDeclarators(stmt *sitter.Node) int {
	count := 0
	for i := range int(stmt.NamedChildCount()) {
		if stmt.NamedChild(i).Type() == "variable_declarator" {
			count++
		}
	}
	return count
}

func stringValue(sf *sourceFile, n *sitter.Node) string {
	return strings.Trim(sf.text(n), "\"'`")
}

func (b *binder) newAlias(name string, nameNode, declNode *sitter.Node, target aliasTarget, kind program.DeclKind) *program.Symbol {
	start, end := listElementRange(declNode)
	decl := &program.Declaration{
		Kind:  kind,
		File:  b.sf.file,
		Node:  b.sf.wrap(declNode),
		Name:  b.sf.wrap(nameNode),
		Start: start,
		End:   end,
	}
	sym := &program.Symbol{
		Name:         name,
		Flags:        program.SymbolAlias,
		Declarations: []*program.Declaration{decl},
	}
	b.sf.aliases[sym] = target
	if nameNode != nil {
		b.sf.names[keyOf(nameNode)] = sym
	}
	return sym
}

func (b *binder) bindImport(n *sitter.Node) {
	source := n.ChildByFieldName("source")
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		switch c.Type() {
		case "import_clause":
			if source != nil {
				b.bindImportClause(c, stringValue(b.sf, source))
			}
		case "import_require_clause":
			b.bindRequireClause(c)
		}
	}
}

func (b *binder) bindImportClause(clause *sitter.Node, spec string) {
	owner := blockOwner(clause)
	for i := range int(clause.NamedChildCount()) {
		c := clause.NamedChild(i)
		switch c.Type() {
		case "identifier":
			b.importAlias(owner, c, c, aliasTarget{kind: aliasExport, specifier: spec, name: "default"})
		case "namespace_import":
			if id := firstNamedOfType(c, "identifier"); id != nil {
				b.importAlias(owner, id, c, aliasTarget{kind: aliasNamespace, specifier: spec})
			}
		case "named_imports":
			for j := range int(c.NamedChildCount()) {
				s := c.NamedChild(j)
				if s.Type() != "import_specifier" {
					continue
				}
				name := s.ChildByFieldName("name")
				local := s.ChildByFieldName("alias")
				if name == nil {
					continue
				}
				if local == nil {
					local = name
				} else {
					b.sf.propertyNames[keyOf(name)] = struct{}{}
				}
				b.importAlias(owner, local, s, aliasTarget{kind: aliasExport, specifier: spec, name: stringValue(b.sf, name)})
			}
		}
	}
}

// bindRequireClause handles `import x = require("m")`.
func (b *binder) bindRequireClause(c *sitter.Node) {
	id := firstNamedOfType(c, "identifier")
	source := c.ChildByFieldName("source")
	if source == nil {
		source = firstNamedOfType(c, "string")
	}
	if id == nil || source == nil {
		return
	}
	b.importAlias(blockOwner(c), id, c, aliasTarget{kind: aliasNamespace, specifier: stringValue(b.sf, source)})
}

func (b *binder) importAlias(owner, nameNode, declNode *sitter.Node, target aliasTarget) {
	name := b.sf.text(nameNode)
	sym := b.newAlias(name, nameNode, declNode, target, program.DeclImport)
	b.scopeOf(owner)[name] = sym
}

func (b *binder) bindExport(n *sitter.Node) {
	isDefault := firstChildOfType(n, "default") != nil

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		for _, name := range declaredNames(decl) {
			if isDefault {
				sym := b.newAlias("default", nil, n, aliasTarget{kind: aliasLocal, name: b.sf.text(name)}, program.DeclExportSpecifier)
				b.export("default", "", sym)
				continue
			}
			b.export(b.sf.text(name), b.sf.text(name), nil)
		}
		return
	}

	if value := n.ChildByFieldName("value"); value != nil {
		if value.Type() == "identifier" {
			sym := b.newAlias("default", value, n, aliasTarget{kind: aliasLocal, name: b.sf.text(value)}, program.DeclExportSpecifier)
			b.export("default", "", sym)
			return
		}
		start, end := outerRange(n)
		sym := &program.Symbol{Name: "default", Declarations: []*program.Declaration{{
			Kind:  program.DeclDefaultExport,
			File:  b.sf.file,
			Node:  b.sf.wrap(n),
			Start: start,
			End:   end,
		}}}
		b.export("default", "", sym)
		return
	}

	var spec string
	source := n.ChildByFieldName("source")
	if source != nil {
		spec = stringValue(b.sf, source)
	}

	if ns := firstNamedOfType(n, "namespace_export"); ns != nil {
		if id := firstNamedOfType(ns, "identifier"); id != nil && source != nil {
			sym := b.newAlias(b.sf.text(id), id, ns, aliasTarget{kind: aliasNamespace, specifier: spec}, program.DeclExportSpecifier)
			b.export(sym.Name, "", sym)
		}
		return
	}

	clause := firstNamedOfType(n, "export_clause")
	if clause == nil {
		if source != nil {
			b.sf.stars = append(b.sf.stars, spec)
		}
		return
	}

	specs := namedOfType(clause, "export_specifier")
	list := b.newList(clause, program.CommaList, specs)
	list.Start, list.End = outerRange(n)
	for i, s := range specs {
		name := s.ChildByFieldName("name")
		if name == nil {
			continue
		}
		exported := s.ChildByFieldName("alias")
		if exported == nil {
			exported = name
		} else {
			b.sf.propertyNames[keyOf(name)] = struct{}{}
		}
		target := aliasTarget{kind: aliasLocal, name: stringValue(b.sf, name)}
		if source != nil {
			target = aliasTarget{kind: aliasExport, specifier: spec, name: stringValue(b.sf, name)}
		}
		exportedName := stringValue(b.sf, exported)
		sym := b.newAlias(exportedName, exported, s, target, program.DeclExportSpecifier)
		sym.Declarations[0].List, sym.Declarations[0].ListIndex = list, i
		b.export(exportedName, "", sym)
	}
}

func (b *binder) export(name, local string, sym *program.Symbol) {
	b.sf.exportEntries = append(b.sf.exportEntries, exportEntry{name: name, local: local, sym: sym})
}

// declaredNames returns the name tokens a declaration statement binds.
func declaredNames(decl *sitter.Node) []*sitter.Node {
	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []*sitter.Node
		for i := range int(decl.NamedChildCount()) {
			d := decl.NamedChild(i)
			if d.Type() == "variable_declarator" {
				names = append(names, patternNames(d.ChildByFieldName("name"))...)
			}
		}
		return names
	case "ambient_declaration":
		for i := range int(decl.NamedChildCount()) {
			if names := declaredNames(decl.NamedChild(i)); len(names) > 0 {
				return names
			}
		}
		return nil
	}
	name := decl.ChildByFieldName("name")
	if name == nil {
		return nil
	}
	switch name.Type() {
	case "identifier", "type_identifier":
		return []*sitter.Node{name}
	}
	return nil
}

func patternNames(pat *sitter.Node) []*sitter.Node {
	if pat == nil {
		return nil
	}
	switch pat.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []*sitter.Node{pat}
	case "pair_pattern":
		return patternNames(pat.ChildByFieldName("value"))
	case "assignment_pattern", "object_assignment_pattern":
		return patternNames(pat.ChildByFieldName("left"))
	}
	var names []*sitter.Node
	for i := range int(pat.NamedChildCount()) {
		names = append(names, patternNames(pat.NamedChild(i))...)
	}
	return names
}

func firstNamedOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := range int(n.NamedChildCount()) {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func namedOfType(n *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	for i := range int(n.NamedChildCount()) {
		if c := n.NamedChild(i); c.Type() == typ {
			out = append(out, c)
		}
	}
	return out
}

func firstChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := range int(n.ChildCount()) {
		if c := n.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}
