package tsprogram

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/deadexports/pkg/program"
)

// SymbolAtLocation implements program.Model.
func (p *Program) SymbolAtLocation(n program.Node) *program.Symbol {
	w, ok := n.(*node)
	if !ok || w == nil {
		return nil
	}
	switch classify(w.n) {
	case program.NodeOther:
		return nil
	case program.NodeMemberName:
		return p.memberSymbol(w.sf, w.n)
	}

	k := keyOf(w.n)
	if sym, ok := w.sf.names[k]; ok {
		return sym
	}
	if _, ok := w.sf.propertyNames[k]; ok {
		return nil
	}
	return w.sf.lookup(w.n, w.sf.text(w.n))
}

// qualifierOf returns the left-hand side of a qualified name.
func qualifierOf(n *sitter.Node) *sitter.Node {
	parent := n.Parent()
	if parent == nil {
		return nil
	}
	switch parent.Type() {
	case "member_expression":
		return parent.ChildByFieldName("object")
	case "nested_type_identifier":
		return parent.ChildByFieldName("module")
	case "nested_identifier":
		return parent.NamedChild(0)
	}
	return nil
}

// memberSymbol resolves ns.name where ns denotes a module.
func (p *Program) memberSymbol(sf *sourceFile, n *sitter.Node) *program.Symbol {
	q := qualifierOf(n)
	if q == nil {
		return nil
	}
	var qsym *program.Symbol
	switch q.Type() {
	case "identifier":
		qsym = sf.lookup(q, sf.text(q))
	case "member_expression":
		if prop := q.ChildByFieldName("property"); prop != nil {
			qsym = p.memberSymbol(sf, prop)
		}
	case "nested_identifier", "nested_type_identifier":
		if last := q.NamedChild(int(q.NamedChildCount()) - 1); last != nil {
			qsym = p.memberSymbol(sf, last)
		}
	}
	target, ok := p.modules[p.AliasedSymbol(qsym)]
	if !ok {
		return nil
	}
	return target.exportIndex[sf.text(n)]
}

// AliasedSymbol implements program.Model. Chains are followed to the end;
// cycles and unresolved specifiers yield nil.
func (p *Program) AliasedSymbol(s *program.Symbol) *program.Symbol {
	seen := make(map[*program.Symbol]struct{})
	for s != nil && s.IsAlias() {
		if _, loop := seen[s]; loop {
			return nil
		}
		seen[s] = struct{}{}

		target, ok := p.aliases[s]
		if !ok {
			return nil
		}
		owner := p.aliasOwner[s]
		switch target.kind {
		case aliasLocal:
			s = owner.topScope()[target.name]
		case aliasExport:
			mod := p.resolveModule(owner, target.specifier)
			if mod == nil {
				return nil
			}
			s = mod.exportIndex[target.name]
		case aliasNamespace:
			mod := p.resolveModule(owner, target.specifier)
			if mod == nil {
				return nil
			}
			s = mod.module
		}
	}
	return s
}

var docTagPattern = regexp.MustCompile(`(?:^|[\s*{])@([A-Za-z_][\w-]*)`)

// DocTags implements program.Model. Tags come from the closest `/** */`
// comment directly preceding the declaration's statement.
func (p *Program) DocTags(d *program.Declaration) []string {
	w, ok := d.Node.(*node)
	if !ok || w == nil {
		return nil
	}
	stmt := statementOf(w.n)
	for prev := stmt.PrevSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevSibling() {
		text := w.sf.text(prev)
		if strings.HasPrefix(text, "/**") {
			return parseDocTags(text)
		}
	}
	return nil
}

func statementOf(n *sitter.Node) *sitter.Node {
	cur := n
	for p := cur.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "variable_declarator", "lexical_declaration", "variable_declaration", "export_statement", "ambient_declaration":
			cur = p
			continue
		}
		break
	}
	return cur
}

func parseDocTags(comment string) []string {
	var tags []string
	for _, m := range docTagPattern.FindAllStringSubmatch(comment, -1) {
		tags = append(tags, m[1])
	}
	return tags
}
