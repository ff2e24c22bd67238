package unusedexports

import (
	"path/filepath"
	"slices"

	"github.com/panbanda/deadexports/pkg/diagnostic"
	"github.com/panbanda/deadexports/pkg/program"
)

// ConfigError is a configuration problem found while collecting roots.
// It is reported later, on every checked file.
type ConfigError struct {
	Kind diagnostic.Kind
	Data map[string]string
}

// Message renders the error text.
func (e ConfigError) Message() string {
	return diagnostic.Format(e.Kind, e.Data)
}

// RootCollector accumulates root declarations and configuration errors.
type RootCollector struct {
	model  program.Model
	cwd    string
	roots  *DeclarationSet
	errors []ConfigError
}

// NewRootCollector creates a collector adding to roots. A nil roots
// starts from an empty set.
func NewRootCollector(model program.Model, cwd string, roots *DeclarationSet) *RootCollector {
	if roots == nil {
		roots = NewDeclarationSet()
	}
	return &RootCollector{model: model, cwd: cwd, roots: roots}
}

// Roots returns the collected roots.
func (c *RootCollector) Roots() *DeclarationSet {
	return c.roots
}

// Errors returns the configuration errors in the order they were found.
func (c *RootCollector) Errors() []ConfigError {
	return c.errors
}

// AppendRoot adds the exports of rootFile selected by exportName, or all
// of them when exportName is empty. Missing files and exports are recorded
// as configuration errors; collection continues.
func (c *RootCollector) AppendRoot(rootFile, exportName string) {
	if !filepath.IsAbs(rootFile) && c.cwd != "" {
		rootFile = filepath.Join(c.cwd, rootFile)
	}

	f, ok := c.model.ResolveFile(rootFile)
	if !ok {
		c.errors = append(c.errors, ConfigError{
			Kind: diagnostic.RootFileNotFound,
			Data: map[string]string{"rootFile": rootFile},
		})
		return
	}

	if exportName == "" {
		for _, d := range exportedDeclarations(c.model, f) {
			c.roots.Add(d)
		}
		return
	}

	found := false
	for _, sym := range c.model.ExportsOfModule(f) {
		if c.model.SymbolName(sym) != exportName {
			continue
		}
		found = true
		if sym.IsAlias() {
			sym = c.model.AliasedSymbol(sym)
		}
		if sym == nil {
			continue
		}
		for _, d := range sym.Declarations {
			c.roots.Add(d)
		}
	}
	if !found {
		c.errors = append(c.errors, ConfigError{
			Kind: diagnostic.RootExportNotFound,
			Data: map[string]string{"rootFile": rootFile, "exportName": exportName},
		})
	}
}

// CollectRoots appends every spec in order.
func (c *RootCollector) CollectRoots(specs []RootSpec) {
	for _, r := range specs {
		c.AppendRoot(r.File, r.Export)
	}
}

// ResolveRootsByDocTag returns the exported declarations of project files
// whose doc comment carries one of tagNames.
func ResolveRootsByDocTag(model program.Model, tagNames []string) *DeclarationSet {
	roots := NewDeclarationSet()
	if len(tagNames) == 0 {
		return roots
	}
	for _, f := range model.Files() {
		if f.IsLibrary() {
			continue
		}
		for _, d := range exportedDeclarations(model, f) {
			for _, tag := range model.DocTags(d) {
				if slices.Contains(tagNames, tag) {
					roots.Add(d)
					break
				}
			}
		}
	}
	return roots
}
