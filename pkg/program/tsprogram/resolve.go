package tsprogram

import (
	"path/filepath"
	"strings"
)

var resolveExtensions = []string{".ts", ".tsx", ".d.ts", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// ESM-style specifiers name the emitted file; the source has a TS extension.
var emittedToSource = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

func isRelativeSpecifier(spec string) bool {
	return spec == "." || spec == ".." ||
		strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// resolveModule maps an import specifier written in from to a loaded file.
func (p *Program) resolveModule(from *sourceFile, spec string) *sourceFile {
	if spec == "" {
		return nil
	}
	if filepath.IsAbs(spec) {
		return p.lookupCandidates(filepath.Clean(spec))
	}
	if isRelativeSpecifier(spec) {
		return p.lookupCandidates(filepath.Join(filepath.Dir(from.file.Path), spec))
	}

	dir := filepath.Dir(from.file.Path)
	for {
		if sf := p.lookupPackage(filepath.Join(dir, "node_modules"), spec); sf != nil {
			return sf
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// lookupCandidates tries base as a file, with each known extension, with
// its emitted extension swapped for a source one, and as a directory index.
func (p *Program) lookupCandidates(base string) *sourceFile {
	if sf, ok := p.byPath[base]; ok {
		return sf
	}
	for _, ext := range resolveExtensions {
		if sf, ok := p.byPath[base+ext]; ok {
			return sf
		}
	}
	if ext := filepath.Ext(base); ext != "" {
		for _, alt := range emittedToSource[ext] {
			if sf, ok := p.byPath[strings.TrimSuffix(base, ext)+alt]; ok {
				return sf
			}
		}
	}
	for _, ext := range resolveExtensions {
		if sf, ok := p.byPath[filepath.Join(base, "index"+ext)]; ok {
			return sf
		}
	}
	return nil
}

func (p *Program) lookupPackage(nodeModules, spec string) *sourceFile {
	base := filepath.Join(nodeModules, spec)
	candidates := []string{
		base + ".d.ts",
		base + ".ts",
		filepath.Join(base, "index.d.ts"),
		filepath.Join(base, "index.ts"),
		filepath.Join(base, "index.js"),
		filepath.Join(nodeModules, "@types", spec, "index.d.ts"),
	}
	for _, c := range candidates {
		if sf, ok := p.byPath[c]; ok {
			return sf
		}
	}
	return nil
}
