// Package tsprogram builds a program.Model for TypeScript and JavaScript
// sources from tree-sitter syntax trees.
//
// The model binds lexical scopes, imports and exports per file and resolves
// relative and node_modules module specifiers against the loaded file set.
// It performs no type inference: only names are resolved.
package tsprogram

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/panbanda/deadexports/internal/fileproc"
	"github.com/panbanda/deadexports/pkg/parser"
	"github.com/panbanda/deadexports/pkg/program"
	"github.com/panbanda/deadexports/pkg/source"
)

// Program is a loaded, bound and export-resolved set of files.
type Program struct {
	files       []*sourceFile
	byPath      map[string]*sourceFile
	modules     map[*program.Symbol]*sourceFile
	aliases     map[*program.Symbol]aliasTarget
	aliasOwner  map[*program.Symbol]*sourceFile
	fingerprint string
	errs        *fileproc.ProcessingErrors
}

var _ program.Model = (*Program)(nil)

type loadConfig struct {
	maxWorkers int
	onProgress fileproc.ProgressFunc
}

// Option configures Load.
type Option func(*loadConfig)

// WithMaxWorkers bounds the number of files parsed concurrently.
func WithMaxWorkers(n int) Option {
	return func(c *loadConfig) {
		c.maxWorkers = n
	}
}

// WithProgress registers a callback invoked once per processed file.
func WithProgress(fn func()) Option {
	return func(c *loadConfig) {
		c.onProgress = fn
	}
}

// Load parses and binds paths read from src. Files that cannot be read or
// parsed are skipped and reported through Errors. Only context
// cancellation makes Load fail.
func Load(ctx context.Context, src source.ContentSource, paths []string, opts ...Option) (*Program, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	files, errs := fileproc.MapFilesN(ctx, normalizePaths(paths), fileproc.Options{
		MaxWorkers: cfg.maxWorkers,
		OnProgress: cfg.onProgress,
	}, func(psr *parser.Parser, path string) (*sourceFile, error) {
		content, err := src.Read(path)
		if err != nil {
			return nil, err
		}
		lang := parser.DetectLanguage(path)
		if lang == parser.LangUnknown {
			return nil, fmt.Errorf("unsupported file type")
		}
		res, err := psr.Parse(ctx, content, lang, path)
		if err != nil {
			return nil, err
		}
		sf := newSourceFile(path, ClassifyFile(path), res)
		bindFile(sf)
		return sf, nil
	})
	if err := ctx.Err(); err != nil {
		for _, sf := range files {
			sf.tree.Close()
		}
		return nil, err
	}

	p := &Program{
		files:      files,
		byPath:     make(map[string]*sourceFile, len(files)),
		modules:    make(map[*program.Symbol]*sourceFile, len(files)),
		aliases:    make(map[*program.Symbol]aliasTarget),
		aliasOwner: make(map[*program.Symbol]*sourceFile),
		errs:       errs,
	}
	for _, sf := range files {
		p.byPath[sf.file.Path] = sf
		sf.module = &program.Symbol{Name: strconv.Quote(sf.file.Path), Flags: program.SymbolModule}
		p.modules[sf.module] = sf
		for sym, target := range sf.aliases {
			p.aliases[sym] = target
			p.aliasOwner[sym] = sf
		}
	}
	p.buildExports()
	p.fingerprint = fingerprint(files)
	return p, nil
}

func normalizePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

var defaultLibPattern = regexp.MustCompile(`^lib(\.[\w.-]+)?\.d\.ts$`)

// ClassifyFile decides whether path is a project, external library or
// default-library file.
func ClassifyFile(path string) program.FileKind {
	slashed := filepath.ToSlash(path)
	if strings.Contains("/"+slashed, "/node_modules/") {
		return program.ExternalLibraryFile
	}
	if defaultLibPattern.MatchString(filepath.Base(path)) {
		return program.DefaultLibraryFile
	}
	return program.ProjectFile
}

func fingerprint(files []*sourceFile) string {
	h := blake3.New()
	for _, sf := range files {
		fmt.Fprintf(h, "%s\x00%d\x00", sf.file.Path, len(sf.file.Source))
		h.Write(sf.file.Source)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Errors returns the per-file load failures.
func (p *Program) Errors() *fileproc.ProcessingErrors {
	return p.errs
}

// Close releases the syntax trees. The program must not be used afterwards.
func (p *Program) Close() {
	for _, sf := range p.files {
		sf.tree.Close()
	}
}

// Files implements program.Model.
func (p *Program) Files() []*program.File {
	out := make([]*program.File, len(p.files))
	for i, sf := range p.files {
		out[i] = sf.file
	}
	return out
}

// File implements program.Model.
func (p *Program) File(path string) (*program.File, bool) {
	sf, ok := p.byPath[filepath.Clean(path)]
	if !ok {
		return nil, false
	}
	return sf.file, true
}

// ResolveFile implements program.Model.
func (p *Program) ResolveFile(path string) (*program.File, bool) {
	sf := p.lookupCandidates(filepath.Clean(path))
	if sf == nil {
		return nil, false
	}
	return sf.file, true
}

// Fingerprint implements program.Model.
func (p *Program) Fingerprint() string {
	return p.fingerprint
}

// SymbolName implements program.Model.
func (p *Program) SymbolName(s *program.Symbol) string {
	if s == nil {
		return ""
	}
	return s.Name
}

// ExportsOfModule implements program.Model.
func (p *Program) ExportsOfModule(f *program.File) []*program.Symbol {
	sf, ok := p.byPath[f.Path]
	if !ok {
		return nil
	}
	return sf.exports
}

// buildExports computes every file's export table, expanding `export *`.
func (p *Program) buildExports() {
	state := make(map[*sourceFile]uint8, len(p.files))
	for _, sf := range p.files {
		p.exportsOf(sf, state)
	}
}

const (
	exportsVisiting uint8 = 1
	exportsDone     uint8 = 2
)

func (p *Program) exportsOf(sf *sourceFile, state map[*sourceFile]uint8) {
	if state[sf] != 0 {
		return
	}
	state[sf] = exportsVisiting

	add := func(name string, sym *program.Symbol) {
		if sym == nil {
			return
		}
		if _, dup := sf.exportIndex[name]; dup {
			return
		}
		sf.exportIndex[name] = sym
		sf.exports = append(sf.exports, sym)
	}

	top := sf.topScope()
	for _, e := range sf.exportEntries {
		sym := e.sym
		if sym == nil {
			sym = top[e.local]
		}
		add(e.name, sym)
	}

	for _, spec := range sf.stars {
		target := p.resolveModule(sf, spec)
		if target == nil || state[target] == exportsVisiting {
			continue
		}
		p.exportsOf(target, state)
		for _, sym := range target.exports {
			if sym.Name == "default" {
				continue
			}
			add(sym.Name, sym)
		}
	}

	state[sf] = exportsDone
}
