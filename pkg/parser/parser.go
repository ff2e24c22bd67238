// Package parser turns TypeScript and JavaScript sources into tree-sitter
// syntax trees.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language is a grammar dialect.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangUnknown    Language = "unknown"
)

var extensions = map[string]Language{
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	// JSX needs the TSX grammar.
	".tsx": LangTSX,
	".jsx": LangTSX,
	".js":  LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
}

// DetectLanguage determines the dialect from a file extension.
func DetectLanguage(path string) Language {
	if lang, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangUnknown
}

// IsSupported reports whether path has a parseable extension.
func IsSupported(path string) bool {
	return DetectLanguage(path) != LangUnknown
}

func grammar(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	}
	return nil, fmt.Errorf("unsupported language: %s", lang)
}

// Parser is a reusable tree-sitter parser. It is not safe for concurrent
// use; workers each hold their own.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult is a parsed file. The tree must be released with Close.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// New creates a parser.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Parse parses source as lang. Cancelling ctx aborts a long parse.
func (p *Parser) Parse(ctx context.Context, source []byte, lang Language, path string) (*ParseResult, error) {
	g, err := grammar(lang)
	if err != nil {
		return nil, err
	}
	p.parser.SetLanguage(g)

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &ParseResult{Tree: tree, Language: lang, Source: source, Path: path}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// Close releases the syntax tree.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// GetNodeText returns the source text under node, or "" for a nil node or
// offsets outside source.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
