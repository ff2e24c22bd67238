package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/deadexports/internal/output"
	"github.com/panbanda/deadexports/internal/service/analysis"
	"github.com/panbanda/deadexports/pkg/analyzer/unusedexports"
	"github.com/panbanda/deadexports/pkg/config"
	"github.com/panbanda/deadexports/pkg/models"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.ts"),
		[]byte("export function used() {}\nexport function _internal() {}\nexport const stale = 1;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.ts"),
		[]byte("import { used } from \"./lib\";\n/** @root */\nexport function main() { used(); }\n"), 0o644))
	return dir
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func TestNewServer(t *testing.T) {
	s := NewServer("1.0.0-test", nil)
	require.NotNil(t, s.server)
	require.NotNil(t, s.service)

	assert.NotNil(t, NewServer("", analysis.New()))
}

func TestDescribeFindUnusedExports(t *testing.T) {
	desc := describeFindUnusedExports()
	assert.Contains(t, desc, "USE WHEN:")
	assert.Contains(t, desc, "INTERPRETING RESULTS:")
}

func TestGetPaths(t *testing.T) {
	assert.Equal(t, []string{"."}, getPaths(FindUnusedExportsInput{}))
	assert.Equal(t, []string{"/a", "/b"}, getPaths(FindUnusedExportsInput{Paths: []string{"/a", "/b"}}))
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		format string
		want   output.Format
	}{
		{"", output.FormatTOON},
		{"toon", output.FormatTOON},
		{"json", output.FormatJSON},
		{"markdown", output.FormatMarkdown},
		{"md", output.FormatMarkdown},
		{"text", output.FormatTOON},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, getFormat(FindUnusedExportsInput{Format: tt.format}))
		})
	}
}

func TestApplyInput(t *testing.T) {
	base := unusedexports.Options{
		IgnorePattern: "^_",
		Roots:         []unusedexports.RootSpec{{File: "cfg.ts"}},
	}

	got := applyInput(base, FindUnusedExportsInput{})
	assert.Equal(t, base, got)

	got = applyInput(base, FindUnusedExportsInput{
		Roots:    []string{"main.ts#run", "cli.ts"},
		RootTags: []string{"public"},
		Cwd:      "/repo",
	})
	assert.Equal(t, []unusedexports.RootSpec{{File: "main.ts", Export: "run"}, {File: "cli.ts"}}, got.Roots)
	assert.Equal(t, []string{"public"}, got.RootTags.TagNames())
	assert.Equal(t, "^_", got.IgnorePattern)
	assert.Equal(t, "/repo", got.Cwd)
	assert.Equal(t, []unusedexports.RootSpec{{File: "cfg.ts"}}, base.Roots, "base is not modified")

	got = applyInput(base, FindUnusedExportsInput{DefaultRootTags: true, IgnorePattern: "x"})
	assert.Equal(t, unusedexports.DefaultRootTagNames, got.RootTags.TagNames())
	assert.Equal(t, "x", got.IgnorePattern)
}

func TestToolError(t *testing.T) {
	result, _, err := toolError("boom")
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: boom", resultText(t, result))
}

func TestHandleFindUnusedExports_JSON(t *testing.T) {
	dir := writeProject(t)
	s := NewServer("test", nil)

	result, _, err := s.handleFindUnusedExports(context.Background(), nil, FindUnusedExportsInput{
		Paths:  []string{dir},
		Format: "json",
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var got models.ExportAnalysis
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
	assert.Equal(t, "whole-program", got.Mode, "root tags are off by default")

	var names []string
	for _, d := range got.Unused() {
		names = append(names, d.Data["varName"])
	}
	assert.ElementsMatch(t, []string{"_internal", "stale", "main"}, names)
}

func TestHandleFindUnusedExports_Options(t *testing.T) {
	dir := writeProject(t)
	s := NewServer("test", nil)

	result, _, err := s.handleFindUnusedExports(context.Background(), nil, FindUnusedExportsInput{
		Paths:           []string{dir},
		DefaultRootTags: true,
		IgnorePattern:   "^_",
		Format:          "markdown",
	})
	require.NoError(t, err)
	text := resultText(t, result)
	require.False(t, result.IsError, text)

	assert.Contains(t, text, "**Mode:** root-based")
	assert.Contains(t, text, "| stale |")
	assert.NotContains(t, text, "_internal")
	assert.NotContains(t, text, "| used |")
}

func TestHandleFindUnusedExports_TOON(t *testing.T) {
	dir := writeProject(t)
	s := NewServer("test", nil)

	result, _, err := s.handleFindUnusedExports(context.Background(), nil, FindUnusedExportsInput{Paths: []string{dir}})
	require.NoError(t, err)
	text := resultText(t, result)
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "whole-program")
	assert.Contains(t, text, "stale")
}

func TestHandleFindUnusedExports_Errors(t *testing.T) {
	s := NewServer("test", nil)

	result, _, err := s.handleFindUnusedExports(context.Background(), nil, FindUnusedExportsInput{
		Paths: []string{t.TempDir()},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), analysis.ErrNoFiles.Error())

	result, _, err = s.handleFindUnusedExports(context.Background(), nil, FindUnusedExportsInput{
		Paths:         []string{writeProject(t)},
		IgnorePattern: "(",
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid options")
}

func TestLoadPrompts_Embedded(t *testing.T) {
	prompts, err := loadPrompts(promptFiles)
	require.NoError(t, err)
	require.Len(t, prompts, 1)

	p := prompts[0]
	assert.Equal(t, "remove-unused-exports", p.Name)
	assert.NotEmpty(t, p.Description)
	require.Len(t, p.Arguments, 2)
	assert.Equal(t, "path", p.Arguments[0].Name)
	assert.Equal(t, "roots", p.Arguments[1].Name)

	mp := p.mcpPrompt()
	assert.Equal(t, p.Name, mp.Name)
	require.Len(t, mp.Arguments, 2)
	assert.False(t, mp.Arguments[1].Required)
}

func TestLoadPrompts_WrapsFileName(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/a.md":     {Data: []byte("---\ndescription: a\n---\nbody\n")},
		"prompts/b.md":     {Data: []byte("no frontmatter")},
		"prompts/skip.txt": {Data: []byte("ignored")},
	}
	_, err := loadPrompts(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompts/b.md")

	delete(fsys, "prompts/b.md")
	prompts, err := loadPrompts(fsys)
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "a", prompts[0].Name)
	assert.Equal(t, "body\n", prompts[0].body)
}

func TestParsePrompt_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no frontmatter", "body", "missing frontmatter"},
		{"unterminated", "---\ndescription: x\nbody", "unterminated frontmatter"},
		{"bad yaml", "---\ndescription: [x\n---\nbody", "frontmatter:"},
		{"no description", "---\narguments: []\n---\nbody", "no description"},
		{"repeated argument", "---\ndescription: x\narguments:\n  - name: a\n  - name: a\n---\n", "repeated"},
		{"required with default", "---\ndescription: x\narguments:\n  - name: a\n    required: true\n    default: b\n---\n", "has a default"},
		{"undeclared placeholder", "---\ndescription: x\n---\nuse {{path}}", `undeclared argument "path"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePrompt("p", []byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPromptRender(t *testing.T) {
	p, err := parsePrompt("p", []byte("---\ndescription: x\narguments:\n  - name: path\n    default: \".\"\n  - name: target\n    required: true\n---\nscan {{path}} for {{target}} in {{path}}\n"))
	require.NoError(t, err)

	text, err := p.render(map[string]string{"target": "src/index.ts"})
	require.NoError(t, err)
	assert.Equal(t, "scan . for src/index.ts in .\n", text)

	text, err = p.render(map[string]string{"path": " web ", "target": "main"})
	require.NoError(t, err)
	assert.Equal(t, "scan web for main in web\n", text)

	_, err = p.render(map[string]string{"path": "web"})
	assert.ErrorContains(t, err, `missing required argument "target"`)
}

func TestPromptHandler(t *testing.T) {
	prompts, err := loadPrompts(promptFiles)
	require.NoError(t, err)
	p := prompts[0]

	result, err := p.handle(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{
			Name:      p.Name,
			Arguments: map[string]string{"path": "packages/web", "roots": "src/main.ts"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, p.Description, result.Description)
	require.Len(t, result.Messages, 1)
	assert.EqualValues(t, "user", result.Messages[0].Role)
	text, ok := result.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "find_unused_exports")
	assert.Contains(t, text.Text, `paths ["packages/web"]`)
	assert.Contains(t, text.Text, "Roots: src/main.ts.")
	assert.NotContains(t, text.Text, "{{")

	result, err = p.handle(context.Background(), &mcp.GetPromptRequest{})
	require.NoError(t, err)
	text, ok = result.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `paths ["."]`)
	assert.Contains(t, text.Text, "Roots: none given.")
}

func TestManifestVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "0.0.0", false},
		{"dev", "0.0.0", false},
		{"1.4.2", "1.4.2", false},
		{"v1.4.2", "1.4.2", false},
		{"2.0.0-rc.1", "2.0.0-rc.1", false},
		{"1.4", "", true},
		{"abc1234", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := manifestVersion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("v1.2.3")
	require.NoError(t, err)

	var m ServerManifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, "io.github.panbanda/deadexports", m.Name)
	require.Len(t, m.Packages, 1)
	pkg := m.Packages[0]
	assert.Equal(t, "ghcr.io/panbanda/deadexports:1.2.3", pkg.Identifier)
	assert.Equal(t, []PackageArgument{{Type: "positional", Value: "mcp"}}, pkg.PackageArguments)
	require.Len(t, pkg.EnvironmentVariables, 1)
	assert.Equal(t, config.EnvFile, pkg.EnvironmentVariables[0].Name)
	assert.False(t, pkg.EnvironmentVariables[0].IsRequired)
	assert.Equal(t, "stdio", pkg.Transport.Type)

	_, err = GenerateManifest("nightly")
	assert.Error(t, err)
}
