package mcpserver

import (
	"bytes"
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/deadexports/internal/output"
	"github.com/panbanda/deadexports/pkg/analyzer/unusedexports"
)

// FindUnusedExportsInput is the input of the find_unused_exports tool.
type FindUnusedExportsInput struct {
	Paths           []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Roots           []string `json:"roots,omitempty" jsonschema:"Entry points as file or file#export. Relative to cwd."`
	RootTags        []string `json:"root_tags,omitempty" jsonschema:"JSDoc tags (without @) that mark exports as entry points."`
	DefaultRootTags bool     `json:"default_root_tags,omitempty" jsonschema:"Treat exports tagged @root or @entrypoint as entry points."`
	IgnorePattern   string   `json:"ignore_pattern,omitempty" jsonschema:"Regular expression; matching export names are not reported."`
	Cwd             string   `json:"cwd,omitempty" jsonschema:"Directory relative roots are resolved against."`
	Format          string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func getPaths(input FindUnusedExportsInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input FindUnusedExportsInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// applyInput overrides the configured options with the tool arguments.
func applyInput(opts unusedexports.Options, input FindUnusedExportsInput) unusedexports.Options {
	if len(input.Roots) > 0 {
		opts.Roots = opts.Roots[:0:0]
		for _, r := range input.Roots {
			opts.Roots = append(opts.Roots, unusedexports.ParseRootSpec(r))
		}
	}
	switch {
	case len(input.RootTags) > 0:
		opts.RootTags = unusedexports.RootTagNames(input.RootTags...)
	case input.DefaultRootTags:
		opts.RootTags = unusedexports.DefaultRootTags()
	}
	if input.IgnorePattern != "" {
		opts.IgnorePattern = input.IgnorePattern
	}
	if input.Cwd != "" {
		opts.Cwd = input.Cwd
	}
	return opts
}

func toolResult(r output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(r); err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: buf.String()},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleFindUnusedExports(ctx context.Context, req *mcp.CallToolRequest, input FindUnusedExportsInput) (*mcp.CallToolResult, any, error) {
	opts := applyInput(s.service.AnalyzerOptions(), input)

	result, err := s.service.FindUnusedExports(ctx, getPaths(input), opts, nil)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(output.NewExportReport(result, opts.Cwd), getFormat(input))
}
