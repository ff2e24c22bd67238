package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// placeholder matches {{name}} in a prompt body.
var placeholder = regexp.MustCompile(`\{\{([a-z_]+)\}\}`)

// promptTemplate is a markdown prompt whose frontmatter declares a
// description and the arguments its body may reference as {{name}}.
type promptTemplate struct {
	Name        string
	Description string        `yaml:"description"`
	Arguments   []promptParam `yaml:"arguments"`
	body        string
}

type promptParam struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	// Default replaces the placeholder when the client omits the argument.
	Default string `yaml:"default"`
}

// registerPrompts adds every embedded prompt to the server.
func (s *Server) registerPrompts() error {
	prompts, err := loadPrompts(promptFiles)
	if err != nil {
		return err
	}
	for _, p := range prompts {
		s.server.AddPrompt(p.mcpPrompt(), p.handle)
	}
	return nil
}

// loadPrompts parses prompts/*.md in fsys, in name order.
func loadPrompts(fsys fs.FS) ([]*promptTemplate, error) {
	files, err := fs.Glob(fsys, "prompts/*.md")
	if err != nil {
		return nil, err
	}
	prompts := make([]*promptTemplate, 0, len(files))
	for _, file := range files {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		p, err := parsePrompt(strings.TrimSuffix(path.Base(file), ".md"), content)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", file, err)
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// parsePrompt splits content into frontmatter and body and checks that the
// body only references declared arguments.
func parsePrompt(name string, content []byte) (*promptTemplate, error) {
	rest, ok := bytes.CutPrefix(content, []byte("---\n"))
	if !ok {
		return nil, fmt.Errorf("missing frontmatter")
	}
	front, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	p := &promptTemplate{Name: name}
	if err := yaml.Unmarshal(front, p); err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	if p.Description == "" {
		return nil, fmt.Errorf("frontmatter has no description")
	}
	p.body = strings.TrimPrefix(string(body), "\n")

	declared := make(map[string]bool, len(p.Arguments))
	for _, a := range p.Arguments {
		if a.Name == "" || declared[a.Name] {
			return nil, fmt.Errorf("argument %q is empty or repeated", a.Name)
		}
		if a.Required && a.Default != "" {
			return nil, fmt.Errorf("required argument %q has a default", a.Name)
		}
		declared[a.Name] = true
	}
	for _, m := range placeholder.FindAllStringSubmatch(p.body, -1) {
		if !declared[m[1]] {
			return nil, fmt.Errorf("body references undeclared argument %q", m[1])
		}
	}
	return p, nil
}

func (p *promptTemplate) mcpPrompt() *mcp.Prompt {
	args := make([]*mcp.PromptArgument, len(p.Arguments))
	for i, a := range p.Arguments {
		args[i] = &mcp.PromptArgument{Name: a.Name, Description: a.Description, Required: a.Required}
	}
	return &mcp.Prompt{Name: p.Name, Description: p.Description, Arguments: args}
}

// render substitutes args into the body. Blank values fall back to the
// argument's default.
func (p *promptTemplate) render(args map[string]string) (string, error) {
	values := make(map[string]string, len(p.Arguments))
	for _, a := range p.Arguments {
		v := strings.TrimSpace(args[a.Name])
		if v == "" {
			if a.Required {
				return "", fmt.Errorf("missing required argument %q", a.Name)
			}
			v = a.Default
		}
		values[a.Name] = v
	}
	return placeholder.ReplaceAllStringFunc(p.body, func(m string) string {
		return values[m[2:len(m)-2]]
	}), nil
}

func (p *promptTemplate) handle(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var args map[string]string
	if req != nil && req.Params != nil {
		args = req.Params.Arguments
	}
	text, err := p.render(args)
	if err != nil {
		return nil, err
	}
	return &mcp.GetPromptResult{
		Description: p.Description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}, nil
}
