// Package mcpserver exposes the unused-export check as an MCP tool.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/deadexports/internal/service/analysis"
)

// Server wraps the MCP server and registers the deadexports tools.
type Server struct {
	server  *mcp.Server
	service *analysis.Service
}

// NewServer creates a new MCP server. A nil service uses the default
// configuration.
func NewServer(version string, service *analysis.Service) *Server {
	if version == "" {
		version = "dev"
	}
	if service == nil {
		service = analysis.New()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "deadexports",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, service: service}
	s.registerTools()
	if err := s.registerPrompts(); err != nil {
		panic(fmt.Sprintf("mcpserver: embedded %v", err))
	}
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_unused_exports",
		Description: describeFindUnusedExports(),
	}, s.handleFindUnusedExports)
}
