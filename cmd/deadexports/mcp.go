package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadexports/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport exposing the
find_unused_exports tool. The config file in the working directory (or
--config) supplies defaults that tool arguments override.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "deadexports": {
        "command": "deadexports",
        "args": ["mcp"]
      }
    }
  }`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:  "manifest",
				Usage: "Print the MCP registry server.json",
				Action: func(c *cli.Context) error {
					data, err := mcpserver.GenerateManifest(version)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, string(data))
					return nil
				},
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}
	return mcpserver.NewServer(version, svc).Run(c.Context)
}
