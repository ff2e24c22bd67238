package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/deadexports/pkg/config"
)

// starterConfig is the document written by init. It mirrors the sections
// config.Load reads.
type starterConfig struct {
	Analysis starterAnalysis `toml:"analysis" yaml:"analysis" json:"analysis"`
	Exclude  starterExclude  `toml:"exclude" yaml:"exclude" json:"exclude"`
	Output   starterOutput   `toml:"output" yaml:"output" json:"output"`
	Cache    starterCache    `toml:"cache" yaml:"cache" json:"cache"`
}

type starterAnalysis struct {
	IgnorePattern string   `toml:"ignore_pattern" yaml:"ignore_pattern" json:"ignore_pattern"`
	Roots         []string `toml:"roots" yaml:"roots" json:"roots"`
	RootTags      bool     `toml:"root_tags" yaml:"root_tags" json:"root_tags"`
	DetectCycles  bool     `toml:"detect_cycles" yaml:"detect_cycles" json:"detect_cycles"`
	MaxWorkers    int      `toml:"max_workers" yaml:"max_workers" json:"max_workers"`
}

type starterExclude struct {
	Patterns         []string `toml:"patterns" yaml:"patterns" json:"patterns"`
	Dirs             []string `toml:"dirs" yaml:"dirs" json:"dirs"`
	Gitignore        bool     `toml:"gitignore" yaml:"gitignore" json:"gitignore"`
	IncludeLibraries bool     `toml:"include_libraries" yaml:"include_libraries" json:"include_libraries"`
}

type starterOutput struct {
	Format string `toml:"format" yaml:"format" json:"format"`
	Color  bool   `toml:"color" yaml:"color" json:"color"`
}

type starterCache struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled" json:"enabled"`
	Dir      string `toml:"dir" yaml:"dir" json:"dir"`
	TTLHours int    `toml:"ttl_hours" yaml:"ttl_hours" json:"ttl_hours"`
}

func newStarterConfig() starterConfig {
	cfg := config.DefaultConfig()
	return starterConfig{
		Analysis: starterAnalysis{
			Roots:        []string{},
			DetectCycles: cfg.Analysis.DetectCycles,
			MaxWorkers:   cfg.Analysis.MaxWorkers,
		},
		Exclude: starterExclude{
			Patterns:         cfg.Exclude.Patterns,
			Dirs:             cfg.Exclude.Dirs,
			Gitignore:        cfg.Exclude.Gitignore,
			IncludeLibraries: cfg.Exclude.IncludeLibraries,
		},
		Output: starterOutput{
			Format: cfg.Output.Format,
			Color:  cfg.Output.Color,
		},
		Cache: starterCache{
			Enabled:  cfg.Cache.Enabled,
			Dir:      cfg.Cache.Dir,
			TTLHours: cfg.Cache.TTLHours,
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter configuration file",
		Description: `Creates deadexports.toml (or .yaml / .json with --type) in the current
directory with the default settings.

Examples:
  deadexports init                       # deadexports.toml
  deadexports init --type yaml           # deadexports.yaml
  deadexports init -p .deadexports/deadexports.json --type json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Value: "toml",
				Usage: "File type: toml, yaml, or json",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Output file path (default deadexports.<type>)",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	kind := c.String("type")
	content, err := renderStarterConfig(kind)
	if err != nil {
		return err
	}

	path := c.String("path")
	if path == "" {
		path = "deadexports." + kind
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", path)
	return nil
}

func renderStarterConfig(kind string) ([]byte, error) {
	doc := newStarterConfig()
	switch kind {
	case "toml":
		content, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		var buf bytes.Buffer
		buf.WriteString("# deadexports configuration\n")
		buf.WriteString("# roots entries are \"file\" or \"file#export\"\n\n")
		buf.Write(content)
		return buf.Bytes(), nil
	case "yaml", "yml":
		content, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		return append([]byte("# deadexports configuration\n"), content...), nil
	case "json":
		content, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(content, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown config type %q (want toml, yaml, or json)", kind)
	}
}
