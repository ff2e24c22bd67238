package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadexports/internal/cache"
	"github.com/panbanda/deadexports/internal/output"
	"github.com/panbanda/deadexports/internal/service/analysis"
	"github.com/panbanda/deadexports/pkg/analyzer/unusedexports"
	"github.com/panbanda/deadexports/pkg/config"
)

// exitFindings is the exit code of check --fail when something is reported.
const exitFindings = 2

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// loadConfig loads --config, or the config file found in the working
// directory, or the defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, _, err := config.LoadOrDefault(wd)
	return cfg, err
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

func newService(c *cli.Context) (*analysis.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := newLogger(c)
	return analysis.New(
		analysis.WithConfig(cfg),
		analysis.WithLogger(logger),
		analysis.WithCache(openCache(c, cfg, logger)),
	), nil
}

// openCache returns the configured result cache. An unusable cache
// directory is logged and skipped.
func openCache(c *cli.Context, cfg *config.Config, logger *slog.Logger) *cache.Cache {
	if !cfg.Cache.Enabled || c.Bool("no-cache") {
		return cache.Disabled()
	}
	rc, err := cache.New(cfg.Cache.Dir, cfg.CacheTTL(), true)
	if err != nil {
		logger.Warn("cache disabled", "dir", cfg.Cache.Dir, "error", err)
		return cache.Disabled()
	}
	return rc
}

// newFormatter honors --format and --output, falling back to the config.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	colored := cfg.Output.Color && !color.NoColor
	if c.String("output") == "" && c.App.Writer != os.Stdout {
		return output.NewWriterFormatter(output.ParseFormat(format), c.App.Writer, colored), nil
	}
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), colored)
}

// analysisFlags are shared by the commands that run the check.
func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Entry point as file or file#export (repeatable). Replaces configured roots",
		},
		&cli.StringSliceFlag{
			Name:  "root-tag",
			Usage: "JSDoc tag, without @, marking exports as entry points (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "root-tags",
			Usage: "Treat exports tagged @root or @entrypoint as entry points",
		},
		&cli.StringFlag{
			Name:  "ignore-pattern",
			Usage: "Do not report exports whose name matches this regular expression",
		},
		&cli.StringFlag{
			Name:  "cwd",
			Usage: "Directory relative root files are resolved against",
		},
	}
}

// analysisOptions applies the command-line flags over the configured options.
func analysisOptions(c *cli.Context, svc *analysis.Service) unusedexports.Options {
	opts := svc.AnalyzerOptions()
	if roots := c.StringSlice("root"); len(roots) > 0 {
		opts.Roots = make([]unusedexports.RootSpec, 0, len(roots))
		for _, r := range roots {
			opts.Roots = append(opts.Roots, unusedexports.ParseRootSpec(r))
		}
	}
	switch {
	case len(c.StringSlice("root-tag")) > 0:
		opts.RootTags = unusedexports.RootTagNames(c.StringSlice("root-tag")...)
	case c.Bool("root-tags"):
		opts.RootTags = unusedexports.DefaultRootTags()
	}
	if c.IsSet("ignore-pattern") {
		opts.IgnorePattern = c.String("ignore-pattern")
	}
	if c.IsSet("cwd") {
		opts.Cwd = c.String("cwd")
	}
	return opts
}

func describeRun(opts unusedexports.Options) string {
	if len(opts.Roots) == 0 && !opts.RootTags.Enabled {
		return "whole program"
	}
	return fmt.Sprintf("%d roots, tags %v", len(opts.Roots), opts.RootTags.TagNames())
}
