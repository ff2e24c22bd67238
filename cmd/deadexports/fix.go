package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadexports/internal/service/analysis"
	"github.com/panbanda/deadexports/pkg/diagnostic"
)

func fixCmd() *cli.Command {
	return &cli.Command{
		Name:      "fix",
		Usage:     "Remove unused exports",
		ArgsUsage: "[path...]",
		Description: `Deletes every reported export. Removing code can make other exports
unused, so running fix again may remove more.`,
		Flags: append(analysisFlags(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List the files that would change without writing them",
			},
		),
		Action: runFixCmd,
	}
}

func runFixCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	result, err := runCheck(c.Context, c, svc, getPaths(c))
	if errors.Is(err, analysis.ErrNoFiles) {
		color.Yellow("No source files found")
		return nil
	}
	if err != nil {
		return err
	}

	if errs := result.ConfigErrors(); len(errs) > 0 {
		for _, d := range errs {
			fmt.Fprintf(c.App.ErrWriter, "config: %s\n", d.Message)
		}
		return fmt.Errorf("refusing to fix with %d root errors", len(errs))
	}

	unused := result.Unused()
	counts := make(map[string]int)
	for _, d := range unused {
		if len(d.Fixes) > 0 {
			counts[d.File]++
		}
	}

	byFile := diagnostic.EditsByFile(unused)
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	dryRun := c.Bool("dry-run")
	for _, file := range files {
		if dryRun {
			fmt.Fprintf(c.App.Writer, "would remove %d exports from %s\n", counts[file], file)
			continue
		}
		if err := applyFile(file, byFile[file]); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "removed %d exports from %s\n", counts[file], file)
	}

	if len(files) == 0 {
		fmt.Fprintln(c.App.Writer, "No unused exports found")
	}
	return nil
}

func applyFile(path string, edits []diagnostic.TextEdit) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := diagnostic.ApplyEdits(src, edits)
	if err != nil {
		return fmt.Errorf("fix %s: %w", path, err)
	}
	return os.WriteFile(path, out, info.Mode().Perm())
}
