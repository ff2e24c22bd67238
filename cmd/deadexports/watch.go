package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadexports/internal/service/analysis"
	"github.com/panbanda/deadexports/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-run check whenever a source file changes",
		ArgsUsage: "[path]",
		Flags: append(analysisFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before re-running",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	watcher, err := watch.NewWatcher(absPath, svc.Config(), c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.SetOutput(c.App.Writer)

	rerun := func(ctx context.Context) {
		result, err := runCheck(ctx, c, svc, []string{absPath})
		switch {
		case errors.Is(err, analysis.ErrNoFiles):
			color.Yellow("No source files found")
		case err != nil:
			color.Red("Error: %v", err)
		default:
			if err := writeReport(c, svc, result); err != nil {
				color.Red("Error: %v", err)
			}
		}
	}
	watcher.SetCallback(func(ctx context.Context, _ []string) { rerun(ctx) })

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rerun(ctx)
	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
