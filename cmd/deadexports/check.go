package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadexports/internal/output"
	"github.com/panbanda/deadexports/internal/progress"
	"github.com/panbanda/deadexports/internal/service/analysis"
	"github.com/panbanda/deadexports/pkg/analyzer"
	"github.com/panbanda/deadexports/pkg/models"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report unused exports",
		ArgsUsage: "[path...]",
		Flags: append(analysisFlags(),
			&cli.BoolFlag{
				Name:  "fail",
				Usage: "Exit with status 2 when unused exports or root errors are reported",
			},
		),
		Action: runCheckCmd,
	}
}

// runCheck scans paths and analyzes them, drawing progress on a terminal.
func runCheck(ctx context.Context, c *cli.Context, svc *analysis.Service, paths []string) (*models.ExportAnalysis, error) {
	opts := analysisOptions(c, svc)
	newLogger(c).Debug("running check", "paths", paths, "mode", describeRun(opts))

	var tracker *analyzer.Tracker
	if !color.NoColor && c.String("output") == "" {
		bar := progress.New(c.App.ErrWriter)
		defer bar.Finish()
		tracker = bar.Tracker()
	}
	return svc.FindUnusedExports(ctx, paths, opts, tracker)
}

func runCheckCmd(c *cli.Context) error {
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

	if err := writeReport(c, svc, result); err != nil {
		return err
	}

	if c.Bool("fail") && (len(result.Unused()) > 0 || len(result.ConfigErrors()) > 0) {
		return cli.Exit("", exitFindings)
	}
	return nil
}

func writeReport(c *cli.Context, svc *analysis.Service, result *models.ExportAnalysis) error {
	formatter, err := newFormatter(c, svc.Config())
	if err != nil {
		return err
	}
	defer formatter.Close()

	report := output.NewExportReport(result, reportBase())
	report.Verbose = c.Bool("verbose")
	if err := formatter.Output(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// reportBase is the directory paths in text reports are relative to.
func reportBase() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(wd); err == nil {
		return resolved
	}
	return wd
}
