// Package unusedexports finds exported declarations that nothing uses.
//
// Liveness is decided once per program snapshot. Without roots, any
// declaration referenced from some project file is alive. With explicit
// roots or doc-tag roots, only declarations transitively reachable from the
// roots are alive, so mutually referencing but unreachable exports are
// reported.
package unusedexports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/panbanda/deadexports/pkg/analyzer"
	"github.com/panbanda/deadexports/pkg/diagnostic"
	"github.com/panbanda/deadexports/pkg/locmap"
	"github.com/panbanda/deadexports/pkg/models"
	"github.com/panbanda/deadexports/pkg/program"
	"github.com/panbanda/deadexports/pkg/program/tsprogram"
	"github.com/panbanda/deadexports/pkg/source"
)

// Analyzer detects unused exports across a set of files.
type Analyzer struct {
	opts         Options
	src          source.ContentSource
	maxWorkers   int
	detectCycles bool
	logger       *slog.Logger
}

var _ analyzer.FileAnalyzer[*models.ExportAnalysis] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithOptions replaces all analysis options.
func WithOptions(opts Options) Option {
	return func(a *Analyzer) {
		a.opts = opts
	}
}

// WithIgnorePattern suppresses reports for matching names.
func WithIgnorePattern(pattern string) Option {
	return func(a *Analyzer) {
		a.opts.IgnorePattern = pattern
	}
}

// WithRoots adds explicit entry points.
func WithRoots(roots ...RootSpec) Option {
	return func(a *Analyzer) {
		a.opts.Roots = append(a.opts.Roots, roots...)
	}
}

// WithRootTags sets the doc tags marking entry points.
func WithRootTags(tags RootTags) Option {
	return func(a *Analyzer) {
		a.opts.RootTags = tags
	}
}

// WithCwd sets the directory relative roots are resolved against.
func WithCwd(cwd string) Option {
	return func(a *Analyzer) {
		a.opts.Cwd = cwd
	}
}

// WithSource reads files from src instead of the filesystem.
func WithSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		if src != nil {
			a.src = src
		}
	}
}

// WithMaxWorkers bounds parallel parsing.
func WithMaxWorkers(n int) Option {
	return func(a *Analyzer) {
		a.maxWorkers = n
	}
}

// WithoutCycleDetection skips grouping dead exports into cycles.
func WithoutCycleDetection() Option {
	return func(a *Analyzer) {
		a.detectCycles = false
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an analyzer reading from the filesystem.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		src:          source.NewFilesystem(),
		detectCycles: true,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Options returns the analysis options in effect.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze loads files and reports their unused exports.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*models.ExportAnalysis, error) {
	if err := a.opts.Validate(); err != nil {
		return nil, err
	}

	loadOpts := []tsprogram.Option{tsprogram.WithMaxWorkers(a.maxWorkers)}
	if tracker := analyzer.TrackerFromContext(ctx); tracker != nil {
		tracker.Begin(analyzer.StageParse, len(files))
		loadOpts = append(loadOpts, tsprogram.WithProgress(func() { tracker.Tick("") }))
	}

	prog, err := tsprogram.Load(ctx, a.src, files, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	defer prog.Close()

	result, err := a.AnalyzeModel(ctx, prog)
	if err != nil {
		return nil, err
	}
	if errs := prog.Errors(); errs.HasErrors() {
		for _, e := range errs.Errors {
			a.logger.Debug("skipped file", "file", e.Path, "error", e.Err)
			result.LoadErrors = append(result.LoadErrors, models.LoadError{File: e.Path, Error: e.Err.Error()})
		}
	}
	return result, nil
}

// AnalyzeModel reports the unused exports of every project file of model.
func (a *Analyzer) AnalyzeModel(ctx context.Context, model program.Model) (*models.ExportAnalysis, error) {
	pass, err := NewPass(model, a.opts, a.logger)
	if err != nil {
		return nil, err
	}
	sem, err := pass.Semantics()
	if err != nil {
		return nil, err
	}

	result := &models.ExportAnalysis{
		Mode:    sem.Mode.String(),
		Summary: models.NewExportSummary(),
	}

	var project []*program.File
	for _, f := range model.Files() {
		if !f.IsLibrary() {
			project = append(project, f)
		}
	}
	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Begin(analyzer.StageCheck, len(project))
	}

	var targets [][]*program.Declaration
	for _, f := range project {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := pass.checkFile(f)
		if err != nil {
			return nil, err
		}
		if tracker != nil {
			tracker.Tick(f.Path)
		}
		result.Summary.TotalFilesAnalyzed++
		result.Summary.TotalExports += len(ownExportSites(model, f))
		result.Diagnostics = append(result.Diagnostics, r.Diagnostics...)
		targets = append(targets, r.targets...)
	}

	if a.detectCycles {
		cycles := FindDeadCycles(model, sem)
		annotateCycles(result.Diagnostics, targets, cycles)
		for _, c := range cycles {
			result.DeadCycles = append(result.DeadCycles, toModelCycle(c))
		}
	}

	diagnostic.Sort(result.Diagnostics)
	for _, d := range result.Diagnostics {
		result.Summary.AddDiagnostic(d)
	}
	return result, nil
}

// Close implements analyzer.FileAnalyzer.
func (a *Analyzer) Close() {}

func toModelCycle(c DeadCycle) models.DeadCycle {
	out := models.DeadCycle{Members: make([]models.CycleMember, len(c.Members))}
	for i, d := range c.Members {
		m := models.CycleMember{File: d.File.Path, Name: d.NameText()}
		if d.Name != nil {
			m.Pos = d.Name.StartPosition()
		} else {
			m.Pos = d.Node.StartPosition()
		}
		out.Members[i] = m
	}
	return out
}

// annotateCycles notes on each cycle member's diagnostic which other
// exports keep it referenced. targets[i] are the declarations ds[i]
// reports.
func annotateCycles(ds []diagnostic.Diagnostic, targets [][]*program.Declaration, cycles []DeadCycle) {
	notes := locmap.New[string]()
	for _, c := range cycles {
		for _, d := range c.Members {
			var others []string
			for _, o := range c.Members {
				if o != d {
					others = append(others, displayName(o))
				}
			}
			if len(others) == 0 {
				notes.Set(d.Location(), "only referenced from itself")
				continue
			}
			notes.Set(d.Location(), "only referenced from an unused cycle with "+strings.Join(others, ", "))
		}
	}
	for i := range ds {
		for _, t := range targets[i] {
			if note, ok := notes.Get(t.Location()); ok {
				ds[i].Notes = append(ds[i].Notes, note)
				break
			}
		}
	}
}

func displayName(d *program.Declaration) string {
	if name := d.NameText(); name != "" {
		return name
	}
	return "default export"
}
