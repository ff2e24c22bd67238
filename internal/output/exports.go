package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/panbanda/deadexports/pkg/diagnostic"
	"github.com/panbanda/deadexports/pkg/models"
)

// ExportReport renders an unused-export analysis. Paths are shown relative
// to Base when it is set.
type ExportReport struct {
	Analysis *models.ExportAnalysis
	Base     string
	// Verbose adds the files that could not be loaded.
	Verbose bool
}

// NewExportReport creates a report for a.
func NewExportReport(a *models.ExportAnalysis, base string) *ExportReport {
	return &ExportReport{Analysis: a, Base: base}
}

// RenderData returns the analysis itself.
func (r *ExportReport) RenderData() any {
	return r.Analysis
}

func (r *ExportReport) rel(path string) string {
	if r.Base == "" {
		return path
	}
	if rel, err := filepath.Rel(r.Base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// fileTables groups the unused exports by file, in file order.
func (r *ExportReport) fileTables() []*Table {
	var tables []*Table
	byFile := make(map[string]*Table)
	for _, d := range r.Analysis.Unused() {
		t, ok := byFile[d.File]
		if !ok {
			t = &Table{Title: r.rel(d.File), Headers: []string{"Location", "Export", "Kind", "Note"}}
			byFile[d.File] = t
			tables = append(tables, t)
		}
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d:%d", d.Pos.Line, d.Pos.Column),
			exportName(d),
			shortKind(d.Kind),
			strings.Join(d.Notes, "; "),
		})
	}
	return tables
}

func exportName(d diagnostic.Diagnostic) string {
	if name := d.Data["varName"]; name != "" {
		return name
	}
	return "(default)"
}

func shortKind(k diagnostic.Kind) string {
	switch k {
	case diagnostic.NamedDeclarationUnused:
		return "named"
	case diagnostic.AnonymousExportUnused:
		return "anonymous"
	default:
		return string(k)
	}
}

func (r *ExportReport) cycleLines() []string {
	lines := make([]string, 0, len(r.Analysis.DeadCycles))
	for _, c := range r.Analysis.DeadCycles {
		parts := make([]string, len(c.Members))
		for i, m := range c.Members {
			parts[i] = fmt.Sprintf("%s (%s:%d)", m.Name, r.rel(m.File), m.Pos.Line)
		}
		lines = append(lines, strings.Join(parts, " <-> "))
	}
	return lines
}

func (r *ExportReport) summaryLine() string {
	s := r.Analysis.Summary
	return fmt.Sprintf("%d of %d exports unused (%.1f%%) in %d of %d files",
		s.UnusedExports, s.TotalExports, s.UnusedPercentage(), len(s.ByFile), s.TotalFilesAnalyzed)
}

// RenderText implements Renderable.
func (r *ExportReport) RenderText(w io.Writer, colored bool) error {
	a := r.Analysis
	writeTitle(w, "Unused Exports", colored, "=")
	fmt.Fprintf(w, "Mode: %s\n\n", a.Mode)

	if errs := a.ConfigErrors(); len(errs) > 0 {
		red := color.New(color.FgRed)
		if !colored {
			red.DisableColor()
		}
		for _, d := range errs {
			red.Fprintf(w, "config: %s\n", d.Message)
		}
		fmt.Fprintln(w)
	}

	tables := r.fileTables()
	if len(tables) == 0 {
		green := color.New(color.FgGreen)
		if !colored {
			green.DisableColor()
		}
		green.Fprintln(w, "No unused exports found")
	}
	for _, t := range tables {
		if err := t.RenderText(w, colored); err != nil {
			return err
		}
	}

	if lines := r.cycleLines(); len(lines) > 0 {
		writeTitle(w, "Dead cycles", colored, "-")
		for _, l := range lines {
			fmt.Fprintf(w, "  %s\n", l)
		}
		fmt.Fprintln(w)
	}

	if len(a.LoadErrors) > 0 {
		fmt.Fprintf(w, "Skipped %d files that could not be loaded\n", len(a.LoadErrors))
		if r.Verbose {
			for _, e := range a.LoadErrors {
				fmt.Fprintf(w, "  %s: %s\n", r.rel(e.File), e.Error)
			}
		}
	}

	fmt.Fprintln(w, r.summaryLine())
	return nil
}

// RenderMarkdown implements Renderable.
func (r *ExportReport) RenderMarkdown(w io.Writer) error {
	a := r.Analysis
	fmt.Fprintf(w, "## Unused Exports\n\n**Mode:** %s\n\n", a.Mode)

	if errs := a.ConfigErrors(); len(errs) > 0 {
		fmt.Fprintln(w, "**Configuration errors:**")
		fmt.Fprintln(w)
		for _, d := range errs {
			fmt.Fprintf(w, "- %s\n", d.Message)
		}
		fmt.Fprintln(w)
	}

	tables := r.fileTables()
	if len(tables) == 0 {
		fmt.Fprintln(w, "No unused exports found.")
		fmt.Fprintln(w)
	}
	for _, t := range tables {
		if err := t.RenderMarkdown(w); err != nil {
			return err
		}
	}

	if lines := r.cycleLines(); len(lines) > 0 {
		fmt.Fprintln(w, "### Dead cycles")
		fmt.Fprintln(w)
		for _, l := range lines {
			fmt.Fprintf(w, "- %s\n", l)
		}
		fmt.Fprintln(w)
	}

	s := a.Summary
	summary := &Table{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Files analyzed", strconv.Itoa(s.TotalFilesAnalyzed)},
			{"Exports", strconv.Itoa(s.TotalExports)},
			{"Unused", strconv.Itoa(s.UnusedExports)},
			{"Unused %", fmt.Sprintf("%.1f%%", s.UnusedPercentage())},
			{"Config errors", strconv.Itoa(len(a.ConfigErrors()))},
			{"Load errors", strconv.Itoa(len(a.LoadErrors))},
		},
	}
	return summary.RenderMarkdown(w)
}
