package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/deadexports/pkg/diagnostic"
	"github.com/panbanda/deadexports/pkg/models"
	"github.com/panbanda/deadexports/pkg/program"
)

func sampleAnalysis() *models.ExportAnalysis {
	a := &models.ExportAnalysis{Mode: "whole-program", Summary: models.NewExportSummary()}
	a.Summary.TotalFilesAnalyzed = 2
	a.Summary.TotalExports = 4

	sub := diagnostic.New("/repo/src/lib.ts", diagnostic.NamedDeclarationUnused,
		map[string]string{"varName": "sub"},
		program.Position{Line: 3, Column: 17}, program.Position{Line: 3, Column: 20},
		diagnostic.Range{Start: 40, End: 43})
	sub.Notes = []string{"only referenced from an unused cycle with add"}
	anon := diagnostic.New("/repo/src/main.ts", diagnostic.AnonymousExportUnused, nil,
		program.Position{Line: 1, Column: 1}, program.Position{Line: 1, Column: 19},
		diagnostic.Range{Start: 0, End: 18})
	a.Diagnostics = []diagnostic.Diagnostic{sub, anon}
	for _, d := range a.Diagnostics {
		a.Summary.AddDiagnostic(d)
	}
	a.DeadCycles = []models.DeadCycle{{Members: []models.CycleMember{
		{File: "/repo/src/lib.ts", Name: "add", Pos: program.Position{Line: 1, Column: 17}},
		{File: "/repo/src/lib.ts", Name: "sub", Pos: program.Position{Line: 3, Column: 17}},
	}}}
	a.LoadErrors = []models.LoadError{{File: "/repo/src/broken.ts", Error: "read failed"}}
	return a
}

func render(t *testing.T, format Format, data any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(format, &buf, false).Output(data))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"html", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.input))
		})
	}
}

func TestNewFormatter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	f, err := NewFormatter(FormatJSON, path, true)
	require.NoError(t, err)
	assert.False(t, f.Colored(), "files are never colored")
	assert.Equal(t, FormatJSON, f.Format())

	require.NoError(t, f.Output(NewExportReport(sampleAnalysis(), "")))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded models.ExportAnalysis
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "whole-program", decoded.Mode)
	assert.Len(t, decoded.Diagnostics, 2)
}

func TestNewFormatter_BadPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "out.txt"), false)
	require.Error(t, err)
}

func TestExportReport_Text(t *testing.T) {
	r := NewExportReport(sampleAnalysis(), "/repo")
	out := render(t, FormatText, r)

	assert.Contains(t, out, "Unused Exports")
	assert.Contains(t, out, "Mode: whole-program")
	assert.Contains(t, out, "src/lib.ts")
	assert.NotContains(t, out, "/repo/src/lib.ts")
	assert.Contains(t, out, "3:17")
	assert.Contains(t, out, "(default)")
	assert.Contains(t, out, "anonymous")
	assert.Contains(t, out, "add (src/lib.ts:1) <-> sub (src/lib.ts:3)")
	assert.Contains(t, out, "Skipped 1 files that could not be loaded")
	assert.NotContains(t, out, "read failed")
	assert.Contains(t, out, "2 of 4 exports unused (50.0%) in 2 of 2 files")

	r.Verbose = true
	assert.Contains(t, render(t, FormatText, r), "src/broken.ts: read failed")
}

func TestExportReport_TextEmpty(t *testing.T) {
	a := &models.ExportAnalysis{Mode: "root-based", Summary: models.NewExportSummary()}
	out := render(t, FormatText, NewExportReport(a, ""))
	assert.Contains(t, out, "No unused exports found")
	assert.Contains(t, out, "0 of 0 exports unused (0.0%)")
}

func TestExportReport_ConfigErrorsShownOnce(t *testing.T) {
	a := &models.ExportAnalysis{Mode: "root-based", Summary: models.NewExportSummary()}
	for _, file := range []string{"/a.ts", "/b.ts"} {
		d := diagnostic.New(file, diagnostic.RootFileNotFound,
			map[string]string{"rootFile": "/missing.ts"},
			program.Position{Line: 1, Column: 1}, program.Position{Line: 1, Column: 1},
			diagnostic.Range{})
		a.Diagnostics = append(a.Diagnostics, d)
	}

	text := render(t, FormatText, NewExportReport(a, ""))
	assert.Equal(t, 1, bytes.Count([]byte(text), []byte("config: '/missing.ts' not found.")))

	md := render(t, FormatMarkdown, NewExportReport(a, ""))
	assert.Contains(t, md, "- '/missing.ts' not found.")
}

func TestExportReport_Markdown(t *testing.T) {
	out := render(t, FormatMarkdown, NewExportReport(sampleAnalysis(), "/repo"))

	assert.Contains(t, out, "## Unused Exports")
	assert.Contains(t, out, "### src/lib.ts")
	assert.Contains(t, out, "| Location | Export | Kind | Note |")
	assert.Contains(t, out, "| 3:17 | sub | named | only referenced from an unused cycle with add |")
	assert.Contains(t, out, "### Dead cycles")
	assert.Contains(t, out, "| Unused % | 50.0% |")
}

func TestExportReport_TOON(t *testing.T) {
	out := render(t, FormatTOON, NewExportReport(sampleAnalysis(), ""))
	assert.Contains(t, out, "mode:")
	assert.Contains(t, out, "whole-program")
	assert.Contains(t, out, "unused_exports")
}

func TestOutput_RawData(t *testing.T) {
	data := map[string]int{"unused": 3}

	assert.JSONEq(t, `{"unused": 3}`, render(t, FormatJSON, data))
	assert.JSONEq(t, `{"unused": 3}`, render(t, FormatText, data))

	md := render(t, FormatMarkdown, data)
	assert.Contains(t, md, "```json\n")
	assert.Contains(t, md, `"unused": 3`)
}

func TestTable_MarkdownEscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	tbl := &Table{Headers: []string{"Type"}, Rows: [][]string{{"A | B"}}}
	require.NoError(t, tbl.RenderMarkdown(&buf))
	assert.Contains(t, buf.String(), `| A \| B |`)
}

func TestFormatter_Messages(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)
	f.Success("fixed %d files", 2)
	f.Warning("no files")
	assert.Equal(t, "fixed 2 files\nWARNING: no files\n", buf.String())
}
