package models

import (
	"github.com/panbanda/deadexports/pkg/diagnostic"
	"github.com/panbanda/deadexports/pkg/program"
)

// CycleMember is one declaration of a dead reference cycle.
type CycleMember struct {
	File string           `json:"file" toon:"file"`
	Name string           `json:"name" toon:"name"`
	Pos  program.Position `json:"pos" toon:"pos"`
}

// DeadCycle is a group of unused exports that only reference each other.
type DeadCycle struct {
	Members []CycleMember `json:"members" toon:"members"`
}

// LoadError is a file that could not be read or parsed.
type LoadError struct {
	File  string `json:"file" toon:"file"`
	Error string `json:"error" toon:"error"`
}

// ExportAnalysis represents the full unused-export detection result.
type ExportAnalysis struct {
	Mode        string                  `json:"mode" toon:"mode"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics" toon:"diagnostics"`
	DeadCycles  []DeadCycle             `json:"dead_cycles,omitempty" toon:"dead_cycles"`
	LoadErrors  []LoadError             `json:"load_errors,omitempty" toon:"load_errors"`
	Summary     ExportSummary           `json:"summary" toon:"summary"`
}

// ExportSummary provides aggregate statistics.
type ExportSummary struct {
	TotalFilesAnalyzed int            `json:"total_files_analyzed" toon:"total_files_analyzed"`
	TotalExports       int            `json:"total_exports" toon:"total_exports"`
	UnusedExports      int            `json:"unused_exports" toon:"unused_exports"`
	ConfigErrors       int            `json:"config_errors" toon:"config_errors"`
	ByFile             map[string]int `json:"by_file" toon:"by_file"`
	ByKind             map[string]int `json:"by_kind" toon:"by_kind"`
}

// NewExportSummary creates an initialized summary.
func NewExportSummary() ExportSummary {
	return ExportSummary{
		ByFile: make(map[string]int),
		ByKind: make(map[string]int),
	}
}

// AddDiagnostic updates the summary with d.
func (s *ExportSummary) AddDiagnostic(d diagnostic.Diagnostic) {
	s.ByKind[string(d.Kind)]++
	if d.Kind.IsConfigError() {
		s.ConfigErrors++
		return
	}
	s.UnusedExports++
	s.ByFile[d.File]++
}

// UnusedPercentage is the share of checked exports that are unused.
func (s ExportSummary) UnusedPercentage() float64 {
	if s.TotalExports == 0 {
		return 0
	}
	return float64(s.UnusedExports) / float64(s.TotalExports) * 100
}

// Unused returns the diagnostics that report unused code.
func (a *ExportAnalysis) Unused() []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, d := range a.Diagnostics {
		if !d.Kind.IsConfigError() {
			out = append(out, d)
		}
	}
	return out
}

// ConfigErrors returns the distinct configuration errors. The per-file
// copies carry the same fingerprint apart from the file they are attached to.
func (a *ExportAnalysis) ConfigErrors() []diagnostic.Diagnostic {
	seen := make(map[string]struct{})
	var out []diagnostic.Diagnostic
	for _, d := range a.Diagnostics {
		if !d.Kind.IsConfigError() {
			continue
		}
		key := d.Message
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}
