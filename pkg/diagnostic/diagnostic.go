// Package diagnostic defines the findings reported by the analysis and
// the text edits that fix them.
package diagnostic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/panbanda/deadexports/pkg/program"
)

// Kind identifies a diagnostic message.
type Kind string

const (
	NamedDeclarationUnused Kind = "named-declaration-unused"
	AnonymousExportUnused  Kind = "anonymous-export-unused"
	RootFileNotFound       Kind = "root-file-not-found"
	RootExportNotFound     Kind = "root-export-not-found"
)

var templates = map[Kind]string{
	NamedDeclarationUnused: "'{{varName}}' is declared but never used.",
	AnonymousExportUnused:  "this export is declared but never used.",
	RootFileNotFound:       "'{{rootFile}}' not found.",
	RootExportNotFound:     "could not find the '{{exportName}}' in '{{rootFile}}'.",
}

// RemoveUnusedMessage describes the removal fix.
const RemoveUnusedMessage = "remove unused element."

// IsConfigError reports whether k describes a configuration problem rather
// than a finding in the code.
func (k Kind) IsConfigError() bool {
	return k == RootFileNotFound || k == RootExportNotFound
}

// Format renders the message template of k with data.
func Format(k Kind, data map[string]string) string {
	msg, ok := templates[k]
	if !ok {
		return string(k)
	}
	for key, value := range data {
		msg = strings.ReplaceAll(msg, "{{"+key+"}}", value)
	}
	return msg
}

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int `json:"start" toon:"start"`
	End   int `json:"end" toon:"end"`
}

// TextEdit replaces Range with NewText.
type TextEdit struct {
	Range   Range  `json:"range" toon:"range"`
	NewText string `json:"new_text" toon:"new_text"`
}

// SuggestedFix is a named set of edits.
type SuggestedFix struct {
	Message string     `json:"message" toon:"message"`
	Edits   []TextEdit `json:"edits" toon:"edits"`
}

// Diagnostic is one finding attached to a file.
type Diagnostic struct {
	File        string            `json:"file" toon:"file"`
	Kind        Kind              `json:"kind" toon:"kind"`
	Message     string            `json:"message" toon:"message"`
	Data        map[string]string `json:"data,omitempty" toon:"data"`
	Pos         program.Position  `json:"pos" toon:"pos"`
	End         program.Position  `json:"end" toon:"end"`
	Range       Range             `json:"range" toon:"range"`
	Fixes       []SuggestedFix    `json:"fixes,omitempty" toon:"fixes"`
	Notes       []string          `json:"notes,omitempty" toon:"notes"`
	Fingerprint string            `json:"fingerprint" toon:"fingerprint"`
}

// New builds a diagnostic and computes its message and fingerprint.
func New(file string, kind Kind, data map[string]string, pos, end program.Position, r Range) Diagnostic {
	d := Diagnostic{
		File:    file,
		Kind:    kind,
		Message: Format(kind, data),
		Data:    data,
		Pos:     pos,
		End:     end,
		Range:   r,
	}
	d.Fingerprint = d.computeFingerprint()
	return d
}

// computeFingerprint hashes fields that survive unrelated edits: the line
// number is left out so findings keep their identity when code moves.
func (d Diagnostic) computeFingerprint() string {
	h := xxhash.New()
	h.WriteString(d.File)
	h.WriteString("\x00")
	h.WriteString(string(d.Kind))
	h.WriteString("\x00")
	keys := make([]string, 0, len(d.Data))
	for k := range d.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.WriteString(k)
		h.WriteString("=")
		h.WriteString(d.Data[k])
		h.WriteString("\x00")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// String formats d like a compiler message.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s (%s)", d.File, d.Pos.Line, d.Pos.Column, d.Message, d.Kind)
}

// RemovalFix returns a fix deleting r.
func RemovalFix(r Range) SuggestedFix {
	return SuggestedFix{
		Message: RemoveUnusedMessage,
		Edits:   []TextEdit{{Range: r}},
	}
}

// Sort orders diagnostics by file, then start offset. Diagnostics at the
// same offset keep their relative order.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Range.Start < b.Range.Start
	})
}
