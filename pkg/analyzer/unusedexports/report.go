package unusedexports

import (
	"regexp"

	"github.com/panbanda/deadexports/pkg/diagnostic"
	"github.com/panbanda/deadexports/pkg/program"
)

type reporter struct {
	model  program.Model
	ignore *regexp.Regexp
}

// fileReport is the outcome of checking one file. targets[i] holds the
// declarations behind Diagnostics[i]; it is nil for configuration errors.
type fileReport struct {
	Diagnostics []diagnostic.Diagnostic
	targets     [][]*program.Declaration
}

// checkFile replays the configuration errors on f, then reports every
// export declared in f that is not alive.
func (r *reporter) checkFile(sem *Semantics, f *program.File) fileReport {
	var out fileReport

	for _, ce := range sem.ConfigErrors {
		out.add(diagnostic.New(
			f.Path, ce.Kind, ce.Data,
			program.Position{Line: 1, Column: 1},
			f.Root.EndPosition(),
			diagnostic.Range{Start: 0, End: len(f.Source)},
		), nil)
	}

	var unused []exportSite
	for _, site := range ownExportSites(r.model, f) {
		if isAlive(sem, site) || r.ignored(site.Decl) {
			continue
		}
		unused = append(unused, site)
	}

	decls := make([]*program.Declaration, len(unused))
	for i, site := range unused {
		decls[i] = site.Decl
	}
	removals := program.RemovalRanges(decls)

	for _, site := range unused {
		diag := r.reportUnused(site.Decl)
		if span, ok := removals[site.Decl]; ok {
			diag.Fixes = []diagnostic.SuggestedFix{
				diagnostic.RemovalFix(diagnostic.Range{Start: span.Start, End: span.End}),
			}
		}
		out.add(diag, site.Targets)
	}
	return out
}

func (fr *fileReport) add(d diagnostic.Diagnostic, targets []*program.Declaration) {
	fr.Diagnostics = append(fr.Diagnostics, d)
	fr.targets = append(fr.targets, targets)
}

func isAlive(sem *Semantics, site exportSite) bool {
	for _, t := range site.Targets {
		if sem.Alive.Has(t) {
			return true
		}
	}
	return false
}

func (r *reporter) ignored(d *program.Declaration) bool {
	name := d.NameText()
	return name != "" && r.ignore != nil && r.ignore.MatchString(name)
}

func (r *reporter) reportUnused(d *program.Declaration) diagnostic.Diagnostic {
	// The name token is reported rather than the whole declaration.
	at := d.Name
	kind := diagnostic.NamedDeclarationUnused
	data := map[string]string{"varName": d.NameText()}
	if at == nil {
		at = d.Node
		kind = diagnostic.AnonymousExportUnused
		data = nil
	}

	return diagnostic.New(
		d.File.Path, kind, data,
		at.StartPosition(), at.EndPosition(),
		diagnostic.Range{Start: at.StartByte(), End: at.EndByte()},
	)
}
