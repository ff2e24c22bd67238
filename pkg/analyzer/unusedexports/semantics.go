package unusedexports

import (
	"log/slog"
	"regexp"
	"sync"

	"github.com/panbanda/deadexports/pkg/diagnostic"
	"github.com/panbanda/deadexports/pkg/program"
)

// Mode is the liveness policy chosen for a run.
type Mode uint8

const (
	// WholeProgram treats every declaration referenced from any project
	// file as used.
	WholeProgram Mode = iota
	// RootBased treats only declarations reachable from roots as used.
	RootBased
)

func (m Mode) String() string {
	if m == RootBased {
		return "root-based"
	}
	return "whole-program"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Semantics is the program-wide result shared by every file's report.
type Semantics struct {
	Mode         Mode
	Alive        *DeclarationSet
	ConfigErrors []ConfigError
	Fingerprint  string
}

// CheckAllFileSemantics selects the liveness mode and computes the alive
// set. Root-based mode is used when explicit roots are configured or any
// export carries a root tag.
func CheckAllFileSemantics(model program.Model, opts Options) (*Semantics, error) {
	if model == nil {
		return nil, ErrNoProgram
	}

	roots := ResolveRootsByDocTag(model, opts.RootTags.TagNames())
	if len(opts.Roots) == 0 && roots.IsEmpty() {
		return &Semantics{
			Mode:        WholeProgram,
			Alive:       ResolveUsingDeclarationsByAnyFile(model),
			Fingerprint: model.Fingerprint(),
		}, nil
	}

	c := NewRootCollector(model, opts.Cwd, roots)
	c.CollectRoots(opts.Roots)
	return &Semantics{
		Mode:         RootBased,
		Alive:        ResolveUsingDeclarationsByRoots(model, c.Roots()),
		ConfigErrors: c.Errors(),
		Fingerprint:  model.Fingerprint(),
	}, nil
}

// Pass checks the files of one program snapshot. Program semantics are
// computed on first use and shared by every CheckFile call.
type Pass struct {
	model  program.Model
	opts   Options
	ignore *regexp.Regexp
	logger *slog.Logger

	once sync.Once
	sem  *Semantics
	err  error
}

// NewPass validates opts and prepares a pass over model.
func NewPass(model program.Model, opts Options, logger *slog.Logger) (*Pass, error) {
	if model == nil {
		return nil, ErrNoProgram
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ignore, err := opts.ignoreRegexp()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pass{model: model, opts: opts, ignore: ignore, logger: logger}, nil
}

// Semantics returns the memoized program semantics.
func (p *Pass) Semantics() (*Semantics, error) {
	p.once.Do(func() {
		p.sem, p.err = CheckAllFileSemantics(p.model, p.opts)
		if p.err == nil {
			p.logger.Debug("program semantics computed",
				"mode", p.sem.Mode.String(),
				"alive", p.sem.Alive.Len(),
				"config_errors", len(p.sem.ConfigErrors))
		}
	})
	return p.sem, p.err
}

// CheckFile reports f's configuration errors and unused exports.
func (p *Pass) CheckFile(f *program.File) ([]diagnostic.Diagnostic, error) {
	r, err := p.checkFile(f)
	if err != nil {
		return nil, err
	}
	return r.Diagnostics, nil
}

func (p *Pass) checkFile(f *program.File) (fileReport, error) {
	sem, err := p.Semantics()
	if err != nil {
		return fileReport{}, err
	}
	return (&reporter{model: p.model, ignore: p.ignore}).checkFile(sem, f), nil
}
