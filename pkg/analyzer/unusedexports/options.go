package unusedexports

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoProgram is returned when no program model is available.
	ErrNoProgram = errors.New("program model not available")
	// ErrInvalidOptions is returned for options that cannot be used.
	ErrInvalidOptions = errors.New("invalid options")
)

// DefaultRootTagNames are used when root tags are enabled without names.
var DefaultRootTagNames = []string{"root", "entrypoint"}

// RootSpec names a root file and, optionally, one of its exports. An
// empty Export selects every export of the file.
type RootSpec struct {
	File   string `json:"file"`
	Export string `json:"export,omitempty"`
}

// ParseRootSpec parses "file" or "file#export".
func ParseRootSpec(s string) RootSpec {
	if i := strings.LastIndex(s, "#"); i > 0 {
		return RootSpec{File: s[:i], Export: s[i+1:]}
	}
	return RootSpec{File: s}
}

func (r RootSpec) String() string {
	if r.Export == "" {
		return r.File
	}
	return r.File + "#" + r.Export
}

// RootTags selects doc-comment tags that mark exports as roots.
type RootTags struct {
	Enabled bool     `json:"enabled"`
	Names   []string `json:"names,omitempty"`
}

// DefaultRootTags enables the default tag names.
func DefaultRootTags() RootTags {
	return RootTags{Enabled: true}
}

// RootTagNames enables exactly names. No names disables tag roots.
func RootTagNames(names ...string) RootTags {
	return RootTags{Enabled: len(names) > 0, Names: names}
}

// TagNames returns the effective tag names.
func (r RootTags) TagNames() []string {
	if !r.Enabled {
		return nil
	}
	if len(r.Names) == 0 {
		return DefaultRootTagNames
	}
	return r.Names
}

// Options configure one analysis run.
type Options struct {
	// IgnorePattern suppresses reports for names it matches.
	IgnorePattern string
	// Roots are explicit entry points.
	Roots []RootSpec
	// RootTags mark exports carrying matching doc tags as entry points.
	RootTags RootTags
	// Cwd resolves relative root files.
	Cwd string
}

func (o Options) ignoreRegexp() (*regexp.Regexp, error) {
	if o.IgnorePattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(o.IgnorePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: ignore pattern: %w", ErrInvalidOptions, err)
	}
	return re, nil
}

// Validate reports option values that cannot be used.
func (o Options) Validate() error {
	if _, err := o.ignoreRegexp(); err != nil {
		return err
	}
	for i, r := range o.Roots {
		if r.File == "" {
			return fmt.Errorf("%w: root %d has no file", ErrInvalidOptions, i)
		}
	}
	return nil
}
