// Package config loads deadexports settings from TOML, YAML or JSON files.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/deadexports/pkg/analyzer/unusedexports"
)

// ErrInvalidConfig is returned when a config file does not match the schema.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration options for deadexports.
type Config struct {
	Analysis AnalysisConfig `koanf:"analysis"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	Output OutputConfig `koanf:"output"`

	Cache CacheConfig `koanf:"cache"`
}

// AnalysisConfig controls the unused-export analysis.
type AnalysisConfig struct {
	IgnorePattern string `koanf:"ignore_pattern"`
	Cwd           string `koanf:"cwd"`
	MaxWorkers    int    `koanf:"max_workers"`
	DetectCycles  bool   `koanf:"detect_cycles"`

	// Roots and RootTags accept several shapes and are decoded by hand.
	Roots    []unusedexports.RootSpec `koanf:"-"`
	RootTags unusedexports.RootTags   `koanf:"-"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
	// IncludeLibraries loads declaration files under node_modules so
	// package imports resolve. They are never reported.
	IncludeLibraries bool `koanf:"include_libraries"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color"`
}

// CacheConfig controls the on-disk result cache.
type CacheConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Dir      string `koanf:"dir"`
	TTLHours int    `koanf:"ttl_hours"` // 0 keeps entries until their inputs change
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			DetectCycles: true,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.bundle.js",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".deadexports",
				"dist",
				"build",
				"coverage",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Cache: CacheConfig{
			Dir:      ".deadexports/cache",
			TTLHours: 24,
		},
	}
}

// Load loads configuration from a file. The file is validated against the
// embedded schema before it is decoded.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := validate(k.Raw()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	// Lists replace the defaults instead of merging into them.
	if k.Exists("exclude.patterns") {
		cfg.Exclude.Patterns = k.Strings("exclude.patterns")
	}
	if k.Exists("exclude.dirs") {
		cfg.Exclude.Dirs = k.Strings("exclude.dirs")
	}

	roots, err := parseRoots(k.Get("analysis.roots"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	cfg.Analysis.Roots = roots
	cfg.Analysis.RootTags = parseRootTags(k.Get("analysis.root_tags"))

	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return kjson.Parser()
	default:
		return toml.Parser()
	}
}

// EnvFile names the environment variable that points at a config file.
const EnvFile = "DEADEXPORTS_CONFIG"

// FileNames are the config file names searched for, in order.
var FileNames = []string{
	"deadexports.toml",
	"deadexports.yaml",
	"deadexports.yml",
	"deadexports.json",
	".deadexports.toml",
	".deadexports.yaml",
	".deadexports.yml",
	".deadexports.json",
}

// Find returns the first config file found in dir or dir/.deadexports.
func Find(dir string) (string, bool) {
	for _, sub := range []string{".", ".deadexports"} {
		for _, name := range FileNames {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// LoadOrDefault loads the config file found in dir, or returns the
// defaults when there is none. It also returns the path that was loaded.
func LoadOrDefault(dir string) (*Config, string, error) {
	path, ok := Find(dir)
	if !ok {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// AnalyzerOptions converts the analysis section to analyzer options.
func (c *Config) AnalyzerOptions() unusedexports.Options {
	return unusedexports.Options{
		IgnorePattern: c.Analysis.IgnorePattern,
		Roots:         c.Analysis.Roots,
		RootTags:      c.Analysis.RootTags,
		Cwd:           c.Analysis.Cwd,
	}
}

// CacheTTL returns the configured entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if c.Exclude.IncludeLibraries && dir == "node_modules" {
			continue
		}
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// parseRoots accepts "file", "file#export" and ["file", "export"] items.
func parseRoots(v any) ([]unusedexports.RootSpec, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("roots: expected a list, got %T", v)
	}
	roots := make([]unusedexports.RootSpec, 0, len(items))
	for i, item := range items {
		switch it := item.(type) {
		case string:
			roots = append(roots, unusedexports.ParseRootSpec(it))
		case []any:
			var parts []string
			for _, p := range it {
				s, ok := p.(string)
				if !ok {
					return nil, fmt.Errorf("roots[%d]: expected strings", i)
				}
				parts = append(parts, s)
			}
			if len(parts) == 0 || len(parts) > 2 {
				return nil, fmt.Errorf("roots[%d]: expected [file] or [file, export]", i)
			}
			spec := unusedexports.RootSpec{File: parts[0]}
			if len(parts) == 2 {
				spec.Export = parts[1]
			}
			roots = append(roots, spec)
		default:
			return nil, fmt.Errorf("roots[%d]: unexpected %T", i, item)
		}
	}
	return roots, nil
}

// parseRootTags accepts a boolean or a list of tag names.
func parseRootTags(v any) unusedexports.RootTags {
	switch t := v.(type) {
	case bool:
		if t {
			return unusedexports.DefaultRootTags()
		}
	case []any:
		var names []string
		for _, n := range t {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
		return unusedexports.RootTagNames(names...)
	}
	return unusedexports.RootTags{}
}

const schemaURL = "https://github.com/panbanda/deadexports/config.schema.json"

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// validate checks a decoded config document against the schema. The
// document is re-encoded so that numbers have the JSON types the
// validator expects.
func validate(raw map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return sch.Validate(inst)
}
