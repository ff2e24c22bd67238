// Package analysis runs the unused-export check over paths on disk. It is
// shared by the CLI and the MCP server.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/panbanda/deadexports/internal/cache"
	"github.com/panbanda/deadexports/internal/scanner"
	"github.com/panbanda/deadexports/pkg/analyzer"
	"github.com/panbanda/deadexports/pkg/analyzer/unusedexports"
	"github.com/panbanda/deadexports/pkg/config"
	"github.com/panbanda/deadexports/pkg/models"
)

// ErrNoFiles is returned when the paths hold no TypeScript or JavaScript.
var ErrNoFiles = errors.New("no source files found")

// Service orchestrates scanning and analysis.
type Service struct {
	config *config.Config
	logger *slog.Logger
	cache  *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger passed to the analyzer.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache stores results in c and reuses them while the scanned files
// and options are unchanged.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
		cache:  cache.Disabled(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration in use.
func (s *Service) Config() *config.Config {
	return s.config
}

// AnalyzerOptions returns the configured analysis options. Callers may
// override fields before passing them to FindUnusedExports.
func (s *Service) AnalyzerOptions() unusedexports.Options {
	return s.config.AnalyzerOptions()
}

// Scan returns the source files under paths.
func (s *Service) Scan(paths []string) ([]string, error) {
	files, err := scanner.NewScanner(s.config).ScanPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

// FindUnusedExports scans paths and reports their unused exports. A nil
// tracker disables progress reporting. Relative root files are resolved
// against opts.Cwd, which defaults to the working directory.
func (s *Service) FindUnusedExports(ctx context.Context, paths []string, opts unusedexports.Options, tracker *analyzer.Tracker) (*models.ExportAnalysis, error) {
	files, err := s.Scan(paths)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("scanned", "paths", paths, "files", len(files))

	if opts.Cwd, err = absCwd(opts.Cwd); err != nil {
		return nil, err
	}

	key, hash, err := s.cacheKey(files, opts)
	if err != nil {
		return nil, err
	}
	var cached models.ExportAnalysis
	if s.cache.Get(key, hash, &cached) {
		s.logger.Debug("cache hit", "files", len(files))
		return &cached, nil
	}

	aopts := []unusedexports.Option{
		unusedexports.WithOptions(opts),
		unusedexports.WithMaxWorkers(s.config.Analysis.MaxWorkers),
		unusedexports.WithLogger(s.logger),
	}
	if !s.config.Analysis.DetectCycles {
		aopts = append(aopts, unusedexports.WithoutCycleDetection())
	}
	a := unusedexports.New(aopts...)
	defer a.Close()

	if tracker != nil {
		ctx = analyzer.WithTracker(ctx, tracker)
	}
	result, err := a.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(key, hash, result); err != nil {
		s.logger.Warn("cache write failed", "dir", s.cache.Dir(), "error", err)
	}
	return result, nil
}

// cacheKey names the slot for a file set and hashes everything the result
// depends on.
func (s *Service) cacheKey(files []string, opts unusedexports.Options) (string, string, error) {
	if !s.cache.Enabled() {
		return "", "", nil
	}
	extra, err := json.Marshal(struct {
		Options      unusedexports.Options
		DetectCycles bool
	}{opts, s.config.Analysis.DetectCycles})
	if err != nil {
		return "", "", fmt.Errorf("cache key: %w", err)
	}
	key := "unused-exports\n" + strings.Join(files, "\n")
	return key, cache.Digest(files, extra), nil
}

func absCwd(cwd string) (string, error) {
	if cwd == "" {
		return os.Getwd()
	}
	return filepath.Abs(cwd)
}
