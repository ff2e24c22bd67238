// Package scanner finds the TypeScript and JavaScript files of a project.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/deadexports/pkg/config"
	"github.com/panbanda/deadexports/pkg/parser"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config  *config.Config
	matcher gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot returns the nearest ancestor of start holding a .git
// directory, or "".
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns combines the configured patterns and directories with
// the repository's .gitignore files into one matcher.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range s.config.Exclude.Dirs {
		if dir == "node_modules" && s.config.Exclude.IncludeLibraries {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil {
				// .gitignore patterns are relative to the repository root.
				rel, _ := filepath.Rel(gitRoot, root)
				for _, p := range gitPatterns {
					patterns = append(patterns, rebase(p, rel))
				}
			}
		}
	}

	s.matcher = gitignore.NewMatcher(patterns)
}

// rebased adapts a pattern rooted at the repository to paths relative to a
// subdirectory of it.
type rebased struct {
	pattern gitignore.Pattern
	prefix  []string
}

func rebase(p gitignore.Pattern, rel string) gitignore.Pattern {
	if rel == "." || rel == "" {
		return p
	}
	return rebased{pattern: p, prefix: strings.Split(rel, string(filepath.Separator))}
}

func (r rebased) Match(path []string, isDir bool) gitignore.MatchResult {
	full := make([]string, 0, len(r.prefix)+len(path))
	full = append(full, r.prefix...)
	full = append(full, path...)
	return r.pattern.Match(full, isDir)
}

func (s *Scanner) isExcluded(relPath string, isDir bool) bool {
	if s.matcher == nil || relPath == "." {
		return false
	}
	return s.matcher.Match(strings.Split(relPath, string(filepath.Separator)), isDir)
}

// isSourceFile reports whether path should be loaded. Under node_modules
// only declaration files are, and only when libraries are included.
func (s *Scanner) isSourceFile(path string) bool {
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return false
	}
	slashed := filepath.ToSlash(path)
	if strings.Contains("/"+slashed, "/node_modules/") {
		return s.config.Exclude.IncludeLibraries && strings.HasSuffix(slashed, ".d.ts")
	}
	return true
}

// ScanDir recursively scans a directory for source files. Symlinks that
// leave the root are not followed.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	files := make([]string, 0, 256)
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, _ := filepath.Rel(absRoot, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.isExcluded(relPath, false) {
			return nil
		}
		if s.isSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// ScanPaths expands directories and keeps source files, returning sorted
// absolute paths without duplicates. An empty list scans ".".
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			files, err := s.ScanDir(p)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if s.isSourceFile(abs) {
			add(abs)
		}
	}
	sort.Strings(out)
	return out, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
