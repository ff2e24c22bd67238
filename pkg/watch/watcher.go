// Package watch re-runs the analysis when source files change.
package watch

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/deadexports/pkg/config"
	"github.com/panbanda/deadexports/pkg/parser"
)

// DefaultDebounce is how long a batch of changes must be quiet before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the sorted paths changed since the previous call.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher monitors a directory tree and reports batches of changed source
// files. Batches are delivered one at a time.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string
	out       io.Writer
	callback  ChangeFunc
	now       func() time.Time

	mu       sync.Mutex
	pending  map[string]struct{}
	lastSeen time.Time
}

// NewWatcher creates a watcher for the tree rooted at path.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		out:       os.Stdout,
		now:       time.Now,
		pending:   make(map[string]struct{}),
	}, nil
}

// SetCallback sets the function to call when files change.
func (w *Watcher) SetCallback(cb ChangeFunc) {
	w.callback = cb
}

// SetOutput redirects status messages.
func (w *Watcher) SetOutput(out io.Writer) {
	w.out = out
}

func (w *Watcher) skipDir(name string) bool {
	for _, excluded := range w.config.Exclude.Dirs {
		if name == excluded {
			return true
		}
	}
	return false
}

// addTree watches root and every directory below it that is not excluded.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Start watches until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.path); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Fprintf(w.out, "Watching for changes in %s...\n", w.path)
	cyan.Fprintln(w.out, "Press Ctrl+C to stop")

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.New(color.FgRed).Fprintf(w.out, "Watch error: %v\n", err)
		}
	}
}

// handleEvent records a filesystem event. New directories are watched too.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.skipDir(info.Name()) {
				_ = w.addTree(path)
			}
			return
		}
	}

	if w.config.ShouldExclude(path) || !parser.IsSupported(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.lastSeen = w.now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(w.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if batch := w.takeReady(); len(batch) > 0 {
				w.run(ctx, batch)
			}
		}
	}
}

// takeReady returns the pending paths once no event has arrived for the
// debounce period, and clears them.
func (w *Watcher) takeReady() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || w.now().Sub(w.lastSeen) < w.debounce {
		return nil
	}
	batch := make([]string, 0, len(w.pending))
	for path := range w.pending {
		batch = append(batch, path)
	}
	clear(w.pending)
	sort.Strings(batch)
	return batch
}

func (w *Watcher) run(ctx context.Context, batch []string) {
	yellow := color.New(color.FgYellow)
	for _, path := range batch {
		rel, err := filepath.Rel(w.path, path)
		if err != nil {
			rel = path
		}
		yellow.Fprintf(w.out, "File changed: %s\n", rel)
	}
	if w.callback != nil {
		w.callback(ctx, batch)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the watched directories.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
