// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panbanda/deadexports/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x suits the mix of I/O and CGO parsing work.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Options tune a parallel run.
type Options struct {
	MaxWorkers int
	OnProgress ProgressFunc
}

// MapFiles processes files in parallel, calling fn with a dedicated parser
// per worker. Results keep the input order; failed files leave no entry.
func MapFiles[T any](ctx context.Context, files []string, fn func(*parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	return MapFilesN(ctx, files, Options{}, fn)
}

// MapFilesN is MapFiles with explicit options.
// If opts.MaxWorkers is <= 0, defaults to 2x NumCPU.
func MapFilesN[T any](ctx context.Context, files []string, opts Options, fn func(*parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	errs := &ProcessingErrors{}
	if len(files) == 0 {
		return nil, errs
	}

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	// Parsers are reused across the files a worker handles.
	parsers := make(chan *parser.Parser, maxWorkers)
	for range maxWorkers {
		parsers <- parser.New()
	}
	defer func() {
		close(parsers)
		for psr := range parsers {
			psr.Close()
		}
	}()

	slots := make([]T, len(files))
	ok := make([]bool, len(files))

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, path := range files {
		p.Go(func() {
			defer func() {
				if opts.OnProgress != nil {
					opts.OnProgress()
				}
			}()

			if err := ctx.Err(); err != nil {
				errs.Add(path, err)
				return
			}

			psr := <-parsers
			defer func() { parsers <- psr }()

			result, err := fn(psr, path)
			if err != nil {
				errs.Add(path, err)
				return
			}
			slots[i] = result
			ok[i] = true
		})
	}
	p.Wait()

	results := make([]T, 0, len(files))
	for i := range slots {
		if ok[i] {
			results = append(results, slots[i])
		}
	}
	return results, errs
}
