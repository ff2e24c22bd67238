// Package analyzer holds the pieces shared by analyzers: the common
// entry point interface and progress reporting through a context.
package analyzer

import "context"

// FileAnalyzer analyzes a set of files as one program.
type FileAnalyzer[T any] interface {
	// Analyze loads files and returns the result. ctx cancels the run and
	// may carry a Tracker.
	Analyze(ctx context.Context, files []string) (T, error)

	Close()
}
