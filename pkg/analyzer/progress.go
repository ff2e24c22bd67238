package analyzer

import (
	"context"
	"sync"
)

// Stage names a phase of an analysis run.
type Stage string

const (
	StageParse Stage = "parse"
	StageCheck Stage = "check"
)

// Progress is a snapshot passed to a ProgressFunc.
type Progress struct {
	Stage Stage
	Done  int
	Total int
	File  string
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(Progress)

// Tracker counts completed items per stage. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	stage    Stage
	done     int
	total    int
	callback ProgressFunc
}

// NewTracker creates a tracker reporting to callback, which may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Begin starts stage with total items and resets the count.
func (t *Tracker) Begin(stage Stage, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stage = stage
	t.done = 0
	t.total = total
}

// Tick marks one item of the current stage as done.
func (t *Tracker) Tick(file string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	if t.callback != nil {
		t.callback(Progress{Stage: t.stage, Done: t.done, Total: t.total, File: file})
	}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Progress{Stage: t.stage, Done: t.done, Total: t.total}
}

type trackerKey struct{}

// WithTracker returns a context carrying t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker carried by ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
