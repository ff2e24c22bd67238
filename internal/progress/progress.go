// Package progress draws analysis progress on a terminal.
package progress

import (
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/panbanda/deadexports/pkg/analyzer"
)

var stageLabels = map[analyzer.Stage]string{
	analyzer.StageParse: "Parsing",
	analyzer.StageCheck: "Checking",
}

// Bar shows one progress bar per analysis stage.
type Bar struct {
	mu    sync.Mutex
	w     io.Writer
	stage analyzer.Stage
	bar   *progressbar.ProgressBar
	shown int
}

// New creates a bar writing to w, or stderr when w is nil.
func New(w io.Writer) *Bar {
	if w == nil {
		w = os.Stderr
	}
	return &Bar{w: w}
}

// Tracker returns an analyzer tracker that drives the bar.
func (b *Bar) Tracker() *analyzer.Tracker {
	return analyzer.NewTracker(b.Update)
}

// Update moves the bar to p, starting a new bar when the stage changes.
func (b *Bar) Update(p analyzer.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil || p.Stage != b.stage {
		b.finishLocked()
		b.stage = p.Stage
		b.bar = newBar(b.w, label(p.Stage), p.Total)
	}
	b.bar.Set(p.Done)
	b.shown = p.Done
}

// Finish clears the current bar.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finishLocked()
}

// Done returns the count shown by the current bar.
func (b *Bar) Done() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown
}

func (b *Bar) finishLocked() {
	if b.bar == nil {
		return
	}
	b.bar.Finish()
	b.bar.Clear()
	b.bar = nil
	b.shown = 0
}

func label(s analyzer.Stage) string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

func newBar(w io.Writer, label string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
