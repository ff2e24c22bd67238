package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panbanda/deadexports/pkg/analyzer"
)

func TestBar_FollowsTracker(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf)
	tr := b.Tracker()

	tr.Begin(analyzer.StageParse, 3)
	tr.Tick("")
	tr.Tick("")
	assert.Equal(t, 2, b.Done())
	assert.Equal(t, analyzer.StageParse, b.stage)

	tr.Begin(analyzer.StageCheck, 2)
	tr.Tick("/a.ts")
	assert.Equal(t, 1, b.Done())
	assert.Equal(t, analyzer.StageCheck, b.stage)

	b.Finish()
	assert.Equal(t, 0, b.Done())
	assert.Nil(t, b.bar)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Parsing", label(analyzer.StageParse))
	assert.Equal(t, "custom", label(analyzer.Stage("custom")))
}
