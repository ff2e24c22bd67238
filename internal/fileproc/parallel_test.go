package fileproc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/panbanda/deadexports/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapFilesPreservesOrder(t *testing.T) {
	files := make([]string, 50)
	for i := range files {
		files[i] = fmt.Sprintf("/src/file%d.ts", i)
	}

	results, errs := MapFiles(context.Background(), files, func(p *parser.Parser, path string) (string, error) {
		require.NotNil(t, p)
		return filepath.Base(path), nil
	})

	assert.False(t, errs.HasErrors())
	require.Len(t, results, len(files))
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("file%d.ts", i), r)
	}
}

func TestMapFilesCollectsErrors(t *testing.T) {
	files := []string{"/a.ts", "/b.ts", "/c.ts"}
	boom := errors.New("boom")

	var progress atomic.Int32
	results, errs := MapFilesN(context.Background(), files, Options{
		MaxWorkers: 2,
		OnProgress: func() { progress.Add(1) },
	}, func(_ *parser.Parser, path string) (string, error) {
		if path == "/b.ts" {
			return "", boom
		}
		return path, nil
	})

	assert.Equal(t, []string{"/a.ts", "/c.ts"}, results)
	require.True(t, errs.HasErrors())
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, "/b.ts", errs.Errors[0].Path)
	assert.ErrorIs(t, errs.Errors[0], boom)
	assert.Equal(t, "/b.ts: boom", errs.Error())
	assert.Equal(t, int32(3), progress.Load())
}

func TestMapFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, errs := MapFiles(ctx, []string{"/a.ts", "/b.ts"}, func(_ *parser.Parser, path string) (string, error) {
		return path, nil
	})
	assert.Empty(t, results)
	assert.Len(t, errs.Errors, 2)
}

func TestMapFilesEmpty(t *testing.T) {
	results, errs := MapFiles(context.Background(), nil, func(_ *parser.Parser, path string) (int, error) {
		return 0, nil
	})
	assert.Nil(t, results)
	assert.False(t, errs.HasErrors())
}

func TestProcessingErrorsMessage(t *testing.T) {
	errs := &ProcessingErrors{}
	assert.Equal(t, "no errors", errs.Error())
	errs.Add("/x.ts", errors.New("a"))
	errs.Add("/y.ts", errors.New("b"))
	assert.Contains(t, errs.Error(), "2 files failed to process")

	var nilErrs *ProcessingErrors
	assert.False(t, nilErrs.HasErrors())
}
