package diagnostic

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlappingEdits is returned when two edits touch the same bytes.
var ErrOverlappingEdits = errors.New("overlapping edits")

// ApplyEdits applies edits to src. Edits nested inside another edit are
// dropped; partially overlapping edits are an error.
func ApplyEdits(src []byte, edits []TextEdit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}
	sorted := make([]TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Range.Start != sorted[j].Range.Start {
			return sorted[i].Range.Start < sorted[j].Range.Start
		}
		return sorted[i].Range.End > sorted[j].Range.End
	})

	out := make([]byte, 0, len(src))
	last := 0
	for _, e := range sorted {
		r := e.Range
		if r.Start < 0 || r.End > len(src) || r.Start > r.End {
			return nil, fmt.Errorf("edit %d-%d out of bounds (len %d)", r.Start, r.End, len(src))
		}
		if r.Start < last {
			if r.End <= last {
				continue
			}
			return nil, fmt.Errorf("%w: %d-%d", ErrOverlappingEdits, r.Start, r.End)
		}
		out = append(out, src[last:r.Start]...)
		out = append(out, e.NewText...)
		last = r.End
	}
	out = append(out, src[last:]...)
	return out, nil
}

// EditsByFile collects the edits of every fix, grouped by file.
func EditsByFile(ds []Diagnostic) map[string][]TextEdit {
	out := make(map[string][]TextEdit)
	for _, d := range ds {
		for _, f := range d.Fixes {
			out[d.File] = append(out[d.File], f.Edits...)
		}
	}
	return out
}
