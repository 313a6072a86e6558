// Package diff renders the change made to a note's content so tool output can
// show the agent what was actually written.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines shown around each hunk.
const contextLines = 3

// maxDiffLen caps the rendered diff; longer output is cut at a line boundary.
const maxDiffLen = 4000

// Result describes a content change.
type Result struct {
	Inserted int    // characters inserted
	Deleted  int    // characters deleted
	Unified  string // unified diff, possibly cut short
}

// Changed reports whether any characters differ.
func (r Result) Changed() bool {
	return r.Inserted > 0 || r.Deleted > 0
}

// Compute returns the change from oldContent to newContent. label names the
// note in the unified diff header.
func Compute(oldContent, newContent, label string) Result {
	var r Result
	if oldContent == newContent {
		return r
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldContent, newContent, false))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			r.Inserted += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			r.Deleted += len([]rune(d.Text))
		}
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(oldContent),
		B:        splitLines(newContent),
		FromFile: "a/" + label,
		ToFile:   "b/" + label,
		Context:  contextLines,
	})
	if err == nil {
		r.Unified = clip(unified, maxDiffLen)
	}
	return r
}

// splitLines is difflib.SplitLines without the phantom empty line it adds
// for content that already ends in a newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := strings.LastIndex(s[:limit], "\n")
	if cut <= 0 {
		cut = limit
	}
	return s[:cut] + "\n... (diff truncated)\n"
}
