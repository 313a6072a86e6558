package content

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

const refetchHint = "Re-fetch the current note content and regenerate the patch against it"

// ApplyUnifiedDiff applies a unified diff for a single logical file to
// content. Each hunk must match the content exactly; a hunk may sit at a
// different line than its header claims, but context is never fuzzed. Any
// mismatch fails the whole patch.
func ApplyUnifiedDiff(content, patch string) (string, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(withFileHeader(patch)))
	if err != nil {
		return "", patchFailed("patch could not be parsed: %v", err)
	}
	if len(files) != 1 {
		return "", patchFailed("patch must describe exactly one file, found %d", len(files))
	}
	file := files[0]
	if file.IsBinary || len(file.TextFragments) == 0 {
		return "", patchFailed("patch contains no text hunks")
	}

	lines, trailingNewline := splitLines(content)
	out := make([]string, 0, len(lines))
	next, shift := 0, 0
	for i, frag := range file.TextFragments {
		oldLines, newLines := fragmentLines(frag)

		// Pure insertions name the line they follow; everything else names
		// the first line they cover.
		want := int(frag.OldPosition) - 1
		if frag.OldLines == 0 {
			want = int(frag.OldPosition)
		}

		at := locate(lines, oldLines, want+shift, next)
		if at == -1 {
			return "", patchFailed("hunk %d (%s) does not match the current content", i+1, hunkHeader(frag))
		}
		shift = at - want

		out = append(out, lines[next:at]...)
		out = append(out, newLines...)
		next = at + len(oldLines)
	}
	out = append(out, lines[next:]...)

	// A final hunk reaching the end of the content decides the trailing
	// newline when it carries a "\ No newline at end of file" marker.
	if next == len(lines) {
		last := file.TextFragments[len(file.TextFragments)-1]
		newline, marked := eofNewline(last)
		if marked || content == "" {
			trailingNewline = newline
		}
	}
	return joinLines(out, trailingNewline), nil
}

func patchFailed(format string, args ...any) error {
	return &Error{
		Kind:    KindPatchFailed,
		Message: "patch failed: " + fmt.Sprintf(format, args...) + ". " + refetchHint,
	}
}

// withFileHeader adds a minimal ---/+++ header when the patch consists of
// hunks only, and makes sure the last line is terminated.
func withFileHeader(patch string) string {
	if !strings.HasSuffix(patch, "\n") {
		patch += "\n"
	}
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "diff ") {
			return patch
		}
		if strings.HasPrefix(line, "@@") {
			break
		}
	}
	return "--- a/note\n+++ b/note\n" + patch
}

func fragmentLines(frag *gitdiff.TextFragment) (oldLines, newLines []string) {
	for _, l := range frag.Lines {
		text := strings.TrimSuffix(l.Line, "\n")
		switch l.Op {
		case gitdiff.OpContext:
			oldLines = append(oldLines, text)
			newLines = append(newLines, text)
		case gitdiff.OpDelete:
			oldLines = append(oldLines, text)
		case gitdiff.OpAdd:
			newLines = append(newLines, text)
		}
	}
	return oldLines, newLines
}

// locate finds the start of block in lines, trying want first and then
// positions increasingly far from it. Matches before from are never
// considered, so hunks cannot overlap or go backwards.
func locate(lines, block []string, want, from int) int {
	last := len(lines) - len(block)
	if last < from {
		return -1
	}
	if len(block) == 0 {
		return max(from, min(want, last))
	}

	for d := 0; want-d >= from || want+d <= last; d++ {
		if at := want + d; at >= from && at <= last && matchAt(lines, block, at) {
			return at
		}
		if at := want - d; d > 0 && at >= from && at <= last && matchAt(lines, block, at) {
			return at
		}
	}
	return -1
}

func matchAt(lines, block []string, at int) bool {
	for i, l := range block {
		if lines[at+i] != l {
			return false
		}
	}
	return true
}

func splitLines(content string) ([]string, bool) {
	if content == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(content, "\n")
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n"), trailing
}

func joinLines(lines []string, trailingNewline bool) string {
	if len(lines) == 0 {
		return ""
	}
	s := strings.Join(lines, "\n")
	if trailingNewline {
		s += "\n"
	}
	return s
}

// eofNewline reports whether the new side of frag ends with a newline and
// whether any line of frag is marked as lacking one. The parser leaves the
// newline off a line followed by "\ No newline at end of file".
func eofNewline(frag *gitdiff.TextFragment) (newline, marked bool) {
	newline = true
	seenNew := false
	for i := len(frag.Lines) - 1; i >= 0; i-- {
		l := frag.Lines[i]
		terminated := strings.HasSuffix(l.Line, "\n")
		if !terminated {
			marked = true
		}
		if !seenNew && l.Op != gitdiff.OpDelete {
			newline = terminated
			seenNew = true
		}
	}
	return newline, marked
}

func hunkHeader(frag *gitdiff.TextFragment) string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", frag.OldPosition, frag.OldLines, frag.NewPosition, frag.NewLines)
}
