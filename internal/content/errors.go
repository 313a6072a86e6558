// Package content applies partial edits to an opaque note content string:
// ordered search/replace blocks, unified diffs and full replacement, plus
// verification that a persisted write kept the expected text.
package content

import (
	"errors"
	"unicode/utf8"
)

// Kind distinguishes the conditions under which a content operation fails.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindAmbiguous
	KindPatchFailed
	KindNoModeSpecified
	KindConflictingModes
	KindReadbackMismatch
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindAmbiguous:
		return "Ambiguous"
	case KindPatchFailed:
		return "PatchFailed"
	case KindNoModeSpecified:
		return "NoModeSpecified"
	case KindConflictingModes:
		return "ConflictingModes"
	case KindReadbackMismatch:
		return "ReadbackMismatch"
	}
	return "Unknown"
}

// Error is returned by every operation in this package.
type Error struct {
	Kind    Kind
	Message string
	// Details lists the offending strings, already truncated for display.
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches sentinels of the same Kind, so errors.Is(err, ErrNotFound)
// works for any NotFound error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

// Sentinels for use with errors.Is.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrAmbiguous        = &Error{Kind: KindAmbiguous}
	ErrPatchFailed      = &Error{Kind: KindPatchFailed}
	ErrNoModeSpecified  = &Error{Kind: KindNoModeSpecified}
	ErrConflictingModes = &Error{Kind: KindConflictingModes}
	ErrReadbackMismatch = &Error{Kind: KindReadbackMismatch}
)

// KindOf returns the Kind of err, or 0 if err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Display limits for echoing caller input back in error messages.
const (
	searchEchoLimit   = 100
	readbackEchoLimit = 200
)

// truncate shortens s to at most limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
