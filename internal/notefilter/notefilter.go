// Package notefilter keeps the agent away from system notes and restricts
// content edits to note types whose content is plain text.
package notefilter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/taigrr/trilium-mcp/internal/types"
)

// NoteFilter filters note IDs and editable note types.
type NoteFilter struct {
	ignoredPatterns []string
	ignored         []glob.Glob
	editableTypes   []string
}

// New creates a NoteFilter with the given configuration. Configured patterns
// extend the defaults, which hide every system note (IDs starting with "_").
func New(config *types.NoteFilterConfig) (*NoteFilter, error) {
	nf := &NoteFilter{
		ignoredPatterns: []string{
			"_*",
		},
		editableTypes: []string{
			"text",
			"code",
			"mermaid",
		},
	}

	if config != nil {
		nf.ignoredPatterns = append(nf.ignoredPatterns, config.IgnoredNoteIDs...)
		for _, t := range config.EditableTypes {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && !slices.Contains(nf.editableTypes, t) {
				nf.editableTypes = append(nf.editableTypes, t)
			}
		}
	}

	for _, pattern := range nf.ignoredPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ignored note pattern %q: %w", pattern, err)
		}
		nf.ignored = append(nf.ignored, g)
	}

	return nf, nil
}

// IsAllowed reports whether the note with the given ID may be accessed.
func (nf *NoteFilter) IsAllowed(noteID string) bool {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return false
	}
	for _, g := range nf.ignored {
		if g.Match(noteID) {
			return false
		}
	}
	return true
}

// CheckEditable returns an error explaining why the note's content may not
// be changed, or nil if it may.
func (nf *NoteFilter) CheckEditable(note types.Note) error {
	if !nf.IsAllowed(note.NoteID) {
		return fmt.Errorf("access denied: %s", note.NoteID)
	}
	if note.IsProtected {
		return fmt.Errorf("note %s is protected; its content cannot be read or changed through ETAPI", note.NoteID)
	}
	if !slices.Contains(nf.editableTypes, note.Type) {
		return fmt.Errorf("note %s has type %q; only %s notes can be edited",
			note.NoteID, note.Type, strings.Join(nf.editableTypes, ", "))
	}
	return nil
}

// FilterNotes returns the allowed notes and how many were dropped.
func (nf *NoteFilter) FilterNotes(notes []types.Note) ([]types.Note, int) {
	allowed := make([]types.Note, 0, len(notes))
	for _, n := range notes {
		if nf.IsAllowed(n.NoteID) {
			allowed = append(allowed, n)
		}
	}
	return allowed, len(notes) - len(allowed)
}
