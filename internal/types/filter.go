package types

// NoteFilterConfig contains configuration for the note filter.
type NoteFilterConfig struct {
	IgnoredNoteIDs []string `json:"ignoredNoteIds" yaml:"ignored_note_ids"`
	EditableTypes  []string `json:"editableTypes" yaml:"editable_types"`
}

// FrontmatterValidationResult contains the result of frontmatter validation.
type FrontmatterValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
