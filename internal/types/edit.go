package types

type (
	// Edit is a single search/replace operation. An empty Search prepends
	// Replacement to the content.
	Edit struct {
		Search      string `json:"search" jsonschema:"Exact text to find; must occur exactly once. Empty string prepends the replacement"`
		Replacement string `json:"replacement" jsonschema:"Text to put in place of search"`
	}

	// UpdateParams contains parameters for changing a note's content. Exactly
	// one of Content, Edits or Patch must be set.
	UpdateParams struct {
		NoteID         string
		Content        *string
		Edits          []Edit
		Patch          *string
		Format         string // "html" (default) or "markdown", full replacement only
		CreateRevision bool
	}

	// UpdateResult contains the result of a content update.
	UpdateResult struct {
		NoteID   string `json:"noteId"`
		Mode     string `json:"mode"`
		Changed  bool   `json:"changed"`
		Verified bool   `json:"verified,omitempty"`
		Inserted int    `json:"inserted"`
		Deleted  int    `json:"deleted"`
		Diff     string `json:"diff,omitempty"`
	}
)
