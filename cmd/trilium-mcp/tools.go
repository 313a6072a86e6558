package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/trilium-mcp/internal/types"
)

type (
	// SearchInput contains parameters for searching notes.
	SearchInput struct {
		Query                string `json:"query" jsonschema:"Trilium search query: keywords, #label filters, note.* conditions, combined with AND/OR"`
		FastSearch           bool   `json:"fastSearch,omitempty" jsonschema:"Search titles and attributes only, not content (default: false)"`
		IncludeArchivedNotes bool   `json:"includeArchivedNotes,omitempty" jsonschema:"Include archived notes (default: false)"`
		AncestorNoteID       string `json:"ancestorNoteId,omitempty" jsonschema:"Only search below this note"`
		AncestorDepth        string `json:"ancestorDepth,omitempty" jsonschema:"Depth limit below the ancestor, e.g. eq1 or lt4"`
		OrderBy              string `json:"orderBy,omitempty" jsonschema:"Property to order by, e.g. title or dateModified"`
		OrderDirection       string `json:"orderDirection,omitempty" jsonschema:"asc or desc"`
		Limit                int    `json:"limit,omitempty" jsonschema:"Maximum results (default: 25, max: 100)"`
	}

	// SearchOutput contains search results.
	SearchOutput struct {
		Query   string               `json:"query"`
		Results []types.SearchResult `json:"results"`
		Hidden  int                  `json:"hidden,omitempty"`
	}

	// GrepInput contains parameters for matching text inside searched notes.
	GrepInput struct {
		Query         string `json:"query" jsonschema:"Trilium search query selecting the notes to look in"`
		Pattern       string `json:"pattern" jsonschema:"Text to find in each note's stored content (plain text or regex if useRegex=true)"`
		UseRegex      bool   `json:"useRegex,omitempty" jsonschema:"Treat pattern as regex (default: false)"`
		CaseSensitive bool   `json:"caseSensitive,omitempty" jsonschema:"Case sensitive match (default: false)"`
		ContextLines  int    `json:"contextLines,omitempty" jsonschema:"Lines of context before/after match (default: 2)"`
		Limit         int    `json:"limit,omitempty" jsonschema:"Maximum notes to look in (default and max: 50)"`
	}

	// GrepOutput contains matches grouped by note.
	GrepOutput struct {
		Results []types.GrepResult `json:"results"`
	}

	// GetInput contains parameters for reading a note.
	GetInput struct {
		NoteID        string `json:"noteId" jsonschema:"ID of the note"`
		Offset        int    `json:"offset,omitempty" jsonschema:"Line offset to start reading from (default: 0)"`
		Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of lines to return (default: all)"`
		Find          string `json:"find,omitempty" jsonschema:"Return only lines matching this text, with context, instead of the content"`
		UseRegex      bool   `json:"useRegex,omitempty" jsonschema:"Treat find as regex (default: false)"`
		CaseSensitive bool   `json:"caseSensitive,omitempty" jsonschema:"Case sensitive find (default: false)"`
		ContextLines  int    `json:"contextLines,omitempty" jsonschema:"Lines of context around each find match (default: 2)"`
	}

	// GetOutput contains a note and its content.
	GetOutput struct {
		Note       types.Note           `json:"note"`
		Content    string               `json:"content,omitempty"`
		TotalLines int                  `json:"totalLines"`
		Truncated  bool                 `json:"truncated,omitempty"`
		Matches    []types.ContentMatch `json:"matches,omitempty"`
		URL        string               `json:"url,omitempty"`
	}

	// CreateInput contains parameters for creating a note.
	CreateInput struct {
		ParentNoteID string `json:"parentNoteId,omitempty" jsonschema:"Parent note ID (default: root)"`
		Title        string `json:"title,omitempty" jsonschema:"Note title; may come from a markdown frontmatter title instead"`
		Type         string `json:"type,omitempty" jsonschema:"Note type: text, code, mermaid, ... (default: text)"`
		Mime         string `json:"mime,omitempty" jsonschema:"MIME type, required for code notes, e.g. text/x-go"`
		Content      string `json:"content" jsonschema:"Note content"`
		Format       string `json:"format,omitempty" jsonschema:"html (default) or markdown; markdown frontmatter becomes labels"`
	}

	// CreateOutput contains the created note.
	CreateOutput struct {
		NoteID   string            `json:"noteId"`
		Title    string            `json:"title"`
		BranchID string            `json:"branchId"`
		Labels   []types.Attribute `json:"labels,omitempty"`
		URL      string            `json:"url,omitempty"`
	}

	// UpdateInput contains parameters for changing a note's content.
	UpdateInput struct {
		NoteID         string       `json:"noteId" jsonschema:"ID of the note"`
		Content        *string      `json:"content,omitempty" jsonschema:"Full replacement content"`
		Edits          []types.Edit `json:"edits,omitempty" jsonschema:"Search/replace edits applied in order; each search must match the current stored content exactly once"`
		Patch          *string      `json:"patch,omitempty" jsonschema:"Unified diff against the current stored content"`
		Format         string       `json:"format,omitempty" jsonschema:"html (default) or markdown; only applies to content"`
		CreateRevision bool         `json:"createRevision,omitempty" jsonschema:"Save a revision of the current content before writing (default: false)"`
	}

	// UpdateOutput contains the result of a content change.
	UpdateOutput struct {
		NoteID   string `json:"noteId"`
		Mode     string `json:"mode"`
		Changed  bool   `json:"changed"`
		Verified bool   `json:"verified,omitempty"`
		Inserted int    `json:"inserted"`
		Deleted  int    `json:"deleted"`
		Diff     string `json:"diff,omitempty"`
	}

	// RenameInput contains parameters for renaming a note.
	RenameInput struct {
		NoteID string `json:"noteId" jsonschema:"ID of the note"`
		Title  string `json:"title" jsonschema:"New title"`
	}

	// RenameOutput contains the result of renaming a note.
	RenameOutput struct {
		NoteID string `json:"noteId"`
		Title  string `json:"title"`
	}

	// MoveInput contains parameters for moving a note.
	MoveInput struct {
		NoteID          string `json:"noteId" jsonschema:"ID of the note"`
		NewParentNoteID string `json:"newParentNoteId" jsonschema:"ID of the new parent"`
		OldParentNoteID string `json:"oldParentNoteId,omitempty" jsonschema:"Parent to move away from; required if the note has several parents"`
		Prefix          string `json:"prefix,omitempty" jsonschema:"Branch prefix shown before the title under the new parent"`
	}

	// MoveOutput contains the result of moving a note.
	MoveOutput struct {
		NoteID          string `json:"noteId"`
		OldParentNoteID string `json:"oldParentNoteId"`
		NewParentNoteID string `json:"newParentNoteId"`
		BranchID        string `json:"branchId"`
	}

	// DeleteInput contains parameters for deleting a note.
	DeleteInput struct {
		NoteID  string `json:"noteId" jsonschema:"ID of the note"`
		Confirm string `json:"confirm" jsonschema:"Must repeat the note ID to confirm deletion"`
	}

	// DeleteOutput contains the result of deleting a note.
	DeleteOutput struct {
		Success bool   `json:"success"`
		NoteID  string `json:"noteId"`
	}

	// SetAttributeInput contains parameters for setting an attribute.
	SetAttributeInput struct {
		NoteID        string `json:"noteId" jsonschema:"ID of the note"`
		Type          string `json:"type,omitempty" jsonschema:"label (default) or relation"`
		Name          string `json:"name" jsonschema:"Attribute name, without # or ~"`
		Value         string `json:"value,omitempty" jsonschema:"Label value, or target note ID for a relation"`
		IsInheritable bool   `json:"isInheritable,omitempty" jsonschema:"Whether child notes inherit the attribute (default: false)"`
		Position      int    `json:"position,omitempty" jsonschema:"Sort position among the note's attributes"`
	}

	// SetAttributeOutput contains the stored attribute.
	SetAttributeOutput struct {
		Attribute types.Attribute `json:"attribute"`
	}

	// DeleteAttributeInput contains parameters for removing an attribute.
	DeleteAttributeInput struct {
		NoteID string `json:"noteId" jsonschema:"ID of the note"`
		Type   string `json:"type,omitempty" jsonschema:"label (default) or relation"`
		Name   string `json:"name" jsonschema:"Attribute name, without # or ~"`
	}

	// DeleteAttributeOutput contains the result of removing an attribute.
	DeleteAttributeOutput struct {
		Success     bool   `json:"success"`
		AttributeID string `json:"attributeId"`
	}

	// AppInfoInput takes no parameters.
	AppInfoInput struct{}

	// AppInfoOutput describes the connected server.
	AppInfoOutput struct {
		AppVersion  string `json:"appVersion"`
		DBVersion   int    `json:"dbVersion"`
		SyncVersion int    `json:"syncVersion"`
		BuildDate   string `json:"buildDate,omitempty"`
		ServerTime  string `json:"utcDateTime,omitempty"`
	}
)

func boolPtr(b bool) *bool { return &b }

func registerTools(server *mcp.Server) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}
	write := &mcp.ToolAnnotations{DestructiveHint: boolPtr(false)}
	overwrite := &mcp.ToolAnnotations{DestructiveHint: boolPtr(true)}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_notes",
		Description: "Search notes with Trilium search syntax. Plain keywords OR-ed with #label or note.* filters are matched against content so both sides behave alike. Returns note IDs, titles and the query actually run.",
		Annotations: readOnly,
	}, handleSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "grep_notes",
		Description: "Find lines matching a pattern inside the stored content of the notes a search query selects. Returns matching lines with context, which can be copied into update_note edits.",
		Annotations: readOnly,
	}, handleGrep)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_note",
		Description: "Read a note's metadata and stored content (HTML for text notes). Supports pagination with offset/limit, or find to return only matching lines.",
		Annotations: readOnly,
	}, handleGet)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_note",
		Description: "Create a note under a parent. With format=markdown, text notes are rendered to HTML and YAML frontmatter becomes labels.",
		Annotations: write,
	}, handleCreate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_note",
		Description: "Change a note's content. Give exactly one of: content (full replacement), edits (search/replace blocks, each search must match exactly once), or patch (unified diff). Nothing is written if any edit or hunk fails. Edits are verified by reading the note back.",
		Annotations: overwrite,
	}, handleUpdate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rename_note",
		Description: "Change a note's title.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), IdempotentHint: true},
	}, handleRename)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_note",
		Description: "Move a note to a new parent.",
		Annotations: write,
	}, handleMove)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_note",
		Description: "Delete a note and its subtree. Requires confirm to repeat the note ID.",
		Annotations: overwrite,
	}, handleDelete)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_attribute",
		Description: "Add a label or relation to a note, or change the value of an existing one with the same name.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), IdempotentHint: true},
	}, handleSetAttribute)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_attribute",
		Description: "Remove a label or relation from a note.",
		Annotations: overwrite,
	}, handleDeleteAttribute)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "app_info",
		Description: "Show the version of the connected Trilium server. Useful to check connectivity and the token.",
		Annotations: readOnly,
	}, handleAppInfo)
}
