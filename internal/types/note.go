// Package types defines all data structures used across the MCP server.
package types

type (
	// Note is the metadata of a remote note as returned by ETAPI.
	Note struct {
		NoteID          string      `json:"noteId"`
		Title           string      `json:"title"`
		Type            string      `json:"type"`
		Mime            string      `json:"mime,omitempty"`
		IsProtected     bool        `json:"isProtected"`
		BlobID          string      `json:"blobId,omitempty"`
		Attributes      []Attribute `json:"attributes,omitempty"`
		ParentNoteIDs   []string    `json:"parentNoteIds,omitempty"`
		ChildNoteIDs    []string    `json:"childNoteIds,omitempty"`
		ParentBranchIDs []string    `json:"parentBranchIds,omitempty"`
		ChildBranchIDs  []string    `json:"childBranchIds,omitempty"`
		DateCreated     string      `json:"dateCreated,omitempty"`
		DateModified    string      `json:"dateModified,omitempty"`
		UTCDateCreated  string      `json:"utcDateCreated,omitempty"`
		UTCDateModified string      `json:"utcDateModified,omitempty"`
	}

	// NoteWithContent pairs note metadata with its stored content.
	NoteWithContent struct {
		Note    Note   `json:"note"`
		Content string `json:"content"`
		URL     string `json:"url,omitempty"`
	}

	// CreateNoteParams is the ETAPI create-note request body.
	CreateNoteParams struct {
		ParentNoteID string `json:"parentNoteId"`
		Title        string `json:"title"`
		Type         string `json:"type"`
		Mime         string `json:"mime,omitempty"`
		Content      string `json:"content"`
		NotePosition int    `json:"notePosition,omitempty"`
		Prefix       string `json:"prefix,omitempty"`
		NoteID       string `json:"noteId,omitempty"`
	}

	// CreatedNote is the ETAPI create-note response.
	CreatedNote struct {
		Note   Note   `json:"note"`
		Branch Branch `json:"branch"`
	}

	// NotePatch holds the note metadata fields that may be changed.
	NotePatch struct {
		Title string `json:"title,omitempty"`
		Type  string `json:"type,omitempty"`
		Mime  string `json:"mime,omitempty"`
	}

	// Branch places a note under a parent.
	Branch struct {
		BranchID     string `json:"branchId,omitempty"`
		NoteID       string `json:"noteId"`
		ParentNoteID string `json:"parentNoteId"`
		Prefix       string `json:"prefix,omitempty"`
		NotePosition int    `json:"notePosition,omitempty"`
		IsExpanded   bool   `json:"isExpanded,omitempty"`
	}

	// AppInfo describes the remote server.
	AppInfo struct {
		AppVersion      string `json:"appVersion"`
		DBVersion       int    `json:"dbVersion"`
		SyncVersion     int    `json:"syncVersion"`
		BuildDate       string `json:"buildDate"`
		BuildRevision   string `json:"buildRevision"`
		DataDirectory   string `json:"dataDirectory"`
		ClipperProtocol string `json:"clipperProtocolVersion"`
		UTCDateTime     string `json:"utcDateTime"`
	}

	// CreateParams contains parameters for creating a note.
	CreateParams struct {
		ParentNoteID string
		Title        string
		Type         string
		Mime         string
		Content      string
		Format       string // "html" (default) or "markdown"
	}

	// CreateResult contains the created note and the labels taken from its
	// frontmatter.
	CreateResult struct {
		Note   Note        `json:"note"`
		Branch Branch      `json:"branch"`
		Labels []Attribute `json:"labels,omitempty"`
		URL    string      `json:"url,omitempty"`
	}

	// MoveParams contains parameters for moving a note to a new parent.
	MoveParams struct {
		NoteID          string
		OldParentNoteID string // required only when the note has several parents
		NewParentNoteID string
		Prefix          string
	}

	// MoveResult contains the result of a move operation.
	MoveResult struct {
		NoteID          string `json:"noteId"`
		OldParentNoteID string `json:"oldParentNoteId"`
		NewParentNoteID string `json:"newParentNoteId"`
		BranchID        string `json:"branchId"`
	}
)
