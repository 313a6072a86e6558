package types

type (
	// SearchParams contains the ETAPI search options.
	SearchParams struct {
		Query                string `json:"query"`
		FastSearch           bool   `json:"fastSearch,omitempty"`
		IncludeArchivedNotes bool   `json:"includeArchivedNotes,omitempty"`
		AncestorNoteID       string `json:"ancestorNoteId,omitempty"`
		AncestorDepth        string `json:"ancestorDepth,omitempty"`
		OrderBy              string `json:"orderBy,omitempty"`
		OrderDirection       string `json:"orderDirection,omitempty"`
		Limit                int    `json:"limit,omitempty"`
	}

	// SearchResult contains a single search hit with minified field names.
	SearchResult struct {
		NoteID       string `json:"id"`
		Title        string `json:"t"`
		Type         string `json:"ty"`
		DateModified string `json:"dm,omitempty"`
		URL          string `json:"url,omitempty"`
	}

	// SearchResponse contains the hits and the query actually sent.
	SearchResponse struct {
		Query   string         `json:"query"`
		Results []SearchResult `json:"results"`
		Hidden  int            `json:"hidden,omitempty"`
	}

	// ContentMatch is a single match within a note's content.
	ContentMatch struct {
		Line    int    `json:"line"`
		Context string `json:"context"`
	}

	// FindParams controls matching within a note's content.
	FindParams struct {
		Pattern       string
		UseRegex      bool
		CaseSensitive bool
		ContextLines  int
	}
)

type (
	// GrepParams selects notes with a search query and matches a pattern
	// within each selected note's content.
	GrepParams struct {
		Search SearchParams
		Find   FindParams
	}

	// GrepResult lists the matches within one note.
	GrepResult struct {
		NoteID  string         `json:"id"`
		Title   string         `json:"t"`
		Matches []ContentMatch `json:"matches"`
	}
)
