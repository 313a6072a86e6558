// Package uri provides deep links into the Trilium web UI.
package uri

import (
	"net/url"
	"strings"
)

// NoteURL returns the web UI link for a note. Trilium resolves a bare note ID
// after "#root/" to the note's first placement in the tree.
func NoteURL(serverURL, noteID string) string {
	base := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if base == "" || noteID == "" {
		return ""
	}

	// The ETAPI base is not part of the UI path.
	base = strings.TrimSuffix(base, "/etapi")

	return base + "/#root/" + url.PathEscape(noteID)
}
