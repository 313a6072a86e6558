package content

import (
	"fmt"
	"strings"

	"github.com/taigrr/trilium-mcp/internal/types"
)

// VerifyReadback checks that every non-empty replacement from edits appears
// in the content read back from the store after a write. Deletions are not
// checked: the absence of text cannot distinguish success from failure.
// All missing replacements are reported, not just the first.
func VerifyReadback(persisted string, edits []types.Edit) error {
	var missing []string
	checked := 0
	for _, edit := range edits {
		if edit.Replacement == "" {
			continue
		}
		checked++
		if !strings.Contains(persisted, edit.Replacement) {
			missing = append(missing, truncate(edit.Replacement, readbackEchoLimit))
		}
	}
	if len(missing) == 0 {
		return nil
	}

	quoted := make([]string, len(missing))
	for i, m := range missing {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	return &Error{
		Kind: KindReadbackMismatch,
		Message: fmt.Sprintf("read-back verification failed: %d of %d replacements missing from persisted content: %s. "+
			"The store may have normalized the content; re-read the note before editing again",
			len(missing), checked, strings.Join(quoted, ", ")),
		Details: missing,
	}
}
