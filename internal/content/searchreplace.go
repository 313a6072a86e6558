package content

import (
	"fmt"
	"strings"

	"github.com/taigrr/trilium-mcp/internal/types"
)

// ApplySearchReplace applies edits in order, each against the output of the
// previous one. An edit with an empty Search prepends its Replacement. Any
// other Search must occur exactly once in the current content; otherwise the
// whole batch fails and no partial result is returned.
func ApplySearchReplace(content string, edits []types.Edit) (string, error) {
	for i, edit := range edits {
		if edit.Search == "" {
			content = edit.Replacement + content
			continue
		}

		idx := strings.Index(content, edit.Search)
		if idx == -1 {
			shown := truncate(edit.Search, searchEchoLimit)
			return "", &Error{
				Kind: KindNotFound,
				Message: fmt.Sprintf("edit %d: could not find search text in content: %q. "+
					"Re-read the note and copy the text exactly", i+1, shown),
				Details: []string{shown},
			}
		}

		if strings.Contains(content[idx+1:], edit.Search) {
			shown := truncate(edit.Search, searchEchoLimit)
			return "", &Error{
				Kind: KindAmbiguous,
				Message: fmt.Sprintf("edit %d: search text is ambiguous, it occurs more than once: %q. "+
					"Include more surrounding text so it matches exactly once", i+1, shown),
				Details: []string{shown},
			}
		}

		content = content[:idx] + edit.Replacement + content[idx+len(edit.Search):]
	}
	return content, nil
}
