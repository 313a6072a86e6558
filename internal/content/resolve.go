package content

import (
	"fmt"

	"github.com/taigrr/trilium-mcp/internal/types"
)

// Mode identifies which variant of a Request is populated.
type Mode int

const (
	ModeUnset Mode = iota
	ModeReplace
	ModeEdits
	ModePatch
)

func (m Mode) String() string {
	switch m {
	case ModeReplace:
		return "content"
	case ModeEdits:
		return "edits"
	case ModePatch:
		return "patch"
	}
	return "unset"
}

// ConvertFunc transforms full replacement content into the stored
// representation, e.g. markdown into HTML.
type ConvertFunc func(string) (string, error)

// Request describes one content mutation. Exactly one of full content, an
// edit list or a patch is set; the zero Request has none.
type Request struct {
	mode  Mode
	full  string
	edits []types.Edit
	patch string
}

// Replace returns a Request that replaces the whole content.
func Replace(full string) Request {
	return Request{mode: ModeReplace, full: full}
}

// ApplyEdits returns a Request that applies search/replace edits in order.
func ApplyEdits(edits []types.Edit) Request {
	return Request{mode: ModeEdits, edits: edits}
}

// ApplyPatch returns a Request that applies a unified diff.
func ApplyPatch(patch string) Request {
	return Request{mode: ModePatch, patch: patch}
}

// NewRequest builds a Request from optional tool arguments, requiring that
// exactly one of them is present.
func NewRequest(full *string, edits []types.Edit, patch *string) (Request, error) {
	var reqs []Request
	if full != nil {
		reqs = append(reqs, Replace(*full))
	}
	if edits != nil {
		reqs = append(reqs, ApplyEdits(edits))
	}
	if patch != nil {
		reqs = append(reqs, ApplyPatch(*patch))
	}

	switch len(reqs) {
	case 0:
		return Request{}, noMode()
	case 1:
		return reqs[0], nil
	}

	modes := make([]string, len(reqs))
	for i, r := range reqs {
		modes[i] = r.mode.String()
	}
	return Request{}, &Error{
		Kind:    KindConflictingModes,
		Message: fmt.Sprintf("provide exactly one of content, edits or patch; got %v", modes),
	}
}

// Mode reports which variant is populated.
func (r Request) Mode() Mode {
	return r.mode
}

// Edits returns the edit list of an edits-mode Request.
func (r Request) Edits() []types.Edit {
	return r.edits
}

// Resolve computes the new content for existing under req. convert, when
// non-nil, runs only for full replacement: edits and patches are written
// against the stored representation and are applied as-is.
func Resolve(existing string, req Request, convert ConvertFunc) (string, error) {
	switch req.mode {
	case ModeReplace:
		if convert == nil {
			return req.full, nil
		}
		converted, err := convert(req.full)
		if err != nil {
			return "", fmt.Errorf("failed to convert content: %w", err)
		}
		return converted, nil
	case ModeEdits:
		return ApplySearchReplace(existing, req.edits)
	case ModePatch:
		return ApplyUnifiedDiff(existing, req.patch)
	}
	return "", noMode()
}

func noMode() error {
	return &Error{
		Kind:    KindNoModeSpecified,
		Message: "no content change specified: provide one of content, edits or patch",
	}
}
