package types

type (
	// Attribute is a label or relation attached to a note.
	Attribute struct {
		AttributeID   string `json:"attributeId,omitempty"`
		NoteID        string `json:"noteId"`
		Type          string `json:"type"` // "label" or "relation"
		Name          string `json:"name"`
		Value         string `json:"value"`
		Position      int    `json:"position,omitempty"`
		IsInheritable bool   `json:"isInheritable,omitempty"`
	}

	// AttributePatch holds the attribute fields that may be changed.
	AttributePatch struct {
		Value    string `json:"value"`
		Position int    `json:"position,omitempty"`
	}
)
