// Package form implements the commission intake form schema: field kinds,
// designer and input rendering descriptors, and submission validation.
package form

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind is the closed set of field variants
type Kind string

const (
	KindText     Kind = "text"
	KindTextArea Kind = "textarea"
	KindNumber   Kind = "number"
	KindCheckbox Kind = "checkbox"
	// KindDate exists in stored schemas but cannot be added to a form
	KindDate Kind = "date"
)

// Kinds lists every known kind in palette order
var Kinds = []Kind{KindText, KindTextArea, KindNumber, KindCheckbox, KindDate}

var (
	ErrUnknownKind  = errors.New("unknown field kind")
	ErrKindDisabled = errors.New("field kind is disabled")
	ErrFieldMissing = errors.New("field not found")
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindTextArea, KindNumber, KindCheckbox, KindDate:
		return true
	}
	return false
}

// Enabled reports whether new fields of this kind may be created
func (k Kind) Enabled() bool {
	return k.Valid() && k != KindDate
}

// Metadata holds the per-kind attributes of a field
type Metadata struct {
	Label      string `json:"label"`
	HelperText string `json:"helper_text"`
	Required   bool   `json:"required"`
	// Text, TextArea, Number
	Placeholder string `json:"placeholder,omitempty"`
	// TextArea
	Rows int `json:"rows,omitempty"`
}

// Field is one field instance of a form. ID is stable across designer edits
// because submitted answers are keyed by it.
type Field struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Metadata Metadata `json:"metadata"`
}

// PaletteEntry describes a kind offered in the designer
type PaletteEntry struct {
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
}

// Palette returns the kinds a designer may add
func Palette() []PaletteEntry {
	entries := make([]PaletteEntry, 0, len(Kinds))
	for _, k := range Kinds {
		if !k.Enabled() {
			continue
		}
		entries = append(entries, PaletteEntry{Kind: k, Label: defaultMetadata(k).Label})
	}
	return entries
}

// NewField builds a field of the given kind with a fresh id and the kind's defaults
func NewField(kind Kind) (Field, error) {
	if !kind.Valid() {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !kind.Enabled() {
		return Field{}, fmt.Errorf("%w: %q", ErrKindDisabled, kind)
	}
	return Field{
		ID:       uuid.NewString(),
		Kind:     kind,
		Metadata: defaultMetadata(kind),
	}, nil
}

func defaultMetadata(kind Kind) Metadata {
	switch kind {
	case KindText:
		return Metadata{Label: "Text Field", HelperText: "Helper text", Placeholder: "Value here..."}
	case KindTextArea:
		return Metadata{Label: "Text Area", HelperText: "Helper text", Placeholder: "Value here...", Rows: 3}
	case KindNumber:
		return Metadata{Label: "Number Field", HelperText: "Helper text", Placeholder: "0"}
	case KindCheckbox:
		return Metadata{Label: "Checkbox", HelperText: "Helper text"}
	case KindDate:
		return Metadata{Label: "Date", HelperText: "Pick a date"}
	}
	return Metadata{}
}
