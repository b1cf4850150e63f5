package form

// Widget is a renderable description of a field
type Widget struct {
	FieldID     string `json:"field_id"`
	Kind        Kind   `json:"kind"`
	Element     string `json:"element"`
	InputType   string `json:"input_type,omitempty"`
	Label       string `json:"label"`
	HelperText  string `json:"helper_text"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	Value       string `json:"value"`
	Checked     bool   `json:"checked,omitempty"`
	ReadOnly    bool   `json:"read_only"`
	Disabled    bool   `json:"disabled,omitempty"`
}

// ChangeFunc receives a field id and its new string-encoded value
type ChangeFunc func(fieldID, value string)

// InputWidget is an interactive widget. It never persists anything itself.
type InputWidget struct {
	Widget
	onChange ChangeFunc
}

// Change reports a new value to the caller-supplied callback
func (w InputWidget) Change(value string) {
	if w.onChange != nil {
		w.onChange(w.FieldID, value)
	}
}

func baseWidget(f Field) Widget {
	return Widget{
		FieldID:    f.ID,
		Kind:       f.Kind,
		Label:      f.Metadata.Label,
		HelperText: f.Metadata.HelperText,
		Required:   f.Metadata.Required,
	}
}

// DesignerPreview renders the read-only designer representation of a field
func DesignerPreview(f Field) Widget {
	w := baseWidget(f)
	w.ReadOnly = true

	switch f.Kind {
	case KindText:
		w.Element, w.InputType = "input", "text"
		w.Placeholder = f.Metadata.Placeholder
	case KindTextArea:
		w.Element = "textarea"
		w.Placeholder = f.Metadata.Placeholder
		w.Rows = f.Metadata.Rows
	case KindNumber:
		w.Element, w.InputType = "input", "number"
		w.Placeholder = f.Metadata.Placeholder
	case KindCheckbox:
		w.Element, w.InputType = "input", "checkbox"
	case KindDate:
		w.Element, w.InputType = "input", "date"
		w.Disabled = true
	default:
		w.Element = "unsupported"
		w.Disabled = true
	}
	return w
}

// Input renders the interactive widget for a submission form
func Input(f Field, value string, onChange ChangeFunc) InputWidget {
	w := baseWidget(f)
	w.Value = value

	switch f.Kind {
	case KindText:
		w.Element, w.InputType = "input", "text"
		w.Placeholder = f.Metadata.Placeholder
	case KindTextArea:
		w.Element = "textarea"
		w.Placeholder = f.Metadata.Placeholder
		w.Rows = f.Metadata.Rows
	case KindNumber:
		w.Element, w.InputType = "input", "number"
		w.Placeholder = f.Metadata.Placeholder
	case KindCheckbox:
		w.Element, w.InputType = "input", "checkbox"
		w.Checked = value == "true"
	case KindDate:
		w.Element, w.InputType = "input", "date"
		w.Disabled = true
		onChange = nil
	default:
		w.Element = "unsupported"
		w.Disabled = true
		onChange = nil
	}
	return InputWidget{Widget: w, onChange: onChange}
}
