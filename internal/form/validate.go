package form

// Validate checks one submitted value against a field.
//
// Checkbox keeps the established predicate: a required checkbox passes
// unless its value is "true". This reads inverted against the usual
// "must be checked" meaning and is pending product clarification.
func Validate(f Field, value string) bool {
	required := f.Metadata.Required

	switch f.Kind {
	case KindText, KindTextArea:
		return !required || len(value) > 0
	case KindNumber:
		// numeric format is only enforced by the input element
		return !required || len(value) > 0
	case KindCheckbox:
		return !required || value != "true"
	case KindDate:
		return !required || len(value) > 0
	}
	return false
}

// InvalidSet is the ordered list of field ids that failed validation
type InvalidSet []string

// Valid reports whether no field failed
func (s InvalidSet) Valid() bool {
	return len(s) == 0
}

// Contains reports whether id failed validation
func (s InvalidSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// ValidateAll validates every field in schema order. Missing answers are
// validated as the empty string.
func ValidateAll(schema Schema, values map[string]string) InvalidSet {
	invalid := InvalidSet{}
	for _, f := range schema {
		if !Validate(f, values[f.ID]) {
			invalid = append(invalid, f.ID)
		}
	}
	return invalid
}
