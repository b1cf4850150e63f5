package form

import (
	"encoding/json"
	"fmt"
)

// Schema is the ordered field list of a form. Order drives rendering and
// validation order.
type Schema []Field

// ParseSchema decodes a stored schema document. An empty document is an empty schema.
func ParseSchema(data []byte) (Schema, error) {
	if len(data) == 0 || string(data) == "null" {
		return Schema{}, nil
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode form schema: %w", err)
	}
	seen := make(map[string]bool, len(s))
	for _, f := range s {
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
		}
		if f.ID == "" || seen[f.ID] {
			return nil, fmt.Errorf("form schema has missing or duplicate field id %q", f.ID)
		}
		seen[f.ID] = true
	}
	return s, nil
}

// Marshal encodes the schema for storage
func (s Schema) Marshal() ([]byte, error) {
	if s == nil {
		s = Schema{}
	}
	return json.Marshal(s)
}

// Index returns the position of id, or -1
func (s Schema) Index(id string) int {
	for i, f := range s {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the field with the given id
func (s Schema) Find(id string) (Field, bool) {
	if i := s.Index(id); i >= 0 {
		return s[i], true
	}
	return Field{}, false
}

// Append returns a copy of s with f added at the end
func (s Schema) Append(f Field) Schema {
	out := make(Schema, 0, len(s)+1)
	out = append(out, s...)
	return append(out, f)
}

// ReplaceField returns a copy of s where the field sharing f's id is replaced.
// Order and every other field are preserved. Kind changes are not allowed.
func (s Schema) ReplaceField(f Field) (Schema, error) {
	i := s.Index(f.ID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFieldMissing, f.ID)
	}
	if s[i].Kind != f.Kind {
		return nil, fmt.Errorf("field %s kind cannot change from %s to %s", f.ID, s[i].Kind, f.Kind)
	}
	out := make(Schema, len(s))
	copy(out, s)
	out[i] = f
	return out, nil
}

// RemoveField returns a copy of s without the given field
func (s Schema) RemoveField(id string) (Schema, error) {
	i := s.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFieldMissing, id)
	}
	out := make(Schema, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...), nil
}

// MoveField returns a copy of s with the field moved to position to (clamped)
func (s Schema) MoveField(id string, to int) (Schema, error) {
	i := s.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFieldMissing, id)
	}
	if to < 0 {
		to = 0
	}
	if to > len(s)-1 {
		to = len(s) - 1
	}
	moved := s[i]
	rest, _ := s.RemoveField(id)
	out := make(Schema, 0, len(s))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	return append(out, rest[to:]...), nil
}
