package form

import (
	"encoding/json"
	"fmt"
)

// Answer is one submitted value with the label captured at submission time
type Answer struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Answers maps field id to its submitted answer. It is stored verbatim on
// the request and never rewritten when the form changes.
type Answers map[string]Answer

// Marshal encodes answers as {field_id: {value, label}}
func (a Answers) Marshal() ([]byte, error) {
	if a == nil {
		a = Answers{}
	}
	return json.Marshal(a)
}

// ParseAnswers decodes a stored or submitted answer document
func ParseAnswers(data []byte) (Answers, error) {
	a := Answers{}
	if len(data) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return a, nil
}

// Values flattens answers into the id -> value map used by validation
func (a Answers) Values() map[string]string {
	values := make(map[string]string, len(a))
	for id, ans := range a {
		values[id] = ans.Value
	}
	return values
}

// Snapshot keeps only answers for fields in schema and stamps each with the
// field's current label. Fields without an answer are recorded with an empty value.
func Snapshot(schema Schema, submitted Answers) Answers {
	out := make(Answers, len(schema))
	for _, f := range schema {
		out[f.ID] = Answer{Value: submitted[f.ID].Value, Label: f.Metadata.Label}
	}
	return out
}
