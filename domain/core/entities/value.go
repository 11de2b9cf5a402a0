package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"schemagraph/domain/core/valueobjects"
)

// ValueKind tags the variant held by a Value
type ValueKind string

const (
	KindNode         ValueKind = "node"
	KindRelationship ValueKind = "relationship"
	KindScalar       ValueKind = "scalar"
)

// Value is one field of a query record: a node, a relationship, or anything
// else (scalars, lists, maps, paths) carried through untouched.
type Value interface {
	Kind() ValueKind
}

// NodeValue is a graph vertex returned by a query
type NodeValue struct {
	Identity   valueobjects.Identifier
	Labels     []string
	Properties map[string]interface{}
}

// Kind implements Value
func (NodeValue) Kind() ValueKind { return KindNode }

// FirstLabel returns the first label or "" when the node has none
func (n NodeValue) FirstLabel() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// MarshalJSON renders the plain-object form clients receive
func (n NodeValue) MarshalJSON() ([]byte, error) {
	labels := n.Labels
	if labels == nil {
		labels = []string{}
	}
	return json.Marshal(struct {
		Identity   valueobjects.Identifier `json:"identity"`
		Labels     []string                `json:"labels"`
		Properties map[string]interface{}  `json:"properties"`
	}{n.Identity, labels, nonNilProperties(n.Properties)})
}

// RelationshipValue is a graph edge returned by a query
type RelationshipValue struct {
	Identity      valueobjects.Identifier
	Type          string
	StartIdentity valueobjects.Identifier
	EndIdentity   valueobjects.Identifier
	Properties    map[string]interface{}
}

// Kind implements Value
func (RelationshipValue) Kind() ValueKind { return KindRelationship }

// MarshalJSON renders the plain-object form clients receive
func (r RelationshipValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Identity   valueobjects.Identifier `json:"identity"`
		Type       string                  `json:"type"`
		Properties map[string]interface{}  `json:"properties"`
		Start      valueobjects.Identifier `json:"start"`
		End        valueobjects.Identifier `json:"end"`
	}{r.Identity, r.Type, nonNilProperties(r.Properties), r.StartIdentity, r.EndIdentity})
}

// Scalar wraps every value that is neither a node nor a relationship
type Scalar struct {
	Raw interface{}
}

// Kind implements Value
func (Scalar) Kind() ValueKind { return KindScalar }

// MarshalJSON passes the raw value through unchanged
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Raw)
}

// Classify tags a plain decoded value by its shape.
// identity+labels wins over identity+type, so a value carrying both is a node.
// Anything that does not fit either shape, including values whose identity
// cannot be normalized, is returned as a Scalar. Classify never fails.
func Classify(raw interface{}) Value {
	fields, ok := raw.(map[string]interface{})
	if !ok {
		return Scalar{Raw: raw}
	}

	identityRaw, ok := fields["identity"]
	if !ok {
		return Scalar{Raw: raw}
	}
	identity, err := valueobjects.NewIdentifier(identityRaw)
	if err != nil || identity.IsZero() {
		return Scalar{Raw: raw}
	}

	if labels, ok := stringList(fields["labels"]); ok {
		return NodeValue{
			Identity:   identity,
			Labels:     labels,
			Properties: propertyMap(fields["properties"]),
		}
	}

	if relType, ok := fields["type"].(string); ok && relType != "" {
		return RelationshipValue{
			Identity:      identity,
			Type:          relType,
			StartIdentity: optionalIdentifier(fields["start"]),
			EndIdentity:   optionalIdentifier(fields["end"]),
			Properties:    propertyMap(fields["properties"]),
		}
	}

	return Scalar{Raw: raw}
}

// stringList reads a labels field. A lone non-empty string counts as a
// single label.
func stringList(raw interface{}) ([]string, bool) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, false
		}
		return []string{v}, true
	case []string:
		return v, true
	case []interface{}:
		labels := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				labels = append(labels, s)
			} else {
				labels = append(labels, fmt.Sprint(item))
			}
		}
		return labels, true
	default:
		return nil, false
	}
}

func propertyMap(raw interface{}) map[string]interface{} {
	if props, ok := raw.(map[string]interface{}); ok && props != nil {
		return props
	}
	return map[string]interface{}{}
}

func optionalIdentifier(raw interface{}) valueobjects.Identifier {
	id, err := valueobjects.NewIdentifier(raw)
	if err != nil {
		return valueobjects.Identifier{}
	}
	return id
}

func nonNilProperties(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return map[string]interface{}{}
	}
	return props
}

// Field is a named value inside a QueryRecord
type Field struct {
	Name  string
	Value Value
}

// QueryRecord is one result row. Fields keep the order the store returned
// them in, and that order survives JSON encoding and decoding.
type QueryRecord struct {
	Fields []Field
}

// NewQueryRecord builds a record from ordered fields
func NewQueryRecord(fields ...Field) QueryRecord {
	return QueryRecord{Fields: fields}
}

// Set appends a field, or replaces the value in place if the name exists
func (r *QueryRecord) Set(name string, value Value) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Get returns the value stored under name
func (r QueryRecord) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns field names in record order
func (r QueryRecord) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Name
	}
	return keys
}

// MarshalJSON writes the record as an object with keys in field order
func (r QueryRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var value []byte
		if f.Value == nil {
			value = []byte("null")
		} else if value, err = json.Marshal(f.Value); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a plain object, keeping key order, and classifies every
// field exactly once. Numbers are kept as json.Number so integer identities
// and property values round-trip without float rounding.
func (r *QueryRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("query record must be a JSON object")
	}

	r.Fields = r.Fields[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in query record", tok)
		}

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		r.Set(name, Classify(raw))
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	return nil
}
