package valueobjects

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Identifier is the canonical identity of a graph entity.
// Store identifiers arrive as integers, floats decoded from JSON, or strings;
// all of them collapse to one canonical string so that equality and map
// hashing behave the same regardless of the source representation.
type Identifier struct {
	value string
}

// NewIdentifier normalizes a raw identity value into an Identifier.
// Integral floats are rendered without a fractional part so that 1 (int64),
// 1.0 (float64) and the JSON numbers 1.0 or 1e0 all compare equal.
func NewIdentifier(raw interface{}) (Identifier, error) {
	switch v := raw.(type) {
	case nil:
		return Identifier{}, errors.New("identifier cannot be null")
	case Identifier:
		return v, nil
	case string:
		return Identifier{value: v}, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Identifier{value: strconv.FormatInt(i, 10)}, nil
		}
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return Identifier{value: strconv.FormatUint(u, 10)}, nil
		}
		// 1.0 and 1e0 are the same number as 1
		if f, err := v.Float64(); err == nil {
			return NewIdentifier(f)
		}
		return Identifier{value: v.String()}, nil
	case int:
		return Identifier{value: strconv.FormatInt(int64(v), 10)}, nil
	case int32:
		return Identifier{value: strconv.FormatInt(int64(v), 10)}, nil
	case int64:
		return Identifier{value: strconv.FormatInt(v, 10)}, nil
	case uint64:
		return Identifier{value: strconv.FormatUint(v, 10)}, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Identifier{}, fmt.Errorf("identifier cannot be %v", v)
		}
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return Identifier{value: strconv.FormatInt(int64(v), 10)}, nil
		}
		return Identifier{value: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case fmt.Stringer:
		return Identifier{value: v.String()}, nil
	default:
		return Identifier{}, fmt.Errorf("unsupported identifier type %T", raw)
	}
}

// MustIdentifier is NewIdentifier for values known to be valid, mainly in tests.
func MustIdentifier(raw interface{}) Identifier {
	id, err := NewIdentifier(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical form
func (id Identifier) String() string {
	return id.value
}

// Equals checks if two identifiers share a canonical form
func (id Identifier) Equals(other Identifier) bool {
	return id.value == other.value
}

// IsZero checks if the Identifier is the zero value
func (id Identifier) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	parsed, err := NewIdentifier(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
