package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Identifier is an opaque id that upstreams send either as a JSON string or a JSON number.
// The original representation is kept so it round-trips unchanged.
type Identifier struct {
	value   string
	numeric bool
}

// NewIdentifier returns a string identifier.
func NewIdentifier(v string) Identifier {
	return Identifier{value: v}
}

// NumericIdentifier returns an identifier that marshals as a JSON number.
func NumericIdentifier(n int64) Identifier {
	return Identifier{value: strconv.FormatInt(n, 10), numeric: true}
}

// String returns the identifier text, suitable for query parameters and cache keys.
func (id Identifier) String() string { return id.value }

// IsZero reports whether the identifier was never set.
func (id Identifier) IsZero() bool { return id.value == "" && !id.numeric }

// MarshalJSON implements json.Marshaler.
func (id Identifier) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *Identifier) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("identifier: empty value")
	}
	if string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = Identifier{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("identifier: must be a string or a number")
	}
	*id = Identifier{value: n.String(), numeric: true}
	return nil
}
