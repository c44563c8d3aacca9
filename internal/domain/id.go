package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is the canonical identifier for nodes, tenants and ports.
//
// The backend reports identifiers as JSON numbers in some payloads and as
// strings in others (form values, query parameters). Everything is
// converted to ID once at ingestion and compared as ID afterwards.
type ID string

// IsZero reports whether the identifier is absent
func (id ID) IsZero() bool {
	return id == ""
}

// String returns the identifier as a string
func (id ID) String() string {
	return string(id)
}

// ParseID normalises a raw identifier string. Numeric values lose any
// leading zeros or surrounding space so "007" and 7 compare equal.
func ParseID(raw string) ID {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ID(strconv.FormatInt(n, 10))
	}
	return ID(raw)
}

// UnmarshalJSON accepts a number, a string, null, or an object with an
// "id" field (a resolved node reference).
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ParseID(s)
		return nil
	case '{':
		var ref struct {
			ID ID `json:"id"`
		}
		if err := json.Unmarshal(data, &ref); err != nil {
			return fmt.Errorf("decode id reference: %w", err)
		}
		*id = ref.ID
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ParseID(n.String())
		return nil
	}
}

// MarshalJSON emits numeric identifiers as numbers so the backend receives
// the same representation it produced.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}
