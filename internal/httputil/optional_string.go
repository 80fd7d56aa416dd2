package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString is a PATCH field that tells an absent key apart from an
// explicit null (RFC 7396). Present is false when the key was missing;
// Value is nil when it was null.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON only runs for keys present in the document.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	o.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Patch returns nil when the key was absent, null when it was JSON null,
// and the sent value otherwise.
func (o OptionalString) Patch(null string) *string {
	if !o.Present {
		return nil
	}
	if o.Value == nil {
		return &null
	}
	v := *o.Value
	return &v
}
