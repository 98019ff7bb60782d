package httputil

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON field was sent at all, so PATCH bodies
// (RFC 7396) can tell an absent field from an explicit null.
type Optional[T any] struct {
	Present bool
	Value   *T // nil when the field was null
}

// UnmarshalJSON is only invoked for fields present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// OrZero returns nil for an absent field and the zero value for a null one.
func (o Optional[T]) OrZero() *T {
	if !o.Present {
		return nil
	}
	if o.Value == nil {
		var zero T
		return &zero
	}
	return o.Value
}
