package api

import (
	"bytes"
	"encoding/json"

	"github.com/phrazzld/taskboard-api/internal/service"
)

// Nullable distinguishes an absent JSON field from an explicit null. Set is
// true whenever the key appears; Value is nil for null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Optional converts to the service representation.
func (n Nullable[T]) Optional() service.Optional[T] {
	return service.Optional[T]{Set: n.Set, Value: n.Value}
}
