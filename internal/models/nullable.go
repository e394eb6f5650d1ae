package models

import (
	"encoding/json"
)

// Nullable represents a PATCH field that can distinguish between:
// - Field absent in JSON: Set=false, Valid=false (keep the current value)
// - Field present with null: Set=true, Valid=false (clear the value)
// - Field present with value: Set=true, Valid=true, Value=the value
//
// This is needed because Go's standard JSON unmarshaling treats both
// "field absent" and "field: null" as nil for pointer types.
type Nullable[T any] struct {
	Value T
	Valid bool // true if Value is not null
	Set   bool // true if field was present in JSON
}

// NewNullable returns a Nullable holding v, as if it was present in JSON.
func NewNullable[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true, Set: true}
}

// Null returns a Nullable that was explicitly set to null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UnmarshalJSON implements custom JSON unmarshaling for Nullable.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true // Field was present in JSON

	if string(data) == "null" {
		var zero T
		n.Valid = false
		n.Value = zero
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = v
	n.Valid = true
	return nil
}

// MarshalJSON implements custom JSON marshaling for Nullable.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// ToPtr converts Nullable to *T. Returns nil if Valid is false.
func (n Nullable[T]) ToPtr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// ApplyTo overwrites *dst when the field was present in JSON.
// A null clears *dst, an absent field leaves it untouched.
func (n Nullable[T]) ApplyTo(dst **T) {
	if !n.Set {
		return
	}
	*dst = n.ToPtr()
}
