package jsonutil

import (
	"bytes"
	"encoding/json"
)

// Field is a JSON value that remembers whether its key was present and
// whether it was an explicit null. The zero value is an absent field.
//
//	{}              -> Set=false
//	{"x": null}     -> Set=true, Valid=false
//	{"x": "value"}  -> Set=true, Valid=true, Value="value"
type Field[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Of returns a present, non-null field.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Valid: true, Value: v}
}

// Null returns a present field holding an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// FromPtr maps nil to an explicit null and anything else to a present value.
func FromPtr[T any](p *T) Field[T] {
	if p == nil {
		return Null[T]()
	}
	return Of(*p)
}

// IsAbsent reports whether the key was missing entirely.
func (f Field[T]) IsAbsent() bool { return !f.Set }

// IsNull reports whether the key was present with a null value.
func (f Field[T]) IsNull() bool { return f.Set && !f.Valid }

// HasValue reports whether the key was present with a non-null value.
func (f Field[T]) HasValue() bool { return f.Set && f.Valid }

// Ptr returns a pointer to the value, or nil when absent or null.
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.Value
	return &v
}

// UnmarshalJSON is only invoked when the key is present, which is what marks Set.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Valid = false
		f.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// MarshalJSON renders absent and null fields as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
