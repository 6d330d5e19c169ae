package domain

import "encoding/json"

// Nullable models a JSON field that can be absent, explicitly null, or set.
// The zero value is absent.
type Nullable[T any] struct {
	set   bool
	null  bool
	value T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{set: true, value: v}
}

// Null returns a Nullable that is present and explicitly null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{set: true, null: true}
}

// FromPtr returns Null for a nil pointer and Some otherwise.
func FromPtr[T any](v *T) Nullable[T] {
	if v == nil {
		return Null[T]()
	}
	return Some(*v)
}

// IsSet reports whether the field was present at all.
func (n Nullable[T]) IsSet() bool { return n.set }

// IsNull reports whether the field was present and null.
func (n Nullable[T]) IsNull() bool { return n.set && n.null }

// Get returns the value and whether one is held.
func (n Nullable[T]) Get() (T, bool) {
	if !n.set || n.null {
		var zero T
		return zero, false
	}
	return n.value, true
}

// Ptr returns a pointer to a copy of the value, or nil when absent or null.
func (n Nullable[T]) Ptr() *T {
	v, ok := n.Get()
	if !ok {
		return nil
	}
	return &v
}

// MarshalJSON encodes a held value, or null otherwise. Callers that need to
// omit absent fields check IsSet first.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	v, ok := n.Get()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}
