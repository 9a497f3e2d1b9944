package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
)

// Optional is a JSON field that distinguishes absent, null, wrongly typed
// and present values. Decoding never fails on a type mismatch; Invalid is
// set instead so the caller decides when to report it.
type Optional[T any] struct {
	Value   T
	Set     bool
	Null    bool
	Invalid bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	*o = Optional[T]{Set: true}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			var zero T
			o.Value = zero
			o.Invalid = true
			return nil
		}
		return err
	}
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null || o.Invalid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// IsZero reports an absent field, so `omitzero` drops it when encoding.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// Get returns the value and whether it was present with the right type.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set && !o.Null && !o.Invalid
}

// TypeName is the JSON type the field expects, for error messages.
func (o Optional[T]) TypeName() string {
	return JSONTypeName(reflect.TypeFor[T]())
}
