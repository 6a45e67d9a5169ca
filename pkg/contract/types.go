package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var null = []byte("null")

// Type encodes and decodes the values of one declared parameter or result.
type Type interface {
	// Name is used in error messages and graph output.
	Name() string
	// Zero is the value a fire-and-forget call yields.
	Zero() any
	// Encode renders v. A nil v encodes as the null marker.
	Encode(v any) (json.RawMessage, error)
	// Decode parses raw. The null marker decodes to nil.
	Decode(raw json.RawMessage) (any, error)
}

// Built-in value types.
var (
	String  Type = JSON[string]("string")
	Int     Type = JSON[int]("int")
	Float   Type = JSON[float64]("float")
	Bool    Type = JSON[bool]("bool")
	Strings Type = JSON[[]string]("[]string")
	Void    Type = voidType{}
)

// JSON declares a type whose values are T, encoded with encoding/json.
func JSON[T any](name string) Type {
	return jsonType[T]{name: name}
}

type jsonType[T any] struct {
	name string
}

func (t jsonType[T]) Name() string { return t.name }

func (t jsonType[T]) Zero() any {
	var zero T
	return zero
}

func (t jsonType[T]) Encode(v any) (json.RawMessage, error) {
	if v == nil {
		return null, nil
	}
	typed, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("value %v (%T) is not a %s", v, v, t.name)
	}
	return json.Marshal(typed)
}

func (t jsonType[T]) Decode(raw json.RawMessage) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.name, err)
	}
	return v, nil
}

type voidType struct{}

func (voidType) Name() string { return "void" }

func (voidType) Zero() any { return nil }

func (voidType) Encode(any) (json.RawMessage, error) { return null, nil }

func (voidType) Decode(raw json.RawMessage) (any, error) {
	if !isNull(raw) {
		return nil, fmt.Errorf("void result carries a value: %s", raw)
	}
	return nil, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), null)
}
