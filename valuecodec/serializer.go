package valuecodec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrNoTarget is returned by serializers that can not decode without a typed target.
var ErrNoTarget = errors.New("gomemcached: decode target is required")

// Serializer turns arbitrary values into bytes.
type Serializer interface {
	Name() string
	Serialize(v any) ([]byte, error)
	// Deserialize decodes data into target when it is a non-nil pointer and returns the decoded value.
	Deserialize(data []byte, target any) (any, error)
}

// NewSerializer returns a serializer by name: "gob" (default) or "json".
func NewSerializer(name string) (Serializer, error) {
	switch strings.ToLower(name) {
	case "", "gob":
		return NewGOBSerializer(), nil
	case "json":
		return NewJSONSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", name)
	}
}

// NewGOBSerializer creates a new serializer using Go's binary gob format.
// Decoding requires a target.
func NewGOBSerializer() Serializer {
	return gobSerializer{}
}

type gobSerializer struct{}

func (gobSerializer) Name() string { return "gob" }

func (gobSerializer) Serialize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobSerializer) Deserialize(data []byte, target any) (any, error) {
	if !isPointer(target) {
		return nil, ErrNoTarget
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(target); err != nil {
		return nil, err
	}
	return reflect.ValueOf(target).Elem().Interface(), nil
}

// NewJSONSerializer creates a new serializer using JSON.
// Without a target the generic JSON representation is returned.
func NewJSONSerializer() Serializer {
	return jsonSerializer{}
}

type jsonSerializer struct{}

func (jsonSerializer) Name() string { return "json" }

func (jsonSerializer) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonSerializer) Deserialize(data []byte, target any) (any, error) {
	if !isPointer(target) {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, err
	}
	return reflect.ValueOf(target).Elem().Interface(), nil
}

func isPointer(target any) bool {
	if target == nil {
		return false
	}
	rv := reflect.ValueOf(target)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}
