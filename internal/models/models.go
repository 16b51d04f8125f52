package models

import (
	"bytes"

	"github.com/goccy/go-json"
)

// JSONValue is a generic type to represent any JSON value.
// This can be a string, number, boolean, null, object, or array. Trees built
// by the serializer may also carry Go numeric values and time.Time.
type JSONValue interface{}

// JSONObject represents a JSON object. Unlike a plain map it remembers the
// order in which keys were inserted, so serialized output follows field order.
type JSONObject struct {
	keys   []string
	values map[string]JSONValue
}

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray []JSONValue

// IntermediateRepresentation is a structure to hold the parsed JSON data
// in a way that's easy for the deserializer to work with.
type IntermediateRepresentation struct {
	Root        JSONValue
	RootIsArray bool // True if the root of the JSON is an array vs an object
}

// NewObject creates an empty JSONObject with room for size keys.
func NewObject(size int) *JSONObject {
	return &JSONObject{
		keys:   make([]string, 0, size),
		values: make(map[string]JSONValue, size),
	}
}

// Set stores value under key. Re-setting an existing key keeps its position.
func (o *JSONObject) Set(key string, value JSONValue) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *JSONObject) Get(key string) (JSONValue, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present, even if it maps to null.
func (o *JSONObject) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (o *JSONObject) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *JSONObject) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// MarshalJSON writes the object with keys in insertion order.
func (o *JSONObject) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
