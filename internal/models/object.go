package models

import (
	"math"
)

// ObjectView is implemented by types that are backed by an Object and
// encode as a plain JSON object.
type ObjectView interface {
	Backing() *Object
}

// Object is a string-keyed map that remembers insertion order. Encoding
// writes entries in that order.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Backing returns o itself.
func (o *Object) Backing() *Object {
	return o
}

// Set stores value under key. An existing key keeps its position.
func (o *Object) Set(key string, value any) *Object {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, exists := o.values[key]; !exists {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, value any) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// AsString returns the string stored under key, or "".
func (o *Object) AsString(key string) string {
	v, _ := o.Get(key)
	s, _ := v.(string)
	return s
}

// AsBool returns the boolean stored under key, or false.
func (o *Object) AsBool(key string) bool {
	v, _ := o.Get(key)
	b, _ := v.(bool)
	return b
}

// AsLong returns the number stored under key as an int64, or 0.
func (o *Object) AsLong(key string) int64 {
	v, _ := o.Get(key)
	n, _ := toInt64(v)
	return n
}

// AsInt returns the number stored under key as an int, or 0.
func (o *Object) AsInt(key string) int {
	return int(o.AsLong(key))
}

// AsDouble returns the number stored under key as a float64, or 0.
func (o *Object) AsDouble(key string) float64 {
	v, _ := o.Get(key)
	f, _ := toFloat64(v)
	return f
}

// AsFloat returns the number stored under key as a float32, or 0.
func (o *Object) AsFloat(key string) float32 {
	return float32(o.AsDouble(key))
}

// AsArray returns the array stored under key, or nil.
func (o *Object) AsArray(key string) []any {
	v, _ := o.Get(key)
	a, _ := v.([]any)
	return a
}

// AsObject returns the nested object stored under key, or nil.
func (o *Object) AsObject(key string) *Object {
	v, _ := o.Get(key)
	switch nested := v.(type) {
	case *Object:
		return nested
	case ObjectView:
		return nested.Backing()
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
