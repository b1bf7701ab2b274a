package record

import (
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
)

// Delimiter joins nested key segments
const Delimiter = ":"

// Flat is the output of Flatten: a single-level ordered mapping whose values
// are still raw JSON (primitives, null, or arrays of primitives/strings).
type Flat struct {
	members *jsonv.Members
}

// NewFlat creates an empty flat mapping
func NewFlat() *Flat {
	return &Flat{members: jsonv.NewMembers()}
}

// Set stores value under key
func (f *Flat) Set(key string, value jsonv.Value) {
	f.members.Set(key, value)
}

// Get returns the value under key
func (f *Flat) Get(key string) (jsonv.Value, bool) {
	return f.members.Get(key)
}

// Len returns the number of keys
func (f *Flat) Len() int {
	return f.members.Len()
}

// Each visits keys in insertion order
func (f *Flat) Each(fn func(key string, value jsonv.Value)) {
	f.members.Each(fn)
}

// Keys returns keys in insertion order
func (f *Flat) Keys() []string {
	keys := make([]string, 0, f.members.Len())
	f.members.Each(func(key string, _ jsonv.Value) {
		keys = append(keys, key)
	})
	return keys
}

// Value returns the mapping as a JSON object
func (f *Flat) Value() jsonv.Value {
	return jsonv.ObjectValue(f.members)
}

// Flatten turns a nested object into a single-level mapping whose keys are
// the member paths joined by Delimiter. Arrays are kept, with object and
// array elements replaced by their JSON text. Anything other than an object
// at the top level yields an empty mapping.
func Flatten(v jsonv.Value, prefix string) *Flat {
	out := NewFlat()
	if !v.IsObject() {
		return out
	}
	flattenInto(out, v, prefix)
	return out
}

func flattenInto(out *Flat, obj jsonv.Value, prefix string) {
	obj.Members().Each(func(key string, value jsonv.Value) {
		path := key
		if prefix != "" {
			path = prefix + Delimiter + key
		}

		switch value.Kind() {
		case jsonv.Object:
			flattenInto(out, value, path)
		case jsonv.Array:
			out.Set(path, stringifyElements(value))
		default:
			out.Set(path, value)
		}
	})
}

func stringifyElements(arr jsonv.Value) jsonv.Value {
	items := arr.Items()
	out := make([]jsonv.Value, len(items))
	for i, item := range items {
		switch item.Kind() {
		case jsonv.Object, jsonv.Array:
			out[i] = jsonv.StringValue(item.JSON())
		default:
			out[i] = item
		}
	}
	return jsonv.ArrayValue(out...)
}
