package record

import (
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
)

// Value is a record value: a single string or an ordered list of strings
type Value struct {
	single string
	list   []string
	multi  bool
}

// Single wraps a single string
func Single(s string) Value {
	return Value{single: s}
}

// Multi wraps a list of strings
func Multi(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{list: items, multi: true}
}

// IsMulti reports whether the value is a list
func (v Value) IsMulti() bool { return v.multi }

// String returns the single value
func (v Value) String() string { return v.single }

// List returns the list value
func (v Value) List() []string { return v.list }

// Strings returns the value as a list, wrapping single values
func (v Value) Strings() []string {
	if v.multi {
		return v.list
	}
	return []string{v.single}
}

// Equal reports whether two values hold the same data
func (v Value) Equal(other Value) bool {
	if v.multi != other.multi {
		return false
	}
	if !v.multi {
		return v.single == other.single
	}
	if len(v.list) != len(other.list) {
		return false
	}
	for i := range v.list {
		if v.list[i] != other.list[i] {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.multi {
		return jsonv.AppendQuoted(nil, v.single), nil
	}
	out := []byte{'['}
	for i, s := range v.list {
		if i > 0 {
			out = append(out, ',')
		}
		out = jsonv.AppendQuoted(out, s)
	}
	return append(out, ']'), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = Single(single)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("record value must be string or string array: %w", err)
	}
	*v = Multi(list...)
	return nil
}

// Record is a flat, ordered mapping from key path to Value. It is the exact
// shape accepted by the registry's sync call.
type Record struct {
	keys   []string
	values map[string]Value
}

// New creates an empty record
func New() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set stores a value. Existing keys keep their position.
func (r *Record) Set(key string, value Value) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Delete removes key
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys
func (r *Record) Len() int {
	return len(r.keys)
}

// Each calls fn for every key in order
func (r *Record) Each(fn func(key string, value Value)) {
	for _, k := range r.keys {
		fn(k, r.values[k])
	}
}

// MarshalJSON implements json.Marshaler, preserving key order
func (r *Record) MarshalJSON() ([]byte, error) {
	out := []byte{'{'}
	for i, k := range r.keys {
		if i > 0 {
			out = append(out, ',')
		}
		out = jsonv.AppendQuoted(out, k)
		out = append(out, ':')
		b, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return append(out, '}'), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Record) UnmarshalJSON(data []byte) error {
	parsed, err := jsonv.Parse(data)
	if err != nil {
		return err
	}
	if !parsed.IsObject() {
		return fmt.Errorf("record must be a JSON object, got %s", parsed.Kind())
	}

	out := New()
	var decodeErr error
	parsed.Members().Each(func(key string, member jsonv.Value) {
		if decodeErr != nil {
			return
		}
		var v Value
		if err := v.UnmarshalJSON(member.AppendJSON(nil)); err != nil {
			decodeErr = fmt.Errorf("key %q: %w", key, err)
			return
		}
		out.Set(key, v)
	})
	if decodeErr != nil {
		return decodeErr
	}
	*r = *out
	return nil
}

// Map returns a plain map view, for callers that do not care about order
func (r *Record) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.keys))
	for _, k := range r.keys {
		v := r.values[k]
		if v.multi {
			out[k] = v.list
		} else {
			out[k] = v.single
		}
	}
	return out
}
