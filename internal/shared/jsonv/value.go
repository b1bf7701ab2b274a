// Package jsonv provides an order-preserving JSON value.
//
// Payloads accepted by the gateway have arbitrary shape. Decoding them into
// map[string]interface{} loses member order and forces type switches at every
// call site, so jsonv models a JSON document as a tagged union over
// {null, bool, number, string, array, object} where objects keep their
// members in source order.
//
// Example Usage:
//
//	v, err := jsonv.Parse(body)
//	if err != nil {
//		return err
//	}
//	name, _ := v.Lookup("name")
//	fmt.Println(name.Str())
package jsonv

import (
	"strconv"
)

// Kind identifies the JSON variant held by a Value
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String returns the JSON type name
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	obj  *Members
}

// Member is a single key/value pair of an object
type Member struct {
	Key   string
	Value Value
}

// Members is an ordered set of object members with unique keys
type Members struct {
	list  []Member
	index map[string]int
}

// NewMembers creates an empty member set
func NewMembers() *Members {
	return &Members{index: make(map[string]int)}
}

// Set stores value under key. A repeated key keeps its first position and
// takes the latest value.
func (m *Members) Set(key string, value Value) {
	if i, ok := m.index[key]; ok {
		m.list[i].Value = value
		return
	}
	m.index[key] = len(m.list)
	m.list = append(m.list, Member{Key: key, Value: value})
}

// Get returns the value stored under key
func (m *Members) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.list[i].Value, true
}

// Len returns the number of members
func (m *Members) Len() int {
	if m == nil {
		return 0
	}
	return len(m.list)
}

// Each calls fn for every member in order
func (m *Members) Each(fn func(key string, value Value)) {
	if m == nil {
		return
	}
	for _, member := range m.list {
		fn(member.Key, member.Value)
	}
}

// Constructors

// NullValue returns the JSON null
func NullValue() Value { return Value{} }

// BoolValue wraps a boolean
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// NumberValue wraps a number
func NumberValue(f float64) Value { return Value{kind: Number, num: f} }

// StringValue wraps a string
func StringValue(s string) Value { return Value{kind: String, str: s} }

// ArrayValue wraps a list of values
func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: Array, arr: items}
}

// ObjectValue wraps an ordered member set
func ObjectValue(members *Members) Value {
	if members == nil {
		members = NewMembers()
	}
	return Value{kind: Object, obj: members}
}

// Accessors

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == Null }

// IsObject reports whether v is an object
func (v Value) IsObject() bool { return v.kind == Object }

// IsArray reports whether v is an array
func (v Value) IsArray() bool { return v.kind == Array }

// Bool returns the boolean payload
func (v Value) Bool() bool { return v.b }

// Num returns the numeric payload
func (v Value) Num() float64 { return v.num }

// Str returns the string payload
func (v Value) Str() string { return v.str }

// Items returns the array elements
func (v Value) Items() []Value { return v.arr }

// Members returns the object members
func (v Value) Members() *Members { return v.obj }

// Lookup returns the member stored under key when v is an object
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// LookupString returns the member under key when it is a string
func (v Value) LookupString(key string) (string, bool) {
	member, ok := v.Lookup(key)
	if !ok || member.kind != String {
		return "", false
	}
	return member.str, true
}

// Text renders a scalar the way a JavaScript String() call would:
// strings unchanged, numbers in shortest round-trip form, booleans as
// "true"/"false" and null as "null". Arrays and objects render as JSON.
func (v Value) Text() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.b)
	case Number:
		return FormatNumber(v.num)
	case String:
		return v.str
	default:
		return v.JSON()
	}
}

// JSON returns the compact JSON encoding of v
func (v Value) JSON() string {
	return string(v.AppendJSON(nil))
}
