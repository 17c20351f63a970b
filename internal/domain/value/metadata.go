package value

import (
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInteger
	KindFloat
	KindBool
	KindPlaceholder
)

// String returns the string representation of the value kind.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Value is a typed metadata value. Only the field matching Kind is meaningful;
// Str holds the text of a String and the name of a Placeholder.
type Value struct {
	Kind  ValueKind `json:"kind" msgpack:"k"`
	Str   string    `json:"str,omitempty" msgpack:"s,omitempty"`
	Int   int64     `json:"int,omitempty" msgpack:"i,omitempty"`
	Float float64   `json:"float,omitempty" msgpack:"f,omitempty"`
	Bool  bool      `json:"bool,omitempty" msgpack:"b,omitempty"`
}

// StringValue creates a String value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// IntValue creates an Integer value.
func IntValue(i int64) Value {
	return Value{Kind: KindInteger, Int: i}
}

// FloatValue creates a Float value.
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// BoolValue creates a Boolean value.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// PlaceholderValue creates a Placeholder value referring to name.
func PlaceholderValue(name string) Value {
	return Value{Kind: KindPlaceholder, Str: name}
}

// Text renders the value as plain text.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindPlaceholder:
		return "[[" + v.Str + "]]"
	default:
		return ""
	}
}

// String implements the Stringer interface.
func (v Value) String() string {
	return v.Kind.String() + "(" + v.Text() + ")"
}

// Entry is a single key/value pair of a Metadata mapping.
type Entry struct {
	Key   string `json:"key" msgpack:"key"`
	Value Value  `json:"value" msgpack:"value"`
}

// Metadata is an ordered mapping from key to Value. Keys are unique; Set on an
// existing key replaces the value in place and keeps its position.
type Metadata []Entry

// Len returns the number of entries.
func (m Metadata) Len() int {
	return len(m)
}

// Get returns the value stored for key.
func (m Metadata) Get(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether key is set.
func (m Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Flag reports whether key is set to boolean true.
func (m Metadata) Flag(key string) bool {
	v, ok := m.Get(key)
	return ok && v.Kind == KindBool && v.Bool
}

// String returns the textual form of key, or fallback when unset.
func (m Metadata) String(key, fallback string) string {
	v, ok := m.Get(key)
	if !ok {
		return fallback
	}
	return v.Text()
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

// Set stores value under key.
func (m *Metadata) Set(key string, v Value) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = v
			return
		}
	}
	*m = append(*m, Entry{Key: key, Value: v})
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	copy(out, m)
	return out
}

// Overlay returns a copy of m extended with every entry of other whose key is
// not already present in m. Entries of m always win.
func (m Metadata) Overlay(other Metadata) Metadata {
	out := m.Clone()
	for _, e := range other {
		if !out.Has(e.Key) {
			out = append(out, e)
		}
	}
	return out
}
