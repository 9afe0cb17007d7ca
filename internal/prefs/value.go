package prefs

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	// KindInvalid is the zero Kind; a Value of this kind holds nothing.
	KindInvalid Kind = iota
	// KindString holds a string.
	KindString
	// KindInt64 holds a 64-bit integer (timestamps).
	KindInt64
	// KindBool holds a boolean.
	KindBool
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "string":
		return KindString, nil
	case "int64":
		return KindInt64, nil
	case "bool":
		return KindBool, nil
	default:
		return KindInvalid, fmt.Errorf("unknown value type %q", s)
	}
}

// Value is a single stored preference: exactly one of string, int64 or bool.
type Value struct {
	kind Kind
	s    string
	i    int64
	b    bool
}

// StringValue returns a Value holding s.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Int64Value returns a Value holding i.
func Int64Value(i int64) Value { return Value{kind: KindInt64, i: i} }

// BoolValue returns a Value holding b.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the kind of value held.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string and true if v holds a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsInt64 returns the integer and true if v holds an int64.
func (v Value) AsInt64() (int64, bool) { return v.i, v.kind == KindInt64 }

// AsBool returns the boolean and true if v holds a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.s == o.s && v.i == o.i && v.b == o.b
}

// String formats the held value for display.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Interface returns the held value as a string, int64 or bool, or nil if invalid.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt64:
		return v.i
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// wireValue is the on-disk representation of a Value.
type wireValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	raw := v.Interface()
	if raw == nil {
		return nil, fmt.Errorf("cannot encode value of kind %s", v.kind)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Type: v.kind.String(), Value: data})
}

// UnmarshalJSON decodes the representation written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := parseKind(w.Type)
	if err != nil {
		return err
	}

	out := Value{kind: kind}
	switch kind {
	case KindString:
		err = json.Unmarshal(w.Value, &out.s)
	case KindInt64:
		err = json.Unmarshal(w.Value, &out.i)
	case KindBool:
		err = json.Unmarshal(w.Value, &out.b)
	}
	if err != nil {
		return fmt.Errorf("decode %s value: %w", w.Type, err)
	}

	*v = out
	return nil
}
