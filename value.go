package cif

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the kind of a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindString
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a single CIF datum: missing, a number, a string or a vector of
// values. The zero Value is missing. Values are immutable; the slice
// returned by AsVector must not be modified.
type Value struct {
	kind Kind
	num  float64
	str  string
	vec  []Value
}

// Missing returns a missing value, written '.' or '?' in CIF.
func Missing() Value {
	return Value{}
}

// Number returns a numeric value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Vector returns a vector value holding a copy of vs.
func Vector(vs ...Value) Value {
	vec := make([]Value, len(vs))
	copy(vec, vs)
	return Value{kind: KindVector, vec: vec}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsMissing() bool { return v.kind == KindMissing }
func (v Value) IsNumber() bool  { return v.kind == KindNumber }
func (v Value) IsString() bool  { return v.kind == KindString }
func (v Value) IsVector() bool  { return v.kind == KindVector }

// AsNumber returns the number in v, or a MismatchError if v is not a number.
func (v Value) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return 0, v.kindError("AsNumber")
	}
	return v.num, nil
}

// AsString returns the string in v, or a MismatchError if v is not a string.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.kindError("AsString")
	}
	return v.str, nil
}

// AsVector returns the elements of v, or a MismatchError if v is not a vector.
func (v Value) AsVector() ([]Value, error) {
	if v.kind != KindVector {
		return nil, v.kindError("AsVector")
	}
	return v.vec, nil
}

// Len returns the number of elements of a vector, and 0 for scalars.
func (v Value) Len() int {
	return len(v.vec)
}

func (v Value) kindError(method string) error {
	return &Error{
		Kind: MismatchError,
		Msg:  fmt.Sprintf("called Value.%s, but this is a %s value", method, v.kind),
	}
}

// Interface converts v to plain Go data: nil, float64, string or []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindVector:
		out := make([]any, len(v.vec))
		for i, e := range v.vec {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether v and o hold the same kind and data.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindVector:
		if len(v.vec) != len(o.vec) {
			return false
		}
		for i := range v.vec {
			if !v.vec[i].Equal(o.vec[i]) {
				return false
			}
		}
	}
	return true
}

// String returns a human-readable representation of the value.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	case KindVector:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.vec {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return "?"
	}
}
