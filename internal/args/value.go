// Package args holds the typed argument model for Fabric binary invocations:
// a Value sum type, an insertion-ordered Map keyed by option name, and the
// serializer that turns a Map into CLI tokens.
package args

import (
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindUndefined is the zero Value. It is never stored in a Map.
	KindUndefined Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a typed option value: string, number, boolean or string list.
// Numbers keep their rendered text so integers never pass through float64.
type Value struct {
	kind Kind
	str  string
	b    bool
	list []string
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number returns a numeric Value.
func Number(n float64) Value {
	return Value{kind: KindNumber, str: strconv.FormatFloat(n, 'f', -1, 64)}
}

// Int returns a numeric Value from an int.
func Int(n int) Value {
	return Int64(int64(n))
}

// Int64 returns a numeric Value from an int64.
func Int64(n int64) Value {
	return Value{kind: KindNumber, str: strconv.FormatInt(n, 10)}
}

// Uint64 returns a numeric Value from a uint64.
func Uint64(n uint64) Value {
	return Value{kind: KindNumber, str: strconv.FormatUint(n, 10)}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// List returns a string list Value. The slice is copied.
func List(items ...string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// Defined reports whether v holds a value.
func (v Value) Defined() bool {
	return v.kind != KindUndefined
}

// Bool returns the boolean held by v; false for other kinds.
func (v Value) Bool() bool {
	return v.kind == KindBool && v.b
}

// Text renders v the way it appears after its flag on the command line.
// Lists are comma-joined, booleans render as "true"/"false".
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	default:
		return v.str == o.str && v.b == o.b
	}
}
