package storage

import (
	"errors"
	"fmt"
)

// ErrInvalidDataType is returned when a ColumnAttribute names a type this
// engine does not know how to store.
var ErrInvalidDataType = errors.New("invalid data type")

// DataType tags the shape of a column's storage: a 4-byte integer or a
// length-prefixed run of ASCII bytes. There is no NULL and no DOUBLE —
// both are explicit non-goals of this engine.
type DataType int8

const (
	INT DataType = iota
	TEXT
)

func (t DataType) String() string {
	switch t {
	case INT:
		return "INT"
	case TEXT:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType maps a catalog-stored type name ("INT"/"TEXT") back to a
// DataType, the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "INT":
		return INT, nil
	case "TEXT":
		return TEXT, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDataType, s)
	}
}

// ColumnAttribute names a column's physical storage shape. INT occupies 4
// bytes; TEXT occupies a 2-byte length prefix followed by that many bytes.
type ColumnAttribute struct {
	DataType DataType
}

// Size returns the fixed on-block size of values of this attribute, or
// false if the attribute is variable-length (TEXT).
func (c ColumnAttribute) Size() (int, bool) {
	switch c.DataType {
	case INT:
		return 4, true
	default:
		return 0, false
	}
}

// Value is a tagged union of Int32 and Text, the two storable value
// shapes. The zero Value is an Int32 of 0; use NewInt/NewText to build
// values explicitly so the kind is never ambiguous.
type Value struct {
	kind DataType
	i    int32
	s    string
}

// NewInt builds an INT value.
func NewInt(v int32) Value {
	return Value{kind: INT, i: v}
}

// NewText builds a TEXT value. The bytes are assumed ASCII, per spec.
func NewText(v string) Value {
	return Value{kind: TEXT, s: v}
}

// DataType reports which arm of the union is populated.
func (v Value) DataType() DataType {
	return v.kind
}

// Int returns the Int32 payload. Only meaningful if DataType() == INT.
func (v Value) Int() int32 {
	return v.i
}

// Text returns the Text payload. Only meaningful if DataType() == TEXT.
func (v Value) Text() string {
	return v.s
}

// Equals reports structural equality: same tag, same payload.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	if v.kind == INT {
		return v.i == other.i
	}

	return v.s == other.s
}

// Equal is Equals under the name go-cmp looks for, so cmp.Diff can
// compare Rows (and anything else holding a Value) without an
// unexported-field panic or a hand-written cmp.Comparer.
func (v Value) Equal(other Value) bool {
	return v.Equals(other)
}

func (v Value) String() string {
	switch v.kind {
	case INT:
		return fmt.Sprintf("%d", v.i)
	case TEXT:
		return fmt.Sprintf("%q", v.s)
	default:
		return "???"
	}
}
