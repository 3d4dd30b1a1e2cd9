// Package heap implements loom's tagged Value representation, its eight
// heap-object kinds, the compiled-function Chunk they share with the
// compiler, and the mark-sweep collector that owns them all.
//
// Chunk.Constants holds Values and Function embeds a Chunk, so the two
// are mutually referential the same way clox's chunk.h and value.h are:
// as in the original C, they live in one compilation unit here rather
// than forcing an import cycle across packages.
package heap

import "fmt"

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObject
)

// Value is loom's runtime value: nil, a bool, an IEEE-754 double, or a
// reference to a heap Object. It is always passed and compared by value.
type Value struct {
	kind Kind
	b    bool
	n    float64
	obj  Object
}

// Nil is the singular nil value.
var Nil = Value{kind: KindNil}

// Bool returns the Value wrapping b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns the Value wrapping n.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// FromObject returns the Value wrapping a heap Object.
func FromObject(o Object) Value { return Value{kind: KindObject, obj: o} }

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNil() bool   { return v.kind == KindNil }
func (v Value) IsBool() bool  { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObject() bool { return v.kind == KindObject }

// AsBool returns the wrapped bool. It panics if v is not a bool.
func (v Value) AsBool() bool {
	if v.kind != KindBool {
		panic("heap: AsBool of non-bool Value")
	}
	return v.b
}

// AsNumber returns the wrapped number. It panics if v is not a number.
func (v Value) AsNumber() float64 {
	if v.kind != KindNumber {
		panic("heap: AsNumber of non-number Value")
	}
	return v.n
}

// AsObject returns the wrapped heap Object, or nil if v is not an object.
func (v Value) AsObject() Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Truthy reports whether v is truthy: everything but nil and false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// TypeName returns a short description of v's runtime type, used in
// diagnostics.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	default:
		return v.obj.objKind().String()
	}
}

// Equal implements loom's == operator: numbers by IEEE equality, booleans
// by identity, nil equal only to nil, strings by content, functions by
// name, other objects by identity. Values of differing kinds are never
// equal.
func Equal(x, y Value) bool {
	if x.kind != y.kind {
		return false
	}
	switch x.kind {
	case KindNil:
		return true
	case KindBool:
		return x.b == y.b
	case KindNumber:
		return x.n == y.n
	default:
		return objectsEqual(x.obj, y.obj)
	}
}

func objectsEqual(a, b Object) bool {
	if a == b {
		return true
	}
	as, aok := a.(*String)
	bs, bok := b.(*String)
	if aok && bok {
		return as.s == bs.s
	}
	af, aok := a.(*Function)
	bf, bok := b.(*Function)
	if aok && bok {
		return af.Name == bf.Name
	}
	return false
}

// String stringifies v per the language's print/println/stringify rules.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	default:
		return v.obj.String()
	}
}

func formatNumber(n float64) string {
	return fmt.Sprintf("%.15g", n)
}
