// Package value implements the runtime data model the compiler depends on:
// the tagged Value union (spec.md §3), interned String handles, and the
// Table type used by the (out-of-scope) virtual machine. The compiler only
// needs these types for constant-pool interning and for picking the
// densest table-access opcode; it never executes them.
package value

import (
	"fmt"
	"math"
)

// Kind identifies which alternative of the Value union is populated.
type Kind uint8

const (
	Nil Kind = iota
	Bool
	Int
	Float
	Str
	TableKind
	ClosureKind
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Int:
		return "integer"
	case Float:
		return "number"
	case Str:
		return "string"
	case TableKind:
		return "table"
	case ClosureKind:
		return "closure"
	}
	return "unknown"
}

// Value is the tagged union of runtime values described in spec.md §3. It is
// a plain comparable struct (no slices or maps) so it can be used directly
// as a Go map key and as the key/value type of a swiss.Map, which is what
// the compiler's constant pool and the Table hash part both need.
//
// Equality between two Values obtained via ==  is bit-exact: a Float is
// compared by its raw bits (so +0/-0 and distinct NaN payloads do not
// collide), and String/Table/Closure are compared by handle identity. Since
// strings are interned (see Intern), identical string content always
// produces the same handle, so identity equality coincides with content
// equality for strings too.
type Value struct {
	kind  Kind
	boolV bool
	intV  int64
	bits  uint64 // raw IEEE-754 bits of a Float value
	strV  *String
	tblV  *Table
	cloV  *Closure
}

// NilValue is the single nil value.
var NilValue = Value{kind: Nil}

// BoolValue constructs a Boolean value.
func BoolValue(b bool) Value { return Value{kind: Bool, boolV: b} }

// IntValue constructs an Integer value.
func IntValue(i int64) Value { return Value{kind: Int, intV: i} }

// FloatValue constructs a Number value, keyed for interning by its raw bit
// pattern rather than by numeric equality.
func FloatValue(f float64) Value { return Value{kind: Float, bits: math.Float64bits(f)} }

// StringValue constructs a String value from an interned handle.
func StringValue(s *String) Value { return Value{kind: Str, strV: s} }

// TableValue constructs a Table value from a handle.
func TableValue(t *Table) Value { return Value{kind: TableKind, tblV: t} }

// ClosureValue constructs a Closure value from a handle.
func ClosureValue(c *Closure) Value { return Value{kind: ClosureKind, cloV: c} }

// Kind reports which alternative is populated.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is the Nil value.
func (v Value) IsNil() bool { return v.kind == Nil }

// Bool returns the boolean payload; only meaningful if Kind() == Bool.
func (v Value) Bool() bool { return v.boolV }

// Int returns the integer payload; only meaningful if Kind() == Int.
func (v Value) Int() int64 { return v.intV }

// Float returns the float payload; only meaningful if Kind() == Float.
func (v Value) Float() float64 { return math.Float64frombits(v.bits) }

// Str returns the string payload; only meaningful if Kind() == Str.
func (v Value) Str() *String { return v.strV }

// Table returns the table payload; only meaningful if Kind() == TableKind.
func (v Value) Table() *Table { return v.tblV }

// Closure returns the closure payload; only meaningful if Kind() == ClosureKind.
func (v Value) Closure() *Closure { return v.cloV }

// Truthy implements the language's truthiness rule: everything except nil
// and the boolean false is truthy.
func (v Value) Truthy() bool {
	if v.kind == Nil {
		return false
	}
	if v.kind == Bool {
		return v.boolV
	}
	return true
}

// String renders v the way the language's tostring would for a literal
// constant: used by the compiler's disassembler to print the constant pool.
func (v Value) String() string {
	switch v.kind {
	case Nil:
		return "nil"
	case Bool:
		return fmt.Sprintf("%t", v.boolV)
	case Int:
		return fmt.Sprintf("%d", v.intV)
	case Float:
		return fmt.Sprintf("%g", v.Float())
	case Str:
		return fmt.Sprintf("%q", v.strV.Go())
	case TableKind:
		return fmt.Sprintf("table: %p", v.tblV)
	case ClosureKind:
		return fmt.Sprintf("closure: %p", v.cloV)
	default:
		return "?"
	}
}

// Closure is an opaque runtime handle for a compiled function's closure
// object. The compiler never constructs one (there is no closure literal
// syntax), but it is part of the Value union for completeness, per
// spec.md §3.
type Closure struct {
	_ [0]byte // distinct identity per allocation
}
