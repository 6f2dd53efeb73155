package value

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Table is the runtime table type. It splits storage into a dense array
// part (1-based consecutive integer keys) and a swiss.Map hash part for
// everything else, mirroring how the teacher repo's machine.Map wraps
// dolthub/swiss for its own mapping type.
//
// The compiler never builds a Table value at compile time (table
// constructors with any field are rejected, and an empty constructor is
// always lowered to a runtime NewTable opcode instead of a constant), so
// this type exists for the opcode layer's Get/Set specialization and for
// the Value union to be complete.
type Table struct {
	array []Value
	hash  *swiss.Map[Value, Value]
}

// NewTable returns an empty table with initial hash-part capacity for at
// least size entries.
func NewTable(size int) *Table {
	return &Table{hash: swiss.NewMap[Value, Value](uint32(size))}
}

func (t *Table) String() string { return fmt.Sprintf("table(%p)", t) }

// Get looks up k, checking the array part first for small positive integer
// keys before falling back to the hash part.
func (t *Table) Get(k Value) (Value, bool) {
	if k.Kind() == Int {
		if i := k.Int(); i >= 1 && int(i) <= len(t.array) {
			v := t.array[i-1]
			return v, !v.IsNil()
		}
	}
	return t.hash.Get(k)
}

// Set stores v at key k. A positive integer key one past the current array
// length grows the array part instead of the hash part, matching the usual
// table-as-sequence fast path.
func (t *Table) Set(k, v Value) {
	if k.Kind() == Int {
		i := k.Int()
		switch {
		case i >= 1 && int(i) <= len(t.array):
			t.array[i-1] = v
			return
		case int(i) == len(t.array)+1 && !v.IsNil():
			t.array = append(t.array, v)
			return
		}
	}
	t.hash.Put(k, v)
}

// Len returns the border of the array part: the count of leading non-nil
// array slots.
func (t *Table) Len() int {
	n := 0
	for n < len(t.array) && !t.array[n].IsNil() {
		n++
	}
	return n
}
