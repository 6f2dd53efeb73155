package compiler

import "github.com/mna/marl/lang/opcode"

// registerAllocator tracks which of a function's 256 registers are in use.
// It is ported directly from the register allocator of the original
// compiler this package reimplements: a flat occupancy bitmap plus three
// cursors (firstFree, stackTop, stackSize) that let allocate/free/push/
// popTo all run in amortized O(1) without scanning the whole bitmap on the
// common path.
type registerAllocator struct {
	registers [256]bool
	firstFree int
	stackTop  int
	stackSize int
}

// allocate returns the smallest free register, marking it used. It returns
// a RegistersLimit error if all 256 registers are occupied.
func (a *registerAllocator) allocate() (opcode.RegisterIndex, error) {
	if a.firstFree >= 256 {
		return 0, newLimitError(RegistersLimit, "")
	}
	r := a.firstFree
	a.registers[r] = true

	if a.firstFree == a.stackTop {
		a.stackTop++
	}
	if a.stackTop > a.stackSize {
		a.stackSize = a.stackTop
	}

	i := a.firstFree
	for i < 256 && a.registers[i] {
		i++
	}
	a.firstFree = i

	return opcode.RegisterIndex(r), nil
}

// free releases register r. Freeing the current topmost register lowers
// stackTop to one past the highest register still in use (0 if none);
// freeing an interior register leaves a hole that a later allocate can
// reclaim without disturbing stackTop.
func (a *registerAllocator) free(r opcode.RegisterIndex) {
	ri := int(r)
	a.registers[ri] = false
	if ri < a.firstFree {
		a.firstFree = ri
	}
	if ri+1 == a.stackTop {
		a.stackTop--
		for a.stackTop > 0 && !a.registers[a.stackTop-1] {
			a.stackTop--
		}
	}
}

// push allocates a contiguous block of size registers at the current stack
// top, returning the block's base register. size == 0 is a valid no-op
// (a zero-parameter function, for instance) that returns the current stack
// top without allocating anything. Used by the calling convention (spec
// §4.6), which needs the callee and its arguments to land on consecutive
// registers.
func (a *registerAllocator) push(size int) (opcode.RegisterIndex, error) {
	if size == 0 {
		return opcode.RegisterIndex(a.stackTop), nil
	}
	if size < 0 {
		return 0, newLimitError(RegistersLimit, "")
	}
	if size > 256-a.stackTop {
		return 0, newLimitError(RegistersLimit, "")
	}
	base := a.stackTop
	for i := base; i < base+size; i++ {
		a.registers[i] = true
	}
	if a.firstFree == a.stackTop {
		a.firstFree += size
	}
	a.stackTop += size
	if a.stackTop > a.stackSize {
		a.stackSize = a.stackTop
	}
	return opcode.RegisterIndex(base), nil
}

// popTo frees every register in [newTop, stackTop), making newTop the new
// stack top. It is a no-op if newTop is already >= stackTop.
func (a *registerAllocator) popTo(newTop int) {
	if a.stackTop > newTop {
		for i := newTop; i < a.stackTop; i++ {
			a.registers[i] = false
		}
		a.stackTop = newTop
		if a.firstFree > a.stackTop {
			a.firstFree = a.stackTop
		}
	}
}

// topStack is a stack of T that is always guaranteed to have a top element,
// with random-access get/set by index. The function-context stack needs
// both properties: it must never be empty (there is always an
// innermost-function-being-compiled), and upvalue chain construction (spec
// §4.3) needs to read and mutate an arbitrary ancestor by depth, not just
// the top.
type topStack[T any] struct {
	top   T
	lower []T
}

func newTopStack[T any](top T) *topStack[T] {
	return &topStack[T]{top: top}
}

func (s *topStack[T]) push(t T) {
	s.lower = append(s.lower, s.top)
	s.top = t
}

func (s *topStack[T]) pop() T {
	if len(s.lower) == 0 {
		panic("topStack must always have one entry")
	}
	old := s.top
	s.top = s.lower[len(s.lower)-1]
	s.lower = s.lower[:len(s.lower)-1]
	return old
}

func (s *topStack[T]) len() int { return len(s.lower) + 1 }

// get returns a pointer to the i'th entry (0 is the bottom of the stack),
// so callers can mutate an ancestor function context in place.
func (s *topStack[T]) get(i int) *T {
	n := len(s.lower)
	if i < n {
		return &s.lower[i]
	}
	if i == n {
		return &s.top
	}
	panic("topStack index out of range")
}
