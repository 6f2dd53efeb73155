package compiler

import (
	"github.com/mna/marl/lang/opcode"
	"github.com/mna/marl/lang/value"
)

// Prototype is the compiled artifact of one function nesting level (spec.md
// §3, §4.9, GLOSSARY): its constants, emitted opcodes, upvalue
// descriptors, nested prototypes, and the register-file sizing the VM
// needs to set up a call frame.
type Prototype struct {
	FixedParams int
	HasVarargs  bool
	StackSize   int
	Constants   []value.Value
	Opcodes     []opcode.Instruction
	Upvalues    []upvalueBinding
	Prototypes  []*Prototype
}

// toPrototype packages a completed functionContext into a Prototype,
// asserting the register-leak invariant (spec.md §4.9, §7): this is a
// bug-check, not a user-facing error, because a real leak means the
// compiler itself mismanaged register lifetime, not that the input was
// invalid.
func (c *Compiler) toPrototype(fn functionContext) *Prototype {
	if fn.registers.stackTop != len(fn.locals) {
		panic("register leak detected: stack_top does not match live locals at function exit")
	}
	return &Prototype{
		FixedParams: fn.fixedParams,
		HasVarargs:  false,
		StackSize:   fn.registers.stackSize,
		Constants:   fn.constants.values,
		Opcodes:     fn.opcodes,
		Upvalues:    fn.upvalues,
		Prototypes:  fn.prototypes,
	}
}
