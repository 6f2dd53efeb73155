// Package opcode defines the instruction set emitted by lang/compiler: the
// operand index types, the VarCount encoding for multi-value call/return
// slots, and one Go type per instruction. Instruction is a closed sum type
// realized the Go way, mirroring how lang/ast represents Stmt/Expr: an
// interface with an unexported marker method and one struct per variant,
// so a switch over concrete types gives the compiler (and any future
// virtual machine) exhaustive, compiler-checked dispatch.
package opcode

import "fmt"

// RegisterIndex addresses one of a function's up-to-256 registers.
type RegisterIndex uint8

// UpValueIndex addresses one of a function's up-to-256 upvalues.
type UpValueIndex uint8

// ConstantIndex8 addresses a constant-pool slot in the dense 8-bit operand
// form, used whenever an operand's constant index happens to fit a byte.
type ConstantIndex8 uint8

// ConstantIndex16 addresses a constant-pool slot in the full 16-bit form,
// used by LoadConstant.
type ConstantIndex16 uint16

// PrototypeIndex addresses one of a function's nested prototypes.
type PrototypeIndex uint16

// VarCount encodes the number of values occupying a call argument list or a
// return statement's value list: none, a known constant count, or
// "whatever values are currently on top of the register stack" (the result
// of a trailing multi-value call).
type VarCount struct {
	variable bool
	n        uint8
}

// ZeroVarCount is the empty VarCount.
var ZeroVarCount = VarCount{}

// ConstantVarCount builds a VarCount for a known, fixed number of values.
// n must be representable in a byte; the compiler is responsible for
// raising a Returns limit error before constructing one that would not fit.
func ConstantVarCount(n int) VarCount { return VarCount{n: uint8(n)} }

// VariableVarCount is the "values occupy the rest of the register stack"
// VarCount produced by a trailing multi-value call.
var VariableVarCount = VarCount{variable: true}

// IsVariable reports whether c is the "variable" count.
func (c VarCount) IsVariable() bool { return c.variable }

// IsZero reports whether c is the constant-zero count.
func (c VarCount) IsZero() bool { return !c.variable && c.n == 0 }

// Count returns the fixed count; only meaningful if !IsVariable().
func (c VarCount) Count() int { return int(c.n) }

func (c VarCount) String() string {
	switch {
	case c.variable:
		return "variable"
	case c.n == 0:
		return "zero"
	default:
		return fmt.Sprintf("constant(%d)", c.n)
	}
}

// RK is a register-or-constant operand, used by the simple and comparison
// binary operators: expr_any_register_or_constant (spec §4.4) lets an
// operand that is already a small constant skip the register entirely.
type RK struct {
	Const bool
	Index uint8
}

// Reg builds a register-form RK operand.
func Reg(r RegisterIndex) RK { return RK{Index: uint8(r)} }

// Const builds a constant-form RK operand.
func Const(c ConstantIndex8) RK { return RK{Const: true, Index: uint8(c)} }

func (rk RK) String() string {
	if rk.Const {
		return fmt.Sprintf("k(%d)", rk.Index)
	}
	return fmt.Sprintf("r(%d)", rk.Index)
}

// Instruction is one emitted bytecode instruction. It is a closed sum type:
// every concrete type defined in this package implements it via the
// unexported instr method, so a type switch over the concrete types (as a
// virtual machine would use) is the way to consume one; the disassembler
// only needs each instruction's String method.
type Instruction interface {
	fmt.Stringer
	instr()
}
