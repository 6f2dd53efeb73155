package compiler

import (
	"github.com/mna/marl/lang/ast"
	"github.com/mna/marl/lang/opcode"
	"github.com/mna/marl/lang/value"
)

// exprDescriptor is the central IR of the code generator (spec.md §3, §9):
// a closed sum type representing a partially-evaluated expression that has
// not yet been committed to a concrete register, constant, or side effect.
// As the spec's design notes call out explicitly, this must stay an
// exhaustively-dispatched variant set rather than a polymorphic hierarchy,
// because discharge's correctness depends on handling every variant.
type exprDescriptor interface{ exprDescriptorNode() }

// registerExpr is a value that already lives in a register. Temporary
// registers are freed as soon as they are consumed by discharge; named
// locals (Temporary == false) are never freed by discharge itself.
type registerExpr struct {
	Register  opcode.RegisterIndex
	Temporary bool
}

func (registerExpr) exprDescriptorNode() {}

// upvalueExpr is a value living in an upvalue of the function being
// compiled.
type upvalueExpr struct{ Index opcode.UpValueIndex }

func (upvalueExpr) exprDescriptorNode() {}

// valueExpr is a compile-time constant.
type valueExpr struct{ Value value.Value }

func (valueExpr) exprDescriptorNode() {}

// callExpr is a deferred function call: func and args have already been
// compiled to descriptors, but the Call opcode has not been emitted yet,
// because the caller (discharge, or a nested call building its argument
// list) decides how many return values to request.
type callExpr struct {
	Func exprDescriptor
	Args []exprDescriptor
}

func (callExpr) exprDescriptorNode() {}

// shortCircuitExpr is a deferred `and`/`or` expression. The right operand
// is kept as unevaluated AST (not yet compiled) so that its side effects
// only occur if the left operand does not already decide the result.
type shortCircuitExpr struct {
	Left  exprDescriptor
	IsAnd bool
	Right *ast.Expression
}

func (shortCircuitExpr) exprDescriptorNode() {}

// destKind distinguishes the four places discharge can realize an
// expression into, per spec.md §4.4.
type destKind uint8

const (
	destRegister destKind = iota
	destAllocateNew
	destPushNew
	destNone
)

// exprDestination selects where discharge commits an expression's value.
type exprDestination struct {
	kind     destKind
	register opcode.RegisterIndex
}

func destToRegister(r opcode.RegisterIndex) exprDestination {
	return exprDestination{kind: destRegister, register: r}
}

var (
	destAllocate = exprDestination{kind: destAllocateNew}
	destPush     = exprDestination{kind: destPushNew}
	destDiscard  = exprDestination{kind: destNone}
)

func (c *Compiler) top() *functionContext { return c.functions.get(c.functions.len() - 1) }

func (c *Compiler) emit(in opcode.Instruction) {
	fn := c.top()
	fn.opcodes = append(fn.opcodes, in)
}

// newDestination allocates (if necessary) the concrete register named by
// dest.
func (c *Compiler) newDestination(dest exprDestination) (opcode.RegisterIndex, bool, error) {
	switch dest.kind {
	case destRegister:
		return dest.register, true, nil
	case destAllocateNew:
		r, err := c.top().registers.allocate()
		return r, true, err
	case destPushNew:
		r, err := c.top().registers.push(1)
		return r, true, err
	default:
		return 0, false, nil
	}
}

// getConstant interns v into the current function's constant pool.
func (c *Compiler) getConstant(v value.Value) (opcode.ConstantIndex16, error) {
	return c.top().constants.intern(v)
}

// internString interns a source identifier or string literal into a
// *value.String via the compiler's shared interner, then wraps it as a
// constant Value. Sharing one Interner across the whole compile means two
// references to the same name, anywhere in the program, get the same
// string handle (spec.md §3, handle identity).
func (c *Compiler) internString(s string) value.Value {
	return value.StringValue(c.strings.Intern(s))
}

// loadNil emits a LoadNil opcode, fusing it with an immediately preceding
// LoadNil when the new destination directly continues the previous run
// (spec.md §4.4, Testable Properties "Nil fusion").
func (c *Compiler) loadNil(dest opcode.RegisterIndex) {
	fn := c.top()
	if n := len(fn.opcodes); n > 0 {
		if prev, ok := fn.opcodes[n-1].(opcode.LoadNil); ok {
			if opcode.RegisterIndex(uint8(prev.Dest)+prev.Count) == dest {
				fn.opcodes[n-1] = opcode.LoadNil{Dest: prev.Dest, Count: prev.Count + 1}
				return
			}
		}
	}
	fn.opcodes = append(fn.opcodes, opcode.LoadNil{Dest: dest, Count: 1})
}

// anyRegister forces expr into a register, replacing it with the
// resulting registerExpr and returning that register. If expr is already a
// register, it is returned unchanged (spec.md §4.4, any_register).
func (c *Compiler) anyRegister(expr *exprDescriptor) (opcode.RegisterIndex, error) {
	if r, ok := (*expr).(registerExpr); ok {
		return r.Register, nil
	}
	reg, err := c.discharge(*expr, destAllocate)
	if err != nil {
		return 0, err
	}
	*expr = registerExpr{Register: reg, Temporary: true}
	return reg, nil
}

// registerOrConstant is the result of anyRegisterOrConstant: either a
// register or a dense 8-bit constant-pool reference.
type registerOrConstant struct {
	opcode.RK
}

// anyRegisterOrConstant returns expr's constant-pool index directly,
// without emitting any opcode, if expr is already a constant value that
// fits the dense 8-bit operand form; otherwise it falls back to
// anyRegister (spec.md §4.4, any_register_or_constant).
func (c *Compiler) anyRegisterOrConstant(expr *exprDescriptor) (opcode.RK, error) {
	if v, ok := (*expr).(valueExpr); ok {
		idx, err := c.getConstant(v.Value)
		if err != nil {
			return opcode.RK{}, err
		}
		if idx <= 255 {
			return opcode.Const(opcode.ConstantIndex8(idx)), nil
		}
	}
	r, err := c.anyRegister(expr)
	if err != nil {
		return opcode.RK{}, err
	}
	return opcode.Reg(r), nil
}

// discharge consumes expr and realizes it into dest, per the rules of
// spec.md §4.4. It returns the resulting register and panics if dest is
// "None"; dischargeOptional accepts "None" and reports it as ok==false.
func (c *Compiler) discharge(expr exprDescriptor, dest exprDestination) (opcode.RegisterIndex, error) {
	reg, ok, err := c.dischargeOptional(expr, dest)
	if err != nil {
		return 0, err
	}
	if !ok {
		panic("discharge: destination None but a register was required")
	}
	return reg, nil
}

func (c *Compiler) dischargeOptional(expr exprDescriptor, dest exprDestination) (result opcode.RegisterIndex, ok bool, err error) {
	switch e := expr.(type) {
	case registerExpr:
		if dest.kind == destAllocateNew && e.Temporary {
			result, ok = e.Register, true
			break
		}
		if e.Temporary {
			c.top().registers.free(e.Register)
		}
		d, hasDest, derr := c.newDestination(dest)
		if derr != nil {
			return 0, false, derr
		}
		if !hasDest {
			return 0, false, nil
		}
		if d != e.Register {
			c.emit(opcode.Move{Dest: d, Src: e.Register})
		}
		result, ok = d, true

	case upvalueExpr:
		d, hasDest, derr := c.newDestination(dest)
		if derr != nil {
			return 0, false, derr
		}
		if !hasDest {
			return 0, false, nil
		}
		c.emit(opcode.GetUpValue{Dest: d, UpValue: e.Index})
		result, ok = d, true

	case valueExpr:
		d, hasDest, derr := c.newDestination(dest)
		if derr != nil {
			return 0, false, derr
		}
		if !hasDest {
			return 0, false, nil
		}
		switch e.Value.Kind() {
		case value.Nil:
			c.loadNil(d)
		case value.Bool:
			c.emit(opcode.LoadBool{Dest: d, Value: e.Value.Bool()})
		default:
			idx, cerr := c.getConstant(e.Value)
			if cerr != nil {
				return 0, false, cerr
			}
			c.emit(opcode.LoadConstant{Dest: d, Constant: idx})
		}
		result, ok = d, true

	case callExpr:
		source, cerr := c.functionCall(e.Func, e.Args, opcode.ConstantVarCount(1))
		if cerr != nil {
			return 0, false, cerr
		}
		switch dest.kind {
		case destRegister:
			if dest.register == source {
				panic("function call result already in requested register")
			}
			c.emit(opcode.Move{Dest: dest.register, Src: source})
			result, ok = dest.register, true
		case destAllocateNew, destPushNew:
			pushed, perr := c.top().registers.push(1)
			if perr != nil {
				return 0, false, perr
			}
			if pushed != source {
				panic("function call return register is not the stack top")
			}
			result, ok = source, true
		default:
			return 0, false, nil
		}

	case shortCircuitExpr:
		result, ok, err = c.dischargeShortCircuit(e, dest)
		if err != nil {
			return 0, false, err
		}

	default:
		panic("unreachable exprDescriptor variant")
	}

	if ok && dest.kind == destPushNew {
		regs := &c.top().registers
		if !(result == 0 || regs.registers[result-1]) {
			panic("PushNew destination is not the first free register")
		}
	}
	return result, ok, nil
}

func (c *Compiler) dischargeShortCircuit(e shortCircuitExpr, dest exprDestination) (opcode.RegisterIndex, bool, error) {
	left := e.Left
	leftReg, err := c.anyRegister(&left)
	if err != nil {
		return 0, false, err
	}
	if _, _, err := c.dischargeOptional(left, destDiscard); err != nil {
		return 0, false, err
	}

	d, hasDest, err := c.newDestination(dest)
	if err != nil {
		return 0, false, err
	}

	if hasDest && d == leftReg {
		c.emit(opcode.Test{Value: leftReg, IsTrue: e.IsAnd})
	} else if hasDest {
		c.emit(opcode.TestSet{Dest: d, Value: leftReg, IsTrue: e.IsAnd})
	} else {
		c.emit(opcode.Test{Value: leftReg, IsTrue: e.IsAnd})
	}

	jumpIdx := len(c.top().opcodes)
	c.emit(opcode.Jump{Offset: 0})

	right, err := c.expression(e.Right)
	if err != nil {
		return 0, false, err
	}
	if hasDest {
		if _, err := c.discharge(right, destToRegister(d)); err != nil {
			return 0, false, err
		}
	} else {
		if _, _, err := c.dischargeOptional(right, destDiscard); err != nil {
			return 0, false, err
		}
	}

	offset := len(c.top().opcodes) - jumpIdx - 1
	if offset > 0x7fffffff {
		return 0, false, newLimitError(OpCodesLimit, "")
	}
	c.top().opcodes[jumpIdx] = opcode.Jump{Offset: int32(offset)}

	return d, hasDest, nil
}

// getTable lowers a table read, picking the upvalue-table or
// register-table opcode family and, within each, the constant-key or
// register-key form, per spec.md §4.7.
func (c *Compiler) getTable(table, key *exprDescriptor) (exprDescriptor, error) {
	dest, err := c.top().registers.allocate()
	if err != nil {
		return nil, err
	}

	if up, isUp := (*table).(upvalueExpr); isUp {
		rk, err := c.anyRegisterOrConstant(key)
		if err != nil {
			return nil, err
		}
		if rk.Const {
			c.emit(opcode.GetUpTableC{Dest: dest, UpValue: up.Index, Key: opcode.ConstantIndex8(rk.Index)})
		} else {
			c.emit(opcode.GetUpTableR{Dest: dest, UpValue: up.Index, Key: opcode.RegisterIndex(rk.Index)})
		}
		return registerExpr{Register: dest, Temporary: true}, nil
	}

	tableReg, err := c.anyRegister(table)
	if err != nil {
		return nil, err
	}
	rk, err := c.anyRegisterOrConstant(key)
	if err != nil {
		return nil, err
	}
	if rk.Const {
		c.emit(opcode.GetTableC{Dest: dest, Table: tableReg, Key: opcode.ConstantIndex8(rk.Index)})
	} else {
		c.emit(opcode.GetTableR{Dest: dest, Table: tableReg, Key: opcode.RegisterIndex(rk.Index)})
	}
	return registerExpr{Register: dest, Temporary: true}, nil
}

// setTable lowers a table write, selecting one of the eight opcodes
// dictated by (table is upvalue or register) x (key is register or
// constant) x (value is register or constant), per spec.md §4.7.
func (c *Compiler) setTable(table, key, val *exprDescriptor) error {
	if up, isUp := (*table).(upvalueExpr); isUp {
		keyRK, err := c.anyRegisterOrConstant(key)
		if err != nil {
			return err
		}
		valRK, err := c.anyRegisterOrConstant(val)
		if err != nil {
			return err
		}
		switch {
		case !keyRK.Const && !valRK.Const:
			c.emit(opcode.SetUpTableRR{UpValue: up.Index, Key: opcode.RegisterIndex(keyRK.Index), Value: opcode.RegisterIndex(valRK.Index)})
		case !keyRK.Const && valRK.Const:
			c.emit(opcode.SetUpTableRC{UpValue: up.Index, Key: opcode.RegisterIndex(keyRK.Index), Value: opcode.ConstantIndex8(valRK.Index)})
		case keyRK.Const && !valRK.Const:
			c.emit(opcode.SetUpTableCR{UpValue: up.Index, Key: opcode.ConstantIndex8(keyRK.Index), Value: opcode.RegisterIndex(valRK.Index)})
		default:
			c.emit(opcode.SetUpTableCC{UpValue: up.Index, Key: opcode.ConstantIndex8(keyRK.Index), Value: opcode.ConstantIndex8(valRK.Index)})
		}
		return nil
	}

	tableReg, err := c.anyRegister(table)
	if err != nil {
		return err
	}
	keyRK, err := c.anyRegisterOrConstant(key)
	if err != nil {
		return err
	}
	valRK, err := c.anyRegisterOrConstant(val)
	if err != nil {
		return err
	}
	switch {
	case !keyRK.Const && !valRK.Const:
		c.emit(opcode.SetTableRR{Table: tableReg, Key: opcode.RegisterIndex(keyRK.Index), Value: opcode.RegisterIndex(valRK.Index)})
	case !keyRK.Const && valRK.Const:
		c.emit(opcode.SetTableRC{Table: tableReg, Key: opcode.RegisterIndex(keyRK.Index), Value: opcode.ConstantIndex8(valRK.Index)})
	case keyRK.Const && !valRK.Const:
		c.emit(opcode.SetTableCR{Table: tableReg, Key: opcode.ConstantIndex8(keyRK.Index), Value: opcode.RegisterIndex(valRK.Index)})
	default:
		c.emit(opcode.SetTableCC{Table: tableReg, Key: opcode.ConstantIndex8(keyRK.Index), Value: opcode.ConstantIndex8(valRK.Index)})
	}
	return nil
}

// functionCall lowers a deferred call into the sliding-window calling
// convention of spec.md §4.6: the callee lands at a fresh top-of-stack
// register T, arguments are pushed consecutively above it, and a trailing
// argument that is itself a call is threaded through as a variable-count
// tail so its multiple results become the tail of this call's arguments.
func (c *Compiler) functionCall(fn exprDescriptor, args []exprDescriptor, returns opcode.VarCount) (opcode.RegisterIndex, error) {
	top, err := c.discharge(fn, destPush)
	if err != nil {
		return 0, err
	}

	argCount := len(args)
	if argCount > 255 {
		return 0, newLimitError(FixedParametersLimit, "")
	}

	var lastArg exprDescriptor
	hasLast := argCount > 0
	if hasLast {
		lastArg = args[argCount-1]
		args = args[:argCount-1]
	}
	for _, a := range args {
		if _, err := c.discharge(a, destPush); err != nil {
			return 0, err
		}
	}

	if hasLast {
		if call, isCall := lastArg.(callExpr); isCall {
			if _, err := c.functionCall(call.Func, call.Args, opcode.VariableVarCount); err != nil {
				return 0, err
			}
			c.emit(opcode.Call{Func: top, Args: opcode.VariableVarCount, Returns: returns})
			c.top().registers.popTo(int(top))
			return top, nil
		}
		if _, err := c.discharge(lastArg, destPush); err != nil {
			return 0, err
		}
	}
	c.emit(opcode.Call{Func: top, Args: opcode.ConstantVarCount(argCount), Returns: returns})
	c.top().registers.popTo(int(top))
	return top, nil
}
