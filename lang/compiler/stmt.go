package compiler

import (
	"fmt"

	"github.com/mna/marl/lang/ast"
	"github.com/mna/marl/lang/opcode"
	"github.com/mna/marl/lang/value"
)

// block compiles every statement of b in order, then its return statement
// (or an implicit empty return if b has none).
func (c *Compiler) block(b *ast.Block) error {
	for _, stmt := range b.Stmts {
		if err := c.statement(stmt); err != nil {
			return err
		}
	}
	if b.Return != nil {
		return c.returnStatement(b.Return)
	}
	c.emit(opcode.Return{Start: 0, Count: opcode.ZeroVarCount})
	return nil
}

// statement dispatches on the concrete statement type. Only the forms
// named in spec.md §4.8 are lowered; every other statement kind that the
// parser is able to produce (spec.md §6 Non-goals) is a feature-gate
// rejection.
func (c *Compiler) statement(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.FuncStmt:
		return c.functionStatement(s)
	case *ast.LocalFuncStmt:
		return c.localFunction(s)
	case *ast.LocalStmt:
		return c.localStatement(s)
	case *ast.CallStmt:
		return c.callStatement(s)
	case *ast.AssignStmt:
		return c.assignment(s)
	case *ast.IfStmt:
		start, _ := s.Span()
		return c.unsupportedAt(start, "if statement unsupported")
	case *ast.WhileStmt:
		start, _ := s.Span()
		return c.unsupportedAt(start, "while statement unsupported")
	case *ast.DoStmt:
		start, _ := s.Span()
		return c.unsupportedAt(start, "do statement unsupported")
	case *ast.ForStmt:
		start, _ := s.Span()
		return c.unsupportedAt(start, "for statement unsupported")
	case *ast.RepeatStmt:
		start, _ := s.Span()
		return c.unsupportedAt(start, "repeat statement unsupported")
	case *ast.BreakStmt:
		return c.unsupportedAt(s.Pos, "break statement unsupported")
	case *ast.GotoStmt:
		return c.unsupportedAt(s.Keyword, "goto statement unsupported")
	case *ast.LabelStmt:
		return c.unsupportedAt(s.Start, "label statement unsupported")
	default:
		return fmt.Errorf("compiler: unhandled statement type %T", stmt)
	}
}

// functionStatement lowers `function Name() ... end`: the closure is built
// first, then assigned to the environment slot named by Name. Unlike
// localFunction, the binding happens after the closure exists, so the
// function cannot see itself through its own name unless that name is
// already a global or upvalue of an enclosing scope.
func (c *Compiler) functionStatement(s *ast.FuncStmt) error {
	if len(s.Name.Fields) > 0 {
		return c.unsupportedAt(s.Keyword, "dotted function names unsupported")
	}
	if s.Name.Method != nil {
		return c.unsupportedAt(s.Keyword, "method definitions unsupported")
	}

	proto, err := c.newPrototype(s.Body)
	if err != nil {
		return err
	}
	env, err := c.getEnvironment()
	if err != nil {
		return err
	}
	dest, err := c.top().registers.allocate()
	if err != nil {
		return err
	}
	c.emit(opcode.Closure{Dest: dest, Proto: proto})

	name := exprDescriptor(valueExpr{Value: c.internString(s.Name.Name.Name)})
	closure := exprDescriptor(registerExpr{Register: dest, Temporary: true})
	envExpr := env
	if err := c.setTable(&envExpr, &name, &closure); err != nil {
		return err
	}
	c.discardAll(envExpr, name, closure)
	return nil
}

// localFunction lowers `local function Name() ... end`. Name is bound as a
// local register before the body is compiled, so recursive self-calls
// resolve through the ordinary local/upvalue machinery instead of needing
// special-casing.
func (c *Compiler) localFunction(s *ast.LocalFuncStmt) error {
	dest, err := c.top().registers.allocate()
	if err != nil {
		return err
	}
	c.top().locals = append(c.top().locals, localBinding{name: s.Name.Name, register: dest})

	proto, err := c.newPrototype(s.Body)
	if err != nil {
		return err
	}
	c.emit(opcode.Closure{Dest: dest, Proto: proto})
	return nil
}

// returnStatement lowers `return e1, ..., en` per spec.md §4.8: all but
// the last value are pushed, the last is special-cased when it is itself a
// call (to thread its multiple results as a variable-count return).
func (c *Compiler) returnStatement(s *ast.ReturnStmt) error {
	n := len(s.Exprs)
	if n == 0 {
		c.emit(opcode.Return{Start: 0, Count: opcode.ZeroVarCount})
		return nil
	}

	base := c.top().registers.stackTop

	for i := 0; i < n-1; i++ {
		e, err := c.expression(s.Exprs[i])
		if err != nil {
			return err
		}
		if _, err := c.discharge(e, destPush); err != nil {
			return err
		}
	}

	last, err := c.expression(s.Exprs[n-1])
	if err != nil {
		return err
	}
	var count opcode.VarCount
	if call, ok := last.(callExpr); ok {
		if _, err := c.functionCall(call.Func, call.Args, opcode.VariableVarCount); err != nil {
			return err
		}
		count = opcode.VariableVarCount
	} else {
		if _, err := c.discharge(last, destPush); err != nil {
			return err
		}
		if n > 255 {
			return c.errAt(s.Keyword, ReturnsLimit)
		}
		count = opcode.ConstantVarCount(n)
	}

	c.emit(opcode.Return{Start: opcode.RegisterIndex(base), Count: count})
	c.top().registers.popTo(base)
	return nil
}

// localStatement lowers `local x1, ..., xn = e1, ..., em` per spec.md
// §4.8's absorption rule for a trailing multi-value call.
func (c *Compiler) localStatement(s *ast.LocalStmt) error {
	nameLen := len(s.Names)
	valLen := len(s.Values)

	for i := 0; i < valLen; i++ {
		e, err := c.expression(s.Values[i])
		if err != nil {
			return err
		}

		switch {
		case i >= nameLen:
			if _, _, err := c.dischargeOptional(e, destDiscard); err != nil {
				return err
			}

		case i == valLen-1:
			if call, ok := e.(callExpr); ok {
				numReturns := 1 + nameLen - valLen
				if _, err := c.functionCall(call.Func, call.Args, opcode.ConstantVarCount(numReturns)); err != nil {
					return err
				}
				reg, err := c.top().registers.push(numReturns)
				if err != nil {
					return err
				}
				for j := 0; j < numReturns; j++ {
					c.top().locals = append(c.top().locals, localBinding{
						name:     s.Names[i+j].Name,
						register: opcode.RegisterIndex(int(reg) + j),
					})
				}
				return nil
			}
			reg, err := c.discharge(e, destAllocate)
			if err != nil {
				return err
			}
			c.top().locals = append(c.top().locals, localBinding{name: s.Names[i].Name, register: reg})

		default:
			reg, err := c.discharge(e, destAllocate)
			if err != nil {
				return err
			}
			c.top().locals = append(c.top().locals, localBinding{name: s.Names[i].Name, register: reg})
		}
	}

	for i := valLen; i < nameLen; i++ {
		reg, err := c.top().registers.allocate()
		if err != nil {
			return err
		}
		c.loadNil(reg)
		c.top().locals = append(c.top().locals, localBinding{name: s.Names[i].Name, register: reg})
	}

	return nil
}

// callStatement lowers a call used as a statement: its results are
// discarded (VarCount zero).
func (c *Compiler) callStatement(s *ast.CallStmt) error {
	fn, err := c.suffixedExpression(s.Call)
	if err != nil {
		return err
	}
	call, ok := fn.(callExpr)
	if !ok {
		start, _ := s.Call.Span()
		return c.unsupportedAt(start, "expression statement is not a call")
	}
	_, err = c.functionCall(call.Func, call.Args, opcode.ZeroVarCount)
	return err
}

// assignment lowers `t1, ..., tn = e1, ..., em` per spec.md §4.8: missing
// trailing values default to Nil, and each target dispatches on whether it
// names a local, an upvalue, a global, or a table field.
func (c *Compiler) assignment(s *ast.AssignStmt) error {
	for i, target := range s.Targets {
		var e exprDescriptor
		if i < len(s.Values) {
			var err error
			e, err = c.expression(s.Values[i])
			if err != nil {
				return err
			}
		} else {
			e = valueExpr{Value: value.NilValue}
		}

		if target.Name != nil {
			v, err := c.findVariable(target.Name.Name)
			if err != nil {
				return err
			}
			switch d := v.(type) {
			case localVariable:
				if _, err := c.discharge(e, destToRegister(d.Register)); err != nil {
					return err
				}
			case upvalueVariable:
				src, err := c.anyRegister(&e)
				if err != nil {
					return err
				}
				c.emit(opcode.SetUpValue{UpValue: d.Index, Src: src})
				if _, _, err := c.dischargeOptional(e, destDiscard); err != nil {
					return err
				}
			case globalVariable:
				env, err := c.getEnvironment()
				if err != nil {
					return err
				}
				key := exprDescriptor(valueExpr{Value: c.internString(d.Name)})
				if err := c.setTable(&env, &key, &e); err != nil {
					return err
				}
				c.discardAll(env, key, e)
			}
			continue
		}

		table, key, err := c.fieldTarget(target.Table)
		if err != nil {
			return err
		}
		if err := c.setTable(&table, &key, &e); err != nil {
			return err
		}
		c.discardAll(table, key, e)
	}
	return nil
}

// fieldTarget compiles an assignment target of the form `table.key` or
// `table[key]`: everything but the final suffix of e is the table
// sub-expression, and the final suffix supplies the key.
func (c *Compiler) fieldTarget(e *ast.SuffixedExpr) (table, key exprDescriptor, err error) {
	last := e.Suffixes[len(e.Suffixes)-1]
	table, err = c.suffixedExpressionPrefix(e, len(e.Suffixes)-1)
	if err != nil {
		return nil, nil, err
	}
	if last.Field.Named != "" {
		key = valueExpr{Value: c.internString(last.Field.Named)}
	} else {
		key, err = c.expression(last.Field.Indexed)
		if err != nil {
			return nil, nil, err
		}
	}
	return table, key, nil
}
