// Package compiler lowers a parsed marl chunk into a register-based
// Prototype: it resolves variable scope (locals, upvalues, globals),
// allocates registers, interns constants, and emits opcode.Instruction
// values. It is a single-pass compiler — there is no separate resolve
// phase; scope is discovered and opcodes are emitted in the same walk.
package compiler

import (
	"fmt"

	"github.com/mna/marl/lang/ast"
	"github.com/mna/marl/lang/opcode"
	"github.com/mna/marl/lang/token"
	"github.com/mna/marl/lang/value"
)

// Compiler holds the state of one top-to-bottom compile: the stack of
// function contexts currently being built (innermost on top) and the
// string interner shared across the whole compile so that repeated
// references to the same name or literal share one handle.
type Compiler struct {
	functions *topStack[functionContext]
	strings   *value.Interner
	fset      *token.FileSet
}

// CompileChunk compiles chunk (as scanned from file, for error position
// reporting) into the outer Prototype. This is the facade named in spec.md
// §2/§4.9: it constructs the outer function context, compiles the
// top-level block, and packages the result.
func CompileChunk(fset *token.FileSet, file *token.File, chunk *ast.Chunk) (*Prototype, error) {
	c := &Compiler{
		functions: newTopStack(functionContext{}),
		strings:   value.NewInterner(),
		fset:      fset,
	}
	c.top().constants = newConstantPool()

	if err := c.block(chunk.Block); err != nil {
		return nil, err
	}
	return c.toPrototype(c.functions.pop0()), nil
}

// pop0 pops the (only) remaining function context; used once, at the very
// end of CompileChunk, to take ownership of the outer context without the
// "must always have one entry" panic that a normal pop would hit.
func (s *topStack[T]) pop0() T { return s.top }

func (c *Compiler) posString(pos token.Pos) string {
	if c.fset == nil || !pos.IsValid() {
		return ""
	}
	return c.fset.Position(pos).String()
}

func (c *Compiler) errAt(pos token.Pos, kind LimitKind) error {
	return newLimitError(kind, c.posString(pos))
}

func (c *Compiler) unsupportedAt(pos token.Pos, reason string) error {
	return newUnsupportedError(c.posString(pos), reason)
}

// expression lowers the general expression production: a head plus a
// left-to-right chain of binary operators.
func (c *Compiler) expression(e *ast.Expression) (exprDescriptor, error) {
	expr, err := c.headExpression(e.Head)
	if err != nil {
		return nil, err
	}
	for _, item := range e.Tail {
		expr, err = c.binaryOperator(expr, item.Op, item.OpPos, item.Right)
		if err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func (c *Compiler) headExpression(head ast.Expr) (exprDescriptor, error) {
	if u, ok := head.(*ast.UnaryExpr); ok {
		right, err := c.expression(u.Right)
		if err != nil {
			return nil, err
		}
		return c.unaryOperator(u.Op, u.OpPos, right)
	}
	return c.simpleExpression(head)
}

// simpleExpression lowers a non-unary, non-binary-chain expression head:
// literals, vararg (rejected), table constructors, function expressions,
// and suffixed (name/call/field) expressions.
func (c *Compiler) simpleExpression(e ast.Expr) (exprDescriptor, error) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		switch n.Kind {
		case token.FLOAT:
			return valueExpr{Value: value.FloatValue(n.Float)}, nil
		case token.INT:
			return valueExpr{Value: value.IntValue(n.Int)}, nil
		case token.STRING:
			return valueExpr{Value: c.internString(n.Str)}, nil
		case token.NIL:
			return valueExpr{Value: value.NilValue}, nil
		case token.TRUE:
			return valueExpr{Value: value.BoolValue(true)}, nil
		case token.FALSE:
			return valueExpr{Value: value.BoolValue(false)}, nil
		}
		return nil, fmt.Errorf("compiler: unhandled literal kind %v", n.Kind)
	case *ast.VarargExpr:
		return nil, c.unsupportedAt(n.Pos, "varargs expression unsupported")
	case *ast.TableExpr:
		return c.tableConstructor(n)
	case *ast.FuncExpr:
		return c.functionExpression(n)
	case *ast.SuffixedExpr:
		return c.suffixedExpression(n)
	default:
		return nil, fmt.Errorf("compiler: unhandled expression type %T", e)
	}
}

// tableConstructor lowers `{ ... }`. Only the empty constructor is
// supported (spec.md §4.8); anything with fields is a feature-gate
// rejection.
func (c *Compiler) tableConstructor(t *ast.TableExpr) (exprDescriptor, error) {
	if len(t.Fields) > 0 {
		return nil, c.unsupportedAt(t.Start, "only empty table constructors supported")
	}
	dest, err := c.top().registers.allocate()
	if err != nil {
		return nil, err
	}
	c.emit(opcode.NewTable{Dest: dest})
	return registerExpr{Register: dest, Temporary: true}, nil
}

func (c *Compiler) functionExpression(f *ast.FuncExpr) (exprDescriptor, error) {
	proto, err := c.newPrototype(f.Body)
	if err != nil {
		return nil, err
	}
	dest, err := c.top().registers.allocate()
	if err != nil {
		return nil, err
	}
	c.emit(opcode.Closure{Dest: dest, Proto: proto})
	return registerExpr{Register: dest, Temporary: true}, nil
}

// suffixedExpression lowers a primary expression followed by its full
// suffix chain.
func (c *Compiler) suffixedExpression(e *ast.SuffixedExpr) (exprDescriptor, error) {
	return c.suffixedExpressionPrefix(e, len(e.Suffixes))
}

// suffixedExpressionPrefix lowers e's primary plus its first n suffixes,
// used both for the whole expression (n == len(Suffixes)) and for an
// assignment's field target, which needs only the prefix up to (not
// including) the final field suffix.
func (c *Compiler) suffixedExpressionPrefix(e *ast.SuffixedExpr, n int) (exprDescriptor, error) {
	expr, err := c.primaryExpression(e.Primary)
	if err != nil {
		return nil, err
	}
	for _, suf := range e.Suffixes[:n] {
		switch {
		case suf.Field != nil:
			var key exprDescriptor
			if suf.Field.Named != "" {
				key = valueExpr{Value: c.internString(suf.Field.Named)}
			} else {
				key, err = c.expression(suf.Field.Indexed)
				if err != nil {
					return nil, err
				}
			}
			res, err := c.getTable(&expr, &key)
			if err != nil {
				return nil, err
			}
			c.discardAll(expr, key)
			expr = res
		case suf.Call != nil:
			if suf.Call.Method != "" {
				return nil, c.unsupportedAt(suf.Call.Start, "method calls unsupported")
			}
			args := make([]exprDescriptor, len(suf.Call.Args))
			for i, a := range suf.Call.Args {
				ae, err := c.expression(a)
				if err != nil {
					return nil, err
				}
				args[i] = ae
			}
			expr = callExpr{Func: expr, Args: args}
		}
	}
	return expr, nil
}

func (c *Compiler) primaryExpression(p *ast.PrimaryExpr) (exprDescriptor, error) {
	if p.Paren != nil {
		return c.expression(p.Paren)
	}
	v, err := c.findVariable(p.Name.Name)
	if err != nil {
		return nil, err
	}
	switch d := v.(type) {
	case localVariable:
		return registerExpr{Register: d.Register, Temporary: false}, nil
	case upvalueVariable:
		return upvalueExpr{Index: d.Index}, nil
	case globalVariable:
		env, err := c.getEnvironment()
		if err != nil {
			return nil, err
		}
		key := exprDescriptor(valueExpr{Value: c.internString(d.Name)})
		res, err := c.getTable(&env, &key)
		if err != nil {
			return nil, err
		}
		c.discardAll(env, key)
		return res, nil
	default:
		return nil, fmt.Errorf("compiler: unhandled variable descriptor %T", v)
	}
}

// discardAll discharges every expr with destination None; used to free any
// temporary registers left over from sub-expressions consumed by get_table/
// set_table, matching the original compiler's explicit cleanup calls.
func (c *Compiler) discardAll(exprs ...exprDescriptor) {
	for _, e := range exprs {
		// Errors here can only be limit overflows on a None destination, which
		// never allocates; discharge to None cannot fail in practice, but we
		// still route through dischargeOptional so a future variant that could
		// fail is not silently swallowed differently elsewhere.
		if _, _, err := c.dischargeOptional(e, destDiscard); err != nil {
			panic(err)
		}
	}
}

// newPrototype compiles function body def as a new nested function
// context: pushes a fresh context, registers its fixed parameters as
// locals, compiles the body, pops the context, and appends the resulting
// Prototype to the parent's nested-prototype list.
func (c *Compiler) newPrototype(body *ast.FuncBody) (opcode.PrototypeIndex, error) {
	if body.HasVararg {
		return 0, c.unsupportedAt(body.Start, "varargs parameters unsupported")
	}

	c.functions.push(functionContext{constants: newConstantPool()})

	fixedParams := len(body.Params)
	if fixedParams > 255 {
		return 0, c.errAt(body.Start, FixedParametersLimit)
	}
	if _, err := c.top().registers.push(fixedParams); err != nil {
		return 0, err
	}
	c.top().fixedParams = fixedParams
	for i, p := range body.Params {
		c.top().locals = append(c.top().locals, localBinding{name: p.Name, register: opcode.RegisterIndex(i)})
	}

	if err := c.block(body.Body); err != nil {
		return 0, err
	}

	child := c.functions.pop()
	proto := c.toPrototype(child)

	parent := c.top()
	parent.prototypes = append(parent.prototypes, proto)
	if len(parent.prototypes) > 65536 {
		return 0, c.errAt(body.Start, FunctionsLimit)
	}
	return opcode.PrototypeIndex(len(parent.prototypes) - 1), nil
}
