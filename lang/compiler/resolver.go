package compiler

import (
	"github.com/mna/marl/lang/opcode"
	"golang.org/x/exp/slices"
)

// upValueDescriptor describes how a function captures one of its upvalues
// from its enclosing scope. It is a closed sum type, one Go struct per
// variant, matching how lang/ast and lang/opcode represent their own
// closed variant sets.
type upValueDescriptor interface{ upValueDescriptorNode() }

// parentLocalUpValue captures a local of the immediately enclosing
// function, by that function's register.
type parentLocalUpValue struct{ Register opcode.RegisterIndex }

func (parentLocalUpValue) upValueDescriptorNode() {}

// outerUpValue captures an upvalue of the immediately enclosing function,
// by that function's upvalue index. Used for every link of a capture chain
// beyond the first.
type outerUpValue struct{ Index opcode.UpValueIndex }

func (outerUpValue) upValueDescriptorNode() {}

// environmentUpValue is the implicit `_ENV` upvalue of the top-level
// function, lazily created the first time a global is referenced.
type environmentUpValue struct{}

func (environmentUpValue) upValueDescriptorNode() {}

// variableDescriptor is the result of resolving a name: it lives in a
// local register, is captured as an upvalue, or is not lexically bound at
// all (a global, resolved by the caller as a _ENV table access).
type variableDescriptor interface{ variableDescriptorNode() }

type localVariable struct{ Register opcode.RegisterIndex }

func (localVariable) variableDescriptorNode() {}

type upvalueVariable struct{ Index opcode.UpValueIndex }

func (upvalueVariable) variableDescriptorNode() {}

type globalVariable struct{ Name string }

func (globalVariable) variableDescriptorNode() {}

// localBinding is one entry of a function context's locals list: a name
// borrowed from the AST and the register it is bound to. Locals are kept
// in declaration order; resolution scans them in reverse so that a later
// shadowing declaration of the same name wins.
type localBinding struct {
	name     string
	register opcode.RegisterIndex
}

// upvalueBinding is one entry of a function context's upvalues list.
type upvalueBinding struct {
	name       string
	descriptor upValueDescriptor
}

// functionContext is one nesting level of function currently being
// compiled: the per-function state named CompilerFunction in spec.md §3.
// The compiler keeps a topStack of these, one per enclosing function, with
// the innermost (currently being compiled) function always at the top.
type functionContext struct {
	constants  *constantPool
	upvalues   []upvalueBinding
	prototypes []*Prototype
	registers  registerAllocator
	fixedParams int
	locals     []localBinding
	opcodes    []opcode.Instruction
}

func newFunctionContext() *functionContext {
	return &functionContext{constants: newConstantPool()}
}

// findVariable implements the variable resolution algorithm of spec.md
// §4.3. It scans the function-context stack from the innermost function
// down to the outermost, and within each function scans locals from the
// most recently declared to the least. The first match at a shallower
// depth than the current function synthesizes an upvalue capture chain
// through every intermediate function. Depth 0 lazily gains an implicit
// `_ENV` upvalue the first time any global is referenced. A name that
// matches nothing anywhere is a Global, left for the caller to resolve as
// a _ENV table access.
func (c *Compiler) findVariable(name string) (variableDescriptor, error) {
	n := c.functions.len()

	for i := n - 1; i >= 0; i-- {
		fn := c.functions.get(i)
		for j := len(fn.locals) - 1; j >= 0; j-- {
			local := fn.locals[j]
			if local.name != name {
				continue
			}
			if i == n-1 {
				return localVariable{Register: local.register}, nil
			}
			idx, err := c.addUpvalue(i+1, name, parentLocalUpValue{Register: local.register})
			if err != nil {
				return nil, err
			}
			for k := i + 2; k < n; k++ {
				idx, err = c.addUpvalue(k, name, outerUpValue{Index: idx})
				if err != nil {
					return nil, err
				}
			}
			return upvalueVariable{Index: idx}, nil
		}

		if i == 0 && name == "_ENV" && len(c.functions.get(0).upvalues) == 0 {
			c.functions.get(0).upvalues = append(c.functions.get(0).upvalues, upvalueBinding{
				name:       "_ENV",
				descriptor: environmentUpValue{},
			})
		}

		if j := slices.IndexFunc(fn.upvalues, func(up upvalueBinding) bool { return up.name == name }); j >= 0 {
			idx := opcode.UpValueIndex(j)
			if i == n-1 {
				return upvalueVariable{Index: idx}, nil
			}
			var err error
			for k := i + 1; k < n; k++ {
				idx, err = c.addUpvalue(k, name, outerUpValue{Index: idx})
				if err != nil {
					return nil, err
				}
			}
			return upvalueVariable{Index: idx}, nil
		}
	}

	return globalVariable{Name: name}, nil
}

// addUpvalue appends a new upvalue entry to the function at depth i and
// returns its index, failing with an UpValuesLimit error past 256 entries.
func (c *Compiler) addUpvalue(i int, name string, desc upValueDescriptor) (opcode.UpValueIndex, error) {
	fn := c.functions.get(i)
	if len(fn.upvalues) >= 256 {
		return 0, newLimitError(UpValuesLimit, "")
	}
	fn.upvalues = append(fn.upvalues, upvalueBinding{name: name, descriptor: desc})
	return opcode.UpValueIndex(len(fn.upvalues) - 1), nil
}

// getEnvironment resolves `_ENV`, which by construction (findVariable
// always creates it as an upvalue of the top-level function on first use)
// can never come back as a Global.
func (c *Compiler) getEnvironment() (exprDescriptor, error) {
	v, err := c.findVariable("_ENV")
	if err != nil {
		return nil, err
	}
	switch d := v.(type) {
	case localVariable:
		return registerExpr{Register: d.Register, Temporary: false}, nil
	case upvalueVariable:
		return upvalueExpr{Index: d.Index}, nil
	default:
		panic("_ENV resolved as a global: upvalue creation invariant violated")
	}
}
