package compiler

import (
	"fmt"
	"strings"
)

// This file implements a disassembler for a compiled Prototype: a
// human-readable textual dump of its register layout, constants, upvalues
// and opcodes, adapted from the purpose the teacher's lang/compiler/asm.go
// serves (so VM-facing behavior can be asserted in tests and inspected on
// the command line without needing a full parser round-trip for every
// case). Unlike the teacher's asm.go, this package has no VM to execute a
// round-tripped program against, so only the dump direction is
// implemented; there is no textual format parser.

// Disassemble renders proto and, recursively, every prototype it nests, as
// a textual listing.
func Disassemble(proto *Prototype) string {
	var b strings.Builder
	var write func(p *Prototype, index int, depth int)
	write = func(p *Prototype, index int, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&b, "%sfunction: %d <stack=%d params=%d", indent, index, p.StackSize, p.FixedParams)
		if p.HasVarargs {
			b.WriteString(" +varargs")
		}
		b.WriteString(">\n")

		if len(p.Upvalues) > 0 {
			fmt.Fprintf(&b, "%s  upvalues:\n", indent)
			for i, uv := range p.Upvalues {
				fmt.Fprintf(&b, "%s    %d: %s %s\n", indent, i, uv.name, describeUpvalue(uv.descriptor))
			}
		}

		if len(p.Constants) > 0 {
			fmt.Fprintf(&b, "%s  constants:\n", indent)
			for i, v := range p.Constants {
				fmt.Fprintf(&b, "%s    %d: %s\n", indent, i, v.String())
			}
		}

		fmt.Fprintf(&b, "%s  code:\n", indent)
		for i, in := range p.Opcodes {
			fmt.Fprintf(&b, "%s    %4d  %s\n", indent, i, in.String())
		}

		for i, child := range p.Prototypes {
			write(child, i, depth+1)
		}
	}
	write(proto, 0, 0)
	return b.String()
}

func describeUpvalue(d upValueDescriptor) string {
	switch u := d.(type) {
	case parentLocalUpValue:
		return fmt.Sprintf("parent-local(%d)", u.Register)
	case outerUpValue:
		return fmt.Sprintf("outer(%d)", u.Index)
	case environmentUpValue:
		return "environment"
	default:
		return "?"
	}
}
