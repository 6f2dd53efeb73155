package compiler

import (
	"github.com/mna/marl/lang/opcode"
	"github.com/mna/marl/lang/value"
)

// constantPool interns constant values for one function, handing out
// indices in first-use order (spec §5: "constant-pool indices reflect
// first-use order"). Because value.Value is a plain comparable struct whose
// Float alternative is already keyed by raw bit pattern rather than by
// numeric equality, a bare Go map gives bit-exact interning (spec §3, §9)
// with no custom hashing.
type constantPool struct {
	values  []value.Value
	indices map[value.Value]opcode.ConstantIndex16
}

func newConstantPool() *constantPool {
	return &constantPool{indices: make(map[value.Value]opcode.ConstantIndex16)}
}

// intern returns the ConstantIndex16 for v, appending it if this is the
// first time v has been seen. It fails with a ConstantsLimit error once the
// pool would exceed 65,536 entries.
func (p *constantPool) intern(v value.Value) (opcode.ConstantIndex16, error) {
	if idx, ok := p.indices[v]; ok {
		return idx, nil
	}
	if len(p.values) >= 65536 {
		return 0, newLimitError(ConstantsLimit, "")
	}
	idx := opcode.ConstantIndex16(len(p.values))
	p.values = append(p.values, v)
	p.indices[v] = idx
	return idx, nil
}
