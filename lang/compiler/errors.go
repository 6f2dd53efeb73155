package compiler

import "fmt"

// LimitKind identifies which resource ceiling a LimitError reports, per
// spec.md §7. Each has a stable, distinguishable identity so tests can
// assert on the exact ceiling that was hit rather than on error text.
type LimitKind uint8

const (
	RegistersLimit LimitKind = iota
	UpValuesLimit
	ReturnsLimit
	FixedParametersLimit
	FunctionsLimit
	ConstantsLimit
	OpCodesLimit
)

func (k LimitKind) String() string {
	switch k {
	case RegistersLimit:
		return "registers"
	case UpValuesLimit:
		return "upvalues"
	case ReturnsLimit:
		return "returns"
	case FixedParametersLimit:
		return "fixed parameters"
	case FunctionsLimit:
		return "functions"
	case ConstantsLimit:
		return "constants"
	case OpCodesLimit:
		return "opcodes"
	}
	return "unknown"
}

// LimitError reports that compiling the input would exceed one of the
// compiler's fixed resource ceilings (256 registers, 256 upvalues, and so
// on). It is always fatal: the propagation policy (spec.md §7) has no
// partial recovery, so a LimitError aborts the whole compile.
type LimitError struct {
	kind LimitKind
	Pos  string // file:line:col, empty if unknown
}

// Kind reports which ceiling was exceeded.
func (e *LimitError) Kind() LimitKind { return e.kind }

func (e *LimitError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: too many %s", e.Pos, e.kind)
	}
	return fmt.Sprintf("too many %s", e.kind)
}

func newLimitError(kind LimitKind, pos string) error {
	return &LimitError{kind: kind, Pos: pos}
}

// UnsupportedError reports that the input used a statement or expression
// form the compiler deliberately rejects (spec.md §4.8, §7): control-flow
// statements other than short-circuit boolean operators, varargs, method
// syntax, dotted function names, non-empty table constructors, and the
// concat operator. Reason describes which form was rejected.
type UnsupportedError struct {
	Pos    string
	Reason string
}

func (e *UnsupportedError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: unsupported: %s", e.Pos, e.Reason)
	}
	return fmt.Sprintf("unsupported: %s", e.Reason)
}

func newUnsupportedError(pos, reason string) error {
	return &UnsupportedError{Pos: pos, Reason: reason}
}
