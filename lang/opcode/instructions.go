package opcode

import "fmt"

// Move copies the value in Src into Dest.
type Move struct{ Dest, Src RegisterIndex }

func (Move) instr() {}
func (i Move) String() string { return fmt.Sprintf("move      %d %d", i.Dest, i.Src) }

// LoadNil stores nil into Count consecutive registers starting at Dest.
// Adjacent LoadNil emissions are fused by the compiler (spec §4.4), so a
// run of uninitialized locals always compiles to exactly one instruction.
type LoadNil struct {
	Dest  RegisterIndex
	Count uint8
}

func (LoadNil) instr() {}
func (i LoadNil) String() string { return fmt.Sprintf("loadnil   %d %d", i.Dest, i.Count) }

// LoadBool stores a boolean constant into Dest. SkipNext, when true, skips
// the instruction immediately following this one; it is used only by the
// comparison-operator expansion (spec §6).
type LoadBool struct {
	Dest     RegisterIndex
	Value    bool
	SkipNext bool
}

func (LoadBool) instr() {}
func (i LoadBool) String() string {
	return fmt.Sprintf("loadbool  %d %t %t", i.Dest, i.Value, i.SkipNext)
}

// LoadConstant stores constant pool entry Constant into Dest.
type LoadConstant struct {
	Dest     RegisterIndex
	Constant ConstantIndex16
}

func (LoadConstant) instr() {}
func (i LoadConstant) String() string { return fmt.Sprintf("loadk     %d %d", i.Dest, i.Constant) }

// GetUpValue stores the value of upvalue UpValue into Dest.
type GetUpValue struct {
	Dest    RegisterIndex
	UpValue UpValueIndex
}

func (GetUpValue) instr() {}
func (i GetUpValue) String() string { return fmt.Sprintf("getupval  %d %d", i.Dest, i.UpValue) }

// SetUpValue stores the value of Src into upvalue UpValue.
type SetUpValue struct {
	UpValue UpValueIndex
	Src     RegisterIndex
}

func (SetUpValue) instr() {}
func (i SetUpValue) String() string { return fmt.Sprintf("setupval  %d %d", i.UpValue, i.Src) }

// NewTable allocates a fresh empty table into Dest.
type NewTable struct{ Dest RegisterIndex }

func (NewTable) instr() {}
func (i NewTable) String() string { return fmt.Sprintf("newtable  %d", i.Dest) }

// GetUpTableC reads upvalue UpValue (a table) at constant key Key into Dest.
type GetUpTableC struct {
	Dest    RegisterIndex
	UpValue UpValueIndex
	Key     ConstantIndex8
}

func (GetUpTableC) instr() {}
func (i GetUpTableC) String() string {
	return fmt.Sprintf("gettabupc %d %d %d", i.Dest, i.UpValue, i.Key)
}

// GetUpTableR reads upvalue UpValue (a table) at register key Key into Dest.
type GetUpTableR struct {
	Dest    RegisterIndex
	UpValue UpValueIndex
	Key     RegisterIndex
}

func (GetUpTableR) instr() {}
func (i GetUpTableR) String() string {
	return fmt.Sprintf("gettabupr %d %d %d", i.Dest, i.UpValue, i.Key)
}

// GetTableC reads register Table (a table) at constant key Key into Dest.
type GetTableC struct {
	Dest, Table RegisterIndex
	Key         ConstantIndex8
}

func (GetTableC) instr() {}
func (i GetTableC) String() string {
	return fmt.Sprintf("gettabc   %d %d %d", i.Dest, i.Table, i.Key)
}

// GetTableR reads register Table (a table) at register key Key into Dest.
type GetTableR struct {
	Dest, Table, Key RegisterIndex
}

func (GetTableR) instr() {}
func (i GetTableR) String() string {
	return fmt.Sprintf("gettabr   %d %d %d", i.Dest, i.Table, i.Key)
}

// SetUpTableRR stores register Value into upvalue UpValue (a table) at
// register key Key.
type SetUpTableRR struct {
	UpValue  UpValueIndex
	Key, Value RegisterIndex
}

func (SetUpTableRR) instr() {}
func (i SetUpTableRR) String() string {
	return fmt.Sprintf("settabuprr %d %d %d", i.UpValue, i.Key, i.Value)
}

// SetUpTableRC stores constant Value into upvalue UpValue (a table) at
// register key Key.
type SetUpTableRC struct {
	UpValue UpValueIndex
	Key     RegisterIndex
	Value   ConstantIndex8
}

func (SetUpTableRC) instr() {}
func (i SetUpTableRC) String() string {
	return fmt.Sprintf("settabuprc %d %d %d", i.UpValue, i.Key, i.Value)
}

// SetUpTableCR stores register Value into upvalue UpValue (a table) at
// constant key Key.
type SetUpTableCR struct {
	UpValue UpValueIndex
	Key     ConstantIndex8
	Value   RegisterIndex
}

func (SetUpTableCR) instr() {}
func (i SetUpTableCR) String() string {
	return fmt.Sprintf("settabupcr %d %d %d", i.UpValue, i.Key, i.Value)
}

// SetUpTableCC stores constant Value into upvalue UpValue (a table) at
// constant key Key.
type SetUpTableCC struct {
	UpValue     UpValueIndex
	Key, Value  ConstantIndex8
}

func (SetUpTableCC) instr() {}
func (i SetUpTableCC) String() string {
	return fmt.Sprintf("settabupcc %d %d %d", i.UpValue, i.Key, i.Value)
}

// SetTableRR stores register Value into register Table at register key Key.
type SetTableRR struct {
	Table, Key, Value RegisterIndex
}

func (SetTableRR) instr() {}
func (i SetTableRR) String() string {
	return fmt.Sprintf("settabrr  %d %d %d", i.Table, i.Key, i.Value)
}

// SetTableRC stores constant Value into register Table at register key Key.
type SetTableRC struct {
	Table, Key RegisterIndex
	Value      ConstantIndex8
}

func (SetTableRC) instr() {}
func (i SetTableRC) String() string {
	return fmt.Sprintf("settabrc  %d %d %d", i.Table, i.Key, i.Value)
}

// SetTableCR stores register Value into register Table at constant key Key.
type SetTableCR struct {
	Table RegisterIndex
	Key   ConstantIndex8
	Value RegisterIndex
}

func (SetTableCR) instr() {}
func (i SetTableCR) String() string {
	return fmt.Sprintf("settabcr  %d %d %d", i.Table, i.Key, i.Value)
}

// SetTableCC stores constant Value into register Table at constant key Key.
type SetTableCC struct {
	Table      RegisterIndex
	Key, Value ConstantIndex8
}

func (SetTableCC) instr() {}
func (i SetTableCC) String() string {
	return fmt.Sprintf("settabcc  %d %d %d", i.Table, i.Key, i.Value)
}

// Test checks whether register Value's truthiness equals IsTrue; if so, it
// skips the next instruction. Used directly (no copy) when a short-circuit
// operator's destination is the same register that already holds Value.
type Test struct {
	Value  RegisterIndex
	IsTrue bool
}

func (Test) instr() {}
func (i Test) String() string { return fmt.Sprintf("test      %d %t", i.Value, i.IsTrue) }

// TestSet copies Value into Dest, then checks whether Value's truthiness
// equals IsTrue; if so, it skips the next instruction. Used by
// short-circuit operators whose destination differs from the register
// already holding the left operand.
type TestSet struct {
	Dest, Value RegisterIndex
	IsTrue      bool
}

func (TestSet) instr() {}
func (i TestSet) String() string {
	return fmt.Sprintf("testset   %d %d %t", i.Dest, i.Value, i.IsTrue)
}

// Jump adds Offset to the program counter of the instruction following the
// jump (Offset is the count of instructions to skip forward).
type Jump struct{ Offset int32 }

func (Jump) instr() {}
func (i Jump) String() string { return fmt.Sprintf("jump      %d", i.Offset) }

// Closure instantiates nested prototype Proto (closing over the current
// function's locals/upvalues per that prototype's upvalue descriptors) into
// Dest.
type Closure struct {
	Dest  RegisterIndex
	Proto PrototypeIndex
}

func (Closure) instr() {}
func (i Closure) String() string { return fmt.Sprintf("closure   %d %d", i.Dest, i.Proto) }

// Call invokes the function in register Func with Args argument values
// starting at Func+1, and leaves Returns result values starting at Func.
type Call struct {
	Func    RegisterIndex
	Args    VarCount
	Returns VarCount
}

func (Call) instr() {}
func (i Call) String() string {
	return fmt.Sprintf("call      %d %s %s", i.Func, i.Args, i.Returns)
}

// Return ends the current function, returning Count values starting at
// register Start.
type Return struct {
	Start RegisterIndex
	Count VarCount
}

func (Return) instr() {}
func (i Return) String() string { return fmt.Sprintf("return    %d %s", i.Start, i.Count) }

// The simple binary arithmetic/bitwise instructions all share the same
// shape (destination plus two RK operands); one Go type per operator keeps
// the instruction set a closed, exhaustively-dispatchable sum type rather
// than a single struct with a runtime opcode tag.

type binOp struct {
	Dest        RegisterIndex
	Left, Right RK
}

func (b binOp) operands() (RegisterIndex, RK, RK) { return b.Dest, b.Left, b.Right }

// Add, Sub, Mul, Div, IDiv, Mod, Pow, BAnd, BOr, BXor, Shl, Shr are the
// simple binary operators (spec §6 Simple category): each computes
// Dest = Left <op> Right from register-or-constant operands.
type (
	Add  struct{ binOp }
	Sub  struct{ binOp }
	Mul  struct{ binOp }
	Div  struct{ binOp }
	IDiv struct{ binOp }
	Mod  struct{ binOp }
	Pow  struct{ binOp }
	BAnd struct{ binOp }
	BOr  struct{ binOp }
	BXor struct{ binOp }
	Shl  struct{ binOp }
	Shr  struct{ binOp }
)

func (Add) instr()  {}
func (Sub) instr()  {}
func (Mul) instr()  {}
func (Div) instr()  {}
func (IDiv) instr() {}
func (Mod) instr()  {}
func (Pow) instr()  {}
func (BAnd) instr() {}
func (BOr) instr()  {}
func (BXor) instr() {}
func (Shl) instr()  {}
func (Shr) instr()  {}

func (i Add) String() string  { return formatBinOp("add", i.binOp) }
func (i Sub) String() string  { return formatBinOp("sub", i.binOp) }
func (i Mul) String() string  { return formatBinOp("mul", i.binOp) }
func (i Div) String() string  { return formatBinOp("div", i.binOp) }
func (i IDiv) String() string { return formatBinOp("idiv", i.binOp) }
func (i Mod) String() string  { return formatBinOp("mod", i.binOp) }
func (i Pow) String() string  { return formatBinOp("pow", i.binOp) }
func (i BAnd) String() string { return formatBinOp("band", i.binOp) }
func (i BOr) String() string  { return formatBinOp("bor", i.binOp) }
func (i BXor) String() string { return formatBinOp("bxor", i.binOp) }
func (i Shl) String() string  { return formatBinOp("shl", i.binOp) }
func (i Shr) String() string  { return formatBinOp("shr", i.binOp) }

func formatBinOp(name string, b binOp) string {
	return fmt.Sprintf("%-9s %d %s %s", name, b.Dest, b.Left, b.Right)
}

// NewAdd, NewSub, ... construct the simple binary instructions. Exported
// constructors are needed because binOp, the shared embedded field, is
// unexported: callers outside this package cannot name it in a struct
// literal.
func NewAdd(dest RegisterIndex, left, right RK) Add   { return Add{binOp{dest, left, right}} }
func NewSub(dest RegisterIndex, left, right RK) Sub   { return Sub{binOp{dest, left, right}} }
func NewMul(dest RegisterIndex, left, right RK) Mul   { return Mul{binOp{dest, left, right}} }
func NewDiv(dest RegisterIndex, left, right RK) Div   { return Div{binOp{dest, left, right}} }
func NewIDiv(dest RegisterIndex, left, right RK) IDiv { return IDiv{binOp{dest, left, right}} }
func NewMod(dest RegisterIndex, left, right RK) Mod   { return Mod{binOp{dest, left, right}} }
func NewPow(dest RegisterIndex, left, right RK) Pow   { return Pow{binOp{dest, left, right}} }
func NewBAnd(dest RegisterIndex, left, right RK) BAnd { return BAnd{binOp{dest, left, right}} }
func NewBOr(dest RegisterIndex, left, right RK) BOr   { return BOr{binOp{dest, left, right}} }
func NewBXor(dest RegisterIndex, left, right RK) BXor { return BXor{binOp{dest, left, right}} }
func NewShl(dest RegisterIndex, left, right RK) Shl   { return Shl{binOp{dest, left, right}} }
func NewShr(dest RegisterIndex, left, right RK) Shr   { return Shr{binOp{dest, left, right}} }

// Neg, BNot, Not, Len are the unary operators (spec §6): each computes
// Dest = <op> Src.
type unOp struct{ Dest, Src RegisterIndex }

type (
	Neg  struct{ unOp }
	BNot struct{ unOp }
	Not  struct{ unOp }
	Len  struct{ unOp }
)

func (Neg) instr()  {}
func (BNot) instr() {}
func (Not) instr()  {}
func (Len) instr()  {}

func (i Neg) String() string  { return formatUnOp("neg", i.unOp) }
func (i BNot) String() string { return formatUnOp("bnot", i.unOp) }
func (i Not) String() string  { return formatUnOp("not", i.unOp) }
func (i Len) String() string  { return formatUnOp("len", i.unOp) }

func formatUnOp(name string, u unOp) string {
	return fmt.Sprintf("%-9s %d %d", name, u.Dest, u.Src)
}

// NewNeg, NewBNot, NewNot, NewLen construct the unary instructions; see
// NewAdd for why exported constructors are necessary.
func NewNeg(dest, src RegisterIndex) Neg   { return Neg{unOp{dest, src}} }
func NewBNot(dest, src RegisterIndex) BNot { return BNot{unOp{dest, src}} }
func NewNot(dest, src RegisterIndex) Not   { return Not{unOp{dest, src}} }
func NewLen(dest, src RegisterIndex) Len   { return Len{unOp{dest, src}} }

// LessThan and LessEqual are the comparison primitives (spec §6): they test
// Left <op> Right against IsTrue and skip the next instruction if the test
// fails to match (the opposite sense to Test, which skips on a match).
// Equal tests Left == Right the same way. The compiler always emits one of these immediately followed by a
// Jump and a LoadBool/LoadBool pair (spec §6, "Jump then LoadBool pair") to
// materialize a boolean result register.
type (
	LessThan  struct{ cmpOp }
	LessEqual struct{ cmpOp }
	Equal     struct{ cmpOp }
)

type cmpOp struct {
	Left, Right RK
	IsTrue      bool
}

func (LessThan) instr()  {}
func (LessEqual) instr() {}
func (Equal) instr()     {}

func (i LessThan) String() string  { return formatCmpOp("lt", i.cmpOp) }
func (i LessEqual) String() string { return formatCmpOp("le", i.cmpOp) }
func (i Equal) String() string     { return formatCmpOp("eq", i.cmpOp) }

func formatCmpOp(name string, c cmpOp) string {
	return fmt.Sprintf("%-9s %s %s %t", name, c.Left, c.Right, c.IsTrue)
}

// NewLessThan, NewLessEqual, NewEqual construct the comparison instructions;
// see NewAdd for why exported constructors are necessary.
func NewLessThan(left, right RK, isTrue bool) LessThan {
	return LessThan{cmpOp{left, right, isTrue}}
}
func NewLessEqual(left, right RK, isTrue bool) LessEqual {
	return LessEqual{cmpOp{left, right, isTrue}}
}
func NewEqual(left, right RK, isTrue bool) Equal { return Equal{cmpOp{left, right, isTrue}} }
