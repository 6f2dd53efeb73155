package ast

import "github.com/mna/marl/lang/token"

// LocalStmt represents `local x1, ..., xn = e1, ..., em`.
type LocalStmt struct {
	Local      token.Pos
	Names      []*Ident
	Values     []*Expression
	End        token.Pos
}

func (n *LocalStmt) Span() (start, end token.Pos) { return n.Local, n.End }
func (n *LocalStmt) stmtNode()                    {}

// AssignTarget is one left-hand side of an AssignStmt: either a bare Name or
// a Field access (table[key] or table.key) on a compiled sub-expression.
type AssignTarget struct {
	Name  *Ident       // set for a bare name target
	Table *SuffixedExpr // set for a field-access target (Table ends in a Field suffix)
}

func (t AssignTarget) Span() (start, end token.Pos) {
	if t.Name != nil {
		return t.Name.Span()
	}
	return t.Table.Span()
}

// AssignStmt represents `t1, ..., tn = e1, ..., em`.
type AssignStmt struct {
	Targets []AssignTarget
	Eq      token.Pos
	Values  []*Expression
	End     token.Pos
}

func (n *AssignStmt) Span() (start, end token.Pos) {
	start, _ = n.Targets[0].Span()
	return start, n.End
}
func (n *AssignStmt) stmtNode() {}

// CallStmt represents a function or method call used as a statement; Call
// is always a *SuffixedExpr whose last suffix is a Call.
type CallStmt struct {
	Call *SuffixedExpr
}

func (n *CallStmt) Span() (start, end token.Pos) { return n.Call.Span() }
func (n *CallStmt) stmtNode()                    {}

// FuncName is the (possibly dotted, possibly method) name of a `function`
// statement, e.g. `function a.b.c:d()`. Only a bare Name with no Fields and
// no Method is accepted by the compiler.
type FuncName struct {
	Name   *Ident
	Fields []*Ident
	Method *Ident
}

// FuncStmt represents `function Name ... end` (non-local).
type FuncStmt struct {
	Keyword token.Pos
	Name    FuncName
	Body    *FuncBody
}

func (n *FuncStmt) Span() (start, end token.Pos) { return n.Keyword, n.Body.End }
func (n *FuncStmt) stmtNode()                    {}

// LocalFuncStmt represents `local function Name ... end`.
type LocalFuncStmt struct {
	Local, Keyword token.Pos
	Name           *Ident
	Body           *FuncBody
}

func (n *LocalFuncStmt) Span() (start, end token.Pos) { return n.Local, n.Body.End }
func (n *LocalFuncStmt) stmtNode()                    {}

// ReturnStmt represents `return e1, ..., en`.
type ReturnStmt struct {
	Keyword token.Pos
	Exprs   []*Expression
	End     token.Pos
}

func (n *ReturnStmt) Span() (start, end token.Pos) { return n.Keyword, n.End }
func (n *ReturnStmt) stmtNode()                    {}

// The statement kinds below parse into valid AST nodes so that the
// compiler's feature-gate rejection (spec.md §4.8, §7) has real shapes to
// reject, but lang/compiler never lowers them.

// IfStmt represents `if cond then ... [elseif cond then ...] [else ...] end`.
type IfStmt struct {
	Keyword    token.Pos
	Conds      []*Expression
	Blocks     []*Block
	Else       *Block // nil if there is no else clause
	End        token.Pos
}

func (n *IfStmt) Span() (start, end token.Pos) { return n.Keyword, n.End }
func (n *IfStmt) stmtNode()                    {}

// WhileStmt represents `while cond do ... end`.
type WhileStmt struct {
	Keyword token.Pos
	Cond    *Expression
	Body    *Block
	End     token.Pos
}

func (n *WhileStmt) Span() (start, end token.Pos) { return n.Keyword, n.End }
func (n *WhileStmt) stmtNode()                    {}

// DoStmt represents `do ... end`.
type DoStmt struct {
	Keyword token.Pos
	Body    *Block
	End     token.Pos
}

func (n *DoStmt) Span() (start, end token.Pos) { return n.Keyword, n.End }
func (n *DoStmt) stmtNode()                    {}

// RepeatStmt represents `repeat ... until cond`.
type RepeatStmt struct {
	Keyword token.Pos
	Body    *Block
	Cond    *Expression
	End     token.Pos
}

func (n *RepeatStmt) Span() (start, end token.Pos) { return n.Keyword, n.End }
func (n *RepeatStmt) stmtNode()                    {}

// ForStmt represents either the numeric `for x = a, b [, c] do ... end` form
// (Names has length 1 and Start/Stop/Step are set) or the generic
// `for x1, ..., xn in e1, ..., em do ... end` form (Exprs is set).
type ForStmt struct {
	Keyword          token.Pos
	Names            []*Ident
	Start, Stop, Step *Expression // numeric form
	Exprs            []*Expression // generic form
	Body             *Block
	End              token.Pos
}

func (n *ForStmt) Span() (start, end token.Pos) { return n.Keyword, n.End }
func (n *ForStmt) stmtNode()                    {}

// BreakStmt represents `break`.
type BreakStmt struct{ Pos token.Pos }

func (n *BreakStmt) Span() (start, end token.Pos) { return n.Pos, n.Pos + 5 }
func (n *BreakStmt) stmtNode()                    {}

// GotoStmt represents `goto label`.
type GotoStmt struct {
	Keyword token.Pos
	Label   *Ident
}

func (n *GotoStmt) Span() (start, end token.Pos) { return n.Keyword, n.Label.End }
func (n *GotoStmt) stmtNode()                    {}

// LabelStmt represents `::label::`.
type LabelStmt struct {
	Start, End token.Pos
	Name       *Ident
}

func (n *LabelStmt) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *LabelStmt) stmtNode()                    {}
