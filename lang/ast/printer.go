package ast

import (
	"fmt"
	"io"

	"github.com/mna/marl/lang/token"
)

// Printer renders a Chunk as an indented textual tree, adapted from the
// purpose the teacher's ast.Printer serves: a way to inspect parser output
// from the command line without a debugger.
type Printer struct {
	Output io.Writer
	Pos    bool // include file:line:col start positions in the output
	file   *token.File
}

// Print writes chunk's tree to p.Output. file, if non-nil, is used to
// resolve positions when p.Pos is set.
func (p *Printer) Print(chunk *Chunk, file *token.File) error {
	p.file = file
	pw := &printWriter{w: p.Output}
	p.printBlock(pw, chunk.Block, 0)
	return pw.err
}

type printWriter struct {
	w   io.Writer
	err error
}

func (pw *printWriter) line(depth int, format string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	for i := 0; i < depth; i++ {
		if _, err := io.WriteString(pw.w, "  "); err != nil {
			pw.err = err
			return
		}
	}
	if _, err := fmt.Fprintf(pw.w, format+"\n", args...); err != nil {
		pw.err = err
	}
}

func (p *Printer) pos(at token.Pos) string {
	if !p.Pos || p.file == nil {
		return ""
	}
	return " @" + p.file.Position(at).String()
}

func (p *Printer) printBlock(pw *printWriter, b *Block, depth int) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		p.printStmt(pw, s, depth)
	}
	if b.Return != nil {
		pw.line(depth, "Return%s", p.pos(b.Return.Keyword))
		for _, e := range b.Return.Exprs {
			p.printExpr(pw, e, depth+1)
		}
	}
}

func (p *Printer) printStmt(pw *printWriter, stmt Stmt, depth int) {
	start, _ := stmt.Span()
	switch s := stmt.(type) {
	case *LocalStmt:
		names := identNames(s.Names)
		pw.line(depth, "Local %s%s", names, p.pos(start))
		for _, e := range s.Values {
			p.printExpr(pw, e, depth+1)
		}
	case *AssignStmt:
		pw.line(depth, "Assign%s", p.pos(start))
		for _, e := range s.Values {
			p.printExpr(pw, e, depth+1)
		}
	case *CallStmt:
		pw.line(depth, "CallStmt%s", p.pos(start))
		p.printExpr(pw, &Expression{Head: s.Call}, depth+1)
	case *FuncStmt:
		pw.line(depth, "Func %s%s", s.Name.Name.Name, p.pos(start))
		p.printBlock(pw, s.Body.Body, depth+1)
	case *LocalFuncStmt:
		pw.line(depth, "LocalFunc %s%s", s.Name.Name, p.pos(start))
		p.printBlock(pw, s.Body.Body, depth+1)
	case *IfStmt:
		pw.line(depth, "If%s", p.pos(start))
		for i, cond := range s.Conds {
			p.printExpr(pw, cond, depth+1)
			p.printBlock(pw, s.Blocks[i], depth+1)
		}
		if s.Else != nil {
			pw.line(depth, "Else")
			p.printBlock(pw, s.Else, depth+1)
		}
	case *WhileStmt:
		pw.line(depth, "While%s", p.pos(start))
		p.printExpr(pw, s.Cond, depth+1)
		p.printBlock(pw, s.Body, depth+1)
	case *DoStmt:
		pw.line(depth, "Do%s", p.pos(start))
		p.printBlock(pw, s.Body, depth+1)
	case *RepeatStmt:
		pw.line(depth, "Repeat%s", p.pos(start))
		p.printBlock(pw, s.Body, depth+1)
		p.printExpr(pw, s.Cond, depth+1)
	case *ForStmt:
		pw.line(depth, "For %s%s", identNames(s.Names), p.pos(start))
		p.printBlock(pw, s.Body, depth+1)
	case *BreakStmt:
		pw.line(depth, "Break%s", p.pos(start))
	case *GotoStmt:
		pw.line(depth, "Goto %s%s", s.Label.Name, p.pos(start))
	case *LabelStmt:
		pw.line(depth, "Label %s%s", s.Name.Name, p.pos(start))
	default:
		pw.line(depth, "<unknown stmt %T>", s)
	}
}

func (p *Printer) printExpr(pw *printWriter, e *Expression, depth int) {
	if e == nil {
		return
	}
	p.printExprHead(pw, e.Head, depth)
	for _, item := range e.Tail {
		pw.line(depth, "BinOp %s%s", item.Op, p.pos(item.OpPos))
		p.printExpr(pw, item.Right, depth+1)
	}
}

func (p *Printer) printExprHead(pw *printWriter, head Expr, depth int) {
	start, _ := head.Span()
	switch n := head.(type) {
	case *LiteralExpr:
		pw.line(depth, "Literal %s%s", literalText(n), p.pos(start))
	case *VarargExpr:
		pw.line(depth, "Vararg%s", p.pos(start))
	case *TableExpr:
		pw.line(depth, "Table (%d fields)%s", len(n.Fields), p.pos(start))
	case *FuncExpr:
		pw.line(depth, "FuncExpr%s", p.pos(start))
		p.printBlock(pw, n.Body.Body, depth+1)
	case *UnaryExpr:
		pw.line(depth, "UnaryOp %s%s", n.Op, p.pos(n.OpPos))
		p.printExpr(pw, n.Right, depth+1)
	case *SuffixedExpr:
		p.printSuffixed(pw, n, depth)
	default:
		pw.line(depth, "<unknown expr %T>", n)
	}
}

func (p *Printer) printSuffixed(pw *printWriter, n *SuffixedExpr, depth int) {
	if n.Primary.Paren != nil {
		pw.line(depth, "Paren")
		p.printExpr(pw, n.Primary.Paren, depth+1)
	} else {
		pw.line(depth, "Name %s%s", n.Primary.Name.Name, p.pos(n.Primary.Start))
	}
	for _, suf := range n.Suffixes {
		switch {
		case suf.Field != nil:
			if suf.Field.Named != "" {
				pw.line(depth+1, "Field .%s", suf.Field.Named)
			} else {
				pw.line(depth+1, "Field [...]")
				p.printExpr(pw, suf.Field.Indexed, depth+2)
			}
		case suf.Call != nil:
			pw.line(depth+1, "Call (%d args)", len(suf.Call.Args))
			for _, a := range suf.Call.Args {
				p.printExpr(pw, a, depth+2)
			}
		}
	}
}

func identNames(idents []*Ident) string {
	s := ""
	for i, id := range idents {
		if i > 0 {
			s += ", "
		}
		s += id.Name
	}
	return s
}

func literalText(n *LiteralExpr) string {
	switch n.Kind {
	case token.INT:
		return fmt.Sprintf("%d", n.Int)
	case token.FLOAT:
		return fmt.Sprintf("%g", n.Float)
	case token.STRING:
		return fmt.Sprintf("%q", n.Str)
	default:
		return n.Kind.String()
	}
}
