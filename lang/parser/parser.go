// Package parser implements a recursive-descent parser for the marl
// language, producing the lang/ast tree consumed by lang/compiler. It is
// adapted from the recursive-descent structure of the teacher corpus's
// lang/parser package: a Parser wraps a lang/scanner.Scanner, keeps one
// token of lookahead, and accumulates errors into a scanner.ErrorList
// instead of failing on the first mistake.
package parser

import (
	"fmt"

	"github.com/mna/marl/lang/ast"
	"github.com/mna/marl/lang/scanner"
	"github.com/mna/marl/lang/token"
)

// ParseFile tokenizes and parses a single source file into a *ast.Chunk.
// The returned error, if non-nil, is a scanner.ErrorList.
func ParseFile(fset *token.FileSet, filename string, src []byte) (*ast.Chunk, error) {
	file := fset.AddFile(filename, -1, len(src))
	sc := scanner.New(file, src)
	p := &Parser{file: file, sc: sc}
	p.advance()
	chunk := p.parseChunk()
	p.errors = append(p.errors, p.sc.Errors()...)
	p.errors.Sort()
	return chunk, p.errors.Err()
}

// Parser holds the state of a single parse.
type Parser struct {
	file *token.File
	sc   *scanner.Scanner

	tok token.Token
	pos token.Pos
	lit string

	haveNext      bool
	nextTok       token.Token
	nextPos       token.Pos
	nextLit       string

	errors scanner.ErrorList
}

func (p *Parser) advance() {
	if p.haveNext {
		p.tok, p.pos, p.lit = p.nextTok, p.nextPos, p.nextLit
		p.haveNext = false
		return
	}
	p.tok, p.pos, p.lit = p.sc.Scan()
}

// peek returns the token following the current one, buffering it so the
// next call to advance consumes it without rescanning.
func (p *Parser) peek() token.Token {
	if !p.haveNext {
		p.nextTok, p.nextPos, p.nextLit = p.sc.Scan()
		p.haveNext = true
	}
	return p.nextTok
}

func (p *Parser) errorf(pos token.Pos, format string, args ...interface{}) {
	p.errors.Add(p.file.Position(pos), fmt.Sprintf(format, args...))
}

// expect consumes the current token, recording an error if it does not
// match tok. The token is consumed either way (except at EOF, which never
// advances) so a parse error always makes progress instead of leaving the
// cursor stuck on the same offending token.
func (p *Parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorf(p.pos, "expected %s, found %s", tok, p.tok)
	}
	if p.tok != token.EOF {
		p.advance()
	}
	return pos
}

func (p *Parser) at(toks ...token.Token) bool {
	for _, t := range toks {
		if p.tok == t {
			return true
		}
	}
	return false
}

func (p *Parser) parseChunk() *ast.Chunk {
	block := p.parseBlock()
	eof := p.pos
	if p.tok != token.EOF {
		p.errorf(p.pos, "expected end of file, found %s", p.tok)
	}
	return &ast.Chunk{Block: block, EOF: eof}
}

// blockEnd reports whether the current token terminates a block.
func (p *Parser) blockEnd() bool {
	return p.at(token.EOF, token.END, token.ELSE, token.ELSEIF, token.UNTIL)
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.pos
	b := &ast.Block{Start: start}
	for !p.blockEnd() && p.tok != token.RETURN {
		if p.tok == token.SEMI {
			p.advance()
			continue
		}
		b.Stmts = append(b.Stmts, p.parseStatement())
	}
	if p.tok == token.RETURN {
		b.Return = p.parseReturnStmt()
	}
	b.End = p.pos
	return b
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	kw := p.expect(token.RETURN)
	r := &ast.ReturnStmt{Keyword: kw}
	if !p.blockEnd() && p.tok != token.SEMI {
		r.Exprs = p.parseExprList()
	}
	r.End = p.pos
	if p.tok == token.SEMI {
		p.advance()
	}
	return r
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.tok {
	case token.LOCAL:
		return p.parseLocal()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDo()
	case token.FOR:
		return p.parseFor()
	case token.REPEAT:
		return p.parseRepeat()
	case token.FUNCTION:
		return p.parseFuncStmt()
	case token.BREAK:
		pos := p.pos
		p.advance()
		return &ast.BreakStmt{Pos: pos}
	case token.GOTO:
		kw := p.pos
		p.advance()
		name := p.parseIdent()
		return &ast.GotoStmt{Keyword: kw, Label: name}
	case token.DBCOLON:
		start := p.pos
		p.advance()
		name := p.parseIdent()
		end := p.expect(token.DBCOLON)
		return &ast.LabelStmt{Start: start, End: end, Name: name}
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseIdent() *ast.Ident {
	start, lit := p.pos, p.lit
	if p.tok != token.IDENT {
		p.errorf(p.pos, "expected identifier, found %s", p.tok)
	}
	if p.tok != token.EOF {
		p.advance()
	}
	return &ast.Ident{Name: lit, Start: start, End: p.pos}
}

func (p *Parser) parseLocal() ast.Stmt {
	localPos := p.pos
	p.advance()
	if p.tok == token.FUNCTION {
		p.advance()
		name := p.parseIdent()
		body := p.parseFuncBody()
		return &ast.LocalFuncStmt{Local: localPos, Keyword: localPos, Name: name, Body: body}
	}

	var names []*ast.Ident
	names = append(names, p.parseIdent())
	for p.tok == token.COMMA {
		p.advance()
		names = append(names, p.parseIdent())
	}
	var values []*ast.Expression
	if p.tok == token.ASSIGN {
		p.advance()
		values = p.parseExprList()
	}
	return &ast.LocalStmt{Local: localPos, Names: names, Values: values, End: p.pos}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	first := p.parseSuffixedExpr()
	if p.tok == token.ASSIGN || p.tok == token.COMMA {
		targets := []ast.AssignTarget{exprToTarget(p, first)}
		for p.tok == token.COMMA {
			p.advance()
			targets = append(targets, exprToTarget(p, p.parseSuffixedExpr()))
		}
		eq := p.expect(token.ASSIGN)
		values := p.parseExprList()
		return &ast.AssignStmt{Targets: targets, Eq: eq, Values: values, End: p.pos}
	}
	return &ast.CallStmt{Call: first}
}

func exprToTarget(p *Parser, e *ast.SuffixedExpr) ast.AssignTarget {
	if len(e.Suffixes) == 0 && e.Primary.Name != nil {
		return ast.AssignTarget{Name: e.Primary.Name}
	}
	if len(e.Suffixes) > 0 && e.Suffixes[len(e.Suffixes)-1].Field != nil {
		return ast.AssignTarget{Table: e}
	}
	p.errorf(e.Primary.Start, "invalid assignment target")
	return ast.AssignTarget{Table: e}
}

func (p *Parser) parseExprList() []*ast.Expression {
	list := []*ast.Expression{p.parseExpr(0)}
	for p.tok == token.COMMA {
		p.advance()
		list = append(list, p.parseExpr(0))
	}
	return list
}

// parseExpr implements precedence climbing: it builds a left-associative
// chain of TailItems at the current minimum precedence, recursing to a
// higher minimum precedence for each right-hand operand (or the same
// minimum, bumped by one, for right-associative operators).
func (p *Parser) parseExpr(minPrec int) *ast.Expression {
	head := p.parseUnaryOrSimple()
	expr := &ast.Expression{Head: head}
	for {
		prec := p.tok.BinOpPrecedence()
		if prec == 0 || prec < minPrec {
			break
		}
		op, opPos := p.tok, p.pos
		p.advance()
		nextMin := prec + 1
		if op.RightAssoc() {
			nextMin = prec
		}
		right := p.parseExpr(nextMin)
		expr.Tail = append(expr.Tail, ast.TailItem{Op: op, OpPos: opPos, Right: right})
	}
	return expr
}

func (p *Parser) parseUnaryOrSimple() ast.Expr {
	if p.tok.IsUnary() {
		op, opPos := p.tok, p.pos
		p.advance()
		right := p.parseExpr(13) // binds tighter than everything but ^
		return &ast.UnaryExpr{Op: op, OpPos: opPos, Right: right, EndPos: p.pos}
	}
	return p.parseSimpleExpr()
}

func (p *Parser) parseSimpleExpr() ast.Expr {
	start := p.pos
	switch p.tok {
	case token.NIL:
		p.advance()
		return &ast.LiteralExpr{Kind: token.NIL, Start: start, End: p.pos}
	case token.TRUE:
		p.advance()
		return &ast.LiteralExpr{Kind: token.TRUE, Start: start, End: p.pos}
	case token.FALSE:
		p.advance()
		return &ast.LiteralExpr{Kind: token.FALSE, Start: start, End: p.pos}
	case token.INT:
		v := parseInt(p.lit)
		p.advance()
		return &ast.LiteralExpr{Kind: token.INT, Start: start, End: p.pos, Int: v}
	case token.FLOAT:
		v := parseFloat(p.lit)
		p.advance()
		return &ast.LiteralExpr{Kind: token.FLOAT, Start: start, End: p.pos, Float: v}
	case token.STRING:
		lit := p.lit
		p.advance()
		return &ast.LiteralExpr{Kind: token.STRING, Start: start, End: p.pos, Str: lit}
	case token.ELLIPSIS:
		p.advance()
		return &ast.VarargExpr{Pos: start}
	case token.LBRACE:
		return p.parseTableConstructor()
	case token.FUNCTION:
		p.advance()
		return &ast.FuncExpr{Keyword: start, Body: p.parseFuncBody()}
	default:
		return p.parseSuffixedExpr()
	}
}

func (p *Parser) parseTableConstructor() *ast.TableExpr {
	start := p.expect(token.LBRACE)
	t := &ast.TableExpr{Start: start}
	for p.tok != token.RBRACE && p.tok != token.EOF {
		t.Fields = append(t.Fields, p.parseTableField())
		if p.tok == token.COMMA || p.tok == token.SEMI {
			p.advance()
		} else {
			break
		}
	}
	t.End = p.expect(token.RBRACE)
	return t
}

func (p *Parser) parseTableField() ast.TableField {
	if p.tok == token.LBRACK {
		p.advance()
		key := p.parseExpr(0)
		p.expect(token.RBRACK)
		p.expect(token.ASSIGN)
		val := p.parseExpr(0)
		return ast.TableField{Key: key, Value: val}
	}
	if p.tok == token.IDENT && p.peek() == token.ASSIGN {
		name := p.parseIdent()
		p.advance() // consume '='
		val := p.parseExpr(0)
		return ast.TableField{Name: name.Name, Value: val}
	}
	val := p.parseExpr(0)
	return ast.TableField{Value: val}
}

func (p *Parser) parseFuncBody() *ast.FuncBody {
	start := p.expect(token.LPAREN)
	fb := &ast.FuncBody{Start: start}
	for p.tok != token.RPAREN {
		if p.tok == token.ELLIPSIS {
			fb.HasVararg = true
			p.advance()
			break
		}
		fb.Params = append(fb.Params, p.parseIdent())
		if p.tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	fb.Body = p.parseBlock()
	fb.End = p.expect(token.END)
	return fb
}

func (p *Parser) parseSuffixedExpr() *ast.SuffixedExpr {
	primary := p.parsePrimaryExpr()
	e := &ast.SuffixedExpr{Primary: primary, End: p.pos}
	for {
		switch p.tok {
		case token.DOT:
			start := p.pos
			p.advance()
			name := p.parseIdent()
			e.Suffixes = append(e.Suffixes, ast.Suffix{Field: &ast.FieldSuffix{Named: name.Name, Start: start, End: name.End}})
		case token.LBRACK:
			start := p.pos
			p.advance()
			idx := p.parseExpr(0)
			end := p.expect(token.RBRACK)
			e.Suffixes = append(e.Suffixes, ast.Suffix{Field: &ast.FieldSuffix{Indexed: idx, Start: start, End: end}})
		case token.COLON:
			start := p.pos
			p.advance()
			name := p.parseIdent()
			args := p.parseCallArgs()
			e.Suffixes = append(e.Suffixes, ast.Suffix{Call: &ast.CallSuffix{Method: name.Name, Args: args, Start: start, End: p.pos}})
		case token.LPAREN, token.STRING, token.LBRACE:
			start := p.pos
			args := p.parseCallArgs()
			e.Suffixes = append(e.Suffixes, ast.Suffix{Call: &ast.CallSuffix{Args: args, Start: start, End: p.pos}})
		default:
			e.End = p.pos
			return e
		}
		e.End = p.pos
	}
}

func (p *Parser) parseCallArgs() []*ast.Expression {
	switch p.tok {
	case token.STRING:
		lit := p.lit
		start := p.pos
		p.advance()
		return []*ast.Expression{{Head: &ast.LiteralExpr{Kind: token.STRING, Str: lit, Start: start, End: p.pos}}}
	case token.LBRACE:
		t := p.parseTableConstructor()
		return []*ast.Expression{{Head: t}}
	default:
		p.expect(token.LPAREN)
		var args []*ast.Expression
		if p.tok != token.RPAREN {
			args = p.parseExprList()
		}
		p.expect(token.RPAREN)
		return args
	}
}

func (p *Parser) parsePrimaryExpr() *ast.PrimaryExpr {
	start := p.pos
	if p.tok == token.LPAREN {
		p.advance()
		inner := p.parseExpr(0)
		end := p.expect(token.RPAREN)
		return &ast.PrimaryExpr{Paren: inner, Start: start, End: end}
	}
	name := p.parseIdent()
	return &ast.PrimaryExpr{Name: name, Start: start, End: name.End}
}

func (p *Parser) parseFuncStmt() ast.Stmt {
	kw := p.pos
	p.advance()
	fn := ast.FuncName{Name: p.parseIdent()}
	for p.tok == token.DOT {
		p.advance()
		fn.Fields = append(fn.Fields, p.parseIdent())
	}
	if p.tok == token.COLON {
		p.advance()
		fn.Method = p.parseIdent()
	}
	body := p.parseFuncBody()
	return &ast.FuncStmt{Keyword: kw, Name: fn, Body: body}
}

func (p *Parser) parseIf() ast.Stmt {
	kw := p.pos
	p.advance()
	st := &ast.IfStmt{Keyword: kw}
	st.Conds = append(st.Conds, p.parseExpr(0))
	p.expect(token.THEN)
	st.Blocks = append(st.Blocks, p.parseBlock())
	for p.tok == token.ELSEIF {
		p.advance()
		st.Conds = append(st.Conds, p.parseExpr(0))
		p.expect(token.THEN)
		st.Blocks = append(st.Blocks, p.parseBlock())
	}
	if p.tok == token.ELSE {
		p.advance()
		st.Else = p.parseBlock()
	}
	st.End = p.expect(token.END)
	return st
}

func (p *Parser) parseWhile() ast.Stmt {
	kw := p.pos
	p.advance()
	cond := p.parseExpr(0)
	p.expect(token.DO)
	body := p.parseBlock()
	end := p.expect(token.END)
	return &ast.WhileStmt{Keyword: kw, Cond: cond, Body: body, End: end}
}

func (p *Parser) parseDo() ast.Stmt {
	kw := p.pos
	p.advance()
	body := p.parseBlock()
	end := p.expect(token.END)
	return &ast.DoStmt{Keyword: kw, Body: body, End: end}
}

func (p *Parser) parseRepeat() ast.Stmt {
	kw := p.pos
	p.advance()
	body := p.parseBlock()
	p.expect(token.UNTIL)
	cond := p.parseExpr(0)
	return &ast.RepeatStmt{Keyword: kw, Body: body, Cond: cond, End: p.pos}
}

func (p *Parser) parseFor() ast.Stmt {
	kw := p.pos
	p.advance()
	first := p.parseIdent()
	if p.tok == token.ASSIGN {
		p.advance()
		start := p.parseExpr(0)
		p.expect(token.COMMA)
		stop := p.parseExpr(0)
		var step *ast.Expression
		if p.tok == token.COMMA {
			p.advance()
			step = p.parseExpr(0)
		}
		p.expect(token.DO)
		body := p.parseBlock()
		end := p.expect(token.END)
		return &ast.ForStmt{Keyword: kw, Names: []*ast.Ident{first}, Start: start, Stop: stop, Step: step, Body: body, End: end}
	}

	names := []*ast.Ident{first}
	for p.tok == token.COMMA {
		p.advance()
		names = append(names, p.parseIdent())
	}
	p.expect(token.IN)
	exprs := p.parseExprList()
	p.expect(token.DO)
	body := p.parseBlock()
	end := p.expect(token.END)
	return &ast.ForStmt{Keyword: kw, Names: names, Exprs: exprs, Body: body, End: end}
}

func parseInt(lit string) int64 {
	var v int64
	for i := 0; i < len(lit); i++ {
		v = v*10 + int64(lit[i]-'0')
	}
	return v
}

func parseFloat(lit string) float64 {
	var v float64
	fmt.Sscanf(lit, "%g", &v)
	return v
}
