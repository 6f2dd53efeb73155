package scanner

import (
	"testing"

	"github.com/mna/marl/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) ([]token.Token, []string) {
	t.Helper()
	fset := token.NewFileSet()
	file := fset.AddFile("test", -1, len(src))
	sc := New(file, []byte(src))

	var toks []token.Token
	var lits []string
	for {
		tok, _, lit := sc.Scan()
		toks = append(toks, tok)
		lits = append(lits, lit)
		if tok == token.EOF {
			break
		}
	}
	require.Empty(t, sc.Errors())
	return toks, lits
}

func TestScanBasicTokens(t *testing.T) {
	toks, lits := scanAll(t, `local x = 1 + 2.5 -- comment
return x`)
	want := []token.Token{
		token.LOCAL, token.IDENT, token.ASSIGN, token.INT, token.PLUS, token.FLOAT,
		token.RETURN, token.IDENT, token.EOF,
	}
	assert.Equal(t, want, toks)
	assert.Equal(t, "x", lits[1])
	assert.Equal(t, "1", lits[3])
	assert.Equal(t, "2.5", lits[5])
}

func TestScanStringLiteral(t *testing.T) {
	toks, lits := scanAll(t, `"hello\nworld"`)
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	assert.Equal(t, "hello\nworld", lits[0])
}

func TestScanStringLiteralEscapedQuote(t *testing.T) {
	// a string whose escaped delimiter matches its own quote character must
	// decode to the literal quote, not get re-escaped into invalid syntax.
	toks, lits := scanAll(t, `"say \"hi\""`)
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	assert.Equal(t, `say "hi"`, lits[0])
}

func TestScanMultiCharOperators(t *testing.T) {
	toks, _ := scanAll(t, `== ~= <= >= << >> // ::`)
	want := []token.Token{
		token.EQL, token.NEQ, token.LE, token.GE, token.LTLT, token.GTGT,
		token.SLASHSLASH, token.DBCOLON, token.EOF,
	}
	assert.Equal(t, want, toks)
}

func TestScanIllegalCharacterRecorded(t *testing.T) {
	fset := token.NewFileSet()
	file := fset.AddFile("test", -1, 1)
	sc := New(file, []byte("`"))
	for {
		tok, _, _ := sc.Scan()
		if tok == token.EOF {
			break
		}
	}
	assert.Len(t, sc.Errors(), 1)
}

func TestScanUnterminatedStringRecordsError(t *testing.T) {
	fset := token.NewFileSet()
	src := `"abc`
	file := fset.AddFile("test", -1, len(src))
	sc := New(file, []byte(src))
	for {
		tok, _, _ := sc.Scan()
		if tok == token.EOF {
			break
		}
	}
	require.Len(t, sc.Errors(), 1)
	assert.Contains(t, sc.Errors()[0].Msg, "unterminated")
}
