package parser_test

import (
	"testing"
	"time"

	"github.com/mna/marl/lang/ast"
	"github.com/mna/marl/lang/parser"
	"github.com/mna/marl/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidChunk(t *testing.T) {
	src := `
local x = 1
local function f()
  return x + 1
end
x = f()
`
	fset := token.NewFileSet()
	chunk, err := parser.ParseFile(fset, "test.marl", []byte(src))
	require.NoError(t, err)
	require.Len(t, chunk.Block.Stmts, 3)
	_, ok := chunk.Block.Stmts[1].(*ast.LocalFuncStmt)
	assert.True(t, ok)
}

func TestParseReportsSyntaxError(t *testing.T) {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "test.marl", []byte("local = 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test.marl")
}

func TestParseStrayTokenTerminates(t *testing.T) {
	// a token that cannot start a statement or expression must still
	// terminate parsing with a diagnostic, not loop forever re-parsing the
	// same unconsumed token.
	done := make(chan struct{})
	var err error
	go func() {
		fset := token.NewFileSet()
		_, err = parser.ParseFile(fset, "test.marl", []byte("+\n"))
		close(done)
	}()
	select {
	case <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ParseFile did not terminate on a stray operator token")
	}
}

func TestParseIfStatement(t *testing.T) {
	src := `
if x then
  local y = 1
else
  local y = 2
end
`
	fset := token.NewFileSet()
	chunk, err := parser.ParseFile(fset, "test.marl", []byte(src))
	require.NoError(t, err, "the parser accepts forms the compiler later feature-gates")
	_, ok := chunk.Block.Stmts[0].(*ast.IfStmt)
	assert.True(t, ok)
}
