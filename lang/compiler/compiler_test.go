package compiler_test

import (
	"strings"
	"testing"

	"github.com/mna/marl/lang/compiler"
	"github.com/mna/marl/lang/parser"
	"github.com/mna/marl/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, src string) *compiler.Prototype {
	t.Helper()
	fset := token.NewFileSet()
	chunk, err := parser.ParseFile(fset, "test.marl", []byte(src))
	require.NoError(t, err)
	file := fset.File(chunk.EOF)
	proto, err := compiler.CompileChunk(fset, file, chunk)
	require.NoError(t, err)
	return proto
}

func TestCompileConstantFoldsArithmetic(t *testing.T) {
	proto := compileSource(t, "local x = 1 + 2\n")
	dump := compiler.Disassemble(proto)
	assert.NotContains(t, dump, "add", "a constant-only expression must fold at compile time")
	assert.Contains(t, dump, "loadk")
	require.Len(t, proto.Constants, 1)
	assert.EqualValues(t, 3, proto.Constants[0].Int())
}

func TestCompileConstantFoldsFloorDivision(t *testing.T) {
	proto := compileSource(t, "local x = 7 // 2\n")
	require.Len(t, proto.Constants, 1)
	assert.EqualValues(t, 3, proto.Constants[0].Int())
}

func TestCompileConstantFoldsNegativeFloorDivision(t *testing.T) {
	proto := compileSource(t, "local x = -7 // 2\n")
	require.Len(t, proto.Constants, 1)
	assert.EqualValues(t, -4, proto.Constants[0].Int(), "floor division rounds toward negative infinity")
}

func TestCompileFloorDivisionByZeroConstantDeclinesFold(t *testing.T) {
	// a zero divisor must not panic the compiler; folding is skipped so the
	// error is raised by the emitted opcode at run time instead.
	proto := compileSource(t, "local x = 7 // 0\n")
	dump := compiler.Disassemble(proto)
	assert.Contains(t, dump, "idiv")
}

func TestCompileModuloByZeroConstantDeclinesFold(t *testing.T) {
	proto := compileSource(t, "local x = 7 % 0\n")
	dump := compiler.Disassemble(proto)
	assert.Contains(t, dump, "mod")
}

func TestCompileDoesNotFoldRuntimeArithmetic(t *testing.T) {
	proto := compileSource(t, "local x\nlocal y = x + 1\n")
	dump := compiler.Disassemble(proto)
	assert.Contains(t, dump, "add", "an expression involving a non-constant operand must emit an opcode")
}

func TestCompileComparisonLowersToFourInstructionSequence(t *testing.T) {
	proto := compileSource(t, "local a\nlocal b = a < 1\n")
	dump := compiler.Disassemble(proto)
	assert.Contains(t, dump, "lt")
	assert.Contains(t, dump, "jump")
	assert.Equal(t, 2, strings.Count(dump, "loadbool"))
}

func TestCompileConcatIsUnsupported(t *testing.T) {
	fset := token.NewFileSet()
	chunk, err := parser.ParseFile(fset, "test.marl", []byte("local x = 'a' .. 'b'\n"))
	require.NoError(t, err)
	file := fset.File(chunk.EOF)
	_, err = compiler.CompileChunk(fset, file, chunk)
	assert.Error(t, err)
}

func TestCompileStringConstantsAreInterned(t *testing.T) {
	proto := compileSource(t, "local a = 'dup'\nlocal b = 'dup'\n")
	require.Len(t, proto.Constants, 1, "two references to the same string literal share one constant-pool slot")
}

func TestCompileEmptyTableConstructor(t *testing.T) {
	proto := compileSource(t, "local t = {}\n")
	dump := compiler.Disassemble(proto)
	assert.Contains(t, dump, "newtable")
}

func TestCompileRejectsNonEmptyTableConstructor(t *testing.T) {
	fset := token.NewFileSet()
	chunk, err := parser.ParseFile(fset, "test.marl", []byte("local t = {1, 2}\n"))
	require.NoError(t, err)
	file := fset.File(chunk.EOF)
	_, err = compiler.CompileChunk(fset, file, chunk)
	assert.Error(t, err)
}

func TestCompileNestedFunctionCapturesUpvalue(t *testing.T) {
	proto := compileSource(t, `
local x = 1
local function f()
  return x
end
`)
	require.Len(t, proto.Prototypes, 1)
	inner := proto.Prototypes[0]
	require.Len(t, inner.Upvalues, 1)
}

func TestCompileZeroParameterLocalFunction(t *testing.T) {
	// spec.md §8 scenario 5: a zero-parameter function must compile, not be
	// mistaken for a register-limit overflow (registerAllocator.push(0) is a
	// valid no-op, not "too many registers").
	proto := compileSource(t, `
local function f()
  return 1
end
`)
	require.Len(t, proto.Prototypes, 1)
	inner := proto.Prototypes[0]
	assert.Equal(t, 0, inner.FixedParams)
}

func TestCompileZeroParameterGlobalFunction(t *testing.T) {
	proto := compileSource(t, `
function f()
  return 1
end
`)
	require.Len(t, proto.Prototypes, 1)
	inner := proto.Prototypes[0]
	assert.Equal(t, 0, inner.FixedParams)
}
