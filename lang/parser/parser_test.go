package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/parser"
)

func mustParse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	chunk, errl := parser.Parse([]byte(src))
	require.Equal(t, 0, errl.Len(), "unexpected parse errors: %v", errl)
	return chunk
}

func TestParseArithmeticPrecedence(t *testing.T) {
	chunk := mustParse(t, "println(1 + 2 * 3);")
	require.Len(t, chunk.Stmts, 1)
	es, ok := chunk.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok)
	call, ok := es.X.(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	bin, ok := call.Args[0].(*ast.BinaryExpr)
	require.True(t, ok)
	rhs, ok := bin.Y.(*ast.BinaryExpr)
	require.True(t, ok, "2 * 3 should bind tighter than +")
	assert.Equal(t, "*", rhs.Op.String())
}

func TestParseVarAndSort(t *testing.T) {
	chunk := mustParse(t, `var a = [3,1,2]; a.sort(); println(a.join(","));`)
	require.Len(t, chunk.Stmts, 3)
	v, ok := chunk.Stmts[0].(*ast.VarStmt)
	require.True(t, ok)
	assert.Equal(t, "a", v.Name)
	_, ok = v.Value.(*ast.ArrayExpr)
	assert.True(t, ok)
}

func TestParseClassWithConstructorAndGetter(t *testing.T) {
	chunk := mustParse(t, `class A { constructor() { this.x = 1; } get() => this.x; }`)
	require.Len(t, chunk.Stmts, 1)
	cls, ok := chunk.Stmts[0].(*ast.ClassStmt)
	require.True(t, ok)
	require.Len(t, cls.Methods, 2)
	assert.Equal(t, "constructor", cls.Methods[0].Name)
	assert.Equal(t, "get", cls.Methods[1].Name)
}

func TestParseFiberLambda(t *testing.T) {
	chunk := mustParse(t, `var f = Fiber(() => { Fiber.yield(42); });`)
	v := chunk.Stmts[0].(*ast.VarStmt)
	call := v.Value.(*ast.CallExpr)
	lam, ok := call.Args[0].(*ast.LambdaExpr)
	require.True(t, ok)
	assert.Empty(t, lam.Params)
}

func TestParseInterpolation(t *testing.T) {
	chunk := mustParse(t, `var s = "hi"; println("${s} ${s.length}");`)
	es := chunk.Stmts[1].(*ast.ExprStmt)
	call := es.X.(*ast.CallExpr)
	interp, ok := call.Args[0].(*ast.InterpolationExpr)
	require.True(t, ok)
	assert.Len(t, interp.Pieces, 5) // "" s " " s.length ""
}

func TestParseForIn(t *testing.T) {
	chunk := mustParse(t, `for (var i in 0..3) print(i);`)
	fi, ok := chunk.Stmts[0].(*ast.ForInStmt)
	require.True(t, ok)
	assert.Equal(t, "i", fi.Name)
	rng, ok := fi.Iter.(*ast.RangeExpr)
	require.True(t, ok)
	assert.NotNil(t, rng.From)
}

func TestParseCStyleFor(t *testing.T) {
	chunk := mustParse(t, `for (var i = 0; i < 3; i = i + 1) print(i);`)
	fs, ok := chunk.Stmts[0].(*ast.ForStmt)
	require.True(t, ok)
	require.NotNil(t, fs.Init)
	require.NotNil(t, fs.Cond)
	require.NotNil(t, fs.Post)
}

func TestParseGroupingVsLambda(t *testing.T) {
	chunk := mustParse(t, `var f = (a, b) => a + b; var g = (1 + 2) * 3;`)
	f := chunk.Stmts[0].(*ast.VarStmt)
	_, ok := f.Value.(*ast.LambdaExpr)
	assert.True(t, ok)

	g := chunk.Stmts[1].(*ast.VarStmt)
	bin, ok := g.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	_, ok = bin.X.(*ast.ParenExpr)
	assert.True(t, ok)
}

func TestParseOperatorOverload(t *testing.T) {
	chunk := mustParse(t, `class Vec { operator +(other) { return this; } }`)
	cls := chunk.Stmts[0].(*ast.ClassStmt)
	require.Len(t, cls.Methods, 1)
	assert.True(t, cls.Methods[0].IsOp)
}

func TestParseStaticFieldsBeforeMethodsError(t *testing.T) {
	_, errl := parser.Parse([]byte(`class A { foo() {} var X = 1; }`))
	require.Greater(t, errl.Len(), 0)
}

func TestParseSyncsAfterError(t *testing.T) {
	chunk, errl := parser.Parse([]byte(`var = ; var b = 2;`))
	require.Greater(t, errl.Len(), 0)
	require.Len(t, chunk.Stmts, 2)
	_, ok := chunk.Stmts[0].(*ast.BadStmt)
	assert.True(t, ok)
	v, ok := chunk.Stmts[1].(*ast.VarStmt)
	require.True(t, ok)
	assert.Equal(t, "b", v.Name)
}
