package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/optimizer"
	"github.com/mna/vesper/lang/parser"
	"github.com/mna/vesper/lang/token"
)

func parseAndOptimize(t *testing.T, src string, opts optimizer.Options) *ast.Chunk {
	t.Helper()
	chunk, errl := parser.Parse([]byte(src))
	require.Equal(t, 0, errl.Len())
	return optimizer.Optimize(chunk, opts)
}

func TestFoldLiterals(t *testing.T) {
	chunk := parseAndOptimize(t, "var a = 1 + 2 * 3;", optimizer.ForLevel(optimizer.REPL))
	v := chunk.Stmts[0].(*ast.VarStmt)
	lit, ok := v.Value.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, int64(7), lit.Int)
}

func TestStrengthReduction(t *testing.T) {
	chunk := parseAndOptimize(t, "var a = x * 1;", optimizer.ForLevel(optimizer.REPL))
	v := chunk.Stmts[0].(*ast.VarStmt)
	ident, ok := v.Value.(*ast.IdentExpr)
	require.True(t, ok)
	assert.Equal(t, "x", ident.Name)
}

func TestConstFolding(t *testing.T) {
	chunk := parseAndOptimize(t, "const N = 10; var a = N + 1;", optimizer.ForLevel(optimizer.DEBUG))
	v := chunk.Stmts[1].(*ast.VarStmt)
	lit, ok := v.Value.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, int64(11), lit.Int)
}

func TestUnusedVarElision(t *testing.T) {
	chunk := parseAndOptimize(t, "var unused = 1; var used = 2; println(used);", optimizer.ForLevel(optimizer.RELEASE))
	require.Len(t, chunk.Stmts, 2)
	v, ok := chunk.Stmts[0].(*ast.VarStmt)
	require.True(t, ok)
	assert.Equal(t, "used", v.Name)
}

func TestUnreachableCodeElimination(t *testing.T) {
	chunk := parseAndOptimize(t, "function f() { return 1; println(2); }", optimizer.ForLevel(optimizer.RELEASE))
	fn := chunk.Stmts[0].(*ast.FunctionStmt)
	require.Len(t, fn.Fn.Body.Stmts, 1)
	_, ok := fn.Fn.Body.Stmts[0].(*ast.ReturnStmt)
	assert.True(t, ok)
}

func TestEmptyLoopElimination(t *testing.T) {
	chunk := parseAndOptimize(t, "while (true) {}", optimizer.ForLevel(optimizer.RELEASE))
	assert.Len(t, chunk.Stmts, 0)
}

func TestForInRangeRewrite(t *testing.T) {
	chunk := parseAndOptimize(t, "for (var i in 0..3) print(i);", optimizer.ForLevel(optimizer.RELEASE))
	fs, ok := chunk.Stmts[0].(*ast.ForStmt)
	require.True(t, ok, "expected rewrite to a C-style for")
	init := fs.Init.(*ast.VarStmt)
	assert.Equal(t, "i", init.Name)
	cond := fs.Cond.(*ast.BinaryExpr)
	assert.Equal(t, token.LE, cond.Op)
}

func TestIfWithStaticConditionElision(t *testing.T) {
	chunk := parseAndOptimize(t, "if (true) { println(1); } else { println(2); }", optimizer.ForLevel(optimizer.RELEASE))
	require.Len(t, chunk.Stmts, 1)
	block, ok := chunk.Stmts[0].(*ast.BlockStmt)
	require.True(t, ok)
	require.Len(t, block.Stmts, 1)
}
