package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/parser"
	"github.com/mna/vesper/lang/value"
)

func mustCompile(t *testing.T, src string) *compiler.Function {
	t.Helper()
	chunk, perrs := parser.Parse([]byte(src))
	require.Equal(t, 0, perrs.Len(), "unexpected parse errors: %v", perrs)
	fn, cerrs := compiler.Compile(chunk, "test")
	require.Equal(t, 0, cerrs.Len(), "unexpected compile errors: %v", cerrs)
	return fn
}

func opcodesOf(fn *compiler.Function) []compiler.Opcode {
	var ops []compiler.Opcode
	code := fn.Chunk.Code
	for i := 0; i < len(code); {
		op := compiler.Opcode(code[i])
		ops = append(ops, op)
		width := compiler.OperandWidth(op)
		if op == compiler.CLOSURE {
			constIdx := code[i+1]
			callee := fn.Chunk.Constants[constIdx].AsObj().(*compiler.Function)
			width += callee.UpvalueCount * 2
		}
		i += 1 + width
	}
	return ops
}

func TestCompileArithmeticEmitsAddAndReturn(t *testing.T) {
	fn := mustCompile(t, "var x = 1 + 2;")
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.ADD)
	assert.Equal(t, compiler.RETURN, ops[len(ops)-1])
}

func TestCompileIfEmitsConditionalJumps(t *testing.T) {
	fn := mustCompile(t, "if (true) { var a = 1; } else { var b = 2; }")
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.JUMP_IF_FALSE_POPPING)
	assert.Contains(t, ops, compiler.JUMP)
}

func TestCompileWhileLoopEmitsJumpBack(t *testing.T) {
	fn := mustCompile(t, "var i = 0; while (i < 10) { i = i + 1; }")
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.JUMP_BACK)
}

func TestCompileForInLowersToIteratorProtocol(t *testing.T) {
	fn := mustCompile(t, "for (var x in [1,2,3]) { println(x); }")
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.INVOKE)
	assert.Contains(t, ops, compiler.JUMP_IF_NULL_POPPING)
}

func TestCompileFunctionStmtProducesClosure(t *testing.T) {
	fn := mustCompile(t, "function add(a, b) { return a + b; }")
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.CLOSURE)

	var constFn *compiler.Function
	for _, c := range fn.Chunk.Constants {
		if c.Is(value.KindFunction) {
			constFn = c.AsObj().(*compiler.Function)
		}
	}
	require.NotNil(t, constFn)
	assert.Equal(t, 2, constFn.ArgCount)
	innerOps := opcodesOf(constFn)
	assert.Contains(t, innerOps, compiler.ADD)
	assert.Contains(t, innerOps, compiler.RETURN)
}

func TestCompileClosureCapturesEnclosingLocal(t *testing.T) {
	fn := mustCompile(t, `
		function makeCounter() {
			var count = 0;
			function inc() {
				count = count + 1;
				return count;
			}
			return inc;
		}
	`)
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.CLOSURE)
}

func TestCompileClassEmitsClassMethodAndConstructor(t *testing.T) {
	fn := mustCompile(t, `
		class Point {
			constructor(x, y) {
				this.x = x;
				this.y = y;
			}
			sum() => this.x + this.y;
		}
	`)
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.CLASS)
	assert.Contains(t, ops, compiler.METHOD)
}

func TestCompileClassWithSuperEmitsInherit(t *testing.T) {
	fn := mustCompile(t, `
		class Base { greet() => "hi"; }
		class Derived : Base {
			greet() => super.greet() + "!";
		}
	`)
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.INHERIT)
	assert.Contains(t, ops, compiler.INVOKE_SUPER)
}

func TestCompileBreakEmitsPopLocalsAndJump(t *testing.T) {
	fn := mustCompile(t, `
		while (true) {
			var a = 1;
			if (a == 1) { break; }
		}
	`)
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.POP_LOCALS)
	assert.Contains(t, ops, compiler.JUMP)
}

func TestCompileStringInterpolationUsesArrayAndJoin(t *testing.T) {
	fn := mustCompile(t, `var name = "world"; println("hello ${name}!");`)
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.ARRAY)
	assert.Contains(t, ops, compiler.INVOKE)
}

func TestCompileSubscriptGetAndSet(t *testing.T) {
	fn := mustCompile(t, `var a = [1,2,3]; a[0] = a[1];`)
	ops := opcodesOf(fn)
	assert.Contains(t, ops, compiler.SUBSCRIPT_GET)
	assert.Contains(t, ops, compiler.SUBSCRIPT_SET)
}

func TestCompileCompoundAssignToPropertyDuplicatesReceiver(t *testing.T) {
	fn := mustCompile(t, `
		class Counter {
			constructor() { this.n = 0; }
			bump() { this.n += 1; }
		}
	`)
	var method *compiler.Function
	for _, c := range fn.Chunk.Constants {
		if c.Is(value.KindFunction) {
			f := c.AsObj().(*compiler.Function)
			if f.Name == "bump" {
				method = f
			}
		}
	}
	require.NotNil(t, method)
	ops := opcodesOf(method)
	assert.Contains(t, ops, compiler.DUP)
	assert.Contains(t, ops, compiler.SET_FIELD)
}
