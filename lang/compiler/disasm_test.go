package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/vesper/lang/compiler"
)

func TestDisassembleListsTopLevelCode(t *testing.T) {
	fn := mustCompile(t, `var a = 1 + 2; return a;`)
	out := compiler.Disassemble(fn)
	assert.Contains(t, out, "function: test")
	assert.Contains(t, out, "ADD")
	assert.Contains(t, out, "RETURN")
}

func TestDisassembleRecursesIntoNestedFunctions(t *testing.T) {
	fn := mustCompile(t, `function f() { return 1; } f();`)
	out := compiler.Disassemble(fn)
	assert.True(t, strings.Count(out, "function:") >= 2, "expected the top-level and nested function both disassembled")
}
