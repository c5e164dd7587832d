package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/bytecode"
	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/gc"
	"github.com/mna/vesper/lang/parser"
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

func compileModule(t *testing.T, name, src string) *vm.Module {
	t.Helper()
	chunk, perrs := parser.Parse([]byte(src))
	require.Equal(t, 0, perrs.Len(), "unexpected parse errors: %v", perrs)
	fn, cerrs := compiler.Compile(chunk, name)
	require.Equal(t, 0, cerrs.Len(), "unexpected compile errors: %v", cerrs)
	return vm.NewModule(name, fn)
}

func TestEncodeDecodeRoundTripsHeader(t *testing.T) {
	mod := compileModule(t, "main", `var x = 1 + 2;`)
	b, err := bytecode.Encode([]*vm.Module{mod})
	require.NoError(t, err)
	assert.Equal(t, byte(0x1B), b[0])
	assert.Equal(t, byte(0x14), b[1])
	assert.Equal(t, byte(0), b[2]) // version

	decoded, err := bytecode.Decode(b)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "main", decoded[0].Name)
	assert.Equal(t, 0, decoded[0].PrivateNames["x"])
}

func TestEncodeDecodeRoundTripsFunctionBodyAndRuns(t *testing.T) {
	mod := compileModule(t, "math", `
		function add(a, b) { return a + b; }
		return add(19, 23);
	`)
	b, err := bytecode.Encode([]*vm.Module{mod})
	require.NoError(t, err)

	decoded, err := bytecode.Decode(b)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	heap := gc.NewHeap()
	theVM := vm.NewVM(heap)
	result, err := theVM.RunModule(decoded[0])
	require.NoError(t, err)
	require.True(t, result.IsNumber())
	assert.Equal(t, float64(42), result.AsNumber())
}

func TestEncodeDecodeRoundTripsStringAndNestedFunctionConstants(t *testing.T) {
	mod := compileModule(t, "strings", `
		function greet(name) { return "hello " + name; }
		return greet("world");
	`)
	b, err := bytecode.Encode([]*vm.Module{mod})
	require.NoError(t, err)

	decoded, err := bytecode.Decode(b)
	require.NoError(t, err)

	heap := gc.NewHeap()
	theVM := vm.NewVM(heap)
	result, err := theVM.RunModule(decoded[0])
	require.NoError(t, err)
	require.True(t, result.IsObj())
	s, ok := result.AsObj().(*value.String)
	require.True(t, ok)
	assert.Equal(t, "hello world", s.String())
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := bytecode.Decode([]byte{0, 0, 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	mod := compileModule(t, "main", `var x = 1;`)
	b, err := bytecode.Encode([]*vm.Module{mod})
	require.NoError(t, err)

	_, err = bytecode.Decode(b[:len(b)-4])
	require.Error(t, err)
}

func TestEncodeDecodeMultipleModules(t *testing.T) {
	a := compileModule(t, "a", `var x = 1;`)
	b := compileModule(t, "b", `var y = 2;`)
	buf, err := bytecode.Encode([]*vm.Module{a, b})
	require.NoError(t, err)

	decoded, err := bytecode.Decode(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "a", decoded[0].Name)
	assert.Equal(t, "b", decoded[1].Name)
}
