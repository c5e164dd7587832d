package corelib_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/corelib"
	"github.com/mna/vesper/lang/gc"
	"github.com/mna/vesper/lang/parser"
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// newVM builds a heap/VM pair with every core class registered, the
// shape every script in this file runs against.
func newVM(t *testing.T) (*vm.VM, *bytes.Buffer) {
	t.Helper()
	heap := gc.NewHeap()
	theVM := vm.NewVM(heap)
	corelib.Register(theVM)
	var out bytes.Buffer
	theVM.Stdout = &out
	return theVM, &out
}

func runSrc(t *testing.T, theVM *vm.VM, src string) (value.Value, error) {
	t.Helper()
	chunk, perrs := parser.Parse([]byte(src))
	require.Equal(t, 0, perrs.Len(), "unexpected parse errors: %v", perrs)
	fn, cerrs := compiler.Compile(chunk, "test")
	require.Equal(t, 0, cerrs.Len(), "unexpected compile errors: %v", cerrs)
	mod := vm.NewModule("test", fn)
	return theVM.RunModule(mod)
}

func mustRun(t *testing.T, theVM *vm.VM, src string) value.Value {
	t.Helper()
	v, err := runSrc(t, theVM, src)
	require.NoError(t, err)
	return v
}

// TestPrintlnArithmetic covers SPEC_FULL.md §8 scenario 1.
func TestPrintlnArithmetic(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `println(1 + 2 * 3);`)
	assert.Equal(t, "7\n", out.String())
}

// TestArraySortAndJoin covers §8 scenario 2.
func TestArraySortAndJoin(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `
		var a = [3, 1, 2];
		a.sort();
		println(a.join(","));
	`)
	assert.Equal(t, "1,2,3\n", out.String())
}

// TestClassConstructorAndMethod covers §8 scenario 3.
func TestClassConstructorAndMethod(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `
		class A {
			constructor() { this.x = 1; }
			get() => this.x;
		}
		println(new A().get());
	`)
	assert.Equal(t, "1\n", out.String())
}

// TestFiberYieldAndRun covers §8 scenario 4, the cooperative
// suspend/resume mechanism's core demonstration.
func TestFiberYieldAndRun(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `
		var f = Fiber(() => { Fiber.yield(42); });
		println(f.run());
	`)
	assert.Equal(t, "42\n", out.String())
}

// TestFiberResumeValue checks that a second run() call resumes past
// the yield point rather than restarting, and that the resume value
// flows back as yield's own return value.
func TestFiberResumeValue(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `
		var f = Fiber(() => {
			var got = Fiber.yield(1);
			println(got);
			return got + 1;
		});
		println(f.run());
		println(f.run(41));
	`)
	assert.Equal(t, "1\n41\n42\n", out.String())
}

// TestStringInterpolationLength covers §8 scenario 5: no-parens
// property access for String.length.
func TestStringInterpolationLength(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `
		var s = "hi";
		println("${s} ${s.length}");
	`)
	assert.Equal(t, "hi 2\n", out.String())
}

// TestRangeForInInclusive covers §8 scenario 6: Range iteration is
// inclusive of its upper bound.
func TestRangeForInInclusive(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `for (var i in 0..3) print(i);`)
	assert.Equal(t, "0123", out.String())
}

// TestMapForInBindsKeys exercises the Map for-in cursor design: the
// loop variable is bound to each key (Python-dict-style), and every
// key is visited exactly once regardless of Each's iteration order.
func TestMapForInBindsKeys(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `
		var m = {"a": 1, "b": 2, "c": 3};
		var seen = [];
		for (var k in m) seen.push(k);
		seen.sort();
		println(seen.join(","));
	`)
	assert.Equal(t, "a,b,c\n", out.String())
}

// TestNumberStringRoundTrip covers §8's round-trip law.
func TestNumberStringRoundTrip(t *testing.T) {
	theVM, _ := newVM(t)
	v := mustRun(t, theVM, `return (1.5).toString().toNumber();`)
	require.True(t, v.IsNumber())
	assert.Equal(t, 1.5, v.AsNumber())
}

// TestEmptyContainerDisplay covers §8's boundary behaviour for empty
// arrays/maps.
func TestEmptyContainerDisplay(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `println([]); println({});`)
	assert.Equal(t, "[]\n{}\n", out.String())
}

// TestArrayDisplayTruncatesAt10 covers §8's container-truncation
// boundary behaviour.
func TestArrayDisplayTruncatesAt10(t *testing.T) {
	theVM, out := newVM(t)
	mustRun(t, theVM, `
		var a = [];
		var i = 0;
		while (i < 12) { a.push(i); i = i + 1; }
		println(a);
	`)
	assert.Equal(t, "[0, 1, 2, 3, 4, 5, 6, 7, 8, 9, ...]\n", out.String())
}

func TestArrayPushPop(t *testing.T) {
	theVM, _ := newVM(t)
	v := mustRun(t, theVM, `
		var a = [1, 2];
		a.push(3);
		var last = a.pop();
		return [a.length, last];
	`)
	arr, ok := v.AsObj().(*value.Array)
	require.True(t, ok)
	require.Equal(t, 2, arr.Len())
	assert.Equal(t, float64(2), arr.Elems[0].AsNumber())
	assert.Equal(t, float64(3), arr.Elems[1].AsNumber())
}
