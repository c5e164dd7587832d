package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/gc"
	"github.com/mna/vesper/lang/parser"
	"github.com/mna/vesper/lang/value"
)

// mustRun compiles src the same way lang/compiler's own tests do
// (parser.Parse then compiler.Compile) and drives it to completion on
// a fresh heap and VM, returning the module's result value.
func mustRun(t *testing.T, src string) value.Value {
	t.Helper()
	v, err := runSrc(t, src)
	require.NoError(t, err)
	return v
}

func runSrc(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	chunk, perrs := parser.Parse([]byte(src))
	require.Equal(t, 0, perrs.Len(), "unexpected parse errors: %v", perrs)
	fn, cerrs := compiler.Compile(chunk, "test")
	require.Equal(t, 0, cerrs.Len(), "unexpected compile errors: %v", cerrs)

	heap := gc.NewHeap()
	theVM := NewVM(heap)
	mod := theVM.allocModule("test", fn)
	return theVM.RunModule(mod)
}

func TestArithmeticAndReturn(t *testing.T) {
	v := mustRun(t, "return 1 + 2 * 3;")
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(7), v.AsNumber())
}

func TestImplicitReturnIsNull(t *testing.T) {
	v := mustRun(t, "var x = 1;")
	assert.True(t, v.IsNull())
}

func TestIfElseBranches(t *testing.T) {
	v := mustRun(t, `
		var x = 10;
		if (x > 5) {
			return "big";
		} else {
			return "small";
		}
	`)
	require.True(t, v.IsObj())
	s, ok := v.AsObj().(*value.String)
	require.True(t, ok)
	assert.Equal(t, "big", s.String())
}

func TestWhileLoopAccumulates(t *testing.T) {
	v := mustRun(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		return sum;
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(10), v.AsNumber())
}

func TestBreakAndContinueInLoop(t *testing.T) {
	v := mustRun(t, `
		var i = 0;
		var sum = 0;
		while (true) {
			i = i + 1;
			if (i > 10) { break; }
			if (i == 3) { continue; }
			sum = sum + i;
		}
		return sum;
	`)
	require.True(t, v.IsNumber())
	// 1+2+4+5+6+7+8+9+10 = 52 (3 skipped by continue)
	assert.Equal(t, float64(52), v.AsNumber())
}

func TestFunctionCallAndRecursion(t *testing.T) {
	v := mustRun(t, `
		function fib(n) {
			if (n < 2) { return n; }
			return fib(n - 1) + fib(n - 2);
		}
		return fib(10);
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(55), v.AsNumber())
}

func TestClosureCapturesUpvalue(t *testing.T) {
	v := mustRun(t, `
		function makeCounter() {
			var count = 0;
			function inc() {
				count = count + 1;
				return count;
			}
			return inc;
		}
		var counter = makeCounter();
		counter();
		counter();
		return counter();
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(3), v.AsNumber())
}

func TestClassConstructorAndMethod(t *testing.T) {
	v := mustRun(t, `
		class Point {
			constructor(x, y) {
				this.x = x;
				this.y = y;
			}
			sum() => this.x + this.y;
		}
		var p = new Point(3, 4);
		return p.sum();
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(7), v.AsNumber())
}

func TestClassInheritanceAndSuperCall(t *testing.T) {
	v := mustRun(t, `
		class Animal {
			constructor(name) { this.name = name; }
			speak() => this.name + " makes a sound";
		}
		class Dog : Animal {
			speak() => super.speak() + ", specifically a bark";
		}
		var d = new Dog("Rex");
		return d.speak();
	`)
	require.True(t, v.IsObj())
	s, ok := v.AsObj().(*value.String)
	require.True(t, ok)
	assert.Equal(t, "Rex makes a sound, specifically a bark", s.String())
}

func TestSuperCallThroughMultipleInheritanceLevels(t *testing.T) {
	// Grandchild inherits speak() from Animal unchanged (Dog does not
	// override it); Puppy's own override must still resolve super to
	// Dog, not to whichever class happens to carry the flattened copy.
	v := mustRun(t, `
		class Animal {
			greet() => "animal";
		}
		class Dog : Animal {
		}
		class Puppy : Dog {
			greet() => super.greet() + "+puppy";
		}
		var p = new Puppy();
		return p.greet();
	`)
	require.True(t, v.IsObj())
	s, ok := v.AsObj().(*value.String)
	require.True(t, ok)
	assert.Equal(t, "animal+puppy", s.String())
}

func TestFieldGetSet(t *testing.T) {
	v := mustRun(t, `
		class Box {
			constructor(v) { this.value = v; }
		}
		var b = new Box(41);
		b.value = b.value + 1;
		return b.value;
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(42), v.AsNumber())
}

func TestCompoundAssignToFieldDuplicatesReceiverOnce(t *testing.T) {
	v := mustRun(t, `
		class Counter {
			constructor() { this.n = 0; }
			bump() { this.n += 1; }
		}
		var c = new Counter();
		c.bump();
		c.bump();
		c.bump();
		return c.n;
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(3), v.AsNumber())
}

func TestArraySubscriptGetAndSet(t *testing.T) {
	v := mustRun(t, `
		var a = [1, 2, 3];
		a[0] = a[1] + a[2];
		return a[0];
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(5), v.AsNumber())
}

func TestMapLiteralSubscript(t *testing.T) {
	v := mustRun(t, `
		var m = {"a": 1, "b": 2};
		m["c"] = m["a"] + m["b"];
		return m["c"];
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(3), v.AsNumber())
}

func TestOperatorOverloadingOnUserClass(t *testing.T) {
	v := mustRun(t, `
		class Vec {
			constructor(x, y) { this.x = x; this.y = y; }
			operator+(other) => new Vec(this.x + other.x, this.y + other.y);
		}
		var a = new Vec(1, 2);
		var b = new Vec(3, 4);
		var c = a + b;
		return c.x + c.y;
	`)
	require.True(t, v.IsNumber())
	assert.Equal(t, float64(10), v.AsNumber())
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := runSrc(t, "return 1 / 0;")
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "division by zero")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := runSrc(t, `
		function add(a, b) { return a + b; }
		return add(1);
	`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "expects")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := runSrc(t, `
		var x = 1;
		return x();
	`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "not callable")
}

func TestIsOperatorChecksInstanceOfClassChain(t *testing.T) {
	v := mustRun(t, `
		class Animal {}
		class Dog : Animal {}
		var d = new Dog();
		return d is Animal;
	`)
	assert.Equal(t, value.TrueValue, v)
}

func TestIsOperatorFalseForUnrelatedClass(t *testing.T) {
	v := mustRun(t, `
		class Animal {}
		class Rock {}
		var a = new Animal();
		return a is Rock;
	`)
	assert.Equal(t, value.FalseValue, v)
}
