// Package corelib registers SPEC_FULL.md §2's Core Classes (Object,
// Class, String, Array, Map, Range, Fiber, Module, Function, Number,
// Bool) and the two global functions (print, println) a freshly built
// lang/vm.VM needs before running any script, the way lang/vm's own
// run.go expects: every built-in class lives in vm.Heap.BuiltinClasses
// under the name value.Value.TypeName() produces for its kind, and
// every global identifier lives in vm.Heap.Globals.
//
// The teacher has no standard-library layer of its own (lang/machine
// relies entirely on Starlark-style builtin.Function values wired ad
// hoc per embedding); this package is built directly from SPEC_FULL.md
// §2, §4.4 (for-in's iterator/iteratorValue protocol), and §8's
// end-to-end scenarios (sort, join, Fiber.yield/run, property-style
// length) rather than adapted from an existing file.
package corelib

import (
	"fmt"
	"strconv"

	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// Register installs every built-in class and global function into
// theVM's heap. Call it once per VM, before compiling or running any
// module against it.
func Register(theVM *vm.VM) {
	registerObjectClass(theVM)
	registerClassClass(theVM)
	registerNumberClass(theVM)
	registerBoolClass(theVM)
	registerStringClass(theVM)
	registerArrayClass(theVM)
	registerMapClass(theVM)
	registerRangeClass(theVM)
	registerFiberClass(theVM)
	registerModuleClass(theVM)
	registerFunctionClass(theVM)

	theVM.Heap.Globals.Set("print", value.NewObj(vm.NewNativeFunction("print", 1, nativePrint)))
	theVM.Heap.Globals.Set("println", value.NewObj(vm.NewNativeFunction("println", 1, nativePrintln)))
}

// registerClass creates a class under name, stores it both as a global
// (so "ClassName" resolves as an expression, e.g. for `is ClassName` or
// explicit `:ClassName` inheritance) and as the intrinsic class
// vm.classOf(v) finds for any value whose TypeName() is name.
func registerClass(theVM *vm.VM, name string) *value.Class {
	cls := theVM.Heap.NewClass(name)
	theVM.Heap.Globals.Set(name, value.NewObj(cls))
	theVM.Heap.BuiltinClasses[name] = cls
	return cls
}

func method(name string, arity int, fn vm.NativeMethodFn) value.Value {
	return value.NewObj(vm.NewNativeMethod(name, arity, fn))
}

// property registers a read-only computed field (SPEC_FULL.md's
// `s.length` syntax, a plain property read rather than a call) backed
// by a zero-arity native getter.
func property(theVM *vm.VM, cls *value.Class, name string, get vm.NativeMethodFn) {
	getter := vm.NewNativeMethod(name, 0, get)
	cls.Methods.Set(name, value.NewObj(theVM.Heap.NewField(value.NewObj(getter), value.NullValue)))
}

func nativePrint(theVM *vm.VM, fiber *vm.Fiber, args []value.Value) (value.Value, error) {
	s, err := displayString(theVM, fiber, args[0])
	if err != nil {
		return value.NullValue, err
	}
	fmt.Fprint(theVM.Writer(), s)
	return value.NullValue, nil
}

func nativePrintln(theVM *vm.VM, fiber *vm.Fiber, args []value.Value) (value.Value, error) {
	s, err := displayString(theVM, fiber, args[0])
	if err != nil {
		return value.NullValue, err
	}
	fmt.Fprintln(theVM.Writer(), s)
	return value.NullValue, nil
}

// displayString renders v the way print/println/Array.join (with no
// separator, per string interpolation's bare "INVOKE 0 join") and
// string interpolation pieces need: numbers print without the
// trailing-".0" formatFloat avoids (duplicated here rather than
// exported from lang/value, since lang/value must not grow a
// corelib-shaped public surface just for this), containers recurse and
// truncate to 10 entries plus an ellipsis, per SPEC_FULL.md §8's
// boundary behaviours.
// Display renders v the same way println does, including the
// toString-method dispatch and container truncation. Exposed for hosts
// (the CLI's REPL echo, bytecode disassembly) that need the same
// formatting outside of a print/println call.
func Display(theVM *vm.VM, fiber *vm.Fiber, v value.Value) (string, error) {
	return displayString(theVM, fiber, v)
}

func displayString(theVM *vm.VM, fiber *vm.Fiber, v value.Value) (string, error) {
	switch {
	case v.IsNull():
		return "null", nil
	case v.IsBool():
		if v.AsBool() {
			return "true", nil
		}
		return "false", nil
	case v.IsNumber():
		return formatNumber(v.AsNumber()), nil
	}

	switch o := v.AsObj().(type) {
	case *value.String:
		return o.String(), nil
	case *value.Array:
		return displayArray(theVM, fiber, o)
	case *value.Map:
		return displayMap(theVM, fiber, o)
	case *value.Range:
		return o.String(), nil
	case *value.Instance:
		if m, ok := o.Class.FindMethod("toString"); ok {
			result, err := theVM.CallOnFiber(fiber, value.NewObj(theVM.Heap.NewBoundMethod(v, m)), nil)
			if err != nil {
				return "", err
			}
			return displayString(theVM, fiber, result)
		}
		return o.Class.Name, nil
	default:
		return v.TypeName(), nil
	}
}

const maxDisplayEntries = 10

func displayArray(theVM *vm.VM, fiber *vm.Fiber, a *value.Array) (string, error) {
	if a.Len() == 0 {
		return "[]", nil
	}
	n := a.Len()
	truncated := n > maxDisplayEntries
	if truncated {
		n = maxDisplayEntries
	}
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ", "
		}
		s, err := displayString(theVM, fiber, a.Elems[i])
		if err != nil {
			return "", err
		}
		out += s
	}
	if truncated {
		out += ", ..."
	}
	return out + "]", nil
}

func displayMap(theVM *vm.VM, fiber *vm.Fiber, m *value.Map) (string, error) {
	if m.Len() == 0 {
		return "{}", nil
	}
	keys := snapshotKeys(m)
	n := len(keys)
	truncated := n > maxDisplayEntries
	if truncated {
		n = maxDisplayEntries
	}
	out := "{"
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ", "
		}
		v, _ := m.Get(keys[i])
		s, err := displayString(theVM, fiber, v)
		if err != nil {
			return "", err
		}
		out += keys[i] + ": " + s
	}
	if truncated {
		out += ", ..."
	}
	return out + "}", nil
}

// formatNumber renders a float the way Number.toString does: integral
// values print with no decimal point, NaN and the infinities use
// SPEC_FULL.md §8's round-trip law spellings ("nan", "+infinity",
// "-infinity") rather than Go's "NaN"/"+Inf"/"-Inf".
func formatNumber(f float64) string {
	switch {
	case f != f: // NaN
		return "nan"
	case f > 0 && f*0 != 0: // +Inf
		return "+infinity"
	case f < 0 && f*0 != 0: // -Inf
		return "-infinity"
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func parseNumber(s string) (float64, bool) {
	switch s {
	case "nan":
		return nan(), true
	case "+infinity", "infinity":
		return inf(1), true
	case "-infinity":
		return inf(-1), true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func inf(sign int) float64 {
	one := 1.0
	zero := 0.0
	if sign < 0 {
		one = -1.0
	}
	return one / zero
}

func isCallable(v value.Value) bool {
	if !v.IsObj() {
		return false
	}
	switch v.AsObj().(type) {
	case *compiler.Function, *vm.Closure, *value.BoundMethod, *vm.NativeFunction, *vm.NativePrimitive:
		return true
	default:
		return false
	}
}
