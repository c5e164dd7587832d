package vm

import "github.com/mna/vesper/lang/value"

// NativeFn is a host function called by CALL, run with the fiber's heap
// GC temporarily disabled (per SPEC_FULL.md §4.7, "a native function
// runs with a temporarily disabled GC"); it returns exactly one value.
type NativeFn func(vm *VM, fiber *Fiber, args []value.Value) (value.Value, error)

// NativePrimitiveFn is a lower-level host function that may write
// directly to the fiber's stack to push more than one result; its
// boolean return tells the VM whether it already did so (true) or
// wants the normal single-value push (false, in which case the
// returned value is ignored and null is pushed instead).
type NativePrimitiveFn func(vm *VM, fiber *Fiber, args []value.Value) (consumed bool, err error)

// NativeMethodFn and NativePrimitiveMethodFn are the receiver-taking
// counterparts, invoked through INVOKE/GET_FIELD-then-CALL on an
// instance or intrinsic-class value.
type NativeMethodFn func(vm *VM, fiber *Fiber, receiver value.Value, args []value.Value) (value.Value, error)
type NativePrimitiveMethodFn func(vm *VM, fiber *Fiber, receiver value.Value, args []value.Value) (consumed bool, err error)

type NativeFunction struct {
	value.Object
	Name  string
	Arity int
	Fn    NativeFn
}

var _ value.Obj = (*NativeFunction)(nil)

func NewNativeFunction(name string, arity int, fn NativeFn) *NativeFunction {
	return &NativeFunction{Object: value.NewObject(value.KindNativeFunction), Name: name, Arity: arity, Fn: fn}
}

type NativePrimitive struct {
	value.Object
	Name  string
	Arity int
	Fn    NativePrimitiveFn
}

var _ value.Obj = (*NativePrimitive)(nil)

func NewNativePrimitive(name string, arity int, fn NativePrimitiveFn) *NativePrimitive {
	return &NativePrimitive{Object: value.NewObject(value.KindNativePrimitive), Name: name, Arity: arity, Fn: fn}
}

type NativeMethod struct {
	value.Object
	Name  string
	Arity int
	Fn    NativeMethodFn
}

var _ value.Obj = (*NativeMethod)(nil)

func NewNativeMethod(name string, arity int, fn NativeMethodFn) *NativeMethod {
	return &NativeMethod{Object: value.NewObject(value.KindNativeMethod), Name: name, Arity: arity, Fn: fn}
}

type PrimitiveMethod struct {
	value.Object
	Name  string
	Arity int
	Fn    NativePrimitiveMethodFn
}

var _ value.Obj = (*PrimitiveMethod)(nil)

func NewPrimitiveMethod(name string, arity int, fn NativePrimitiveMethodFn) *PrimitiveMethod {
	return &PrimitiveMethod{Object: value.NewObject(value.KindPrimitiveMethod), Name: name, Arity: arity, Fn: fn}
}
