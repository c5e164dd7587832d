package corelib

import (
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// registerStringClass builds the String intrinsic class: length (byte
// length, matching the scanner/subscript operator's byte-indexed
// view), toString/toNumber (the round-trip pair SPEC_FULL.md §8
// requires: Number.toString(x).toNumber == x for finite x, with "nan"/
// "+infinity"/"-infinity" round-tripping too), and the iterator pair,
// one byte per step.
func registerStringClass(theVM *vm.VM) {
	cls := registerClass(theVM, "String")

	property(theVM, cls, "length", func(_ *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		s, err := asString(recv)
		if err != nil {
			return value.NullValue, err
		}
		return value.NewNumber(float64(s.Len())), nil
	})

	cls.Methods.Set("toString", method("toString", 0, func(_ *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		if _, err := asString(recv); err != nil {
			return value.NullValue, err
		}
		return recv, nil
	}))

	cls.Methods.Set("toNumber", method("toNumber", 0, func(theVM *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		s, err := asString(recv)
		if err != nil {
			return value.NullValue, err
		}
		f, ok := parseNumber(s.String())
		if !ok {
			return value.NullValue, nil
		}
		return value.NewNumber(f), nil
	}))

	cls.Methods.Set("iterator", method("iterator", 1, func(_ *vm.VM, _ *vm.Fiber, recv value.Value, args []value.Value) (value.Value, error) {
		s, err := asString(recv)
		if err != nil {
			return value.NullValue, err
		}
		next := 0
		if !args[0].IsNull() {
			next = int(args[0].AsNumber()) + 1
		}
		if next >= s.Len() {
			return value.NullValue, nil
		}
		return value.NewNumber(float64(next)), nil
	}))

	cls.Methods.Set("iteratorValue", method("iteratorValue", 1, func(theVM *vm.VM, _ *vm.Fiber, recv value.Value, args []value.Value) (value.Value, error) {
		s, err := asString(recv)
		if err != nil {
			return value.NullValue, err
		}
		i := int(args[0].AsNumber())
		if i < 0 || i >= s.Len() {
			return value.NullValue, vm.RuntimeErrorf("string index %d out of range (len %d)", i, s.Len())
		}
		return value.NewObj(theVM.Heap.Intern(string(s.Bytes()[i : i+1]))), nil
	}))
}

func asString(v value.Value) (*value.String, error) {
	if v.IsObj() {
		if s, ok := v.AsObj().(*value.String); ok {
			return s, nil
		}
	}
	return nil, vm.RuntimeErrorf("expected a String receiver, got %s", v.TypeName())
}
