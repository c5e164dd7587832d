package corelib

import (
	"sort"

	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// registerArrayClass builds the Array intrinsic class: length (a
// property, not a call), push/pop, sort (in place; numbers compare
// numerically and strings lexicographically, and an array mixing
// kinds is a runtime error, see lessValues), join (0 args uses ""
// as separator to match string interpolation's bare INVOKE 0 "join"
// lowering; 1 arg is an explicit separator, per SPEC_FULL.md §8
// scenario 2's a.join(",")), and the iterator/iteratorValue pair for-in
// drives.
func registerArrayClass(theVM *vm.VM) {
	cls := registerClass(theVM, "Array")

	property(theVM, cls, "length", func(_ *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		a, err := asArray(recv)
		if err != nil {
			return value.NullValue, err
		}
		return value.NewNumber(float64(a.Len())), nil
	})

	cls.Methods.Set("push", method("push", 1, func(_ *vm.VM, _ *vm.Fiber, recv value.Value, args []value.Value) (value.Value, error) {
		a, err := asArray(recv)
		if err != nil {
			return value.NullValue, err
		}
		a.Push(args[0])
		return value.NullValue, nil
	}))

	cls.Methods.Set("pop", method("pop", 0, func(_ *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		a, err := asArray(recv)
		if err != nil {
			return value.NullValue, err
		}
		v, ok := a.Pop()
		if !ok {
			return value.NullValue, nil
		}
		return v, nil
	}))

	cls.Methods.Set("sort", method("sort", 0, func(_ *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		a, err := asArray(recv)
		if err != nil {
			return value.NullValue, err
		}
		var sortErr error
		sort.SliceStable(a.Elems, func(i, j int) bool {
			less, err := lessValues(a.Elems[i], a.Elems[j])
			if err != nil && sortErr == nil {
				sortErr = err
			}
			return less
		})
		if sortErr != nil {
			return value.NullValue, sortErr
		}
		return recv, nil
	}))

	cls.Methods.Set("join", value.NewObj(vm.NewPrimitiveMethod("join", 0, func(theVM *vm.VM, fiber *vm.Fiber, recv value.Value, args []value.Value) (bool, error) {
		a, err := asArray(recv)
		if err != nil {
			return false, err
		}
		sep := ""
		if len(args) > 0 {
			s, err := asString(args[0])
			if err != nil {
				return false, err
			}
			sep = s.String()
		}
		out := ""
		for i, v := range a.Elems {
			if i > 0 {
				out += sep
			}
			s, err := displayString(theVM, fiber, v)
			if err != nil {
				return false, err
			}
			out += s
		}
		fiber.PushResult(value.NewObj(theVM.Heap.NewString(out)))
		return true, nil
	})))

	cls.Methods.Set("iterator", method("iterator", 1, func(_ *vm.VM, _ *vm.Fiber, recv value.Value, args []value.Value) (value.Value, error) {
		a, err := asArray(recv)
		if err != nil {
			return value.NullValue, err
		}
		next := 0
		if !args[0].IsNull() {
			next = int(args[0].AsNumber()) + 1
		}
		if next >= a.Len() {
			return value.NullValue, nil
		}
		return value.NewNumber(float64(next)), nil
	}))

	cls.Methods.Set("iteratorValue", method("iteratorValue", 1, func(_ *vm.VM, _ *vm.Fiber, recv value.Value, args []value.Value) (value.Value, error) {
		a, err := asArray(recv)
		if err != nil {
			return value.NullValue, err
		}
		return a.Get(int(args[0].AsNumber()))
	}))
}

func asArray(v value.Value) (*value.Array, error) {
	if v.IsObj() {
		if a, ok := v.AsObj().(*value.Array); ok {
			return a, nil
		}
	}
	return nil, vm.RuntimeErrorf("expected an Array receiver, got %s", v.TypeName())
}

// lessValues orders two array elements for sort: numbers compare
// numerically, strings lexicographically by byte content; mixing kinds
// is a runtime error rather than an arbitrary tie-break.
func lessValues(a, b value.Value) (bool, error) {
	if a.IsNumber() && b.IsNumber() {
		return a.AsNumber() < b.AsNumber(), nil
	}
	as, aok := asStringObj(a)
	bs, bok := asStringObj(b)
	if aok && bok {
		return as.String() < bs.String(), nil
	}
	return false, vm.RuntimeErrorf("cannot compare %s and %s", a.TypeName(), b.TypeName())
}

func asStringObj(v value.Value) (*value.String, bool) {
	if !v.IsObj() {
		return nil, false
	}
	s, ok := v.AsObj().(*value.String)
	return s, ok
}
