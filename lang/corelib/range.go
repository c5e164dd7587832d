package corelib

import (
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// registerRangeClass builds the Range intrinsic class: just the for-in
// iterator pair, inclusive of To in both directions (SPEC_FULL.md §8
// scenario 6: `for (var i in 0..3) print(i)` prints "0123", four
// values, not three).
func registerRangeClass(theVM *vm.VM) {
	cls := registerClass(theVM, "Range")

	cls.Methods.Set("iterator", method("iterator", 1, func(_ *vm.VM, _ *vm.Fiber, recv value.Value, args []value.Value) (value.Value, error) {
		r, err := asRange(recv)
		if err != nil {
			return value.NullValue, err
		}
		step := 1.0
		if !r.Ascending() {
			step = -1.0
		}
		var next float64
		if args[0].IsNull() {
			next = r.From
		} else {
			next = args[0].AsNumber() + step
		}
		if r.Ascending() && next > r.To {
			return value.NullValue, nil
		}
		if !r.Ascending() && next < r.To {
			return value.NullValue, nil
		}
		return value.NewNumber(next), nil
	}))

	cls.Methods.Set("iteratorValue", method("iteratorValue", 1, func(_ *vm.VM, _ *vm.Fiber, _ value.Value, args []value.Value) (value.Value, error) {
		return args[0], nil
	}))
}

func asRange(v value.Value) (*value.Range, error) {
	if v.IsObj() {
		if r, ok := v.AsObj().(*value.Range); ok {
			return r, nil
		}
	}
	return nil, vm.RuntimeErrorf("expected a Range receiver, got %s", v.TypeName())
}
