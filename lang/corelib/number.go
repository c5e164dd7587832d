package corelib

import (
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// registerNumberClass installs toString, satisfying SPEC_FULL.md §8's
// round-trip law together with String.toNumber: formatNumber and
// parseNumber share the same NaN/infinity spellings on both sides.
func registerNumberClass(theVM *vm.VM) {
	cls := registerClass(theVM, "Number")

	cls.Methods.Set("toString", method("toString", 0, func(innerVM *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		if !recv.IsNumber() {
			return value.NullValue, vm.RuntimeErrorf("toString called on a non-Number receiver")
		}
		return value.NewObj(innerVM.Heap.NewString(formatNumber(recv.AsNumber()))), nil
	}))
}
