package corelib

import (
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// registerBoolClass installs toString for completeness with Number's;
// Bool has no other intrinsic behavior.
func registerBoolClass(theVM *vm.VM) {
	cls := registerClass(theVM, "Bool")

	cls.Methods.Set("toString", method("toString", 0, func(innerVM *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		if !recv.IsBool() {
			return value.NullValue, vm.RuntimeErrorf("toString called on a non-Bool receiver")
		}
		if recv.AsBool() {
			return value.NewObj(innerVM.Heap.Intern("true")), nil
		}
		return value.NewObj(innerVM.Heap.Intern("false")), nil
	}))
}
