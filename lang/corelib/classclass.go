package corelib

import (
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// registerClassClass installs Class, the intrinsic class vm.classOf
// reports for a *value.Class receiver itself (e.g. `SomeClass.name` or
// `SomeClass is Class`), with a name property reading the underlying
// class's own Name field.
func registerClassClass(theVM *vm.VM) {
	cls := registerClass(theVM, "Class")

	property(theVM, cls, "name", func(innerVM *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		c, ok := asClassValue(recv)
		if !ok {
			return value.NullValue, vm.RuntimeErrorf("name read on a non-Class receiver")
		}
		return value.NewObj(innerVM.Heap.Intern(c.Name)), nil
	})
}

// asClassValue unwraps recv as a *value.Class, the receiver shape
// Class's own property getters see (a bare class value, not an
// instance of Class: classes are not instances of anything, they're
// just looked up via vm.classOf's KindClass branch).
func asClassValue(v value.Value) (*value.Class, bool) {
	if !v.IsObj() {
		return nil, false
	}
	c, ok := v.AsObj().(*value.Class)
	return c, ok
}
