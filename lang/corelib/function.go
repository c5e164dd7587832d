package corelib

import (
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// registerFunctionClass installs Function as the intrinsic class for
// both bare (upvalue-free) functions and closures: vm.classOf keys
// purely off value.Value.TypeName(), which reports "Function" for a
// *compiler.Function and "Closure" for a *Closure (its ObjKind), so the
// same class is registered under both names rather than picking one
// and leaving the other unclassed.
func registerFunctionClass(theVM *vm.VM) {
	cls := theVM.Heap.NewClass("Function")
	theVM.Heap.Globals.Set("Function", value.NewObj(cls))
	theVM.Heap.BuiltinClasses["Function"] = cls
	theVM.Heap.BuiltinClasses["Closure"] = cls
}

// registerModuleClass installs Module with a name property, letting
// script code read an imported module's name back (e.g. for error
// messages); modules carry no other intrinsic behavior.
func registerModuleClass(theVM *vm.VM) {
	cls := registerClass(theVM, "Module")

	property(theVM, cls, "name", func(innerVM *vm.VM, _ *vm.Fiber, recv value.Value, _ []value.Value) (value.Value, error) {
		mod, ok := recv.AsObj().(*vm.Module)
		if !ok {
			return value.NullValue, vm.RuntimeErrorf("name read on a non-Module receiver")
		}
		return value.NewObj(innerVM.Heap.Intern(mod.Name)), nil
	})
}
