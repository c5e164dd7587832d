package corelib

import "github.com/mna/vesper/lang/vm"

// registerObjectClass installs Object as an explicitly-inheritable root
// (`class Foo : Object { ... }`) and as the target of `is Object`
// checks on instances that chose to inherit it. SPEC_FULL.md §4.7
// literally describes every class as defaulting to Object as its
// superclass when none is named; lang/compiler's CLASS/INHERIT pair
// only emits INHERIT when a `:Super` clause is present, so that default
// is not automatic here. Object still earns its place as a normal,
// nameable class for code that opts in explicitly, and as the common
// base corelib's own marker classes (Class, Module, Fiber, Function)
// could inherit if a future class hierarchy needs one; none currently
// do, since each is a leaf concept with its own intrinsic behavior.
func registerObjectClass(theVM *vm.VM) {
	registerClass(theVM, "Object")
}
