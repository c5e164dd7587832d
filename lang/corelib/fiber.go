package corelib

import (
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// yieldSignal is the sentinel error a suspended yield/yeet returns
// instead of a normal error: it unwinds prepareMethodCall's native call
// immediately (per SPEC_FULL.md §4.7, a native runs to completion or
// fails, never yields on its own), but run recognizes it and stops
// there rather than reporting a runtime failure, stashing the yielded
// value on the target fiber for the resumer to retrieve.
type yieldSignal struct {
	target *vm.Fiber
	value  value.Value
	yeet   bool
}

func (yieldSignal) Error() string { return "fiber yield" }

// registerFiberClass wires Fiber as both a callable constructor
// (Fiber(fn), equivalent to new Fiber(fn) since compileCall/compileNew
// emit identical bytecode for a bare call) and a static method-dispatch
// target (Fiber.yield(v)), per SPEC_FULL.md §4.8 and §5. Its
// Initializer is a NativeMethod whose returned value is NOT overridden
// by prepareCall's completeAs mechanism (that override only applies to
// a pushed script frame's RETURN, never to a synchronous native call),
// so the constructor can hand back a genuine *vm.Fiber instead of the
// placeholder *value.Instance prepareCall allocated for it.
func registerFiberClass(theVM *vm.VM) {
	cls := registerClass(theVM, "Fiber")

	ctor := vm.NewNativeMethod("constructor", 1, func(theVM *vm.VM, fiber *vm.Fiber, _ value.Value, args []value.Value) (value.Value, error) {
		if !isCallable(args[0]) {
			return value.NullValue, vm.RuntimeErrorf("Fiber expects a callable, got %s", args[0].TypeName())
		}
		child := theVM.NewHeapFiber(fiber.Module, fiber)
		child.Entry = args[0]
		return value.NewObj(child), nil
	})
	cls.Initializer = value.NewObj(ctor)
	cls.Methods.Set("constructor", value.NewObj(ctor))

	cls.Methods.Set("run", value.NewObj(vm.NewPrimitiveMethod("run", 0, nativeFiberRun)))

	cls.Statics.Set("yield", method("yield", 1, func(theVM *vm.VM, fiber *vm.Fiber, _ value.Value, args []value.Value) (value.Value, error) {
		return value.NullValue, yieldSignal{target: fiber, value: args[0]}
	}))
	cls.Statics.Set("yeet", method("yeet", 1, func(theVM *vm.VM, fiber *vm.Fiber, _ value.Value, args []value.Value) (value.Value, error) {
		return value.NullValue, yieldSignal{target: fiber, value: args[0], yeet: true}
	}))
	cls.Statics.Set("abort", method("abort", 1, func(theVM *vm.VM, fiber *vm.Fiber, _ value.Value, args []value.Value) (value.Value, error) {
		msg, _ := displayString(theVM, fiber, args[0])
		return value.NullValue, vm.RuntimeErrorf("%s", msg)
	}))
}

// nativeFiberRun implements Fiber.run/Fiber.run(resumeValue): starting
// an unstarted fiber (Depth()==0, Status suspended) calls its Entry;
// resuming an already-started one (Depth()>0) pushes the resume value
// and continues its dispatch from where yield suspended it. A yield
// deep in the callee's call stack surfaces here as a yieldSignal error
// rather than a normal return; run recognizes it, marks the target
// fiber suspended, and returns the yielded value to ITS caller (the
// fiber that called .run()), per SPEC_FULL.md §4.8's "yield/yeet
// transfer to parent with a single return value".
func nativeFiberRun(theVM *vm.VM, callerFiber *vm.Fiber, recv value.Value, args []value.Value) (bool, error) {
	target, ok := recv.AsObj().(*vm.Fiber)
	if !ok {
		return false, vm.RuntimeErrorf("run called on a non-Fiber receiver")
	}
	if target.Status == vm.FiberDone {
		return false, vm.RuntimeErrorf("cannot run a finished fiber")
	}
	if target.Status == vm.FiberRunning {
		return false, vm.RuntimeErrorf("fiber is already running")
	}

	target.Status = vm.FiberRunning
	var result value.Value
	var err error
	if target.Depth() == 0 {
		entry := target.Entry
		target.Entry = value.NullValue
		result, err = theVM.CallOnFiber(target, entry, nil)
	} else {
		resumeValue := value.NullValue
		if len(args) > 0 {
			resumeValue = args[0]
		}
		result, err = theVM.ResumeFiber(target, resumeValue)
	}

	if ys, isYield := err.(yieldSignal); isYield && ys.target == target {
		if ys.yeet {
			target.Status = vm.FiberDone
		} else {
			target.Status = vm.FiberSuspended
		}
		callerFiber.PushResult(ys.value)
		return true, nil
	}

	if err != nil {
		target.Status = vm.FiberDone
		target.Abort = true
		target.Err = err
		if target.Catcher {
			callerFiber.PushResult(value.NullValue)
			return true, nil
		}
		return false, err
	}

	target.Status = vm.FiberDone
	callerFiber.PushResult(result)
	return true, nil
}
