package vm

import (
	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/value"
)

// checkArity enforces a script function's arity: exactly argCount
// arguments for a non-vararg function, at least argCount for a vararg
// one (the trailing extras are packed into an array, per pushCallFrame).
func checkArity(name string, argCount int, vararg bool, got int) error {
	if vararg {
		if got < argCount {
			return runtimeErrorf(0, "%s expects at least %d argument(s), got %d", name, argCount, got)
		}
		return nil
	}
	if got != argCount {
		return runtimeErrorf(0, "%s expects %d argument(s), got %d", name, argCount, got)
	}
	return nil
}

// pushCallFrame lays out a new frame's locals on fiber's stack and
// pushes the frame: slot 0 is the receiver (this) for a method call, or
// null for a plain function; slots 1..argCount are the fixed
// parameters; for a vararg function, any arguments past argCount are
// packed into an Array occupying the next slot. completeAs, when set,
// overrides RETURN's result with this value once the frame finishes
// (used for class construction: the initializer's own return value is
// discarded in favor of the freshly built instance).
func (vm *VM) pushCallFrame(fiber *Fiber, fn *compiler.Function, closure *Closure, receiver value.Value, args []value.Value, ignoreResult bool, completeAs *value.Instance) {
	base := len(fiber.stack)
	fiber.ensureStack(fn.MaxSlots)

	fiber.push(receiver)
	fixed := fn.ArgCount
	for i := 0; i < fixed; i++ {
		fiber.push(args[i])
	}
	if fn.Vararg {
		var rest []value.Value
		if len(args) > fixed {
			rest = append(rest, args[fixed:]...)
		}
		fiber.push(value.NewObj(vm.Heap.NewArray(rest)))
	}

	fiber.pushFrame(CallFrame{
		Fn:            fn,
		Closure:       closure,
		Base:          base,
		ResultIgnored: ignoreResult,
		CompleteAs:    completeAs,
	})
}

// prepareCall resolves callee against args, dispatching across the
// seven callable kinds CALL/INVOKE recognize, per SPEC_FULL.md §4.7.
// When it pushes a script-level frame, the caller (the CALL/INVOKE
// opcode handler, already inside the dispatch loop) simply keeps
// looping: the new frame runs inline, no Go-level recursion involved.
// Native calls and class construction with no initializer run to
// completion and return their result value directly, pushed=false;
// a constructor call with an initializer pushes a frame for it like
// any other method call, with completeAs set so RETURN yields the
// instance instead of the initializer's own result.
func (vm *VM) prepareCall(fiber *Fiber, callee value.Value, args []value.Value, ignoreResult bool) (result value.Value, pushed bool, err error) {
	if !callee.IsObj() {
		return value.NullValue, false, runtimeErrorf(0, "%s is not callable", callee.TypeName())
	}
	switch c := callee.AsObj().(type) {
	case *compiler.Function:
		if err := checkArity(c.Name, c.ArgCount, c.Vararg, len(args)); err != nil {
			return value.NullValue, false, err
		}
		vm.pushCallFrame(fiber, c, nil, value.NullValue, args, ignoreResult, nil)
		return value.NullValue, true, nil

	case *Closure:
		if err := checkArity(c.Fn.Name, c.Fn.ArgCount, c.Fn.Vararg, len(args)); err != nil {
			return value.NullValue, false, err
		}
		vm.pushCallFrame(fiber, c.Fn, c, value.NullValue, args, ignoreResult, nil)
		return value.NullValue, true, nil

	case *NativeFunction:
		if err := checkArity(c.Name, c.Arity, false, len(args)); err != nil {
			return value.NullValue, false, err
		}
		vm.Heap.DisableGC()
		v, err := c.Fn(vm, fiber, args)
		vm.Heap.EnableGC()
		return v, false, err

	case *NativePrimitive:
		vm.Heap.DisableGC()
		consumed, err := c.Fn(vm, fiber, args)
		vm.Heap.EnableGC()
		if err != nil {
			return value.NullValue, false, err
		}
		if consumed {
			return fiber.pop(), false, nil
		}
		return value.NullValue, false, nil

	case *value.BoundMethod:
		return vm.prepareMethodCall(fiber, c.Receiver, c.Method, args, ignoreResult, nil)

	case *value.Class:
		inst := vm.Heap.NewInstance(c)
		if c.Initializer.IsNull() {
			if len(args) != 0 {
				return value.NullValue, false, runtimeErrorf(0, "%s takes no arguments", c.Name)
			}
			return value.NewObj(inst), false, nil
		}
		return vm.prepareMethodCall(fiber, value.NewObj(inst), c.Initializer, args, ignoreResult, inst)

	default:
		return value.NullValue, false, runtimeErrorf(0, "%s is not callable", callee.TypeName())
	}
}

// prepareMethodCall is prepareCall's receiver-bound counterpart, used
// directly by INVOKE/INVOKE_SUPER (which resolve a method without ever
// materializing a BoundMethod) and by the BoundMethod/constructor
// branches above that unwrap to it.
func (vm *VM) prepareMethodCall(fiber *Fiber, receiver value.Value, method value.Value, args []value.Value, ignoreResult bool, completeAs *value.Instance) (value.Value, bool, error) {
	if !method.IsObj() {
		return value.NullValue, false, runtimeErrorf(0, "%s is not callable", method.TypeName())
	}
	switch c := method.AsObj().(type) {
	case *compiler.Function:
		if err := checkArity(c.Name, c.ArgCount, c.Vararg, len(args)); err != nil {
			return value.NullValue, false, err
		}
		vm.pushCallFrame(fiber, c, nil, receiver, args, ignoreResult, completeAs)
		return value.NullValue, true, nil
	case *Closure:
		if err := checkArity(c.Fn.Name, c.Fn.ArgCount, c.Fn.Vararg, len(args)); err != nil {
			return value.NullValue, false, err
		}
		vm.pushCallFrame(fiber, c.Fn, c, receiver, args, ignoreResult, completeAs)
		return value.NullValue, true, nil
	case *NativeMethod:
		if err := checkArity(c.Name, c.Arity, false, len(args)); err != nil {
			return value.NullValue, false, err
		}
		vm.Heap.DisableGC()
		v, err := c.Fn(vm, fiber, receiver, args)
		vm.Heap.EnableGC()
		return v, false, err
	case *PrimitiveMethod:
		vm.Heap.DisableGC()
		consumed, err := c.Fn(vm, fiber, receiver, args)
		vm.Heap.EnableGC()
		if err != nil {
			return value.NullValue, false, err
		}
		if consumed {
			return fiber.pop(), false, nil
		}
		return value.NullValue, false, nil
	default:
		return value.NullValue, false, runtimeErrorf(0, "%s is not callable", method.TypeName())
	}
}

// callSync runs callee(args) to completion and returns its single
// result value, used by native code paths (a Field getter/setter, a
// corelib callback like Array.sort's comparator) that need a
// synchronous call out of Go code rather than inline dispatch-loop
// continuation.
func (vm *VM) callSync(fiber *Fiber, callee value.Value, args []value.Value) (value.Value, error) {
	result, pushed, err := vm.prepareCall(fiber, callee, args, false)
	if err != nil || !pushed {
		return result, err
	}
	return runFrom(vm, fiber, len(fiber.frames)-1)
}
