package vm

import (
	"io"
	"os"

	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/gc"
	"github.com/mna/vesper/lang/value"
)

// VM ties together the heap (allocation, interning, GC roots) and the
// currently running fiber. It is deliberately small: dispatch lives in
// run.go, call-kind resolution in call.go, property resolution in
// fields.go, and corelib registers the built-in classes this type
// looks callees and intrinsic methods up against.
type VM struct {
	Heap *gc.Heap

	// Stdout is where corelib's print/println natives write. Nil means
	// os.Stdout, mirroring the teacher's Thread.Stdout convention of
	// defaulting a nil writer rather than requiring every caller to set
	// one explicitly.
	Stdout io.Writer

	// definingSuper records, for each compiled method Function, the
	// superclass in effect where that method was declared (cls.Super at
	// the moment the METHOD opcode stored it into cls.Methods). Class.
	// Inherit copies method table entries down into every subclass
	// (lang/value/class.go), so a runtime search for "which class in the
	// receiver's chain owns this Function" would find the nearest copy,
	// not the declaring one; recording the super at declaration time
	// sidesteps that and gives INVOKE_SUPER/GET_SUPER_METHOD the right
	// answer regardless of how far the method was inherited.
	definingSuper map[*compiler.Function]*value.Class
}

func NewVM(heap *gc.Heap) *VM { return &VM{Heap: heap, definingSuper: make(map[*compiler.Function]*value.Class)} }

// recordDefiningSuper stamps fn (a method's underlying Function, whether
// called bare or through a Closure) with the superclass in effect at its
// declaring class, called once per method by the METHOD opcode handler.
func (vm *VM) recordDefiningSuper(fn *compiler.Function, super *value.Class) {
	vm.definingSuper[fn] = super
}

// superClassOf returns the superclass INVOKE_SUPER/GET_SUPER_METHOD
// should search, for the method currently executing in fr.
func (vm *VM) superClassOf(fr *CallFrame) (*value.Class, error) {
	super, ok := vm.definingSuper[fr.Fn]
	if !ok || super == nil {
		return nil, runtimeErrorf(0, "'super' used in a class with no superclass")
	}
	return super, nil
}

func underlyingFunction(v value.Value) *compiler.Function {
	if !v.IsObj() {
		return nil
	}
	switch c := v.AsObj().(type) {
	case *compiler.Function:
		return c
	case *Closure:
		return c.Fn
	default:
		return nil
	}
}

// RunModule runs mod's main function on a fresh top-level fiber (or its
// cached one, if it already ran once and SPEC_FULL.md's module-reuse
// rule applies), returning the module's result value.
func (vm *VM) RunModule(mod *Module) (value.Value, error) {
	if mod.mainFiber == nil {
		mod.mainFiber = NewFiber(mod, nil)
		mod.mainFiber.pushFrame(CallFrame{Fn: mod.Main, Base: 0})
		mod.mainFiber.ensureStack(mod.Main.MaxSlots)
		// slot 0 is the script's reserved local; every other local is
		// pushed by its own initializer
		mod.mainFiber.push(value.NullValue)
	}
	vm.Heap.ActiveFiber = mod.mainFiber
	result, err := vm.Run(mod.mainFiber)
	if err != nil {
		return value.NullValue, err
	}
	mod.Result = result
	mod.Ran = true
	return result, nil
}

// Run resumes fiber's dispatch loop until it either yields with a
// value back to a caller that isn't modeled here (top-level Run always
// drives to completion or error) or finishes.
func (vm *VM) Run(fiber *Fiber) (value.Value, error) {
	prev := vm.Heap.ActiveFiber
	vm.Heap.ActiveFiber = fiber
	defer func() { vm.Heap.ActiveFiber = prev }()
	return run(vm, fiber)
}

// Writer returns vm.Stdout, or os.Stdout if unset, for corelib's
// print/println natives.
func (vm *VM) Writer() io.Writer {
	if vm.Stdout != nil {
		return vm.Stdout
	}
	return os.Stdout
}

// ActiveFiber returns the heap's currently active fiber (nil if none),
// typed concretely -- vm.Heap.ActiveFiber is a value.Obj so it can be
// marked generically by the collector, but every caller outside this
// package wants the concrete *Fiber back.
func (vm *VM) ActiveFiber() *Fiber {
	f, _ := vm.Heap.ActiveFiber.(*Fiber)
	return f
}

// NewHeapFiber allocates and heap-registers a fresh fiber, for corelib's
// Fiber constructor (a native can't call the unexported allocFiber
// directly from outside this package).
func (vm *VM) NewHeapFiber(mod *Module, parent *Fiber) *Fiber {
	return vm.allocFiber(mod, parent)
}

// CallOnFiber pushes callee(args) as fiber's entry call and drives
// fiber's dispatch loop to completion, or until one of its native calls
// returns an error signalling suspension (corelib's Fiber.yield uses a
// sentinel error type for this, recognized only by corelib's own
// Fiber.run, never by this package). fiber becomes the heap's active
// fiber for the duration. Grounded on callSync, generalized to target
// an arbitrary (possibly not-yet-running) fiber instead of the
// currently active one.
func (vm *VM) CallOnFiber(fiber *Fiber, callee value.Value, args []value.Value) (value.Value, error) {
	prev := vm.Heap.ActiveFiber
	vm.Heap.ActiveFiber = fiber
	defer func() { vm.Heap.ActiveFiber = prev }()
	result, pushed, err := vm.prepareCall(fiber, callee, args, false)
	if err != nil || !pushed {
		return result, err
	}
	return runFrom(vm, fiber, len(fiber.frames)-1)
}

// ResumeFiber continues fiber's dispatch after one of its suspended
// native calls (Fiber.yield) returned a signal instead of pushing a
// result: CALL/INVOKE's handler already consumed the operand bytes and
// the call's arguments/receiver before invoking it, so resuming is
// exactly "push the value that call should have produced, then keep
// dispatching from fr.IP", with every frame between the suspension
// point and fiber's entry call left exactly as it was.
func (vm *VM) ResumeFiber(fiber *Fiber, resumeValue value.Value) (value.Value, error) {
	prev := vm.Heap.ActiveFiber
	vm.Heap.ActiveFiber = fiber
	defer func() { vm.Heap.ActiveFiber = prev }()
	fiber.push(resumeValue)
	return runFrom(vm, fiber, 0)
}

// classOf returns the intrinsic class consulted for property/method
// lookups and the "is" operator's right-hand fallback, per
// SPEC_FULL.md §4.7 ("for non-instances, the receiver's intrinsic class
// is used").
func (vm *VM) classOf(v value.Value) *value.Class {
	if inst, ok := valueAsInstance(v); ok {
		return inst.Class
	}
	if v.Is(value.KindClass) {
		return vm.Heap.BuiltinClasses["Class"]
	}
	return vm.Heap.BuiltinClasses[v.TypeName()]
}

func valueAsInstance(v value.Value) (*value.Instance, bool) {
	if !v.IsObj() {
		return nil, false
	}
	inst, ok := v.AsObj().(*value.Instance)
	return inst, ok
}

// objHeaderSize mirrors gc.sizeOf's unexported headerSize constant; the
// vm package can't call that directly (gc doesn't, and shouldn't, know
// about vm's object kinds), so runtime-allocated vm types register
// their own rough footprint here.
const objHeaderSize = 24

func (vm *VM) allocClosure(fn *compiler.Function, upvalues []*Upvalue) *Closure {
	c := NewClosure(fn, upvalues)
	vm.Heap.Register(c, objHeaderSize+int64(len(upvalues))*8)
	return c
}

func (vm *VM) allocFiber(mod *Module, parent *Fiber) *Fiber {
	f := NewFiber(mod, parent)
	vm.Heap.Register(f, objHeaderSize+int64(cap(f.stack))*16)
	return f
}

func (vm *VM) allocModule(name string, main *compiler.Function) *Module {
	m := NewModule(name, main)
	vm.Heap.Register(m, objHeaderSize+32)
	return m
}
