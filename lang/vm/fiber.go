package vm

import (
	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/value"
)

type FiberStatus uint8

const (
	FiberSuspended FiberStatus = iota
	FiberRunning
	FiberDone
)

// Fiber is a resumable execution context: a value stack, a call-frame
// stack, and the head of its open-upvalue list, per SPEC_FULL.md §4.8.
// yield/yeet/abort transfer control to Parent; a Catcher-flagged fiber
// converts an error surfacing from a child back into a normal return
// instead of propagating it further up the parent chain.
type Fiber struct {
	value.Object
	Module  *Module
	Parent  *Fiber
	Catcher bool
	Abort   bool
	Err     error
	Status  FiberStatus

	// Entry is the callable corelib's Fiber.run starts on first call
	// (nil once started; FiberStatus plus Depth tell run whether to
	// start fresh or resume an already-begun fiber).
	Entry value.Value

	stack        []value.Value
	frames       []CallFrame
	openUpvalues *Upvalue // head, sorted by descending Base+slot
}

var _ value.Obj = (*Fiber)(nil)
var _ value.Tracer = (*Fiber)(nil)

const minStackCap = 256

// NewFiber allocates a fiber with a value stack rounded up to the next
// power of two (minimum minStackCap), per SPEC_FULL.md §4.8.
func NewFiber(mod *Module, parent *Fiber) *Fiber {
	return &Fiber{
		Object: value.NewObject(value.KindFiber),
		Module: mod,
		Parent: parent,
		stack:  make([]value.Value, 0, minStackCap),
	}
}

func (f *Fiber) Done() bool { return len(f.frames) == 0 || f.Abort }

// PushResult lets a NativePrimitive/PrimitiveMethod push its own return
// value, the "consumed=true" half of the NativePrimitiveFn/
// NativePrimitiveMethodFn contract (prepareCall/prepareMethodCall pop it
// right back off as the call's result).
func (f *Fiber) PushResult(v value.Value) { f.push(v) }

func (f *Fiber) Depth() int { return len(f.frames) }

func (f *Fiber) topFrame() *CallFrame { return &f.frames[len(f.frames)-1] }

func (f *Fiber) pushFrame(fr CallFrame) { f.frames = append(f.frames, fr) }

func (f *Fiber) popFrame() CallFrame {
	n := len(f.frames) - 1
	fr := f.frames[n]
	f.frames = f.frames[:n]
	return fr
}

// ensureStack grows the backing array, if needed, so the next `needed`
// slots above the current top are addressable, patching every open
// upvalue's location pointer to the new array (the reallocation the
// pointers would otherwise dangle across).
func (f *Fiber) ensureStack(needed int) {
	want := len(f.stack) + needed
	if want <= cap(f.stack) {
		return
	}
	newCap := cap(f.stack)
	if newCap == 0 {
		newCap = minStackCap
	}
	for newCap < want {
		newCap *= 2
	}
	grown := make([]value.Value, len(f.stack), newCap)
	copy(grown, f.stack)
	f.stack = grown
	for uv := f.openUpvalues; uv != nil; uv = uv.next {
		uv.location = &f.stack[uv.slot]
	}
}

func (f *Fiber) push(v value.Value) {
	f.ensureStack(1)
	f.stack = append(f.stack, v)
}

func (f *Fiber) pop() value.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *Fiber) popN(n int) {
	f.stack = f.stack[:len(f.stack)-n]
}

func (f *Fiber) peek(fromTop int) value.Value {
	return f.stack[len(f.stack)-1-fromTop]
}

func (f *Fiber) setPeek(fromTop int, v value.Value) {
	f.stack[len(f.stack)-1-fromTop] = v
}

// slotPtr returns a pointer to the stack slot at absolute index idx,
// valid only until the next ensureStack call (which repatches every
// open upvalue, but not arbitrary pointers callers may have taken).
func (f *Fiber) slotPtr(idx int) *value.Value { return &f.stack[idx] }

// captureUpvalue returns the open upvalue for the stack slot at
// absolute index idx, reusing an existing one if the local is already
// captured (per SPEC_FULL.md §4.6's upvalue-sharing requirement), or
// creating and linking a new one in descending-index order (invariant
// I3).
func (f *Fiber) captureUpvalue(vm *VM, idx int) *Upvalue {
	var prev *Upvalue
	uv := f.openUpvalues
	for uv != nil && uv.slot > idx {
		prev = uv
		uv = uv.next
	}
	if uv != nil && uv.slot == idx {
		return uv
	}
	created := &Upvalue{Object: value.NewObject(value.KindUpvalue), location: &f.stack[idx], slot: idx}
	vm.Heap.Register(created, objHeaderSize+16)
	created.next = uv
	if prev == nil {
		f.openUpvalues = created
	} else {
		prev.next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above absolute stack
// index from, per SPEC_FULL.md §4.7's CLOSE_UPVALUE description.
func (f *Fiber) closeUpvalues(from int) {
	for f.openUpvalues != nil && f.openUpvalues.slot >= from {
		uv := f.openUpvalues
		f.openUpvalues = uv.next
		uv.Close()
	}
}

// Trace visits the entry function, every live stack slot, every frame's
// function/closure, every open upvalue, the module, and the parent, per
// SPEC_FULL.md §4.1's fiber-tracing rule. The fiber's stored error is
// not visited.
func (f *Fiber) Trace(mark func(value.Value)) {
	mark(f.Entry)
	for _, v := range f.stack {
		mark(v)
	}
	for _, fr := range f.frames {
		if fr.Closure != nil {
			mark(value.NewObj(fr.Closure))
		} else if fr.Fn != nil {
			mark(value.NewObj(fr.Fn))
		}
	}
	for uv := f.openUpvalues; uv != nil; uv = uv.next {
		mark(value.NewObj(uv))
	}
	if f.Module != nil {
		mark(value.NewObj(f.Module))
	}
	if f.Parent != nil {
		mark(value.NewObj(f.Parent))
	}
}

// currentFunc returns the Function backing the top frame, looking
// through its Closure if it has one.
func currentFunc(fr *CallFrame) *compiler.Function { return fr.Fn }
