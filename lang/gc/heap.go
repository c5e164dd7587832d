// Package gc implements the allocator and mark-and-sweep collector
// described in SPEC_FULL.md §4.1: a single entry point for allocation
// that tracks bytes_allocated/next_gc, a pinning root stack for natives
// building up composite values, and a stop-the-world mark-trace-sweep
// cycle over the intrusive object list.
//
// Go already garbage collects lang/value's heap objects at the host
// level, so this package's sweep does not reclaim host memory; it
// exists to give the embedded language its own deterministic collection
// semantics (bytes_allocated accounting, push_root/pop_root pinning,
// weak string interning) independent of when Go's own collector runs.
// Grounded directly on spec.md §4.1's algorithm description, since the
// teacher has no tracing collector of its own (it relies entirely on
// Go's GC).
package gc

import "github.com/mna/vesper/lang/value"

const defaultGrowFactor = 2.0

// Heap owns every live object created by the VM: the intrusive object
// list, the interned-string table, the root stack, and the marking
// roots spec.md §4.1 names (globals, modules, builtin classes, the
// active fiber).
type Heap struct {
	BytesAllocated int64
	NextGC         int64
	GrowFactor     float64

	objects value.Obj // head of the intrusive sweep list
	roots   []value.Value
	gcOff   int // nesting depth of DisableGC/EnableGC

	strings map[string]*value.String

	Globals        *value.Map
	Modules        map[string]value.Obj
	BuiltinClasses map[string]*value.Class
	ActiveFiber    value.Obj

	// APIFiber, APIFunction, and APIName cache the fiber/function/name an
	// embedding API call last touched, per spec.md §4.1's root list; they
	// keep an in-flight native call's target alive across allocations it
	// triggers.
	APIFiber    value.Obj
	APIFunction value.Value
	APIName     string
}

func NewHeap() *Heap {
	return &Heap{
		GrowFactor:     defaultGrowFactor,
		NextGC:         1 << 20,
		strings:        make(map[string]*value.String),
		Globals:        value.NewMap(0),
		Modules:        make(map[string]value.Obj),
		BuiltinClasses: make(map[string]*value.Class),
	}
}

// PushRoot pins v against collection until the matching PopRoot. Native
// code building a composite value across multiple allocations must
// bracket the region so an interleaved GC cannot reclaim the
// intermediate results.
func (h *Heap) PushRoot(v value.Value) { h.roots = append(h.roots, v) }

// PopRoot unpins the most recently pushed root.
func (h *Heap) PopRoot() {
	if len(h.roots) == 0 {
		panic("gc: PopRoot with empty root stack")
	}
	h.roots = h.roots[:len(h.roots)-1]
}

// DisableGC suspends collection; matching EnableGC calls must follow.
// Nested the same way push/pop are, so a helper calling another helper
// that also disables GC does not re-enable it prematurely.
func (h *Heap) DisableGC() { h.gcOff++ }
func (h *Heap) EnableGC() {
	if h.gcOff > 0 {
		h.gcOff--
	}
}

// Register links a freshly allocated object into the sweep list and
// charges size bytes against bytes_allocated, triggering a collection
// if the new total crosses next_gc. Every allocating constructor in this
// package calls it exactly once, as does lang/vm for the closures,
// fibers, modules and upvalues it allocates; compiled functions from
// lang/compiler and lang/vm's native wrappers are not registered.
func (h *Heap) Register(o value.Obj, size int64) {
	header := headerOf(o)
	header.SetNext(h.objects)
	h.objects = o
	h.BytesAllocated += size
	if h.BytesAllocated >= h.NextGC {
		h.MaybeCollect()
	}
}

// MaybeCollect runs a collection unless GC is currently disabled.
func (h *Heap) MaybeCollect() {
	if h.gcOff > 0 {
		return
	}
	h.Collect()
}

// Shutdown clears every root this heap tracks (globals, modules,
// builtin classes, the active fiber, API-call pins) and runs one final
// collection, returning the BytesAllocated left afterward. Anything
// still standing at that point was kept alive by something other than
// a known root -- a bookkeeping bug, not a deliberate live value -- and
// is what the CLI reports as residual allocation on exit.
func (h *Heap) Shutdown() int64 {
	h.roots = nil
	h.gcOff = 0
	h.ActiveFiber = nil
	h.APIFiber = nil
	h.APIFunction = value.NullValue
	h.APIName = ""
	h.Modules = make(map[string]value.Obj)
	h.BuiltinClasses = make(map[string]*value.Class)
	h.Globals = value.NewMap(0)
	h.Collect()
	return h.BytesAllocated
}

func headerOf(o value.Obj) interface {
	Next() value.Obj
	SetNext(value.Obj)
	Marked() bool
	SetMarked(bool)
} {
	return o.(interface {
		Next() value.Obj
		SetNext(value.Obj)
		Marked() bool
		SetMarked(bool)
	})
}
