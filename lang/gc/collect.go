package gc

import "github.com/mna/vesper/lang/value"

// Collect runs one stop-the-world mark-trace-sweep cycle per
// spec.md §4.1.
func (h *Heap) Collect() {
	gray := h.markRoots()
	h.trace(gray)
	h.cleanInternTable()
	h.sweep()
	h.NextGC = int64(float64(h.BytesAllocated) * h.GrowFactor)
}

// markRoots marks every root spec.md §4.1 names and returns the
// initial gray worklist (every object marked but not yet traced).
//
// The interned-string table is deliberately NOT marked here: its
// entries are a weak set. A string survives only if something else
// (a local slot, a field, a constant pool) holds it; cleanInternTable
// then drops any table entry whose value did not survive, which is
// what keeps unused interned strings from accumulating forever.
func (h *Heap) markRoots() []value.Obj {
	var gray []value.Obj
	mark := func(v value.Value) {
		if !v.IsObj() || v.AsObj() == nil {
			return
		}
		o := v.AsObj()
		hdr := headerOf(o)
		if hdr.Marked() {
			return
		}
		hdr.SetMarked(true)
		gray = append(gray, o)
	}

	for _, v := range h.roots {
		mark(v)
	}
	if h.ActiveFiber != nil {
		mark(value.NewObj(h.ActiveFiber))
	}
	if h.APIFiber != nil {
		mark(value.NewObj(h.APIFiber))
	}
	mark(h.APIFunction)
	for _, cls := range h.BuiltinClasses {
		mark(value.NewObj(cls))
	}
	for _, m := range h.Modules {
		mark(value.NewObj(m))
	}
	h.Globals.Each(func(_ string, v value.Value) { mark(v) })

	return gray
}

// trace drains the gray worklist, blackening each object by marking
// its outgoing references (types implementing value.Tracer) and
// adding any newly-marked object back onto the worklist.
func (h *Heap) trace(gray []value.Obj) {
	mark := func(v value.Value) {
		if !v.IsObj() || v.AsObj() == nil {
			return
		}
		o := v.AsObj()
		hdr := headerOf(o)
		if hdr.Marked() {
			return
		}
		hdr.SetMarked(true)
		gray = append(gray, o)
	}

	for len(gray) > 0 {
		o := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		if t, ok := o.(value.Tracer); ok {
			t.Trace(mark)
		}
	}
}

func (h *Heap) cleanInternTable() {
	for k, s := range h.strings {
		if !s.Marked() {
			delete(h.strings, k)
		}
	}
}

// sweep walks the global object list, unlinking and dropping objects
// that were not marked, and clears the mark bit on survivors so the
// next cycle starts from a clean slate.
func (h *Heap) sweep() {
	var prev value.Obj
	for o := h.objects; o != nil; {
		hdr := headerOf(o)
		next := hdr.Next()
		if hdr.Marked() {
			hdr.SetMarked(false)
			prev = o
		} else {
			h.BytesAllocated -= sizeOf(o)
			if prev == nil {
				h.objects = next
			} else {
				headerOf(prev).SetNext(next)
			}
		}
		o = next
	}
}
