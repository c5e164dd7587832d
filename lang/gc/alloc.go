package gc

import "github.com/mna/vesper/lang/value"

// Intern returns the canonical *value.String for s, allocating and
// registering a new one the first time s is seen. Invariant I2 (two
// distinct string objects never have equal bytes) holds only for
// strings allocated through here; NewString bypasses it deliberately
// for scratch buffers a caller mutates before deciding whether to
// intern the result.
func (h *Heap) Intern(s string) *value.String {
	if existing, ok := h.strings[s]; ok {
		return existing
	}
	str := value.NewString(s)
	h.strings[s] = str
	h.Register(str, sizeOf(str))
	return str
}

// NewString allocates a fresh, non-interned string, as natives that
// build a result string do (e.g. Array.join, Number.toString). Use
// Intern instead when the string is to be compared by identity.
func (h *Heap) NewString(s string) *value.String {
	str := value.NewString(s)
	h.Register(str, sizeOf(str))
	return str
}

func (h *Heap) NewArray(elems []value.Value) *value.Array {
	a := value.NewArray(elems)
	h.Register(a, sizeOf(a))
	return a
}

func (h *Heap) NewMap(size int) *value.Map {
	m := value.NewMap(size)
	h.Register(m, sizeOf(m))
	return m
}

func (h *Heap) NewRange(from, to float64) *value.Range {
	r := value.NewRange(from, to)
	h.Register(r, sizeOf(r))
	return r
}

// NewClass allocates a bare class with no superclass. The caller (the
// VM's CLASS/INHERIT opcode pair) follows up with class.Inherit(super)
// once the superclass is resolved.
func (h *Heap) NewClass(name string) *value.Class {
	c := value.NewClass(name)
	h.Register(c, sizeOf(c))
	return c
}

func (h *Heap) NewInstance(cls *value.Class) *value.Instance {
	i := value.NewInstance(cls)
	h.Register(i, sizeOf(i))
	return i
}

func (h *Heap) NewBoundMethod(receiver, method value.Value) *value.BoundMethod {
	b := value.NewBoundMethod(receiver, method)
	h.Register(b, sizeOf(b))
	return b
}

func (h *Heap) NewField(getter, setter value.Value) *value.Field {
	f := value.NewField(getter, setter)
	h.Register(f, sizeOf(f))
	return f
}

func (h *Heap) NewReference(slot *value.Value) *value.Reference {
	r := value.NewReference(slot)
	h.Register(r, sizeOf(r))
	return r
}

// NewFieldReference allocates a Reference backed by get/set closures
// rather than a raw slot, for REFERENCE_FIELD (an instance/class field
// reference, whose backing Map gives no addressable slot).
func (h *Heap) NewFieldReference(get func() value.Value, set func(value.Value)) *value.Reference {
	r := value.NewFieldReference(get, set)
	h.Register(r, sizeOf(r))
	return r
}
