package value

// Reference holds an assignable handle to a variable: a global, a local
// stack slot, a module private slot, an upvalue, or an instance/class
// field. Assigning through a reference writes the underlying storage;
// the REFERENCE_LOCAL/PRIVATE/UPVALUE/GLOBAL/FIELD opcodes produce one.
//
// A Reference is backed either by an addressable *Value (NewReference,
// through slot) or by get/set closures (NewFieldReference). The VM
// builds every REFERENCE_* opcode's result with the closure form, which
// reads and writes the variable through its owner on each access.
type Reference struct {
	Object
	slot *Value
	get  func() Value
	set  func(Value)
}

var _ Obj = (*Reference)(nil)
var _ Tracer = (*Reference)(nil)

func NewReference(slot *Value) *Reference {
	return &Reference{Object: NewObject(KindReference), slot: slot}
}

// NewFieldReference builds a Reference backed by get/set closures rather
// than a raw slot, for a target whose storage isn't directly addressable
// (an instance or class field, stored in a Map by name).
func NewFieldReference(get func() Value, set func(Value)) *Reference {
	return &Reference{Object: NewObject(KindReference), get: get, set: set}
}

func (r *Reference) Get() Value {
	if r.get != nil {
		return r.get()
	}
	return *r.slot
}

func (r *Reference) Set(v Value) {
	if r.set != nil {
		r.set(v)
		return
	}
	*r.slot = v
}

func (r *Reference) Trace(mark func(Value)) {
	mark(r.Get())
}
