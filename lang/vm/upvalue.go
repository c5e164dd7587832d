package vm

import "github.com/mna/vesper/lang/value"

// Upvalue is either open (location points into a fiber's live stack,
// shared by every closure that captured the same local) or closed
// (location points at closed, the upvalue's own copy, once the frame
// that owned the slot returns). Per invariant I3, a fiber's open
// upvalues are kept sorted by descending stack address so CLOSE_UPVALUE
// can stop at the first one below its target.
type Upvalue struct {
	value.Object
	location *value.Value
	closed   value.Value

	// slot is the owning fiber's absolute stack index while open; used
	// only to re-patch location when the fiber's stack reallocates
	// (Fiber.ensureStack) and to keep Fiber.openUpvalues sorted by
	// descending address without dereferencing location itself.
	slot int

	// next chains this upvalue into its owning fiber's open-upvalue
	// list; nil once closed (Upvalue.Close clears it).
	next *Upvalue
}

var _ value.Obj = (*Upvalue)(nil)
var _ value.Tracer = (*Upvalue)(nil)

func (u *Upvalue) IsOpen() bool { return u.location != &u.closed }

func (u *Upvalue) Get() value.Value  { return *u.location }
func (u *Upvalue) Set(v value.Value) { *u.location = v }

// Close copies the current slot value into the upvalue's own storage
// and redirects location to it, satisfying invariant I5 (a closed
// upvalue's payload is owned solely by the upvalue): after this call,
// no stack slot aliases the value anymore.
func (u *Upvalue) Close() {
	u.closed = *u.location
	u.location = &u.closed
	u.next = nil
}

func (u *Upvalue) Trace(mark func(value.Value)) {
	mark(*u.location)
}
