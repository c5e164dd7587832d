// Package vm implements the fiber-based stack machine that executes
// compiled chunks: the dispatch loop, call-frame stack, upvalue
// capture/closing, and the seven-way callable dispatch CALL/INVOKE
// describe in SPEC_FULL.md §4.7.
package vm

import (
	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/value"
)

// Closure pairs a compiled Function with the fixed-size array of
// upvalue pointers CLOSURE captured for one particular instantiation of
// that function (a fresh Closure is made each time CLOSURE runs, even
// for the same Function, since each enclosing call has its own locals
// to capture).
type Closure struct {
	value.Object
	Fn       *compiler.Function
	Upvalues []*Upvalue
}

var _ value.Obj = (*Closure)(nil)
var _ value.Tracer = (*Closure)(nil)

func NewClosure(fn *compiler.Function, upvalues []*Upvalue) *Closure {
	return &Closure{Object: value.NewObject(value.KindClosure), Fn: fn, Upvalues: upvalues}
}

// Trace visits the closure's function (keeping its constant pool, and
// transitively any nested function constants, alive) and every upvalue
// it holds, per SPEC_FULL.md §4.1's "closures trace their function and
// each upvalue".
func (c *Closure) Trace(mark func(value.Value)) {
	mark(value.NewObj(c.Fn))
	for _, uv := range c.Upvalues {
		mark(value.NewObj(uv))
	}
}
