package vm

import (
	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/value"
)

// CallFrame records one active call to a Function or Closure on a
// fiber's explicit frame stack. The dispatch loop never recurses into
// Go for one of these (only a native call does), so a deeply nested
// script call chain costs frame-stack slots, not Go stack frames.
type CallFrame struct {
	Fn      *compiler.Function
	Closure *Closure // nil when the callee is a bare Function (no upvalues)
	IP      int      // next instruction to execute, offset into Fn.Chunk.Code
	Base    int       // index into the fiber's value stack where this frame's slot 0 lives

	// ResultIgnored marks a frame entered by INVOKE_IGNORING/CALL-from-
	// statement-context: when it returns, the dispatch loop drops the
	// result instead of pushing it for the caller to consume.
	ResultIgnored bool

	// CompleteAs overrides RETURN's result for a constructor call: the
	// initializer's own return value is discarded in favor of the
	// instance under construction.
	CompleteAs *value.Instance
}

func (f *CallFrame) chunk() *compiler.Chunk { return f.Fn.Chunk }
