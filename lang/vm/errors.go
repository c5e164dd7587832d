package vm

import "fmt"

// RuntimeError is a VM-detected failure (type error, arity mismatch,
// out-of-range access, undefined name) surfaced to a fiber's catcher or
// printed red at the top level, per SPEC_FULL.md §7.
type RuntimeError struct {
	Line    int
	Message string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func runtimeErrorf(line int, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// RuntimeErrorf builds a *RuntimeError with no line information, for
// native code (lang/corelib's built-in methods) that has no bytecode
// position of its own to attribute a failure to.
func RuntimeErrorf(format string, args ...any) *RuntimeError {
	return runtimeErrorf(0, format, args...)
}
