package compiler

import (
	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/errs"
	"github.com/mna/vesper/lang/token"
	"github.com/mna/vesper/lang/value"
)

type funcKind uint8

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindConstructor
)

type local struct {
	name     string
	depth    int
	captured bool
}

type upvalueRef struct {
	index   int
	isLocal bool
}

type classCtx struct {
	enclosing *classCtx
	hasSuper  bool
}

// emitter holds one function's compile-time state: its Function/Chunk
// being built, its lexical locals and their block depths, the upvalues
// it has so far captured from enclosing functions, and (only for the
// module's outermost emitter) the private-slot table every nested
// function resolves against directly, without upvalue-capturing it.
//
// Grounded on lang/compiler/compiler.go's pcomp/fcomp split (one state
// per whole program, one per function being compiled), adapted into a
// single recursive type per spec.md §4.6's simpler linear-emission
// model instead of the teacher's CFG-block compiler.
type emitter struct {
	enclosing *emitter
	fn        *Function
	kind      funcKind

	locals       []local
	upvalues     []upvalueRef
	scopeDepth   int
	maxSlotsSeen int

	privates     map[string]int // only set on the module-level root emitter
	privateOrder []string

	loops []*loopCtx
	class *classCtx

	errs *errs.List
}

// loopCtx tracks one enclosing loop's break/continue patch-up state.
// Neither target is known while the body is still being compiled: a
// continue inside a for/for-in loop jumps to the post-step/cursor-advance
// that textually follows the body, and a break jumps past the loop
// entirely. Both kinds of jump are recorded as placeholders and patched
// once their target offset is finally known.
type loopCtx struct {
	continueJumps []int
	breakJumps    []int
	localBase     int // number of locals alive when the loop started
}

// Compile compiles a top-level module chunk to a Function ready to be
// wrapped in a value.Module by lang/vm.
func Compile(chunk *ast.Chunk, moduleName string) (*Function, errs.List) {
	var errl errs.List
	em := &emitter{
		fn:       NewFunction(moduleName),
		kind:     kindScript,
		privates: make(map[string]int),
		errs:     &errl,
	}
	// slot 0 is reserved the same way methods reserve it for "this";
	// for a script it is simply unused.
	em.locals = append(em.locals, local{name: "", depth: 0})
	em.trackSlots()

	em.compileStmts(chunk.Stmts)
	em.emitReturn(chunk.End())
	em.fn.MaxSlots = em.maxSlotsSeen
	em.fn.UpvalueCount = len(em.upvalues)
	em.fn.PrivateNames = em.privateOrder

	errl.Sort()
	return em.fn, errl
}
