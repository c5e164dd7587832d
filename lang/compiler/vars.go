package compiler

import (
	"github.com/mna/vesper/lang/token"
	"github.com/mna/vesper/lang/value"
)

func (em *emitter) emit(op Opcode, line int) int    { return em.fn.Chunk.WriteOp(op, line) }
func (em *emitter) emitByte(b byte, line int) int   { return em.fn.Chunk.WriteByte(b, line) }

func (em *emitter) emitJump(op Opcode, line int) int {
	em.emit(op, line)
	off := len(em.fn.Chunk.Code)
	em.fn.Chunk.WriteU16(0xFFFF, line)
	return off
}

func (em *emitter) patchJump(offset int) {
	target := len(em.fn.Chunk.Code)
	em.fn.Chunk.PatchU16(offset, uint16(target-offset-2))
}

// emitLoop emits JUMP_BACK with a 16-bit backward offset to loopStart.
func (em *emitter) emitLoop(loopStart int, line int) {
	em.emit(JUMP_BACK, line)
	off := len(em.fn.Chunk.Code)
	dist := off + 2 - loopStart
	em.fn.Chunk.WriteU16(uint16(dist), line)
}

// emitJumpBack writes JUMP_BACK with a placeholder operand, for a
// continue statement whose target (a for/for-in loop's post-step or
// cursor-advance) is compiled after the statement itself and so isn't
// known yet. patchJumpBack fills in the real distance once it is.
func (em *emitter) emitJumpBack(line int) int {
	em.emit(JUMP_BACK, line)
	off := len(em.fn.Chunk.Code)
	em.fn.Chunk.WriteU16(0xFFFF, line)
	return off
}

// patchJumpBack keeps JUMP_BACK for a target behind the jump (a while
// loop's start) and rewrites the instruction to a forward JUMP for a
// target after it (a for/for-in loop's post-step or cursor-advance).
func (em *emitter) patchJumpBack(offset int, target int) {
	if target > offset {
		em.fn.Chunk.Code[offset-1] = byte(JUMP)
		em.fn.Chunk.PatchU16(offset, uint16(target-offset-2))
		return
	}
	em.fn.Chunk.PatchU16(offset, uint16(offset+2-target))
}

func (em *emitter) patchLoopBreaks(lc *loopCtx) {
	for _, j := range lc.breakJumps {
		em.patchJump(j)
	}
}

func (em *emitter) patchContinueJumps(lc *loopCtx, target int) {
	for _, j := range lc.continueJumps {
		em.patchJumpBack(j, target)
	}
}

func (em *emitter) beginScope() { em.scopeDepth++ }

// endScope pops every local declared at the scope being closed, closing
// upvalues for any that were captured (CLOSE_UPVALUE promotes them)
// before dropping the rest with a plain POP.
func (em *emitter) endScope(line int) {
	em.scopeDepth--
	for len(em.locals) > 0 && em.locals[len(em.locals)-1].depth > em.scopeDepth {
		last := em.locals[len(em.locals)-1]
		if last.captured {
			em.emit(CLOSE_UPVALUE, line)
		} else {
			em.emit(POP, line)
		}
		em.locals = em.locals[:len(em.locals)-1]
	}
}

func (em *emitter) trackSlots() {
	if len(em.locals) > em.maxSlotsSeen {
		em.maxSlotsSeen = len(em.locals)
	}
}

// addHiddenLocal declares a compiler-synthesized local (for-in's
// sequence/cursor slots) that source code can never shadow or
// reference by name.
func (em *emitter) addHiddenLocal(name string) int {
	em.locals = append(em.locals, local{name: name, depth: em.scopeDepth})
	em.trackSlots()
	return len(em.locals) - 1
}

// declareAndDefine declares name, assumes the value is already on top
// of the stack, and emits the store: SET_PRIVATE at module scope,
// otherwise it simply becomes the new top-of-stack local slot (locals
// need no store opcode, the value in place on the stack IS the local).
func (em *emitter) declareAndDefine(name string, pos token.Pos) {
	em.declareOnly(name, pos)
	em.defineDeclared(name, pos)
}

// declareOnly registers name as a variable without assuming a value is
// yet on the stack; used by compileFunctionStmt so a function can
// recurse by name while its own body is still being compiled.
func (em *emitter) declareOnly(name string, pos token.Pos) {
	if em.scopeDepth == 0 && em.privates != nil {
		if _, ok := em.privates[name]; ok {
			em.errs.Add(pos, "private %q already declared in this module", name)
			return
		}
		em.privates[name] = len(em.privateOrder)
		em.privateOrder = append(em.privateOrder, name)
		return
	}
	for i := len(em.locals) - 1; i >= 0 && em.locals[i].depth == em.scopeDepth; i-- {
		if em.locals[i].name == name {
			em.errs.Add(pos, "%q already declared in this scope", name)
			return
		}
	}
	em.locals = append(em.locals, local{name: name, depth: em.scopeDepth})
	em.trackSlots()
}

// defineDeclared emits the store for a name previously registered by
// declareOnly, once its initializer value is on the stack.
func (em *emitter) defineDeclared(name string, pos token.Pos) {
	if em.scopeDepth == 0 && em.privates != nil {
		idx, ok := em.privates[name]
		if !ok {
			return
		}
		em.emitPrivateOp(SET_PRIVATE, SET_PRIVATE_LONG, idx, lineOf(pos))
		em.emit(POP, lineOf(pos))
		return
	}
	// Locals need no store: the initializer value already sits at the
	// slot declareOnly reserved for it.
}

func (em *emitter) emitPrivateOp(short, long Opcode, idx int, line int) {
	if idx <= 0xFF {
		em.emit(short, line)
		em.emitByte(byte(idx), line)
	} else {
		em.emit(long, line)
		em.fn.Chunk.WriteU16(uint16(idx), line)
	}
}

func (em *emitter) emitGetLocal(slot int, line int) {
	if slot <= 0xFF {
		em.emit(GET_LOCAL, line)
		em.emitByte(byte(slot), line)
	} else {
		em.emit(GET_LOCAL_LONG, line)
		em.fn.Chunk.WriteU16(uint16(slot), line)
	}
}

func (em *emitter) emitSetLocal(slot int, line int) {
	if slot <= 0xFF {
		em.emit(SET_LOCAL, line)
		em.emitByte(byte(slot), line)
	} else {
		em.emit(SET_LOCAL_LONG, line)
		em.fn.Chunk.WriteU16(uint16(slot), line)
	}
}

// resolved describes how an identifier lookup at compile time resolved.
type resolved struct {
	kind  string // "local", "upvalue", "private", "global"
	index int
	name  string // for "global"
}

// resolve looks up name in this function's locals, then the enclosing
// function chain for an upvalue, then the module's private table
// (reachable directly regardless of nesting depth, since privates
// belong to the module rather than any one stack frame), and finally
// falls back to a dynamic global lookup by name.
func (em *emitter) resolve(name string) resolved {
	if idx := em.resolveLocal(name); idx >= 0 {
		return resolved{kind: "local", index: idx}
	}
	if idx := em.resolveUpvalue(name); idx >= 0 {
		return resolved{kind: "upvalue", index: idx}
	}
	if idx, ok := em.modulePrivates()[name]; ok {
		return resolved{kind: "private", index: idx}
	}
	return resolved{kind: "global", name: name}
}

func (em *emitter) resolveLocal(name string) int {
	for i := len(em.locals) - 1; i >= 0; i-- {
		if em.locals[i].name == name {
			return i
		}
	}
	return -1
}

func (em *emitter) resolveUpvalue(name string) int {
	if em.enclosing == nil {
		return -1
	}
	if idx := em.enclosing.resolveLocal(name); idx >= 0 {
		em.enclosing.locals[idx].captured = true
		return em.addUpvalue(idx, true)
	}
	if idx := em.enclosing.resolveUpvalue(name); idx >= 0 {
		return em.addUpvalue(idx, false)
	}
	return -1
}

func (em *emitter) addUpvalue(index int, isLocal bool) int {
	for i, uv := range em.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	em.upvalues = append(em.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(em.upvalues) - 1
}

// nameConst interns name into the constant pool and returns its index as
// a single byte, matching every name-bearing opcode's OP1 operand width.
func (em *emitter) nameConst(name string) byte {
	idx := em.fn.Chunk.AddConstant(value.NewObj(value.NewString(name)))
	if idx < 0 || idx > 0xFF {
		em.errs.Add(token.Pos(0), "compiler: too many distinct names (%q overflows the 256-entry name table)", name)
		return 0
	}
	return byte(idx)
}

func (em *emitter) emitInvoke(name string, argc int, ignoring bool, line int) {
	op := INVOKE
	if ignoring {
		op = INVOKE_IGNORING
	}
	em.emit(op, line)
	em.emitByte(byte(argc), line)
	em.emitByte(em.nameConst(name), line)
}

func (em *emitter) emitInvokeSuper(name string, argc int, ignoring bool, line int) {
	op := INVOKE_SUPER
	if ignoring {
		op = INVOKE_SUPER_IGNORING
	}
	em.emit(op, line)
	em.emitByte(byte(argc), line)
	em.emitByte(em.nameConst(name), line)
}

// emitClosure emits CLOSURE for fn (already compiled, with its own
// upvalue descriptor list recorded during nested compilation) followed
// by one (is_local, index) byte pair per captured upvalue, per spec.md
// §4.6's CLOSURE operand layout.
func (em *emitter) emitClosure(fn *Function, upvalues []upvalueRef, line int) {
	idx := em.fn.Chunk.AddConstant(value.NewObj(fn))
	if idx < 0 || idx > 0xFF {
		panic("compiler: function constant pool overflow")
	}
	em.emit(CLOSURE, line)
	em.emitByte(byte(idx), line)
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		em.emitByte(isLocal, line)
		em.emitByte(byte(uv.index), line)
	}
}

func (em *emitter) emitReturn(pos token.Pos) {
	line := lineOf(pos)
	if em.kind == kindConstructor {
		em.emitGetLocal(0, line)
	} else {
		em.emit(NULL, line)
	}
	em.emit(RETURN, line)
}

func (em *emitter) modulePrivates() map[string]int {
	root := em
	for root.enclosing != nil {
		root = root.enclosing
	}
	return root.privates
}
