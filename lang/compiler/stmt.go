package compiler

import (
	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/token"
)

func lineOf(pos token.Pos) int {
	line, _ := pos.LineCol()
	return line
}

func (em *emitter) compileStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		em.compileStmt(s)
	}
}

func (em *emitter) compileStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		if call, ok := s.X.(*ast.CallExpr); ok {
			em.compileCall(call, true)
			return
		}
		em.compileExpr(s.X)
		em.emit(POP, lineOf(s.Pos()))
	case *ast.BlockStmt:
		em.beginScope()
		em.compileStmts(s.Stmts)
		em.endScope(lineOf(s.End()))
	case *ast.VarStmt:
		em.compileVarStmt(s)
	case *ast.IfStmt:
		em.compileIfStmt(s)
	case *ast.WhileStmt:
		em.compileWhileStmt(s)
	case *ast.ForStmt:
		em.compileForStmt(s)
	case *ast.ForInStmt:
		em.compileForInStmt(s)
	case *ast.FunctionStmt:
		em.compileFunctionStmt(s)
	case *ast.ClassStmt:
		em.compileClassStmt(s)
	case *ast.ReturnStmt:
		em.compileReturnStmt(s)
	case *ast.BreakStmt:
		em.compileBreak(s)
	case *ast.ContinueStmt:
		em.compileContinue(s)
	case *ast.ExportStmt:
		em.compileStmt(s.Decl)
	case *ast.BadStmt:
		// a syntax error already reported by the parser; emit nothing.
	default:
		em.errs.Add(s.Pos(), "compiler: unhandled statement %T", s)
	}
}

func (em *emitter) compileVarStmt(s *ast.VarStmt) {
	if s.Value != nil {
		em.compileExpr(s.Value)
	} else {
		em.emit(NULL, lineOf(s.Pos()))
	}
	em.declareAndDefine(s.Name, s.NamePos)
}

func (em *emitter) compileIfStmt(s *ast.IfStmt) {
	em.compileExpr(s.Cond)
	thenJump := em.emitJump(JUMP_IF_FALSE_POPPING, lineOf(s.Pos()))
	em.compileStmt(s.Then)

	if s.Else == nil {
		em.patchJump(thenJump)
		return
	}
	elseJump := em.emitJump(JUMP, lineOf(s.Then.End()))
	em.patchJump(thenJump)
	em.compileStmt(s.Else)
	em.patchJump(elseJump)
}

func (em *emitter) compileWhileStmt(s *ast.WhileStmt) {
	loopStart := len(em.fn.Chunk.Code)
	lc := &loopCtx{localBase: len(em.locals)}
	em.loops = append(em.loops, lc)

	em.compileExpr(s.Cond)
	exitJump := em.emitJump(JUMP_IF_FALSE_POPPING, lineOf(s.Pos()))
	em.compileStmt(s.Body)
	em.emitLoop(loopStart, lineOf(s.Body.End()))
	em.patchJump(exitJump)

	em.patchContinueJumps(lc, loopStart)
	em.patchLoopBreaks(lc)
	em.loops = em.loops[:len(em.loops)-1]
}

func (em *emitter) compileForStmt(s *ast.ForStmt) {
	em.beginScope()
	if s.Init != nil {
		em.compileStmt(s.Init)
	}

	loopStart := len(em.fn.Chunk.Code)
	lc := &loopCtx{localBase: len(em.locals)}
	em.loops = append(em.loops, lc)

	var exitJump int
	hasExit := s.Cond != nil
	if hasExit {
		em.compileExpr(s.Cond)
		exitJump = em.emitJump(JUMP_IF_FALSE_POPPING, lineOf(s.Pos()))
	}

	em.compileStmt(s.Body)

	// continue jumps target the post-step, which runs right here; any
	// continue compiled inside the body above recorded a placeholder,
	// patched now that this offset is finally known.
	continueTarget := len(em.fn.Chunk.Code)
	if s.Post != nil {
		em.compileExpr(s.Post)
		em.emit(POP, lineOf(s.Post.End()))
	}
	em.emitLoop(loopStart, lineOf(s.Body.End()))

	if hasExit {
		em.patchJump(exitJump)
	}
	em.patchContinueJumps(lc, continueTarget)
	em.patchLoopBreaks(lc)
	em.loops = em.loops[:len(em.loops)-1]
	em.endScope(lineOf(s.End()))
}

// compileForInStmt lowers "for (var name in iter) body" to the
// seq.iterator(iter)/seq.iteratorValue(iter) sequence call protocol
// per spec.md §4.4/§4.6: a hidden local holds the sequence, another
// holds the iterator cursor, and the loop body's binding is rebound
// from iteratorValue(cursor) each pass.
func (em *emitter) compileForInStmt(s *ast.ForInStmt) {
	em.beginScope()
	line := lineOf(s.Pos())

	em.compileExpr(s.Iter)
	seqSlot := em.addHiddenLocal("@seq")

	em.emit(NULL, line)
	cursorSlot := em.addHiddenLocal("@cursor")

	loopStart := len(em.fn.Chunk.Code)
	lc := &loopCtx{localBase: len(em.locals)}
	em.loops = append(em.loops, lc)

	em.emitGetLocal(seqSlot, line)
	em.emitGetLocal(cursorSlot, line)
	em.emitInvoke("iterator", 1, false, line)
	em.emitSetLocal(cursorSlot, line)
	exitJump := em.emitJump(JUMP_IF_NULL_POPPING, line)

	em.emitGetLocal(seqSlot, line)
	em.emitGetLocal(cursorSlot, line)
	em.emitInvoke("iteratorValue", 1, false, line)

	em.beginScope()
	em.declareAndDefine(s.Name, s.NamePos)
	em.compileStmts(s.Body.Stmts)
	em.endScope(lineOf(s.Body.End()))

	continueTarget := len(em.fn.Chunk.Code)
	em.emitLoop(loopStart, lineOf(s.Body.End()))

	em.patchJump(exitJump)
	em.patchContinueJumps(lc, continueTarget)
	em.patchLoopBreaks(lc)
	em.loops = em.loops[:len(em.loops)-1]

	em.endScope(lineOf(s.End()))
}

func (em *emitter) compileFunctionStmt(s *ast.FunctionStmt) {
	// Declared before the body is compiled so a function can recurse by
	// name (the slot/private exists, even though it's assigned after).
	em.declareOnly(s.Name, s.NamePos)
	fn, upvalues := em.compileFunction(s.Fn, s.Name, kindFunction)
	em.emitClosure(fn, upvalues, lineOf(s.Pos()))
	em.defineDeclared(s.Name, s.NamePos)
}

func (em *emitter) compileReturnStmt(s *ast.ReturnStmt) {
	line := lineOf(s.Pos())
	if em.kind == kindConstructor {
		if s.Value != nil {
			em.errs.Add(s.Pos(), "cannot return a value from a constructor")
		}
		em.emitGetLocal(0, line)
		em.emit(RETURN, line)
		return
	}
	if s.Value != nil {
		em.compileExpr(s.Value)
	} else {
		em.emit(NULL, line)
	}
	em.emit(RETURN, line)
}

func (em *emitter) compileBreak(s *ast.BreakStmt) {
	if len(em.loops) == 0 {
		em.errs.Add(s.Pos(), "break outside of a loop")
		return
	}
	lc := em.loops[len(em.loops)-1]
	line := lineOf(s.Pos())
	dropped := em.localsAboveCount(lc.localBase)
	if dropped > 0 {
		em.emit(POP_LOCALS, line)
		em.emitByte(byte(dropped), line)
	}
	jump := em.emitJump(JUMP, line)
	lc.breakJumps = append(lc.breakJumps, jump)
}

func (em *emitter) compileContinue(s *ast.ContinueStmt) {
	if len(em.loops) == 0 {
		em.errs.Add(s.Pos(), "continue outside of a loop")
		return
	}
	lc := em.loops[len(em.loops)-1]
	line := lineOf(s.Pos())
	dropped := em.localsAboveCount(lc.localBase)
	if dropped > 0 {
		em.emit(POP_LOCALS, line)
		em.emitByte(byte(dropped), line)
	}
	jump := em.emitJumpBack(line)
	lc.continueJumps = append(lc.continueJumps, jump)
}

func (em *emitter) localsAboveCount(base int) int {
	n := 0
	for _, l := range em.locals[base:] {
		if !l.captured {
			n++
		}
	}
	return n
}
