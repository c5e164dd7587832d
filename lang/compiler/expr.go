package compiler

import (
	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/token"
	"github.com/mna/vesper/lang/value"
)

var binaryOps = map[token.Token]Opcode{
	token.PLUS: ADD, token.MINUS: SUB, token.STAR: MUL, token.SLASH: DIV,
	token.PERCENT: MOD, token.STARSTAR: POW,
	token.AMP: BAND, token.PIPE: BOR, token.CARET: BXOR,
	token.SHL: SHL, token.SHR: SHR,
	token.LT: LT, token.LE: LE, token.GT: GT, token.GE: GE,
	token.EQ: EQL, token.NEQ: NEQ,
}

// compoundOps maps a "+=" style token to the underlying binary operator
// it desugars to for a read-modify-write assignment.
var compoundOps = map[token.Token]token.Token{
	token.PLUSEQ: token.PLUS, token.MINUSEQ: token.MINUS,
	token.STAREQ: token.STAR, token.SLASHEQ: token.SLASH,
	token.PERCENTEQ: token.PERCENT, token.AMPEQ: token.AMP,
	token.PIPEEQ: token.PIPE, token.CARETEQ: token.CARET,
	token.SHLEQ: token.SHL, token.SHREQ: token.SHR,
}

func (em *emitter) compileExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		em.compileLiteral(e)
	case *ast.IdentExpr:
		em.compileIdentGet(e)
	case *ast.AssignExpr:
		em.compileAssign(e)
	case *ast.BinaryExpr:
		em.compileBinary(e)
	case *ast.UnaryExpr:
		em.compileUnary(e)
	case *ast.CallExpr:
		em.compileCall(e, false)
	case *ast.GetExpr:
		em.compileExpr(e.X)
		em.emit(GET_FIELD, lineOf(e.Pos()))
		em.emitByte(em.nameConst(e.Name), lineOf(e.Pos()))
	case *ast.SubscriptExpr:
		em.compileExpr(e.X)
		em.compileExpr(e.Index)
		em.emit(SUBSCRIPT_GET, lineOf(e.Pos()))
	case *ast.LambdaExpr:
		fn, upvalues := em.compileFunction(e, "", kindFunction)
		em.emitClosure(fn, upvalues, lineOf(e.Pos()))
	case *ast.ArrayExpr:
		em.compileArray(e)
	case *ast.ObjectExpr:
		em.compileObject(e)
	case *ast.ThisExpr:
		em.emitGetLocal(0, lineOf(e.Pos()))
	case *ast.SuperExpr:
		em.checkSuperAllowed(e.Pos())
		em.emitGetLocal(0, lineOf(e.Pos()))
		em.emit(GET_SUPER_METHOD, lineOf(e.Pos()))
		em.emitByte(em.nameConst(e.Name), lineOf(e.Pos()))
	case *ast.RangeExpr:
		em.compileExpr(e.From)
		em.compileExpr(e.To)
		em.emit(RANGE, lineOf(e.Pos()))
	case *ast.IfExpr:
		em.compileIfExpr(e)
	case *ast.InterpolationExpr:
		em.compileInterpolation(e)
	case *ast.ReferenceExpr:
		em.compileReference(e)
	case *ast.ParenExpr:
		em.compileExpr(e.X)
	case *ast.NewExpr:
		em.compileNew(e)
	case *ast.BadExpr:
		em.emit(NULL, lineOf(e.Pos()))
	default:
		em.errs.Add(e.Pos(), "compiler: unhandled expression %T", e)
	}
}

func (em *emitter) compileLiteral(e *ast.LiteralExpr) {
	line := lineOf(e.Pos())
	switch e.Kind {
	case token.NULL:
		em.emit(NULL, line)
	case token.TRUE:
		em.emit(TRUE, line)
	case token.FALSE:
		em.emit(FALSE, line)
	case token.INT:
		em.fn.Chunk.EmitConstant(value.NewNumber(float64(e.Int)), line)
	case token.FLOAT:
		em.fn.Chunk.EmitConstant(value.NewNumber(e.Num), line)
	case token.STRING:
		em.fn.Chunk.EmitConstant(value.NewObj(value.NewString(e.Str)), line)
	default:
		em.errs.Add(e.Pos(), "compiler: unhandled literal kind %v", e.Kind)
	}
}

func (em *emitter) compileIdentGet(e *ast.IdentExpr) {
	line := lineOf(e.Pos())
	r := em.resolve(e.Name)
	e.Binding, e.Index = r.kind, r.index
	switch r.kind {
	case "local":
		em.emitGetLocal(r.index, line)
	case "upvalue":
		em.emit(GET_UPVALUE, line)
		em.emitByte(byte(r.index), line)
	case "private":
		em.emitPrivateOp(GET_PRIVATE, GET_PRIVATE_LONG, r.index, line)
	default:
		em.emit(GET_GLOBAL, line)
		em.emitByte(em.nameConst(e.Name), line)
	}
}

func (em *emitter) compileIdentSet(name string, pos token.Pos) {
	line := lineOf(pos)
	r := em.resolve(name)
	switch r.kind {
	case "local":
		em.emitSetLocal(r.index, line)
	case "upvalue":
		em.emit(SET_UPVALUE, line)
		em.emitByte(byte(r.index), line)
	case "private":
		em.emitPrivateOp(SET_PRIVATE, SET_PRIVATE_LONG, r.index, line)
	default:
		em.emit(SET_GLOBAL, line)
		em.emitByte(em.nameConst(name), line)
	}
}

// compileAssign handles both plain "=" and compound ("+=" etc.)
// assignment, dispatching on the target's concrete expression kind per
// ast.IsAssignable: identifier, property (GetExpr), or subscript.
func (em *emitter) compileAssign(e *ast.AssignExpr) {
	line := lineOf(e.Pos())
	target := ast.Unwrap(e.Target)

	switch t := target.(type) {
	case *ast.IdentExpr:
		if e.Op == token.ASSIGN {
			em.compileExpr(e.Value)
		} else {
			em.compileIdentGet(t)
			em.compileExpr(e.Value)
			em.emit(binaryOps[compoundOps[e.Op]], line)
		}
		em.compileIdentSet(t.Name, t.Pos())

	case *ast.GetExpr:
		nameIdx := em.nameConst(t.Name)
		em.compileExpr(t.X) // obj
		if e.Op == token.ASSIGN {
			em.compileExpr(e.Value)
		} else {
			em.emit(DUP, line)
			em.emit(GET_FIELD, line)
			em.emitByte(nameIdx, line)
			em.compileExpr(e.Value)
			em.emit(binaryOps[compoundOps[e.Op]], line)
		}
		em.emit(SET_FIELD, line)
		em.emitByte(nameIdx, line)

	case *ast.SubscriptExpr:
		em.compileExpr(t.X)     // obj
		em.compileExpr(t.Index) // obj idx
		if e.Op == token.ASSIGN {
			em.compileExpr(e.Value)
		} else {
			em.emit(DUP2, line)
			em.emit(SUBSCRIPT_GET, line)
			em.compileExpr(e.Value)
			em.emit(binaryOps[compoundOps[e.Op]], line)
		}
		em.emit(SUBSCRIPT_SET, line)

	default:
		em.errs.Add(e.Pos(), "compiler: invalid assignment target %T", target)
	}
}

func (em *emitter) compileBinary(e *ast.BinaryExpr) {
	line := lineOf(e.Pos())
	switch e.Op {
	case token.LOGAND:
		em.compileExpr(e.X)
		j := em.emitJump(AND, line)
		em.emit(POP, line)
		em.compileExpr(e.Y)
		em.patchJump(j)
		return
	case token.LOGOR:
		em.compileExpr(e.X)
		j := em.emitJump(OR, line)
		em.emit(POP, line)
		em.compileExpr(e.Y)
		em.patchJump(j)
		return
	case token.QUESTION2:
		em.compileExpr(e.X)
		j := em.emitJump(NULL_OR, line)
		em.emit(POP, line)
		em.compileExpr(e.Y)
		em.patchJump(j)
		return
	case token.IS:
		em.compileExpr(e.X)
		em.compileExpr(e.Y)
		em.emit(IS, line)
		return
	}

	em.compileExpr(e.X)
	em.compileExpr(e.Y)
	op, ok := binaryOps[e.Op]
	if !ok {
		em.errs.Add(e.Pos(), "compiler: unhandled binary operator %v", e.Op)
		return
	}
	em.emit(op, line)
}

func (em *emitter) compileUnary(e *ast.UnaryExpr) {
	line := lineOf(e.Pos())
	switch e.Op {
	case token.MINUS:
		em.compileExpr(e.X)
		em.emit(NEGATE, line)
	case token.BANG:
		em.compileExpr(e.X)
		em.emit(NOT, line)
	case token.TILDE:
		em.compileExpr(e.X)
		em.emit(BNOT, line)
	case token.PLUSPLUS, token.MINUSMINUS:
		em.compilePrefixStep(e)
	default:
		em.errs.Add(e.Pos(), "compiler: unhandled unary operator %v", e.Op)
	}
}

// compilePrefixStep desugars "++x"/"--x" to "x = x + 1" / "x = x - 1"
// over whatever addressable target X names.
func (em *emitter) compilePrefixStep(e *ast.UnaryExpr) {
	line := lineOf(e.Pos())
	one := func() { em.fn.Chunk.EmitConstant(value.NewNumber(1), line) }
	op := ADD
	if e.Op == token.MINUSMINUS {
		op = SUB
	}
	switch t := ast.Unwrap(e.X).(type) {
	case *ast.IdentExpr:
		em.compileIdentGet(t)
		one()
		em.emit(op, line)
		em.compileIdentSet(t.Name, t.Pos())
	case *ast.GetExpr:
		nameIdx := em.nameConst(t.Name)
		em.compileExpr(t.X)
		em.emit(DUP, line)
		em.emit(GET_FIELD, line)
		em.emitByte(nameIdx, line)
		one()
		em.emit(op, line)
		em.emit(SET_FIELD, line)
		em.emitByte(nameIdx, line)
	default:
		em.errs.Add(e.Pos(), "compiler: invalid ++/-- target %T", t)
	}
}

// compileCall fuses "x.name(args)" into a single INVOKE rather than a
// GET_FIELD followed by a generic CALL, per spec.md §4.6; "super.name(args)"
// similarly fuses into INVOKE_SUPER.
func (em *emitter) compileCall(e *ast.CallExpr, ignoring bool) {
	line := lineOf(e.Pos())
	switch callee := e.Callee.(type) {
	case *ast.GetExpr:
		em.compileExpr(callee.X)
		for _, a := range e.Args {
			em.compileExpr(a)
		}
		em.emitInvoke(callee.Name, len(e.Args), ignoring, line)
	case *ast.SuperExpr:
		em.checkSuperAllowed(callee.Pos())
		em.emitGetLocal(0, line)
		for _, a := range e.Args {
			em.compileExpr(a)
		}
		em.emitInvokeSuper(callee.Name, len(e.Args), ignoring, line)
	default:
		em.compileExpr(e.Callee)
		for _, a := range e.Args {
			em.compileExpr(a)
		}
		em.emit(CALL, line)
		em.emitByte(byte(len(e.Args)), line)
		if ignoring {
			em.emit(POP, line)
		}
	}
}

func (em *emitter) compileNew(e *ast.NewExpr) {
	line := lineOf(e.Pos())
	em.compileExpr(e.Class)
	for _, a := range e.Args {
		em.compileExpr(a)
	}
	em.emit(CALL, line)
	em.emitByte(byte(len(e.Args)), line)
}

func (em *emitter) compileArray(e *ast.ArrayExpr) {
	line := lineOf(e.Pos())
	for _, el := range e.Elems {
		em.compileExpr(el)
	}
	em.emit(ARRAY, line)
	em.fn.Chunk.WriteU16(uint16(len(e.Elems)), line)
}

func (em *emitter) compileObject(e *ast.ObjectExpr) {
	line := lineOf(e.Pos())
	for _, entry := range e.Entries {
		switch k := entry.Key.(type) {
		case *ast.IdentExpr:
			em.fn.Chunk.EmitConstant(value.NewObj(value.NewString(k.Name)), lineOf(k.Pos()))
		case *ast.LiteralExpr:
			em.compileLiteral(k)
		default:
			em.compileExpr(k)
		}
		em.compileExpr(entry.Value)
	}
	em.emit(OBJECT, line)
	em.fn.Chunk.WriteU16(uint16(len(e.Entries)), line)
}

func (em *emitter) compileIfExpr(e *ast.IfExpr) {
	line := lineOf(e.Pos())
	em.compileExpr(e.Cond)
	thenJump := em.emitJump(JUMP_IF_FALSE_POPPING, line)
	em.compileExpr(e.Then)
	elseJump := em.emitJump(JUMP, lineOf(e.Then.End()))
	em.patchJump(thenJump)
	if e.Else != nil {
		em.compileExpr(e.Else)
	} else {
		em.emit(NULL, line)
	}
	em.patchJump(elseJump)
}

// compileInterpolation lowers `"...${x}..."` to an array of its pieces
// followed by a join call, per spec.md §4.6.
func (em *emitter) compileInterpolation(e *ast.InterpolationExpr) {
	line := lineOf(e.Pos())
	for _, p := range e.Pieces {
		em.compileExpr(p)
	}
	em.emit(ARRAY, line)
	em.fn.Chunk.WriteU16(uint16(len(e.Pieces)), line)
	em.emitInvoke("join", 0, false, line)
}

func (em *emitter) compileReference(e *ast.ReferenceExpr) {
	line := lineOf(e.Pos())
	switch t := ast.Unwrap(e.X).(type) {
	case *ast.IdentExpr:
		r := em.resolve(t.Name)
		t.Binding, t.Index = r.kind, r.index
		switch r.kind {
		case "local":
			em.emit(REFERENCE_LOCAL, line)
			em.emitByte(byte(r.index), line)
		case "upvalue":
			em.emit(REFERENCE_UPVALUE, line)
			em.emitByte(byte(r.index), line)
		case "private":
			em.emit(REFERENCE_PRIVATE, line)
			em.emitByte(byte(r.index), line)
		default:
			em.emit(REFERENCE_GLOBAL, line)
			em.emitByte(em.nameConst(t.Name), line)
		}
	case *ast.GetExpr:
		em.compileExpr(t.X)
		em.emit(REFERENCE_FIELD, line)
		em.emitByte(em.nameConst(t.Name), line)
	default:
		em.errs.Add(e.Pos(), "compiler: invalid reference target %T", t)
	}
}
