package compiler

import (
	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/token"
)

// checkSuperAllowed reports an error if `super` is used outside any
// class, or inside a class declared without a superclass.
func (em *emitter) checkSuperAllowed(pos token.Pos) {
	if em.class == nil {
		em.errs.Add(pos, "'super' used outside of a class")
		return
	}
	if !em.class.hasSuper {
		em.errs.Add(pos, "'super' used in a class with no superclass")
	}
}

// compileFunction compiles a nested function/method body in a fresh
// emitter chained to this one via `enclosing`, so resolveUpvalue can walk
// outward through however many function scopes separate a captured local
// from the closure that reads it. Returns the compiled Function and the
// upvalue descriptor list emitClosure needs to lay out CLOSURE's operand.
func (em *emitter) compileFunction(lam *ast.LambdaExpr, name string, kind funcKind) (*Function, []upvalueRef) {
	child := &emitter{
		enclosing: em,
		fn:        NewFunction(name),
		kind:      kind,
		class:     em.class,
		errs:      em.errs,
	}
	// slot 0 is "this" for methods/constructors, otherwise unused but
	// still reserved so method and plain-function frames line up.
	child.locals = append(child.locals, local{name: "this", depth: 0})
	child.trackSlots()

	for _, p := range lam.Params {
		child.declareOnly(p.Name, p.NamePos)
	}
	child.fn.ArgCount = len(lam.Params)
	child.fn.Vararg = lam.Vararg

	child.compileStmts(lam.Body.Stmts)
	child.emitReturn(lam.Body.End())

	child.fn.MaxSlots = child.maxSlotsSeen
	if child.fn.MaxSlots < len(child.locals) {
		child.fn.MaxSlots = len(child.locals)
	}
	child.fn.UpvalueCount = len(child.upvalues)
	return child.fn, child.upvalues
}

// compileClassStmt emits, in order: CLASS (bare), INHERIT (if a
// superclass expression is present, copying its methods/statics before
// this class's own declarations can override them), one STATIC_FIELD
// per static var, one METHOD per method (constructor included, matched
// by name), and one DEFINE_FIELD per getter/setter declaration. This
// ordering mirrors spec.md §4.7's two-step CLASS/INHERIT split.
func (em *emitter) compileClassStmt(s *ast.ClassStmt) {
	line := lineOf(s.Pos())

	em.declareOnly(s.Name, s.NamePos)

	em.emit(CLASS, line)
	em.emitByte(em.nameConst(s.Name), line)

	if s.Super != nil {
		em.compileExpr(s.Super)
		em.emit(INHERIT, lineOf(s.Super.Pos()))
	}

	em.class = &classCtx{enclosing: em.class, hasSuper: s.Super != nil}

	for _, sf := range s.StaticFields {
		if sf.Value != nil {
			em.compileExpr(sf.Value)
		} else {
			em.emit(NULL, lineOf(sf.Pos()))
		}
		em.emit(STATIC_FIELD, lineOf(sf.Pos()))
		em.emitByte(em.nameConst(sf.Name), lineOf(sf.Pos()))
	}

	for _, m := range s.Methods {
		em.compileMethod(m)
	}

	for _, f := range s.Fields {
		em.compileFieldDecl(f)
	}

	em.class = em.class.enclosing

	em.defineDeclared(s.Name, s.NamePos)
}

func (em *emitter) compileMethod(m *ast.MethodDecl) {
	line := lineOf(m.FnPos)
	kind := kindMethod
	name := m.Name // the parser already spells operator methods "operator+" etc.
	if name == "constructor" {
		kind = kindConstructor
	}

	fn, upvalues := em.compileFunction(m.Fn, name, kind)
	em.emitClosure(fn, upvalues, line)

	if m.IsStatic {
		em.emit(STATIC_FIELD, line)
	} else {
		em.emit(METHOD, line)
	}
	em.emitByte(em.nameConst(name), line)
}

// compileFieldDecl emits DEFINE_FIELD: both getter and setter closures
// (NULL for whichever side is absent) pushed before the opcode, matching
// its "pop setter,getter, class below" operand order.
func (em *emitter) compileFieldDecl(f *ast.FieldDecl) {
	line := lineOf(f.NamePos)
	if f.Getter != nil {
		fn, upvalues := em.compileFunction(f.Getter, "get "+f.Name, kindMethod)
		em.emitClosure(fn, upvalues, line)
	} else {
		em.emit(NULL, line)
	}
	if f.Setter != nil {
		fn, upvalues := em.compileFunction(f.Setter, "set "+f.Name, kindMethod)
		em.emitClosure(fn, upvalues, line)
	} else {
		em.emit(NULL, line)
	}
	em.emit(DEFINE_FIELD, line)
	em.emitByte(em.nameConst(f.Name), line)
}
