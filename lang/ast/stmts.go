package ast

import "github.com/mna/vesper/lang/token"

func (*ExprStmt) stmtNode()     {}
func (*BlockStmt) stmtNode()    {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*ForInStmt) stmtNode()    {}
func (*VarStmt) stmtNode()      {}
func (*ContinueStmt) stmtNode() {}
func (*BreakStmt) stmtNode()    {}
func (*FunctionStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()   {}
func (*ClassStmt) stmtNode()    {}
func (*ExportStmt) stmtNode()   {}
func (*BadStmt) stmtNode()      {}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) Pos() token.Pos { return s.X.Pos() }
func (s *ExprStmt) End() token.Pos { return s.X.End() }
func (s *ExprStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	Walk(v, s.X)
	v.Visit(s, VisitExit)
}

// BlockStmt is a `{ ... }` sequence of statements introducing a new scope.
type BlockStmt struct {
	Lbrace token.Pos
	Stmts  []Stmt
	Rbrace token.Pos
}

func (s *BlockStmt) Pos() token.Pos { return s.Lbrace }
func (s *BlockStmt) End() token.Pos { return s.Rbrace }
func (s *BlockStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	for _, c := range s.Stmts {
		Walk(v, c)
	}
	v.Visit(s, VisitExit)
}

// IfStmt is `if (cond) then [else else_]`; ElseIf chains are represented
// by nesting another *IfStmt as Else.
type IfStmt struct {
	IfPos token.Pos
	Cond  Expr
	Then  *BlockStmt
	Else  Stmt // nil, *BlockStmt, or *IfStmt
}

func (s *IfStmt) Pos() token.Pos { return s.IfPos }
func (s *IfStmt) End() token.Pos {
	if s.Else != nil {
		return s.Else.End()
	}
	return s.Then.End()
}
func (s *IfStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	Walk(v, s.Cond)
	Walk(v, s.Then)
	if s.Else != nil {
		Walk(v, s.Else)
	}
	v.Visit(s, VisitExit)
}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	WhilePos token.Pos
	Cond     Expr
	Body     *BlockStmt
}

func (s *WhileStmt) Pos() token.Pos { return s.WhilePos }
func (s *WhileStmt) End() token.Pos { return s.Body.End() }
func (s *WhileStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	Walk(v, s.Cond)
	Walk(v, s.Body)
	v.Visit(s, VisitExit)
}

// ForStmt is the 3-clause C-style `for (init; cond; post) body`. Each
// clause is independently optional.
type ForStmt struct {
	ForPos token.Pos
	Init   Stmt // nil, *VarStmt, or *ExprStmt
	Cond   Expr // nil means "true"
	Post   Expr // nil means no post-step
	Body   *BlockStmt
}

func (s *ForStmt) Pos() token.Pos { return s.ForPos }
func (s *ForStmt) End() token.Pos { return s.Body.End() }
func (s *ForStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	if s.Init != nil {
		Walk(v, s.Init)
	}
	if s.Cond != nil {
		Walk(v, s.Cond)
	}
	if s.Post != nil {
		Walk(v, s.Post)
	}
	Walk(v, s.Body)
	v.Visit(s, VisitExit)
}

// ForInStmt is `for (var name in iterable) body`; the parser records it as
// sugar, lowered by the emitter to iterator/iteratorValue calls (§4.4/4.6).
type ForInStmt struct {
	ForPos  token.Pos
	NamePos token.Pos
	Name    string
	Iter    Expr
	Body    *BlockStmt
}

func (s *ForInStmt) Pos() token.Pos { return s.ForPos }
func (s *ForInStmt) End() token.Pos { return s.Body.End() }
func (s *ForInStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	Walk(v, s.Iter)
	Walk(v, s.Body)
	v.Visit(s, VisitExit)
}

// VarStmt is a `var`/`const` declaration, possibly with an initializer.
type VarStmt struct {
	VarPos  token.Pos
	Const   bool
	NamePos token.Pos
	Name    string
	Value   Expr // nil if no initializer (only valid for `var`)
}

func (s *VarStmt) Pos() token.Pos { return s.VarPos }
func (s *VarStmt) End() token.Pos {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.NamePos
}
func (s *VarStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	if s.Value != nil {
		Walk(v, s.Value)
	}
	v.Visit(s, VisitExit)
}

// ContinueStmt is `continue`.
type ContinueStmt struct{ Pos_ token.Pos }

func (s *ContinueStmt) Pos() token.Pos { return s.Pos_ }
func (s *ContinueStmt) End() token.Pos { return s.Pos_ }
func (s *ContinueStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	v.Visit(s, VisitExit)
}

// BreakStmt is `break`.
type BreakStmt struct{ Pos_ token.Pos }

func (s *BreakStmt) Pos() token.Pos { return s.Pos_ }
func (s *BreakStmt) End() token.Pos { return s.Pos_ }
func (s *BreakStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	v.Visit(s, VisitExit)
}

// FunctionStmt is a named top-level or nested function declaration.
type FunctionStmt struct {
	FnPos   token.Pos
	NamePos token.Pos
	Name    string
	Fn      *LambdaExpr
}

func (s *FunctionStmt) Pos() token.Pos { return s.FnPos }
func (s *FunctionStmt) End() token.Pos { return s.Fn.End() }
func (s *FunctionStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	Walk(v, s.Fn)
	v.Visit(s, VisitExit)
}

// ReturnStmt is `return [value]`.
type ReturnStmt struct {
	ReturnPos token.Pos
	Value     Expr // nil for a bare `return`
}

func (s *ReturnStmt) Pos() token.Pos { return s.ReturnPos }
func (s *ReturnStmt) End() token.Pos {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.ReturnPos
}
func (s *ReturnStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	if s.Value != nil {
		Walk(v, s.Value)
	}
	v.Visit(s, VisitExit)
}

// MethodDecl is one method (or operator overload) inside a class body.
type MethodDecl struct {
	FnPos    token.Pos
	Name     string
	NamePos  token.Pos
	IsStatic bool
	IsGetter bool
	IsSetter bool
	IsOp     bool
	OpTok    token.Token // valid when IsOp
	Fn       *LambdaExpr
}

// FieldDecl is a computed-property (getter/setter) declaration inside a
// class body.
type FieldDecl struct {
	Name       string
	NamePos    token.Pos
	Getter     *LambdaExpr // nil if write-only
	Setter     *LambdaExpr // nil if read-only
}

// ClassStmt is a class declaration: an optional superclass, a run of
// static-field var declarations (validated to precede methods), methods
// (one of which may be named "constructor"), and field (getter/setter)
// declarations.
type ClassStmt struct {
	ClassPos     token.Pos
	NamePos      token.Pos
	Name         string
	Super        Expr // nil if no explicit superclass
	StaticFields []*VarStmt
	Methods      []*MethodDecl
	Fields       []*FieldDecl
	EndPos       token.Pos
}

func (s *ClassStmt) Pos() token.Pos { return s.ClassPos }
func (s *ClassStmt) End() token.Pos { return s.EndPos }
func (s *ClassStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	if s.Super != nil {
		Walk(v, s.Super)
	}
	for _, f := range s.StaticFields {
		Walk(v, f)
	}
	for _, m := range s.Methods {
		Walk(v, m.Fn)
	}
	for _, f := range s.Fields {
		if f.Getter != nil {
			Walk(v, f.Getter)
		}
		if f.Setter != nil {
			Walk(v, f.Setter)
		}
	}
	v.Visit(s, VisitExit)
}

// ExportStmt is `export <decl>`, marking a top-level declaration as part
// of the module's public surface.
type ExportStmt struct {
	ExportPos token.Pos
	Decl      Stmt // *VarStmt, *FunctionStmt, or *ClassStmt
}

func (s *ExportStmt) Pos() token.Pos { return s.ExportPos }
func (s *ExportStmt) End() token.Pos { return s.Decl.End() }
func (s *ExportStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	Walk(v, s.Decl)
	v.Visit(s, VisitExit)
}

// BadStmt is a placeholder for a statement the parser could not make
// sense of, used to let parsing continue after an error.
type BadStmt struct {
	From, To token.Pos
}

func (s *BadStmt) Pos() token.Pos { return s.From }
func (s *BadStmt) End() token.Pos { return s.To }
func (s *BadStmt) Walk(v Visitor) {
	if v = v.Visit(s, VisitEnter); v == nil {
		return
	}
	v.Visit(s, VisitExit)
}
