package ast

import "github.com/mna/vesper/lang/token"

func (*LiteralExpr) exprNode()      {}
func (*IdentExpr) exprNode()        {}
func (*AssignExpr) exprNode()       {}
func (*BinaryExpr) exprNode()       {}
func (*UnaryExpr) exprNode()        {}
func (*CallExpr) exprNode()         {}
func (*GetExpr) exprNode()          {}
func (*SubscriptExpr) exprNode()    {}
func (*LambdaExpr) exprNode()       {}
func (*ArrayExpr) exprNode()        {}
func (*ObjectExpr) exprNode()       {}
func (*ThisExpr) exprNode()         {}
func (*SuperExpr) exprNode()        {}
func (*RangeExpr) exprNode()        {}
func (*IfExpr) exprNode()           {}
func (*InterpolationExpr) exprNode(){}
func (*ReferenceExpr) exprNode()    {}
func (*ParenExpr) exprNode()        {}
func (*NewExpr) exprNode()          {}
func (*BadExpr) exprNode()          {}

// LiteralExpr is a number, string, boolean, or null literal.
type LiteralExpr struct {
	ValPos token.Pos
	Kind   token.Token // INT, FLOAT, STRING, TRUE, FALSE, NULL
	Int    int64
	Num    float64
	Str    string
}

func (e *LiteralExpr) Pos() token.Pos { return e.ValPos }
func (e *LiteralExpr) End() token.Pos { return e.ValPos }
func (e *LiteralExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	v.Visit(e, VisitExit)
}

// IdentExpr is a bare identifier reference.
type IdentExpr struct {
	NamePos token.Pos
	Name    string

	// Binding is filled in by the emitter's resolution pass: "local",
	// "upvalue", "private", or "global". Left empty until resolved.
	Binding string
	Index   int
}

func (e *IdentExpr) Pos() token.Pos { return e.NamePos }
func (e *IdentExpr) End() token.Pos { return e.NamePos }
func (e *IdentExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	v.Visit(e, VisitExit)
}

// AssignExpr covers both "assign" (to an identifier) and "set" (to a
// property or subscript) expression kinds: Target's concrete type decides
// which.
type AssignExpr struct {
	Target Expr
	OpPos  token.Pos
	Op     token.Token // ASSIGN or a compound-assignment token
	Value  Expr
}

func (e *AssignExpr) Pos() token.Pos { return e.Target.Pos() }
func (e *AssignExpr) End() token.Pos { return e.Value.End() }
func (e *AssignExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.Target)
	Walk(v, e.Value)
	v.Visit(e, VisitExit)
}

// BinaryExpr is a binary operator expression.
type BinaryExpr struct {
	X     Expr
	OpPos token.Pos
	Op    token.Token
	Y     Expr
}

func (e *BinaryExpr) Pos() token.Pos { return e.X.Pos() }
func (e *BinaryExpr) End() token.Pos { return e.Y.End() }
func (e *BinaryExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.X)
	Walk(v, e.Y)
	v.Visit(e, VisitExit)
}

// UnaryExpr is a prefix unary operator expression (`! - ~ ++ --`).
type UnaryExpr struct {
	OpPos token.Pos
	Op    token.Token
	X     Expr
}

func (e *UnaryExpr) Pos() token.Pos { return e.OpPos }
func (e *UnaryExpr) End() token.Pos { return e.X.End() }
func (e *UnaryExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.X)
	v.Visit(e, VisitExit)
}

// CallExpr is a function/method call.
type CallExpr struct {
	Callee Expr
	Lparen token.Pos
	Args   []Expr
	Rparen token.Pos
}

func (e *CallExpr) Pos() token.Pos { return e.Callee.Pos() }
func (e *CallExpr) End() token.Pos { return e.Rparen }
func (e *CallExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.Callee)
	for _, a := range e.Args {
		Walk(v, a)
	}
	v.Visit(e, VisitExit)
}

// GetExpr is property access `x.name`.
type GetExpr struct {
	X       Expr
	Dot     token.Pos
	Name    string
	NamePos token.Pos
}

func (e *GetExpr) Pos() token.Pos { return e.X.Pos() }
func (e *GetExpr) End() token.Pos { return e.NamePos }
func (e *GetExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.X)
	v.Visit(e, VisitExit)
}

// SubscriptExpr is index access `x[i]`, lowered by the emitter to
// `INVOKE "[]"`.
type SubscriptExpr struct {
	X      Expr
	Lbrack token.Pos
	Index  Expr
	Rbrack token.Pos
}

func (e *SubscriptExpr) Pos() token.Pos { return e.X.Pos() }
func (e *SubscriptExpr) End() token.Pos { return e.Rbrack }
func (e *SubscriptExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.X)
	Walk(v, e.Index)
	v.Visit(e, VisitExit)
}

// Param is one function/lambda parameter.
type Param struct {
	NamePos token.Pos
	Name    string
}

// LambdaExpr is a function literal, either `function(...) { ... }` or the
// arrow form `(a, b) => expr`.
type LambdaExpr struct {
	FnPos   token.Pos
	Params  []*Param
	Vararg  bool
	Body    *BlockStmt
	EndPos  token.Pos
}

func (e *LambdaExpr) Pos() token.Pos { return e.FnPos }
func (e *LambdaExpr) End() token.Pos { return e.EndPos }
func (e *LambdaExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.Body)
	v.Visit(e, VisitExit)
}

// ArrayExpr is an array literal `[a, b, c]`.
type ArrayExpr struct {
	Lbrack token.Pos
	Elems  []Expr
	Rbrack token.Pos
}

func (e *ArrayExpr) Pos() token.Pos { return e.Lbrack }
func (e *ArrayExpr) End() token.Pos { return e.Rbrack }
func (e *ArrayExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	for _, el := range e.Elems {
		Walk(v, el)
	}
	v.Visit(e, VisitExit)
}

// ObjectEntry is one `key: value` pair of an object literal.
type ObjectEntry struct {
	Key   Expr // IdentExpr, LiteralExpr(STRING), or a computed expr in `[...]`
	Value Expr
}

// ObjectExpr is an object (map) literal `{ k: v, ... }`.
type ObjectExpr struct {
	Lbrace  token.Pos
	Entries []*ObjectEntry
	Rbrace  token.Pos
}

func (e *ObjectExpr) Pos() token.Pos { return e.Lbrace }
func (e *ObjectExpr) End() token.Pos { return e.Rbrace }
func (e *ObjectExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	for _, en := range e.Entries {
		Walk(v, en.Key)
		Walk(v, en.Value)
	}
	v.Visit(e, VisitExit)
}

// ThisExpr is the `this` keyword used inside a method body.
type ThisExpr struct{ ThisPos token.Pos }

func (e *ThisExpr) Pos() token.Pos { return e.ThisPos }
func (e *ThisExpr) End() token.Pos { return e.ThisPos }
func (e *ThisExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	v.Visit(e, VisitExit)
}

// SuperExpr is `super.name`, a direct super-method reference.
type SuperExpr struct {
	SuperPos token.Pos
	Name     string
	NamePos  token.Pos
}

func (e *SuperExpr) Pos() token.Pos { return e.SuperPos }
func (e *SuperExpr) End() token.Pos { return e.NamePos }
func (e *SuperExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	v.Visit(e, VisitExit)
}

// RangeExpr is `from..to`.
type RangeExpr struct {
	From   Expr
	DotDot token.Pos
	To     Expr
}

func (e *RangeExpr) Pos() token.Pos { return e.From.Pos() }
func (e *RangeExpr) End() token.Pos { return e.To.End() }
func (e *RangeExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.From)
	Walk(v, e.To)
	v.Visit(e, VisitExit)
}

// IfExpr is an if-expression, evaluating to Then's or Else's value.
type IfExpr struct {
	IfPos  token.Pos
	Cond   Expr
	Then   Expr
	Else   Expr
}

func (e *IfExpr) Pos() token.Pos { return e.IfPos }
func (e *IfExpr) End() token.Pos {
	if e.Else != nil {
		return e.Else.End()
	}
	return e.Then.End()
}
func (e *IfExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.Cond)
	Walk(v, e.Then)
	if e.Else != nil {
		Walk(v, e.Else)
	}
	v.Visit(e, VisitExit)
}

// InterpolationExpr is a `"...${...}..."` string, compiled by the emitter
// to an array-then-join call over Pieces.
type InterpolationExpr struct {
	StartPos token.Pos
	Pieces   []Expr // alternating *LiteralExpr(STRING) and arbitrary Expr
	EndPos   token.Pos
}

func (e *InterpolationExpr) Pos() token.Pos { return e.StartPos }
func (e *InterpolationExpr) End() token.Pos { return e.EndPos }
func (e *InterpolationExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	for _, p := range e.Pieces {
		Walk(v, p)
	}
	v.Visit(e, VisitExit)
}

// ReferenceExpr is `ref x`, producing a first-class Reference value.
type ReferenceExpr struct {
	RefPos token.Pos
	X      Expr
}

func (e *ReferenceExpr) Pos() token.Pos { return e.RefPos }
func (e *ReferenceExpr) End() token.Pos { return e.X.End() }
func (e *ReferenceExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.X)
	v.Visit(e, VisitExit)
}

// ParenExpr is a parenthesized expression, kept in the tree so that
// IsAssignable/Unwrap can distinguish `(x) = y` (invalid) from `x = y`.
type ParenExpr struct {
	Lparen token.Pos
	X      Expr
	Rparen token.Pos
}

func (e *ParenExpr) Pos() token.Pos { return e.Lparen }
func (e *ParenExpr) End() token.Pos { return e.Rparen }
func (e *ParenExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.X)
	v.Visit(e, VisitExit)
}

// NewExpr is `new Class(args...)`, sugar for calling the class value.
type NewExpr struct {
	NewPos token.Pos
	Class  Expr
	Lparen token.Pos
	Args   []Expr
	Rparen token.Pos
}

func (e *NewExpr) Pos() token.Pos { return e.NewPos }
func (e *NewExpr) End() token.Pos { return e.Rparen }
func (e *NewExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	Walk(v, e.Class)
	for _, a := range e.Args {
		Walk(v, a)
	}
	v.Visit(e, VisitExit)
}

// BadExpr is a placeholder for a syntactically invalid expression, used
// so the parser can continue after an error without nil-pointer panics
// deeper in the tree.
type BadExpr struct {
	From, To token.Pos
}

func (e *BadExpr) Pos() token.Pos { return e.From }
func (e *BadExpr) End() token.Pos { return e.To }
func (e *BadExpr) Walk(v Visitor) {
	if v = v.Visit(e, VisitEnter); v == nil {
		return
	}
	v.Visit(e, VisitExit)
}
