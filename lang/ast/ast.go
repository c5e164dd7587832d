// Package ast defines the abstract syntax tree produced by the parser:
// expression and statement node kinds, a Visitor for tree-walking passes
// (used by both the optimizer and the emitter), and a pretty-printer.
package ast

import "github.com/mna/vesper/lang/token"

// Node is implemented by every expression and statement node.
type Node interface {
	Pos() token.Pos
	End() token.Pos
	Walk(v Visitor)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Chunk is the root node of one parsed source file: a flat list of
// top-level statements.
type Chunk struct {
	Stmts []Stmt
}

func (c *Chunk) Pos() token.Pos {
	if len(c.Stmts) == 0 {
		return token.Pos(0)
	}
	return c.Stmts[0].Pos()
}

func (c *Chunk) End() token.Pos {
	if len(c.Stmts) == 0 {
		return token.Pos(0)
	}
	return c.Stmts[len(c.Stmts)-1].End()
}

func (c *Chunk) Walk(v Visitor) {
	if v = v.Visit(c, VisitEnter); v == nil {
		return
	}
	for _, s := range c.Stmts {
		Walk(v, s)
	}
	v.Visit(c, VisitExit)
}

// Unwrap strips any number of enclosing *ParenExpr wrappers from e.
func Unwrap(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

// IsAssignable reports whether e is a valid assignment target: an
// identifier, a property get, or a subscript expression.
func IsAssignable(e Expr) bool {
	switch Unwrap(e).(type) {
	case *IdentExpr, *GetExpr, *SubscriptExpr:
		return true
	default:
		return false
	}
}
