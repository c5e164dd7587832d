// Package optimizer implements the AST-to-AST rewrite passes that run
// between parsing and emission: literal/constant folding, unused-variable
// elimination, unreachable-code elimination, empty-loop elimination, and
// the for-in-over-a-range rewrite to a C-style counting loop. Each pass is
// independently toggleable through an Options value (never global state,
// so a host embedding multiple compilations concurrently never races on
// toggles), and four predefined levels bulk-set them.
package optimizer

import (
	"golang.org/x/exp/slices"

	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/token"
)

// Level is one of the predefined optimization presets.
type Level int

const (
	NONE Level = iota
	REPL
	DEBUG
	RELEASE
	EXTREME
)

// Options controls which passes run. The zero value is NONE: nothing is
// rewritten.
type Options struct {
	Level Level

	FoldLiterals      bool
	FoldConstants     bool
	ElideUnusedVars   bool
	ElideDeadCode     bool
	ElideEmptyLoops   bool
	RewriteForInRange bool
	SuppressLineInfo  bool
	ElidePrivateNames bool
}

// ForLevel returns the toggle set for a predefined level.
func ForLevel(l Level) Options {
	o := Options{Level: l}
	switch l {
	case REPL:
		o.FoldLiterals = true
	case DEBUG:
		o.FoldLiterals = true
		o.FoldConstants = true
	case RELEASE:
		o.FoldLiterals = true
		o.FoldConstants = true
		o.ElideUnusedVars = true
		o.ElideDeadCode = true
		o.ElideEmptyLoops = true
		o.RewriteForInRange = true
	case EXTREME:
		o.FoldLiterals = true
		o.FoldConstants = true
		o.ElideUnusedVars = true
		o.ElideDeadCode = true
		o.ElideEmptyLoops = true
		o.RewriteForInRange = true
		o.SuppressLineInfo = true
		o.ElidePrivateNames = true
	}
	return o
}

// ToggleNames lists every toggle, in a fixed sorted order, for `-Ohelp`.
func ToggleNames() []string {
	names := []string{
		"fold-literals", "fold-constants", "elide-unused-vars",
		"elide-dead-code", "elide-empty-loops", "rewrite-for-in-range",
		"suppress-line-info", "elide-private-names",
	}
	slices.Sort(names)
	return names
}

// Optimize rewrites chunk in place according to opts and returns it.
func Optimize(chunk *ast.Chunk, opts Options) *ast.Chunk {
	env := &constEnv{vals: map[string]*ast.LiteralExpr{}}
	chunk.Stmts = optimizeStmts(chunk.Stmts, opts, env)
	return chunk
}

type constEnv struct {
	vals map[string]*ast.LiteralExpr
}

func isTerminal(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
		return true
	}
	return false
}

func optimizeStmts(stmts []ast.Stmt, opts Options, env *constEnv) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		s = optimizeStmt(s, opts, env)
		if s == nil {
			continue
		}
		out = append(out, s)
		if opts.ElideDeadCode && isTerminal(s) {
			break
		}
	}
	if opts.ElideUnusedVars {
		out = elideUnusedVars(out)
	}
	return out
}

func optimizeStmt(s ast.Stmt, opts Options, env *constEnv) ast.Stmt {
	switch st := s.(type) {
	case *ast.ExprStmt:
		st.X = optimizeExpr(st.X, opts, env)
		return st
	case *ast.BlockStmt:
		st.Stmts = optimizeStmts(st.Stmts, opts, env)
		return st
	case *ast.VarStmt:
		if st.Value != nil {
			st.Value = optimizeExpr(st.Value, opts, env)
		}
		if opts.FoldConstants && st.Const {
			if lit, ok := st.Value.(*ast.LiteralExpr); ok {
				env.vals[st.Name] = lit
			}
		}
		return st
	case *ast.IfStmt:
		st.Cond = optimizeExpr(st.Cond, opts, env)
		st.Then.Stmts = optimizeStmts(st.Then.Stmts, opts, env)
		if st.Else != nil {
			st.Else = optimizeStmt(st.Else, opts, env)
		}
		if opts.ElideDeadCode {
			if lit, ok := st.Cond.(*ast.LiteralExpr); ok {
				if truthy(lit) {
					return st.Then
				}
				if st.Else != nil {
					return st.Else
				}
				return nil
			}
		}
		return st
	case *ast.WhileStmt:
		st.Cond = optimizeExpr(st.Cond, opts, env)
		st.Body.Stmts = optimizeStmts(st.Body.Stmts, opts, env)
		if opts.ElideEmptyLoops && len(st.Body.Stmts) == 0 && isPure(st.Cond) {
			return nil
		}
		return st
	case *ast.ForStmt:
		if st.Init != nil {
			st.Init = optimizeStmt(st.Init, opts, env)
		}
		if st.Cond != nil {
			st.Cond = optimizeExpr(st.Cond, opts, env)
		}
		if st.Post != nil {
			st.Post = optimizeExpr(st.Post, opts, env)
		}
		st.Body.Stmts = optimizeStmts(st.Body.Stmts, opts, env)
		if opts.ElideEmptyLoops && len(st.Body.Stmts) == 0 && (st.Cond == nil || isPure(st.Cond)) && isPure(st.Post) {
			return nil
		}
		return st
	case *ast.ForInStmt:
		st.Iter = optimizeExpr(st.Iter, opts, env)
		st.Body.Stmts = optimizeStmts(st.Body.Stmts, opts, env)
		if opts.RewriteForInRange {
			if rng, ok := st.Iter.(*ast.RangeExpr); ok {
				if from, okF := rng.From.(*ast.LiteralExpr); okF {
					if to, okT := rng.To.(*ast.LiteralExpr); okT {
						return rewriteForInRange(st, from, to)
					}
				}
			}
		}
		return st
	case *ast.FunctionStmt:
		inner := &constEnv{vals: map[string]*ast.LiteralExpr{}}
		for k, v := range env.vals {
			inner.vals[k] = v
		}
		st.Fn.Body.Stmts = optimizeStmts(st.Fn.Body.Stmts, opts, inner)
		return st
	case *ast.ClassStmt:
		for _, m := range st.Methods {
			inner := &constEnv{vals: map[string]*ast.LiteralExpr{}}
			m.Fn.Body.Stmts = optimizeStmts(m.Fn.Body.Stmts, opts, inner)
		}
		for _, f := range st.Fields {
			if f.Getter != nil {
				f.Getter.Body.Stmts = optimizeStmts(f.Getter.Body.Stmts, opts, env)
			}
			if f.Setter != nil {
				f.Setter.Body.Stmts = optimizeStmts(f.Setter.Body.Stmts, opts, env)
			}
		}
		return st
	case *ast.ReturnStmt:
		if st.Value != nil {
			st.Value = optimizeExpr(st.Value, opts, env)
		}
		return st
	case *ast.ExportStmt:
		st.Decl = optimizeStmt(st.Decl, opts, env)
		return st
	default:
		return s
	}
}

// rewriteForInRange converts `for (var i in from..to) body` into the
// equivalent C-style counting loop, direction chosen by comparing the
// range's numeric endpoints.
func rewriteForInRange(st *ast.ForInStmt, from, to *ast.LiteralExpr) ast.Stmt {
	fv, tv := literalNum(from), literalNum(to)
	step := token.PLUS
	cmp := token.LE
	if fv > tv {
		step = token.MINUS
		cmp = token.GE
	}
	init := &ast.VarStmt{VarPos: st.ForPos, NamePos: st.NamePos, Name: st.Name, Value: from}
	ident := &ast.IdentExpr{NamePos: st.NamePos, Name: st.Name}
	cond := &ast.BinaryExpr{X: ident, Op: cmp, Y: to}
	post := &ast.AssignExpr{
		Target: ident, Op: token.ASSIGN,
		Value: &ast.BinaryExpr{X: ident, Op: step, Y: &ast.LiteralExpr{Kind: token.INT, Int: 1}},
	}
	return &ast.ForStmt{ForPos: st.ForPos, Init: init, Cond: cond, Post: post, Body: st.Body}
}

func optimizeExpr(e ast.Expr, opts Options, env *constEnv) ast.Expr {
	switch ex := e.(type) {
	case *ast.BinaryExpr:
		ex.X = optimizeExpr(ex.X, opts, env)
		ex.Y = optimizeExpr(ex.Y, opts, env)
		if opts.FoldLiterals {
			if folded := foldBinary(ex); folded != nil {
				return folded
			}
		}
		return ex
	case *ast.UnaryExpr:
		ex.X = optimizeExpr(ex.X, opts, env)
		if opts.FoldLiterals {
			if folded := foldUnary(ex); folded != nil {
				return folded
			}
		}
		return ex
	case *ast.IdentExpr:
		if opts.FoldConstants {
			if lit, ok := env.vals[ex.Name]; ok {
				return lit
			}
		}
		return ex
	case *ast.AssignExpr:
		ex.Value = optimizeExpr(ex.Value, opts, env)
		return ex
	case *ast.CallExpr:
		ex.Callee = optimizeExpr(ex.Callee, opts, env)
		for i, a := range ex.Args {
			ex.Args[i] = optimizeExpr(a, opts, env)
		}
		return ex
	case *ast.NewExpr:
		for i, a := range ex.Args {
			ex.Args[i] = optimizeExpr(a, opts, env)
		}
		return ex
	case *ast.GetExpr:
		ex.X = optimizeExpr(ex.X, opts, env)
		return ex
	case *ast.SubscriptExpr:
		ex.X = optimizeExpr(ex.X, opts, env)
		ex.Index = optimizeExpr(ex.Index, opts, env)
		return ex
	case *ast.ArrayExpr:
		for i, el := range ex.Elems {
			ex.Elems[i] = optimizeExpr(el, opts, env)
		}
		return ex
	case *ast.ObjectExpr:
		for _, en := range ex.Entries {
			en.Value = optimizeExpr(en.Value, opts, env)
		}
		return ex
	case *ast.RangeExpr:
		ex.From = optimizeExpr(ex.From, opts, env)
		ex.To = optimizeExpr(ex.To, opts, env)
		return ex
	case *ast.IfExpr:
		ex.Cond = optimizeExpr(ex.Cond, opts, env)
		ex.Then = optimizeExpr(ex.Then, opts, env)
		if ex.Else != nil {
			ex.Else = optimizeExpr(ex.Else, opts, env)
		}
		return ex
	case *ast.InterpolationExpr:
		for i, p := range ex.Pieces {
			ex.Pieces[i] = optimizeExpr(p, opts, env)
		}
		return ex
	case *ast.ReferenceExpr:
		ex.X = optimizeExpr(ex.X, opts, env)
		return ex
	case *ast.ParenExpr:
		ex.X = optimizeExpr(ex.X, opts, env)
		return ex
	case *ast.LambdaExpr:
		inner := &constEnv{vals: map[string]*ast.LiteralExpr{}}
		for k, v := range env.vals {
			inner.vals[k] = v
		}
		ex.Body.Stmts = optimizeStmts(ex.Body.Stmts, opts, inner)
		return ex
	default:
		return e
	}
}

func literalNum(lit *ast.LiteralExpr) float64 {
	if lit.Kind == token.INT {
		return float64(lit.Int)
	}
	return lit.Num
}

func truthy(lit *ast.LiteralExpr) bool {
	switch lit.Kind {
	case token.NULL, token.FALSE:
		return false
	case token.INT:
		return lit.Int != 0
	case token.FLOAT:
		return lit.Num != 0
	default:
		return true
	}
}

func isPure(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.LiteralExpr, *ast.IdentExpr:
		return true
	case *ast.BinaryExpr:
		return isPure(x.X) && isPure(x.Y)
	case *ast.UnaryExpr:
		return isPure(x.X)
	default:
		return false
	}
}

func elideUnusedVars(stmts []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for i, s := range stmts {
		if v, ok := s.(*ast.VarStmt); ok && !v.Const {
			if !usedAfter(stmts[i+1:], v.Name) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func usedAfter(stmts []ast.Stmt, name string) bool {
	found := false
	visit := ast.VisitorFunc(func(n ast.Node) bool {
		if found {
			return false
		}
		if id, ok := n.(*ast.IdentExpr); ok && id.Name == name {
			found = true
			return false
		}
		return true
	})
	for _, s := range stmts {
		ast.Walk(visit, s)
		if found {
			return true
		}
	}
	return false
}
