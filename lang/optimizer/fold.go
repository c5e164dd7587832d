package optimizer

import (
	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/token"
)

func numLit(e ast.Expr) (v float64, isInt bool, ok bool) {
	lit, isLit := e.(*ast.LiteralExpr)
	if !isLit {
		return 0, false, false
	}
	switch lit.Kind {
	case token.INT:
		return float64(lit.Int), true, true
	case token.FLOAT:
		return lit.Num, false, true
	default:
		return 0, false, false
	}
}

func makeNumLit(v float64, isInt bool) *ast.LiteralExpr {
	if isInt {
		return &ast.LiteralExpr{Kind: token.INT, Int: int64(v)}
	}
	return &ast.LiteralExpr{Kind: token.FLOAT, Num: v}
}

// foldBinary evaluates a pure binary expression over two numeric literals
// at compile time, and strength-reduces the identity cases (x*1, x*0,
// x+0, x-0, x**1, x/1) even when only one operand is a literal. Returns
// nil when no rewrite applies.
func foldBinary(e *ast.BinaryExpr) ast.Expr {
	lv, lIsInt, lok := numLit(e.X)
	rv, rIsInt, rok := numLit(e.Y)

	if lok && rok {
		bothInt := lIsInt && rIsInt
		switch e.Op {
		case token.PLUS:
			return makeNumLit(lv+rv, bothInt)
		case token.MINUS:
			return makeNumLit(lv-rv, bothInt)
		case token.STAR:
			return makeNumLit(lv*rv, bothInt)
		case token.SLASH:
			if rv != 0 {
				return makeNumLit(lv/rv, false)
			}
		case token.STARSTAR:
			// ipow handles non-negative integral exponents only; any
			// other exponent is left for the VM's math.Pow
			if rv >= 0 && rv == float64(int64(rv)) {
				return makeNumLit(ipow(lv, rv), bothInt)
			}
		}
		return nil
	}

	// strength reductions with a single literal operand
	if rok {
		switch e.Op {
		case token.STAR:
			if rv == 1 {
				return e.X
			}
			if rv == 0 {
				return makeNumLit(0, rIsInt)
			}
		case token.PLUS:
			if rv == 0 {
				return e.X
			}
		case token.MINUS:
			if rv == 0 {
				return e.X
			}
		case token.SLASH:
			if rv == 1 {
				return e.X
			}
		case token.STARSTAR:
			if rv == 1 {
				return e.X
			}
		}
	}
	if lok {
		switch e.Op {
		case token.STAR:
			if lv == 1 {
				return e.Y
			}
			if lv == 0 {
				return makeNumLit(0, lIsInt)
			}
		case token.PLUS:
			if lv == 0 {
				return e.Y
			}
		}
	}
	return nil
}

func ipow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}

func foldUnary(e *ast.UnaryExpr) ast.Expr {
	v, isInt, ok := numLit(e.X)
	if !ok {
		return nil
	}
	switch e.Op {
	case token.MINUS:
		return makeNumLit(-v, isInt)
	}
	return nil
}
