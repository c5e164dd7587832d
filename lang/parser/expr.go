package parser

import (
	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/token"
)

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

// parseAssignment is the top-level expression production: assignment is
// right-associative and binds looser than every binary operator.
func (p *parser) parseAssignment() ast.Expr {
	left := p.parseSubExpr(0)
	if p.tok.Kind.IsAssignOp() {
		opPos, op := p.tok.Pos, p.tok.Kind
		p.advance()
		if !ast.IsAssignable(left) {
			p.error(left.Pos(), "invalid assignment target")
		}
		right := p.parseAssignment()
		return &ast.AssignExpr{Target: left, OpPos: opPos, Op: op, Value: right}
	}
	return left
}

// parseSubExpr implements precedence climbing: it parses a unary/primary
// expression then consumes binary operators whose precedence is strictly
// greater than minPrec, recursing with that operator's own precedence on
// the right so operators of equal precedence associate left-to-right.
func (p *parser) parseSubExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec := p.tok.Kind.Precedence()
		if prec == 0 || prec <= minPrec {
			break
		}
		opTok, opPos := p.tok.Kind, p.tok.Pos
		p.advance()
		right := p.parseSubExpr(prec)
		if opTok == token.DOTDOT {
			left = &ast.RangeExpr{From: left, DotDot: opPos, To: right}
		} else {
			left = &ast.BinaryExpr{X: left, OpPos: opPos, Op: opTok, Y: right}
		}
	}
	return left
}

func isUnop(t token.Token) bool {
	switch t {
	case token.BANG, token.MINUS, token.TILDE, token.PLUSPLUS, token.MINUSMINUS:
		return true
	default:
		return false
	}
}

func (p *parser) parseUnary() ast.Expr {
	if t := p.tok.Kind; isUnop(t) {
		pos := p.tok.Pos
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{OpPos: pos, Op: t, X: x}
	}
	if p.tok.Kind == token.REF {
		pos := p.tok.Pos
		p.advance()
		return &ast.ReferenceExpr{RefPos: pos, X: p.parseUnary()}
	}
	return p.parseCallOrPrimary()
}

// parseCallOrPrimary parses a primary expression then any trailing chain
// of call, member, and subscript suffixes.
func (p *parser) parseCallOrPrimary() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.tok.Kind {
		case token.DOT:
			dot := p.tok.Pos
			p.advance()
			namePos := p.tok.Pos
			name := p.tok.Lit
			p.expect(token.IDENT)
			e = &ast.GetExpr{X: e, Dot: dot, Name: name, NamePos: namePos}
		case token.LBRACK:
			lbrack := p.expect(token.LBRACK)
			idx := p.parseExpr()
			rbrack := p.expect(token.RBRACK)
			e = &ast.SubscriptExpr{X: e, Lbrack: lbrack, Index: idx, Rbrack: rbrack}
		case token.LPAREN:
			lparen := p.expect(token.LPAREN)
			var args []ast.Expr
			if p.tok.Kind != token.RPAREN {
				args = p.parseExprList()
			}
			rparen := p.expect(token.RPAREN)
			e = &ast.CallExpr{Callee: e, Lparen: lparen, Args: args, Rparen: rparen}
		default:
			return e
		}
	}
}

func (p *parser) parseExprList() []ast.Expr {
	exprs := []ast.Expr{p.parseExpr()}
	for p.accept(token.COMMA) {
		if p.tok.Kind == token.RPAREN || p.tok.Kind == token.RBRACK {
			break // trailing comma
		}
		exprs = append(exprs, p.parseExpr())
	}
	return exprs
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.tok.Kind {
	case token.INT:
		e := &ast.LiteralExpr{ValPos: p.tok.Pos, Kind: token.INT, Int: p.tok.Int}
		p.advance()
		return e
	case token.FLOAT:
		e := &ast.LiteralExpr{ValPos: p.tok.Pos, Kind: token.FLOAT, Num: p.tok.Num}
		p.advance()
		return e
	case token.STRING:
		e := &ast.LiteralExpr{ValPos: p.tok.Pos, Kind: token.STRING, Str: p.tok.Lit}
		p.advance()
		return e
	case token.INTERPOLATION:
		return p.parseInterpolation()
	case token.TRUE, token.FALSE, token.NULL:
		e := &ast.LiteralExpr{ValPos: p.tok.Pos, Kind: p.tok.Kind}
		p.advance()
		return e
	case token.IDENT:
		name, pos := p.tok.Lit, p.tok.Pos
		p.advance()
		return &ast.IdentExpr{NamePos: pos, Name: name}
	case token.THIS:
		pos := p.tok.Pos
		p.advance()
		return &ast.ThisExpr{ThisPos: pos}
	case token.SUPER:
		pos := p.tok.Pos
		p.advance()
		p.expect(token.DOT)
		namePos, name := p.tok.Pos, p.tok.Lit
		p.expect(token.IDENT)
		return &ast.SuperExpr{SuperPos: pos, Name: name, NamePos: namePos}
	case token.NEW:
		return p.parseNewExpr()
	case token.LBRACK:
		return p.parseArrayExpr()
	case token.LBRACE:
		return p.parseObjectExpr()
	case token.FUNCTION:
		return p.parseFunctionLambda()
	case token.IF:
		return p.parseIfExpr()
	case token.LPAREN:
		return p.parseGroupingOrLambda()
	}
	pos := p.tok.Pos
	p.error(pos, "expected expression, found %s", p.tok.Kind.GoString())
	panic(errSync)
}

func (p *parser) parseInterpolation() ast.Expr {
	start := p.tok.Pos
	var pieces []ast.Expr
	var end token.Pos
	for {
		pieces = append(pieces, &ast.LiteralExpr{ValPos: p.tok.Pos, Kind: token.STRING, Str: p.tok.Lit})
		p.advance() // consume INTERPOLATION, next token starts the embedded expr
		pieces = append(pieces, p.parseExpr())
		if p.tok.Kind == token.INTERPOLATION {
			continue
		}
		if p.tok.Kind != token.STRING {
			p.errorExpected(p.tok.Pos, "string continuation")
			panic(errSync)
		}
		end = p.tok.Pos
		pieces = append(pieces, &ast.LiteralExpr{ValPos: end, Kind: token.STRING, Str: p.tok.Lit})
		p.advance()
		break
	}
	return &ast.InterpolationExpr{StartPos: start, Pieces: pieces, EndPos: end}
}

func (p *parser) parseNewExpr() ast.Expr {
	pos := p.expect(token.NEW)
	class := p.parseCallOrPrimary()
	// parseCallOrPrimary already consumes a trailing "(args)" as a CallExpr;
	// unwrap it into NewExpr's own Args so the emitter sees a single node.
	if call, ok := class.(*ast.CallExpr); ok {
		return &ast.NewExpr{NewPos: pos, Class: call.Callee, Lparen: call.Lparen, Args: call.Args, Rparen: call.Rparen}
	}
	return &ast.NewExpr{NewPos: pos, Class: class}
}

func (p *parser) parseArrayExpr() ast.Expr {
	lbrack := p.expect(token.LBRACK)
	var elems []ast.Expr
	if p.tok.Kind != token.RBRACK {
		elems = p.parseExprList()
	}
	rbrack := p.expect(token.RBRACK)
	return &ast.ArrayExpr{Lbrack: lbrack, Elems: elems, Rbrack: rbrack}
}

func (p *parser) parseObjectExpr() ast.Expr {
	lbrace := p.expect(token.LBRACE)
	var entries []*ast.ObjectEntry
	for p.tok.Kind != token.RBRACE && p.tok.Kind != token.EOF {
		var key ast.Expr
		switch p.tok.Kind {
		case token.LBRACK:
			p.advance()
			key = p.parseExpr()
			p.expect(token.RBRACK)
		case token.STRING:
			key = &ast.LiteralExpr{ValPos: p.tok.Pos, Kind: token.STRING, Str: p.tok.Lit}
			p.advance()
		case token.IDENT:
			key = &ast.IdentExpr{NamePos: p.tok.Pos, Name: p.tok.Lit}
			p.advance()
		default:
			p.errorExpected(p.tok.Pos, "object key")
			panic(errSync)
		}
		p.expect(token.COLON)
		val := p.parseExpr()
		entries = append(entries, &ast.ObjectEntry{Key: key, Value: val})
		if !p.accept(token.COMMA) {
			break
		}
	}
	rbrace := p.expect(token.RBRACE)
	return &ast.ObjectExpr{Lbrace: lbrace, Entries: entries, Rbrace: rbrace}
}

func (p *parser) parseIfExpr() ast.Expr {
	pos := p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseExpr()
	var els ast.Expr
	if p.accept(token.ELSE) {
		els = p.parseExpr()
	}
	return &ast.IfExpr{IfPos: pos, Cond: cond, Then: then, Else: els}
}

func (p *parser) parseFunctionLambda() ast.Expr {
	fnPos := p.expect(token.FUNCTION)
	params, vararg := p.parseParamList()
	body := p.parseBlock()
	return &ast.LambdaExpr{FnPos: fnPos, Params: params, Vararg: vararg, Body: body, EndPos: body.End()}
}

// parseParamList parses "(ident, ident, ...ident)" with an optional
// trailing ellipsis marking the final parameter as a vararg collector.
func (p *parser) parseParamList() (params []*ast.Param, vararg bool) {
	p.expect(token.LPAREN)
	for p.tok.Kind != token.RPAREN {
		if p.accept(token.ELLIPSIS) {
			vararg = true
		}
		namePos, name := p.tok.Pos, p.tok.Lit
		p.expect(token.IDENT)
		params = append(params, &ast.Param{NamePos: namePos, Name: name})
		if vararg || !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return params, vararg
}

// parseGroupingOrLambda implements the grouping-vs-lambda disambiguation:
// a speculative lookahead tries to parse "(ident, ...) =>"; on failure the
// scanner and current token are restored and the contents are parsed as a
// plain grouped expression.
func (p *parser) parseGroupingOrLambda() ast.Expr {
	savedTok := p.tok
	savedScan := p.sc.Save()
	savedErrLen := len(p.errs)

	if params, vararg, ok := p.tryLambdaParams(); ok {
		arrow := p.expect(token.FATARROW)
		body := p.parseLambdaArrowBody(arrow)
		return &ast.LambdaExpr{FnPos: savedTok.Pos, Params: params, Vararg: vararg, Body: body, EndPos: body.End()}
	}

	p.errs = p.errs[:savedErrLen]
	p.sc.Restore(savedScan)
	p.tok = savedTok
	return p.parseParenExpr()
}

// tryLambdaParams attempts to consume "(IDENT (, IDENT)* [...IDENT])" "=>"
// without recording any errors; ok is false on any mismatch, leaving the
// scanner in whatever state the attempt reached (the caller restores it).
func (p *parser) tryLambdaParams() (params []*ast.Param, vararg bool, ok bool) {
	if p.tok.Kind != token.LPAREN {
		return nil, false, false
	}
	p.advance()
	for p.tok.Kind != token.RPAREN {
		if p.tok.Kind == token.ELLIPSIS {
			p.advance()
			vararg = true
		}
		if p.tok.Kind != token.IDENT {
			return nil, false, false
		}
		params = append(params, &ast.Param{NamePos: p.tok.Pos, Name: p.tok.Lit})
		p.advance()
		if vararg {
			break
		}
		if p.tok.Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if p.tok.Kind != token.RPAREN {
		return nil, false, false
	}
	p.advance()
	if p.tok.Kind != token.FATARROW {
		return nil, false, false
	}
	return params, vararg, true
}

func (p *parser) parseLambdaArrowBody(arrow token.Pos) *ast.BlockStmt {
	if p.tok.Kind == token.LBRACE {
		return p.parseBlock()
	}
	val := p.parseExpr()
	return &ast.BlockStmt{Lbrace: arrow, Stmts: []ast.Stmt{&ast.ReturnStmt{ReturnPos: arrow, Value: val}}, Rbrace: val.End()}
}

func (p *parser) parseParenExpr() ast.Expr {
	lparen := p.expect(token.LPAREN)
	x := p.parseExpr()
	rparen := p.expect(token.RPAREN)
	return &ast.ParenExpr{Lparen: lparen, X: x, Rparen: rparen}
}
