package parser

import (
	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/token"
)

// parseStmtList parses statements until end is seen (consumed by the
// caller) or EOF.
func (p *parser) parseStmtList(end token.Token) []ast.Stmt {
	var stmts []ast.Stmt
	for p.tok.Kind != end && p.tok.Kind != token.EOF {
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *parser) parseBlock() *ast.BlockStmt {
	lbrace := p.expect(token.LBRACE)
	stmts := p.parseStmtList(token.RBRACE)
	rbrace := p.expect(token.RBRACE)
	return &ast.BlockStmt{Lbrace: lbrace, Stmts: stmts, Rbrace: rbrace}
}

// parseStmt parses one statement, recovering to a BadStmt on error. It
// returns nil for a bare ";" which carries no node.
func (p *parser) parseStmt() (stmt ast.Stmt) {
	start := p.tok.Pos

	defer func() {
		if r := recover(); r != nil {
			if r != errSync {
				panic(r)
			}
			stmt = &ast.BadStmt{From: start, To: p.syncAfterError()}
		}
	}()

	if p.tok.Kind == token.SEMI {
		p.advance()
		return nil
	}

	switch p.tok.Kind {
	case token.VAR, token.CONST:
		return p.parseVarDecl(true)
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.FUNCTION:
		return p.parseFunctionStmt()
	case token.CLASS:
		return p.parseClassStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.BREAK:
		pos := p.tok.Pos
		p.advance()
		p.accept(token.SEMI)
		return &ast.BreakStmt{Pos_: pos}
	case token.CONTINUE:
		pos := p.tok.Pos
		p.advance()
		p.accept(token.SEMI)
		return &ast.ContinueStmt{Pos_: pos}
	case token.EXPORT:
		return p.parseExportStmt()
	case token.LBRACE:
		return p.parseBlock()
	default:
		e := p.parseExpr()
		p.accept(token.SEMI)
		return &ast.ExprStmt{X: e}
	}
}

// parseVarDecl parses "var"/"const" IDENT ["=" expr]. When consumeTerm is
// true a trailing ";" is consumed if present (statements accept optional
// terminators); the for-loop init clause passes false since its own ";"
// belongs to the for-header grammar.
func (p *parser) parseVarDecl(consumeTerm bool) *ast.VarStmt {
	isConst := p.tok.Kind == token.CONST
	varPos := p.expect(p.tok.Kind) // VAR or CONST, whichever is current
	namePos, name := p.tok.Pos, p.tok.Lit
	p.expect(token.IDENT)

	var value ast.Expr
	if p.accept(token.ASSIGN) {
		value = p.parseExpr()
	} else if isConst {
		p.error(namePos, "const declaration requires an initializer")
	}
	if consumeTerm {
		p.accept(token.SEMI)
	}
	return &ast.VarStmt{VarPos: varPos, Const: isConst, NamePos: namePos, Name: name, Value: value}
}

func (p *parser) parseIfStmt() *ast.IfStmt {
	ifPos := p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseBlock()

	var els ast.Stmt
	if p.accept(token.ELSE) {
		if p.tok.Kind == token.IF {
			els = p.parseIfStmt()
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.IfStmt{IfPos: ifPos, Cond: cond, Then: then, Else: els}
}

func (p *parser) parseWhileStmt() *ast.WhileStmt {
	pos := p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return &ast.WhileStmt{WhilePos: pos, Cond: cond, Body: body}
}

// parseForStmt disambiguates "for (var NAME in expr) body" from the
// 3-clause C-style form by a speculative lookahead over "var IDENT in".
func (p *parser) parseForStmt() ast.Stmt {
	forPos := p.expect(token.FOR)
	p.expect(token.LPAREN)

	// a loop body is a block, or a single statement wrapped in a block
	parseBody := func() *ast.BlockStmt {
		if p.tok.Kind == token.LBRACE {
			return p.parseBlock()
		}
		pos := p.tok.Pos
		var stmts []ast.Stmt
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
		return &ast.BlockStmt{Lbrace: pos, Stmts: stmts, Rbrace: pos}
	}

	if p.tok.Kind == token.VAR {
		savedTok := p.tok
		savedScan := p.sc.Save()
		savedErrLen := len(p.errs)

		p.advance() // consume VAR
		if p.tok.Kind == token.IDENT {
			namePos, name := p.tok.Pos, p.tok.Lit
			p.advance()
			if p.tok.Kind == token.IN {
				p.advance()
				iter := p.parseExpr()
				p.expect(token.RPAREN)
				body := parseBody()
				return &ast.ForInStmt{ForPos: forPos, NamePos: namePos, Name: name, Iter: iter, Body: body}
			}
		}

		p.errs = p.errs[:savedErrLen]
		p.sc.Restore(savedScan)
		p.tok = savedTok
	}

	var init ast.Stmt
	if p.tok.Kind != token.SEMI {
		if p.tok.Kind == token.VAR || p.tok.Kind == token.CONST {
			init = p.parseVarDecl(false)
		} else {
			init = &ast.ExprStmt{X: p.parseExpr()}
		}
	}
	p.expect(token.SEMI)

	var cond ast.Expr
	if p.tok.Kind != token.SEMI {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)

	var post ast.Expr
	if p.tok.Kind != token.RPAREN {
		post = p.parseExpr()
	}
	p.expect(token.RPAREN)
	body := parseBody()
	return &ast.ForStmt{ForPos: forPos, Init: init, Cond: cond, Post: post, Body: body}
}

func (p *parser) parseFunctionStmt() *ast.FunctionStmt {
	fnPos := p.expect(token.FUNCTION)
	namePos, name := p.tok.Pos, p.tok.Lit
	p.expect(token.IDENT)
	params, vararg := p.parseParamList()
	body := p.parseBlock()
	fn := &ast.LambdaExpr{FnPos: fnPos, Params: params, Vararg: vararg, Body: body, EndPos: body.End()}
	return &ast.FunctionStmt{FnPos: fnPos, NamePos: namePos, Name: name, Fn: fn}
}

func (p *parser) parseReturnStmt() *ast.ReturnStmt {
	pos := p.expect(token.RETURN)
	var val ast.Expr
	if p.tok.Kind != token.SEMI && p.tok.Kind != token.RBRACE && p.tok.Kind != token.EOF {
		val = p.parseExpr()
	}
	p.accept(token.SEMI)
	return &ast.ReturnStmt{ReturnPos: pos, Value: val}
}

func (p *parser) parseExportStmt() *ast.ExportStmt {
	pos := p.expect(token.EXPORT)
	var decl ast.Stmt
	switch p.tok.Kind {
	case token.VAR, token.CONST:
		decl = p.parseVarDecl(true)
	case token.FUNCTION:
		decl = p.parseFunctionStmt()
	case token.CLASS:
		decl = p.parseClassStmt()
	default:
		p.errorExpected(p.tok.Pos, "var, const, function, or class declaration")
		panic(errSync)
	}
	return &ast.ExportStmt{ExportPos: pos, Decl: decl}
}

// parseClassStmt parses a class body: an optional ":Super" superclass,
// then static-field var declarations (which must precede any method or
// field), methods (including "operator <op>()" overloads and a
// "constructor" initializer), and getter/setter field declarations.
func (p *parser) parseClassStmt() *ast.ClassStmt {
	classPos := p.expect(token.CLASS)
	namePos, name := p.tok.Pos, p.tok.Lit
	p.expect(token.IDENT)

	var super ast.Expr
	if p.accept(token.COLON) {
		superPos, superName := p.tok.Pos, p.tok.Lit
		p.expect(token.IDENT)
		super = &ast.IdentExpr{NamePos: superPos, Name: superName}
		if name == superName {
			p.error(superPos, "class %q cannot inherit from itself", name)
		}
	}

	p.expect(token.LBRACE)
	var stmt ast.ClassStmt
	stmt.ClassPos, stmt.NamePos, stmt.Name, stmt.Super = classPos, namePos, name, super

	seenMethodOrField := false
	for p.tok.Kind != token.RBRACE && p.tok.Kind != token.EOF {
		switch p.tok.Kind {
		case token.VAR, token.CONST:
			field := p.parseVarDecl(true)
			if seenMethodOrField {
				p.error(field.Pos(), "static fields must precede methods and field declarations")
			}
			stmt.StaticFields = append(stmt.StaticFields, field)
		case token.GET, token.SET:
			seenMethodOrField = true
			stmt.Fields = p.parseClassField(stmt.Fields)
		default:
			seenMethodOrField = true
			stmt.Methods = append(stmt.Methods, p.parseClassMethod())
		}
	}
	stmt.EndPos = p.expect(token.RBRACE)
	return &stmt
}

func (p *parser) parseClassField(fields []*ast.FieldDecl) []*ast.FieldDecl {
	isGetter := p.tok.Kind == token.GET
	p.advance()
	namePos, name := p.tok.Pos, p.tok.Lit
	p.expect(token.IDENT)

	var fn ast.LambdaExpr
	fn.FnPos = namePos
	if isGetter {
		p.expect(token.LPAREN)
		p.expect(token.RPAREN)
	} else {
		fn.Params, fn.Vararg = p.parseParamList()
	}
	fn.Body = p.parseBlock()
	fn.EndPos = fn.Body.End()

	for _, f := range fields {
		if f.Name == name {
			if isGetter && f.Getter == nil {
				f.Getter = &fn
				return fields
			}
			if !isGetter && f.Setter == nil {
				f.Setter = &fn
				return fields
			}
		}
	}
	fd := &ast.FieldDecl{Name: name, NamePos: namePos}
	if isGetter {
		fd.Getter = &fn
	} else {
		fd.Setter = &fn
	}
	return append(fields, fd)
}

func (p *parser) parseClassMethod() *ast.MethodDecl {
	var m ast.MethodDecl
	m.FnPos = p.tok.Pos
	if p.accept(token.STATIC) {
		m.IsStatic = true
	}
	if p.accept(token.OPERATOR) {
		m.IsOp = true
		if m.IsStatic {
			p.error(m.FnPos, "operator methods cannot be static")
		}
		m.OpTok = p.tok.Kind
		m.NamePos = p.tok.Pos
		p.advance() // the operator token itself, e.g. "+", "=="
		m.Name = "operator" + m.OpTok.String()
	} else {
		m.NamePos, m.Name = p.tok.Pos, p.tok.Lit
		p.expect(token.IDENT)
	}

	if m.Name == "constructor" && m.IsStatic {
		p.error(m.NamePos, "constructor cannot be static")
	}

	params, vararg := p.parseParamList()
	var body *ast.BlockStmt
	if p.tok.Kind == token.FATARROW {
		body = p.parseLambdaArrowBody(p.expect(token.FATARROW))
		p.accept(token.SEMI)
	} else {
		body = p.parseBlock()
	}
	m.Fn = &ast.LambdaExpr{FnPos: m.FnPos, Params: params, Vararg: vararg, Body: body, EndPos: body.End()}
	return &m
}
