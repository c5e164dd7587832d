// Package parser implements the Pratt-precedence recursive-descent parser
// that turns a token stream into an AST. A parse error unwinds the current
// statement via a panic/recover sentinel (the idiomatic Go stand-in for
// the reference implementation's longjmp-based synchronization), producing
// a BadStmt and resuming at the next safe token.
package parser

import (
	"github.com/mna/vesper/lang/ast"
	"github.com/mna/vesper/lang/errs"
	"github.com/mna/vesper/lang/scanner"
	"github.com/mna/vesper/lang/token"
)

// Parse parses src as a single chunk. Errors accumulate in the returned
// list; the chunk returned is always non-nil, with BadStmt/BadExpr nodes
// standing in for constructs that failed to parse.
func Parse(src []byte) (*ast.Chunk, errs.List) {
	var p parser
	p.sc = scanner.New(src, func(pos token.Pos, msg string) {
		p.errs.Add(pos, "%s", msg)
	})
	p.advance()

	chunk := &ast.Chunk{Stmts: p.parseStmtList(token.EOF)}
	p.errs.Sort()
	return chunk, p.errs
}

type parser struct {
	sc   *scanner.Scanner
	errs errs.List
	tok  scanner.Token
}

// advance fetches the next significant token, transparently skipping
// NEW_LINE: statement termination does not depend on newlines in this
// implementation (semicolons are optional but always accepted).
func (p *parser) advance() {
	for {
		p.tok = p.sc.Scan()
		if p.tok.Kind != token.NEW_LINE {
			return
		}
	}
}

// errSync is the panic value used to unwind to the nearest statement
// boundary after a parse error.
var errSync = struct{}{}

func (p *parser) error(pos token.Pos, format string, args ...any) {
	p.errs.Add(pos, format, args...)
}

func (p *parser) errorExpected(pos token.Pos, want string) {
	p.error(pos, "expected %s, found %s", want, p.tok.Kind.GoString())
}

// expect consumes the current token if it matches one of toks, returning
// its position; otherwise it records an error and panics with errSync.
func (p *parser) expect(toks ...token.Token) token.Pos {
	pos := p.tok.Pos
	for _, t := range toks {
		if p.tok.Kind == t {
			p.advance()
			return pos
		}
	}
	if len(toks) == 1 {
		p.errorExpected(pos, toks[0].GoString())
	} else {
		p.errorExpected(pos, "one of several tokens")
	}
	panic(errSync)
}

func (p *parser) accept(t token.Token) bool {
	if p.tok.Kind == t {
		p.advance()
		return true
	}
	return false
}

// syncToks are statement-starting keywords (plus EOF) safe to resume
// parsing at after an error.
var syncToks = map[token.Token]bool{
	token.CLASS:    true,
	token.FUNCTION: true,
	token.EXPORT:   true,
	token.VAR:      true,
	token.CONST:    true,
	token.FOR:      true,
	token.STATIC:   true,
	token.IF:       true,
	token.WHILE:    true,
	token.RETURN:   true,
}

// syncAfterError advances until a statement-starting keyword, a SEMI (which
// it consumes), or EOF.
func (p *parser) syncAfterError() token.Pos {
	for p.tok.Kind != token.EOF {
		if p.tok.Kind == token.SEMI {
			pos := p.tok.Pos
			p.advance()
			return pos
		}
		if syncToks[p.tok.Kind] {
			return p.tok.Pos
		}
		p.advance()
	}
	return p.tok.Pos
}
