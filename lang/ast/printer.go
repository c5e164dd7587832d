package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer pretty-prints a parsed Chunk as an indented outline of its node
// kinds, used by the parser's own debug output and by tests that assert
// on tree shape without depending on exact source spans.
type Printer struct {
	Output io.Writer
}

// Print writes an indented dump of n to p.Output.
func (p *Printer) Print(n Node) {
	pp := &dumper{w: p.Output}
	Walk(pp, n)
}

type dumper struct {
	w     io.Writer
	depth int
}

func (d *dumper) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit {
		d.depth--
		return d
	}
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", d.depth), nodeLabel(n))
	d.depth++
	return d
}

func nodeLabel(n Node) string {
	switch e := n.(type) {
	case *IdentExpr:
		return "Ident " + e.Name
	case *LiteralExpr:
		return fmt.Sprintf("Literal %s", e.Kind)
	case *FunctionStmt:
		return "Function " + e.Name
	case *ClassStmt:
		return "Class " + e.Name
	case *VarStmt:
		return "Var " + e.Name
	default:
		return fmt.Sprintf("%T", n)
	}
}
