// Package errs implements the shared error-accumulation type used by the
// preprocessor, scanner, parser, and compiler: a list of positioned
// messages that is itself an error, letting each phase "accumulate but
// continue" per the error handling design, then report every error found
// in one pass.
package errs

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mna/vesper/lang/token"
)

// Error is a single compile-time error at a source position.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e Error) Error() string {
	if e.Pos.Unknown() {
		return e.Msg
	}
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// List is a list of Error, sorted by position once Sort is called. It
// implements error so that a phase can return it directly; err == nil
// checks should instead test Len() == 0 (or use AsError).
type List []Error

// Add appends a new error at pos with the formatted message.
func (l *List) Add(pos token.Pos, format string, args ...any) {
	*l = append(*l, Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// Len reports how many errors have been accumulated.
func (l List) Len() int { return len(l) }

// Sort orders the list by line then column.
func (l List) Sort() {
	sort.Slice(l, func(i, j int) bool {
		li, ci := l[i].Pos.LineCol()
		lj, cj := l[j].Pos.LineCol()
		if li != lj {
			return li < lj
		}
		return ci < cj
	})
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more errors)", l[0].Error(), len(l)-1)
	return sb.String()
}

// AsError returns l as an error if it has any entries, otherwise nil --
// the idiom for returning an accumulated list from a function that should
// report success via a nil error.
func (l List) AsError() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Print writes every error in l to w, one per line, in the "line:col: msg"
// form used throughout the compile-error table.
func Print(w io.Writer, l List) {
	for _, e := range l {
		fmt.Fprintln(w, e.Error())
	}
}
