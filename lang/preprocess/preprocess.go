// Package preprocess implements the macro-gating pass that runs over raw
// source bytes before the scanner ever sees them: #define/#undef/#ifdef/
// #ifndef/#else/#endif. It rewrites the buffer destructively (a copy of
// the input, never the caller's slice), overwriting directive lines and
// dead branches with spaces while preserving every newline, so that line
// numbers reported by later phases stay accurate.
package preprocess

import (
	"github.com/mna/vesper/lang/errs"
	"github.com/mna/vesper/lang/token"
)

// Defined holds the set of preprocessor symbols currently defined, keyed
// by name. Entries map to an empty struct; only presence matters. It is
// mutated in place by #define/#undef as Process runs.
type Defined map[string]struct{}

// NewDefined builds a Defined set from an initial list of symbol names,
// as set by the command line's -D flag.
func NewDefined(names ...string) Defined {
	d := make(Defined, len(names))
	for _, n := range names {
		d[n] = struct{}{}
	}
	return d
}

type branch struct {
	wasTaken bool // true once some arm of this #if chain has been live
	live     bool // true if this branch's own condition currently holds
	sawElse  bool
	pos      token.Pos
}

// Process rewrites src, line by line, interpreting preprocessor directives
// and blanking out directive lines plus the body of any branch whose
// condition is currently false. defined is consulted and mutated as
// #define/#undef/#ifdef/#ifndef are encountered, in source order. Errors
// accumulate in the returned list; processing continues after each one.
func Process(src []byte, defined Defined) ([]byte, errs.List) {
	out := make([]byte, len(src))
	copy(out, src)

	var errl errs.List
	var stack []*branch

	isLive := func() bool {
		for _, b := range stack {
			if !b.live {
				return false
			}
		}
		return true
	}

	line := 1
	i := 0
	for i < len(out) {
		lineStart := i
		for i < len(out) && out[i] != '\n' {
			i++
		}
		lineEnd := i
		raw := out[lineStart:lineEnd]
		trimmed := trimLeadingWS(raw)
		pos := token.MakePos(line, 1)

		if len(trimmed) > 0 && trimmed[0] == '#' {
			handleDirective(trimmed, pos, defined, &stack, isLive, &errl)
			blank(out, lineStart, lineEnd)
		} else if !isLive() {
			blank(out, lineStart, lineEnd)
		}

		if i < len(out) {
			i++ // consume '\n'
		}
		line++
	}

	if len(stack) != 0 {
		errl.Add(stack[len(stack)-1].pos, "unterminated #if")
	}

	return out, errl
}

func handleDirective(trimmed []byte, pos token.Pos, defined Defined, stack *[]*branch, isLive func() bool, errl *errs.List) {
	name, after := readWord(trimmed, 1)
	switch name {
	case "define":
		sym, _ := readWord(trimmed, skipSpaces(trimmed, after))
		if sym == "" {
			errl.Add(pos, "#define requires a name")
		} else if isLive() {
			defined[sym] = struct{}{}
		}
	case "undef":
		sym, _ := readWord(trimmed, skipSpaces(trimmed, after))
		if sym == "" {
			errl.Add(pos, "#undef requires a name")
		} else if isLive() {
			delete(defined, sym)
		}
	case "ifdef", "ifndef":
		sym, _ := readWord(trimmed, skipSpaces(trimmed, after))
		if sym == "" {
			errl.Add(pos, "#"+name+" requires a name")
		}
		_, has := defined[sym]
		want := name == "ifdef"
		cond := (has == want) && isLive()
		*stack = append(*stack, &branch{live: cond, wasTaken: cond, pos: pos})
	case "else":
		if len(*stack) == 0 {
			errl.Add(pos, "#else without matching #ifdef/#ifndef")
			return
		}
		top := (*stack)[len(*stack)-1]
		if top.sawElse {
			errl.Add(pos, "multiple #else for the same #if")
		}
		top.sawElse = true
		parentLive := true
		if len(*stack) > 1 {
			for _, b := range (*stack)[:len(*stack)-1] {
				parentLive = parentLive && b.live
			}
		}
		top.live = parentLive && !top.wasTaken
		top.wasTaken = top.wasTaken || top.live
	case "endif":
		if len(*stack) == 0 {
			errl.Add(pos, "#endif without matching #ifdef/#ifndef")
			return
		}
		*stack = (*stack)[:len(*stack)-1]
	default:
		errl.Add(pos, "unknown preprocessor directive #"+name)
	}
}

func blank(out []byte, from, to int) {
	for j := from; j < to; j++ {
		out[j] = ' '
	}
}

func trimLeadingWS(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return b[i:]
}

func skipSpaces(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return i
}

func readWord(b []byte, i int) (string, int) {
	start := i
	for i < len(b) && isWordByte(b[i]) {
		i++
	}
	return string(b[start:i]), i
}

func isWordByte(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
