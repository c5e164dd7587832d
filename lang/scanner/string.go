package scanner

import (
	"strings"

	"github.com/mna/vesper/lang/token"
)

// simpleEscapes maps an escape character to its resulting byte, per the
// escape set `\" \\ \0 \{ \a \b \f \n \r \t \v \e`.
var simpleEscapes = map[rune]byte{
	'"':  '"',
	'\\': '\\',
	'0':  0,
	'{':  '{',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'e':  0x1b,
}

// scanString scans a `"`-delimited string literal, starting at the opening
// quote (not yet consumed).
func (s *Scanner) scanString(pos token.Pos) Token {
	s.next() // consume opening '"'
	return s.scanStringBody(pos, false)
}

// scanStringBody scans string contents up to the next unescaped '"' or
// "${" interpolation marker. resuming is true when called right after a
// "}" closed an interpolation, meaning we are continuing the same string
// literal rather than starting a fresh one.
func (s *Scanner) scanStringBody(pos token.Pos, resuming bool) Token {
	var sb strings.Builder

	for {
		switch {
		case s.ch < 0 || s.ch == '\n':
			s.error(pos, "unterminated string literal")
			return Token{Kind: token.STRING, Pos: pos, Lit: sb.String()}
		case s.ch == '"':
			s.next()
			return Token{Kind: token.STRING, Pos: pos, Lit: sb.String()}
		case s.ch == '$' && s.peek() == '{':
			s.next()
			s.next()
			if len(s.interpStack) >= MaxInterpolationDepth {
				s.error(pos, "string interpolation nested too deeply")
			}
			s.interpStack = append(s.interpStack, 0)
			return Token{Kind: token.INTERPOLATION, Pos: pos, Lit: sb.String()}
		case s.ch == '\\':
			s.next()
			s.scanEscape(pos, &sb)
		default:
			sb.WriteRune(s.ch)
			s.next()
		}
	}
}

func (s *Scanner) scanEscape(pos token.Pos, sb *strings.Builder) {
	switch {
	case s.ch == 'x':
		s.next()
		v := 0
		n := 0
		for n < 2 && isHexDigit(s.ch) {
			v = v*16 + hexVal(s.ch)
			s.next()
			n++
		}
		if n == 0 {
			s.error(pos, "invalid hex escape")
		}
		sb.WriteByte(byte(v))
	case isDigit(s.ch) && s.ch != '0':
		v := 0
		n := 0
		for n < 3 && isDigit(s.ch) {
			v = v*10 + int(s.ch-'0')
			s.next()
			n++
		}
		if v > 255 {
			s.error(pos, "invalid decimal byte escape")
		}
		sb.WriteByte(byte(v))
	default:
		b, ok := simpleEscapes[s.ch]
		if !ok {
			s.error(pos, "invalid escape sequence \\"+string(s.ch))
			sb.WriteRune(s.ch)
			s.next()
			return
		}
		sb.WriteByte(b)
		s.next()
	}
}

func hexVal(r rune) int {
	switch {
	case '0' <= r && r <= '9':
		return int(r - '0')
	case 'a' <= r && r <= 'f':
		return int(r-'a') + 10
	case 'A' <= r && r <= 'F':
		return int(r-'A') + 10
	}
	return 0
}
