package scanner

import (
	"strconv"

	"github.com/mna/vesper/lang/token"
)

// scanNumber scans a decimal integer/float, a "0x" hex integer, or a "0b"
// binary integer. Overflow is reported as a scanner error.
func (s *Scanner) scanNumber(pos token.Pos) Token {
	start := s.offset

	if s.ch == '0' && (s.peek() == 'x' || s.peek() == 'X') {
		s.next()
		s.next()
		digStart := s.offset
		for isHexDigit(s.ch) {
			s.next()
		}
		lit := string(s.src[start:s.offset])
		v, err := strconv.ParseUint(string(s.src[digStart:s.offset]), 16, 64)
		if err != nil {
			s.error(pos, "numeric literal overflow: "+lit)
		}
		return Token{Kind: token.INT, Pos: pos, Lit: lit, Int: int64(v), IsInt: true}
	}

	if s.ch == '0' && (s.peek() == 'b' || s.peek() == 'B') {
		s.next()
		s.next()
		digStart := s.offset
		for s.ch == '0' || s.ch == '1' {
			s.next()
		}
		lit := string(s.src[start:s.offset])
		v, err := strconv.ParseUint(string(s.src[digStart:s.offset]), 2, 64)
		if err != nil {
			s.error(pos, "numeric literal overflow: "+lit)
		}
		return Token{Kind: token.INT, Pos: pos, Lit: lit, Int: int64(v), IsInt: true}
	}

	isFloat := false
	for isDigit(s.ch) {
		s.next()
	}
	if s.ch == '.' && isDigit(rune(s.peek())) {
		isFloat = true
		s.next()
		for isDigit(s.ch) {
			s.next()
		}
	}
	if s.ch == 'e' || s.ch == 'E' {
		isFloat = true
		s.next()
		if s.ch == '+' || s.ch == '-' {
			s.next()
		}
		for isDigit(s.ch) {
			s.next()
		}
	}

	lit := string(s.src[start:s.offset])
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			s.error(pos, "numeric literal overflow: "+lit)
		}
		return Token{Kind: token.FLOAT, Pos: pos, Lit: lit, Num: f}
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		s.error(pos, "numeric literal overflow: "+lit)
	}
	return Token{Kind: token.INT, Pos: pos, Lit: lit, Int: v, IsInt: true}
}

func isHexDigit(r rune) bool {
	return isDigit(r) || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
}
