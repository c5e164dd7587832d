package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/scanner"
	"github.com/mna/vesper/lang/token"
)

func scanAll(t *testing.T, src string) ([]scanner.Token, []string) {
	t.Helper()
	var errs []string
	s := scanner.New([]byte(src), func(pos token.Pos, msg string) {
		errs = append(errs, msg)
	})
	var toks []scanner.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, errs
}

func kinds(toks []scanner.Token) []token.Token {
	ks := make([]token.Token, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanPunctuationAndKeywords(t *testing.T) {
	toks, errs := scanAll(t, "class Foo { var x = 1 + 2 ** 3 }")
	require.Empty(t, errs)
	assert.Equal(t, []token.Token{
		token.CLASS, token.IDENT, token.LBRACE, token.VAR, token.IDENT,
		token.ASSIGN, token.INT, token.PLUS, token.INT, token.STARSTAR,
		token.INT, token.RBRACE, token.EOF,
	}, kinds(toks))
}

func TestScanNumbers(t *testing.T) {
	toks, errs := scanAll(t, "0x1F 0b101 10 1.5 1e3")
	require.Empty(t, errs)
	require.Len(t, toks, 6)
	assert.Equal(t, int64(31), toks[0].Int)
	assert.Equal(t, int64(5), toks[1].Int)
	assert.Equal(t, int64(10), toks[2].Int)
	assert.Equal(t, 1.5, toks[3].Num)
	assert.Equal(t, 1000.0, toks[4].Num)
}

func TestScanStringEscapes(t *testing.T) {
	toks, errs := scanAll(t, `"a\nb\tc\"d"`)
	require.Empty(t, errs)
	require.Len(t, toks, 2)
	assert.Equal(t, "a\nb\tc\"d", toks[0].Lit)
}

func TestScanInterpolation(t *testing.T) {
	toks, errs := scanAll(t, `"hi ${name}!"`)
	require.Empty(t, errs)
	assert.Equal(t, []token.Token{token.INTERPOLATION, token.IDENT, token.STRING, token.EOF}, kinds(toks))
	assert.Equal(t, "hi ", toks[0].Lit)
	assert.Equal(t, "!", toks[2].Lit)
}

func TestScanInterpolationTooDeep(t *testing.T) {
	// Nest five interpolations (one over the max of 4), each level's
	// expression itself being a string literal containing the next.
	src := `"${"${"${"${"${1}"}"}"}"}"}"`
	_, errs := scanAll(t, src)
	require.NotEmpty(t, errs)
}

func TestScanUnterminatedString(t *testing.T) {
	_, errs := scanAll(t, `"abc`)
	require.NotEmpty(t, errs)
}

func TestScanComments(t *testing.T) {
	toks, errs := scanAll(t, "1 // comment\n/* block */ 2")
	require.Empty(t, errs)
	assert.Equal(t, []token.Token{token.INT, token.NEW_LINE, token.INT, token.EOF}, kinds(toks))
}
