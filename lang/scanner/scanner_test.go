package scanner

import (
	"testing"

	"github.com/loomlang/loom/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var s Scanner
	s.Init("test", []byte(src))
	var toks []token.Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestScanPunctuationAndKeywords(t *testing.T) {
	toks := scanAll(t, `var x = 1 + 2; if (x) { print x; } else { println "no"; }`)
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQ, token.NUMBER, token.PLUS, token.NUMBER, token.SEMI,
		token.IF, token.LPAREN, token.IDENT, token.RPAREN, token.LBRACE,
		token.PRINT, token.IDENT, token.SEMI, token.RBRACE,
		token.ELSE, token.LBRACE, token.PRINTLN, token.STRING, token.SEMI, token.RBRACE,
		token.EOF,
	}, kinds)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, "1234 3.14 0.5")
	require.Equal(t, "1234", toks[0].Lexeme)
	require.Equal(t, "3.14", toks[1].Lexeme)
	require.Equal(t, "0.5", toks[2].Lexeme)
}

func TestScanStringRawContent(t *testing.T) {
	toks := scanAll(t, `"hello\nworld"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `hello\nworld`, toks[0].Lexeme, "escape decoding is deferred to the compiler")
}

func TestScanLineCounting(t *testing.T) {
	toks := scanAll(t, "var a = 1;\nvar b = 2;\n")
	require.Equal(t, 1, toks[0].Line)
	// 5 tokens per line including SEMI, so toks[5] (`var`) starts line 2
	// and toks[6] (`b`) is on it too
	require.Equal(t, 2, toks[6].Line)
}

func TestScanComments(t *testing.T) {
	toks := scanAll(t, "var a = 1; // trailing\n/* block\ncomment */ var b = 2;")
	require.Equal(t, token.VAR, toks[0].Kind)
	// the var on line 3 (after the two-line block comment)
	idx := 0
	for i, tok := range toks {
		if tok.Kind == token.VAR && i > 0 {
			idx = i
			break
		}
	}
	require.Equal(t, 3, toks[idx].Line)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"unterminated`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanUnterminatedBlockComment(t *testing.T) {
	toks := scanAll(t, "/* never closed")
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanCaseSensitiveKeywords(t *testing.T) {
	toks := scanAll(t, "Class class")
	require.Equal(t, token.IDENT, toks[0].Kind)
	require.Equal(t, token.CLASS, toks[1].Kind)
}
