package lexer

import (
	"testing"

	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New("test.eiko", src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

// TestFirstTokenIsBootstrapIndent pins down the lexer's documented
// convention: the very first call to Next always returns an empty
// INDENT, before any real content is considered.
func TestFirstTokenIsBootstrapIndent(t *testing.T) {
	toks := tokenize(t, "x = 1\n")
	require.NotEmpty(t, toks)
	assert.Equal(t, token.INDENT, toks[0].Type)
	assert.Equal(t, "", toks[0].Content)
}

func TestIndentationLevelsAreCaptured(t *testing.T) {
	toks := tokenize(t, "if a:\n    b\n")
	var indents []string
	for _, tok := range toks {
		if tok.Type == token.INDENT {
			indents = append(indents, tok.Content)
		}
	}
	// bootstrap "", the "if" line's own "", the "b" line's "    ",
	// and the trailing "" after the final newline.
	require.Len(t, indents, 4)
	assert.Equal(t, "", indents[0])
	assert.Equal(t, "", indents[1])
	assert.Equal(t, "    ", indents[2])
	assert.Equal(t, "", indents[3])
}

func TestKeywordsAreRecognized(t *testing.T) {
	toks := tokenize(t, "resource if for in and or not\n")
	got := types(toks)
	assert.Contains(t, got, token.RESOURCE)
	assert.Contains(t, got, token.IF)
	assert.Contains(t, got, token.FOR)
	assert.Contains(t, got, token.IN)
	assert.Contains(t, got, token.AND)
	assert.Contains(t, got, token.OR)
	assert.Contains(t, got, token.NOT)
}

func TestMultiCharOperators(t *testing.T) {
	cases := map[string]string{
		"//": "//", "**": "**", "==": "==", "!=": "!=", "<=": "<=", ">=": ">=",
	}
	for src, want := range cases {
		toks := tokenize(t, src+"\n")
		found := false
		for _, tok := range toks {
			if tok.Content == want {
				found = true
				break
			}
		}
		assert.True(t, found, "expected operator %q in token stream for %q", want, src)
	}
}

// firstOfType returns the first token of the given type, failing the
// test if none is found.
func firstOfType(t *testing.T, toks []token.Token, typ token.Type) token.Token {
	t.Helper()
	for _, tok := range toks {
		if tok.Type == typ {
			return tok
		}
	}
	t.Fatalf("no token of type %s found", typ)
	return token.Token{}
}

func TestIntegerAndFloatLiterals(t *testing.T) {
	toks := tokenize(t, "1 2.5\n")
	assert.Equal(t, "1", firstOfType(t, toks, token.INTEGER).Content)
	assert.Equal(t, "2.5", firstOfType(t, toks, token.FLOAT).Content)
}

func TestStringLiteralEscapes(t *testing.T) {
	toks := tokenize(t, `"a\nb"` + "\n")
	assert.Equal(t, "a\nb", firstOfType(t, toks, token.STRING).Content)
}

// TestAdjacentStringLiteralsMerge pins down the lexer's implicit string
// concatenation: two literals separated only by whitespace collapse
// into a single STRING token.
func TestAdjacentStringLiteralsMerge(t *testing.T) {
	toks := tokenize(t, `"foo" "bar"` + "\n")
	assert.Equal(t, "foobar", firstOfType(t, toks, token.STRING).Content)
}

func TestFStringLiteral(t *testing.T) {
	toks := tokenize(t, `f"hello {name}"` + "\n")
	assert.Equal(t, "hello {name}", firstOfType(t, toks, token.F_STRING).Content)
}

func TestRawStringDoesNotEscape(t *testing.T) {
	toks := tokenize(t, `r"a\nb"` + "\n")
	assert.Equal(t, `a\nb`, firstOfType(t, toks, token.STRING).Content)
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := tokenize(t, "x = 1 # trailing comment\ny = 2\n")
	for _, tok := range toks {
		assert.NotContains(t, tok.Content, "trailing")
	}
}

func TestUnterminatedStringIsSyntaxError(t *testing.T) {
	l := New("test.eiko", "\"unterminated\n")
	_, err := l.Next() // bootstrap INDENT
	require.NoError(t, err)
	_, err = l.Next() // line's INDENT
	require.NoError(t, err)
	_, err = l.Next() // the bad string
	require.Error(t, err)
}

func TestUnknownCharacterEmitsUnknownToken(t *testing.T) {
	toks := tokenize(t, "$\n")
	var unknown *token.Token
	for i := range toks {
		if toks[i].Type == token.UNKNOWN {
			unknown = &toks[i]
			break
		}
	}
	require.NotNil(t, unknown)
	assert.Equal(t, "$", unknown.Content)
}

func TestLexingIsTotalThroughEOF(t *testing.T) {
	l := New("test.eiko", "x\n")
	for i := 0; i < 10; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		if i >= 5 {
			assert.Equal(t, token.EOF, tok.Type)
		}
	}
}
