// Package lexer turns Eikobot source text into a stream of tokens.
//
// Grounded on the teacher's runtime/lexer (ASCII classification tables,
// byte-offset scanning with one rune of lookahead) and on the original
// compiler's lexer.py for Eikobot-specific semantics: indentation is
// carried by INDENT tokens rather than a NEWLINE token, and an empty
// INDENT precedes the first real token of a file (spec §4.1).
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/token"
)

var isWhitespace [128]bool
var isIdentStart [128]bool
var isIdentPart [128]bool
var isDigit [128]bool

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t'
		isDigit[i] = ch >= '0' && ch <= '9'
		isIdentStart[i] = (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		isIdentPart[i] = isIdentStart[i] || isDigit[i]
	}
}

// Lexer consumes UTF-8 text and produces tokens lazily.
type Lexer struct {
	file   string
	input  string
	pos    int // byte offset of ch
	readPos int
	ch     rune
	line   int
	column int

	atLineStart bool // true immediately after a '\n' or at file start
	started     bool
	atEOF       bool
}

// New creates a Lexer over src, attributing all spans to file.
func New(file, src string) *Lexer {
	l := &Lexer{file: file, input: src, line: 1, column: 1, atLineStart: true}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.pos = l.readPos
	l.readPos += size
	l.ch = r
}

func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.readChar()
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{File: l.file, Line: l.line, Column: l.column, Offset: l.pos}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.input) }

// Next returns the next token in the stream. Calling Next after EOF has
// been reached keeps returning EOF tokens (lexing is total, spec §8).
func (l *Lexer) Next() (token.Token, error) {
	if !l.started {
		l.started = true
		return token.Token{Type: token.INDENT, Content: "", Position: l.currentPos()}, nil
	}

	if l.atLineStart {
		l.atLineStart = false
		return l.scanIndent(), nil
	}

	l.skipHorizontalWhitespace()
	l.skipComment()

	if l.eof() {
		l.atEOF = true
		return token.Token{Type: token.EOF, Content: "", Position: l.currentPos()}, nil
	}

	if l.ch == '\n' {
		l.advance()
		l.atLineStart = false
		return l.scanIndent(), nil
	}

	if isIdentStartRune(l.ch) {
		return l.scanIdentifierOrPrefixedString()
	}

	if isDigitRune(l.ch) {
		return l.scanNumber(), nil
	}

	if l.ch == '"' || l.ch == '\'' {
		return l.scanStringMerged(false)
	}

	return l.scanOperator()
}

func isIdentStartRune(r rune) bool {
	return r < 128 && isIdentStart[byte(r)]
}
func isIdentPartRune(r rune) bool {
	return r < 128 && isIdentPart[byte(r)]
}
func isDigitRune(r rune) bool { return r < 128 && isDigit[byte(r)] }

func (l *Lexer) skipHorizontalWhitespace() {
	for !l.eof() && l.ch < 128 && isWhitespace[byte(l.ch)] {
		l.advance()
	}
}

func (l *Lexer) skipComment() {
	if l.ch == '#' {
		for !l.eof() && l.ch != '\n' {
			l.advance()
		}
	}
}

func (l *Lexer) scanIndent() token.Token {
	pos := l.currentPos()
	var sb strings.Builder
	for l.ch == ' ' || l.ch == '\t' {
		sb.WriteRune(l.ch)
		l.advance()
	}
	return token.Token{Type: token.INDENT, Content: sb.String(), Position: pos}
}

func (l *Lexer) scanIdentifierOrPrefixedString() (token.Token, error) {
	pos := l.currentPos()
	startCh := l.ch

	if startCh == 'f' || startCh == 'r' {
		save := *l
		l.advance()
		if l.ch == '"' || l.ch == '\'' {
			if startCh == 'f' {
				return l.scanFString(pos)
			}
			return l.scanStringMerged(true)
		}
		*l = save
	}

	var sb strings.Builder
	for isIdentPartRune(l.ch) {
		sb.WriteRune(l.ch)
		l.advance()
	}
	name := sb.String()
	if kw, ok := token.Keywords[name]; ok {
		return token.Token{Type: kw, Content: name, Position: pos}, nil
	}
	return token.Token{Type: token.IDENTIFIER, Content: name, Position: pos}, nil
}

func (l *Lexer) scanNumber() token.Token {
	pos := l.currentPos()
	var sb strings.Builder
	isFloat := false
	for isDigitRune(l.ch) || (l.ch == '.' && !isFloat) {
		if l.ch == '.' {
			isFloat = true
		}
		sb.WriteRune(l.ch)
		l.advance()
	}
	if isFloat {
		return token.Token{Type: token.FLOAT, Content: sb.String(), Position: pos}
	}
	return token.Token{Type: token.INTEGER, Content: sb.String(), Position: pos}
}

// scanStringMerged scans one quoted string literal (raw if raw==true)
// and then - per spec §4.1 - merges in any further string literals that
// follow separated only by horizontal whitespace, returning the single
// concatenated token with the first literal's span.
func (l *Lexer) scanStringMerged(raw bool) (token.Token, error) {
	pos := l.currentPos()
	var sb strings.Builder
	for {
		piece, err := l.scanOneStringBody(raw)
		if err != nil {
			return token.Token{}, err
		}
		sb.WriteString(piece)

		save := *l
		l.skipHorizontalWhitespace()
		if l.ch == '"' || l.ch == '\'' {
			raw = false
			continue
		}
		*l = save
		break
	}
	return token.Token{Type: token.STRING, Content: sb.String(), Position: pos}, nil
}

func (l *Lexer) scanOneStringBody(raw bool) (string, error) {
	delim := l.ch
	startPos := l.currentPos()
	l.advance()
	var raw_ strings.Builder
	for l.ch != delim {
		if l.eof() || l.ch == '\n' {
			return "", errors.NewSyntaxError(startPos, "EOL while scanning string literal")
		}
		if !raw && l.ch == '\\' {
			l.advance()
			raw_.WriteRune(unescape(l.ch))
			l.advance()
			continue
		}
		raw_.WriteRune(l.ch)
		l.advance()
	}
	l.advance()
	return raw_.String(), nil
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return r
	}
}

func (l *Lexer) scanFString(pos token.Position) (token.Token, error) {
	tok, err := l.scanStringMerged(false)
	if err != nil {
		return token.Token{}, err
	}
	tok.Type = token.F_STRING
	tok.Position = pos
	return tok, nil
}

func (l *Lexer) scanOperator() (token.Token, error) {
	pos := l.currentPos()
	ch := l.ch

	single := map[rune]token.Type{
		'(': token.LEFT_PAREN, ')': token.RIGHT_PAREN,
		'[': token.LEFT_SQ_BRACKET, ']': token.RIGHT_SQ_BRACKET,
		'{': token.LEFT_BRACE, '}': token.RIGHT_BRACE,
		',': token.COMMA, '@': token.AT_SIGN,
	}
	if tt, ok := single[ch]; ok {
		l.advance()
		return token.Token{Type: tt, Content: string(ch), Position: pos}, nil
	}

	switch ch {
	case '.':
		l.advance()
		if l.ch == '.' {
			l.advance()
			if l.ch == '.' {
				l.advance()
				return token.Token{Type: token.TRIPLE_DOT, Content: "...", Position: pos}, nil
			}
			return token.Token{Type: token.DOUBLE_DOT, Content: "..", Position: pos}, nil
		}
		return token.Token{Type: token.DOT, Content: ".", Position: pos}, nil
	case '=':
		l.advance()
		if l.ch == '=' {
			l.advance()
			return token.Token{Type: token.COMPARISON_OP, Content: "==", Position: pos}, nil
		}
		return token.Token{Type: token.ASSIGNMENT_OP, Content: "=", Position: pos}, nil
	case ':':
		l.advance()
		if l.ch == ':' {
			l.advance()
			return token.Token{Type: token.DOUBLE_COLON, Content: "::", Position: pos}, nil
		}
		return token.Token{Type: token.COLON, Content: ":", Position: pos}, nil
	case '+':
		l.advance()
		return token.Token{Type: token.ARITHMETIC_OP, Content: "+", Position: pos}, nil
	case '-':
		l.advance()
		return token.Token{Type: token.ARITHMETIC_OP, Content: "-", Position: pos}, nil
	case '*':
		l.advance()
		if l.ch == '*' {
			l.advance()
			return token.Token{Type: token.ARITHMETIC_OP, Content: "**", Position: pos}, nil
		}
		return token.Token{Type: token.ARITHMETIC_OP, Content: "*", Position: pos}, nil
	case '/':
		l.advance()
		if l.ch == '/' {
			l.advance()
			return token.Token{Type: token.ARITHMETIC_OP, Content: "//", Position: pos}, nil
		}
		return token.Token{Type: token.ARITHMETIC_OP, Content: "/", Position: pos}, nil
	case '%':
		l.advance()
		return token.Token{Type: token.ARITHMETIC_OP, Content: "%", Position: pos}, nil
	case '<':
		l.advance()
		if l.ch == '=' {
			l.advance()
			return token.Token{Type: token.COMPARISON_OP, Content: "<=", Position: pos}, nil
		}
		return token.Token{Type: token.COMPARISON_OP, Content: "<", Position: pos}, nil
	case '>':
		l.advance()
		if l.ch == '=' {
			l.advance()
			return token.Token{Type: token.COMPARISON_OP, Content: ">=", Position: pos}, nil
		}
		return token.Token{Type: token.COMPARISON_OP, Content: ">", Position: pos}, nil
	case '!':
		l.advance()
		if l.ch == '=' {
			l.advance()
			return token.Token{Type: token.COMPARISON_OP, Content: "!=", Position: pos}, nil
		}
		return token.Token{Type: token.UNKNOWN, Content: "!", Position: pos}, nil
	}

	// Unrecognised character: emit UNKNOWN instead of aborting, so the
	// parser can report a precise location (spec §4.1).
	l.advance()
	return token.Token{Type: token.UNKNOWN, Content: string(ch), Position: pos}, nil
}
