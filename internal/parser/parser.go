// Package parser turns a token stream into the ast tree consumed by
// package eval. It is a top-down recursive-descent parser with
// Pratt-style precedence climbing for expressions, grounded on the
// original compiler's parser.py: the same _current/_next two-token
// lookahead, the same precedence table, and the same left-associative
// climbing loop (including parser.py's choice not to special-case `**`
// for right-associativity - this parser doesn't either, for fidelity).
//
// The original parser.py only implements expression parsing; the
// statement grammar (resource/typedef/enum/if/for/import/decorator)
// is this package's own construction, built to the shapes spec.md §4.2
// describes and the node shapes package ast already commits to.
package parser

import (
	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/lexer"
	"github.com/kazaamjt/eikobot/internal/token"
)

// exprMinPrec is the precedence climbing floor for a fresh expression:
// one level below "or" (20), since assignment ("=", level 10 in the
// original's table) is parsed as a statement form here, not a binary
// operator - ast.Assignment is a distinct node, not a BinOp.
const exprMinPrec = 20

const (
	unaryNegPrec = 80
	unaryNotPrec = 40
)

var binOpPrecedence = map[string]int{
	"or":  20,
	"and": 30,
	"==":  50,
	"!=":  50,
	"<":   50,
	">":   50,
	"<=":  50,
	">=":  50,
	"+":   60,
	"-":   60,
	"*":   70,
	"/":   70,
	"//":  70,
	"%":   70,
	"**":  90,
}

// Parser consumes tokens from a Lexer one at a time.
type Parser struct {
	lex        *lexer.Lexer
	cur, peek  token.Token
	pending    *token.Token
	groupDepth int
}

// Parse parses a complete file into a Module.
func Parse(file, src string) (*ast.Module, error) {
	p := &Parser{lex: lexer.New(file, src)}

	first, err := p.rawNext()
	if err != nil {
		return nil, err
	}
	second, err := p.rawNext()
	if err != nil {
		return nil, err
	}
	p.cur, p.peek = first, second

	startTok := p.cur
	stmts, err := p.parseTopLevel()
	if err != nil {
		return nil, err
	}
	return ast.NewModule(startTok, stmts), nil
}

func (p *Parser) parseTopLevel() ([]ast.Node, error) {
	if p.cur.Type == token.INDENT {
		if p.cur.Content != "" {
			return nil, errors.NewParserError(p.cur, "unexpected indentation at start of file")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return p.parseStatementsAtLevel("")
}

// rawNext reads one token from the lexer, collapsing a run of adjacent
// INDENT tokens down to the last one in the run: blank lines and the
// lexer's own empty bootstrap INDENT both produce INDENT tokens that
// carry no real statement, and only the indentation of the line a real
// token sits on is ever meaningful (parser.py's _advance collapses the
// one specific case of this; this collapses the general case).
func (p *Parser) rawNext() (token.Token, error) {
	var tok token.Token
	if p.pending != nil {
		tok = *p.pending
		p.pending = nil
	} else {
		t, err := p.lex.Next()
		if err != nil {
			return token.Token{}, err
		}
		tok = t
	}

	for tok.Type == token.INDENT {
		nt, err := p.lex.Next()
		if err != nil {
			return token.Token{}, err
		}
		if nt.Type != token.INDENT {
			p.pending = &nt
			return tok, nil
		}
		tok = nt
	}
	return tok, nil
}

// advance shifts the lookahead window by one token. Inside a bracketed
// group (parens, brackets, braces, call/decorator argument lists) it
// skips INDENT tokens entirely, letting expressions span lines - the
// same liberty parser.py grants via its skip_indentation flag, which it
// uses specifically for parenthesized expressions.
func (p *Parser) advance() error {
	p.cur = p.peek
	nt, err := p.rawNext()
	if err != nil {
		return err
	}
	p.peek = nt

	if p.groupDepth > 0 {
		for p.cur.Type == token.INDENT {
			p.cur = p.peek
			nt, err := p.rawNext()
			if err != nil {
				return err
			}
			p.peek = nt
		}
	}
	return nil
}

// enterGroup consumes the opening delimiter of a bracketed group and
// starts skipping INDENT tokens until the matching leaveGroup.
func (p *Parser) enterGroup() error {
	p.groupDepth++
	return p.advance()
}

// leaveGroup consumes the closing delimiter and stops skipping INDENT.
func (p *Parser) leaveGroup() error {
	p.groupDepth--
	return p.advance()
}

// openBlock requires the next token to be an INDENT strictly deeper
// than parent, consumes it, and returns its content as the new block's
// indentation level (spec §4.2: "the next INDENT that is strictly
// deeper than the enclosing block opens the body").
func (p *Parser) openBlock(parent string) (string, error) {
	if p.cur.Type != token.INDENT || len(p.cur.Content) <= len(parent) {
		return "", errors.NewParserError(p.cur, "expected an indented block")
	}
	level := p.cur.Content
	if err := p.advance(); err != nil {
		return "", err
	}
	return level, nil
}

// advanceLine looks at the INDENT separating two statements of the
// same block. Equal to level: the block continues, and the INDENT is
// consumed. Shallower: the block ends, and the INDENT is left for the
// enclosing frame to interpret. Deeper, or anything else: an error.
func (p *Parser) advanceLine(level string) (bool, error) {
	if p.cur.Type == token.EOF {
		return false, nil
	}
	if p.cur.Type != token.INDENT {
		return false, errors.NewParserError(p.cur, "expected end of statement")
	}
	if len(p.cur.Content) < len(level) {
		return false, nil
	}
	if p.cur.Content == level {
		return true, p.advance()
	}
	return false, errors.NewParserError(p.cur, "unexpected indentation")
}

// parseStatementsAtLevel parses statements already known to sit at
// level, stopping at the first dedent or EOF.
func (p *Parser) parseStatementsAtLevel(level string) ([]ast.Node, error) {
	var stmts []ast.Node
	for {
		if p.cur.Type == token.EOF {
			break
		}
		stmt, err := p.parseStatement(level)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		cont, err := p.advanceLine(level)
		if err != nil {
			return nil, err
		}
		if !cont {
			break
		}
	}
	return stmts, nil
}

// parseBlockStatements opens an indented block under parent and parses
// its statements.
func (p *Parser) parseBlockStatements(parent string) ([]ast.Node, error) {
	level, err := p.openBlock(parent)
	if err != nil {
		return nil, err
	}
	return p.parseStatementsAtLevel(level)
}
