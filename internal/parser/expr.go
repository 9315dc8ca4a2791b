package parser

import (
	"fmt"
	"strconv"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/token"
)

// parseExpression climbs the precedence table from minPrec upward,
// mirroring parser.py's _parse_expression/_parse_bin_op_rhs: parse one
// primary, then fold in binary operators whose precedence is at least
// minPrec, recursing one level deeper whenever the operator that
// follows the just-parsed RHS binds tighter than the current one.
func (p *Parser) parseExpression(minPrec int) (ast.Node, error) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseBinOpRHS(minPrec, lhs)
}

func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Node) (ast.Node, error) {
	for {
		op, prec, ok := p.currentOperator()
		if !ok || prec < minPrec {
			return lhs, nil
		}
		opTok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}

		rhs, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		_, nextPrec, nextOk := p.currentOperator()
		if nextOk && prec < nextPrec {
			rhs, err = p.parseBinOpRHS(prec+1, rhs)
			if err != nil {
				return nil, err
			}
		}

		lhs = ast.NewBinOp(opTok, op, lhs, rhs)
	}
}

// currentOperator reports the operator symbol and precedence of the
// current token, if it is usable as a binary operator here.
func (p *Parser) currentOperator() (string, int, bool) {
	var sym string
	switch p.cur.Type {
	case token.ARITHMETIC_OP, token.COMPARISON_OP:
		sym = p.cur.Content
	case token.AND:
		sym = "and"
	case token.OR:
		sym = "or"
	default:
		return "", 0, false
	}
	prec, ok := binOpPrecedence[sym]
	return sym, prec, ok
}

// parsePrimary parses one atom followed by any chain of postfix
// operators (attribute access, subscript, call) - level 100 in the
// precedence table, which always binds before anything climbs back up
// to a binary operator.
func (p *Parser) parsePrimary() (ast.Node, error) {
	node, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(node)
}

func (p *Parser) parseAtom() (ast.Node, error) {
	tok := p.cur

	switch {
	case tok.Type == token.ARITHMETIC_OP && tok.Content == "-":
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpression(unaryNegPrec)
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryNeg(tok, rhs), nil

	case tok.Type == token.NOT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpression(unaryNotPrec)
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryNot(tok, rhs), nil

	case tok.Type == token.INTEGER:
		v, perr := strconv.ParseInt(tok.Content, 10, 64)
		if perr != nil {
			return nil, errors.NewParserError(tok, "invalid integer literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewIntLiteral(tok, v), nil

	case tok.Type == token.FLOAT:
		v, perr := strconv.ParseFloat(tok.Content, 64)
		if perr != nil {
			return nil, errors.NewParserError(tok, "invalid float literal")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewFloatLiteral(tok, v), nil

	case tok.Type == token.STRING:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewStringLiteral(tok, tok.Content), nil

	case tok.Type == token.F_STRING:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewFStringLiteral(tok, tok.Content), nil

	case tok.Type == token.TRUE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBoolLiteral(tok, true), nil

	case tok.Type == token.FALSE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBoolLiteral(tok, false), nil

	case tok.Type == token.IDENTIFIER && tok.Content == "None":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewNoneLiteral(tok), nil

	case tok.Type == token.IDENTIFIER:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewIdentifier(tok, tok.Content), nil

	case tok.Type == token.LEFT_PAREN:
		return p.parseParenExpr()

	case tok.Type == token.LEFT_SQ_BRACKET:
		return p.parseListLiteral()

	case tok.Type == token.LEFT_BRACE:
		return p.parseDictLiteral()

	default:
		return nil, errors.NewParserError(tok, fmt.Sprintf("unexpected token %s", tok.Type))
	}
}

func (p *Parser) parseParenExpr() (ast.Node, error) {
	if err := p.enterGroup(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(exprMinPrec)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.RIGHT_PAREN {
		return nil, errors.NewParserError(p.cur, "expected ')'")
	}
	if err := p.leaveGroup(); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parsePostfix(node ast.Node) (ast.Node, error) {
	for {
		switch p.cur.Type {
		case token.DOT:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.Type != token.IDENTIFIER {
				return nil, errors.NewParserError(p.cur, "expected an attribute name")
			}
			tok := p.cur
			name := p.cur.Content
			if err := p.advance(); err != nil {
				return nil, err
			}
			node = ast.NewAttribute(tok, node, name)

		case token.LEFT_SQ_BRACKET:
			tok := p.cur
			if err := p.enterGroup(); err != nil {
				return nil, err
			}
			idx, err := p.parseSubscriptIndex()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != token.RIGHT_SQ_BRACKET {
				return nil, errors.NewParserError(p.cur, "expected ']'")
			}
			if err := p.leaveGroup(); err != nil {
				return nil, err
			}
			node = ast.NewSubscript(tok, node, idx)

		case token.LEFT_PAREN:
			tok := p.cur
			if err := p.enterGroup(); err != nil {
				return nil, err
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != token.RIGHT_PAREN {
				return nil, errors.NewParserError(p.cur, "expected ')'")
			}
			if err := p.leaveGroup(); err != nil {
				return nil, err
			}
			node = ast.NewCall(tok, node, args)

		default:
			return node, nil
		}
	}
}

// parseSubscriptIndex parses the contents of a `[...]`: a single
// expression in the common case, or a comma-separated pair wrapped in
// an *ast.ListLiteral for `dict[K, V]` type expressions - the
// convention resolveTypeExpr (package eval) expects for dict's two
// type arguments.
func (p *Parser) parseSubscriptIndex() (ast.Node, error) {
	tok := p.cur
	first, err := p.parseExpression(exprMinPrec)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.COMMA {
		return first, nil
	}

	elems := []ast.Node{first}
	for p.cur.Type == token.COMMA {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseExpression(exprMinPrec)
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	return ast.NewListLiteral(tok, elems), nil
}

func (p *Parser) parseListLiteral() (ast.Node, error) {
	tok := p.cur
	if err := p.enterGroup(); err != nil {
		return nil, err
	}
	var elems []ast.Node
	for p.cur.Type != token.RIGHT_SQ_BRACKET {
		v, err := p.parseExpression(exprMinPrec)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		if p.cur.Type != token.COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Type != token.RIGHT_SQ_BRACKET {
		return nil, errors.NewParserError(p.cur, "expected ']'")
	}
	if err := p.leaveGroup(); err != nil {
		return nil, err
	}
	return ast.NewListLiteral(tok, elems), nil
}

func (p *Parser) parseDictLiteral() (ast.Node, error) {
	tok := p.cur
	if err := p.enterGroup(); err != nil {
		return nil, err
	}
	var entries []ast.DictEntry
	for p.cur.Type != token.RIGHT_BRACE {
		key, err := p.parseExpression(exprMinPrec)
		if err != nil {
			return nil, err
		}
		if p.cur.Type != token.COLON {
			return nil, errors.NewParserError(p.cur, "expected ':'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(exprMinPrec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if p.cur.Type != token.COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Type != token.RIGHT_BRACE {
		return nil, errors.NewParserError(p.cur, "expected '}'")
	}
	if err := p.leaveGroup(); err != nil {
		return nil, err
	}
	return ast.NewDictLiteral(tok, entries), nil
}

// parseArgs parses a comma-separated call/decorator argument list:
// `name = expr` for a named argument, or a bare expr for a positional
// one.
func (p *Parser) parseArgs() ([]ast.Argument, error) {
	var args []ast.Argument
	for p.cur.Type != token.RIGHT_PAREN {
		name := ""
		if p.cur.Type == token.IDENTIFIER && p.peek.Type == token.ASSIGNMENT_OP {
			name = p.cur.Content
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		val, err := p.parseExpression(exprMinPrec)
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Argument{Name: name, Value: val})
		if p.cur.Type != token.COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return args, nil
}
