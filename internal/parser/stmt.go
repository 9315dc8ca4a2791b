package parser

import (
	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/token"
)

// parseStatement dispatches on the leading token of a line, per
// spec §4.2's statement lookahead table. level is the indentation this
// statement itself sits at, passed down so compound statements know
// what their own body must be deeper than, and so if/elif/else and
// multi-line decorators can recognise a continuation at the same level.
func (p *Parser) parseStatement(level string) (ast.Node, error) {
	switch p.cur.Type {
	case token.RESOURCE:
		return p.parseResourceDef(level)
	case token.TYPEDEF:
		return p.parseTypedefDef()
	case token.ENUM:
		return p.parseEnumDef()
	case token.IF:
		return p.parseIfStatement(level)
	case token.FOR:
		return p.parseForStatement(level)
	case token.IMPORT:
		return p.parseImportStmt()
	case token.FROM:
		return p.parseFromImportStmt()
	case token.AT_SIGN:
		return p.parseDecorated(level)
	case token.DEF:
		return p.parsePluginDecl()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseExprStatement() (ast.Node, error) {
	target, err := p.parseExpression(exprMinPrec)
	if err != nil {
		return nil, err
	}

	var typeExpr ast.Node
	if p.cur.Type == token.COLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
		typeExpr, err = p.parsePrimary()
		if err != nil {
			return nil, err
		}
	}

	if p.cur.Type == token.ASSIGNMENT_OP {
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.parseExpression(exprMinPrec)
		if err != nil {
			return nil, err
		}
		return ast.NewAssignment(target.Token(), target, typeExpr, value), nil
	}

	if typeExpr != nil {
		return nil, errors.NewParserError(p.cur, "type annotation requires an assignment")
	}
	return target, nil
}

func (p *Parser) parseResourceDef(level string) (*ast.ResourceDef, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Type != token.IDENTIFIER {
		return nil, errors.NewParserError(p.cur, "expected a resource name")
	}
	name := p.cur.Content
	if err := p.advance(); err != nil {
		return nil, err
	}

	baseName := ""
	if p.cur.Type == token.LEFT_PAREN {
		if err := p.enterGroup(); err != nil {
			return nil, err
		}
		if p.cur.Type != token.IDENTIFIER {
			return nil, errors.NewParserError(p.cur, "expected a base resource name")
		}
		baseName = p.cur.Content
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != token.RIGHT_PAREN {
			return nil, errors.NewParserError(p.cur, "expected ')'")
		}
		if err := p.leaveGroup(); err != nil {
			return nil, err
		}
	}

	if p.cur.Type != token.COLON {
		return nil, errors.NewParserError(p.cur, "expected ':'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	properties, promises, ctors, err := p.parseResourceBody(level)
	if err != nil {
		return nil, err
	}
	return ast.NewResourceDef(tok, name, baseName, properties, promises, ctors, nil), nil
}

// parseResourceBody parses the indented body of a resource definition:
// property declarations, promise declarations, and implement blocks,
// in whatever order the source gives them (spec §4.2).
func (p *Parser) parseResourceBody(parent string) ([]ast.PropertyDecl, []ast.PromiseDecl, []ast.ConstructorDef, error) {
	level, err := p.openBlock(parent)
	if err != nil {
		return nil, nil, nil, err
	}

	var properties []ast.PropertyDecl
	var promises []ast.PromiseDecl
	var ctors []ast.ConstructorDef

	for {
		switch {
		case p.cur.Type == token.PROMISE:
			pd, err := p.parsePromiseDecl()
			if err != nil {
				return nil, nil, nil, err
			}
			promises = append(promises, pd)

		case p.cur.Type == token.IMPLEMENT:
			cd, err := p.parseConstructorDef(level)
			if err != nil {
				return nil, nil, nil, err
			}
			ctors = append(ctors, cd)

		case p.cur.Type == token.IDENTIFIER:
			prop, err := p.parsePropertyDecl()
			if err != nil {
				return nil, nil, nil, err
			}
			properties = append(properties, prop)

		default:
			return nil, nil, nil, errors.NewParserError(p.cur,
				"expected a property, a promise, or an implement block")
		}

		cont, err := p.advanceLine(level)
		if err != nil {
			return nil, nil, nil, err
		}
		if !cont {
			break
		}
	}
	return properties, promises, ctors, nil
}

func (p *Parser) parsePropertyDecl() (ast.PropertyDecl, error) {
	name := p.cur.Content
	if err := p.advance(); err != nil {
		return ast.PropertyDecl{}, err
	}
	if p.cur.Type != token.COLON {
		return ast.PropertyDecl{}, errors.NewParserError(p.cur, "expected ':'")
	}
	if err := p.advance(); err != nil {
		return ast.PropertyDecl{}, err
	}

	typeExpr, err := p.parsePrimary()
	if err != nil {
		return ast.PropertyDecl{}, err
	}

	var def ast.Node
	if p.cur.Type == token.ASSIGNMENT_OP {
		if err := p.advance(); err != nil {
			return ast.PropertyDecl{}, err
		}
		def, err = p.parseExpression(exprMinPrec)
		if err != nil {
			return ast.PropertyDecl{}, err
		}
	}
	return ast.PropertyDecl{Name: name, TypeExpr: typeExpr, Default: def}, nil
}

func (p *Parser) parsePromiseDecl() (ast.PromiseDecl, error) {
	if err := p.advance(); err != nil { // PROMISE
		return ast.PromiseDecl{}, err
	}
	if p.cur.Type != token.IDENTIFIER {
		return ast.PromiseDecl{}, errors.NewParserError(p.cur, "expected a promise name")
	}
	name := p.cur.Content
	if err := p.advance(); err != nil {
		return ast.PromiseDecl{}, err
	}
	if p.cur.Type != token.COLON {
		return ast.PromiseDecl{}, errors.NewParserError(p.cur, "expected ':'")
	}
	if err := p.advance(); err != nil {
		return ast.PromiseDecl{}, err
	}
	typeExpr, err := p.parsePrimary()
	if err != nil {
		return ast.PromiseDecl{}, err
	}
	return ast.PromiseDecl{Name: name, TypeExpr: typeExpr}, nil
}

// parseConstructorDef parses `implement [NAME] ( params ) :` followed
// by an indented body. The name is optional: an unnamed block is the
// resource's default constructor (construct.go's defaultConstructor
// picks the first one regardless of name).
func (p *Parser) parseConstructorDef(parent string) (ast.ConstructorDef, error) {
	if err := p.advance(); err != nil { // IMPLEMENT
		return ast.ConstructorDef{}, err
	}
	name := ""
	if p.cur.Type == token.IDENTIFIER {
		name = p.cur.Content
		if err := p.advance(); err != nil {
			return ast.ConstructorDef{}, err
		}
	}
	if p.cur.Type != token.LEFT_PAREN {
		return ast.ConstructorDef{}, errors.NewParserError(p.cur, "expected '('")
	}
	if err := p.enterGroup(); err != nil {
		return ast.ConstructorDef{}, err
	}
	params, err := p.parseParams()
	if err != nil {
		return ast.ConstructorDef{}, err
	}
	if p.cur.Type != token.RIGHT_PAREN {
		return ast.ConstructorDef{}, errors.NewParserError(p.cur, "expected ')'")
	}
	if err := p.leaveGroup(); err != nil {
		return ast.ConstructorDef{}, err
	}
	if p.cur.Type != token.COLON {
		return ast.ConstructorDef{}, errors.NewParserError(p.cur, "expected ':'")
	}
	if err := p.advance(); err != nil {
		return ast.ConstructorDef{}, err
	}

	body, err := p.parseBlockStatements(parent)
	if err != nil {
		return ast.ConstructorDef{}, err
	}
	return ast.ConstructorDef{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) parseParams() ([]ast.Param, error) {
	var params []ast.Param
	for p.cur.Type == token.IDENTIFIER {
		name := p.cur.Content
		if err := p.advance(); err != nil {
			return nil, err
		}
		var typeExpr ast.Node
		if p.cur.Type == token.COLON {
			if err := p.advance(); err != nil {
				return nil, err
			}
			te, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			typeExpr = te
		}
		params = append(params, ast.Param{Name: name, TypeExpr: typeExpr})
		if p.cur.Type != token.COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return params, nil
}

func (p *Parser) parseTypedefDef() (*ast.TypedefDef, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // TYPEDEF
		return nil, err
	}
	if p.cur.Type != token.IDENTIFIER {
		return nil, errors.NewParserError(p.cur, "expected a typedef name")
	}
	name := p.cur.Content
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Type != token.IDENTIFIER {
		return nil, errors.NewParserError(p.cur, "expected a base type")
	}
	baseType := p.cur.Content
	if err := p.advance(); err != nil {
		return nil, err
	}

	var condition ast.Node
	if p.cur.Type == token.COLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.parseExpression(exprMinPrec)
		if err != nil {
			return nil, err
		}
		condition = cond
	}
	return ast.NewTypedefDef(tok, name, baseType, condition), nil
}

func (p *Parser) parseEnumDef() (*ast.EnumDef, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // ENUM
		return nil, err
	}
	if p.cur.Type != token.IDENTIFIER {
		return nil, errors.NewParserError(p.cur, "expected an enum name")
	}
	name := p.cur.Content
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Type != token.COLON {
		return nil, errors.NewParserError(p.cur, "expected ':'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var members []string
	for p.cur.Type == token.IDENTIFIER {
		members = append(members, p.cur.Content)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != token.COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if len(members) == 0 {
		return nil, errors.NewParserError(p.cur, "enum must declare at least one member")
	}
	return ast.NewEnumDef(tok, name, members), nil
}

func (p *Parser) parseIfStatement(level string) (*ast.IfStatement, error) {
	tok := p.cur
	var arms []ast.IfArm

	kw := p.cur
	for {
		if err := p.advance(); err != nil { // IF / ELIF / ELSE
			return nil, err
		}

		var cond ast.Node
		if kw.Type != token.ELSE {
			c, err := p.parseExpression(exprMinPrec)
			if err != nil {
				return nil, err
			}
			cond = c
		}
		if p.cur.Type != token.COLON {
			return nil, errors.NewParserError(p.cur, "expected ':'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}

		body, err := p.parseBlockStatements(level)
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.IfArm{Condition: cond, Body: body})

		if kw.Type == token.ELSE {
			break
		}
		if p.cur.Type == token.INDENT && p.cur.Content == level &&
			(p.peek.Type == token.ELIF || p.peek.Type == token.ELSE) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			kw = p.cur
			continue
		}
		break
	}

	return ast.NewIfStatement(tok, arms), nil
}

func (p *Parser) parseForStatement(level string) (*ast.ForStatement, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // FOR
		return nil, err
	}
	if p.cur.Type != token.IDENTIFIER {
		return nil, errors.NewParserError(p.cur, "expected a loop variable name")
	}
	target := p.cur.Content
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Type != token.IN {
		return nil, errors.NewParserError(p.cur, "expected 'in'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression(exprMinPrec)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.COLON {
		return nil, errors.NewParserError(p.cur, "expected ':'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.parseBlockStatements(level)
	if err != nil {
		return nil, err
	}
	return ast.NewForStatement(tok, target, iterable, body), nil
}

func (p *Parser) parseDottedPath() ([]string, error) {
	if p.cur.Type != token.IDENTIFIER {
		return nil, errors.NewParserError(p.cur, "expected a module name")
	}
	parts := []string{p.cur.Content}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.cur.Type == token.DOT {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != token.IDENTIFIER {
			return nil, errors.NewParserError(p.cur, "expected a module name")
		}
		parts = append(parts, p.cur.Content)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

func (p *Parser) parseImportStmt() (*ast.Import, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // IMPORT
		return nil, err
	}
	path, err := p.parseDottedPath()
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.cur.Type == token.IDENTIFIER && p.cur.Content == "as" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != token.IDENTIFIER {
			return nil, errors.NewParserError(p.cur, "expected an alias name")
		}
		alias = p.cur.Content
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return ast.NewImport(tok, path, alias), nil
}

func (p *Parser) parseFromImportStmt() (*ast.FromImport, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // FROM
		return nil, err
	}
	path, err := p.parseDottedPath()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.IMPORT {
		return nil, errors.NewParserError(p.cur, "expected 'import'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var names []string
	for {
		if p.cur.Type != token.IDENTIFIER {
			return nil, errors.NewParserError(p.cur, "expected a name")
		}
		names = append(names, p.cur.Content)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type != token.COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return ast.NewFromImport(tok, path, names), nil
}

func (p *Parser) parseDecorator() (ast.Decorator, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // AT_SIGN
		return ast.Decorator{}, err
	}
	if p.cur.Type != token.IDENTIFIER {
		return ast.Decorator{}, errors.NewParserError(p.cur, "expected a decorator name")
	}
	name := p.cur.Content
	if err := p.advance(); err != nil {
		return ast.Decorator{}, err
	}

	var args []ast.Argument
	if p.cur.Type == token.LEFT_PAREN {
		if err := p.enterGroup(); err != nil {
			return ast.Decorator{}, err
		}
		a, err := p.parseArgs()
		if err != nil {
			return ast.Decorator{}, err
		}
		args = a
		if p.cur.Type != token.RIGHT_PAREN {
			return ast.Decorator{}, errors.NewParserError(p.cur, "expected ')'")
		}
		if err := p.leaveGroup(); err != nil {
			return ast.Decorator{}, err
		}
	}
	return *ast.NewDecorator(tok, name, args), nil
}

// parseDecorated collects one or more `@decorator` lines, each at the
// same indentation as the definition they precede, per spec §4.2.
// Currently only resource definitions carry decorators (@handler,
// @index); the eval package only ever reads ResourceDef.Decorators.
func (p *Parser) parseDecorated(level string) (ast.Node, error) {
	var decs []ast.Decorator
	for p.cur.Type == token.AT_SIGN {
		d, err := p.parseDecorator()
		if err != nil {
			return nil, err
		}
		decs = append(decs, d)

		if p.cur.Type == token.INDENT && p.cur.Content == level {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if p.cur.Type != token.RESOURCE {
		return nil, errors.NewParserError(p.cur, "decorators may only precede a resource definition")
	}
	def, err := p.parseResourceDef(level)
	if err != nil {
		return nil, err
	}
	def.Decorators = decs
	return def, nil
}

// parsePluginDecl parses a host-plugin forward declaration:
// `def name(params) : ReturnType`. It carries no body - the DSL source
// only declares the signature; the Go implementation is bound into the
// root scope before compilation starts (spec §4.7).
func (p *Parser) parsePluginDecl() (*ast.PluginDef, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // DEF
		return nil, err
	}
	if p.cur.Type != token.IDENTIFIER {
		return nil, errors.NewParserError(p.cur, "expected a plugin name")
	}
	name := p.cur.Content
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Type != token.LEFT_PAREN {
		return nil, errors.NewParserError(p.cur, "expected '('")
	}
	if err := p.enterGroup(); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.RIGHT_PAREN {
		return nil, errors.NewParserError(p.cur, "expected ')'")
	}
	if err := p.leaveGroup(); err != nil {
		return nil, err
	}

	var ret ast.Node
	if p.cur.Type == token.COLON {
		if err := p.advance(); err != nil {
			return nil, err
		}
		ret, err = p.parsePrimary()
		if err != nil {
			return nil, err
		}
	}
	return ast.NewPluginDef(tok, name, params, ret), nil
}
