// Package ast defines the tagged-variant AST produced by the parser.
// Every node carries the token that introduced it, so evaluator errors
// can point back at an exact source span (spec §3).
package ast

import "github.com/kazaamjt/eikobot/internal/token"

// Node is implemented by every AST variant.
type Node interface {
	Token() token.Token
}

type base struct {
	Tok token.Token
}

func (b base) Token() token.Token { return b.Tok }

// ---- Literals ----

type IntLiteral struct {
	base
	Value int64
}

type FloatLiteral struct {
	base
	Value float64
}

type StringLiteral struct {
	base
	Value     string
	Protected bool // produced by a ProtectedStr-typed context, e.g. std.env
}

type FStringLiteral struct {
	base
	Raw string // unparsed body; interpolation happens at evaluation time
}

type BoolLiteral struct {
	base
	Value bool
}

type PathLiteral struct {
	base
	Value string
}

type NoneLiteral struct{ base }

// ---- References and access ----

type Identifier struct {
	base
	Name string
}

type UnaryNeg struct {
	base
	RHS Node
}

type UnaryNot struct {
	base
	RHS Node
}

// BinOp is a binary operation with the operator symbol as it appeared
// in source ("+", "-", "==", "and", ...).
type BinOp struct {
	base
	Op  string
	LHS Node
	RHS Node
}

type ListLiteral struct {
	base
	Elements []Node
}

type DictEntry struct {
	Key   Node
	Value Node
}

type DictLiteral struct {
	base
	Entries []DictEntry
}

type Attribute struct {
	base
	Object Node
	Name   string
}

type Subscript struct {
	base
	Object Node
	Index  Node
}

type Argument struct {
	Name  string // empty for positional
	Value Node
}

type Call struct {
	base
	Callee Node
	Args   []Argument
}

// ---- Statements ----

// Assignment handles both `target = expr` and `target : Type = expr`.
type Assignment struct {
	base
	Target   Node
	TypeExpr Node // nil if no annotation
	Value    Node
}

type IfArm struct {
	Condition Node // nil for the trailing else
	Body      []Node
}

type IfStatement struct {
	base
	Arms []IfArm
}

type ForStatement struct {
	base
	Target   string
	Iterable Node
	Body     []Node
}

// PropertyDecl is `name : TypeExpr [= default]` inside a resource body.
type PropertyDecl struct {
	Name     string
	TypeExpr Node
	Default  Node // nil if none
}

type PromiseDecl struct {
	Name     string
	TypeExpr Node
}

type Param struct {
	Name     string
	TypeExpr Node
}

type ConstructorDef struct {
	Name   string
	Params []Param
	Body   []Node
}

type Decorator struct {
	base
	Name string
	Args []Argument
}

type ResourceDef struct {
	base
	Name         string
	Base         string // empty if none
	Properties   []PropertyDecl
	Promises     []PromiseDecl
	Constructors []ConstructorDef
	Decorators   []Decorator
}

type TypedefDef struct {
	base
	Name      string
	BaseType  string
	Condition Node // nil if unrefined
}

type EnumDef struct {
	base
	Name    string
	Members []string
}

type Import struct {
	base
	Path  []string
	Alias string // empty if none
}

type FromImport struct {
	base
	Path  []string
	Names []string
}

// PluginDef binds a host-language callable under `def name(...)`.
type PluginDef struct {
	base
	Name   string
	Params []Param
	Return Node
}

// Module is the root node: the ordered sequence of top-level statements
// parsed from one file.
type Module struct {
	base
	Statements []Node
}

// Constructors -----------------------------------------------------------

func NewIntLiteral(tok token.Token, v int64) *IntLiteral       { return &IntLiteral{base{tok}, v} }
func NewFloatLiteral(tok token.Token, v float64) *FloatLiteral { return &FloatLiteral{base{tok}, v} }
func NewBoolLiteral(tok token.Token, v bool) *BoolLiteral       { return &BoolLiteral{base{tok}, v} }
func NewStringLiteral(tok token.Token, v string) *StringLiteral {
	return &StringLiteral{base{tok}, v, false}
}
func NewIdentifier(tok token.Token, name string) *Identifier { return &Identifier{base{tok}, name} }

func NewPathLiteral(tok token.Token, v string) *PathLiteral { return &PathLiteral{base{tok}, v} }
func NewNoneLiteral(tok token.Token) *NoneLiteral           { return &NoneLiteral{base{tok}} }
func NewFStringLiteral(tok token.Token, raw string) *FStringLiteral {
	return &FStringLiteral{base{tok}, raw}
}

func NewUnaryNeg(tok token.Token, rhs Node) *UnaryNeg { return &UnaryNeg{base{tok}, rhs} }
func NewUnaryNot(tok token.Token, rhs Node) *UnaryNot { return &UnaryNot{base{tok}, rhs} }
func NewBinOp(tok token.Token, op string, lhs, rhs Node) *BinOp {
	return &BinOp{base{tok}, op, lhs, rhs}
}

func NewListLiteral(tok token.Token, elements []Node) *ListLiteral {
	return &ListLiteral{base{tok}, elements}
}
func NewDictLiteral(tok token.Token, entries []DictEntry) *DictLiteral {
	return &DictLiteral{base{tok}, entries}
}
func NewAttribute(tok token.Token, object Node, name string) *Attribute {
	return &Attribute{base{tok}, object, name}
}
func NewSubscript(tok token.Token, object, index Node) *Subscript {
	return &Subscript{base{tok}, object, index}
}
func NewCall(tok token.Token, callee Node, args []Argument) *Call {
	return &Call{base{tok}, callee, args}
}

func NewAssignment(tok token.Token, target, typeExpr, value Node) *Assignment {
	return &Assignment{base{tok}, target, typeExpr, value}
}
func NewIfStatement(tok token.Token, arms []IfArm) *IfStatement {
	return &IfStatement{base{tok}, arms}
}
func NewForStatement(tok token.Token, target string, iterable Node, body []Node) *ForStatement {
	return &ForStatement{base{tok}, target, iterable, body}
}

func NewResourceDef(
	tok token.Token, name, baseName string,
	properties []PropertyDecl, promises []PromiseDecl,
	constructors []ConstructorDef, decorators []Decorator,
) *ResourceDef {
	return &ResourceDef{base{tok}, name, baseName, properties, promises, constructors, decorators}
}
func NewTypedefDef(tok token.Token, name, baseType string, condition Node) *TypedefDef {
	return &TypedefDef{base{tok}, name, baseType, condition}
}
func NewEnumDef(tok token.Token, name string, members []string) *EnumDef {
	return &EnumDef{base{tok}, name, members}
}

func NewImport(tok token.Token, path []string, alias string) *Import {
	return &Import{base{tok}, path, alias}
}
func NewFromImport(tok token.Token, path []string, names []string) *FromImport {
	return &FromImport{base{tok}, path, names}
}
func NewPluginDef(tok token.Token, name string, params []Param, ret Node) *PluginDef {
	return &PluginDef{base{tok}, name, params, ret}
}
func NewDecorator(tok token.Token, name string, args []Argument) *Decorator {
	return &Decorator{base{tok}, name, args}
}
func NewModule(tok token.Token, statements []Node) *Module {
	return &Module{base{tok}, statements}
}
