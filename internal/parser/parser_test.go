package parser

import (
	"testing"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseExpr parses a single top-level expression statement and returns
// its Value node, unwrapping the implicit Assignment-less statement.
func parseExpr(t *testing.T, src string) ast.Node {
	t.Helper()
	mod, err := Parse("test.eiko", src+"\n")
	require.NoError(t, err)
	require.Len(t, mod.Statements, 1)
	return mod.Statements[0]
}

// TestBasicOpsPrecedence mirrors the original compiler's test_parser.py
// test_basic_ops: `*` and `//` bind tighter than `+`, so `1 + 3 // 4`
// parses as `1 + (3 // 4)`, not `(1 + 3) // 4`.
func TestBasicOpsPrecedence(t *testing.T) {
	node := parseExpr(t, "1 + 3 // 4")
	bin, ok := node.(*ast.BinOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)

	lhs, ok := bin.LHS.(*ast.IntLiteral)
	require.True(t, ok)
	assert.Equal(t, int64(1), lhs.Value)

	rhs, ok := bin.RHS.(*ast.BinOp)
	require.True(t, ok)
	assert.Equal(t, "//", rhs.Op)
}

func TestMultiplicationBindsTighterThanAddition(t *testing.T) {
	node := parseExpr(t, "2 + 3 * 4")
	bin := node.(*ast.BinOp)
	assert.Equal(t, "+", bin.Op)
	rhs := bin.RHS.(*ast.BinOp)
	assert.Equal(t, "*", rhs.Op)
}

func TestAdditionIsLeftAssociative(t *testing.T) {
	node := parseExpr(t, "1 - 2 - 3")
	bin := node.(*ast.BinOp)
	assert.Equal(t, "-", bin.Op)
	lhs, ok := bin.LHS.(*ast.BinOp)
	require.True(t, ok, "left operand of a left-associative chain must itself be a BinOp")
	assert.Equal(t, "-", lhs.Op)
	_, rhsIsLiteral := bin.RHS.(*ast.IntLiteral)
	assert.True(t, rhsIsLiteral)
}

// TestExponentIsNotRightAssociative pins down parser.go's documented
// fidelity choice: `**` climbs the same left-associative loop as every
// other operator, unlike Python's own `**`.
func TestExponentIsNotRightAssociative(t *testing.T) {
	node := parseExpr(t, "2 ** 3 ** 2")
	bin := node.(*ast.BinOp)
	assert.Equal(t, "**", bin.Op)
	lhs, ok := bin.LHS.(*ast.BinOp)
	require.True(t, ok)
	assert.Equal(t, "**", lhs.Op)
}

func TestAndBindsTighterThanOr(t *testing.T) {
	node := parseExpr(t, "True or False and True")
	bin := node.(*ast.BinOp)
	assert.Equal(t, "or", bin.Op)
	rhs, ok := bin.RHS.(*ast.BinOp)
	require.True(t, ok)
	assert.Equal(t, "and", rhs.Op)
}

func TestComparisonBindsLooserThanArithmetic(t *testing.T) {
	node := parseExpr(t, "1 + 1 == 2")
	bin := node.(*ast.BinOp)
	assert.Equal(t, "==", bin.Op)
	_, ok := bin.LHS.(*ast.BinOp)
	assert.True(t, ok)
}

func TestParensOverridePrecedence(t *testing.T) {
	node := parseExpr(t, "(1 + 3) // 4")
	bin := node.(*ast.BinOp)
	assert.Equal(t, "//", bin.Op)
	lhs, ok := bin.LHS.(*ast.BinOp)
	require.True(t, ok)
	assert.Equal(t, "+", lhs.Op)
}

func TestUnaryNegBindsTighterThanBinaryOps(t *testing.T) {
	node := parseExpr(t, "-1 + 2")
	bin := node.(*ast.BinOp)
	assert.Equal(t, "+", bin.Op)
	_, ok := bin.LHS.(*ast.UnaryNeg)
	assert.True(t, ok)
}

func TestAttributeAndCallChain(t *testing.T) {
	node := parseExpr(t, "a.b.c(1, 2)")
	call, ok := node.(*ast.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	attr, ok := call.Callee.(*ast.Attribute)
	require.True(t, ok)
	assert.Equal(t, "c", attr.Name)
}

func TestFloatAndStringLiterals(t *testing.T) {
	node := parseExpr(t, `3.14`)
	f, ok := node.(*ast.FloatLiteral)
	require.True(t, ok)
	assert.InDelta(t, 3.14, f.Value, 0.0001)
}

func TestAssignmentWithTypeAnnotation(t *testing.T) {
	mod, err := Parse("test.eiko", "x : int = 1 + 2\n")
	require.NoError(t, err)
	require.Len(t, mod.Statements, 1)
	assign, ok := mod.Statements[0].(*ast.Assignment)
	require.True(t, ok)
	require.NotNil(t, assign.TypeExpr)
	ident, ok := assign.TypeExpr.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "int", ident.Name)
}

func TestTypeAnnotationWithoutAssignmentIsAnError(t *testing.T) {
	_, err := Parse("test.eiko", "x : int\n")
	require.Error(t, err)
}

func TestTypedefWithRefinementCondition(t *testing.T) {
	mod, err := Parse("test.eiko", "typedef Port int : self > 0 and self < 65536\n")
	require.NoError(t, err)
	def, ok := mod.Statements[0].(*ast.TypedefDef)
	require.True(t, ok)
	assert.Equal(t, "Port", def.Name)
	assert.Equal(t, "int", def.BaseType)
	require.NotNil(t, def.Condition)
}

func TestTypedefWithoutCondition(t *testing.T) {
	mod, err := Parse("test.eiko", "typedef Port int\n")
	require.NoError(t, err)
	def := mod.Statements[0].(*ast.TypedefDef)
	assert.Nil(t, def.Condition)
}

func TestEnumDef(t *testing.T) {
	mod, err := Parse("test.eiko", "enum Color: RED, GREEN, BLUE\n")
	require.NoError(t, err)
	require.Len(t, mod.Statements, 1)
	def, ok := mod.Statements[0].(*ast.EnumDef)
	require.True(t, ok)
	assert.Equal(t, "Color", def.Name)
	assert.Equal(t, []string{"RED", "GREEN", "BLUE"}, def.Members)
}

func TestImportWithAlias(t *testing.T) {
	mod, err := Parse("test.eiko", "import std.net as net\n")
	require.NoError(t, err)
	imp, ok := mod.Statements[0].(*ast.Import)
	require.True(t, ok)
	assert.Equal(t, []string{"std", "net"}, imp.Path)
	assert.Equal(t, "net", imp.Alias)
}

func TestFromImportNames(t *testing.T) {
	mod, err := Parse("test.eiko", "from std.env import get, get_secret\n")
	require.NoError(t, err)
	imp, ok := mod.Statements[0].(*ast.FromImport)
	require.True(t, ok)
	assert.Equal(t, []string{"std", "env"}, imp.Path)
	assert.Equal(t, []string{"get", "get_secret"}, imp.Names)
}

func TestIfElifElse(t *testing.T) {
	src := "if a:\n    1\nelif b:\n    2\nelse:\n    3\n"
	mod, err := Parse("test.eiko", src)
	require.NoError(t, err)
	stmt, ok := mod.Statements[0].(*ast.IfStatement)
	require.True(t, ok)
	require.Len(t, stmt.Arms, 3)
	assert.NotNil(t, stmt.Arms[0].Condition)
	assert.NotNil(t, stmt.Arms[1].Condition)
	assert.Nil(t, stmt.Arms[2].Condition)
}

func TestForStatement(t *testing.T) {
	src := "for item in items:\n    print(item)\n"
	mod, err := Parse("test.eiko", src)
	require.NoError(t, err)
	stmt, ok := mod.Statements[0].(*ast.ForStatement)
	require.True(t, ok)
	assert.Equal(t, "item", stmt.Target)
	require.Len(t, stmt.Body, 1)
}

func TestResourceDefWithConstructorAndPromise(t *testing.T) {
	src := "resource Host:\n    name : str\n    promise ip : str\n\n    implement __init__(self, name: str):\n        self.name = name\n"
	mod, err := Parse("test.eiko", src)
	require.NoError(t, err)
	def, ok := mod.Statements[0].(*ast.ResourceDef)
	require.True(t, ok)
	assert.Equal(t, "Host", def.Name)
	require.Len(t, def.Properties, 1)
	assert.Equal(t, "name", def.Properties[0].Name)
	require.Len(t, def.Promises, 1)
	assert.Equal(t, "ip", def.Promises[0].Name)
	require.Len(t, def.Constructors, 1)
	assert.Equal(t, "__init__", def.Constructors[0].Name)
}

func TestDecoratedResource(t *testing.T) {
	src := "@index(\"name\")\nresource Host:\n    name : str\n"
	mod, err := Parse("test.eiko", src)
	require.NoError(t, err)
	def, ok := mod.Statements[0].(*ast.ResourceDef)
	require.True(t, ok)
	require.Len(t, def.Decorators, 1)
	assert.Equal(t, "index", def.Decorators[0].Name)
}

func TestPluginDecl(t *testing.T) {
	src := "def get(key: str) : str\n"
	mod, err := Parse("test.eiko", src)
	require.NoError(t, err)
	def, ok := mod.Statements[0].(*ast.PluginDef)
	require.True(t, ok)
	assert.Equal(t, "get", def.Name)
	require.Len(t, def.Params, 1)
	assert.Equal(t, "key", def.Params[0].Name)
}

func TestListAndDictLiterals(t *testing.T) {
	node := parseExpr(t, `[1, 2, 3]`)
	list, ok := node.(*ast.ListLiteral)
	require.True(t, ok)
	assert.Len(t, list.Elements, 3)

	node = parseExpr(t, `{"a": 1, "b": 2}`)
	dict, ok := node.(*ast.DictLiteral)
	require.True(t, ok)
	assert.Len(t, dict.Entries, 2)
}
