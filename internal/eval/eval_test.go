package eval_test

import (
	"testing"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/parser"
	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/kazaamjt/eikobot/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run parses src and evaluates it against a fresh root scope, returning
// the evaluator (for inspecting e.Resources) and the scope (for
// inspecting top-level bindings).
func run(t *testing.T, src string) (*eval.Evaluator, *evalctx.Scope, error) {
	t.Helper()
	mod, err := parser.Parse("test.eiko", src)
	require.NoError(t, err)
	scope := evalctx.NewRoot("test")
	ev := eval.New(nil, nil, nil)
	return ev, scope, ev.EvalModule(scope, mod)
}

func mustGet(t *testing.T, scope *evalctx.Scope, name string) value.Value {
	t.Helper()
	b, ok := scope.Get(name)
	require.True(t, ok, "expected %q to be bound", name)
	v, ok := b.(value.Value)
	require.True(t, ok, "%q is not a value", name)
	return v
}

func TestAssignmentEvaluatesArithmetic(t *testing.T) {
	_, scope, err := run(t, "x = 1 + 2 * 3\n")
	require.NoError(t, err)
	assert.Equal(t, value.Int{V: 7}, mustGet(t, scope, "x"))
}

func TestReassignmentIsIllegal(t *testing.T) {
	_, _, err := run(t, "x = 1\nx = 2\n")
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindCompilation, e.Kind)
}

func TestUnknownNameSuggestsAlternative(t *testing.T) {
	_, _, err := run(t, "xxl = 1\ny = xx\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown name")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestIfElseSelectsBranch(t *testing.T) {
	src := "resource Flag:\n    value : str\n\n    implement(value: str):\n        self.value = value\n\nif False:\n    Flag(value=\"a\")\nelse:\n    Flag(value=\"b\")\n"
	ev, _, err := run(t, src)
	require.NoError(t, err)
	require.Len(t, ev.Resources.Order, 1)
	v, _ := ev.Resources.Order[0].Get("value")
	assert.Equal(t, value.Str{V: "b"}, v)
}

func TestResourceConstructionDedupesByIndex(t *testing.T) {
	src := "resource Host:\n    name : str\n\n    implement(name: str):\n        self.name = name\n\na = Host(name=\"web1\")\nb = Host(name=\"web1\")\nc = Host(name=\"web2\")\n"
	ev, scope, err := run(t, src)
	require.NoError(t, err)
	require.Len(t, ev.Resources.Order, 2)

	a := mustGet(t, scope, "a")
	b := mustGet(t, scope, "b")
	c := mustGet(t, scope, "c")

	eq, _ := value.Equal(a, b)
	assert.True(t, eq, "constructing the same index twice should return the prior instance")
	eq, _ = value.Equal(a, c)
	assert.False(t, eq)

	inst := a.(*value.Instance)
	nameVal, ok := inst.Get("name")
	require.True(t, ok)
	assert.Equal(t, value.Str{V: "web1"}, nameVal)
}

func TestForLoopConstructsOnePerElement(t *testing.T) {
	src := "resource Item:\n    name : str\n\n    implement(name: str):\n        self.name = name\n\nfor n in [\"a\", \"b\", \"c\"]:\n    Item(name=n)\n"
	ev, _, err := run(t, src)
	require.NoError(t, err)
	require.Len(t, ev.Resources.Order, 3)
	names := map[string]bool{}
	for _, inst := range ev.Resources.Order {
		v, _ := inst.Get("name")
		names[v.(value.Str).V] = true
	}
	assert.True(t, names["a"] && names["b"] && names["c"])
}

func TestTypedefRefinementAcceptsValidValue(t *testing.T) {
	src := "typedef Port int : self > 0 and self < 65536\n\np = Port(8080)\n"
	_, scope, err := run(t, src)
	require.NoError(t, err)
	refined, ok := mustGet(t, scope, "p").(*value.Refined)
	require.True(t, ok)
	assert.Equal(t, value.Int{V: 8080}, refined.Inner)
}

func TestTypedefRefinementRejectsInvalidValue(t *testing.T) {
	src := "typedef Port int : self > 0 and self < 65536\n\np = Port(-1)\n"
	_, _, err := run(t, src)
	require.Error(t, err)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindCompilation, e.Kind)
}

// TestChainedTypedefRefinementComposesBothConditions builds a typedef
// over another typedef: HttpPort narrows Port's own range further. A
// value passing both Port's and HttpPort's conditions is accepted and
// wrapped as a refined value; the rejection on Port's inner condition
// is covered by TestChainedTypedefRefinementRejectsOnInnerCondition.
func TestChainedTypedefRefinementComposesBothConditions(t *testing.T) {
	src := "typedef Port int : self > 0 and self < 65536\n" +
		"typedef HttpPort Port : self != 22\n" +
		"p = HttpPort(8080)\n"
	_, scope, err := run(t, src)
	require.NoError(t, err)
	refined, ok := mustGet(t, scope, "p").(*value.Refined)
	require.True(t, ok)
	assert.Equal(t, value.Int{V: 8080}, refined.Inner)
}

func TestChainedTypedefRefinementRejectsOnInnerCondition(t *testing.T) {
	src := "typedef Port int : self > 0 and self < 65536\n" +
		"typedef HttpPort Port : self != 22\n" +
		"p = HttpPort(-1)\n" // fails Port's condition, never reaches HttpPort's own
	_, _, err := run(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Port")
}

func TestChainedTypedefRefinementRejectsOnOuterCondition(t *testing.T) {
	src := "typedef Port int : self > 0 and self < 65536\n" +
		"typedef HttpPort Port : self != 22\n" +
		"p = HttpPort(22)\n" // passes Port's condition, fails HttpPort's own
	_, _, err := run(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HttpPort")
}

func TestEnumMembersAreDistinctStrings(t *testing.T) {
	src := "enum Color: RED, GREEN, BLUE\n"
	_, scope, err := run(t, src)
	require.NoError(t, err)
	b, ok := scope.Get("Color")
	require.True(t, ok)
	et, ok := b.(*eval.EnumType)
	require.True(t, ok)
	assert.Equal(t, value.Str{V: "RED"}, et.Members["RED"])
	assert.Len(t, et.Members, 3)
}

func TestEnumMemberIsReadableByAttributeAccess(t *testing.T) {
	src := "enum Color: RED, GREEN, BLUE\nx = Color.RED\n"
	_, scope, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, value.Str{V: "RED"}, mustGet(t, scope, "x"))
}

func TestEnumNameAloneIsNotAValue(t *testing.T) {
	src := "enum Color: RED, GREEN, BLUE\nx = Color\n"
	_, _, err := run(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a value")
}

func TestEnumUnknownMemberIsAnError(t *testing.T) {
	src := "enum Color: RED, GREEN, BLUE\nx = Color.PURPLE\n"
	_, _, err := run(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no member")
}

func TestFStringInterpolatesArbitraryExpression(t *testing.T) {
	src := "x = 1\ny = 2\nz = f\"sum is {x + y}\"\n"
	_, scope, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, value.Str{V: "sum is 3"}, mustGet(t, scope, "z"))
}

func TestFStringInvalidInterpolationIsAnError(t *testing.T) {
	src := "z = f\"broken {1 +}\"\n"
	_, _, err := run(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid expression")
}

// TestDottedModuleAttributeAccess exercises `import a.b` style dotted
// access (a.b.x) without a real ModuleLoader: evalImport binds the
// imported name to the module's raw *evalctx.Scope, so this pre-seeds
// that same shape directly - a nested scope holding "x" bound under
// the name "mod" - and evaluates "mod.x" the way the parser would see
// it after a real import.
func TestDottedModuleAttributeAccess(t *testing.T) {
	modScope := evalctx.NewRoot("mod")
	require.NoError(t, modScope.Set("x", value.Int{V: 42}, token.Position{}))

	root := evalctx.NewRoot("test")
	require.NoError(t, root.Set("mod", modScope, token.Position{}))

	mod, err := parser.Parse("test.eiko", "y = mod.x\n")
	require.NoError(t, err)
	ev := eval.New(nil, nil, nil)
	require.NoError(t, ev.EvalModule(root, mod))
	assert.Equal(t, value.Int{V: 42}, mustGet(t, root, "y"))
}

func TestPropertyIsWriteOnce(t *testing.T) {
	src := "resource Host:\n    name : str\n\n    implement(name: str):\n        self.name = name\n        self.name = name\n\nHost(name=\"web1\")\n"
	_, _, err := run(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write-once")
}

func TestShortCircuitOrSkipsRHS(t *testing.T) {
	_, scope, err := run(t, "x = True or xx\n")
	require.NoError(t, err)
	assert.Equal(t, value.Bool{V: true}, mustGet(t, scope, "x"))
}

func TestShortCircuitAndSkipsRHS(t *testing.T) {
	_, scope, err := run(t, "x = False and xx\n")
	require.NoError(t, err)
	assert.Equal(t, value.Bool{V: false}, mustGet(t, scope, "x"))
}
