package value

import (
	"testing"

	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinOpIntArithmetic(t *testing.T) {
	v, err := BinOp("+", Int{1}, Int{2}, token.Position{})
	require.NoError(t, err)
	assert.Equal(t, Int{3}, v)

	v, err = BinOp("**", Int{2}, Int{10}, token.Position{})
	require.NoError(t, err)
	assert.Equal(t, Int{1024}, v)
}

// TestFloorDivModSignConvention pins down Python's floor semantics:
// the result of // and % takes the sign of the divisor, unlike Go's
// native truncating / and %.
func TestFloorDivModSignConvention(t *testing.T) {
	cases := []struct {
		a, b    int64
		wantDiv int64
		wantMod int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -4, -1},
		{-7, -2, 3, -1},
	}
	for _, c := range cases {
		div, err := BinOp("//", Int{c.a}, Int{c.b}, token.Position{})
		require.NoError(t, err)
		assert.Equal(t, Int{c.wantDiv}, div, "%d // %d", c.a, c.b)

		mod, err := BinOp("%", Int{c.a}, Int{c.b}, token.Position{})
		require.NoError(t, err)
		assert.Equal(t, Int{c.wantMod}, mod, "%d %% %d", c.a, c.b)
	}
}

func TestModuloByZeroIsCompilationError(t *testing.T) {
	_, err := BinOp("%", Int{1}, Int{0}, token.Position{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modulo by zero")
}

func TestMixedIntFloatPromotes(t *testing.T) {
	v, err := BinOp("+", Int{1}, Float{0.5}, token.Position{})
	require.NoError(t, err)
	assert.Equal(t, Float{1.5}, v)
}

func TestStringConcatAndRepeat(t *testing.T) {
	v, err := BinOp("+", Str{V: "foo"}, Str{V: "bar"}, token.Position{})
	require.NoError(t, err)
	assert.Equal(t, Str{V: "foobar"}, v)

	v, err = BinOp("*", Str{V: "ab"}, Int{3}, token.Position{})
	require.NoError(t, err)
	assert.Equal(t, Str{V: "ababab"}, v)
}

func TestNoOverloadError(t *testing.T) {
	_, err := BinOp("+", Str{V: "x"}, Int{1}, token.Position{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no overload")
}

func TestEqualCrossTypeNeverErrors(t *testing.T) {
	eq, ok := Equal(Int{1}, Str{V: "1"})
	assert.True(t, ok)
	assert.False(t, eq)
}

func TestCompareRejectsCrossType(t *testing.T) {
	_, err := Compare("<", Int{1}, Str{V: "1"}, token.Position{})
	require.Error(t, err)
}

func TestCompareOrdering(t *testing.T) {
	less, err := Compare("<", Int{1}, Int{2}, token.Position{})
	require.NoError(t, err)
	assert.True(t, less)

	geq, err := Compare(">=", Int{2}, Int{2}, token.Position{})
	require.NoError(t, err)
	assert.True(t, geq)
}
