package eval

import (
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
)

// coerceToType applies the one implicit conversion the surface syntax
// needs: a plain string literal assigned where a Path is expected
// becomes a Path value. The grammar has no distinct path literal syntax
// (the original lexer doesn't either - Path values are just strings
// used in a Path-typed position), so the conversion happens here
// instead of at lex time.
func coerceToType(v value.Value, target *types.Descriptor) value.Value {
	if target == nil {
		return v
	}
	if s, ok := v.(value.Str); ok && !s.Protected && target.Equal(types.Path) {
		return value.Path{V: s.V}
	}
	return v
}
