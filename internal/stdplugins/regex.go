package stdplugins

import (
	"fmt"
	"regexp"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/eval"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
)

// RegisterRegex binds std.regex's match plugin into scope, matching
// Python re.match's "anchored at the start of string" semantics rather
// than Go's unanchored regexp.MatchString (spec §6 scenario 5).
func RegisterRegex(scope *evalctx.Scope) error {
	match := &eval.Plugin{
		Name:   "match",
		Params: []ast.Param{strParam("regex"), strParam("string")},
		Return: types.Bool,
		Fn: func(args []value.Value) (value.Value, error) {
			pattern := args[0].(value.Str).V
			subject := args[1].(value.Str).V

			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
			}
			loc := re.FindStringIndex(subject)
			return value.Bool{V: loc != nil && loc[0] == 0}, nil
		},
	}
	return scope.Set(match.Name, match, token.Position{})
}
