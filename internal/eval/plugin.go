package eval

import (
	"fmt"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/value"
)

// callPlugin evaluates a call into host Go code: arguments are matched
// positionally or by name against the plugin's declared parameters,
// type-checked, converted, and handed to Fn. A host panic or returned
// Go error is wrapped as a PluginError rather than propagated raw
// (spec §4.7 "plugin calling contract").
func (e *Evaluator) callPlugin(scope *evalctx.Scope, p *Plugin, call *ast.Call) (v value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewPluginError(p.Name, fmt.Errorf("panic: %v", r))
		}
	}()

	if len(call.Args) > len(p.Params) {
		return nil, errors.NewCompilationError(call.Token().Position, fmt.Sprintf(
			"plugin %q takes at most %d arguments, got %d", p.Name, len(p.Params), len(call.Args)))
	}

	args := make([]value.Value, len(p.Params))
	bound := make([]bool, len(p.Params))
	positional := 0

	for _, arg := range call.Args {
		val, evalErr := e.EvalExpr(scope, arg.Value)
		if evalErr != nil {
			return nil, evalErr
		}

		idx := -1
		if arg.Name == "" {
			idx = positional
			positional++
		} else {
			for i, param := range p.Params {
				if param.Name == arg.Name {
					idx = i
					break
				}
			}
			if idx == -1 {
				return nil, errors.NewCompilationError(call.Token().Position, fmt.Sprintf(
					"plugin %q has no parameter %q", p.Name, arg.Name))
			}
		}

		expected, typeErr := e.resolveTypeExpr(scope, p.Params[idx].TypeExpr)
		if typeErr != nil {
			return nil, typeErr
		}
		val = coerceToType(val, expected)
		if !val.Type().AssignableTo(expected) {
			return nil, errors.NewCompilationError(call.Token().Position, fmt.Sprintf(
				"argument %q to plugin %q must be assignable to %s, got %s", p.Params[idx].Name, p.Name, expected, val.Type()))
		}
		args[idx] = val
		bound[idx] = true
	}

	for i, ok := range bound {
		if !ok {
			return nil, errors.NewCompilationError(call.Token().Position, fmt.Sprintf(
				"plugin %q missing required argument %q", p.Name, p.Params[i].Name))
		}
	}

	result, callErr := p.Fn(args)
	if callErr != nil {
		return nil, errors.NewPluginError(p.Name, callErr)
	}
	return result, nil
}
