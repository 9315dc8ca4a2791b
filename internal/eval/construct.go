package eval

import (
	"fmt"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
)

func (e *Evaluator) evalCall(scope *evalctx.Scope, node *ast.Call) (value.Value, error) {
	callee, ok := node.Callee.(*ast.Identifier)
	if !ok {
		return nil, errors.NewCompilationError(node.Token().Position, "call target must be a name")
	}
	b, ok := scope.Get(callee.Name)
	if !ok {
		return nil, scope.UnknownNameError(callee.Name, node.Token().Position)
	}

	switch target := b.(type) {
	case *ResourceType:
		return e.construct(scope, target, nil, node)
	case *Constructor:
		return e.construct(scope, target.Owner, &target.Def, node)
	case *Plugin:
		return e.callPlugin(scope, target, node)
	case *TypedefType:
		return e.refine(scope, target, node)
	default:
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("%q is not callable", callee.Name))
	}
}

// construct builds a resource.Instance: it picks a constructor, binds
// arguments to parameters in a fresh child scope, runs the constructor
// body, declares promise slots, computes the index, and deduplicates
// against previously constructed resources with the same index
// (spec §4.4, §4.5).
func (e *Evaluator) construct(scope *evalctx.Scope, rt *ResourceType, ctor *ast.ConstructorDef, call *ast.Call) (value.Value, error) {
	if ctor == nil {
		ctor = e.defaultConstructor(rt)
	}
	if ctor == nil {
		return nil, errors.NewCompilationError(call.Token().Position, fmt.Sprintf("resource %q has no constructor", rt.Def.Name))
	}

	inst := value.NewInstance(rt.Def.Name, rt.Descriptor, rt.HandlerName)
	ctorScope := rt.DefScope.Child(rt.Def.Name + ".implement")
	ctorScope.SetLocal("self", inst)

	if err := e.bindArguments(scope, ctorScope, ctor.Params, call); err != nil {
		return nil, err
	}

	if err := e.evalBlock(ctorScope, ctor.Body); err != nil {
		return nil, err
	}

	if err := e.applyDefaults(rt, inst); err != nil {
		return nil, err
	}

	for _, p := range rt.Def.Promises {
		inst.DeclarePromise(p.Name)
	}

	indexColumns := indexOverride(rt.Def.Decorators)
	if len(indexColumns) == 0 && len(rt.Def.Properties) > 0 {
		indexColumns = []string{rt.Def.Properties[0].Name}
	}
	if err := inst.SetIndex(indexColumns); err != nil {
		return nil, err
	}

	return e.Resources.getOrStore(inst), nil
}

// defaultConstructor picks the resource's sole/first `implement` block
// when the call didn't name one explicitly.
func (e *Evaluator) defaultConstructor(rt *ResourceType) *ast.ConstructorDef {
	if len(rt.Def.Constructors) == 0 {
		return nil
	}
	return &rt.Def.Constructors[0]
}

func (e *Evaluator) bindArguments(callerScope, ctorScope *evalctx.Scope, params []ast.Param, call *ast.Call) error {
	positional := 0
	for _, arg := range call.Args {
		v, err := e.EvalExpr(callerScope, arg.Value)
		if err != nil {
			return err
		}

		var param *ast.Param
		name := arg.Name
		if name == "" {
			if positional >= len(params) {
				return errors.NewCompilationError(call.Token().Position, "too many positional arguments")
			}
			param = &params[positional]
			name = param.Name
			positional++
		} else {
			for i := range params {
				if params[i].Name == name {
					param = &params[i]
					break
				}
			}
		}

		if param != nil && param.TypeExpr != nil {
			declared, err := e.resolveTypeExpr(callerScope, param.TypeExpr)
			if err != nil {
				return err
			}
			v = coerceToType(v, declared)
			if !v.Type().AssignableTo(declared) {
				return errors.NewCompilationError(call.Token().Position, fmt.Sprintf(
					"argument %q must be assignable to %s, got %s", name, declared, v.Type()))
			}
		}

		if err := ctorScope.Set(name, v, call.Token().Position); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults evaluates `name: Type = default` property declarations
// whose property the constructor body didn't already set.
func (e *Evaluator) applyDefaults(rt *ResourceType, inst *value.Instance) error {
	for _, prop := range rt.Def.Properties {
		if _, ok := inst.Get(prop.Name); ok {
			continue
		}
		if prop.Default == nil {
			continue
		}
		v, err := e.EvalExpr(rt.DefScope, prop.Default)
		if err != nil {
			return err
		}
		if err := inst.Set(prop.Name, v, prop.Default.Token().Position); err != nil {
			return err
		}
	}
	return nil
}

func indexOverride(decorators []ast.Decorator) []string {
	for _, dec := range decorators {
		if dec.Name != "index" || len(dec.Args) != 1 {
			continue
		}
		list, ok := dec.Args[0].Value.(*ast.ListLiteral)
		if !ok {
			continue
		}
		var cols []string
		for _, elem := range list.Elements {
			if id, ok := elem.(*ast.Identifier); ok {
				cols = append(cols, id.Name)
			}
			if s, ok := elem.(*ast.StringLiteral); ok {
				cols = append(cols, s.Value)
			}
		}
		return cols
	}
	return nil
}

// refine applies a typedef's refinement condition: the candidate value
// is bound as `self` in a child of the typedef's closure scope, the
// condition is evaluated, and a CompilationError is raised on failure
// (spec §4.3 "refined types").
func (e *Evaluator) refine(scope *evalctx.Scope, td *TypedefType, call *ast.Call) (value.Value, error) {
	if len(call.Args) != 1 {
		return nil, errors.NewCompilationError(call.Token().Position, fmt.Sprintf("typedef %q takes exactly one argument", td.Def.Name))
	}
	candidate, err := e.EvalExpr(scope, call.Args[0].Value)
	if err != nil {
		return nil, err
	}
	// A chained typedef's declared base may itself be a typedef
	// (`typedef HttpPort Port : ...`); flatten to the ultimate scalar
	// base so a raw value can construct HttpPort directly, the same as
	// an already-Refined Port value can (its own chain already passes
	// through that scalar).
	if !candidate.Type().AssignableTo(ultimateBase(td.Descriptor.Base)) {
		return nil, errors.NewCompilationError(call.Token().Position, fmt.Sprintf(
			"value of type %s is not assignable to %s's base type %s", candidate.Type(), td.Def.Name, td.Descriptor.Base))
	}

	if err := e.runTypedefCondition(td, candidate, call); err != nil {
		return nil, err
	}

	return &value.Refined{Descriptor: td.Descriptor, Inner: candidate}, nil
}

// ultimateBase walks down a chain of typedef descriptors to the scalar
// or resource type it ultimately refines, so assignability checks for a
// chained typedef aren't limited to its immediate (also-typedef) base.
func ultimateBase(d *types.Descriptor) *types.Descriptor {
	for d != nil && d.Typedef != "" {
		d = d.Base
	}
	return d
}

// runTypedefCondition evaluates td's own refinement condition against
// candidate, first recursing into the base type's condition when the
// base is itself a typedef - refinements compose with the innermost
// typedef's condition running first (spec §4.3), so `typedef B A : c2`
// chained over `typedef A int : c1` enforces both c1 and c2 on a B.
func (e *Evaluator) runTypedefCondition(td *TypedefType, candidate value.Value, call *ast.Call) error {
	if base := td.Descriptor.Base; base != nil && base.Typedef != "" {
		if b, ok := td.DefScope.Get(base.Typedef); ok {
			if baseTD, ok := b.(*TypedefType); ok {
				if err := e.runTypedefCondition(baseTD, candidate, call); err != nil {
					return err
				}
			}
		}
	}

	if td.Def.Condition == nil {
		return nil
	}
	condScope := td.DefScope.Child(td.Def.Name + ".condition")
	condScope.SetLocal("self", candidate)
	result, err := e.EvalExpr(condScope, td.Def.Condition)
	if err != nil {
		return err
	}
	b, ok := result.(value.Bool)
	if !ok {
		return errors.NewCompilationError(call.Token().Position, fmt.Sprintf("typedef %q condition must evaluate to a bool", td.Def.Name))
	}
	if !b.V {
		return errors.NewCompilationError(call.Token().Position, fmt.Sprintf("value failed typedef %q's refinement condition", td.Def.Name))
	}
	return nil
}
