// Package eval implements the tree-walking evaluator that turns a parsed
// module into a graph of value.Value objects (spec §3, §4.4): expression
// evaluation with the operator-overload matrix, resource construction
// with write-once properties and promise slots, typedef refinement, and
// plugin dispatch into host Go code. It depends on ast for the tree
// being walked and keeps ResourceDef/ConstructorDef/PluginDef as
// "callable" values here rather than in package value, since they carry
// raw ast.Node bodies for lazy evaluation and value must not import ast.
package eval

import (
	"fmt"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/invariant"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
)

// Plugin is a host-language function reachable from the DSL via
// `def name(...) : T`, bound into the root scope before compilation
// starts (spec §4.7, §6 "plugin calling contract").
type Plugin struct {
	Name   string
	Params []ast.Param
	Return *types.Descriptor
	Fn     func(args []value.Value) (value.Value, error)
}

// Resources collects every resource.Instance constructed during a run,
// deduplicated by Index (spec §4.4: "construction of a resource whose
// index matches a previously constructed resource returns the prior
// instance").
type Resources struct {
	byIndex map[string]*value.Instance
	Order   []*value.Instance
}

func NewResources() *Resources {
	return &Resources{byIndex: make(map[string]*value.Instance)}
}

func (r *Resources) getOrStore(inst *value.Instance) *value.Instance {
	if existing, ok := r.byIndex[inst.Index]; ok {
		return existing
	}
	r.byIndex[inst.Index] = inst
	r.Order = append(r.Order, inst)
	return inst
}

// Evaluator walks a module's statements against a root scope, building
// values and collecting constructed resources as a side effect.
type Evaluator struct {
	Resources *Resources
	Resolver  *evalctx.Resolver
	FS        evalctx.FileSystem
	Loader    ModuleLoader
}

// New creates an Evaluator. resolver/fs/loader may be nil if the module
// under evaluation performs no imports (e.g. in unit tests).
func New(resolver *evalctx.Resolver, fs evalctx.FileSystem, loader ModuleLoader) *Evaluator {
	return &Evaluator{
		Resources: NewResources(),
		Resolver:  resolver,
		FS:        fs,
		Loader:    loader,
	}
}

// EvalModule runs every top-level statement of a module against scope in
// order (spec §4.4: "module bodies execute top to bottom").
func (e *Evaluator) EvalModule(scope *evalctx.Scope, mod *ast.Module) error {
	for _, stmt := range mod.Statements {
		if _, err := e.EvalStatement(scope, stmt); err != nil {
			return err
		}
	}
	return nil
}

// EvalStatement evaluates one statement node, returning its value when
// the statement form produces one (currently unused by callers but kept
// symmetrical with EvalExpr for recursive block execution).
func (e *Evaluator) EvalStatement(scope *evalctx.Scope, n ast.Node) (value.Value, error) {
	invariant.NotNil(n, "statement node")

	switch s := n.(type) {
	case *ast.Assignment:
		return nil, e.evalAssignment(scope, s)
	case *ast.IfStatement:
		return nil, e.evalIf(scope, s)
	case *ast.ForStatement:
		return nil, e.evalFor(scope, s)
	case *ast.Import:
		return nil, e.evalImport(scope, s)
	case *ast.FromImport:
		return nil, e.evalFromImport(scope, s)
	case *ast.ResourceDef:
		return nil, e.bindResourceDef(scope, s)
	case *ast.TypedefDef:
		return nil, e.bindTypedef(scope, s)
	case *ast.EnumDef:
		return nil, e.bindEnum(scope, s)
	case *ast.PluginDef:
		// Plugins are bound by the host before compilation; a bare
		// PluginDef body in source is a forward declaration only and
		// produces no evaluation-time effect here.
		return nil, nil
	default:
		return e.EvalExpr(scope, n)
	}
}

func (e *Evaluator) evalBlock(scope *evalctx.Scope, body []ast.Node) error {
	for _, stmt := range body {
		if _, err := e.EvalStatement(scope, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) evalAssignment(scope *evalctx.Scope, a *ast.Assignment) error {
	v, err := e.EvalExpr(scope, a.Value)
	if err != nil {
		return err
	}

	if a.TypeExpr != nil {
		declared, err := e.resolveTypeExpr(scope, a.TypeExpr)
		if err != nil {
			return err
		}
		v = coerceToType(v, declared)
		if !v.Type().AssignableTo(declared) {
			return errors.NewCompilationError(a.Token().Position, fmt.Sprintf(
				"cannot assign value of type %s to variable of type %s", v.Type(), declared))
		}
	}

	switch target := a.Target.(type) {
	case *ast.Identifier:
		return scope.Set(target.Name, v, target.Token().Position)
	case *ast.Attribute:
		obj, err := e.EvalExpr(scope, target.Object)
		if err != nil {
			return err
		}
		inst, ok := obj.(*value.Instance)
		if !ok {
			return errors.NewCompilationError(target.Token().Position, "cannot assign attribute on a non-resource value")
		}
		return inst.Set(target.Name, v, target.Token().Position)
	default:
		return errors.NewCompilationError(a.Token().Position, "invalid assignment target")
	}
}

func (e *Evaluator) evalIf(scope *evalctx.Scope, s *ast.IfStatement) error {
	for _, arm := range s.Arms {
		if arm.Condition == nil {
			return e.evalBlock(scope.Child("if"), arm.Body)
		}
		cond, err := e.EvalExpr(scope, arm.Condition)
		if err != nil {
			return err
		}
		b, ok := cond.(value.Bool)
		if !ok {
			return errors.NewCompilationError(arm.Condition.Token().Position, "if condition must be a bool")
		}
		if b.V {
			return e.evalBlock(scope.Child("if"), arm.Body)
		}
	}
	return nil
}

func (e *Evaluator) evalFor(scope *evalctx.Scope, s *ast.ForStatement) error {
	iterable, err := e.EvalExpr(scope, s.Iterable)
	if err != nil {
		return err
	}
	list, ok := iterable.(*value.List)
	if !ok {
		return errors.NewCompilationError(s.Token().Position, "for loop target must be a list")
	}
	for _, elem := range list.Elements {
		body := scope.Child("for")
		if err := body.Set(s.Target, elem, s.Token().Position); err != nil {
			return err
		}
		if err := e.evalBlock(body, s.Body); err != nil {
			return err
		}
	}
	return nil
}
