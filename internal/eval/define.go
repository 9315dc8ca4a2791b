package eval

import (
	"fmt"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
)

// ResourceType is the scope binding produced by a `resource` statement:
// the type descriptor plus its constructors and declared promises,
// closed over the scope it was defined in (spec §4.2, §4.4).
type ResourceType struct {
	Def         *ast.ResourceDef
	Descriptor  *types.Descriptor
	HandlerName string
	DefScope    *evalctx.Scope
}

// Constructor is one `implement ...` block of a resource, bound as a
// callable alongside its owning ResourceType.
type Constructor struct {
	Owner *ResourceType
	Def   ast.ConstructorDef
}

// TypedefType is the scope binding produced by a `typedef` statement.
type TypedefType struct {
	Def        *ast.TypedefDef
	Descriptor *types.Descriptor
	DefScope   *evalctx.Scope
}

// EnumType is the scope binding produced by an `enum` statement: the
// descriptor plus the set of member values, each bound as a Str in the
// enum's own mini-scope (accessed as EnumName.MEMBER).
type EnumType struct {
	Descriptor *types.Descriptor
	Members    map[string]value.Value
}

func (e *Evaluator) bindResourceDef(scope *evalctx.Scope, def *ast.ResourceDef) error {
	var base *types.Descriptor
	if def.Base != "" {
		b, ok := scope.Get(def.Base)
		if !ok {
			return scope.UnknownNameError(def.Base, def.Token().Position)
		}
		baseType, ok := b.(*ResourceType)
		if !ok {
			return errors.NewCompilationError(def.Token().Position, fmt.Sprintf("%q is not a resource type", def.Base))
		}
		base = baseType.Descriptor
	}

	descriptor := types.NewResource(def.Name, base)
	if !scope.Types.Define(def.Name, descriptor) {
		return errors.NewCompilationError(def.Token().Position, fmt.Sprintf("type %q is already defined", def.Name))
	}

	handlerName := ""
	for _, dec := range def.Decorators {
		if dec.Name == "handler" && len(dec.Args) == 1 {
			if s, ok := dec.Args[0].Value.(*ast.StringLiteral); ok {
				handlerName = s.Value
			}
		}
	}

	rt := &ResourceType{Def: def, Descriptor: descriptor, HandlerName: handlerName, DefScope: scope}
	if err := scope.Set(def.Name, rt, def.Token().Position); err != nil {
		return err
	}

	for _, ctor := range def.Constructors {
		name := def.Name
		if ctor.Name != "" {
			name = ctor.Name
		}
		cons := &Constructor{Owner: rt, Def: ctor}
		// Multiple `implement` blocks for the same resource are bound
		// under distinct names when the source gives them one; the
		// unnamed/default block shares the resource's own name.
		if name != def.Name {
			if err := scope.Set(name, cons, def.Token().Position); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Evaluator) bindTypedef(scope *evalctx.Scope, def *ast.TypedefDef) error {
	// The base type is usually a built-in scalar (int, str, ...), which
	// only lives in the Types registry, never as a scope binding - only
	// a user resource/typedef name is ever both. Try the registry first
	// and fall back to a scope lookup for those.
	var base *types.Descriptor
	if d, ok := scope.Types.Lookup(def.BaseType); ok {
		base = d
	} else if b, ok := scope.Get(def.BaseType); ok {
		switch bt := b.(type) {
		case *ResourceType:
			base = bt.Descriptor
		case *TypedefType:
			base = bt.Descriptor
		default:
			return errors.NewCompilationError(def.Token().Position, fmt.Sprintf("%q is not a type", def.BaseType))
		}
	} else {
		return scope.UnknownNameError(def.BaseType, def.Token().Position)
	}

	descriptor := types.NewRefined(def.Name, base)
	if !scope.Types.Define(def.Name, descriptor) {
		return errors.NewCompilationError(def.Token().Position, fmt.Sprintf("type %q is already defined", def.Name))
	}

	td := &TypedefType{Def: def, Descriptor: descriptor, DefScope: scope}
	return scope.Set(def.Name, td, def.Token().Position)
}

func (e *Evaluator) bindEnum(scope *evalctx.Scope, def *ast.EnumDef) error {
	descriptor := &types.Descriptor{Name: def.Name, Kind: types.KindScalar, Base: types.Str}
	if !scope.Types.Define(def.Name, descriptor) {
		return errors.NewCompilationError(def.Token().Position, fmt.Sprintf("type %q is already defined", def.Name))
	}

	members := make(map[string]value.Value, len(def.Members))
	for _, m := range def.Members {
		members[m] = value.Str{V: m}
	}

	et := &EnumType{Descriptor: descriptor, Members: members}
	return scope.Set(def.Name, et, def.Token().Position)
}

// resolveTypeExpr evaluates a type-annotation expression (an Identifier
// or Subscript over list/dict/Optional) to a *types.Descriptor.
func (e *Evaluator) resolveTypeExpr(scope *evalctx.Scope, n ast.Node) (*types.Descriptor, error) {
	switch node := n.(type) {
	case *ast.Identifier:
		if d, ok := scope.Types.Lookup(node.Name); ok {
			return d, nil
		}
		if b, ok := scope.Get(node.Name); ok {
			switch bt := b.(type) {
			case *ResourceType:
				return bt.Descriptor, nil
			case *TypedefType:
				return bt.Descriptor, nil
			case *EnumType:
				return bt.Descriptor, nil
			}
		}
		return nil, scope.UnknownNameError(node.Name, node.Token().Position)
	case *ast.Subscript:
		outer, ok := node.Object.(*ast.Identifier)
		if !ok {
			return nil, errors.NewCompilationError(node.Token().Position, "invalid type expression")
		}

		if outer.Name == "dict" {
			pair, ok := node.Index.(*ast.ListLiteral)
			if !ok || len(pair.Elements) != 2 {
				return nil, errors.NewCompilationError(node.Token().Position, "dict type expression requires two type arguments")
			}
			key, err := e.resolveTypeExpr(scope, pair.Elements[0])
			if err != nil {
				return nil, err
			}
			val, err := e.resolveTypeExpr(scope, pair.Elements[1])
			if err != nil {
				return nil, err
			}
			return types.NewDict(key, val), nil
		}

		inner, err := e.resolveTypeExpr(scope, node.Index)
		if err != nil {
			return nil, err
		}
		switch outer.Name {
		case "list":
			return types.NewList(inner), nil
		case "Optional":
			return types.NewOptional(inner), nil
		default:
			return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("%q is not a generic type", outer.Name))
		}
	default:
		return nil, errors.NewCompilationError(n.Token().Position, "invalid type expression")
	}
}
