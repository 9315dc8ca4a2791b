package eval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kazaamjt/eikobot/internal/ast"
	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/evalctx"
	"github.com/kazaamjt/eikobot/internal/parser"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
)

var fstringExprPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// EvalExpr evaluates an expression node to a value.Value (spec §4.4).
func (e *Evaluator) EvalExpr(scope *evalctx.Scope, n ast.Node) (value.Value, error) {
	switch node := n.(type) {
	case *ast.IntLiteral:
		return value.Int{V: node.Value}, nil
	case *ast.FloatLiteral:
		return value.Float{V: node.Value}, nil
	case *ast.BoolLiteral:
		return value.Bool{V: node.Value}, nil
	case *ast.StringLiteral:
		return value.Str{V: node.Value, Protected: node.Protected}, nil
	case *ast.PathLiteral:
		return value.Path{V: node.Value}, nil
	case *ast.NoneLiteral:
		return value.None{}, nil
	case *ast.FStringLiteral:
		return e.evalFString(scope, node)
	case *ast.Identifier:
		return e.evalIdentifier(scope, node)
	case *ast.UnaryNeg:
		return e.evalUnaryNeg(scope, node)
	case *ast.UnaryNot:
		return e.evalUnaryNot(scope, node)
	case *ast.BinOp:
		return e.evalBinOp(scope, node)
	case *ast.ListLiteral:
		return e.evalListLiteral(scope, node)
	case *ast.DictLiteral:
		return e.evalDictLiteral(scope, node)
	case *ast.Attribute:
		return e.evalAttribute(scope, node)
	case *ast.Subscript:
		return e.evalSubscript(scope, node)
	case *ast.Call:
		return e.evalCall(scope, node)
	default:
		return nil, errors.NewInternalError(fmt.Sprintf("unhandled expression node %T", n), nil)
	}
}

func (e *Evaluator) evalIdentifier(scope *evalctx.Scope, node *ast.Identifier) (value.Value, error) {
	b, ok := scope.Get(node.Name)
	if !ok {
		return nil, scope.UnknownNameError(node.Name, node.Token().Position)
	}
	v, ok := b.(value.Value)
	if !ok {
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("%q is not a value", node.Name))
	}
	return v, nil
}

func (e *Evaluator) evalUnaryNeg(scope *evalctx.Scope, node *ast.UnaryNeg) (value.Value, error) {
	v, err := e.EvalExpr(scope, node.RHS)
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case value.Int:
		return value.Int{V: -n.V}, nil
	case value.Float:
		return value.Float{V: -n.V}, nil
	default:
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("cannot negate a value of type %s", v.Type()))
	}
}

func (e *Evaluator) evalUnaryNot(scope *evalctx.Scope, node *ast.UnaryNot) (value.Value, error) {
	v, err := e.EvalExpr(scope, node.RHS)
	if err != nil {
		return nil, err
	}
	b, ok := v.(value.Bool)
	if !ok {
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("cannot apply 'not' to a value of type %s", v.Type()))
	}
	return value.Bool{V: !b.V}, nil
}

func (e *Evaluator) evalBinOp(scope *evalctx.Scope, node *ast.BinOp) (value.Value, error) {
	switch node.Op {
	case "and", "or":
		return e.evalShortCircuit(scope, node)
	}

	lhs, err := e.EvalExpr(scope, node.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := e.EvalExpr(scope, node.RHS)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "==":
		eq, _ := value.Equal(lhs, rhs)
		return value.Bool{V: eq}, nil
	case "!=":
		eq, _ := value.Equal(lhs, rhs)
		return value.Bool{V: !eq}, nil
	case "<", "<=", ">", ">=":
		ok, err := value.Compare(node.Op, lhs, rhs, node.Token().Position)
		if err != nil {
			return nil, err
		}
		return value.Bool{V: ok}, nil
	default:
		return value.BinOp(node.Op, lhs, rhs, node.Token().Position)
	}
}

// evalShortCircuit implements and/or lazily: the RHS is only evaluated
// when the LHS doesn't already decide the result.
func (e *Evaluator) evalShortCircuit(scope *evalctx.Scope, node *ast.BinOp) (value.Value, error) {
	lhs, err := e.EvalExpr(scope, node.LHS)
	if err != nil {
		return nil, err
	}
	lb, ok := lhs.(value.Bool)
	if !ok {
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("'%s' requires bool operands, got %s", node.Op, lhs.Type()))
	}
	if node.Op == "and" && !lb.V {
		return value.Bool{V: false}, nil
	}
	if node.Op == "or" && lb.V {
		return value.Bool{V: true}, nil
	}

	rhs, err := e.EvalExpr(scope, node.RHS)
	if err != nil {
		return nil, err
	}
	rb, ok := rhs.(value.Bool)
	if !ok {
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("'%s' requires bool operands, got %s", node.Op, rhs.Type()))
	}
	return value.Bool{V: rb.V}, nil
}

func (e *Evaluator) evalListLiteral(scope *evalctx.Scope, node *ast.ListLiteral) (value.Value, error) {
	elems := make([]value.Value, 0, len(node.Elements))
	for _, elemNode := range node.Elements {
		v, err := e.EvalExpr(scope, elemNode)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	var elemType *types.Descriptor
	if len(elems) > 0 {
		elemType = elems[0].Type()
	}
	return &value.List{ElemType: elemType, Elements: elems}, nil
}

func (e *Evaluator) evalDictLiteral(scope *evalctx.Scope, node *ast.DictLiteral) (value.Value, error) {
	entries := make([]value.DictEntry, 0, len(node.Entries))
	for _, entryNode := range node.Entries {
		k, err := e.EvalExpr(scope, entryNode.Key)
		if err != nil {
			return nil, err
		}
		v, err := e.EvalExpr(scope, entryNode.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, value.DictEntry{Key: k, Val: v})
	}
	var keyType, valType *types.Descriptor
	if len(entries) > 0 {
		keyType = entries[0].Key.Type()
		valType = entries[0].Val.Type()
	}
	return &value.Dict{KeyType: keyType, ValType: valType, Entries: entries}, nil
}

func (e *Evaluator) evalAttribute(scope *evalctx.Scope, node *ast.Attribute) (value.Value, error) {
	raw, err := e.resolveAttributeChain(scope, node)
	if err != nil {
		return nil, err
	}
	v, ok := raw.(value.Value)
	if !ok {
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("%q is not a value", node.Name))
	}
	return v, nil
}

// resolveObject evaluates node to whatever scope binding it names - a
// value.Value for ordinary expressions, or a raw *EnumType/*evalctx.Scope
// (module) binding when node is an Identifier or Attribute chain ending
// in one of those, so a following ".member" can resolve against it
// without first forcing it into a value.Value.
func (e *Evaluator) resolveObject(scope *evalctx.Scope, node ast.Node) (interface{}, error) {
	switch n := node.(type) {
	case *ast.Identifier:
		b, ok := scope.Get(n.Name)
		if !ok {
			return nil, scope.UnknownNameError(n.Name, n.Token().Position)
		}
		return b, nil
	case *ast.Attribute:
		return e.resolveAttributeChain(scope, n)
	default:
		return e.EvalExpr(scope, n)
	}
}

// resolveAttributeChain resolves one ".name" hop against whatever
// resolveObject returns for node.Object: a resource instance's property
// (spec §4.2), an enum's member (spec §3 "accessed as EnumName.MEMBER"),
// or a name bound in an imported module's own scope (spec §4.4 dotted
// imports) - the last of which may itself be another module/enum
// binding, so chains like `a.b.c` resolve one hop at a time.
func (e *Evaluator) resolveAttributeChain(scope *evalctx.Scope, node *ast.Attribute) (interface{}, error) {
	obj, err := e.resolveObject(scope, node.Object)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *value.Instance:
		v, ok := o.Get(node.Name)
		if !ok {
			return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("resource %q has no property %q", o.TypeName, node.Name))
		}
		return v, nil
	case *EnumType:
		v, ok := o.Members[node.Name]
		if !ok {
			return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("enum %q has no member %q", o.Descriptor.Name, node.Name))
		}
		return v, nil
	case *evalctx.Scope:
		b, ok := o.Get(node.Name)
		if !ok {
			return nil, o.UnknownNameError(node.Name, node.Token().Position)
		}
		return b, nil
	case value.Value:
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("value of type %s has no attributes", o.Type()))
	default:
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("%q has no attributes", node.Name))
	}
}

func (e *Evaluator) evalSubscript(scope *evalctx.Scope, node *ast.Subscript) (value.Value, error) {
	obj, err := e.EvalExpr(scope, node.Object)
	if err != nil {
		return nil, err
	}
	idx, err := e.EvalExpr(scope, node.Index)
	if err != nil {
		return nil, err
	}

	switch container := obj.(type) {
	case *value.List:
		i, ok := idx.(value.Int)
		if !ok {
			return nil, errors.NewCompilationError(node.Token().Position, "list index must be an int")
		}
		if i.V < 0 || int(i.V) >= len(container.Elements) {
			return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("list index %d out of range", i.V))
		}
		return container.Elements[i.V], nil
	case *value.Dict:
		v, ok := container.Get(idx)
		if !ok {
			return nil, errors.NewCompilationError(node.Token().Position, "key not found in dict")
		}
		return v, nil
	default:
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("value of type %s is not subscriptable", obj.Type()))
	}
}

// evalFString re-parses {expr} interpolation groups at evaluation time,
// substituting each embedded expression's printed form - any Protected
// value renders "***" (spec §4.4, §9).
func (e *Evaluator) evalFString(scope *evalctx.Scope, node *ast.FStringLiteral) (value.Value, error) {
	var result strings.Builder
	last := 0
	protected := false

	for _, loc := range fstringExprPattern.FindAllStringSubmatchIndex(node.Raw, -1) {
		result.WriteString(node.Raw[last:loc[0]])
		exprSrc := strings.TrimSpace(node.Raw[loc[2]:loc[3]])

		v, err := e.evalFStringExpr(scope, exprSrc, node)
		if err != nil {
			return nil, err
		}
		if s, ok := v.(value.Str); ok && s.Protected {
			protected = true
		}
		result.WriteString(fmt.Sprint(v.Printable()))
		last = loc[1]
	}
	result.WriteString(node.Raw[last:])

	return value.Str{V: result.String(), Protected: protected}, nil
}

// evalFStringExpr re-parses the interior of an interpolation group as a
// full expression (spec §4.4: "re-parsing the interior as an
// expression"), not just a bare name or dotted path: it wraps exprSrc in
// a throwaway assignment, hands it to the real parser, then evaluates
// the resulting RHS node against the enclosing scope, so `f"{a + b}"`
// or `f"{items[0].name}"` work the same as any other expression.
func (e *Evaluator) evalFStringExpr(scope *evalctx.Scope, exprSrc string, node *ast.FStringLiteral) (value.Value, error) {
	mod, err := parser.Parse(node.Token().Position.File, "__fstring__ = "+exprSrc+"\n")
	if err != nil {
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("invalid expression in f-string interpolation: %s", exprSrc))
	}
	if len(mod.Statements) != 1 {
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("invalid expression in f-string interpolation: %s", exprSrc))
	}
	assign, ok := mod.Statements[0].(*ast.Assignment)
	if !ok {
		return nil, errors.NewCompilationError(node.Token().Position, fmt.Sprintf("invalid expression in f-string interpolation: %s", exprSrc))
	}
	return e.EvalExpr(scope, assign.Value)
}
