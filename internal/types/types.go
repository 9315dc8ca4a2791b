// Package types implements Eikobot's type descriptors and the
// assignability rules of spec §4.3: a type DAG rooted at EikoObject,
// with Optional[T] treated as a union of T and None, and structural
// compatibility for list/dict element types.
package types

import "fmt"

// Kind distinguishes the shape of a Descriptor.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindDict
	KindOptional
	KindResource
	KindPromise
	KindCallable
	KindNone
)

// Descriptor is a type descriptor: a name, an optional base-type link,
// and (for refined types) a link to the typedef that produced it.
type Descriptor struct {
	Name    string
	Kind    Kind
	Base    *Descriptor // nil for EikoObject itself
	Typedef string      // name of refining typedef, if any

	Elem *Descriptor // list element type / optional inner type
	Key  *Descriptor // dict key type
	Val  *Descriptor // dict value type
}

func (d *Descriptor) String() string {
	switch d.Kind {
	case KindList:
		return fmt.Sprintf("list[%s]", d.Elem)
	case KindDict:
		return fmt.Sprintf("dict[%s,%s]", d.Key, d.Val)
	case KindOptional:
		return fmt.Sprintf("Optional[%s]", d.Elem)
	default:
		return d.Name
	}
}

// Root scalar and sentinel descriptors.
var (
	Object = &Descriptor{Name: "EikoObject"}
	Int    = &Descriptor{Name: "int", Kind: KindScalar, Base: Object}
	Float  = &Descriptor{Name: "float", Kind: KindScalar, Base: Object}
	Bool   = &Descriptor{Name: "bool", Kind: KindScalar, Base: Object}
	Str    = &Descriptor{Name: "str", Kind: KindScalar, Base: Object}
	Path   = &Descriptor{Name: "Path", Kind: KindScalar, Base: Object}
	None_  = &Descriptor{Name: "None", Kind: KindNone, Base: Object}
	// ProtectedStr is str that renders as *** wherever interpolated.
	ProtectedStr = &Descriptor{Name: "ProtectedStr", Kind: KindScalar, Base: Str}
)

// NewList builds a list[T] descriptor.
func NewList(elem *Descriptor) *Descriptor {
	return &Descriptor{Name: "list", Kind: KindList, Base: Object, Elem: elem}
}

// NewDict builds a dict[K,V] descriptor.
func NewDict(key, val *Descriptor) *Descriptor {
	return &Descriptor{Name: "dict", Kind: KindDict, Base: Object, Key: key, Val: val}
}

// NewOptional builds an Optional[T] descriptor (= union of T and None).
func NewOptional(inner *Descriptor) *Descriptor {
	return &Descriptor{Name: "Optional", Kind: KindOptional, Base: Object, Elem: inner}
}

// NewResource builds a user resource type descriptor with the given base
// (nil if the resource has no declared parent).
func NewResource(name string, base *Descriptor) *Descriptor {
	b := base
	if b == nil {
		b = Object
	}
	return &Descriptor{Name: name, Kind: KindResource, Base: b}
}

// NewRefined builds a typedef-refined descriptor over base.
func NewRefined(name string, base *Descriptor) *Descriptor {
	return &Descriptor{Name: name, Kind: base.Kind, Base: base, Typedef: name}
}

// Equal reports structural/nominal equality.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == other {
		return true
	}
	if d == nil || other == nil {
		return false
	}
	if d.Kind != other.Kind {
		return false
	}
	switch d.Kind {
	case KindList, KindOptional:
		return d.Elem.Equal(other.Elem)
	case KindDict:
		return d.Key.Equal(other.Key) && d.Val.Equal(other.Val)
	default:
		return d.Name == other.Name
	}
}

// chainContains walks d's base chain looking for target.
func (d *Descriptor) chainContains(target *Descriptor) bool {
	for cur := d; cur != nil; cur = cur.Base {
		if cur.Equal(target) {
			return true
		}
	}
	return false
}

// AssignableTo reports whether a value of type d can be assigned where
// target is expected: d == target, or d's base chain passes through
// target, with Optional[T] treated as T union None, and structural
// checks for list/dict element types (spec §4.3).
func (d *Descriptor) AssignableTo(target *Descriptor) bool {
	if d == nil || target == nil {
		return false
	}

	if target.Kind == KindOptional {
		if d.Kind == KindNone {
			return true
		}
		return d.AssignableTo(target.Elem)
	}

	if d.Equal(target) {
		return true
	}

	if d.chainContains(target) {
		return true
	}

	switch target.Kind {
	case KindList:
		return d.Kind == KindList && d.Elem.AssignableTo(target.Elem)
	case KindDict:
		return d.Kind == KindDict && d.Key.AssignableTo(target.Key) && d.Val.AssignableTo(target.Val)
	}

	return false
}

// Registry holds the set of named types visible from a scope: built-ins
// plus user-defined resource types, typedefs and enums.
type Registry struct {
	byName map[string]*Descriptor
}

// NewRegistry seeds the root registry with the built-in scalar types
// (spec §4.3: "The root seeds int float bool str Path None ...").
func NewRegistry() *Registry {
	r := &Registry{byName: map[string]*Descriptor{
		"int":          Int,
		"float":        Float,
		"bool":         Bool,
		"str":          Str,
		"Path":         Path,
		"None":         None_,
		"ProtectedStr": ProtectedStr,
	}}
	return r
}

// Define registers a new named type. Returns false if the name already
// exists (types, like names, are single-assignment).
func (r *Registry) Define(name string, d *Descriptor) bool {
	if _, exists := r.byName[name]; exists {
		return false
	}
	r.byName[name] = d
	return true
}

// Lookup resolves a type name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns all registered type names, used for fuzzy "did you
// mean" suggestions by the evaluator.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	return names
}
