package value

import (
	"fmt"
	"strings"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/kazaamjt/eikobot/internal/types"
)

// Instance is an evaluated resource: a typed, ordered mapping of
// property name to value, plus its promise slots and stable index
// (spec §3). Properties are write-once after construction.
type Instance struct {
	TypeName   string
	descriptor *types.Descriptor
	order      []string
	properties map[string]Value
	promises   map[string]*Promise
	Index      string

	// HandlerName names the registered handler kind for this resource
	// type, or "" if the resource is pure data with no handler
	// (spec §4.5's "data-only resources").
	HandlerName string
}

// NewInstance creates an empty, unindexed resource instance of the
// given type. Call SetIndex once all index-column properties are set.
func NewInstance(typeName string, descriptor *types.Descriptor, handlerName string) *Instance {
	return &Instance{
		TypeName:    typeName,
		descriptor:  descriptor,
		properties:  make(map[string]Value),
		promises:    make(map[string]*Promise),
		HandlerName: handlerName,
	}
}

func (r *Instance) Type() *types.Descriptor { return r.descriptor }

func (r *Instance) Printable() interface{} {
	out := make(map[string]interface{}, len(r.order))
	for _, name := range r.order {
		out[fmt.Sprintf("%s [%s]", name, r.properties[name].Type())] = r.properties[name].Printable()
	}
	return out
}

// Set assigns a property exactly once; a second assignment is a
// CompilationError (spec §3: "Properties are write-once after
// construction").
func (r *Instance) Set(name string, v Value, pos token.Position) error {
	if _, exists := r.properties[name]; exists {
		return errors.NewCompilationError(pos, fmt.Sprintf(
			"attempted to reassign property %q of resource %q - properties are write-once", name, r.TypeName))
	}
	r.properties[name] = v
	r.order = append(r.order, name)
	return nil
}

// Get returns a property value, or (nil, false) if unset.
func (r *Instance) Get(name string) (Value, bool) {
	v, ok := r.properties[name]
	return v, ok
}

// Properties returns property values in declaration order.
func (r *Instance) Properties() []string {
	return r.order
}

// DeclarePromise registers an unfulfilled promise slot. Called once per
// declared promise after the constructor body finishes (spec §4.4).
func (r *Instance) DeclarePromise(name string) {
	r.promises[name] = &Promise{Name: name}
}

// Promise returns the named promise slot, or nil if the resource type
// declares no such promise.
func (r *Instance) Promise(name string) *Promise {
	return r.promises[name]
}

// Promises returns all declared promise names.
func (r *Instance) Promises() map[string]*Promise {
	return r.promises
}

// SetIndex computes and stores the stable index: the resource type name
// plus the values of its declared index columns (spec §3, §4.4).
// With no columns it falls back to the first property set on the
// instance; the evaluator passes the resource's first declared property
// unless an explicit @index([...]) decorator column list overrides it.
func (r *Instance) SetIndex(columns []string) error {
	if len(columns) == 0 {
		if len(r.order) == 0 {
			return errors.NewCompilationError(token.Position{}, fmt.Sprintf(
				"resource %q has no properties to derive an index from", r.TypeName))
		}
		columns = []string{r.order[0]}
	}

	var parts []string
	parts = append(parts, r.TypeName)
	for _, col := range columns {
		v, ok := r.properties[col]
		if !ok {
			return errors.NewCompilationError(token.Position{}, fmt.Sprintf(
				"index column %q not set on resource %q", col, r.TypeName))
		}
		parts = append(parts, fmt.Sprint(v.Printable()))
	}
	r.Index = strings.Join(parts, "|")
	return nil
}
