// Package handler defines the CRUD lifecycle contract deployment tasks
// drive against a resource, grounded on the original compiler's
// eikobot/core/handlers.py.
package handler

import (
	"context"

	"github.com/kazaamjt/eikobot/internal/value"
)

// Context keeps track of the state of one resource's deployment as its
// handler's CRUD methods run against it (spec §4.5, §5).
type Context struct {
	Resource *value.Instance

	Changes  map[string]any
	Deployed bool
	Updated  bool
	Failed   bool
}

// NewContext creates a fresh, undeployed Context for resource.
func NewContext(resource *value.Instance) *Context {
	return &Context{Resource: resource, Changes: make(map[string]any)}
}

// AddChange records a pending change a handler's Read discovered, to be
// applied by Update.
func (c *Context) AddChange(key string, v any) {
	c.Changes[key] = v
}

// Handler implements deployment for one resource kind. Registered by
// name and looked up by the exporter via a Registry (spec §4.5).
type Handler interface {
	Execute(ctx context.Context, hctx *Context) error
}

// CRUDHandler is the common case: Read populates Deployed/Changes,
// Create and Update are only called when needed, and any CRUD method
// left unimplemented is a no-op rather than a distinct error type -
// EikoCRUDHanlderMethodNotImplemented in the original was a transitional
// artifact, not a case Eikobot's taxonomy carries forward (see
// DESIGN.md).
type CRUDHandler interface {
	Read(ctx context.Context, hctx *Context) error
	Create(ctx context.Context, hctx *Context) error
	Update(ctx context.Context, hctx *Context) error
	Delete(ctx context.Context, hctx *Context) error
}

// CRUD adapts a CRUDHandler into a Handler, reproducing
// CRUDHandler.execute's read -> create-if-undeployed -> update-if-changed
// -> fail-if-still-undeployed sequence.
type CRUD struct {
	Impl CRUDHandler
}

func (c *CRUD) Execute(ctx context.Context, hctx *Context) error {
	hctx.Failed = false

	if err := c.Impl.Read(ctx, hctx); err != nil {
		return err
	}

	if !hctx.Deployed {
		if err := c.Impl.Create(ctx, hctx); err != nil {
			return err
		}
	} else if len(hctx.Changes) > 0 {
		if err := c.Impl.Update(ctx, hctx); err != nil {
			return err
		}
	}

	if !hctx.Deployed {
		hctx.Failed = true
	}
	return nil
}

// NoopCRUD provides default no-op implementations so concrete handlers
// can embed it and only override the methods they need, mirroring the
// original's raise-NotImplemented defaults without a distinct error
// type.
type NoopCRUD struct{}

func (NoopCRUD) Read(context.Context, *Context) error   { return nil }
func (NoopCRUD) Create(context.Context, *Context) error { return nil }
func (NoopCRUD) Update(context.Context, *Context) error { return nil }
func (NoopCRUD) Delete(context.Context, *Context) error { return nil }

// Factory constructs a fresh Handler instance for one deployment task.
type Factory func() Handler

// Registry maps a resource's declared handler name to its Factory,
// populated by the host program before export/deploy runs.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

func (r *Registry) Lookup(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}
