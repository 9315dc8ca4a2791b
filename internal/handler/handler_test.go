package handler_test

import (
	"context"
	"testing"

	"github.com/kazaamjt/eikobot/internal/handler"
	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstance(t *testing.T) *value.Instance {
	t.Helper()
	inst := value.NewInstance("Host", types.NewResource("Host", nil), "host")
	require.NoError(t, inst.Set("name", value.Str{V: "web1"}, token.Position{}))
	require.NoError(t, inst.SetIndex(nil))
	return inst
}

// fakeCRUD lets each test script the Read/Create/Update/Delete outcome
// and records which methods were invoked and in what order.
type fakeCRUD struct {
	handler.NoopCRUD

	deployedOnRead bool
	changesOnRead  map[string]any
	readErr        error
	createErr      error
	updateErr      error

	calls []string
}

func (f *fakeCRUD) Read(_ context.Context, hctx *handler.Context) error {
	f.calls = append(f.calls, "read")
	hctx.Deployed = f.deployedOnRead
	for k, v := range f.changesOnRead {
		hctx.AddChange(k, v)
	}
	return f.readErr
}

func (f *fakeCRUD) Create(_ context.Context, hctx *handler.Context) error {
	f.calls = append(f.calls, "create")
	hctx.Deployed = f.createErr == nil
	return f.createErr
}

func (f *fakeCRUD) Update(_ context.Context, hctx *handler.Context) error {
	f.calls = append(f.calls, "update")
	return f.updateErr
}

func TestCRUDCreatesWhenUndeployed(t *testing.T) {
	fake := &fakeCRUD{deployedOnRead: false}
	crud := &handler.CRUD{Impl: fake}
	hctx := handler.NewContext(newTestInstance(t))

	err := crud.Execute(context.Background(), hctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "create"}, fake.calls)
	assert.False(t, hctx.Failed)
}

func TestCRUDUpdatesWhenDeployedWithChanges(t *testing.T) {
	fake := &fakeCRUD{deployedOnRead: true, changesOnRead: map[string]any{"name": "web2"}}
	crud := &handler.CRUD{Impl: fake}
	hctx := handler.NewContext(newTestInstance(t))

	err := crud.Execute(context.Background(), hctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "update"}, fake.calls)
	assert.False(t, hctx.Failed)
}

func TestCRUDSkipsUpdateWhenDeployedWithoutChanges(t *testing.T) {
	fake := &fakeCRUD{deployedOnRead: true}
	crud := &handler.CRUD{Impl: fake}
	hctx := handler.NewContext(newTestInstance(t))

	err := crud.Execute(context.Background(), hctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, fake.calls)
	assert.False(t, hctx.Failed)
}

func TestCRUDFailsWhenStillUndeployedAfterCreate(t *testing.T) {
	fake := &fakeCRUD{deployedOnRead: false, createErr: assert.AnError}
	crud := &handler.CRUD{Impl: fake}
	hctx := handler.NewContext(newTestInstance(t))

	err := crud.Execute(context.Background(), hctx)
	require.Error(t, err)
	assert.False(t, hctx.Failed, "Execute returns early on a Create error, before the fail-if-still-undeployed check")
}

func TestCRUDMarksFailedWhenCreateLeavesUndeployed(t *testing.T) {
	// A Create that returns no error but doesn't flip Deployed is the
	// "still undeployed" case Execute checks for explicitly.
	fake := &fakeCRUD{deployedOnRead: false}
	crud := &handler.CRUD{Impl: &stubCRUDNoDeploy{fakeCRUD: fake}}
	hctx := handler.NewContext(newTestInstance(t))

	err := crud.Execute(context.Background(), hctx)
	require.NoError(t, err)
	assert.True(t, hctx.Failed)
}

// stubCRUDNoDeploy wraps fakeCRUD but its Create never marks Deployed,
// simulating a handler whose resource genuinely failed to converge.
type stubCRUDNoDeploy struct {
	*fakeCRUD
}

func (s *stubCRUDNoDeploy) Create(_ context.Context, hctx *handler.Context) error {
	s.calls = append(s.calls, "create")
	return nil
}

func TestNoopCRUDIsAllNoOps(t *testing.T) {
	var n handler.NoopCRUD
	hctx := handler.NewContext(newTestInstance(t))
	ctx := context.Background()
	assert.NoError(t, n.Read(ctx, hctx))
	assert.NoError(t, n.Create(ctx, hctx))
	assert.NoError(t, n.Update(ctx, hctx))
	assert.NoError(t, n.Delete(ctx, hctx))
	assert.False(t, hctx.Deployed)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := handler.NewRegistry()
	_, ok := reg.Lookup("host")
	assert.False(t, ok)

	reg.Register("host", func() handler.Handler {
		return &handler.CRUD{Impl: &fakeCRUD{deployedOnRead: true}}
	})

	factory, ok := reg.Lookup("host")
	require.True(t, ok)
	h := factory()
	require.NoError(t, h.Execute(context.Background(), handler.NewContext(newTestInstance(t))))
}
