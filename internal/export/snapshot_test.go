package export_test

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/kazaamjt/eikobot/internal/export"
	"github.com/kazaamjt/eikobot/internal/token"
	"github.com/kazaamjt/eikobot/internal/types"
	"github.com/kazaamjt/eikobot/internal/value"
	"github.com/stretchr/testify/require"
)

// TestSnapshotCBORRoundTrip mirrors planfmt's roundtrip_test.go: encode a
// task graph, decode it back, and cmp.Diff the two TaskSnapshot slices
// structurally rather than comparing encoded bytes, since map/slice
// iteration order inside cbor itself isn't the thing under test here -
// Snapshot's own deterministic ID ordering is.
func TestSnapshotCBORRoundTrip(t *testing.T) {
	leaf := newInstance(t, "Leaf", "leaf", "name", "leaf1")

	top := value.NewInstance("Top", types.NewResource("Top", nil), "top")
	require.NoError(t, top.Set("ref", leaf, token.Position{}))
	require.NoError(t, top.SetIndex([]string{"ref"}))

	ex := export.New(newRegistry("leaf", "top"))
	tasks, err := ex.Export([]*value.Instance{leaf, top})
	require.NoError(t, err)

	want := export.Snapshot(tasks)

	encoded, err := export.EncodeCBOR(tasks)
	require.NoError(t, err)

	var got []export.TaskSnapshot
	require.NoError(t, cbor.Unmarshal(encoded, &got))

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}
}
