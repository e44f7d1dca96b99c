package checkpoint

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomlab/weft/internal/world"
)

type health struct {
	HP int `json:"hp"`
}

type label struct {
	Text string `json:"text"`
}

func testRegistry(t *testing.T) *world.Registry {
	t.Helper()
	r := world.NewRegistry()
	require.NoError(t, r.Register("Health", health{}))
	require.NoError(t, r.Register("Label", label{}))
	return r
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	codec := NewCodec(testRegistry(t))

	w := world.New()
	e1 := w.CreateEntity()
	world.Attach(w, e1, &health{HP: 10})
	world.Attach(w, e1, &label{Text: "hero"})
	e2 := w.CreateEntity()
	world.Attach(w, e2, &health{HP: 3})

	snap, err := codec.Snapshot(w)
	require.NoError(t, err)
	require.Len(t, snap.Entities, 2)
	assert.Equal(t, int64(2), snap.LastEntityID)

	restored, err := codec.Restore(snap)
	require.NoError(t, err)

	h := world.Get[health](restored, e1)
	require.NotNil(t, h)
	assert.Equal(t, 10, h.HP)
	assert.Equal(t, "hero", world.Get[label](restored, e1).Text)
	assert.Equal(t, 3, world.Get[health](restored, e2).HP)

	// Allocation resumes past persisted ids.
	assert.Equal(t, world.EntityID(3), restored.CreateEntity())
}

func TestSnapshotStripsTerminal(t *testing.T) {
	codec := NewCodec(testRegistry(t))

	w := world.New()
	e := w.CreateEntity()
	world.Attach(w, e, &health{HP: 1})
	world.Attach(w, e, &world.Terminal{Reason: "done"})

	// Budget-style terminal on an otherwise empty entity.
	world.Attach(w, w.CreateEntity(), &world.Terminal{Reason: "done"})

	snap, err := codec.Snapshot(w)
	require.NoError(t, err)

	require.Len(t, snap.Entities, 1, "terminal-only entity is dropped")
	assert.NotContains(t, snap.Entities[0].Components, "Terminal")
	assert.Equal(t, int64(2), snap.LastEntityID, "the dropped entity still pins the allocator")

	restored, err := codec.Restore(snap)
	require.NoError(t, err)
	assert.Empty(t, world.Query1[world.Terminal](restored))
}

func TestSnapshotUnregisteredTypeFails(t *testing.T) {
	codec := NewCodec(world.NewRegistry())

	w := world.New()
	world.Attach(w, w.CreateEntity(), &health{HP: 1})

	_, err := codec.Snapshot(w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestSnapshotEntitiesAscending(t *testing.T) {
	codec := NewCodec(testRegistry(t))

	w := world.New()
	for i := 0; i < 20; i++ {
		world.Attach(w, w.CreateEntity(), &health{HP: i})
	}

	snap, err := codec.Snapshot(w)
	require.NoError(t, err)
	require.Len(t, snap.Entities, 20)
	for i := 1; i < len(snap.Entities); i++ {
		assert.Less(t, snap.Entities[i-1].ID, snap.Entities[i].ID)
	}
}

func TestRestoreSkipsUnknownComponent(t *testing.T) {
	codec := NewCodec(testRegistry(t))

	snap := &WorldSnapshot{
		LastEntityID: 1,
		Entities: []EntitySnapshot{{
			ID: 1,
			Components: map[string]json.RawMessage{
				"Health":    json.RawMessage(`{"hp":5}`),
				"Forgotten": json.RawMessage(`{"x":1}`),
			},
		}},
	}

	restored, err := codec.Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, 5, world.Get[health](restored, 1).HP)
}

func TestRestoreBadPayload(t *testing.T) {
	codec := NewCodec(testRegistry(t))

	snap := &WorldSnapshot{
		LastEntityID: 1,
		Entities: []EntitySnapshot{{
			ID:         1,
			Components: map[string]json.RawMessage{"Health": json.RawMessage(`"nope"`)},
		}},
	}

	_, err := codec.Restore(snap)
	require.Error(t, err)
}

func TestEncodeDeterministic(t *testing.T) {
	codec := NewCodec(testRegistry(t))

	w := world.New()
	e := w.CreateEntity()
	world.Attach(w, e, &health{HP: 10})
	world.Attach(w, e, &label{Text: "hero"})

	snap, err := codec.Snapshot(w)
	require.NoError(t, err)
	cp := &Checkpoint{Token: "t1", Tick: 4, World: snap}

	first, err := codec.Encode(cp)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := codec.Encode(cp)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}

	decoded, err := codec.Decode(first)
	require.NoError(t, err)
	assert.Equal(t, "t1", decoded.Token)
	assert.Equal(t, 4, decoded.Tick)
}

func TestDecodeMissingWorld(t *testing.T) {
	codec := NewCodec(testRegistry(t))
	_, err := codec.Decode([]byte(`{"run_token":"t1","tick":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing world")
}

func TestSaveLoadFile(t *testing.T) {
	codec := NewCodec(testRegistry(t))

	w := world.New()
	world.Attach(w, w.CreateEntity(), &health{HP: 7})
	snap, err := codec.Snapshot(w)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cp.json")
	cp := &Checkpoint{Token: "t1", Tick: 2, World: snap}
	require.NoError(t, codec.SaveFile(path, cp))

	loaded, err := codec.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cp.Token, loaded.Token)
	assert.Equal(t, cp.Tick, loaded.Tick)

	restored, err := codec.Restore(loaded.World)
	require.NoError(t, err)
	assert.Equal(t, 7, world.Get[health](restored, 1).HP)
}
