package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/loomlab/weft/internal/world"
)

// EntitySnapshot is one entity's persisted component set, keyed by
// registered component name.
type EntitySnapshot struct {
	ID         int64                      `json:"id"`
	Components map[string]json.RawMessage `json:"components"`
}

// WorldSnapshot is the serializable form of a world's state pool. Entities
// are stored in ascending id order.
type WorldSnapshot struct {
	LastEntityID int64            `json:"last_entity_id"`
	Entities     []EntitySnapshot `json:"entities"`
}

// Checkpoint couples a world snapshot with the run metadata needed to
// resume: the run token and the tick counter to continue from.
type Checkpoint struct {
	Token string         `json:"run_token"`
	Tick  int            `json:"tick"`
	World *WorldSnapshot `json:"world"`
}

// Codec encodes worlds through an explicit component registry. The registry
// is fixed at construction; there is no global lookup.
type Codec struct {
	registry *world.Registry
}

// NewCodec creates a codec over registry.
func NewCodec(registry *world.Registry) *Codec {
	return &Codec{registry: registry}
}

// Snapshot captures w's current state. Terminal markers are stripped so the
// restored world resumes instead of stopping on its first tick; every other
// component type must be registered, or Snapshot fails rather than silently
// dropping state.
func (c *Codec) Snapshot(w *world.World) (*WorldSnapshot, error) {
	terminalType := world.TypeOf[world.Terminal]()

	snap := &WorldSnapshot{LastEntityID: w.LastEntityID()}
	for _, e := range w.EntityIDs() {
		components := w.Components(e)
		encoded := make(map[string]json.RawMessage, len(components))
		for t, component := range components {
			if t == terminalType {
				continue
			}
			name, ok := c.registry.NameFor(t)
			if !ok {
				return nil, fmt.Errorf("snapshot entity %d: component type %s not registered", e, t)
			}
			raw, err := json.Marshal(component)
			if err != nil {
				return nil, fmt.Errorf("snapshot entity %d: encode %s: %w", e, name, err)
			}
			encoded[name] = raw
		}
		if len(encoded) == 0 {
			// Entity only carried a Terminal; nothing to persist.
			continue
		}
		snap.Entities = append(snap.Entities, EntitySnapshot{ID: int64(e), Components: encoded})
	}
	return snap, nil
}

// Restore builds a fresh world from snap. Component names the registry does
// not know are skipped with a warning, preserving forward compatibility
// with checkpoints written by newer component sets. The id allocator
// resumes past every persisted id.
func (c *Codec) Restore(snap *WorldSnapshot, opts ...world.Option) (*world.World, error) {
	lastID := snap.LastEntityID
	for _, e := range snap.Entities {
		if e.ID > lastID {
			lastID = e.ID
		}
	}

	w := world.NewAt(lastID, opts...)
	for _, e := range snap.Entities {
		for name, raw := range e.Components {
			t, ok := c.registry.TypeFor(name)
			if !ok {
				slog.Warn("restore: skipping unknown component", "entity", e.ID, "component", name)
				continue
			}
			ptr := reflect.New(t)
			if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
				return nil, fmt.Errorf("restore entity %d: decode %s: %w", e.ID, name, err)
			}
			w.Attach(world.EntityID(e.ID), ptr.Interface())
		}
	}
	return w, nil
}

// Encode renders a checkpoint as canonical JSON.
func (c *Codec) Encode(cp *Checkpoint) ([]byte, error) {
	return MarshalCanonical(cp)
}

// Decode parses checkpoint bytes (canonical or not).
func (c *Codec) Decode(data []byte) (*Checkpoint, error) {
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if cp.World == nil {
		return nil, fmt.Errorf("decode checkpoint: missing world snapshot")
	}
	return &cp, nil
}

// SaveFile writes a checkpoint to path as canonical JSON.
func (c *Codec) SaveFile(path string, cp *Checkpoint) error {
	data, err := c.Encode(cp)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LoadFile reads a checkpoint from path.
func (c *Codec) LoadFile(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return c.Decode(data)
}
