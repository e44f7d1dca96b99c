package world

import (
	"reflect"

	"github.com/loomlab/weft/internal/bus"
)

// World is one runtime instance's state pool. It exclusively owns the id
// allocator, the component store, and the event bus for its lifetime;
// schedulers and query engines hold references into it, never copies.
type World struct {
	alloc idAllocator
	store *ComponentStore
	query *Query
	bus   *bus.Bus
}

// Option configures a World at construction time.
type Option func(*World)

// WithBus makes the world use an externally constructed event bus, e.g. one
// with a custom failure sink.
func WithBus(b *bus.Bus) Option {
	return func(w *World) {
		if b != nil {
			w.bus = b
		}
	}
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{store: newComponentStore()}
	w.query = NewQuery(w.store)
	for _, opt := range opts {
		opt(w)
	}
	if w.bus == nil {
		w.bus = bus.New()
	}
	return w
}

// NewAt creates an empty world whose id allocator resumes after lastID.
// Used by checkpoint restore so that ids issued after a resume never
// collide with persisted ones.
func NewAt(lastID int64, opts ...Option) *World {
	w := New(opts...)
	if lastID > 0 {
		w.alloc.last.Store(lastID)
	}
	return w
}

// CreateEntity allocates a fresh entity id. The entity has no components
// until something is attached.
func (w *World) CreateEntity() EntityID {
	return w.alloc.next()
}

// Attach stores component on entity e, replacing any existing component of
// the same concrete type.
func (w *World) Attach(e EntityID, component any) {
	w.store.Attach(e, component)
}

// Get returns the component of type t on entity e.
func (w *World) Get(e EntityID, t reflect.Type) (any, bool) {
	return w.store.Get(e, t)
}

// Detach removes the component of type t from entity e, if present.
func (w *World) Detach(e EntityID, t reflect.Type) {
	w.store.Detach(e, t)
}

// Has reports whether entity e carries a component of type t.
func (w *World) Has(e EntityID, t reflect.Type) bool {
	return w.store.Has(e, t)
}

// DeleteEntity removes every component attached to e as one observable
// step. The id is retired: it is never issued again by this world.
func (w *World) DeleteEntity(e EntityID) {
	w.store.DeleteEntity(e)
}

// Query returns the entities carrying all of the requested component types,
// ascending by entity id. See Query.Get.
func (w *World) Query(types ...reflect.Type) []Match {
	return w.query.Get(types...)
}

// Bus returns the world's event bus.
func (w *World) Bus() *bus.Bus {
	return w.bus
}

// Store returns the world's component store.
func (w *World) Store() *ComponentStore {
	return w.store
}

// LastEntityID returns the highest entity id issued so far. Persisted by
// checkpoints so restored worlds resume allocation past it.
func (w *World) LastEntityID() int64 {
	return w.alloc.current()
}

// EntityIDs returns every entity that currently carries at least one
// component, in ascending order.
func (w *World) EntityIDs() []EntityID {
	return w.store.entityIDs()
}

// Components returns a snapshot of all components attached to e, keyed by
// component type.
func (w *World) Components(e EntityID) map[reflect.Type]any {
	return w.store.componentsOf(e)
}
