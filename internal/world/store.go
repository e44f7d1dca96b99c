package world

import (
	"reflect"
	"sync"
)

// ComponentStore maps (component type, entity) to a component value.
//
// Components are keyed by their concrete type with one pointer indirection
// stripped: attaching *Health and attaching Health both key as Health.
// Attaching components by pointer is the normal convention - it lets a
// system that holds the reference mutate the component in place. A value
// attach is boxed to a pointer on the way in, so readers always observe *T
// regardless of how the component was attached.
//
// INVARIANT: at most one component value exists per (entity, type) pair.
// Attach replaces any previous value as a single observable step.
type ComponentStore struct {
	mu    sync.RWMutex
	types map[reflect.Type]map[EntityID]any
}

func newComponentStore() *ComponentStore {
	return &ComponentStore{
		types: make(map[reflect.Type]map[EntityID]any),
	}
}

// componentKey resolves the store key for a component value.
// Pointers key by their element type so *T and T share one slot.
func componentKey(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Attach stores component on entity e, replacing any existing component of
// the same type. Attaching a nil component (untyped or a typed nil pointer)
// is a no-op. Non-pointer components are copied into a fresh pointer so the
// stored form is always *T.
func (s *ComponentStore) Attach(e EntityID, component any) {
	t := componentKey(component)
	if t == nil {
		return
	}
	if v := reflect.ValueOf(component); v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
	} else {
		ptr := reflect.New(t)
		ptr.Elem().Set(v)
		component = ptr.Interface()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entities, ok := s.types[t]
	if !ok {
		entities = make(map[EntityID]any)
		s.types[t] = entities
	}
	entities[e] = component
}

// Get returns the component of type t on entity e. Absence is not an error.
func (s *ComponentStore) Get(e EntityID, t reflect.Type) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities, ok := s.types[t]
	if !ok {
		return nil, false
	}
	c, ok := entities[e]
	return c, ok
}

// Detach removes the component of type t from entity e. No-op if absent.
func (s *ComponentStore) Detach(e EntityID, t reflect.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entities, ok := s.types[t]
	if !ok {
		return
	}
	delete(entities, e)
	if len(entities) == 0 {
		delete(s.types, t)
	}
}

// Has reports whether entity e carries a component of type t.
func (s *ComponentStore) Has(e EntityID, t reflect.Type) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities, ok := s.types[t]
	if !ok {
		return false
	}
	_, ok = entities[e]
	return ok
}

// DeleteEntity removes every component of every type attached to e, in one
// observable step: the write lock is held across all type maps, so no
// reader can see a partially deleted entity.
func (s *ComponentStore) DeleteEntity(e EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for t, entities := range s.types {
		delete(entities, e)
		if len(entities) == 0 {
			delete(s.types, t)
		}
	}
}

// AllOf returns every (entity, component) pair for type t. The returned map
// is a snapshot taken at call time; mutating it does not affect the store.
func (s *ComponentStore) AllOf(t reflect.Type) map[EntityID]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities, ok := s.types[t]
	if !ok {
		return map[EntityID]any{}
	}
	out := make(map[EntityID]any, len(entities))
	for e, c := range entities {
		out[e] = c
	}
	return out
}

// componentsOf returns a snapshot of all components attached to e,
// keyed by component type.
func (s *ComponentStore) componentsOf(e EntityID) map[reflect.Type]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[reflect.Type]any)
	for t, entities := range s.types {
		if c, ok := entities[e]; ok {
			out[t] = c
		}
	}
	return out
}

// entityIDs returns every entity id that currently carries at least one
// component, in ascending order.
func (s *ComponentStore) entityIDs() []EntityID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[EntityID]struct{})
	for _, entities := range s.types {
		for e := range entities {
			seen[e] = struct{}{}
		}
	}
	out := make([]EntityID, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sortEntityIDs(out)
	return out
}
