package world

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry maps stable component names to component types. Checkpoint
// encoding and decoding go through a Registry instance handed to the codec
// at construction time; there is no process-global registry, so two worlds
// in one process can carry disjoint component sets.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

// NewRegistry creates a registry pre-populated with the runtime's reserved
// component types (Terminal, TickState).
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
	// Reserved types are always registered: checkpoints must be able to
	// round-trip TickState, and Restore must recognize Terminal to skip it.
	must := func(name string, prototype any) {
		if err := r.Register(name, prototype); err != nil {
			panic(err)
		}
	}
	must("Terminal", Terminal{})
	must("TickState", TickState{})
	return r
}

// Register binds name to prototype's component type. Prototype may be a
// value or a pointer; both register the element type, matching the store's
// key convention.
//
// Registering one name for two types, or one type under two names, is an
// error: checkpoint round-trips need the mapping to be a bijection.
func (r *Registry) Register(name string, prototype any) error {
	t := componentKey(prototype)
	if t == nil {
		return fmt.Errorf("register %q: nil prototype", name)
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("register %q: component must be a struct, got %s", name, t.Kind())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok && existing != t {
		return fmt.Errorf("register %q: name already bound to %s", name, existing)
	}
	if existing, ok := r.byType[t]; ok && existing != name {
		return fmt.Errorf("register %q: type %s already registered as %q", name, t, existing)
	}
	r.byName[name] = t
	r.byType[t] = name
	return nil
}

// TypeFor returns the component type registered under name.
func (r *Registry) TypeFor(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// NameFor returns the stable name for component type t.
func (r *Registry) NameFor(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byType[t]
	return name, ok
}

// Names returns every registered name in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
