package world

import "reflect"

// TypeOf returns the component store key for T. Components attached as *T
// key as T, so TypeOf[Health]() matches entities created via
// Attach(w, e, &Health{...}).
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Attach attaches component to entity e. The pointer is stored as-is, so
// the caller and later readers share one value and in-place mutation is
// visible through the store.
func Attach[T any](w *World, e EntityID, component *T) {
	if component == nil {
		return
	}
	w.Attach(e, component)
}

// Get returns the T component on entity e, or nil if absent.
func Get[T any](w *World, e EntityID) *T {
	c, ok := w.Get(e, TypeOf[T]())
	if !ok {
		return nil
	}
	p, ok := c.(*T)
	if !ok {
		return nil
	}
	return p
}

// Detach removes the T component from entity e, if present.
func Detach[T any](w *World, e EntityID) {
	w.Detach(e, TypeOf[T]())
}

// Has reports whether entity e carries a T component.
func Has[T any](w *World, e EntityID) bool {
	return w.Has(e, TypeOf[T]())
}

// Ref is one Query1 result row.
type Ref[T any] struct {
	Entity    EntityID
	Component *T
}

// Query1 returns every entity carrying a T, ascending by entity id.
func Query1[T any](w *World) []Ref[T] {
	matches := w.Query(TypeOf[T]())
	out := make([]Ref[T], 0, len(matches))
	for _, m := range matches {
		out = append(out, Ref[T]{Entity: m.Entity, Component: m.Components[0].(*T)})
	}
	return out
}

// Ref2 is one Query2 result row.
type Ref2[T, U any] struct {
	Entity EntityID
	A      *T
	B      *U
}

// Query2 returns every entity carrying both a T and a U, ascending by
// entity id.
func Query2[T, U any](w *World) []Ref2[T, U] {
	matches := w.Query(TypeOf[T](), TypeOf[U]())
	out := make([]Ref2[T, U], 0, len(matches))
	for _, m := range matches {
		out = append(out, Ref2[T, U]{
			Entity: m.Entity,
			A:      m.Components[0].(*T),
			B:      m.Components[1].(*U),
		})
	}
	return out
}

// Ref3 is one Query3 result row.
type Ref3[T, U, V any] struct {
	Entity EntityID
	A      *T
	B      *U
	C      *V
}

// Query3 returns every entity carrying a T, a U, and a V, ascending by
// entity id.
func Query3[T, U, V any](w *World) []Ref3[T, U, V] {
	matches := w.Query(TypeOf[T](), TypeOf[U](), TypeOf[V]())
	out := make([]Ref3[T, U, V], 0, len(matches))
	for _, m := range matches {
		out = append(out, Ref3[T, U, V]{
			Entity: m.Entity,
			A:      m.Components[0].(*T),
			B:      m.Components[1].(*U),
			C:      m.Components[2].(*V),
		})
	}
	return out
}
