// Package world implements the shared state pool of a weft runtime: opaque
// entity identifiers, the type-indexed component store, and the query engine
// that projects entities by the set of component types they carry.
//
// ARCHITECTURE:
//
// Entities carry no data. An entity exists purely as the set of components
// currently attached to its id, and an id is never reused for the lifetime
// of one World, even after the entity is deleted.
//
// Components are plain structs attached by pointer. The store keys each
// component by its concrete type: attaching a second value of the same type
// to the same entity replaces the first atomically.
//
// CONCURRENCY:
//
// Systems in the same scheduler group run on real goroutines, so the store
// cannot rely on cooperative scheduling for safety. Every exported operation
// takes the store's internal RWMutex, which makes each operation - including
// DeleteEntity across all component types, and the multi-type intersection
// computed by Query - a single observable step. No reader sees a
// half-deleted entity or a half-replaced component.
//
// Read-modify-write sequences spanning several store calls are atomic only
// per call. Two systems in the same group must not assume write ordering on
// the same entity's components; the scheduler's barrier is the only ordering
// guarantee between groups.
package world
