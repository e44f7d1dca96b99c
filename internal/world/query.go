package world

import (
	"reflect"
	"sort"
)

// Match is one query result row: an entity and its components in the
// requested type order.
type Match struct {
	Entity     EntityID
	Components []any
}

// Query is the read-only projection engine over a ComponentStore. It holds
// a reference to the runtime's store, never a copy.
type Query struct {
	store *ComponentStore
}

// NewQuery creates a query engine over s.
func NewQuery(s *ComponentStore) *Query {
	return &Query{store: s}
}

// Get returns every entity that currently carries all of the requested
// component types, in ascending entity id order, paired with the matching
// components in request order.
//
// The result is a snapshot taken at call time: the store's read lock is
// held across the whole intersection, so a result never mixes state from
// before and after a concurrent mutation. Component values in the result
// are the stored references and may be replaced by later writers; the
// returned rows themselves are stable.
//
// An empty type list yields an empty result.
func (q *Query) Get(types ...reflect.Type) []Match {
	if len(types) == 0 {
		return nil
	}

	s := q.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	first, ok := s.types[types[0]]
	if !ok {
		return nil
	}

	ids := make([]EntityID, 0, len(first))
candidates:
	for e := range first {
		for _, t := range types[1:] {
			entities, ok := s.types[t]
			if !ok {
				return nil
			}
			if _, ok := entities[e]; !ok {
				continue candidates
			}
		}
		ids = append(ids, e)
	}
	sortEntityIDs(ids)

	matches := make([]Match, 0, len(ids))
	for _, e := range ids {
		components := make([]any, len(types))
		for i, t := range types {
			components[i] = s.types[t][e]
		}
		matches = append(matches, Match{Entity: e, Components: components})
	}
	return matches
}

func sortEntityIDs(ids []EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
