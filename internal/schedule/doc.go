// Package schedule executes registered systems against a world, one tick at
// a time.
//
// ARCHITECTURE:
//
// Systems register with an integer priority fixed at registration. A tick
// walks the distinct priorities in ascending order; every system in one
// priority group starts concurrently against the same world, and a hard
// barrier separates groups: group N+1 never observes an in-progress system
// from group N.
//
// FAILURE POLICY:
//
// The tick fails as a batch, never silently. The first error (or recovered
// panic) in a group cancels the group context, which is the best-effort
// cancellation signal for still-running siblings - their already-applied
// store mutations are not rolled back. The barrier still completes, then
// the tick aborts with a *TickError and no later group runs. Effects from
// systems that finished, and from all earlier groups, remain applied.
// Turning recoverable faults into state (an error component) is the system
// author's job; the scheduler does not retry.
//
// Within one group there is no ordering guarantee. Sibling systems must not
// assume write ordering on the same entity's components.
package schedule
