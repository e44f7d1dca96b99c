// Package demo carries a small self-contained world: a couple of
// components and systems demonstrating the runtime end to end. It is
// surrounding functionality, not core - the scheduler and store never know
// these types exist.
package demo

import (
	"context"

	"github.com/loomlab/weft/internal/schedule"
	"github.com/loomlab/weft/internal/world"
)

// Counter counts down once per tick. When it reaches zero the countdown
// system attaches a Terminal marker and the run stops.
type Counter struct {
	Remaining int `json:"remaining"`
}

// Pulse records how many ticks the heartbeat system has observed.
type Pulse struct {
	Ticks int `json:"ticks"`
}

// Finished is published on the world's bus when a counter reaches zero.
type Finished struct {
	Entity world.EntityID
}

// TerminalReasonCountdown is recorded on the Terminal attached by the
// countdown system.
const TerminalReasonCountdown = "countdown_complete"

// Registry returns a component registry covering the demo component set,
// on top of the runtime's reserved types.
func Registry() *world.Registry {
	r := world.NewRegistry()
	must := func(name string, prototype any) {
		if err := r.Register(name, prototype); err != nil {
			panic(err)
		}
	}
	must("Counter", Counter{})
	must("Pulse", Pulse{})
	return r
}

// Systems returns the demo system set keyed by scenario name.
func Systems() map[string]schedule.System {
	return map[string]schedule.System{
		"heartbeat": Heartbeat{},
		"countdown": Countdown{},
	}
}

// Heartbeat increments every Pulse component once per tick, creating one on
// a fresh entity the first time it runs.
type Heartbeat struct{}

// Name implements schedule.Named.
func (Heartbeat) Name() string { return "heartbeat" }

// Process implements schedule.System.
func (Heartbeat) Process(ctx context.Context, w *world.World) error {
	refs := world.Query1[Pulse](w)
	if len(refs) == 0 {
		world.Attach(w, w.CreateEntity(), &Pulse{Ticks: 1})
		return nil
	}
	for _, ref := range refs {
		ref.Component.Ticks++
	}
	return ctx.Err()
}

// Countdown decrements every Counter component once per tick and attaches a
// Terminal marker when one reaches zero, publishing Finished on the bus.
type Countdown struct{}

// Name implements schedule.Named.
func (Countdown) Name() string { return "countdown" }

// Process implements schedule.System.
func (Countdown) Process(ctx context.Context, w *world.World) error {
	for _, ref := range world.Query1[Counter](w) {
		if ref.Component.Remaining > 0 {
			ref.Component.Remaining--
		}
		if ref.Component.Remaining == 0 {
			world.Attach(w, ref.Entity, &world.Terminal{Reason: TerminalReasonCountdown})
			w.Bus().Publish(ctx, Finished{Entity: ref.Entity})
		}
	}
	return ctx.Err()
}
