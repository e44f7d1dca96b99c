// Package runner drives the tick loop: it repeats scheduler ticks until a
// termination marker appears in the world or the tick budget runs out.
//
// The runner holds no persisted state of its own. Resume works by
// reconstructing the world through the checkpoint collaborator and starting
// a new run with the saved tick offset.
package runner

import (
	"context"
	"log/slog"

	"github.com/loomlab/weft/internal/schedule"
	"github.com/loomlab/weft/internal/world"
)

// StopReason says why a run ended normally.
type StopReason string

const (
	// ReasonTerminalFound means some system attached a Terminal component.
	ReasonTerminalFound StopReason = "terminal_found"

	// ReasonBudgetExhausted means the tick budget ran out; the runner
	// synthesized a Terminal on a fresh entity before stopping.
	ReasonBudgetExhausted StopReason = "tick_budget_exhausted"
)

// Result describes a completed run.
type Result struct {
	// Reason is why the run stopped.
	Reason StopReason

	// Ticks is the number of ticks executed by this run.
	Ticks int

	// NextTick is the tick counter after the run; pass it as the start
	// tick when resuming from a checkpoint taken at the end of this run.
	NextTick int

	// Token is the run token, for correlating logs and checkpoints.
	Token string
}

// Runner is the tick-loop driver. One Runner may be reused across runs; it
// keeps no state between them.
type Runner struct {
	sched     *schedule.Scheduler
	budget    int
	startTick int
	tokens    TokenGenerator
}

// Option configures a Runner.
type Option func(*Runner)

// WithBudget caps the run at n ticks. n <= 0 means unbounded: the loop runs
// until some system attaches a Terminal component.
func WithBudget(n int) Option {
	return func(r *Runner) { r.budget = n }
}

// WithStartTick sets the tick counter's starting offset. Used when resuming
// a previously interrupted run after the world has been restored through
// the checkpoint collaborator.
func WithStartTick(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.startTick = n
		}
	}
}

// WithTokens overrides the run token generator (for tests).
func WithTokens(gen TokenGenerator) Option {
	return func(r *Runner) {
		if gen != nil {
			r.tokens = gen
		}
	}
}

// New creates a Runner driving sched.
func New(sched *schedule.Scheduler, opts ...Option) *Runner {
	r := &Runner{
		sched:  sched,
		tokens: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes ticks against w until a Terminal component is found on any
// entity, the budget is exhausted, or ctx is cancelled.
//
// The Terminal scan happens only between ticks, never mid-tick: a tick is
// atomic from the runner's point of view. On budget exhaustion the runner
// creates a fresh entity, attaches Terminal{Reason:
// world.TerminalReasonBudget}, and stops normally - budget exhaustion is a
// termination path, not an error.
//
// A tick failure aborts the run and is returned as-is (a *schedule.TickError
// for system failures); the world is left in whatever partially-mutated
// state existed at the failure point.
func (r *Runner) Run(ctx context.Context, w *world.World) (Result, error) {
	token := r.tokens.Generate()
	res := Result{Token: token, NextTick: r.startTick}

	slog.Info("run starting",
		"token", token,
		"budget", r.budget,
		"start_tick", r.startTick,
	)

	state := r.tickState(w)

	tick := r.startTick
	for {
		if err := ctx.Err(); err != nil {
			slog.Info("run cancelled", "token", token, "tick", tick)
			return res, err
		}

		if r.budget > 0 && tick >= r.budget {
			e := w.CreateEntity()
			world.Attach(w, e, &world.Terminal{Reason: world.TerminalReasonBudget})
			res.Reason = ReasonBudgetExhausted
			slog.Info("run stopping: tick budget exhausted",
				"token", token,
				"ticks", res.Ticks,
				"budget", r.budget,
			)
			return res, nil
		}

		if err := r.sched.Tick(ctx, w); err != nil {
			slog.Error("run aborted by tick failure", "token", token, "tick", tick, "error", err)
			return res, err
		}
		res.Ticks++
		res.NextTick = tick + 1
		state.Tick = tick + 1

		if found, reason := terminalReason(w); found {
			res.Reason = ReasonTerminalFound
			slog.Info("run stopping: terminal found",
				"token", token,
				"ticks", res.Ticks,
				"reason", reason,
			)
			return res, nil
		}

		tick++
	}
}

// tickState finds the world's TickState, creating it on a fresh entity if
// this is the world's first run.
func (r *Runner) tickState(w *world.World) *world.TickState {
	if states := world.Query1[world.TickState](w); len(states) > 0 {
		return states[0].Component
	}
	state := &world.TickState{Tick: r.startTick}
	world.Attach(w, w.CreateEntity(), state)
	return state
}

// terminalReason reports whether any entity carries a Terminal, and the
// first reason in entity order if so.
func terminalReason(w *world.World) (bool, string) {
	terminals := world.Query1[world.Terminal](w)
	if len(terminals) == 0 {
		return false, ""
	}
	return true, terminals[0].Component.Reason
}
