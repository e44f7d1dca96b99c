package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/loomlab/weft/internal/checkpoint"
	"github.com/loomlab/weft/internal/runner"
	"github.com/loomlab/weft/internal/schedule"
	"github.com/loomlab/weft/internal/world"
)

// SystemSet resolves scenario system names to implementations.
type SystemSet map[string]schedule.System

// Trace is what a scenario run leaves behind: how the run stopped and the
// final persisted world state, rendered deterministically for golden
// comparison.
type Trace struct {
	Scenario   string                      `json:"scenario"`
	StopReason string                      `json:"stop_reason"`
	Ticks      int                         `json:"ticks"`
	Entities   []checkpoint.EntitySnapshot `json:"entities"`
}

// Runner executes scenarios against a fixed component registry and system
// set. Run tokens are derived from the scenario name so traces are
// byte-stable across executions.
type Runner struct {
	registry *world.Registry
	systems  SystemSet
	codec    *checkpoint.Codec
}

// NewRunner creates a scenario runner.
func NewRunner(registry *world.Registry, systems SystemSet) *Runner {
	return &Runner{
		registry: registry,
		systems:  systems,
		codec:    checkpoint.NewCodec(registry),
	}
}

// Run executes one scenario: seed the world, register the listed systems,
// drive the run to completion, snapshot the result.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Trace, error) {
	w, err := r.seedWorld(sc)
	if err != nil {
		return nil, err
	}

	sched := schedule.New()
	for _, sys := range sc.Systems {
		impl, ok := r.systems[sys.Name]
		if !ok {
			return nil, fmt.Errorf("scenario %s: unknown system %q", sc.Name, sys.Name)
		}
		sched.Register(impl, sys.Priority)
	}

	drv := runner.New(sched,
		runner.WithBudget(sc.Budget),
		runner.WithStartTick(sc.StartTick),
		runner.WithTokens(runner.NewFixedGenerator("scenario-"+sc.Name)),
	)

	res, err := drv.Run(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	snap, err := r.codec.Snapshot(w)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	return &Trace{
		Scenario:   sc.Name,
		StopReason: string(res.Reason),
		Ticks:      res.Ticks,
		Entities:   snap.Entities,
	}, nil
}

// seedWorld builds the initial world from the scenario's entity list.
// Component fields round-trip through JSON so the same struct tags govern
// scenarios and checkpoints.
func (r *Runner) seedWorld(sc *Scenario) (*world.World, error) {
	w := world.New()
	for i, ent := range sc.Entities {
		e := w.CreateEntity()
		for name, fields := range ent.Components {
			t, ok := r.registry.TypeFor(name)
			if !ok {
				return nil, fmt.Errorf("scenario %s: entity %d: unknown component %q", sc.Name, i, name)
			}
			raw, err := json.Marshal(fields)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: entity %d: encode %s: %w", sc.Name, i, name, err)
			}
			ptr := reflect.New(t)
			if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
				return nil, fmt.Errorf("scenario %s: entity %d: decode %s: %w", sc.Name, i, name, err)
			}
			w.Attach(e, ptr.Interface())
		}
	}
	return w, nil
}

// Marshal renders a trace as canonical JSON for golden comparison.
func (tr *Trace) Marshal() ([]byte, error) {
	return checkpoint.MarshalCanonical(tr)
}
