package schedule

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/loomlab/weft/internal/world"
)

// Scheduler holds the registered systems grouped by priority and executes
// one tick at a time. It has no state machine beyond idle-between-ticks /
// running-a-tick, and holds only a reference to the world it is given.
type Scheduler struct {
	mu     sync.RWMutex
	groups map[int][]registration
}

// registration is one (system, priority) record. Registration order within
// a group is preserved so that snapshots of a group are deterministic, even
// though execution within the group is concurrent and unordered.
type registration struct {
	system System
	name   string
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{groups: make(map[int][]registration)}
}

// Register appends system to the group for priority. Lower priorities run
// earlier. Registering the same system twice in one group is not detected;
// avoiding re-registration is the caller's responsibility.
func (s *Scheduler) Register(system System, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[priority] = append(s.groups[priority], registration{
		system: system,
		name:   systemName(system),
	})
}

// Len returns the total number of registered systems.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, group := range s.groups {
		n += len(group)
	}
	return n
}

// Priorities returns the distinct registered priorities in ascending order.
func (s *Scheduler) Priorities() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prioritiesLocked()
}

func (s *Scheduler) prioritiesLocked() []int {
	priorities := make([]int, 0, len(s.groups))
	for p := range s.groups {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)
	return priorities
}

// Tick runs one full pass: each priority group in ascending order, all
// systems within a group concurrently against the same world, with a hard
// barrier before the next group starts.
//
// On the first failure in a group, remaining siblings are cancelled via the
// group context, the barrier completes, and Tick returns a *TickError. No
// later group runs; earlier effects stay applied. A nil return means every
// registered system completed.
func (s *Scheduler) Tick(ctx context.Context, w *world.World) error {
	s.mu.RLock()
	priorities := s.prioritiesLocked()
	groups := make(map[int][]registration, len(priorities))
	for _, p := range priorities {
		group := make([]registration, len(s.groups[p]))
		copy(group, s.groups[p])
		groups[p] = group
	}
	s.mu.RUnlock()

	for _, priority := range priorities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runGroup(ctx, w, priority, groups[priority]); err != nil {
			return err
		}
	}
	return nil
}

// runGroup starts every system in the group concurrently and waits for all
// of them. The first captured failure wins; later failures in the same
// group are dropped (their systems were cancelled by the winner).
func (s *Scheduler) runGroup(ctx context.Context, w *world.World, priority int, group []registration) error {
	if len(group) == 0 {
		return nil
	}

	slog.Debug("tick group starting", "priority", priority, "systems", len(group))

	gctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first *TickError
	)

	wg.Add(len(group))
	for _, reg := range group {
		go func(reg registration) {
			defer wg.Done()
			err := runSystem(gctx, w, reg)
			if err == nil {
				return
			}
			mu.Lock()
			if first == nil {
				first = &TickError{Priority: priority, System: reg.name, Err: err}
				cancel()
			}
			mu.Unlock()
		}(reg)
	}
	wg.Wait()

	if first != nil {
		slog.Debug("tick group failed", "priority", priority, "system", first.System, "error", first.Err)
		return first
	}
	return nil
}

// runSystem invokes one system with panic recovery. A panic becomes a
// *PanicError carrying the stack, so a buggy system aborts the tick instead
// of killing the process.
func runSystem(ctx context.Context, w *world.World, reg registration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{System: reg.name, Value: r, Stack: debug.Stack()}
		}
	}()
	return reg.system.Process(ctx, w)
}
