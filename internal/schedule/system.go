package schedule

import (
	"context"
	"fmt"

	"github.com/loomlab/weft/internal/world"
)

// System is one registered unit of work. Process runs once per tick against
// the shared world; blocking work must honor ctx, which is cancelled when a
// sibling in the same priority group fails.
//
// The scheduler keeps no state between ticks on a system's behalf.
type System interface {
	Process(ctx context.Context, w *world.World) error
}

// SystemFunc adapts a plain function to the System interface.
type SystemFunc func(ctx context.Context, w *world.World) error

// Process implements System.
func (f SystemFunc) Process(ctx context.Context, w *world.World) error {
	return f(ctx, w)
}

// Named is optionally implemented by systems that want a stable name in
// logs and errors.
type Named interface {
	Name() string
}

// systemName resolves the log/error name for a system: its Named name if it
// has one, otherwise its Go type.
func systemName(s System) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
