package schedule

import (
	"errors"
	"fmt"
)

// TickError reports a tick aborted by a failing system. It carries enough
// structure for callers to decide what to do with the partially-mutated
// world the tick left behind.
type TickError struct {
	// Priority is the group whose failure aborted the tick.
	Priority int

	// System names the system whose error was captured first.
	System string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *TickError) Error() string {
	return fmt.Sprintf("tick aborted at priority %d: system %s: %v", e.Priority, e.System, e.Err)
}

// Unwrap exposes the underlying system error to errors.Is/errors.As.
func (e *TickError) Unwrap() error {
	return e.Err
}

// AsTickError unwraps err to a *TickError if one is in its chain.
func AsTickError(err error) (*TickError, bool) {
	var te *TickError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// PanicError captures a panic recovered from a system. Panics abort the
// tick like any other system failure instead of crashing the runtime.
type PanicError struct {
	System string
	Value  any
	Stack  []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in system %s: %v", e.System, e.Value)
}

// IsPanic reports whether err's chain contains a recovered system panic.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}
