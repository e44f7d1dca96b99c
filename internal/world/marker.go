package world

// Reserved component types the runtime itself understands. The driver scans
// for Terminal after each tick; everything else in the store is opaque to
// the core.

// TerminalReasonBudget is the reason the driver records when it synthesizes
// a Terminal because the tick budget ran out.
const TerminalReasonBudget = "tick_budget_exhausted"

// Terminal marks the world as finished. Its presence on any entity stops
// the driver's loop after the current tick completes; it is never inspected
// mid-tick. Systems attach it to signal normal completion, and are expected
// to convert recoverable faults into state (e.g. an error component) rather
// than letting them escape as tick failures.
type Terminal struct {
	Reason string `json:"reason"`
}

// TickState records the driver's progress through its run. The driver keeps
// exactly one entity with a TickState; checkpoints persist it so a resumed
// run continues the tick count.
type TickState struct {
	Tick int `json:"tick"`
}
