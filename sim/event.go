// Package sim provides the discrete-event simulation kernel: a
// min-priority-ordered scheduler, single-slot ports, back-pressured
// connections (Wire, ReadyValid, Credit, Link), ticking components, and a
// multi-stage pipeline substrate. Everything above it — functional units,
// register file, dispatch, and the core that wires them together — is
// built on these primitives and never bypasses them.
package sim

// Priority constants that give the scheduler its cycle-ordering invariant:
// within one timestamp, connection propagation runs before component ticks,
// and delayed deliveries land after both.
const (
	PriorityDelayed    int32 = -1
	PriorityTick       int32 = 0
	PriorityConnection int32 = 1
)

// Action is the unit of scheduled work. It must only mutate state owned by
// the component that scheduled it — ports it owns, its own fields — never
// another component's state directly.
type Action func()

// Event is an immutable (except for Cancelled) unit of scheduled work.
// Events are ordered by (Time asc, Priority desc, ID asc): higher priority
// wins ties at the same time, and among equal priority the earliest
// scheduled event (lowest ID) runs first.
type Event struct {
	Time      uint64
	Priority  int32
	ID        uint64
	Name      string
	Cancelled bool
	Action    Action

	index int // heap.Interface bookkeeping, unused by callers
}

// Cancel marks the event so the scheduler skips it at dispatch time.
// Cancelling an event that already ran has no effect.
func (e *Event) Cancel() {
	if e == nil {
		return
	}
	e.Cancelled = true
}

// less reports whether e sorts before o under the scheduler's ordering.
func (e *Event) less(o *Event) bool {
	if e.Time != o.Time {
		return e.Time < o.Time
	}
	if e.Priority != o.Priority {
		return e.Priority > o.Priority
	}
	return e.ID < o.ID
}
