package sim

import "github.com/rs/xid"

// ComponentID is a stable handle to a component, assigned once at
// construction and never reused. Using an opaque, globally unique handle
// rather than an owning pointer is what lets Port and Connection refer to
// their owner/endpoints without forming reference cycles with the
// scheduler.
type ComponentID string

// NewComponentID mints a fresh, globally unique component handle.
func NewComponentID() ComponentID {
	return ComponentID(xid.New().String())
}

// Component is the capability every self-scheduling part implements
// (connections, ticking components, the ALU and LSU, the core, and the
// accelerator's cells and feeders): the minimal surface a host needs to
// drive it.
type Component interface {
	// ID returns the component's stable handle.
	ID() ComponentID
	// Name returns a human-readable name, used in trace events.
	Name() string
	// Initialize starts the component's recurring tick (or other
	// self-scheduled activity) against the given scheduler.
	Initialize(s *Scheduler)
	// Reset clears the component's internal state without
	// re-registering its tick.
	Reset()
}

// TickingComponent is the base for any component whose Tick is
// self-scheduled at a fixed period. Embedding it gives a concrete type a
// working Initialize/Reset pair; the embedder supplies TickFunc.
type TickingComponent struct {
	id        ComponentID
	name      string
	Period    uint64
	StartTime uint64
	Enabled   bool
	LastTick  uint64

	// TickFunc is invoked once per period while Enabled. It must only
	// touch ports and state owned by this component.
	TickFunc func()

	scheduler *Scheduler
}

// NewTickingComponent creates a ticking component with the given name and
// period. The returned value's TickFunc must be set before Initialize is
// called.
func NewTickingComponent(name string, period uint64) *TickingComponent {
	return &TickingComponent{
		id:      NewComponentID(),
		name:    name,
		Period:  period,
		Enabled: true,
	}
}

// ID implements Component.
func (t *TickingComponent) ID() ComponentID { return t.id }

// Name implements Component.
func (t *TickingComponent) Name() string { return t.name }

// Initialize schedules the first tick at StartTime and arms
// self-rescheduling for as long as Enabled is true.
func (t *TickingComponent) Initialize(s *Scheduler) {
	t.scheduler = s
	t.LastTick = t.StartTime
	_, _ = s.ScheduleAt(t.StartTime, t.tick, PriorityTick, t.name+".tick")
}

// Reset clears LastTick. It does not touch Enabled or re-arm ticking;
// callers that want a fresh run must call Initialize again.
func (t *TickingComponent) Reset() {
	t.LastTick = t.StartTime
}

func (t *TickingComponent) tick() {
	if !t.Enabled {
		return
	}
	t.LastTick = t.scheduler.CurrentTime()
	if t.TickFunc != nil {
		t.TickFunc()
	}
	next := t.LastTick + t.Period
	_, _ = t.scheduler.ScheduleAt(next, t.tick, PriorityTick, t.name+".tick")
}
