package sim

import "errors"

// Sentinel errors for the core's recoverable and hard failure conditions.
//
// BUSY and the back-pressure conditions are absorbed by the producer on
// the next cycle; UNBOUND and PAST_EVENT are surfaced to the host.
var (
	// ErrBusy is returned by Port.Write when the slot is already occupied.
	ErrBusy = errors.New("sim: port busy")

	// ErrUnbound is reported, as the message of a warning trace event, by
	// a ReadyValid or Credit connection started without its control
	// port(s) bound.
	ErrUnbound = errors.New("sim: connection control port unbound")

	// ErrPastEvent is returned by Scheduler.Schedule when the event's time
	// is strictly before the scheduler's current time.
	ErrPastEvent = errors.New("sim: event scheduled in the past")
)
