package sim

import (
	"container/heap"
	"fmt"

	"github.com/nandsim/corevm/trace"
)

// Scheduler drives the simulation: a min-priority queue of Events ordered
// by (Time, Priority, ID), dispatched one timestamp at a time.
type Scheduler struct {
	queue      eventQueue
	now        uint64
	totalCount uint64
	nextID     uint64
	sink       trace.Sink
}

// NewScheduler creates a Scheduler starting at time 0. sink receives a
// warning event whenever a caller attempts to schedule an event in the
// past; pass trace.Discard to silence it.
func NewScheduler(sink trace.Sink) *Scheduler {
	if sink == nil {
		sink = trace.Discard
	}
	s := &Scheduler{sink: sink}
	heap.Init(&s.queue)
	return s
}

// Schedule inserts ev into the queue. It fails with ErrPastEvent if
// ev.Time is strictly before the scheduler's current time; the event is
// dropped and a warning is emitted to the trace sink.
func (s *Scheduler) Schedule(ev *Event) error {
	if ev.Time < s.now {
		s.sink.Emit(trace.Event{
			Timestamp: s.now,
			Component: "scheduler",
			Kind:      trace.KindWarning,
			Message:   fmt.Sprintf("dropped event %q scheduled at %d before now=%d", ev.Name, ev.Time, s.now),
		})
		return ErrPastEvent
	}
	if ev.ID == 0 {
		s.nextID++
		ev.ID = s.nextID
	}
	heap.Push(&s.queue, ev)
	s.totalCount++
	return nil
}

// ScheduleAt is a convenience wrapper that builds and schedules an Event.
func (s *Scheduler) ScheduleAt(time uint64, action Action, priority int32, name string) (*Event, error) {
	ev := &Event{Time: time, Priority: priority, Action: action, Name: name}
	if err := s.Schedule(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Run dequeues and dispatches events until the queue is empty.
func (s *Scheduler) Run() {
	for s.queue.Len() > 0 {
		s.step()
	}
}

// RunUntil dispatches events until the queue is empty or the next event's
// time would exceed t.
func (s *Scheduler) RunUntil(t uint64) {
	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.Time > t {
			s.now = t
			return
		}
		s.step()
	}
	if s.now < t {
		s.now = t
	}
}

// RunFor dispatches up to n non-cancelled events.
func (s *Scheduler) RunFor(n int) {
	dispatched := 0
	for s.queue.Len() > 0 && dispatched < n {
		ev := s.queue[0]
		if ev.Cancelled {
			heap.Pop(&s.queue)
			continue
		}
		s.step()
		dispatched++
	}
}

// step pops and runs (or skips, if cancelled) the next event. Cancelled
// events are skipped without advancing time past their own timestamp, so
// the caller still observes every real timestamp in order.
func (s *Scheduler) step() {
	ev := heap.Pop(&s.queue).(*Event)
	s.now = ev.Time
	if ev.Cancelled {
		return
	}
	if ev.Action != nil {
		ev.Action()
	}
}

// CurrentTime returns the time of the most recently dispatched event (or
// the time most recently reached via RunUntil).
func (s *Scheduler) CurrentTime() uint64 { return s.now }

// PendingCount returns the number of events still queued.
func (s *Scheduler) PendingCount() int { return s.queue.Len() }

// TotalCount returns the number of events ever scheduled, dispatched or
// not.
func (s *Scheduler) TotalCount() uint64 { return s.totalCount }

// Reset clears the queue and resets the clock to 0. Statistics accumulated
// outside the scheduler (unit/core counters) are not touched.
func (s *Scheduler) Reset() {
	s.queue = s.queue[:0]
	s.now = 0
	s.totalCount = 0
	s.nextID = 0
}
