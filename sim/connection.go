package sim

import (
	"fmt"

	"github.com/nandsim/corevm/trace"
)

// Connection transfers packets between ports, modeling latency and
// back-pressure. Every variant self-schedules its propagate step at
// PriorityConnection so that, within a cycle, propagation runs before
// components tick.
type Connection interface {
	Component
	// Stats returns the connection's back-pressure accounting.
	Stats() ConnStats
}

// ConnStats accumulates a connection's enqueue/transfer/stall counts, the
// numbers hosts and tests use to account for back-pressure.
type ConnStats struct {
	EnqueueCount  uint64
	TransferCount uint64
	Stalls        uint64
}

// connBase is embedded by every Connection implementation. It owns the
// self-scheduling plumbing and trace emission so each variant only has to
// implement its own propagate/enqueue logic.
type connBase struct {
	id        ComponentID
	name      string
	Latency   uint64
	Period    uint64
	StartTime uint64

	scheduler *Scheduler
	sink      trace.Sink
	stats     ConnStats
}

// ConnOption configures a Connection at construction time, the same
// functional-options idiom used throughout this module's configuration
// surface.
type ConnOption func(*connBase)

// WithStartTime sets the connection's first propagate time.
func WithStartTime(t uint64) ConnOption {
	return func(c *connBase) { c.StartTime = t }
}

// WithTraceSink attaches a trace sink to a connection's back-pressure and
// transfer events.
func WithTraceSink(sink trace.Sink) ConnOption {
	return func(c *connBase) { c.sink = sink }
}

func newConnBase(name string, latency, period uint64, sink trace.Sink) connBase {
	if sink == nil {
		sink = trace.Discard
	}
	return connBase{
		id:      NewComponentID(),
		name:    name,
		Latency: latency,
		Period:  period,
		sink:    sink,
	}
}

func (c *connBase) ID() ComponentID { return c.id }
func (c *connBase) Name() string    { return c.name }
func (c *connBase) Stats() ConnStats {
	return c.stats
}

func (c *connBase) trace(now uint64, kind trace.Kind, msg string) {
	c.sink.Emit(trace.Event{Timestamp: now, Component: c.name, Kind: kind, Message: msg})
}

// deliver schedules the delivery of pkt to dst after c.Latency cycles, at
// PriorityDelayed, so it lands after the propagation and ticks scheduled
// for that same timestamp and a component first sees it on its next tick.
func (c *connBase) deliver(dst *Port, pkt Packet) {
	now := c.scheduler.CurrentTime()
	target := now + c.Latency
	name := fmt.Sprintf("%s.deliver", c.name)
	_, _ = c.scheduler.ScheduleAt(target, func() {
		_ = dst.Write(pkt)
	}, PriorityDelayed, name)
	c.stats.TransferCount++
	c.trace(now, trace.KindConnTransfer, fmt.Sprintf("%s -> %s (latency=%d)", c.name, dst.Name, c.Latency))
}
