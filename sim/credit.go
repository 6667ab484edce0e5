package sim

import "github.com/nandsim/corevm/trace"

// Credit is a Connection backed by a bounded FIFO plus one bound credit
// port carrying an unsigned count. Each cycle the local credit counter is
// refreshed from the port (when a new value is published), then buffered
// data is transferred to Dst, then new data is admitted from Src as long
// as credits remain.
type Credit struct {
	connBase

	Src        *Port
	Dst        *Port
	CreditPort *Port

	Capacity int
	buffer   []Packet
	credits  int64
}

// NewCredit creates a Credit connection with the given FIFO capacity and
// per-packet delivery latency.
func NewCredit(name string, src, dst, creditPort *Port, capacity int, latency uint64, opts ...ConnOption) *Credit {
	c := &Credit{
		connBase:   newConnBase(name, latency, 1, nil),
		Src:        src,
		Dst:        dst,
		CreditPort: creditPort,
		Capacity:   capacity,
	}
	for _, o := range opts {
		o(&c.connBase)
	}
	return c
}

// Initialize implements Component.
func (c *Credit) Initialize(s *Scheduler) {
	c.scheduler = s
	if c.CreditPort == nil {
		c.trace(c.StartTime, trace.KindWarning, "credit connection started unbound: "+ErrUnbound.Error())
	}
	_, _ = s.ScheduleAt(c.StartTime, c.propagate, PriorityConnection, c.name+".propagate")
}

// Reset implements Component.
func (c *Credit) Reset() {
	c.buffer = c.buffer[:0]
	c.credits = 0
	c.stats = ConnStats{}
}

// propagate runs one cycle's refresh, transfer, then
// enqueue-and-decrement steps, strictly in that order.
func (c *Credit) propagate() {
	// A newly published credit value overwrites the local counter; the
	// port is consumed so a stale value is never re-applied on a later
	// cycle.
	if c.CreditPort != nil {
		if pkt, ok := c.CreditPort.Read(); ok && pkt.Int64 >= 0 {
			c.credits = pkt.Int64
		}
	}

	if len(c.buffer) > 0 && c.Dst.Empty() {
		pkt := c.buffer[0]
		c.buffer = c.buffer[1:]
		c.deliver(c.Dst, pkt)
	}

	if c.credits > 0 && len(c.buffer) < c.Capacity {
		if pkt, ok := c.Src.Read(); ok {
			c.buffer = append(c.buffer, pkt)
			c.credits--
			c.stats.EnqueueCount++
			c.trace(c.scheduler.CurrentTime(), trace.KindConnEnqueue, c.name)
		}
	}

	next := c.scheduler.CurrentTime() + c.Period
	_, _ = c.scheduler.ScheduleAt(next, c.propagate, PriorityConnection, c.name+".propagate")
}

// Credits returns the current local credit count.
func (c *Credit) Credits() int64 { return c.credits }

// Len returns the number of packets currently buffered.
func (c *Credit) Len() int { return len(c.buffer) }
