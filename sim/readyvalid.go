package sim

import "github.com/nandsim/corevm/trace"

// ReadyValid is a Connection backed by a bounded FIFO plus two bound
// signal ports (ready, valid). Propagation runs in two strict phases each
// cycle: transfer (drain the buffer to Dst) before enqueue (admit from
// Src), so a packet admitted in one cycle leaves the buffer no earlier
// than the next cycle.
type ReadyValid struct {
	connBase

	Src       *Port
	Dst       *Port
	ReadyPort *Port // driven by the consumer: true = ready to accept
	ValidPort *Port // driven by the producer: true = Src holds valid data

	Capacity int
	buffer   []Packet
}

// NewReadyValid creates a ReadyValid connection with the given FIFO
// capacity and per-packet delivery latency.
func NewReadyValid(name string, src, dst, ready, valid *Port, capacity int, latency uint64, opts ...ConnOption) *ReadyValid {
	rv := &ReadyValid{
		connBase:  newConnBase(name, latency, 1, nil),
		Src:       src,
		Dst:       dst,
		ReadyPort: ready,
		ValidPort: valid,
		Capacity:  capacity,
	}
	for _, o := range opts {
		o(&rv.connBase)
	}
	return rv
}

// Initialize implements Component. It returns ErrUnbound (via a warning
// trace, since Initialize has no error return) if the ready or valid
// control port is nil.
func (rv *ReadyValid) Initialize(s *Scheduler) {
	rv.scheduler = s
	if rv.ReadyPort == nil || rv.ValidPort == nil {
		rv.trace(rv.StartTime, trace.KindWarning, "ready/valid connection started unbound: "+ErrUnbound.Error())
	}
	_, _ = s.ScheduleAt(rv.StartTime, rv.propagate, PriorityConnection, rv.name+".propagate")
}

// Reset implements Component.
func (rv *ReadyValid) Reset() {
	rv.buffer = rv.buffer[:0]
	rv.stats = ConnStats{}
}

func readBoolSignal(p *Port) bool {
	if p == nil {
		return false
	}
	pkt, ok := p.Peek()
	if !ok {
		return false
	}
	return pkt.Bool
}

// propagate runs the transfer phase strictly before the enqueue phase.
func (rv *ReadyValid) propagate() {
	ready := readBoolSignal(rv.ReadyPort)
	valid := readBoolSignal(rv.ValidPort)

	// Phase A: transfer.
	if len(rv.buffer) > 0 && rv.Dst.Empty() && ready {
		pkt := rv.buffer[0]
		rv.buffer = rv.buffer[1:]
		rv.deliver(rv.Dst, pkt)
	}

	// Phase B: enqueue.
	if valid {
		if pkt, ok := rv.Src.Peek(); ok {
			if len(rv.buffer) < rv.Capacity {
				_, _ = rv.Src.Read()
				rv.buffer = append(rv.buffer, pkt)
				rv.stats.EnqueueCount++
				rv.trace(rv.scheduler.CurrentTime(), trace.KindConnEnqueue, rv.name)
			} else {
				rv.stats.Stalls++
				rv.trace(rv.scheduler.CurrentTime(), trace.KindConnStall, rv.name+": buffer full")
			}
		}
	}

	next := rv.scheduler.CurrentTime() + rv.Period
	_, _ = rv.scheduler.ScheduleAt(next, rv.propagate, PriorityConnection, rv.name+".propagate")
}

// Len returns the number of packets currently buffered.
func (rv *ReadyValid) Len() int { return len(rv.buffer) }
