package sim

// Wire is the simplest Connection: a two-slot look-ahead buffer between a
// single source and destination port, so a producer one cycle faster than
// its consumer never drops data.
type Wire struct {
	connBase

	Src *Port
	Dst *Port

	current *Packet
	next    *Packet
}

// NewWire creates a Wire from src to dst with the given per-packet
// delivery latency, propagating once per tick (period 1).
func NewWire(name string, src, dst *Port, latency uint64, opts ...ConnOption) *Wire {
	w := &Wire{connBase: newConnBase(name, latency, 1, nil), Src: src, Dst: dst}
	for _, o := range opts {
		o(&w.connBase)
	}
	return w
}

// Initialize implements Component.
func (w *Wire) Initialize(s *Scheduler) {
	w.scheduler = s
	_, _ = s.ScheduleAt(w.StartTime, w.propagate, PriorityConnection, w.name+".propagate")
}

// Reset implements Component.
func (w *Wire) Reset() {
	w.current, w.next = nil, nil
	w.stats = ConnStats{}
}

// propagate advances the wire by one cycle:
//  1. If current is empty and next holds a packet, shift next into
//     current.
//  2. Read a new packet from Src and buffer it in current, or next if
//     current is already occupied. With both slots full the packet stays
//     in Src (counted as a stall), so the producer sees a busy port.
//  3. Drain current to Dst (scheduling delivery after Latency cycles) if
//     Dst's slot is free, so a packet read this cycle onto an idle wire
//     is delivered Latency cycles later.
func (w *Wire) propagate() {
	if w.current == nil && w.next != nil {
		w.current, w.next = w.next, nil
	}

	if _, ok := w.Src.Peek(); ok {
		if w.next == nil {
			pkt, _ := w.Src.Read()
			w.stats.EnqueueCount++
			cp := pkt
			if w.current == nil {
				w.current = &cp
			} else {
				w.next = &cp
			}
		} else {
			w.stats.Stalls++
		}
	}

	if w.current != nil && w.Dst.Empty() {
		pkt := *w.current
		w.current = nil
		w.deliver(w.Dst, pkt)
	}

	next := w.scheduler.CurrentTime() + w.Period
	_, _ = w.scheduler.ScheduleAt(next, w.propagate, PriorityConnection, w.name+".propagate")
}
