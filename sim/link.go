package sim

import "github.com/nandsim/corevm/trace"

// BackingMode selects a Link's backing store discipline.
type BackingMode uint8

// Link backing modes.
const (
	BackingFIFO BackingMode = iota
	BackingRandomAccess
)

// Link behaves like ReadyValid but is backed by a more general store: a
// plain FIFO, or a random-access buffer addressed by Packet.Address, each
// with independently configurable read and write latency. It decouples a
// producer and consumer that run at different rates without requiring a
// capacity-1 handshake on every cycle.
type Link struct {
	connBase

	Src       *Port
	Dst       *Port
	ReadyPort *Port
	ValidPort *Port

	Mode         BackingMode
	Capacity     int
	ReadLatency  uint64
	WriteLatency uint64

	fifo  []Packet
	store map[uint64]Packet
}

// NewLink creates a Link connection. When mode is BackingRandomAccess,
// packets are addressed by Packet.Address rather than FIFO order.
func NewLink(name string, src, dst, ready, valid *Port, mode BackingMode, capacity int, readLatency, writeLatency uint64, opts ...ConnOption) *Link {
	l := &Link{
		connBase:     newConnBase(name, readLatency, 1, nil),
		Src:          src,
		Dst:          dst,
		ReadyPort:    ready,
		ValidPort:    valid,
		Mode:         mode,
		Capacity:     capacity,
		ReadLatency:  readLatency,
		WriteLatency: writeLatency,
		store:        make(map[uint64]Packet),
	}
	for _, o := range opts {
		o(&l.connBase)
	}
	return l
}

// Initialize implements Component.
func (l *Link) Initialize(s *Scheduler) {
	l.scheduler = s
	_, _ = s.ScheduleAt(l.StartTime, l.propagate, PriorityConnection, l.name+".propagate")
}

// Reset implements Component.
func (l *Link) Reset() {
	l.fifo = l.fifo[:0]
	l.store = make(map[uint64]Packet)
	l.stats = ConnStats{}
}

func (l *Link) occupancy() int {
	if l.Mode == BackingRandomAccess {
		return len(l.store)
	}
	return len(l.fifo)
}

func (l *Link) popOldest() (Packet, bool) {
	if l.Mode == BackingRandomAccess {
		// Random-access store has no intrinsic order; deliver the
		// lowest address first so behavior stays deterministic.
		if len(l.store) == 0 {
			return Packet{}, false
		}
		var minAddr uint64
		first := true
		for addr := range l.store {
			if first || addr < minAddr {
				minAddr = addr
				first = false
			}
		}
		pkt := l.store[minAddr]
		delete(l.store, minAddr)
		return pkt, true
	}
	if len(l.fifo) == 0 {
		return Packet{}, false
	}
	pkt := l.fifo[0]
	l.fifo = l.fifo[1:]
	return pkt, true
}

func (l *Link) push(pkt Packet) {
	if l.Mode == BackingRandomAccess {
		l.store[pkt.Address] = pkt
		return
	}
	l.fifo = append(l.fifo, pkt)
}

// propagate mirrors ReadyValid's transfer/enqueue phase ordering, reading
// ReadLatency for drains to Dst and WriteLatency for admission from Src.
func (l *Link) propagate() {
	ready := readBoolSignal(l.ReadyPort)
	valid := readBoolSignal(l.ValidPort)

	if l.occupancy() > 0 && l.Dst.Empty() && ready {
		if pkt, ok := l.popOldest(); ok {
			l.deliverAfter(l.Dst, pkt, l.ReadLatency)
		}
	}

	if valid {
		if pkt, ok := l.Src.Peek(); ok {
			if l.occupancy() < l.Capacity {
				_, _ = l.Src.Read()
				l.scheduleWrite(pkt)
				l.stats.EnqueueCount++
			} else {
				l.stats.Stalls++
				l.trace(l.scheduler.CurrentTime(), trace.KindConnStall, l.name+": buffer full")
			}
		}
	}

	next := l.scheduler.CurrentTime() + l.Period
	_, _ = l.scheduler.ScheduleAt(next, l.propagate, PriorityConnection, l.name+".propagate")
}

func (l *Link) scheduleWrite(pkt Packet) {
	now := l.scheduler.CurrentTime()
	_, _ = l.scheduler.ScheduleAt(now+l.WriteLatency, func() {
		l.push(pkt)
	}, PriorityConnection, l.name+".write")
}

func (l *Link) deliverAfter(dst *Port, pkt Packet, latency uint64) {
	now := l.scheduler.CurrentTime()
	_, _ = l.scheduler.ScheduleAt(now+latency, func() {
		_ = dst.Write(pkt)
	}, PriorityDelayed, l.name+".deliver")
	l.stats.TransferCount++
	l.trace(now, trace.KindConnTransfer, l.name)
}
