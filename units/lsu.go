package units

import (
	"fmt"

	"github.com/nandsim/corevm/sim"
	"github.com/nandsim/corevm/trace"
)

// element is one scalar memory access expanded out of a (possibly vector)
// LSU request.
type element struct {
	seq  uint64
	addr uint64
	bank int
	op   Op
	data uint32
	dest int
}

// LSU is the load/store unit. It accepts one request packet per cycle
// (scalar or vector), expands vector requests into their constituent
// element accesses against a banked Memory, and serializes any two
// elements accessed in back-to-back cycles on the same bank by holding
// the second for one extra cycle. Scalar loads/stores take a single cycle baseline.
type LSU struct {
	id   sim.ComponentID
	name string

	In, Out   *sim.Port
	Period    uint64
	StartTime uint64

	mem *Memory

	queue    []element
	lastBank int
	haveLast bool

	scheduler  *sim.Scheduler
	bankStalls uint64

	// Sink, when set, receives a MEMORY_WRITE trace event per store.
	Sink trace.Sink
}

// NewLSU constructs an LSU reading requests from in, writing responses to
// out, and backed by mem.
func NewLSU(name string, in, out *sim.Port, mem *Memory, period uint64) *LSU {
	return &LSU{
		id:     sim.NewComponentID(),
		name:   name,
		In:     in,
		Out:    out,
		Period: period,
		mem:    mem,
		Sink:   trace.Discard,
	}
}

func (l *LSU) ID() sim.ComponentID { return l.id }
func (l *LSU) Name() string        { return l.name }

func (l *LSU) Initialize(s *sim.Scheduler) {
	l.scheduler = s
	_, _ = s.ScheduleAt(l.StartTime, l.tick, sim.PriorityTick, l.name+".tick")
}

func (l *LSU) Reset() {
	l.queue = nil
	l.haveLast = false
	l.bankStalls = 0
}

// BankStalls reports how many cycles an element access was held back
// because it collided with the bank used by the element accessed in the
// cycle before.
func (l *LSU) BankStalls() uint64 { return l.bankStalls }

func (l *LSU) tick() {
	l.advance()
	_, _ = l.scheduler.ScheduleAt(l.scheduler.CurrentTime()+l.Period, l.tick, sim.PriorityTick, l.name+".tick")
}

func (l *LSU) advance() {
	if len(l.queue) == 0 {
		// An idle cycle separates the next access from the previous one.
		l.haveLast = false
		l.admit()
		return
	}

	next := l.queue[0]
	if l.haveLast && next.bank == l.lastBank {
		l.bankStalls++
		l.haveLast = false // the stall itself decouples this element from the prior bank
		return
	}

	if !l.Out.Empty() {
		return
	}

	resp := l.access(next)
	_ = l.Out.Write(resp)
	l.lastBank = next.bank
	l.haveLast = true
	l.queue = l.queue[1:]

	if len(l.queue) == 0 {
		l.admit()
	}
}

// admit reads one request packet, if present, and expands it into the
// element queue.
func (l *LSU) admit() {
	pkt, ok := l.In.Peek()
	if !ok {
		return
	}
	l.In.Read()
	elems := expand(pkt)
	for i := range elems {
		elems[i].bank = l.mem.BankOf(elems[i].addr)
	}
	l.queue = append(l.queue, elems...)
}

// access performs one element's memory operation, failing the response
// (Success=false) on a misaligned or out-of-range address rather than
// indexing into the backing store unchecked: bad addresses are reported
// via the response packet, never a panic.
func (l *LSU) access(e element) sim.Packet {
	resp := sim.Packet{
		Kind:     sim.KindLSUResponse,
		Sequence: e.seq,
		Address:  e.addr,
		Op:       e.op,
		Dest:     e.dest,
	}
	switch e.op {
	case OpLoad, OpVLoad:
		v, err := l.mem.ReadWord(e.addr)
		if err != nil {
			resp.Success = false
			return resp
		}
		resp.Data = v
		resp.Success = true
	case OpStore, OpVStore:
		if err := l.mem.WriteWord(e.addr, e.data); err != nil {
			resp.Success = false
			return resp
		}
		resp.Data = e.data
		resp.Success = true
		if l.Sink != nil {
			l.Sink.Emit(trace.Event{
				Timestamp: l.scheduler.CurrentTime(),
				Component: l.name,
				Kind:      trace.KindMemoryWrite,
				Message:   fmt.Sprintf("[%#x] <- %#x (bank %d)", e.addr, e.data, e.bank),
			})
		}
	}
	return resp
}

// expand turns a request packet into its constituent element accesses:
// one for a scalar load/store, Length of them (strided by Stride bytes)
// for a vector load/store.
func expand(req sim.Packet) []element {
	switch req.Op {
	case OpLoad, OpStore:
		return []element{{
			seq:  req.Sequence,
			addr: req.Address,
			op:   req.Op,
			data: req.Data,
			dest: req.Dest,
		}}
	case OpVLoad, OpVStore:
		n := req.Length
		if n <= 0 {
			n = 1
		}
		out := make([]element, 0, n)
		for i := 0; i < n; i++ {
			// A zero mask means unmasked; otherwise bit i gates lane i.
			if req.Mask != 0 && req.Mask&(1<<uint(i)) == 0 {
				continue
			}
			out = append(out, element{
				seq:  req.Sequence,
				addr: uint64(int64(req.Address) + int64(i)*req.Stride),
				op:   req.Op,
				data: req.Data,
				dest: req.Dest,
			})
		}
		return out
	default:
		return nil
	}
}
