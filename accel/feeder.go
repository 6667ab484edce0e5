package accel

import "github.com/nandsim/corevm/sim"

// feeder is a synthetic upstream cell that drains a fixed sequence of
// scalar values onto its Out port, at most one per cycle and only while
// Out is empty, holding back its first write until startDelay cycles
// have elapsed. It is the diagonal-skew
// source a systolic array needs at its row/column boundaries: without
// staggering each row's and column's start time, a value that only
// crosses a few hops west-to-east would arrive at a cell before the
// value it must be multiplied against, which has further to travel
// south-to-north (or vice versa).
type feeder struct {
	ticking *sim.TickingComponent

	Out *sim.Port

	values     []int32
	startDelay uint64
	cycle      uint64
	sent       int
}

func newFeeder(name string, values []int32, startDelay, period uint64) *feeder {
	owner := sim.NewComponentID()
	f := &feeder{
		Out:        sim.NewPort(name+".out", sim.DirOut, owner),
		values:     values,
		startDelay: startDelay,
	}
	f.ticking = sim.NewTickingComponent(name, period)
	f.ticking.TickFunc = f.tick
	return f
}

func (f *feeder) ID() sim.ComponentID         { return f.ticking.ID() }
func (f *feeder) Name() string                { return f.ticking.Name() }
func (f *feeder) Initialize(s *sim.Scheduler) { f.ticking.Initialize(s) }

func (f *feeder) Reset() {
	f.cycle = 0
	f.sent = 0
	f.ticking.Reset()
}

func (f *feeder) tick() {
	if f.cycle >= f.startDelay && f.sent < len(f.values) && f.Out.Empty() {
		_ = f.Out.Write(sim.Packet{Kind: sim.KindScalar, Valid: true, Int64: int64(f.values[f.sent])})
		f.sent++
	}
	f.cycle++
}
