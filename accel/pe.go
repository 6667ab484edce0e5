// Package accel implements the GEMM operator and systolic array that
// exercise the core's simulation kernel as an external collaborator. It
// never touches dispatch, the register file, or the scalar functional
// units in package units: it is built purely out of sim.Port,
// sim.Connection, and sim.Component, the same way a real accelerator
// frontend would sit beside a CPU timing model rather than inside it.
package accel

import (
	"fmt"

	"github.com/nandsim/corevm/sim"
	"github.com/nandsim/corevm/trace"
)

// PE is one systolic processing element: a multiply-accumulate cell that
// passes its activation operand east and its weight operand south,
// unchanged, to its neighbors while folding their product into a local
// accumulator. It is a plain sim.TickingComponent, never folded into the
// core's own ALU pipeline.
type PE struct {
	ticking *sim.TickingComponent

	Row, Col int

	WestIn, NorthIn   *sim.Port
	EastOut, SouthOut *sim.Port

	// Sink, when set, receives a MAC trace event per accumulate.
	Sink trace.Sink

	acc int64
}

// NewPE constructs one array cell at (row, col), ticking every period
// cycles.
func NewPE(name string, row, col int, period uint64) *PE {
	owner := sim.NewComponentID()
	pe := &PE{
		Row: row,
		Col: col,

		WestIn:   sim.NewPort(name+".west.in", sim.DirIn, owner),
		NorthIn:  sim.NewPort(name+".north.in", sim.DirIn, owner),
		EastOut:  sim.NewPort(name+".east.out", sim.DirOut, owner),
		SouthOut: sim.NewPort(name+".south.out", sim.DirOut, owner),
	}
	pe.ticking = sim.NewTickingComponent(name, period)
	pe.ticking.TickFunc = pe.tick
	return pe
}

func (pe *PE) ID() sim.ComponentID          { return pe.ticking.ID() }
func (pe *PE) Name() string                 { return pe.ticking.Name() }
func (pe *PE) Initialize(s *sim.Scheduler)  { pe.ticking.Initialize(s) }

// Reset clears the accumulator. The neighbor ports are left to the owning
// Array/Wire to clear.
func (pe *PE) Reset() {
	pe.acc = 0
	pe.ticking.Reset()
}

// Result returns the cell's accumulated product sum.
func (pe *PE) Result() int64 { return pe.acc }

// tick is this cell's one per-cycle action: fold whatever
// activation/weight pair arrived this cycle into the accumulator, then
// forward both operands unchanged to the neighbors to the east and
// south. A ticking component's only side effect must be on ports it owns;
// PE.tick never reaches into a neighbor's state directly.
func (pe *PE) tick() {
	a, aok := pe.WestIn.Read()
	b, bok := pe.NorthIn.Read()
	if aok && bok {
		pe.acc += a.Int64 * b.Int64
		if pe.Sink != nil {
			pe.Sink.Emit(trace.Event{
				Timestamp: pe.ticking.LastTick,
				Component: pe.Name(),
				Kind:      trace.KindMAC,
				Message:   fmt.Sprintf("acc += %d * %d -> %d", a.Int64, b.Int64, pe.acc),
			})
		}
	}
	if aok && pe.EastOut.Empty() {
		_ = pe.EastOut.Write(a)
	}
	if bok && pe.SouthOut.Empty() {
		_ = pe.SouthOut.Write(b)
	}
}
