package accel

import (
	"fmt"

	"github.com/nandsim/corevm/sim"
)

// Array is a Rows x Cols grid of systolic PEs, wired edge-to-edge with
// zero-latency sim.Wire connections: activations flow west-to-east along
// each row, weights flow north-to-south along each column. A row feeder
// drives each row's west boundary and a column feeder drives each
// column's north boundary, skewed so that, for every contraction index
// k, PE(r, c) observes A[r][k] and B[k][c] on the same cycle (see
// hopLatency below for the derivation this skew is built from).
type Array struct {
	Rows, Cols int

	pes     [][]*PE
	wires   []*sim.Wire
	rowFeed []*feeder
	colFeed []*feeder
}

// hopLatency is the number of cycles between a cell writing a value onto
// an output port during its own tick and the neighboring cell observing
// that value during one of its own ticks, for a zero-latency Wire: the
// wire's own propagate step (scheduled one period after the write) reads
// the value and schedules its delivery at PriorityDelayed, which lands
// after that same cycle's ticks have already run — so the earliest tick
// that can observe it is two cycles after the write. This array relies
// on that constant to compute its feeder skew; it is not a free
// parameter, just named for the derivation's sake.
const hopLatency = 2

// NewArray builds a Rows x Cols systolic array ticking every period
// cycles, with feeders pre-loaded to emit a,b's rows/columns once Feed
// is called.
func NewArray(name string, rows, cols int, period uint64) *Array {
	a := &Array{Rows: rows, Cols: cols}
	a.pes = make([][]*PE, rows)
	for r := 0; r < rows; r++ {
		a.pes[r] = make([]*PE, cols)
		for c := 0; c < cols; c++ {
			a.pes[r][c] = NewPE(fmt.Sprintf("%s.pe[%d][%d]", name, r, c), r, c, period)
		}
	}

	a.rowFeed = make([]*feeder, rows)
	a.colFeed = make([]*feeder, cols)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pe := a.pes[r][c]
			if c > 0 {
				left := a.pes[r][c-1]
				w := sim.NewWire(fmt.Sprintf("%s.h[%d][%d]", name, r, c), left.EastOut, pe.WestIn, 0)
				a.wires = append(a.wires, w)
			}
			if r > 0 {
				up := a.pes[r-1][c]
				w := sim.NewWire(fmt.Sprintf("%s.v[%d][%d]", name, r, c), up.SouthOut, pe.NorthIn, 0)
				a.wires = append(a.wires, w)
			}
		}
	}
	return a
}

// Feed attaches feeders that stream a's rows into the array's west
// boundary and b's columns into its north boundary. a must be Rows x K
// and b must be K x Cols; Feed does not validate this — MatMul does.
func (a *Array) Feed(name string, period uint64, aRows [][]int32, bCols [][]int32) {
	for r := 0; r < a.Rows; r++ {
		delay := 2 * uint64(r)
		f := newFeeder(fmt.Sprintf("%s.rowfeed[%d]", name, r), aRows[r], delay, period)
		a.rowFeed[r] = f
		a.wires = append(a.wires, sim.NewWire(fmt.Sprintf("%s.h[%d][0]", name, r), f.Out, a.pes[r][0].WestIn, 0))
	}
	for c := 0; c < a.Cols; c++ {
		delay := 2 * uint64(c)
		f := newFeeder(fmt.Sprintf("%s.colfeed[%d]", name, c), bCols[c], delay, period)
		a.colFeed[c] = f
		a.wires = append(a.wires, sim.NewWire(fmt.Sprintf("%s.v[0][%d]", name, c), f.Out, a.pes[0][c].NorthIn, 0))
	}
}

// Initialize starts every cell, wire, and feeder ticking against s.
func (a *Array) Initialize(s *sim.Scheduler) {
	for _, row := range a.pes {
		for _, pe := range row {
			pe.Initialize(s)
		}
	}
	for _, w := range a.wires {
		w.Initialize(s)
	}
	for _, f := range a.rowFeed {
		if f != nil {
			f.Initialize(s)
		}
	}
	for _, f := range a.colFeed {
		if f != nil {
			f.Initialize(s)
		}
	}
}

// Reset clears every cell's accumulator, every wire's buffered state, and
// every feeder's send position.
func (a *Array) Reset() {
	for _, row := range a.pes {
		for _, pe := range row {
			pe.Reset()
		}
	}
	for _, w := range a.wires {
		w.Reset()
	}
	for _, f := range a.rowFeed {
		if f != nil {
			f.Reset()
		}
	}
	for _, f := range a.colFeed {
		if f != nil {
			f.Reset()
		}
	}
}

// SettleTime returns the cycle by which PE(rows-1, cols-1) has observed
// its final (depth-1)'th operand pair, for a contraction depth k terms
// long, given the feeder skew NewArray/Feed establish. Successive operand
// pairs reach a cell every second cycle, because a boundary wire cannot
// hand over a value while the previous one still sits in the cell's port.
func SettleTime(rows, cols, depth int) uint64 {
	return uint64(2*(rows-1)+2*(cols-1)+hopLatency) + uint64(2*(depth-1))
}

// Result reads cell (r, c)'s accumulated product sum.
func (a *Array) Result(r, c int) int64 { return a.pes[r][c].Result() }
