package units

import (
	"fmt"

	"github.com/nandsim/corevm/sim"
	"github.com/nandsim/corevm/trace"
)

// MLU is the three-stage 32x32->64 multiplier. Every op shares the same
// full-width multiply; the only difference between OpMulLow/OpMulHigh and
// friends is which half of the 64-bit product the result packet carries
// and whether operands are sign- or zero-extended before multiplying.
type MLU struct {
	pipeline *sim.Pipeline
	name     string

	// Sink, when set, receives an MLU_OUTPUT trace event per product.
	Sink trace.Sink
}

// NewMLU constructs an MLU reading commands from in and writing products
// to out.
func NewMLU(name string, in, out *sim.Port) *MLU {
	m := &MLU{name: name, Sink: trace.Discard}
	stages := []sim.Stage{
		sim.NewStage(name+".multiply", m.multiply, nil),
		sim.NewStage(name+".s1", nil, nil),
		sim.NewStage(name+".s2", nil, nil),
	}
	m.pipeline = sim.NewPipeline(name, in, out, stages)
	return m
}

func (m *MLU) Tick()              { m.pipeline.Tick() }
func (m *MLU) StallCount() uint64 { return m.pipeline.StallCount() }
func (m *MLU) Reset()             { m.pipeline.Reset() }

func (m *MLU) multiply(cmd sim.Packet) sim.Packet {
	out := cmd
	out.Kind = sim.KindMulResult

	var product uint64
	switch cmd.Op {
	case OpMulLow:
		product = uint64(int64(cmd.Src1) * int64(cmd.Src2))
		out.Result32 = uint32(product)
	case OpMulHigh:
		product = uint64(int64(cmd.Src1) * int64(cmd.Src2))
		out.Result32 = uint32(product >> 32)
	case OpMulHighU:
		product = uint64(uint32(cmd.Src1)) * uint64(uint32(cmd.Src2))
		out.Result32 = uint32(product >> 32)
	case OpMulHighSU:
		product = uint64(int64(cmd.Src1) * int64(uint32(cmd.Src2)))
		out.Result32 = uint32(product >> 32)
	}
	out.Result64 = product

	if m.Sink != nil {
		m.Sink.Emit(trace.Event{
			Timestamp: cmd.Timestamp,
			Component: m.name,
			Kind:      trace.KindMLUOutput,
			Message:   fmt.Sprintf("%d * %d = %#x -> x%d", cmd.Src1, cmd.Src2, product, cmd.Dest),
		})
	}
	return out
}
