package units

import "github.com/nandsim/corevm/sim"

// dvuIterations is the modeled restoring-division iteration count: how
// many extra cycles a non-trivial division stalls in stage 1 beyond the
// pipeline's baseline one-cycle-per-stage flow.
const dvuIterations = 4

// DVU is the three-stage integer divider. Stage 0 computes the quotient
// and remainder and classifies the divide-by-zero case. Stage 1 normally
// holds the command for dvuIterations extra cycles to model restoring
// division's iterative nature, but divide-by-zero takes a fast path with
// no stall since there is no division to iterate. Stage 2 carries the
// result to the output port.
type DVU struct {
	pipeline *sim.Pipeline

	lastSeq   uint64
	haveSeq   bool
	remaining int
	divByZero uint64
}

// NewDVU constructs a DVU reading commands from in and writing results to
// out.
func NewDVU(name string, in, out *sim.Port) *DVU {
	d := &DVU{}
	stages := []sim.Stage{
		sim.NewStage(name+".decode", d.divide, nil),
		sim.NewStage(name+".iterate", nil, d.stall),
		sim.NewStage(name+".s2", nil, nil),
	}
	d.pipeline = sim.NewPipeline(name, in, out, stages)
	return d
}

func (d *DVU) Tick()              { d.pipeline.Tick() }
func (d *DVU) StallCount() uint64 { return d.pipeline.StallCount() }

// DivByZeroCount returns the number of divide-by-zero commands this DVU
// has processed since the last Reset.
func (d *DVU) DivByZeroCount() uint64 { return d.divByZero }

func (d *DVU) Reset() {
	d.pipeline.Reset()
	d.haveSeq = false
	d.remaining = 0
	d.divByZero = 0
}

// stall implements the iterate stage's multi-cycle hold: the first time it
// sees a given command's sequence number it decides how many extra cycles
// to hold it for (zero for divide-by-zero), then counts down on every
// subsequent call for the same command.
func (d *DVU) stall(p *sim.Packet) bool {
	if !d.haveSeq || p.Sequence != d.lastSeq {
		d.lastSeq = p.Sequence
		d.haveSeq = true
		if p.Success {
			d.remaining = dvuIterations
		} else {
			d.remaining = 0
		}
	}
	if d.remaining > 0 {
		d.remaining--
		return true
	}
	return false
}

// divide computes the quotient/remainder for a division command. Success
// is false for divide-by-zero, in which case the result is the
// conventional all-ones quotient (0xFFFF_FFFF) instead of faulting, and
// the DVU's divide-by-zero counter increments.
func (d *DVU) divide(cmd sim.Packet) sim.Packet {
	out := cmd
	out.Kind = sim.KindScalar

	if cmd.Src2 == 0 {
		out.Success = false
		out.Int64 = -1
		d.divByZero++
		return out
	}
	out.Success = true

	switch cmd.Op {
	case OpDiv:
		q, _ := restoringDivide(abs32(cmd.Src1), abs32(cmd.Src2))
		// The quotient is negative exactly when the operand signs differ.
		if (cmd.Src1 < 0) != (cmd.Src2 < 0) {
			out.Int64 = int64(-int32(q))
		} else {
			out.Int64 = int64(int32(q))
		}
	case OpDivU:
		q, _ := restoringDivide(uint32(cmd.Src1), uint32(cmd.Src2))
		out.Int64 = int64(q)
	case OpRem:
		_, r := restoringDivide(abs32(cmd.Src1), abs32(cmd.Src2))
		// The remainder takes the sign of the dividend.
		if cmd.Src1 < 0 {
			out.Int64 = int64(-int32(r))
		} else {
			out.Int64 = int64(int32(r))
		}
	case OpRemU:
		_, r := restoringDivide(uint32(cmd.Src1), uint32(cmd.Src2))
		out.Int64 = int64(r)
	}
	return out
}

// restoringDivide is the unsigned restoring division the iterate stage
// models: one quotient bit per step, most significant first, with the
// partial remainder restored whenever the trial subtraction underflows.
// The hardware retires 8 of these steps per cycle, which is what the
// iterate stage's four-cycle hold corresponds to.
func restoringDivide(dividend, divisor uint32) (q, r uint32) {
	var rem uint64
	for i := 31; i >= 0; i-- {
		rem = rem<<1 | uint64((dividend>>uint(i))&1)
		if rem >= uint64(divisor) {
			rem -= uint64(divisor)
			q |= 1 << uint(i)
		}
	}
	return q, uint32(rem)
}

// abs32 returns v's absolute value as unsigned, well-defined for the
// most negative value too.
func abs32(v int32) uint32 {
	if v < 0 {
		return uint32(-int64(v))
	}
	return uint32(v)
}
