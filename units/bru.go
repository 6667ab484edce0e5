package units

import "github.com/nandsim/corevm/sim"

// BRU is the three-stage branch-resolution unit: stage 0 evaluates the
// condition and target, stages 1 and 2 simply carry the resolved result
// forward so every branch, taken or not, occupies the unit for a fixed
// three cycles regardless of how cheap its own comparison was.
type BRU struct {
	pipeline *sim.Pipeline

	resolved     uint64
	taken        uint64
	mispredicted uint64 // reserved: no predictor to mispredict yet
	sysExcepts   uint64
}

// NewBRU constructs a BRU reading command packets from in and writing
// resolution packets to out.
func NewBRU(name string, in, out *sim.Port) *BRU {
	b := &BRU{}
	stages := []sim.Stage{
		sim.NewStage(name+".decode", b.resolveBranch, nil),
		sim.NewStage(name+".s1", nil, nil),
		sim.NewStage(name+".s2", nil, nil),
	}
	b.pipeline = sim.NewPipeline(name, in, out, stages)
	return b
}

// Tick advances the unit by one cycle.
func (b *BRU) Tick() { b.pipeline.Tick() }

// StallCount reports how many cycles a resolution sat waiting for a
// downstream slot to free up.
func (b *BRU) StallCount() uint64 { return b.pipeline.StallCount() }

// Resolved reports how many commands the unit has resolved.
func (b *BRU) Resolved() uint64 { return b.resolved }

// Taken reports how many resolved branches/jumps redirected control flow.
func (b *BRU) Taken() uint64 { return b.taken }

// Mispredicted is reserved for a future predictor; it always reads 0.
func (b *BRU) Mispredicted() uint64 { return b.mispredicted }

// SystemExceptions reports how many ECALL-family commands the unit has
// resolved.
func (b *BRU) SystemExceptions() uint64 { return b.sysExcepts }

func (b *BRU) Reset() {
	b.pipeline.Reset()
	b.resolved = 0
	b.taken = 0
	b.mispredicted = 0
	b.sysExcepts = 0
}

// resolveBranch computes Taken, Target, and the link (return-address)
// fields for one branch/jump/control command, and updates the unit's
// counters.
func (b *BRU) resolveBranch(cmd sim.Packet) sim.Packet {
	out := cmd
	out.Kind = sim.KindBRUResult
	b.resolved++

	switch cmd.Op {
	case OpBeq:
		out.Taken = cmd.Src1 == cmd.Src2
	case OpBne:
		out.Taken = cmd.Src1 != cmd.Src2
	case OpBlt:
		out.Taken = cmd.Src1 < cmd.Src2
	case OpBge:
		out.Taken = cmd.Src1 >= cmd.Src2
	case OpBltu:
		out.Taken = uint32(cmd.Src1) < uint32(cmd.Src2)
	case OpBgeu:
		out.Taken = uint32(cmd.Src1) >= uint32(cmd.Src2)

	case OpJal:
		out.Taken = true
		out.LinkValid = true
		out.LinkData = cmd.PC + 4

	case OpJalr:
		out.Taken = true
		out.LinkValid = true
		out.LinkData = cmd.PC + 4
		// The target is the computed base+offset sum (caller populates
		// Target with src1+imm) with the low bit cleared per the
		// jump-and-link-register alignment rule.
		out.Target = cmd.Target &^ 1

	case OpEcall, OpEbreak, OpWfi:
		// These always effect; the target is simply the next sequential
		// instruction since none of them redirects control flow.
		out.Taken = true
		out.LinkValid = false
		out.Target = cmd.PC + 4
		b.sysExcepts++
		return out

	case OpMret, OpFault:
		// MRET's target (mepc) and a fault's target are supplied by the
		// caller in the command packet; this unit just carries it through.
		out.Taken = true
		out.LinkValid = false
		b.sysExcepts++
		return out

	default:
		out.Taken = false
	}

	if out.Taken {
		b.taken++
	}
	if cmd.Op != OpJalr {
		out.Target = cmd.Target
	}
	return out
}
