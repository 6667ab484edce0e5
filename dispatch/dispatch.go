package dispatch

import (
	"github.com/nandsim/corevm/regfile"
	"github.com/nandsim/corevm/sim"
)

// Ports routes a decoded instruction's command packet to its functional
// unit's input port. The core carries one ALU per issue lane, so ALUs is
// a slice; the other units are singletons.
type Ports struct {
	ALUs []*sim.Port
	BRU  *sim.Port
	MLU  *sim.Port
	DVU  *sim.Port
	LSU  *sim.Port
}

func (p Ports) forUnit(u Unit) *sim.Port {
	switch u {
	case UnitALU:
		// Pick the first ALU whose command slot is free; with every slot
		// occupied, return one anyway so the caller observes it as busy.
		for _, ap := range p.ALUs {
			if !ap.Busy() {
				return ap
			}
		}
		if len(p.ALUs) > 0 {
			return p.ALUs[0]
		}
		return nil
	case UnitBRU:
		return p.BRU
	case UnitMLU:
		return p.MLU
	case UnitDVU:
		return p.DVU
	case UnitLSU:
		return p.LSU
	default:
		return nil
	}
}

// Dispatcher issues decoded instructions in program order onto their
// target units' command ports, one batch per cycle (see DispatchBatch)
// or one at a time via TryDispatch. Per instruction it enforces a RAW
// hazard check against the register scoreboard, a resource check that
// the target port has a free slot, and a control-flow fence that holds
// dispatch after any branch/jump until that instruction's resolution has
// been observed, since this core does not speculate past unresolved
// control flow.
type Dispatcher struct {
	regs  *regfile.File
	ports Ports

	fenced  bool
	seq     uint64
	stalled uint64
}

// New constructs a Dispatcher that reads/writes regs' scoreboard and
// issues onto ports.
func New(regs *regfile.File, ports Ports) *Dispatcher {
	return &Dispatcher{regs: regs, ports: ports}
}

// Reset clears the fence and sequence counter.
func (d *Dispatcher) Reset() {
	d.fenced = false
	d.seq = 0
	d.stalled = 0
}

// StalledCycles reports how many dispatch attempts were declined, by
// TryDispatch or by DispatchBatch's lane rules.
func (d *Dispatcher) StalledCycles() uint64 { return d.stalled }

// Release clears the control-flow fence once a previously dispatched
// branch/jump/system instruction has resolved. Callers wire this to the
// resolving unit's output.
func (d *Dispatcher) Release() { d.fenced = false }

// TryDispatch attempts to issue one decoded instruction this cycle. It
// returns false (without side effects beyond the stall counter) if the
// control-flow fence is set, if any source register the instruction reads
// has a pending writer, or if the destination unit's port is occupied.
// On success it marks the destination register pending, raises the fence
// if the instruction is a control-flow op, and writes the command packet.
func (d *Dispatcher) TryDispatch(ins Decoded, src1, src2, src3 int32) bool {
	if d.fenced {
		d.stalled++
		return false
	}
	if d.hasRAWHazard(ins) {
		d.stalled++
		return false
	}
	port := d.ports.forUnit(ins.Unit)
	if port == nil || port.Busy() {
		d.stalled++
		return false
	}

	d.seq++
	cmd := commandPacket(ins, d.seq, src1, src2, src3)
	if port.Write(cmd) != nil {
		d.stalled++
		return false
	}

	if writesRegister(ins) && ins.Rd != 0 {
		d.regs.MarkPending(ins.Rd)
	}
	if isControlFlow(ins) {
		d.fenced = true
	}
	return true
}

// DispatchBatch attempts to issue up to len(batch) decoded instructions
// this cycle, one per lane, in program order, and returns how many were
// issued. operand resolves a register number to its current value. The
// batch is cut short by, in order of checking:
//
//   - in-order issue: once one lane fails to dispatch, no later lane may;
//   - lane-0 restriction: a system (CSR) or FENCE instruction may only
//     occupy lane 0, so one appearing in a later lane waits a cycle;
//   - long-unit exclusivity: at most one of MLU, DVU, LSU may receive a
//     command per cycle, whichever comes first in program order;
//   - control-flow fence: lanes after a branch/jump are held until the
//     next cycle, and the fence itself holds further dispatch until the
//     branch resolves.
func (d *Dispatcher) DispatchBatch(batch []Decoded, operand func(reg int) int32) int {
	issued := 0
	longUnitUsed := false
	for i, ins := range batch {
		if i > 0 && (ins.Opcode == OpcodeSystem || ins.Opcode == OpcodeFence) {
			d.stalled++
			break
		}
		if longUnit(ins.Unit) && longUnitUsed {
			d.stalled++
			break
		}
		src1 := operand(ins.Rs1)
		src2 := operand(ins.Rs2)
		if !d.TryDispatch(ins, src1, src2, 0) {
			break
		}
		issued++
		if longUnit(ins.Unit) {
			longUnitUsed = true
		}
		if isControlFlow(ins) {
			break
		}
	}
	return issued
}

// longUnit reports whether u is one of the units that may accept at most
// one command per cycle.
func longUnit(u Unit) bool {
	return u == UnitMLU || u == UnitDVU || u == UnitLSU
}

func (d *Dispatcher) hasRAWHazard(ins Decoded) bool {
	if ins.Rs1 != 0 && d.regs.Pending(ins.Rs1) {
		return true
	}
	if readsRs2(ins) && ins.Rs2 != 0 && d.regs.Pending(ins.Rs2) {
		return true
	}
	return false
}

func readsRs2(ins Decoded) bool {
	switch ins.Unit {
	case UnitBRU:
		return ins.Opcode == OpcodeBranch
	case UnitLSU:
		return ins.Opcode == OpcodeStore || ins.Opcode == OpcodeVStore
	default:
		return ins.Opcode == OpcodeALUReg || ins.Unit == UnitMLU || ins.Unit == UnitDVU
	}
}

func writesRegister(ins Decoded) bool {
	switch ins.Unit {
	case UnitBRU:
		return ins.Opcode == OpcodeJal || ins.Opcode == OpcodeJalr
	case UnitLSU:
		return ins.Opcode == OpcodeLoad || ins.Opcode == OpcodeVLoad
	default:
		return true
	}
}

func isControlFlow(ins Decoded) bool {
	return ins.Unit == UnitBRU
}

// commandPacket builds the command packet a functional unit expects from
// a decoded instruction and its resolved operand values. Rs1/Rs2 are
// resolved by the caller's register read (the dispatcher itself does not
// read operand values; it only guards hazards and routes).
func commandPacket(ins Decoded, seq uint64, src1, src2, src3 int32) sim.Packet {
	pkt := sim.Packet{
		Sequence: seq,
		PC:       ins.PC,
		Op:       ins.Op,
		Dest:     ins.Rd,
		Src1:     src1,
		Src2:     src2,
		Src3:     src3,
	}
	switch ins.Unit {
	case UnitLSU:
		pkt.Kind = sim.KindLSURequest
		pkt.Length = ins.Length
		pkt.Stride = ins.Stride
		// The effective address is base-register-relative (rs1+imm), same
		// as JALR's target and every real load/store instruction's.
		pkt.Address = uint64(int64(src1) + int64(ins.Imm))
		if ins.Opcode == OpcodeStore || ins.Opcode == OpcodeVStore {
			pkt.Data = uint32(src2)
		}
	case UnitBRU:
		pkt.Kind = sim.KindBRUCommand
		if ins.Opcode == OpcodeJalr {
			// JALR's target is base-register-relative (rs1+imm), unlike
			// every other branch/jump op, which is PC-relative.
			pkt.Target = uint64(int64(src1) + int64(ins.Imm))
		} else {
			pkt.Target = uint64(int64(ins.PC) + int64(ins.Imm))
		}
	case UnitMLU:
		pkt.Kind = sim.KindMLUCommand
	case UnitDVU:
		pkt.Kind = sim.KindDVUCommand
	default:
		pkt.Kind = sim.KindALUCommand
		if ins.Opcode == OpcodeALUImm {
			// I-type ALU ops take the immediate as their second operand.
			pkt.Src2 = ins.Imm
		}
	}
	return pkt
}
