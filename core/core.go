// Package core wires the dispatcher, register file, and functional units
// into one in-order pipeline and drives it cycle by cycle.
package core

import (
	"fmt"

	"github.com/nandsim/corevm/dispatch"
	"github.com/nandsim/corevm/regfile"
	"github.com/nandsim/corevm/sim"
	"github.com/nandsim/corevm/trace"
	"github.com/nandsim/corevm/units"
)

// Core is one complete pipeline: fetch/decode/dispatch feeding one ALU
// per issue lane plus the BRU, MLU, DVU, and LSU, with a shared register
// file and scoreboard.
type Core struct {
	ticking *sim.TickingComponent

	cfg  Config
	mem  *units.Memory
	regs *regfile.File
	disp *dispatch.Dispatcher

	alus []*units.ALU
	bru  *units.BRU
	mlu  *units.MLU
	dvu  *units.DVU
	lsu  *units.LSU

	aluIns, aluOuts []*sim.Port
	bruIn, bruOut   *sim.Port
	mluIn, mluOut   *sim.Port
	dvuIn, dvuOut   *sim.Port
	lsuIn, lsuOut   *sim.Port

	program []uint32
	pc      uint64

	sink trace.Sink

	stats Stats
}

// Stats accumulates the retired-instruction and stall counters that
// PrintStatistics reports.
type Stats struct {
	Cycles         uint64
	Issued         uint64
	Retired        uint64
	DispatchStalls uint64
	Invalid        uint64
	DivByZero      uint64

	BranchesResolved     uint64
	BranchesTaken        uint64
	BranchesMispredicted uint64
	SystemExceptions     uint64
}

// New builds a Core named name from cfg, with one ALU per issue lane so
// independent simple ops can issue side by side.
func New(name string, cfg Config) *Core {
	owner := sim.NewComponentID()
	c := &Core{
		cfg:  cfg,
		mem:  units.NewMemory(cfg.MemorySize, cfg.MemoryBanks),
		regs: regfile.New(),
		sink: cfg.Sink,

		bruIn:  sim.NewPort(name+".bru.in", sim.DirIn, owner),
		bruOut: sim.NewPort(name+".bru.out", sim.DirOut, owner),
		mluIn:  sim.NewPort(name+".mlu.in", sim.DirIn, owner),
		mluOut: sim.NewPort(name+".mlu.out", sim.DirOut, owner),
		dvuIn:  sim.NewPort(name+".dvu.in", sim.DirIn, owner),
		dvuOut: sim.NewPort(name+".dvu.out", sim.DirOut, owner),
		lsuIn:  sim.NewPort(name+".lsu.in", sim.DirIn, owner),
		lsuOut: sim.NewPort(name+".lsu.out", sim.DirOut, owner),
	}

	lanes := cfg.Lanes
	if lanes < 1 {
		lanes = 1
	}
	for i := 0; i < lanes; i++ {
		aluName := fmt.Sprintf("%s.alu%d", name, i)
		in := sim.NewPort(aluName+".in", sim.DirIn, owner)
		out := sim.NewPort(aluName+".out", sim.DirOut, owner)
		c.aluIns = append(c.aluIns, in)
		c.aluOuts = append(c.aluOuts, out)
		c.alus = append(c.alus, units.NewALU(aluName, in, out, cfg.Period))
	}

	c.bru = units.NewBRU(name+".bru", c.bruIn, c.bruOut)
	c.mlu = units.NewMLU(name+".mlu", c.mluIn, c.mluOut)
	c.dvu = units.NewDVU(name+".dvu", c.dvuIn, c.dvuOut)
	c.lsu = units.NewLSU(name+".lsu", c.lsuIn, c.lsuOut, c.mem, cfg.Period)
	c.mlu.Sink = c.sink
	c.lsu.Sink = c.sink

	c.disp = dispatch.New(c.regs, dispatch.Ports{
		ALUs: c.aluIns, BRU: c.bruIn, MLU: c.mluIn, DVU: c.dvuIn, LSU: c.lsuIn,
	})

	for _, alu := range c.alus {
		alu.StartTime = cfg.StartTime
	}
	c.lsu.StartTime = cfg.StartTime

	c.ticking = sim.NewTickingComponent(name, cfg.Period)
	c.ticking.StartTime = cfg.StartTime
	c.ticking.TickFunc = c.cycle
	return c
}

func (c *Core) ID() sim.ComponentID { return c.ticking.ID() }
func (c *Core) Name() string        { return c.ticking.Name() }

// Initialize registers the Core and its self-scheduling functional units
// with the scheduler.
func (c *Core) Initialize(s *sim.Scheduler) {
	for _, alu := range c.alus {
		alu.Initialize(s)
	}
	c.lsu.Initialize(s)
	c.ticking.Initialize(s)
}

// Reset clears all pipeline state: registers, scoreboard, dispatcher
// fence, functional-unit slots, and statistics.
func (c *Core) Reset() {
	c.regs.Reset()
	c.disp.Reset()
	for _, alu := range c.alus {
		alu.Reset()
	}
	c.bru.Reset()
	c.mlu.Reset()
	c.dvu.Reset()
	c.lsu.Reset()
	c.pc = 0
	c.stats = Stats{}
	c.ticking.Reset()
}

// Inject loads a program (a sequence of encoded instruction words) and
// resets the program counter to its start.
func (c *Core) Inject(program []uint32) {
	c.program = program
	c.pc = 0
}

// InjectData writes raw bytes into the core's memory starting at addr,
// for seeding data segments ahead of a run.
func (c *Core) InjectData(addr uint64, data []byte) {
	for i, b := range data {
		c.mem.Write8(addr+uint64(i), b)
	}
}

// ReadRegister returns the current value of general-purpose register r.
func (c *Core) ReadRegister(r int) uint32 { return c.regs.Read(r) }

// WriteRegister sets general-purpose register r to v, bypassing the
// scoreboard; intended for test setup, not for modeling instruction
// effects.
func (c *Core) WriteRegister(r int, v uint32) { c.regs.Write(r, v) }

// PC returns the current program counter.
func (c *Core) PC() uint64 { return c.pc }

// Stats returns a snapshot of the core's run statistics.
func (c *Core) Stats() Stats {
	s := c.stats
	s.DivByZero = c.dvu.DivByZeroCount()
	s.BranchesResolved = c.bru.Resolved()
	s.BranchesTaken = c.bru.Taken()
	s.BranchesMispredicted = c.bru.Mispredicted()
	s.SystemExceptions = c.bru.SystemExceptions()
	return s
}

// PrintStatistics returns a short human-readable run summary.
func (c *Core) PrintStatistics() string {
	stats := c.Stats()
	var aluCompleted uint64
	for _, alu := range c.alus {
		aluCompleted += alu.Completed()
	}
	return fmt.Sprintf(
		"cycles=%d issued=%d retired=%d dispatch_stalls=%d invalid=%d div_by_zero=%d alu_completed=%d lsu_bank_stalls=%d branches_resolved=%d branches_taken=%d branches_mispredicted=%d system_exceptions=%d",
		stats.Cycles, stats.Issued, stats.Retired, stats.DispatchStalls, stats.Invalid, stats.DivByZero,
		aluCompleted, c.lsu.BankStalls(),
		stats.BranchesResolved, stats.BranchesTaken, stats.BranchesMispredicted, stats.SystemExceptions,
	)
}

// cycle is the Core's per-tick action: fetch+dispatch up to one batch of
// instructions, advance the fixed-latency pipelines, and drain completed
// results into the register file. With result forwarding enabled the
// drain happens before dispatch, so a value written back this cycle is
// already observable by this cycle's operand reads; without it, dispatch
// sees only last cycle's register state.
func (c *Core) cycle() {
	c.stats.Cycles++

	if c.cfg.ForwardResult {
		c.bru.Tick()
		c.mlu.Tick()
		c.dvu.Tick()
		c.drainResults()
		c.fetchAndDispatch()
	} else {
		c.fetchAndDispatch()
		c.bru.Tick()
		c.mlu.Tick()
		c.dvu.Tick()
		c.drainResults()
	}

	c.stats.DispatchStalls = c.disp.StalledCycles()
}

func (c *Core) drainResults() {
	for _, out := range c.aluOuts {
		c.writeback(out)
	}
	c.writebackBranch()
	c.writeback(c.mluOut)
	c.writeback(c.dvuOut)
	c.writebackLoad()
}

func (c *Core) fetchAndDispatch() {
	lanes := c.cfg.Lanes
	if lanes < 1 {
		lanes = 1
	}

	batch := make([]dispatch.Decoded, 0, lanes)
	pc := c.pc
	for len(batch) < lanes {
		idx := pc / 4
		if idx >= uint64(len(c.program)) {
			break
		}
		ins, err := dispatch.Decode(c.program[idx], pc)
		if err != nil {
			// An unimplemented/unclassifiable opcode still retires, as a
			// no-op, rather than stalling fetch forever. It only does so
			// from the front of the batch, so instructions never retire
			// out of order around it.
			if len(batch) == 0 {
				c.stats.Invalid++
				c.sink.Emit(trace.Event{Timestamp: c.stats.Cycles, Component: c.Name(), Kind: trace.KindWarning, Message: err.Error()})
				c.pc += 4
			}
			break
		}
		batch = append(batch, ins)
		pc += 4
	}
	if len(batch) == 0 {
		return
	}

	issued := c.disp.DispatchBatch(batch, func(r int) int32 {
		return int32(c.regs.Read(r))
	})
	c.stats.Issued += uint64(issued)
	c.pc += uint64(issued) * 4
}

func (c *Core) writeback(port *sim.Port) {
	pkt, ok := port.Read()
	if !ok {
		return
	}
	c.stats.Retired++
	if pkt.Dest != 0 {
		c.regs.Write(pkt.Dest, resultValue(pkt))
		c.regs.ClearPending(pkt.Dest)
	}
}

// resultValue picks whichever of a result packet's scalar fields its
// producing op actually populated, since different functional units
// encode a computed value as an integer, a raw float32 bit pattern, or a
// boolean.
func resultValue(pkt sim.Packet) uint32 {
	if pkt.Bool {
		return 1
	}
	if pkt.Result32 != 0 {
		return pkt.Result32
	}
	return uint32(pkt.Int64)
}

func (c *Core) writebackLoad() {
	pkt, ok := c.lsuOut.Read()
	if !ok {
		return
	}
	c.stats.Retired++
	if pkt.Dest != 0 && (pkt.Op == units.OpLoad || pkt.Op == units.OpVLoad) {
		c.regs.Write(pkt.Dest, pkt.Data)
		c.regs.ClearPending(pkt.Dest)
	}
}

func (c *Core) writebackBranch() {
	pkt, ok := c.bruOut.Read()
	if !ok {
		return
	}
	c.stats.Retired++
	if pkt.LinkValid && pkt.Dest != 0 {
		c.regs.Write(pkt.Dest, uint32(pkt.LinkData))
		c.regs.ClearPending(pkt.Dest)
	}
	if pkt.Taken {
		c.pc = pkt.Target
	}
	c.disp.Release()
}
