package core

import (
	"testing"

	"github.com/nandsim/corevm/prog"
	"github.com/nandsim/corevm/sim"
)

// encodeRType builds an R-type instruction word: opcode in bits[0:6], rd
// in [7:11], funct3 in [12:14], rs1 in [15:19], rs2 in [20:24], funct7 in
// [25:31].
func encodeRType(opcode, funct3, funct7 uint32, rd, rs1, rs2 int) uint32 {
	return opcode | uint32(rd)<<7 | funct3<<12 | uint32(rs1)<<15 | uint32(rs2)<<20 | funct7<<25
}

func TestCoreExecutesAnAddInstruction(t *testing.T) {
	sched := sim.NewScheduler(nil)
	cfg := NewConfig(WithPeriod(1), WithMemory(4096, 4))
	c := New("core0", cfg)

	c.WriteRegister(2, 10)
	c.WriteRegister(3, 20)

	word := encodeRType(0x33 /*OpcodeALUReg*/, 0 /*add*/, 0, 1, 2, 3)
	c.Inject([]uint32{word})
	c.Initialize(sched)

	sched.RunUntil(2)

	if got := c.ReadRegister(1); got != 30 {
		t.Fatalf("expected x1 = 30 after add, got %d", got)
	}
	if c.Stats().Issued != 1 {
		t.Fatalf("expected exactly one instruction issued, got %d", c.Stats().Issued)
	}
}

func TestCoreJalrTargetsRegisterPlusImm(t *testing.T) {
	// JALR through rs1=0x501 must redirect pc to rs1&~1=0x500 and link
	// to pc+4, not to some pc-relative offset.
	sched := sim.NewScheduler(nil)
	cfg := NewConfig(WithPeriod(1), WithMemory(4096, 4))
	c := New("core0", cfg)

	c.WriteRegister(2, 0x501)
	c.Inject([]uint32{prog.JALR(1, 2, 0)})
	c.Initialize(sched)

	sched.RunUntil(6)

	if got := c.PC(); got != 0x500 {
		t.Fatalf("expected pc redirected to 0x500 after jalr, got %#x", got)
	}
	if got := c.ReadRegister(1); got != 4 {
		t.Fatalf("expected x1 (link register) = 4, got %#x", got)
	}
}

func TestCoreExecutesLiteralAddProgram(t *testing.T) {
	// ADDI x1, x0, 10; ADDI x2, x0, 5; ADD x3, x1, x2 — as raw words.
	sched := sim.NewScheduler(nil)
	cfg := NewConfig(WithPeriod(1), WithMemory(4096, 4))
	c := New("core0", cfg)

	c.Inject([]uint32{0x00A00093, 0x00500113, 0x002081B3})
	c.Initialize(sched)

	sched.RunUntil(12)

	if got := c.ReadRegister(3); got != 15 {
		t.Fatalf("expected x3 = 15 after the add chain, got %d", got)
	}
	if got := c.ReadRegister(1); got != 10 {
		t.Fatalf("expected x1 = 10, got %d", got)
	}
	if got := c.ReadRegister(2); got != 5 {
		t.Fatalf("expected x2 = 5, got %d", got)
	}
}

func TestCoreTakesABranchWhenOperandsAreEqual(t *testing.T) {
	sched := sim.NewScheduler(nil)
	cfg := NewConfig(WithPeriod(1), WithMemory(4096, 4))
	c := New("core0", cfg)

	c.WriteRegister(1, 7)
	c.WriteRegister(2, 7)
	c.Inject([]uint32{prog.BEQ(1, 2, 0x100)})
	c.Initialize(sched)

	sched.RunUntil(6)

	if got := c.PC(); got != 0x100 {
		t.Fatalf("expected pc redirected to 0x100 by the taken branch, got %#x", got)
	}
	stats := c.Stats()
	if stats.BranchesResolved != 1 || stats.BranchesTaken != 1 {
		t.Fatalf("expected 1 resolved, 1 taken branch, got resolved=%d taken=%d",
			stats.BranchesResolved, stats.BranchesTaken)
	}
}

func TestCoreCountsDivideByZero(t *testing.T) {
	sched := sim.NewScheduler(nil)
	cfg := NewConfig(WithPeriod(1), WithMemory(4096, 4))
	c := New("core0", cfg)

	c.WriteRegister(1, 100)
	c.Inject([]uint32{prog.DIV(5, 1, 2)}) // x2 is zero
	c.Initialize(sched)

	sched.RunUntil(8)

	if got := c.ReadRegister(5); got != 0xFFFFFFFF {
		t.Fatalf("expected divide-by-zero to retire 0xFFFFFFFF, got %#x", got)
	}
	if got := c.Stats().DivByZero; got != 1 {
		t.Fatalf("expected DivByZero = 1, got %d", got)
	}
}

func TestCoreIssuesTwoLanesInOneCycle(t *testing.T) {
	sched := sim.NewScheduler(nil)
	cfg := NewConfig(WithPeriod(1), WithLanes(2), WithMemory(4096, 4))
	c := New("core0", cfg)

	c.Inject([]uint32{
		prog.ADDI(1, 0, 10),
		prog.ADDI(2, 0, 20),
	})
	c.Initialize(sched)

	sched.RunUntil(0) // exactly one core cycle

	if got := c.Stats().Issued; got != 2 {
		t.Fatalf("expected both independent instructions to issue in the first cycle, got %d", got)
	}
}

func TestCoreForwardingShortensRAWStalls(t *testing.T) {
	run := func(forward bool) (uint32, uint64) {
		sched := sim.NewScheduler(nil)
		cfg := NewConfig(WithPeriod(1), WithMemory(4096, 4), WithForwarding(forward))
		c := New("core0", cfg)
		c.Inject([]uint32{
			prog.ADDI(1, 0, 10),
			prog.ADD(2, 1, 1),
		})
		c.Initialize(sched)
		sched.RunUntil(12)
		return c.ReadRegister(2), c.Stats().DispatchStalls
	}

	sum, stalls := run(false)
	if sum != 20 {
		t.Fatalf("expected x2 = 20 without forwarding, got %d", sum)
	}
	fwdSum, fwdStalls := run(true)
	if fwdSum != 20 {
		t.Fatalf("expected x2 = 20 with forwarding, got %d", fwdSum)
	}
	if fwdStalls >= stalls {
		t.Fatalf("expected forwarding to shorten the RAW stall, got %d (forwarding) vs %d", fwdStalls, stalls)
	}
}

func TestCoreResetClearsRegistersAndStats(t *testing.T) {
	sched := sim.NewScheduler(nil)
	cfg := NewConfig(WithPeriod(1), WithMemory(4096, 4))
	c := New("core0", cfg)

	c.WriteRegister(2, 1)
	c.WriteRegister(3, 1)
	word := encodeRType(0x33, 0, 0, 1, 2, 3)
	c.Inject([]uint32{word})
	c.Initialize(sched)
	sched.RunUntil(2)

	c.Reset()

	if c.ReadRegister(1) != 0 {
		t.Fatalf("expected registers cleared after Reset")
	}
	if c.Stats().Cycles != 0 {
		t.Fatalf("expected stats cleared after Reset")
	}
}
