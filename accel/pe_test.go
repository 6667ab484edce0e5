package accel

import (
	"testing"

	"github.com/nandsim/corevm/sim"
)

func TestPEAccumulatesAndForwards(t *testing.T) {
	pe := NewPE("pe", 0, 0, 1)

	_ = pe.WestIn.Write(sim.Packet{Kind: sim.KindScalar, Int64: 3})
	_ = pe.NorthIn.Write(sim.Packet{Kind: sim.KindScalar, Int64: 4})

	pe.tick()

	if got := pe.Result(); got != 12 {
		t.Fatalf("after one pair: got acc=%d, want 12", got)
	}

	east, ok := pe.EastOut.Read()
	if !ok || east.Int64 != 3 {
		t.Fatalf("expected activation 3 forwarded east, got %+v ok=%v", east, ok)
	}
	south, ok := pe.SouthOut.Read()
	if !ok || south.Int64 != 4 {
		t.Fatalf("expected weight 4 forwarded south, got %+v ok=%v", south, ok)
	}

	_ = pe.WestIn.Write(sim.Packet{Kind: sim.KindScalar, Int64: 5})
	_ = pe.NorthIn.Write(sim.Packet{Kind: sim.KindScalar, Int64: 6})
	pe.tick()

	if got := pe.Result(); got != 12+30 {
		t.Fatalf("after second pair: got acc=%d, want %d", got, 12+30)
	}
}

func TestPESkipsAccumulationWithoutBothOperands(t *testing.T) {
	pe := NewPE("pe", 0, 0, 1)
	_ = pe.WestIn.Write(sim.Packet{Kind: sim.KindScalar, Int64: 100})

	pe.tick()

	if got := pe.Result(); got != 0 {
		t.Fatalf("expected no accumulation with only one operand, got %d", got)
	}
	if _, ok := pe.EastOut.Read(); !ok {
		t.Fatalf("expected the lone activation still forwarded east")
	}
}
