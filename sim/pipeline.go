package sim

// Transform maps an input packet to a stage's output packet.
type Transform func(Packet) Packet

// StallPredicate reports whether a stage's packet must remain in place
// this cycle. Multi-cycle holds like the divider's bit-iteration wait are
// expressed this way.
type StallPredicate func(*Packet) bool

// Stage is one slot in a Pipeline.
type Stage struct {
	Name      string
	Transform Transform
	StallPred StallPredicate

	slot *Packet
}

func alwaysAdvance(*Packet) bool { return false }

// NewStage creates a stage. A nil transform is treated as identity and a
// nil stall predicate as "never stall".
func NewStage(name string, transform Transform, stall StallPredicate) Stage {
	if transform == nil {
		transform = func(p Packet) Packet { return p }
	}
	if stall == nil {
		stall = alwaysAdvance
	}
	return Stage{Name: name, Transform: transform, StallPred: stall}
}

// Empty reports whether the stage currently holds no packet.
func (s *Stage) Empty() bool { return s.slot == nil }

// Peek returns the stage's packet without removing it.
func (s *Stage) Peek() (Packet, bool) {
	if s.slot == nil {
		return Packet{}, false
	}
	return *s.slot, true
}

// Pipeline is a multi-stage ticking component: stage 0 is fed from an
// input port, stage N-1's output is sampled to an output port, and a
// packet advances from stage i-1 to stage i only when stage i is empty
// and stage i-1's stall predicate, evaluated on the packet it holds, does
// not fire; stage i's predicate is not consulted for that move.
type Pipeline struct {
	Name   string
	Stages []Stage
	In     *Port
	Out    *Port

	stallCount uint64
}

// NewPipeline creates a pipeline with the given ordered stages, fed by in
// and draining to out.
func NewPipeline(name string, in, out *Port, stages []Stage) *Pipeline {
	return &Pipeline{Name: name, Stages: stages, In: in, Out: out}
}

// Tick advances the pipeline by one cycle, executing strictly
// right-to-left so a stage never observes this cycle's upstream movement.
func (p *Pipeline) Tick() {
	n := len(p.Stages)
	if n == 0 {
		return
	}

	// 1. Sample the last stage's output to the output port, if its own
	// stall predicate permits writeback.
	last := &p.Stages[n-1]
	if pkt, ok := last.Peek(); ok && p.Out.Empty() {
		if last.StallPred(&pkt) {
			p.stallCount++
		} else {
			_ = p.Out.Write(pkt)
			last.slot = nil
		}
	}

	// 2. Stages N-1 .. 1: advance from i-1 into i.
	for i := n - 1; i >= 1; i-- {
		cur := &p.Stages[i]
		prev := &p.Stages[i-1]
		if !cur.Empty() {
			continue
		}
		pkt, ok := prev.Peek()
		if !ok {
			continue
		}
		// A stage advances only if its own stall predicate (evaluated
		// on the packet it currently holds) is false — this is what
		// lets DVU's division stage retain a packet across several
		// cycles without the pipeline dropping or duplicating it.
		if prev.StallPred(&pkt) {
			p.stallCount++
			continue
		}
		out := cur.Transform(pkt)
		cur.slot = &out
		prev.slot = nil
	}

	// 3. Stage 0: admit from the input port.
	first := &p.Stages[0]
	if first.Empty() {
		if pkt, ok := p.In.Read(); ok {
			out := first.Transform(pkt)
			first.slot = &out
		}
	}
}

// StallCount returns the number of stage-advance attempts blocked by a
// stall predicate since the last Reset.
func (p *Pipeline) StallCount() uint64 { return p.stallCount }

// Reset clears every stage's slot and the stall counter.
func (p *Pipeline) Reset() {
	for i := range p.Stages {
		p.Stages[i].slot = nil
	}
	p.stallCount = 0
}
