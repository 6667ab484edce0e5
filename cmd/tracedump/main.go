// Command tracedump re-runs a core configuration with a trace.Buffered
// sink attached and dumps the resulting event stream, optionally filtered to
// one component. It is built on the same host embedding interface
// cmd/corevm uses rather than on any internal core API.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nandsim/corevm/core"
	"github.com/nandsim/corevm/prog"
	"github.com/nandsim/corevm/sim"
	"github.com/nandsim/corevm/trace"
)

func main() {
	cycles := flag.Uint64("cycles", 200, "number of scheduler cycles to run")
	configPath := flag.String("config", "", "path to a YAML run configuration (optional)")
	outPath := flag.String("out", "", "path to write the trace to (default stdout)")
	component := flag.String("component", "", "only dump events from this component name")
	flag.Parse()

	if err := run(*cycles, *configPath, *outPath, *component); err != nil {
		fmt.Fprintln(os.Stderr, "tracedump:", err)
		os.Exit(1)
	}
}

func run(cycles uint64, configPath, outPath, component string) error {
	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	base, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	sink := trace.NewBuffered()
	cfg := core.NewConfig(
		core.WithPeriod(base.Period),
		core.WithMemory(base.MemorySize, base.MemoryBanks),
		core.WithForwarding(base.ForwardResult),
		core.WithTraceSink(sink),
	)

	sched := sim.NewScheduler(sink)
	c := core.New("core0", cfg)
	c.Inject(prog.Assemble(
		prog.ADDI(1, 0, 10),
		prog.ADDI(2, 0, 5),
		prog.MUL(3, 1, 2),
		0x7f, // a deliberately unclassifiable opcode, to exercise the INVALID_INSTRUCTION trace path
	))
	c.Initialize(sched)
	sched.RunUntil(cycles)

	events := sink.Events()
	if component != "" {
		events = sink.Filter(component)
	}
	for _, ev := range events {
		fmt.Fprintln(out, ev.String())
	}
	return nil
}

func loadConfig(path string) (core.Config, error) {
	if path == "" {
		return core.NewConfig(), nil
	}
	cfg, err := core.LoadConfig(path)
	if err != nil {
		return core.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
