// Command corevm is a small CLI demo harness: it builds a Core from an
// optional YAML configuration, injects one of a handful of built-in
// example programs, runs it to a fixed cycle count, and prints register
// state and run statistics. It is an external collaborator exercising
// the core's host embedding interface, never part of the core itself.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nandsim/corevm/core"
	"github.com/nandsim/corevm/sim"
	"github.com/nandsim/corevm/trace"
)

func main() {
	cycles := flag.Uint64("cycles", 200, "number of scheduler cycles to run")
	configPath := flag.String("config", "", "path to a YAML run configuration (optional)")
	tracePath := flag.String("trace", "", "path to write a trace log (optional)")
	programName := flag.String("program", "mac", "built-in demo program to run: mac, branch")
	flag.Parse()

	if err := run(*cycles, *configPath, *tracePath, *programName, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "corevm:", err)
		os.Exit(1)
	}
}

func run(cycles uint64, configPath, tracePath, programName string, out io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			return fmt.Errorf("creating trace file: %w", err)
		}
		defer f.Close()
		cfg = core.NewConfig(
			core.WithPeriod(cfg.Period),
			core.WithMemory(cfg.MemorySize, cfg.MemoryBanks),
			core.WithForwarding(cfg.ForwardResult),
			core.WithTraceSink(trace.NewWriter(f)),
		)
	}

	words, err := demoProgram(programName)
	if err != nil {
		return err
	}

	sched := sim.NewScheduler(cfg.Sink)
	c := core.New("core0", cfg)
	c.Inject(words)
	c.Initialize(sched)

	sched.RunUntil(cycles)

	fmt.Fprintln(out, c.PrintStatistics())
	for i := 1; i < 16; i++ {
		if v := c.ReadRegister(i); v != 0 {
			fmt.Fprintf(out, "x%d=%d\n", i, v)
		}
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
