package main

import (
	"fmt"

	"github.com/nandsim/corevm/prog"
)

// demoProgram returns one of this binary's built-in example programs, in
// lieu of a real toolchain/loader: the core consumes injected instruction
// words directly, so cmd/corevm supplies a few hand-encoded ones rather
// than reading an object file.
func demoProgram(name string) ([]uint32, error) {
	switch name {
	case "mac":
		return macProgram(), nil
	case "branch":
		return branchProgram(), nil
	default:
		return nil, fmt.Errorf("unknown -program %q (want \"mac\" or \"branch\")", name)
	}
}

// macProgram loads eight immediates, multiplies them in four pairs, and
// sums the four products: 10*5 + 20*6 + 30*7 + 40*8 = 700.
func macProgram() []uint32 {
	return prog.Assemble(
		prog.ADDI(1, 0, 10),
		prog.ADDI(2, 0, 5),
		prog.ADDI(3, 0, 20),
		prog.ADDI(4, 0, 6),
		prog.ADDI(5, 0, 30),
		prog.ADDI(6, 0, 7),
		prog.ADDI(7, 0, 40),
		prog.ADDI(8, 0, 8),
		prog.MUL(9, 1, 2),
		prog.MUL(10, 3, 4),
		prog.MUL(11, 5, 6),
		prog.MUL(12, 7, 8),
		prog.ADD(13, 9, 10),
		prog.ADD(14, 13, 11),
		prog.ADD(15, 14, 12),
	)
}

// branchProgram loads two equal values and takes a forward branch,
// demonstrating BRU resolution.
func branchProgram() []uint32 {
	return prog.Assemble(
		prog.ADDI(1, 0, 7),
		prog.ADDI(2, 0, 7),
		prog.BEQ(1, 2, 0x100),
	)
}
