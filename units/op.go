// Package units implements the core's pipelined functional units: ALU,
// BRU, MLU, DVU, and LSU. Each unit consumes command packets from an
// input port and produces result packets on an output port, in
// submission order, under a fixed per-operation latency.
package units

import "github.com/nandsim/corevm/sim"

// Op identifies an ALU/MLU/DVU operation. It is defined once here and
// reused as a sim.Op so command packets stay opaque to the sim package.
type Op = sim.Op

// ALU operations.
const (
	OpNop Op = iota

	// Additive.
	OpAdd
	OpSub
	OpSAdd
	OpSSub

	// Multiplicative (handled by ALU for the 1-cycle-cheaper forms; MLU
	// owns the full 32x32->64 multiply in package units' MLU type).
	OpMul
	OpMac
	OpSMul
	OpSMac

	// Reductive.
	OpSum
	OpSSum

	// Compare (signed/unsigned variants are distinct ops).
	OpEq
	OpNeq
	OpLtS
	OpLteS
	OpGtS
	OpGteS
	OpLtU
	OpLteU
	OpGtU
	OpGteU

	// Bitwise.
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpLshr
	OpAshr

	// Logic (boolean, as opposed to bitwise-on-words).
	OpLAnd
	OpLOr
	OpLNot

	// Shuffle.
	OpJoint8
	OpJoint16
	OpMux

	// Floating point (IEEE-754 single precision, bit-reinterpreted).
	OpFAdd
	OpFSub
	OpFMul
	OpFMac
	OpFMas
	OpFNMac
	OpFNMas
	OpFEq
	OpFLte
	OpFLt
	OpFCpys
	OpFCpysInv
	OpFCpysN
)

// MLU operations.
const (
	OpMulLow Op = iota + 1000
	OpMulHigh
	OpMulHighU
	OpMulHighSU
)

// DVU operations.
const (
	OpDiv Op = iota + 2000
	OpDivU
	OpRem
	OpRemU
)

// BRU operations.
const (
	OpBeq Op = iota + 3000
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu
	OpJal
	OpJalr
	OpEcall
	OpEbreak
	OpMret
	OpWfi
	OpFault
)

// LSU operations.
const (
	OpLoad Op = iota + 4000
	OpStore
	OpVLoad
	OpVStore
)

// operandCount classifies how many source operands an ALU op consumes:
// most ops take 2; the multiply-accumulate forms, mux, and sum/ssum take 3.
func operandCount(op Op) int {
	switch op {
	case OpMac, OpSMac, OpFMac, OpFMas, OpFNMac, OpFNMas, OpMux, OpSum, OpSSum:
		return 3
	default:
		return 2
	}
}

// latency is the ALU's op -> cycle-count table: simple,
// logical, and compare ops take 1 cycle; mul/mac/fmul/fadd take 2;
// sum/ssum and the float compare/copy-sign family take 3.
func latency(op Op) uint64 {
	switch op {
	case OpMul, OpMac, OpSMul, OpSMac, OpFMul, OpFAdd, OpFSub, OpFMac, OpFMas, OpFNMac, OpFNMas:
		return 2
	case OpSum, OpSSum, OpFEq, OpFLte, OpFLt, OpFCpys, OpFCpysInv, OpFCpysN:
		return 3
	default:
		return 1
	}
}
