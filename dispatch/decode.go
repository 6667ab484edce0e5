// Package dispatch turns fetched instruction words into decoded
// instructions and issues them to the core's functional units in program
// order, enforcing the RAW-hazard, resource, lane, and control-flow
// rules that keep the issue slots honest.
package dispatch

import (
	"fmt"

	"github.com/nandsim/corevm/units"
)

// Unit names which functional unit a decoded instruction issues to.
type Unit uint8

const (
	UnitALU Unit = iota
	UnitBRU
	UnitMLU
	UnitDVU
	UnitLSU
)

func (u Unit) String() string {
	switch u {
	case UnitALU:
		return "ALU"
	case UnitBRU:
		return "BRU"
	case UnitMLU:
		return "MLU"
	case UnitDVU:
		return "DVU"
	case UnitLSU:
		return "LSU"
	default:
		return "?"
	}
}

// Instruction word field layout: opcode occupies the low 7
// bits, rd the next 5, funct3 the next 3, rs1 the next 5, then either
// (rs2, funct7) for register-register forms or a sign-extended immediate
// for register-immediate/branch/store forms.
const (
	opcodeMask = 0x7f
	rdShift    = 7
	rdMask     = 0x1f
	funct3Sh   = 12
	funct3Mask = 0x7
	rs1Shift   = 15
	rs1Mask    = 0x1f
	rs2Shift   = 20
	rs2Mask    = 0x1f
	funct7Sh   = 25
)

// Raw 7-bit opcode field values, word[6:0]. 0x33 covers both ALU
// register-register ops (funct7=0) and the M-extension MLU/DVU ops
// (funct7=1); funct3 further splits the latter into MLU (0-3) and DVU
// (4-7), the standard RV32M funct3 assignment. The four vector opcodes
// are treated as one family gated by funct3's low bit: vector ops expand
// into LSU accesses rather than reaching a dedicated vector unit.
const (
	rawOpcodeALURegMul uint32 = 0x33
	rawOpcodeALUImm    uint32 = 0x13
	rawOpcodeBranch    uint32 = 0x63
	rawOpcodeJAL       uint32 = 0x6F
	rawOpcodeJALR      uint32 = 0x67
	rawOpcodeLoad      uint32 = 0x03
	rawOpcodeStore     uint32 = 0x23
	rawOpcodeSystem    uint32 = 0x73
	rawOpcodeFence     uint32 = 0x0F
	rawOpcodeVectorA   uint32 = 0x57
	rawOpcodeVectorB   uint32 = 0x77
	rawOpcodeVectorC   uint32 = 0x37
	rawOpcodeVectorD   uint32 = 0x27
)

// Opcode classifies the instruction word's decoded format/kind, once the
// raw opcode bits (and, for 0x33, funct7) have resolved which functional
// unit and sub-format apply.
type Opcode uint8

const (
	OpcodeALUReg Opcode = iota
	OpcodeALUImm
	OpcodeBranch
	OpcodeJal
	OpcodeJalr
	OpcodeMul
	OpcodeDiv
	OpcodeLoad
	OpcodeStore
	OpcodeVLoad
	OpcodeVStore
	OpcodeSystem
	OpcodeFence
)

// Decoded is one decoded instruction, ready for hazard checking and
// dispatch to a functional unit.
type Decoded struct {
	Raw    uint32
	PC     uint64
	Opcode Opcode
	Funct3 uint8
	Funct7 uint8
	Rd     int
	Rs1    int
	Rs2    int
	Imm    int32

	Unit Unit
	Op   units.Op

	// Vector load/store shape; zero for scalar memory ops.
	Length int
	Stride int64
}

// Decode extracts a Decoded instruction from a fetched word at pc,
// classifying it by its low 7 opcode bits (and, where those are shared,
// funct3/funct7).
func Decode(word uint32, pc uint64) (Decoded, error) {
	raw := word & opcodeMask
	d := Decoded{
		Raw:    word,
		PC:     pc,
		Funct3: uint8((word >> funct3Sh) & funct3Mask),
		Rd:     int((word >> rdShift) & rdMask),
		Rs1:    int((word >> rs1Shift) & rs1Mask),
	}

	switch raw {
	case rawOpcodeALURegMul:
		d.Rs2 = int((word >> rs2Shift) & rs2Mask)
		d.Funct7 = uint8(word >> funct7Sh)
		switch {
		case d.Funct7 == 1 && d.Funct3 < 4:
			d.Opcode = OpcodeMul
		case d.Funct7 == 1:
			d.Opcode = OpcodeDiv
		default:
			d.Opcode = OpcodeALUReg
		}

	case rawOpcodeALUImm:
		d.Opcode = OpcodeALUImm
		d.Imm = signExtend12(word >> 20)
		// Shift-immediate ops (funct3 1 and 5) disambiguate SRLI/SRAI via
		// the same funct7 high bit a register-register shift uses.
		d.Funct7 = uint8(word >> funct7Sh)

	case rawOpcodeBranch:
		// B-type: like S-type, the rd field holds the immediate's low 5
		// bits and funct7 its high 7, so rs2 keeps its usual position.
		d.Opcode = OpcodeBranch
		d.Rs2 = int((word >> rs2Shift) & rs2Mask)
		low := (word >> rdShift) & rdMask
		high := word >> funct7Sh
		d.Imm = signExtend12((high << 5) | low)
		d.Rd = 0

	case rawOpcodeJAL:
		d.Opcode = OpcodeJal
		d.Imm = signExtend20(word >> 12)

	case rawOpcodeJALR:
		d.Opcode = OpcodeJalr
		d.Imm = signExtend12(word >> 20)

	case rawOpcodeLoad:
		d.Opcode = OpcodeLoad
		d.Imm = signExtend12(word >> 20)

	case rawOpcodeStore:
		// S-type: no rd field; bits[7:11] hold the immediate's low 5 bits
		// and bits[25:31] its high 7, same split real RISC-V uses so rs1
		// and rs2 keep their usual positions.
		d.Opcode = OpcodeStore
		d.Rs2 = int((word >> rs2Shift) & rs2Mask)
		low := (word >> rdShift) & rdMask
		high := word >> funct7Sh
		d.Imm = signExtend12((high << 5) | low)
		d.Rd = 0

	case rawOpcodeSystem:
		// Funct3 distinguishes ecall/ebreak/mret/wfi; no operands.
		d.Opcode = OpcodeSystem

	case rawOpcodeFence:
		d.Opcode = OpcodeFence

	case rawOpcodeVectorA, rawOpcodeVectorB, rawOpcodeVectorC, rawOpcodeVectorD:
		d.Rs2 = int((word >> rs2Shift) & rs2Mask)
		d.Length = int((word >> 20) & 0xff)
		d.Stride = int64(int8(word >> 28))
		if d.Funct3&1 == 0 {
			d.Opcode = OpcodeVLoad
		} else {
			d.Opcode = OpcodeVStore
		}

	default:
		return d, fmt.Errorf("dispatch: %w: opcode %#02x in word %#08x", ErrInvalidInstruction, raw, word)
	}

	if err := classify(&d); err != nil {
		return d, err
	}
	return d, nil
}

func signExtend12(bits uint32) int32 {
	v := int32(bits & 0xfff)
	if v&0x800 != 0 {
		v |= ^int32(0xfff)
	}
	return v
}

func signExtend20(bits uint32) int32 {
	v := int32(bits & 0xfffff)
	if v&0x80000 != 0 {
		v |= ^int32(0xfffff)
	}
	return v
}

// classify fills in Unit and Op from the already-resolved Opcode/
// funct3/funct7 combination.
func classify(d *Decoded) error {
	switch d.Opcode {
	case OpcodeALUReg, OpcodeALUImm:
		d.Unit = UnitALU
		d.Op = aluOp(d.Funct3, d.Funct7, d.Opcode == OpcodeALUImm)
	case OpcodeMul:
		d.Unit = UnitMLU
		d.Op = mulOp(d.Funct3)
	case OpcodeDiv:
		d.Unit = UnitDVU
		d.Op = divOp(d.Funct3)
	case OpcodeBranch:
		d.Unit = UnitBRU
		d.Op = branchOp(d.Funct3)
	case OpcodeJal:
		d.Unit = UnitBRU
		d.Op = units.OpJal
	case OpcodeJalr:
		d.Unit = UnitBRU
		d.Op = units.OpJalr
	case OpcodeLoad:
		d.Unit = UnitLSU
		d.Op = units.OpLoad
	case OpcodeStore:
		d.Unit = UnitLSU
		d.Op = units.OpStore
	case OpcodeVLoad:
		d.Unit = UnitLSU
		d.Op = units.OpVLoad
	case OpcodeVStore:
		d.Unit = UnitLSU
		d.Op = units.OpVStore
	case OpcodeFence:
		// FENCE has no functional-unit effect of its own; route it
		// through the ALU's identity-on-src1 op so it retires as a true
		// no-op rather than needing a dedicated no-op unit.
		d.Unit = UnitALU
		d.Op = units.OpNop
	case OpcodeSystem:
		d.Unit = UnitBRU
		switch d.Funct3 {
		case 0:
			d.Op = units.OpEcall
		case 1:
			d.Op = units.OpEbreak
		case 2:
			d.Op = units.OpMret
		case 3:
			d.Op = units.OpWfi
		default:
			d.Op = units.OpFault
		}
	default:
		return fmt.Errorf("dispatch: %w: opcode %#x", ErrInvalidInstruction, d.Opcode)
	}
	return nil
}

func aluOp(funct3, funct7 uint8, imm bool) units.Op {
	switch funct3 {
	case 0:
		if !imm && funct7&0x20 != 0 {
			return units.OpSub
		}
		return units.OpAdd
	case 1:
		return units.OpShl
	case 2:
		return units.OpLtS
	case 3:
		return units.OpLtU
	case 4:
		return units.OpXor
	case 5:
		if funct7&0x20 != 0 {
			return units.OpAshr
		}
		return units.OpLshr
	case 6:
		return units.OpOr
	case 7:
		return units.OpAnd
	default:
		return units.OpNop
	}
}

// mulOp maps the M-extension's low funct3 range (0-3) to the MLU's
// multiply-variant ops, matching RV32M's MUL/MULH/MULHSU/MULHU order.
func mulOp(funct3 uint8) units.Op {
	switch funct3 {
	case 0:
		return units.OpMulLow
	case 1:
		return units.OpMulHigh
	case 2:
		return units.OpMulHighSU
	case 3:
		return units.OpMulHighU
	default:
		return units.OpMulLow
	}
}

// divOp maps the M-extension's high funct3 range (4-7) to the DVU's
// divide-variant ops, matching RV32M's DIV/DIVU/REM/REMU order.
func divOp(funct3 uint8) units.Op {
	switch funct3 {
	case 4:
		return units.OpDiv
	case 5:
		return units.OpDivU
	case 6:
		return units.OpRem
	case 7:
		return units.OpRemU
	default:
		return units.OpDiv
	}
}

func branchOp(funct3 uint8) units.Op {
	switch funct3 {
	case 0:
		return units.OpBeq
	case 1:
		return units.OpBne
	case 4:
		return units.OpBlt
	case 5:
		return units.OpBge
	case 6:
		return units.OpBltu
	case 7:
		return units.OpBgeu
	default:
		return units.OpBeq
	}
}
