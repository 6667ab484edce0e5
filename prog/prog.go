// Package prog assembles small test and benchmark programs directly into
// encoded instruction words, standing in for the object-file loader a
// real toolchain would provide.
package prog

// Opcode values match dispatch.Decode's RISC-V-like opcode bits.
// MUL/DIV share opALUReg's 0x33 opcode with the base ALU
// register-register ops, disambiguated by funct7=1 (M-extension) and
// funct3 (mul vs div sub-range), exactly as dispatch.Decode expects.
const (
	opALUReg uint32 = 0x33
	opALUImm uint32 = 0x13
	opBranch uint32 = 0x63
	opJal    uint32 = 0x6F
	opJalr   uint32 = 0x67
	opLoad   uint32 = 0x03
	opStore  uint32 = 0x23
	opVLoad  uint32 = 0x57
	opVStore uint32 = 0x27
	opSystem uint32 = 0x73
)

func rType(opcode, funct3, funct7 uint32, rd, rs1, rs2 int) uint32 {
	return opcode | uint32(rd)<<7 | funct3<<12 | uint32(rs1)<<15 | uint32(rs2)<<20 | funct7<<25
}

func iType(opcode, funct3 uint32, rd, rs1 int, imm int32) uint32 {
	return opcode | uint32(rd)<<7 | funct3<<12 | uint32(rs1)<<15 | (uint32(imm)&0xfff)<<20
}

// bType splits the 12-bit branch offset across the rd field (low 5 bits)
// and the funct7 field (high 7 bits), leaving rs2 in its usual position,
// the same split sType uses.
func bType(funct3 uint32, rs1, rs2 int, imm int32) uint32 {
	u := uint32(imm) & 0xfff
	return opBranch | (u&0x1f)<<7 | funct3<<12 | uint32(rs1)<<15 | uint32(rs2)<<20 | (u>>5)<<25
}

// ADD encodes rd = rs1 + rs2.
func ADD(rd, rs1, rs2 int) uint32 { return rType(opALUReg, 0, 0, rd, rs1, rs2) }

// SUB encodes rd = rs1 - rs2.
func SUB(rd, rs1, rs2 int) uint32 { return rType(opALUReg, 0, 0x20, rd, rs1, rs2) }

// AND, OR, XOR encode the corresponding bitwise register-register op.
func AND(rd, rs1, rs2 int) uint32 { return rType(opALUReg, 7, 0, rd, rs1, rs2) }
func OR(rd, rs1, rs2 int) uint32  { return rType(opALUReg, 6, 0, rd, rs1, rs2) }
func XOR(rd, rs1, rs2 int) uint32 { return rType(opALUReg, 4, 0, rd, rs1, rs2) }

// ADDI encodes rd = rs1 + imm.
func ADDI(rd, rs1 int, imm int32) uint32 { return iType(opALUImm, 0, rd, rs1, imm) }

// MUL encodes rd = (rs1 * rs2) & 0xffffffff. Shares opALUReg's opcode
// with funct7=1 (the M-extension marker) and funct3=0 (MUL).
func MUL(rd, rs1, rs2 int) uint32 { return rType(opALUReg, 0, 1, rd, rs1, rs2) }

// DIV encodes rd = rs1 / rs2 (signed). Shares opALUReg's opcode with
// funct7=1 and funct3=4 (DIV, the low funct3 in the M-extension's
// divide sub-range).
func DIV(rd, rs1, rs2 int) uint32 { return rType(opALUReg, 4, 1, rd, rs1, rs2) }

// BEQ encodes a branch-if-equal with a PC-relative byte offset imm.
func BEQ(rs1, rs2 int, imm int32) uint32 { return bType(0, rs1, rs2, imm) }

// BNE encodes a branch-if-not-equal with a PC-relative byte offset imm.
func BNE(rs1, rs2 int, imm int32) uint32 { return bType(1, rs1, rs2, imm) }

// JAL encodes an unconditional jump-and-link with a PC-relative byte
// offset imm, linking to rd.
func JAL(rd int, imm int32) uint32 {
	return opJal | uint32(rd)<<7 | (uint32(imm)&0xfffff)<<12
}

// JALR encodes an indirect jump-and-link to rs1+imm, linking to rd.
func JALR(rd, rs1 int, imm int32) uint32 { return iType(opJalr, 0, rd, rs1, imm) }

// LW encodes a 32-bit load of rd from rs1+imm.
func LW(rd, rs1 int, imm int32) uint32 { return iType(opLoad, 0, rd, rs1, imm) }

// SW encodes a 32-bit store of rs2's value to rs1+imm. S-type splits the
// 12-bit immediate across the rd field (low 5 bits) and funct7 field
// (high 7 bits), matching dispatch.Decode's OpcodeStore layout.
func SW(rs1, rs2 int, imm int32) uint32 {
	u := uint32(imm) & 0xfff
	low := u & 0x1f
	high := u >> 5
	return opStore | low<<7 | uint32(rs1)<<15 | uint32(rs2)<<20 | high<<25
}

// ECALL encodes the environment-call trap.
func ECALL() uint32 { return opSystem }

// Assemble concatenates a sequence of already-encoded instruction words
// into one program image, in order.
func Assemble(words ...uint32) []uint32 { return words }
