package units

import "encoding/binary"

// Memory is a banked byte-addressable store. Addresses are interleaved
// across banks so that sequential accesses usually land in different
// banks and can be pipelined; the LSU consults BankOf to detect when two
// back-to-back accesses collide on the same bank and must serialize.
type Memory struct {
	data  []byte
	banks int
}

// NewMemory allocates size bytes of backing storage split across banks
// banks (size must be large enough to address the program/data footprint
// in use; banks must be a power of two).
func NewMemory(size, banks int) *Memory {
	if banks <= 0 {
		banks = 1
	}
	return &Memory{data: make([]byte, size), banks: banks}
}

// BankOf returns which bank a byte address is interleaved onto.
func (m *Memory) BankOf(addr uint64) int {
	return int(addr) % m.banks
}

func (m *Memory) Read8(addr uint64) byte { return m.data[addr] }
func (m *Memory) Write8(addr uint64, v byte) { m.data[addr] = v }

func (m *Memory) Read16(addr uint64) uint16 {
	return binary.LittleEndian.Uint16(m.data[addr : addr+2])
}
func (m *Memory) Write16(addr uint64, v uint16) {
	binary.LittleEndian.PutUint16(m.data[addr:addr+2], v)
}

func (m *Memory) Read32(addr uint64) uint32 {
	return binary.LittleEndian.Uint32(m.data[addr : addr+4])
}
func (m *Memory) Write32(addr uint64, v uint32) {
	binary.LittleEndian.PutUint32(m.data[addr:addr+4], v)
}

const wordSize = 4

// checkWord validates a word-sized access at addr against the backing
// store's bounds and then the word-size alignment rule, without ever
// indexing out of range. An access that both overruns the store and is
// misaligned reports ErrOutOfRange.
func (m *Memory) checkWord(addr uint64) error {
	if addr >= uint64(len(m.data)) || uint64(len(m.data))-addr < wordSize {
		return ErrOutOfRange
	}
	if addr%wordSize != 0 {
		return ErrUnaligned
	}
	return nil
}

// ReadWord reads one word-aligned, in-range 32-bit word, or returns
// ErrUnaligned/ErrOutOfRange instead of indexing past the backing store.
func (m *Memory) ReadWord(addr uint64) (uint32, error) {
	if err := m.checkWord(addr); err != nil {
		return 0, err
	}
	return m.Read32(addr), nil
}

// WriteWord writes one word-aligned, in-range 32-bit word, or returns
// ErrUnaligned/ErrOutOfRange instead of indexing past the backing store.
func (m *Memory) WriteWord(addr uint64, v uint32) error {
	if err := m.checkWord(addr); err != nil {
		return err
	}
	m.Write32(addr, v)
	return nil
}

func (m *Memory) Read64(addr uint64) uint64 {
	return binary.LittleEndian.Uint64(m.data[addr : addr+8])
}
func (m *Memory) Write64(addr uint64, v uint64) {
	binary.LittleEndian.PutUint64(m.data[addr:addr+8], v)
}

// Size reports the total addressable byte count.
func (m *Memory) Size() int { return len(m.data) }
