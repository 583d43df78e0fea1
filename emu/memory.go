package emu

import (
	"github.com/sarchlab/akita/v4/mem/mem"
)

// DefaultMemorySize is the default size of the simulated memory in bytes.
const DefaultMemorySize = 1024

// Memory is a flat, fixed-size, byte-addressable memory. Multi-byte
// accesses are big-endian. Accesses outside [0, Size) read as zero and are
// dropped on write; bounds are enforced by the load/store unit.
type Memory struct {
	storage *mem.Storage
	size    uint32
}

// NewMemory creates a zero-filled memory of the given size.
func NewMemory(size uint32) *Memory {
	return &Memory{
		storage: mem.NewStorage(uint64(size)),
		size:    size,
	}
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.size
}

// Contains reports whether [addr, addr+n) lies inside the memory.
func (m *Memory) Contains(addr uint32, n uint32) bool {
	return uint64(addr)+uint64(n) <= uint64(m.size)
}

// Clear zero-fills the whole memory.
func (m *Memory) Clear() {
	m.storage = mem.NewStorage(uint64(m.size))
}

// ReadBytes reads n bytes starting at addr.
func (m *Memory) ReadBytes(addr uint32, n uint32) []byte {
	if !m.Contains(addr, n) {
		return make([]byte, n)
	}

	data, err := m.storage.Read(uint64(addr), uint64(n))
	if err != nil {
		return make([]byte, n)
	}
	return data
}

// WriteBytes writes data starting at addr.
func (m *Memory) WriteBytes(addr uint32, data []byte) {
	if !m.Contains(addr, uint32(len(data))) {
		return
	}
	_ = m.storage.Write(uint64(addr), data)
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) byte {
	return m.ReadBytes(addr, 1)[0]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value byte) {
	m.WriteBytes(addr, []byte{value})
}

// Read32 reads a big-endian word.
func (m *Memory) Read32(addr uint32) uint32 {
	b := m.ReadBytes(addr, 4)
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Write32 writes a big-endian word.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.WriteBytes(addr, []byte{
		byte(value >> 24),
		byte(value >> 16),
		byte(value >> 8),
		byte(value),
	})
}

// LoadByte implements BytePort for uncached access.
func (m *Memory) LoadByte(addr uint32) byte {
	return m.Read8(addr)
}

// StoreByte implements BytePort for uncached access.
func (m *Memory) StoreByte(addr uint32, value byte) {
	m.Write8(addr, value)
}
