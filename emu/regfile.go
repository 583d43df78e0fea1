// Package emu provides functional MIPS32 emulation.
package emu

// RegFile represents the MIPS register file.
// It contains 32 general-purpose registers, the HI/LO pair written by the
// multiply/divide unit, and the program counter.
type RegFile struct {
	// R holds general-purpose registers $0-$31.
	// R[0] is hard-wired to zero.
	R [32]int32

	// HI and LO hold the halves of a multiply/divide result.
	HI int32
	LO int32

	// PC is the program counter.
	PC uint32
}

// ReadReg reads a register value. Register 0 and out-of-range indexes
// return 0.
func (r *RegFile) ReadReg(reg uint8) int32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value int32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.R[reg] = value
}

// ReadRegU reads a register as an unsigned value.
func (r *RegFile) ReadRegU(reg uint8) uint32 {
	return uint32(r.ReadReg(reg))
}

// Reset zeroes every register, HI/LO and the PC, then sets $sp to sp.
func (r *RegFile) Reset(sp uint32) {
	*r = RegFile{}
	r.R[29] = int32(sp)
}
