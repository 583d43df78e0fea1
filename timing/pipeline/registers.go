// Package pipeline provides the 5-stage pipeline implementation for timing simulation.
package pipeline

import "github.com/sarchlab/mipssim/insts"

// Each latch holds its own copy of the control bundle. Inst points at the
// decoded instruction, which is never modified after decode.

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the fetched instruction.
	PC uint32

	// InstructionWord is the raw 32-bit instruction word.
	InstructionWord uint32
}

// Clear resets the IF/ID register to empty state.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	Valid bool
	PC    uint32
	Inst  *insts.Instruction

	Control insts.Control

	// Register values read from the register file.
	RsValue int32
	RtValue int32

	// Source registers, for hazard detection and forwarding.
	Rs     uint8
	Rt     uint8
	UsesRs bool
	UsesRt bool

	// Dest is the resolved destination register.
	Dest uint8
}

// Clear resets the ID/EX register to empty state.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	Valid   bool
	PC      uint32
	Inst    *insts.Instruction
	Control insts.Control

	// ALU result (address for load/store, result for ALU ops).
	ALUResult int32

	// Value to store for store instructions.
	StoreValue int32

	Dest uint8
}

// Clear resets the EX/MEM register to empty state.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	Valid   bool
	PC      uint32
	Inst    *insts.Instruction
	Control insts.Control

	ALUResult int32

	// Data read from memory (for load instructions).
	MemData int32

	Dest uint8
}

// Clear resets the MEM/WB register to empty state.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}

// Result returns the value written back: memory data for loads, the ALU
// result otherwise.
func (r *MEMWBRegister) Result() int32 {
	if r.Control.MemToReg {
		return r.MemData
	}
	return r.ALUResult
}

// writes reports whether a latch commits a GPR write to reg.
func writes(valid bool, c insts.Control, dest, reg uint8) bool {
	return valid && c.RegWrite && dest != 0 && dest == reg
}

// Latches is a copy of the four pipeline registers.
type Latches struct {
	IFID  IFIDRegister
	IDEX  IDEXRegister
	EXMEM EXMEMRegister
	MEMWB MEMWBRegister
}

// Empty reports whether every latch holds a bubble.
func (l Latches) Empty() bool {
	return !l.IFID.Valid && !l.IDEX.Valid && !l.EXMEM.Valid && !l.MEMWB.Valid
}
