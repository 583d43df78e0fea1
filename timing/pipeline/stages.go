package pipeline

import (
	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/insts"
)

// FetchStage handles instruction fetch through the instruction port.
type FetchStage struct {
	lsu *emu.LoadStoreUnit
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(lsu *emu.LoadStoreUnit) *FetchStage {
	return &FetchStage{lsu: lsu}
}

// Fetch reads the instruction at the given PC.
func (s *FetchStage) Fetch(pc uint32) (uint32, error) {
	return s.lsu.FetchWord(pc)
}

// DecodeStage handles instruction decode and register read.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{
		regFile: regFile,
		decoder: insts.NewDecoder(),
	}
}

// Decode decodes the word in IF/ID. It fails on an illegal instruction.
func (s *DecodeStage) Decode(ifid *IFIDRegister) (*insts.Instruction, error) {
	inst := s.decoder.Decode(ifid.InstructionWord)
	if inst == nil {
		return nil, &emu.IllegalInstructionError{PC: ifid.PC, Word: ifid.InstructionWord}
	}
	return inst, nil
}

// Issue reads the source registers and builds the ID/EX latch.
func (s *DecodeStage) Issue(pc uint32, inst *insts.Instruction) IDEXRegister {
	return IDEXRegister{
		Valid:   true,
		PC:      pc,
		Inst:    inst,
		Control: inst.Control,
		RsValue: s.regFile.ReadReg(inst.Rs),
		RtValue: s.regFile.ReadReg(inst.Rt),
		Rs:      inst.Rs,
		Rt:      inst.Rt,
		UsesRs:  inst.UsesRs(),
		UsesRt:  inst.UsesRt(),
		Dest:    emu.Dest(inst),
	}
}

// ExecuteStage runs the execute datapath and owns HI/LO updates.
type ExecuteStage struct {
	regFile   *emu.RegFile
	delaySlot bool
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage(regFile *emu.RegFile, delaySlot bool) *ExecuteStage {
	return &ExecuteStage{
		regFile:   regFile,
		delaySlot: delaySlot,
	}
}

// Execute computes the instruction in ID/EX with the given (possibly
// forwarded) operand values. HI/LO writes are committed here.
func (s *ExecuteStage) Execute(idex *IDEXRegister, rsValue, rtValue int32) (emu.ExecResult, error) {
	res, err := emu.Execute(emu.ExecInput{
		PC:        idex.PC,
		Inst:      idex.Inst,
		RsVal:     rsValue,
		RtVal:     rtValue,
		HI:        s.regFile.HI,
		LO:        s.regFile.LO,
		DelaySlot: s.delaySlot,
	})
	if err != nil {
		return res, err
	}

	if res.WriteHI {
		s.regFile.HI = res.HI
	}
	if res.WriteLO {
		s.regFile.LO = res.LO
	}

	return res, nil
}

// MemoryStage handles loads and stores through the data port.
type MemoryStage struct {
	lsu *emu.LoadStoreUnit
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(lsu *emu.LoadStoreUnit) *MemoryStage {
	return &MemoryStage{lsu: lsu}
}

// MemoryResult holds the output of the memory stage.
type MemoryResult struct {
	MemData int32
}

// Access performs the load or store of the instruction in EX/MEM.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (MemoryResult, error) {
	c := exmem.Control
	addr := uint32(exmem.ALUResult)

	switch {
	case c.MemRead:
		v, err := s.lsu.Load(addr, c.MemSize, c.MemSigned)
		if err != nil {
			return MemoryResult{}, err
		}
		return MemoryResult{MemData: v}, nil
	case c.MemWrite:
		return MemoryResult{}, s.lsu.Store(addr, c.MemSize, exmem.StoreValue)
	}

	return MemoryResult{}, nil
}

// WritebackStage handles register writeback.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback commits the instruction in MEM/WB. It returns true if an
// instruction retired.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) bool {
	if !memwb.Valid {
		return false
	}

	if memwb.Control.RegWrite {
		s.regFile.WriteReg(memwb.Dest, memwb.Result())
	}

	return true
}
