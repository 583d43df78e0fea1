package emu

import (
	"fmt"

	"github.com/sarchlab/mipssim/insts"
)

// ExecInput is everything the execute datapath consumes for one
// instruction. RsVal and RtVal are the operand values after any
// forwarding.
type ExecInput struct {
	PC        uint32
	Inst      *insts.Instruction
	RsVal     int32
	RtVal     int32
	HI        int32
	LO        int32
	DelaySlot bool
}

// ExecResult is the output of the execute datapath.
type ExecResult struct {
	ALUResult  int32
	Flags      Flags
	StoreValue int32
	Dest       uint8

	Taken  bool
	Target uint32

	WriteHI bool
	WriteLO bool
	HI      int32
	LO      int32
}

// Dest returns the register an instruction writes: $ra for every link
// instruction (JAL and JALR), rd when the destination selector picks it,
// rt otherwise.
func Dest(inst *insts.Instruction) uint8 {
	c := inst.Control
	switch {
	case c.Link:
		return insts.RegRA
	case c.RegDst:
		return inst.Rd
	default:
		return inst.Rt
	}
}

// Execute runs one instruction through the operand muxes, the ALU or MDU,
// the HI/LO moves and branch resolution. It has no side effects; the
// caller commits the result.
func Execute(in ExecInput) (ExecResult, error) {
	inst := in.Inst
	c := inst.Control

	out := ExecResult{
		StoreValue: in.RtVal,
		Dest:       Dest(inst),
	}

	a := in.RsVal
	if c.ShiftSrc {
		a = int32(inst.Shamt)
	}

	b := in.RtVal
	switch {
	case c.ALUSrc:
		b = inst.ExtImm()
	case c.Branch && (c.Cond == insts.CondLEZ || c.Cond == insts.CondGTZ):
		b = 0
	}

	switch {
	case c.MDU != insts.MDUNone:
		hi, lo, err := MDU(c.MDU, in.RsVal, in.RtVal)
		if err != nil {
			return out, fmt.Errorf("%s at PC=0x%X: %w", inst.Op, in.PC, err)
		}
		out.WriteHI, out.WriteLO = true, true
		out.HI, out.LO = hi, lo
	case c.HiLo == insts.HiLoFromHI:
		out.ALUResult = in.HI
	case c.HiLo == insts.HiLoFromLO:
		out.ALUResult = in.LO
	case c.HiLo == insts.HiLoToHI:
		out.WriteHI, out.HI = true, in.RsVal
	case c.HiLo == insts.HiLoToLO:
		out.WriteLO, out.LO = true, in.RsVal
	case c.Syscall:
	default:
		out.ALUResult, out.Flags = ALU(c.ALUCode, a, b)
	}

	switch {
	case c.Branch:
		if BranchTaken(c.Cond, out.Flags) {
			out.Taken = true
			out.Target = BranchTarget(in.PC, inst)
		}
	case c.JumpReg:
		out.Taken = true
		out.Target = uint32(in.RsVal)
	case c.Jump:
		out.Taken = true
		out.Target = JumpTarget(in.PC, inst)
	}

	if c.Link {
		out.ALUResult = int32(LinkAddress(in.PC, in.DelaySlot))
	}

	return out, nil
}
