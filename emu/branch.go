package emu

import "github.com/sarchlab/mipssim/insts"

// BranchState tracks a taken branch or jump whose redirect is deferred by
// one fetch so that the delay slot executes first.
type BranchState struct {
	Pending bool
	Target  uint32

	// DelaySlotHold is set while the delay-slot fetch has not happened yet.
	DelaySlotHold bool
}

// Arm records a taken branch to target.
func (b *BranchState) Arm(target uint32) {
	b.Pending = true
	b.Target = target
	b.DelaySlotHold = true
}

// Clear drops any in-flight redirect.
func (b *BranchState) Clear() {
	*b = BranchState{}
}

// BranchTarget returns the target of a PC-relative branch at pc.
func BranchTarget(pc uint32, inst *insts.Instruction) uint32 {
	return pc + 4 + uint32(inst.BranchOffset())
}

// JumpTarget returns the target of a J or JAL at pc: the upper four bits
// of pc+4 joined with the shifted 26-bit target.
func JumpTarget(pc uint32, inst *insts.Instruction) uint32 {
	return ((pc + 4) & 0xF0000000) | (inst.Target << 2)
}

// LinkAddress returns the return address written by a linking jump at pc.
func LinkAddress(pc uint32, delaySlot bool) uint32 {
	if delaySlot {
		return pc + 8
	}
	return pc + 4
}
