package pipeline

import "github.com/sarchlab/mipssim/insts"

// ForwardSource indicates where a forwarded value should come from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed - use register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward from EX/MEM pipeline register.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward from MEM/WB pipeline register.
	ForwardFromMEMWB
)

// String returns a short name for the source.
func (f ForwardSource) String() string {
	switch f {
	case ForwardFromEXMEM:
		return "exmem"
	case ForwardFromMEMWB:
		return "memwb"
	default:
		return "none"
	}
}

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	ForwardRs ForwardSource
	ForwardRt ForwardSource
}

// Any reports whether either operand is forwarded.
func (r ForwardingResult) Any() bool {
	return r.ForwardRs != ForwardNone || r.ForwardRt != ForwardNone
}

// HazardUnit detects data hazards and determines forwarding/stall signals.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines the forwarding source for each operand of
// the instruction in ID/EX. EX/MEM has priority over MEM/WB. A load in
// EX/MEM has no data yet and is never a source.
func (h *HazardUnit) DetectForwarding(
	idex *IDEXRegister,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardingResult {
	result := ForwardingResult{}

	if !idex.Valid {
		return result
	}

	if idex.UsesRs {
		result.ForwardRs = h.detectForwardForReg(idex.Rs, exmem, memwb)
	}
	if idex.UsesRt {
		result.ForwardRt = h.detectForwardForReg(idex.Rt, exmem, memwb)
	}

	return result
}

func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardSource {
	if reg == 0 {
		return ForwardNone
	}

	if writes(exmem.Valid, exmem.Control, exmem.Dest, reg) && !exmem.Control.MemRead {
		return ForwardFromEXMEM
	}

	if writes(memwb.Valid, memwb.Control, memwb.Dest, reg) {
		return ForwardFromMEMWB
	}

	return ForwardNone
}

// GetForwardedValue returns the value to use based on forwarding decision.
func (h *HazardUnit) GetForwardedValue(
	forward ForwardSource,
	originalValue int32,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) int32 {
	switch forward {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		return memwb.Result()
	default:
		return originalValue
	}
}

// reads reports whether inst reads reg as a source.
func reads(inst *insts.Instruction, reg uint8) bool {
	if reg == 0 {
		return false
	}
	return (inst.UsesRs() && inst.Rs == reg) || (inst.UsesRt() && inst.Rt == reg)
}

// DetectLoadUseHazard reports whether next reads the register that the
// load in producer has not loaded yet.
func (h *HazardUnit) DetectLoadUseHazard(producer *IDEXRegister, next *insts.Instruction) bool {
	if !producer.Valid || !producer.Control.MemRead || !producer.Control.RegWrite {
		return false
	}
	return reads(next, producer.Dest)
}

// DetectRAWHazard reports whether next reads a register written by an
// instruction still in EX or MEM. Without forwarding, such a reader must
// wait until the producer reaches writeback.
func (h *HazardUnit) DetectRAWHazard(
	next *insts.Instruction,
	idex *IDEXRegister,
	exmem *EXMEMRegister,
) bool {
	if idex.Valid && idex.Control.RegWrite && reads(next, idex.Dest) {
		return true
	}
	return exmem.Valid && exmem.Control.RegWrite && reads(next, exmem.Dest)
}

// DetectSyscallBarrier reports whether a SYSCALL is in EX. The handler
// runs in the memory stage and touches registers directly, so the next
// instruction waits one cycle before reading the register file.
func (h *HazardUnit) DetectSyscallBarrier(idex *IDEXRegister) bool {
	return idex.Valid && idex.Control.Syscall
}
