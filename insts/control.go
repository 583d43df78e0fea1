package insts

// ALUCode selects an ALU operation.
type ALUCode uint8

// ALU operation codes.
const (
	ALUAnd   ALUCode = 0
	ALUOr    ALUCode = 1
	ALUAdd   ALUCode = 2
	ALUAddu  ALUCode = 3
	ALUSubu  ALUCode = 4
	ALUSltu  ALUCode = 5
	ALUSub   ALUCode = 6
	ALUSlt   ALUCode = 7
	ALUSll   ALUCode = 8
	ALUSrl   ALUCode = 9
	ALUSra   ALUCode = 10
	ALUNor   ALUCode = 12
	ALUXor   ALUCode = 13
	ALULui   ALUCode = 14
	ALUPassB ALUCode = 15
)

// ALUOpClass is the coarse operation class produced by the main control
// table. The ALU control stage refines it into an ALUCode.
type ALUOpClass uint8

// ALU operation classes.
const (
	ALUOpMemAdd ALUOpClass = iota // address computation
	ALUOpBranch                   // comparison by subtraction
	ALUOpRType                    // resolved from funct
	ALUOpIType                    // pre-resolved per opcode
)

// MDUOp selects a multiply/divide operation.
type MDUOp uint8

// MDU operations.
const (
	MDUNone MDUOp = iota
	MDUMult
	MDUMultu
	MDUDiv
	MDUDivu
)

// HiLoMove selects a move between a GPR and HI/LO.
type HiLoMove uint8

// HI/LO moves.
const (
	HiLoNone HiLoMove = iota
	HiLoFromHI
	HiLoFromLO
	HiLoToHI
	HiLoToLO
)

// BranchCond is the condition kind of a conditional branch.
type BranchCond uint8

// Branch conditions, evaluated on the flags of rs - rt.
const (
	CondNone BranchCond = iota
	CondEQ
	CondNE
	CondLEZ
	CondGTZ
)

// String returns the lower-case condition name.
func (c BranchCond) String() string {
	switch c {
	case CondEQ:
		return "eq"
	case CondNE:
		return "ne"
	case CondLEZ:
		return "lez"
	case CondGTZ:
		return "gtz"
	default:
		return "none"
	}
}

// ImmExt selects how the 16-bit immediate is widened.
type ImmExt uint8

// Immediate extensions.
const (
	ExtSign ImmExt = iota
	ExtZero
	ExtUpper
)

// Control is the control-signal bundle of one decoded instruction. It is a
// plain value: pipeline latches hold their own copy.
type Control struct {
	RegDst   bool // destination is rd rather than rt
	RegWrite bool
	ALUSrc   bool // operand B is the immediate
	ShiftSrc bool // operand A is shamt rather than rs

	MemRead   bool
	MemWrite  bool
	MemSize   uint8 // 1, 2 or 4 bytes
	MemSigned bool
	MemToReg  bool

	Branch  bool
	Cond    BranchCond
	Jump    bool
	JumpReg bool
	Link    bool

	ALUOp   ALUOpClass
	ALUCode ALUCode
	MDU     MDUOp
	HiLo    HiLoMove
	Syscall bool
	ImmExt  ImmExt
}

// UsesALU reports whether the instruction's result comes from the ALU.
func (c Control) UsesALU() bool {
	return c.MDU == MDUNone && c.HiLo == HiLoNone && !c.Syscall
}

// mainControl is the first-level table keyed by major opcode.
var mainControl = map[uint32]Control{
	0: {RegDst: true, RegWrite: true, ALUOp: ALUOpRType},

	8:  {RegWrite: true, ALUSrc: true, ALUOp: ALUOpIType, ALUCode: ALUAdd},
	9:  {RegWrite: true, ALUSrc: true, ALUOp: ALUOpIType, ALUCode: ALUAddu},
	10: {RegWrite: true, ALUSrc: true, ALUOp: ALUOpIType, ALUCode: ALUSlt},
	11: {RegWrite: true, ALUSrc: true, ALUOp: ALUOpIType, ALUCode: ALUSltu},
	12: {RegWrite: true, ALUSrc: true, ALUOp: ALUOpIType, ALUCode: ALUAnd, ImmExt: ExtZero},
	13: {RegWrite: true, ALUSrc: true, ALUOp: ALUOpIType, ALUCode: ALUOr, ImmExt: ExtZero},
	14: {RegWrite: true, ALUSrc: true, ALUOp: ALUOpIType, ALUCode: ALUXor, ImmExt: ExtZero},
	15: {RegWrite: true, ALUSrc: true, ALUOp: ALUOpIType, ALUCode: ALUPassB, ImmExt: ExtUpper},

	4: {Branch: true, Cond: CondEQ, ALUOp: ALUOpBranch},
	5: {Branch: true, Cond: CondNE, ALUOp: ALUOpBranch},
	6: {Branch: true, Cond: CondLEZ, ALUOp: ALUOpBranch},
	7: {Branch: true, Cond: CondGTZ, ALUOp: ALUOpBranch},

	32: {RegWrite: true, ALUSrc: true, MemRead: true, MemToReg: true, MemSize: 1, MemSigned: true},
	33: {RegWrite: true, ALUSrc: true, MemRead: true, MemToReg: true, MemSize: 2, MemSigned: true},
	35: {RegWrite: true, ALUSrc: true, MemRead: true, MemToReg: true, MemSize: 4, MemSigned: true},
	36: {RegWrite: true, ALUSrc: true, MemRead: true, MemToReg: true, MemSize: 1},
	37: {RegWrite: true, ALUSrc: true, MemRead: true, MemToReg: true, MemSize: 2},
	40: {ALUSrc: true, MemWrite: true, MemSize: 1},
	41: {ALUSrc: true, MemWrite: true, MemSize: 2},
	43: {ALUSrc: true, MemWrite: true, MemSize: 4},

	2: {Jump: true},
	3: {Jump: true, Link: true, RegWrite: true},
}

// functControl is the second-level ALU control ROM for R-format words.
var functControl = map[uint32]ALUCode{
	32: ALUAdd,
	33: ALUAddu,
	34: ALUSub,
	35: ALUSubu,
	36: ALUAnd,
	37: ALUOr,
	38: ALUXor,
	39: ALUNor,
	42: ALUSlt,
	43: ALUSltu,
	0:  ALUSll,
	4:  ALUSll,
	2:  ALUSrl,
	6:  ALUSrl,
	3:  ALUSra,
	7:  ALUSra,
}

// ResolveALU maps an operation class and funct value to an ALUCode.
// preset is used for ALUOpIType.
func ResolveALU(class ALUOpClass, funct uint32, preset ALUCode) ALUCode {
	switch class {
	case ALUOpMemAdd:
		return ALUAdd
	case ALUOpBranch:
		return ALUSub
	case ALUOpRType:
		if code, ok := functControl[funct]; ok {
			return code
		}
		return ALUAnd
	default:
		return preset
	}
}

// controlFor builds the control bundle for a decoded word.
func controlFor(opcode, funct uint32) Control {
	ctrl := mainControl[opcode]
	ctrl.ALUCode = ResolveALU(ctrl.ALUOp, funct, ctrl.ALUCode)

	if opcode != 0 {
		return ctrl
	}

	switch funct {
	case 0, 2, 3:
		ctrl.ShiftSrc = true
	case 8:
		ctrl = Control{Jump: true, JumpReg: true}
	case 9:
		ctrl = Control{RegDst: true, RegWrite: true, Jump: true, JumpReg: true, Link: true}
	case 12:
		ctrl = Control{Syscall: true}
	case 16:
		ctrl = Control{RegDst: true, RegWrite: true, HiLo: HiLoFromHI}
	case 18:
		ctrl = Control{RegDst: true, RegWrite: true, HiLo: HiLoFromLO}
	case 17:
		ctrl = Control{HiLo: HiLoToHI}
	case 19:
		ctrl = Control{HiLo: HiLoToLO}
	case 24:
		ctrl = Control{MDU: MDUMult}
	case 25:
		ctrl = Control{MDU: MDUMultu}
	case 26:
		ctrl = Control{MDU: MDUDiv}
	case 27:
		ctrl = Control{MDU: MDUDivu}
	}

	return ctrl
}
