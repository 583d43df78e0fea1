package emu

import "github.com/sarchlab/mipssim/insts"

// Flags holds the ALU condition flags.
type Flags uint8

// ALU flags.
const (
	FlagZero     Flags = 1
	FlagOverflow Flags = 2
	FlagNegative Flags = 4
)

// Zero reports whether the result was zero.
func (f Flags) Zero() bool { return f&FlagZero != 0 }

// Overflow reports signed overflow of ADD or SUB.
func (f Flags) Overflow() bool { return f&FlagOverflow != 0 }

// Negative reports whether the result was negative.
func (f Flags) Negative() bool { return f&FlagNegative != 0 }

// ALU computes code over operands a and b. Shift operations shift b by the
// low five bits of a. Unknown codes yield zero with no flags.
func ALU(code insts.ALUCode, a, b int32) (int32, Flags) {
	ua, ub := uint32(a), uint32(b)

	var res int32
	overflow := false

	switch code {
	case insts.ALUAnd:
		res = a & b
	case insts.ALUOr:
		res = a | b
	case insts.ALUXor:
		res = a ^ b
	case insts.ALUNor:
		res = ^(a | b)
	case insts.ALUAdd:
		res = int32(ua + ub)
		overflow = (^(ua^ub)&(ua^uint32(res)))&0x80000000 != 0
	case insts.ALUAddu:
		res = int32(ua + ub)
	case insts.ALUSub:
		res = int32(ua - ub)
		overflow = ((ua^ub)&(ua^uint32(res)))&0x80000000 != 0
	case insts.ALUSubu:
		res = int32(ua - ub)
	case insts.ALUSlt:
		if a < b {
			res = 1
		}
	case insts.ALUSltu:
		if ua < ub {
			res = 1
		}
	case insts.ALUSll:
		res = int32(ub << (ua & 0x1F))
	case insts.ALUSrl:
		res = int32(ub >> (ua & 0x1F))
	case insts.ALUSra:
		res = b >> (ua & 0x1F)
	case insts.ALULui:
		res = int32((ub & 0xFFFF) << 16)
	case insts.ALUPassB:
		res = b
	default:
		return 0, 0
	}

	var flags Flags
	if res == 0 {
		flags |= FlagZero
	}
	if res < 0 {
		flags |= FlagNegative
	}
	if overflow {
		flags |= FlagOverflow
	}

	return res, flags
}

// BranchTaken evaluates a branch condition on the flags of rs - rt.
func BranchTaken(cond insts.BranchCond, flags Flags) bool {
	switch cond {
	case insts.CondEQ:
		return flags.Zero()
	case insts.CondNE:
		return !flags.Zero()
	case insts.CondLEZ:
		return flags.Zero() || flags.Negative()
	case insts.CondGTZ:
		return !flags.Zero() && !flags.Negative()
	default:
		return false
	}
}
