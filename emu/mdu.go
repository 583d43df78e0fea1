package emu

import (
	"fmt"

	"github.com/sarchlab/mipssim/insts"
)

// MDU computes a multiply or divide. Products are split into high and low
// words; divides return the remainder in hi and the quotient in lo.
// Division by zero returns ErrDivideByZero.
func MDU(op insts.MDUOp, a, b int32) (hi, lo int32, err error) {
	switch op {
	case insts.MDUMult:
		p := int64(a) * int64(b)
		return int32(p >> 32), int32(p), nil
	case insts.MDUMultu:
		p := uint64(uint32(a)) * uint64(uint32(b))
		return int32(p >> 32), int32(p), nil
	case insts.MDUDiv:
		if b == 0 {
			return 0, 0, fmt.Errorf("DIV %d / 0: %w", a, ErrDivideByZero)
		}
		return a % b, a / b, nil
	case insts.MDUDivu:
		if b == 0 {
			return 0, 0, fmt.Errorf("DIVU %d / 0: %w", uint32(a), ErrDivideByZero)
		}
		ua, ub := uint32(a), uint32(b)
		return int32(ua % ub), int32(ua / ub), nil
	default:
		return 0, 0, nil
	}
}
