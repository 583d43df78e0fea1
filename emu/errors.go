package emu

import (
	"errors"
	"fmt"
)

// Fatal simulation errors. Callers match them with errors.Is.
var (
	ErrIllegalInstruction = errors.New("illegal instruction")
	ErrUnalignedPC        = errors.New("unaligned PC")
	ErrUnalignedAccess    = errors.New("unaligned memory access")
	ErrDivideByZero       = errors.New("division by zero")
	ErrProgramTooLarge    = errors.New("program too large for memory")
	ErrLoopLimit          = errors.New("step limit reached")
)

// IllegalInstructionError reports a word that matches no definition.
type IllegalInstructionError struct {
	PC   uint32
	Word uint32
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("illegal instruction 0x%08X at PC=0x%X", e.Word, e.PC)
}

// Unwrap lets errors.Is match ErrIllegalInstruction.
func (e *IllegalInstructionError) Unwrap() error {
	return ErrIllegalInstruction
}
