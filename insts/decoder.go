package insts

// Instruction represents a decoded MIPS instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	// Operand fields. Fields not used by the format are zero.
	Rs     uint8
	Rt     uint8
	Rd     uint8
	Shamt  uint8
	Funct  uint8
	Imm    uint16 // Raw 16-bit immediate
	Target uint32 // Raw 26-bit jump target

	// Control is the derived control-signal bundle.
	Control Control
}

// Decoder decodes MIPS machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. It returns nil when no
// definition matches, which callers report as an illegal instruction.
func (d *Decoder) Decode(word uint32) *Instruction {
	def := d.match(word)
	if def == nil {
		return nil
	}

	inst := &Instruction{
		Op:     def.Op,
		Format: def.Format,
		Word:   word,
	}

	opcode := FieldOpcode.Extract(word)
	funct := FieldFunct.Extract(word)

	switch def.Format {
	case FormatR:
		inst.Rs = uint8(FieldRs.Extract(word))
		inst.Rt = uint8(FieldRt.Extract(word))
		inst.Rd = uint8(FieldRd.Extract(word))
		inst.Shamt = uint8(FieldShamt.Extract(word))
		inst.Funct = uint8(funct)
	case FormatI:
		inst.Rs = uint8(FieldRs.Extract(word))
		inst.Rt = uint8(FieldRt.Extract(word))
		inst.Imm = uint16(FieldImm.Extract(word))
	case FormatJ:
		inst.Target = FieldTarget.Extract(word)
	}

	inst.Control = controlFor(opcode, funct)

	return inst
}

// match finds the first definition registered under the word's major
// opcode whose fixed bits agree with the word.
func (d *Decoder) match(word uint32) *Definition {
	for _, def := range byOpcode[FieldOpcode.Extract(word)] {
		if def.Matches(word) {
			return def
		}
	}
	return nil
}

// ExtImm returns the immediate widened per the instruction's ImmExt.
func (i *Instruction) ExtImm() int32 {
	switch i.Control.ImmExt {
	case ExtZero:
		return int32(uint32(i.Imm))
	case ExtUpper:
		return int32(uint32(i.Imm) << 16)
	default:
		return int32(int16(i.Imm))
	}
}

// BranchOffset returns the signed byte offset of a branch relative to the
// instruction after it.
func (i *Instruction) BranchOffset() int32 {
	return int32(int16(i.Imm)) << 2
}

// UsesRs reports whether rs is read as a source register.
func (i *Instruction) UsesRs() bool {
	c := i.Control
	switch {
	case i.Format == FormatJ:
		return false
	case c.ShiftSrc, c.Syscall:
		return false
	case c.HiLo == HiLoFromHI, c.HiLo == HiLoFromLO:
		return false
	case i.Op == OpLUI:
		return false
	}
	return true
}

// UsesRt reports whether rt is read as a source register.
func (i *Instruction) UsesRt() bool {
	c := i.Control
	switch i.Format {
	case FormatR:
		return !c.JumpReg && !c.Syscall && c.HiLo == HiLoNone
	case FormatI:
		if c.Branch {
			return c.Cond == CondEQ || c.Cond == CondNE
		}
		return c.MemWrite
	}
	return false
}

// IsBranchOrJump reports whether the instruction can redirect the PC.
func (i *Instruction) IsBranchOrJump() bool {
	return i.Control.Branch || i.Control.Jump
}
