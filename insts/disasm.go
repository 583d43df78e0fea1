package insts

import "fmt"

// RegName returns the conventional name of register r.
func RegName(r uint8) string {
	if int(r) < len(RegisterNames) {
		return RegisterNames[r]
	}
	return fmt.Sprintf("$%d", r)
}

// String renders the instruction in assembly syntax.
func (i *Instruction) String() string {
	def := Lookup(i.Op)
	if def == nil {
		return fmt.Sprintf(".word 0x%08x", i.Word)
	}

	name := def.Name
	switch def.Syntax {
	case SyntaxRdRsRt:
		return fmt.Sprintf("%s %s, %s, %s", name, RegName(i.Rd), RegName(i.Rs), RegName(i.Rt))
	case SyntaxRdRtShamt:
		return fmt.Sprintf("%s %s, %s, %d", name, RegName(i.Rd), RegName(i.Rt), i.Shamt)
	case SyntaxRdRtRs:
		return fmt.Sprintf("%s %s, %s, %s", name, RegName(i.Rd), RegName(i.Rt), RegName(i.Rs))
	case SyntaxRs:
		return fmt.Sprintf("%s %s", name, RegName(i.Rs))
	case SyntaxRdRs:
		return fmt.Sprintf("%s %s, %s", name, RegName(i.Rd), RegName(i.Rs))
	case SyntaxRd:
		return fmt.Sprintf("%s %s", name, RegName(i.Rd))
	case SyntaxRsRt:
		return fmt.Sprintf("%s %s, %s", name, RegName(i.Rs), RegName(i.Rt))
	case SyntaxRtRsImm:
		if i.Control.ImmExt == ExtZero {
			return fmt.Sprintf("%s %s, %s, 0x%x", name, RegName(i.Rt), RegName(i.Rs), i.Imm)
		}
		return fmt.Sprintf("%s %s, %s, %d", name, RegName(i.Rt), RegName(i.Rs), int16(i.Imm))
	case SyntaxRtImm:
		return fmt.Sprintf("%s %s, 0x%x", name, RegName(i.Rt), i.Imm)
	case SyntaxRsRtOffset:
		return fmt.Sprintf("%s %s, %s, %d", name, RegName(i.Rs), RegName(i.Rt), int16(i.Imm))
	case SyntaxRsOffset:
		return fmt.Sprintf("%s %s, %d", name, RegName(i.Rs), int16(i.Imm))
	case SyntaxMem:
		return fmt.Sprintf("%s %s, %d(%s)", name, RegName(i.Rt), int16(i.Imm), RegName(i.Rs))
	case SyntaxTarget:
		return fmt.Sprintf("%s 0x%x", name, i.Target<<2)
	default:
		return name
	}
}

// Disassemble decodes word and renders it, falling back to a .word
// directive for illegal encodings.
func (d *Decoder) Disassemble(word uint32) string {
	inst := d.Decode(word)
	if inst == nil {
		return fmt.Sprintf(".word 0x%08x", word)
	}
	return inst.String()
}
