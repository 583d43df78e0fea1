package insts

import "fmt"

// Operands holds the operand field values used to encode an instruction.
// Imm accepts both signed (-32768..32767) and unsigned (0..65535) values.
type Operands struct {
	Rs     uint8
	Rt     uint8
	Rd     uint8
	Shamt  uint8
	Imm    int32
	Target uint32
}

// Encode builds the machine word of op with the given operands.
func Encode(op Op, ops Operands) (uint32, error) {
	def := Lookup(op)
	if def == nil {
		return 0, fmt.Errorf("cannot encode unknown op %d", op)
	}

	for _, r := range []uint8{ops.Rs, ops.Rt, ops.Rd, ops.Shamt} {
		if r > 31 {
			return 0, fmt.Errorf("%s: register or shift amount %d out of range", def.Name, r)
		}
	}

	word := def.Base
	switch def.Format {
	case FormatR:
		word = FieldRs.Insert(word, uint32(ops.Rs))
		word = FieldRt.Insert(word, uint32(ops.Rt))
		word = FieldRd.Insert(word, uint32(ops.Rd))
		word = FieldShamt.Insert(word, uint32(ops.Shamt))
	case FormatI:
		if ops.Imm < -32768 || ops.Imm > 65535 {
			return 0, fmt.Errorf("%s: immediate %d does not fit in 16 bits", def.Name, ops.Imm)
		}
		word = FieldRs.Insert(word, uint32(ops.Rs))
		word = FieldRt.Insert(word, uint32(ops.Rt))
		word = FieldImm.Insert(word, uint32(ops.Imm)&0xFFFF)
	case FormatJ:
		if ops.Target > FieldTarget.Mask() {
			return 0, fmt.Errorf("%s: target 0x%x does not fit in 26 bits", def.Name, ops.Target)
		}
		word = FieldTarget.Insert(word, ops.Target)
	}

	return word, nil
}

// MustEncode is like Encode but panics on error. It is meant for building
// programs from constant operands.
func MustEncode(op Op, ops Operands) uint32 {
	word, err := Encode(op, ops)
	if err != nil {
		panic(err)
	}
	return word
}

// EncodeR packs raw R-format fields.
func EncodeR(opcode, rs, rt, rd, shamt, funct uint32) uint32 {
	word := FieldOpcode.Insert(0, opcode)
	word = FieldRs.Insert(word, rs)
	word = FieldRt.Insert(word, rt)
	word = FieldRd.Insert(word, rd)
	word = FieldShamt.Insert(word, shamt)
	return FieldFunct.Insert(word, funct)
}

// EncodeI packs raw I-format fields.
func EncodeI(opcode, rs, rt, imm uint32) uint32 {
	word := FieldOpcode.Insert(0, opcode)
	word = FieldRs.Insert(word, rs)
	word = FieldRt.Insert(word, rt)
	return FieldImm.Insert(word, imm)
}

// EncodeJ packs raw J-format fields.
func EncodeJ(opcode, target uint32) uint32 {
	return FieldTarget.Insert(FieldOpcode.Insert(0, opcode), target)
}
