package insts

// Op represents a MIPS mnemonic.
type Op uint8

// MIPS opcodes.
const (
	OpUnknown Op = iota

	// R-format.
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU
	OpSLL
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV
	OpJR
	OpJALR
	OpSYSCALL
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU

	// I-format.
	OpADDI
	OpADDIU
	OpSLTI
	OpSLTIU
	OpANDI
	OpORI
	OpXORI
	OpLUI
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW

	// J-format.
	OpJ
	OpJAL

	numOps
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // opcode | rs | rt | rd | shamt | funct
	FormatI              // opcode | rs | rt | imm16
	FormatJ              // opcode | target26
)

// String returns the one-letter format name.
func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatJ:
		return "J"
	default:
		return "?"
	}
}

// Syntax selects the assembly operand layout of an instruction.
type Syntax uint8

// Operand layouts.
const (
	SyntaxNone       Syntax = iota // SYSCALL
	SyntaxRdRsRt                   // ADD rd, rs, rt
	SyntaxRdRtShamt                // SLL rd, rt, shamt
	SyntaxRdRtRs                   // SLLV rd, rt, rs
	SyntaxRs                       // JR rs / MTHI rs
	SyntaxRdRs                     // JALR rd, rs
	SyntaxRd                       // MFHI rd
	SyntaxRsRt                     // MULT rs, rt
	SyntaxRtRsImm                  // ADDI rt, rs, imm
	SyntaxRtImm                    // LUI rt, imm
	SyntaxRsRtOffset               // BEQ rs, rt, offset
	SyntaxRsOffset                 // BLEZ rs, offset
	SyntaxMem                      // LW rt, imm(rs)
	SyntaxTarget                   // J target
)

// Field describes a bit field inside an instruction word.
type Field struct {
	Pos uint8
	Len uint8
}

// Instruction word fields.
var (
	FieldOpcode = Field{Pos: 26, Len: 6}
	FieldRs     = Field{Pos: 21, Len: 5}
	FieldRt     = Field{Pos: 16, Len: 5}
	FieldRd     = Field{Pos: 11, Len: 5}
	FieldShamt  = Field{Pos: 6, Len: 5}
	FieldFunct  = Field{Pos: 0, Len: 6}
	FieldImm    = Field{Pos: 0, Len: 16}
	FieldTarget = Field{Pos: 0, Len: 26}
)

// Mask returns the in-place bit mask of the field.
func (f Field) Mask() uint32 {
	return (uint32(1)<<f.Len - 1) << f.Pos
}

// Extract returns the field value from word, right-aligned.
func (f Field) Extract(word uint32) uint32 {
	return (word >> f.Pos) & (uint32(1)<<f.Len - 1)
}

// Insert returns word with the field replaced by value.
func (f Field) Insert(word, value uint32) uint32 {
	return (word &^ f.Mask()) | ((value << f.Pos) & f.Mask())
}

// operandFields lists the variable fields of each format. Every other bit
// position of the format is fixed and part of the match mask.
var operandFields = map[Format][]Field{
	FormatR: {FieldRs, FieldRt, FieldRd, FieldShamt},
	FormatI: {FieldRs, FieldRt, FieldImm},
	FormatJ: {FieldTarget},
}

// Definition describes one instruction of the ISA.
type Definition struct {
	Op     Op
	Name   string
	Format Format
	Syntax Syntax

	// Base is the encoding with every operand field zero.
	Base uint32

	// Mask covers the fixed bits and Match is Base reduced by Mask.
	Mask  uint32
	Match uint32
}

// Matches reports whether word is an encoding of this definition.
func (d *Definition) Matches(word uint32) bool {
	return word&d.Mask == d.Match
}

func rBase(funct uint32) uint32 {
	return FieldFunct.Insert(0, funct)
}

func iBase(opcode uint32) uint32 {
	return FieldOpcode.Insert(0, opcode)
}

func define(op Op, name string, format Format, syntax Syntax, base uint32) Definition {
	mask := ^uint32(0)
	for _, f := range operandFields[format] {
		mask &^= f.Mask()
	}

	return Definition{
		Op:     op,
		Name:   name,
		Format: format,
		Syntax: syntax,
		Base:   base,
		Mask:   mask,
		Match:  base & mask,
	}
}

var definitions = []Definition{
	define(OpADD, "ADD", FormatR, SyntaxRdRsRt, rBase(32)),
	define(OpADDU, "ADDU", FormatR, SyntaxRdRsRt, rBase(33)),
	define(OpSUB, "SUB", FormatR, SyntaxRdRsRt, rBase(34)),
	define(OpSUBU, "SUBU", FormatR, SyntaxRdRsRt, rBase(35)),
	define(OpAND, "AND", FormatR, SyntaxRdRsRt, rBase(36)),
	define(OpOR, "OR", FormatR, SyntaxRdRsRt, rBase(37)),
	define(OpXOR, "XOR", FormatR, SyntaxRdRsRt, rBase(38)),
	define(OpNOR, "NOR", FormatR, SyntaxRdRsRt, rBase(39)),
	define(OpSLT, "SLT", FormatR, SyntaxRdRsRt, rBase(42)),
	define(OpSLTU, "SLTU", FormatR, SyntaxRdRsRt, rBase(43)),
	define(OpSLL, "SLL", FormatR, SyntaxRdRtShamt, rBase(0)),
	define(OpSRL, "SRL", FormatR, SyntaxRdRtShamt, rBase(2)),
	define(OpSRA, "SRA", FormatR, SyntaxRdRtShamt, rBase(3)),
	define(OpSLLV, "SLLV", FormatR, SyntaxRdRtRs, rBase(4)),
	define(OpSRLV, "SRLV", FormatR, SyntaxRdRtRs, rBase(6)),
	define(OpSRAV, "SRAV", FormatR, SyntaxRdRtRs, rBase(7)),
	define(OpJR, "JR", FormatR, SyntaxRs, rBase(8)),
	define(OpJALR, "JALR", FormatR, SyntaxRdRs, rBase(9)),
	define(OpSYSCALL, "SYSCALL", FormatR, SyntaxNone, rBase(12)),
	define(OpMFHI, "MFHI", FormatR, SyntaxRd, rBase(16)),
	define(OpMTHI, "MTHI", FormatR, SyntaxRs, rBase(17)),
	define(OpMFLO, "MFLO", FormatR, SyntaxRd, rBase(18)),
	define(OpMTLO, "MTLO", FormatR, SyntaxRs, rBase(19)),
	define(OpMULT, "MULT", FormatR, SyntaxRsRt, rBase(24)),
	define(OpMULTU, "MULTU", FormatR, SyntaxRsRt, rBase(25)),
	define(OpDIV, "DIV", FormatR, SyntaxRsRt, rBase(26)),
	define(OpDIVU, "DIVU", FormatR, SyntaxRsRt, rBase(27)),

	define(OpADDI, "ADDI", FormatI, SyntaxRtRsImm, iBase(8)),
	define(OpADDIU, "ADDIU", FormatI, SyntaxRtRsImm, iBase(9)),
	define(OpSLTI, "SLTI", FormatI, SyntaxRtRsImm, iBase(10)),
	define(OpSLTIU, "SLTIU", FormatI, SyntaxRtRsImm, iBase(11)),
	define(OpANDI, "ANDI", FormatI, SyntaxRtRsImm, iBase(12)),
	define(OpORI, "ORI", FormatI, SyntaxRtRsImm, iBase(13)),
	define(OpXORI, "XORI", FormatI, SyntaxRtRsImm, iBase(14)),
	define(OpLUI, "LUI", FormatI, SyntaxRtImm, iBase(15)),
	define(OpBEQ, "BEQ", FormatI, SyntaxRsRtOffset, iBase(4)),
	define(OpBNE, "BNE", FormatI, SyntaxRsRtOffset, iBase(5)),
	define(OpBLEZ, "BLEZ", FormatI, SyntaxRsOffset, iBase(6)),
	define(OpBGTZ, "BGTZ", FormatI, SyntaxRsOffset, iBase(7)),
	define(OpLB, "LB", FormatI, SyntaxMem, iBase(32)),
	define(OpLH, "LH", FormatI, SyntaxMem, iBase(33)),
	define(OpLW, "LW", FormatI, SyntaxMem, iBase(35)),
	define(OpLBU, "LBU", FormatI, SyntaxMem, iBase(36)),
	define(OpLHU, "LHU", FormatI, SyntaxMem, iBase(37)),
	define(OpSB, "SB", FormatI, SyntaxMem, iBase(40)),
	define(OpSH, "SH", FormatI, SyntaxMem, iBase(41)),
	define(OpSW, "SW", FormatI, SyntaxMem, iBase(43)),

	define(OpJ, "J", FormatJ, SyntaxTarget, iBase(2)),
	define(OpJAL, "JAL", FormatJ, SyntaxTarget, iBase(3)),
}

// byOp indexes definitions by Op.
var byOp [numOps]*Definition

// byOpcode groups definitions by major opcode, in table order.
var byOpcode [64][]*Definition

func init() {
	for i := range definitions {
		d := &definitions[i]
		byOp[d.Op] = d
		opcode := FieldOpcode.Extract(d.Base)
		byOpcode[opcode] = append(byOpcode[opcode], d)
	}
}

// Definitions returns every instruction definition, in table order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition of op, or nil if op is unknown.
func Lookup(op Op) *Definition {
	if op >= numOps {
		return nil
	}
	return byOp[op]
}

// String returns the mnemonic.
func (op Op) String() string {
	if d := Lookup(op); d != nil {
		return d.Name
	}
	return "UNKNOWN"
}

// OpByName returns the Op with the given upper-case mnemonic.
func OpByName(name string) (Op, bool) {
	for i := range definitions {
		if definitions[i].Name == name {
			return definitions[i].Op, true
		}
	}
	return OpUnknown, false
}

// RegisterNames holds the conventional names of the 32 GPRs.
var RegisterNames = [32]string{
	"$zero", "$at", "$v0", "$v1", "$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1", "$gp", "$sp", "$fp", "$ra",
}

// Conventional register numbers.
const (
	RegZero uint8 = 0
	RegV0   uint8 = 2
	RegA0   uint8 = 4
	RegA1   uint8 = 5
	RegT0   uint8 = 8
	RegT1   uint8 = 9
	RegT2   uint8 = 10
	RegS0   uint8 = 16
	RegS1   uint8 = 17
	RegSP   uint8 = 29
	RegRA   uint8 = 31
)
