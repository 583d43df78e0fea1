package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/insts"
)

var _ = Describe("Control Unit", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	decode := func(op insts.Op, ops insts.Operands) *insts.Instruction {
		inst := decoder.Decode(insts.MustEncode(op, ops))
		Expect(inst).NotTo(BeNil())
		return inst
	}

	Describe("ALU control", func() {
		DescribeTable("R-format funct resolution",
			func(op insts.Op, code insts.ALUCode) {
				inst := decode(op, insts.Operands{Rd: 8, Rs: 9, Rt: 10})
				Expect(inst.Control.ALUOp).To(Equal(insts.ALUOpRType))
				Expect(inst.Control.ALUCode).To(Equal(code))
				Expect(inst.Control.RegDst).To(BeTrue())
				Expect(inst.Control.RegWrite).To(BeTrue())
			},
			Entry("ADD", insts.OpADD, insts.ALUAdd),
			Entry("ADDU", insts.OpADDU, insts.ALUAddu),
			Entry("SUB", insts.OpSUB, insts.ALUSub),
			Entry("SUBU", insts.OpSUBU, insts.ALUSubu),
			Entry("AND", insts.OpAND, insts.ALUAnd),
			Entry("OR", insts.OpOR, insts.ALUOr),
			Entry("XOR", insts.OpXOR, insts.ALUXor),
			Entry("NOR", insts.OpNOR, insts.ALUNor),
			Entry("SLT", insts.OpSLT, insts.ALUSlt),
			Entry("SLTU", insts.OpSLTU, insts.ALUSltu),
			Entry("SLLV", insts.OpSLLV, insts.ALUSll),
			Entry("SRLV", insts.OpSRLV, insts.ALUSrl),
			Entry("SRAV", insts.OpSRAV, insts.ALUSra),
		)

		DescribeTable("I-format pre-resolved codes",
			func(op insts.Op, code insts.ALUCode, ext insts.ImmExt) {
				inst := decode(op, insts.Operands{Rt: 8, Rs: 9, Imm: 1})
				Expect(inst.Control.ALUOp).To(Equal(insts.ALUOpIType))
				Expect(inst.Control.ALUCode).To(Equal(code))
				Expect(inst.Control.ImmExt).To(Equal(ext))
				Expect(inst.Control.ALUSrc).To(BeTrue())
				Expect(inst.Control.RegDst).To(BeFalse())
			},
			Entry("ADDI", insts.OpADDI, insts.ALUAdd, insts.ExtSign),
			Entry("ADDIU", insts.OpADDIU, insts.ALUAddu, insts.ExtSign),
			Entry("SLTI", insts.OpSLTI, insts.ALUSlt, insts.ExtSign),
			Entry("SLTIU", insts.OpSLTIU, insts.ALUSltu, insts.ExtSign),
			Entry("ANDI", insts.OpANDI, insts.ALUAnd, insts.ExtZero),
			Entry("ORI", insts.OpORI, insts.ALUOr, insts.ExtZero),
			Entry("XORI", insts.OpXORI, insts.ALUXor, insts.ExtZero),
			Entry("LUI", insts.OpLUI, insts.ALUPassB, insts.ExtUpper),
		)

		It("should resolve address computation to ADD and branches to SUB", func() {
			Expect(insts.ResolveALU(insts.ALUOpMemAdd, 0, insts.ALUOr)).To(Equal(insts.ALUAdd))
			Expect(insts.ResolveALU(insts.ALUOpBranch, 0, insts.ALUOr)).To(Equal(insts.ALUSub))
		})

		It("should default unknown funct values to AND", func() {
			Expect(insts.ResolveALU(insts.ALUOpRType, 63, insts.ALUOr)).To(Equal(insts.ALUAnd))
		})
	})

	Describe("Memory signals", func() {
		DescribeTable("load width and signedness",
			func(op insts.Op, size uint8, signed bool) {
				c := decode(op, insts.Operands{Rs: 29, Rt: 8}).Control
				Expect(c.MemRead).To(BeTrue())
				Expect(c.MemToReg).To(BeTrue())
				Expect(c.RegWrite).To(BeTrue())
				Expect(c.MemSize).To(Equal(size))
				Expect(c.MemSigned).To(Equal(signed))
			},
			Entry("LB", insts.OpLB, uint8(1), true),
			Entry("LBU", insts.OpLBU, uint8(1), false),
			Entry("LH", insts.OpLH, uint8(2), true),
			Entry("LHU", insts.OpLHU, uint8(2), false),
			Entry("LW", insts.OpLW, uint8(4), true),
		)

		It("should mark stores as memory writes without register write", func() {
			c := decode(insts.OpSH, insts.Operands{Rs: 29, Rt: 8}).Control
			Expect(c.MemWrite).To(BeTrue())
			Expect(c.MemSize).To(Equal(uint8(2)))
			Expect(c.RegWrite).To(BeFalse())
			Expect(c.ALUSrc).To(BeTrue())
		})
	})

	Describe("Branches and jumps", func() {
		DescribeTable("branch conditions",
			func(op insts.Op, cond insts.BranchCond) {
				c := decode(op, insts.Operands{Rs: 8}).Control
				Expect(c.Branch).To(BeTrue())
				Expect(c.Cond).To(Equal(cond))
				Expect(c.ALUCode).To(Equal(insts.ALUSub))
				Expect(c.RegWrite).To(BeFalse())
			},
			Entry("BEQ", insts.OpBEQ, insts.CondEQ),
			Entry("BNE", insts.OpBNE, insts.CondNE),
			Entry("BLEZ", insts.OpBLEZ, insts.CondLEZ),
			Entry("BGTZ", insts.OpBGTZ, insts.CondGTZ),
		)

		It("should patch JALR into a linking register jump", func() {
			c := decode(insts.OpJALR, insts.Operands{Rd: insts.RegT0, Rs: 8}).Control
			Expect(c.Jump).To(BeTrue())
			Expect(c.JumpReg).To(BeTrue())
			Expect(c.Link).To(BeTrue())
			Expect(c.RegWrite).To(BeTrue())
		})

		It("should leave J without link", func() {
			c := decode(insts.OpJ, insts.Operands{Target: 4}).Control
			Expect(c.Jump).To(BeTrue())
			Expect(c.Link).To(BeFalse())
			Expect(c.RegWrite).To(BeFalse())
		})
	})

	Describe("Multiply/divide and HI/LO", func() {
		DescribeTable("MDU ops do not write GPRs",
			func(op insts.Op, mdu insts.MDUOp) {
				c := decode(op, insts.Operands{Rs: 8, Rt: 9}).Control
				Expect(c.MDU).To(Equal(mdu))
				Expect(c.RegWrite).To(BeFalse())
				Expect(c.UsesALU()).To(BeFalse())
			},
			Entry("MULT", insts.OpMULT, insts.MDUMult),
			Entry("MULTU", insts.OpMULTU, insts.MDUMultu),
			Entry("DIV", insts.OpDIV, insts.MDUDiv),
			Entry("DIVU", insts.OpDIVU, insts.MDUDivu),
		)

		It("should make MFHI and MFLO write rd", func() {
			hi := decode(insts.OpMFHI, insts.Operands{Rd: 8}).Control
			lo := decode(insts.OpMFLO, insts.Operands{Rd: 8}).Control
			Expect(hi.HiLo).To(Equal(insts.HiLoFromHI))
			Expect(lo.HiLo).To(Equal(insts.HiLoFromLO))
			Expect(hi.RegWrite).To(BeTrue())
			Expect(hi.RegDst).To(BeTrue())
		})

		It("should make MTHI and MTLO write no GPR", func() {
			hi := decode(insts.OpMTHI, insts.Operands{Rs: 8}).Control
			lo := decode(insts.OpMTLO, insts.Operands{Rs: 8}).Control
			Expect(hi.HiLo).To(Equal(insts.HiLoToHI))
			Expect(lo.HiLo).To(Equal(insts.HiLoToLO))
			Expect(hi.RegWrite).To(BeFalse())
		})
	})

	It("should hand out independent copies of the bundle", func() {
		a := decode(insts.OpADD, insts.Operands{Rd: 1})
		b := decode(insts.OpADD, insts.Operands{Rd: 1})
		a.Control.RegWrite = false
		Expect(b.Control.RegWrite).To(BeTrue())
	})
})
