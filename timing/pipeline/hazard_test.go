package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/timing/pipeline"
)

func decode(op insts.Op, ops insts.Operands) *insts.Instruction {
	return insts.NewDecoder().Decode(insts.MustEncode(op, ops))
}

var _ = Describe("HazardUnit", func() {
	var hazardUnit *pipeline.HazardUnit

	BeforeEach(func() {
		hazardUnit = pipeline.NewHazardUnit()
	})

	Describe("DetectForwarding", func() {
		var idex *pipeline.IDEXRegister
		var exmem *pipeline.EXMEMRegister
		var memwb *pipeline.MEMWBRegister

		BeforeEach(func() {
			idex = &pipeline.IDEXRegister{Valid: true, Rs: 8, Rt: 9, UsesRs: true, UsesRt: true}
			exmem = &pipeline.EXMEMRegister{}
			memwb = &pipeline.MEMWBRegister{}
		})

		Context("when no forwarding is needed", func() {
			It("should return ForwardNone for both operands", func() {
				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardNone))
				Expect(result.Any()).To(BeFalse())
			})
		})

		Context("when forwarding from EX/MEM is needed", func() {
			It("should forward Rs from EX/MEM", func() {
				exmem.Valid = true
				exmem.Control.RegWrite = true
				exmem.Dest = 8

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardFromEXMEM))
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardNone))
			})

			It("should prefer EX/MEM over MEM/WB", func() {
				exmem.Valid = true
				exmem.Control.RegWrite = true
				exmem.Dest = 9
				memwb.Valid = true
				memwb.Control.RegWrite = true
				memwb.Dest = 9

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromEXMEM))
			})

			It("should not forward a load address", func() {
				exmem.Valid = true
				exmem.Control.RegWrite = true
				exmem.Control.MemRead = true
				exmem.Dest = 8

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)

				Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
			})
		})

		Context("when forwarding from MEM/WB is needed", func() {
			It("should forward loaded data", func() {
				memwb.Valid = true
				memwb.Control.RegWrite = true
				memwb.Control.MemToReg = true
				memwb.Dest = 9
				memwb.ALUResult = 0x100
				memwb.MemData = 42

				result := hazardUnit.DetectForwarding(idex, exmem, memwb)
				Expect(result.ForwardRt).To(Equal(pipeline.ForwardFromMEMWB))

				value := hazardUnit.GetForwardedValue(result.ForwardRt, 0, exmem, memwb)
				Expect(value).To(Equal(int32(42)))
			})
		})

		It("should never forward $zero", func() {
			idex.Rs = 0
			exmem.Valid = true
			exmem.Control.RegWrite = true
			exmem.Dest = 0

			result := hazardUnit.DetectForwarding(idex, exmem, memwb)

			Expect(result.ForwardRs).To(Equal(pipeline.ForwardNone))
		})

		It("should ignore operands the instruction does not read", func() {
			idex.UsesRt = false
			exmem.Valid = true
			exmem.Control.RegWrite = true
			exmem.Dest = 9

			result := hazardUnit.DetectForwarding(idex, exmem, memwb)

			Expect(result.ForwardRt).To(Equal(pipeline.ForwardNone))
		})

		It("should do nothing for a bubble", func() {
			idex.Valid = false
			exmem.Valid = true
			exmem.Control.RegWrite = true
			exmem.Dest = 8

			Expect(hazardUnit.DetectForwarding(idex, exmem, memwb).Any()).To(BeFalse())
		})
	})

	Describe("GetForwardedValue", func() {
		It("should pass the original value through without forwarding", func() {
			value := hazardUnit.GetForwardedValue(pipeline.ForwardNone, 7,
				&pipeline.EXMEMRegister{ALUResult: 1}, &pipeline.MEMWBRegister{})
			Expect(value).To(Equal(int32(7)))
		})

		It("should return the EX/MEM ALU result", func() {
			value := hazardUnit.GetForwardedValue(pipeline.ForwardFromEXMEM, 7,
				&pipeline.EXMEMRegister{ALUResult: 1}, &pipeline.MEMWBRegister{})
			Expect(value).To(Equal(int32(1)))
		})
	})

	Describe("DetectLoadUseHazard", func() {
		var load *pipeline.IDEXRegister

		BeforeEach(func() {
			load = &pipeline.IDEXRegister{Valid: true, Dest: insts.RegT0}
			load.Control.MemRead = true
			load.Control.RegWrite = true
		})

		It("should detect a dependent reader", func() {
			next := decode(insts.OpADD, insts.Operands{Rd: insts.RegT1, Rs: insts.RegT0, Rt: insts.RegT0})
			Expect(hazardUnit.DetectLoadUseHazard(load, next)).To(BeTrue())
		})

		It("should detect a store of the loaded value", func() {
			next := decode(insts.OpSW, insts.Operands{Rt: insts.RegT0, Rs: insts.RegSP})
			Expect(hazardUnit.DetectLoadUseHazard(load, next)).To(BeTrue())
		})

		It("should ignore an independent instruction", func() {
			next := decode(insts.OpADD, insts.Operands{Rd: insts.RegT1, Rs: insts.RegT2, Rt: insts.RegS0})
			Expect(hazardUnit.DetectLoadUseHazard(load, next)).To(BeFalse())
		})

		It("should ignore a non-load producer", func() {
			load.Control.MemRead = false
			next := decode(insts.OpADD, insts.Operands{Rd: insts.RegT1, Rs: insts.RegT0})
			Expect(hazardUnit.DetectLoadUseHazard(load, next)).To(BeFalse())
		})

		It("should ignore LUI, which reads no register", func() {
			next := decode(insts.OpLUI, insts.Operands{Rt: insts.RegT1, Imm: 1})
			Expect(hazardUnit.DetectLoadUseHazard(load, next)).To(BeFalse())
		})
	})

	Describe("DetectRAWHazard", func() {
		It("should see producers in EX and in MEM", func() {
			next := decode(insts.OpADDI, insts.Operands{Rt: insts.RegT1, Rs: insts.RegT0, Imm: 1})

			idex := &pipeline.IDEXRegister{Valid: true, Dest: insts.RegT0}
			idex.Control.RegWrite = true
			Expect(hazardUnit.DetectRAWHazard(next, idex, &pipeline.EXMEMRegister{})).To(BeTrue())

			exmem := &pipeline.EXMEMRegister{Valid: true, Dest: insts.RegT0}
			exmem.Control.RegWrite = true
			Expect(hazardUnit.DetectRAWHazard(next, &pipeline.IDEXRegister{}, exmem)).To(BeTrue())
		})

		It("should not stall on $zero", func() {
			next := decode(insts.OpADDI, insts.Operands{Rt: insts.RegT1, Imm: 1})
			idex := &pipeline.IDEXRegister{Valid: true, Dest: 0}
			idex.Control.RegWrite = true

			Expect(hazardUnit.DetectRAWHazard(next, idex, &pipeline.EXMEMRegister{})).To(BeFalse())
		})
	})

	Describe("DetectSyscallBarrier", func() {
		It("should hold decode behind a SYSCALL in EX", func() {
			idex := &pipeline.IDEXRegister{Valid: true}
			idex.Control.Syscall = true
			Expect(hazardUnit.DetectSyscallBarrier(idex)).To(BeTrue())

			idex.Valid = false
			Expect(hazardUnit.DetectSyscallBarrier(idex)).To(BeFalse())
		})
	})

	It("should name forward sources", func() {
		Expect(pipeline.ForwardNone.String()).To(Equal("none"))
		Expect(pipeline.ForwardFromEXMEM.String()).To(Equal("exmem"))
		Expect(pipeline.ForwardFromMEMWB.String()).To(Equal("memwb"))
	})
})
