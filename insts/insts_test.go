package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should name every op in the table", func() {
		for _, def := range insts.Definitions() {
			Expect(def.Op.String()).To(Equal(def.Name))
			op, ok := insts.OpByName(def.Name)
			Expect(ok).To(BeTrue())
			Expect(op).To(Equal(def.Op))
		}
		Expect(insts.OpUnknown.String()).To(Equal("UNKNOWN"))
	})

	It("should extract and insert fields", func() {
		word := insts.FieldRs.Insert(0, 29)
		Expect(word).To(Equal(uint32(0x03A00000)))
		Expect(insts.FieldRs.Extract(word)).To(Equal(uint32(29)))
		Expect(insts.FieldImm.Mask()).To(Equal(uint32(0xFFFF)))
		Expect(insts.FieldOpcode.Mask()).To(Equal(uint32(0xFC000000)))
	})
})
