package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/emu"
)

var _ = Describe("LoadStoreUnit", func() {
	var (
		memory *emu.Memory
		lsu    *emu.LoadStoreUnit
	)

	BeforeEach(func() {
		memory = emu.NewMemory(64)
		lsu = emu.NewLoadStoreUnit(memory, memory.Size())
	})

	It("should store and load words big-endian", func() {
		Expect(lsu.Store(8, 4, 0x11223344)).To(Succeed())

		Expect(memory.Read8(8)).To(Equal(byte(0x11)))
		Expect(memory.Read8(11)).To(Equal(byte(0x44)))

		v, err := lsu.Load(8, 4, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int32(0x11223344)))
	})

	It("should sign- or zero-extend narrow loads", func() {
		memory.Write8(4, 0x80)
		memory.Write8(5, 0x01)

		v, err := lsu.Load(4, 1, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int32(-128)))

		v, err = lsu.Load(4, 1, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int32(0x80)))

		v, err = lsu.Load(4, 2, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int32(int16(-32767))))

		v, err = lsu.Load(4, 2, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int32(0x8001)))
	})

	It("should store only the low bytes of narrow stores", func() {
		Expect(lsu.Store(2, 2, 0x7FFFABCD)).To(Succeed())
		Expect(memory.Read8(2)).To(Equal(byte(0xAB)))
		Expect(memory.Read8(3)).To(Equal(byte(0xCD)))
		Expect(memory.Read8(4)).To(BeZero())
	})

	It("should reject misaligned accesses", func() {
		_, err := lsu.Load(2, 4, false)
		Expect(err).To(MatchError(emu.ErrUnalignedAccess))

		err = lsu.Store(1, 2, 0)
		Expect(err).To(MatchError(emu.ErrUnalignedAccess))
	})

	It("should read zero past the end of memory", func() {
		memory.Write32(60, 0x11223344)

		v, err := lsu.Load(64, 4, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())

		v, err = lsu.Load(1024, 2, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
	})

	It("should drop stores past the end of memory", func() {
		Expect(lsu.Store(64, 4, -1)).To(Succeed())
		Expect(lsu.Store(0xFFFFFFFC, 4, -1)).To(Succeed())

		Expect(memory.ReadBytes(0, 64)).To(Equal(make([]byte, 64)))
	})

	It("should reject misaligned fetches", func() {
		_, err := lsu.FetchWord(6)
		Expect(err).To(MatchError(emu.ErrUnalignedPC))
	})
})

var _ = Describe("Memory", func() {
	It("should read and write 32-bit words big-endian", func() {
		m := emu.NewMemory(16)
		m.Write32(4, 0xDEADBEEF)
		Expect(m.Read32(4)).To(Equal(uint32(0xDEADBEEF)))
		Expect(m.Read8(4)).To(Equal(byte(0xDE)))
	})

	It("should zero-fill on Clear", func() {
		m := emu.NewMemory(16)
		m.Write32(0, 0xFFFFFFFF)
		m.Clear()
		Expect(m.Read32(0)).To(BeZero())
	})

	It("should ignore out-of-range writes", func() {
		m := emu.NewMemory(16)
		m.Write32(14, 0xFFFFFFFF)
		Expect(m.Read8(14)).To(BeZero())
		Expect(m.Contains(12, 4)).To(BeTrue())
		Expect(m.Contains(13, 4)).To(BeFalse())
	})
})

var _ = Describe("RegFile", func() {
	It("should hard-wire $zero", func() {
		rf := &emu.RegFile{}
		rf.WriteReg(0, 99)
		Expect(rf.ReadReg(0)).To(BeZero())
	})

	It("should set $sp on Reset", func() {
		rf := &emu.RegFile{}
		rf.WriteReg(8, 1)
		rf.HI = 3
		rf.Reset(1024)
		Expect(rf.ReadReg(8)).To(BeZero())
		Expect(rf.HI).To(BeZero())
		Expect(rf.ReadReg(29)).To(Equal(int32(1024)))
	})
})
