package emu_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/insts"
)

var _ = Describe("DefaultSyscallHandler", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
		stdout  *bytes.Buffer
		handler *emu.DefaultSyscallHandler
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		memory = emu.NewMemory(256)
		stdout = &bytes.Buffer{}
		handler = emu.NewDefaultSyscallHandler(regFile, memory, stdout)
	})

	call := func(num, a0 int32) emu.SyscallResult {
		regFile.WriteReg(insts.RegV0, num)
		regFile.WriteReg(insts.RegA0, a0)
		return handler.Handle()
	}

	It("should print a signed integer", func() {
		result := call(emu.SyscallPrintInt, -7)
		Expect(result.Exited).To(BeFalse())
		Expect(stdout.String()).To(Equal("-7"))
	})

	It("should print a NUL-terminated string", func() {
		memory.WriteBytes(100, []byte("hi\x00there"))
		call(emu.SyscallPrintString, 100)
		Expect(stdout.String()).To(Equal("hi"))
	})

	It("should print a character", func() {
		call(emu.SyscallPrintChar, 'A')
		Expect(stdout.String()).To(Equal("A"))
	})

	It("should exit with status 0", func() {
		result := call(emu.SyscallExit, 55)
		Expect(result.Exited).To(BeTrue())
		Expect(result.ExitCode).To(BeZero())
	})

	It("should exit with the status in $a0", func() {
		result := call(emu.SyscallExit2, 4)
		Expect(result.Exited).To(BeTrue())
		Expect(result.ExitCode).To(Equal(int32(4)))
	})

	It("should return -ENOSYS for unknown syscalls", func() {
		result := call(99, 0)
		Expect(result.Exited).To(BeFalse())
		Expect(regFile.ReadReg(insts.RegV0)).To(Equal(int32(-emu.ENOSYS)))
	})

	Context("with stdin", func() {
		BeforeEach(func() {
			handler.SetStdin(strings.NewReader("123\nhello world\nZ"))
		})

		It("should read an integer, a line and a character", func() {
			call(emu.SyscallReadInt, 0)
			Expect(regFile.ReadReg(insts.RegV0)).To(Equal(int32(123)))

			regFile.WriteReg(insts.RegA1, 6)
			call(emu.SyscallReadString, 40)
			Expect(memory.ReadBytes(40, 6)).To(Equal([]byte("hello\x00")))

			call(emu.SyscallReadChar, 0)
			Expect(regFile.ReadReg(insts.RegV0)).To(Equal(int32('Z')))
		})
	})

	It("should read EOF without stdin", func() {
		call(emu.SyscallReadChar, 0)
		Expect(regFile.ReadReg(insts.RegV0)).To(Equal(int32(-1)))
	})
})
