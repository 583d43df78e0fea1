package emu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/mipssim/insts"
)

// SPIM-style syscall numbers, selected by $v0.
const (
	SyscallPrintInt    int32 = 1
	SyscallPrintString int32 = 4
	SyscallReadInt     int32 = 5
	SyscallReadString  int32 = 8
	SyscallExit        int32 = 10
	SyscallPrintChar   int32 = 11
	SyscallReadChar    int32 = 12
	SyscallExit2       int32 = 17
)

// ENOSYS is returned in $v0 as -ENOSYS for unknown syscalls.
const ENOSYS = 38

// maxStringLen bounds print-string scans over unterminated memory.
const maxStringLen = 4096

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32
}

// SyscallHandler services the SYSCALL instruction. The syscall number and
// arguments are read from the register file.
type SyscallHandler interface {
	Handle() SyscallResult
}

// DefaultSyscallHandler implements the SPIM console syscalls.
type DefaultSyscallHandler struct {
	regFile *RegFile
	port    BytePort
	stdin   *bufio.Reader
	stdout  io.Writer
}

// NewDefaultSyscallHandler creates a handler that reads and writes guest
// memory through port.
func NewDefaultSyscallHandler(regFile *RegFile, port BytePort, stdout io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		regFile: regFile,
		port:    port,
		stdout:  stdout,
	}
}

// SetStdin sets the reader used by the read syscalls. Without one, reads
// behave as end of input.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = bufio.NewReader(stdin)
}

// Handle executes the syscall selected by $v0.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	a0 := h.regFile.ReadReg(insts.RegA0)

	switch h.regFile.ReadReg(insts.RegV0) {
	case SyscallPrintInt:
		_, _ = fmt.Fprintf(h.stdout, "%d", a0)
	case SyscallPrintString:
		_, _ = io.WriteString(h.stdout, h.readString(uint32(a0)))
	case SyscallPrintChar:
		_, _ = h.stdout.Write([]byte{byte(a0)})
	case SyscallReadInt:
		h.regFile.WriteReg(insts.RegV0, h.readInt())
	case SyscallReadString:
		h.readLine(uint32(a0), h.regFile.ReadReg(insts.RegA1))
	case SyscallReadChar:
		h.regFile.WriteReg(insts.RegV0, h.readChar())
	case SyscallExit:
		return SyscallResult{Exited: true}
	case SyscallExit2:
		return SyscallResult{Exited: true, ExitCode: a0}
	default:
		h.regFile.WriteReg(insts.RegV0, -ENOSYS)
	}

	return SyscallResult{}
}

func (h *DefaultSyscallHandler) readString(addr uint32) string {
	var sb strings.Builder
	for i := uint32(0); i < maxStringLen; i++ {
		c := h.port.LoadByte(addr + i)
		if c == 0 {
			break
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func (h *DefaultSyscallHandler) line() string {
	if h.stdin == nil {
		return ""
	}
	s, _ := h.stdin.ReadString('\n')
	return s
}

func (h *DefaultSyscallHandler) readInt() int32 {
	v, err := strconv.ParseInt(strings.TrimSpace(h.line()), 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}

func (h *DefaultSyscallHandler) readChar() int32 {
	if h.stdin == nil {
		return -1
	}
	c, err := h.stdin.ReadByte()
	if err != nil {
		return -1
	}
	return int32(c)
}

// readLine stores at most n-1 bytes of the next input line at addr,
// followed by a NUL.
func (h *DefaultSyscallHandler) readLine(addr uint32, n int32) {
	if n <= 0 {
		return
	}

	s := h.line()
	if len(s) > int(n-1) {
		s = s[:n-1]
	}

	for i := 0; i < len(s); i++ {
		h.port.StoreByte(addr+uint32(i), s[i])
	}
	h.port.StoreByte(addr+uint32(len(s)), 0)
}
