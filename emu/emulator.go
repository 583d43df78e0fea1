package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mipssim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes MIPS instructions on the single-cycle datapath: each
// Step fetches, decodes, executes, accesses memory and writes back one
// instruction.
type Emulator struct {
	regFile        *RegFile
	memory         *Memory
	decoder        *insts.Decoder
	syscallHandler SyscallHandler
	logger         logrus.FieldLogger

	fetchPort BytePort
	dataPort  BytePort
	fetch     *LoadStoreUnit
	data      *LoadStoreUnit

	branch    *BranchState
	delaySlot bool

	stdout io.Writer

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithRegFile makes the emulator operate on an existing register file.
func WithRegFile(rf *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = rf
	}
}

// WithMemory makes the emulator operate on an existing memory.
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithFetchPort routes instruction fetches through port, typically an
// instruction cache.
func WithFetchPort(port BytePort) EmulatorOption {
	return func(e *Emulator) {
		e.fetchPort = port
	}
}

// WithDataPort routes loads and stores through port, typically a data
// cache.
func WithDataPort(port BytePort) EmulatorOption {
	return func(e *Emulator) {
		e.dataPort = port
	}
}

// WithBranchState shares the in-flight branch state with another engine.
func WithBranchState(b *BranchState) EmulatorOption {
	return func(e *Emulator) {
		e.branch = b
	}
}

// WithDelaySlot enables or disables branch delay slots.
func WithDelaySlot(enabled bool) EmulatorOption {
	return func(e *Emulator) {
		e.delaySlot = enabled
	}
}

// WithStdout sets a custom stdout writer for the default syscall handler.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithLogger sets the logger used for step traces.
func WithLogger(l logrus.FieldLogger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = l
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new MIPS emulator. Without options it owns a
// fresh register file and a DefaultMemorySize memory, accessed uncached,
// with delay slots enabled.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		decoder:   insts.NewDecoder(),
		delaySlot: true,
		stdout:    os.Stdout,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.regFile == nil {
		e.regFile = &RegFile{}
	}
	if e.memory == nil {
		e.memory = NewMemory(DefaultMemorySize)
	}
	if e.fetchPort == nil {
		e.fetchPort = e.memory
	}
	if e.dataPort == nil {
		e.dataPort = e.memory
	}
	if e.branch == nil {
		e.branch = &BranchState{}
	}
	if e.logger == nil {
		e.logger = DefaultLogger()
	}

	e.fetch = NewLoadStoreUnit(e.fetchPort, e.memory.Size())
	e.data = NewLoadStoreUnit(e.dataPort, e.memory.Size())

	if e.syscallHandler == nil {
		e.syscallHandler = NewDefaultSyscallHandler(e.regFile, e.dataPort, e.stdout)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Branch returns the in-flight branch state.
func (e *Emulator) Branch() *BranchState {
	return e.branch
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram clears memory, stores words big-endian from address 0 and
// resets the emulator.
func (e *Emulator) LoadProgram(words []uint32) error {
	if err := WriteProgram(e.memory, words); err != nil {
		return err
	}
	e.Reset()
	return nil
}

// WriteProgram clears m and stores words big-endian from address 0.
func WriteProgram(m *Memory, words []uint32) error {
	need := uint64(len(words)) * 4
	if need > uint64(m.Size()) {
		return fmt.Errorf("%d bytes into %d-byte memory: %w",
			need, m.Size(), ErrProgramTooLarge)
	}

	m.Clear()
	for i, w := range words {
		m.Write32(uint32(i*4), w)
	}

	return nil
}

// Reset zeroes the registers, points $sp at the top of memory and drops
// any pending branch. Memory is left intact.
func (e *Emulator) Reset() {
	e.regFile.Reset(e.memory.Size() &^ 3)
	e.branch.Clear()
	e.instructionCount = 0
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("%d instructions: %w", e.instructionCount, ErrLoopLimit),
		}
	}

	pc := e.regFile.PC

	// A branch armed by the previous instruction redirects after this one,
	// which is its delay slot.
	redirect, target := e.branch.Pending, e.branch.Target
	e.branch.Clear()

	word, err := e.fetch.FetchWord(pc)
	if err != nil {
		return StepResult{Err: err}
	}
	e.regFile.PC = pc + 4

	inst := e.decoder.Decode(word)
	if inst == nil {
		return StepResult{Err: &IllegalInstructionError{PC: pc, Word: word}}
	}

	res, err := Execute(ExecInput{
		PC:        pc,
		Inst:      inst,
		RsVal:     e.regFile.ReadReg(inst.Rs),
		RtVal:     e.regFile.ReadReg(inst.Rt),
		HI:        e.regFile.HI,
		LO:        e.regFile.LO,
		DelaySlot: e.delaySlot,
	})
	if err != nil {
		return StepResult{Err: err}
	}

	if res.Taken {
		if e.delaySlot {
			e.branch.Arm(res.Target)
		} else {
			e.regFile.PC = res.Target
		}
	}

	if err := e.commit(inst, res); err != nil {
		return StepResult{Err: fmt.Errorf("%s at PC=0x%X: %w", inst.Op, pc, err)}
	}

	e.instructionCount++

	var result StepResult
	if inst.Control.Syscall {
		sr := e.syscallHandler.Handle()
		result.Exited, result.ExitCode = sr.Exited, sr.ExitCode
	}

	if redirect {
		e.regFile.PC = target
	}

	if DebugEnabled(e.logger) {
		e.logger.WithFields(logrus.Fields{
			"pc":    fmt.Sprintf("0x%08x", pc),
			"word":  fmt.Sprintf("0x%08x", word),
			"inst":  inst.String(),
			"taken": res.Taken,
		}).Debug("step")
	}

	return result
}

// commit performs the memory access and the register writeback.
func (e *Emulator) commit(inst *insts.Instruction, res ExecResult) error {
	c := inst.Control
	value := res.ALUResult

	switch {
	case c.MemRead:
		v, err := e.data.Load(uint32(res.ALUResult), c.MemSize, c.MemSigned)
		if err != nil {
			return err
		}
		value = v
	case c.MemWrite:
		if err := e.data.Store(uint32(res.ALUResult), c.MemSize, res.StoreValue); err != nil {
			return err
		}
	}

	if c.RegWrite {
		e.regFile.WriteReg(res.Dest, value)
	}
	if res.WriteHI {
		e.regFile.HI = res.HI
	}
	if res.WriteLO {
		e.regFile.LO = res.LO
	}

	return nil
}
