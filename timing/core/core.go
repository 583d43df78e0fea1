// Package core assembles the simulated MIPS machine: architectural state,
// memory, both caches and the two execution engines that share them.
package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mipssim/config"
	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/loader"
	"github.com/sarchlab/mipssim/timing/cache"
	"github.com/sarchlab/mipssim/timing/pipeline"
)

// Stats holds performance statistics for one execution mode.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Flushes      uint64
	DataHazards  uint64
	Bubbles      uint64

	ICache cache.Statistics
	DCache cache.Statistics
}

// CPI returns the cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// RunResult describes how a run ended.
type RunResult struct {
	// Exited is true if the program called exit.
	Exited   bool
	ExitCode int32

	// Steps counts single-cycle steps or pipeline cycles.
	Steps uint64
}

// Option is a functional option for configuring the Machine.
type Option func(*Machine)

// WithStdout sets the writer for console syscalls.
func WithStdout(w io.Writer) Option {
	return func(m *Machine) {
		m.stdout = w
	}
}

// WithStdin sets the reader for console syscalls.
func WithStdin(r io.Reader) Option {
	return func(m *Machine) {
		m.stdin = r
	}
}

// WithLogger sets the logger shared by both engines.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithSyscallHandler replaces the SPIM console handler.
func WithSyscallHandler(h emu.SyscallHandler) Option {
	return func(m *Machine) {
		m.syscallHandler = h
	}
}

// Machine owns every piece of simulator state. Step and StepPipeline
// drive the same registers, memory, caches and branch state.
type Machine struct {
	config *config.Config

	regFile *emu.RegFile
	memory  *emu.Memory
	branch  *emu.BranchState
	icache  *cache.Cache
	dcache  *cache.Cache

	emulator *emu.Emulator
	pipeline *pipeline.Pipeline

	syscallHandler emu.SyscallHandler
	stdout         io.Writer
	stdin          io.Reader
	logger         logrus.FieldLogger

	// Fetch runs off the end of the program here.
	programEnd uint32

	exited   bool
	exitCode int32

	// err is the first fatal fault; it stops both engines until Reset.
	err error
}

// New builds a machine from cfg, or from the defaults when cfg is nil.
// The machine starts reset with an empty program.
func New(cfg *config.Config, opts ...Option) (*Machine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m := &Machine{
		config:  cfg.Clone(),
		regFile: &emu.RegFile{},
		memory:  emu.NewMemory(cfg.MemorySize),
		branch:  &emu.BranchState{},
		stdout:  os.Stdout,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = emu.DefaultLogger()
	}

	backing := cache.NewMemoryBacking(m.memory)
	m.icache = cache.New(m.config.ICache, backing)
	m.dcache = cache.New(m.config.DCache, backing)

	dataPort := m.dcache.Port(m.config.WriteAllocate)
	if m.syscallHandler == nil {
		h := emu.NewDefaultSyscallHandler(m.regFile, dataPort, m.stdout)
		if m.stdin != nil {
			h.SetStdin(m.stdin)
		}
		m.syscallHandler = h
	}

	m.emulator = emu.NewEmulator(
		emu.WithRegFile(m.regFile),
		emu.WithMemory(m.memory),
		emu.WithFetchPort(m.icache.Port(false)),
		emu.WithDataPort(dataPort),
		emu.WithBranchState(m.branch),
		emu.WithDelaySlot(m.config.DelaySlot),
		emu.WithSyscallHandler(m.syscallHandler),
		emu.WithLogger(m.logger),
	)

	m.pipeline = pipeline.NewPipeline(m.regFile, m.memory,
		pipeline.WithICache(m.icache),
		pipeline.WithDCache(m.dcache, m.config.WriteAllocate),
		pipeline.WithBranchState(m.branch),
		pipeline.WithDelaySlot(m.config.DelaySlot),
		pipeline.WithForwarding(m.config.Forwarding),
		pipeline.WithHazardDetection(m.config.HazardDetection),
		pipeline.WithSyscallHandler(m.syscallHandler),
		pipeline.WithLogger(m.logger),
	)
	m.pipeline.SetFetchLimit(0)

	m.Reset()

	return m, nil
}

// Config returns a copy of the machine configuration.
func (m *Machine) Config() *config.Config {
	return m.config.Clone()
}

// RegFile returns the architectural register file.
func (m *Machine) RegFile() *emu.RegFile {
	return m.regFile
}

// Memory returns the backing memory.
func (m *Machine) Memory() *emu.Memory {
	return m.memory
}

// Pipeline returns the pipelined engine.
func (m *Machine) Pipeline() *pipeline.Pipeline {
	return m.pipeline
}

// ProgramEnd returns the address at which fetch stops.
func (m *Machine) ProgramEnd() uint32 {
	return m.programEnd
}

// Reset zeroes the registers, HI/LO and PC, points $sp at the top of
// memory, empties the pipeline, drops any pending branch and clears both
// caches. Memory, and so the loaded program, is kept.
func (m *Machine) Reset() {
	m.emulator.Reset()
	m.pipeline.Reset()
	m.icache.Reset()
	m.dcache.Reset()
	m.exited = false
	m.exitCode = 0
	m.err = nil
}

// LoadProgram clears memory, stores words from address 0 and resets.
func (m *Machine) LoadProgram(words []uint32) error {
	if err := emu.WriteProgram(m.memory, words); err != nil {
		return err
	}

	m.setProgramEnd(uint32(len(words) * 4))
	m.Reset()

	return nil
}

// LoadImage clears memory, copies every segment of prog, resets and
// starts at the entry point. Segment tails past the file data stay zero.
func (m *Machine) LoadImage(prog *loader.Program) error {
	for _, seg := range prog.Segments {
		size := seg.MemSize
		if uint32(len(seg.Data)) > size {
			size = uint32(len(seg.Data))
		}
		if !m.memory.Contains(seg.VirtAddr, size) {
			return fmt.Errorf("segment 0x%X+%d into %d-byte memory: %w",
				seg.VirtAddr, size, m.memory.Size(), emu.ErrProgramTooLarge)
		}
	}

	m.memory.Clear()
	for _, seg := range prog.Segments {
		m.memory.WriteBytes(seg.VirtAddr, seg.Data)
	}

	m.setProgramEnd(prog.TextEnd())
	m.Reset()
	m.regFile.PC = prog.EntryPoint

	return nil
}

func (m *Machine) setProgramEnd(end uint32) {
	m.programEnd = end
	m.pipeline.SetFetchLimit(end)
}

// Err returns the fault that stopped the machine, if any.
func (m *Machine) Err() error {
	return m.err
}

// Step executes one instruction on the single-cycle datapath. After a
// fault it returns that fault without executing anything.
func (m *Machine) Step() emu.StepResult {
	if m.err != nil {
		return emu.StepResult{Err: m.err}
	}
	if m.exited {
		return emu.StepResult{Exited: true, ExitCode: m.exitCode}
	}

	pc := m.regFile.PC
	res := m.emulator.Step()
	if res.Err != nil {
		m.fault(pc, res.Err)
		return res
	}

	if res.Exited {
		m.exited = true
		m.exitCode = res.ExitCode
	}

	return res
}

// StepPipeline advances the pipelined datapath by one cycle.
func (m *Machine) StepPipeline() emu.StepResult {
	if m.err != nil {
		return emu.StepResult{Err: m.err}
	}
	if !m.pipeline.Halted() {
		pc := m.regFile.PC
		if err := m.pipeline.Tick(); err != nil {
			m.fault(pc, err)
			return emu.StepResult{Err: err}
		}
	}

	return emu.StepResult{
		Exited:   m.pipeline.Halted(),
		ExitCode: m.pipeline.ExitCode(),
	}
}

func (m *Machine) fault(pc uint32, err error) {
	m.err = err
	m.logger.WithError(err).
		WithField("pc", fmt.Sprintf("0x%08x", pc)).
		Error("simulation fault")
}

// Finished reports whether the single-cycle engine ran past the program.
func (m *Machine) Finished() bool {
	return m.regFile.PC >= m.programEnd && !m.branch.Pending
}

// PipelineFinished reports whether the pipeline ran past the program and
// drained.
func (m *Machine) PipelineFinished() bool {
	return m.regFile.PC >= m.programEnd && m.pipeline.Drained()
}

// Run steps the single-cycle engine until exit, a fault, the end of the
// program or the loop threshold.
func (m *Machine) Run(ctx context.Context) (RunResult, error) {
	return m.run(ctx, m.Step, m.Finished)
}

// RunPipeline ticks the pipeline until exit, a fault, the end of the
// program with the pipeline drained, or the loop threshold.
func (m *Machine) RunPipeline(ctx context.Context) (RunResult, error) {
	return m.run(ctx, m.StepPipeline, m.PipelineFinished)
}

// RunMode runs the engine selected by mode.
func (m *Machine) RunMode(ctx context.Context, mode Mode) (RunResult, error) {
	if mode == ModePipeline {
		return m.RunPipeline(ctx)
	}
	return m.Run(ctx)
}

func (m *Machine) run(
	ctx context.Context,
	step func() emu.StepResult,
	finished func() bool,
) (RunResult, error) {
	var result RunResult

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if m.err != nil {
			return result, m.err
		}
		if finished() {
			return result, nil
		}
		if result.Steps >= m.config.LoopThreshold {
			err := fmt.Errorf("%d steps at PC=0x%X: %w",
				result.Steps, m.regFile.PC, emu.ErrLoopLimit)
			m.logger.WithError(err).Error("loop threshold reached")
			return result, err
		}

		res := step()
		result.Steps++
		if res.Err != nil {
			return result, res.Err
		}
		if res.Exited {
			result.Exited = true
			result.ExitCode = res.ExitCode
			return result, nil
		}
	}
}

// Stats returns the counters of the engine selected by mode together with
// the cache statistics. The single-cycle engine spends one cycle per
// instruction.
func (m *Machine) Stats(mode Mode) Stats {
	s := Stats{
		ICache: m.icache.Stats(),
		DCache: m.dcache.Stats(),
	}

	if mode == ModePipeline {
		ps := m.pipeline.Stats()
		s.Cycles = ps.Cycles
		s.Instructions = ps.Instructions
		s.Stalls = ps.Stalls
		s.Flushes = ps.Flushes
		s.DataHazards = ps.DataHazards
		s.Bubbles = ps.Bubbles
		return s
	}

	s.Instructions = m.emulator.InstructionCount()
	s.Cycles = s.Instructions
	return s
}
