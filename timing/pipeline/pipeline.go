package pipeline

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/timing/cache"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions completed (retired).
	Instructions uint64
	// Stalls is the number of cycles decode was held by a hazard.
	Stalls uint64
	// Flushes is the number of taken branches that squashed the
	// instruction behind them (delay slots disabled).
	Flushes uint64
	// DataHazards is the number of instructions that received at least one
	// forwarded operand.
	DataHazards uint64
	// Bubbles is the number of empty slots inserted by stalls, flushes and
	// delay-slot fetch holds.
	Bubbles uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler emu.SyscallHandler) PipelineOption {
	return func(p *Pipeline) {
		p.syscallHandler = handler
	}
}

// WithStdout sets the writer used by the default syscall handler.
func WithStdout(w io.Writer) PipelineOption {
	return func(p *Pipeline) {
		p.stdout = w
	}
}

// WithICache routes instruction fetch through c.
func WithICache(c *cache.Cache) PipelineOption {
	return func(p *Pipeline) {
		p.icache = c
	}
}

// WithDCache routes loads and stores through c with the given store-miss
// allocation policy.
func WithDCache(c *cache.Cache, writeAllocate bool) PipelineOption {
	return func(p *Pipeline) {
		p.dcache = c
		p.writeAllocate = writeAllocate
	}
}

// WithDelaySlot enables or disables branch delay slots. When disabled, a
// taken branch flushes the instruction fetched behind it.
func WithDelaySlot(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.delaySlot = enabled
	}
}

// WithForwarding enables or disables the EX/MEM and MEM/WB bypasses.
func WithForwarding(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.forwarding = enabled
	}
}

// WithHazardDetection enables or disables decode stalls for data hazards.
func WithHazardDetection(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.hazardDetection = enabled
	}
}

// WithBranchState shares the in-flight branch state with another engine.
func WithBranchState(b *emu.BranchState) PipelineOption {
	return func(p *Pipeline) {
		p.branch = b
	}
}

// WithLogger sets the logger used for cycle traces.
func WithLogger(l logrus.FieldLogger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// Pipeline implements a 5-stage pipelined MIPS CPU model.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
type Pipeline struct {
	// Pipeline registers
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Pipeline stages
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	hazardUnit *HazardUnit

	// Optional caches
	icache        *cache.Cache
	dcache        *cache.Cache
	writeAllocate bool

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory
	branch  *emu.BranchState

	syscallHandler emu.SyscallHandler
	stdout         io.Writer
	logger         logrus.FieldLogger

	delaySlot       bool
	forwarding      bool
	hazardDetection bool

	// Fetch produces bubbles at or past this address.
	fetchLimit uint32

	stats Statistics

	// Execution state
	halted   bool
	exitCode int32
	fault    error
}

// NewPipeline creates a new 5-stage pipeline over the given register file
// and memory. Delay slots, forwarding and hazard detection default to on.
func NewPipeline(regFile *emu.RegFile, memory *emu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		hazardUnit:      NewHazardUnit(),
		regFile:         regFile,
		memory:          memory,
		stdout:          os.Stdout,
		delaySlot:       true,
		forwarding:      true,
		hazardDetection: true,
		fetchLimit:      memory.Size(),
	}

	for _, opt := range opts {
		opt(p)
	}

	var fetchPort, dataPort emu.BytePort = memory, memory
	if p.icache != nil {
		fetchPort = p.icache.Port(false)
	}
	if p.dcache != nil {
		dataPort = p.dcache.Port(p.writeAllocate)
	}

	p.fetchStage = NewFetchStage(emu.NewLoadStoreUnit(fetchPort, memory.Size()))
	p.decodeStage = NewDecodeStage(regFile)
	p.executeStage = NewExecuteStage(regFile, p.delaySlot)
	p.memoryStage = NewMemoryStage(emu.NewLoadStoreUnit(dataPort, memory.Size()))
	p.writebackStage = NewWritebackStage(regFile)

	if p.branch == nil {
		p.branch = &emu.BranchState{}
	}
	if p.logger == nil {
		p.logger = emu.DefaultLogger()
	}
	if p.syscallHandler == nil {
		p.syscallHandler = emu.NewDefaultSyscallHandler(regFile, dataPort, p.stdout)
	}

	return p
}

// PC returns the fetch program counter.
func (p *Pipeline) PC() uint32 {
	return p.regFile.PC
}

// SetPC sets the program counter.
func (p *Pipeline) SetPC(pc uint32) {
	p.regFile.PC = pc
}

// SetFetchLimit stops fetch at addresses at or past limit, typically the
// end of the loaded program, so the pipeline can drain.
func (p *Pipeline) SetFetchLimit(limit uint32) {
	p.fetchLimit = limit
}

// GetIFID returns the IF/ID pipeline register.
func (p *Pipeline) GetIFID() *IFIDRegister {
	return &p.ifid
}

// GetIDEX returns the ID/EX pipeline register.
func (p *Pipeline) GetIDEX() *IDEXRegister {
	return &p.idex
}

// GetEXMEM returns the EX/MEM pipeline register.
func (p *Pipeline) GetEXMEM() *EXMEMRegister {
	return &p.exmem
}

// GetMEMWB returns the MEM/WB pipeline register.
func (p *Pipeline) GetMEMWB() *MEMWBRegister {
	return &p.memwb
}

// Latches returns a copy of all four pipeline registers.
func (p *Pipeline) Latches() Latches {
	return Latches{IFID: p.ifid, IDEX: p.idex, EXMEM: p.exmem, MEMWB: p.memwb}
}

// Branch returns the in-flight branch state.
func (p *Pipeline) Branch() *emu.BranchState {
	return p.branch
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Halted returns true if the program exited.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// ExitCode returns the exit status once halted.
func (p *Pipeline) ExitCode() int32 {
	return p.exitCode
}

// Fault returns the error that stopped the pipeline, if any.
func (p *Pipeline) Fault() error {
	return p.fault
}

// Drained reports whether no instruction or redirect is in flight.
func (p *Pipeline) Drained() bool {
	return p.Latches().Empty() && !p.branch.Pending
}

// ICacheStats returns instruction cache statistics, or zero without one.
func (p *Pipeline) ICacheStats() cache.Statistics {
	if p.icache == nil {
		return cache.Statistics{}
	}
	return p.icache.Stats()
}

// DCacheStats returns data cache statistics, or zero without one.
func (p *Pipeline) DCacheStats() cache.Statistics {
	if p.dcache == nil {
		return cache.Statistics{}
	}
	return p.dcache.Stats()
}

// RunCycles ticks up to cycles times. It returns false once the pipeline
// has halted or drained past the fetch limit.
func (p *Pipeline) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles; i++ {
		if p.halted {
			return false, nil
		}
		if p.PC() >= p.fetchLimit && p.Drained() {
			return false, nil
		}
		if err := p.Tick(); err != nil {
			return false, err
		}
	}
	return !p.halted, nil
}

// Tick advances the pipeline by one cycle. Stages run in reverse order,
// writeback first, so that every stage reads the latch feeding it as it
// was at the start of the cycle, and decode sees this cycle's writeback.
// Any fault is fatal: it is returned again by every later Tick until
// Reset, and the faulting cycle is not counted.
func (p *Pipeline) Tick() error {
	if p.fault != nil {
		return p.fault
	}
	if p.halted {
		return nil
	}

	if err := p.tick(); err != nil {
		p.fault = err
		return err
	}

	return nil
}

func (p *Pipeline) tick() error {
	// Stage 5: Writeback
	savedMEMWB := p.memwb
	if p.writebackStage.Writeback(&savedMEMWB) {
		p.stats.Instructions++
	}

	// Stage 4: Memory
	var nextMEMWB MEMWBRegister
	if p.exmem.Valid {
		memResult, err := p.memoryStage.Access(&p.exmem)
		if err != nil {
			return fmt.Errorf("%s at PC=0x%X: %w", p.exmem.Inst.Op, p.exmem.PC, err)
		}

		if p.exmem.Control.Syscall {
			result := p.syscallHandler.Handle()
			if result.Exited {
				p.stats.Cycles++
				p.halt(result.ExitCode)
				return nil
			}
		}

		nextMEMWB = MEMWBRegister{
			Valid:     true,
			PC:        p.exmem.PC,
			Inst:      p.exmem.Inst,
			Control:   p.exmem.Control,
			ALUResult: p.exmem.ALUResult,
			MemData:   memResult.MemData,
			Dest:      p.exmem.Dest,
		}
	}

	// Stage 3: Execute
	var nextEXMEM EXMEMRegister
	flush := false
	if p.idex.Valid {
		var forwarding ForwardingResult
		if p.forwarding {
			forwarding = p.hazardUnit.DetectForwarding(&p.idex, &p.exmem, &savedMEMWB)
		}
		if forwarding.Any() {
			p.stats.DataHazards++
		}

		rsValue := p.hazardUnit.GetForwardedValue(
			forwarding.ForwardRs, p.idex.RsValue, &p.exmem, &savedMEMWB)
		rtValue := p.hazardUnit.GetForwardedValue(
			forwarding.ForwardRt, p.idex.RtValue, &p.exmem, &savedMEMWB)

		execResult, err := p.executeStage.Execute(&p.idex, rsValue, rtValue)
		if err != nil {
			return err
		}

		nextEXMEM = EXMEMRegister{
			Valid:      true,
			PC:         p.idex.PC,
			Inst:       p.idex.Inst,
			Control:    p.idex.Control,
			ALUResult:  execResult.ALUResult,
			StoreValue: execResult.StoreValue,
			Dest:       execResult.Dest,
		}

		if execResult.Taken {
			if p.delaySlot {
				p.branch.Arm(execResult.Target)
			} else {
				p.branch.Clear()
				p.regFile.PC = execResult.Target
				flush = true
				p.stats.Flushes++
			}
		}
	}

	// Stage 2: Decode
	var nextIDEX IDEXRegister
	stall := false
	switch {
	case flush:
		if p.ifid.Valid {
			p.stats.Bubbles++
		}
	case p.ifid.Valid:
		inst, err := p.decodeStage.Decode(&p.ifid)
		if err != nil {
			return err
		}

		stall = p.detectStall(inst)
		if stall {
			p.stats.Stalls++
			p.stats.Bubbles++
		} else {
			nextIDEX = p.decodeStage.Issue(p.ifid.PC, inst)
		}
	}

	// Stage 1: Fetch
	nextIFID, err := p.fetch(stall)
	if err != nil {
		return err
	}

	p.stats.Cycles++

	if emu.DebugEnabled(p.logger) {
		p.trace(stall, flush)
	}

	p.ifid = nextIFID
	p.idex = nextIDEX
	p.exmem = nextEXMEM
	p.memwb = nextMEMWB

	return nil
}

// detectStall decides whether the decoded instruction must wait in IF/ID.
// The instruction in ID/EX at the start of the cycle is the one executing
// now; the one in EX/MEM is in the memory stage.
func (p *Pipeline) detectStall(next *insts.Instruction) bool {
	if p.hazardUnit.DetectSyscallBarrier(&p.idex) {
		return true
	}

	if !p.hazardDetection {
		return false
	}

	if p.forwarding {
		return p.hazardUnit.DetectLoadUseHazard(&p.idex, next)
	}

	return p.hazardUnit.DetectRAWHazard(next, &p.idex, &p.exmem)
}

// fetch produces the next IF/ID latch. A stall holds the current one. A
// freshly armed branch consumes one fetch slot before redirecting, since
// its delay slot was fetched in the previous cycle.
func (p *Pipeline) fetch(stall bool) (IFIDRegister, error) {
	if stall {
		return p.ifid, nil
	}

	if p.branch.Pending {
		if p.branch.DelaySlotHold {
			p.branch.DelaySlotHold = false
			p.stats.Bubbles++
			return IFIDRegister{}, nil
		}

		p.regFile.PC = p.branch.Target
		p.branch.Clear()
	}

	pc := p.regFile.PC
	if pc%4 == 0 && pc >= p.fetchLimit {
		return IFIDRegister{}, nil
	}

	word, err := p.fetchStage.Fetch(pc)
	if err != nil {
		return IFIDRegister{}, err
	}
	p.regFile.PC = pc + 4

	return IFIDRegister{Valid: true, PC: pc, InstructionWord: word}, nil
}

func (p *Pipeline) halt(code int32) {
	p.halted = true
	p.exitCode = code
	p.stats.Instructions++

	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.branch.Clear()
}

func (p *Pipeline) trace(stall, flush bool) {
	fields := logrus.Fields{
		"cycle": p.stats.Cycles,
		"pc":    fmt.Sprintf("0x%08x", p.regFile.PC),
		"stall": stall,
		"flush": flush,
	}

	if p.ifid.Valid {
		fields["id"] = fmt.Sprintf("0x%x", p.ifid.PC)
	}
	if p.idex.Valid {
		fields["ex"] = p.idex.Inst.String()
	}
	if p.exmem.Valid {
		fields["mem"] = p.exmem.Inst.String()
	}
	if p.memwb.Valid {
		fields["wb"] = p.memwb.Inst.String()
	}

	p.logger.WithFields(fields).Debug("cycle")
}

// Reset empties every latch and clears statistics, the branch state and
// the halted flag. Registers, memory and caches are left to the owner.
func (p *Pipeline) Reset() {
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.branch.Clear()
	p.stats = Statistics{}
	p.halted = false
	p.exitCode = 0
	p.fault = nil
}
