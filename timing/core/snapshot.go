package core

import (
	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/timing/cache"
	"github.com/sarchlab/mipssim/timing/pipeline"
)

// Snapshot is a read-only copy of the machine state for front ends.
type Snapshot struct {
	PC     uint32
	Regs   [32]int32
	HI, LO int32

	Branch  emu.BranchState
	Latches pipeline.Latches

	Pipeline     pipeline.Statistics
	Instructions uint64

	Halted   bool
	ExitCode int32

	ICache cache.Snapshot
	DCache cache.Snapshot
}

// Snapshot copies the architectural, pipeline and cache state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		PC:           m.regFile.PC,
		Regs:         m.regFile.R,
		HI:           m.regFile.HI,
		LO:           m.regFile.LO,
		Branch:       *m.branch,
		Latches:      m.pipeline.Latches(),
		Pipeline:     m.pipeline.Stats(),
		Instructions: m.emulator.InstructionCount(),
		ICache:       m.icache.Snapshot(),
		DCache:       m.dcache.Snapshot(),
	}

	switch {
	case m.exited:
		s.Halted, s.ExitCode = true, m.exitCode
	case m.pipeline.Halted():
		s.Halted, s.ExitCode = true, m.pipeline.ExitCode()
	}

	return s
}
