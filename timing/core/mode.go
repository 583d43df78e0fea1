package core

import "fmt"

// Mode selects an execution engine.
type Mode int

const (
	// ModeSingleCycle executes one whole instruction per step.
	ModeSingleCycle Mode = iota
	// ModePipeline runs the 5-stage pipeline one cycle per step.
	ModePipeline
)

// String returns the flag spelling of the mode.
func (m Mode) String() string {
	if m == ModePipeline {
		return "pipeline"
	}
	return "single"
}

// ParseMode accepts "single" or "pipeline".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "single", "single-cycle":
		return ModeSingleCycle, nil
	case "pipeline", "pipelined":
		return ModePipeline, nil
	}
	return ModeSingleCycle, fmt.Errorf("unknown mode %q (want single or pipeline)", s)
}
