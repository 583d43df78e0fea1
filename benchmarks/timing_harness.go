// Package benchmarks runs hand-encoded MIPS microbenchmarks on both
// execution engines and reports cycle and cache statistics.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/mipssim/config"
	"github.com/sarchlab/mipssim/timing/core"
)

// BenchmarkResult holds the results for a single benchmark run in one
// mode.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Mode is "single" or "pipeline"
	Mode string `json:"mode"`

	// SimulatedCycles is the total cycle count
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of decode stall cycles
	StallCycles uint64 `json:"stall_cycles"`

	// DataHazards is the number of instructions served by forwarding
	DataHazards uint64 `json:"data_hazards"`

	// PipelineFlushes is the number of taken-branch flushes
	PipelineFlushes uint64 `json:"pipeline_flushes"`

	// Bubbles is the number of empty slots inserted
	Bubbles uint64 `json:"bubbles"`

	ICacheHits    uint64  `json:"icache_hits"`
	ICacheMisses  uint64  `json:"icache_misses"`
	ICacheHitRate float64 `json:"icache_hit_rate"`

	DCacheHits    uint64  `json:"dcache_hits"`
	DCacheMisses  uint64  `json:"dcache_misses"`
	DCacheHitRate float64 `json:"dcache_hit_rate"`

	// ExitCode is the program's exit code
	ExitCode int32 `json:"exit_code"`

	// Error is set when the run faulted or exited with the wrong code
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Passed reports whether the benchmark exited with the expected code.
func (r BenchmarkResult) Passed() bool {
	return r.Error == ""
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares data memory after the program is loaded
	Setup func(m *core.Machine)

	// Program is the MIPS machine code, loaded at address 0
	Program []uint32

	// ExpectedExit is the expected exit code (for validation)
	ExpectedExit int32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Machine is the simulated machine configuration
	Machine *config.Config

	// Modes lists the engines each benchmark runs on
	Modes []core.Mode

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration running both
// engines on the default machine.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Machine: config.DefaultConfig(),
		Modes:   []core.Mode{core.ModeSingleCycle, core.ModePipeline},
		Output:  os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Machine == nil {
		config.Machine = DefaultConfig().Machine
	}
	if len(config.Modes) == 0 {
		config.Modes = DefaultConfig().Modes
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every benchmark in every configured mode.
func (h *Harness) RunAll(ctx context.Context) []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks)*len(h.config.Modes))

	for _, bench := range h.benchmarks {
		for _, mode := range h.config.Modes {
			result := h.runBenchmark(ctx, bench, mode)
			if h.config.Verbose {
				_, _ = fmt.Fprintf(h.config.Output, "%-24s %-8s cycles=%d CPI=%.3f\n",
					result.Name, result.Mode, result.SimulatedCycles, result.CPI)
			}
			results = append(results, result)
		}
	}

	return results
}

// runBenchmark executes a single benchmark on a fresh machine.
func (h *Harness) runBenchmark(ctx context.Context, bench Benchmark, mode core.Mode) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		Mode:        mode.String(),
	}

	m, err := core.New(h.config.Machine, core.WithStdout(io.Discard))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if err := m.LoadProgram(bench.Program); err != nil {
		result.Error = err.Error()
		return result
	}
	if bench.Setup != nil {
		bench.Setup(m)
	}

	start := time.Now()
	run, err := m.RunMode(ctx, mode)
	result.WallTime = time.Since(start)

	stats := m.Stats(mode)
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.StallCycles = stats.Stalls
	result.DataHazards = stats.DataHazards
	result.PipelineFlushes = stats.Flushes
	result.Bubbles = stats.Bubbles
	result.ICacheHits = stats.ICache.Hits
	result.ICacheMisses = stats.ICache.Misses
	result.ICacheHitRate = stats.ICache.HitRate()
	result.DCacheHits = stats.DCache.Hits
	result.DCacheMisses = stats.DCache.Misses
	result.DCacheHitRate = stats.DCache.HitRate()
	result.ExitCode = run.ExitCode

	switch {
	case err != nil:
		result.Error = err.Error()
	case !run.Exited:
		result.Error = "program ended without exit"
	case run.ExitCode != bench.ExpectedExit:
		result.Error = fmt.Sprintf("exit code %d, expected %d", run.ExitCode, bench.ExpectedExit)
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output
	_, _ = fmt.Fprintln(w, "=== mipssim Benchmark Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "Benchmark: %s (%s)\n", r.Name, r.Mode)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(w, "  Exit Code: %d\n", r.ExitCode)
		if r.Error != "" {
			_, _ = fmt.Fprintf(w, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(w, "  --- Timing ---")
		_, _ = fmt.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(w, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(w, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(w, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(w, "  Data Hazards:         %d\n", r.DataHazards)
		_, _ = fmt.Fprintf(w, "  Pipeline Flushes:     %d\n", r.PipelineFlushes)
		_, _ = fmt.Fprintf(w, "  Bubbles:              %d\n", r.Bubbles)

		_, _ = fmt.Fprintln(w, "  --- I-Cache ---")
		_, _ = fmt.Fprintf(w, "  Hits:   %d\n", r.ICacheHits)
		_, _ = fmt.Fprintf(w, "  Misses: %d\n", r.ICacheMisses)
		_, _ = fmt.Fprintf(w, "  Rate:   %.1f%%\n", r.ICacheHitRate*100)

		_, _ = fmt.Fprintln(w, "  --- D-Cache ---")
		_, _ = fmt.Fprintf(w, "  Hits:   %d\n", r.DCacheHits)
		_, _ = fmt.Fprintf(w, "  Misses: %d\n", r.DCacheMisses)
		_, _ = fmt.Fprintf(w, "  Rate:   %.1f%%\n", r.DCacheHitRate*100)

		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,mode,cycles,instructions,cpi,stalls,data_hazards,flushes,bubbles,icache_hits,icache_misses,dcache_hits,dcache_misses,exit_code")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.Mode,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.DataHazards,
			r.PipelineFlushes,
			r.Bubbles,
			r.ICacheHits,
			r.ICacheMisses,
			r.DCacheHits,
			r.DCacheMisses,
			r.ExitCode,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	Timestamp string        `json:"timestamp"`
	Version   string        `json:"version"`
	Config    config.Config `json:"config"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Failed            int           `json:"failed"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// Version is reported in JSON output.
const Version = "0.1.0"

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		s.TotalCycles += r.SimulatedCycles
		s.TotalInstructions += r.InstructionsRetired
		s.TotalWallTime += r.WallTime
		if !r.Passed() {
			s.Failed++
		}
	}
	if s.TotalInstructions > 0 {
		s.AverageCPI = float64(s.TotalCycles) / float64(s.TotalInstructions)
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config:    *h.config.Machine,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
