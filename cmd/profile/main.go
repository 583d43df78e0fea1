// Package main provides a profiling wrapper for the MIPS simulator to
// identify performance bottlenecks in the engines.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/profile"

	"github.com/sarchlab/mipssim/benchmarks"
	"github.com/sarchlab/mipssim/config"
	"github.com/sarchlab/mipssim/loader"
	"github.com/sarchlab/mipssim/timing/core"
)

var (
	mode       = flag.String("mode", "pipeline", "Execution engine: single or pipeline")
	kind       = flag.String("profile", "cpu", "Profile kind: cpu, mem, block or trace")
	profileDir = flag.String("profile-dir", ".", "Directory for the profile output")
	hex        = flag.Bool("hex", false, "Treat the program as a hex word listing instead of ELF")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	maxSteps   = flag.Uint64("max-steps", 1000000, "max steps per run before giving up")
	iterations = flag.Int("iterations", 100, "times to repeat the built-in microbenchmarks")
)

func profileMode() (func(*profile.Profile), error) {
	switch *kind {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "block":
		return profile.BlockProfile, nil
	case "trace":
		return profile.TraceProfile, nil
	}
	return nil, fmt.Errorf("unknown profile kind %q", *kind)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] [program]\n")
		fmt.Fprintf(os.Stderr, "\nWithout a program the built-in microbenchmarks are run.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	m, err := core.ParseMode(*mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	pm, err := profileMode()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.LoopThreshold = *maxSteps

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	p := profile.Start(pm, profile.ProfilePath(*profileDir), profile.NoShutdownHook)
	start := time.Now()

	var steps, instrCount uint64
	if flag.NArg() > 0 {
		steps, instrCount, err = profileProgram(ctx, cfg, m, flag.Arg(0))
	} else {
		steps, instrCount, err = profileBenchmarks(ctx, cfg, m)
	}

	elapsed := time.Since(start)
	p.Stop()

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Mode: %s\n", m)
	fmt.Printf("Steps: %d\n", steps)
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// profileProgram runs one program to completion.
func profileProgram(ctx context.Context, cfg *config.Config, m core.Mode, path string) (uint64, uint64, error) {
	var prog *loader.Program
	if *hex {
		words, err := loader.LoadHexFile(path)
		if err != nil {
			return 0, 0, err
		}
		prog = loader.FromWords(words)
	} else {
		var err error
		prog, err = loader.Load(path)
		if err != nil {
			return 0, 0, err
		}
	}

	machine, err := core.New(cfg)
	if err != nil {
		return 0, 0, err
	}
	if err := machine.LoadImage(prog); err != nil {
		return 0, 0, err
	}

	fmt.Printf("Loaded: %s\n", path)
	fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)

	res, err := machine.RunMode(ctx, m)
	return res.Steps, machine.Stats(m).Instructions, err
}

// profileBenchmarks repeats every microbenchmark on a fresh machine.
func profileBenchmarks(ctx context.Context, cfg *config.Config, m core.Mode) (uint64, uint64, error) {
	var steps, instrCount uint64

	for i := 0; i < *iterations; i++ {
		for _, bench := range benchmarks.GetMicrobenchmarks() {
			machine, err := core.New(cfg, core.WithStdout(io.Discard))
			if err != nil {
				return steps, instrCount, err
			}
			if err := machine.LoadProgram(bench.Program); err != nil {
				return steps, instrCount, fmt.Errorf("%s: %w", bench.Name, err)
			}
			if bench.Setup != nil {
				bench.Setup(machine)
			}

			res, err := machine.RunMode(ctx, m)
			steps += res.Steps
			instrCount += machine.Stats(m).Instructions
			if err != nil {
				return steps, instrCount, fmt.Errorf("%s: %w", bench.Name, err)
			}
		}
	}

	return steps, instrCount, nil
}
