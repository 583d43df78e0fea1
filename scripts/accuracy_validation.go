// Package main provides accuracy validation for the two execution engines.
// Ensures that the pipeline reaches the same architectural state as the
// single-cycle datapath under every configuration that keeps it correct.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/mipssim/benchmarks"
	"github.com/sarchlab/mipssim/config"
	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/timing/core"
)

// testInstructionDecoding validates that every defined instruction
// survives encode, decode and disassembly.
func testInstructionDecoding() bool {
	decoder := insts.NewDecoder()

	fmt.Println("Testing instruction decoder accuracy...")

	for _, def := range insts.Definitions() {
		var ops insts.Operands
		switch def.Format {
		case insts.FormatR:
			ops = insts.Operands{Rs: 3, Rt: 17, Rd: 30, Shamt: 7}
		case insts.FormatI:
			ops = insts.Operands{Rs: 5, Rt: 12, Imm: -20}
		case insts.FormatJ:
			ops = insts.Operands{Target: 0x100}
		}

		word, err := insts.Encode(def.Op, ops)
		if err != nil {
			fmt.Printf("FAIL %s: encode: %v\n", def.Name, err)
			return false
		}

		inst := decoder.Decode(word)
		if inst == nil || inst.Op != def.Op {
			fmt.Printf("FAIL %s: 0x%08X decoded as %v\n", def.Name, word, inst)
			return false
		}

		fmt.Printf("ok   0x%08X  %s\n", word, decoder.Disassemble(word))
	}

	return true
}

// engineConfigs lists the machine variants checked for agreement. Turning
// hazard detection off is left out: the pipeline is allowed to read stale
// values then.
func engineConfigs() map[string]*config.Config {
	configs := map[string]*config.Config{}
	for _, delaySlot := range []bool{true, false} {
		for _, forwarding := range []bool{true, false} {
			cfg := config.DefaultConfig()
			cfg.DelaySlot = delaySlot
			cfg.Forwarding = forwarding
			configs[fmt.Sprintf("delay_slot=%v forwarding=%v", delaySlot, forwarding)] = cfg
		}
	}
	return configs
}

type outcome struct {
	snap   core.Snapshot
	memory []byte
	exit   int32
}

func runEngine(cfg *config.Config, bench benchmarks.Benchmark, mode core.Mode) (outcome, error) {
	machine, err := core.New(cfg, core.WithStdout(io.Discard))
	if err != nil {
		return outcome{}, err
	}
	if err := machine.LoadProgram(bench.Program); err != nil {
		return outcome{}, err
	}
	if bench.Setup != nil {
		bench.Setup(machine)
	}

	res, err := machine.RunMode(context.Background(), mode)
	if err != nil {
		return outcome{}, err
	}

	mem := machine.Memory()
	return outcome{
		snap:   machine.Snapshot(),
		memory: mem.ReadBytes(0, mem.Size()),
		exit:   res.ExitCode,
	}, nil
}

// testEngineAgreement runs every microbenchmark on both engines and
// compares registers, HI/LO, memory and the exit code.
func testEngineAgreement() bool {
	fmt.Println("\nTesting engine agreement...")

	passed := true
	for name, cfg := range engineConfigs() {
		for _, bench := range benchmarks.GetMicrobenchmarks() {
			single, err := runEngine(cfg, bench, core.ModeSingleCycle)
			if err != nil {
				fmt.Printf("FAIL %s [%s]: single: %v\n", bench.Name, name, err)
				passed = false
				continue
			}

			piped, err := runEngine(cfg, bench, core.ModePipeline)
			if err != nil {
				fmt.Printf("FAIL %s [%s]: pipeline: %v\n", bench.Name, name, err)
				passed = false
				continue
			}

			switch {
			case single.exit != piped.exit:
				fmt.Printf("FAIL %s [%s]: exit %d vs %d\n", bench.Name, name, single.exit, piped.exit)
				passed = false
			case single.snap.Regs != piped.snap.Regs:
				fmt.Printf("FAIL %s [%s]: registers differ\n", bench.Name, name)
				passed = false
			case single.snap.HI != piped.snap.HI || single.snap.LO != piped.snap.LO:
				fmt.Printf("FAIL %s [%s]: HI/LO differ\n", bench.Name, name)
				passed = false
			case !bytes.Equal(single.memory, piped.memory):
				fmt.Printf("FAIL %s [%s]: memory differs\n", bench.Name, name)
				passed = false
			default:
				fmt.Printf("ok   %s [%s]: exit %d\n", bench.Name, name, single.exit)
			}
		}
	}

	return passed
}

func main() {
	fmt.Println("mipssim Accuracy Validation")
	fmt.Println("===========================")

	allPassed := true

	if !testInstructionDecoding() {
		allPassed = false
	}

	if !testEngineAgreement() {
		allPassed = false
	}

	fmt.Println("\n===========================")
	if allPassed {
		fmt.Println("ALL ACCURACY TESTS PASSED")
		os.Exit(0)
	}

	fmt.Println("ACCURACY TESTS FAILED")
	os.Exit(1)
}
