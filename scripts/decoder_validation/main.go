// Validate decoder allocation behavior under a pipeline-like decode load.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/mipssim/emu"
	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/timing/pipeline"
)

func main() {
	regFile := &emu.RegFile{}

	words := []pipeline.IFIDRegister{
		{Valid: true, PC: 0x0, InstructionWord: insts.MustEncode(insts.OpADDI, insts.Operands{Rt: 8, Rs: 9, Imm: 42})},
		{Valid: true, PC: 0x4, InstructionWord: insts.MustEncode(insts.OpADD, insts.Operands{Rd: 10, Rs: 8, Rt: 9})},
		{Valid: true, PC: 0x8, InstructionWord: insts.MustEncode(insts.OpLW, insts.Operands{Rt: 11, Rs: 29, Imm: 4})},
		{Valid: true, PC: 0xC, InstructionWord: insts.MustEncode(insts.OpBEQ, insts.Operands{Rs: 8, Rt: 9, Imm: -3})},
	}

	decodeStage := pipeline.NewDecodeStage(regFile)

	// Warm up
	for i := 0; i < 1000; i++ {
		_, _ = decodeStage.Decode(&words[0])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	for i := 0; i < iterations; i++ {
		for j := range words {
			inst, err := decodeStage.Decode(&words[j])
			if err != nil {
				fmt.Printf("decode failed: %v\n", err)
				return
			}
			_ = decodeStage.Issue(words[j].PC, inst)
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))

	if float64(allocations)/float64(totalDecodes) < 0.1 {
		fmt.Printf("\nGOOD: Low allocation rate (< 0.1 per decode)\n")
	} else {
		fmt.Printf("\nWARNING: High allocation rate detected\n")
	}
}
