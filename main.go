// Package main provides the entry point for the MIPS simulator.
// The simulator runs MIPS32 programs on a single-cycle datapath or on a
// classic 5-stage pipeline with caches.
//
// For the full CLI, use: go run ./cmd/mipssim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mipssim - MIPS32 single-cycle and pipelined simulator")
	fmt.Println("")
	fmt.Println("Usage: mipssim [options] <program>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -mode       single or pipeline")
	fmt.Println("  -config     Path to machine configuration JSON file")
	fmt.Println("  -hex        Load a hex word listing instead of an ELF")
	fmt.Println("  -delay-slot, -forwarding, -hazard  Pipeline switches")
	fmt.Println("  -v          Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mipssim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/benchmark' for the benchmark harness.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mipssim' instead.")
	}
}
