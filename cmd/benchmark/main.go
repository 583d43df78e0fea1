// Command benchmark runs the MIPS simulator benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv         Output results in CSV format (default: human-readable)
//	-json        Output a JSON report
//	-mode        Engines to run: single, pipeline or both (default both)
//	-config      Machine configuration JSON file
//	-core        Run only the core subset of the microbenchmarks
//	-v           Print per-benchmark progress
//
// Example:
//
//	# Compare the two engines on all microbenchmarks
//	go run ./cmd/benchmark
//
//	# Pipeline without forwarding, as CSV
//	go run ./cmd/benchmark -mode pipeline -config noforward.json -csv > results.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/mipssim/benchmarks"
	"github.com/sarchlab/mipssim/config"
	"github.com/sarchlab/mipssim/timing/core"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output a JSON report")
	mode := flag.String("mode", "both", "Engines to run: single, pipeline or both")
	configPath := flag.String("config", "", "Machine configuration JSON file")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	harnessConfig := benchmarks.DefaultConfig()
	harnessConfig.Output = os.Stdout
	harnessConfig.Verbose = *verbose

	if *configPath != "" {
		machine, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		harnessConfig.Machine = machine
	}

	if *mode != "both" {
		m, err := core.ParseMode(*mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		harnessConfig.Modes = []core.Mode{m}
	}

	harness := benchmarks.NewHarness(harnessConfig)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("MIPS Simulator Benchmark Harness")
		fmt.Println("================================")
		fmt.Printf("Delay slot:       %v\n", harnessConfig.Machine.DelaySlot)
		fmt.Printf("Hazard detection: %v\n", harnessConfig.Machine.HazardDetection)
		fmt.Printf("Forwarding:       %v\n", harnessConfig.Machine.Forwarding)
		fmt.Println("")
	}

	results := harness.RunAll(context.Background())

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("%d runs, %d failed, average CPI %.2f\n", summary.TotalBenchmarks, summary.Failed, summary.AverageCPI)
		fmt.Println("")
		fmt.Println("Expected characteristics:")
		fmt.Println("- arithmetic_sequential: CPI close to 1 once the pipeline fills")
		fmt.Println("- dependency_chain: forwarding hides every RAW hazard")
		fmt.Println("- load_use_chain: one stall per load-use pair")
		fmt.Println("- branch_loop: flushes only when delay slots are off")
		fmt.Println("- memory_stride: one D-cache miss per block touched")
	}

	if benchmarks.Summarize(results).Failed > 0 {
		os.Exit(1)
	}
}
