// Package main provides the command-line front end for the MIPS simulator.
// It loads a big-endian MIPS32 ELF or a hex word listing and runs it on the
// single-cycle engine or the 5-stage pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mipssim/config"
	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/loader"
	"github.com/sarchlab/mipssim/timing/core"
)

// Exit statuses used when the guest did not call exit itself.
const (
	exitOK    = 0
	exitFault = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	mode       string
	configPath string
	hex        bool
	delaySlot  bool
	forwarding bool
	hazard     bool
	memory     uint
	verbose    bool
	quiet      bool
	dump       bool
	stats      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("mipssim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.mode, "mode", "single", "Execution engine: single or pipeline")
	fs.StringVar(&opts.configPath, "config", "", "Path to machine configuration JSON file")
	fs.BoolVar(&opts.hex, "hex", false, "Treat the program as a hex word listing instead of ELF")
	fs.BoolVar(&opts.delaySlot, "delay-slot", true, "Execute the instruction after a taken branch")
	fs.BoolVar(&opts.forwarding, "forwarding", true, "Enable operand forwarding (pipeline)")
	fs.BoolVar(&opts.hazard, "hazard", true, "Enable hazard detection stalls (pipeline)")
	fs.UintVar(&opts.memory, "memory", 0, "Memory size in bytes (overrides config)")
	fs.BoolVar(&opts.verbose, "v", false, "Trace every step at debug level")
	fs.BoolVar(&opts.quiet, "q", false, "Only log errors")
	fs.BoolVar(&opts.dump, "dump", false, "Print the register file after the run")
	fs.BoolVar(&opts.stats, "stats", true, "Print the statistics report after the run")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mipssim [options] <program>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, nil, errors.New("expected exactly one program")
	}

	return opts, fs, nil
}

// machineConfig starts from the config file (or the defaults) and applies
// only the flags given on the command line.
func machineConfig(opts *options, fs *flag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "delay-slot":
			cfg.DelaySlot = opts.delaySlot
		case "forwarding":
			cfg.Forwarding = opts.forwarding
		case "hazard":
			cfg.HazardDetection = opts.hazard
		case "memory":
			cfg.MemorySize = uint32(opts.memory)
		}
	})

	return cfg, cfg.Validate()
}

func newLogger(opts *options, stderr io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	switch {
	case opts.quiet:
		logger.SetLevel(logrus.ErrorLevel)
	case opts.verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}

	return logger
}

func loadProgram(path string, hex bool) (*loader.Program, error) {
	if hex {
		words, err := loader.LoadHexFile(path)
		if err != nil {
			return nil, err
		}
		return loader.FromWords(words), nil
	}
	return loader.Load(path)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	mode, err := core.ParseMode(opts.mode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	cfg, err := machineConfig(opts, fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitUsage
	}

	logger := newLogger(opts, stderr)
	programPath := fs.Arg(0)

	prog, err := loadProgram(programPath, opts.hex)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitFault
	}

	logger.WithFields(logrus.Fields{
		"program":  programPath,
		"entry":    fmt.Sprintf("0x%X", prog.EntryPoint),
		"segments": len(prog.Segments),
		"mode":     mode.String(),
	}).Info("program loaded")

	machine, err := core.New(cfg,
		core.WithStdout(stdout),
		core.WithStdin(stdin),
		core.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if err := machine.LoadImage(prog); err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return exitFault
	}

	result, runErr := machine.RunMode(ctx, mode)

	if opts.stats {
		printReport(stderr, programPath, mode, result, machine.Stats(mode))
	}
	if opts.dump {
		printRegisters(stderr, machine)
	}

	if runErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return exitFault
	}
	if result.Exited {
		return int(result.ExitCode)
	}
	return exitOK
}

func printReport(w io.Writer, programPath string, mode core.Mode, result core.RunResult, stats core.Stats) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Program: %s\n", programPath)
	fmt.Fprintf(w, "Mode: %s\n", mode)
	if result.Exited {
		fmt.Fprintf(w, "Exit code: %d\n", result.ExitCode)
	}
	fmt.Fprintf(w, "Total Instructions: %d\n", stats.Instructions)
	fmt.Fprintf(w, "Total Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(w, "CPI: %.2f\n", stats.CPI())

	if mode == core.ModePipeline {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "Pipeline Events:\n")
		fmt.Fprintf(w, "  Stalls:       %d\n", stats.Stalls)
		fmt.Fprintf(w, "  Flushes:      %d\n", stats.Flushes)
		fmt.Fprintf(w, "  Bubbles:      %d\n", stats.Bubbles)
		fmt.Fprintf(w, "  Data hazards: %d\n", stats.DataHazards)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Caches:\n")
	fmt.Fprintf(w, "  I-Cache: %d hits, %d misses (%.1f%%)\n",
		stats.ICache.Hits, stats.ICache.Misses, 100*stats.ICache.HitRate())
	fmt.Fprintf(w, "  D-Cache: %d hits, %d misses (%.1f%%)\n",
		stats.DCache.Hits, stats.DCache.Misses, 100*stats.DCache.HitRate())
}

func printRegisters(w io.Writer, machine *core.Machine) {
	rf := machine.RegFile()

	fmt.Fprintf(w, "\nRegisters:\n")
	for i := 0; i < 32; i++ {
		fmt.Fprintf(w, "  %-5s %11d", insts.RegName(uint8(i)), rf.ReadReg(uint8(i)))
		if i%4 == 3 {
			fmt.Fprintf(w, "\n")
		}
	}
	fmt.Fprintf(w, "  pc    0x%08X  hi %d  lo %d\n", rf.PC, rf.HI, rf.LO)
}
