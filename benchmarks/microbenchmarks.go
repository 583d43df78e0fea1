package benchmarks

import (
	"github.com/sarchlab/mipssim/insts"
	"github.com/sarchlab/mipssim/timing/core"
)

// dataBase is where benchmarks keep their data, well clear of the code.
const dataBase = 0x200

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// targets a single pipeline or cache behavior and exits with a known code.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		loadUseChain(),
		branchLoop(),
		memoryStride(),
		functionCalls(),
		multiplyDivide(),
	}
}

// GetCoreBenchmarks returns a quick subset: a loop, a load-use chain and
// calls.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		branchLoop(),
		loadUseChain(),
		functionCalls(),
	}
}

func enc(op insts.Op, ops insts.Operands) uint32 {
	return insts.MustEncode(op, ops)
}

func nop() uint32 {
	return enc(insts.OpSLL, insts.Operands{})
}

// exitWith appends "move $a0, reg; exit2".
func exitWith(program []uint32, reg uint8) []uint32 {
	return append(program,
		enc(insts.OpADD, insts.Operands{Rd: insts.RegA0, Rs: reg}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegV0, Imm: 17}),
		enc(insts.OpSYSCALL, insts.Operands{}),
	)
}

// 1. Arithmetic Sequential - independent operations, no hazards
func arithmeticSequential() Benchmark {
	var program []uint32
	for round := 0; round < 4; round++ {
		for r := uint8(insts.RegT0); r < insts.RegT0+5; r++ {
			program = append(program, enc(insts.OpADDI, insts.Operands{Rt: r, Rs: r, Imm: 1}))
		}
	}

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 ADDIs over 5 registers - measures ALU throughput",
		Program:      exitWith(program, insts.RegT0+4),
		ExpectedExit: 4,
	}
}

// 2. Dependency Chain - every instruction reads the previous result
func dependencyChain() Benchmark {
	var program []uint32
	for i := 0; i < 20; i++ {
		program = append(program, enc(insts.OpADDI, insts.Operands{Rt: insts.RegT0, Rs: insts.RegT0, Imm: 1}))
	}

	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIs - measures forwarding",
		Program:      exitWith(program, insts.RegT0),
		ExpectedExit: 20,
	}
}

// 3. Load-Use Chain - each load feeds the next instruction
func loadUseChain() Benchmark {
	var program []uint32
	for i := 0; i < 8; i++ {
		program = append(program,
			enc(insts.OpLW, insts.Operands{Rt: insts.RegT1, Imm: int32(dataBase + 4*i)}),
			enc(insts.OpADD, insts.Operands{Rd: insts.RegT0, Rs: insts.RegT0, Rt: insts.RegT1}),
		)
	}

	return Benchmark{
		Name:        "load_use_chain",
		Description: "8 LW+ADD pairs - measures load-use stalls",
		Setup: func(m *core.Machine) {
			for i := uint32(0); i < 8; i++ {
				m.Memory().Write32(dataBase+4*i, i+1)
			}
		},
		Program:      exitWith(program, insts.RegT0),
		ExpectedExit: 36,
	}
}

// 4. Branch Loop - a counted loop with a taken back edge
func branchLoop() Benchmark {
	program := []uint32{
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT0, Imm: 10}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT1, Rs: insts.RegT1, Imm: 1}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT0, Rs: insts.RegT0, Imm: -1}),
		enc(insts.OpBNE, insts.Operands{Rs: insts.RegT0, Imm: -3}),
		nop(),
	}

	return Benchmark{
		Name:         "branch_loop",
		Description:  "10-iteration counted loop - measures branch handling",
		Program:      exitWith(program, insts.RegT1),
		ExpectedExit: 10,
	}
}

// 5. Memory Stride - one word per cache block, written then summed
func memoryStride() Benchmark {
	program := []uint32{
		// store 8..1 at a 16-byte stride
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT0, Imm: dataBase}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT2, Imm: 8}),
		enc(insts.OpSW, insts.Operands{Rt: insts.RegT2, Rs: insts.RegT0}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT0, Rs: insts.RegT0, Imm: 16}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT2, Rs: insts.RegT2, Imm: -1}),
		enc(insts.OpBNE, insts.Operands{Rs: insts.RegT2, Imm: -4}),
		nop(),

		// sum them back
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT0, Imm: dataBase}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT2, Imm: 8}),
		enc(insts.OpLW, insts.Operands{Rt: insts.RegS0, Rs: insts.RegT0}),
		enc(insts.OpADD, insts.Operands{Rd: insts.RegT1, Rs: insts.RegT1, Rt: insts.RegS0}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT0, Rs: insts.RegT0, Imm: 16}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT2, Rs: insts.RegT2, Imm: -1}),
		enc(insts.OpBNE, insts.Operands{Rs: insts.RegT2, Imm: -5}),
		nop(),
	}

	return Benchmark{
		Name:         "memory_stride",
		Description:  "8 stores and loads 16 bytes apart - measures data cache misses",
		Program:      exitWith(program, insts.RegT1),
		ExpectedExit: 36,
	}
}

// 6. Function Calls - JAL/JR pairs with delay slots
func functionCalls() Benchmark {
	const calls = 5
	const fn = calls*2 + 3 // word index of the callee

	var program []uint32
	for i := 0; i < calls; i++ {
		program = append(program, enc(insts.OpJAL, insts.Operands{Target: fn}), nop())
	}
	program = append(program,
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegV0, Imm: 17}),
		enc(insts.OpSYSCALL, insts.Operands{}),
		nop(),
		// fn: $a0 += 3
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegA0, Rs: insts.RegA0, Imm: 3}),
		enc(insts.OpJR, insts.Operands{Rs: insts.RegRA}),
		nop(),
	)

	return Benchmark{
		Name:         "function_calls",
		Description:  "5 calls to a leaf function - measures jump handling",
		Program:      program,
		ExpectedExit: 15,
	}
}

// 7. Multiply/Divide - HI/LO producers and consumers back to back
func multiplyDivide() Benchmark {
	program := []uint32{
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT0, Imm: 7}),
		enc(insts.OpADDI, insts.Operands{Rt: insts.RegT1, Imm: 6}),
		enc(insts.OpMULT, insts.Operands{Rs: insts.RegT0, Rt: insts.RegT1}),
		enc(insts.OpMFLO, insts.Operands{Rd: insts.RegT2}),
		enc(insts.OpDIV, insts.Operands{Rs: insts.RegT2, Rt: insts.RegT1}),
		enc(insts.OpMFLO, insts.Operands{Rd: insts.RegS0}),
		enc(insts.OpMFHI, insts.Operands{Rd: insts.RegS1}),
		enc(insts.OpADD, insts.Operands{Rd: insts.RegT2, Rs: insts.RegT2, Rt: insts.RegS0}),
		enc(insts.OpADD, insts.Operands{Rd: insts.RegT2, Rs: insts.RegT2, Rt: insts.RegS1}),
	}

	return Benchmark{
		Name:         "multiply_divide",
		Description:  "MULT, DIV and HI/LO moves - measures MDU handling",
		Program:      exitWith(program, insts.RegT2),
		ExpectedExit: 49,
	}
}
