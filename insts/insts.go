// Package insts provides MIPS32 instruction definitions, decoding and encoding.
//
// This package turns 32-bit machine words into structured instruction
// records carrying their operand fields and the control-signal bundle that
// drives the datapath. It supports:
//   - R-format arithmetic, logic, shifts, HI/LO moves, multiply/divide,
//     register jumps and SYSCALL
//   - I-format immediate arithmetic, loads, stores and conditional branches
//   - J-format direct jumps
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x012A4020) // ADD $t0, $t1, $t2
//	fmt.Printf("%v rd=%d rs=%d rt=%d\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
package insts
