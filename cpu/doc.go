// Package cpu implements the engine and assembler for the onebit system.
//
// The engine is a bit-serial processor with a register file of 143 single
// bit cells. Cells 0-15 hold the program counter as a big-endian word,
// cells 16-19 are the input/output handshake registers, cells 20-127 are
// general purpose, and cells 128-142 are hidden paging bits. There are four
// instructions (copy, load, nand, xor), each naming two 7-bit addresses.
//
// A program halts by jumping to itself: an instruction that writes its own
// address back into the program counter stops the engine.
//
// The assembler provides a small assembly language for the onebit
// instruction set, supporting macros, labels, equates, and compile-time
// expression evaluation.
package cpu
