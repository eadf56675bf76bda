package cpu

import (
	"fmt"
)

// CodeOp is an instruction operation type.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_COPY = CodeOp(0) // copy
	OP_LOAD = CodeOp(1) // load
	OP_NAND = CodeOp(2) // nand
	OP_XOR  = CodeOp(3) // xor
)

// Instruction word layout.
const (
	CODE_ADDR1_MASK  = uint16(0b1111_1110_0000_0000) // First address, bits 15-9.
	CODE_ADDR2_MASK  = uint16(0b0000_0001_1111_1100) // Second address, bits 8-2.
	CODE_OP_MASK     = uint16(0b0000_0000_0000_0011) // Operation, bits 1-0.
	CODE_ADDR1_SHIFT = 9
	CODE_ADDR2_SHIFT = 2
	CODE_ADDR_MAX    = 0x7f // Largest value of either address field.
)

// Code is a single 16-bit instruction word.
type Code uint16

// MakeCode creates an instruction word. Addresses are truncated to 7 bits.
func MakeCode(op CodeOp, a, b uint8) Code {
	word := (uint16(a&CODE_ADDR_MAX) << CODE_ADDR1_SHIFT) |
		(uint16(b&CODE_ADDR_MAX) << CODE_ADDR2_SHIFT) |
		(uint16(op) & CODE_OP_MASK)
	return Code(word)
}

// Op returns the operation of the instruction word.
func (code Code) Op() CodeOp {
	return CodeOp(uint16(code) & CODE_OP_MASK)
}

// Decode returns the operation and both address fields.
func (code Code) Decode() (op CodeOp, a, b uint8) {
	word := uint16(code)
	op = CodeOp(word & CODE_OP_MASK)
	a = uint8((word & CODE_ADDR1_MASK) >> CODE_ADDR1_SHIFT)
	b = uint8((word & CODE_ADDR2_MASK) >> CODE_ADDR2_SHIFT)
	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	op, a, b := code.Decode()
	return fmt.Sprintf("%v 0x%02x 0x%02x", op, a, b)
}

// Opcode represents a line of assembled code with its source location and generated instructions.
//
// When LinkLabel is set, the address of the label is merged into the last
// code at link time: (address & LinkMask) << LinkShift.
type Opcode struct {
	LineNo    int
	Ip        int
	Words     []string
	Codes     []Code
	LinkLabel string
	LinkMask  uint16
	LinkShift int
}
