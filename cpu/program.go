package cpu

import (
	"iter"
)

// Program is an assembled program listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the opcode that generated the code at an address.
type Debug struct {
	*Opcode
	Index int
}

// Disassemble creates a listing of a ROM image, one opcode per word.
// The line number of each opcode is its word number, counting from one.
func Disassemble(rom []uint16) (prog *Program) {
	prog = &Program{}
	for ip, word := range rom {
		code := Code(word)
		prog.Opcodes = append(prog.Opcodes, Opcode{
			LineNo: ip + 1,
			Ip:     ip,
			Words:  []string{code.String()},
			Codes:  []Code{code},
		})
	}

	return
}

func (prog *Program) Debug(ip uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(ip) >= op.Ip && int(ip) < op.Ip+len(op.Codes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(ip) - op.Ip,
			}
			break
		}
	}

	return
}

// Binary returns the ROM image of the program.
func (prog *Program) Binary() (bins []uint16) {
	for ip, code := range prog.Codes() {
		for len(bins) < int(ip) {
			bins = append(bins, 0)
		}
		bins = append(bins, uint16(code))
	}

	return
}

func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(ip uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			ip := uint16(op.Ip)
			for n, code := range op.Codes {
				if !yield(ip+uint16(n), code) {
					return
				}
			}
		}
	}
}
