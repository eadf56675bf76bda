package cpu

// Register file layout.
const (
	REG_PC        = 0   // Program counter word, cells 0-15.
	REG_IN_BIT    = 16  // Last bit read from the input device.
	REG_IN_READY  = 17  // Set while REG_IN_BIT holds an unconsumed bit.
	REG_OUT_BIT   = 18  // Bit to send to the output device.
	REG_OUT_READY = 19  // Set while REG_OUT_BIT is waiting to be sent.
	REG_GP        = 20  // First general purpose cell.
	REG_PAGE      = 122 // Word address whose low 9 bits are the page cells 129-137.
	REG_HIDDEN    = 128 // First hidden paging cell.

	REGISTER_COUNT = 143 // Physical cells in the register file.
	WORD_BITS      = 16  // Cells in a word.
)

// RegisterFile is the bit-addressable register storage of the engine.
//
// Cells beyond the end of the file read as false, and writes to them are
// dropped.
type RegisterFile [REGISTER_COUNT]bool

// Reset clears every cell.
func (rf *RegisterFile) Reset() {
	clear(rf[:])
}

// Bit returns the cell at addr.
func (rf *RegisterFile) Bit(addr int) bool {
	if addr < 0 || addr >= len(rf) {
		return false
	}
	return rf[addr]
}

// SetBit sets the cell at addr, returning the number of cells changed.
func (rf *RegisterFile) SetBit(addr int, value bool) (flipped int) {
	if addr < 0 || addr >= len(rf) {
		return
	}
	if rf[addr] != value {
		rf[addr] = value
		flipped = 1
	}
	return
}

// Word returns the 16 cells starting at addr as an integer, most
// significant bit first.
func (rf *RegisterFile) Word(addr int) (value uint16) {
	for n := range WORD_BITS {
		value <<= 1
		if rf.Bit(addr + n) {
			value |= 1
		}
	}
	return
}

// SetWord stores value into the 16 cells starting at addr, most significant
// bit first, returning the number of cells changed.
func (rf *RegisterFile) SetWord(addr int, value uint16) (flipped int) {
	for n := range WORD_BITS {
		bit := (value & (1 << (WORD_BITS - 1 - n))) != 0
		flipped += rf.SetBit(addr+n, bit)
	}
	return
}
