// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/onebit/cpu"
	"github.com/ezrec/onebit/internal"
	"github.com/ezrec/onebit/io"
)

const (
	TEMP_CAPACITY = 8192 // Bits held by the loopback buffer.
)

var _emulator_defines = map[string]string{
	"ROM_WORDS_MAX": fmt.Sprintf("%v", io.ROM_WORDS_MAX),
	"TEMP_CAPACITY": fmt.Sprintf("%v", TEMP_CAPACITY),
}

// Emulator state. Engine + program + devices.
type Emulator struct {
	Verbose bool         // If set, enables verbose logging.
	Pages   bool         // If set, load uses paged ROM addressing.
	Engine  *cpu.Engine  // Reference to the engine simulation, built by Reset.
	Program *cpu.Program // Reference to the currently running program listing.

	Rom       io.Rom       // ROM image, used when Program is empty.
	Tape      io.Tape      // Tape device.
	Temporary io.Temporary // Loopback device.

	Input  io.Input  // Input device; the tape when nil.
	Output io.Output // Output device; the tape when nil.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	emu.Temporary.Capacity = TEMP_CAPACITY

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		cpu.Defines(),
	)
}

// Image returns the ROM image that Reset will run.
func (emu *Emulator) Image() []uint16 {
	if emu.Program != nil && len(emu.Program.Opcodes) != 0 {
		return emu.Program.Binary()
	}

	return emu.Rom.Data
}

// Reset builds a fresh engine for the program, or the ROM image when there
// is no program.
func (emu *Emulator) Reset() (err error) {
	input := emu.Input
	if input == nil {
		input = &emu.Tape
	}

	output := emu.Output
	if output == nil {
		output = &emu.Tape
	}

	emu.Tape.Rewind()
	emu.Temporary.Rewind()

	emu.Engine, err = cpu.NewEngine(emu.Image(), input, output, cpu.WithPages(emu.Pages))
	if err != nil {
		return
	}

	emu.Engine.Verbose = emu.Verbose

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	if emu.Engine == nil {
		return 0
	}
	return emu.Engine.Ticks
}

// Power returns the total power consumed.
func (emu *Emulator) Power() int {
	if emu.Engine == nil {
		return 0
	}
	return emu.Engine.Power
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	if emu.Engine == nil {
		return 0
	}
	return int(emu.Engine.Pc())
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	image := emu.Image()
	ip := emu.Ip()
	if ip < len(image) {
		return cpu.Code(image[ip])
	}

	return cpu.Code(0)
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(uint16(emu.Ip()))
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Engine == nil {
		err = ErrNotReset
		return
	}

	// Set engine verbosity
	emu.Engine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Engine.Step()
	if errors.Is(err, cpu.ErrHalted) {
		err = nil
		done = true
	}
	if err != nil {
		return
	}

	err = emu.Tape.Err()

	return
}

// Run ticks the emulator until the program halts, the context is done, or
// limit ticks have run. A limit of zero runs without limit.
func (emu *Emulator) Run(ctx context.Context, limit int) (err error) {
	for n := 0; limit == 0 || n < limit; n++ {
		err = ctx.Err()
		if err != nil {
			return
		}

		var done bool
		done, err = emu.Tick()
		if done || err != nil {
			return
		}
	}

	err = &ErrRuntime{LineNo: emu.LineNo(), Err: cpu.ErrTickLimit}
	return
}
