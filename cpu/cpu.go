package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"reflect"
	"slices"

	"github.com/ezrec/onebit/io"
)

var _cpu_defines = map[string]string{
	"PC":             fmt.Sprintf("%d", REG_PC),
	"IN_BIT":         fmt.Sprintf("%d", REG_IN_BIT),
	"IN_READY":       fmt.Sprintf("%d", REG_IN_READY),
	"OUT_BIT":        fmt.Sprintf("%d", REG_OUT_BIT),
	"OUT_READY":      fmt.Sprintf("%d", REG_OUT_READY),
	"GP":             fmt.Sprintf("%d", REG_GP),
	"PAGE":           fmt.Sprintf("%d", REG_PAGE),
	"HIDDEN":         fmt.Sprintf("%d", REG_HIDDEN),
	"REGISTER_COUNT": fmt.Sprintf("%d", REGISTER_COUNT),
}

// Option configures an engine at construction.
type Option func(engine *Engine)

// WithPages selects paged ROM addressing for load. Pages are enabled by default.
func WithPages(enable bool) Option {
	return func(engine *Engine) {
		engine.pages = enable
	}
}

// Engine is the simulation context of a single onebit machine.
type Engine struct {
	Verbose bool // Set to enable verbose logging.

	Power int // Power (bits flipped) counter.
	Ticks int // Engine ticks counter.

	register RegisterFile
	rom      []uint16
	input    io.Input
	output   io.Output
	pages    bool

	awaiting bool      // Input request outstanding.
	response chan bool // Input completions.
	halted   bool
}

// isNil returns true for nil interfaces, and for interfaces holding a nil
// pointer or function.
func isNil(device any) bool {
	if device == nil {
		return true
	}

	value := reflect.ValueOf(device)
	switch value.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		return value.IsNil()
	}

	return false
}

// NewEngine creates an engine running the ROM image, attached to the input
// and output devices. The first input request is issued before NewEngine
// returns.
func NewEngine(rom []uint16, input io.Input, output io.Output, opts ...Option) (engine *Engine, err error) {
	if len(rom) == 0 || len(rom) > io.ROM_WORDS_MAX {
		err = &ErrConstruction{Err: ErrInvalidRom}
		return
	}

	if isNil(input) || isNil(output) {
		err = &ErrConstruction{Err: ErrInvalidDevice}
		return
	}

	engine = &Engine{
		rom:      slices.Clone(rom),
		input:    input,
		output:   output,
		pages:    true,
		response: make(chan bool, 1),
	}

	for _, opt := range opts {
		opt(engine)
	}

	engine.request()

	return
}

// Defines for the engine registers.
func Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Pages returns true if load uses paged ROM addressing.
func (engine *Engine) Pages() bool {
	return engine.pages
}

// Halted returns true once the engine has stopped.
func (engine *Engine) Halted() bool {
	return engine.halted
}

// Awaiting returns true while an input request is outstanding.
func (engine *Engine) Awaiting() bool {
	return engine.awaiting
}

// Pc returns the program counter.
func (engine *Engine) Pc() uint16 {
	return engine.register.Word(REG_PC)
}

// Register returns the cell at addr.
func (engine *Engine) Register(addr int) bool {
	return engine.register.Bit(addr)
}

// Word returns the 16 cells starting at addr.
func (engine *Engine) Word(addr int) uint16 {
	return engine.register.Word(addr)
}

// Page returns the page number held in the hidden cells 129-137.
func (engine *Engine) Page() uint16 {
	return (engine.register.Word(REG_HIDDEN) & 0x7fc0) >> 6
}

// String returns the current engine state as a string.
func (engine *Engine) String() (text string) {
	bit := func(addr int) string {
		if engine.register.Bit(addr) {
			return "1"
		}
		return "0"
	}

	text += fmt.Sprintf("% 5s: %04x\n", "pc", engine.Pc())
	text += fmt.Sprintf("% 5s: %v ready %v\n", "in", bit(REG_IN_BIT), bit(REG_IN_READY))
	text += fmt.Sprintf("% 5s: %v ready %v\n", "out", bit(REG_OUT_BIT), bit(REG_OUT_READY))
	for addr := REG_GP; addr < REG_HIDDEN; addr += WORD_BITS {
		text += fmt.Sprintf("% 5s: %04x\n", fmt.Sprintf("r%d", addr), engine.register.Word(addr))
	}
	text += fmt.Sprintf("% 5s: %03x\n", "page", engine.Page())

	return
}

// fetch reads a ROM word. Words outside the image read as zero.
func (engine *Engine) fetch(index int) uint16 {
	if index < 0 || index >= len(engine.rom) {
		if engine.Verbose {
			log.Printf("engine: rom index %04x outside image of %d words", index, len(engine.rom))
		}
		return 0
	}

	return engine.rom[index]
}

// romIndex computes the ROM index addressed by a load operand.
func (engine *Engine) romIndex(a uint8) (index int) {
	index = int(a)

	if engine.pages {
		// Cell 128 is not part of the page; the next nine cells sit
		// directly above the 7 bits of the operand.
		hidden := engine.register.Word(REG_HIDDEN) & 0x7fff
		page := int(hidden&0x7fc0) << 1
		index |= page
	}

	return
}

// Execute executes a single decoded instruction, without advancing the
// program counter or servicing I/O. It returns the count of cells changed.
func (engine *Engine) Execute(code Code) (flipped int) {
	rf := &engine.register

	op, a, b := code.Decode()
	switch op {
	case OP_COPY:
		flipped = rf.SetWord(int(b), rf.Word(int(a)))
	case OP_LOAD:
		flipped = rf.SetWord(int(b), engine.fetch(engine.romIndex(a)))
	case OP_NAND:
		flipped = rf.SetBit(int(b), !(rf.Bit(int(a)) && rf.Bit(int(b))))
	case OP_XOR:
		flipped = rf.SetBit(int(b), rf.Bit(int(a)) != rf.Bit(int(b)))
	}

	return
}

// Step executes a single engine cycle: fetch, execute, halt detection and
// I/O service. Once the program has jumped to itself, Step returns
// ErrHalted, and keeps returning it without touching the engine state.
func (engine *Engine) Step() (err error) {
	if engine.halted {
		err = ErrHalted
		return
	}

	engine.poll()

	rf := &engine.register

	old_pc := rf.Word(REG_PC)
	power := rf.SetWord(REG_PC, old_pc+1)

	code := Code(engine.fetch(int(old_pc)))
	if engine.Verbose {
		log.Printf("%04x: %v", old_pc, code)
	}

	power += engine.Execute(code)

	engine.Ticks += 1
	engine.Power += power

	if rf.Word(REG_PC) == old_pc {
		if engine.Verbose {
			log.Printf("%04x: halt", old_pc)
		}
		engine.halted = true
		err = ErrHalted
		return
	}

	engine.service()

	return
}

// Run steps the engine until it halts, the context is done, or limit
// cycles have run. A limit of zero runs without limit. A halt is not an
// error.
func (engine *Engine) Run(ctx context.Context, limit int) (err error) {
	for n := 0; limit == 0 || n < limit; n++ {
		if n%1024 == 0 {
			err = ctx.Err()
			if err != nil {
				return
			}
		}

		err = engine.Step()
		if errors.Is(err, ErrHalted) {
			err = nil
			return
		}
		if err != nil {
			return
		}
	}

	err = ErrTickLimit
	return
}

// service runs the output and input handshakes.
func (engine *Engine) service() {
	rf := &engine.register

	if rf.Bit(REG_OUT_READY) {
		value := rf.Bit(REG_OUT_BIT)
		if engine.Verbose {
			log.Printf("engine: output %v", value)
		}
		engine.output.Send(value)
		rf.SetBit(REG_OUT_READY, false)
	}

	if !rf.Bit(REG_IN_READY) && !engine.awaiting {
		engine.request()
	}
}

// request issues a new input request, and applies a synchronous answer.
func (engine *Engine) request() {
	if engine.Verbose {
		log.Printf("engine: input request")
	}
	engine.awaiting = true
	engine.input.Request(engine.response)
	engine.poll()
}

// poll applies an input completion, if one has arrived.
func (engine *Engine) poll() {
	if !engine.awaiting {
		return
	}

	select {
	case value := <-engine.response:
		if engine.Verbose {
			log.Printf("engine: input %v", value)
		}
		engine.awaiting = false
		engine.register.SetBit(REG_IN_BIT, value)
		engine.register.SetBit(REG_IN_READY, true)
	default:
	}
}
