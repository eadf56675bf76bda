package emulator

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/onebit/cpu"
	"github.com/ezrec/onebit/io"
)

var helloProgram = []string{
	".macro BIT1",
	"set OUT_BIT",
	"not OUT_READY",
	".endm",
	".macro BIT0",
	"clear OUT_BIT",
	"not OUT_READY",
	".endm",
	".macro BYTE b7 b6 b5 b4 b3 b2 b1 b0",
	"b7",
	"b6",
	"b5",
	"b4",
	"b3",
	"b2",
	"b1",
	"b0",
	".endm",
	"BYTE BIT0 BIT1 BIT1 BIT0 BIT1 BIT0 BIT0 BIT0 ; 'h'",
	"BYTE BIT0 BIT1 BIT1 BIT0 BIT1 BIT0 BIT0 BIT1 ; 'i'",
	"halt",
}

var echoProgram = []string{
	".macro ECHO",
	"clear OUT_BIT",
	"xor IN_BIT OUT_BIT",
	"not OUT_READY",
	"clear IN_READY",
	".endm",
	"ECHO",
	"ECHO",
	"ECHO",
	"ECHO",
	"ECHO",
	"ECHO",
	"ECHO",
	"ECHO",
	"halt",
}

func assemble(t *testing.T, emu *Emulator, program []string) {
	asm := &cpu.Assembler{}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	emu.Program = prog
}

type failWriter struct{}

var errWrite = errors.New("write failed")

func (failWriter) Write(p []byte) (int, error) {
	return 0, errWrite
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Program)
	assert.Nil(emu.Engine)
	assert.Equal(TEMP_CAPACITY, emu.Temporary.Capacity)

	assert.Equal(0, emu.Ticks())
	assert.Equal(0, emu.Power())
	assert.Equal(0, emu.Ip())
	assert.Equal(0, emu.LineNo())

	done, err := emu.Tick()
	assert.False(done)
	assert.ErrorIs(err, ErrNotReset)

	// Nothing to run.
	err = emu.Reset()
	assert.ErrorIs(err, cpu.ErrInvalidRom)
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("65536", defines["ROM_WORDS_MAX"])
	assert.Equal("8192", defines["TEMP_CAPACITY"])
	assert.Equal("0", defines["PC"])
	assert.Equal("19", defines["OUT_READY"])
}

func TestEmulatorHello(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(t, emu, helloProgram)

	output := &bytes.Buffer{}
	emu.Tape.Output = output

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run(context.Background(), 0))
	assert.Equal("hi", output.String())
	assert.Equal(40, emu.Ticks())
	assert.True(emu.Engine.Halted())

	// A reset runs the program again.
	assert.NoError(emu.Reset())
	assert.NoError(emu.Run(context.Background(), 0))
	assert.Equal("hihi", output.String())
}

func TestEmulatorTemporary(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(t, emu, helloProgram)
	emu.Output = &emu.Temporary

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run(context.Background(), 0))

	assert.Equal([]byte("hi"), slices.Collect(io.BytesOf(emu.Temporary.Receive())))
}

func TestEmulatorEcho(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(t, emu, echoProgram)

	output := &bytes.Buffer{}
	emu.Tape.Input = strings.NewReader("A")
	emu.Tape.Blocking = true
	emu.Tape.Output = output

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run(context.Background(), 0))
	assert.Equal("A", output.String())
}

func TestEmulatorTick(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(t, emu, []string{
		"copy 20 40",
		"; nothing",
		"set 30",
		"halt",
	})
	assert.NoError(emu.Reset())

	expected := []struct {
		ip     int
		lineno int
		code   cpu.Code
	}{
		{0, 1, cpu.MakeCode(cpu.OP_COPY, 20, 40)},
		{1, 3, cpu.MakeCode(cpu.OP_XOR, 30, 30)},
		{2, 3, cpu.MakeCode(cpu.OP_NAND, 30, 30)},
	}

	for _, entry := range expected {
		assert.Equal(entry.ip, emu.Ip())
		assert.Equal(entry.lineno, emu.LineNo())
		assert.Equal(entry.code, emu.Code())

		done, err := emu.Tick()
		assert.NoError(err)
		assert.False(done)
	}

	assert.Equal(4, emu.LineNo())
	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(3, emu.Ip())

	// Halted stays halted.
	done, err = emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(4, emu.Ticks())
	assert.True(emu.Engine.Register(30))
}

func TestEmulatorRom(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(t, emu, helloProgram)

	rom := &io.Rom{Data: emu.Image()}
	buffer := &bytes.Buffer{}
	assert.NoError(rom.Marshal(buffer))

	emu = NewEmulator()
	assert.NoError(emu.Rom.Unmarshal(buffer))
	assert.Equal(rom.Data, emu.Image())

	output := &bytes.Buffer{}
	emu.Tape.Output = output

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run(context.Background(), 0))
	assert.Equal("hi", output.String())
	assert.Equal(0, emu.LineNo())

	// A disassembled listing runs the same image.
	emu.Program = cpu.Disassemble(emu.Rom.Data)
	assert.Equal(rom.Data, emu.Image())
	assert.NoError(emu.Reset())
	assert.Equal(1, emu.LineNo())
}

func TestEmulatorLimit(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(t, emu, []string{
		"start: copy 20 40",
		"       jump start",
	})
	assert.NoError(emu.Reset())

	err := emu.Run(context.Background(), 10)
	assert.ErrorIs(err, cpu.ErrTickLimit)
	var rte *ErrRuntime
	assert.True(errors.As(err, &rte))
	assert.Equal(10, emu.Ticks())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(emu.Run(ctx, 0), context.Canceled)
	assert.Equal(10, emu.Ticks())
}

func TestEmulatorTapeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(t, emu, helloProgram)
	emu.Tape.Output = failWriter{}

	assert.NoError(emu.Reset())

	err := emu.Run(context.Background(), 0)
	assert.ErrorIs(err, errWrite)

	var rte *ErrRuntime
	assert.True(errors.As(err, &rte))
	assert.NotZero(rte.LineNo)
	assert.Equal(19, emu.Ticks())
}

// gateReader holds every read until its gate is closed, and reports each
// read it starts on entered.
type gateReader struct {
	gate    chan struct{}
	entered chan struct{}
	data    *strings.Reader
}

func (gr *gateReader) Read(p []byte) (int, error) {
	select {
	case gr.entered <- struct{}{}:
	default:
	}
	<-gr.gate
	return gr.data.Read(p)
}

func TestEmulatorResetReading(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assemble(t, emu, []string{
		"start: copy 20 40",
		"       jump start",
	})

	reader := &gateReader{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
		data:    strings.NewReader("\x00\xff"),
	}
	emu.Tape.Input = reader

	assert.NoError(emu.Reset())
	assert.True(emu.Engine.Awaiting())

	select {
	case <-reader.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("tape did not start reading")
	}

	// The first engine's read is still waiting when the second reset lands.
	assert.NoError(emu.Reset())
	assert.True(emu.Engine.Awaiting())

	close(reader.gate)

	deadline := time.Now().Add(5 * time.Second)
	for emu.Engine.Awaiting() && time.Now().Before(deadline) {
		_, err := emu.Tick()
		assert.NoError(err)
	}

	// The abandoned read consumed the first byte; the new engine sees
	// the first bit of the second.
	assert.False(emu.Engine.Awaiting())
	assert.True(emu.Engine.Register(cpu.REG_IN_READY))
	assert.True(emu.Engine.Register(cpu.REG_IN_BIT))
	assert.NoError(emu.Tape.Err())
}
