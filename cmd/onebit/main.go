// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/ezrec/onebit/cpu"
	"github.com/ezrec/onebit/emulator"
	"github.com/ezrec/onebit/internal"
	"github.com/ezrec/onebit/io"
	"github.com/ezrec/onebit/translate"
)

type options struct {
	compile string
	rom     string
	save    string
	input   string
	output  string
	lang    string
	list    bool
	pages   bool
	loop    bool
	raw     bool
	stats   bool
	verbose bool
	limit   int
}

func main() {
	var opt options

	flag.StringVar(&opt.compile, "c", "", ".ob file to assemble")
	flag.StringVar(&opt.rom, "r", "", ".rom image to run")
	flag.StringVar(&opt.save, "s", "", "Save ROM image to file, do not execute")
	flag.BoolVar(&opt.list, "l", false, "List program, do not execute")
	flag.StringVar(&opt.input, "i", "-", "Tape input")
	flag.StringVar(&opt.output, "o", "-", "Tape output")
	flag.BoolVar(&opt.pages, "p", false, "Enable paged ROM addressing")
	flag.BoolVar(&opt.loop, "loop", false, "Loop output back to input")
	flag.BoolVar(&opt.raw, "raw", false, "Raw terminal input")
	flag.BoolVar(&opt.stats, "stats", false, "Serve runtime statistics")
	flag.IntVar(&opt.limit, "n", 0, "Tick limit (0 is unlimited)")
	flag.StringVar(&opt.lang, "lang", "", "Message locales, comma separated")
	flag.BoolVar(&opt.verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(opt.lang) != 0 {
		translate.SetLocales(strings.Split(opt.lang, ",")...)
	}

	err := run(&opt)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}

// load assembles or reads the program selected by the options.
func load(emu *emulator.Emulator, opt *options) (err error) {
	switch {
	case len(opt.compile) != 0:
		inf, err := os.Open(opt.compile)
		if err != nil {
			return err
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: opt.verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			return err
		}
	case len(opt.rom) != 0:
		inf, err := os.Open(opt.rom)
		if err != nil {
			return err
		}
		defer inf.Close()

		err = emu.Rom.Unmarshal(inf)
		if err != nil {
			return err
		}
		emu.Program = cpu.Disassemble(emu.Rom.Data)
	default:
		err = flag.ErrHelp
	}

	return
}

func list(emu *emulator.Emulator) {
	p := translate.Printer()

	for name, value := range internal.IterSeq2Sorted(emu.Defines()) {
		p.Printf(".equ %v %v\n", name, value)
	}

	for ip, code := range emu.Program.Codes() {
		dbg := emu.Program.Debug(ip)
		p.Printf("%04x: %04x  %-22v ; line %d\n", ip, uint16(code), code, dbg.LineNo)
	}
}

func run(opt *options) (err error) {
	emu := emulator.NewEmulator()
	emu.Verbose = opt.verbose
	emu.Pages = opt.pages

	if opt.verbose {
		log.Printf("language %v", translate.Language())
	}

	err = load(emu, opt)
	if err != nil {
		return
	}

	if len(opt.save) != 0 {
		ouf, err := os.Create(opt.save)
		if err != nil {
			return err
		}
		defer ouf.Close()

		rom := &io.Rom{Data: emu.Image()}
		return rom.Marshal(ouf)
	}

	if opt.list {
		list(emu)
		return
	}

	if opt.stats {
		launchStats()
	}

	if opt.input == "-" {
		emu.Tape.Input = os.Stdin
		if opt.raw {
			console, err := SetRawConsole()
			if err != nil {
				return err
			}
			defer console.Restore()
		}
	} else {
		inf, err := os.Open(opt.input)
		if err != nil {
			return err
		}
		defer inf.Close()
		emu.Tape.Input = inf
		emu.Tape.Blocking = true
	}

	if opt.output == "-" {
		emu.Tape.Output = os.Stdout
	} else {
		ouf, err := os.Create(opt.output)
		if err != nil {
			return err
		}
		defer ouf.Close()
		emu.Tape.Output = ouf
	}

	if opt.loop {
		emu.Input = &emu.Temporary
		emu.Output = &emu.Temporary
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = emu.Run(ctx, opt.limit)

	if opt.verbose {
		log.Printf("ticks %v power %v\n%v", emu.Ticks(), emu.Power(), emu.Engine)
	}

	return
}
