// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = func() (equ map[string]string) {
	equ = maps.Clone(_cpu_defines)
	equ["LINENO"] = "0"
	return
}()

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Assembler is a single pass macro assembler for the onebit system.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to ROM addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Macro expansion counter, for @ local labels.
}

// Predefine defines a new equate or redefines an existing equate, applied
// at the start of every Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the 16-bit value of a simple word.
// Negative values are stored two's complement.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber("~")
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 > 0xffff || v64 < -0x8000 {
		err = ErrWordRange
		return
	}

	value = uint16(v64)
	if invert {
		value = ^value
	}

	return
}

// register returns the 7-bit register address of a word.
func (asm *Assembler) register(word string) (addr uint8, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if value > CODE_ADDR_MAX {
		err = ErrOperandRange
		return
	}

	addr = uint8(value)
	return
}

// romValue returns the value of a word naming a ROM address or constant.
// Identifiers that are not numbers are returned as labels for linking.
func (asm *Assembler) romValue(word string) (value uint16, label string, err error) {
	if reLabel.MatchString(word) {
		label = word
		return
	}

	value, err = asm.valueOf(word)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value16, err := asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	for key, ip := range asm.Label {
		pred[key] = starlark.MakeInt(ip)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	if st_int64 > 0xffff || st_int64 < -0x8000 {
		err = ErrWordRange
		return
	}
	value = uint16(st_int64)
	return
}

// parseLine parses a single line, expanding macros, and returns the
// remaining instruction words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			case "e":
				str = "\033"
			default:
				return word
			}
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = nil
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := strings.TrimSuffix(words[0], ":")
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentIp()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err == nil {
				err = asm.parseWords(words, lineno)
			}
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentIp gets the current Ip
func (asm *Assembler) currentIp() int {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Ip + len(last.Codes)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.expansions = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line, _, _ = strings.Cut(text, ";")
		line = strings.TrimSpace(line)
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
				Args:   words[2:],
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		ip, ok := asm.Label[op.LinkLabel]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		if uint16(ip)&^op.LinkMask != 0 || ip > 0xffff {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelRange(op.LinkLabel)
			return
		}
		linked := &op.Codes[len(op.Codes)-1]
		*linked |= Code((uint16(ip) & op.LinkMask) << op.LinkShift)
		if asm.Verbose {
			log.Printf("%v: link %v = %04x", op.LineNo, op.LinkLabel, ip)
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// opMap maps instruction names.
var opMap = map[string]CodeOp{
	"copy": OP_COPY,
	"load": OP_LOAD,
	"nand": OP_NAND,
	"xor":  OP_XOR,
}

// argCount checks that an instruction has exactly count operands.
func argCount(words []string, count int) (err error) {
	switch {
	case len(words)-1 < count:
		err = ErrOpcodeValueMissing
	case len(words)-1 > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var label string
	var link_mask uint16
	var link_shift int

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words
	ip := asm.currentIp()

	defer func() {
		if len(codes) == 0 || err != nil {
			return
		}
		opcode := Opcode{
			LineNo:    lineno,
			Ip:        ip,
			Words:     initial_words,
			Codes:     codes,
			LinkLabel: label,
			LinkMask:  link_mask,
			LinkShift: link_shift,
		}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	// Alternate syntax substitutions
	switch {
	case len(words) >= 1 && words[0] == "move":
		// move A B => copy A B
		words = append([]string{"copy"}, words[1:]...)
	case len(words) == 2 && words[0] == "not":
		// not X => nand X X
		words = []string{"nand", words[1], words[1]}
	case len(words) == 2 && words[0] == "clear":
		// clear X => xor X X
		words = []string{"xor", words[1], words[1]}
	case len(words) == 1 && words[0] == "halt":
		// halt => jump to self
		words = []string{"jump", fmt.Sprintf("%#x", ip)}
	default:
		// unchanged
	}

	switch words[0] {
	case "copy", "nand", "xor":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		var a, b uint8
		a, err = asm.register(words[1])
		if err != nil {
			return
		}
		b, err = asm.register(words[2])
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(opMap[words[0]], a, b))
	case "load":
		err = argCount(words, 2)
		if err != nil {
			return
		}
		var index uint16
		index, label, err = asm.romValue(words[1])
		if err != nil {
			return
		}
		if index > CODE_ADDR_MAX {
			err = ErrOperandRange
			return
		}
		var b uint8
		b, err = asm.register(words[2])
		if err != nil {
			return
		}
		if len(label) != 0 {
			link_mask = CODE_ADDR_MAX
			link_shift = CODE_ADDR1_SHIFT
		}
		codes = append(codes, MakeCode(OP_LOAD, uint8(index&CODE_ADDR_MAX), b))
	case "set":
		// set X => xor X X, nand X X
		err = argCount(words, 1)
		if err != nil {
			return
		}
		var x uint8
		x, err = asm.register(words[1])
		if err != nil {
			return
		}
		codes = append(codes, MakeCode(OP_XOR, x, x), MakeCode(OP_NAND, x, x))
	case "jump":
		// jump TARGET => load the next word into the PC, then the target word.
		err = argCount(words, 1)
		if err != nil {
			return
		}
		// The target word is addressed by the 7-bit load operand.
		if ip+1 > CODE_ADDR_MAX {
			err = ErrJumpRange
			return
		}
		var target uint16
		target, label, err = asm.romValue(words[1])
		if err != nil {
			return
		}
		if len(label) != 0 {
			link_mask = 0xffff
		}
		codes = append(codes,
			MakeCode(OP_LOAD, uint8(ip+1), REG_PC),
			Code(target),
		)
	case ".word":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for n, word := range words[1:] {
			var value uint16
			var word_label string
			value, word_label, err = asm.romValue(word)
			if err != nil {
				return
			}
			if len(word_label) != 0 {
				// Only the last word of a line can be linked.
				if n != len(words)-2 {
					err = ErrOpcodeExtraArgs
					return
				}
				label = word_label
				link_mask = 0xffff
				link_shift = 0
			}
			codes = append(codes, Code(value))
		}
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
