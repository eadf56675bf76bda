package cpu

import (
	"errors"

	"github.com/ezrec/onebit/translate"
)

var f = translate.From

var (
	// Engine conditions
	ErrHalted        = errors.New(f("halted"))
	ErrTickLimit     = errors.New(f("tick limit reached"))
	ErrInvalidRom    = errors.New(f("rom must hold between 1 and 65536 words"))
	ErrInvalidDevice = errors.New(f("input and output devices are required"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOperandRange       = errors.New(f("register address out of range"))
	ErrWordRange          = errors.New(f("word out of range"))
	ErrJumpRange          = errors.New(f("jump beyond the first 128 words"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrConstruction is returned when an engine cannot be built.
type ErrConstruction struct {
	Err error
}

func (err *ErrConstruction) Error() string {
	return f("construction %v", err.Err)
}

func (err *ErrConstruction) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrLabelRange string

func (el ErrLabelRange) Error() string {
	return f("label %v out of operand range", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
