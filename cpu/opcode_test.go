package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_Decode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word uint16
		op   CodeOp
		a, b uint8
		text string
	}){
		{0x0000, OP_COPY, 0, 0, "copy 0x00 0x00"},
		{0x28a0, OP_COPY, 20, 40, "copy 0x14 0x28"},
		{0x0201, OP_LOAD, 1, 0, "load 0x01 0x00"},
		{0x204a, OP_NAND, 16, 18, "nand 0x10 0x12"},
		{0x2857, OP_XOR, 20, 21, "xor 0x14 0x15"},
		{0xffff, OP_XOR, 0x7f, 0x7f, "xor 0x7f 0x7f"},
	}

	for _, entry := range table {
		code := Code(entry.word)
		op, a, b := code.Decode()
		assert.Equal(entry.op, op, entry.text)
		assert.Equal(entry.op, code.Op(), entry.text)
		assert.Equal(entry.a, a, entry.text)
		assert.Equal(entry.b, b, entry.text)
		assert.Equal(entry.text, code.String())
		assert.Equal(code, MakeCode(op, a, b), entry.text)
	}
}

func TestCode_MakeTruncates(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(MakeCode(OP_NAND, 0x01, 0x02), MakeCode(OP_NAND, 0x81, 0x82))
}

func TestCodeOp_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("copy", OP_COPY.String())
	assert.Equal("load", OP_LOAD.String())
	assert.Equal("nand", OP_NAND.String())
	assert.Equal("xor", OP_XOR.String())
	assert.Equal("CodeOp(4)", CodeOp(4).String())
}
