package io

import (
	"encoding/binary"
	"io"
)

// ROM_WORDS_MAX is the number of words addressable by a 16-bit ROM index.
const ROM_WORDS_MAX = 1 << 16

// Rom is a ROM image: a flat sequence of 16-bit instruction words,
// stored big-endian.
type Rom struct {
	Data []uint16
}

// Unmarshal replaces the image with the contents of the stream.
func (rom *Rom) Unmarshal(input io.Reader) (err error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return
	}

	if len(data)%2 != 0 {
		err = ErrRomOdd
		return
	}

	if len(data)/2 > ROM_WORDS_MAX {
		err = ErrRomLarge
		return
	}

	rom.Data = make([]uint16, len(data)/2)
	for n := range rom.Data {
		rom.Data[n] = binary.BigEndian.Uint16(data[n*2:])
	}

	return
}

// Marshal writes the image to the stream.
func (rom *Rom) Marshal(output io.Writer) (err error) {
	if len(rom.Data) > ROM_WORDS_MAX {
		err = ErrRomLarge
		return
	}

	err = binary.Write(output, binary.BigEndian, rom.Data)

	return
}
