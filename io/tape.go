package io

import (
	"errors"
	"io"
	"sync"
)

// Tape provides sequential I/O for byte streams.
// It wraps an io.Reader for input and io.Writer for output, converting
// between single bits and bytes, MSB first.
//
// Output bits are accumulated until a full byte is available; a partial
// byte is never written. When Blocking is not set, a request that needs a
// fresh input byte reads it on its own goroutine and answers when the read
// completes. At end of input every request is answered with false.
//
// Rewind abandons a read still in flight: its byte is dropped and its
// request is answered with false.
type Tape struct {
	Input    io.Reader
	Output   io.Writer
	Blocking bool // If set, input bytes are read synchronously.

	mutex      sync.Mutex // Guards the fields below.
	generation int        // Incremented by Rewind.
	readIndex  int
	hasInput   bool
	lastInput  byte
	nextOutput byte
	writeIndex int
	err        error

	reading sync.Mutex // Serializes reads of Input.
}

var _ Input = (*Tape)(nil)
var _ Output = (*Tape)(nil)

// Rewind drops any partially consumed input byte and partially assembled
// output byte.
func (tc *Tape) Rewind() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	tc.generation++
	tc.readIndex = 0
	tc.hasInput = false
	tc.nextOutput = 0
	tc.writeIndex = 0
}

// Err returns the first I/O error seen by the tape, other than end of input.
func (tc *Tape) Err() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	return tc.err
}

func (tc *Tape) setErr(err error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.err == nil {
		tc.err = err
	}
}

// read reads the next input byte, returning false when no byte is available.
func (tc *Tape) read(input io.Reader) (value byte, ok bool) {
	tc.reading.Lock()
	defer tc.reading.Unlock()

	var one [1]byte
	_, err := io.ReadFull(input, one[:])
	if err != nil {
		if !errors.Is(err, io.EOF) {
			tc.setErr(err)
		}
		return
	}

	value = one[0]
	ok = true
	return
}

// nextBit consumes the next bit of the current input byte.
// The caller holds tc.mutex.
func (tc *Tape) nextBit() (bit bool) {
	bit = ((tc.lastInput >> (7 - tc.readIndex)) & 1) != 0
	tc.readIndex++
	if tc.readIndex == 8 {
		tc.readIndex = 0
		tc.hasInput = false
	}

	return
}

// Request answers with the next input bit.
func (tc *Tape) Request(response chan<- bool) {
	tc.mutex.Lock()
	if tc.hasInput {
		bit := tc.nextBit()
		tc.mutex.Unlock()
		response <- bit
		return
	}
	input := tc.Input
	generation := tc.generation
	tc.mutex.Unlock()

	if input == nil {
		response <- false
		return
	}

	fill := func() {
		value, ok := tc.read(input)

		bit := false
		tc.mutex.Lock()
		if ok && generation == tc.generation {
			tc.lastInput = value
			tc.hasInput = true
			tc.readIndex = 0
			bit = tc.nextBit()
		}
		tc.mutex.Unlock()

		response <- bit
	}

	if tc.Blocking {
		fill()
	} else {
		go fill()
	}
}

// Send writes a bit to the output stream, buffering bits until a complete
// byte is assembled, then writing it.
func (tc *Tape) Send(value bool) {
	tc.mutex.Lock()
	tc.nextOutput <<= 1
	if value {
		tc.nextOutput |= 1
	}
	tc.writeIndex++

	complete := tc.writeIndex == 8
	data := tc.nextOutput
	if complete {
		tc.nextOutput = 0
		tc.writeIndex = 0
	}
	tc.mutex.Unlock()

	if complete && tc.Output != nil {
		_, err := tc.Output.Write([]byte{data})
		if err != nil {
			tc.setErr(err)
		}
	}
}
