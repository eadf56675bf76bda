package io

import (
	"iter"
)

// Temporary implements a circular buffer for temporary bit storage.
// It operates as a FIFO queue with a fixed capacity, and can be attached
// as both the input and the output device of an engine to loop output
// back into input.
//
// A request against an empty buffer stays pending, and is answered by the
// next Send.
type Temporary struct {
	Capacity int // Capacity in bits.
	Dropped  int // Bits discarded by Send while the buffer was full.

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []bool

	pending chan<- bool
}

var _ Input = (*Temporary)(nil)
var _ Output = (*Temporary)(nil)

// Rewind resets the temporary storage to empty, resetting indices and
// reinitializing the data buffer. A pending request is dropped.
func (temp *Temporary) Rewind() {
	temp.pending = nil
	temp.ReadIndex = 0
	temp.WriteIndex = 0
	temp.Size = 0
	temp.Dropped = 0
	temp.Data = make([]bool, temp.Capacity)
}

// Pending returns true if a request is waiting for a bit.
func (temp *Temporary) Pending() bool {
	return temp.pending != nil
}

// Receive returns an iterator that yields bits from the buffer until empty.
// The buffer wraps around at the capacity boundary.
func (temp *Temporary) Receive() iter.Seq[bool] {
	return func(yield func(value bool) bool) {
		for temp.Size > 0 {
			if !yield(temp.pop()) {
				return
			}
		}
	}
}

func (temp *Temporary) pop() (bit bool) {
	bit = temp.Data[temp.ReadIndex]
	temp.ReadIndex++
	if temp.ReadIndex == temp.Capacity {
		temp.ReadIndex = 0
	}
	temp.Size--

	return
}

// Request answers with the oldest buffered bit, or holds the request until
// a bit is sent.
func (temp *Temporary) Request(response chan<- bool) {
	if temp.Size > 0 {
		response <- temp.pop()
		return
	}

	temp.pending = response
}

// Send writes a bit to the buffer at the current write position, or hands
// it directly to a pending request. Bits sent to a full buffer are dropped.
func (temp *Temporary) Send(value bool) {
	if temp.pending != nil {
		temp.pending <- value
		temp.pending = nil
		return
	}

	if temp.Size >= temp.Capacity {
		temp.Dropped++
		return
	}

	if len(temp.Data) != temp.Capacity {
		temp.Data = make([]bool, temp.Capacity)
	}

	temp.Data[temp.WriteIndex] = value

	temp.WriteIndex++
	if temp.WriteIndex == temp.Capacity {
		temp.WriteIndex = 0
	}
	temp.Size++
}
