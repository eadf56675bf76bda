// Package io provides the single-bit devices attached to the onebit engine.
// It includes the null device (Null), byte stream I/O (Tape), a loopback
// bit buffer (Temporary), and the ROM image codec (Rom).
package io

// Input is a single-bit input device.
//
// The engine holds at most one request outstanding at a time, and never
// waits on it.
type Input interface {
	// Request asks the device for its next bit. The device answers by
	// sending exactly one value on response, either before Request
	// returns or later from any goroutine. The response channel always
	// has room for the answer.
	Request(response chan<- bool)
}

// Output is a single-bit output device.
type Output interface {
	// Send delivers a single bit to the device.
	Send(value bool)
}

// InputFunc adapts a synchronous bit source to the Input interface.
type InputFunc func() bool

var _ Input = InputFunc(nil)

// Request answers immediately with the result of fn.
func (fn InputFunc) Request(response chan<- bool) {
	response <- fn()
}

// OutputFunc adapts a function to the Output interface.
type OutputFunc func(value bool)

var _ Output = OutputFunc(nil)

// Send calls fn with the bit.
func (fn OutputFunc) Send(value bool) {
	fn(value)
}

// Null reads as an endless stream of false bits, and discards all output.
type Null struct{}

var _ Input = Null{}
var _ Output = Null{}

func (Null) Request(response chan<- bool) {
	response <- false
}

func (Null) Send(value bool) {
}
