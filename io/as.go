package io

import (
	"iter"
)

// SendAsUint8 sends an 8-bit unsigned integer as 8 bits to the output,
// MSB first.
func SendAsUint8(out Output, value uint8) {
	for n := 7; n >= 0; n-- {
		out.Send(((value >> n) & 1) == 1)
	}
}

// BitsOf returns an iterator over the bits of data, MSB first.
func BitsOf(data []byte) iter.Seq[bool] {
	return func(yield func(value bool) bool) {
		for _, value := range data {
			for n := 7; n >= 0; n-- {
				if !yield(((value >> n) & 1) == 1) {
					return
				}
			}
		}
	}
}

// BytesOf returns an iterator that packs bits into bytes, MSB first.
// A trailing partial byte is discarded.
func BytesOf(bits iter.Seq[bool]) iter.Seq[uint8] {
	return func(yield func(value uint8) bool) {
		var n int
		var value uint8
		for bit := range bits {
			value <<= 1
			if bit {
				value |= 1
			}
			n++
			if n == 8 {
				if !yield(value) {
					return
				}
				value = 0
				n = 0
			}
		}
	}
}
