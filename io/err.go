package io

import (
	"errors"

	"github.com/ezrec/onebit/translate"
)

var f = translate.From

var (
	// Rom image errors
	ErrRomOdd   = errors.New(f("rom image has an odd number of bytes"))
	ErrRomLarge = errors.New(f("rom image exceeds 65536 words"))
)
