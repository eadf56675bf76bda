package main

import (
	"os"

	"golang.org/x/term"
)

// ConsoleState holds the terminal state to restore on exit.
type ConsoleState struct {
	fd    int
	state *term.State
}

// SetRawConsole switches a terminal standard input to raw mode, so that
// each keystroke is delivered to the tape as it is typed. It returns nil
// when standard input is not a terminal.
func SetRawConsole() (cs *ConsoleState, err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}

	cs = &ConsoleState{fd: fd, state: state}
	return
}

// Restore returns the terminal to its prior mode.
func (cs *ConsoleState) Restore() (err error) {
	if cs == nil {
		return
	}

	return term.Restore(cs.fd, cs.state)
}
